// Copyright 2025 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2025 Department of Linguistics,
// Faculty of Arts, Charles University
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package benchmark

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

// fakeEngine mimics both coordinator interfaces the measurer talks to:
// the statement protocol and the query statistics REST API.
type fakeEngine struct {
	srv         *httptest.Server
	statsStatus int
	statsBody   string
	failQuery   bool
}

func newFakeEngine(statsStatus int, statsBody string) *fakeEngine {
	eng := &fakeEngine{
		statsStatus: statsStatus,
		statsBody:   statsBody,
	}
	eng.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch {
		case req.URL.Path == "/v1/statement":
			if eng.failQuery {
				fmt.Fprint(w, `{
					"id": "20250810_0099",
					"error": {"message": "Table 'missing' does not exist", "errorName": "TABLE_NOT_FOUND", "errorCode": 42},
					"stats": {"state": "FAILED"}
				}`)
				return
			}
			fmt.Fprint(w, `{
				"id": "20250810_0042",
				"columns": [{"name": "district", "type": "varchar"}],
				"data": [["Mitte"], ["Pankow"], ["Spandau"], ["Neukölln"], ["Lichtenberg"]],
				"stats": {"state": "FINISHED"}
			}`)
		case strings.HasPrefix(req.URL.Path, "/v1/query/"):
			w.WriteHeader(eng.statsStatus)
			fmt.Fprint(w, eng.statsBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return eng
}

func (eng *fakeEngine) measurer() *Measurer {
	return NewMeasurer(
		trino.NewConn(eng.srv.URL, "bench", "postgres", "public"),
		trino.NewStatsClient(eng.srv.URL, "bench"),
	)
}

func TestMeasureQueryServerMetricsWin(t *testing.T) {
	eng := newFakeEngine(http.StatusOK, `{
		"state": "FINISHED",
		"queryStats": {
			"totalCpuTime": "2.5s",
			"elapsedTime": "3.1s",
			"peakUserMemoryReservation": "128MB",
			"physicalInputRows": 1000
		}
	}`)
	defer eng.srv.Close()

	trial := eng.measurer().MeasureQuery(context.Background(), "q1.sql", 1, "SELECT district FROM crime_data", 500)
	assert.Equal(t, StatusSuccess, trial.Status)
	assert.InDelta(t, 3.1, trial.RuntimeSec, 1e-9)
	require.NotNil(t, trial.CPUSeconds)
	assert.InDelta(t, 2.5, *trial.CPUSeconds, 1e-9)
	require.NotNil(t, trial.PeakMemoryMB)
	assert.InDelta(t, 128.0, *trial.PeakMemoryMB, 1e-9)
	assert.Equal(t, int64(1000), trial.InputRowsProcessed)
	assert.Equal(t, 5, trial.RowsReturned)
	assert.InDelta(t, 1000.0/3.1, trial.ThroughputRowsPerSec, 0.01)
	assert.Equal(t, trino.MetricsSourceAPI, trial.Source)
	assert.Equal(t, "20250810_0042", trial.QueryID)
	assert.Greater(t, trial.ClientRuntimeSec, 0.0)
}

func TestMeasureQueryStatsUnauthorized(t *testing.T) {
	eng := newFakeEngine(http.StatusUnauthorized, `{}`)
	defer eng.srv.Close()

	trial := eng.measurer().MeasureQuery(context.Background(), "q1.sql", 1, "SELECT district FROM crime_data", 500)
	assert.Equal(t, StatusSuccess, trial.Status)
	assert.Equal(t, MetricsSourceClientOnly, trial.Source)
	assert.Nil(t, trial.CPUSeconds)
	assert.Nil(t, trial.PeakMemoryMB)
	assert.Equal(t, int64(500), trial.InputRowsProcessed)
	assert.Equal(t, trial.ClientRuntimeSec, trial.RuntimeSec)
}

func TestMeasureQueryZeroServerValuesBecomeNil(t *testing.T) {
	eng := newFakeEngine(http.StatusOK, `{
		"state": "FINISHED",
		"queryStats": {"totalCpuTime": "0ms", "elapsedTime": "0ms"}
	}`)
	defer eng.srv.Close()

	trial := eng.measurer().MeasureQuery(context.Background(), "q1.sql", 1, "SELECT district FROM crime_data", 500)
	// server responded but with zero metrics: absent, not 0
	assert.Equal(t, trino.MetricsSourceAPI, trial.Source)
	assert.Nil(t, trial.CPUSeconds)
	assert.Nil(t, trial.PeakMemoryMB)
	assert.Equal(t, trial.ClientRuntimeSec, trial.RuntimeSec)
	assert.Equal(t, int64(500), trial.InputRowsProcessed)
}

func TestMeasureQueryExecutionFailure(t *testing.T) {
	eng := newFakeEngine(http.StatusOK, `{
		"state": "FAILED",
		"queryStats": {"elapsedTime": "0.5s"}
	}`)
	eng.failQuery = true
	defer eng.srv.Close()

	trial := eng.measurer().MeasureQuery(context.Background(), "q1.sql", 2, "SELECT * FROM missing", 500)
	assert.True(t, strings.HasPrefix(trial.Status, "ERROR: "))
	assert.Contains(t, trial.Status, "TABLE_NOT_FOUND")
	assert.Equal(t, 0, trial.RowsReturned)
	// the failed query still has an id, so server stats remain reachable
	assert.Equal(t, "20250810_0099", trial.QueryID)
	assert.InDelta(t, 0.5, trial.RuntimeSec, 1e-9)
}

func TestMeasureQueryUnreachableEngine(t *testing.T) {
	eng := newFakeEngine(http.StatusOK, `{}`)
	eng.srv.Close()

	trial := eng.measurer().MeasureQuery(context.Background(), "q1.sql", 1, "SELECT 1", 0)
	assert.True(t, strings.HasPrefix(trial.Status, "ERROR: "))
	assert.Equal(t, "unavailable", trial.QueryID)
	assert.Equal(t, MetricsSourceClientOnly, trial.Source)
	assert.Equal(t, int64(0), trial.InputRowsProcessed)
	assert.Equal(t, 0.0, trial.ThroughputRowsPerSec)
	assert.Equal(t, trial.ClientRuntimeSec, trial.RuntimeSec)
}
