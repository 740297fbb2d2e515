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

package results

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/benchmark"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "results.sqlite"))
	require.NoError(t, err)
	require.NoError(t, db.Init())
	t.Cleanup(func() { db.Close() })
	return db
}

func testMetadata() benchmark.RunMetadata {
	return benchmark.RunMetadata{
		RunID:        "run-1",
		TrinoVersion: "455",
		ClusterNodes: 3,
		BenchmarkConfig: benchmark.BenchmarkConfigInfo{
			Iterations: 5,
			WarmupRuns: 1,
		},
	}
}

func TestInitIsIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	assert.NoError(t, db.Init())
}

func TestCreateRunAndList(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.CreateRun(testMetadata()))
	runs, err := db.GetRuns()
	require.NoError(t, err)
	require.Equal(t, 1, len(runs))
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "455", runs[0].TrinoVersion)
	assert.Equal(t, 5, runs[0].Iterations)
}

func TestAddTrialRoundTrip(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.CreateRun(testMetadata()))

	cpu := 2.5
	require.NoError(t, db.AddTrial("run-1", benchmark.QueryTrial{
		System:               "trino",
		Pattern:              "q1.sql",
		Iteration:            1,
		RuntimeSec:           3.1,
		ClientRuntimeSec:     3.0,
		InputRowsProcessed:   1000,
		RowsReturned:         5,
		ThroughputRowsPerSec: 322.58,
		CPUSeconds:           &cpu,
		Status:               benchmark.StatusSuccess,
		QueryID:              "20250810_0001",
		Source:               "REST API",
	}))

	trials, err := db.GetRunTrials("run-1")
	require.NoError(t, err)
	require.Equal(t, 1, len(trials))
	rec := trials[0]
	assert.Equal(t, "q1.sql", rec.Pattern)
	assert.InDelta(t, 3.1, rec.RuntimeSec, 1e-9)
	require.NotNil(t, rec.CPUSeconds)
	assert.InDelta(t, 2.5, *rec.CPUSeconds, 1e-9)
	assert.Nil(t, rec.PeakMemoryMB, "unmeasured memory must stay NULL")
	assert.Equal(t, "REST API", rec.Source)
}

func TestGetRunSummarySkipsFailedTrials(t *testing.T) {
	db := newTestDatabase(t)
	require.NoError(t, db.CreateRun(testMetadata()))
	require.NoError(t, db.AddTrial("run-1", benchmark.QueryTrial{
		Pattern:              "q1.sql",
		Iteration:            1,
		RuntimeSec:           2.0,
		ThroughputRowsPerSec: 100,
		Status:               benchmark.StatusSuccess,
		QueryID:              "a",
		Source:               "REST API",
	}))
	require.NoError(t, db.AddTrial("run-1", benchmark.QueryTrial{
		Pattern:    "q1.sql",
		Iteration:  2,
		RuntimeSec: 50.0,
		Status:     "ERROR: exceeded memory limit",
		QueryID:    "b",
		Source:     "client-only",
	}))

	summary, err := db.GetRunSummary("run-1")
	require.NoError(t, err)
	require.Contains(t, summary, "q1.sql")
	require.NotNil(t, summary["q1.sql"].RuntimeMedian)
	assert.Equal(t, 2.0, *summary["q1.sql"].RuntimeMedian)
	assert.Nil(t, summary["q1.sql"].CPUMedian)
}
