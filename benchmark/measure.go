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

// Package benchmark executes fixed SQL query patterns against a Trino
// coordinator, reconciles client-observed and server-reported metrics
// of each trial and aggregates repeated trials into summary statistics.
package benchmark

import (
	"context"
	"fmt"
	"time"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

const (
	// StatusSuccess marks a trial whose statement finished without error.
	// Any other status value is an error description.
	StatusSuccess = "SUCCESS"

	// MetricsSourceClientOnly tags trials for which no server-side
	// statistics could be obtained at all.
	MetricsSourceClientOnly = "client-only"

	unavailableQueryID = "unavailable"
)

// QueryTrial is one execution attempt of one query pattern.
// CPUSeconds and PeakMemoryMB are nil - not zero - when the server
// did not report them; this keeps "unmeasured" distinguishable from
// "measured and zero". RuntimeSec is always populated: it holds the
// server-reported elapsed time when available and falls back to the
// client wall-clock duration otherwise.
type QueryTrial struct {
	System               string
	Pattern              string
	Iteration            int
	RuntimeSec           float64
	ClientRuntimeSec     float64
	InputRowsProcessed   int64
	RowsReturned         int
	ThroughputRowsPerSec float64
	CPUSeconds           *float64
	PeakMemoryMB         *float64
	Status               string
	QueryID              string
	Source               string
}

func (trial QueryTrial) OK() bool {
	return trial.Status == StatusSuccess
}

// Measurer runs individual query trials. It never returns an error -
// every failure mode degrades to a recorded status and absent metrics
// so a single broken pattern cannot abort a whole benchmark run.
type Measurer struct {
	conn  *trino.Conn
	stats *trino.StatsClient
}

func NewMeasurer(conn *trino.Conn, stats *trino.StatsClient) *Measurer {
	return &Measurer{
		conn:  conn,
		stats: stats,
	}
}

// MeasureQuery executes one statement, captures wall-clock timing and
// the engine-assigned query identifier, fetches server-side statistics
// for that identifier and reconciles both views into one trial record.
//
// Reconciliation rules (in this order):
//   - CPU seconds and peak memory: server value when present and
//     non-zero, otherwise nil
//   - processed rows: server physical input rows when > 0, otherwise
//     the caller-supplied baseline estimate (0 when absent)
//   - runtime: server elapsed seconds when > 0, otherwise the client
//     wall-clock duration
//
// When the statistics lookup produced nothing, all server fields
// collapse to their fallbacks and the trial is tagged "client-only".
func (m *Measurer) MeasureQuery(
	ctx context.Context,
	pattern string,
	iteration int,
	sqlQuery string,
	baselineRows int64,
) QueryTrial {
	t0 := time.Now()
	res, err := m.conn.Query(ctx, sqlQuery)
	clientDuration := time.Since(t0).Seconds()

	status := StatusSuccess
	rowsReturned := len(res.Rows)
	if err != nil {
		status = fmt.Sprintf("ERROR: %s", err)
		rowsReturned = 0
	}

	metrics := m.stats.QueryStats(res.QueryID)

	var (
		cpuSeconds   *float64
		peakMemoryMB *float64
	)
	processedRows := baselineRows
	runtime := clientDuration
	source := MetricsSourceClientOnly

	if !metrics.IsZero() {
		if metrics.CPUTimeSec > 0 {
			v := metrics.CPUTimeSec
			cpuSeconds = &v
		}
		if metrics.PeakMemoryMB > 0 {
			v := metrics.PeakMemoryMB
			peakMemoryMB = &v
		}
		if metrics.InputRows > 0 {
			processedRows = metrics.InputRows
		}
		if metrics.ElapsedTimeSec > 0 {
			runtime = metrics.ElapsedTimeSec
		}
		source = metrics.Source
	}

	var throughput float64
	if processedRows > 0 && runtime > 0 {
		throughput = float64(processedRows) / runtime
	}

	queryID := res.QueryID
	if queryID == "" {
		queryID = unavailableQueryID
	}

	return QueryTrial{
		System:               "trino",
		Pattern:              pattern,
		Iteration:            iteration,
		RuntimeSec:           runtime,
		ClientRuntimeSec:     clientDuration,
		InputRowsProcessed:   processedRows,
		RowsReturned:         rowsReturned,
		ThroughputRowsPerSec: throughput,
		CPUSeconds:           cpuSeconds,
		PeakMemoryMB:         peakMemoryMB,
		Status:               status,
		QueryID:              queryID,
		Source:               source,
	}
}
