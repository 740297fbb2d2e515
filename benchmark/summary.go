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
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// PatternStatistics accumulates metrics of successful trials of one
// query pattern. CPU and memory samples are collected only when the
// server actually reported them, so the respective medians may be
// computed over fewer samples than the runtimes.
type PatternStatistics struct {
	Runtimes    []float64
	Throughputs []float64
	CPUTimes    []float64
	Memories    []float64
}

// Add records a trial. Failed trials are ignored entirely.
func (ps *PatternStatistics) Add(trial QueryTrial) {
	if !trial.OK() {
		return
	}
	ps.Runtimes = append(ps.Runtimes, trial.RuntimeSec)
	ps.Throughputs = append(ps.Throughputs, trial.ThroughputRowsPerSec)
	if trial.CPUSeconds != nil && *trial.CPUSeconds > 0 {
		ps.CPUTimes = append(ps.CPUTimes, *trial.CPUSeconds)
	}
	if trial.PeakMemoryMB != nil && *trial.PeakMemoryMB > 0 {
		ps.Memories = append(ps.Memories, *trial.PeakMemoryMB)
	}
}

// PatternSummary is the serialized per-pattern aggregate. A metric
// with no samples is null, never 0.
type PatternSummary struct {
	RuntimeMedian    *float64 `json:"runtime_median"`
	ThroughputMedian *float64 `json:"throughput_median"`
	CPUMedian        *float64 `json:"cpu_median"`
	MemoryMedian     *float64 `json:"memory_median"`
}

func (ps *PatternStatistics) Summary() PatternSummary {
	return PatternSummary{
		RuntimeMedian:    medianOrNil(ps.Runtimes),
		ThroughputMedian: medianOrNil(ps.Throughputs),
		CPUMedian:        medianOrNil(ps.CPUTimes),
		MemoryMedian:     medianOrNil(ps.Memories),
	}
}

func medianOrNil(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := Median(vals)
	return &m
}

// Median returns the middle value of vals (mean of the two middle
// values for an even count). It panics on an empty slice.
func Median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Quartiles returns the three cut points dividing vals into four
// groups, using the exclusive interpolation method. It requires at
// least four samples.
func Quartiles(vals []float64) (q1, q2, q3 float64, err error) {
	if len(vals) < 4 {
		return 0, 0, 0, fmt.Errorf("quartiles require at least 4 samples, got %d", len(vals))
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	n := len(sorted)
	cuts := make([]float64, 3)
	for i := 1; i <= 3; i++ {
		pos := i * (n + 1)
		j := pos / 4
		delta := pos - j*4
		if j < 1 {
			j = 1

		} else if j > n-1 {
			j = n - 1
		}
		cuts[i-1] = (sorted[j-1]*float64(4-delta) + sorted[j]*float64(delta)) / 4
	}
	return cuts[0], cuts[1], cuts[2], nil
}

// WriteStatsFile serializes per-pattern summaries into a JSON artifact.
func WriteStatsFile(path string, stats map[string]*PatternStatistics) error {
	summary := make(map[string]PatternSummary)
	for pattern, ps := range stats {
		summary[pattern] = ps.Summary()
	}
	rawData, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	if err := os.WriteFile(path, rawData, 0644); err != nil {
		return fmt.Errorf("failed to write stats file: %w", err)
	}
	return nil
}
