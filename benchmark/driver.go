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
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/cnf"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

const (
	resultsFileName  = "trino_results.csv"
	metadataFileName = "trino_metadata.json"
	statsFileName    = "trino_stats.json"
)

var csvHeader = []string{
	"system",
	"query_pattern",
	"iteration",
	"runtime_sec",
	"client_runtime_sec",
	"input_rows_processed",
	"rows_returned",
	"throughput_input_rows_per_sec",
	"cpu_seconds",
	"peak_memory_mb",
	"status",
	"query_id",
}

// TrialArchiver persists finished trials beyond the CSV artifact
// (typically into the results database).
type TrialArchiver interface {
	CreateRun(md RunMetadata) error
	AddTrial(runID string, trial QueryTrial) error
}

// Driver walks all query pattern files, runs warmup and measurement
// iterations for each and emits the CSV, metadata and stats artifacts.
// Each trial row is flushed to the CSV immediately so a later crash
// cannot lose already measured data.
type Driver struct {
	conf     *cnf.Conf
	conn     *trino.Conn
	stats    *trino.StatsClient
	measurer *Measurer
	archive  TrialArchiver
}

func NewDriver(conf *cnf.Conf, conn *trino.Conn, stats *trino.StatsClient, archive TrialArchiver) *Driver {
	return &Driver{
		conf:     conf,
		conn:     conn,
		stats:    stats,
		measurer: NewMeasurer(conn, stats),
		archive:  archive,
	}
}

// Run performs the whole benchmark. Only infrastructure problems
// (unreachable coordinator, unreadable query dir, unwritable output)
// are returned as errors; individual query failures are recorded in
// the artifacts and the run continues.
func (d *Driver) Run(ctx context.Context) error {
	if err := os.MkdirAll(d.conf.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}

	md := CollectMetadata(ctx, d.conn, d.conf)
	if md.TrinoVersion == unknownValue {
		// the version probe doubles as a connection check
		return fmt.Errorf("failed to run benchmark: coordinator at %s is not responding", d.conf.Trino.BaseURL())
	}
	titleColor := color.New(color.FgHiMagenta).SprintFunc()
	fmt.Println(titleColor("TRINO BENCHMARK - crime dataset query patterns"))
	fmt.Printf("Trino version: %s\n", md.TrinoVersion)
	fmt.Printf("Cluster nodes: %d\n", md.ClusterNodes)
	fmt.Printf("Warmup runs: %d\n", d.conf.WarmupRuns)
	fmt.Printf("Measurement iterations: %d\n\n", d.conf.Iterations)

	d.testStatsAPI(ctx)

	if err := WriteMetadataFile(filepath.Join(d.conf.OutputDir, metadataFileName), md); err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}
	if d.archive != nil {
		if err := d.archive.CreateRun(md); err != nil {
			return fmt.Errorf("failed to run benchmark: %w", err)
		}
	}

	baselineRows := d.fetchBaselineRows(ctx)

	patterns, err := d.listQueryFiles()
	if err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}
	if len(patterns) == 0 {
		return fmt.Errorf("failed to run benchmark: no .sql files in %s", d.conf.QueryDir)
	}

	csvFile, err := os.Create(filepath.Join(d.conf.OutputDir, resultsFileName))
	if err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}
	defer csvFile.Close()
	csvWriter := csv.NewWriter(csvFile)
	if err := csvWriter.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}
	csvWriter.Flush()

	allStats := make(map[string]*PatternStatistics)
	for _, pattern := range patterns {
		patternStats, err := d.runPattern(ctx, md.RunID, pattern, baselineRows, csvWriter)
		if err != nil {
			return fmt.Errorf("failed to run benchmark: %w", err)
		}
		allStats[pattern] = patternStats
	}

	statsPath := filepath.Join(d.conf.OutputDir, statsFileName)
	if err := WriteStatsFile(statsPath, allStats); err != nil {
		return fmt.Errorf("failed to run benchmark: %w", err)
	}
	fmt.Println(titleColor("benchmark completed"))
	fmt.Printf("results:  %s\n", filepath.Join(d.conf.OutputDir, resultsFileName))
	fmt.Printf("metadata: %s\n", filepath.Join(d.conf.OutputDir, metadataFileName))
	fmt.Printf("stats:    %s\n", statsPath)
	return nil
}

// testStatsAPI verifies before the run that server-side metrics will
// be obtainable, so a misconfigured REST endpoint shows up immediately
// and not as a thousand per-trial warnings.
func (d *Driver) testStatsAPI(ctx context.Context) {
	res, err := d.conn.Query(ctx, fmt.Sprintf("SELECT count(*) FROM %s", d.conf.BaselineTable))
	if err != nil {
		log.Warn().Err(err).Msg("statistics API self-test query failed")
		return
	}
	if res.QueryID == "" {
		log.Warn().Msg("statistics API self-test: no query id captured")
		return
	}
	metrics := d.stats.QueryStats(res.QueryID)
	if metrics.IsZero() {
		log.Warn().Msg("statistics API self-test: no server-side metrics available, falling back to client timing")
		return
	}
	log.Info().
		Str("state", metrics.State).
		Str("cpu", metrics.CPUTime).
		Str("elapsed", metrics.ElapsedTime).
		Str("memory", metrics.PeakMemory).
		Msg("statistics API self-test passed")
}

// fetchBaselineRows determines the size of the base table. It serves
// as a fallback estimate of processed rows for trials where the server
// does not report physical input rows.
func (d *Driver) fetchBaselineRows(ctx context.Context) int64 {
	res, err := d.conn.Query(ctx, fmt.Sprintf("SELECT count(*) FROM %s", d.conf.BaselineTable))
	if err != nil {
		log.Warn().Err(err).Str("table", d.conf.BaselineTable).Msg("failed to determine baseline table size")
		return 0
	}
	v, err := res.FirstValue()
	if err != nil {
		log.Warn().Err(err).Msg("failed to determine baseline table size")
		return 0
	}
	num, ok := v.(float64)
	if !ok {
		log.Warn().Msgf("failed to determine baseline table size: unexpected value type %T", v)
		return 0
	}
	fmt.Printf("table %s contains %d rows\n\n", d.conf.BaselineTable, int64(num))
	return int64(num)
}

func (d *Driver) listQueryFiles() ([]string, error) {
	entries, err := os.ReadDir(d.conf.QueryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}
	ans := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			ans = append(ans, entry.Name())
		}
	}
	sort.Strings(ans)
	return ans, nil
}

func (d *Driver) runPattern(
	ctx context.Context,
	runID string,
	pattern string,
	baselineRows int64,
	csvWriter *csv.Writer,
) (*PatternStatistics, error) {
	rawQuery, err := os.ReadFile(filepath.Join(d.conf.QueryDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to run pattern %s: %w", pattern, err)
	}
	sqlQuery := strings.TrimSuffix(strings.TrimSpace(string(rawQuery)), ";")

	headerColor := color.New(color.FgHiCyan).SprintFunc()
	fmt.Printf("%s\n", headerColor("pattern: "+pattern))

	for i := 0; i < d.conf.WarmupRuns; i++ {
		if _, err := d.conn.Query(ctx, sqlQuery); err != nil {
			log.Warn().Err(err).Int("warmup", i+1).Str("pattern", pattern).Msg("warmup run failed")
		}
	}

	patternStats := &PatternStatistics{}
	bar := progressbar.Default(int64(d.conf.Iterations), pattern)
	for i := 0; i < d.conf.Iterations; i++ {
		trial := d.measurer.MeasureQuery(ctx, pattern, i+1, sqlQuery, baselineRows)
		if !trial.OK() {
			log.Warn().Str("pattern", pattern).Int("iteration", i+1).Str("status", trial.Status).Msg("trial failed")
		}
		patternStats.Add(trial)
		if err := csvWriter.Write(trialToCSVRow(trial)); err != nil {
			return nil, fmt.Errorf("failed to run pattern %s: %w", pattern, err)
		}
		csvWriter.Flush()
		if d.archive != nil {
			if err := d.archive.AddTrial(runID, trial); err != nil {
				log.Warn().Err(err).Msg("failed to archive trial")
			}
		}
		bar.Add(1)
	}
	bar.Finish()
	printPatternSummary(patternStats)
	return patternStats, nil
}

// trialToCSVRow renders one trial into the result CSV schema. Absent
// CPU/memory values become empty cells, never the numeral 0.
func trialToCSVRow(trial QueryTrial) []string {
	cpu := ""
	if trial.CPUSeconds != nil {
		cpu = formatFloat(*trial.CPUSeconds)
	}
	mem := ""
	if trial.PeakMemoryMB != nil {
		mem = formatFloat(*trial.PeakMemoryMB)
	}
	return []string{
		trial.System,
		trial.Pattern,
		strconv.Itoa(trial.Iteration),
		formatFloat(trial.RuntimeSec),
		formatFloat(trial.ClientRuntimeSec),
		strconv.FormatInt(trial.InputRowsProcessed, 10),
		strconv.Itoa(trial.RowsReturned),
		formatFloat(trial.ThroughputRowsPerSec),
		cpu,
		mem,
		trial.Status,
		trial.QueryID,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func printPatternSummary(patternStats *PatternStatistics) {
	labelColor := color.New(color.FgGreen).SprintFunc()
	warnColor := color.New(color.FgYellow).SprintFunc()

	if len(patternStats.Runtimes) == 0 {
		fmt.Printf("  %s\n\n", warnColor("no successful trials"))
		return
	}
	fmt.Printf("  %s median: %.4fs", labelColor("runtime"), Median(patternStats.Runtimes))
	if q1, _, q3, err := Quartiles(patternStats.Runtimes); err == nil {
		fmt.Printf("  (q1-q3: %.4fs - %.4fs)", q1, q3)
	}
	fmt.Println()
	if len(patternStats.Throughputs) > 0 {
		fmt.Printf("  %s median: %.0f rows/s\n", labelColor("throughput"), Median(patternStats.Throughputs))
	}
	if len(patternStats.CPUTimes) > 0 {
		fmt.Printf("  %s median: %.2fs\n", labelColor("cpu time"), Median(patternStats.CPUTimes))

	} else {
		fmt.Printf("  %s\n", warnColor("cpu time not available"))
	}
	if len(patternStats.Memories) > 0 {
		fmt.Printf("  %s median: %.1fMB\n", labelColor("peak memory"), Median(patternStats.Memories))

	} else {
		fmt.Printf("  %s\n", warnColor("peak memory not available"))
	}
	fmt.Println()
}
