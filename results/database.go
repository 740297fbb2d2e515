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

// Package results archives benchmark trials into a local sqlite
// database so runs can be compared after the fact (the CSV artifact
// covers only a single run).
package results

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/benchmark"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(path string) (*Database, error) {
	dbConn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}
	return &Database{db: dbConn}, nil
}

func (database *Database) Close() error {
	return database.db.Close()
}

func (database *Database) tableExists(tn string) (bool, error) {
	row := database.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tn)
	var nm string
	err := row.Scan(&nm)
	if err == sql.ErrNoRows {
		return false, nil

	} else if err != nil {
		return false, fmt.Errorf("failed to determine existence of table %s: %w", tn, err)
	}
	return true, nil
}

func (database *Database) createBenchmarkRunTable() error {
	_, err := database.db.Exec(
		"CREATE TABLE benchmark_run (" +
			"id TEXT PRIMARY KEY NOT NULL, " +
			"created INTEGER NOT NULL, " +
			"trino_version TEXT NOT NULL, " +
			"cluster_nodes INTEGER NOT NULL, " +
			"iterations INTEGER NOT NULL, " +
			"warmup_runs INTEGER NOT NULL" +
			")",
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Msg("created table `benchmark_run`")
	return nil
}

func (database *Database) createTrialTable() error {
	_, err := database.db.Exec(
		"CREATE TABLE trial (" +
			"run_id TEXT NOT NULL, " +
			"query_pattern TEXT NOT NULL, " +
			"iteration INTEGER NOT NULL, " +
			"runtime_sec FLOAT NOT NULL, " +
			"client_runtime_sec FLOAT NOT NULL, " +
			"input_rows_processed INTEGER NOT NULL, " +
			"rows_returned INTEGER NOT NULL, " +
			"throughput FLOAT NOT NULL, " +
			"cpu_seconds FLOAT, " +
			"peak_memory_mb FLOAT, " +
			"status TEXT NOT NULL, " +
			"query_id TEXT NOT NULL, " +
			"metrics_source TEXT NOT NULL, " +
			"PRIMARY KEY (run_id, query_pattern, iteration), " +
			"FOREIGN KEY (run_id) REFERENCES benchmark_run(id)" +
			")",
	)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info().Msg("created table `trial`")
	return nil
}

func (database *Database) Init() error {
	ex, err := database.tableExists("benchmark_run")
	if err != nil {
		return fmt.Errorf("failed to init table benchmark_run: %w", err)
	}
	if ex {
		log.Info().Str("table", "benchmark_run").Msg("table already exists")

	} else {
		if err := database.createBenchmarkRunTable(); err != nil {
			return fmt.Errorf("failed to create table benchmark_run: %w", err)
		}
	}

	ex, err = database.tableExists("trial")
	if err != nil {
		return fmt.Errorf("failed to init table trial: %w", err)
	}
	if ex {
		log.Info().Str("table", "trial").Msg("table already exists")

	} else {
		if err := database.createTrialTable(); err != nil {
			return fmt.Errorf("failed to create table trial: %w", err)
		}
	}
	return nil
}

// CreateRun registers a new benchmark run using the metadata's run id.
func (database *Database) CreateRun(md benchmark.RunMetadata) error {
	_, err := database.db.Exec(
		"INSERT INTO benchmark_run (id, created, trino_version, cluster_nodes, iterations, warmup_runs) "+
			"VALUES (?, ?, ?, ?, ?, ?)",
		md.RunID,
		time.Now().Unix(),
		md.TrinoVersion,
		md.ClusterNodes,
		md.BenchmarkConfig.Iterations,
		md.BenchmarkConfig.WarmupRuns,
	)
	if err != nil {
		return fmt.Errorf("failed to create run record: %w", err)
	}
	return nil
}

// AddTrial archives one trial. Absent CPU/memory values are stored
// as NULL, preserving the unmeasured-vs-zero distinction.
func (database *Database) AddTrial(runID string, trial benchmark.QueryTrial) error {
	tx, err := database.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to add trial: %w", err)
	}
	var cpuSeconds, peakMemoryMB sql.NullFloat64
	if trial.CPUSeconds != nil {
		cpuSeconds = sql.NullFloat64{Float64: *trial.CPUSeconds, Valid: true}
	}
	if trial.PeakMemoryMB != nil {
		peakMemoryMB = sql.NullFloat64{Float64: *trial.PeakMemoryMB, Valid: true}
	}
	_, err = tx.Exec(
		"INSERT INTO trial (run_id, query_pattern, iteration, runtime_sec, client_runtime_sec, "+
			"input_rows_processed, rows_returned, throughput, cpu_seconds, peak_memory_mb, "+
			"status, query_id, metrics_source) "+
			"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		runID,
		trial.Pattern,
		trial.Iteration,
		trial.RuntimeSec,
		trial.ClientRuntimeSec,
		trial.InputRowsProcessed,
		trial.RowsReturned,
		trial.ThroughputRowsPerSec,
		cpuSeconds,
		peakMemoryMB,
		trial.Status,
		trial.QueryID,
		trial.Source,
	)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to add trial: %w", err)
	}
	err = tx.Commit()
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to add trial: %w", err)
	}
	return nil
}

// RunInfo is a single row of the run listing.
type RunInfo struct {
	ID           string `json:"id"`
	Created      int64  `json:"created"`
	TrinoVersion string `json:"trinoVersion"`
	ClusterNodes int    `json:"clusterNodes"`
	Iterations   int    `json:"iterations"`
	WarmupRuns   int    `json:"warmupRuns"`
}

func (database *Database) GetRuns() ([]RunInfo, error) {
	rows, err := database.db.Query(
		"SELECT id, created, trino_version, cluster_nodes, iterations, warmup_runs " +
			"FROM benchmark_run ORDER BY created DESC")
	if err != nil {
		return []RunInfo{}, fmt.Errorf("failed to fetch runs: %w", err)
	}
	defer rows.Close()
	ans := make([]RunInfo, 0, 50)
	for rows.Next() {
		var rec RunInfo
		err := rows.Scan(
			&rec.ID,
			&rec.Created,
			&rec.TrinoVersion,
			&rec.ClusterNodes,
			&rec.Iterations,
			&rec.WarmupRuns,
		)
		if err != nil {
			return []RunInfo{}, fmt.Errorf("failed to fetch runs: %w", err)
		}
		ans = append(ans, rec)
	}
	return ans, nil
}

// TrialRecord is an archived trial as returned by listing queries.
type TrialRecord struct {
	RunID                string   `json:"runId"`
	Pattern              string   `json:"queryPattern"`
	Iteration            int      `json:"iteration"`
	RuntimeSec           float64  `json:"runtimeSec"`
	ClientRuntimeSec     float64  `json:"clientRuntimeSec"`
	InputRowsProcessed   int64    `json:"inputRowsProcessed"`
	RowsReturned         int      `json:"rowsReturned"`
	ThroughputRowsPerSec float64  `json:"throughputInputRowsPerSec"`
	CPUSeconds           *float64 `json:"cpuSeconds"`
	PeakMemoryMB         *float64 `json:"peakMemoryMb"`
	Status               string   `json:"status"`
	QueryID              string   `json:"queryId"`
	Source               string   `json:"metricsSource"`
}

func (database *Database) GetRunTrials(runID string) ([]TrialRecord, error) {
	rows, err := database.db.Query(
		"SELECT run_id, query_pattern, iteration, runtime_sec, client_runtime_sec, "+
			"input_rows_processed, rows_returned, throughput, cpu_seconds, peak_memory_mb, "+
			"status, query_id, metrics_source "+
			"FROM trial WHERE run_id = ? ORDER BY query_pattern, iteration",
		runID,
	)
	if err != nil {
		return []TrialRecord{}, fmt.Errorf("failed to fetch trials: %w", err)
	}
	defer rows.Close()
	ans := make([]TrialRecord, 0, 100)
	for rows.Next() {
		var rec TrialRecord
		var cpuSeconds, peakMemoryMB sql.NullFloat64
		err := rows.Scan(
			&rec.RunID,
			&rec.Pattern,
			&rec.Iteration,
			&rec.RuntimeSec,
			&rec.ClientRuntimeSec,
			&rec.InputRowsProcessed,
			&rec.RowsReturned,
			&rec.ThroughputRowsPerSec,
			&cpuSeconds,
			&peakMemoryMB,
			&rec.Status,
			&rec.QueryID,
			&rec.Source,
		)
		if err != nil {
			return []TrialRecord{}, fmt.Errorf("failed to fetch trials: %w", err)
		}
		if cpuSeconds.Valid {
			rec.CPUSeconds = &cpuSeconds.Float64
		}
		if peakMemoryMB.Valid {
			rec.PeakMemoryMB = &peakMemoryMB.Float64
		}
		ans = append(ans, rec)
	}
	return ans, nil
}

// GetRunSummary aggregates a run's successful trials per pattern.
func (database *Database) GetRunSummary(runID string) (map[string]benchmark.PatternSummary, error) {
	trials, err := database.GetRunTrials(runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run summary: %w", err)
	}
	byPattern := make(map[string]*benchmark.PatternStatistics)
	for _, rec := range trials {
		ps, ok := byPattern[rec.Pattern]
		if !ok {
			ps = &benchmark.PatternStatistics{}
			byPattern[rec.Pattern] = ps
		}
		ps.Add(benchmark.QueryTrial{
			Status:               rec.Status,
			RuntimeSec:           rec.RuntimeSec,
			ThroughputRowsPerSec: rec.ThroughputRowsPerSec,
			CPUSeconds:           rec.CPUSeconds,
			PeakMemoryMB:         rec.PeakMemoryMB,
		})
	}
	ans := make(map[string]benchmark.PatternSummary)
	for pattern, ps := range byPattern {
		ans[pattern] = ps.Summary()
	}
	return ans, nil
}
