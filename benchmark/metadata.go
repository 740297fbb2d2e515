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
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/cnf"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

const unknownValue = "unknown"

// ConnectionInfo repeats the benchmarked coordinator's connection
// parameters inside the metadata artifact. Credentials (should the
// config ever carry any) must not appear here.
type ConnectionInfo struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	User    string `json:"user"`
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
}

type BenchmarkConfigInfo struct {
	Iterations int            `json:"iterations"`
	WarmupRuns int            `json:"warmupRuns"`
	Connection ConnectionInfo `json:"connection"`
}

// RunMetadata describes one benchmark run: when and where it ran,
// which engine version it hit and with which configuration.
type RunMetadata struct {
	Timestamp       string              `json:"timestamp"`
	RunID           string              `json:"runId"`
	System          string              `json:"system"`
	TrinoVersion    string              `json:"trinoVersion"`
	ClusterNodes    int                 `json:"clusterNodes"`
	Coordinators    int                 `json:"coordinators"`
	Hostname        string              `json:"hostname"`
	CPUModel        string              `json:"cpuModel"`
	CPUCores        int                 `json:"cpuCores"`
	TotalRAMMB      int                 `json:"totalRamMb"`
	OSKernel        string              `json:"osKernel"`
	ClientGoVersion string              `json:"clientGoVersion"`
	ClientOS        string              `json:"clientOs"`
	BenchmarkConfig BenchmarkConfigInfo `json:"benchmarkConfig"`
}

// CollectMetadata gathers engine and host facts for the metadata
// artifact. Each probe fails independently - a missing fact is logged
// and replaced by a default, never aborting the run.
func CollectMetadata(ctx context.Context, conn *trino.Conn, conf *cnf.Conf) RunMetadata {
	md := RunMetadata{
		Timestamp:       time.Now().Format(time.RFC3339),
		RunID:           uuid.New().String(),
		System:          "trino",
		TrinoVersion:    unknownValue,
		CPUModel:        unknownValue,
		CPUCores:        runtime.NumCPU(),
		OSKernel:        unknownValue,
		ClientGoVersion: runtime.Version(),
		ClientOS:        runtime.GOOS,
		BenchmarkConfig: BenchmarkConfigInfo{
			Iterations: conf.Iterations,
			WarmupRuns: conf.WarmupRuns,
			Connection: ConnectionInfo{
				Host:    conf.Trino.Host,
				Port:    conf.Trino.Port,
				User:    conf.Trino.User,
				Catalog: conf.Trino.Catalog,
				Schema:  conf.Trino.Schema,
			},
		},
	}

	if version, err := fetchTrinoVersion(ctx, conn); err != nil {
		log.Warn().Err(err).Msg("failed to determine Trino version")

	} else {
		md.TrinoVersion = version
	}

	if nodes, coordinators, err := fetchClusterTopology(ctx, conn); err != nil {
		log.Warn().Err(err).Msg("failed to determine cluster topology")

	} else {
		md.ClusterNodes = nodes
		md.Coordinators = coordinators
	}

	if hostname, err := os.Hostname(); err != nil {
		log.Warn().Err(err).Msg("failed to determine hostname")

	} else {
		md.Hostname = hostname
	}

	if runtime.GOOS == "linux" {
		if model, err := readCPUModel("/proc/cpuinfo"); err != nil {
			log.Warn().Err(err).Msg("failed to read CPU model")

		} else {
			md.CPUModel = model
		}
		if ramMB, err := readTotalRAMMB("/proc/meminfo"); err != nil {
			log.Warn().Err(err).Msg("failed to read total RAM")

		} else {
			md.TotalRAMMB = ramMB
		}
		if kernel, err := os.ReadFile("/proc/sys/kernel/osrelease"); err != nil {
			log.Warn().Err(err).Msg("failed to read kernel release")

		} else {
			md.OSKernel = strings.TrimSpace(string(kernel))
		}
	}
	return md
}

func fetchTrinoVersion(ctx context.Context, conn *trino.Conn) (string, error) {
	res, err := conn.Query(ctx, "SELECT version()")
	if err != nil {
		return "", err
	}
	v, err := res.FirstValue()
	if err != nil {
		return "", err
	}
	version, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("unexpected version value type %T", v)
	}
	return version, nil
}

func fetchClusterTopology(ctx context.Context, conn *trino.Conn) (nodes, coordinators int, err error) {
	res, err := conn.Query(
		ctx, "SELECT node_id, http_uri, node_version, coordinator, state FROM system.runtime.nodes")
	if err != nil {
		return 0, 0, err
	}
	for _, row := range res.Rows {
		if len(row) > 3 {
			if isCoord, ok := row[3].(bool); ok && isCoord {
				coordinators++
			}
		}
	}
	return len(res.Rows), coordinators, nil
}

func readCPUModel(path string) (string, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(rawData), "\n") {
		if strings.HasPrefix(line, "model name") {
			if _, value, found := strings.Cut(line, ":"); found {
				return strings.TrimSpace(value), nil
			}
		}
	}
	return "", fmt.Errorf("no `model name` entry in %s", path)
}

func readTotalRAMMB(path string) (int, error) {
	rawData, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(rawData), "\n") {
		if strings.HasPrefix(line, "MemTotal") {
			_, value, found := strings.Cut(line, ":")
			if !found {
				continue
			}
			fields := strings.Fields(value)
			if len(fields) == 0 {
				continue
			}
			kb, err := strconv.Atoi(fields[0])
			if err != nil {
				return 0, fmt.Errorf("malformed MemTotal entry: %w", err)
			}
			return kb / 1024, nil
		}
	}
	return 0, fmt.Errorf("no MemTotal entry in %s", path)
}

// WriteMetadataFile serializes run metadata into a JSON artifact.
func WriteMetadataFile(path string, md RunMetadata) error {
	rawData, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	if err := os.WriteFile(path, rawData, 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}
