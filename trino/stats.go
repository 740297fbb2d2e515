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

package trino

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/units"
)

const (
	statsRequestTimeoutSecs = 10

	// UnknownQueryID is a sentinel some client layers report when they
	// fail to capture the identifier; it must never reach the REST API.
	UnknownQueryID = "unknown"

	// MetricsSourceAPI tags metrics obtained from the coordinator's
	// query statistics REST endpoint.
	MetricsSourceAPI = "REST API"
)

// Field names vary across Trino versions so each logical metric is
// probed through an ordered list of candidates, first present and
// non-empty (resp. non-zero) value wins.
var (
	cpuTimeFields     = []string{"totalCpuTime", "cpuTime", "totalCpuTimeMillis"}
	elapsedTimeFields = []string{"elapsedTime", "executionTime", "elapsedTimeMillis"}
	peakMemoryFields  = []string{
		"peakMemoryReservation",
		"peakUserMemoryReservation",
		"peakTotalMemoryReservation",
		"peakTaskUserMemory",
		"peakUserMemory",
		"peakTotalMemory",
	}
	stagePeakMemoryFields = []string{"peakUserMemoryReservation", "peakMemoryReservation"}
	inputRowsFields       = []string{"physicalInputRows", "processedInputRows", "rawInputRows", "inputRows"}
	outputRowsFields      = []string{"outputRows", "completedRows"}
)

// QueryMetrics is the reconciled output of one statistics lookup.
// Raw engine strings are kept alongside their parsed canonical values
// so they can be shown to the user verbatim.
type QueryMetrics struct {
	QueryID        string
	State          string
	CPUTime        string
	CPUTimeSec     float64
	ElapsedTime    string
	ElapsedTimeSec float64
	PeakMemory     string
	PeakMemoryMB   float64
	InputRows      int64
	OutputRows     int64
	Source         string
}

// IsZero tests whether the record carries any server-side data at all.
// An empty record is the soft-failure outcome of a statistics lookup.
func (qm QueryMetrics) IsZero() bool {
	return qm.Source == ""
}

// StatsClient fetches authoritative server-side metrics of finished
// queries from Trino's REST API. All its failure modes are soft - any
// problem is logged as a warning and an empty record is returned.
type StatsClient struct {
	client  *http.Client
	baseURL string
	user    string
}

func NewStatsClient(baseURL, user string) *StatsClient {
	return &StatsClient{
		client: &http.Client{
			Timeout: time.Duration(statsRequestTimeoutSecs) * time.Second,
		},
		baseURL: baseURL,
		user:    user,
	}
}

// QueryStats fetches statistics of the query identified by queryID
// via GET /v1/query/{queryID}. A missing or sentinel identifier
// short-circuits without any HTTP traffic.
func (sc *StatsClient) QueryStats(queryID string) QueryMetrics {
	if queryID == "" || queryID == UnknownQueryID {
		return QueryMetrics{}
	}
	req, err := http.NewRequest(
		http.MethodGet, fmt.Sprintf("%s/v1/query/%s", sc.baseURL, queryID), nil)
	if err != nil {
		log.Warn().Err(err).Str("queryId", queryID).Msg("failed to create query statistics request")
		return QueryMetrics{}
	}
	req.Header.Set("X-Trino-User", sc.user)
	resp, err := sc.client.Do(req)
	if err != nil {
		log.Warn().Err(err).Str("queryId", queryID).Msg("query statistics request failed")
		return QueryMetrics{}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized {
			log.Warn().Str("queryId", queryID).Msg("query statistics API requires authentication")

		} else {
			log.Warn().
				Int("status", resp.StatusCode).
				Str("queryId", queryID).
				Msg("query statistics API returned unexpected status")
		}
		return QueryMetrics{}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		log.Warn().Err(err).Str("queryId", queryID).Msg("failed to parse query statistics response")
		return QueryMetrics{}
	}
	return extractMetrics(queryID, data)
}

func extractMetrics(queryID string, data map[string]any) QueryMetrics {
	stats, _ := data["queryStats"].(map[string]any)

	cpuTime := firstString(stats, cpuTimeFields)
	if cpuTime == "" {
		cpuTime = "0ms"
	}
	elapsedTime := firstString(stats, elapsedTimeFields)
	if elapsedTime == "" {
		elapsedTime = "0ms"
	}
	peakMemory := firstString(stats, peakMemoryFields)
	if peakMemory == "" {
		peakMemory = stageStatsPeakMemory(data)
	}
	var peakMemoryMB float64
	if peakMemory != "" {
		peakMemoryMB = units.MemoryToMB(peakMemory)
	}

	state, _ := data["state"].(string)
	if state == "" {
		state = "UNKNOWN"
	}
	return QueryMetrics{
		QueryID:        queryID,
		State:          state,
		CPUTime:        cpuTime,
		CPUTimeSec:     units.DurationToSeconds(cpuTime),
		ElapsedTime:    elapsedTime,
		ElapsedTimeSec: units.DurationToSeconds(elapsedTime),
		PeakMemory:     peakMemory,
		PeakMemoryMB:   peakMemoryMB,
		InputRows:      firstNumber(stats, inputRowsFields),
		OutputRows:     firstNumber(stats, outputRowsFields),
		Source:         MetricsSourceAPI,
	}
}

// stageStatsPeakMemory is a fallback for engine versions which report
// peak memory only within the output stage substructure.
func stageStatsPeakMemory(data map[string]any) string {
	outputStage, ok := data["outputStage"].(map[string]any)
	if !ok {
		return ""
	}
	stageStats, ok := outputStage["stageStats"].(map[string]any)
	if !ok {
		return ""
	}
	return firstString(stageStats, stagePeakMemoryFields)
}

func firstString(obj map[string]any, keys []string) string {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		switch tv := v.(type) {
		case string:
			if strings.TrimSpace(tv) != "" {
				return tv
			}
		case float64:
			if tv != 0 {
				return strconv.FormatFloat(tv, 'f', -1, 64)
			}
		}
	}
	return ""
}

func firstNumber(obj map[string]any, keys []string) int64 {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok || v == nil {
			continue
		}
		switch tv := v.(type) {
		case float64:
			if tv != 0 {
				return int64(tv)
			}
		case string:
			if num, err := strconv.ParseInt(tv, 10, 64); err == nil && num != 0 {
				return num
			}
		}
	}
	return 0
}
