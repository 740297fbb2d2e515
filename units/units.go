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

// Package units converts human-readable duration and memory size strings
// as produced by Trino's statistics API into canonical numeric values
// (seconds, megabytes).
package units

import (
	"strconv"
	"strings"
)

// DurationToSeconds converts a duration string with a unit suffix
// (e.g. "1.23s", "456.78ms", "100ns") to seconds. Suffixes are matched
// by substring containment and the check order matters - longer suffixes
// must be tested before shorter ones (ns before s, ms before m):
// ns -> n -> ms -> us -> s -> m. A string without a known suffix is
// parsed as a bare number of seconds. Anything unparsable yields 0.
func DurationToSeconds(v string) float64 {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return 0
	}
	switch {
	case strings.Contains(v, "ns"):
		return parseNum(strings.ReplaceAll(v, "ns", "")) / 1e9
	case strings.HasSuffix(v, "n"):
		return parseNum(strings.TrimSuffix(v, "n")) / 1e9
	case strings.Contains(v, "ms"):
		return parseNum(strings.ReplaceAll(v, "ms", "")) / 1e3
	case strings.Contains(v, "us"):
		return parseNum(strings.ReplaceAll(v, "us", "")) / 1e6
	case strings.Contains(v, "s"):
		return parseNum(strings.ReplaceAll(v, "s", ""))
	case strings.Contains(v, "m"):
		return parseNum(strings.ReplaceAll(v, "m", "")) * 60
	default:
		return parseNum(v)
	}
}

// MemoryToMB converts a memory size string with a unit suffix
// (e.g. "256.5MB", "1.2GB", "512kB") to megabytes. A string without
// a known suffix is treated as a raw byte count. Anything unparsable
// yields 0.
func MemoryToMB(v string) float64 {
	v = strings.ToUpper(strings.TrimSpace(v))
	if v == "" {
		return 0
	}
	switch {
	case strings.Contains(v, "GB"):
		return parseNum(strings.ReplaceAll(v, "GB", "")) * 1024
	case strings.Contains(v, "MB"):
		return parseNum(strings.ReplaceAll(v, "MB", ""))
	case strings.Contains(v, "KB"):
		return parseNum(strings.ReplaceAll(v, "KB", "")) / 1024
	case strings.Contains(v, "B"):
		return parseNum(strings.ReplaceAll(v, "B", "")) / (1024 * 1024)
	default:
		return parseNum(v) / (1024 * 1024)
	}
}

func parseNum(v string) float64 {
	ans, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0
	}
	return ans
}
