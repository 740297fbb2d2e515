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

package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationToSeconds(t *testing.T) {
	tests := []struct {
		input string
		exp   float64
	}{
		{"1.23s", 1.23},
		{"456.78ms", 0.45678},
		{"100ns", 1e-7},
		{"100n", 1e-7},
		{"250us", 0.00025},
		{"2m", 120.0},
		{"5", 5.0},
		{"", 0},
		{"garbage", 0},
		{"  3.5s ", 3.5},
		{"1.5S", 1.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.exp, DurationToSeconds(tt.input), 1e-12, "input: %q", tt.input)
	}
}

func TestDurationSuffixPriority(t *testing.T) {
	// "ns" must win over the bare "s" and "n" branches
	assert.InDelta(t, 1e-6, DurationToSeconds("1000ns"), 1e-15)
	// "ms" must win over "m" and "s"
	assert.InDelta(t, 0.001, DurationToSeconds("1ms"), 1e-15)
	// "us" must win over "s"
	assert.InDelta(t, 1e-6, DurationToSeconds("1us"), 1e-15)
}

func TestDurationIdempotentOnBareNumbers(t *testing.T) {
	first := DurationToSeconds("5")
	second := DurationToSeconds("5")
	assert.Equal(t, first, second)
	assert.Equal(t, 5.0, first)
}

func TestMemoryToMB(t *testing.T) {
	tests := []struct {
		input string
		exp   float64
	}{
		{"256.5MB", 256.5},
		{"1.2GB", 1228.8},
		{"512KB", 0.5},
		{"1048576B", 1.0},
		{"1048576", 1.0},
		{"", 0},
		{"garbage", 0},
		{"128mb", 128.0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.exp, MemoryToMB(tt.input), 1e-9, "input: %q", tt.input)
	}
}

func TestMemoryBareByteSuffix(t *testing.T) {
	// the bare "B" branch applies only when neither KB nor MB matched
	assert.InDelta(t, 2.0, MemoryToMB("2097152B"), 1e-9)
	assert.InDelta(t, 1.0, MemoryToMB("1024KB"), 1e-9)
}
