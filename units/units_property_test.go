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
	"math"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestPropertyDurationRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("formatting seconds and parsing them back is identity", prop.ForAll(
		func(v float64) bool {
			s := strconv.FormatFloat(v, 'f', -1, 64) + "s"
			return math.Abs(DurationToSeconds(s)-v) < 1e-9
		},
		gen.Float64Range(0, 1e6),
	))

	properties.Property("milliseconds scale to exactly 1/1000 of seconds", prop.ForAll(
		func(v float64) bool {
			num := strconv.FormatFloat(v, 'f', -1, 64)
			return math.Abs(DurationToSeconds(num+"ms")*1000-DurationToSeconds(num+"s")) < 1e-9
		},
		gen.Float64Range(0, 1e6),
	))

	properties.Property("parsing a bare numeric string is idempotent", prop.ForAll(
		func(v float64) bool {
			s := strconv.FormatFloat(v, 'f', -1, 64)
			once := DurationToSeconds(s)
			twice := DurationToSeconds(strconv.FormatFloat(once, 'f', -1, 64))
			return once == twice
		},
		gen.Float64Range(0, 1e9),
	))

	properties.TestingRun(t)
}

func TestPropertyMemoryUnitsConsistent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("GB is always 1024 times MB", prop.ForAll(
		func(v float64) bool {
			num := strconv.FormatFloat(v, 'f', -1, 64)
			return math.Abs(MemoryToMB(num+"GB")-MemoryToMB(num+"MB")*1024) < 1e-6
		},
		gen.Float64Range(0, 1e4),
	))

	properties.Property("MB suffix is identity", prop.ForAll(
		func(v float64) bool {
			s := strconv.FormatFloat(v, 'f', -1, 64) + "MB"
			return math.Abs(MemoryToMB(s)-v) < 1e-9
		},
		gen.Float64Range(0, 1e6),
	))

	properties.TestingRun(t)
}
