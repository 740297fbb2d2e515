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

package generator

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRowCountAndSchema(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(Config{Rows: 120, Partitions: 3, Seed: 42}, &buf)
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "district", "datetime", "primary_type", "lat", "lon"}, records[0])
	assert.Equal(t, 121, len(records)) // header + 120 rows
	assert.Equal(t, "Mitte", records[1][1])
}

func TestGenerateIsDeterministic(t *testing.T) {
	var buf1, buf2 bytes.Buffer
	require.NoError(t, Generate(Config{Rows: 50, Partitions: 2, Seed: 7}, &buf1))
	require.NoError(t, Generate(Config{Rows: 50, Partitions: 2, Seed: 7}, &buf2))
	assert.Equal(t, buf1.String(), buf2.String())
}

func TestGenerateSuffixedDistricts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(Config{Rows: 26, Partitions: 13, Seed: 1}, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "Mitte_1", records[1][1])
	assert.Equal(t, "Mitte_13", records[len(records)-1][1])
}

func TestGenerateRejectsNonPositiveRows(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Generate(Config{Rows: 0}, &buf))
}

func TestResolveWeightsDefaults(t *testing.T) {
	weights, err := ResolveWeights(nil)
	require.NoError(t, err)
	require.Equal(t, 7, len(weights))
	assert.InDelta(t, 0.35, weights[0], 1e-9)
	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestResolveWeightsPartialCustom(t *testing.T) {
	weights, err := ResolveWeights(map[string]float64{"THEFT": 0.5, "ROBBERY": 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.1, weights[4], 1e-9)
	var sum float64
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	// unspecified types keep their relative proportions
	assert.Greater(t, weights[1], weights[2])
}

func TestResolveWeightsOversizedCustomNormalized(t *testing.T) {
	weights, err := ResolveWeights(map[string]float64{"THEFT": 0.9, "BATTERY": 0.9})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
	assert.Equal(t, 0.0, weights[2], "unspecified types get zero when custom weights are normalized down")
}

func TestResolveWeightsRejectsUnknownType(t *testing.T) {
	_, err := ResolveWeights(map[string]float64{"JAYWALKING": 0.5})
	assert.Error(t, err)
}

func TestResolveWeightsRejectsOutOfRange(t *testing.T) {
	_, err := ResolveWeights(map[string]float64{"THEFT": 1.5})
	assert.Error(t, err)
}
