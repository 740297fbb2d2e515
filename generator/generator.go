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

// Package generator produces the synthetic Berlin crime dataset the
// benchmark queries run against. Rows are deterministic for a given
// seed so differently sized datasets remain comparable.
package generator

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"
)

var crimeTypes = []string{
	"THEFT", "BATTERY", "CRIMINAL DAMAGE", "ASSAULT", "ROBBERY", "NARCOTICS", "HOMICIDE",
}

var crimeWeights = []float64{0.35, 0.20, 0.15, 0.10, 0.10, 0.09, 0.01}

type districtMeta struct {
	name string
	lat  float64
	lon  float64
}

var berlinDistricts = []districtMeta{
	{"Mitte", 52.5177, 13.4024},
	{"Friedrichshain-Kreuzberg", 52.5015, 13.4338},
	{"Pankow", 52.5701, 13.4079},
	{"Charlottenburg-Wilmersdorf", 52.5028, 13.2809},
	{"Spandau", 52.5332, 13.1664},
	{"Steglitz-Zehlendorf", 52.4343, 13.2625},
	{"Tempelhof-Schöneberg", 52.4630, 13.3768},
	{"Neukölln", 52.4571, 13.4533},
	{"Treptow-Köpenick", 52.4504, 13.5786},
	{"Marzahn-Hellersdorf", 52.5401, 13.5750},
	{"Lichtenberg", 52.5140, 13.4930},
	{"Reinickendorf", 52.6053, 13.2982},
}

const coordNoiseSigma = 0.015

var datasetStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type Config struct {
	Rows       int
	Partitions int

	// Complexity > 0.5 switches crime type sampling from the weighted
	// distribution to a uniform one.
	Complexity float64
	Seed       int64

	// CustomWeights overrides selected crime type probabilities; the
	// remaining probability mass is spread over unspecified types
	// proportionally to their default weights.
	CustomWeights map[string]float64
}

// ResolveWeights merges custom per-type probabilities into the default
// weight table. When custom values sum above 1, they are normalized
// down and unspecified types get zero.
func ResolveWeights(custom map[string]float64) ([]float64, error) {
	if len(custom) == 0 {
		ans := make([]float64, len(crimeWeights))
		copy(ans, crimeWeights)
		return ans, nil
	}
	byName := make(map[string]int, len(crimeTypes))
	for i, name := range crimeTypes {
		byName[name] = i
	}
	var totalCustom float64
	for name, prob := range custom {
		if _, ok := byName[name]; !ok {
			return nil, fmt.Errorf("unknown crime type: %s", name)
		}
		if prob < 0 || prob > 1 {
			return nil, fmt.Errorf("probability of %s must be between 0 and 1, got %f", name, prob)
		}
		totalCustom += prob
	}

	ans := make([]float64, len(crimeTypes))
	if totalCustom >= 1 || len(custom) == len(crimeTypes) {
		for name, prob := range custom {
			if totalCustom > 0 {
				ans[byName[name]] = prob / totalCustom
			}
		}
		return ans, nil
	}

	var defaultRest float64
	for i, name := range crimeTypes {
		if _, ok := custom[name]; !ok {
			defaultRest += crimeWeights[i]
		}
	}
	remaining := 1 - totalCustom
	for i, name := range crimeTypes {
		if prob, ok := custom[name]; ok {
			ans[i] = prob

		} else if defaultRest > 0 {
			ans[i] = crimeWeights[i] / defaultRest * remaining
		}
	}
	return ans, nil
}

// Generate writes the dataset as CSV (header included) to w.
func Generate(conf Config, w io.Writer) error {
	if conf.Rows <= 0 {
		return fmt.Errorf("failed to generate data: rows must be positive")
	}
	if conf.Partitions <= 0 {
		conf.Partitions = 1
	}
	weights, err := ResolveWeights(conf.CustomWeights)
	if err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}
	rnd := rand.New(rand.NewSource(conf.Seed))

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"id", "district", "datetime", "primary_type", "lat", "lon"}); err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}

	rowsPerPart := conf.Rows / conf.Partitions
	for p := 0; p < conf.Partitions; p++ {
		meta := berlinDistricts[p%len(berlinDistricts)]
		district := meta.name
		if conf.Partitions > len(berlinDistricts) {
			district = fmt.Sprintf("%s_%d", meta.name, p+1)
		}
		for i := 0; i < rowsPerPart; i++ {
			id := p*rowsPerPart + i
			ts := datasetStart.Add(time.Duration(i) * time.Minute)
			lat := meta.lat + rnd.NormFloat64()*coordNoiseSigma
			lon := meta.lon + rnd.NormFloat64()*coordNoiseSigma
			record := []string{
				strconv.Itoa(id),
				district,
				ts.Format("2006-01-02 15:04:05"),
				sampleCrimeType(rnd, weights, conf.Complexity),
				strconv.FormatFloat(lat, 'f', 6, 64),
				strconv.FormatFloat(lon, 'f', 6, 64),
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to generate data: %w", err)
			}
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to generate data: %w", err)
	}
	return nil
}

func sampleCrimeType(rnd *rand.Rand, weights []float64, complexity float64) string {
	if complexity > 0.5 {
		return crimeTypes[rnd.Intn(len(crimeTypes))]
	}
	v := rnd.Float64()
	var cumulative float64
	for i, weight := range weights {
		cumulative += weight
		if v < cumulative {
			return crimeTypes[i]
		}
	}
	return crimeTypes[len(crimeTypes)-1]
}
