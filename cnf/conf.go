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

package cnf

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/czcorpus/cnc-gokit/logging"
	"github.com/rs/zerolog/log"
)

const (
	dfltTrinoHost              = "localhost"
	dfltTrinoPort              = 8080
	dfltTrinoUser              = "admin"
	dfltTrinoCatalog           = "postgres"
	dfltTrinoSchema            = "public"
	dfltIterations             = 5
	dfltWarmupRuns             = 1
	dfltQueryDir               = "queries"
	dfltOutputDir              = "output"
	dfltBaselineTable          = "crime_data"
	dfltServerReadTimeoutSecs  = 10
	dfltServerWriteTimeoutSecs = 30
)

// TrinoConf wraps connection parameters of a benchmarked
// Trino coordinator. Both the statement protocol and the
// query statistics REST API share the same host and port.
type TrinoConf struct {
	Host    string `json:"host"`
	Port    int    `json:"port"`
	User    string `json:"user"`
	Catalog string `json:"catalog"`
	Schema  string `json:"schema"`
}

func (tc TrinoConf) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", tc.Host, tc.Port)
}

type Conf struct {
	srcPath                string
	Logging                logging.LoggingConf `json:"logging"`
	Trino                  TrinoConf           `json:"trino"`
	QueryDir               string              `json:"queryDir"`
	OutputDir              string              `json:"outputDir"`
	ResultsDBPath          string              `json:"resultsDbPath"`
	Iterations             int                 `json:"iterations"`
	WarmupRuns             int                 `json:"warmupRuns"`
	BaselineTable          string              `json:"baselineTable"`
	ListenAddress          string              `json:"listenAddress"`
	ListenPort             int                 `json:"listenPort"`
	ServerReadTimeoutSecs  int                 `json:"serverReadTimeoutSecs"`
	ServerWriteTimeoutSecs int                 `json:"serverWriteTimeoutSecs"`
	CorsAllowedOrigins     []string            `json:"corsAllowedOrigins"`
}

func (conf *Conf) GetSourcePath() string {
	return conf.srcPath
}

func LoadConfig(path string) *Conf {
	if path == "" {
		log.Fatal().Msg("Cannot load config - path not specified")
	}
	rawData, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	var conf Conf
	conf.srcPath = path
	err = json.Unmarshal(rawData, &conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot load config")
	}
	return &conf
}

func ValidateAndDefaults(conf *Conf) {
	if conf.Trino.Host == "" {
		conf.Trino.Host = dfltTrinoHost
		log.Warn().Str("host", dfltTrinoHost).Msg("trino.host not specified, using default")
	}
	if conf.Trino.Port == 0 {
		conf.Trino.Port = dfltTrinoPort
		log.Warn().Int("port", dfltTrinoPort).Msg("trino.port not specified, using default")
	}
	if conf.Trino.User == "" {
		conf.Trino.User = dfltTrinoUser
		log.Warn().Str("user", dfltTrinoUser).Msg("trino.user not specified, using default")
	}
	if conf.Trino.Catalog == "" {
		conf.Trino.Catalog = dfltTrinoCatalog
	}
	if conf.Trino.Schema == "" {
		conf.Trino.Schema = dfltTrinoSchema
	}
	if conf.Iterations == 0 {
		conf.Iterations = dfltIterations
		log.Warn().Int("iterations", dfltIterations).Msg("iterations not specified, using default")
	}
	if conf.Iterations < 0 {
		log.Fatal().Msg("iterations must be a positive number")
	}
	if conf.WarmupRuns == 0 {
		conf.WarmupRuns = dfltWarmupRuns
		log.Warn().Int("warmupRuns", dfltWarmupRuns).Msg("warmupRuns not specified, using default")
	}
	if conf.WarmupRuns < 0 {
		log.Fatal().Msg("warmupRuns cannot be negative")
	}
	if conf.QueryDir == "" {
		conf.QueryDir = dfltQueryDir
	}
	if conf.OutputDir == "" {
		conf.OutputDir = dfltOutputDir
	}
	if conf.BaselineTable == "" {
		conf.BaselineTable = dfltBaselineTable
	}
	if conf.ServerReadTimeoutSecs == 0 {
		conf.ServerReadTimeoutSecs = dfltServerReadTimeoutSecs
	}
	if conf.ServerWriteTimeoutSecs == 0 {
		conf.ServerWriteTimeoutSecs = dfltServerWriteTimeoutSecs
		log.Warn().Msgf(
			"serverWriteTimeoutSecs not specified, using default: %d",
			dfltServerWriteTimeoutSecs,
		)
	}
}
