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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/benchmark"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/cnf"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

func ensureConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(homeDir, ".config", "trinobench")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}

// runActionREPL provides an interactive SQL console against the
// configured coordinator. Each statement is measured the same way a
// benchmark trial is, so users can inspect per-query server metrics
// without running a whole pattern battery.
func runActionREPL(conf *cnf.Conf) {
	conn := trino.NewConn(
		conf.Trino.BaseURL(), conf.Trino.User, conf.Trino.Catalog, conf.Trino.Schema)
	statsClient := trino.NewStatsClient(conf.Trino.BaseURL(), conf.Trino.User)
	measurer := benchmark.NewMeasurer(conn, statsClient)

	titleColor := color.New(color.FgHiMagenta).SprintFunc()
	greenColor := color.New(color.FgGreen).SprintFunc()
	redColor := color.New(color.FgRed).SprintFunc()

	fmt.Println(titleColor("Trino benchmark SQL console"))
	fmt.Println("Commands:")
	fmt.Println("  <SQL statement>  - execute and show measured metrics")
	fmt.Println("  exit             - exit the console")
	fmt.Printf("\nConnected to %s (catalog: %s, schema: %s)\n\n",
		conf.Trino.BaseURL(), conf.Trino.Catalog, conf.Trino.Schema)

	var historyFile string
	historyDir, err := ensureConfigDir()
	if err != nil {
		log.Error().Err(err).Msg("failed to determine user config directory - falling back to session-local history")

	} else {
		historyFile = filepath.Join(historyDir, "sql-history.txt")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:      color.New(color.FgHiGreen).Sprintf("/sql> "),
		HistoryFile: historyFile,
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		os.Exit(exitErrorREPLFailed)
	}
	defer rl.Close()

	ctx := context.Background()
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue

		} else if err == io.EOF {
			break

		} else if err != nil {
			fmt.Fprintf(os.Stderr, "ERR: %s\n", err)
			os.Exit(exitErrorREPLFailed)
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" {
			fmt.Println("Goodbye!")
			break
		}

		trial := measurer.MeasureQuery(ctx, "repl", 1, strings.TrimSuffix(input, ";"), 0)
		if trial.OK() {
			fmt.Printf("%s  rows: %d  runtime: %.4fs (client: %.4fs)\n",
				greenColor("OK"), trial.RowsReturned, trial.RuntimeSec, trial.ClientRuntimeSec)
			if trial.CPUSeconds != nil {
				fmt.Printf("    cpu: %.2fs", *trial.CPUSeconds)
			}
			if trial.PeakMemoryMB != nil {
				fmt.Printf("    peak memory: %.1fMB", *trial.PeakMemoryMB)
			}
			if trial.CPUSeconds != nil || trial.PeakMemoryMB != nil {
				fmt.Println()
			}
			fmt.Printf("    query id: %s (metrics: %s)\n", trial.QueryID, trial.Source)

		} else {
			fmt.Printf("%s  %s\n", redColor("FAILED"), trial.Status)
		}
	}
}
