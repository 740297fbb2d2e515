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
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/czcorpus/cnc-gokit/logging"

	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/apiserver"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/benchmark"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/cnf"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/generator"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/results"
	"github.com/Asterbons/Row-Pattern-Recognition-Trino-benchmark/trino"
)

const (
	actionBenchmark = "benchmark"
	actionGenerate  = "generate"
	actionREPL      = "repl"
	actionAPIServer = "apiserver"
	actionVersion   = "version"
	actionHelp      = "help"

	exitErrorGeneralFailure = iota
	exitErrorBenchmarkFailed
	exitErrorGenerateFailed
	exitErrorFailedToOpenResultsDB
	exitErrorREPLFailed
)

var (
	version   string
	buildDate string
	gitCommit string
)

// VersionInfo provides a detailed information about the actual build
type VersionInfo struct {
	Version   string `json:"version"`
	BuildDate string `json:"buildDate"`
	GitCommit string `json:"gitCommit"`
}

func topLevelUsage() {
	fmt.Fprintf(os.Stderr, "TRINOBENCH - a Trino query pattern benchmarking tool\n")
	fmt.Fprintf(os.Stderr, "-----------------------------\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "\t%s\t\tshow version info\n", actionVersion)
	fmt.Fprintf(os.Stderr, "\t%s\trun the query pattern benchmark\n", actionBenchmark)
	fmt.Fprintf(os.Stderr, "\t%s\tgenerate a synthetic crime dataset\n", actionGenerate)
	fmt.Fprintf(os.Stderr, "\t%s\t\tinteractive SQL console with measured metrics\n", actionREPL)
	fmt.Fprintf(os.Stderr, "\t%s\tserve archived benchmark results over HTTP\n", actionAPIServer)
	fmt.Fprintf(os.Stderr, "\nUse `trinobench help ACTION` for information about a specific action\n\n")
}

func setup(confPath string) *cnf.Conf {
	conf := cnf.LoadConfig(confPath)
	if conf.Logging.Level == "" {
		conf.Logging.Level = "info"
	}
	logging.SetupLogging(conf.Logging)
	cnf.ValidateAndDefaults(conf)
	return conf
}

func cleanVersionInfo(v string) string {
	return strings.TrimLeft(strings.Trim(v, "'"), "v")
}

func openResultsDB(conf *cnf.Conf) *results.Database {
	if conf.ResultsDBPath == "" {
		return nil
	}
	db, err := results.NewDatabase(conf.ResultsDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open results database: %s", err)
		os.Exit(exitErrorFailedToOpenResultsDB)
	}
	if err := db.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init results database: %s", err)
		os.Exit(exitErrorFailedToOpenResultsDB)
	}
	return db
}

func runActionBenchmark(conf *cnf.Conf) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	conn := trino.NewConn(
		conf.Trino.BaseURL(), conf.Trino.User, conf.Trino.Catalog, conf.Trino.Schema)
	statsClient := trino.NewStatsClient(conf.Trino.BaseURL(), conf.Trino.User)

	var archive benchmark.TrialArchiver
	db := openResultsDB(conf)
	if db != nil {
		defer db.Close()
		archive = db
	}
	driver := benchmark.NewDriver(conf, conn, statsClient, archive)
	if err := driver.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(exitErrorBenchmarkFailed)
	}
}

func parseWeightsSpec(spec string) (map[string]float64, error) {
	if spec == "" {
		return nil, nil
	}
	ans := make(map[string]float64)
	for _, item := range strings.Split(spec, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(item), ":")
		if !found {
			return nil, fmt.Errorf("invalid weight item: %s", item)
		}
		prob, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight item %s: %w", item, err)
		}
		ans[strings.ToUpper(strings.TrimSpace(name))] = prob
	}
	return ans, nil
}

func runActionGenerate(outPath string, conf generator.Config) {
	outFile, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate dataset: %s\n", err)
		os.Exit(exitErrorGenerateFailed)
	}
	defer outFile.Close()
	if err := generator.Generate(conf, outFile); err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate dataset: %s\n", err)
		os.Exit(exitErrorGenerateFailed)
	}
	fmt.Printf("saved: %s\n", outPath)
}

func runActionAPIServer(conf *cnf.Conf, ver VersionInfo) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	db := openResultsDB(conf)
	if db == nil {
		fmt.Fprintln(os.Stderr, "resultsDbPath must be configured for the apiserver action")
		os.Exit(exitErrorFailedToOpenResultsDB)
	}
	defer db.Close()
	apiserver.Run(ctx, conf, db, ver)
}

func runActionVersion(ver VersionInfo) {
	fmt.Fprintln(os.Stderr, "TRINOBENCH version: ", ver)
}

func main() {
	version := VersionInfo{
		Version:   cleanVersionInfo(version),
		BuildDate: cleanVersionInfo(buildDate),
		GitCommit: cleanVersionInfo(gitCommit),
	}

	cmdBenchmark := flag.NewFlagSet(actionBenchmark, flag.ExitOnError)
	cmdBenchmark.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options] config.json\n",
			filepath.Base(os.Args[0]), actionBenchmark)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdBenchmark.PrintDefaults()
	}

	cmdGenerate := flag.NewFlagSet(actionGenerate, flag.ExitOnError)
	genRows := cmdGenerate.Int("rows", 10000, "number of rows to generate")
	genPartitions := cmdGenerate.Int("partitions", 1, "number of partitions (districts)")
	genComplexity := cmdGenerate.Float64("complexity", 0.3, "complexity of the data (> 0.5 makes the crime type distribution uniform)")
	genSeed := cmdGenerate.Int64("seed", 42, "seed for the random number generator")
	genWeights := cmdGenerate.String("weights", "", "custom crime type weights (e.g. \"THEFT:0.5,ROBBERY:0.1\")")
	genOut := cmdGenerate.String("out", "crime_data.csv", "output file path")
	cmdGenerate.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s [options]\n",
			filepath.Base(os.Args[0]), actionGenerate)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		cmdGenerate.PrintDefaults()
	}

	cmdREPL := flag.NewFlagSet(actionREPL, flag.ExitOnError)
	cmdREPL.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json\n",
			filepath.Base(os.Args[0]), actionREPL)
		cmdREPL.PrintDefaults()
	}

	cmdAPIServer := flag.NewFlagSet(actionAPIServer, flag.ExitOnError)
	cmdAPIServer.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\t%s %s config.json\n",
			filepath.Base(os.Args[0]), actionAPIServer)
		cmdAPIServer.PrintDefaults()
	}

	cmdVersion := flag.NewFlagSet(actionVersion, flag.ExitOnError)
	cmdHelp := flag.NewFlagSet(actionHelp, flag.ExitOnError)

	action := actionHelp
	if len(os.Args) > 1 {
		action = os.Args[1]
	}

	switch action {
	case actionHelp:
		var subj string
		if len(os.Args) > 2 {
			cmdHelp.Parse(os.Args[2:])
			subj = cmdHelp.Arg(0)
		}
		if subj == "" {
			topLevelUsage()
			return
		}
		switch subj {
		case actionBenchmark:
			cmdBenchmark.Usage()
		case actionGenerate:
			cmdGenerate.Usage()
		case actionREPL:
			cmdREPL.Usage()
		case actionAPIServer:
			cmdAPIServer.Usage()
		}
	case actionVersion:
		cmdVersion.Parse(os.Args[2:])
		runActionVersion(version)
	case actionBenchmark:
		cmdBenchmark.Parse(os.Args[2:])
		conf := setup(cmdBenchmark.Arg(0))
		runActionBenchmark(conf)
	case actionGenerate:
		cmdGenerate.Parse(os.Args[2:])
		weights, err := parseWeightsSpec(*genWeights)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\n", err)
			os.Exit(exitErrorGenerateFailed)
		}
		runActionGenerate(*genOut, generator.Config{
			Rows:          *genRows,
			Partitions:    *genPartitions,
			Complexity:    *genComplexity,
			Seed:          *genSeed,
			CustomWeights: weights,
		})
	case actionREPL:
		cmdREPL.Parse(os.Args[2:])
		conf := setup(cmdREPL.Arg(0))
		runActionREPL(conf)
	case actionAPIServer:
		cmdAPIServer.Parse(os.Args[2:])
		conf := setup(cmdAPIServer.Arg(0))
		runActionAPIServer(conf, version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown action, please use 'help' to get more information")
	}

}
