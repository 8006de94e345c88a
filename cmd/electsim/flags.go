// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	scenarioFlag = cli.StringFlag{
		Name:  "scenario",
		Usage: "path of the YAML scenario to run",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for the election database, kept in memory when empty",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 64,
		Usage: "megabytes of ram allocated to the election database cache",
	}
	archiveFlag = cli.StringFlag{
		Name:  "archive",
		Usage: "path of the sqlite archive of published producer schedules, kept in memory when empty",
	}
	proposerDelayFlag = cli.UintFlag{
		Name:  "proposer-delay",
		Usage: "blocks a published schedule stays pending, overrides the scenario",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Usage: "API service listening address, disabled when empty",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiCacheSizeFlag = cli.IntFlag{
		Name:  "api-cache-size",
		Value: 1024,
		Usage: "number of cached API query results",
	}
	apiScheduleLimitFlag = cli.Int64Flag{
		Name:  "api-schedule-limit",
		Value: 1000,
		Usage: "limit the number of publications returned by /schedule API",
	}
	adminAddrFlag = cli.StringFlag{
		Name:  "admin-addr",
		Usage: "admin service listening address (log level and health), disabled when empty",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	keepServingFlag = cli.BoolFlag{
		Name:  "keep-serving",
		Usage: "keep the API service running after the scenario, until interrupted",
	}
	verbosityFlag = cli.Uint64Flag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	logFormatFlag = cli.StringFlag{
		Name:  "log-format",
		Value: "terminal",
		Usage: "log output format (terminal|logfmt|json)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
	progressFlag = cli.BoolFlag{
		Name:  "progress",
		Usage: "show a progress bar even when stdout is not a terminal",
	}
	keyCountFlag = cli.IntFlag{
		Name:  "count",
		Value: 1,
		Usage: "number of keys to generate",
	}
)
