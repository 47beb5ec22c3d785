// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/keldachain/kelda/kelda"
)

var (
	genesisFlag = cli.StringFlag{
		Name:  "genesis",
		Usage: "path to a custom genesis file, omit to use the built-in dev accounts",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger and receipt databases",
	}
	memFlag = cli.BoolFlag{
		Name:  "mem",
		Usage: "keep databases in memory only",
	}
	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8669",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	onDemandFlag = cli.BoolFlag{
		Name:  "on-demand",
		Usage: "commit a batch as soon as txs arrive, instead of on interval",
	}
	blockIntervalFlag = cli.Uint64Flag{
		Name:  "block-interval",
		Value: kelda.BlockInterval,
		Usage: "seconds between batch commits in interval mode",
	}
	batchSizeFlag = cli.IntFlag{
		Name:  "batch-size",
		Value: kelda.MaxBatchSize,
		Usage: "max txs claimed into one batch",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-9)",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection and the metrics endpoint",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Value: "localhost:2112",
		Usage: "metrics service listening address",
	}
)
