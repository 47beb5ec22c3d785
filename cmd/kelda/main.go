// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/inconshreveable/log15"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/keldachain/kelda/api"
	"github.com/keldachain/kelda/co"
	"github.com/keldachain/kelda/genesis"
	"github.com/keldachain/kelda/ledger"
	"github.com/keldachain/kelda/metrics"
	"github.com/keldachain/kelda/pipeline"
	"github.com/keldachain/kelda/receiptdb"
	"github.com/keldachain/kelda/txpool"
)

var (
	version   string
	gitCommit string
	gitTag    string
	log       = log15.New()

	defaultPoolOptions = txpool.Options{
		Limit:           10000,
		LimitPerAccount: 128,
		MaxLifetime:     20 * time.Minute,
	}
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Kelda",
		Usage:     "Single-node transaction-processing engine",
		Copyright: "2025 The Kelda developers",
		Flags: []cli.Flag{
			genesisFlag,
			dataDirFlag,
			memFlag,
			apiAddrFlag,
			apiCorsFlag,
			onDemandFlag,
			blockIntervalFlag,
			batchSizeFlag,
			verbosityFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { log.Info("exited") }()

	initLogger(ctx)

	var metricsServer *http.Server
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		metricsServer = startMetricsServer(ctx.String(metricsAddrFlag.Name))
		defer func() { metricsServer.Shutdown(context.Background()) }()
	}

	gene, err := selectGenesis(ctx)
	if err != nil {
		return err
	}

	mainDB, err := openMainDB(ctx)
	if err != nil {
		return err
	}
	defer func() { log.Info("closing main database..."); mainDB.Close() }()

	ldgr, loaded, err := ledger.Load(mainDB)
	if err != nil {
		return err
	}
	if !loaded {
		ldgr = ledger.New(mainDB, gene.Alloc())
		log.Info("initialized ledger from genesis", "network", gene.Name(), "accounts", ldgr.Snapshot().Len())
	} else {
		log.Info("resumed ledger from checkpoint", "version", ldgr.Snapshot().Version())
	}

	receipts := receiptdb.New(mainDB)

	pool := txpool.New(receipts, defaultPoolOptions)
	defer func() { log.Info("closing tx pool..."); pool.Close() }()

	pipe := pipeline.New(pool, ldgr, receipts, pipeline.Options{
		BatchSize: ctx.Int(batchSizeFlag.Name),
		Interval:  time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second,
	})

	apiHandler := api.New(ldgr, pool, receipts, api.Options{
		AllowedOrigins: ctx.String(apiCorsFlag.Name),
		EnableMetrics:  ctx.Bool(enableMetricsFlag.Name),
	})
	apiSrv, apiURL, err := startAPIServer(ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return err
	}
	defer func() { log.Info("stopping API server..."); apiSrv.Shutdown(context.Background()) }()

	printStartupMessage(gene, ldgr, apiURL)

	runCtx := handleExitSignal()
	var goes co.Goes
	if ctx.Bool(onDemandFlag.Name) {
		goes.Go(func() { onDemandLoop(runCtx, pool, pipe) })
	} else {
		goes.Go(func() { pipe.Run(runCtx) })
	}
	goes.Go(func() { commitWatcher(runCtx, ldgr) })
	goes.Wait()
	return nil
}

// commitWatcher logs ledger progress as batches commit.
func commitWatcher(ctx context.Context, ldgr *ledger.Ledger) {
	ticker := ldgr.NewTicker()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			snap := ldgr.Snapshot()
			log.Info("ledger advanced", "version", snap.Version(), "root", snap.Root())
		}
	}
}

// onDemandLoop commits a batch as soon as txs show up, draining the pool
// before going back to sleep.
func onDemandLoop(ctx context.Context, pool *txpool.TxPool, pipe *pipeline.Pipeline) {
	txEvCh := make(chan *txpool.TxEvent, 16)
	sub := pool.SubscribeTxEvent(txEvCh)
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case <-txEvCh:
			for {
				_, claimed, err := pipe.RunBatch()
				if err != nil {
					log.Error("batch failed", "err", err)
					break
				}
				if claimed == 0 {
					break
				}
			}
		}
	}
}

func printStartupMessage(gene *genesis.Genesis, ldgr *ledger.Ledger, apiURL string) {
	snap := ldgr.Snapshot()
	fmt.Printf(`Starting Kelda %v
    Network      [ %v ]
    Ledger       [ version %v, root %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		gene.Name(),
		snap.Version(), snap.Root(),
		apiURL)
}
