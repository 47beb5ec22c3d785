// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/inconshreveable/log15"
	isatty "github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/keldachain/kelda/genesis"
	"github.com/keldachain/kelda/lvldb"
	"github.com/keldachain/kelda/metrics"
)

func initLogger(ctx *cli.Context) {
	logLevel := ctx.Int(verbosityFlag.Name)

	var format log15.Format
	if isatty.IsTerminal(os.Stderr.Fd()) {
		format = log15.TerminalFormat()
	} else {
		format = log15.LogfmtFormat()
	}
	log15.Root().SetHandler(log15.LvlFilterHandler(
		log15.Lvl(logLevel),
		log15.StreamHandler(os.Stderr, format),
	))

	// set go-ethereum log lvl to Warn
	ethLogHandler := ethlog.NewGlogHandler(ethlog.NewTerminalHandler(os.Stderr, isatty.IsTerminal(os.Stderr.Fd())))
	ethLogHandler.Verbosity(ethlog.LevelWarn)
	ethlog.SetDefault(ethlog.NewLogger(ethLogHandler))
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		switch runtime.GOOS {
		case "darwin":
			return filepath.Join(home, "Library", "Application Support", "org.keldachain.kelda")
		case "windows":
			return filepath.Join(home, "AppData", "Roaming", "Kelda")
		default:
			return filepath.Join(home, ".org.keldachain.kelda")
		}
	}
	return ""
}

func selectGenesis(ctx *cli.Context) (*genesis.Genesis, error) {
	if path := ctx.String(genesisFlag.Name); path != "" {
		custom, err := genesis.LoadCustomGenesis(path)
		if err != nil {
			return nil, err
		}
		return genesis.NewCustomNet(custom)
	}
	return genesis.NewDevnet(), nil
}

func openMainDB(ctx *cli.Context) (*lvldb.LevelDB, error) {
	if ctx.Bool(memFlag.Name) {
		return lvldb.NewMem()
	}

	dataDir := ctx.String(dataDirFlag.Name)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}

	db, err := lvldb.New(filepath.Join(dataDir, "main.db"), lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", dataDir)
	}
	return db, nil
}

func startAPIServer(addr string, handler http.HandlerFunc) (*http.Server, string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	srv := &http.Server{Handler: handler}
	go func() {
		srv.Serve(listener)
	}()
	return srv, "http://" + listener.Addr().String() + "/", nil
}

func startMetricsServer(addr string) *http.Server {
	router := http.NewServeMux()
	router.Handle("/metrics", metrics.HTTPHandler())
	srv := &http.Server{Addr: addr, Handler: router}
	go func() {
		log.Info("metrics service started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn("metrics service stopped", "err", err)
		}
	}()
	return srv
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		log.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}
