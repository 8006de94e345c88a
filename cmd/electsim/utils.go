// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/cheggaaa/pb.v1"

	"github.com/dposlab/bbpelect/co"
	"github.com/dposlab/bbpelect/kv"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/lvldb"
	"github.com/dposlab/bbpelect/memkv"
	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/schedlog"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	format := ctx.String(logFormatFlag.Name)
	useColor := format == "terminal" && isatty.IsTerminal(os.Stderr.Fd())
	return log.Init(os.Stderr, log.LevelFromVerbosity(int(ctx.Uint64(verbosityFlag.Name))), format, useColor)
}

// handleExitSignal returns a context cancelled on the first interrupt. A second one exits.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()

		<-exitSignalCh
		logger.Warn("forced exit")
		os.Exit(1)
	}()
	return ctx
}

// openStore opens the election database in dir, or in memory when dir is empty.
func openStore(dir string, cacheMB int) (kv.TxStore, func(), error) {
	if dir == "" {
		store := memkv.New()
		return store, func() { store.Close() }, nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, nil, errors.Wrapf(err, "create data dir [%v]", dir)
	}
	db, err := lvldb.New(dir, lvldb.Options{CacheSize: cacheMB, OpenFilesCacheCapacity: 64})
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", "err", err)
		}
	}, nil
}

// isEmpty reports whether the store holds no key.
func isEmpty(store kv.Store) (bool, error) {
	it := store.Iterate(kv.Range{})
	defer it.Release()
	return !it.First(), it.Error()
}

func openArchive(path string) (*schedlog.SchedLog, error) {
	if path == "" {
		return schedlog.NewMem()
	}
	return schedlog.New(path)
}

// startServer serves handler on addr until the returned close func is called.
func startServer(addr string, handler http.Handler) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen [%v]", addr)
	}
	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	goes := co.NewGoes(context.Background())
	goes.Go(func(context.Context) {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("server stopped", "addr", addr, "err", err)
		}
	})
	return "http://" + listener.Addr().String(), func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	url, closeFunc, err := startServer(addr, handlers.CompressHandler(router))
	if err != nil {
		return "", nil, errors.WithMessage(err, "metrics API")
	}
	return url + "/metrics", closeFunc, nil
}

// newProgress returns a progress bar over total steps, or nil when nothing should be drawn.
func newProgress(ctx *cli.Context, total int) *pb.ProgressBar {
	if total == 0 || (!ctx.Bool(progressFlag.Name) && !isatty.IsTerminal(os.Stdout.Fd())) {
		return nil
	}
	return pb.New(total).
		SetMaxWidth(90).
		Start()
}
