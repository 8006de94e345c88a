// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/dposlab/bbpelect/api"
	"github.com/dposlab/bbpelect/api/admin"
	"github.com/dposlab/bbpelect/api/admin/health"
	"github.com/dposlab/bbpelect/chain"
	"github.com/dposlab/bbpelect/co"
	"github.com/dposlab/bbpelect/log"
	"github.com/dposlab/bbpelect/metrics"
	"github.com/dposlab/bbpelect/proposer"
	"github.com/dposlab/bbpelect/runtime"
	"github.com/dposlab/bbpelect/schedlog"
)

// adminMaxIdle is how long the admin health check tolerates no new block.
const adminMaxIdle = 30 * time.Second

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "electsim")
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
		Name:      "electsim",
		Usage:     "Simulates a DPoS producer election against its proposer schedule",
		Copyright: "2025 The VeChainThor developers",
		Flags: []cli.Flag{
			scenarioFlag,
			dataDirFlag,
			cacheFlag,
			archiveFlag,
			proposerDelayFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiCacheSizeFlag,
			apiScheduleLimitFlag,
			adminAddrFlag,
			enableAPILogsFlag,
			keepServingFlag,
			verbosityFlag,
			logFormatFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			progressFlag,
		},
		Action: runAction,
		Commands: []cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the API over an existing election database",
				Flags: []cli.Flag{
					scenarioFlag,
					dataDirFlag,
					cacheFlag,
					archiveFlag,
					apiAddrFlag,
					apiCorsFlag,
					apiCacheSizeFlag,
					apiScheduleLimitFlag,
					adminAddrFlag,
					enableAPILogsFlag,
					verbosityFlag,
					logFormatFlag,
					enableMetricsFlag,
					metricsAddrFlag,
				},
				Action: serveAction,
			},
			{
				Name:   "check",
				Usage:  "Validate a scenario file",
				Flags:  []cli.Flag{scenarioFlag},
				Action: checkAction,
			},
			{
				Name:   "keygen",
				Usage:  "Generate producer signing keys",
				Flags:  []cli.Flag{keyCountFlag},
				Action: keygenAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadScenario(ctx *cli.Context) (*Scenario, error) {
	path := ctx.String(scenarioFlag.Name)
	if path == "" {
		return nil, errors.New("--scenario is required")
	}
	return LoadScenario(path)
}

func apiOptions(ctx *cli.Context) api.Options {
	return api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		CacheSize:       ctx.Int(apiCacheSizeFlag.Name),
		ScheduleLimit:   ctx.Int64(apiScheduleLimitFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		EnableMetrics:   ctx.Bool(enableMetricsFlag.Name),
	}
}

// startServices starts the metrics, API and admin servers the flags ask for and returns a func stopping them.
func startServices(
	ctx *cli.Context,
	logLevel *slog.LevelVar,
	rt *runtime.Runtime,
	proposers *proposer.Set,
	sched *schedlog.SchedLog,
) (func(), error) {
	var closers []func()
	stop := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return nil, err
		}
		closers = append(closers, closeFunc)
		logger.Info("metrics server started", "url", url)
	}

	if addr := ctx.String(apiAddrFlag.Name); addr != "" {
		handler, err := api.New(rt, proposers, sched, apiOptions(ctx))
		if err != nil {
			stop()
			return nil, err
		}
		url, closeFunc, err := startServer(addr, handler)
		if err != nil {
			stop()
			return nil, errors.WithMessage(err, "API")
		}
		closers = append(closers, closeFunc)
		logger.Info("API server started", "url", url)
	}

	if addr := ctx.String(adminAddrFlag.Name); addr != "" {
		h := health.New(rt, proposers, adminMaxIdle)
		goes := co.NewGoes(context.Background())
		goes.Go(h.Run)
		closers = append(closers, func() {
			goes.Stop()
			goes.Wait()
		})

		url, closeFunc, err := startServer(addr, admin.New(logLevel, h))
		if err != nil {
			stop()
			return nil, errors.WithMessage(err, "admin API")
		}
		closers = append(closers, closeFunc)
		logger.Info("admin server started", "url", url+"/admin")
	}
	return stop, nil
}

func runAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx)
	exitCtx := handleExitSignal()

	sc, err := loadScenario(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet(proposerDelayFlag.Name) {
		sc.ProposerDelay = uint32(ctx.Uint(proposerDelayFlag.Name))
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	store, closeStore, err := openStore(ctx.String(dataDirFlag.Name), ctx.Int(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer closeStore()
	if empty, err := isEmpty(store); err != nil {
		return err
	} else if !empty {
		return errors.New("data dir holds an election already, use serve to inspect it")
	}

	sched, err := openArchive(ctx.String(archiveFlag.Name))
	if err != nil {
		return err
	}
	defer sched.Close()

	proposers := proposer.New(sc.ProposerDelay)
	proposers.SetArchive(sched)
	rt := runtime.New(store, *sc.Accounts, proposers)
	sim := NewSimulator(sc, rt, proposers)

	stopServices, err := startServices(ctx, logLevel, rt, proposers, sched)
	if err != nil {
		return err
	}
	defer stopServices()

	var (
		bar      = newProgress(ctx, sc.Size())
		finished atomic.Int64
		start    = time.Now()
	)
	g, gctx := errgroup.WithContext(exitCtx)
	running, stopped := context.WithCancel(gctx)
	g.Go(func() error {
		defer stopped()
		defer func() {
			if bar != nil {
				bar.Finish()
			}
		}()
		return sim.Run(gctx, func() {
			finished.Add(1)
			if bar != nil {
				bar.Increment()
			}
		})
	})
	if bar == nil {
		g.Go(func() error {
			logProgress(running, &finished, sc.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report, err := sim.Verify(exitCtx)
	if err != nil {
		return err
	}
	stats := sim.Stats()
	logger.Info("scenario completed",
		"blocks", stats.Blocks,
		"actions", stats.Actions,
		"reverted", stats.Reverted,
		"verified", stats.Verified,
		"version", report.Version,
		"elapsed", time.Since(start).Round(time.Millisecond))

	printReport(report)
	if !report.OK() {
		return errors.Errorf("%d window mismatches", len(report.Mismatches))
	}

	if ctx.Bool(keepServingFlag.Name) && ctx.String(apiAddrFlag.Name) != "" {
		logger.Info("scenario done, serving until interrupted")
		<-exitCtx.Done()
	}
	return nil
}

func printReport(r *Report) {
	fmt.Printf("version:     %d\n", r.Version)
	fmt.Printf("interrupted: %v\n", r.Interrupted)
	fmt.Printf("main:        %v\n", r.Main)
	fmt.Printf("backup:      %v\n", r.Backup)
	for _, m := range r.Mismatches {
		fmt.Printf("mismatch:    %s\n", m)
	}
}

// serveAction exposes an election database left by a previous run. Nothing writes to it.
// Account names come from --scenario when given.
func serveAction(ctx *cli.Context) error {
	logLevel := initLogger(ctx)
	exitCtx := handleExitSignal()

	dir := ctx.String(dataDirFlag.Name)
	if dir == "" {
		return errors.New("--data-dir is required")
	}
	if ctx.String(apiAddrFlag.Name) == "" {
		return errors.New("--api-addr is required")
	}
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
	}

	store, closeStore, err := openStore(dir, ctx.Int(cacheFlag.Name))
	if err != nil {
		return err
	}
	defer closeStore()

	var sched *schedlog.SchedLog
	if path := ctx.String(archiveFlag.Name); path != "" {
		if sched, err = schedlog.New(path); err != nil {
			return err
		}
		defer sched.Close()
	}

	accounts := chain.DefaultAccounts()
	if ctx.IsSet(scenarioFlag.Name) {
		sc, err := loadScenario(ctx)
		if err != nil {
			return err
		}
		accounts = *sc.Accounts
	}

	rt := runtime.New(store, accounts, nil)
	stop, err := startServices(ctx, logLevel, rt, nil, sched)
	if err != nil {
		return err
	}
	defer stop()

	<-exitCtx.Done()
	return nil
}

// logProgress logs the finished steps periodically until ctx is done.
func logProgress(ctx context.Context, finished *atomic.Int64, total int) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			logger.Info("simulating", "steps", finished.Load(), "total", total)
		}
	}
}

func checkAction(ctx *cli.Context) error {
	sc, err := loadScenario(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%d producers, %d voters, %d steps\n", len(sc.Producers), len(sc.Voters), sc.Size())
	return nil
}

func keygenAction(ctx *cli.Context) error {
	count := ctx.Int(keyCountFlag.Name)
	if count <= 0 {
		return errors.New("--count must be positive")
	}
	for range count {
		key, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return errors.Wrap(err, "generate key")
		}
		pub, err := chain.ParsePublicKey(key.PubKey().SerializeCompressed())
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", hex.EncodeToString(key.Serialize()), pub)
	}
	return nil
}
