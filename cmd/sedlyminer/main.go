package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus"
	"github.com/sedlynet/sedlyd/domain/consensus/ruleerrors"
	"github.com/sedlynet/sedlyd/domain/mining"
	"github.com/sedlynet/sedlyd/infrastructure/config"
	"github.com/sedlynet/sedlyd/infrastructure/logger"
	"github.com/sedlynet/sedlyd/infrastructure/metrics"
	"github.com/sedlynet/sedlyd/infrastructure/os/signal"
	"github.com/sedlynet/sedlyd/util/panics"
	"github.com/sedlynet/sedlyd/version"
)

func main() {
	defer panics.HandlePanic(log, "main", nil)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error parsing command-line arguments: %s\n", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog.Close()

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", logger.SupportedSubsystems())
		os.Exit(0)
	}
	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the log level: %s\n", err)
		os.Exit(1)
	}

	// Show version at startup.
	log.Infof("Version %s", version.Version())

	ctx, cancel := signal.InterruptContext(context.Background())
	defer cancel()

	err = run(ctx, cfg)
	if err != nil && !errors.Is(err, mining.ErrCancelled) {
		log.Criticalf("%+v", err)
		logger.BackendLog.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.MetricsListen != "" {
		server, err := metrics.Listen(cfg.MetricsListen)
		if err != nil {
			return err
		}
		log.Infof("Serving prometheus metrics on %s", server.Addr())
		spawn("metrics.Serve", func() {
			err := server.Serve(ctx)
			if err != nil {
				log.Errorf("Metrics server stopped: %s", err)
			}
		})
	}

	ledgerConfig := consensus.DefaultConfig(cfg.NetParams())
	ledger, err := consensus.Open(cfg.DataDir, ledgerConfig)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := ledger.Close()
		if closeErr != nil {
			log.Errorf("Failed closing the ledger: %s", closeErr)
		}
	}()

	err = ledger.InitializeWithGenesis()
	if err != nil && !errors.Is(err, ruleerrors.ErrGenesisOnInitializedLedger) {
		return err
	}

	miner, err := mining.NewMiner(cfg.NetParams().PowLimit, cfg.MiningThreads)
	if err != nil {
		return err
	}
	return mineLoop(ctx, ledger, miner, cfg)
}
