package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/ledger"
	"github.com/Fantasim/tronxfer/internal/logging"
	"github.com/Fantasim/tronxfer/internal/wallets"
)

func pendingCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Stdout carries the worklist; logs go to stderr.
	logCloser, err := logging.SetupWithConsole(cfg.LogLevel, cfg.LogDir, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	candidates, err := wallets.ReadCSV(cfg.WalletsFile)
	if err != nil {
		slog.Error("wallet source unreadable", "errorCode", config.ErrorWalletSource, "error", err)
		return err
	}
	if cfg.ValidateWallets {
		candidates, _ = wallets.Filter(candidates)
	}

	pending, err := ledger.New(cfg.ProcessedFile).LoadPending(candidates)
	if err != nil {
		return err
	}

	if c.Bool("count") {
		fmt.Fprintln(c.App.Writer, len(pending))
		return nil
	}
	for _, w := range pending {
		fmt.Fprintln(c.App.Writer, w)
	}
	return nil
}
