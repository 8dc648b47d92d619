package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Fantasim/tronxfer/internal/explorer"
	"github.com/Fantasim/tronxfer/internal/logging"
)

func checkCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logCloser, err := logging.SetupWithConsole(cfg.LogLevel, cfg.LogDir, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logCloser.Close()

	provider := explorer.NewTronscanProvider(
		&http.Client{Timeout: cfg.RequestTimeout},
		explorer.NewThrottle("tronscan", cfg.RateLimit, nil),
		cfg.APIURL, cfg.APIKey, nil,
	)

	result := explorer.CheckHealth(c.Context, provider, c.String("wallet"))
	if !result.OK {
		return cli.Exit(fmt.Sprintf("%s unreachable: %v", result.Name, result.Error), 1)
	}

	fmt.Fprintf(c.App.Writer, "%s OK in %s (total=%d)\n", result.Name, result.Latency.Round(time.Millisecond), result.Total)
	return nil
}
