package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Fantasim/tronxfer/internal/api"
	"github.com/Fantasim/tronxfer/internal/config"
)

var version = "dev"

// exitInvalidConfig is the exit status for unusable configuration.
const exitInvalidConfig = 2

func main() {
	api.Version = version

	app := &cli.App{
		Name:  "tronxfer",
		Usage: "Fetch TRC-20 transfer history for Tron wallets into a CSV store",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Fetch and append transfers for every wallet not yet processed",
				Flags:  commonFlags(&cli.StringFlag{Name: "status-addr", Usage: "Serve /api/status, /api/events and /metrics on this address (e.g. 127.0.0.1:9090)"}),
				Action: runCommand,
			},
			{
				Name:   "pending",
				Usage:  "Print the wallets the next run would process, without contacting the API",
				Flags:  commonFlags(&cli.BoolFlag{Name: "count", Usage: "Print only the number of pending wallets"}),
				Action: pendingCommand,
			},
			{
				Name:   "check",
				Usage:  "Probe the explorer API with a single one-transfer request",
				Flags:  commonFlags(&cli.StringFlag{Name: "wallet", Usage: "Wallet to probe (defaults to the USDT contract)"}),
				Action: checkCommand,
			},
			{
				Name:  "version",
				Usage: "Print version information",
				Action: func(c *cli.Context) error {
					fmt.Fprintf(c.App.Writer, "tronxfer %s\n", version)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("tronxfer error", "error", err)
		os.Exit(1)
	}
}

func commonFlags(extra ...cli.Flag) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: "wallets", Usage: "Wallet source CSV with a \"wallet\" column (overrides TRONXFER_WALLETS_FILE)"},
		&cli.StringFlag{Name: "output", Usage: "Transfer CSV store (overrides TRONXFER_OUTPUT_FILE)"},
		&cli.StringFlag{Name: "processed", Usage: "Processed wallets file (overrides TRONXFER_PROCESSED_FILE)"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error (overrides TRONXFER_LOG_LEVEL)"},
	}, extra...)
}

// loadConfig reads the environment, applies command-line overrides, and
// only then validates the result.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Read()
	if err != nil {
		slog.Error("failed to load config", "errorCode", config.ErrorInvalidConfig, "error", err)
		return nil, cli.Exit(fmt.Sprintf("failed to load config: %v", err), exitInvalidConfig)
	}

	overrides := map[string]*string{
		"wallets":     &cfg.WalletsFile,
		"output":      &cfg.OutputFile,
		"processed":   &cfg.ProcessedFile,
		"log-level":   &cfg.LogLevel,
		"status-addr": &cfg.StatusAddr,
	}
	for name, field := range overrides {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "errorCode", config.ErrorInvalidConfig, "error", err)
		return nil, cli.Exit(err.Error(), exitInvalidConfig)
	}
	return cfg, nil
}
