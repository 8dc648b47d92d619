package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	APIKey string `envconfig:"TRONXFER_API_KEY"`
	APIURL string `envconfig:"TRONXFER_API_URL" default:"https://apilist.tronscanapi.com/api/filter/trc20/transfers"`

	WalletsFile   string `envconfig:"TRONXFER_WALLETS_FILE" default:"./data/tron_wallets.csv"`
	OutputFile    string `envconfig:"TRONXFER_OUTPUT_FILE" default:"./data/trc20_xfers.csv"`
	ProcessedFile string `envconfig:"TRONXFER_PROCESSED_FILE" default:"./data/trc20_wallets_processed.txt"`

	PageSize       int           `envconfig:"TRONXFER_PAGE_SIZE" default:"50"`
	RateLimit      int           `envconfig:"TRONXFER_RATE_LIMIT" default:"5"`
	MaxAttempts    int           `envconfig:"TRONXFER_MAX_ATTEMPTS" default:"10"`
	BackoffUnit    time.Duration `envconfig:"TRONXFER_BACKOFF_UNIT" default:"1s"`
	RequestTimeout time.Duration `envconfig:"TRONXFER_REQUEST_TIMEOUT" default:"30s"`

	ValidateWallets bool   `envconfig:"TRONXFER_VALIDATE_WALLETS" default:"false"`
	MissingMarker   string `envconfig:"TRONXFER_MISSING_MARKER"`

	FailureThreshold int           `envconfig:"TRONXFER_FAILURE_THRESHOLD" default:"3"`
	FailureCooldown  time.Duration `envconfig:"TRONXFER_FAILURE_COOLDOWN" default:"1m"`

	StatusAddr string `envconfig:"TRONXFER_STATUS_ADDR"`

	LogLevel string `envconfig:"TRONXFER_LOG_LEVEL" default:"info"`
	LogDir   string `envconfig:"TRONXFER_LOG_DIR" default:"./logs"`
}

// Load reads configuration from .env file (if present) then from environment variables,
// and validates it. Environment variables override .env values.
func Load() (*Config, error) {
	cfg, err := Read()
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Read is Load without validation, for callers that apply their own
// overrides before calling Validate.
func Read() (*Config, error) {
	// godotenv does NOT override already-set env vars, so real environment
	// variables take precedence over .env values.
	envFiles := []string{".env"}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				slog.Warn("failed to load .env file", "file", f, "error", err)
			} else {
				slog.Info("loaded .env file", "file", f)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to process env config: %v", ErrInvalidConfig, err)
	}

	return &cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("%w: api url must not be empty", ErrInvalidConfig)
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page size must be 1-%d, got %d", ErrInvalidConfig, MaxPageSize, c.PageSize)
	}
	if c.RateLimit < 1 {
		return fmt.Errorf("%w: rate limit must be >= 1 call/s, got %d", ErrInvalidConfig, c.RateLimit)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: max attempts must be >= 1, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.BackoffUnit < 0 {
		return fmt.Errorf("%w: backoff unit must not be negative, got %s", ErrInvalidConfig, c.BackoffUnit)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive, got %s", ErrInvalidConfig, c.RequestTimeout)
	}
	if c.FailureThreshold < 0 {
		return fmt.Errorf("%w: failure threshold must be >= 0, got %d", ErrInvalidConfig, c.FailureThreshold)
	}
	if c.WalletsFile == "" || c.OutputFile == "" || c.ProcessedFile == "" {
		return fmt.Errorf("%w: wallets, output and processed file paths are required", ErrInvalidConfig)
	}
	if c.OutputFile == c.ProcessedFile {
		return fmt.Errorf("%w: output and processed files must differ, both are %q", ErrInvalidConfig, c.OutputFile)
	}
	return nil
}
