package explorer

import (
	"context"
	"log/slog"
	"time"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/models"
)

// HealthCheckResult holds the outcome of a single explorer probe.
type HealthCheckResult struct {
	Name    string        `json:"name"`
	OK      bool          `json:"ok"`
	Total   int           `json:"total"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// CheckHealth requests a one-transfer page for probeWallet and reports
// whether the explorer answered with a well-formed page. It performs a
// single attempt; failures are logged at WARN and never retried.
func CheckHealth(ctx context.Context, fetcher PageFetcher, probeWallet string) HealthCheckResult {
	if probeWallet == "" {
		probeWallet = config.HealthCheckWallet
	}

	ctx, cancel := context.WithTimeout(ctx, config.HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	page, err := fetcher.FetchPage(ctx, models.PageRequest{Wallet: probeWallet, Offset: 0, Limit: 1})
	latency := time.Since(start)

	result := HealthCheckResult{
		Name:    fetcher.Name(),
		OK:      err == nil,
		Total:   page.Total,
		Latency: latency,
		Error:   err,
	}

	if err != nil {
		slog.Warn("explorer health check FAILED",
			"provider", result.Name,
			"wallet", probeWallet,
			"latency", latency.Round(time.Millisecond),
			"error", err,
		)
		return result
	}

	slog.Info("explorer health check OK",
		"provider", result.Name,
		"latency", latency.Round(time.Millisecond),
		"total", page.Total,
	)
	return result
}
