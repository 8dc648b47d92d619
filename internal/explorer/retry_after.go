package explorer

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Fantasim/tronxfer/internal/config"
)

// parseRetryAfter reads the Retry-After header of a throttled response as
// either delta-seconds or an HTTP-date relative to now. Missing, unparseable,
// or past values yield 0. Values are capped at config.MaxRetryAfter.
func parseRetryAfter(header http.Header, now time.Time) time.Duration {
	val := strings.TrimSpace(header.Get("Retry-After"))
	if val == "" {
		return 0
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(val); err == nil {
		d = time.Duration(seconds) * time.Second
	} else if at, err := http.ParseTime(val); err == nil {
		d = at.Sub(now)
	} else {
		slog.Debug("unparseable Retry-After header", "value", val)
		return 0
	}

	if d <= 0 {
		return 0
	}
	if d > config.MaxRetryAfter {
		slog.Debug("Retry-After capped", "requested", d, "cap", config.MaxRetryAfter)
		return config.MaxRetryAfter
	}
	return d
}
