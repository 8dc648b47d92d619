package explorer

import (
	"net/http"
	"testing"
	"time"

	"github.com/Fantasim/tronxfer/internal/config"
)

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		header string
		want   time.Duration
	}{
		{"missing header", "", 0},
		{"seconds format 30", "30", 30 * time.Second},
		{"seconds format 1", "1", time.Second},
		{"padded seconds", " 5 ", 5 * time.Second},
		{"zero seconds", "0", 0},
		{"negative seconds", "-5", 0},
		{"garbage value", "not-a-number", 0},
		{"capped", "86400", config.MaxRetryAfter},
		{"http date ahead", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second},
		{"http date in the past", now.Add(-10 * time.Second).Format(http.TimeFormat), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := make(http.Header)
			if tt.header != "" {
				h.Set("Retry-After", tt.header)
			}

			if got := parseRetryAfter(h, now); got != tt.want {
				t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}
