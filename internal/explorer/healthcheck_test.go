package explorer

import (
	"context"
	"net/http"
	"testing"

	"github.com/Fantasim/tronxfer/internal/config"
)

func TestCheckHealth_OK(t *testing.T) {
	var gotWallet, gotLimit string
	provider := newTestTronscan(t, func(w http.ResponseWriter, r *http.Request) {
		gotWallet = r.URL.Query().Get("relatedAddress")
		gotLimit = r.URL.Query().Get("limit")
		w.Write([]byte(`{"total": 42, "token_transfers": [{"transaction_id": "abc"}]}`)) //nolint:errcheck
	}, "")

	result := CheckHealth(context.Background(), provider, "")
	if !result.OK {
		t.Fatalf("CheckHealth() OK = false, error = %v", result.Error)
	}
	if result.Name != "Tronscan" {
		t.Errorf("Name = %q, want Tronscan", result.Name)
	}
	if result.Total != 42 {
		t.Errorf("Total = %d, want 42", result.Total)
	}
	if gotWallet != config.HealthCheckWallet {
		t.Errorf("relatedAddress = %q, want %q", gotWallet, config.HealthCheckWallet)
	}
	if gotLimit != "1" {
		t.Errorf("limit = %q, want 1", gotLimit)
	}
}

func TestCheckHealth_Failure(t *testing.T) {
	calls := 0
	provider := newTestTronscan(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}, "")

	result := CheckHealth(context.Background(), provider, "TProbe")
	if result.OK {
		t.Fatal("CheckHealth() OK = true for HTTP 503")
	}
	if result.Error == nil {
		t.Error("expected Error to be set")
	}
	if calls != 1 {
		t.Errorf("server calls = %d, want 1 (no retries)", calls)
	}
}

func TestCheckHealth_Anomalous(t *testing.T) {
	provider := newTestTronscan(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "rate limited"}`)) //nolint:errcheck
	}, "")

	result := CheckHealth(context.Background(), provider, "TProbe")
	if result.OK {
		t.Fatal("CheckHealth() OK = true for anomalous body")
	}
}
