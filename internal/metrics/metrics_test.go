package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.RecordAttempt(OutcomeSuccess, 10*time.Millisecond)
	m.RecordPage(3)
	m.RecordWallet(WalletDone, time.Second)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected registered metric families")
	}
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := New(reg); err != nil {
		t.Fatalf("first New() error = %v", err)
	}
	if _, err := New(reg); err == nil {
		t.Fatal("second New() on the same registry should fail")
	}
}

func TestMetrics_Counters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.RecordAttempt(OutcomeTransport, time.Millisecond)
	m.RecordAttempt(OutcomeTransport, time.Millisecond)
	m.RecordAttempt(OutcomeSuccess, time.Millisecond)
	m.RecordPage(50)
	m.RecordPage(7)
	m.AddRows(57)
	m.RecordWallet(WalletFailed, time.Second)
	m.SetPending(4)
	m.SetBreakerOpen(true)

	if got := testutil.ToFloat64(m.requests.WithLabelValues(OutcomeTransport)); got != 2 {
		t.Errorf("transport requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.pagesFetched); got != 2 {
		t.Errorf("pages = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.transfers); got != 57 {
		t.Errorf("transfers = %v, want 57", got)
	}
	if got := testutil.ToFloat64(m.rowsWritten); got != 57 {
		t.Errorf("rows = %v, want 57", got)
	}
	if got := testutil.ToFloat64(m.wallets.WithLabelValues(WalletFailed)); got != 1 {
		t.Errorf("failed wallets = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pending); got != 4 {
		t.Errorf("pending = %v, want 4", got)
	}
	if got := testutil.ToFloat64(m.breakerOpen); got != 1 {
		t.Errorf("breaker open = %v, want 1", got)
	}

	m.SetBreakerOpen(false)
	if got := testutil.ToFloat64(m.breakerOpen); got != 0 {
		t.Errorf("breaker open after reset = %v, want 0", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordAttempt(OutcomeSuccess, time.Millisecond)
	m.RecordPage(1)
	m.AddRows(1)
	m.RecordWallet(WalletDone, time.Second)
	m.SetPending(1)
	m.SetBreakerOpen(true)
}
