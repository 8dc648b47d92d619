package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/explorer"
	"github.com/Fantasim/tronxfer/internal/ledger"
	"github.com/Fantasim/tronxfer/internal/metrics"
	"github.com/Fantasim/tronxfer/internal/models"
	"github.com/Fantasim/tronxfer/internal/transfer"
	"github.com/Fantasim/tronxfer/internal/wallets"
)

// Fetcher retrieves a wallet's complete transfer history.
type Fetcher interface {
	FetchAll(ctx context.Context, wallet string, pageSize int) ([]models.RawTransfer, error)
	PagesFetched() int64
}

// RowSink durably stores flattened rows.
type RowSink interface {
	Append(rows []models.TransferRow) error
}

// Checkpoint tracks which wallets are complete.
type Checkpoint interface {
	LoadPending(all []string) ([]string, error)
	MarkDone(wallet string) error
}

// Options tunes a Runner. Zero values are usable except PageSize.
type Options struct {
	PageSize        int
	ValidateWallets bool
	Flattener       transfer.Flattener
	Breaker         *explorer.CircuitBreaker // nil disables the cooldown
	Clock           explorer.Clock
	Metrics         *metrics.Metrics
	Hub             *Hub
	RunID           string
}

// Runner drives the fetch-and-checkpoint loop: one wallet at a time, rows
// written before the wallet is checkpointed.
type Runner struct {
	fetcher Fetcher
	sink    RowSink
	ledger  Checkpoint
	opts    Options

	mu        sync.Mutex
	summary   models.Summary
	pageBase  int64
	remaining int
}

// New creates a runner.
func New(fetcher Fetcher, sink RowSink, checkpoint Checkpoint, opts Options) *Runner {
	if opts.Clock == nil {
		opts.Clock = explorer.SystemClock{}
	}
	return &Runner{
		fetcher: fetcher,
		sink:    sink,
		ledger:  checkpoint,
		opts:    opts,
		summary: models.Summary{RunID: opts.RunID},
	}
}

// Summary returns a snapshot of the run's progress. Safe to call while Run
// is in progress.
func (r *Runner) Summary() models.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.summary
	s.PagesFetched = int(r.fetcher.PagesFetched() - r.pageBase)
	if !s.Finished && !s.StartedAt.IsZero() {
		s.Duration = r.opts.Clock.Now().Sub(s.StartedAt)
	}
	return s
}

// Run processes every candidate wallet not yet in the ledger. Wallets whose
// fetch is exhausted are skipped for this run and stay pending. Sink and
// ledger failures stop the run, as does ctx cancellation; in every case the
// wallet in flight is not checkpointed.
func (r *Runner) Run(ctx context.Context, candidates []string) (models.Summary, error) {
	r.mu.Lock()
	r.summary.StartedAt = r.opts.Clock.Now()
	r.summary.Candidates = len(candidates)
	r.pageBase = r.fetcher.PagesFetched()
	r.mu.Unlock()

	err := r.run(ctx, candidates)

	r.mu.Lock()
	r.summary.Finished = true
	r.summary.CurrentWallet = ""
	r.summary.Duration = r.opts.Clock.Now().Sub(r.summary.StartedAt)
	r.mu.Unlock()

	summary := r.Summary()
	complete := RunCompleteData{Summary: summary}
	if err != nil {
		complete.Error = err.Error()
	}
	r.opts.Hub.Broadcast(Event{Type: EventRunComplete, Data: complete})

	logArgs := []any{
		"candidates", summary.Candidates,
		"invalid", summary.Invalid,
		"pending", summary.Pending,
		"done", summary.Done,
		"failed", summary.Failed,
		"pages", summary.PagesFetched,
		"rows", summary.RowsWritten,
		"duration", summary.Duration.Round(time.Millisecond),
	}
	if err != nil {
		slog.Error("run stopped", append(logArgs, "error", err)...)
	} else {
		slog.Info("run complete", logArgs...)
	}

	return summary, err
}

func (r *Runner) run(ctx context.Context, candidates []string) error {
	candidates, skipped := ledger.Checkpointable(candidates)
	invalid := len(skipped)
	if r.opts.ValidateWallets {
		var rejected []string
		candidates, rejected = wallets.Filter(candidates)
		invalid += len(rejected)
	}
	r.mu.Lock()
	r.summary.Invalid = invalid
	r.mu.Unlock()

	pending, err := r.ledger.LoadPending(candidates)
	if err != nil {
		return fmt.Errorf("load worklist: %w", err)
	}

	r.mu.Lock()
	r.summary.Pending = len(pending)
	r.remaining = len(pending)
	r.mu.Unlock()
	r.opts.Metrics.SetPending(len(pending))
	r.opts.Hub.Broadcast(Event{Type: EventRunState, Data: r.Summary()})

	slog.Info("run starting",
		"pending", len(pending),
		"pageSize", r.opts.PageSize,
	)

	for _, wallet := range pending {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
		if err := r.waitBreaker(ctx); err != nil {
			return fmt.Errorf("run interrupted: %w", err)
		}
		if err := r.processWallet(ctx, wallet); err != nil {
			return err
		}
	}

	return nil
}

// processWallet moves one wallet through FETCHING -> WRITTEN -> DONE, or to
// FAILED when its fetch is exhausted. Only a FAILED wallet returns nil
// without being checkpointed.
func (r *Runner) processWallet(ctx context.Context, wallet string) error {
	start := r.opts.Clock.Now()
	r.setState(wallet, models.WalletFetching)

	raws, err := r.fetcher.FetchAll(ctx, wallet, r.opts.PageSize)
	if err != nil {
		if ctx.Err() != nil {
			slog.Warn("wallet aborted", "wallet", wallet, "error", ctx.Err())
			return fmt.Errorf("run interrupted: %w", ctx.Err())
		}
		if errors.Is(err, config.ErrFetchExhausted) {
			r.walletFailed(wallet, start, err)
			return nil
		}
		return fmt.Errorf("fetch wallet %s: %w", wallet, err)
	}

	rows := r.opts.Flattener.FlattenAll(wallet, raws)
	if err := r.sink.Append(rows); err != nil {
		return fmt.Errorf("write rows for wallet %s: %w", wallet, err)
	}
	r.setState(wallet, models.WalletWritten)

	if err := r.ledger.MarkDone(wallet); err != nil {
		return fmt.Errorf("checkpoint wallet %s: %w", wallet, err)
	}
	r.setState(wallet, models.WalletDone)

	elapsed := r.opts.Clock.Now().Sub(start)
	if r.opts.Breaker != nil {
		r.opts.Breaker.RecordSuccess()
	}
	r.opts.Metrics.RecordWallet(metrics.WalletDone, elapsed)

	r.mu.Lock()
	r.summary.Done++
	r.summary.RowsWritten += len(rows)
	r.remaining--
	remaining := r.remaining
	r.mu.Unlock()
	r.opts.Metrics.SetPending(remaining)

	slog.Info("wallet done",
		"wallet", wallet,
		"transfers", len(rows),
		"remaining", remaining,
		"elapsed", elapsed.Round(time.Millisecond),
	)
	r.opts.Hub.Broadcast(Event{Type: EventWalletDone, Data: WalletDoneData{
		Wallet:    wallet,
		Transfers: len(rows),
		Remaining: remaining,
		Elapsed:   elapsed.Round(time.Millisecond).String(),
	}})
	return nil
}

func (r *Runner) walletFailed(wallet string, start time.Time, err error) {
	r.setState(wallet, models.WalletFailed)

	elapsed := r.opts.Clock.Now().Sub(start)
	if r.opts.Breaker != nil {
		r.opts.Breaker.RecordFailure()
	}
	r.opts.Metrics.RecordWallet(metrics.WalletFailed, elapsed)

	r.mu.Lock()
	r.summary.Failed++
	r.remaining--
	remaining := r.remaining
	r.mu.Unlock()
	r.opts.Metrics.SetPending(remaining)

	slog.Error("wallet failed, will retry next run",
		"wallet", wallet,
		"errorCode", config.ErrorFetchExhausted,
		"error", err,
	)
	r.opts.Hub.Broadcast(Event{Type: EventWalletFailed, Data: WalletFailedData{
		Wallet:  wallet,
		Error:   config.ErrorFetchExhausted,
		Message: err.Error(),
	}})
}

// waitBreaker pauses while the failure breaker is open. It never skips a
// wallet.
func (r *Runner) waitBreaker(ctx context.Context) error {
	b := r.opts.Breaker
	if b == nil {
		return nil
	}

	for !b.Allow() {
		wait := b.Remaining()
		if wait <= 0 {
			return nil
		}

		r.opts.Metrics.SetBreakerOpen(true)
		slog.Warn("explorer failing, pausing before next wallet",
			"consecutiveFailures", b.ConsecutiveFailures(),
			"cooldown", wait,
		)
		if err := r.opts.Clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	r.opts.Metrics.SetBreakerOpen(false)
	return nil
}

func (r *Runner) setState(wallet string, state models.WalletState) {
	r.mu.Lock()
	r.summary.CurrentWallet = wallet
	r.mu.Unlock()

	slog.Debug("wallet state", "wallet", wallet, "state", state)
}
