package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/metrics"
	"github.com/Fantasim/tronxfer/internal/models"
)

// Paginator walks every page of a wallet's transfer history.
type Paginator struct {
	fetcher PageFetcher
	policy  RetryPolicy
	metrics *metrics.Metrics
	pages   atomic.Int64
}

// NewPaginator creates a paginator that retries each page under policy.
func NewPaginator(fetcher PageFetcher, policy RetryPolicy, m *metrics.Metrics) *Paginator {
	return &Paginator{
		fetcher: fetcher,
		policy:  policy,
		metrics: m,
	}
}

// PagesFetched returns how many pages this paginator has fetched successfully.
func (p *Paginator) PagesFetched() int64 {
	return p.pages.Load()
}

// PageCount returns how many pages a result set of total items spans.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchAll returns every transfer of wallet in server order. The page count
// is fixed by the first response's total and never re-read; a later page
// reporting a different total is only logged.
//
// If any page fails on every attempt the whole wallet is abandoned and a
// *config.FetchExhaustedError is returned.
func (p *Paginator) FetchAll(ctx context.Context, wallet string, pageSize int) ([]models.RawTransfer, error) {
	if pageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", config.ErrInvalidConfig, pageSize)
	}

	first, err := p.fetchPage(ctx, models.PageRequest{Wallet: wallet, Offset: 0, Limit: pageSize})
	if err != nil {
		return nil, err
	}

	pageCount := PageCount(first.Total, pageSize)
	slog.Debug("wallet pagination planned",
		"wallet", wallet,
		"total", first.Total,
		"pageSize", pageSize,
		"pages", pageCount,
	)

	transfers := append([]models.RawTransfer(nil), first.Transfers...)

	for i := 1; i < pageCount; i++ {
		offset := i * pageSize
		page, err := p.fetchPage(ctx, models.PageRequest{Wallet: wallet, Offset: offset, Limit: pageSize})
		if err != nil {
			return nil, err
		}

		if page.Total != first.Total {
			slog.Warn("wallet total changed during fetch",
				"wallet", wallet,
				"offset", offset,
				"firstTotal", first.Total,
				"pageTotal", page.Total,
			)
		}

		transfers = append(transfers, page.Transfers...)
	}

	if len(transfers) != first.Total {
		slog.Debug("transfer count differs from reported total",
			"wallet", wallet,
			"total", first.Total,
			"received", len(transfers),
		)
	}

	return transfers, nil
}

func (p *Paginator) fetchPage(ctx context.Context, req models.PageRequest) (models.Page, error) {
	var page models.Page

	attempts, err := p.policy.Do(ctx, func(ctx context.Context, _ int) error {
		got, err := p.fetcher.FetchPage(ctx, req)
		if err != nil {
			return err
		}
		page = got
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return models.Page{}, ctx.Err()
		}
		if config.IsTransient(err) {
			slog.Error("page fetch exhausted",
				"provider", p.fetcher.Name(),
				"wallet", req.Wallet,
				"offset", req.Offset,
				"attempts", attempts,
				"rateLimited", isRateLimited(err),
				"error", err,
			)
			return models.Page{}, &config.FetchExhaustedError{
				Wallet:   req.Wallet,
				Offset:   req.Offset,
				Attempts: attempts,
				Err:      err,
			}
		}
		return models.Page{}, fmt.Errorf("fetch %s offset %d: %w", req.Wallet, req.Offset, err)
	}

	p.pages.Add(1)
	p.metrics.RecordPage(len(page.Transfers))
	return page, nil
}
