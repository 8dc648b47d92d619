package explorer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Fantasim/tronxfer/internal/config"
	"github.com/Fantasim/tronxfer/internal/metrics"
	"github.com/Fantasim/tronxfer/internal/models"
)

// errorBodyPreview bounds how much of a failed response is logged.
const errorBodyPreview = 256

// TronscanProvider fetches TRC-20 transfer pages from the Tronscan API.
type TronscanProvider struct {
	client   *http.Client
	throttle *Throttle
	clock    Clock
	apiURL   string
	apiKey   string
	metrics  *metrics.Metrics
}

// NewTronscanProvider creates a provider for the Tronscan transfer endpoint.
// Every request, retries included, waits on throttle first.
func NewTronscanProvider(client *http.Client, throttle *Throttle, apiURL, apiKey string, m *metrics.Metrics) *TronscanProvider {
	if apiURL == "" {
		apiURL = config.TronscanAPIURL
	}

	slog.Info("tronscan provider created",
		"apiURL", apiURL,
		"hasAPIKey", apiKey != "",
	)

	return &TronscanProvider{
		client:   client,
		throttle: throttle,
		clock:    throttle.clock,
		apiURL:   apiURL,
		apiKey:   apiKey,
		metrics:  m,
	}
}

func (p *TronscanProvider) Name() string { return "Tronscan" }

// FetchPage requests one page of transfers related to req.Wallet.
func (p *TronscanProvider) FetchPage(ctx context.Context, req models.PageRequest) (models.Page, error) {
	if err := p.throttle.Wait(ctx); err != nil {
		return models.Page{}, fmt.Errorf("throttle wait: %w", err)
	}

	reqURL, err := p.pageURL(req)
	if err != nil {
		return models.Page{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.Page{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set(config.TronscanKeyHeader, p.apiKey)
	}

	slog.Debug("tronscan page request",
		"wallet", req.Wallet,
		"offset", req.Offset,
		"limit", req.Limit,
	)

	start := time.Now()
	page, outcome, err := p.do(ctx, httpReq)
	p.metrics.RecordAttempt(outcome, time.Since(start))
	if err != nil {
		return models.Page{}, err
	}

	slog.Debug("tronscan page fetched",
		"wallet", req.Wallet,
		"offset", req.Offset,
		"total", page.Total,
		"transfers", len(page.Transfers),
	)

	return page, nil
}

func (p *TronscanProvider) do(ctx context.Context, httpReq *http.Request) (models.Page, string, error) {
	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return models.Page{}, metrics.OutcomeCancelled, ctx.Err()
		}
		return models.Page{}, metrics.OutcomeTransport,
			config.NewTransientError(fmt.Errorf("%w: %v", config.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header, p.clock.Now())
		slog.Warn("tronscan rate limited",
			"retryAfter", retryAfter,
		)
		return models.Page{}, metrics.OutcomeRateLimited, config.NewTransientErrorWithRetry(
			fmt.Errorf("%w: %w: HTTP 429", config.ErrTransport, config.ErrProviderRateLimit),
			retryAfter,
		)
	}

	if resp.StatusCode != http.StatusOK {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyPreview))
		slog.Warn("tronscan non-200 response",
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(preview)),
		)
		return models.Page{}, metrics.OutcomeTransport,
			config.NewTransientError(fmt.Errorf("%w: HTTP %d", config.ErrTransport, resp.StatusCode))
	}

	page, err := decodePage(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return models.Page{}, metrics.OutcomeCancelled, ctx.Err()
		}
		slog.Warn("tronscan anomalous response", "error", err)
		return models.Page{}, metrics.OutcomeAnomalous, config.NewTransientError(err)
	}

	return page, metrics.OutcomeSuccess, nil
}

func (p *TronscanProvider) pageURL(req models.PageRequest) (string, error) {
	u, err := url.Parse(p.apiURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}

	q := u.Query()
	q.Set("limit", strconv.Itoa(req.Limit))
	q.Set("start", strconv.Itoa(req.Offset))
	q.Set("sort", config.TronscanSortOrder)
	q.Set("count", "true")
	q.Set("filterTokenValue", "0")
	q.Set("relatedAddress", req.Wallet)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// decodePage checks the response shape and decodes it. Only presence is
// checked: an object with exactly one key is an error envelope, and both
// "total" and "token_transfers" must be present.
func decodePage(r io.Reader) (models.Page, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var envelope map[string]json.RawMessage
	if err := dec.Decode(&envelope); err != nil {
		return models.Page{}, fmt.Errorf("%w: decode: %v", config.ErrAnomalousResponse, err)
	}
	if envelope == nil {
		return models.Page{}, fmt.Errorf("%w: null body", config.ErrAnomalousResponse)
	}

	if len(envelope) == 1 {
		for key, val := range envelope {
			return models.Page{}, fmt.Errorf("%w: single-key object {%q: %s}",
				config.ErrAnomalousResponse, key, truncate(string(val), errorBodyPreview))
		}
	}

	rawTotal, ok := envelope["total"]
	if !ok {
		return models.Page{}, fmt.Errorf("%w: missing total (keys %s)", config.ErrAnomalousResponse, keyList(envelope))
	}
	rawTransfers, ok := envelope["token_transfers"]
	if !ok {
		return models.Page{}, fmt.Errorf("%w: missing token_transfers (keys %s)", config.ErrAnomalousResponse, keyList(envelope))
	}

	var n json.Number
	if err := json.Unmarshal(rawTotal, &n); err != nil {
		return models.Page{}, fmt.Errorf("%w: total: %v", config.ErrAnomalousResponse, err)
	}
	total, err := n.Int64()
	if err != nil || total < 0 {
		return models.Page{}, fmt.Errorf("%w: total %q is not a count", config.ErrAnomalousResponse, n.String())
	}

	var transfers []models.RawTransfer
	tdec := json.NewDecoder(bytes.NewReader(rawTransfers))
	tdec.UseNumber()
	if err := tdec.Decode(&transfers); err != nil {
		return models.Page{}, fmt.Errorf("%w: token_transfers: %v", config.ErrAnomalousResponse, err)
	}

	return models.Page{Total: int(total), Transfers: transfers}, nil
}

func keyList(m map[string]json.RawMessage) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "[" + strings.Join(keys, ",") + "]"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// isRateLimited reports whether err came from an HTTP 429.
func isRateLimited(err error) bool {
	return errors.Is(err, config.ErrProviderRateLimit)
}
