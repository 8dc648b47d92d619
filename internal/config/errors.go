package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for internal use.
var (
	ErrInvalidConfig = errors.New("invalid config")

	// Explorer
	ErrTransport         = errors.New("transport error")
	ErrAnomalousResponse = errors.New("anomalous response")
	ErrProviderRateLimit = errors.New("provider rate limit exceeded")
	ErrFetchExhausted    = errors.New("fetch retries exhausted")

	// Wallets
	ErrWalletColumnMissing = errors.New("wallet column missing")
	ErrInvalidWallet       = errors.New("invalid wallet address")
	ErrInvalidWalletID     = errors.New("invalid wallet id")

	// Sink
	ErrSinkWrite = errors.New("sink write failed")
)

// TransientError wraps an error that should be retried.
type TransientError struct {
	Err        error
	RetryAfter time.Duration // 0 = use default backoff
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// NewTransientError wraps an error as transient (retriable).
func NewTransientError(err error) error {
	return &TransientError{Err: err}
}

// NewTransientErrorWithRetry wraps with explicit retry delay.
func NewTransientErrorWithRetry(err error, retryAfter time.Duration) error {
	return &TransientError{Err: err, RetryAfter: retryAfter}
}

// IsTransient returns true if the error is transient (retriable).
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GetRetryAfter returns the retry delay if set, or 0.
func GetRetryAfter(err error) time.Duration {
	var te *TransientError
	if errors.As(err, &te) {
		return te.RetryAfter
	}
	return 0
}

// FetchExhaustedError reports a page that failed on every attempt.
// It is terminal for the wallet being fetched.
type FetchExhaustedError struct {
	Wallet   string
	Offset   int
	Attempts int
	Err      error // last attempt's error
}

func (e *FetchExhaustedError) Error() string {
	return fmt.Sprintf("wallet %s offset %d: %d attempts failed: %v", e.Wallet, e.Offset, e.Attempts, e.Err)
}

func (e *FetchExhaustedError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrFetchExhausted) match without losing the cause chain.
func (e *FetchExhaustedError) Is(target error) bool { return target == ErrFetchExhausted }

// Error codes shared with the status API.
const (
	ErrorInvalidConfig     = "ERROR_INVALID_CONFIG"
	ErrorFetchExhausted    = "ERROR_FETCH_EXHAUSTED"
	ErrorSinkWrite         = "ERROR_SINK_WRITE"
	ErrorWalletSource      = "ERROR_WALLET_SOURCE"
	ErrorRunInterrupted    = "ERROR_RUN_INTERRUPTED"
	ErrorStatusUnavailable = "ERROR_STATUS_UNAVAILABLE"
)
