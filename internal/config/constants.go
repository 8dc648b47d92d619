package config

import "time"

// Tronscan API
const (
	TronscanAPIURL    = "https://apilist.tronscanapi.com/api/filter/trc20/transfers"
	TronscanKeyHeader = "TRON-PRO-API-KEY"
	TronscanSortOrder = "-timestamp"
)

// Pagination
const (
	MaxPageSize = 50 // largest page the API serves
)

// Retry
const (
	MaxRetryAfter = time.Minute
)

// Failure breaker
const (
	CircuitClosed   = "closed"
	CircuitOpen     = "open"
	CircuitHalfOpen = "half_open"

	CircuitBreakerHalfOpenMax = 1
)

// Files
const (
	WalletColumn    = "wallet"
	FilePermissions = 0o644
	DirPermissions  = 0o755
)

// HTTP
const (
	StatusReadTimeout  = 10 * time.Second
	ShutdownTimeout    = 5 * time.Second
	HealthCheckTimeout = 10 * time.Second
	HealthCheckWallet  = "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t" // USDT contract
)

// SSE
const (
	SSEHubChannelBuffer  = 64
	SSEKeepAliveInterval = 15 * time.Second
)

// Logging
const (
	LogFilePrefix  = "tronxfer-"
	LogFilePattern = "tronxfer-%s.log" // %s = YYYY-MM-DD
	LogMaxAgeDays  = 30
)
