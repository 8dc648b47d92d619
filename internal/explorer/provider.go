package explorer

import (
	"context"

	"github.com/Fantasim/tronxfer/internal/models"
)

// PageFetcher retrieves one page of a wallet's transfer history.
type PageFetcher interface {
	// Name returns the explorer's display name (e.g. "Tronscan").
	Name() string

	// FetchPage performs a single request. Failures worth retrying are
	// returned as *config.TransientError; context errors are returned as-is.
	FetchPage(ctx context.Context, req models.PageRequest) (models.Page, error)
}
