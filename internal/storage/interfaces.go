package storage

import (
	"context"
	"errors"
	"io"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
)

// ErrReportNotFound is returned when no cached report exists for a wallet.
var ErrReportNotFound = errors.New("report not found")

// ReportCache defines the interface for short-lived report caching
type ReportCache interface {
	// SaveReport caches a wallet's portfolio report
	SaveReport(ctx context.Context, report *models.PortfolioPnLResult) error

	// GetReport retrieves a cached report, or ErrReportNotFound
	GetReport(ctx context.Context, wallet string) (*models.PortfolioPnLResult, error)

	// RecentWallets lists the most recently analyzed wallets
	RecentWallets(ctx context.Context, limit int64) ([]string, error)

	// Ping checks if the cache is reachable
	Ping(ctx context.Context) error
}

// ReportStore defines the interface for persistent report storage
type ReportStore interface {
	// InsertReport persists a portfolio report and its per-token rows
	InsertReport(ctx context.Context, report *models.PortfolioPnLResult) error

	// Ping checks if the store is reachable
	Ping(ctx context.Context) error

	// Close closes the store connection
	io.Closer
}
