package repository

import (
	"context"

	"github.com/jafarshop/orderledger/internal/domain"
)

// LedgerRepository stores the single versioned status ledger
type LedgerRepository interface {
	// Get returns the stored ledger, or an empty ledger at version 0 when none was saved yet
	Get(ctx context.Context) (*domain.Ledger, error)
	// Save stores l only when the stored version equals expectedVersion and returns the
	// ledger at its new version. A stale expectedVersion yields *errors.ErrConflict.
	Save(ctx context.Context, l *domain.Ledger, expectedVersion int64) (*domain.Ledger, error)
}

// SyncEventRepository defines sync event data access methods
type SyncEventRepository interface {
	Create(ctx context.Context, event *domain.SyncEvent) error
	List(ctx context.Context, limit int) ([]*domain.SyncEvent, error)
}

// Repositories aggregates all repositories
type Repositories struct {
	Ledger    LedgerRepository
	SyncEvent SyncEventRepository
}
