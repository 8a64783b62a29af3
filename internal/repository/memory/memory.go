// Package memory holds in-process repositories for single-instance deployments and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/pkg/errors"
)

// MaxEvents bounds the events kept in memory; older ones are discarded
const MaxEvents = 500

type ledgerRepository struct {
	mu     sync.RWMutex
	ledger *domain.Ledger
}

// NewLedgerRepository creates an empty in-memory ledger at version 0
func NewLedgerRepository() *ledgerRepository {
	return &ledgerRepository{ledger: &domain.Ledger{Rows: []domain.NormalizedRow{}}}
}

func (r *ledgerRepository) Get(_ context.Context) (*domain.Ledger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ledger.Clone(), nil
}

func (r *ledgerRepository) Save(_ context.Context, l *domain.Ledger, expectedVersion int64) (*domain.Ledger, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ledger.Version != expectedVersion {
		return nil, &errors.ErrConflict{ExpectedVersion: expectedVersion, CurrentVersion: r.ledger.Version}
	}
	saved := l.Clone()
	saved.Version = expectedVersion + 1
	saved.UpdatedAt = time.Now().UTC()
	r.ledger = saved
	return saved.Clone(), nil
}

type syncEventRepository struct {
	mu     sync.RWMutex
	events []*domain.SyncEvent
}

// NewSyncEventRepository creates an in-memory event log
func NewSyncEventRepository() *syncEventRepository {
	return &syncEventRepository{}
}

func (r *syncEventRepository) Create(_ context.Context, event *domain.SyncEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events = append(r.events, &cp)
	if len(r.events) > MaxEvents {
		r.events = r.events[len(r.events)-MaxEvents:]
	}
	return nil
}

// List returns the newest events first
func (r *syncEventRepository) List(_ context.Context, limit int) ([]*domain.SyncEvent, error) {
	r.mu.RLock()
	out := make([]*domain.SyncEvent, len(r.events))
	copy(out, r.events)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// NewRepositories creates a new set of in-memory repositories
func NewRepositories() *repository.Repositories {
	return &repository.Repositories{
		Ledger:    NewLedgerRepository(),
		SyncEvent: NewSyncEventRepository(),
	}
}
