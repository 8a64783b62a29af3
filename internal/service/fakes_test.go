package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/repository/memory"
	"github.com/jafarshop/orderledger/internal/sheets"
	"github.com/jafarshop/orderledger/internal/shopify"
	"github.com/jafarshop/orderledger/pkg/errors"
)

type fakeSource struct {
	orders []domain.Order
	err    error
	calls  int
}

func (f *fakeSource) ListOrders(context.Context, shopify.OrderQuery) ([]domain.Order, error) {
	f.calls++
	return f.orders, f.err
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []string
	fail   map[int64]bool
}

func (f *fakePusher) CreateFulfillment(_ context.Context, orderID int64, tracking string, _ bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, fmt.Sprintf("%d:%s", orderID, tracking))
	if f.fail[orderID] {
		return &errors.ErrUpstream{Service: "shopify", StatusCode: 422, Body: "already fulfilled"}
	}
	return nil
}

type fakeSink struct {
	upserts    []*sheets.Table
	overwrites []*sheets.Table
	patches    map[string][]string
	err        error
}

func (f *fakeSink) EnsureTab(context.Context, string) error { return f.err }

func (f *fakeSink) Overwrite(_ context.Context, _ string, t *sheets.Table) error {
	if f.err != nil {
		return f.err
	}
	f.overwrites = append(f.overwrites, t)
	return nil
}

func (f *fakeSink) Upsert(_ context.Context, _ string, t *sheets.Table, _ string) (sheets.UpsertResult, error) {
	if f.err != nil {
		return sheets.UpsertResult{}, f.err
	}
	f.upserts = append(f.upserts, t)
	return sheets.UpsertResult{Appended: len(t.Rows)}, nil
}

func (f *fakeSink) PatchColumn(_ context.Context, tab, column string, values []string) error {
	if f.err != nil {
		return f.err
	}
	if f.patches == nil {
		f.patches = map[string][]string{}
	}
	f.patches[tab+"/"+column] = values
	return nil
}

type fakeTabs struct {
	tables map[string]*sheets.Table
	err    error
}

func (f *fakeTabs) ReadTab(_ context.Context, tab string) (*sheets.Table, error) {
	if f.err != nil {
		return nil, f.err
	}
	if t, ok := f.tables[tab]; ok {
		return t, nil
	}
	return nil, &errors.ErrNotFound{Resource: "tab", ID: tab}
}

// cachingTabs serves the first read of a tab from then on, until it is invalidated
type cachingTabs struct {
	source        *fakeTabs
	cached        map[string]*sheets.Table
	invalidations int
	invalidateErr error
}

func (c *cachingTabs) ReadTab(ctx context.Context, tab string) (*sheets.Table, error) {
	if t, ok := c.cached[tab]; ok {
		return t, nil
	}
	t, err := c.source.ReadTab(ctx, tab)
	if err != nil {
		return nil, err
	}
	if c.cached == nil {
		c.cached = map[string]*sheets.Table{}
	}
	c.cached[tab] = t
	return t, nil
}

func (c *cachingTabs) Invalidate(_ context.Context, tabs ...string) error {
	if c.invalidateErr != nil {
		return c.invalidateErr
	}
	c.invalidations++
	for _, tab := range tabs {
		delete(c.cached, tab)
	}
	return nil
}

// readableSink is a sink that also reads tabs, like the API-backed store
type readableSink struct {
	fakeSink
	source *fakeTabs
}

func (r *readableSink) ReadTab(ctx context.Context, tab string) (*sheets.Table, error) {
	return r.source.ReadTab(ctx, tab)
}

// conflictingLedger fails the first n saves with a conflict after moving the version
type conflictingLedger struct {
	repository.LedgerRepository
	remaining int
}

func (c *conflictingLedger) Save(ctx context.Context, l *domain.Ledger, expected int64) (*domain.Ledger, error) {
	if c.remaining > 0 {
		c.remaining--
		// another writer saves first
		cur, _ := c.LedgerRepository.Get(ctx)
		if _, err := c.LedgerRepository.Save(ctx, cur, cur.Version); err != nil {
			return nil, err
		}
	}
	return c.LedgerRepository.Save(ctx, l, expected)
}

func newRepos() *repository.Repositories {
	return memory.NewRepositories()
}

func strPtr(s string) *string { return &s }

func paidOrder(id int64, createdAt string, items ...domain.LineItem) domain.Order {
	return domain.Order{
		ID:              id,
		CreatedAt:       createdAt,
		FinancialStatus: domain.PaymentStatePaid,
		ShippingAddress: &domain.ShippingAddress{Province: strPtr("SP"), City: strPtr("Campinas")},
		LineItems:       items,
	}
}
