package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/ledger"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/pkg/errors"
)

func newSync(source OrderSource, sink SheetSink, repos *repository.Repositories) *SyncService {
	var writer *LedgerWriter
	if sink != nil {
		writer = NewLedgerWriter(sink, "Pedidos Shopify", config.WriteModeUpsert, zap.NewNop())
	}
	return NewSyncService(source, repos, writer, SyncOptions{}, zap.NewNop())
}

func TestSyncRunsPipeline(t *testing.T) {
	repos := newRepos()
	sink := &fakeSink{}
	source := &fakeSource{orders: []domain.Order{
		paidOrder(1, "2024-06-01T10:00:00Z",
			domain.LineItem{Title: "Sabonete", VariantTitle: strPtr("Lavanda"), Quantity: 2},
			domain.LineItem{Title: "Sabonete", Quantity: 5}),
		{ID: 2, FinancialStatus: domain.PaymentStateRefunded, LineItems: []domain.LineItem{{Title: "Vela", Quantity: 1}}},
	}}

	res, err := newSync(source, sink, repos).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Kept)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, int64(1), res.Version)
	assert.Equal(t, 1, res.Attempts)
	assert.Empty(t, res.Warnings)
	require.NotNil(t, res.Sink)
	assert.Equal(t, config.WriteModeUpsert, res.Sink.Mode)

	require.Len(t, sink.upserts, 1)
	assert.Equal(t, domain.LedgerColumns, sink.upserts[0].Header)
	assert.Len(t, sink.upserts[0].Rows, 2)

	events, err := repos.SyncEvent.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventSyncCompleted, events[0].Kind)
}

func TestSyncEmptyResultWritesNothing(t *testing.T) {
	repos := newRepos()
	sink := &fakeSink{}
	source := &fakeSource{orders: []domain.Order{
		{ID: 1, FinancialStatus: domain.PaymentStatePending, LineItems: []domain.LineItem{{Title: "Vela", Quantity: 1}}},
	}}

	res, err := newSync(source, sink, repos).Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Empty)
	assert.Equal(t, EmptyResultMessage, res.Message)
	assert.Empty(t, sink.upserts)

	l, _ := repos.Ledger.Get(context.Background())
	assert.Equal(t, int64(0), l.Version)
}

func TestSyncPartialFetchKeepsMissingRows(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	_, err := repos.Ledger.Save(ctx, &domain.Ledger{Rows: []domain.NormalizedRow{{Key: "99:0", OrderID: 99, TrackingCode: "BR99"}}}, 0)
	require.NoError(t, err)

	source := &fakeSource{
		orders: []domain.Order{paidOrder(1, "2024-06-01T10:00:00Z", domain.LineItem{Title: "Vela", Quantity: 1})},
		err:    &errors.ErrUpstream{Service: "shopify", StatusCode: 500},
	}

	res, err := newSync(source, nil, repos).Run(ctx)
	require.NoError(t, err)

	assert.True(t, res.Partial)
	assert.Len(t, res.Warnings, 1)
	assert.Equal(t, 1, res.Merge.Kept)

	l, _ := repos.Ledger.Get(ctx)
	assert.Equal(t, int64(2), l.Version)
	require.Len(t, l.Rows, 2)
	assert.Equal(t, "BR99", l.Rows[l.Index()["99:0"]].TrackingCode)
}

func TestSyncFetchFailureWithNoOrders(t *testing.T) {
	repos := newRepos()
	source := &fakeSource{err: fmt.Errorf("connection refused")}

	res, err := newSync(source, nil, repos).Run(context.Background())
	require.Error(t, err)
	assert.Nil(t, res)

	events, _ := repos.SyncEvent.List(context.Background(), 10)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventSyncFailed, events[0].Kind)
}

func TestSyncMergesAgainOnConflict(t *testing.T) {
	repos := newRepos()
	repos.Ledger = &conflictingLedger{LedgerRepository: repos.Ledger, remaining: 1}
	source := &fakeSource{orders: []domain.Order{paidOrder(1, "2024-06-01T10:00:00Z", domain.LineItem{Title: "Vela", Quantity: 1})}}

	res, err := newSync(source, nil, repos).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int64(2), res.Version)
}

func TestSyncGivesUpAfterRepeatedConflicts(t *testing.T) {
	repos := newRepos()
	repos.Ledger = &conflictingLedger{LedgerRepository: repos.Ledger, remaining: MaxSaveAttempts}
	source := &fakeSource{orders: []domain.Order{paidOrder(1, "2024-06-01T10:00:00Z", domain.LineItem{Title: "Vela", Quantity: 1})}}

	_, err := newSync(source, nil, repos).Run(context.Background())
	assert.True(t, errors.IsConflict(err))
}

func TestSyncSinkFailureIsWarning(t *testing.T) {
	repos := newRepos()
	sink := &fakeSink{err: fmt.Errorf("quota exceeded")}
	source := &fakeSource{orders: []domain.Order{paidOrder(1, "2024-06-01T10:00:00Z", domain.LineItem{Title: "Vela", Quantity: 1})}}

	res, err := newSync(source, sink, repos).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Version)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "quota exceeded")
	assert.Nil(t, res.Sink)
}

func TestSyncKeepsEditsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	repos := newRepos()
	source := &fakeSource{orders: []domain.Order{paidOrder(1, "2024-06-01T10:00:00Z", domain.LineItem{Title: "Vela", Quantity: 1})}}
	svc := newSync(source, nil, repos)

	_, err := svc.Run(ctx)
	require.NoError(t, err)

	ledgerSvc := NewLedgerService(repos, nil, nil, false, zap.NewNop())
	_, err = ledgerSvc.ApplyEdits(ctx, EditRequest{Version: 1, Edits: []ledger.Edit{{Key: "1:0", TrackingCode: strPtr("BR1"), Status: strPtr(domain.StatusInTransit)}}})
	require.NoError(t, err)

	// a newer order shifts positions on the next run
	source.orders = append([]domain.Order{paidOrder(2, time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC).Format(time.RFC3339), domain.LineItem{Title: "Vela", Quantity: 3})}, source.orders...)
	res, err := svc.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Version)

	l, _ := repos.Ledger.Get(ctx)
	assert.Equal(t, domain.RowKey("2:0"), l.Rows[0].Key)
	row := l.Rows[l.Index()["1:0"]]
	assert.Equal(t, "BR1", row.TrackingCode)
	assert.Equal(t, domain.StatusInTransit, row.Status)
}
