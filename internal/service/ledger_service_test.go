package service

import (
	"context"
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

func seedLedger(t *testing.T, repos *repository.Repositories, rows ...domain.NormalizedRow) {
	t.Helper()
	_, err := repos.Ledger.Save(context.Background(), &domain.Ledger{Rows: rows}, 0)
	require.NoError(t, err)
}

func ledgerRow(orderID int64, line int, tracking string) domain.NormalizedRow {
	return domain.NormalizedRow{
		Key:          domain.NewRowKey(orderID, line),
		OrderID:      orderID,
		LineIndex:    line,
		OrderedAt:    time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Status:       domain.StatusAwaiting,
		Product:      "Vela",
		State:        "SP",
		Quantity:     1,
		TrackingCode: tracking,
	}
}

func TestLedgerGetFilters(t *testing.T) {
	repos := newRepos()
	other := ledgerRow(2, 0, "")
	other.State = "RJ"
	seedLedger(t, repos, ledgerRow(1, 0, ""), other)

	view, err := NewLedgerService(repos, nil, nil, false, zap.NewNop()).Get(context.Background(), domain.RowFilter{State: "rj"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.Version)
	assert.Equal(t, 2, view.Total)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, int64(2), view.Rows[0].OrderID)
}

func TestApplyEditsStaleVersionConflicts(t *testing.T) {
	repos := newRepos()
	seedLedger(t, repos, ledgerRow(1, 0, ""))
	svc := NewLedgerService(repos, nil, nil, false, zap.NewNop())

	_, err := svc.ApplyEdits(context.Background(), EditRequest{Version: 0, Edits: []ledger.Edit{{Key: "1:0", Situation: strPtr(domain.SituationSent)}}})
	require.True(t, errors.IsConflict(err))

	l, _ := repos.Ledger.Get(context.Background())
	assert.Equal(t, "", l.Rows[0].Situation)
}

func TestApplyEditsSavesAndFlushes(t *testing.T) {
	repos := newRepos()
	seedLedger(t, repos, ledgerRow(1, 0, ""))
	sink := &fakeSink{}
	writer := NewLedgerWriter(sink, "Pedidos Shopify", config.WriteModeOverwrite, zap.NewNop())
	svc := NewLedgerService(repos, writer, nil, false, zap.NewNop())

	res, err := svc.ApplyEdits(context.Background(), EditRequest{Version: 1, Edits: []ledger.Edit{{Key: "1:0", TrackingCode: strPtr("BR1")}}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Version)
	require.NotNil(t, res.Sink)
	require.Len(t, sink.overwrites, 1)
	assert.Equal(t, "BR1", sink.overwrites[0].Rows[0][7])

	_, err = svc.ApplyEdits(context.Background(), EditRequest{Version: 2, Edits: []ledger.Edit{{Key: "7:0", TrackingCode: strPtr("x")}}})
	assert.True(t, errors.IsNotFound(err))
}

func TestFlushWithoutSpreadsheet(t *testing.T) {
	_, err := NewLedgerService(newRepos(), nil, nil, false, zap.NewNop()).Flush(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPushTrackingContinuesAfterFailedRow(t *testing.T) {
	repos := newRepos()
	seedLedger(t, repos,
		ledgerRow(1, 0, "BR1"),
		ledgerRow(1, 1, "BR1"),
		ledgerRow(2, 0, "BR2"),
		ledgerRow(3, 0, "BR3"),
		ledgerRow(4, 0, ""),
	)
	pusher := &fakePusher{fail: map[int64]bool{2: true}}
	svc := NewLedgerService(repos, nil, pusher, true, zap.NewNop())

	rep, err := svc.PushTracking(context.Background(), TrackingRequest{})
	require.NoError(t, err)

	assert.Equal(t, []string{"1:BR1", "2:BR2", "3:BR3"}, pusher.pushed)
	assert.Equal(t, 2, rep.Pushed)
	assert.Equal(t, 1, rep.Failed)
	assert.Equal(t, 1, rep.Skipped)
	require.Len(t, rep.Results, 3)
	assert.False(t, rep.Results[1].OK)
	assert.Contains(t, rep.Results[1].Error, "already fulfilled")
	assert.Len(t, rep.Warnings, 1)
}

func TestPushTrackingSelectedKeys(t *testing.T) {
	repos := newRepos()
	seedLedger(t, repos, ledgerRow(1, 0, "BR1"), ledgerRow(2, 0, "BR2"))
	pusher := &fakePusher{}
	svc := NewLedgerService(repos, nil, pusher, false, zap.NewNop())

	_, err := svc.PushTracking(context.Background(), TrackingRequest{Keys: []domain.RowKey{"2:0"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2:BR2"}, pusher.pushed)

	_, err = svc.PushTracking(context.Background(), TrackingRequest{Keys: []domain.RowKey{"5:0"}})
	assert.True(t, errors.IsNotFound(err))
}

func TestApplyFulfillmentFromWebhook(t *testing.T) {
	repos := newRepos()
	seedLedger(t, repos, ledgerRow(1, 0, ""), ledgerRow(2, 0, ""))
	svc := NewLedgerService(repos, nil, nil, false, zap.NewNop())

	n, err := svc.ApplyFulfillment(context.Background(), 1, "BR1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.ApplyFulfillment(context.Background(), 42, "BR42")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	l, _ := repos.Ledger.Get(context.Background())
	assert.Equal(t, int64(2), l.Version)
	assert.Equal(t, "BR1", l.Rows[l.Index()["1:0"]].TrackingCode)
	assert.Equal(t, domain.StatusFulfilled, l.Rows[l.Index()["1:0"]].Status)
}
