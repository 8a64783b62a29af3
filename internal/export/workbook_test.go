package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jafarshop/orderledger/internal/domain"
)

func TestWriteWorkbook(t *testing.T) {
	l := &domain.Ledger{Version: 4, Rows: []domain.NormalizedRow{
		{Key: "1:0", OrderID: 1, OrderedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), Product: "Vela", State: "SP", Quantity: 3, Status: domain.StatusAwaiting},
		{Key: "2:0", OrderID: 2, Product: "Sabonete", State: "RJ", Quantity: 1, Status: domain.StatusDelivered, TrackingCode: "BR2"},
	}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, l))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetLedger, SheetProducts, SheetStates}, f.GetSheetList())

	rows, err := f.GetRows(SheetLedger)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, domain.LedgerColumns, rows[0])
	assert.Equal(t, "2024-06-01 10:00:00", rows[1][0])
	assert.Equal(t, "BR2", rows[2][7])

	products, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vela", "3", "75"}, products[1])
}
