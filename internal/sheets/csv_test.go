package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/orderledger/internal/cache"
	"github.com/jafarshop/orderledger/internal/domain"
)

const shipmentsCSV = `"Pedido","Envio","Entrega","Estado","Cidade","Rastreio"
"#1001","2024-06-01","2024-06-04","sp","são paulo","BR1"
"#1002","2024-06-02","","rj","niterói","BR2"
"#1003","nan","","mg","bh",""
`

func TestCSVReaderReadsShipments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/spreadsheets/d/sheet-id/gviz/tq", r.URL.Path)
		assert.Equal(t, "out:csv", r.URL.Query().Get("tqx"))
		assert.Equal(t, "Pedidos", r.URL.Query().Get("sheet"))
		_, _ = w.Write([]byte(shipmentsCSV))
	}))
	defer srv.Close()

	table, err := NewCSVReader(srv.URL, "sheet-id", nil, nil).ReadTab(context.Background(), "Pedidos")
	require.NoError(t, err)

	shipments := Shipments(table)
	require.Len(t, shipments, 3)
	assert.Equal(t, "SP", shipments[0].State)
	assert.Equal(t, "São Paulo", shipments[0].City)
	require.NotNil(t, shipments[0].DaysToDeliver)
	assert.Equal(t, 3, *shipments[0].DaysToDeliver)
	assert.Equal(t, domain.ShipmentDelivered, shipments[0].Status)
	assert.Equal(t, domain.TrackingLinkBase+"BR1", shipments[0].TrackingLink)
	assert.Equal(t, domain.ShipmentPending, shipments[1].Status)
	assert.Nil(t, shipments[2].ShippedAt)
}

func TestCSVReaderFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	table, err := NewCSVReader(srv.URL, "sheet-id", nil, nil).ReadTab(context.Background(), "Estoque")
	require.Error(t, err)
	assert.Nil(t, table)
}

type memoryCache struct {
	data map[string]*Table
}

func (m *memoryCache) Get(_ context.Context, key string, value interface{}) error {
	t, ok := m.data[key]
	if !ok {
		return cache.ErrMiss
	}
	*value.(*Table) = *t
	return nil
}

func (m *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	m.data[key] = value.(*Table)
	return nil
}

func (m *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestCSVReaderUsesCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte("Produto,Quantidade,Estoque Mínimo,Ja Gasto\nVela,100,10,55\n"))
	}))
	defer srv.Close()

	mc := &memoryCache{data: map[string]*Table{}}
	r := NewCSVReader(srv.URL, "sheet-id", mc, nil)

	for i := 0; i < 2; i++ {
		table, err := r.ReadTab(context.Background(), "Estoque")
		require.NoError(t, err)
		assert.Len(t, table.Rows, 1)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	require.NoError(t, r.Invalidate(context.Background(), "Estoque"))
	_, err := r.ReadTab(context.Background(), "Estoque")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestStockItemsCoercesNumbers(t *testing.T) {
	table, err := ParseCSV(strings.NewReader("Produto,Quantidade,Estoque Mínimo,Ja Gasto\n Vela ,\"1,5\",abc,\n,3,3,3\n"))
	require.NoError(t, err)

	items := StockItems(table)
	require.Len(t, items, 1)
	assert.Equal(t, domain.StockItem{Product: "Vela", Quantity: 1.5, MinStock: 0, Spent: 0}, items[0])
}

func TestTabURLEscapesTab(t *testing.T) {
	r := NewCSVReader("", "abc", nil, nil)
	assert.Equal(t, "https://docs.google.com/spreadsheets/d/abc/gviz/tq?tqx=out:csv&sheet=Pedidos+Shopify", r.TabURL("Pedidos Shopify"))
}
