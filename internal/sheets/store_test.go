package sheets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jafarshop/orderledger/pkg/errors"
)

type fakeClient struct {
	tabs    map[string][][]string
	titles  []string
	cleared []string
	updates []RangeValues
	batches []RangeValues
	added   []string
	failGet error
}

func newFakeClient() *fakeClient {
	return &fakeClient{tabs: map[string][][]string{}}
}

func (f *fakeClient) Get(_ context.Context, _ string, rng string) ([][]string, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	if v, ok := f.tabs[rng]; ok {
		return v, nil
	}
	return nil, nil
}

func (f *fakeClient) Clear(_ context.Context, _ string, rng string) error {
	f.cleared = append(f.cleared, rng)
	delete(f.tabs, rng)
	return nil
}

func (f *fakeClient) Update(_ context.Context, _ string, rng string, values [][]string) error {
	f.updates = append(f.updates, RangeValues{Range: rng, Values: values})
	return nil
}

func (f *fakeClient) BatchUpdate(_ context.Context, _ string, data []RangeValues) error {
	f.batches = append(f.batches, data...)
	return nil
}

func (f *fakeClient) AddSheet(_ context.Context, _ string, title string, rows, cols int64) error {
	f.added = append(f.added, fmt.Sprintf("%s %dx%d", title, rows, cols))
	return nil
}

func (f *fakeClient) SheetTitles(context.Context, string) ([]string, error) {
	return f.titles, nil
}

func TestOverwriteClearsThenWritesFromA1(t *testing.T) {
	fc := newFakeClient()
	s := NewStore(fc, "sheet-id", nil)

	table := &Table{Header: []string{"chave", "Status"}, Rows: [][]string{{"1:0", "Aguardando"}}}
	require.NoError(t, s.Overwrite(context.Background(), "Pedidos Shopify", table))

	assert.Equal(t, []string{"'Pedidos Shopify'"}, fc.cleared)
	require.Len(t, fc.updates, 1)
	assert.Equal(t, "'Pedidos Shopify'!A1", fc.updates[0].Range)
	assert.Equal(t, [][]string{{"chave", "Status"}, {"1:0", "Aguardando"}}, fc.updates[0].Values)
}

func TestUpsertKeepsRemoteOnlyRows(t *testing.T) {
	fc := newFakeClient()
	fc.tabs["'Ledger'"] = [][]string{
		{"Status", "chave", "nota"},
		{"Entregue", "1:0", "x"},
		{"Cancelado", "9:0", "manual"},
	}
	s := NewStore(fc, "sheet-id", nil)

	table := &Table{
		Header: []string{"chave", "Status"},
		Rows:   [][]string{{"2:0", "Aguardando"}, {"1:0", "Em transporte"}},
	}
	res, err := s.Upsert(context.Background(), "Ledger", table, "chave")
	require.NoError(t, err)

	assert.Equal(t, UpsertResult{Replaced: 1, Appended: 1, Retained: 1}, res)
	assert.Empty(t, fc.cleared)
	require.Len(t, fc.updates, 1)
	assert.Equal(t, [][]string{
		{"chave", "Status"},
		{"1:0", "Em transporte"},
		{"9:0", "Cancelado"},
		{"2:0", "Aguardando"},
	}, fc.updates[0].Values)
}

func TestUpsertOverwritesTabWithoutKeyColumn(t *testing.T) {
	fc := newFakeClient()
	s := NewStore(fc, "sheet-id", nil)

	table := &Table{Header: []string{"chave"}, Rows: [][]string{{"1:0"}}}
	res, err := s.Upsert(context.Background(), "Ledger", table, "chave")
	require.NoError(t, err)

	assert.Equal(t, 1, res.Appended)
	assert.Equal(t, []string{"'Ledger'"}, fc.cleared)
}

func TestUpsertRejectsTableWithoutKey(t *testing.T) {
	s := NewStore(newFakeClient(), "sheet-id", nil)
	_, err := s.Upsert(context.Background(), "Ledger", &Table{Header: []string{"a"}}, "chave")
	assert.True(t, errors.IsValidation(err))
}

func TestPatchColumn(t *testing.T) {
	fc := newFakeClient()
	fc.tabs["'Pedidos'!1:1"] = [][]string{{"ref", "envio", "entrega", "estado", "cidade", "rastreio", "Status"}}
	s := NewStore(fc, "sheet-id", nil)

	require.NoError(t, s.PatchColumn(context.Background(), "Pedidos", "Status", []string{"Entregue", "Não entregue"}))

	require.Len(t, fc.batches, 1)
	assert.Equal(t, "'Pedidos'!G2:G3", fc.batches[0].Range)
	assert.Equal(t, [][]string{{"Entregue"}, {"Não entregue"}}, fc.batches[0].Values)

	err := s.PatchColumn(context.Background(), "Pedidos", "Situacao", []string{"x"})
	assert.True(t, errors.IsNotFound(err))
}

func TestEnsureTab(t *testing.T) {
	fc := newFakeClient()
	fc.titles = []string{"Pedidos"}
	s := NewStore(fc, "sheet-id", nil)

	require.NoError(t, s.EnsureTab(context.Background(), "Pedidos"))
	assert.Empty(t, fc.added)

	require.NoError(t, s.EnsureTab(context.Background(), "Pedidos Shopify"))
	assert.Equal(t, []string{"Pedidos Shopify 1000x20"}, fc.added)
}

func TestReadTabPadsAndDropsTrailingBlankRows(t *testing.T) {
	fc := newFakeClient()
	fc.tabs["'Estoque'"] = [][]string{
		{"Produto", "Quantidade", "Estoque Mínimo", "Ja Gasto"},
		{"Vela", "40"},
		{"", ""},
		{"Caixa", "10", "5", "1"},
		{"", ""},
	}
	table, err := NewStore(fc, "id", nil).ReadTab(context.Background(), "Estoque")
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{"Vela", "40", "", ""}, table.Rows[0])
	assert.Equal(t, []string{"", "", "", ""}, table.Rows[1])
}

func TestColumnLetter(t *testing.T) {
	assert.Equal(t, "A", ColumnLetter(0))
	assert.Equal(t, "Z", ColumnLetter(25))
	assert.Equal(t, "AA", ColumnLetter(26))
	assert.Equal(t, "AZ", ColumnLetter(51))
	assert.Equal(t, "BA", ColumnLetter(52))
}
