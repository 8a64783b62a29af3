// Package export renders the ledger and its summaries as an Excel workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/report"
)

// Sheet names of the exported workbook
const (
	SheetLedger   = "Pedidos Shopify"
	SheetProducts = "Produtos"
	SheetStates   = "Estados"
)

// Workbook builds the export: the ledger rows, then quantity per product and per state
func Workbook(l *domain.Ledger) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetLedger); err != nil {
		return nil, err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	if err := writeSheet(f, SheetLedger, header, toCells(l.Records())); err != nil {
		return nil, err
	}

	products := [][]interface{}{{"produto", "itens", "%"}}
	for _, g := range report.SumByProduct(l.Rows) {
		products = append(products, []interface{}{g.Product, g.Quantity, report.Round2(g.Share)})
	}
	if _, err := f.NewSheet(SheetProducts); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetProducts, header, products); err != nil {
		return nil, err
	}

	states := [][]interface{}{{"estado", "itens", "%"}}
	for _, g := range report.SumByState(l.Rows) {
		states = append(states, []interface{}{g.State, g.Quantity, report.Round2(g.Share)})
	}
	if _, err := f.NewSheet(SheetStates); err != nil {
		return nil, err
	}
	if err := writeSheet(f, SheetStates, header, states); err != nil {
		return nil, err
	}

	return f, nil
}

// Write renders the workbook of l to w
func Write(w io.Writer, l *domain.Ledger) error {
	f, err := Workbook(l)
	if err != nil {
		return fmt.Errorf("failed to build workbook: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headerStyle int, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func toCells(records [][]string) [][]interface{} {
	out := make([][]interface{}, len(records))
	for i, rec := range records {
		out[i] = make([]interface{}, len(rec))
		for j, v := range rec {
			out[i][j] = v
		}
	}
	return out
}
