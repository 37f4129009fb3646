// Package report renders the stock, recipe and procurement state as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/annalza/mint-stock-flow/internal/domain"
)

// Sheet names of the workbook, in order.
const (
	ItemsSheet        = "Items"
	RecipesSheet      = "Recipes"
	ProcurementsSheet = "Procurements"
)

// Data is the state captured by one report.
type Data struct {
	GeneratedAt  time.Time
	Items        []domain.ItemView
	Recipes      []domain.RecipeView
	Procurements []domain.ProcurementView
}

type sheet struct {
	name    string
	headers []any
	rows    [][]any
}

// Write renders the workbook to w.
func Write(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemsSheet); err != nil {
		return err
	}
	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, s := range []sheet{itemsSheet(d.Items), recipesSheet(d.Recipes), procurementsSheet(d.Procurements)} {
		if i > 0 {
			if _, err := f.NewSheet(s.name); err != nil {
				return err
			}
		}
		if err := writeSheet(f, s, header); err != nil {
			return fmt.Errorf("sheet %s: %w", s.name, err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Stock report",
		Created: d.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return err
	}
	return f.Write(w)
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.headers); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	last, err := excelize.ColumnNumberToName(len(s.headers))
	if err != nil {
		return err
	}
	return f.SetColWidth(s.name, "A", last, 18)
}

func itemsSheet(items []domain.ItemView) sheet {
	s := sheet{
		name:    ItemsSheet,
		headers: []any{"ID", "Code", "Name", "Qty", "Reorder Level", "Status", "Expiry (days)", "Location"},
	}
	for _, it := range items {
		var expiry any = ""
		if it.ExpiryDays != nil {
			expiry = *it.ExpiryDays
		}
		s.rows = append(s.rows, []any{it.ID, it.Code, it.Name, it.Qty, it.ReorderLevel, string(it.Status), expiry, it.Location})
	}
	return s
}

func recipesSheet(recipes []domain.RecipeView) sheet {
	s := sheet{
		name:    RecipesSheet,
		headers: []any{"ID", "Name", "Price", "Ingredients", "Can Make"},
	}
	for _, r := range recipes {
		ingredients := ""
		for i, ing := range r.Ingredients {
			if i > 0 {
				ingredients += ", "
			}
			ingredients += fmt.Sprintf("%s %d / %d", ing.Name, ing.QtyRequired, ing.AvailableQty)
		}
		price, _ := r.Price.Float64()
		s.rows = append(s.rows, []any{r.ID, r.Name, price, ingredients, r.CanMake})
	}
	return s
}

func procurementsSheet(requests []domain.ProcurementView) sheet {
	s := sheet{
		name:    ProcurementsSheet,
		headers: []any{"ID", "Item Code", "Item", "Qty", "Status", "Created", "Requested By", "Decided By", "Decided At"},
	}
	for _, p := range requests {
		by, at := "", ""
		if p.ApprovedBy != nil {
			by = *p.ApprovedBy
		}
		if p.ApprovedAt != nil {
			at = p.ApprovedAt.Format(time.DateOnly)
		}
		s.rows = append(s.rows, []any{
			p.ID, p.ItemCode, p.ItemName, p.QtyRequested, string(p.Status),
			p.CreatedAt.Format(time.DateOnly), p.RequestedBy, by, at,
		})
	}
	return s
}
