package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/breadlens/backend/internal/domain"
)

// Workbook sheet names
const (
	SheetComparison = "Product Comparison"
	SheetDeals      = "All Deals Analysis"
	SheetRaw        = "Raw Data"
)

// WorkbookFileName returns the export file name for a run
func WorkbookFileName(result *domain.AnalysisResult) string {
	return fmt.Sprintf("price_comparison_analysis_%s.xlsx", result.CreatedAt.Format("20060102_150405"))
}

// WriteWorkbook renders the comparison table, the deals table and the
// normalized records into a three-sheet xlsx workbook
func WriteWorkbook(w io.Writer, result *domain.AnalysisResult) error {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	if err := xl.SetSheetName(xl.GetSheetName(0), SheetComparison); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{SheetDeals, SheetRaw} {
		if _, err := xl.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %q: %w", name, err)
		}
	}

	if err := writeRows(xl, SheetComparison, comparisonRows(result)); err != nil {
		return err
	}
	if err := writeRows(xl, SheetDeals, dealRows(result.Deals)); err != nil {
		return err
	}
	if err := writeRows(xl, SheetRaw, rawRows(result.Normalized)); err != nil {
		return err
	}

	if _, err := xl.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the workbook into dir and returns its path
func SaveWorkbook(dir string, result *domain.AnalysisResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, WorkbookFileName(result))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create workbook: %w", err)
	}
	if err := WriteWorkbook(f, result); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close workbook: %w", err)
	}
	return path, nil
}

func writeRows(xl *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func comparisonRows(result *domain.AnalysisResult) [][]any {
	header := []any{"product_group", "product_name", "brand", "is_comparable", "platforms_available", "price_spread_percent"}
	for _, p := range result.Platforms {
		header = append(header, string(p)+"_price", string(p)+"_per_100g", string(p)+"_is_best")
	}

	rows := [][]any{header}
	for _, r := range result.Comparison {
		row := []any{r.GroupID, r.ProductName, r.Brand, r.IsComparable, r.PlatformsAvailable, round(r.PriceSpreadPercent)}
		for _, p := range result.Platforms {
			slot := r.Slots[p]
			row = append(row, optional(slot.Price), optional(slot.PricePer100g), slot.IsBest)
		}
		rows = append(rows, row)
	}
	return rows
}

func dealRows(deals []domain.DealRecord) [][]any {
	rows := [][]any{{
		"product_group", "name", "brand", "weight", "price", "price_per_100g", "platform",
		"is_best_deal", "price_difference", "price_difference_percent", "savings_opportunity",
	}}
	for _, d := range deals {
		rows = append(rows, []any{
			d.GroupID, d.Name, d.Brand, d.WeightGrams, d.Price, d.PricePer100g, string(d.Platform),
			d.IsBestDeal, round(d.PriceDifference), round(d.PriceDifferencePercent), round(d.SavingsOpportunity),
		})
	}
	return rows
}

func rawRows(records []domain.NormalizedRecord) [][]any {
	rows := [][]any{{
		"name", "brand", "brand_standardized", "weight_text", "price_text", "platform",
		"weight", "price", "price_per_100g", "product_key",
	}}
	for _, r := range records {
		rows = append(rows, []any{
			r.Name, r.Brand, r.BrandStandardized, r.WeightText, r.PriceText, string(r.Platform),
			r.WeightGrams, r.Price, r.PricePer100g, r.ProductKey,
		})
	}
	return rows
}

// optional leaves the cell empty for a platform that does not carry the product
func optional(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
