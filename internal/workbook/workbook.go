// Package workbook adapts xlsx workbooks to the pipeline: it reads the raw
// manifest sheet and the nutrition reference sheet, and writes the enriched
// and daily-totals sheets, archiving any previous output first.
package workbook

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/foodsec/trucktally/pkg/trucktally/daily"
	"github.com/foodsec/trucktally/pkg/trucktally/internalerr"
	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
)

// Sheet names in the output workbook.
const (
	EnrichedSheet = "trucks_enriched"
	DailySheet    = "daily_totals"
)

// Workbook reads and writes xlsx files for the pipeline.
type Workbook struct {
	log *zap.Logger
}

// New creates a Workbook adapter.
func New(log *zap.Logger) *Workbook {
	if log == nil {
		log = zap.NewNop()
	}
	return &Workbook{log: log}
}

// ReadRawRows loads a sheet into raw rows, treating the first row as
// headers. An empty sheet name selects the workbook's first sheet. Rows
// with no non-empty cells are skipped.
func (w *Workbook) ReadRawRows(path, sheet string) ([]manifest.RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	headers := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		headers[i] = strings.TrimSpace(h)
	}

	var raws []manifest.RawRow
	for n, row := range cells[1:] {
		raw := make(manifest.RawRow, len(headers))
		empty := true
		for i, header := range headers {
			if header == "" {
				continue
			}
			var val string
			if i < len(row) {
				val = row[i]
			}
			raw[header] = val
			if strings.TrimSpace(val) != "" {
				empty = false
			}
		}
		if empty {
			w.log.Debug("skipping empty row", zap.Int("row", n+2), zap.String("sheet", sheet))
			continue
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// Reference header spellings accepted across source variants.
var (
	refKcalHeaders   = []string{"nutval kcal kg", "food_item_kcal", "kcal_per_kg"}
	refPalletHeaders = []string{"pallet_kg", "pallet_weight_kg"}
)

// ReadReference loads the nutrition reference sheet into raw records for
// reference.Load to validate.
func (w *Workbook) ReadReference(path, sheet string) ([]reference.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrReferenceUnavailable, path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: %s has no sheets", internalerr.ErrReferenceUnavailable, path)
		}
		sheet = sheets[0]
	}

	cells, err := f.GetRows(sheet)
	if err != nil || len(cells) == 0 {
		return nil, fmt.Errorf("%w: read sheet %s", internalerr.ErrReferenceUnavailable, sheet)
	}

	nameCol, kcalCol, palletCol := -1, -1, -1
	for i, h := range cells[0] {
		header := strings.ToLower(strings.TrimSpace(h))
		switch {
		case header == "food_item":
			nameCol = i
		case contains(refKcalHeaders, header):
			kcalCol = i
		case contains(refPalletHeaders, header):
			palletCol = i
		}
	}
	if nameCol < 0 || kcalCol < 0 {
		return nil, fmt.Errorf("%w: sheet %s lacks food_item/kcal columns", internalerr.ErrReferenceUnavailable, sheet)
	}

	var records []reference.Record
	for _, row := range cells[1:] {
		rec := reference.Record{
			FoodItem:  cell(row, nameCol),
			KcalPerKg: cell(row, kcalCol),
		}
		if palletCol >= 0 {
			rec.PalletKg = cell(row, palletCol)
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteResults writes the enriched rows and daily totals. An existing file
// at path is archived under archive/ with a timestamp suffix first.
func (w *Workbook) WriteResults(path string, rows []manifest.Row, totals []daily.Totals) error {
	if err := w.Archive(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", EnrichedSheet); err != nil {
		return err
	}
	if err := writeEnriched(f, rows); err != nil {
		return err
	}
	if _, err := f.NewSheet(DailySheet); err != nil {
		return err
	}
	if err := writeDaily(f, totals); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	w.log.Info("results written", zap.String("path", path),
		zap.Int("rows", len(rows)), zap.Int("days", len(totals)))
	return nil
}

// Archive moves an existing output file under an archive/ directory next
// to it, suffixed with a timestamp. Missing files are fine.
func (w *Workbook) Archive(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	archiveDir := filepath.Join(filepath.Dir(path), "archive")
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return err
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	dest := filepath.Join(archiveDir, fmt.Sprintf("%s_%s%s", base, time.Now().Format("20060102150405"), ext))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("archive %s: %w", path, err)
	}
	w.log.Info("previous output archived", zap.String("path", dest))
	return nil
}

func writeEnriched(f *excelize.File, rows []manifest.Row) error {
	maxItems := 0
	if len(rows) > 0 {
		maxItems = len(rows[0].Items)
	}

	headers := []any{
		"date", "unit", "quantity", "donation_type", "crossing", "donor", "cargo",
		"truck_weight_kg", "truck_food_kg", "truck_kcal",
		"item_count", "food_item_count", "truck_type", "sector",
	}
	for i := 1; i <= maxItems; i++ {
		headers = append(headers,
			fmt.Sprintf("item_%d", i),
			fmt.Sprintf("item_%d_kg", i),
			fmt.Sprintf("item_%d_kcal", i))
	}
	if err := f.SetSheetRow(EnrichedSheet, "A1", &headers); err != nil {
		return err
	}

	for n, row := range rows {
		var date string
		if row.Date != nil {
			date = row.Date.Format("2006-01-02")
		}
		cells := []any{
			date, string(row.Unit), row.Quantity, row.DonationType, row.Crossing,
			row.Donor, row.CargoRaw,
			row.TruckWeightKg, row.TruckFoodKg, row.TruckKcal,
			row.ItemCount, row.FoodItemCount, row.TruckType, row.Sector,
		}
		for _, it := range row.Items {
			cells = append(cells, it.Text, it.WeightKg, it.Kcal)
		}
		addr, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EnrichedSheet, addr, &cells); err != nil {
			return err
		}
	}
	return nil
}

func writeDaily(f *excelize.File, totals []daily.Totals) error {
	headers := []any{
		"date", "trucks", "daily_kcal", "daily_food_mt", "daily_mt",
		"count_daily_truck_food", "count_daily_truck_nonfood", "count_daily_truck_mixed",
		"count_daily_sector_humanitarian", "entry_kerem_count", "entry_rafah_count",
	}
	if err := f.SetSheetRow(DailySheet, "A1", &headers); err != nil {
		return err
	}

	for n, d := range totals {
		date := "undated"
		if d.Date != nil {
			date = d.Date.Format("2006-01-02")
		}
		cells := []any{
			date, d.Trucks, d.Kcal, d.FoodMT, d.MT,
			d.FoodTrucks, d.NonFoodTrucks, d.MixedTrucks,
			d.Humanitarian, d.KeremShalom, d.Rafah,
		}
		addr, err := excelize.CoordinatesToCellName(1, n+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(DailySheet, addr, &cells); err != nil {
			return err
		}
	}
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
