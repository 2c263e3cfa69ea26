// Command trucktally runs the batch pipeline over one raw manifest
// workbook: normalize, match items against the nutrition reference, derive
// weights and kcal, classify trucks, roll up daily totals, and write the
// result sheets plus the review artifacts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/foodsec/trucktally/internal/logging"
	"github.com/foodsec/trucktally/internal/workbook"
	"github.com/foodsec/trucktally/pkg/trucktally"
	"github.com/foodsec/trucktally/pkg/trucktally/config"
	"github.com/foodsec/trucktally/pkg/trucktally/daily"
	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
	"github.com/foodsec/trucktally/pkg/trucktally/store"
	"github.com/foodsec/trucktally/pkg/trucktally/store/sqlite"
)

func main() {
	var (
		inPath     = flag.String("in", "", "Raw manifest workbook (required)")
		inSheet    = flag.String("sheet", "", "Raw sheet name (default: first sheet)")
		refPath    = flag.String("ref", "", "Nutrition reference workbook (required)")
		refSheet   = flag.String("ref-sheet", "", "Reference sheet name (default: first sheet)")
		outPath    = flag.String("out", "trucks.xlsx", "Output workbook")
		cfgPath    = flag.String("config", "", "YAML config file (optional)")
		dbPath     = flag.String("db", "", "SQLite result store (optional)")
		reviewDir  = flag.String("review-dir", "review", "Directory for review artifacts")
		devLogging = flag.Bool("dev-log", false, "Console logging for development")
	)
	flag.Parse()

	log, err := logging.New(logging.Config{Level: "info", Development: *devLogging})
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *inPath == "" {
		log.Fatal("--in required")
	}
	if *refPath == "" {
		log.Fatal("--ref required")
	}

	ctx := context.Background()
	wb := workbook.New(log)

	raws, err := wb.ReadRawRows(*inPath, *inSheet)
	if err != nil {
		log.Fatal("read raw workbook", zap.Error(err))
	}

	records, err := wb.ReadReference(*refPath, *refSheet)
	if err != nil {
		log.Fatal("read reference", zap.Error(err))
	}
	table, refStats, err := reference.Load(records)
	if err != nil {
		log.Fatal("load reference", zap.Error(err))
	}
	if refStats.Dropped > 0 {
		logging.DataQuality(log, "reference", "malformed rows dropped", refStats.Dropped)
	}

	loader := config.Loader{ConfigPath: *cfgPath}
	comps, err := loader.Load(table)
	if err != nil {
		log.Fatal("load configuration", zap.Error(err))
	}

	pipe := trucktally.New(trucktally.Options{
		Normalizer: comps.Normalizer,
		Matcher:    comps.Matcher,
		Resolver:   comps.Resolver,
	})
	result, err := pipe.Run(raws)
	if err != nil {
		log.Fatal("pipeline run", zap.Error(err))
	}
	if result.Stats.ItemsUnmatched > 0 {
		logging.DataQuality(log, "items", "unmatched item descriptions", result.Stats.ItemsUnmatched)
	}

	agg := daily.NewAggregator()
	for _, row := range result.Rows {
		agg.Process(row)
	}
	totals := agg.Snapshot()

	if err := wb.WriteResults(*outPath, result.Rows, totals); err != nil {
		log.Fatal("write results", zap.Error(err))
	}

	writer := review.FileWriter{Dir: *reviewDir}
	exporter := review.Exporter{Writer: writer}
	if err := exporter.Export(ctx, result.Review); err != nil {
		log.Fatal("write review artifacts", zap.Error(err))
	}

	if *dbPath != "" {
		if err := persist(ctx, *dbPath, result, totals); err != nil {
			log.Fatal("persist results", zap.Error(err))
		}
	}

	fmt.Printf("rows processed:   %d\n", result.Stats.RowsProcessed)
	fmt.Printf("rows filtered:    %d\n", result.Stats.RowsFiltered)
	fmt.Printf("items corrected:  %d\n", result.Stats.ItemsCorrected)
	fmt.Printf("items unmatched:  %d\n", result.Stats.ItemsUnmatched)
	fmt.Printf("output:           %s\n", *outPath)
	fmt.Printf("review items:     %s\n", writer.Path(review.UnmatchedItemsList))
	fmt.Printf("review units:     %s\n", writer.Path(review.UnmatchedUnitsList))
}

func persist(ctx context.Context, dbPath string, result trucktally.Result, totals []daily.Totals) error {
	st, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	run := store.Run{
		ID:             store.NewIDGenerator().NewRunID(),
		StartedAt:      time.Now(),
		RowsProcessed:  result.Stats.RowsProcessed,
		RowsFiltered:   result.Stats.RowsFiltered,
		ItemsCorrected: result.Stats.ItemsCorrected,
		ItemsUnmatched: result.Stats.ItemsUnmatched,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		return err
	}

	trucks := make([]store.Truck, len(result.Rows))
	for i, row := range result.Rows {
		trucks[i] = toTruck(row)
	}
	if err := st.SaveTrucks(ctx, run.ID, trucks); err != nil {
		return err
	}

	persisted := make([]store.DailyTotal, len(totals))
	for i, d := range totals {
		persisted[i] = toDailyTotal(d)
	}
	if err := st.SaveDailyTotals(ctx, run.ID, persisted); err != nil {
		return err
	}

	return st.SaveReviewEntries(ctx, run.ID, result.Review.Items(), result.Review.Units())
}

func toTruck(row manifest.Row) store.Truck {
	t := store.Truck{
		Unit:          string(row.Unit),
		UnitRaw:       row.UnitRaw,
		Quantity:      row.Quantity,
		DonationType:  row.DonationType,
		Crossing:      row.Crossing,
		Donor:         row.Donor,
		Date:          row.Date,
		TruckWeightKg: row.TruckWeightKg,
		TruckFoodKg:   row.TruckFoodKg,
		TruckKcal:     row.TruckKcal,
		ItemCount:     row.ItemCount,
		FoodItemCount: row.FoodItemCount,
		TruckType:     row.TruckType,
		Sector:        row.Sector,
	}
	for _, it := range row.Items {
		if it.Empty() {
			continue
		}
		t.Items = append(t.Items, store.Item{
			Text:      it.Text,
			Kind:      string(it.Kind),
			Canonical: it.Canonical,
			WeightKg:  it.WeightKg,
			Kcal:      it.Kcal,
		})
	}
	return t
}

func toDailyTotal(d daily.Totals) store.DailyTotal {
	out := store.DailyTotal{
		Trucks:        d.Trucks,
		Kcal:          d.Kcal,
		FoodMT:        d.FoodMT,
		MT:            d.MT,
		FoodTrucks:    d.FoodTrucks,
		NonFoodTrucks: d.NonFoodTrucks,
		MixedTrucks:   d.MixedTrucks,
		Humanitarian:  d.Humanitarian,
		KeremShalom:   d.KeremShalom,
		Rafah:         d.Rafah,
	}
	if d.Date != nil {
		out.Date = d.Date.Format("2006-01-02")
	}
	return out
}
