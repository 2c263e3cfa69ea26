package trucktally

import (
	"math"
	"reflect"
	"testing"

	"github.com/foodsec/trucktally/pkg/trucktally/config"
	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
)

func testPipeline(t *testing.T) *Pipeline {
	t.Helper()
	ref := reference.NewTable(map[string]reference.Entry{
		"lentils":     {FoodItem: "lentils", KcalPerKg: 3400},
		"rice":        {FoodItem: "rice", KcalPerKg: 3600},
		"wheat flour": {FoodItem: "wheat flour", KcalPerKg: 3640, PalletWeightKg: 1000, HasPalletWeight: true},
	})
	loader := config.Loader{}
	comp, err := loader.Load(ref)
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	return New(Options{
		Normalizer: comp.Normalizer,
		Matcher:    comp.Matcher,
		Resolver:   comp.Resolver,
	})
}

func testBatch() []manifest.RawRow {
	return []manifest.RawRow{
		{
			"Units": "Kg", "Quantity": "10", "Donation Type": "Humanitarian Aid",
			"Description of Cargo": "Lentils", "Received Date": "2024-01-15",
			"Crossing": "Kerem Shalom", "Donor": "NGO A",
		},
		{
			"Units": "Pallets", "Quantity": "2", "Donation Type": "Private Sector",
			"Description of Cargo": "weat flour + tents", "Received Date": "2024-01-15",
			"Crossing": "Rafah", "Donor": "WFP Jordan",
		},
		{
			// Pallet counts above the plausibility cap drop the whole row.
			"Units": "Pallets", "Quantity": "120", "Donation Type": "Humanitarian Aid",
			"Description of Cargo": "rice", "Received Date": "2024-01-16",
		},
		{
			"Units": "Boxes", "Quantity": "5", "Donation Type": "Humanitarian Aid",
			"Description of Cargo": "hydraulic pump", "Received Date": "not a date",
		},
	}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestRunEndToEnd(t *testing.T) {
	p := testPipeline(t)
	res, err := p.Run(testBatch())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.Rows) != 3 {
		t.Fatalf("got %d rows, want 3 (one filtered)", len(res.Rows))
	}

	st := res.Stats
	if st.RowsIn != 4 || st.RowsProcessed != 3 || st.RowsFiltered != 1 {
		t.Errorf("row stats = %+v", st)
	}
	if st.ItemsCorrected != 1 || st.ItemsNonFood != 1 || st.ItemsUnmatched != 1 {
		t.Errorf("item stats = %+v", st)
	}

	// Row 0: exact match, Kg unit.
	r0 := res.Rows[0]
	if r0.Items[0].Kind != manifest.KindExact || r0.Items[0].Canonical != "lentils" {
		t.Errorf("row 0 item = %+v", r0.Items[0])
	}
	approx(t, "row 0 weight", r0.TruckWeightKg, 10)
	approx(t, "row 0 kcal", r0.TruckKcal, 34000)
	if r0.TruckType != manifest.TruckTypeFood {
		t.Errorf("row 0 type = %q", r0.TruckType)
	}
	if r0.Sector != manifest.SectorHumanitarian {
		t.Errorf("row 0 sector = %q", r0.Sector)
	}
	if r0.Date == nil || r0.Date.Format("2006-01-02") != "2024-01-15" {
		t.Errorf("row 0 date = %v", r0.Date)
	}

	// Row 1: alias correction plus a non-food item; WFP donor takes the
	// reference pallet weight for the food share.
	r1 := res.Rows[1]
	if r1.Items[0].Kind != manifest.KindAlias || r1.Items[0].Canonical != "wheat flour" {
		t.Errorf("row 1 item 0 = %+v", r1.Items[0])
	}
	if r1.Items[1].Kind != manifest.KindNonFood {
		t.Errorf("row 1 item 1 = %+v", r1.Items[1])
	}
	approx(t, "row 1 food kg", r1.TruckFoodKg, 1000)      // 1 pallet share at 1000 kg
	approx(t, "row 1 weight", r1.TruckWeightKg, 1637.5)   // food share + default pallet
	approx(t, "row 1 kcal", r1.TruckKcal, 1000*3640)
	if r1.TruckType != manifest.TruckTypeMixed {
		t.Errorf("row 1 type = %q", r1.TruckType)
	}
	if r1.Sector != manifest.SectorPrivate {
		t.Errorf("row 1 sector = %q", r1.Sector)
	}

	// Row 2: unknown unit, unmatched cargo, unparseable date.
	r2 := res.Rows[2]
	if r2.Items[0].Kind != manifest.KindUnmatched {
		t.Errorf("row 2 item = %+v", r2.Items[0])
	}
	approx(t, "row 2 weight", r2.TruckWeightKg, 0)
	if r2.ItemCount != 1 {
		t.Errorf("row 2 item count = %d, want 1", r2.ItemCount)
	}
	if r2.Date != nil {
		t.Errorf("row 2 date = %v, want nil", r2.Date)
	}
	if r2.TruckType != manifest.TruckTypeNonFood {
		t.Errorf("row 2 type = %q", r2.TruckType)
	}

	// Review side outputs.
	items := res.Review.Items()
	if len(items) != 1 || items[0] != "hydraulic pump" {
		t.Errorf("review items = %v", items)
	}
	units := res.Review.Units()
	if len(units) != 1 || units[0] != "Boxes" {
		t.Errorf("review units = %v", units)
	}

	// Item slots are padded to the batch maximum.
	for i, row := range res.Rows {
		if len(row.Items) != 2 {
			t.Errorf("row %d has %d item slots, want 2", i, len(row.Items))
		}
	}
}

func TestRunIsDeterministic(t *testing.T) {
	p := testPipeline(t)

	first, err := p.Run(testBatch())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(testBatch())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if !reflect.DeepEqual(first.Rows, second.Rows) {
		t.Error("identical input produced different rows")
	}
	if first.Stats != second.Stats {
		t.Errorf("stats differ: %+v vs %+v", first.Stats, second.Stats)
	}
	if !reflect.DeepEqual(first.Review.Items(), second.Review.Items()) {
		t.Error("review items differ between runs")
	}
}

func TestRunMissingColumnAborts(t *testing.T) {
	p := testPipeline(t)
	_, err := p.Run([]manifest.RawRow{{"Units": "Kg", "Quantity": "10"}})
	if err == nil {
		t.Fatal("expected error for a batch missing required columns")
	}
}

func TestRunAggregateInvariants(t *testing.T) {
	p := testPipeline(t)
	res, err := p.Run(testBatch())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, row := range res.Rows {
		if row.TruckFoodKg > row.TruckWeightKg+1e-9 {
			t.Errorf("row %d: food kg %v exceeds total %v", i, row.TruckFoodKg, row.TruckWeightKg)
		}
		if row.FoodItemCount > row.ItemCount {
			t.Errorf("row %d: food items %d exceed items %d", i, row.FoodItemCount, row.ItemCount)
		}
		if row.FoodItemCount == 0 && row.TruckKcal != 0 {
			t.Errorf("row %d: kcal %v with no food items", i, row.TruckKcal)
		}
	}
}
