package resolve

import (
	"math"
	"testing"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
)

func testTable() *reference.Table {
	return reference.NewTable(map[string]reference.Entry{
		"lentils":     {FoodItem: "lentils", KcalPerKg: 3400},
		"wheat flour": {FoodItem: "wheat flour", KcalPerKg: 3640, PalletWeightKg: 1000, HasPalletWeight: true},
	})
}

func testResolver() *Resolver {
	return New(DefaultWeights(), testTable())
}

func foodItem(text, canonical string) manifest.Item {
	return manifest.Item{Text: text, Kind: manifest.KindExact, Canonical: canonical}
}

func approx(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestExactMatchKgUnit(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitKg,
		Quantity:    10,
		HasQuantity: true,
		Items:       []manifest.Item{foodItem("lentils", "lentils")},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "item weight", row.Items[0].WeightKg, 10)
	approx(t, "item kcal", row.Items[0].Kcal, 34000)
	approx(t, "truck weight", row.TruckWeightKg, 10)
	approx(t, "truck food kg", row.TruckFoodKg, 10)
	approx(t, "truck kcal", row.TruckKcal, 34000)
}

func TestAliasMatchSameNumbersAsExact(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitKg,
		Quantity:    10,
		HasQuantity: true,
		Items: []manifest.Item{
			{Text: "lentis", Kind: manifest.KindAlias, Canonical: "lentils"},
		},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "item weight", row.Items[0].WeightKg, 10)
	approx(t, "item kcal", row.Items[0].Kcal, 34000)
}

func TestPalletDefaultWeightForUnmatched(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitPallets,
		Quantity:    5,
		HasQuantity: true,
		Items: []manifest.Item{
			{Text: "mystery cargo", Kind: manifest.KindUnmatched},
		},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "truck weight", row.TruckWeightKg, 5*637.5)
	approx(t, "truck kcal", row.TruckKcal, 0)
	approx(t, "truck food kg", row.TruckFoodKg, 0)
}

func TestPalletWFPDonorUsesReferenceWeight(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitPallets,
		Quantity:    2,
		HasQuantity: true,
		Donor:       "WFP Jordan",
		Items:       []manifest.Item{foodItem("wheat flour", "wheat flour")},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "truck weight", row.TruckWeightKg, 2*1000)
	approx(t, "truck kcal", row.TruckKcal, 2000*3640)
}

func TestPalletNonWFPDonorUsesDefaultWeight(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitPallets,
		Quantity:    2,
		HasQuantity: true,
		Donor:       "Some NGO",
		Items:       []manifest.Item{foodItem("wheat flour", "wheat flour")},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "truck weight", row.TruckWeightKg, 2*637.5)
}

func TestTonUnit(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitTon,
		Quantity:    2,
		HasQuantity: true,
		Items:       []manifest.Item{foodItem("lentils", "lentils")},
	}
	testResolver().ResolveRow(&row, review.NewCollector())
	approx(t, "truck weight", row.TruckWeightKg, 2000)
}

func TestTruckUnitIgnoresQuantity(t *testing.T) {
	for _, qty := range []float64{1, 3, 17} {
		row := manifest.Row{
			Unit:        manifest.UnitTruck,
			Quantity:    qty,
			HasQuantity: true,
			Items:       []manifest.Item{foodItem("lentils", "lentils")},
		}
		testResolver().ResolveRow(&row, review.NewCollector())
		approx(t, "truck weight", row.TruckWeightKg, 14000)
	}
}

func TestUnknownUnitCapturedForReview(t *testing.T) {
	rev := review.NewCollector()
	row := manifest.Row{
		Unit:        manifest.UnitUnknown,
		UnitRaw:     "Boxes",
		Quantity:    5,
		HasQuantity: true,
		Items:       []manifest.Item{foodItem("lentils", "lentils")},
	}
	testResolver().ResolveRow(&row, rev)

	approx(t, "truck weight", row.TruckWeightKg, 0)
	approx(t, "truck kcal", row.TruckKcal, 0)
	if row.ItemCount != 1 {
		t.Errorf("item count = %d, want 1 (other fields still computed)", row.ItemCount)
	}
	units := rev.Units()
	if len(units) != 1 || units[0] != "Boxes" {
		t.Errorf("review units = %v, want [Boxes]", units)
	}
}

func TestMissingQuantityShortCircuits(t *testing.T) {
	row := manifest.Row{
		Unit:  manifest.UnitKg,
		Items: []manifest.Item{foodItem("lentils", "lentils")},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "truck weight", row.TruckWeightKg, 0)
	if row.ItemCount != 0 {
		t.Errorf("item count = %d, want 0 on a skipped row", row.ItemCount)
	}
}

func TestNoItemsShortCircuits(t *testing.T) {
	row := manifest.Row{Unit: manifest.UnitKg, Quantity: 10, HasQuantity: true}
	testResolver().ResolveRow(&row, review.NewCollector())
	approx(t, "truck weight", row.TruckWeightKg, 0)
}

func TestMixedCargoApportionsQuantity(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitKg,
		Quantity:    10,
		HasQuantity: true,
		Items: []manifest.Item{
			foodItem("lentils", "lentils"),
			{Text: "tents", Kind: manifest.KindNonFood},
		},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	// Non-food contributes to physical weight but not to food kg or kcal.
	approx(t, "truck weight", row.TruckWeightKg, 10)
	approx(t, "truck food kg", row.TruckFoodKg, 5)
	approx(t, "truck kcal", row.TruckKcal, 5*3400)
	approx(t, "non-food item kcal", row.Items[1].Kcal, 0)
	if row.ItemCount != 2 || row.FoodItemCount != 1 {
		t.Errorf("counts = %d/%d, want 2/1", row.ItemCount, row.FoodItemCount)
	}
}

func TestPaddedSlotsContributeNothing(t *testing.T) {
	row := manifest.Row{
		Unit:        manifest.UnitKg,
		Quantity:    10,
		HasQuantity: true,
		Items: []manifest.Item{
			foodItem("lentils", "lentils"),
			{}, // padding
		},
	}
	testResolver().ResolveRow(&row, review.NewCollector())

	approx(t, "truck weight", row.TruckWeightKg, 10)
	if row.ItemCount != 1 {
		t.Errorf("item count = %d, want 1", row.ItemCount)
	}
}

func TestWeightOrderingInvariant(t *testing.T) {
	rows := []manifest.Row{
		{Unit: manifest.UnitKg, Quantity: 10, HasQuantity: true,
			Items: []manifest.Item{foodItem("lentils", "lentils"), {Text: "mats", Kind: manifest.KindNonFood}}},
		{Unit: manifest.UnitPallets, Quantity: 3, HasQuantity: true,
			Items: []manifest.Item{{Text: "x", Kind: manifest.KindUnmatched}}},
		{Unit: manifest.UnitTruck, Quantity: 1, HasQuantity: true,
			Items: []manifest.Item{foodItem("lentils", "lentils")}},
	}
	r := testResolver()
	for i := range rows {
		r.ResolveRow(&rows[i], review.NewCollector())
		if rows[i].TruckFoodKg > rows[i].TruckWeightKg {
			t.Errorf("row %d: food kg %v exceeds truck weight %v", i, rows[i].TruckFoodKg, rows[i].TruckWeightKg)
		}
		if rows[i].TruckWeightKg < 0 || rows[i].TruckFoodKg < 0 {
			t.Errorf("row %d: negative weight", i)
		}
		if rows[i].FoodItemCount == 0 && rows[i].TruckKcal != 0 {
			t.Errorf("row %d: kcal %v without food items", i, rows[i].TruckKcal)
		}
	}
}

func TestKcalFallsBackToMeanDensity(t *testing.T) {
	// A fuzzy match can land on a canonical name whose entry is missing a
	// usable density; the resolver then uses the table's global mean.
	table := reference.NewTable(map[string]reference.Entry{
		"lentils": {FoodItem: "lentils", KcalPerKg: 3400},
		"rice":    {FoodItem: "rice", KcalPerKg: 3600},
	})
	r := New(DefaultWeights(), table)

	row := manifest.Row{
		Unit:        manifest.UnitKg,
		Quantity:    10,
		HasQuantity: true,
		Items: []manifest.Item{
			{Text: "something", Kind: manifest.KindFuzzy, Canonical: "not in table"},
		},
	}
	r.ResolveRow(&row, review.NewCollector())
	approx(t, "truck kcal", row.TruckKcal, 10*3500)
}
