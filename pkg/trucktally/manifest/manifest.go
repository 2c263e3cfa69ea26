package manifest

import (
	"strings"
	"time"
)

// Canonical column keys produced by the normalizer. The ingestion adapter
// may use any source header names; the normalizer maps them onto these.
const (
	ColUnit         = "unit"
	ColQuantity     = "quantity"
	ColDonationType = "donation_type"
	ColCargo        = "cargo"
	ColDate         = "date"
	ColCrossing     = "crossing"
	ColDonor        = "donor"
)

// RawRow is one record as supplied by the ingestion adapter: source column
// name to raw cell text. Cells missing from the source are simply absent.
type RawRow map[string]string

// Unit classifies the declared quantity unit of a manifest row.
type Unit string

const (
	UnitPallets Unit = "Pallets"
	UnitTon     Unit = "Ton"
	UnitKg      Unit = "Kg"
	UnitTruck   Unit = "Truck"
	UnitUnknown Unit = "Unknown"
)

// ParseUnit maps free-text unit declarations onto a Unit. Matching is
// case-insensitive and tolerant of plural forms and the "MT" spelling of
// metric tons. The second return is false when the text is not recognized;
// callers are expected to record such units for review.
func ParseUnit(raw string) (Unit, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pallet", "pallets":
		return UnitPallets, true
	case "ton", "tons", "mt":
		return UnitTon, true
	case "kg", "kgs":
		return UnitKg, true
	case "truck", "trucks":
		return UnitTruck, true
	default:
		return UnitUnknown, false
	}
}

// ItemKind classifies how an item's text was resolved against the
// nutrition reference.
type ItemKind string

const (
	KindNone      ItemKind = ""          // empty/padded item slot
	KindExact     ItemKind = "exact"     // verbatim reference key
	KindAlias     ItemKind = "alias"     // resolved via curated alias table
	KindFuzzy     ItemKind = "fuzzy"     // approximate match above cutoff
	KindNonFood   ItemKind = "non-food"  // known non-food cargo
	KindUnmatched ItemKind = "unmatched" // no resolution found
)

// IsFood reports whether an item of this kind contributes calories.
func (k ItemKind) IsFood() bool {
	return k == KindExact || k == KindAlias || k == KindFuzzy
}

// Item is one cargo component extracted from a row's cargo text.
// Weight and kcal are zero until the resolver runs; for rows whose unit is
// unrecognized they stay zero.
type Item struct {
	Text      string
	Kind      ItemKind
	Canonical string // resolved reference key, empty unless IsFood
	WeightKg  float64
	Kcal      float64
}

// Empty reports whether this is a padded slot with no cargo text.
func (it Item) Empty() bool { return it.Text == "" }

// Truck type labels derived from item-level food classification.
const (
	TruckTypeFood    = "Food Truck"
	TruckTypeNonFood = "Non-Food Truck"
	TruckTypeMixed   = "Mixed Food/Non-Food Truck"
)

// Sector labels derived from the donation type text.
const (
	SectorPrivate      = "private"
	SectorHumanitarian = "humanitarian"
	SectorUnknown      = "unknown"
)

// Row is one truck/shipment record after normalization, carrying the
// derived columns added by each pipeline stage.
type Row struct {
	Unit        Unit
	UnitRaw     string
	Quantity    float64
	HasQuantity bool // false when the source cell was empty or non-numeric

	DonationType string
	CargoRaw     string
	Crossing     string
	Donor        string
	Date         *time.Time // nil dates are retained, never defaulted

	// Items holds the ordered cargo components, padded with empty slots to
	// the batch's maximum item count so every row has the same shape.
	Items []Item

	// Aggregates filled in by the resolver and classifier.
	TruckWeightKg float64
	TruckFoodKg   float64
	TruckKcal     float64
	ItemCount     int
	FoodItemCount int
	TruckType     string
	Sector        string
}

// CountItems returns the number of non-empty item slots and how many of
// those resolved to food.
func (r *Row) CountItems() (total, food int) {
	for _, it := range r.Items {
		if it.Empty() {
			continue
		}
		total++
		if it.Kind.IsFood() {
			food++
		}
	}
	return total, food
}
