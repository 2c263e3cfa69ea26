// Package resolve derives physical weight and caloric contribution for
// matched items and aggregates them to truck-level totals.
package resolve

import (
	"strings"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
)

// Weights holds the unit-conversion constants. The defaults reflect the
// deployment this pipeline was built for; all of them are configurable.
type Weights struct {
	DefaultPalletKg float64 // pallet weight when no item-specific weight applies
	TruckloadKg     float64 // weight of one full truckload, regardless of quantity
	KgPerTon        float64
}

// DefaultWeights returns the canonical constants.
func DefaultWeights() Weights {
	return Weights{
		DefaultPalletKg: 637.5,
		TruckloadKg:     14000,
		KgPerTon:        1000,
	}
}

// Resolver computes per-item weights and kcal and truck aggregates.
type Resolver struct {
	weights Weights
	ref     *reference.Table
}

// New creates a Resolver.
func New(weights Weights, ref *reference.Table) *Resolver {
	if weights.DefaultPalletKg <= 0 {
		weights.DefaultPalletKg = DefaultWeights().DefaultPalletKg
	}
	if weights.TruckloadKg <= 0 {
		weights.TruckloadKg = DefaultWeights().TruckloadKg
	}
	if weights.KgPerTon <= 0 {
		weights.KgPerTon = DefaultWeights().KgPerTon
	}
	return &Resolver{weights: weights, ref: ref}
}

// ResolveRow fills in item weights/kcal and the row aggregates. Items must
// already carry their match results.
//
// Rows with no items or a missing/zero quantity are skipped outright and
// keep their zero defaults. Rows with an unrecognized unit have the unit
// captured for review and their weights left undefined (zero), but counts
// are still derived. The row's declared quantity is apportioned equally
// across its non-empty items, so the truck total always equals the
// row-level unit formula no matter how many items share the truck.
func (r *Resolver) ResolveRow(row *manifest.Row, rev *review.Collector) {
	total, food := row.CountItems()
	if total == 0 || !row.HasQuantity || row.Quantity == 0 {
		return
	}

	row.ItemCount = total
	row.FoodItemCount = food

	if row.Unit == manifest.UnitUnknown {
		rev.AddUnit(row.UnitRaw)
		return
	}

	wfpDonor := strings.Contains(strings.ToLower(row.Donor), "wfp")
	itemQty := row.Quantity / float64(total)

	for i := range row.Items {
		it := &row.Items[i]
		if it.Empty() {
			continue
		}

		it.WeightKg = r.itemWeight(row.Unit, it, itemQty, total, wfpDonor)
		row.TruckWeightKg += it.WeightKg

		if !it.Kind.IsFood() {
			continue
		}
		it.Kcal = it.WeightKg * r.kcalDensity(it.Canonical)
		row.TruckFoodKg += it.WeightKg
		row.TruckKcal += it.Kcal
	}
}

func (r *Resolver) itemWeight(unit manifest.Unit, it *manifest.Item, itemQty float64, total int, wfpDonor bool) float64 {
	switch unit {
	case manifest.UnitPallets:
		return itemQty * r.palletWeight(it, wfpDonor)
	case manifest.UnitTon:
		return itemQty * r.weights.KgPerTon
	case manifest.UnitKg:
		return itemQty
	case manifest.UnitTruck:
		return r.weights.TruckloadKg / float64(total)
	}
	return 0
}

// palletWeight picks the per-pallet weight for one item: the reference's
// item-specific weight when the item is food and the donor is WFP (their
// manifests pack single-commodity pallets), otherwise the configured
// default.
func (r *Resolver) palletWeight(it *manifest.Item, wfpDonor bool) float64 {
	if wfpDonor && it.Kind.IsFood() {
		if entry, ok := r.ref.Lookup(it.Canonical); ok && entry.HasPalletWeight {
			return entry.PalletWeightKg
		}
	}
	return r.weights.DefaultPalletKg
}

// kcalDensity returns the caloric density for a canonical name, falling
// back to the reference's global mean when the entry is missing or carries
// no usable number.
func (r *Resolver) kcalDensity(canonical string) float64 {
	if entry, ok := r.ref.Lookup(canonical); ok && entry.KcalPerKg > 0 {
		return entry.KcalPerKg
	}
	return r.ref.MeanKcalPerKg()
}
