// Package daily rolls enriched truck rows up into per-day totals for
// food-security reporting.
package daily

import (
	"sort"
	"strings"
	"time"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
)

// Totals is one day's roll-up. Rows with a null received date accumulate
// into a single undated bucket (Date == nil) rather than being dropped.
type Totals struct {
	Date *time.Time

	Trucks        int
	Kcal          float64
	FoodMT        float64
	MT            float64
	FoodTrucks    int
	NonFoodTrucks int
	MixedTrucks   int
	Humanitarian  int // trucks in the humanitarian sector
	KeremShalom   int // entries via the Kerem Shalom crossing
	Rafah         int // entries via the Rafah crossing
}

// Aggregator accumulates rows into daily buckets.
type Aggregator struct {
	buckets map[string]*Totals
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{buckets: make(map[string]*Totals)}
}

const undatedKey = ""

// Process accumulates one enriched row.
func (a *Aggregator) Process(row manifest.Row) {
	key := undatedKey
	if row.Date != nil {
		key = row.Date.Format("2006-01-02")
	}

	bucket, ok := a.buckets[key]
	if !ok {
		bucket = &Totals{}
		if row.Date != nil {
			day := row.Date.Truncate(24 * time.Hour)
			bucket.Date = &day
		}
		a.buckets[key] = bucket
	}

	bucket.Trucks++
	bucket.Kcal += row.TruckKcal
	bucket.FoodMT += row.TruckFoodKg / 1000
	bucket.MT += row.TruckWeightKg / 1000

	switch row.TruckType {
	case manifest.TruckTypeFood:
		bucket.FoodTrucks++
	case manifest.TruckTypeNonFood:
		bucket.NonFoodTrucks++
	case manifest.TruckTypeMixed:
		bucket.MixedTrucks++
	}

	if row.Sector == manifest.SectorHumanitarian {
		bucket.Humanitarian++
	}

	switch strings.ToLower(strings.TrimSpace(row.Crossing)) {
	case "kerem shalom":
		bucket.KeremShalom++
	case "rafah":
		bucket.Rafah++
	}
}

// Snapshot returns the accumulated totals ordered by date, with the
// undated bucket (if any) last.
func (a *Aggregator) Snapshot() []Totals {
	keys := make([]string, 0, len(a.buckets))
	for k := range a.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Totals, 0, len(keys))
	for _, k := range keys {
		if k == undatedKey {
			continue
		}
		out = append(out, *a.buckets[k])
	}
	if undated, ok := a.buckets[undatedKey]; ok {
		out = append(out, *undated)
	}
	return out
}
