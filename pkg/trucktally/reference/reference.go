// Package reference holds the nutrition reference table: an immutable,
// keyed lookup from a canonical food-item name to its caloric density and
// unit weight, loaded once per run from an external source.
package reference

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/foodsec/trucktally/pkg/trucktally/internalerr"
)

// Entry is one reference row.
type Entry struct {
	FoodItem        string  // canonical lowercase name, unique key
	KcalPerKg       float64 // caloric density
	PalletWeightKg  float64 // weight of one pallet of this item, when known
	HasPalletWeight bool
}

// Record is one raw reference row as read from the external source, before
// numeric validation.
type Record struct {
	FoodItem string
	KcalPerKg string
	PalletKg  string
}

// LoadStats reports what happened while parsing the source records.
type LoadStats struct {
	RecordsIn  int
	Loaded     int
	Dropped    int // malformed rows (blank name or non-numeric kcal)
	Duplicates int // keys overwritten by a later record
}

// Table is the immutable in-memory reference table.
type Table struct {
	entries map[string]Entry
	keys    []string // sorted, for deterministic iteration
	mean    float64
}

// Load parses raw records into a Table. Keys are normalized to trimmed
// lowercase; duplicate keys are last-write-wins since the reference data is
// curated externally. Malformed records are dropped (counted in stats), but
// a source that yields no usable entries at all is fatal.
func Load(records []Record) (*Table, LoadStats, error) {
	stats := LoadStats{RecordsIn: len(records)}
	entries := make(map[string]Entry, len(records))

	for _, rec := range records {
		key := Normalize(rec.FoodItem)
		if key == "" {
			stats.Dropped++
			continue
		}
		kcal, err := strconv.ParseFloat(strings.TrimSpace(rec.KcalPerKg), 64)
		if err != nil || kcal <= 0 {
			stats.Dropped++
			continue
		}
		entry := Entry{FoodItem: key, KcalPerKg: kcal}
		if pallet, err := strconv.ParseFloat(strings.TrimSpace(rec.PalletKg), 64); err == nil && pallet > 0 {
			entry.PalletWeightKg = pallet
			entry.HasPalletWeight = true
		}
		if _, exists := entries[key]; exists {
			stats.Duplicates++
		}
		entries[key] = entry
	}

	if len(entries) == 0 {
		return nil, stats, fmt.Errorf("%w: no usable entries in %d records", internalerr.ErrReferenceUnavailable, len(records))
	}
	stats.Loaded = len(entries)
	return NewTable(entries), stats, nil
}

// NewTable builds a Table from already-validated entries, keyed by their
// normalized FoodItem name.
func NewTable(entries map[string]Entry) *Table {
	keys := make([]string, 0, len(entries))
	var sum float64
	for key, e := range entries {
		keys = append(keys, key)
		sum += e.KcalPerKg
	}
	sort.Strings(keys)

	var mean float64
	if len(keys) > 0 {
		mean = sum / float64(len(keys))
	}
	return &Table{entries: entries, keys: keys, mean: mean}
}

// Normalize maps a name onto the table's key form: trimmed lowercase.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Lookup returns the entry for a name, normalizing the key first.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.entries[Normalize(name)]
	return e, ok
}

// Keys returns the sorted canonical keys. Callers must not mutate it.
func (t *Table) Keys() []string { return t.keys }

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// MeanKcalPerKg is the arithmetic mean caloric density across all entries,
// used as the fallback density when a matched entry lacks a usable number.
func (t *Table) MeanKcalPerKg() float64 { return t.mean }
