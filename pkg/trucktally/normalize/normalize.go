// Package normalize turns raw manifest rows into the canonical typed form
// the rest of the pipeline consumes: canonical column names, numeric
// quantities, lowercased categorical text, and cargo split into cleaned
// item slots of uniform width across the batch.
package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/foodsec/trucktally/pkg/trucktally/internalerr"
	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
)

// DefaultRenames maps the source workbook's header names onto canonical
// column keys. Renames are exact string matches after trimming; unknown
// headers pass through unchanged.
func DefaultRenames() map[string]string {
	return map[string]string{
		"Units":                manifest.ColUnit,
		"Quantity":             manifest.ColQuantity,
		"Donation Type":        manifest.ColDonationType,
		"Description of Cargo": manifest.ColCargo,
		"Received Date":        manifest.ColDate,
		"Crossing":             manifest.ColCrossing,
		"Donor":                manifest.ColDonor,
	}
}

// requiredColumns must be present (after renaming) or the whole run aborts.
var requiredColumns = []string{
	manifest.ColUnit,
	manifest.ColQuantity,
	manifest.ColDonationType,
	manifest.ColCargo,
	manifest.ColDate,
}

// dateLayouts are tried in order when parsing the received date.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/06",
	"02 Jan 2006",
}

// Stats summarizes what the normalizer did to a batch.
type Stats struct {
	RowsIn           int
	RowsOut          int
	RowsFiltered     int // dropped by the pallet-count heuristic
	QuantityFailures int // non-numeric quantities coerced to missing
	MaxItems         int // widest item list observed in the batch
}

// Normalizer applies column canonicalization and row typing.
type Normalizer struct {
	renames           map[string]string
	palletQuantityMax float64
}

// Options configures a Normalizer. Zero values select the defaults.
type Options struct {
	Renames           map[string]string
	PalletQuantityMax float64 // pallet counts above this are treated as corrupt
}

// New creates a Normalizer.
func New(opts Options) *Normalizer {
	renames := opts.Renames
	if renames == nil {
		renames = DefaultRenames()
	}
	max := opts.PalletQuantityMax
	if max <= 0 {
		max = 40
	}
	return &Normalizer{renames: renames, palletQuantityMax: max}
}

// Normalize converts a batch of raw rows into typed manifest rows. A
// required column missing from the whole batch is a configuration error
// that aborts the run; per-row problems (non-numeric quantity, unparseable
// date) are coerced to missing values instead.
func (n *Normalizer) Normalize(raws []manifest.RawRow) ([]manifest.Row, Stats, error) {
	stats := Stats{RowsIn: len(raws)}

	canonical := make([]manifest.RawRow, len(raws))
	seen := make(map[string]struct{})
	for i, raw := range raws {
		row := make(manifest.RawRow, len(raw))
		for key, val := range raw {
			key = strings.TrimSpace(key)
			if renamed, ok := n.renames[key]; ok {
				key = renamed
			}
			row[key] = val
			seen[key] = struct{}{}
		}
		canonical[i] = row
	}

	for _, col := range requiredColumns {
		if _, ok := seen[col]; !ok {
			return nil, stats, fmt.Errorf("%w: %q", internalerr.ErrMissingColumn, col)
		}
	}

	rows := make([]manifest.Row, 0, len(canonical))
	for _, raw := range canonical {
		row := n.normalizeRow(raw, &stats)
		if row.Unit == manifest.UnitPallets && row.HasQuantity && row.Quantity > n.palletQuantityMax {
			stats.RowsFiltered++
			continue
		}
		if len(row.Items) > stats.MaxItems {
			stats.MaxItems = len(row.Items)
		}
		rows = append(rows, row)
	}

	padItems(rows, stats.MaxItems)
	stats.RowsOut = len(rows)
	return rows, stats, nil
}

func (n *Normalizer) normalizeRow(raw manifest.RawRow, stats *Stats) manifest.Row {
	row := manifest.Row{
		UnitRaw:      strings.TrimSpace(raw[manifest.ColUnit]),
		DonationType: strings.ToLower(strings.TrimSpace(raw[manifest.ColDonationType])),
		CargoRaw:     strings.ToLower(strings.TrimSpace(raw[manifest.ColCargo])),
		Crossing:     strings.TrimSpace(raw[manifest.ColCrossing]),
		Donor:        strings.TrimSpace(raw[manifest.ColDonor]),
	}

	row.Unit, _ = manifest.ParseUnit(row.UnitRaw)

	if qty, ok := parseQuantity(raw[manifest.ColQuantity]); ok {
		row.Quantity = qty
		row.HasQuantity = true
	} else if strings.TrimSpace(raw[manifest.ColQuantity]) != "" {
		stats.QuantityFailures++
	}

	if ts, ok := parseDate(raw[manifest.ColDate]); ok {
		row.Date = &ts
	}

	row.Items = SplitCargo(row.CargoRaw)
	return row
}

// SplitCargo decomposes free-text cargo into ordered item slots. The text
// is split on "+" and ";" and each fragment is cleaned with CleanItemText.
// Fragments that clean down to nothing keep their slot so positions stay
// aligned with the source text; a blank cargo yields no items at all.
func SplitCargo(cargo string) []manifest.Item {
	if strings.TrimSpace(cargo) == "" {
		return nil
	}
	fragments := strings.Split(strings.ReplaceAll(cargo, "+", ";"), ";")
	items := make([]manifest.Item, len(fragments))
	for i, frag := range fragments {
		items[i] = manifest.Item{Text: CleanItemText(frag)}
	}
	return items
}

// CleanItemText trims a cargo fragment and strips parenthesis and quote
// characters, lowercasing the result.
func CleanItemText(text string) string {
	text = strings.NewReplacer("(", "", ")", "", `"`, "").Replace(text)
	return strings.ToLower(strings.TrimSpace(text))
}

// padItems extends every row's item list with empty slots so all rows share
// the batch's maximum width.
func padItems(rows []manifest.Row, width int) {
	for i := range rows {
		for len(rows[i].Items) < width {
			rows[i].Items = append(rows[i].Items, manifest.Item{})
		}
	}
}

func parseQuantity(raw string) (float64, bool) {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0, false
	}
	qty, err := strconv.ParseFloat(raw, 64)
	if err != nil || qty < 0 {
		return 0, false
	}
	return qty, true
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
