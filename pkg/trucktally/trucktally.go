// Package trucktally turns humanitarian aid-truck manifest rows into
// caloric and tonnage summaries. The pipeline is strictly sequential:
// normalize raw rows, resolve each cargo item against the nutrition
// reference, derive weights and kcal, then classify each truck.
package trucktally

import (
	"github.com/foodsec/trucktally/pkg/trucktally/classify"
	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/match"
	"github.com/foodsec/trucktally/pkg/trucktally/normalize"
	"github.com/foodsec/trucktally/pkg/trucktally/resolve"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
)

// Pipeline is the batch ETL facade.
type Pipeline struct {
	normalizer *normalize.Normalizer
	matcher    *match.Matcher
	resolver   *resolve.Resolver
}

// Options configures a Pipeline instance.
type Options struct {
	Normalizer *normalize.Normalizer
	Matcher    *match.Matcher
	Resolver   *resolve.Resolver
}

// New creates a Pipeline with the given stage components.
func New(opts Options) *Pipeline {
	return &Pipeline{
		normalizer: opts.Normalizer,
		matcher:    opts.Matcher,
		resolver:   opts.Resolver,
	}
}

// Stats summarizes one run for the end-of-run report.
type Stats struct {
	RowsIn           int
	RowsProcessed    int
	RowsFiltered     int
	QuantityFailures int
	MaxItems         int

	ItemsResolved  int // exact + alias + fuzzy
	ItemsCorrected int // resolved via the curated alias table
	ItemsFuzzy     int
	ItemsNonFood   int
	ItemsUnmatched int
}

// Result is the output of one batch run: the enriched rows, the review
// collector holding everything that failed to match, and run stats.
type Result struct {
	Rows   []manifest.Row
	Review *review.Collector
	Stats  Stats
}

// Run processes one batch end to end. Per-row data problems are recovered
// with defaults and surfaced through the review collector; only structural
// problems (a required column missing from the batch) return an error.
func (p *Pipeline) Run(raws []manifest.RawRow) (Result, error) {
	rows, normStats, err := p.normalizer.Normalize(raws)
	if err != nil {
		return Result{}, err
	}

	stats := Stats{
		RowsIn:           normStats.RowsIn,
		RowsProcessed:    normStats.RowsOut,
		RowsFiltered:     normStats.RowsFiltered,
		QuantityFailures: normStats.QuantityFailures,
		MaxItems:         normStats.MaxItems,
	}
	rev := review.NewCollector()

	for i := range rows {
		row := &rows[i]
		for j := range row.Items {
			it := &row.Items[j]
			if it.Empty() {
				continue
			}
			res := p.matcher.Resolve(it.Text, rev)
			it.Kind = res.Kind
			it.Canonical = res.Canonical

			switch res.Kind {
			case manifest.KindExact:
				stats.ItemsResolved++
			case manifest.KindAlias:
				stats.ItemsResolved++
				stats.ItemsCorrected++
			case manifest.KindFuzzy:
				stats.ItemsResolved++
				stats.ItemsFuzzy++
			case manifest.KindNonFood:
				stats.ItemsNonFood++
			case manifest.KindUnmatched:
				stats.ItemsUnmatched++
			}
		}

		p.resolver.ResolveRow(row, rev)
		classify.Row(row)
	}

	return Result{Rows: rows, Review: rev, Stats: stats}, nil
}
