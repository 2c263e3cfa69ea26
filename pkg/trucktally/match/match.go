// Package match resolves free-text cargo item descriptions against the
// nutrition reference table. Resolution runs in a fixed order (singularize,
// non-food membership, curated alias substitution, exact key lookup, then
// approximate similarity) and the order is load-bearing: alias and fuzzy
// matching can disagree, so earlier tiers always win.
package match

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
)

// DefaultFuzzyCutoff is the similarity threshold for approximate matches.
// Higher is stricter: fewer false positives, more unmatched items.
const DefaultFuzzyCutoff = 0.85

// Result describes how an item text resolved.
type Result struct {
	Kind      manifest.ItemKind
	Canonical string  // reference key, set for food kinds only
	Score     float64 // similarity score, set for fuzzy matches
}

// Matcher resolves item texts. It is immutable after construction and safe
// for concurrent use.
type Matcher struct {
	ref     *reference.Table
	nonFood map[string]struct{}
	aliases map[string]*string // nil target means "known non-food"
	cutoff  float64
	metric  *metrics.Levenshtein
}

// Options configures a Matcher.
type Options struct {
	Reference *reference.Table

	// NonFood lists known non-food cargo terms. Terms are singularized the
	// same way item texts are, so plural and singular spellings both hit.
	NonFood []string

	// Aliases maps known misspellings/synonyms to canonical reference
	// names. A nil target marks the key as non-food despite not being in
	// the non-food set.
	Aliases map[string]*string

	// FuzzyCutoff overrides DefaultFuzzyCutoff when > 0.
	FuzzyCutoff float64
}

// New creates a Matcher.
func New(opts Options) *Matcher {
	nonFood := make(map[string]struct{}, len(opts.NonFood))
	for _, term := range opts.NonFood {
		nonFood[Singularize(reference.Normalize(term))] = struct{}{}
	}

	aliases := make(map[string]*string, len(opts.Aliases))
	for key, target := range opts.Aliases {
		aliases[Singularize(reference.Normalize(key))] = target
	}

	cutoff := opts.FuzzyCutoff
	if cutoff <= 0 {
		cutoff = DefaultFuzzyCutoff
	}

	return &Matcher{
		ref:     opts.Reference,
		nonFood: nonFood,
		aliases: aliases,
		cutoff:  cutoff,
		metric:  metrics.NewLevenshtein(),
	}
}

// Cutoff returns the active similarity threshold.
func (m *Matcher) Cutoff() float64 { return m.cutoff }

// Resolve classifies one item text. Unmatched texts and alias-declared
// non-food texts are recorded into the collector so no failure is silent.
func (m *Matcher) Resolve(text string, rev *review.Collector) Result {
	name := Singularize(reference.Normalize(text))
	if name == "" {
		return Result{Kind: manifest.KindNone}
	}

	if _, ok := m.nonFood[name]; ok {
		return Result{Kind: manifest.KindNonFood}
	}

	kind := manifest.KindExact
	if target, ok := m.aliases[name]; ok {
		if target == nil {
			rev.AddItem(text)
			return Result{Kind: manifest.KindNonFood}
		}
		name = reference.Normalize(*target)
		kind = manifest.KindAlias
	}

	if entry, ok := m.ref.Lookup(name); ok {
		return Result{Kind: kind, Canonical: entry.FoodItem}
	}
	if kind == manifest.KindExact {
		// The reference keeps some keys in plural form ("lentils"), which
		// singularization would otherwise hide from the verbatim lookup.
		if entry, ok := m.ref.Lookup(text); ok {
			return Result{Kind: manifest.KindExact, Canonical: entry.FoodItem}
		}
	}

	if key, score, ok := m.closest(name); ok {
		return Result{Kind: manifest.KindFuzzy, Canonical: key, Score: score}
	}

	rev.AddItem(text)
	return Result{Kind: manifest.KindUnmatched}
}

// closest scans the reference keys for the best similarity at or above the
// cutoff. Keys are visited in sorted order and only a strictly greater
// score displaces the incumbent, so score ties resolve to the
// lexicographically smallest key and the same input always yields the
// same match within and across runs.
func (m *Matcher) closest(name string) (string, float64, bool) {
	var (
		bestKey   string
		bestScore float64
	)
	for _, key := range m.ref.Keys() {
		score := strutil.Similarity(name, key, m.metric)
		if score > bestScore {
			bestKey, bestScore = key, score
		}
	}
	if bestScore < m.cutoff {
		return "", 0, false
	}
	return bestKey, bestScore, true
}

// Singularize drops a trailing "s" from words longer than three characters.
// This is a heuristic, not a morphological analyzer: "bus" stays "bus" but
// "lens" becomes "len". Alias keys and non-food terms are run through the
// same rule, so both sides degrade consistently.
func Singularize(s string) string {
	if len(s) > 3 && strings.HasSuffix(s, "s") {
		return s[:len(s)-1]
	}
	return s
}
