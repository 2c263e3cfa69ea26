package match

import (
	"testing"

	"github.com/foodsec/trucktally/pkg/trucktally/manifest"
	"github.com/foodsec/trucktally/pkg/trucktally/reference"
	"github.com/foodsec/trucktally/pkg/trucktally/review"
)

func testTable() *reference.Table {
	return reference.NewTable(map[string]reference.Entry{
		"lentils":     {FoodItem: "lentils", KcalPerKg: 3400},
		"rice":        {FoodItem: "rice", KcalPerKg: 3600},
		"wheat flour": {FoodItem: "wheat flour", KcalPerKg: 3640},
		"noodles":     {FoodItem: "noodles", KcalPerKg: 3500},
	})
}

func strptr(s string) *string { return &s }

func testMatcher() *Matcher {
	return New(Options{
		Reference: testTable(),
		NonFood:   []string{"mats", "tents", "blankets", "medicines"},
		Aliases: map[string]*string{
			"lentis":          strptr("lentils"),
			"vermicelli":      strptr("noodles"),
			"school supplies": nil,
		},
	})
}

func TestResolveExact(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	res := m.Resolve("lentils", rev)
	if res.Kind != manifest.KindExact {
		t.Fatalf("kind = %q, want exact", res.Kind)
	}
	if res.Canonical != "lentils" {
		t.Errorf("canonical = %q, want lentils", res.Canonical)
	}
}

func TestResolveNonFood(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	for _, text := range []string{"tents", "tent", "Blankets"} {
		res := m.Resolve(text, rev)
		if res.Kind != manifest.KindNonFood {
			t.Errorf("Resolve(%q) = %q, want non-food", text, res.Kind)
		}
	}
	if len(rev.Items()) != 0 {
		t.Error("non-food set hits should not be recorded for review")
	}
}

func TestResolveAlias(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	res := m.Resolve("lentis", rev)
	if res.Kind != manifest.KindAlias {
		t.Fatalf("kind = %q, want alias", res.Kind)
	}
	if res.Canonical != "lentils" {
		t.Errorf("canonical = %q, want lentils", res.Canonical)
	}

	res = m.Resolve("vermicelli", rev)
	if res.Kind != manifest.KindAlias || res.Canonical != "noodles" {
		t.Errorf("vermicelli resolved to %q/%q, want alias/noodles", res.Kind, res.Canonical)
	}
}

func TestResolveAliasNullTargetIsNonFood(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	res := m.Resolve("school supplies", rev)
	if res.Kind != manifest.KindNonFood {
		t.Fatalf("kind = %q, want non-food", res.Kind)
	}
	// Alias-declared non-food must surface for operator review.
	items := rev.Items()
	if len(items) != 1 || items[0] != "school supplies" {
		t.Errorf("review items = %v, want [school supplies]", items)
	}
}

func TestResolveOrderNonFoodBeatsAlias(t *testing.T) {
	// A term present in both the non-food set and the alias table must
	// resolve via the non-food rule.
	m := New(Options{
		Reference: testTable(),
		NonFood:   []string{"tarps"},
		Aliases:   map[string]*string{"tarps": strptr("wheat flour")},
	})
	rev := review.NewCollector()

	res := m.Resolve("tarps", rev)
	if res.Kind != manifest.KindNonFood {
		t.Fatalf("kind = %q, want non-food (set precedes aliases)", res.Kind)
	}
	if res.Canonical != "" {
		t.Errorf("canonical = %q, want empty", res.Canonical)
	}
}

func TestResolveFuzzy(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	// "lentil" is one edit from the reference key "lentils".
	res := m.Resolve("lentil", rev)
	if res.Kind != manifest.KindFuzzy {
		t.Fatalf("kind = %q, want fuzzy", res.Kind)
	}
	if res.Canonical != "lentils" {
		t.Errorf("canonical = %q, want lentils", res.Canonical)
	}
	if res.Score < m.Cutoff() {
		t.Errorf("score %v below cutoff %v", res.Score, m.Cutoff())
	}
}

func TestResolveUnmatchedIsRecorded(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	res := m.Resolve("hydraulic pump", rev)
	if res.Kind != manifest.KindUnmatched {
		t.Fatalf("kind = %q, want unmatched", res.Kind)
	}
	items := rev.Items()
	if len(items) != 1 || items[0] != "hydraulic pump" {
		t.Errorf("review items = %v, want [hydraulic pump]", items)
	}
}

func TestResolveEmptyText(t *testing.T) {
	m := testMatcher()
	rev := review.NewCollector()

	res := m.Resolve("   ", rev)
	if res.Kind != manifest.KindNone {
		t.Errorf("kind = %q, want none", res.Kind)
	}
	if len(rev.Items()) != 0 {
		t.Error("empty text should not be recorded")
	}
}

func TestFuzzyTieBreakIsDeterministic(t *testing.T) {
	table := reference.NewTable(map[string]reference.Entry{
		"aaaa": {FoodItem: "aaaa", KcalPerKg: 100},
		"aaab": {FoodItem: "aaab", KcalPerKg: 200},
	})
	m := New(Options{Reference: table, FuzzyCutoff: 0.7})

	// "aaac" scores 0.75 against both keys; the tie must resolve to the
	// lexicographically smallest key, every time.
	for i := 0; i < 10; i++ {
		res := m.Resolve("aaac", review.NewCollector())
		if res.Kind != manifest.KindFuzzy || res.Canonical != "aaaa" {
			t.Fatalf("run %d: resolved to %q/%q, want fuzzy/aaaa", i, res.Kind, res.Canonical)
		}
	}
}

func TestCutoffStrictness(t *testing.T) {
	strict := New(Options{Reference: testTable(), FuzzyCutoff: 0.95})
	res := strict.Resolve("lentil", review.NewCollector())
	if res.Kind != manifest.KindUnmatched {
		t.Errorf("kind = %q, want unmatched under a 0.95 cutoff", res.Kind)
	}
}

func TestSingularize(t *testing.T) {
	cases := map[string]string{
		"lentils": "lentil",
		"mats":    "mat",
		"bus":     "bus", // length guard
		"s":       "s",
		"rice":    "rice",
	}
	for in, want := range cases {
		if got := Singularize(in); got != want {
			t.Errorf("Singularize(%q) = %q, want %q", in, got, want)
		}
	}
}
