// Package review accumulates the data-quality side outputs of a run: every
// item description and unit string the pipeline could not resolve. These
// collections are the human-in-the-loop quality gate; nothing may fail to
// match without surfacing here.
package review

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Collector is an explicit accumulator passed through the matching and
// resolving stages. Entries are deduplicated. The lock keeps it safe if a
// caller chooses to process rows in parallel.
type Collector struct {
	mu    sync.Mutex
	items map[string]struct{}
	units map[string]struct{}
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		items: make(map[string]struct{}),
		units: make(map[string]struct{}),
	}
}

// AddItem records an item description that failed to resolve.
func (c *Collector) AddItem(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	c.items[text] = struct{}{}
	c.mu.Unlock()
}

// AddUnit records a unit string the resolver did not recognize.
func (c *Collector) AddUnit(unit string) {
	if unit == "" {
		return
	}
	c.mu.Lock()
	c.units[unit] = struct{}{}
	c.mu.Unlock()
}

// Items returns the unmatched item descriptions, lexicographically sorted.
func (c *Collector) Items() []string { return sortedKeys(c.items, &c.mu) }

// Units returns the unmatched unit strings, lexicographically sorted.
func (c *Collector) Units() []string { return sortedKeys(c.units, &c.mu) }

func sortedKeys(set map[string]struct{}, mu *sync.Mutex) []string {
	mu.Lock()
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	mu.Unlock()
	sort.Strings(out)
	return out
}

// Writer persists one named review list to a destination (file, DB, etc.).
type Writer interface {
	WriteList(ctx context.Context, name string, entries []string) error
}

// FileWriter writes review lists as text files under Dir, one entry per line.
type FileWriter struct {
	Dir string
}

// Path returns where a named list is written.
func (w FileWriter) Path(name string) string {
	return filepath.Join(w.Dir, name+".txt")
}

// WriteList implements Writer.
func (w FileWriter) WriteList(ctx context.Context, name string, entries []string) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("review dir: %w", err)
	}
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(w.Path(name), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// List names used by Export.
const (
	UnmatchedItemsList = "unmatched_items"
	UnmatchedUnitsList = "unmatched_units"
)

// Exporter renders a collector's contents through a Writer.
type Exporter struct {
	Writer Writer
}

// Export writes both review lists.
func (e *Exporter) Export(ctx context.Context, c *Collector) error {
	if e.Writer == nil {
		return fmt.Errorf("review exporter: nil writer")
	}
	if err := e.Writer.WriteList(ctx, UnmatchedItemsList, c.Items()); err != nil {
		return err
	}
	return e.Writer.WriteList(ctx, UnmatchedUnitsList, c.Units())
}
