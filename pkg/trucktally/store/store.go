// Package store defines the result sink: persistence of pipeline runs,
// enriched truck rows, daily totals, and review entries.
package store

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the interface for persisting pipeline output.
type Store interface {
	Close() error

	// Runs
	CreateRun(ctx context.Context, r Run) error
	GetRun(ctx context.Context, id string) (Run, bool, error)

	// Results
	SaveTrucks(ctx context.Context, runID string, trucks []Truck) error
	GetTrucks(ctx context.Context, runID string) ([]Truck, error)
	SaveDailyTotals(ctx context.Context, runID string, totals []DailyTotal) error
	GetDailyTotals(ctx context.Context, runID string) ([]DailyTotal, error)

	// Review side outputs
	SaveReviewEntries(ctx context.Context, runID string, items, units []string) error
	GetReviewEntries(ctx context.Context, runID string) (items, units []string, err error)
}

// Run is one pipeline invocation.
type Run struct {
	ID             string
	StartedAt      time.Time
	RowsProcessed  int
	RowsFiltered   int
	ItemsCorrected int
	ItemsUnmatched int
}

// Truck is one enriched manifest row in its persisted form.
type Truck struct {
	ID            int64
	Unit          string
	UnitRaw       string
	Quantity      float64
	DonationType  string
	Crossing      string
	Donor         string
	Date          *time.Time
	Items         []Item
	TruckWeightKg float64
	TruckFoodKg   float64
	TruckKcal     float64
	ItemCount     int
	FoodItemCount int
	TruckType     string
	Sector        string
}

// Item is one persisted cargo component.
type Item struct {
	Text      string
	Kind      string
	Canonical string
	WeightKg  float64
	Kcal      float64
}

// DailyTotal is one persisted day roll-up. Date is empty for the undated
// bucket.
type DailyTotal struct {
	Date          string
	Trucks        int
	Kcal          float64
	FoodMT        float64
	MT            float64
	FoodTrucks    int
	NonFoodTrucks int
	MixedTrucks   int
	Humanitarian  int
	KeremShalom   int
	Rafah         int
}

// IDGenerator issues monotonic ULIDs for run IDs.
type IDGenerator struct {
	entropy *ulid.MonotonicEntropy
}

// NewIDGenerator creates an IDGenerator.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewRunID returns a fresh run ID.
func (g *IDGenerator) NewRunID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
