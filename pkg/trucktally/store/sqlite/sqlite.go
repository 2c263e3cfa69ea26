package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foodsec/trucktally/pkg/trucktally/internalerr"
	"github.com/foodsec/trucktally/pkg/trucktally/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite database with WAL mode enabled and initializes the
// schema.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", internalerr.ErrStoreUnavailable, path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable WAL: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable foreign keys: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	rows_processed INTEGER NOT NULL,
	rows_filtered INTEGER NOT NULL,
	items_corrected INTEGER NOT NULL,
	items_unmatched INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS trucks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	unit TEXT,
	unit_raw TEXT,
	quantity REAL,
	donation_type TEXT,
	crossing TEXT,
	donor TEXT,
	received_date TEXT,
	truck_weight_kg REAL,
	truck_food_kg REAL,
	truck_kcal REAL,
	item_count INTEGER,
	food_item_count INTEGER,
	truck_type TEXT,
	sector TEXT,
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS truck_items (
	truck_id INTEGER NOT NULL,
	position INTEGER NOT NULL,
	text TEXT,
	kind TEXT,
	canonical TEXT,
	weight_kg REAL,
	kcal REAL,
	PRIMARY KEY(truck_id, position),
	FOREIGN KEY(truck_id) REFERENCES trucks(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS daily_totals (
	run_id TEXT NOT NULL,
	date TEXT NOT NULL,
	trucks INTEGER,
	kcal REAL,
	food_mt REAL,
	mt REAL,
	food_trucks INTEGER,
	nonfood_trucks INTEGER,
	mixed_trucks INTEGER,
	humanitarian INTEGER,
	kerem_shalom INTEGER,
	rafah INTEGER,
	PRIMARY KEY(run_id, date),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS review_entries (
	run_id TEXT NOT NULL,
	kind TEXT NOT NULL,
	entry TEXT NOT NULL,
	PRIMARY KEY(run_id, kind, entry),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_trucks_run ON trucks(run_id);
CREATE INDEX IF NOT EXISTS idx_daily_run ON daily_totals(run_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateRun inserts a run record.
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, rows_processed, rows_filtered, items_corrected, items_unmatched)
		VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.RowsProcessed, r.RowsFiltered, r.ItemsCorrected, r.ItemsUnmatched)
	return err
}

// GetRun returns a run by ID.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var (
		r         store.Run
		startedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, rows_processed, rows_filtered, items_corrected, items_unmatched
		FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &startedAt, &r.RowsProcessed, &r.RowsFiltered, &r.ItemsCorrected, &r.ItemsUnmatched)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	if ts, perr := time.Parse(time.RFC3339, startedAt); perr == nil {
		r.StartedAt = ts
	}
	return r, true, nil
}

// SaveTrucks persists enriched rows and their items in one transaction.
func (s *sqliteStore) SaveTrucks(ctx context.Context, runID string, trucks []store.Truck) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, t := range trucks {
		var date any
		if t.Date != nil {
			date = t.Date.Format("2006-01-02")
		}
		res, err := tx.ExecContext(ctx, `
			INSERT INTO trucks (run_id, unit, unit_raw, quantity, donation_type, crossing, donor,
				received_date, truck_weight_kg, truck_food_kg, truck_kcal, item_count,
				food_item_count, truck_type, sector)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, t.Unit, t.UnitRaw, t.Quantity, t.DonationType, t.Crossing, t.Donor,
			date, t.TruckWeightKg, t.TruckFoodKg, t.TruckKcal, t.ItemCount,
			t.FoodItemCount, t.TruckType, t.Sector)
		if err != nil {
			return err
		}
		truckID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for pos, it := range t.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO truck_items (truck_id, position, text, kind, canonical, weight_kg, kcal)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				truckID, pos, it.Text, it.Kind, it.Canonical, it.WeightKg, it.Kcal); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetTrucks returns a run's enriched rows with their items.
func (s *sqliteStore) GetTrucks(ctx context.Context, runID string) ([]store.Truck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, unit, unit_raw, quantity, donation_type, crossing, donor, received_date,
			truck_weight_kg, truck_food_kg, truck_kcal, item_count, food_item_count,
			truck_type, sector
		FROM trucks WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trucks []store.Truck
	for rows.Next() {
		var (
			t    store.Truck
			date sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Unit, &t.UnitRaw, &t.Quantity, &t.DonationType,
			&t.Crossing, &t.Donor, &date, &t.TruckWeightKg, &t.TruckFoodKg,
			&t.TruckKcal, &t.ItemCount, &t.FoodItemCount, &t.TruckType, &t.Sector); err != nil {
			return nil, err
		}
		if date.Valid {
			if ts, perr := time.Parse("2006-01-02", date.String); perr == nil {
				t.Date = &ts
			}
		}
		trucks = append(trucks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range trucks {
		items, err := s.truckItems(ctx, trucks[i].ID)
		if err != nil {
			return nil, err
		}
		trucks[i].Items = items
	}
	return trucks, nil
}

func (s *sqliteStore) truckItems(ctx context.Context, truckID int64) ([]store.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT text, kind, canonical, weight_kg, kcal
		FROM truck_items WHERE truck_id = ? ORDER BY position`, truckID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []store.Item
	for rows.Next() {
		var it store.Item
		if err := rows.Scan(&it.Text, &it.Kind, &it.Canonical, &it.WeightKg, &it.Kcal); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveDailyTotals persists a run's daily roll-ups.
func (s *sqliteStore) SaveDailyTotals(ctx context.Context, runID string, totals []store.DailyTotal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, d := range totals {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO daily_totals (run_id, date, trucks, kcal, food_mt, mt,
				food_trucks, nonfood_trucks, mixed_trucks, humanitarian, kerem_shalom, rafah)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, d.Date, d.Trucks, d.Kcal, d.FoodMT, d.MT,
			d.FoodTrucks, d.NonFoodTrucks, d.MixedTrucks, d.Humanitarian, d.KeremShalom, d.Rafah); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetDailyTotals returns a run's daily roll-ups ordered by date.
func (s *sqliteStore) GetDailyTotals(ctx context.Context, runID string) ([]store.DailyTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, trucks, kcal, food_mt, mt, food_trucks, nonfood_trucks, mixed_trucks,
			humanitarian, kerem_shalom, rafah
		FROM daily_totals WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []store.DailyTotal
	for rows.Next() {
		var d store.DailyTotal
		if err := rows.Scan(&d.Date, &d.Trucks, &d.Kcal, &d.FoodMT, &d.MT,
			&d.FoodTrucks, &d.NonFoodTrucks, &d.MixedTrucks, &d.Humanitarian,
			&d.KeremShalom, &d.Rafah); err != nil {
			return nil, err
		}
		totals = append(totals, d)
	}
	return totals, rows.Err()
}

// SaveReviewEntries persists the deduplicated review lists.
func (s *sqliteStore) SaveReviewEntries(ctx context.Context, runID string, items, units []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	insert := func(kind string, entries []string) error {
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, `
				INSERT OR IGNORE INTO review_entries (run_id, kind, entry) VALUES (?, ?, ?)`,
				runID, kind, e); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert("item", items); err != nil {
		return err
	}
	if err := insert("unit", units); err != nil {
		return err
	}
	return tx.Commit()
}

// GetReviewEntries returns a run's review lists, sorted.
func (s *sqliteStore) GetReviewEntries(ctx context.Context, runID string) ([]string, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, entry FROM review_entries WHERE run_id = ? ORDER BY kind, entry`, runID)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var items, units []string
	for rows.Next() {
		var kind, entry string
		if err := rows.Scan(&kind, &entry); err != nil {
			return nil, nil, err
		}
		switch kind {
		case "item":
			items = append(items, entry)
		case "unit":
			units = append(units, entry)
		}
	}
	return items, units, rows.Err()
}
