// Package store persists dataset snapshots so the dashboard can start from a
// stored copy instead of re-reading its sources.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/inetdash/internal/model"
)

// Store defines the snapshot persistence interface.
type Store interface {
	// SaveSnapshot persists snap. An empty ID or zero CreatedAt is filled in.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error
	// LatestSnapshot returns the newest snapshot, or nil when none exist.
	LatestSnapshot(ctx context.Context) (*model.Snapshot, error)
	// GetSnapshot returns the snapshot with id, or nil when it does not exist.
	GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error)
	// ListSnapshots returns snapshot descriptions, newest first.
	ListSnapshots(ctx context.Context, limit int) ([]model.SnapshotInfo, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// New opens the store for driver and runs its migration.
func New(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(driver) {
	case DriverSQLite, "sqlite3", "":
		st, err = NewSQLite(dsn)
	case DriverPostgres, "postgresql", "pgx":
		st, err = NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// prepare fills in the snapshot ID and creation time when unset.
func prepare(snap *model.Snapshot) {
	if snap.ID == "" {
		snap.ID = uuid.New().String()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
}

const defaultListLimit = 50

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}

// recordRow flattens a usage record for insertion. Missing values stay nil.
func recordRow(snapshotID string, seq int, r model.UsageRecord) []any {
	var year, usage any
	if r.Year != nil {
		year = *r.Year
	}
	if r.Usage != nil {
		usage = *r.Usage
	}
	return []any{snapshotID, seq, r.Entity, r.Code, year, usage}
}

func centroidRow(snapshotID string, seq int, c model.CountryCentroid) []any {
	return []any{snapshotID, seq, c.Code, c.Lat, c.Lon}
}

var (
	recordColumns   = []string{"snapshot_id", "seq", "entity", "code", "year", "usage"}
	centroidColumns = []string{"snapshot_id", "seq", "code", "lat", "lon"}
)
