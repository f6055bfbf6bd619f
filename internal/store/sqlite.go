package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/inetdash/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// sqliteTimeLayout sorts lexically in creation order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              TEXT PRIMARY KEY,
	usage_source    TEXT NOT NULL,
	geometry_source TEXT NOT NULL,
	record_count    INTEGER NOT NULL,
	centroid_count  INTEGER NOT NULL,
	created_at      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshot_records (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	entity      TEXT NOT NULL,
	code        TEXT NOT NULL,
	year        INTEGER,
	usage       REAL,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE TABLE IF NOT EXISTS snapshot_centroids (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	code        TEXT NOT NULL,
	lat         REAL NOT NULL,
	lon         REAL NOT NULL,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
`

// Migrate creates the snapshot tables.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores snap and its payload in one transaction.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	prepare(snap)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (id, usage_source, geometry_source, record_count, centroid_count, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.UsageSource, snap.GeometrySource, len(snap.Records), len(snap.Centroids),
		snap.CreatedAt.UTC().Format(sqliteTimeLayout),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert snapshot %s", snap.ID)
	}

	recStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_records (snapshot_id, seq, entity, code, year, usage) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare record insert")
	}
	defer recStmt.Close() //nolint:errcheck
	for i, r := range snap.Records {
		if _, err := recStmt.ExecContext(ctx, recordRow(snap.ID, i, r)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert record %d", i)
		}
	}

	cenStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_centroids (snapshot_id, seq, code, lat, lon) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare centroid insert")
	}
	defer cenStmt.Close() //nolint:errcheck
	for i, c := range snap.Centroids {
		if _, err := cenStmt.ExecContext(ctx, centroidRow(snap.ID, i, c)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert centroid %d", i)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit snapshot")
}

// LatestSnapshot returns the newest snapshot, or nil when the store is empty.
func (s *SQLiteStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, usage_source, geometry_source, created_at FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1`)
	return s.loadSnapshot(ctx, row)
}

// GetSnapshot returns the snapshot with id, or nil when it does not exist.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, usage_source, geometry_source, created_at FROM snapshots WHERE id = ?`, id)
	return s.loadSnapshot(ctx, row)
}

func (s *SQLiteStore) loadSnapshot(ctx context.Context, row *sql.Row) (*model.Snapshot, error) {
	var (
		snap    model.Snapshot
		created string
	)
	if err := row.Scan(&snap.ID, &snap.UsageSource, &snap.GeometrySource, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "sqlite: get snapshot")
	}
	t, err := time.Parse(sqliteTimeLayout, created)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse created_at %q", created)
	}
	snap.CreatedAt = t

	if snap.Records, err = s.loadRecords(ctx, snap.ID); err != nil {
		return nil, err
	}
	if snap.Centroids, err = s.loadCentroids(ctx, snap.ID); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *SQLiteStore) loadRecords(ctx context.Context, id string) ([]model.UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity, code, year, usage FROM snapshot_records WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query records %s", id)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]model.UsageRecord, 0)
	for rows.Next() {
		var (
			r     model.UsageRecord
			year  sql.NullInt64
			usage sql.NullFloat64
		)
		if err := rows.Scan(&r.Entity, &r.Code, &year, &usage); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan record")
		}
		if year.Valid {
			y := int(year.Int64)
			r.Year = &y
		}
		if usage.Valid {
			u := usage.Float64
			r.Usage = &u
		}
		r.Date = model.DateForYear(r.Year)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: iterate records")
}

func (s *SQLiteStore) loadCentroids(ctx context.Context, id string) ([]model.CountryCentroid, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code, lat, lon FROM snapshot_centroids WHERE snapshot_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query centroids %s", id)
	}
	defer rows.Close() //nolint:errcheck

	centroids := make([]model.CountryCentroid, 0)
	for rows.Next() {
		var c model.CountryCentroid
		if err := rows.Scan(&c.Code, &c.Lat, &c.Lon); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan centroid")
		}
		centroids = append(centroids, c)
	}
	return centroids, eris.Wrap(rows.Err(), "sqlite: iterate centroids")
}

// ListSnapshots returns up to limit snapshot descriptions, newest first.
func (s *SQLiteStore) ListSnapshots(ctx context.Context, limit int) ([]model.SnapshotInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, usage_source, geometry_source, record_count, centroid_count, created_at
		 FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close() //nolint:errcheck

	infos := make([]model.SnapshotInfo, 0)
	for rows.Next() {
		var (
			info    model.SnapshotInfo
			created string
		)
		if err := rows.Scan(&info.ID, &info.UsageSource, &info.GeometrySource,
			&info.RecordCount, &info.CentroidCount, &created); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		if info.CreatedAt, err = time.Parse(sqliteTimeLayout, created); err != nil {
			return nil, eris.Wrapf(err, "sqlite: parse created_at %q", created)
		}
		infos = append(infos, info)
	}
	return infos, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}
