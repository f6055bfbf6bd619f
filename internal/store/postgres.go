package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/db"
	"github.com/sells-group/inetdash/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id              TEXT PRIMARY KEY,
	usage_source    TEXT NOT NULL,
	geometry_source TEXT NOT NULL,
	record_count    INTEGER NOT NULL,
	centroid_count  INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshot_records (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	entity      TEXT NOT NULL,
	code        TEXT NOT NULL,
	year        INTEGER,
	usage       DOUBLE PRECISION,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE TABLE IF NOT EXISTS snapshot_centroids (
	snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
	seq         INTEGER NOT NULL,
	code        TEXT NOT NULL,
	lat         DOUBLE PRECISION NOT NULL,
	lon         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (snapshot_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);
`

// Migrate creates the snapshot tables.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// SaveSnapshot inserts the snapshot header and COPYs its payload in one transaction.
func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	prepare(snap)

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin")
	}

	if err := s.saveSnapshotTx(ctx, tx, snap); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			zap.L().Warn("postgres: rollback snapshot", zap.String("snapshot_id", snap.ID), zap.Error(rbErr))
		}
		return err
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit snapshot")
}

func (s *PostgresStore) saveSnapshotTx(ctx context.Context, tx pgx.Tx, snap *model.Snapshot) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO snapshots (id, usage_source, geometry_source, record_count, centroid_count, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		snap.ID, snap.UsageSource, snap.GeometrySource, len(snap.Records), len(snap.Centroids), snap.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert snapshot %s", snap.ID)
	}

	recRows := make([][]any, len(snap.Records))
	for i, r := range snap.Records {
		recRows[i] = recordRow(snap.ID, i, r)
	}
	if _, err := db.CopyFrom(ctx, tx, "snapshot_records", recordColumns, recRows); err != nil {
		return eris.Wrap(err, "postgres: copy records")
	}

	cenRows := make([][]any, len(snap.Centroids))
	for i, c := range snap.Centroids {
		cenRows[i] = centroidRow(snap.ID, i, c)
	}
	if _, err := db.CopyFrom(ctx, tx, "snapshot_centroids", centroidColumns, cenRows); err != nil {
		return eris.Wrap(err, "postgres: copy centroids")
	}
	return nil
}

// LatestSnapshot returns the newest snapshot, or nil when the store is empty.
func (s *PostgresStore) LatestSnapshot(ctx context.Context) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, usage_source, geometry_source, created_at FROM snapshots ORDER BY created_at DESC LIMIT 1`)
	return s.loadSnapshot(ctx, row)
}

// GetSnapshot returns the snapshot with id, or nil when it does not exist.
func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*model.Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, usage_source, geometry_source, created_at FROM snapshots WHERE id = $1`, id)
	return s.loadSnapshot(ctx, row)
}

func (s *PostgresStore) loadSnapshot(ctx context.Context, row pgx.Row) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := row.Scan(&snap.ID, &snap.UsageSource, &snap.GeometrySource, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: get snapshot")
	}

	var err error
	if snap.Records, err = s.loadRecords(ctx, snap.ID); err != nil {
		return nil, err
	}
	if snap.Centroids, err = s.loadCentroids(ctx, snap.ID); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *PostgresStore) loadRecords(ctx context.Context, id string) ([]model.UsageRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT entity, code, year, usage FROM snapshot_records WHERE snapshot_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query records %s", id)
	}
	defer rows.Close()

	records := make([]model.UsageRecord, 0)
	for rows.Next() {
		var r model.UsageRecord
		if err := rows.Scan(&r.Entity, &r.Code, &r.Year, &r.Usage); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r.Date = model.DateForYear(r.Year)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: iterate records")
}

func (s *PostgresStore) loadCentroids(ctx context.Context, id string) ([]model.CountryCentroid, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT code, lat, lon FROM snapshot_centroids WHERE snapshot_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query centroids %s", id)
	}
	defer rows.Close()

	centroids := make([]model.CountryCentroid, 0)
	for rows.Next() {
		var c model.CountryCentroid
		if err := rows.Scan(&c.Code, &c.Lat, &c.Lon); err != nil {
			return nil, eris.Wrap(err, "postgres: scan centroid")
		}
		centroids = append(centroids, c)
	}
	return centroids, eris.Wrap(rows.Err(), "postgres: iterate centroids")
}

// ListSnapshots returns up to limit snapshot descriptions, newest first.
func (s *PostgresStore) ListSnapshots(ctx context.Context, limit int) ([]model.SnapshotInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, usage_source, geometry_source, record_count, centroid_count, created_at
		 FROM snapshots ORDER BY created_at DESC LIMIT $1`, listLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	infos := make([]model.SnapshotInfo, 0)
	for rows.Next() {
		var info model.SnapshotInfo
		if err := rows.Scan(&info.ID, &info.UsageSource, &info.GeometrySource,
			&info.RecordCount, &info.CentroidCount, &info.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		infos = append(infos, info)
	}
	return infos, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}
