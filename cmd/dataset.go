package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/dashboard"
	"github.com/sells-group/inetdash/internal/fetcher"
	"github.com/sells-group/inetdash/internal/store"
)

const fromSnapshotFlag = "from-snapshot"

func addFromSnapshotFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(fromSnapshotFlag, false, "load the latest stored snapshot instead of the raw sources")
}

func newSourceOpener() *fetcher.SourceOpener {
	return fetcher.NewSourceOpener(
		fetcher.HTTPOptions{
			UserAgent:  cfg.Fetch.UserAgent,
			Timeout:    cfg.Fetch.Timeout(),
			MaxRetries: cfg.Fetch.MaxRetries,
		},
		fetcher.FTPOptions{Timeout: cfg.Fetch.Timeout()},
	)
}

func dataSources() dashboard.Sources {
	return dashboard.Sources{
		Usage:       cfg.Data.UsageSource,
		Geometry:    cfg.Data.GeometrySource,
		UsageColumn: cfg.Data.UsageColumn,
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	if err := cfg.Validate("snapshot"); err != nil {
		return nil, err
	}
	return store.New(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}

// loadDataset builds the dataset for cmd, either from the raw sources or,
// with --from-snapshot, from the newest stored snapshot.
func loadDataset(cmd *cobra.Command) (*dashboard.Dataset, error) {
	ctx := cmd.Context()

	// Commands without the flag always read the raw sources.
	useSnapshot, _ := cmd.Flags().GetBool(fromSnapshotFlag)

	var (
		ds  *dashboard.Dataset
		err error
	)
	if useSnapshot {
		ds, err = loadFromSnapshot(ctx)
	} else {
		if err := cfg.Validate("load"); err != nil {
			return nil, err
		}
		ds, err = dashboard.Load(ctx, newSourceOpener(), dataSources())
	}
	if err != nil {
		return nil, err
	}

	for _, w := range ds.Warnings {
		zap.L().Warn("dataset warning", zap.String("warning", w))
	}
	return ds, nil
}

func loadFromSnapshot(ctx context.Context) (*dashboard.Dataset, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load latest snapshot")
	}
	if snap == nil {
		return nil, eris.New("no snapshots stored; run `inetdash snapshot save` first")
	}

	zap.L().Info("loaded snapshot",
		zap.String("snapshot_id", snap.ID),
		zap.Int("records", len(snap.Records)),
		zap.Int("centroids", len(snap.Centroids)),
	)
	return dashboard.FromSnapshot(snap), nil
}
