package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/dashboard"
	"github.com/sells-group/inetdash/internal/metrics"
	"github.com/sells-group/inetdash/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard page and its JSON API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		cmd.SetContext(ctx)

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ds, err := loadDataset(cmd)
		if err != nil {
			return err
		}

		cache := dashboard.NewViewCache(cfg.View.CacheEntries, cfg.View.CacheTTL())
		svc := dashboard.NewService(ds, cache, cfg.View.ZoomScale)

		m := metrics.New()
		m.WatchCache(func() (int64, int64, int) {
			st := cache.Stats()
			return st.Hits, st.Misses, st.Entries
		})

		srv := server.New(svc, m, server.Options{
			CORSOrigins: cfg.Server.CORSOrigins,
			RateLimit:   cfg.Server.RateLimit,
			RateBurst:   cfg.Server.RateBurst,
		})

		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		go reloadOnSignal(ctx, hup, func() (*dashboard.Dataset, error) { return loadDataset(cmd) }, srv)

		return srv.ListenAndServe(ctx, cfg.Server.Port)
	},
}

type datasetReloader interface {
	Reload(ds *dashboard.Dataset)
}

// reloadOnSignal rebuilds the dataset each time sig fires until ctx is done.
// A failed load keeps the current dataset.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, load func() (*dashboard.Dataset, error), r datasetReloader) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			ds, err := load()
			if err != nil {
				zap.L().Error("dataset reload failed; keeping current dataset", zap.Error(err))
				continue
			}
			r.Reload(ds)
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	addFromSnapshotFlag(serveCmd)
	rootCmd.AddCommand(serveCmd)
}
