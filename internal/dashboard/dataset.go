package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/inetdash/internal/fetcher"
	"github.com/sells-group/inetdash/internal/geo"
	"github.com/sells-group/inetdash/internal/model"
	"github.com/sells-group/inetdash/internal/usage"
)

// Sources names the two inputs of a dataset.
type Sources struct {
	Usage       string
	Geometry    string
	UsageColumn string
}

// Dataset is the loaded, joined data. It is read-only after construction and
// safe to share between goroutines.
type Dataset struct {
	Sources    Sources
	Records    []model.UsageRecord
	Centroids  []model.CountryCentroid
	Joined     []model.JoinedRecord
	Entities   []string
	ColorRange model.ColorRange
	Warnings   []string
	LoadedAt   time.Time
}

// NewDataset joins records with centroids and precomputes the entity list and
// the global color range.
func NewDataset(src Sources, records []model.UsageRecord, centroids []model.CountryCentroid, warnings ...string) *Dataset {
	joined := Join(records, centroids)
	if warnings == nil {
		warnings = []string{}
	}
	return &Dataset{
		Sources:    src,
		Records:    records,
		Centroids:  centroids,
		Joined:     joined,
		Entities:   Entities(records),
		ColorRange: ColorRangeOf(joined),
		Warnings:   warnings,
		LoadedAt:   time.Now().UTC(),
	}
}

// FromSnapshot rebuilds a dataset from a stored snapshot.
func FromSnapshot(snap *model.Snapshot) *Dataset {
	ds := NewDataset(Sources{Usage: snap.UsageSource, Geometry: snap.GeometrySource}, snap.Records, snap.Centroids)
	if len(snap.Centroids) == 0 {
		ds.Warnings = append(ds.Warnings, "snapshot "+snap.ID+" has no country centroids; map zoom is disabled")
	}
	ds.LoadedAt = snap.CreatedAt
	return ds
}

// Load reads both sources concurrently and joins them. A usage failure is
// returned as an error. A geometry failure only adds a warning and leaves the
// centroid table empty.
func Load(ctx context.Context, opener fetcher.Opener, src Sources) (*Dataset, error) {
	log := zap.L().With(zap.String("component", "dashboard.load"))

	var (
		records   []model.UsageRecord
		centroids []model.CountryCentroid
		warnings  []string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rc, err := opener.Open(gctx, src.Usage)
		if err != nil {
			return eris.Wrapf(err, "dashboard: open usage source %s", src.Usage)
		}
		defer rc.Close() //nolint:errcheck

		records, err = usage.Load(gctx, rc, usage.Options{UsageColumn: src.UsageColumn})
		if err != nil {
			return eris.Wrapf(err, "dashboard: load usage source %s", src.Usage)
		}
		return nil
	})

	// Geometry failures are reported as warnings so they never cancel the usage load.
	g.Go(func() error {
		c, err := geo.LoadCentroids(gctx, opener, src.Geometry)
		if err != nil {
			w := geometryWarning(src.Geometry, err)
			log.Warn(w, zap.Error(err))
			warnings = append(warnings, w)
			return nil
		}
		centroids = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := NewDataset(src, records, centroids, warnings...)
	log.Info("dataset loaded",
		zap.Int("records", len(ds.Records)),
		zap.Int("centroids", len(ds.Centroids)),
		zap.Int("entities", len(ds.Entities)-1),
		zap.Int("warnings", len(ds.Warnings)),
	)
	return ds, nil
}

func geometryWarning(source string, err error) string {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Sprintf("geometry file %s not found; map zoom is disabled", source)
	}
	return fmt.Sprintf("geometry source %s could not be loaded (%v); map zoom is disabled", source, err)
}

// View returns the view model for sel using the precomputed color range.
// ZoomScale is set only when the view has a zoom target.
func (d *Dataset) View(sel model.Selection, zoomScale float64) model.ViewModel {
	vm := applyWithRange(d.Joined, sel, d.ColorRange)
	if vm.ZoomTarget != nil {
		vm.ZoomScale = zoomScale
	}
	return vm
}

// Snapshot captures the dataset's source tables for persistence.
func (d *Dataset) Snapshot(id string, createdAt time.Time) *model.Snapshot {
	return &model.Snapshot{
		ID:             id,
		UsageSource:    d.Sources.Usage,
		GeometrySource: d.Sources.Geometry,
		Records:        d.Records,
		Centroids:      d.Centroids,
		CreatedAt:      createdAt,
	}
}
