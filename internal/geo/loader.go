package geo

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/fetcher"
	"github.com/sells-group/inetdash/internal/model"
)

// LoadCentroids reads the boundary source at location and returns its centroid
// table. A .shp location is read as a local shapefile, a .zip location as a
// zipped shapefile (local or remote); anything else is parsed as GeoJSON.
func LoadCentroids(ctx context.Context, opener fetcher.Opener, source string) ([]model.CountryCentroid, error) {
	log := zap.L().With(zap.String("component", "geo.loader"), zap.String("source", source))

	var (
		centroids []model.CountryCentroid
		err       error
	)
	switch sourceExt(source) {
	case ".shp":
		centroids, err = LoadShapefileCentroids(source)
	case ".zip":
		centroids, err = loadZippedShapefile(ctx, opener, source)
	default:
		centroids, err = loadGeoJSON(ctx, opener, source)
	}
	if err != nil {
		return nil, err
	}

	log.Info("country centroids loaded", zap.Int("centroids", len(centroids)))
	return centroids, nil
}

func loadGeoJSON(ctx context.Context, opener fetcher.Opener, source string) ([]model.CountryCentroid, error) {
	rc, err := opener.Open(ctx, source)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: open %s", source)
	}
	defer rc.Close() //nolint:errcheck

	fc, err := DecodeFeatureCollection(rc)
	if err != nil {
		return nil, err
	}
	return ExtractCentroids(fc), nil
}

func loadZippedShapefile(ctx context.Context, opener fetcher.Opener, source string) ([]model.CountryCentroid, error) {
	tempDir, err := os.MkdirTemp("", "inetdash-shp-*")
	if err != nil {
		return nil, eris.Wrap(err, "geo: create temp dir")
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	zipPath := filepath.Join(tempDir, "boundaries.zip")
	if err := copyToFile(ctx, opener, source, zipPath); err != nil {
		return nil, err
	}

	extractDir := filepath.Join(tempDir, "shp")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "geo: create extract dir")
	}
	if err := extractZIP(zipPath, extractDir); err != nil {
		return nil, eris.Wrap(err, "geo: extract shapefile ZIP")
	}

	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return nil, eris.Wrap(err, "geo: find .shp file")
	}
	return LoadShapefileCentroids(shpPath)
}

// copyToFile copies a source into a local file.
func copyToFile(ctx context.Context, opener fetcher.Opener, source, dest string) error {
	rc, err := opener.Open(ctx, source)
	if err != nil {
		return eris.Wrapf(err, "geo: open %s", source)
	}
	defer rc.Close() //nolint:errcheck

	f, err := os.Create(dest)
	if err != nil {
		return eris.Wrap(err, "geo: create file")
	}
	defer f.Close() //nolint:errcheck

	if _, err := io.Copy(f, rc); err != nil {
		return eris.Wrap(err, "geo: write file")
	}
	return nil
}

// extractZIP extracts a ZIP archive to the destination directory, flattening paths.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}

		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}

	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// sourceExt returns the lower-cased extension of a path or URL, ignoring any query string.
func sourceExt(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	return strings.ToLower(path.Ext(source))
}
