package geo

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/inetdash/internal/model"
)

// CodeProperty is the feature property holding the ISO3 country code.
const CodeProperty = "ISO_A3"

// FeatureCollection is the part of a GeoJSON feature collection read for
// centroid extraction. Geometries stay undecoded until a feature is used.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature.
type Feature struct {
	Properties map[string]any    `json:"properties"`
	Geometry   *geojson.Geometry `json:"geometry"`
}

// Code returns the trimmed ISO_A3 property, or "" when it is absent or not a string.
func (f Feature) Code() string {
	v, ok := f.Properties[CodeProperty].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// DecodeFeatureCollection parses a GeoJSON feature collection.
func DecodeFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}
	return &fc, nil
}

// ExtractCentroids computes one centroid per ISO_A3 code. Features without a
// code, with a geometry other than Polygon/MultiPolygon, or with undecodable
// coordinates are skipped.
func ExtractCentroids(fc *FeatureCollection) []model.CountryCentroid {
	table := newCentroidTable()
	if fc == nil {
		return table.centroids()
	}

	var skipped int
	for i, f := range fc.Features {
		code := f.Code()
		if code == "" || f.Geometry == nil {
			skipped++
			continue
		}
		if f.Geometry.Type != "Polygon" && f.Geometry.Type != "MultiPolygon" {
			skipped++
			continue
		}

		g, err := f.Geometry.Decode()
		if err != nil {
			zap.L().Debug("geo: skipping undecodable geometry",
				zap.Int("feature", i), zap.String("code", code), zap.Error(err))
			skipped++
			continue
		}

		p, ok := CentroidOf(g)
		if !ok {
			skipped++
			continue
		}
		table.put(code, p)
	}

	if skipped > 0 {
		zap.L().Debug("geo: skipped features without usable geometry",
			zap.Int("skipped", skipped),
			zap.Int("features", len(fc.Features)),
		)
	}

	return table.centroids()
}
