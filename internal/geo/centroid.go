// Package geo derives one representative point per country from boundary
// geometries (GeoJSON feature collections or ESRI shapefiles).
package geo

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/inetdash/internal/model"
)

// CentroidOf returns the arithmetic mean of the exterior-ring vertices of g.
// For a MultiPolygon the polygon with the most exterior-ring vertices is
// used; the first one wins ties. Only Polygon and MultiPolygon are
// supported. The result is not an area-weighted centroid.
func CentroidOf(g geom.T) (model.LatLon, bool) {
	var poly *geom.Polygon
	switch t := g.(type) {
	case *geom.Polygon:
		poly = t
	case *geom.MultiPolygon:
		poly = largestPolygon(t)
	default:
		return model.LatLon{}, false
	}
	if poly == nil || poly.NumLinearRings() == 0 {
		return model.LatLon{}, false
	}
	return ringMean(poly.LinearRing(0))
}

// largestPolygon picks the polygon whose exterior ring has the most vertices.
// Vertex count stands in for "main landmass"; no area is computed.
func largestPolygon(mp *geom.MultiPolygon) *geom.Polygon {
	var (
		best      *geom.Polygon
		bestCount = -1
	)
	for i := 0; i < mp.NumPolygons(); i++ {
		p := mp.Polygon(i)
		n := 0
		if p.NumLinearRings() > 0 {
			n = p.LinearRing(0).NumCoords()
		}
		if n > bestCount {
			best, bestCount = p, n
		}
	}
	return best
}

func ringMean(ring *geom.LinearRing) (model.LatLon, bool) {
	n := ring.NumCoords()
	if n == 0 {
		return model.LatLon{}, false
	}
	var sumX, sumY float64
	for i := 0; i < n; i++ {
		c := ring.Coord(i)
		sumX += c.X()
		sumY += c.Y()
	}
	return model.LatLon{Lat: sumY / float64(n), Lon: sumX / float64(n)}, true
}

// centroidTable keeps centroids in first-occurrence order. A repeated code
// overwrites the earlier value in place.
type centroidTable struct {
	index map[string]int
	rows  []model.CountryCentroid
}

func newCentroidTable() *centroidTable {
	return &centroidTable{index: make(map[string]int)}
}

func (t *centroidTable) put(code string, p model.LatLon) {
	c := model.CountryCentroid{Code: code, Lat: p.Lat, Lon: p.Lon}
	if i, ok := t.index[code]; ok {
		t.rows[i] = c
		return
	}
	t.index[code] = len(t.rows)
	t.rows = append(t.rows, c)
}

func (t *centroidTable) centroids() []model.CountryCentroid {
	return t.rows
}
