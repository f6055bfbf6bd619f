package geo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type shapeRecord struct {
	code  string
	parts [][]shp.Point
}

// writeCountryShapefile writes a polygon shapefile with an ISO_A3 attribute.
func writeCountryShapefile(t *testing.T, dir string, records []shapeRecord) string {
	t.Helper()
	path := filepath.Join(dir, "countries.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("NAME", 20),
		shp.StringField("ISO_A3", 3),
	}))

	for i, r := range records {
		poly := shp.Polygon(*shp.NewPolyLine(r.parts))
		w.Write(&poly)
		require.NoError(t, w.WriteAttribute(i, 0, "country"))
		require.NoError(t, w.WriteAttribute(i, 1, r.code))
	}
	closeShapefile(t, w, path)
	return path
}

// closeShapefile closes w and moves its attribute table to <base>.dbf.
// go-shp's writer creates it as <base>dbf, which its own reader never opens.
func closeShapefile(t *testing.T, w *shp.Writer, path string) {
	t.Helper()
	w.Close()
	base := strings.TrimSuffix(path, filepath.Ext(path))
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}

func TestLoadShapefileCentroids(t *testing.T) {
	path := writeCountryShapefile(t, t.TempDir(), []shapeRecord{
		{code: "AFG", parts: [][]shp.Point{
			{{X: 60, Y: 30}, {X: 70, Y: 30}, {X: 70, Y: 36}, {X: 60, Y: 36}},
		}},
		{code: "", parts: [][]shp.Point{
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
		}},
		{code: "ISL", parts: [][]shp.Point{
			{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}},
			{{X: 10, Y: 10}, {X: 12, Y: 10}, {X: 12, Y: 12}, {X: 10, Y: 12}, {X: 10, Y: 10}},
		}},
	})

	got, err := LoadShapefileCentroids(path)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "AFG", got[0].Code)
	assert.InDelta(t, 33.0, got[0].Lat, 1e-9)
	assert.InDelta(t, 65.0, got[0].Lon, 1e-9)

	assert.Equal(t, "ISL", got[1].Code)
	assert.InDelta(t, 10.8, got[1].Lat, 1e-9)
	assert.InDelta(t, 10.8, got[1].Lon, 1e-9)
}

func TestCloseShapefile_AttributeTableBesideGeometry(t *testing.T) {
	dir := t.TempDir()
	path := writeCountryShapefile(t, dir, []shapeRecord{
		{code: "AFG", parts: [][]shp.Point{{{X: 60, Y: 30}, {X: 70, Y: 30}, {X: 70, Y: 36}}}},
	})
	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		assert.FileExists(t, strings.TrimSuffix(path, ".shp")+ext)
	}
	assert.NoFileExists(t, filepath.Join(dir, "countriesdbf"))
}

func TestLoadShapefileCentroids_MissingFile(t *testing.T) {
	_, err := LoadShapefileCentroids(filepath.Join(t.TempDir(), "missing.shp"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "geo: open shapefile")
}

func TestLoadShapefileCentroids_NoCodeField(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nocode.shp")
	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{shp.StringField("NAME", 20)}))
	poly := shp.Polygon(*shp.NewPolyLine([][]shp.Point{{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}}))
	w.Write(&poly)
	require.NoError(t, w.WriteAttribute(0, 0, "x"))
	closeShapefile(t, w, path)

	_, err = LoadShapefileCentroids(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ISO_A3 field")
}

func TestPolygonToMultiPolygon(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 3},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1},
			{X: 5, Y: 5}, {X: 6, Y: 5}, {X: 6, Y: 6}, {X: 5, Y: 5},
		},
	}

	mp := polygonToMultiPolygon(p)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
	assert.Equal(t, 3, mp.Polygon(0).LinearRing(0).NumCoords())
	assert.Equal(t, 4, mp.Polygon(1).LinearRing(0).NumCoords())

	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}
