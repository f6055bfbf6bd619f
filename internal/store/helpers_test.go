package store

import (
	"time"

	"github.com/sells-group/inetdash/internal/model"
)

func ip(v int) *int { return &v }

func fp(v float64) *float64 { return &v }

func fixtureSnapshot(id string, created time.Time) *model.Snapshot {
	return &model.Snapshot{
		ID:             id,
		UsageSource:    "data/raw/share-of-individuals-using-the-internet.csv",
		GeometrySource: "data/raw/countries.geojson",
		Records: []model.UsageRecord{
			{Entity: "Afghanistan", Code: "AFG", Year: ip(2010), Usage: fp(5), Date: model.DateForYear(ip(2010))},
			{Entity: "Afghanistan", Code: "AFG", Year: ip(2015), Usage: fp(10), Date: model.DateForYear(ip(2015))},
			{Entity: "World", Code: "OWID_WRL"},
		},
		Centroids: []model.CountryCentroid{
			{Code: "AFG", Lat: 33, Lon: 65},
			{Code: "ISL", Lat: 64.9, Lon: -18.6},
		},
		CreatedAt: created,
	}
}
