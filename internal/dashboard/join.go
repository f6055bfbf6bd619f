// Package dashboard joins the usage table with the centroid table and derives
// the per-selection view models served to the choropleth page.
package dashboard

import "github.com/sells-group/inetdash/internal/model"

// Join left-joins usage records with centroids on country code. Every usage
// record is kept in order; Lat and Lon stay nil when no centroid matches.
// Records with an empty code never match.
func Join(usage []model.UsageRecord, centroids []model.CountryCentroid) []model.JoinedRecord {
	byCode := make(map[string]model.LatLon, len(centroids))
	for _, c := range centroids {
		if c.Code == "" {
			continue
		}
		byCode[c.Code] = model.LatLon{Lat: c.Lat, Lon: c.Lon}
	}

	joined := make([]model.JoinedRecord, len(usage))
	for i, rec := range usage {
		joined[i] = model.JoinedRecord{UsageRecord: rec}
		if rec.Code == "" {
			continue
		}
		if p, ok := byCode[rec.Code]; ok {
			lat, lon := p.Lat, p.Lon
			joined[i].Lat = &lat
			joined[i].Lon = &lon
		}
	}
	return joined
}
