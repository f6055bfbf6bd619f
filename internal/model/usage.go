// Package model holds the record types shared by the loaders, the join/filter
// pipeline, the stores and the HTTP layer.
package model

import "time"

// UsageRecord is one (entity, year) observation from the usage CSV.
// Year and Usage are nil when the source field was empty or malformed.
type UsageRecord struct {
	Entity string     `json:"entity"`
	Code   string     `json:"code"`
	Year   *int       `json:"year"`
	Usage  *float64   `json:"usage"`
	Date   *time.Time `json:"date,omitempty"`
}

// DateForYear returns January 1st (UTC) of year, or nil for a missing year.
func DateForYear(year *int) *time.Time {
	if year == nil {
		return nil
	}
	d := time.Date(*year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return &d
}

// JoinedRecord is a UsageRecord with the centroid of its country attached.
// Lat and Lon are nil when no centroid exists for Code.
type JoinedRecord struct {
	UsageRecord
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Location returns the record's centroid and whether both coordinates are present.
func (r JoinedRecord) Location() (LatLon, bool) {
	if r.Lat == nil || r.Lon == nil {
		return LatLon{}, false
	}
	return LatLon{Lat: *r.Lat, Lon: *r.Lon}, true
}
