package model

import "time"

// SnapshotInfo describes a stored dataset snapshot without its payload.
type SnapshotInfo struct {
	ID             string    `json:"id"`
	UsageSource    string    `json:"usage_source"`
	GeometrySource string    `json:"geometry_source"`
	RecordCount    int       `json:"record_count"`
	CentroidCount  int       `json:"centroid_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Snapshot is a persisted copy of both loaded source tables.
type Snapshot struct {
	ID             string            `json:"id"`
	UsageSource    string            `json:"usage_source"`
	GeometrySource string            `json:"geometry_source"`
	Records        []UsageRecord     `json:"records"`
	Centroids      []CountryCentroid `json:"centroids"`
	CreatedAt      time.Time         `json:"created_at"`
}

// Info returns the payload-free description of s.
func (s *Snapshot) Info() SnapshotInfo {
	return SnapshotInfo{
		ID:             s.ID,
		UsageSource:    s.UsageSource,
		GeometrySource: s.GeometrySource,
		RecordCount:    len(s.Records),
		CentroidCount:  len(s.Centroids),
		CreatedAt:      s.CreatedAt,
	}
}
