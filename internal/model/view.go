package model

// AllEntities is the selection sentinel meaning "no entity filter".
const AllEntities = "All"

// Selection is the per-interaction filter chosen by the user.
type Selection struct {
	Entity string `json:"entity"`
}

// IsAll reports whether the selection covers every entity. An empty entity
// is treated as All.
func (s Selection) IsAll() bool {
	return s.Entity == "" || s.Entity == AllEntities
}

// ColorRange is the fixed color-scale domain of the choropleth.
type ColorRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ViewModel is everything the rendering layer needs for one selection.
type ViewModel struct {
	Selection  string         `json:"selection"`
	Rows       []JoinedRecord `json:"rows"`
	ColorRange ColorRange     `json:"color_range"`
	Title      string         `json:"title"`
	ZoomTarget *LatLon        `json:"zoom_target"`
	ZoomScale  float64        `json:"zoom_scale,omitempty"`
}
