package model

// LatLon is a geographic point in degrees.
type LatLon struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// CountryCentroid is the representative point of one ISO3 country code.
type CountryCentroid struct {
	Code string  `json:"code" yaml:"code"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}
