package domain

import (
	"math"

	"github.com/samirrijal/swingsandsand/internal/pkg/geospatial"
)

// Coordinate is a WGS 84 point.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Span is the angular width and height of a region in degrees.
type Span struct {
	LatDelta float64 `json:"lat_delta"`
	LonDelta float64 `json:"lon_delta"`
}

// Region is a named coordinate with an angular span, used as a camera target.
type Region struct {
	Name   RegionName `json:"name"`
	Center Coordinate `json:"center"`
	Span   Span       `json:"span"`
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Bounds returns the box covered by the region.
func (r Region) Bounds() Bounds {
	return BoundsAround(r.Center, r.Span)
}

// BoundsAround returns the box of the given span centered on c.
func BoundsAround(c Coordinate, s Span) Bounds {
	return Bounds{
		MinLat: c.Lat - s.LatDelta/2,
		MinLon: c.Lon - s.LonDelta/2,
		MaxLat: c.Lat + s.LatDelta/2,
		MaxLon: c.Lon + s.LonDelta/2,
	}
}

// Contains reports whether c lies inside the box.
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// RadiusMeters approximates the search radius covered by a span: half the
// latitude extent converted to meters.
func (s Span) RadiusMeters() float64 {
	return math.Round(s.LatDelta / 2 * geospatial.MetersPerDegree)
}
