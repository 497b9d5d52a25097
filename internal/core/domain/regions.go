package domain

import (
	"fmt"
	"strings"
)

// RegionName identifies one of the well-known regions.
type RegionName string

const (
	RegionParking RegionName = "parking"
	RegionCity    RegionName = "boston"
	RegionCoastal RegionName = "north-shore"
)

// SearchSpan bounds point-of-interest searches around the parking spot (~1.4 km).
var SearchSpan = Span{LatDelta: 0.0125, LonDelta: 0.0125}

// Parking is where the car is; searches and routes start here.
var Parking = Coordinate{Lat: 42.354528, Lon: -71.068369}

var catalog = map[RegionName]Region{
	RegionParking: {
		Name:   RegionParking,
		Center: Parking,
		Span:   SearchSpan,
	},
	RegionCity: {
		Name:   RegionCity,
		Center: Coordinate{Lat: 42.360256, Lon: -71.057279},
		Span:   Span{LatDelta: 0.1, LonDelta: 0.1},
	},
	RegionCoastal: {
		Name:   RegionCoastal,
		Center: Coordinate{Lat: 42.547408, Lon: -70.870085},
		Span:   Span{LatDelta: 0.5, LonDelta: 0.5},
	},
}

// RegionFor returns the catalog entry for name. Names are a closed set; an
// unknown name yields the zero Region.
func RegionFor(name RegionName) Region {
	return catalog[name]
}

// Regions lists the catalog in display order.
func Regions() []Region {
	return []Region{catalog[RegionParking], catalog[RegionCity], catalog[RegionCoastal]}
}

// ParseRegionName validates free-form input against the catalog. "city" and
// "coastal" are accepted as aliases.
func ParseRegionName(s string) (RegionName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(RegionParking):
		return RegionParking, nil
	case string(RegionCity), "city":
		return RegionCity, nil
	case string(RegionCoastal), "coastal", "northshore":
		return RegionCoastal, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
}
