package domain

import "time"

// ParkingID is the marker ID of the parking annotation.
const ParkingID = "parking"

// SearchResult is a point of interest returned by a category search.
type SearchResult struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Category string            `json:"category,omitempty"`
	Location Coordinate        `json:"location"`
	Tags     map[string]string `json:"tags,omitempty"`
}

// ParkingResult is the parking spot as a selectable marker.
func ParkingResult() SearchResult {
	return SearchResult{ID: ParkingID, Name: "Parking", Category: "parking", Location: Parking}
}

// Route is a driving path with its expected travel time.
type Route struct {
	Source             Coordinate   `json:"source"`
	Destination        Coordinate   `json:"destination"`
	DistanceMeters     float64      `json:"distance_meters"`
	ExpectedTravelTime float64      `json:"expected_travel_time"` // seconds
	Geometry           []Coordinate `json:"geometry,omitempty"`
}

// Scene is a street-level image near a coordinate.
type Scene struct {
	ImageID      string     `json:"image_id"`
	Location     Coordinate `json:"location"`
	CapturedAt   time.Time  `json:"captured_at,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
}

// CameraMode says who picks the camera target.
type CameraMode string

const (
	CameraAutomatic CameraMode = "automatic"
	CameraRegion    CameraMode = "region"
)

// CameraPosition is either automatic (fit everything rendered) or fixed to a region.
type CameraPosition struct {
	Mode   CameraMode `json:"mode"`
	Region *Region    `json:"region,omitempty"`
}

// AutomaticCamera returns the best-fit camera position.
func AutomaticCamera() CameraPosition {
	return CameraPosition{Mode: CameraAutomatic}
}

// FixedCamera pins the camera to r.
func FixedCamera(r Region) CameraPosition {
	return CameraPosition{Mode: CameraRegion, Region: &r}
}

// Preview is the info card shown for the selected marker.
type Preview struct {
	Name       string `json:"name"`
	Scene      *Scene `json:"scene,omitempty"`
	TravelTime string `json:"travel_time,omitempty"`
}

// Snapshot is an immutable copy of a session's view state.
type Snapshot struct {
	Version       uint64         `json:"version"`
	Camera        CameraPosition `json:"camera"`
	VisibleRegion *Region        `json:"visible_region,omitempty"`
	SearchResults []SearchResult `json:"search_results"`
	Markers       []SearchResult `json:"markers"`
	Selection     *SearchResult  `json:"selection,omitempty"`
	Route         *Route         `json:"route,omitempty"`
	Preview       *Preview       `json:"preview,omitempty"`
	UserLocation  *Coordinate    `json:"user_location,omitempty"`
}
