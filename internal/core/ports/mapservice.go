package ports

import (
	"context"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// MapService is the external mapping capability. Every method may fail; the
// core treats any failure as an empty answer.
type MapService interface {
	// SearchPointsOfInterest returns points of interest matching keyword
	// inside the span centered on center, in the provider's order.
	SearchPointsOfInterest(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error)

	// ComputeRoutes returns candidate driving routes, best first.
	ComputeRoutes(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error)

	// FetchStreetLevelScene returns the street-level scene nearest to at.
	FetchStreetLevelScene(ctx context.Context, at domain.Coordinate) (*domain.Scene, error)

	// CurrentUserLocation returns a best-effort fix for the session owner.
	CurrentUserLocation(ctx context.Context) (*domain.Coordinate, error)
}

// ClientBinder is implemented by map services whose answers depend on who is
// asking, e.g. a location looked up from the client address.
type ClientBinder interface {
	ForClient(clientIP string) MapService
}
