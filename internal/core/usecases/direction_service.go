package usecases

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

// DirectionService computes driving routes from the parking spot.
type DirectionService struct {
	maps ports.MapService
}

// NewDirectionService creates a new DirectionService.
func NewDirectionService(maps ports.MapService) *DirectionService {
	return &DirectionService{maps: maps}
}

// Directions returns the first candidate route from parking to destination.
// Alternates are ignored; no routes or a failed request yield Empty.
func (s *DirectionService) Directions(ctx context.Context, destination domain.Coordinate) domain.Outcome[domain.Route] {
	ctx, span := tracer.Start(ctx, "DirectionService.Directions")
	defer span.End()

	var out domain.Outcome[domain.Route]
	routes, err := s.maps.ComputeRoutes(ctx, domain.Parking, destination)
	switch {
	case err != nil:
		out = domain.Empty[domain.Route](fmt.Errorf("directions: %w", err))
		slog.WarnContext(ctx, "directions failed", "lat", destination.Lat, "lon", destination.Lon, "error", err)
	case len(routes) == 0:
		out = domain.Empty[domain.Route](nil)
		slog.DebugContext(ctx, "no route to destination", "lat", destination.Lat, "lon", destination.Lon)
	default:
		out = domain.Success(routes[0])
	}

	span.SetAttributes(attribute.String(telemetry.AttrOutcome, out.Label()))
	metrics.TriggerOutcomes.WithLabelValues("directions", out.Label()).Inc()
	return out
}
