package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
)

// PreviewService fetches street-level scenes for the selected marker.
type PreviewService struct {
	maps ports.MapService
}

// NewPreviewService creates a new PreviewService.
func NewPreviewService(maps ports.MapService) *PreviewService {
	return &PreviewService{maps: maps}
}

// Scene looks up the street-level scene at a coordinate. Failures are not retried.
func (s *PreviewService) Scene(ctx context.Context, at domain.Coordinate) domain.Outcome[domain.Scene] {
	ctx, span := tracer.Start(ctx, "PreviewService.Scene")
	defer span.End()

	var out domain.Outcome[domain.Scene]
	scene, err := s.maps.FetchStreetLevelScene(ctx, at)
	switch {
	case err != nil:
		out = domain.Empty[domain.Scene](fmt.Errorf("scene: %w", err))
		level := slog.LevelWarn
		if errors.Is(err, domain.ErrSceneUnavailable) {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "street-level scene lookup failed", "lat", at.Lat, "lon", at.Lon, "error", err)
	case scene == nil:
		out = domain.Empty[domain.Scene](nil)
	default:
		out = domain.Success(*scene)
	}

	metrics.TriggerOutcomes.WithLabelValues("scene", out.Label()).Inc()
	return out
}

// FormatTravelTime renders a duration in seconds with abbreviated hour and
// minute units, e.g. 3725 -> "1 hr 2 min". Leftover seconds are dropped.
func FormatTravelTime(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int(seconds) / 60
	hours, minutes := total/60, total%60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%d hr", hours))
	}
	if minutes > 0 || hours == 0 {
		parts = append(parts, fmt.Sprintf("%d min", minutes))
	}
	return strings.Join(parts, " ")
}

// travelTime is FormatTravelTime for an optional route.
func travelTime(r *domain.Route) string {
	if r == nil {
		return ""
	}
	return FormatTravelTime(r.ExpectedTravelTime)
}
