package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
)

// userLocator is the CurrentUserLocation half of ports.MapService.
type userLocator interface {
	CurrentUserLocation(ctx context.Context) (*domain.Coordinate, error)
}

// locateUser asks for a best-effort location fix; permission or lookup
// failures collapse to Empty.
func locateUser(ctx context.Context, loc userLocator) domain.Outcome[domain.Coordinate] {
	var out domain.Outcome[domain.Coordinate]
	fix, err := loc.CurrentUserLocation(ctx)
	switch {
	case err != nil:
		out = domain.Empty[domain.Coordinate](fmt.Errorf("locate user: %w", err))
		if !errors.Is(err, domain.ErrLocationUnavailable) {
			slog.WarnContext(ctx, "user location lookup failed", "error", err)
		}
	case fix == nil:
		out = domain.Empty[domain.Coordinate](nil)
	default:
		out = domain.Success(*fix)
	}
	metrics.TriggerOutcomes.WithLabelValues("location", out.Label()).Inc()
	return out
}
