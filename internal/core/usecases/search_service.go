package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

var tracer = telemetry.Tracer("swingsandsand/usecases")

// SearchService runs category searches around the parking spot.
type SearchService struct {
	maps     ports.MapService
	cache    ports.CacheService
	cacheTTL int
}

// NewSearchService creates a new SearchService. cache may be nil.
func NewSearchService(maps ports.MapService, cache ports.CacheService, cacheTTLSeconds int) *SearchService {
	return &SearchService{maps: maps, cache: cache, cacheTTL: cacheTTLSeconds}
}

// Search looks up points of interest for keyword within the search span of
// the parking spot. Any failure yields an Empty outcome.
func (s *SearchService) Search(ctx context.Context, keyword string) domain.Outcome[[]domain.SearchResult] {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return domain.Empty[[]domain.SearchResult](domain.ErrEmptyKeyword)
	}

	ctx, span := tracer.Start(ctx, "SearchService.Search")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrKeyword, keyword),
		attribute.Float64(telemetry.AttrRadius, domain.SearchSpan.RadiusMeters()),
	)

	out := s.search(ctx, keyword)
	span.SetAttributes(attribute.String(telemetry.AttrOutcome, out.Label()))
	metrics.TriggerOutcomes.WithLabelValues("search", out.Label()).Inc()
	if err := out.Err(); err != nil {
		slog.WarnContext(ctx, "point of interest search failed", "keyword", keyword, "error", err)
	}
	return out
}

func (s *SearchService) search(ctx context.Context, keyword string) domain.Outcome[[]domain.SearchResult] {
	center, span := domain.Parking, domain.SearchSpan

	// Try cache
	cacheKey := fmt.Sprintf("poi:search:%s:%.5f:%.5f:%.4f", strings.ToLower(keyword), center.Lat, center.Lon, span.LatDelta)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var results []domain.SearchResult
			if err := json.Unmarshal(data, &results); err == nil {
				metrics.CacheHits.WithLabelValues("search").Inc()
				return domain.Success(results)
			}
		}
		metrics.CacheMisses.WithLabelValues("search").Inc()
	}

	results, err := s.maps.SearchPointsOfInterest(ctx, keyword, center, span)
	if err != nil {
		return domain.Empty[[]domain.SearchResult](fmt.Errorf("search %q: %w", keyword, err))
	}
	if results == nil {
		results = []domain.SearchResult{}
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	return domain.Success(results)
}
