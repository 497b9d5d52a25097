package mapservice

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

var tracer = telemetry.Tracer("swingsandsand/mapservice")

// categoryFilters maps category keywords to OSM tag filters.
var categoryFilters = map[string]string{
	"playground":  `["leisure"="playground"]`,
	"playgrounds": `["leisure"="playground"]`,
	"beach":       `["natural"="beach"]`,
	"beaches":     `["natural"="beach"]`,
	"park":        `["leisure"="park"]`,
	"parks":       `["leisure"="park"]`,
}

// SearchPointsOfInterest runs an Overpass query for keyword inside the box
// around center. Known categories map to OSM tags; anything else matches
// names case-insensitively.
func (c *Client) SearchPointsOfInterest(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error) {
	ctx, sp := tracer.Start(ctx, "overpass.search")
	defer sp.End()
	sp.SetAttributes(
		attribute.String(telemetry.AttrProvider, "overpass"),
		attribute.String(telemetry.AttrKeyword, keyword),
	)

	query := overpassQuery(keyword, domain.BoundsAround(center, span))

	var decoded overpassResponse
	err := c.withRetry(ctx, c.opts.OverpassURLs, func(base string) error {
		endpoint, err := url.Parse(base)
		if err != nil {
			return fmt.Errorf("parse overpass url: %w", err)
		}
		params := url.Values{}
		params.Set("data", query)
		endpoint.RawQuery = params.Encode()
		decoded = overpassResponse{}
		return c.getJSON(ctx, "overpass", endpoint.String(), nil, &decoded)
	})
	if err != nil {
		return nil, err
	}

	category := categoryLabel(keyword)
	results := make([]domain.SearchResult, 0, len(decoded.Elements))
	for _, el := range decoded.Elements {
		loc, ok := el.location()
		if !ok {
			continue
		}
		name := el.Tags["name"]
		if name == "" {
			name = displayCategory(category)
		}
		results = append(results, domain.SearchResult{
			ID:       fmt.Sprintf("%s/%d", el.Type, el.ID),
			Name:     name,
			Category: category,
			Location: loc,
			Tags:     el.Tags,
		})
	}
	sp.SetAttributes(attribute.Int(telemetry.AttrResults, len(results)))
	return results, nil
}

func overpassQuery(keyword string, b domain.Bounds) string {
	bbox := fmt.Sprintf("%f,%f,%f,%f", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
	filter, ok := categoryFilters[strings.ToLower(strings.TrimSpace(keyword))]
	if !ok {
		pattern := strings.ReplaceAll(regexp.QuoteMeta(keyword), `"`, `\"`)
		filter = fmt.Sprintf(`["name"~"%s",i]`, pattern)
	}
	return fmt.Sprintf(`[out:json][timeout:25];
(
  nwr%s(%s);
);
out center;`, filter, bbox)
}

func categoryLabel(keyword string) string {
	k := strings.ToLower(strings.TrimSpace(keyword))
	switch k {
	case "playgrounds":
		return "playground"
	case "beaches":
		return "beach"
	case "parks":
		return "park"
	}
	return k
}

func displayCategory(category string) string {
	if category == "" {
		return ""
	}
	return strings.ToUpper(category[:1]) + category[1:]
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// location is the node position, or the computed center for ways and relations.
func (e overpassElement) location() (domain.Coordinate, bool) {
	if e.Center != nil {
		return domain.Coordinate{Lat: e.Center.Lat, Lon: e.Center.Lon}, true
	}
	if e.Lat == 0 && e.Lon == 0 {
		return domain.Coordinate{}, false
	}
	return domain.Coordinate{Lat: e.Lat, Lon: e.Lon}, true
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}
