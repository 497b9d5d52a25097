package mapservice

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/pkg/geospatial"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

// sceneSearchRadius is how far from the point a street-level image may be.
const sceneSearchRadius = 60.0 // meters

// FetchStreetLevelScene returns the Mapillary image closest to at.
func (c *Client) FetchStreetLevelScene(ctx context.Context, at domain.Coordinate) (*domain.Scene, error) {
	if c.opts.MapillaryToken == "" {
		return nil, fmt.Errorf("%w: no mapillary token configured", domain.ErrSceneUnavailable)
	}

	ctx, sp := tracer.Start(ctx, "mapillary.images")
	defer sp.End()
	sp.SetAttributes(attribute.String(telemetry.AttrProvider, "mapillary"))

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(at.Lat, at.Lon, sceneSearchRadius)
	params := url.Values{}
	params.Set("fields", "id,computed_geometry,captured_at,thumb_1024_url")
	params.Set("bbox", fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", minLon, minLat, maxLon, maxLat))
	params.Set("limit", "20")
	u := strings.TrimRight(c.opts.MapillaryURL, "/") + "/images?" + params.Encode()

	header := http.Header{"Authorization": {"OAuth " + c.opts.MapillaryToken}}

	var decoded mapillaryResponse
	err := c.withRetry(ctx, []string{u}, func(endpoint string) error {
		decoded = mapillaryResponse{}
		return c.getJSON(ctx, "mapillary", endpoint, header, &decoded)
	})
	if err != nil {
		return nil, err
	}

	var best *domain.Scene
	bestDist := 0.0
	for _, img := range decoded.Data {
		if len(img.Geometry.Coordinates) < 2 {
			continue
		}
		loc := domain.Coordinate{Lat: img.Geometry.Coordinates[1], Lon: img.Geometry.Coordinates[0]}
		d := geospatial.Haversine(at.Lat, at.Lon, loc.Lat, loc.Lon)
		if best != nil && d >= bestDist {
			continue
		}
		scene := domain.Scene{ImageID: img.ID, Location: loc, ThumbnailURL: img.Thumbnail}
		if img.CapturedAt > 0 {
			scene.CapturedAt = time.UnixMilli(img.CapturedAt).UTC()
		}
		best, bestDist = &scene, d
	}
	if best == nil {
		return nil, domain.ErrSceneUnavailable
	}
	return best, nil
}

type mapillaryResponse struct {
	Data []mapillaryImage `json:"data"`
}

type mapillaryImage struct {
	ID       string `json:"id"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"`
	} `json:"computed_geometry"`
	CapturedAt int64  `json:"captured_at"`
	Thumbnail  string `json:"thumb_1024_url"`
}
