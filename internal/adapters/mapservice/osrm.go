package mapservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

// ComputeRoutes asks OSRM for driving routes, best first. "NoRoute" and
// "NoSegment" answers are an empty list, not an error.
func (c *Client) ComputeRoutes(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error) {
	ctx, sp := tracer.Start(ctx, "osrm.route")
	defer sp.End()
	sp.SetAttributes(attribute.String(telemetry.AttrProvider, "osrm"))

	// OSRM wants lon,lat;lon,lat
	u := fmt.Sprintf("%s/route/v1/driving/%.6f,%.6f;%.6f,%.6f?overview=full&alternatives=true&geometries=geojson&steps=false",
		strings.TrimRight(c.opts.OSRMURL, "/"),
		from.Lon, from.Lat, to.Lon, to.Lat,
	)

	var decoded osrmResponse
	err := c.withRetry(ctx, []string{u}, func(endpoint string) error {
		decoded = osrmResponse{}
		return c.getJSON(ctx, "osrm", endpoint, nil, &decoded)
	})
	if err != nil {
		// OSRM answers unroutable queries with 400 and a code in the body.
		var se *statusError
		if errors.As(err, &se) && se.status == http.StatusBadRequest &&
			(strings.Contains(se.body, `"NoRoute"`) || strings.Contains(se.body, `"NoSegment"`)) {
			return nil, nil
		}
		return nil, err
	}

	switch decoded.Code {
	case "Ok":
	case "NoRoute", "NoSegment":
		return nil, nil
	default:
		return nil, fmt.Errorf("osrm: %s: %s", decoded.Code, decoded.Message)
	}

	routes := make([]domain.Route, 0, len(decoded.Routes))
	for _, r := range decoded.Routes {
		geometry := make([]domain.Coordinate, 0, len(r.Geometry.Coordinates))
		for _, pt := range r.Geometry.Coordinates {
			if len(pt) < 2 {
				continue
			}
			geometry = append(geometry, domain.Coordinate{Lat: pt[1], Lon: pt[0]})
		}
		routes = append(routes, domain.Route{
			Source:             from,
			Destination:        to,
			DistanceMeters:     r.Distance,
			ExpectedTravelTime: r.Duration,
			Geometry:           geometry,
		})
	}
	sp.SetAttributes(attribute.Int(telemetry.AttrResults, len(routes)))
	return routes, nil
}

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message,omitempty"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}
