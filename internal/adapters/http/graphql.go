package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services. Fields
// resolve from the domain structs through their json tags.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	spanType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Span",
		Fields: graphql.Fields{
			"lat_delta": &graphql.Field{Type: graphql.Float},
			"lon_delta": &graphql.Field{Type: graphql.Float},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"name":   &graphql.Field{Type: graphql.String},
			"center": &graphql.Field{Type: coordinateType},
			"span":   &graphql.Field{Type: spanType},
		},
	})

	resultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchResult",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"category": &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"source":               &graphql.Field{Type: coordinateType},
			"destination":          &graphql.Field{Type: coordinateType},
			"distance_meters":      &graphql.Field{Type: graphql.Float},
			"expected_travel_time": &graphql.Field{Type: graphql.Float},
			"travel_time_text": &graphql.Field{
				Type:        graphql.String,
				Description: "Expected travel time, e.g. \"1 hr 2 min\"",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					switch r := p.Source.(type) {
					case *domain.Route:
						return usecases.FormatTravelTime(r.ExpectedTravelTime), nil
					case domain.Route:
						return usecases.FormatTravelTime(r.ExpectedTravelTime), nil
					}
					return nil, nil
				},
			},
		},
	})

	sceneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Scene",
		Fields: graphql.Fields{
			"image_id":      &graphql.Field{Type: graphql.String},
			"location":      &graphql.Field{Type: coordinateType},
			"captured_at":   &graphql.Field{Type: graphql.DateTime},
			"thumbnail_url": &graphql.Field{Type: graphql.String},
		},
	})

	previewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Preview",
		Fields: graphql.Fields{
			"name":        &graphql.Field{Type: graphql.String},
			"scene":       &graphql.Field{Type: sceneType},
			"travel_time": &graphql.Field{Type: graphql.String},
		},
	})

	cameraType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Camera",
		Fields: graphql.Fields{
			"mode":   &graphql.Field{Type: graphql.String},
			"region": &graphql.Field{Type: regionType},
		},
	})

	snapshotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Snapshot",
		Fields: graphql.Fields{
			"version":        &graphql.Field{Type: graphql.Int},
			"camera":         &graphql.Field{Type: cameraType},
			"visible_region": &graphql.Field{Type: regionType},
			"search_results": &graphql.Field{Type: graphql.NewList(resultType)},
			"markers":        &graphql.Field{Type: graphql.NewList(resultType)},
			"selection":      &graphql.Field{Type: resultType},
			"route":          &graphql.Field{Type: routeType},
			"preview":        &graphql.Field{Type: previewType},
			"user_location":  &graphql.Field{Type: coordinateType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "List the fixed camera regions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return domain.Regions(), nil
				},
			},
			"region": &graphql.Field{
				Type:        regionType,
				Description: "Get a camera region by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name, err := domain.ParseRegionName(p.Args["name"].(string))
					if err != nil {
						return nil, err
					}
					return domain.RegionFor(name), nil
				},
			},
			"session": &graphql.Field{
				Type:        snapshotType,
				Description: "Current snapshot of a map session",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					sess, err := deps.Sessions.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return sess.Controller.Snapshot(), nil
				},
			},
		},
	})

	coordinateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CoordinateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	spanInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SpanInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"lat_delta": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
			"lon_delta": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.Float)},
		},
	})

	regionInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "RegionInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"center": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(coordinateInput)},
			"span":   &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(spanInput)},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"dispatch": &graphql.Field{
				Type:        snapshotType,
				Description: "Apply a view event to a session",
				Args: graphql.FieldConfigArgument{
					"session": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"keyword": &graphql.ArgumentConfig{Type: graphql.String},
					"region":  &graphql.ArgumentConfig{Type: graphql.String},
					"id":      &graphql.ArgumentConfig{Type: graphql.String},
					"visible_region": &graphql.ArgumentConfig{
						Type:        regionInput,
						Description: "Region on screen, required for camera_settled",
					},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					req := eventRequest{Type: p.Args["type"].(string)}
					req.Keyword, _ = p.Args["keyword"].(string)
					req.Region, _ = p.Args["region"].(string)
					req.ID, _ = p.Args["id"].(string)
					if in, ok := p.Args["visible_region"].(map[string]interface{}); ok {
						req.VisibleRegion = regionFromInput(in)
					}
					ev, err := req.toEvent()
					if err != nil {
						return nil, err
					}
					return deps.Sessions.Dispatch(p.Context, p.Args["session"].(string), ev)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// regionFromInput converts a validated RegionInput argument.
func regionFromInput(in map[string]interface{}) *domain.Region {
	center, _ := in["center"].(map[string]interface{})
	span, _ := in["span"].(map[string]interface{})
	name, _ := in["name"].(string)
	f := func(m map[string]interface{}, k string) float64 {
		v, _ := m[k].(float64)
		return v
	}
	return &domain.Region{
		Name:   domain.RegionName(name),
		Center: domain.Coordinate{Lat: f(center, "lat"), Lon: f(center, "lon")},
		Span:   domain.Span{LatDelta: f(span, "lat_delta"), LonDelta: f(span, "lon_delta")},
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
