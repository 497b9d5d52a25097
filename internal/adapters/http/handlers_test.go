package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/samirrijal/swingsandsand/internal/adapters/http"
	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/usecases"
)

// ---- Mock map service ----

type mockMaps struct {
	searchFn func(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error)
	routesFn func(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error)
	sceneFn  func(ctx context.Context, at domain.Coordinate) (*domain.Scene, error)
	locateFn func(ctx context.Context) (*domain.Coordinate, error)
}

func (m *mockMaps) SearchPointsOfInterest(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, keyword, center, span)
	}
	return nil, nil
}
func (m *mockMaps) ComputeRoutes(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error) {
	if m.routesFn != nil {
		return m.routesFn(ctx, from, to)
	}
	return nil, nil
}
func (m *mockMaps) FetchStreetLevelScene(ctx context.Context, at domain.Coordinate) (*domain.Scene, error) {
	if m.sceneFn != nil {
		return m.sceneFn(ctx, at)
	}
	return nil, domain.ErrSceneUnavailable
}
func (m *mockMaps) CurrentUserLocation(ctx context.Context) (*domain.Coordinate, error) {
	if m.locateFn != nil {
		return m.locateFn(ctx)
	}
	return nil, domain.ErrLocationUnavailable
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(maps *mockMaps) *handler.Dependencies {
	if maps == nil {
		maps = &mockMaps{}
	}
	sessions := usecases.NewSessionService(
		usecases.SessionConfig{Policy: usecases.LastWins, MaxSessions: 2},
		maps,
		usecases.NewSearchService(maps, nil, 0),
		usecases.NewDirectionService(maps),
		usecases.NewPreviewService(maps),
		nil,
	)
	return &handler.Dependencies{Sessions: sessions}
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func openSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 201 {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	var out struct {
		ID       string          `json:"id"`
		Snapshot domain.Snapshot `json:"snapshot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.ID == "" {
		t.Fatal("expected session id")
	}
	return out.ID
}

func postEvent(t *testing.T, app *fiber.App, id, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", "/v1/sessions/"+id+"/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %q: %v", body, err)
	}
	return apiErr.Code
}

// ---- Region handler tests ----

func TestListRegions(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/regions", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var regions []domain.Region
	json.NewDecoder(resp.Body).Decode(&regions)
	if len(regions) != 3 {
		t.Errorf("expected 3 regions, got %d", len(regions))
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "public, max-age=86400" {
		t.Errorf("unexpected Cache-Control %q", cc)
	}
}

func TestGetRegion_Alias(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/regions/coastal", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var r domain.Region
	json.NewDecoder(resp.Body).Decode(&r)
	if r.Name != domain.RegionCoastal || r.Span.LatDelta != 0.5 {
		t.Errorf("unexpected region %+v", r)
	}
}

func TestGetRegion_Unknown(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/regions/atlantis", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

// ---- Session handler tests ----

func TestOpenSession_DefaultSnapshot(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id, nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("expected no-store, got %q", cc)
	}
	var snap domain.Snapshot
	json.NewDecoder(resp.Body).Decode(&snap)
	if snap.Camera.Mode != domain.CameraAutomatic {
		t.Errorf("expected automatic camera, got %s", snap.Camera.Mode)
	}
	if len(snap.SearchResults) != 0 || snap.Selection != nil || snap.Route != nil {
		t.Errorf("expected empty default state, got %+v", snap)
	}
	if len(snap.Markers) != 1 || snap.Markers[0].ID != domain.ParkingID {
		t.Errorf("expected only the parking marker, got %+v", snap.Markers)
	}
}

func TestOpenSession_Limit(t *testing.T) {
	app := setupApp(makeDeps(nil))
	openSession(t, app)
	openSession(t, app)

	resp, _ := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil), -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/sessions/nope", nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	if code := errorCode(t, readBody(t, resp.Body)); code != "not_found" {
		t.Errorf("expected not_found, got %s", code)
	}
}

func TestDispatch_RegionTapped(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	status, body := postEvent(t, app, id, `{"type":"region_tapped","region":"north-shore"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var snap domain.Snapshot
	json.Unmarshal(body, &snap)
	if snap.Camera.Mode != domain.CameraRegion || snap.Camera.Region == nil {
		t.Fatalf("expected region camera, got %+v", snap.Camera)
	}
	if snap.Camera.Region.Span.LatDelta != 0.5 {
		t.Errorf("expected span 0.5, got %v", snap.Camera.Region.Span.LatDelta)
	}
	if snap.Version != 1 {
		t.Errorf("expected version 1, got %d", snap.Version)
	}
}

func TestDispatch_SearchThenSelect(t *testing.T) {
	beach := domain.SearchResult{ID: "node/1", Name: "Revere Beach", Location: domain.Coordinate{Lat: 42.41, Lon: -70.99}}
	deps := makeDeps(&mockMaps{
		searchFn: func(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error) {
			return []domain.SearchResult{beach}, nil
		},
		routesFn: func(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error) {
			return []domain.Route{{Source: from, Destination: to, ExpectedTravelTime: 1200}}, nil
		},
	})
	app := setupApp(deps)
	id := openSession(t, app)

	if status, body := postEvent(t, app, id, `{"type":"category_tapped","keyword":"beaches"}`); status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	sess, err := deps.Sessions.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	sess.Controller.Wait()

	status, body := postEvent(t, app, id, `{"type":"marker_selected","id":"node/1"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var snap domain.Snapshot
	json.Unmarshal(body, &snap)
	if snap.Selection == nil || snap.Selection.ID != "node/1" {
		t.Fatalf("expected selection node/1, got %+v", snap.Selection)
	}
	if snap.Route != nil {
		t.Error("route must be cleared until directions resolve")
	}

	sess.Controller.Wait()
	snap = sess.Controller.Snapshot()
	if snap.Route == nil {
		t.Fatal("expected route after directions resolved")
	}
	if snap.Preview == nil || snap.Preview.TravelTime != "20 min" {
		t.Errorf("expected preview travel time 20 min, got %+v", snap.Preview)
	}
}

func TestDispatch_UnknownMarker(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	status, body := postEvent(t, app, id, `{"type":"marker_selected","id":"node/404"}`)
	if status != 409 {
		t.Fatalf("expected 409, got %d", status)
	}
	if code := errorCode(t, body); code != "conflict" {
		t.Errorf("expected conflict, got %s", code)
	}
}

func TestDispatch_BadEvents(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	cases := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"shake"}`},
		{"empty keyword", `{"type":"category_tapped","keyword":"  "}`},
		{"unknown region", `{"type":"region_tapped","region":"atlantis"}`},
		{"camera without region", `{"type":"camera_settled"}`},
		{"malformed", `{"type":`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := postEvent(t, app, id, tc.body)
			if status != 400 {
				t.Fatalf("expected 400, got %d: %s", status, body)
			}
			if code := errorCode(t, body); code != "bad_request" {
				t.Errorf("expected bad_request, got %s", code)
			}
		})
	}
}

func TestDispatch_UnknownSession(t *testing.T) {
	app := setupApp(makeDeps(nil))

	status, _ := postEvent(t, app, "nope", `{"type":"locate_user_tapped"}`)
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestCloseSession(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	resp, _ := app.Test(httptest.NewRequest("DELETE", "/v1/sessions/"+id, nil), -1)
	if resp.StatusCode != 204 {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id, nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 after close, got %d", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest("DELETE", "/v1/sessions/"+id, nil), -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 on second close, got %d", resp.StatusCode)
	}
}

// ---- Health, GraphQL, WebSocket ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/health", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_NoOptionalDeps(t *testing.T) {
	app := setupApp(makeDeps(nil))

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/ready", nil), -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out struct {
		Checks map[string]string `json:"checks"`
	}
	json.NewDecoder(resp.Body).Decode(&out)
	if out.Checks["nats"] != "not configured" || out.Checks["cache"] != "not configured" {
		t.Errorf("unexpected checks %v", out.Checks)
	}
}

func graphQL(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"query": query})
	req := httptest.NewRequest("POST", "/graphql", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestGraphQL_Regions(t *testing.T) {
	app := setupApp(makeDeps(nil))

	out := graphQL(t, app, `{ regions { name span { lat_delta } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	data := out["data"].(map[string]any)
	if regions := data["regions"].([]any); len(regions) != 3 {
		t.Errorf("expected 3 regions, got %d", len(regions))
	}
}

func TestGraphQL_SessionAndDispatch(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	out := graphQL(t, app, `mutation { dispatch(session: "`+id+`", type: "region_tapped", region: "boston") { version camera { mode region { name } } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}

	out = graphQL(t, app, `{ session(id: "`+id+`") { version camera { mode } markers { id } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	snap := out["data"].(map[string]any)["session"].(map[string]any)
	if snap["version"].(float64) != 1 {
		t.Errorf("expected version 1, got %v", snap["version"])
	}
	if mode := snap["camera"].(map[string]any)["mode"]; mode != "region" {
		t.Errorf("expected region camera, got %v", mode)
	}
}

func TestGraphQL_DispatchCameraSettled(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	out := graphQL(t, app, `mutation { dispatch(session: "`+id+`", type: "camera_settled",
		visible_region: {center: {lat: 42.36, lon: -71.05}, span: {lat_delta: 0.02, lon_delta: 0.03}}) {
		version visible_region { center { lat lon } span { lon_delta } } } }`)
	if out["errors"] != nil {
		t.Fatalf("unexpected errors: %v", out["errors"])
	}
	snap := out["data"].(map[string]any)["dispatch"].(map[string]any)
	region, ok := snap["visible_region"].(map[string]any)
	if !ok {
		t.Fatalf("expected visible_region, got %v", snap)
	}
	if lat := region["center"].(map[string]any)["lat"]; lat != 42.36 {
		t.Errorf("expected center lat 42.36, got %v", lat)
	}
	if d := region["span"].(map[string]any)["lon_delta"]; d != 0.03 {
		t.Errorf("expected lon_delta 0.03, got %v", d)
	}

	out = graphQL(t, app, `mutation { dispatch(session: "`+id+`", type: "camera_settled") { version } }`)
	if out["errors"] == nil {
		t.Error("expected an error for camera_settled without visible_region")
	}
}

func TestGraphQL_UnknownSession(t *testing.T) {
	app := setupApp(makeDeps(nil))

	out := graphQL(t, app, `{ session(id: "nope") { version } }`)
	if out["errors"] == nil {
		t.Fatal("expected an error for an unknown session")
	}
}

func TestWebSocket_RequiresUpgrade(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	resp, _ := app.Test(httptest.NewRequest("GET", "/ws?session="+id, nil), -1)
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Fatalf("expected 426, got %d", resp.StatusCode)
	}
}

func TestGetSession_ConditionalByVersion(t *testing.T) {
	app := setupApp(makeDeps(nil))
	id := openSession(t, app)

	resp, _ := app.Test(httptest.NewRequest("GET", "/v1/sessions/"+id, nil), -1)
	etag := resp.Header.Get("ETag")
	if etag != `W/"`+id+`-0"` {
		t.Fatalf("unexpected ETag %q", etag)
	}

	req := httptest.NewRequest("GET", "/v1/sessions/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 304 {
		t.Fatalf("expected 304, got %d", resp.StatusCode)
	}

	postEvent(t, app, id, `{"type":"region_tapped","region":"boston"}`)

	req = httptest.NewRequest("GET", "/v1/sessions/"+id, nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200 after a change, got %d", resp.StatusCode)
	}
}
