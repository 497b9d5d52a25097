package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
)

// SupersedePolicy decides what happens to a request that is overtaken by a
// newer request of the same kind.
type SupersedePolicy string

const (
	// LastWins lets every request run to completion; whichever resolves last
	// is applied.
	LastWins SupersedePolicy = "last-wins"
	// CancelSuperseded cancels the older request and drops its result.
	CancelSuperseded SupersedePolicy = "cancel-superseded"
)

// ParseSupersedePolicy validates a configured policy name.
func ParseSupersedePolicy(s string) (SupersedePolicy, error) {
	switch p := SupersedePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case LastWins, CancelSuperseded:
		return p, nil
	case "":
		return LastWins, nil
	}
	return "", fmt.Errorf("unknown supersede policy %q", s)
}

// Event is a user action dispatched to a ViewController.
type Event interface {
	eventName() string
}

// CategoryTapped starts a point-of-interest search.
type CategoryTapped struct{ Keyword string }

// RegionTapped pins the camera to a catalog region.
type RegionTapped struct{ Region domain.RegionName }

// MarkerSelected selects the marker with ID; an empty ID deselects.
type MarkerSelected struct{ ID string }

// CameraSettled reports the region on screen once the user stops moving the map.
type CameraSettled struct{ Region domain.Region }

// LocateUserTapped asks for the user's current location.
type LocateUserTapped struct{}

func (CategoryTapped) eventName() string   { return "category_tapped" }
func (RegionTapped) eventName() string     { return "region_tapped" }
func (MarkerSelected) eventName() string   { return "marker_selected" }
func (CameraSettled) eventName() string    { return "camera_settled" }
func (LocateUserTapped) eventName() string { return "locate_user_tapped" }

type triggerKind int

const (
	triggerSearch triggerKind = iota
	triggerDirections
	triggerScene
	triggerLocation
	triggerKinds
)

var triggerNames = [triggerKinds]string{"search", "directions", "scene", "location"}

// viewState is only touched with ViewController.mu held.
type viewState struct {
	camera       domain.CameraPosition
	visible      *domain.Region
	results      []domain.SearchResult
	selection    *domain.SearchResult
	route        *domain.Route
	scene        *domain.Scene
	userLocation *domain.Coordinate
}

// ControllerDeps wires a ViewController to its triggers.
type ControllerDeps struct {
	Search     *SearchService
	Directions *DirectionService
	Preview    *PreviewService
	Locator    userLocator
	Policy     SupersedePolicy
	Logger     *slog.Logger
}

// ViewController owns the view state of one map screen. Dispatch applies user
// events synchronously; Map Service calls run in their own goroutines and
// post their results back through the same lock, so the controller is the
// only writer of its state.
type ViewController struct {
	deps   ControllerDeps
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	state   viewState
	version uint64
	closed  bool
	gens    [triggerKinds]uint64
	cancels [triggerKinds]context.CancelFunc

	// notifyMu is taken before mu is released so observers see snapshots in
	// version order.
	notifyMu  sync.Mutex
	observers map[int]func(domain.Snapshot)
	nextObs   int
}

// NewViewController creates a controller with default state: automatic
// camera, no results, nothing selected.
func NewViewController(ctx context.Context, deps ControllerDeps) *ViewController {
	if deps.Policy == "" {
		deps.Policy = LastWins
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	return &ViewController{
		deps:      deps,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     viewState{camera: domain.AutomaticCamera(), results: []domain.SearchResult{}},
		observers: make(map[int]func(domain.Snapshot)),
	}
}

// Policy returns the supersede policy in effect.
func (c *ViewController) Policy() SupersedePolicy {
	return c.deps.Policy
}

// Dispatch applies ev and returns the snapshot right after the synchronous
// part of the transition. Triggers started by ev resolve later and are
// announced to subscribers.
func (c *ViewController) Dispatch(ctx context.Context, ev Event) (domain.Snapshot, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return domain.Snapshot{}, domain.ErrSessionClosed
	}

	changed, err := c.applyLocked(ev)
	if err != nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, err
	}
	if !changed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil
	}
	c.version++
	snap := c.snapshotLocked()
	c.publishAndUnlock(snap)

	c.logger.DebugContext(ctx, "view event applied", "event", ev.eventName(), "version", snap.Version)
	return snap, nil
}

func (c *ViewController) applyLocked(ev Event) (bool, error) {
	switch e := ev.(type) {
	case CategoryTapped:
		keyword := strings.TrimSpace(e.Keyword)
		if keyword == "" {
			return false, domain.ErrEmptyKeyword
		}
		c.startLocked(triggerSearch, func(ctx context.Context) func(*viewState) bool {
			results := c.deps.Search.Search(ctx, keyword).OrZero()
			return func(s *viewState) bool {
				if results == nil {
					results = []domain.SearchResult{}
				}
				s.results = results
				s.camera = domain.AutomaticCamera()
				return true
			}
		})
		return false, nil

	case RegionTapped:
		region := domain.RegionFor(e.Region)
		if region.Name == "" {
			return false, fmt.Errorf("%w: %q", domain.ErrUnknownRegion, e.Region)
		}
		c.state.camera = domain.FixedCamera(region)
		return true, nil

	case MarkerSelected:
		return c.selectLocked(e.ID)

	case CameraSettled:
		r := e.Region
		c.state.visible = &r
		return true, nil

	case LocateUserTapped:
		if c.deps.Locator == nil {
			return false, nil
		}
		c.startLocked(triggerLocation, func(ctx context.Context) func(*viewState) bool {
			fix, ok := locateUser(ctx, c.deps.Locator).Get()
			return func(s *viewState) bool {
				if !ok {
					s.userLocation = nil
					return true
				}
				s.userLocation = &fix
				return true
			}
		})
		return false, nil
	}
	return false, fmt.Errorf("%w: %T", domain.ErrUnknownEvent, ev)
}

// selectLocked changes the selection. The route and scene of the previous
// selection are cleared in the same critical section, before any new request
// is issued.
func (c *ViewController) selectLocked(id string) (bool, error) {
	if id == "" {
		if c.state.selection == nil {
			return false, nil
		}
		c.state.selection, c.state.route, c.state.scene = nil, nil, nil
		if c.deps.Policy == CancelSuperseded {
			c.cancelLocked(triggerDirections)
			c.cancelLocked(triggerScene)
		}
		return true, nil
	}

	if c.state.selection != nil && c.state.selection.ID == id {
		return false, nil
	}
	item, ok := c.markerLocked(id)
	if !ok {
		return false, fmt.Errorf("%w: %q", domain.ErrUnknownMarker, id)
	}

	c.state.selection = &item
	c.state.route = nil
	c.state.scene = nil

	c.startLocked(triggerDirections, func(ctx context.Context) func(*viewState) bool {
		route, ok := c.deps.Directions.Directions(ctx, item.Location).Get()
		return func(s *viewState) bool {
			if s.selection == nil || s.selection.ID != item.ID {
				return false
			}
			if !ok {
				s.route = nil
				return true
			}
			s.route = &route
			return true
		}
	})
	c.startLocked(triggerScene, func(ctx context.Context) func(*viewState) bool {
		scene, ok := c.deps.Preview.Scene(ctx, item.Location).Get()
		return func(s *viewState) bool {
			if s.selection == nil || s.selection.ID != item.ID {
				return false
			}
			if !ok {
				s.scene = nil
				return true
			}
			s.scene = &scene
			return true
		}
	})
	return true, nil
}

// markerLocked finds id among the rendered markers: parking plus results.
func (c *ViewController) markerLocked(id string) (domain.SearchResult, bool) {
	if id == domain.ParkingID {
		return domain.ParkingResult(), true
	}
	for _, r := range c.state.results {
		if r.ID == id {
			return r, true
		}
	}
	return domain.SearchResult{}, false
}

// startLocked runs fn in its own goroutine. fn does the slow work and returns
// the state update to apply; the update reports whether it changed anything.
func (c *ViewController) startLocked(kind triggerKind, fn func(ctx context.Context) func(*viewState) bool) {
	c.gens[kind]++
	gen := c.gens[kind]
	if c.deps.Policy == CancelSuperseded {
		c.cancelLocked(kind)
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.cancels[kind] = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer cancel()
		update := fn(ctx)
		c.resolve(kind, gen, update)
	}()
}

func (c *ViewController) cancelLocked(kind triggerKind) {
	if cancel := c.cancels[kind]; cancel != nil {
		cancel()
		c.cancels[kind] = nil
	}
}

func (c *ViewController) resolve(kind triggerKind, gen uint64, update func(*viewState) bool) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.deps.Policy == CancelSuperseded && c.gens[kind] != gen {
		c.mu.Unlock()
		metrics.TriggersDiscarded.WithLabelValues(triggerNames[kind]).Inc()
		c.logger.Debug("superseded result discarded", "trigger", triggerNames[kind], "generation", gen)
		return
	}
	if !update(&c.state) {
		c.mu.Unlock()
		metrics.TriggersDiscarded.WithLabelValues(triggerNames[kind]).Inc()
		return
	}
	c.version++
	c.publishAndUnlock(c.snapshotLocked())
}

// publishAndUnlock releases mu and hands snap to every observer.
func (c *ViewController) publishAndUnlock(snap domain.Snapshot) {
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	for _, fn := range c.observers {
		fn(snap)
	}
}

// Snapshot returns a copy of the current state.
func (c *ViewController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *ViewController) snapshotLocked() domain.Snapshot {
	s := c.state
	snap := domain.Snapshot{
		Version:       c.version,
		Camera:        s.camera,
		SearchResults: append([]domain.SearchResult{}, s.results...),
	}
	snap.Markers = append([]domain.SearchResult{domain.ParkingResult()}, s.results...)
	if s.visible != nil {
		v := *s.visible
		snap.VisibleRegion = &v
	}
	if s.selection != nil {
		sel := *s.selection
		snap.Selection = &sel
		snap.Preview = &domain.Preview{Name: sel.Name, TravelTime: travelTime(s.route)}
		if s.scene != nil {
			scene := *s.scene
			snap.Preview.Scene = &scene
		}
	}
	if s.route != nil {
		r := *s.route
		snap.Route = &r
	}
	if s.userLocation != nil {
		loc := *s.userLocation
		snap.UserLocation = &loc
	}
	return snap
}

// Subscribe registers fn to receive every new snapshot. fn runs on the
// goroutine that produced the change and must not call back into the
// controller.
func (c *ViewController) Subscribe(fn func(domain.Snapshot)) (unsubscribe func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	return func() {
		c.notifyMu.Lock()
		defer c.notifyMu.Unlock()
		delete(c.observers, id)
	}
}

// Done is closed once the controller is closed.
func (c *ViewController) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Wait blocks until every in-flight trigger has resolved.
func (c *ViewController) Wait() {
	c.wg.Wait()
}

// Close cancels in-flight triggers and stops accepting events. Results that
// arrive afterwards are dropped.
func (c *ViewController) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.cancel()

	c.notifyMu.Lock()
	c.observers = make(map[int]func(domain.Snapshot))
	c.notifyMu.Unlock()
}
