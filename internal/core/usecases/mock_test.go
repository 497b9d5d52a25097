package usecases_test

import (
	"context"
	"sync"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// --- Mock MapService ---

type mockMaps struct {
	searchFn func(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error)
	routesFn func(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error)
	sceneFn  func(ctx context.Context, at domain.Coordinate) (*domain.Scene, error)
	locateFn func(ctx context.Context) (*domain.Coordinate, error)

	mu          sync.Mutex
	routeCalls  int
	searchCalls int
}

func (m *mockMaps) SearchPointsOfInterest(ctx context.Context, keyword string, center domain.Coordinate, span domain.Span) ([]domain.SearchResult, error) {
	m.mu.Lock()
	m.searchCalls++
	m.mu.Unlock()
	if m.searchFn != nil {
		return m.searchFn(ctx, keyword, center, span)
	}
	return nil, nil
}

func (m *mockMaps) ComputeRoutes(ctx context.Context, from, to domain.Coordinate) ([]domain.Route, error) {
	m.mu.Lock()
	m.routeCalls++
	m.mu.Unlock()
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

func (m *mockMaps) calls() (search, routes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searchCalls, m.routeCalls
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errMiss
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

// --- Mock SnapshotPublisher ---

type mockPublisher struct {
	mu        sync.Mutex
	snapshots map[string][]domain.Snapshot
	closed    []string
}

func (p *mockPublisher) PublishSnapshot(ctx context.Context, sessionID string, snap domain.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.snapshots == nil {
		p.snapshots = make(map[string][]domain.Snapshot)
	}
	p.snapshots[sessionID] = append(p.snapshots[sessionID], snap)
	return nil
}

func (p *mockPublisher) PublishClosed(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = append(p.closed, sessionID)
	return nil
}
