package usecases

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
	"github.com/samirrijal/swingsandsand/internal/core/ports"
	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
	"github.com/samirrijal/swingsandsand/internal/pkg/telemetry"
)

// Session is one open map screen.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *ViewController

	lastSeen    atomic.Int64
	unsubscribe func()
}

// LastSeen is when the session last received a request.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// SessionConfig bounds the session registry.
type SessionConfig struct {
	Policy      SupersedePolicy
	IdleTTL     time.Duration
	MaxSessions int
}

// SessionService keeps the open sessions and builds a ViewController for each.
type SessionService struct {
	cfg        SessionConfig
	maps       ports.MapService
	search     *SearchService
	directions *DirectionService
	preview    *PreviewService
	publisher  ports.SnapshotPublisher
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionService creates a new SessionService. publisher may be nil.
func NewSessionService(
	cfg SessionConfig,
	maps ports.MapService,
	search *SearchService,
	directions *DirectionService,
	preview *PreviewService,
	publisher ports.SnapshotPublisher,
) *SessionService {
	if cfg.Policy == "" {
		cfg.Policy = LastWins
	}
	return &SessionService{
		cfg:        cfg,
		maps:       maps,
		search:     search,
		directions: directions,
		preview:    preview,
		publisher:  publisher,
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
}

// Open starts a session for the client at clientIP.
func (s *SessionService) Open(ctx context.Context, clientIP string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.MaxSessions > 0 && len(s.sessions) >= s.cfg.MaxSessions {
		return nil, domain.ErrTooManySessions
	}

	id := uuid.NewString()
	var locator userLocator = s.maps
	if binder, ok := s.maps.(ports.ClientBinder); ok {
		locator = binder.ForClient(clientIP)
	}

	ctrl := NewViewController(ctx, ControllerDeps{
		Search:     s.search,
		Directions: s.directions,
		Preview:    s.preview,
		Locator:    locator,
		Policy:     s.cfg.Policy,
		Logger:     slog.Default().With("session_id", id),
	})
	sess := &Session{ID: id, CreatedAt: s.now(), Controller: ctrl}
	sess.touch(sess.CreatedAt)

	if s.publisher != nil {
		pub := s.publisher
		sess.unsubscribe = ctrl.Subscribe(func(snap domain.Snapshot) {
			if err := pub.PublishSnapshot(context.Background(), id, snap); err != nil {
				metrics.SnapshotsPublished.WithLabelValues("error").Inc()
				slog.Warn("publish snapshot", "session_id", id, "error", err)
				return
			}
			metrics.SnapshotsPublished.WithLabelValues("ok").Inc()
		})
	}

	s.sessions[id] = sess
	metrics.ActiveSessions.Inc()
	slog.InfoContext(ctx, "session opened", "session_id", id, "policy", s.cfg.Policy)
	return sess, nil
}

// Get returns an open session and marks it active.
func (s *SessionService) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	sess.touch(s.now())
	return sess, nil
}

// Dispatch forwards ev to the session's controller.
func (s *SessionService) Dispatch(ctx context.Context, id string, ev Event) (domain.Snapshot, error) {
	ctx, span := tracer.Start(ctx, "SessionService.Dispatch")
	defer span.End()
	span.SetAttributes(
		attribute.String(telemetry.AttrSession, id),
		attribute.String(telemetry.AttrEvent, ev.eventName()),
	)

	sess, err := s.Get(id)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return sess.Controller.Dispatch(ctx, ev)
}

// Close discards a session and its state.
func (s *SessionService) Close(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.closeSession(ctx, sess)
	slog.InfoContext(ctx, "session closed", "session_id", id)
	return nil
}

func (s *SessionService) closeSession(ctx context.Context, sess *Session) {
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	sess.Controller.Close()
	metrics.ActiveSessions.Dec()
	if s.publisher != nil {
		if err := s.publisher.PublishClosed(ctx, sess.ID); err != nil {
			slog.Warn("publish session closed", "session_id", sess.ID, "error", err)
		}
	}
}

// Count returns the number of open sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap closes sessions idle for longer than the configured TTL and returns
// how many were closed.
func (s *SessionService) Reap(ctx context.Context) int {
	if s.cfg.IdleTTL <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.Lock()
	var expired []*Session
	for id, sess := range s.sessions {
		if sess.LastSeen().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		s.closeSession(ctx, sess)
		metrics.SessionsExpired.Inc()
		slog.InfoContext(ctx, "session expired", "session_id", sess.ID, "idle_since", sess.LastSeen())
	}
	return len(expired)
}

// RunReaper calls Reap every interval until ctx is done.
func (s *SessionService) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Reap(ctx)
		}
	}
}

// Shutdown closes every session and waits for in-flight triggers to settle
// or ctx to expire.
func (s *SessionService) Shutdown(ctx context.Context) {
	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		for _, sess := range all {
			s.closeSession(ctx, sess)
			sess.Controller.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		slog.Warn("session shutdown timed out", "sessions", len(all))
	}
}
