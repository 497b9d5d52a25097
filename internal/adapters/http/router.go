package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/swingsandsand/internal/pkg/metrics"
)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestLogger())

	// Rate limiting: 240 requests per minute per IP. Map gestures produce
	// bursts of camera_settled events.
	app.Use(limiter.New(limiter.Config{
		Max:        240,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Get("/regions", ListRegionsHandler())
	v1.Get("/regions/:name", GetRegionHandler())

	// Dispatch only waits for the state transition, never for map service
	// calls, so a short timeout is enough.
	v1.Post("/sessions", timeout.NewWithContext(OpenSessionHandler(deps), 5*time.Second))
	v1.Get("/sessions/:id", GetSessionHandler(deps))
	v1.Post("/sessions/:id/events", timeout.NewWithContext(DispatchEventHandler(deps), 5*time.Second))
	v1.Delete("/sessions/:id", CloseSessionHandler(deps))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// WebSocket: live snapshots for one session
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		sess, err := deps.Sessions.Get(c.Query("session"))
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Locals("session", sess)
		return c.Next()
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps)))
}
