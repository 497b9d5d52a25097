package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// dependencyCheck reports the state of one optional backend. A nil check
// means the backend is not configured.
type dependencyCheck func(ctx context.Context) (state string, ok bool)

func natsCheck(deps *Dependencies) dependencyCheck {
	if deps.NATS == nil {
		return nil
	}
	return func(context.Context) (string, bool) {
		if !deps.NATS.IsConnected() {
			return "disconnected: " + deps.NATS.Status().String(), false
		}
		return "ok", true
	}
}

func cacheCheck(deps *Dependencies) dependencyCheck {
	if deps.Cache == nil {
		return nil
	}
	return func(ctx context.Context) (string, bool) {
		if err := deps.Cache.Ping(ctx); err != nil {
			return "error: " + err.Error(), false
		}
		return "ok", true
	}
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"uptime":   time.Since(startedAt).String(),
			"version":  "dev",
			"sessions": deps.Sessions.Count(),
		})
	}
}

// ReadyHandler checks NATS and Valkey. Both are optional: a backend that is
// not configured is reported but does not fail readiness.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	checks := map[string]dependencyCheck{
		"nats":  natsCheck(deps),
		"cache": cacheCheck(deps),
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		results := make(map[string]string, len(checks))
		ready := true
		for name, check := range checks {
			if check == nil {
				results[name] = "not configured"
				continue
			}
			state, ok := check(ctx)
			results[name] = state
			ready = ready && ok
		}

		if !ready {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "checks": results})
		}
		return c.JSON(fiber.Map{"status": "ready", "checks": results})
	}
}
