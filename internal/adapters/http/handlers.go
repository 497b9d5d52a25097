package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// sessionResponse is returned when a session is opened.
type sessionResponse struct {
	ID       string          `json:"id"`
	Snapshot domain.Snapshot `json:"snapshot"`
}

// ListRegionsHandler returns the region catalog.
func ListRegionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(domain.Regions())
	}
}

// GetRegionHandler returns one catalog region.
func GetRegionHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := domain.ParseRegionName(c.Params("name"))
		if err != nil {
			return errNotFound(c, err.Error())
		}
		return c.JSON(domain.RegionFor(name))
	}
}

// OpenSessionHandler starts a new map screen session.
func OpenSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Open(c.UserContext(), c.IP())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Location("/v1/sessions/" + sess.ID)
		return c.Status(fiber.StatusCreated).JSON(sessionResponse{
			ID:       sess.ID,
			Snapshot: sess.Controller.Snapshot(),
		})
	}
}

// GetSessionHandler returns the current snapshot of a session. Pollers get
// 304 Not Modified until the snapshot version changes.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Get(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		snap := sess.Controller.Snapshot()
		if notModified(c, snapshotETag(sess.ID, snap)) {
			return nil
		}
		return c.JSON(snap)
	}
}

// DispatchEventHandler applies a view event and returns the snapshot right
// after it. Results of triggered searches arrive later over /ws.
func DispatchEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req eventRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		ev, err := req.toEvent()
		if err != nil {
			return errFromDomain(c, err)
		}

		snap, err := deps.Sessions.Dispatch(c.UserContext(), c.Params("id"), ev)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(snap)
	}
}

// CloseSessionHandler discards a session.
func CloseSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Close(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
