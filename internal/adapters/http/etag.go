package http

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/swingsandsand/internal/core/domain"
)

// snapshotETag identifies a session snapshot by its version.
func snapshotETag(sessionID string, snap domain.Snapshot) string {
	return `W/"` + sessionID + "-" + strconv.FormatUint(snap.Version, 10) + `"`
}

// notModified sets the ETag and reports whether the client already has it.
func notModified(c *fiber.Ctx, etag string) bool {
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) != etag {
		return false
	}
	c.Status(fiber.StatusNotModified)
	c.Response().ResetBody()
	return true
}

// ETagMiddleware hashes successful GET bodies into a weak ETag and answers
// 304 Not Modified on a match. Handlers that set their own ETag are left alone.
func ETagMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}
		if c.Method() != fiber.MethodGet || c.Response().StatusCode() != fiber.StatusOK {
			return nil
		}
		if len(c.Response().Header.Peek(fiber.HeaderETag)) > 0 {
			return nil
		}

		body := c.Response().Body()
		if len(body) == 0 {
			return nil
		}
		h := sha256.Sum256(body)
		notModified(c, `W/"`+hex.EncodeToString(h[:8])+`"`)
		return nil
	}
}
