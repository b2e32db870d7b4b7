package middleware

import (
	"github.com/containerd/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID is a reusable middleware that ensures every request has a request ID.
//
// Behavior:
//   - Reads X-Request-ID from the incoming request header.
//   - If missing, generates a new UUID.
//   - Stores the value in Fiber context locals under RequestIDLocalKey.
//   - Attaches it as the request_id field of the context logger, so function
//     invocations triggered by the request log it too.
//   - Adds X-Request-ID to the response header with the same value.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)

		ctx := c.UserContext()
		c.SetUserContext(log.WithLogger(ctx, log.G(ctx).WithField(RequestIDLocalKey, id)))

		c.Set(RequestIDHeader, id)

		return c.Next()
	}
}
