package middleware

import (
	"errors"
	"time"

	"github.com/containerd/log"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Logger logs each HTTP request through the logger carried by the request context.
// Fields:
//   - request_id (attached by RequestID)
//   - method
//   - path
//   - status
//   - latency (in milliseconds, as float)
func Logger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// The global error handler runs after the chain, so derive its status here.
		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}

		entry := log.G(c.UserContext()).WithFields(logrus.Fields{
			"method":  c.Method(),
			"path":    c.Path(),
			"status":  status,
			"latency": float64(time.Since(start).Microseconds()) / 1000,
		})
		if status >= fiber.StatusInternalServerError {
			entry.Warn("request")
		} else {
			entry.Info("request")
		}

		return err
	}
}
