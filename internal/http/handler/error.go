package handler

import (
	"errors"

	"github.com/containerd/log"
	"github.com/gofiber/fiber/v2"

	"filemeta/internal/http/middleware"
)

// errorPayload is the JSON body of every non-2xx response.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// frameworkErrors maps statuses raised by fiber itself (routing, body limits)
// to envelope codes. Anything else is reported as INTERNAL_ERROR.
var frameworkErrors = map[int]errorEnvelope{
	fiber.StatusBadRequest:            {Code: "BAD_REQUEST", Message: "bad request"},
	fiber.StatusNotFound:              {Code: "NOT_FOUND", Message: "resource not found"},
	fiber.StatusMethodNotAllowed:      {Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"},
	fiber.StatusRequestEntityTooLarge: {Code: "PAYLOAD_TOO_LARGE", Message: "request body too large"},
	fiber.StatusUnsupportedMediaType:  {Code: "UNSUPPORTED_MEDIA_TYPE", Message: "unsupported content type"},
}

// writeError answers with status and the envelope {code, message}. Messages are
// fixed strings; internal error text never reaches the client.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	id, _ := c.Locals(middleware.RequestIDLocalKey).(string)
	return c.Status(status).JSON(errorPayload{
		RequestID: id,
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// ErrorHandler renders errors returned by handlers and by fiber's router in the
// same envelope as writeError.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			if env, ok := frameworkErrors[fe.Code]; ok {
				return writeError(c, fe.Code, env.Code, env.Message)
			}
		}

		status := fiber.StatusInternalServerError
		if fe != nil {
			status = fe.Code
		}
		log.G(c.UserContext()).WithError(err).WithField("status", status).Error("unhandled request error")
		return writeError(c, status, "INTERNAL_ERROR", "internal server error")
	}
}
