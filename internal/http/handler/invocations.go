package handler

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"filemeta/internal/service"
	"filemeta/internal/storage"
)

// ListInvocations lists invocation records, newest first.
//
// @Summary List invocations
// @Tags invocations
// @Produce json
// @Param limit query int false "Page size" default(10)
// @Param offset query int false "Offset" default(0)
// @Success 200 {object} service.InvocationListResult
// @Failure 400 {object} errorPayload
// @Router /api/invocations [get]
func ListInvocations(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	}
}

// GetInvocation returns one invocation record.
//
// @Summary Get an invocation
// @Tags invocations
// @Produce json
// @Param id path string true "Invocation ID"
// @Success 200 {object} model.Invocation
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/invocations/{id} [get]
func GetInvocation(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		inv, err := svc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "invocation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(inv)
	}
}

// InvocationOutput redirects to a time-limited download URL of the output blob.
//
// @Summary Download an invocation's output
// @Tags invocations
// @Param id path string true "Invocation ID"
// @Success 307
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 501 {object} errorPayload
// @Router /api/invocations/{id}/output [get]
func InvocationOutput(svc service.FunctionService, expiry time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		u, err := svc.OutputURL(c.UserContext(), id, expiry)
		switch {
		case err == nil:
			return c.Redirect(u, fiber.StatusTemporaryRedirect)
		case errors.Is(err, service.ErrNotFound):
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "invocation not found")
		case errors.Is(err, service.ErrNoOutput):
			return writeError(c, fiber.StatusNotFound, "NO_OUTPUT", "invocation has no output")
		case errors.Is(err, storage.ErrPresignUnsupported):
			return writeError(c, fiber.StatusNotImplemented, "NOT_SUPPORTED", "storage backend cannot presign downloads")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// DeleteInvocation removes the output blob of an invocation and its record.
//
// @Summary Delete an invocation
// @Tags invocations
// @Param id path string true "Invocation ID"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /api/invocations/{id} [delete]
func DeleteInvocation(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "invocation not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
