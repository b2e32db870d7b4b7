package handler

import (
	"bytes"
	"encoding/json"

	"github.com/cloudevents/sdk-go/v2/event"
	"github.com/containerd/log"
	"github.com/gofiber/fiber/v2"
	"github.com/minio/minio-go/v7/pkg/notification"

	"filemeta/internal/model"
	"filemeta/internal/service"
	"filemeta/internal/trigger"
)

// dispatchResult is the body returned when every invocation succeeded.
type dispatchResult struct {
	Items []model.Invocation `json:"data"`
}

type dispatchRequest struct {
	Container string `json:"container"`
	Name      string `json:"name"`
}

// ReceiveCloudEvents accepts structured CloudEvents, single or batched, and
// dispatches the blobs they announce. Event types that do not announce a blob
// creation are acknowledged and ignored.
//
// @Summary Receive storage CloudEvents
// @Tags events
// @Accept json
// @Produce json
// @Success 200 {object} dispatchResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/events [post]
func ReceiveCloudEvents(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		events, err := decodeCloudEvents(c.Body())
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EVENT", "invalid cloud event payload")
		}

		refs := make([]model.BlobRef, 0, len(events))
		for _, e := range events {
			if err := e.Validate(); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_EVENT", "invalid cloud event")
			}
			ref, ok, err := trigger.FromCloudEvent(e)
			if err != nil {
				log.G(c.UserContext()).WithError(err).WithField("event_id", e.ID()).Warn("rejecting storage event")
				return writeError(c, fiber.StatusBadRequest, "INVALID_EVENT", "malformed storage event")
			}
			if !ok {
				log.G(c.UserContext()).WithField("event_type", e.Type()).Debug("ignoring event")
				continue
			}
			refs = append(refs, ref)
		}
		return dispatchAll(c, svc, refs)
	}
}

func decodeCloudEvents(body []byte) ([]event.Event, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []event.Event
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var e event.Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, err
	}
	return []event.Event{e}, nil
}

// EventsHandshake answers the CloudEvents webhook validation request.
//
// @Summary CloudEvents webhook handshake
// @Tags events
// @Param WebHook-Request-Origin header string true "Origin requesting delivery"
// @Success 200
// @Failure 400 {object} errorPayload
// @Router /api/events [options]
func EventsHandshake() fiber.Handler {
	return func(c *fiber.Ctx) error {
		origin := c.Get("WebHook-Request-Origin")
		if origin == "" {
			return writeError(c, fiber.StatusBadRequest, "ORIGIN_REQUIRED", "WebHook-Request-Origin header is required")
		}
		c.Set("WebHook-Allowed-Origin", origin)
		c.Set("WebHook-Allowed-Rate", "*")
		c.Set(fiber.HeaderAllow, "POST, OPTIONS")
		return c.SendStatus(fiber.StatusOK)
	}
}

// ReceiveMinIOEvents accepts a MinIO webhook notification and dispatches the
// created objects. Records whose key cannot be decoded are logged and skipped.
//
// @Summary Receive MinIO bucket notifications
// @Tags events
// @Accept json
// @Produce json
// @Success 200 {object} dispatchResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/events/minio [post]
func ReceiveMinIOEvents(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var info notification.Info
		if err := json.Unmarshal(c.Body(), &info); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_EVENT", "invalid notification payload")
		}
		refs, err := trigger.FromMinIO(info)
		if err != nil {
			log.G(c.UserContext()).WithError(err).Warn("skipping notification records")
		}
		return dispatchAll(c, svc, refs)
	}
}

// DispatchBlob runs the functions bound to a blob named in the request body.
//
// @Summary Trigger functions for a blob
// @Tags events
// @Accept json
// @Produce json
// @Param blob body dispatchRequest true "Triggering blob"
// @Success 200 {object} dispatchResult
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/dispatch [post]
func DispatchBlob(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req dispatchRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		if req.Container == "" || req.Name == "" {
			return writeError(c, fiber.StatusBadRequest, "BLOB_REQUIRED", "container and name are required")
		}
		return dispatchAll(c, svc, []model.BlobRef{{Container: req.Container, Name: req.Name}})
	}
}

// dispatchAll dispatches every ref and answers 500 if any invocation failed,
// letting the sender's retry policy apply.
func dispatchAll(c *fiber.Ctx, svc service.FunctionService, refs []model.BlobRef) error {
	ctx := c.UserContext()
	res := dispatchResult{Items: make([]model.Invocation, 0, len(refs))}
	failed := false
	for _, ref := range refs {
		invs, err := svc.Dispatch(ctx, ref)
		res.Items = append(res.Items, invs...)
		if err != nil {
			failed = true
			log.G(ctx).WithError(err).WithField("blob", ref.Path()).Error("dispatch failed")
		}
	}
	if failed {
		return writeError(c, fiber.StatusInternalServerError, "INVOCATION_FAILED", "one or more invocations failed")
	}
	return c.JSON(res)
}
