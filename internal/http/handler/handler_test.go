package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"filemeta/internal/config"
	"filemeta/internal/model"
	"filemeta/internal/service"
	serviceMocks "filemeta/internal/service/mocks"
	"filemeta/internal/storage"

	"github.com/containerd/log"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Get("/health", HealthCheck(mockSvc))

	t.Run("healthy", func(t *testing.T) {
		mockSvc.On("Ready", mock.Anything).Return(nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "healthy", body["status"])
	})

	t.Run("unhealthy", func(t *testing.T) {
		mockSvc.On("Ready", mock.Anything).Return(errors.New("storage: unreachable")).Once()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "SERVICE_UNAVAILABLE", body.Error.Code)
	})
}

func TestLivenessProbe(t *testing.T) {
	app := fiber.New()
	app.Get("/healthz", LivenessProbe())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListFunctions(t *testing.T) {
	regs, err := service.Registrations(config.FunctionsConfig{
		ExtractEnabled: true,
		ExtractTrigger: "test-samples-trigger/{name}",
		ExtractOutput:  "test-samples-output/{name}-output.txt",
	})
	require.NoError(t, err)

	mockSvc := new(serviceMocks.MockFunctionService)
	mockSvc.On("Registrations").Return(regs)
	app := fiber.New()
	app.Get("/api/functions", ListFunctions(mockSvc))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/functions", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []functionInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []functionInfo{{
		Name:    "ExtractMetadata",
		Trigger: "test-samples-trigger/{name}",
		Output:  "test-samples-output/{name}-output.txt",
	}}, got)
}

const blobCreatedEvent = `{
  "specversion": "1.0",
  "id": "831e1650-001e-001b-66ab-eeb76e069631",
  "source": "/subscriptions/sub/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/acct",
  "type": "Microsoft.Storage.BlobCreated",
  "subject": "/blobServices/default/containers/test-samples-trigger/blobs/dir/a.txt",
  "datacontenttype": "application/json",
  "data": {"api": "PutBlockList", "contentType": "text/plain"}
}`

const blobDeletedEvent = `{
  "specversion": "1.0",
  "id": "2",
  "source": "/subscriptions/sub",
  "type": "Microsoft.Storage.BlobDeleted",
  "subject": "/blobServices/default/containers/test-samples-trigger/blobs/old.txt",
  "datacontenttype": "application/json",
  "data": {"api": "DeleteBlob"}
}`

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestReceiveCloudEvents(t *testing.T) {
	ref := model.BlobRef{Container: "test-samples-trigger", Name: "dir/a.txt"}
	inv := model.Invocation{ID: uuid.NewString(), Function: "ExtractMetadata", Status: model.InvocationSucceeded}

	t.Run("single event", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFunctionService)
		mockSvc.On("Dispatch", mock.Anything, ref).Return([]model.Invocation{inv}, nil).Once()
		app := fiber.New()
		app.Post("/api/events", ReceiveCloudEvents(mockSvc))

		resp := postJSON(t, app, "/api/events", blobCreatedEvent)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var body dispatchResult
		json.NewDecoder(resp.Body).Decode(&body)
		require.Len(t, body.Items, 1)
		assert.Equal(t, inv.ID, body.Items[0].ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("batch ignores other event types", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFunctionService)
		mockSvc.On("Dispatch", mock.Anything, ref).Return([]model.Invocation{inv}, nil).Once()
		app := fiber.New()
		app.Post("/api/events", ReceiveCloudEvents(mockSvc))

		resp := postJSON(t, app, "/api/events", "["+blobDeletedEvent+","+blobCreatedEvent+"]")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertNumberOfCalls(t, "Dispatch", 1)
	})

	t.Run("invocation failure answers 500", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFunctionService)
		failed := inv
		failed.Status = model.InvocationFailed
		mockSvc.On("Dispatch", mock.Anything, ref).Return([]model.Invocation{failed}, errors.New("boom")).Once()
		app := fiber.New()
		app.Post("/api/events", ReceiveCloudEvents(mockSvc))

		resp := postJSON(t, app, "/api/events", blobCreatedEvent)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVOCATION_FAILED", body.Error.Code)
	})

	t.Run("invalid payloads", func(t *testing.T) {
		mockSvc := new(serviceMocks.MockFunctionService)
		app := fiber.New()
		app.Post("/api/events", ReceiveCloudEvents(mockSvc))

		for _, payload := range []string{
			`not json`,
			`{"specversion":"1.0","type":"x"}`,
			strings.Replace(blobCreatedEvent, "/blobs/dir/a.txt", "", 1),
		} {
			resp := postJSON(t, app, "/api/events", payload)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, payload)
			var body errorPayload
			json.NewDecoder(resp.Body).Decode(&body)
			assert.Equal(t, "INVALID_EVENT", body.Error.Code)
		}
		mockSvc.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything)
	})
}

func TestEventsHandshake(t *testing.T) {
	app := fiber.New()
	app.Options("/api/events", EventsHandshake())

	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("WebHook-Request-Origin", "eventgrid.azure.net")
	resp, _ := app.Test(req)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "eventgrid.azure.net", resp.Header.Get("WebHook-Allowed-Origin"))

	resp, _ = app.Test(httptest.NewRequest(http.MethodOptions, "/api/events", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceiveMinIOEvents(t *testing.T) {
	payload := `{"EventName":"s3:ObjectCreated:Put","Key":"test-samples-copy/a+b.bin","Records":[
		{"eventName":"s3:ObjectCreated:Put","s3":{"bucket":{"name":"test-samples-copy"},"object":{"key":"a+b.bin","size":3}}},
		{"eventName":"s3:ObjectRemoved:Delete","s3":{"bucket":{"name":"test-samples-copy"},"object":{"key":"gone"}}}
	]}`

	mockSvc := new(serviceMocks.MockFunctionService)
	mockSvc.On("Dispatch", mock.Anything, model.BlobRef{Container: "test-samples-copy", Name: "a b.bin"}).Return([]model.Invocation{}, nil).Once()
	app := fiber.New()
	app.Post("/api/events/minio", ReceiveMinIOEvents(mockSvc))

	resp := postJSON(t, app, "/api/events/minio", payload)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	mockSvc.AssertExpectations(t)

	resp = postJSON(t, app, "/api/events/minio", `{"Records": 5}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDispatchBlob(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Post("/api/dispatch", DispatchBlob(mockSvc))

	t.Run("success", func(t *testing.T) {
		ref := model.BlobRef{Container: "test-samples-trigger", Name: "x.txt"}
		mockSvc.On("Dispatch", mock.Anything, ref).Return([]model.Invocation{{ID: "1"}}, nil).Once()

		resp := postJSON(t, app, "/api/dispatch", `{"container":"test-samples-trigger","name":"x.txt"}`)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("missing name", func(t *testing.T) {
		resp := postJSON(t, app, "/api/dispatch", `{"container":"test-samples-trigger"}`)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "BLOB_REQUIRED", body.Error.Code)
	})
}

func TestListInvocations(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Get("/api/invocations", ListInvocations(mockSvc))

	t.Run("success", func(t *testing.T) {
		expectedRes := &service.InvocationListResult{
			Items: []model.Invocation{{ID: uuid.New().String(), Function: "CopyFile"}},
			Total: 1,
		}
		mockSvc.On("List", mock.Anything, 10, 0).Return(expectedRes, nil).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/invocations?limit=10&offset=0", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result service.InvocationListResult
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Len(t, result.Items, 1)
		assert.Equal(t, 1, result.Total)
		mockSvc.AssertExpectations(t)
	})

	t.Run("invalid limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/invocations?limit=abc", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var body errorPayload
		json.NewDecoder(resp.Body).Decode(&body)
		assert.Equal(t, "INVALID_LIMIT", body.Error.Code)
	})

	t.Run("service error", func(t *testing.T) {
		mockSvc.On("List", mock.Anything, 10, 0).Return(nil, errors.New("service error")).Once()

		req := httptest.NewRequest(http.MethodGet, "/api/invocations", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})
}

func TestGetInvocation(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Get("/api/invocations/:id", GetInvocation(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(&model.Invocation{ID: id, Function: "ExtractMetadata"}, nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/invocations/"+id, nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		var result model.Invocation
		json.NewDecoder(resp.Body).Decode(&result)
		assert.Equal(t, id, result.ID)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Get", mock.Anything, id).Return(nil, service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/invocations/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/invocations/invalid-uuid", nil))

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "INVALID_ID", res.Error.Code)
	})
}

func TestInvocationOutput(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Get("/api/invocations/:id/output", InvocationOutput(mockSvc, time.Minute))

	tests := []struct {
		name     string
		url      string
		err      error
		status   int
		code     string
		location string
	}{
		{name: "redirect", url: "https://minio.local/out?sig=1", status: http.StatusTemporaryRedirect, location: "https://minio.local/out?sig=1"},
		{name: "not found", err: service.ErrNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "no output", err: service.ErrNoOutput, status: http.StatusNotFound, code: "NO_OUTPUT"},
		{name: "unsupported", err: storage.ErrPresignUnsupported, status: http.StatusNotImplemented, code: "NOT_SUPPORTED"},
		{name: "storage error", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := uuid.New().String()
			mockSvc.On("OutputURL", mock.Anything, id, time.Minute).Return(tt.url, tt.err).Once()

			resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/api/invocations/"+id+"/output", nil))

			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.location != "" {
				assert.Equal(t, tt.location, resp.Header.Get("Location"))
				return
			}
			var res errorPayload
			json.NewDecoder(resp.Body).Decode(&res)
			assert.Equal(t, tt.code, res.Error.Code)
		})
	}
}

func TestDeleteInvocation(t *testing.T) {
	mockSvc := new(serviceMocks.MockFunctionService)
	app := fiber.New()
	app.Delete("/api/invocations/:id", DeleteInvocation(mockSvc))

	t.Run("success", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(nil).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/invocations/"+id, nil))

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(service.ErrNotFound).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/invocations/"+id, nil))

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("service error", func(t *testing.T) {
		id := uuid.New().String()
		mockSvc.On("Delete", mock.Anything, id).Return(errors.New("delete error")).Once()

		resp, _ := app.Test(httptest.NewRequest(http.MethodDelete, "/api/invocations/"+id, nil))

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})
}

func TestRouting(t *testing.T) {
	app := fiber.New(fiber.Config{
		ErrorHandler: ErrorHandler(),
	})

	mockSvc := new(serviceMocks.MockFunctionService)
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "routing_test_total", Help: "test"}))
	RegisterRoutes(app, mockSvc, reg)

	t.Run("not found route", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/non-existent", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "NOT_FOUND", res.Error.Code)
	})

	t.Run("method not allowed", func(t *testing.T) {
		// Health endpoint only allows GET
		req := httptest.NewRequest(http.MethodPost, "/health", nil)
		resp, _ := app.Test(req)

		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
		var res errorPayload
		json.NewDecoder(resp.Body).Decode(&res)
		assert.Equal(t, "METHOD_NOT_ALLOWED", res.Error.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		buf := new(strings.Builder)
		_, err := io.Copy(buf, resp.Body)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "routing_test_total 0")
	})
}

func TestErrorHandler(t *testing.T) {
	logger, hook := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(), BodyLimit: 16})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("request_id", "req-1")
		c.SetUserContext(log.WithLogger(c.UserContext(), logrus.NewEntry(logger)))
		return c.Next()
	})
	app.Get("/wrapped", func(c *fiber.Ctx) error {
		return fmt.Errorf("parse upload: %w", fiber.ErrUnsupportedMediaType)
	})
	app.Get("/unavailable", func(c *fiber.Ctx) error {
		return fiber.ErrServiceUnavailable
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("storage exploded: secret detail")
	})
	app.Post("/upload", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
		logged bool
	}{
		{name: "wrapped framework error", req: httptest.NewRequest(http.MethodGet, "/wrapped", nil), status: http.StatusUnsupportedMediaType, code: "UNSUPPORTED_MEDIA_TYPE"},
		{name: "unmapped fiber status keeps its code", req: httptest.NewRequest(http.MethodGet, "/unavailable", nil), status: http.StatusServiceUnavailable, code: "INTERNAL_ERROR", logged: true},
		{name: "plain error", req: httptest.NewRequest(http.MethodGet, "/plain", nil), status: http.StatusInternalServerError, code: "INTERNAL_ERROR", logged: true},
		{name: "body limit", req: httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("x", 64))), status: http.StatusRequestEntityTooLarge, code: "PAYLOAD_TOO_LARGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()

			resp, err := app.Test(tt.req)
			require.NoError(t, err)

			assert.Equal(t, tt.status, resp.StatusCode)
			var body errorPayload
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.code, body.Error.Code)
			assert.NotContains(t, body.Error.Message, "secret")

			if tt.logged {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
				assert.Equal(t, tt.status, hook.LastEntry().Data["status"])
				assert.Equal(t, "req-1", body.RequestID)
			} else {
				assert.Empty(t, hook.AllEntries())
			}
		})
	}
}
