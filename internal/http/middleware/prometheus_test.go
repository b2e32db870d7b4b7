package middleware_test

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"filemeta/internal/http/handler"
	"filemeta/internal/http/middleware"
	"filemeta/internal/model"
	"filemeta/internal/service/mocks"
)

// newInstrumentedApp wires the request metrics in front of the real routes.
func newInstrumentedApp(t *testing.T, svc *mocks.MockFunctionService) (*fiber.App, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prom, err := middleware.NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler()})
	app.Use(prom.Handler())
	handler.RegisterRoutes(app, svc, reg)
	return app, reg
}

// histogramCount returns the observation count of the series with the given labels.
func histogramCount(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) uint64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	series:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue series
				}
			}
			return m.GetHistogram().GetSampleCount()
		}
	}
	return 0
}

func TestPrometheusMiddleware_CountsRouteOutcomes(t *testing.T) {
	svc := new(mocks.MockFunctionService)
	ok := model.BlobRef{Container: "test-samples-trigger", Name: "a.png"}
	bad := model.BlobRef{Container: "test-samples-trigger", Name: "b.png"}
	svc.On("Dispatch", mock.Anything, ok).Return([]model.Invocation{{ID: "1", Status: model.InvocationSucceeded}}, nil)
	svc.On("Dispatch", mock.Anything, bad).Return([]model.Invocation{{ID: "2", Status: model.InvocationFailed}}, errors.New("boom"))

	app, reg := newInstrumentedApp(t, svc)

	dispatch := func(name string) int {
		req := httptest.NewRequest(fiber.MethodPost, "/api/dispatch",
			strings.NewReader(`{"container":"test-samples-trigger","name":"`+name+`"}`))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, dispatch("a.png"))
	assert.Equal(t, fiber.StatusInternalServerError, dispatch("b.png"))
	assert.Equal(t, fiber.StatusInternalServerError, dispatch("b.png"))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/invocations/not-a-uuid", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	expected := `
# HELP http_requests_total Total number of HTTP requests processed.
# TYPE http_requests_total counter
http_requests_total{method="GET",path="/api/invocations/:id",status="400"} 1
http_requests_total{method="POST",path="/api/dispatch",status="200"} 1
http_requests_total{method="POST",path="/api/dispatch",status="500"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"))

	assert.Equal(t, uint64(3), histogramCount(t, reg, "http_request_duration_seconds",
		map[string]string{"method": "POST", "path": "/api/dispatch"}))
	assert.Equal(t, uint64(1), histogramCount(t, reg, "http_request_duration_seconds",
		map[string]string{"method": "GET", "path": "/api/invocations/:id"}))

	svc.AssertExpectations(t)
}

func TestPrometheusMiddleware_ScrapeIsNotCounted(t *testing.T) {
	app, reg := newInstrumentedApp(t, new(mocks.MockFunctionService))

	for range 3 {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/metrics", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	count, err := testutil.GatherAndCount(reg, "http_requests_total", "http_request_duration_seconds")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewPrometheusMiddleware_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := middleware.NewPrometheusMiddleware(reg)
	require.NoError(t, err)

	_, err = middleware.NewPrometheusMiddleware(reg)
	assert.Error(t, err)
}
