package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"filemeta/internal/service"
)

// OutputURLExpiry is the lifetime of presigned output download links.
const OutputURLExpiry = 15 * time.Minute

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// gatherer may be nil, in which case /metrics is not served.
func RegisterRoutes(app *fiber.App, svc service.FunctionService, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(svc))
	app.Get("/healthz", LivenessProbe())

	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	api.Post("/events", ReceiveCloudEvents(svc))
	api.Options("/events", EventsHandshake())
	api.Post("/events/minio", ReceiveMinIOEvents(svc))
	api.Post("/dispatch", DispatchBlob(svc))

	api.Get("/functions", ListFunctions(svc))

	api.Get("/invocations", ListInvocations(svc))
	api.Get("/invocations/:id", GetInvocation(svc))
	api.Get("/invocations/:id/output", InvocationOutput(svc, OutputURLExpiry))
	api.Delete("/invocations/:id", DeleteInvocation(svc))
}

// HealthCheck reports whether storage and the invocation repository are reachable.
//
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := svc.Ready(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe always answers 200 while the process serves HTTP.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}

type functionInfo struct {
	Name    string `json:"name"`
	Trigger string `json:"trigger"`
	Output  string `json:"output"`
}

// ListFunctions lists the hosted functions and their bindings.
//
// @Summary List hosted functions
// @Tags functions
// @Produce json
// @Success 200 {array} functionInfo
// @Router /api/functions [get]
func ListFunctions(svc service.FunctionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		regs := svc.Registrations()
		out := make([]functionInfo, 0, len(regs))
		for _, r := range regs {
			out = append(out, functionInfo{
				Name:    r.Func.Name(),
				Trigger: r.Binding.Trigger.String(),
				Output:  r.Binding.Output.String(),
			})
		}
		return c.JSON(out)
	}
}
