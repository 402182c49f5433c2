package service

import (
	"context"

	"github.com/charmbracelet/log"
	v "github.com/cohesivestack/valgo"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/google/uuid"

	"queryfanout/pkg/auth"
	"queryfanout/pkg/fanout"
	"queryfanout/pkg/metrics"
	"queryfanout/pkg/services"
)

// Runner is the slice of the fanout runner the server needs.
type Runner interface {
	Run(ctx context.Context, query string, serviceKeys []string, outputPath string) []fanout.QueryResult
}

// FanoutRequest is the POST /v1/fanout body.
type FanoutRequest struct {
	Query    string   `json:"query"`
	Services []string `json:"services"`
}

// FanoutResponse wraps one run's results under a fresh run id.
type FanoutResponse struct {
	RunID   string               `json:"run_id"`
	Query   string               `json:"query"`
	Results []fanout.QueryResult `json:"results"`
}

/*
FanoutServer exposes the fanout runner over HTTP. Runs execute
synchronously inside the request, so response times track the slowest
service's poll loop.
*/
type FanoutServer struct {
	app       *fiber.App
	runner    Runner
	registry  *services.Registry
	metrics   *metrics.FanoutMetrics
	validator *auth.Validator
	addr      string
}

type FanoutServerOption func(*FanoutServer)

// WithAuth enables bearer-token checks on the /v1 routes.
func WithAuth(secret string) FanoutServerOption {
	return func(srv *FanoutServer) {
		if secret != "" {
			srv.validator = auth.NewValidator(secret)
		}
	}
}

// WithServerMetrics exposes the collector on GET /v1/metrics.
func WithServerMetrics(m *metrics.FanoutMetrics) FanoutServerOption {
	return func(srv *FanoutServer) {
		srv.metrics = m
	}
}

func WithAddr(addr string) FanoutServerOption {
	return func(srv *FanoutServer) {
		srv.addr = addr
	}
}

func NewFanoutServer(
	runner Runner, registry *services.Registry, options ...FanoutServerOption,
) *FanoutServer {
	srv := &FanoutServer{
		app: fiber.New(fiber.Config{
			AppName:           "Query Fanout",
			ServerHeader:      "Query-Fanout-Server",
			StreamRequestBody: true,
		}),
		runner:   runner,
		registry: registry,
		addr:     ":3210",
	}

	for _, option := range options {
		option(srv)
	}

	srv.app.Use(logger.New(logger.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Path() == healthcheck.LivenessEndpoint ||
				c.Path() == healthcheck.ReadinessEndpoint
		},
	}))

	srv.app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	srv.app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())

	srv.app.Get("/", srv.handleRoot)

	api := srv.app.Group("/v1")

	if srv.validator != nil {
		api.Use(srv.requireAuth)
	}

	api.Post("/fanout", srv.handleFanout)
	api.Get("/services", srv.handleServices)
	api.Get("/metrics", srv.handleMetrics)

	return srv
}

func (srv *FanoutServer) Start() error {
	log.Info("fanout server listening", "addr", srv.addr)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

// App exposes the fiber app for in-process testing.
func (srv *FanoutServer) App() *fiber.App {
	return srv.app
}

func (srv *FanoutServer) requireAuth(ctx fiber.Ctx) error {
	if err := srv.validator.ValidateBearer(ctx.Get("Authorization")); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return ctx.Next()
}

func (srv *FanoutServer) handleRoot(ctx fiber.Ctx) error {
	return ctx.SendString("OK")
}

func (srv *FanoutServer) handleFanout(ctx fiber.Ctx) error {
	var request FanoutRequest

	if err := ctx.Bind().Body(&request); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body: " + err.Error(),
		})
	}

	val := v.Is(v.String(request.Query, "query").Not().Blank())

	for _, key := range request.Services {
		val.Is(v.String(key, "services").Not().Blank())
	}

	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(val.Error())
	}

	results := srv.runner.Run(ctx.RequestCtx(), request.Query, request.Services, "")

	return ctx.JSON(FanoutResponse{
		RunID:   uuid.New().String(),
		Query:   request.Query,
		Results: results,
	})
}

func (srv *FanoutServer) handleServices(ctx fiber.Ctx) error {
	return ctx.JSON(srv.registry.Descriptors())
}

func (srv *FanoutServer) handleMetrics(ctx fiber.Ctx) error {
	if srv.metrics == nil {
		return ctx.JSON(fiber.Map{})
	}

	return ctx.JSON(srv.metrics.Snapshot())
}
