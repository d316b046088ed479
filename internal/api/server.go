package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/signalsfoundry/searcharc/internal/logging"
	"github.com/signalsfoundry/searcharc/internal/observability"
	"github.com/signalsfoundry/searcharc/store"
)

// Server exposes completed analysis runs over a read-only HTTP API.
type Server struct {
	app     *fiber.App
	store   *store.RunStore
	log     logging.Logger
	metrics *observability.Collector
}

// Option configures a Server.
type Option func(*Server)

// WithLogger attaches a logger; the default discards output.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics attaches the analysis collector for request metrics.
func WithMetrics(m *observability.Collector) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer builds the API around a run store.
func NewServer(runs *store.RunStore, opts ...Option) *Server {
	s := &Server{
		store: runs,
		log:   logging.Noop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(s.requestMiddleware())
	s.app = app
	s.registerRoutes()
	return s
}

// App returns the underlying fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves requests until the listener fails or Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) registerRoutes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "runs": s.store.Len()})
	})

	api := s.app.Group("/api")
	api.Get("/runs", s.handleListRuns)
	api.Get("/runs/:id", s.handleGetRun)
	api.Get("/runs/:id/heatmap", s.handleHeatmap)
	api.Get("/runs/:id/candidates", s.handleCandidates)
	api.Get("/runs/:id/rings.geojson", s.handleRingsGeoJSON)
	api.Get("/runs/:id/path.geojson", s.handlePathGeoJSON)
}

// requestMiddleware stamps a request ID onto the context, then records the
// access log line and request metrics once the handler chain finishes.
// Errors are resolved through the app's error handler first so the recorded
// status matches the response.
func (s *Server) requestMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		ctx, requestID := logging.EnsureRequestID(c.UserContext())
		c.SetUserContext(ctx)

		if err := c.Next(); err != nil {
			if handlerErr := c.App().Config().ErrorHandler(c, err); handlerErr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		route := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())
		elapsed := time.Since(start)

		if s.metrics != nil {
			s.metrics.ObserveHTTP(route, c.Method(), status, elapsed)
		}
		s.log.Info(ctx, "http request",
			logging.String("request_id", requestID),
			logging.String("method", c.Method()),
			logging.String("route", route),
			logging.String("status", status),
			logging.Duration("duration", elapsed),
		)
		return nil
	}
}
