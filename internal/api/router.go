package api

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/taskflow/taskflow-backend/docs"
	"github.com/taskflow/taskflow-backend/internal/api/handler"
	"github.com/taskflow/taskflow-backend/internal/api/metrics"
	"github.com/taskflow/taskflow-backend/internal/api/middleware"
	"github.com/taskflow/taskflow-backend/internal/core/policy"
	"github.com/taskflow/taskflow-backend/internal/core/ports"
	"github.com/taskflow/taskflow-backend/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth     ports.AuthService
	Projects ports.ProjectService
	Tasks    ports.TaskService
	Users    ports.UserService

	// UserRepo backs the per-request active-account check.
	UserRepo ports.UserRepository
	Codec    ports.TokenCodec

	Log           zerolog.Logger
	CookieSecure  bool
	AuthRateLimit float64

	// Health maps dependency names to readiness checks.
	Health map[string]handlers.Pinger

	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	// Now overrides the clock used for token validation.
	Now func() time.Time
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.AuthRateLimit <= 0 {
		d.AuthRateLimit = 10
	}
	if err := metrics.Register(d.Registerer); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	promMW, err := echoprometheus.MiddlewareConfig{
		Namespace:  "taskflow",
		Subsystem:  "http",
		Registerer: d.Registerer,
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("prometheus middleware: %w", err)
	}

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))
	e.Use(promMW)

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.CookieSecure)
	projectHandler := handler.NewProjectHandler(d.Projects)
	taskHandler := handler.NewTaskHandler(d.Tasks)
	userHandler := handler.NewUserHandler(d.Users)

	guard := func(op policy.Operation) echo.MiddlewareFunc {
		return middleware.Authorize(op, d.UserRepo, d.Log)
	}

	v1 := e.Group("/api/v1", middleware.Authenticate(d.Codec, d.Log, d.Now))

	// --- Auth routes ---
	auth := v1.Group("/auth", echomiddleware.RateLimiter(
		echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit)),
	))
	auth.POST("/login", authHandler.Login)
	auth.POST("/logout", authHandler.Logout)

	// --- Admin routes ---
	v1.POST("/admin/register", authHandler.Register, guard(policy.ProvisionUser))

	// --- Manager routes ---
	managers := v1.Group("/managers/projects")
	managers.POST("", projectHandler.Create, guard(policy.CreateProject))
	managers.GET("", projectHandler.List, guard(policy.ListProjects))
	managers.GET("/members", projectHandler.CountMembers, guard(policy.ViewManagerStats))
	managers.GET("/tasks/stats", taskHandler.Stats, guard(policy.ViewManagerStats))
	managers.GET("/:id", projectHandler.Get, guard(policy.ViewProject))
	managers.DELETE("/:id", projectHandler.Delete, guard(policy.DeleteProject))
	managers.POST("/:id/members", projectHandler.AddMembers, guard(policy.AddMembers))
	managers.GET("/:id/members", projectHandler.Members, guard(policy.ViewMembers))
	managers.POST("/:id/tasks", taskHandler.Create, guard(policy.CreateTask))
	managers.DELETE("/:projectId/tasks/:taskId", taskHandler.Delete, guard(policy.DeleteTask))

	// --- Member routes ---
	members := v1.Group("/members/tasks")
	members.GET("/my", taskHandler.MyTasks, guard(policy.ViewOwnTasks))
	members.PATCH("/:id/status", taskHandler.UpdateStatus, guard(policy.UpdateTask))
	members.PATCH("/:id/priority", taskHandler.UpdatePriority, guard(policy.UpdateTask))

	// --- User routes ---
	users := v1.Group("/users")
	users.GET("/me", userHandler.Me, guard(policy.ViewProfile))
	users.GET("/projects/:projectId/available-members", userHandler.AvailableMembers, guard(policy.SearchAvailableMembers))
	users.GET("/projects/:projectId/tasks/available-members", userHandler.AvailableForTask, guard(policy.SearchAvailableMembers))

	// --- Health checks, metrics and docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(d.Health).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
