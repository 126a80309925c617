package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskmanagement/task-system/docs"
	"github.com/taskmanagement/task-system/internal/api/handler"
	"github.com/taskmanagement/task-system/internal/api/middleware"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/infrastructure/http/handlers"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Log            zerolog.Logger
	Authenticator  middleware.CallerEstablisher
	Authorizer     ports.TaskAuthorizer
	AuthService    ports.AuthService
	TaskService    ports.TaskService
	CommentService ports.CommentService
	Readiness      []handlers.DependencyCheck

	// Registerer and Gatherer back the HTTP metrics; the default registry is
	// used when nil.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "taskmgmt",
		Registerer: registerer,
	}))
	e.Use(middleware.Authenticate(deps.Authenticator, deps.Log))

	// --- Operational routes (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewReadinessHandler(deps.Readiness...).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.AuthService)
	e.POST("/auth/sign-up", authHandler.SignUp)
	e.POST("/auth/sign-in", authHandler.SignIn)

	// --- Task routes ---
	tasks := handler.NewTaskHandler(deps.TaskService)
	comments := handler.NewCommentHandler(deps.CommentService)

	author := middleware.RequireTaskRole(deps.Authorizer, middleware.RoleAuthor)
	authorOrExecutor := middleware.RequireTaskRole(deps.Authorizer, middleware.RoleAuthor, middleware.RoleExecutor)

	api := e.Group("/api", middleware.RequireCaller)

	api.POST("/tasks", tasks.Create)
	api.GET("/tasks/:taskId", tasks.Get, author)
	api.PUT("/tasks/:taskId", tasks.Update, author)
	api.DELETE("/tasks/:taskId", tasks.Delete, author)
	api.PATCH("/tasks/:taskId/status/in-process", tasks.MarkInProcess, authorOrExecutor)
	api.PATCH("/tasks/:taskId/status/completed", tasks.MarkCompleted, authorOrExecutor)
	api.PATCH("/tasks/:taskId/priority/low", tasks.SetPriorityLow, author)
	api.PATCH("/tasks/:taskId/priority/high", tasks.SetPriorityHigh, author)
	api.PATCH("/tasks/:taskId/executor/:executorName", tasks.ReassignExecutor, author)
	api.GET("/tasks/:taskId/history", tasks.History, authorOrExecutor)
	api.POST("/tasks/:taskId/roles/resync", tasks.ResyncRoles)

	api.GET("/users/:username/tasks/authored", tasks.ListByAuthor)
	api.GET("/users/:username/tasks/assigned", tasks.ListByExecutor)

	api.POST("/tasks/:taskId/comments", comments.Create)
	api.GET("/tasks/:taskId/comments", comments.List)
	api.GET("/tasks/:taskId/comments/:commentId", comments.Get)
	api.PUT("/tasks/:taskId/comments/:commentId", comments.Update)
	api.DELETE("/tasks/:taskId/comments/:commentId", comments.Delete)

	return e
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
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
