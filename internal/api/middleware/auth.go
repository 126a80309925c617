package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/core/domain"
)

const callerKey = "caller"

type callerCtxKey struct{}

// CallerEstablisher resolves the Authorization header into an optional caller.
type CallerEstablisher interface {
	Establish(ctx context.Context, authHeader string) (*domain.Caller, error)
}

// Authenticate attaches the verified caller, if any, to the request. It never
// rejects: anonymous requests continue and protected routes decide for
// themselves with RequireCaller.
func Authenticate(authn CallerEstablisher, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CallerFrom(c) != nil {
				return next(c)
			}

			req := c.Request()
			caller, err := authn.Establish(req.Context(), req.Header.Get(echo.HeaderAuthorization))
			if err != nil {
				log.Error().Err(err).
					Str("path", c.Path()).
					Msg("credential lookup failed, continuing anonymous")
			}
			if caller != nil {
				SetCaller(c, caller)
			}

			return next(c)
		}
	}
}

// RequireCaller rejects anonymous requests with 401.
func RequireCaller(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if CallerFrom(c) == nil {
			return domain.ErrUnauthenticated
		}
		return next(c)
	}
}

// SetCaller attaches caller to both the echo context and the request context.
func SetCaller(c echo.Context, caller *domain.Caller) {
	c.Set(callerKey, caller)
	req := c.Request()
	c.SetRequest(req.WithContext(WithCaller(req.Context(), caller)))
}

// CallerFrom returns the caller attached by Authenticate, or nil.
func CallerFrom(c echo.Context) *domain.Caller {
	caller, _ := c.Get(callerKey).(*domain.Caller)
	return caller
}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller *domain.Caller) context.Context {
	return context.WithValue(ctx, callerCtxKey{}, caller)
}

// CallerFromContext returns the caller stored by WithCaller, or nil.
func CallerFromContext(ctx context.Context) *domain.Caller {
	caller, _ := ctx.Value(callerCtxKey{}).(*domain.Caller)
	return caller
}
