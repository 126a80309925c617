package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

// Role is a task-scoped role checked against the role cache.
type Role string

const (
	RoleAuthor   Role = "author"
	RoleExecutor Role = "executor"
)

// TaskIDParam is the path parameter carrying the task id.
const TaskIDParam = "taskId"

// RequireTaskRole lets the request through when the caller holds any of
// roles on the task named by the :taskId path parameter. Evaluation errors
// deny the request.
func RequireTaskRole(authz ports.TaskAuthorizer, roles ...Role) echo.MiddlewareFunc {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	label := strings.Join(names, "|")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := CallerFrom(c)
			if caller == nil {
				metrics.AuthorizationDecisionsTotal.WithLabelValues(label, "anonymous").Inc()
				return domain.ErrUnauthenticated
			}

			taskID, err := strconv.ParseInt(c.Param(TaskIDParam), 10, 64)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid task id")
			}

			ctx := c.Request().Context()
			for _, role := range roles {
				var ok bool
				switch role {
				case RoleAuthor:
					ok, err = authz.IsAuthor(ctx, taskID, caller.Email)
				case RoleExecutor:
					ok, err = authz.IsExecutor(ctx, taskID, caller.Email)
				}
				if err != nil {
					metrics.AuthorizationDecisionsTotal.WithLabelValues(label, "error").Inc()
					return err
				}
				if ok {
					metrics.AuthorizationDecisionsTotal.WithLabelValues(label, "allow").Inc()
					return next(c)
				}
			}

			metrics.AuthorizationDecisionsTotal.WithLabelValues(label, "deny").Inc()
			return domain.ErrForbidden
		}
	}
}
