package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/api/middleware"
	"github.com/taskmanagement/task-system/internal/core/domain"
)

// callerOf returns the caller attached by the Authenticate middleware. Routes
// behind RequireCaller always have one; the check guards misrouted handlers.
func callerOf(c echo.Context) (*domain.Caller, error) {
	caller := middleware.CallerFrom(c)
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	return caller, nil
}

func int64Param(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func taskIDParam(c echo.Context) (int64, error) {
	return int64Param(c, middleware.TaskIDParam)
}

// bindAndValidate decodes the request body into req and runs the registered
// validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
