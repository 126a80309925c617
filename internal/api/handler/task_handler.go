package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/api/middleware"
	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

// TaskHandler handles HTTP requests for task operations. Task-scoped routes
// are guarded by RequireTaskRole before reaching it.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /api/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createTaskRequest  true  "Task details"
// @Success      201   {object}  taskResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	var req createTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	detail, err := h.service.Create(c.Request().Context(), caller, toCreateTaskInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toTaskResponse(detail))
}

// Get handles GET /api/tasks/:taskId.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {object}  taskResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId} [get]
func (h *TaskHandler) Get(c echo.Context) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	detail, err := h.service.Get(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(detail))
}

// Update handles PUT /api/tasks/:taskId.
//
// @Summary      Update title and text of a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int                true  "Task id"
// @Param        body    body      updateTaskRequest  true  "New content"
// @Success      200     {object}  taskResponse
// @Failure      400     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId} [put]
func (h *TaskHandler) Update(c echo.Context) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	var req updateTaskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.service.Update(ctx, middleware.CallerFrom(c), taskID, ports.UpdateTaskInput{Title: req.Title, Text: req.Text}); err != nil {
		return err
	}
	return h.respondWithTask(c, taskID)
}

// Delete handles DELETE /api/tasks/:taskId.
//
// @Summary      Delete a task and its comments
// @Tags         tasks
// @Security     BearerAuth
// @Param        taskId  path  int  true  "Task id"
// @Success      204
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), middleware.CallerFrom(c), taskID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListByAuthor handles GET /api/users/:username/tasks/authored.
//
// @Summary      List tasks written by a user
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true   "Author username"
// @Param        page      query     int     false  "Page number, 0-based"
// @Param        size      query     int     false  "Page size (default 10, max 100)"
// @Success      200       {array}   taskResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/users/{username}/tasks/authored [get]
func (h *TaskHandler) ListByAuthor(c echo.Context) error {
	return h.list(c, h.service.ListByAuthor)
}

// ListByExecutor handles GET /api/users/:username/tasks/assigned.
//
// @Summary      List tasks assigned to a user
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        username  path      string  true   "Executor username"
// @Param        page      query     int     false  "Page number, 0-based"
// @Param        size      query     int     false  "Page size (default 10, max 100)"
// @Success      200       {array}   taskResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/users/{username}/tasks/assigned [get]
func (h *TaskHandler) ListByExecutor(c echo.Context) error {
	return h.list(c, h.service.ListByExecutor)
}

// MarkInProcess handles PATCH /api/tasks/:taskId/status/in-process.
//
// @Summary      Move a task to IN_PROCESS
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {object}  taskResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/status/in-process [patch]
func (h *TaskHandler) MarkInProcess(c echo.Context) error {
	return h.transition(c, h.service.MarkInProcess)
}

// MarkCompleted handles PATCH /api/tasks/:taskId/status/completed.
//
// @Summary      Move a task to COMPLETED
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {object}  taskResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/status/completed [patch]
func (h *TaskHandler) MarkCompleted(c echo.Context) error {
	return h.transition(c, h.service.MarkCompleted)
}

// SetPriorityLow handles PATCH /api/tasks/:taskId/priority/low.
//
// @Summary      Set task priority to LOW
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {object}  taskResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/priority/low [patch]
func (h *TaskHandler) SetPriorityLow(c echo.Context) error {
	return h.transition(c, h.service.SetPriorityLow)
}

// SetPriorityHigh handles PATCH /api/tasks/:taskId/priority/high.
//
// @Summary      Set task priority to HIGH
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {object}  taskResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/priority/high [patch]
func (h *TaskHandler) SetPriorityHigh(c echo.Context) error {
	return h.transition(c, h.service.SetPriorityHigh)
}

// ReassignExecutor handles PATCH /api/tasks/:taskId/executor/:executorName.
//
// @Summary      Assign a new executor
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId        path      int     true  "Task id"
// @Param        executorName  path      string  true  "Executor username"
// @Success      200           {object}  taskResponse
// @Failure      403           {object}  errorResponse
// @Failure      404           {object}  errorResponse
// @Failure      500           {object}  errorResponse
// @Router       /api/tasks/{taskId}/executor/{executorName} [patch]
func (h *TaskHandler) ReassignExecutor(c echo.Context) error {
	executorName := c.Param("executorName")
	return h.transition(c, func(ctx context.Context, caller *domain.Caller, taskID int64) error {
		return h.service.ReassignExecutor(ctx, caller, taskID, executorName)
	})
}

// ResyncRoles handles POST /api/tasks/:taskId/roles/resync.
//
// @Summary      Rebuild the role cache entry of a task
// @Description  Only the author recorded in the primary store may call it.
// @Tags         tasks
// @Security     BearerAuth
// @Param        taskId  path  int  true  "Task id"
// @Success      204
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/roles/resync [post]
func (h *TaskHandler) ResyncRoles(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	if err := h.service.ResyncRoles(c.Request().Context(), caller, taskID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// History handles GET /api/tasks/:taskId/history.
//
// @Summary      List the audit trail of a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {array}   taskEventResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/history [get]
func (h *TaskHandler) History(c echo.Context) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	events, err := h.service.History(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskEventResponses(events))
}

// --- helpers ---

type listFunc func(ctx context.Context, username string, page ports.Page) ([]*ports.TaskDetail, error)

type transitionFunc func(ctx context.Context, caller *domain.Caller, taskID int64) error

func (h *TaskHandler) list(c echo.Context, fn listFunc) error {
	var page ports.Page
	if err := echo.QueryParamsBinder(c).
		Int("page", &page.Number).
		Int("size", &page.Size).
		BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "page and size must be integers")
	}

	tasks, err := fn(c.Request().Context(), c.Param("username"), page)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}

func (h *TaskHandler) transition(c echo.Context, fn transitionFunc) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	if err := fn(c.Request().Context(), middleware.CallerFrom(c), taskID); err != nil {
		return err
	}
	return h.respondWithTask(c, taskID)
}

func (h *TaskHandler) respondWithTask(c echo.Context, taskID int64) error {
	detail, err := h.service.Get(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponse(detail))
}
