package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/core/ports"
)

const commentIDParam = "commentId"

// CommentHandler serves the comments of a task. Any signed-in caller may read
// and add comments; only a comment's author may change or remove it.
type CommentHandler struct {
	service ports.CommentService
}

func NewCommentHandler(service ports.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// Create handles POST /api/tasks/:taskId/comments.
//
// @Summary      Comment on a task
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int             true  "Task id"
// @Param        body    body      commentRequest  true  "Comment"
// @Success      201     {object}  commentResponse
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	view, err := h.service.Create(c.Request().Context(), caller, taskID, req.Text)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCommentResponse(*view))
}

// List handles GET /api/tasks/:taskId/comments.
//
// @Summary      List the comments of a task
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        taskId  path      int  true  "Task id"
// @Success      200     {array}   commentResponse
// @Failure      404     {object}  errorResponse
// @Router       /api/tasks/{taskId}/comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	taskID, err := taskIDParam(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.Request().Context(), taskID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponses(views))
}

// Get handles GET /api/tasks/:taskId/comments/:commentId.
//
// @Summary      Get a comment
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        taskId     path      int  true  "Task id"
// @Param        commentId  path      int  true  "Comment id"
// @Success      200        {object}  commentResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/tasks/{taskId}/comments/{commentId} [get]
func (h *CommentHandler) Get(c echo.Context) error {
	taskID, commentID, err := commentParams(c)
	if err != nil {
		return err
	}
	view, err := h.service.Get(c.Request().Context(), taskID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(*view))
}

// Update handles PUT /api/tasks/:taskId/comments/:commentId.
//
// @Summary      Edit a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        taskId     path      int             true  "Task id"
// @Param        commentId  path      int             true  "Comment id"
// @Param        body       body      commentRequest  true  "Comment"
// @Success      200        {object}  commentResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/tasks/{taskId}/comments/{commentId} [put]
func (h *CommentHandler) Update(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	taskID, commentID, err := commentParams(c)
	if err != nil {
		return err
	}
	var req commentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.service.Update(ctx, caller, taskID, commentID, req.Text); err != nil {
		return err
	}
	view, err := h.service.Get(ctx, taskID, commentID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toCommentResponse(*view))
}

// Delete handles DELETE /api/tasks/:taskId/comments/:commentId.
//
// @Summary      Delete a comment
// @Tags         comments
// @Security     BearerAuth
// @Param        taskId     path  int  true  "Task id"
// @Param        commentId  path  int  true  "Comment id"
// @Success      204
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /api/tasks/{taskId}/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	caller, err := callerOf(c)
	if err != nil {
		return err
	}
	taskID, commentID, err := commentParams(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), caller, taskID, commentID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func commentParams(c echo.Context) (int64, int64, error) {
	taskID, err := taskIDParam(c)
	if err != nil {
		return 0, 0, err
	}
	commentID, err := int64Param(c, commentIDParam)
	if err != nil {
		return 0, 0, err
	}
	return taskID, commentID, nil
}
