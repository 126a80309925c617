package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/api/middleware"
	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

type stubCommentService struct {
	ports.CommentService

	view     *ports.CommentView
	err      error
	lastText string
	deleted  []int64
}

func (s *stubCommentService) Create(_ context.Context, _ *domain.Caller, taskID int64, text string) (*ports.CommentView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.lastText = text
	return &ports.CommentView{ID: 1, TaskID: taskID, Text: text, AuthorName: "alice"}, nil
}

func (s *stubCommentService) Get(_ context.Context, taskID, commentID int64) (*ports.CommentView, error) {
	if s.view == nil || s.view.TaskID != taskID || s.view.ID != commentID {
		return nil, domain.ErrCommentNotFound
	}
	return s.view, nil
}

func (s *stubCommentService) Update(_ context.Context, _ *domain.Caller, _, _ int64, text string) error {
	if s.err != nil {
		return s.err
	}
	s.view.Text = text
	return nil
}

func (s *stubCommentService) Delete(_ context.Context, _ *domain.Caller, _, commentID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, commentID)
	return nil
}

func commentContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, taskID, commentID string) echo.Context {
	c := taskContext(e, req, rec, "")
	c.SetParamNames(middleware.TaskIDParam, commentIDParam)
	c.SetParamValues(taskID, commentID)
	return c
}

func TestCommentHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubCommentService{}
	h := NewCommentHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/tasks/7/comments", `{"text":"looks good"}`)
	rec := httptest.NewRecorder()
	c := taskContext(e, req, rec, "7")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp commentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.TaskID != 7 || resp.Text != "looks good" || resp.AuthorName != "alice" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCommentHandler_Create_RequiresText(t *testing.T) {
	e := newEcho()
	stub := &stubCommentService{}
	h := NewCommentHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/tasks/7/comments", `{"text":""}`)
	err := h.Create(taskContext(e, req, httptest.NewRecorder(), "7"))
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if stub.lastText != "" {
		t.Fatal("service must not be called")
	}
}

func TestCommentHandler_Update_ReturnsEditedComment(t *testing.T) {
	e := newEcho()
	stub := &stubCommentService{view: &ports.CommentView{ID: 3, TaskID: 7, Text: "old", AuthorName: "alice"}}
	h := NewCommentHandler(stub)

	req := jsonRequest(http.MethodPut, "/api/tasks/7/comments/3", `{"text":"new"}`)
	rec := httptest.NewRecorder()
	if err := h.Update(commentContext(e, req, rec, "7", "3")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var resp commentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Text != "new" {
		t.Fatalf("expected edited text, got %q", resp.Text)
	}
}

func TestCommentHandler_Delete(t *testing.T) {
	e := newEcho()
	stub := &stubCommentService{}
	h := NewCommentHandler(stub)

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/7/comments/3", nil)
	rec := httptest.NewRecorder()
	if err := h.Delete(commentContext(e, req, rec, "7", "3")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(stub.deleted) != 1 || stub.deleted[0] != 3 {
		t.Fatalf("unexpected deletes: %v", stub.deleted)
	}
}

func TestCommentHandler_Delete_PropagatesForbidden(t *testing.T) {
	e := newEcho()
	h := NewCommentHandler(&stubCommentService{err: domain.ErrForbidden})

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/7/comments/3", nil)
	err := h.Delete(commentContext(e, req, httptest.NewRecorder(), "7", "3"))
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCommentHandler_Get_BadCommentID(t *testing.T) {
	e := newEcho()
	h := NewCommentHandler(&stubCommentService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/7/comments/abc", nil)
	err := h.Get(commentContext(e, req, httptest.NewRecorder(), "7", "abc"))
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}
