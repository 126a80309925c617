package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/taskmanagement/task-system/internal/api/middleware"
	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

// stubTaskService records the calls it receives and serves a single task.
type stubTaskService struct {
	ports.TaskService

	task       *ports.TaskDetail
	err        error
	lastCaller *domain.Caller
	lastInput  ports.CreateTaskInput
	lastPage   ports.Page
	lastName   string
	calls      []string
}

func (s *stubTaskService) Create(_ context.Context, caller *domain.Caller, in ports.CreateTaskInput) (*ports.TaskDetail, error) {
	s.lastCaller, s.lastInput = caller, in
	s.calls = append(s.calls, "create")
	return s.task, s.err
}

func (s *stubTaskService) Get(_ context.Context, taskID int64) (*ports.TaskDetail, error) {
	if s.task == nil || s.task.ID != taskID {
		return nil, domain.ErrTaskNotFound
	}
	return s.task, nil
}

func (s *stubTaskService) MarkCompleted(_ context.Context, caller *domain.Caller, taskID int64) error {
	s.lastCaller = caller
	s.calls = append(s.calls, "completed")
	if s.err != nil {
		return s.err
	}
	s.task.Status = string(domain.StatusCompleted)
	return nil
}

func (s *stubTaskService) ReassignExecutor(_ context.Context, _ *domain.Caller, _ int64, executorName string) error {
	s.lastName = executorName
	s.calls = append(s.calls, "reassign")
	return s.err
}

func (s *stubTaskService) ListByAuthor(_ context.Context, username string, page ports.Page) ([]*ports.TaskDetail, error) {
	s.lastName, s.lastPage = username, page
	return []*ports.TaskDetail{s.task}, nil
}

func (s *stubTaskService) History(_ context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	return []*domain.TaskEvent{{ID: "e1", TaskID: taskID, Action: domain.ActionCreated, OccurredAt: time.Now()}}, nil
}

func sampleTask() *ports.TaskDetail {
	return &ports.TaskDetail{
		ID:         7,
		Title:      "write report",
		Status:     string(domain.StatusWaiting),
		Priority:   string(domain.PriorityMedium),
		AuthorName: "alice",
	}
}

func taskContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, taskID string) echo.Context {
	c := e.NewContext(req, rec)
	if taskID != "" {
		c.SetParamNames(middleware.TaskIDParam)
		c.SetParamValues(taskID)
	}
	middleware.SetCaller(c, &domain.Caller{UserID: "u1", Username: "alice", Email: "alice@example.com"})
	return c
}

func TestTaskHandler_Create(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask()}
	h := NewTaskHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/tasks", `{"title":"write report","executor_name":"bob","priority":"HIGH"}`)
	rec := httptest.NewRecorder()

	if err := h.Create(taskContext(e, req, rec, "")); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if stub.lastCaller == nil || stub.lastCaller.UserID != "u1" {
		t.Fatalf("caller not forwarded: %+v", stub.lastCaller)
	}
	if stub.lastInput.ExecutorName != "bob" || stub.lastInput.Priority != domain.PriorityHigh {
		t.Fatalf("unexpected input: %+v", stub.lastInput)
	}

	var resp taskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.ID != 7 || resp.Links.Self != "/api/tasks/7" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestTaskHandler_Create_RejectsInvalidPayload(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask()}
	h := NewTaskHandler(stub)

	for _, body := range []string{`{}`, `{"title":"x","status":"DONE"}`, `{"title":"x","priority":"URGENT"}`} {
		req := jsonRequest(http.MethodPost, "/api/tasks", body)
		err := h.Create(taskContext(e, req, httptest.NewRecorder(), ""))
		if code := httpCode(t, err); code != http.StatusBadRequest {
			t.Fatalf("body %s: expected 400, got %d", body, code)
		}
	}
	if len(stub.calls) != 0 {
		t.Fatalf("service must not be called, got %v", stub.calls)
	}
}

func TestTaskHandler_Create_RequiresCaller(t *testing.T) {
	e := newEcho()
	h := NewTaskHandler(&stubTaskService{})

	req := jsonRequest(http.MethodPost, "/api/tasks", `{"title":"x"}`)
	err := h.Create(e.NewContext(req, httptest.NewRecorder()))
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestTaskHandler_MarkCompleted(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask()}
	h := NewTaskHandler(stub)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/7/status/completed", nil)
	if err := h.MarkCompleted(taskContext(e, req, rec, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp taskResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != string(domain.StatusCompleted) {
		t.Fatalf("expected COMPLETED, got %s", resp.Status)
	}
}

func TestTaskHandler_BadTaskID(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask()}
	h := NewTaskHandler(stub)

	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/x/status/completed", nil)
	err := h.MarkCompleted(taskContext(e, req, httptest.NewRecorder(), "x"))
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if len(stub.calls) != 0 {
		t.Fatalf("service must not be called, got %v", stub.calls)
	}
}

func TestTaskHandler_ReassignExecutor_PropagatesDivergence(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask(), err: domain.ErrRoleCacheDivergence}
	h := NewTaskHandler(stub)

	req := httptest.NewRequest(http.MethodPatch, "/api/tasks/7/executor/bob", nil)
	c := taskContext(e, req, httptest.NewRecorder(), "7")
	c.SetParamNames(middleware.TaskIDParam, "executorName")
	c.SetParamValues("7", "bob")

	err := h.ReassignExecutor(c)
	if !errors.Is(err, domain.ErrRoleCacheDivergence) {
		t.Fatalf("expected divergence error, got %v", err)
	}
	if stub.lastName != "bob" {
		t.Fatalf("expected executor bob, got %q", stub.lastName)
	}
}

func TestTaskHandler_ListByAuthor_Paging(t *testing.T) {
	e := newEcho()
	stub := &stubTaskService{task: sampleTask()}
	h := NewTaskHandler(stub)

	req := httptest.NewRequest(http.MethodGet, "/api/users/alice/tasks/authored?page=2&size=5", nil)
	rec := httptest.NewRecorder()
	c := taskContext(e, req, rec, "")
	c.SetParamNames("username")
	c.SetParamValues("alice")

	if err := h.ListByAuthor(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if stub.lastName != "alice" || stub.lastPage != (ports.Page{Number: 2, Size: 5}) {
		t.Fatalf("unexpected args: %s %+v", stub.lastName, stub.lastPage)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/users/alice/tasks/authored?page=abc", nil)
	c = taskContext(e, req, httptest.NewRecorder(), "")
	c.SetParamNames("username")
	c.SetParamValues("alice")
	if code := httpCode(t, h.ListByAuthor(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestTaskHandler_History(t *testing.T) {
	e := newEcho()
	h := NewTaskHandler(&stubTaskService{task: sampleTask()})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/7/history", nil)
	if err := h.History(taskContext(e, req, rec, "7")); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp []taskEventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp) != 1 || resp[0].Action != string(domain.ActionCreated) {
		t.Fatalf("unexpected history: %+v", resp)
	}
}
