package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
	"github.com/taskmanagement/task-system/internal/pkg/metrics"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// EventRecorder accepts task audit events. Recording must not block the caller.
type EventRecorder interface {
	Record(e domain.TaskEvent)
}

// TaskDependencies groups the collaborators of TaskService.
type TaskDependencies struct {
	Tasks    ports.TaskRepository
	Comments ports.CommentRepository
	Users    ports.UserRepository
	Roles    ports.RoleCache
	Events   ports.TaskEventRepository
	Recorder EventRecorder
}

// TaskService implements the task lifecycle. Every change to a task's author
// or executor is written to the primary store first and then to the role
// cache within the same call.
type TaskService struct {
	tasks    ports.TaskRepository
	comments ports.CommentRepository
	users    ports.UserRepository
	roles    ports.RoleCache
	events   ports.TaskEventRepository
	recorder EventRecorder
	log      zerolog.Logger
	now      func() time.Time
}

func NewTaskService(deps TaskDependencies, log zerolog.Logger) *TaskService {
	return &TaskService{
		tasks:    deps.Tasks,
		comments: deps.Comments,
		users:    deps.Users,
		roles:    deps.Roles,
		events:   deps.Events,
		recorder: deps.Recorder,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ---------------------------------------------------------------------------
// Dual-store outcome
// ---------------------------------------------------------------------------

// SyncOutcome reports the result of a primary store write followed by the
// matching role cache write.
type SyncOutcome struct {
	TaskID     int64
	Op         string
	PrimaryErr error
	CacheErr   error
}

// Diverged reports whether the primary write succeeded but the cache write
// did not.
func (o SyncOutcome) Diverged() bool {
	return o.PrimaryErr == nil && o.CacheErr != nil
}

// Err returns the primary failure as is, or a *DivergenceError when only the
// cache write failed.
func (o SyncOutcome) Err() error {
	if o.PrimaryErr != nil {
		return o.PrimaryErr
	}
	if o.CacheErr != nil {
		return &DivergenceError{TaskID: o.TaskID, Op: o.Op, Cause: o.CacheErr}
	}
	return nil
}

// DivergenceError is returned when the role cache no longer mirrors the
// primary store for a task. It matches domain.ErrRoleCacheDivergence.
type DivergenceError struct {
	TaskID int64
	Op     string
	Cause  error
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%s task %d: %v: %v", e.Op, e.TaskID, domain.ErrRoleCacheDivergence, e.Cause)
}

func (e *DivergenceError) Unwrap() []error {
	return []error{domain.ErrRoleCacheDivergence, e.Cause}
}

// settle logs and counts a diverged outcome and returns its error.
func (s *TaskService) settle(o SyncOutcome) error {
	if o.Diverged() {
		metrics.RoleCacheDivergenceTotal.WithLabelValues(o.Op).Inc()
		s.log.Error().
			Err(o.CacheErr).
			Int64("task_id", o.TaskID).
			Str("op", o.Op).
			Msg("role cache diverged from primary store")
	}
	return o.Err()
}

func cacheWriteResult(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.RoleCacheWritesTotal.WithLabelValues(op, result).Inc()
}

// ---------------------------------------------------------------------------
// CRUD
// ---------------------------------------------------------------------------

// Create stores a new task and registers its roles before returning.
func (s *TaskService) Create(ctx context.Context, caller *domain.Caller, in ports.CreateTaskInput) (*ports.TaskDetail, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("create task: %w: title is required", domain.ErrInvalidTask)
	}

	status := in.Status
	if status == "" {
		status = domain.StatusWaiting
	}
	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !status.Valid() || !priority.Valid() {
		return nil, fmt.Errorf("create task: %w: unknown status or priority", domain.ErrInvalidTask)
	}

	authorID := caller.UserID
	if in.AuthorName != "" {
		author, err := s.users.FindByUsername(ctx, in.AuthorName)
		if err != nil {
			return nil, fmt.Errorf("create task: author: %w", err)
		}
		authorID = author.ID
	}

	var executorID string
	if in.ExecutorName != "" {
		executor, err := s.users.FindByUsername(ctx, in.ExecutorName)
		switch {
		case err == nil:
			executorID = executor.ID
		case errors.Is(err, domain.ErrUserNotFound):
			s.log.Warn().Str("executor", in.ExecutorName).Msg("executor not found, task left unassigned")
		default:
			return nil, fmt.Errorf("create task: executor: %w", err)
		}
	}

	now := s.now()
	task := &domain.Task{
		Title:      in.Title,
		Text:       in.Text,
		Status:     status,
		Priority:   priority,
		AuthorID:   authorID,
		ExecutorID: executorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		s.log.Error().Err(err).Msg("failed to create task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	var executorRef *string
	if task.HasExecutor() {
		executorRef = &task.ExecutorID
	}
	cacheErr := s.roles.AddTask(ctx, task.ID, task.AuthorID, executorRef)
	cacheWriteResult("add_task", cacheErr)
	if err := s.settle(SyncOutcome{TaskID: task.ID, Op: "create", CacheErr: cacheErr}); err != nil {
		return nil, err
	}

	metrics.TasksCreatedTotal.WithLabelValues(string(task.Priority)).Inc()
	s.record(task.ID, domain.ActionCreated, caller, task.Title)
	s.log.Info().Int64("task_id", task.ID).Str("author_id", task.AuthorID).Msg("task created")

	return s.detail(ctx, task)
}

// Get returns a task with usernames and comments resolved.
func (s *TaskService) Get(ctx context.Context, taskID int64) (*ports.TaskDetail, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, task)
}

// Update changes the title and text of a task. Author and executor are not
// editable here.
func (s *TaskService) Update(ctx context.Context, caller *domain.Caller, taskID int64, in ports.UpdateTaskInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("update task: %w: title is required", domain.ErrInvalidTask)
	}
	patch := domain.TaskPatch{Title: &in.Title, Text: &in.Text, UpdatedAt: s.now()}
	if err := s.tasks.Patch(ctx, taskID, patch); err != nil {
		return fmt.Errorf("update task %d: %w", taskID, err)
	}
	s.record(taskID, domain.ActionUpdated, caller, "")
	return nil
}

// Delete removes a task and its comments from the primary store. The role
// cache entry is left in place.
func (s *TaskService) Delete(ctx context.Context, caller *domain.Caller, taskID int64) error {
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		return err
	}
	if err := s.comments.DeleteByTask(ctx, taskID); err != nil {
		s.log.Warn().Err(err).Int64("task_id", taskID).Msg("failed to delete task comments")
	}
	s.record(taskID, domain.ActionDeleted, caller, "")
	s.log.Info().Int64("task_id", taskID).Msg("task deleted")
	return nil
}

// ListByAuthor returns a page of the tasks written by username.
func (s *TaskService) ListByAuthor(ctx context.Context, username string, page ports.Page) ([]*ports.TaskDetail, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByAuthor(ctx, user.ID, normalizePage(page))
	if err != nil {
		return nil, fmt.Errorf("list tasks by author: %w", err)
	}
	return s.details(ctx, tasks)
}

// ListByExecutor returns a page of the tasks assigned to username.
func (s *TaskService) ListByExecutor(ctx context.Context, username string, page ports.Page) ([]*ports.TaskDetail, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByExecutor(ctx, user.ID, normalizePage(page))
	if err != nil {
		return nil, fmt.Errorf("list tasks by executor: %w", err)
	}
	return s.details(ctx, tasks)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// MarkInProcess sets the status to IN_PROCESS from any status.
func (s *TaskService) MarkInProcess(ctx context.Context, caller *domain.Caller, taskID int64) error {
	return s.setStatus(ctx, caller, taskID, domain.StatusInProcess)
}

// MarkCompleted sets the status to COMPLETED from any status.
func (s *TaskService) MarkCompleted(ctx context.Context, caller *domain.Caller, taskID int64) error {
	return s.setStatus(ctx, caller, taskID, domain.StatusCompleted)
}

// SetPriorityLow sets the priority to LOW.
func (s *TaskService) SetPriorityLow(ctx context.Context, caller *domain.Caller, taskID int64) error {
	return s.setPriority(ctx, caller, taskID, domain.PriorityLow)
}

// SetPriorityHigh sets the priority to HIGH.
func (s *TaskService) SetPriorityHigh(ctx context.Context, caller *domain.Caller, taskID int64) error {
	return s.setPriority(ctx, caller, taskID, domain.PriorityHigh)
}

func (s *TaskService) setStatus(ctx context.Context, caller *domain.Caller, taskID int64, status domain.TaskStatus) error {
	if err := s.tasks.Patch(ctx, taskID, domain.TaskPatch{Status: &status, UpdatedAt: s.now()}); err != nil {
		return fmt.Errorf("set status of task %d: %w", taskID, err)
	}

	metrics.TaskTransitionsTotal.WithLabelValues("status", string(status)).Inc()
	s.record(taskID, domain.ActionStatusChanged, caller, string(status))
	return nil
}

func (s *TaskService) setPriority(ctx context.Context, caller *domain.Caller, taskID int64, priority domain.TaskPriority) error {
	if err := s.tasks.Patch(ctx, taskID, domain.TaskPatch{Priority: &priority, UpdatedAt: s.now()}); err != nil {
		return fmt.Errorf("set priority of task %d: %w", taskID, err)
	}

	metrics.TaskTransitionsTotal.WithLabelValues("priority", string(priority)).Inc()
	s.record(taskID, domain.ActionPriorityChanged, caller, string(priority))
	return nil
}

// ReassignExecutor assigns the user named executorName to the task in the
// primary store and then in the role cache. A cache failure after a
// successful primary write is reported as a *DivergenceError.
func (s *TaskService) ReassignExecutor(ctx context.Context, caller *domain.Caller, taskID int64, executorName string) error {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return err
	}
	executor, err := s.users.FindByUsername(ctx, executorName)
	if err != nil {
		return fmt.Errorf("reassign executor: %w", err)
	}

	patch := domain.TaskPatch{ExecutorID: &executor.ID, UpdatedAt: s.now()}
	if err := s.tasks.Patch(ctx, taskID, patch); err != nil {
		return s.settle(SyncOutcome{TaskID: taskID, Op: "reassign_executor", PrimaryErr: fmt.Errorf("reassign executor: %w", err)})
	}

	cacheErr := s.roles.UpdateExecutor(ctx, taskID, executor.ID)
	cacheWriteResult("update_executor", cacheErr)
	if err := s.settle(SyncOutcome{TaskID: taskID, Op: "reassign_executor", CacheErr: cacheErr}); err != nil {
		return err
	}

	s.record(taskID, domain.ActionExecutorAssigned, caller, executor.Username)
	s.log.Info().Int64("task_id", taskID).Str("executor_id", executor.ID).Msg("executor reassigned")
	return nil
}

// ResyncRoles rewrites the role cache entry of a task from the primary
// store. Only the author recorded in the primary store may request it, which
// keeps it usable when the cache entry is missing or wrong.
func (s *TaskService) ResyncRoles(ctx context.Context, caller *domain.Caller, taskID int64) error {
	if caller == nil {
		return domain.ErrUnauthenticated
	}
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.AuthorID != caller.UserID {
		return domain.ErrForbidden
	}

	var executorRef *string
	if task.HasExecutor() {
		executorRef = &task.ExecutorID
	}
	cacheErr := s.roles.AddTask(ctx, task.ID, task.AuthorID, executorRef)
	cacheWriteResult("add_task", cacheErr)
	if cacheErr != nil {
		return fmt.Errorf("resync roles of task %d: %w", taskID, cacheErr)
	}

	s.record(taskID, domain.ActionRolesResynced, caller, "")
	s.log.Warn().Int64("task_id", taskID).Msg("role cache entry rebuilt from primary store")
	return nil
}

// History returns the recorded audit trail of a task.
func (s *TaskService) History(ctx context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	events, err := s.events.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task history: %w", err)
	}
	return events, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *TaskService) record(taskID int64, action domain.TaskAction, caller *domain.Caller, detail string) {
	if s.recorder == nil {
		return
	}
	e := domain.TaskEvent{
		TaskID:     taskID,
		Action:     action,
		Detail:     detail,
		OccurredAt: s.now(),
	}
	if caller != nil {
		e.ActorID = caller.UserID
	}
	s.recorder.Record(e)
}

func (s *TaskService) details(ctx context.Context, tasks []*domain.Task) ([]*ports.TaskDetail, error) {
	out := make([]*ports.TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		d, err := s.detail(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *TaskService) detail(ctx context.Context, t *domain.Task) (*ports.TaskDetail, error) {
	comments, err := s.comments.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("load comments of task %d: %w", t.ID, err)
	}

	views := make([]ports.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView(c, usernameOf(ctx, s.users, c.AuthorID)))
	}

	return &ports.TaskDetail{
		ID:           t.ID,
		Title:        t.Title,
		Text:         t.Text,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		AuthorName:   usernameOf(ctx, s.users, t.AuthorID),
		ExecutorName: usernameOf(ctx, s.users, t.ExecutorID),
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
		Comments:     views,
	}, nil
}

// usernameOf resolves a user id for display; unknown ids render empty.
func usernameOf(ctx context.Context, users ports.UserRepository, id string) string {
	if id == "" {
		return ""
	}
	u, err := users.FindByID(ctx, id)
	if err != nil {
		return ""
	}
	return u.Username
}

func normalizePage(p ports.Page) ports.Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = defaultPageSize
	}
	if p.Size > maxPageSize {
		p.Size = maxPageSize
	}
	return p
}
