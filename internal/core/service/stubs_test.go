package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory credential store
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users   map[string]*domain.User // keyed by id
	findErr error                   // if set, every lookup returns this error
	nextID  int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// seed adds a user directly and returns it.
func (r *stubUserRepo) seed(id, username, email string) *domain.User {
	u := &domain.User{ID: id, Username: username, Email: email}
	r.users[id] = u
	return cloneUser(u)
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.nextID++
	created := cloneUser(user)
	if created.ID == "" {
		created.ID = fmt.Sprintf("user-%d", r.nextID)
	}
	r.users[created.ID] = cloneUser(created)
	return created, nil
}

func (r *stubUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *stubUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

// ---------------------------------------------------------------------------
// In-memory primary task store
// ---------------------------------------------------------------------------

type stubTaskRepo struct {
	byID    map[int64]*domain.Task
	nextID  int64
	patchErr error  // if set, Patch returns this error
	onPatch  func() // if set, runs once before the next Patch is applied
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[int64]*domain.Task)}
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	r.nextID++
	t.ID = r.nextID
	clone := *t
	r.byID[t.ID] = &clone
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id int64) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *stubTaskRepo) Patch(_ context.Context, id int64, p domain.TaskPatch) error {
	if hook := r.onPatch; hook != nil {
		r.onPatch = nil
		hook()
	}
	if r.patchErr != nil {
		return r.patchErr
	}
	t, ok := r.byID[id]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Text != nil {
		t.Text = *p.Text
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.ExecutorID != nil {
		t.ExecutorID = *p.ExecutorID
	}
	t.UpdatedAt = p.UpdatedAt
	return nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubTaskRepo) list(match func(*domain.Task) bool, p ports.Page) []*domain.Task {
	var matched []*domain.Task
	for _, t := range r.byID {
		if match(t) {
			clone := *t
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	skip := p.Number * p.Size
	if skip > len(matched) {
		return []*domain.Task{}
	}
	end := skip + p.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end]
}

func (r *stubTaskRepo) ListByAuthor(_ context.Context, authorID string, p ports.Page) ([]*domain.Task, error) {
	return r.list(func(t *domain.Task) bool { return t.AuthorID == authorID }, p), nil
}

func (r *stubTaskRepo) ListByExecutor(_ context.Context, executorID string, p ports.Page) ([]*domain.Task, error) {
	return r.list(func(t *domain.Task) bool { return t.ExecutorID == executorID }, p), nil
}

// ---------------------------------------------------------------------------
// In-memory comment store
// ---------------------------------------------------------------------------

type stubCommentRepo struct {
	byID   map[int64]*domain.Comment
	nextID int64
}

func newStubCommentRepo() *stubCommentRepo {
	return &stubCommentRepo{byID: make(map[int64]*domain.Comment)}
}

func (r *stubCommentRepo) Create(_ context.Context, c *domain.Comment) error {
	r.nextID++
	c.ID = r.nextID
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCommentRepo) FindByID(_ context.Context, id int64) (*domain.Comment, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrCommentNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *stubCommentRepo) Save(_ context.Context, c *domain.Comment) error {
	clone := *c
	r.byID[c.ID] = &clone
	return nil
}

func (r *stubCommentRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrCommentNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubCommentRepo) ListByTask(_ context.Context, taskID int64) ([]*domain.Comment, error) {
	var out []*domain.Comment
	for _, c := range r.byID {
		if c.TaskID == taskID {
			clone := *c
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubCommentRepo) DeleteByTask(_ context.Context, taskID int64) error {
	for id, c := range r.byID {
		if c.TaskID == taskID {
			delete(r.byID, id)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// In-memory role cache
// ---------------------------------------------------------------------------

type stubRoleCache struct {
	entries   map[int64]domain.RoleEntry
	addErr    error // if set, AddTask returns this error
	updateErr error // if set, UpdateExecutor returns this error
	lookupErr error // if set, Lookup returns this error
}

func newStubRoleCache() *stubRoleCache {
	return &stubRoleCache{entries: make(map[int64]domain.RoleEntry)}
}

func (c *stubRoleCache) AddTask(_ context.Context, taskID int64, authorID string, executorID *string) error {
	if c.addErr != nil {
		return c.addErr
	}
	e := domain.RoleEntry{TaskID: taskID, AuthorID: authorID}
	if executorID != nil {
		e.ExecutorID = *executorID
	}
	c.entries[taskID] = e
	return nil
}

func (c *stubRoleCache) UpdateExecutor(_ context.Context, taskID int64, executorID string) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	e, ok := c.entries[taskID]
	if !ok {
		return errors.Join(domain.ErrRoleCacheDivergence, domain.ErrRoleEntryNotFound)
	}
	e.ExecutorID = executorID
	c.entries[taskID] = e
	return nil
}

func (c *stubRoleCache) Lookup(_ context.Context, taskID int64) (*domain.RoleEntry, error) {
	if c.lookupErr != nil {
		return nil, c.lookupErr
	}
	e, ok := c.entries[taskID]
	if !ok {
		return nil, domain.ErrRoleEntryNotFound
	}
	return &e, nil
}

// ---------------------------------------------------------------------------
// Audit trail
// ---------------------------------------------------------------------------

type stubEventRepo struct {
	events []*domain.TaskEvent
}

func (r *stubEventRepo) Insert(_ context.Context, e *domain.TaskEvent) error {
	r.events = append(r.events, e)
	return nil
}

func (r *stubEventRepo) ListByTask(_ context.Context, taskID int64) ([]*domain.TaskEvent, error) {
	var out []*domain.TaskEvent
	for _, e := range r.events {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out, nil
}

// stubRecorder writes straight to a stubEventRepo so history is observable
// without running the dispatcher.
type stubRecorder struct {
	mu   sync.Mutex
	repo *stubEventRepo
}

func (r *stubRecorder) Record(e domain.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := e
	_ = r.repo.Insert(context.Background(), &clone)
}
