package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

type commentService struct {
	tasks    ports.TaskRepository
	comments ports.CommentRepository
	users    ports.UserRepository
	log      zerolog.Logger
}

// NewCommentService returns a CommentService implementation.
func NewCommentService(
	tasks ports.TaskRepository,
	comments ports.CommentRepository,
	users ports.UserRepository,
	log zerolog.Logger,
) ports.CommentService {
	return &commentService{tasks: tasks, comments: comments, users: users, log: log}
}

func (s *commentService) Create(ctx context.Context, caller *domain.Caller, taskID int64, text string) (*ports.CommentView, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("create comment: %w: text is required", domain.ErrInvalidComment)
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	c := &domain.Comment{
		TaskID:    taskID,
		AuthorID:  caller.UserID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}

	s.log.Info().Int64("task_id", taskID).Int64("comment_id", c.ID).Msg("comment created")
	view := commentView(c, caller.Username)
	return &view, nil
}

func (s *commentService) Get(ctx context.Context, taskID, commentID int64) (*ports.CommentView, error) {
	c, err := s.load(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	view := commentView(c, usernameOf(ctx, s.users, c.AuthorID))
	return &view, nil
}

func (s *commentService) List(ctx context.Context, taskID int64) ([]ports.CommentView, error) {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	out := make([]ports.CommentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c, usernameOf(ctx, s.users, c.AuthorID)))
	}
	return out, nil
}

// Update replaces the text of a comment. Only its author may edit it.
func (s *commentService) Update(ctx context.Context, caller *domain.Caller, taskID, commentID int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("update comment: %w: text is required", domain.ErrInvalidComment)
	}
	c, err := s.owned(ctx, caller, taskID, commentID)
	if err != nil {
		return err
	}
	c.Text = text
	c.UpdatedAt = time.Now().UTC()
	if err := s.comments.Save(ctx, c); err != nil {
		return fmt.Errorf("update comment %d: %w", commentID, err)
	}
	return nil
}

// Delete removes a comment. Only its author may delete it.
func (s *commentService) Delete(ctx context.Context, caller *domain.Caller, taskID, commentID int64) error {
	if _, err := s.owned(ctx, caller, taskID, commentID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("delete comment %d: %w", commentID, err)
	}
	s.log.Info().Int64("task_id", taskID).Int64("comment_id", commentID).Msg("comment deleted")
	return nil
}

func (s *commentService) owned(ctx context.Context, caller *domain.Caller, taskID, commentID int64) (*domain.Comment, error) {
	if caller == nil {
		return nil, domain.ErrUnauthenticated
	}
	c, err := s.load(ctx, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if c.AuthorID != caller.UserID {
		return nil, domain.ErrForbidden
	}
	return c, nil
}

func (s *commentService) load(ctx context.Context, taskID, commentID int64) (*domain.Comment, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if c.TaskID != taskID {
		return nil, domain.ErrCommentNotFound
	}
	return c, nil
}

func commentView(c *domain.Comment, authorName string) ports.CommentView {
	return ports.CommentView{
		ID:         c.ID,
		TaskID:     c.TaskID,
		Text:       c.Text,
		AuthorName: authorName,
		CreatedAt:  c.CreatedAt,
	}
}
