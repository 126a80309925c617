package handler

import (
	"fmt"

	"github.com/taskmanagement/task-system/internal/core/domain"
	"github.com/taskmanagement/task-system/internal/core/ports"
)

// --- Request → Service input ---

func toCreateTaskInput(req createTaskRequest) ports.CreateTaskInput {
	return ports.CreateTaskInput{
		Title:        req.Title,
		Text:         req.Text,
		AuthorName:   req.AuthorName,
		ExecutorName: req.ExecutorName,
		Status:       domain.TaskStatus(req.Status),
		Priority:     domain.TaskPriority(req.Priority),
	}
}

// --- Service result → HTTP response ---

func toTaskResponse(d *ports.TaskDetail) taskResponse {
	self := fmt.Sprintf("/api/tasks/%d", d.ID)
	return taskResponse{
		ID:           d.ID,
		Title:        d.Title,
		Text:         d.Text,
		Status:       d.Status,
		Priority:     d.Priority,
		AuthorName:   d.AuthorName,
		ExecutorName: d.ExecutorName,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
		Comments:     toCommentResponses(d.Comments),
		Links: taskLinks{
			Self:     self,
			Comments: self + "/comments",
			History:  self + "/history",
		},
	}
}

func toTaskResponses(ds []*ports.TaskDetail) []taskResponse {
	out := make([]taskResponse, 0, len(ds))
	for _, d := range ds {
		out = append(out, toTaskResponse(d))
	}
	return out
}

func toCommentResponse(v ports.CommentView) commentResponse {
	return commentResponse{
		ID:         v.ID,
		TaskID:     v.TaskID,
		Text:       v.Text,
		AuthorName: v.AuthorName,
		CreatedAt:  v.CreatedAt.UTC(),
	}
}

func toCommentResponses(vs []ports.CommentView) []commentResponse {
	out := make([]commentResponse, 0, len(vs))
	for _, v := range vs {
		out = append(out, toCommentResponse(v))
	}
	return out
}

func toTaskEventResponses(events []*domain.TaskEvent) []taskEventResponse {
	out := make([]taskEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, taskEventResponse{
			ID:         e.ID,
			Action:     string(e.Action),
			ActorID:    e.ActorID,
			Detail:     e.Detail,
			OccurredAt: e.OccurredAt.UTC(),
		})
	}
	return out
}
