package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createTaskRequest struct {
	Title        string `json:"title"         validate:"required,max=255"`
	Text         string `json:"text"          validate:"max=10000"`
	AuthorName   string `json:"author_name"`
	ExecutorName string `json:"executor_name"`
	Status       string `json:"status"        validate:"omitempty,oneof=WAITING IN_PROCESS COMPLETED"`
	Priority     string `json:"priority"      validate:"omitempty,oneof=HIGH MEDIUM LOW"`
}

type updateTaskRequest struct {
	Title string `json:"title" validate:"required,max=255"`
	Text  string `json:"text"  validate:"max=10000"`
}

type commentRequest struct {
	Text string `json:"text" validate:"required,max=5000"`
}

// --- Response types ---

type commentResponse struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"task_id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
}

type taskLinks struct {
	Self     string `json:"self"`
	Comments string `json:"comments"`
	History  string `json:"history"`
}

type taskResponse struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Text         string            `json:"text"`
	Status       string            `json:"status"`
	Priority     string            `json:"priority"`
	AuthorName   string            `json:"author_name"`
	ExecutorName string            `json:"executor_name,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Comments     []commentResponse `json:"comments"`
	Links        taskLinks         `json:"_links"`
}

type taskEventResponse struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	ActorID    string    `json:"actor_id,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
