package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the fixed task status enumeration.
type Status string

const (
	StatusNotStarted Status = "NOT_STARTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// AllStatuses lists every status value, in reporting order.
var AllStatuses = []Status{StatusNotStarted, StatusInProgress, StatusDone}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusDone:
		return true
	default:
		return false
	}
}

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Task is owned by exactly one user (CreatedBy); ownership never changes.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Assignee    *string    `json:"assignee"`
	Status      Status     `json:"status"`
	StartDate   *Date      `json:"start_date"`
	DueDate     *Date      `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedBy   uuid.UUID  `json:"created_by"`
}

// Recognized TaskLog events. The event field itself is free-form text;
// manually appended logs may carry any label.
const (
	EventCreated       = "CREATED"
	EventStatusChanged = "STATUS_CHANGED"
	EventCompleted     = "COMPLETED"
)

// TaskLog is an append-only audit record. Logs are never edited; the only
// mutation is the bulk delete that happens when the parent task is deleted.
type TaskLog struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"task_id"`
	Event     string    `json:"event"`
	Detail    *string   `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TaskDraft carries the caller-supplied fields for task creation. ID, owner
// and created_at are always assigned server-side.
type TaskDraft struct {
	Title       string
	Description *string
	Assignee    *string
	Status      Status
	StartDate   *Date
	DueDate     *Date
}

// ListFilter narrows and pages an owner-scoped task listing.
type ListFilter struct {
	Status *Status
	Query  string
	Page   int
	Size   int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Clamp forces page and size into their allowed ranges: page >= 1, size in
// [1, 100]. Defaulting an absent size happens at the HTTP layer, where
// absence is distinguishable from an explicit zero.
func (f ListFilter) Clamp() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Size < 1 {
		f.Size = 1
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Size
}

// AssigneeCount is one row of a dashboard assignee ranking.
type AssigneeCount struct {
	Assignee string `json:"assignee"`
	Count    int    `json:"count"`
}

// Summary is the dashboard rollup for a single owner.
type Summary struct {
	Total         int             `json:"total"`
	ByStatus      map[Status]int  `json:"by_status"`
	Overdue       int             `json:"overdue"`
	DueSoon       int             `json:"due_soon"`
	TopAssignees  []AssigneeCount `json:"top_assignees"`
	WIPByAssignee []AssigneeCount `json:"wip_by_assignee"`
}
