package repository

import (
	"context"

	"github.com/google/uuid"

	"tasktracker/internal/models"
)

// TaskStore owns Task and TaskLog persistence. Implementations must make
// RunInTx atomic: every mutation performed through the store handed to fn
// either fully commits or fully rolls back.
type TaskStore interface {
	Create(ctx context.Context, owner uuid.UUID, draft models.TaskDraft) (models.Task, error)
	Get(ctx context.Context, id uuid.UUID) (models.Task, error)
	List(ctx context.Context, owner uuid.UUID, filter models.ListFilter) ([]models.Task, error)
	Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (models.Task, error)
	// Delete removes a task and all of its logs. Deleting a nonexistent
	// task is a no-op, not an error.
	Delete(ctx context.Context, id uuid.UUID) error
	AppendLog(ctx context.Context, taskID uuid.UUID, event string, detail *string) (models.TaskLog, error)
	ListLogs(ctx context.Context, taskID uuid.UUID) ([]models.TaskLog, error)
	RunInTx(ctx context.Context, fn func(TaskStore) error) error

	// Dashboard reads, all scoped to a single owner.
	CountByStatus(ctx context.Context, owner uuid.UUID) (map[models.Status]int, error)
	CountOverdue(ctx context.Context, owner uuid.UUID, today models.Date) (int, error)
	CountDueSoon(ctx context.Context, owner uuid.UUID, from, to models.Date) (int, error)
	AssigneeCounts(ctx context.Context, owner uuid.UUID, onlyInProgress bool, limit int) ([]models.AssigneeCount, error)
}

// UserStore owns User records. Email lookups are case-insensitive.
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, name, role string) (models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
}
