package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
)

// EventSink receives audit entries after they are committed. The websocket
// hub implements it; a nil sink disables publishing.
type EventSink interface {
	Publish(owner uuid.UUID, entry models.TaskLog)
}

// TaskService wraps the task store with ownership enforcement and the
// audit-triggering business rules. Every operation takes the caller's owner
// id explicitly; no task is ever visible across owners.
type TaskService struct {
	store repository.TaskStore
	sink  EventSink
}

func NewTaskService(store repository.TaskStore, sink EventSink) *TaskService {
	return &TaskService{store: store, sink: sink}
}

func (s *TaskService) publish(owner uuid.UUID, entries []models.TaskLog) {
	if s.sink == nil {
		return
	}
	for _, entry := range entries {
		s.sink.Publish(owner, entry)
	}
}

// Create stores a new task and its CREATED audit entry atomically.
func (s *TaskService) Create(ctx context.Context, owner uuid.UUID, draft models.TaskDraft) (models.Task, error) {
	draft.Assignee = normalizeAssignee(draft.Assignee)

	var task models.Task
	var created models.TaskLog
	err := s.store.RunInTx(ctx, func(tx repository.TaskStore) error {
		var err error
		task, err = tx.Create(ctx, owner, draft)
		if err != nil {
			return err
		}
		created, err = tx.AppendLog(ctx, task.ID, models.EventCreated, nil)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}
	s.publish(owner, []models.TaskLog{created})
	return task, nil
}

func (s *TaskService) List(ctx context.Context, owner uuid.UUID, filter models.ListFilter) ([]models.Task, error) {
	return s.store.List(ctx, owner, filter)
}

// Get returns ErrNotFound for an absent task and ErrForbidden for a task
// owned by somebody else. The two are never conflated.
func (s *TaskService) Get(ctx context.Context, owner, taskID uuid.UUID) (models.Task, error) {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if task.CreatedBy != owner {
		return models.Task{}, models.ErrForbidden
	}
	return task, nil
}

// Update applies a partial update and appends the audit entries it implies:
// STATUS_CHANGED when the status value actually changes, COMPLETED when a
// non-null completed_at is supplied. Both can fire on the same call. The
// field writes and the audit appends share one transaction.
func (s *TaskService) Update(ctx context.Context, owner, taskID uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if patch.Assignee.Set {
		patch.Assignee.Value = normalizeAssignee(patch.Assignee.Value)
	}

	var task models.Task
	var appended []models.TaskLog
	err := s.store.RunInTx(ctx, func(tx repository.TaskStore) error {
		current, err := tx.Get(ctx, taskID)
		if err != nil {
			return err
		}
		if current.CreatedBy != owner {
			return models.ErrForbidden
		}
		oldStatus := current.Status

		task, err = tx.Update(ctx, taskID, patch)
		if err != nil {
			return err
		}

		if patch.Status.Set && patch.Status.Value != nil && *patch.Status.Value != oldStatus {
			detail := fmt.Sprintf("%s -> %s", oldStatus, *patch.Status.Value)
			entry, err := tx.AppendLog(ctx, taskID, models.EventStatusChanged, &detail)
			if err != nil {
				return err
			}
			appended = append(appended, entry)
		}
		if patch.CompletedAt.Set && patch.CompletedAt.Value != nil {
			entry, err := tx.AppendLog(ctx, taskID, models.EventCompleted, nil)
			if err != nil {
				return err
			}
			appended = append(appended, entry)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}
	s.publish(owner, appended)
	return task, nil
}

// Delete is idempotent: deleting an absent task succeeds. Deleting another
// owner's task is forbidden.
func (s *TaskService) Delete(ctx context.Context, owner, taskID uuid.UUID) error {
	task, err := s.store.Get(ctx, taskID)
	if err != nil {
		if err == models.ErrNotFound {
			return nil
		}
		return err
	}
	if task.CreatedBy != owner {
		return models.ErrForbidden
	}
	return s.store.Delete(ctx, taskID)
}

func (s *TaskService) ListLogs(ctx context.Context, owner, taskID uuid.UUID) ([]models.TaskLog, error) {
	if _, err := s.Get(ctx, owner, taskID); err != nil {
		return nil, err
	}
	return s.store.ListLogs(ctx, taskID)
}

// AddLog appends a manual audit entry. The event label is free-form text.
func (s *TaskService) AddLog(ctx context.Context, owner, taskID uuid.UUID, event string, detail *string) (models.TaskLog, error) {
	if strings.TrimSpace(event) == "" {
		return models.TaskLog{}, models.Invalid("event is required")
	}
	if _, err := s.Get(ctx, owner, taskID); err != nil {
		return models.TaskLog{}, err
	}
	entry, err := s.store.AppendLog(ctx, taskID, event, detail)
	if err != nil {
		return models.TaskLog{}, err
	}
	s.publish(owner, []models.TaskLog{entry})
	return entry, nil
}

// normalizeAssignee lowercases a supplied non-empty assignee. Empty strings
// and nils pass through untouched.
func normalizeAssignee(assignee *string) *string {
	if assignee == nil || *assignee == "" {
		return assignee
	}
	lowered := strings.ToLower(*assignee)
	return &lowered
}
