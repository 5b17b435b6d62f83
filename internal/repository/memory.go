package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"tasktracker/internal/models"
)

// MemoryTaskStore is an in-memory TaskStore used by the unit tests. It
// mirrors the Postgres store's validation and ordering semantics exactly;
// transactional rollback fidelity is covered by the Postgres suite, so
// RunInTx here simply executes fn against the same store.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]models.Task
	order []uuid.UUID // insertion order, the tie-breaker for created_at sorts
	logs  map[uuid.UUID][]models.TaskLog
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks: make(map[uuid.UUID]models.Task),
		logs:  make(map[uuid.UUID][]models.TaskLog),
	}
}

func (s *MemoryTaskStore) RunInTx(_ context.Context, fn func(TaskStore) error) error {
	return fn(s)
}

func (s *MemoryTaskStore) Create(_ context.Context, owner uuid.UUID, draft models.TaskDraft) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, models.Invalid("title is required")
	}
	if !draft.Status.Valid() {
		return models.Task{}, models.Invalid(fmt.Sprintf("invalid status %q", draft.Status))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := models.Task{
		ID:          uuid.New(),
		Title:       draft.Title,
		Description: draft.Description,
		Assignee:    draft.Assignee,
		Status:      draft.Status,
		StartDate:   draft.StartDate,
		DueDate:     draft.DueDate,
		CreatedAt:   time.Now().UTC(),
		CreatedBy:   owner,
	}
	s.tasks[task.ID] = task
	s.order = append(s.order, task.ID)
	return task, nil
}

func (s *MemoryTaskStore) Get(_ context.Context, id uuid.UUID) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	return task, nil
}

func (s *MemoryTaskStore) List(_ context.Context, owner uuid.UUID, filter models.ListFilter) ([]models.Task, error) {
	filter = filter.Clamp()

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []models.Task{}
	for _, id := range s.order {
		task := s.tasks[id]
		if task.CreatedBy != owner {
			continue
		}
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		if filter.Query != "" && !matchesQuery(task, filter.Query) {
			continue
		}
		matched = append(matched, task)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := filter.Offset()
	if start >= len(matched) {
		return []models.Task{}, nil
	}
	end := start + filter.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func matchesQuery(task models.Task, query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(task.Title), q) {
		return true
	}
	if task.Description != nil && strings.Contains(strings.ToLower(*task.Description), q) {
		return true
	}
	if task.Assignee != nil && strings.Contains(strings.ToLower(*task.Assignee), q) {
		return true
	}
	return false
}

func (s *MemoryTaskStore) Update(_ context.Context, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	if patch.Title.Set && (patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "") {
		return models.Task{}, models.Invalid("title cannot be empty")
	}
	if patch.Status.Set && (patch.Status.Value == nil || !patch.Status.Value.Valid()) {
		return models.Task{}, models.Invalid("invalid status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, models.ErrNotFound
	}
	patch.Apply(&task)
	s.tasks[id] = task
	return task, nil
}

func (s *MemoryTaskStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.logs, id)
	if _, ok := s.tasks[id]; !ok {
		return nil
	}
	delete(s.tasks, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryTaskStore) AppendLog(_ context.Context, taskID uuid.UUID, event string, detail *string) (models.TaskLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := models.TaskLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	s.logs[taskID] = append(s.logs[taskID], entry)
	return entry, nil
}

func (s *MemoryTaskStore) ListLogs(_ context.Context, taskID uuid.UUID) ([]models.TaskLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Entries are appended in creation order already.
	out := make([]models.TaskLog, len(s.logs[taskID]))
	copy(out, s.logs[taskID])
	return out, nil
}

func (s *MemoryTaskStore) CountByStatus(_ context.Context, owner uuid.UUID) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[models.Status]int{}
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	for _, task := range s.tasks {
		if task.CreatedBy == owner {
			counts[task.Status]++
		}
	}
	return counts, nil
}

func (s *MemoryTaskStore) CountOverdue(_ context.Context, owner uuid.UUID, today models.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, task := range s.tasks {
		if task.CreatedBy != owner || task.Status == models.StatusDone || task.DueDate == nil {
			continue
		}
		if task.DueDate.Before(today) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) CountDueSoon(_ context.Context, owner uuid.UUID, from, to models.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, task := range s.tasks {
		if task.CreatedBy != owner || task.Status == models.StatusDone || task.DueDate == nil {
			continue
		}
		due := *task.DueDate
		if !due.Before(from) && !due.After(to) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) AssigneeCounts(_ context.Context, owner uuid.UUID, onlyInProgress bool, limit int) ([]models.AssigneeCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byAssignee := map[string]int{}
	for _, task := range s.tasks {
		if task.CreatedBy != owner || task.Assignee == nil {
			continue
		}
		if onlyInProgress && task.Status != models.StatusInProgress {
			continue
		}
		byAssignee[*task.Assignee]++
	}

	out := []models.AssigneeCount{}
	for assignee, count := range byAssignee {
		out = append(out, models.AssigneeCount{Assignee: assignee, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Assignee < out[j].Assignee
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// MemoryUserStore is the in-memory UserStore counterpart. Duplicate emails
// surface as a pq unique-violation so handler code sees the same error it
// would get from Postgres.
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[uuid.UUID]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[uuid.UUID]models.User)}
}

func (s *MemoryUserStore) CreateUser(_ context.Context, email, passwordHash, name, role string) (models.User, error) {
	if role == "" {
		role = "PM"
	}
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			return models.User{}, &pq.Error{Code: "23505"}
		}
	}
	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *MemoryUserStore) GetUser(_ context.Context, id uuid.UUID) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return models.User{}, models.ErrNotFound
	}
	return user, nil
}

func (s *MemoryUserStore) GetUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, models.ErrNotFound
}
