package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/models"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx, so every query below runs
// unchanged inside or outside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresTaskStore implements TaskStore on database/sql + lib/pq.
type PostgresTaskStore struct {
	db *sql.DB // nil when the store is bound to a transaction
	q  dbtx
}

func NewTaskStore(db *sql.DB) *PostgresTaskStore {
	return &PostgresTaskStore{db: db, q: db}
}

func (s *PostgresTaskStore) RunInTx(ctx context.Context, fn func(TaskStore) error) error {
	if s.db == nil {
		// Already inside a transaction; reuse it.
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&PostgresTaskStore{q: tx}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

const taskColumns = "id, title, description, assignee, status, start_date, due_date, created_at, completed_at, created_by"

func (s *PostgresTaskStore) Create(ctx context.Context, owner uuid.UUID, draft models.TaskDraft) (models.Task, error) {
	if strings.TrimSpace(draft.Title) == "" {
		return models.Task{}, models.Invalid("title is required")
	}
	if !draft.Status.Valid() {
		return models.Task{}, models.Invalid(fmt.Sprintf("invalid status %q", draft.Status))
	}

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
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, assignee, status, start_date, due_date, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		task.ID, task.Title, task.Description, task.Assignee, string(task.Status),
		dateArg(task.StartDate), dateArg(task.DueDate), task.CreatedAt, task.CreatedBy,
	)
	if err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func (s *PostgresTaskStore) Get(ctx context.Context, id uuid.UUID) (models.Task, error) {
	row := s.q.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrNotFound
	}
	return task, err
}

func (s *PostgresTaskStore) List(ctx context.Context, owner uuid.UUID, filter models.ListFilter) ([]models.Task, error) {
	filter = filter.Clamp()

	where := []string{"created_by = $1"}
	args := []any{owner}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR assignee ILIKE $%d)", n, n, n))
	}
	args = append(args, filter.Size, filter.Offset())

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s
		ORDER BY created_at DESC, seq ASC LIMIT $%d OFFSET $%d`,
		taskColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (s *PostgresTaskStore) Update(ctx context.Context, id uuid.UUID, patch models.TaskPatch) (models.Task, error) {
	set := []string{}
	args := []any{}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if patch.Title.Set {
		if patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "" {
			return models.Task{}, models.Invalid("title cannot be empty")
		}
		add("title", *patch.Title.Value)
	}
	if patch.Status.Set {
		if patch.Status.Value == nil || !patch.Status.Value.Valid() {
			return models.Task{}, models.Invalid("invalid status")
		}
		add("status", string(*patch.Status.Value))
	}
	if patch.Description.Set {
		add("description", patch.Description.Value)
	}
	if patch.Assignee.Set {
		add("assignee", patch.Assignee.Value)
	}
	if patch.StartDate.Set {
		add("start_date", dateArg(patch.StartDate.Value))
	}
	if patch.DueDate.Set {
		add("due_date", dateArg(patch.DueDate.Value))
	}
	if patch.CompletedAt.Set {
		add("completed_at", patch.CompletedAt.Value)
	}

	if len(set) == 0 {
		return s.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d RETURNING %s",
		strings.Join(set, ", "), len(args), taskColumns)
	task, err := scanTask(s.q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, models.ErrNotFound
	}
	return task, err
}

func (s *PostgresTaskStore) Delete(ctx context.Context, id uuid.UUID) error {
	// Cascade and task removal share one transaction so a partial failure
	// cannot leave orphaned logs.
	return s.RunInTx(ctx, func(tx TaskStore) error {
		pg := tx.(*PostgresTaskStore)
		if _, err := pg.q.ExecContext(ctx, "DELETE FROM task_logs WHERE task_id = $1", id); err != nil {
			return err
		}
		_, err := pg.q.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", id)
		return err
	})
}

func (s *PostgresTaskStore) AppendLog(ctx context.Context, taskID uuid.UUID, event string, detail *string) (models.TaskLog, error) {
	entry := models.TaskLog{
		ID:        uuid.New(),
		TaskID:    taskID,
		Event:     event,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO task_logs (id, task_id, event, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.TaskID, entry.Event, entry.Detail, entry.CreatedAt,
	)
	if err != nil {
		return models.TaskLog{}, err
	}
	return entry, nil
}

func (s *PostgresTaskStore) ListLogs(ctx context.Context, taskID uuid.UUID) ([]models.TaskLog, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, task_id, event, detail, created_at FROM task_logs
		WHERE task_id = $1 ORDER BY created_at ASC, seq ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []models.TaskLog{}
	for rows.Next() {
		var entry models.TaskLog
		var detail sql.NullString
		if err := rows.Scan(&entry.ID, &entry.TaskID, &entry.Event, &detail, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if detail.Valid {
			entry.Detail = &detail.String
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

func (s *PostgresTaskStore) CountByStatus(ctx context.Context, owner uuid.UUID) (map[models.Status]int, error) {
	counts := map[models.Status]int{}
	for _, st := range models.AllStatuses {
		counts[st] = 0
	}
	rows, err := s.q.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM tasks WHERE created_by = $1 GROUP BY status", owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[models.Status(st)] = n
	}
	return counts, rows.Err()
}

func (s *PostgresTaskStore) CountOverdue(ctx context.Context, owner uuid.UUID, today models.Date) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE created_by = $1 AND due_date < $2 AND status <> $3`,
		owner, today, string(models.StatusDone)).Scan(&n)
	return n, err
}

func (s *PostgresTaskStore) CountDueSoon(ctx context.Context, owner uuid.UUID, from, to models.Date) (int, error) {
	var n int
	err := s.q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM tasks
		WHERE created_by = $1 AND due_date BETWEEN $2 AND $3 AND status <> $4`,
		owner, from, to, string(models.StatusDone)).Scan(&n)
	return n, err
}

func (s *PostgresTaskStore) AssigneeCounts(ctx context.Context, owner uuid.UUID, onlyInProgress bool, limit int) ([]models.AssigneeCount, error) {
	where := "created_by = $1 AND assignee IS NOT NULL"
	args := []any{owner}
	if onlyInProgress {
		args = append(args, string(models.StatusInProgress))
		where += " AND status = $2"
	}
	args = append(args, limit)
	query := fmt.Sprintf(`
		SELECT assignee, COUNT(*) AS n FROM tasks WHERE %s
		GROUP BY assignee ORDER BY n DESC, assignee ASC LIMIT $%d`, where, len(args))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AssigneeCount{}
	for rows.Next() {
		var row models.AssigneeCount
		if err := rows.Scan(&row.Assignee, &row.Count); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (models.Task, error) {
	var task models.Task
	var description, assignee sql.NullString
	var startDate, dueDate, completedAt sql.NullTime
	err := row.Scan(&task.ID, &task.Title, &description, &assignee, &task.Status,
		&startDate, &dueDate, &task.CreatedAt, &completedAt, &task.CreatedBy)
	if err != nil {
		return models.Task{}, err
	}
	if description.Valid {
		task.Description = &description.String
	}
	if assignee.Valid {
		task.Assignee = &assignee.String
	}
	if startDate.Valid {
		d := models.DateOf(startDate.Time)
		task.StartDate = &d
	}
	if dueDate.Valid {
		d := models.DateOf(dueDate.Time)
		task.DueDate = &d
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return task, nil
}

// dateArg converts an optional Date into a driver-friendly argument.
func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return *d
}
