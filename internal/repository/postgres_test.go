package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
)

// setupPostgres starts a throwaway Postgres container. Skips the suite when
// no Docker daemon is reachable.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker daemon unreachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_DB=tasktracker_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})

	dsn := fmt.Sprintf("postgres://postgres:secret@%s/tasktracker_test?sslmode=disable",
		resource.GetHostPort("5432/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	require.NoError(t, pool.Retry(func() error {
		var err error
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		return db.Ping()
	}))
	t.Cleanup(func() {
		_ = db.Close()
	})

	CreateTableIfNotExists(db)
	return db
}

func mustCreateUser(t *testing.T, users *PostgresUserStore, email string) models.User {
	t.Helper()
	user, err := users.CreateUser(context.Background(), email, "x", "Tester", "")
	require.NoError(t, err)
	return user
}

func strPtr(s string) *string { return &s }

func TestPostgresStores(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	db := setupPostgres(t)
	ctx := context.Background()

	store := NewTaskStore(db)
	users := NewUserStore(db)
	owner := mustCreateUser(t, users, "owner@example.com")
	other := mustCreateUser(t, users, "other@example.com")

	t.Run("CreateAndGet", func(t *testing.T) {
		start := models.NewDate(2026, time.September, 1)
		due := models.NewDate(2026, time.September, 15)
		task, err := store.Create(ctx, owner.ID, models.TaskDraft{
			Title:       "Full task",
			Description: strPtr("with everything set"),
			Assignee:    strPtr("alice"),
			Status:      models.StatusInProgress,
			StartDate:   &start,
			DueDate:     &due,
		})
		require.NoError(t, err)

		got, err := store.Get(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, got.ID)
		assert.Equal(t, "Full task", got.Title)
		require.NotNil(t, got.Description)
		assert.Equal(t, "with everything set", *got.Description)
		require.NotNil(t, got.StartDate)
		assert.Equal(t, start, *got.StartDate)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, due, *got.DueDate)
		assert.Equal(t, owner.ID, got.CreatedBy)
		assert.Nil(t, got.CompletedAt)

		_, err = store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		var ve *models.ValidationError
		_, err := store.Create(ctx, owner.ID, models.TaskDraft{Status: models.StatusDone})
		require.ErrorAs(t, err, &ve)
		_, err = store.Create(ctx, owner.ID, models.TaskDraft{Title: "t", Status: "NOPE"})
		require.ErrorAs(t, err, &ve)
	})

	t.Run("TxRollbackLeavesNothing", func(t *testing.T) {
		boom := errors.New("boom")
		var taskID uuid.UUID
		err := store.RunInTx(ctx, func(tx TaskStore) error {
			task, err := tx.Create(ctx, owner.ID, models.TaskDraft{Title: "Doomed", Status: models.StatusNotStarted})
			if err != nil {
				return err
			}
			taskID = task.ID
			if _, err := tx.AppendLog(ctx, task.ID, models.EventCreated, nil); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		_, err = store.Get(ctx, taskID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		logs, err := store.ListLogs(ctx, taskID)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("CommittedTxPersistsBoth", func(t *testing.T) {
		var taskID uuid.UUID
		err := store.RunInTx(ctx, func(tx TaskStore) error {
			task, err := tx.Create(ctx, owner.ID, models.TaskDraft{Title: "Kept", Status: models.StatusNotStarted})
			if err != nil {
				return err
			}
			taskID = task.ID
			_, err = tx.AppendLog(ctx, task.ID, models.EventCreated, nil)
			return err
		})
		require.NoError(t, err)

		_, err = store.Get(ctx, taskID)
		require.NoError(t, err)
		logs, err := store.ListLogs(ctx, taskID)
		require.NoError(t, err)
		require.Len(t, logs, 1)
		assert.Equal(t, models.EventCreated, logs[0].Event)
	})

	t.Run("UpdatePatchSemantics", func(t *testing.T) {
		due := models.NewDate(2026, time.October, 1)
		task, err := store.Create(ctx, owner.ID, models.TaskDraft{
			Title: "Patchable", Status: models.StatusNotStarted, DueDate: &due, Assignee: strPtr("bob"),
		})
		require.NoError(t, err)

		// Untouched fields survive a partial update.
		updated, err := store.Update(ctx, task.ID, models.TaskPatch{Title: models.Some("Patched")})
		require.NoError(t, err)
		assert.Equal(t, "Patched", updated.Title)
		require.NotNil(t, updated.DueDate)
		require.NotNil(t, updated.Assignee)

		// Explicit nulls clear nullable columns.
		updated, err = store.Update(ctx, task.ID, models.TaskPatch{
			DueDate:  models.Null[models.Date](),
			Assignee: models.Null[string](),
		})
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
		assert.Nil(t, updated.Assignee)

		now := time.Now().UTC().Truncate(time.Microsecond)
		updated, err = store.Update(ctx, task.ID, models.TaskPatch{
			Status:      models.Some(models.StatusDone),
			CompletedAt: models.Some(now),
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusDone, updated.Status)
		require.NotNil(t, updated.CompletedAt)
		assert.WithinDuration(t, now, *updated.CompletedAt, time.Second)

		_, err = store.Update(ctx, uuid.New(), models.TaskPatch{Title: models.Some("ghost")})
		assert.ErrorIs(t, err, models.ErrNotFound)

		var ve *models.ValidationError
		_, err = store.Update(ctx, task.ID, models.TaskPatch{Title: models.Null[string]()})
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("ListScopingOrderingSearch", func(t *testing.T) {
		listOwner := mustCreateUser(t, users, "lister@example.com")

		titles := []string{"Draft minutes", "Review budget", "Email Vendor"}
		for _, title := range titles {
			_, err := store.Create(ctx, listOwner.ID, models.TaskDraft{
				Title: title, Status: models.StatusNotStarted,
			})
			require.NoError(t, err)
		}
		_, err := store.Create(ctx, listOwner.ID, models.TaskDraft{
			Title: "Assigned work", Status: models.StatusInProgress,
			Assignee: strPtr("carol"), Description: strPtr("quarterly REPORT"),
		})
		require.NoError(t, err)
		_, err = store.Create(ctx, other.ID, models.TaskDraft{
			Title: "Review budget too", Status: models.StatusNotStarted,
		})
		require.NoError(t, err)

		// Owner scoping plus newest-first ordering.
		all, err := store.List(ctx, listOwner.ID, models.ListFilter{Size: 100})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "Assigned work", all[0].Title)
		assert.Equal(t, "Draft minutes", all[3].Title)

		// Pagination slices are disjoint and contiguous.
		page1, err := store.List(ctx, listOwner.ID, models.ListFilter{Page: 1, Size: 2})
		require.NoError(t, err)
		page2, err := store.List(ctx, listOwner.ID, models.ListFilter{Page: 2, Size: 2})
		require.NoError(t, err)
		require.Len(t, page1, 2)
		require.Len(t, page2, 2)
		assert.Equal(t, all[0].ID, page1[0].ID)
		assert.Equal(t, all[2].ID, page2[0].ID)

		inProgress := models.StatusInProgress
		byStatus, err := store.List(ctx, listOwner.ID, models.ListFilter{Status: &inProgress})
		require.NoError(t, err)
		require.Len(t, byStatus, 1)

		// ILIKE over title, description, assignee.
		for _, q := range []string{"vendor", "report", "CAROL"} {
			found, err := store.List(ctx, listOwner.ID, models.ListFilter{Query: q})
			require.NoError(t, err)
			assert.NotEmpty(t, found, "query %q", q)
		}
	})

	t.Run("LogsAscendingOrder", func(t *testing.T) {
		task, err := store.Create(ctx, owner.ID, models.TaskDraft{Title: "Logged", Status: models.StatusNotStarted})
		require.NoError(t, err)

		for _, event := range []string{"FIRST", "SECOND", "THIRD"} {
			_, err := store.AppendLog(ctx, task.ID, event, nil)
			require.NoError(t, err)
		}
		logs, err := store.ListLogs(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, logs, 3)
		assert.Equal(t, "FIRST", logs[0].Event)
		assert.Equal(t, "THIRD", logs[2].Event)
	})

	t.Run("DeleteCascadesAndIsIdempotent", func(t *testing.T) {
		task, err := store.Create(ctx, owner.ID, models.TaskDraft{Title: "Doomed", Status: models.StatusNotStarted})
		require.NoError(t, err)
		_, err = store.AppendLog(ctx, task.ID, models.EventCreated, nil)
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, task.ID))

		_, err = store.Get(ctx, task.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM task_logs WHERE task_id = $1", task.ID).Scan(&n))
		assert.Zero(t, n)

		assert.NoError(t, store.Delete(ctx, task.ID))
		assert.NoError(t, store.Delete(ctx, uuid.New()))
	})

	t.Run("DashboardQueries", func(t *testing.T) {
		dashOwner := mustCreateUser(t, users, "dash@example.com")
		today := models.NewDate(2026, time.September, 1)

		seed := func(status models.Status, assignee string, due *models.Date) {
			draft := models.TaskDraft{Title: "d", Status: status, DueDate: due}
			if assignee != "" {
				draft.Assignee = &assignee
			}
			_, err := store.Create(ctx, dashOwner.ID, draft)
			require.NoError(t, err)
		}
		overdueDate := today.AddDays(-2)
		soonDate := today.AddDays(3)
		farDate := today.AddDays(10)
		seed(models.StatusNotStarted, "alice", &overdueDate)
		seed(models.StatusInProgress, "alice", &soonDate)
		seed(models.StatusDone, "bob", &overdueDate)
		seed(models.StatusInProgress, "bob", &farDate)

		counts, err := store.CountByStatus(ctx, dashOwner.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, counts[models.StatusNotStarted])
		assert.Equal(t, 2, counts[models.StatusInProgress])
		assert.Equal(t, 1, counts[models.StatusDone])

		overdue, err := store.CountOverdue(ctx, dashOwner.ID, today)
		require.NoError(t, err)
		assert.Equal(t, 1, overdue)

		dueSoon, err := store.CountDueSoon(ctx, dashOwner.ID, today, today.AddDays(3))
		require.NoError(t, err)
		assert.Equal(t, 1, dueSoon)

		top, err := store.AssigneeCounts(ctx, dashOwner.ID, false, 5)
		require.NoError(t, err)
		require.Len(t, top, 2)
		assert.Equal(t, models.AssigneeCount{Assignee: "alice", Count: 2}, top[0])
		assert.Equal(t, models.AssigneeCount{Assignee: "bob", Count: 2}, top[1])

		wip, err := store.AssigneeCounts(ctx, dashOwner.ID, true, 5)
		require.NoError(t, err)
		require.Len(t, wip, 2)
		assert.Equal(t, 1, wip[0].Count)
	})

	t.Run("UserUniqueEmail", func(t *testing.T) {
		_, err := users.CreateUser(ctx, "Owner@Example.com", "y", "Dup", "")
		var pqErr *pq.Error
		require.ErrorAs(t, err, &pqErr)
		assert.Equal(t, pq.ErrorCode("23505"), pqErr.Code)

		found, err := users.GetUserByEmail(ctx, "OWNER@example.com")
		require.NoError(t, err)
		assert.Equal(t, owner.ID, found.ID)

		_, err = users.GetUserByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
