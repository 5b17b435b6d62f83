package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
)

// fixedNow pins "today" to 2026-09-01 in UTC+7.
var fixedNow = time.Date(2026, time.September, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))

func newDashboard(store repository.TaskStore) *DashboardService {
	svc := NewDashboardService(store, time.FixedZone("WIB", 7*3600))
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func seedTask(t *testing.T, store repository.TaskStore, owner uuid.UUID, status models.Status, assignee string, due *models.Date) {
	t.Helper()
	draft := models.TaskDraft{Title: "Seeded", Status: status, DueDate: due}
	if assignee != "" {
		draft.Assignee = &assignee
	}
	_, err := store.Create(context.Background(), owner, draft)
	require.NoError(t, err)
}

func datePtr(d models.Date) *models.Date { return &d }

func TestSummaryCountsAndBuckets(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTaskStore()
	svc := newDashboard(store)
	owner := uuid.New()

	today := models.NewDate(2026, time.September, 1)

	// Overdue: due yesterday, not done.
	seedTask(t, store, owner, models.StatusNotStarted, "", datePtr(today.AddDays(-1)))
	// Due exactly today and at the horizon edge: both due_soon.
	seedTask(t, store, owner, models.StatusInProgress, "", datePtr(today))
	seedTask(t, store, owner, models.StatusNotStarted, "", datePtr(today.AddDays(3)))
	// Beyond the horizon: neither bucket.
	seedTask(t, store, owner, models.StatusNotStarted, "", datePtr(today.AddDays(4)))
	// Overdue date but DONE: excluded from both buckets.
	seedTask(t, store, owner, models.StatusDone, "", datePtr(today.AddDays(-5)))
	// No due date at all.
	seedTask(t, store, owner, models.StatusInProgress, "", nil)

	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 3, summary.ByStatus[models.StatusNotStarted])
	assert.Equal(t, 2, summary.ByStatus[models.StatusInProgress])
	assert.Equal(t, 1, summary.ByStatus[models.StatusDone])
	assert.Equal(t, 1, summary.Overdue)
	assert.Equal(t, 2, summary.DueSoon)
}

func TestSummaryZeroFilledForEmptyOwner(t *testing.T) {
	ctx := context.Background()
	svc := newDashboard(repository.NewMemoryTaskStore())

	summary, err := svc.Summary(ctx, uuid.New())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Total)
	require.Len(t, summary.ByStatus, 3)
	for _, st := range models.AllStatuses {
		n, ok := summary.ByStatus[st]
		assert.True(t, ok, "status %s must be reported even when zero", st)
		assert.Equal(t, 0, n)
	}
	assert.Empty(t, summary.TopAssignees)
	assert.Empty(t, summary.WIPByAssignee)
}

func TestSummaryTotalEqualsStatusSum(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTaskStore()
	svc := newDashboard(store)
	owner := uuid.New()

	statuses := []models.Status{
		models.StatusDone, models.StatusDone, models.StatusInProgress,
		models.StatusNotStarted, models.StatusNotStarted, models.StatusNotStarted,
	}
	for _, st := range statuses {
		seedTask(t, store, owner, st, "", nil)
	}

	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)

	sum := 0
	for _, n := range summary.ByStatus {
		sum += n
	}
	assert.Equal(t, sum, summary.Total)
}

func TestSummaryAssigneeRankings(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTaskStore()
	svc := newDashboard(store)
	owner := uuid.New()

	// alice: 3 tasks, 1 in progress. bob and carol: 2 tasks each — the tie
	// breaks alphabetically. dave through grace pad the list past the cap.
	for i := 0; i < 3; i++ {
		st := models.StatusNotStarted
		if i == 0 {
			st = models.StatusInProgress
		}
		seedTask(t, store, owner, st, "alice", nil)
	}
	for i := 0; i < 2; i++ {
		seedTask(t, store, owner, models.StatusInProgress, "carol", nil)
		seedTask(t, store, owner, models.StatusNotStarted, "bob", nil)
	}
	for _, name := range []string{"dave", "erin", "frank", "grace"} {
		seedTask(t, store, owner, models.StatusNotStarted, name, nil)
	}
	// Unassigned tasks never appear in rankings.
	seedTask(t, store, owner, models.StatusInProgress, "", nil)

	summary, err := svc.Summary(ctx, owner)
	require.NoError(t, err)

	require.Len(t, summary.TopAssignees, 5)
	assert.Equal(t, models.AssigneeCount{Assignee: "alice", Count: 3}, summary.TopAssignees[0])
	assert.Equal(t, models.AssigneeCount{Assignee: "bob", Count: 2}, summary.TopAssignees[1])
	assert.Equal(t, models.AssigneeCount{Assignee: "carol", Count: 2}, summary.TopAssignees[2])

	// WIP ranking counts only IN_PROGRESS tasks.
	require.Len(t, summary.WIPByAssignee, 2)
	assert.Equal(t, models.AssigneeCount{Assignee: "carol", Count: 2}, summary.WIPByAssignee[0])
	assert.Equal(t, models.AssigneeCount{Assignee: "alice", Count: 1}, summary.WIPByAssignee[1])
}

func TestSummaryIsOwnerScoped(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryTaskStore()
	svc := newDashboard(store)
	ownerA := uuid.New()
	ownerB := uuid.New()

	seedTask(t, store, ownerA, models.StatusDone, "alice", nil)
	seedTask(t, store, ownerB, models.StatusNotStarted, "bob", nil)

	summary, err := svc.Summary(ctx, ownerA)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Total)
	assert.Equal(t, 1, summary.ByStatus[models.StatusDone])
	require.Len(t, summary.TopAssignees, 1)
	assert.Equal(t, "alice", summary.TopAssignees[0].Assignee)
}
