package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tasktracker/internal/models"
	"tasktracker/internal/repository"
)

// dueSoonDays is the horizon for the "due soon" bucket: today through
// today+3 inclusive.
const dueSoonDays = 3

const topAssigneeLimit = 5

// DashboardService computes read-only rollups scoped to a single owner.
// "Today" is the civil date in the configured reference timezone, so day
// boundaries are consistent regardless of where the process runs.
type DashboardService struct {
	store repository.TaskStore
	loc   *time.Location
	now   func() time.Time
}

func NewDashboardService(store repository.TaskStore, loc *time.Location) *DashboardService {
	return &DashboardService{store: store, loc: loc, now: time.Now}
}

func (s *DashboardService) today() models.Date {
	return models.DateOf(s.now().In(s.loc))
}

func (s *DashboardService) Summary(ctx context.Context, owner uuid.UUID) (models.Summary, error) {
	counts, err := s.store.CountByStatus(ctx, owner)
	if err != nil {
		return models.Summary{}, err
	}
	total := 0
	for _, st := range models.AllStatuses {
		total += counts[st]
	}

	today := s.today()
	overdue, err := s.store.CountOverdue(ctx, owner, today)
	if err != nil {
		return models.Summary{}, err
	}
	dueSoon, err := s.store.CountDueSoon(ctx, owner, today, today.AddDays(dueSoonDays))
	if err != nil {
		return models.Summary{}, err
	}
	top, err := s.store.AssigneeCounts(ctx, owner, false, topAssigneeLimit)
	if err != nil {
		return models.Summary{}, err
	}
	wip, err := s.store.AssigneeCounts(ctx, owner, true, topAssigneeLimit)
	if err != nil {
		return models.Summary{}, err
	}

	return models.Summary{
		Total:         total,
		ByStatus:      counts,
		Overdue:       overdue,
		DueSoon:       dueSoon,
		TopAssignees:  top,
		WIPByAssignee: wip,
	}, nil
}
