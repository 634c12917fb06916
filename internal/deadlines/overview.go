package deadlines

import (
	"context"
	"time"

	"github.com/workqueue-dev/workqueue/internal/models"
	"github.com/workqueue-dev/workqueue/internal/types"
	"gorm.io/gorm"
)

// AssignmentSource lists assignments by deadline window.
type AssignmentSource interface {
	DueBetween(ctx context.Context, from, to time.Time) ([]models.Assignment, error)
}

// UpcomingItem is one row of the upcoming-deadline overview.
type UpcomingItem struct {
	ID                uint                `json:"id"`
	Title             string              `json:"title"`
	Admin             string              `json:"admin"`
	Label             string              `json:"label"`
	Deadline          time.Time           `json:"deadline"`
	DeadlineFormatted string              `json:"deadline_formatted"`
	TimeRemaining     types.TimeRemaining `json:"time_remaining"`
}

// Upcoming returns every assignment due in [from, to] across all cohorts,
// deadline order, with time flags settled and remaining time measured
// from the window start. This is the operator view; cohort-scoped reads
// filter by label before calling here.
func Upcoming(ctx context.Context, src AssignmentSource, flags FlagStore, from, to time.Time) ([]UpcomingItem, error) {
	assignments, err := src.DueBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	items := make([]UpcomingItem, 0, len(assignments))
	for i := range assignments {
		a := EnsureTimeFlag(ctx, flags, &assignments[i])
		hasTime := a.HasTimeComponent != nil && *a.HasTimeComponent

		items = append(items, UpcomingItem{
			ID:                a.ID,
			Title:             a.Title,
			Admin:             a.Admin,
			Label:             a.Label,
			Deadline:          a.Deadline,
			DeadlineFormatted: FormatDeadline(a.Deadline, hasTime),
			TimeRemaining:     Remaining(a.Deadline, from),
		})
	}
	return items, nil
}

type gormAssignments struct {
	db *gorm.DB
}

func NewAssignmentSource(db *gorm.DB) AssignmentSource {
	return &gormAssignments{db: db}
}

func (s *gormAssignments) DueBetween(ctx context.Context, from, to time.Time) ([]models.Assignment, error) {
	var out []models.Assignment
	err := s.db.WithContext(ctx).
		Where("deadline >= ? AND deadline <= ?", from, to).
		Order("deadline ASC").
		Find(&out).Error
	return out, err
}
