package deadlines

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/workqueue-dev/workqueue/internal/models"
)

type fakeAssignmentSource struct {
	rows     []models.Assignment
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeAssignmentSource) DueBetween(ctx context.Context, from, to time.Time) ([]models.Assignment, error) {
	f.lastFrom, f.lastTo = from, to
	return f.rows, nil
}

func overviewAssignment(id uint, title, label string, deadline time.Time) models.Assignment {
	a := models.Assignment{Admin: "Dr. Reed", Title: title, Label: label, Deadline: deadline}
	a.ID = id
	return a
}

func TestUpcomingCoversAllCohorts(t *testing.T) {
	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)
	until := now.Add(48 * time.Hour)

	// Two assignments with different labels both appear: the overview is
	// not scoped to any one user's labels.
	src := &fakeAssignmentSource{rows: []models.Assignment{
		overviewAssignment(1, "Problem Set 3", "CS101", now.Add(20*time.Hour)),
		overviewAssignment(2, "Lab Report", "PHY300", now.Add(40*time.Hour)),
	}}
	flags := &fakeFlagStore{}

	items, err := Upcoming(context.Background(), src, flags, now, until)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "CS101", items[0].Label)
	assert.Equal(t, "PHY300", items[1].Label)
	assert.Equal(t, now, src.lastFrom)
	assert.Equal(t, until, src.lastTo)
}

func TestUpcomingSettlesFlagsAndFormats(t *testing.T) {
	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)

	// One legacy date-only row (23:59:59), one timed row.
	dateOnly := overviewAssignment(1, "Essay", "CS101",
		time.Date(2026, time.September, 11, 23, 59, 59, 0, time.UTC))
	timed := overviewAssignment(2, "Quiz", "CS101",
		time.Date(2026, time.September, 11, 15, 0, 0, 0, time.UTC))

	src := &fakeAssignmentSource{rows: []models.Assignment{timed, dateOnly}}
	flags := &fakeFlagStore{}

	items, err := Upcoming(context.Background(), src, flags, now, now.Add(48*time.Hour))

	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "Sep 11, 2026 3:00 PM", items[0].DeadlineFormatted)
	assert.Equal(t, 27, items[0].TimeRemaining.Hours)
	assert.Equal(t, "27h 0m", items[0].TimeRemaining.Formatted)

	assert.Equal(t, "Sep 11, 2026", items[1].DeadlineFormatted)

	// Both rows lacked the flag, so both inferences were persisted.
	assert.Equal(t, 2, flags.saves)
}
