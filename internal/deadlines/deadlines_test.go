package deadlines

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/workqueue-dev/workqueue/internal/models"
)

type fakeFlagStore struct {
	saves   int
	lastID  uint
	lastVal bool
	err     error
}

func (f *fakeFlagStore) SaveTimeFlag(ctx context.Context, id uint, hasTime bool) error {
	if f.err != nil {
		return f.err
	}
	f.saves++
	f.lastID = id
	f.lastVal = hasTime
	return nil
}

func at(h, m, s int) time.Time {
	return time.Date(2026, time.September, 10, h, m, s, 0, time.UTC)
}

func TestHasExplicitTime(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want bool
	}{
		{"midnight is date-only", at(0, 0, 0), false},
		{"end of day 23:59:00 is date-only", at(23, 59, 0), false},
		{"end of day 23:59:59 is date-only", at(23, 59, 59), false},
		{"morning time", at(9, 30, 0), true},
		{"23:58 is a real time", at(23, 58, 0), true},
		{"midnight with seconds", at(0, 0, 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasExplicitTime(tt.in))
		})
	}
}

func TestEnsureTimeFlagInfersAndPersistsOnce(t *testing.T) {
	store := &fakeFlagStore{}
	a := &models.Assignment{Deadline: at(23, 59, 0)}
	a.ID = 7

	got := EnsureTimeFlag(context.Background(), store, a)

	if assert.NotNil(t, got.HasTimeComponent) {
		assert.False(t, *got.HasTimeComponent)
	}
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, uint(7), store.lastID)
	assert.False(t, store.lastVal)

	// Second call sees the flag set and writes nothing.
	EnsureTimeFlag(context.Background(), store, a)
	assert.Equal(t, 1, store.saves)
}

func TestEnsureTimeFlagSkipsFlaggedRows(t *testing.T) {
	store := &fakeFlagStore{}
	hasTime := true
	a := &models.Assignment{Deadline: at(0, 0, 0), HasTimeComponent: &hasTime}

	got := EnsureTimeFlag(context.Background(), store, a)

	assert.True(t, *got.HasTimeComponent, "an existing flag wins over re-inference")
	assert.Zero(t, store.saves)
}

func TestEnsureTimeFlagSurvivesWriteFailure(t *testing.T) {
	store := &fakeFlagStore{err: errors.New("connection reset")}
	a := &models.Assignment{Deadline: at(14, 0, 0)}

	got := EnsureTimeFlag(context.Background(), store, a)

	if assert.NotNil(t, got.HasTimeComponent) {
		assert.True(t, *got.HasTimeComponent)
	}
}

func TestFormatDeadline(t *testing.T) {
	deadline := time.Date(2026, time.September, 10, 15, 30, 0, 0, time.UTC)

	assert.Equal(t, "Sep 10, 2026 3:30 PM", FormatDeadline(deadline, true))
	assert.Equal(t, "Sep 10, 2026", FormatDeadline(deadline, false))
}

func TestTimeRemaining(t *testing.T) {
	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		deadline time.Time
		want     string
	}{
		{"under an hour", now.Add(45 * time.Minute), "45 minutes"},
		{"under a day", now.Add(5*time.Hour + 20*time.Minute), "5 hours and 20 minutes"},
		{"days out", now.Add(49 * time.Hour), "2 day(s) and 1 hours"},
		{"exactly now", now, "Assignment is overdue!"},
		{"past", now.Add(-time.Minute), "Assignment is overdue!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeRemaining(tt.deadline, now))
		})
	}
}

func TestRemaining(t *testing.T) {
	now := time.Date(2026, time.September, 10, 12, 0, 0, 0, time.UTC)

	got := Remaining(now.Add(26*time.Hour+15*time.Minute), now)

	assert.Equal(t, 26, got.Hours)
	assert.Equal(t, 15, got.Minutes)
	assert.Equal(t, "26h 15m", got.Formatted)
}
