package deadlines

import (
	"context"
	"log"
	"time"

	"github.com/workqueue-dev/workqueue/internal/models"
	"gorm.io/gorm"
)

// FlagStore persists an inferred time-component flag.
type FlagStore interface {
	SaveTimeFlag(ctx context.Context, assignmentID uint, hasTime bool) error
}

// HasExplicitTime reports whether a stored deadline's clock value implies
// the publisher chose a specific time. Date-only deadlines were
// historically normalized to midnight or the 23:59 minute; any other
// clock value means a real time was given.
func HasExplicitTime(t time.Time) bool {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 {
		return false
	}
	if h == 23 && m == 59 {
		return false
	}
	return true
}

// EnsureTimeFlag memoizes HasExplicitTime on a legacy assignment record.
// Rows already carrying the flag are returned untouched with no write.
// A persistence failure is logged and the in-memory value returned;
// callers must not assume durability in that case.
func EnsureTimeFlag(ctx context.Context, store FlagStore, a *models.Assignment) *models.Assignment {
	if a.HasTimeComponent != nil {
		return a
	}

	hasTime := HasExplicitTime(a.Deadline)
	a.HasTimeComponent = &hasTime

	if err := store.SaveTimeFlag(ctx, a.ID, hasTime); err != nil {
		log.Printf("Persisting time flag for assignment %d failed: %v", a.ID, err)
	}
	return a
}

type gormFlags struct {
	db *gorm.DB
}

func NewFlagStore(db *gorm.DB) FlagStore {
	return &gormFlags{db: db}
}

func (s *gormFlags) SaveTimeFlag(ctx context.Context, assignmentID uint, hasTime bool) error {
	return s.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", assignmentID).
		Update("has_time_component", hasTime).Error
}
