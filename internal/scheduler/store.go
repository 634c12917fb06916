package scheduler

import (
	"context"
	"time"

	"github.com/workqueue-dev/workqueue/internal/labels"
	"github.com/workqueue-dev/workqueue/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) DueUnwarned(ctx context.Context, from, to time.Time) ([]models.Assignment, error) {
	var out []models.Assignment
	err := s.db.WithContext(ctx).
		Where("deadline >= ? AND deadline <= ?", from, to).
		Where("warning_email_sent = ?", false).
		Find(&out).Error
	return out, err
}

func (s *gormStore) Audience(ctx context.Context, label string) ([]models.User, error) {
	return labels.FindUsersByLabel(ctx, s.db, label)
}

func (s *gormStore) MarkWarned(ctx context.Context, assignmentID uint, recipients []models.WarningRecipient) error {
	return s.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", assignmentID).
		Updates(map[string]interface{}{
			"warning_email_sent":  true,
			"sent_warning_emails": datatypes.NewJSONType(recipients),
		}).Error
}
