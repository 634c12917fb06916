package labels

import (
	"context"
	"errors"
	"log"

	"github.com/lib/pq"
	"github.com/workqueue-dev/workqueue/internal/models"
	"gorm.io/gorm"
)

type gormUsers struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) UserStore {
	return &gormUsers{db: db}
}

func (s *gormUsers) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *gormUsers) SaveUserLabels(ctx context.Context, id uint, labels []string) error {
	return s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"labels":       pq.StringArray(labels),
			"legacy_label": "",
		}).Error
}

// Collection adapts a content model to the matcher's LabelSource.
type Collection struct {
	db    *gorm.DB
	model interface{}
}

func NewCollection(db *gorm.DB, model interface{}) Collection {
	return Collection{db: db, model: model}
}

func (c Collection) CountExact(ctx context.Context, labels []string) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(c.model).Where("label IN ?", labels).Count(&n).Error
	return n, err
}

func (c Collection) DistinctLabels(ctx context.Context) ([]string, error) {
	var out []string
	err := c.db.WithContext(ctx).Model(c.model).Distinct().Pluck("label", &out).Error
	return out, err
}

// MatchContent runs MatchLabels against dest's collection and loads the
// matching rows into dest. dest must be a pointer to a slice of a content
// model with a label column.
func MatchContent(ctx context.Context, db *gorm.DB, userLabels []string, dest interface{}, order string) error {
	matched, err := MatchLabels(ctx, userLabels, NewCollection(db, dest))
	if err != nil {
		return err
	}
	if len(matched) == 0 {
		return nil
	}

	q := db.WithContext(ctx).Where("label IN ?", matched)
	if order != "" {
		q = q.Order(order)
	}
	return q.Find(dest).Error
}

// FindUsersByLabel returns the users subscribed to label under either
// schema generation, folding unmigrated records into the array form as
// they are found. Matching is exact; the matcher's case-insensitive
// fallback applies to content lookups only.
func FindUsersByLabel(ctx context.Context, db *gorm.DB, label string) ([]models.User, error) {
	var users []models.User
	err := db.WithContext(ctx).
		Where("? = ANY(labels) OR legacy_label = ?", label, label).
		Find(&users).Error
	if err != nil {
		return nil, err
	}

	for i := range users {
		u := &users[i]
		if u.LegacyLabel == "" {
			continue
		}
		folded := dedupe(append([]string(u.Labels), u.LegacyLabel))
		if err := db.WithContext(ctx).Model(u).Updates(map[string]interface{}{
			"labels":       pq.StringArray(folded),
			"legacy_label": "",
		}).Error; err != nil {
			log.Printf("Migrating labels for user %d failed: %v", u.ID, err)
		}
		u.Labels = folded
		u.LegacyLabel = ""
	}
	return users, nil
}
