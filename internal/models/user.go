package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
	RoleHead    = "head"
)

type User struct {
	gorm.Model

	Name         string `gorm:"not null" json:"name"`
	Username     string `gorm:"uniqueIndex" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	Role         string `gorm:"not null;default:student" json:"role"`

	// LegacyLabel is the deprecated single-cohort field. It is folded into
	// Labels on first touch and cleared; new records never set it.
	LegacyLabel string         `gorm:"column:legacy_label" json:"-"`
	Labels      pq.StringArray `gorm:"type:text[]" json:"labels"`

	LastLogin      *time.Time `json:"last_login"`
	ProfilePicture string     `json:"profile_picture"`

	// Relationships
	Submissions []Submission `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// HasLabel reports whether label is in the current label set. LegacyLabel
// is not consulted; callers that may see unmigrated records go through
// labels.Resolver first.
func (u *User) HasLabel(label string) bool {
	for _, l := range u.Labels {
		if l == label {
			return true
		}
	}
	return false
}
