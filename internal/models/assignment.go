package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// WarningRecipient records one attempted reminder delivery.
type WarningRecipient struct {
	UserID uint      `json:"user_id"`
	SentAt time.Time `json:"sent_at"`
}

// DeadlineChange is one entry in an assignment's deadline history.
type DeadlineChange struct {
	OldDeadline time.Time `json:"old_deadline"`
	NewDeadline time.Time `json:"new_deadline"`
	OldHasTime  bool      `json:"old_has_time"`
	NewHasTime  bool      `json:"new_has_time"`
	ChangedBy   string    `json:"changed_by"`
	ChangedAt   time.Time `json:"changed_at"`
	Reason      string    `json:"reason"`
}

// Assignment is a published assignment definition, addressed to a cohort
// label. Student uploads against it live in Submission.
type Assignment struct {
	gorm.Model

	Admin       string `gorm:"not null;index" json:"admin"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Label       string `gorm:"not null;index" json:"label"`

	Deadline time.Time `gorm:"not null;index" json:"deadline"`
	// HasTimeComponent is nil on legacy rows until deadlines.EnsureTimeFlag
	// has inferred and persisted it.
	HasTimeComponent *bool `json:"has_time_component"`

	WarningEmailSent  bool                                   `gorm:"not null;default:false" json:"warning_email_sent"`
	SentWarningEmails datatypes.JSONType[[]WarningRecipient] `json:"sent_warning_emails"`
	DeadlineHistory   datatypes.JSONType[[]DeadlineChange]   `json:"deadline_history"`
}
