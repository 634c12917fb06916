package models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StatusPending  = "Pending"
	StatusAccepted = "Accepted"
	StatusRejected = "Rejected"

	DecisionOverturned = "Overturned"
)

// AppealDetails holds the student-authored appeal against a rejection.
type AppealDetails struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

// Submission is a student upload (assignment work or test response)
// flowing through the review pipeline: admin decision, optional appeal,
// head adjudication.
type Submission struct {
	gorm.Model

	UserID   uint   `gorm:"not null;index" json:"user_id"`
	UserName string `gorm:"not null" json:"user_name"`
	Admin    string `gorm:"not null;index" json:"admin"`
	HeadID   *uint  `json:"head_id"`

	Title    string         `gorm:"not null" json:"title"`
	FilePath string         `gorm:"not null" json:"-"`
	FileURL  string         `gorm:"not null" json:"file_url"`
	Labels   pq.StringArray `gorm:"type:text[]" json:"labels"`

	Status        string `gorm:"not null;default:Pending" json:"status"`
	AdminDecision string `gorm:"not null;default:Pending" json:"admin_decision"`
	HeadDecision  string `gorm:"not null;default:Pending" json:"head_decision"`

	AppealStatus  *string                           `json:"appeal_status"`
	AppealDetails datatypes.JSONType[AppealDetails] `json:"appeal_details"`

	AdminFeedback string `json:"admin_feedback"`
	HeadFeedback  string `json:"head_feedback"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE" json:"-"`
}

// IsTestResponse discriminates test responses from regular assignment
// uploads by the title prefix set at upload time.
func (s *Submission) IsTestResponse() bool {
	return len(s.Title) >= 5 && s.Title[:5] == "Test:"
}
