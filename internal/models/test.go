package models

import (
	"time"

	"gorm.io/gorm"
)

// Test is a published timed test. New tests always carry an explicit
// deadline time; HasTimeComponent exists for legacy rows imported without
// one.
type Test struct {
	gorm.Model

	Admin       string `gorm:"not null;index" json:"admin"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Label       string `gorm:"not null;index" json:"label"`
	TestURL     string `gorm:"not null" json:"test_url"`

	Deadline         time.Time `gorm:"not null;index" json:"deadline"`
	HasTimeComponent *bool     `json:"has_time_component"`
}
