package models

import "gorm.io/gorm"

type Lecture struct {
	gorm.Model

	Admin       string `gorm:"not null;index" json:"admin"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"not null" json:"description"`
	Label       string `gorm:"not null;index" json:"label"`
	FileURL     string `gorm:"not null" json:"file_url"`
	FilePath    string `gorm:"not null" json:"-"`
}
