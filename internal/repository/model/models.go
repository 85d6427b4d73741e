package model

import (
	"time"
)

type Project struct {
	ID        string    `gorm:"size:64;primaryKey"`
	UserID    string    `gorm:"size:64;index;not null"`
	Name      string    `gorm:"size:255;not null"`
	Files     []File    `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type File struct {
	ID        string `gorm:"size:64;primaryKey"`
	ProjectID string `gorm:"size:64;uniqueIndex:idx_files_project_name;not null"`
	Name      string `gorm:"size:512;uniqueIndex:idx_files_project_name;not null"`
	Content   string `gorm:"type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type User struct {
	ID        string    `gorm:"size:64;primaryKey"`
	Username  string    `gorm:"size:255;not null"`
	Email     string    `gorm:"size:255;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
