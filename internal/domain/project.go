package domain

import (
	"time"
)

// Project is a user's playground project with its source files.
type Project struct {
	ID        string
	UserID    string
	Name      string
	Files     []File
	CreatedAt time.Time
	UpdatedAt time.Time
}

// File is one source file; Name is its path relative to the project root.
type File struct {
	ID      string
	Name    string
	Content string
}

func NewProject(id, userID, name string, files ...File) *Project {
	now := time.Now().UTC()
	return &Project{
		ID:        id,
		UserID:    userID,
		Name:      name,
		Files:     files,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
