package repository

import (
	"context"
	"errors"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrProjectExists   = errors.New("project already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
)

type ProjectRepository interface {
	// GetOwned returns the project only when it belongs to userID;
	// otherwise ErrProjectNotFound.
	GetOwned(ctx context.Context, projectID, userID string) (*domain.Project, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}
