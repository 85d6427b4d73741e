package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

type InMemoryProjectRepository struct {
	mu       sync.RWMutex
	projects map[string]*domain.Project
}

func NewInMemoryProjectRepository() *InMemoryProjectRepository {
	return &InMemoryProjectRepository{
		projects: make(map[string]*domain.Project),
	}
}

func (r *InMemoryProjectRepository) Create(ctx context.Context, project *domain.Project) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if project == nil {
		return errors.New("project is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.projects[project.ID]; ok {
		return ErrProjectExists
	}

	r.projects[project.ID] = copyProject(project)
	return nil
}

func (r *InMemoryProjectRepository) GetOwned(ctx context.Context, projectID, userID string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	project, ok := r.projects[projectID]
	if !ok || project.UserID != userID {
		return nil, ErrProjectNotFound
	}

	return copyProject(project), nil
}

func copyProject(p *domain.Project) *domain.Project {
	cp := *p
	cp.Files = append([]domain.File(nil), p.Files...)
	return &cp
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[string]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if user == nil {
		return errors.New("user is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; ok {
		return ErrUserExists
	}

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	cp := *user
	return &cp, nil
}
