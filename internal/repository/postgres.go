package repository

import (
	"context"
	"errors"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/internal/repository/model"
	"gorm.io/gorm"
)

type PostgresProjectRepository struct {
	db *gorm.DB
}

func NewPostgresProjectRepository(db *gorm.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{db: db}
}

func (r *PostgresProjectRepository) GetOwned(ctx context.Context, projectID, userID string) (*domain.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var project model.Project
	err := r.db.WithContext(ctx).
		Preload("Files").
		First(&project, "id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	return toDomainProject(&project), nil
}

type PostgresUserRepository struct {
	db *gorm.DB
}

func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return toDomainUser(&user), nil
}

func toDomainProject(project *model.Project) *domain.Project {
	files := make([]domain.File, 0, len(project.Files))
	for _, f := range project.Files {
		files = append(files, domain.File{
			ID:      f.ID,
			Name:    f.Name,
			Content: f.Content,
		})
	}

	return &domain.Project{
		ID:        project.ID,
		UserID:    project.UserID,
		Name:      project.Name,
		Files:     files,
		CreatedAt: project.CreatedAt.UTC(),
		UpdatedAt: project.UpdatedAt.UTC(),
	}
}

func toDomainUser(user *model.User) *domain.User {
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC(),
	}
}
