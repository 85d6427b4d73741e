package repository

import (
	"context"
	"testing"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryProjectRepositoryOwnership(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryProjectRepository()

	project := domain.NewProject("p1", "u1", "demo", domain.File{Name: "App.js", Content: "export default 1"})
	require.NoError(t, repo.Create(ctx, project))
	assert.ErrorIs(t, repo.Create(ctx, project), ErrProjectExists)

	got, err := repo.GetOwned(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.Name)
	require.Len(t, got.Files, 1)

	got.Files[0].Content = "mutated"
	again, err := repo.GetOwned(ctx, "p1", "u1")
	require.NoError(t, err)
	assert.Equal(t, "export default 1", again.Files[0].Content)

	_, err = repo.GetOwned(ctx, "p1", "u2")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = repo.GetOwned(ctx, "missing", "u1")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestInMemoryUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryUserRepository()

	require.NoError(t, repo.Create(ctx, domain.NewUser("u1", "ana", "ana@example.com")))
	assert.ErrorIs(t, repo.Create(ctx, domain.NewUser("u1", "ana", "ana@example.com")), ErrUserExists)

	user, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "ana", user.Username)

	_, err = repo.GetByID(ctx, "u2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestInMemoryRepositoriesHonourContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInMemoryProjectRepository().GetOwned(ctx, "p1", "u1")
	assert.ErrorIs(t, err, context.Canceled)

	_, err = NewInMemoryUserRepository().GetByID(ctx, "u1")
	assert.ErrorIs(t, err, context.Canceled)
}
