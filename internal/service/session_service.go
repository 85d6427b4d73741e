package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/internal/repository"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrStartFailed     = errors.New("failed to start session")
)

type SessionService struct {
	projects  repository.ProjectRepository
	sandboxes SandboxManager
	sessions  SessionLookup
	log       *slog.Logger
}

func NewSessionService(projects repository.ProjectRepository, sandboxes SandboxManager, sessions SessionLookup, log *slog.Logger) *SessionService {
	if log == nil {
		log = slog.Default()
	}
	return &SessionService{
		projects:  projects,
		sandboxes: sandboxes,
		sessions:  sessions,
		log:       log,
	}
}

// StartSession launches a sandbox for a project owned by userID and returns
// the sandbox id, which doubles as the session id.
func (s *SessionService) StartSession(ctx context.Context, userID, projectID string) (string, error) {
	const op = "service.session.start"
	log := s.log.With(
		slog.String("op", op),
		slog.String("project_id", projectID),
		slog.String("user_id", userID),
	)

	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		log.Info("project lookup failed", sl.Err(err))
		return "", err
	}

	log.Info("starting session", slog.Int("files", len(project.Files)))

	id, err := s.sandboxes.Start(ctx, userID, project.ID, project.Files)
	if err != nil {
		log.Error("failed to start sandbox", sl.Err(err))
		return "", fmt.Errorf("%s: %w: %w", op, ErrStartFailed, err)
	}

	return id, nil
}

// StopSession stops the project's sandbox. Teardown failures are logged and
// swallowed; only an ownership failure reaches the caller.
func (s *SessionService) StopSession(ctx context.Context, userID, projectID string) error {
	const op = "service.session.stop"
	log := s.log.With(
		slog.String("op", op),
		slog.String("project_id", projectID),
		slog.String("user_id", userID),
	)

	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		log.Info("project lookup failed", sl.Err(err))
		return err
	}

	if err := s.sandboxes.Stop(ctx, projectID); err != nil {
		log.Error("failed to stop sandbox", sl.Err(err))
		return nil
	}

	log.Info("session stopped")
	return nil
}

func (s *SessionService) GetSession(ctx context.Context, userID, projectID string) (*domain.SessionSnapshot, error) {
	const op = "service.session.get"

	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return nil, err
	}

	snap, ok := s.sessions.Get(projectID)
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	return &snap, nil
}

func (s *SessionService) ownedProject(ctx context.Context, userID, projectID string) (*domain.Project, error) {
	project, err := s.projects.GetOwned(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}
