package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/immxrtalbeast/rnplay/internal/config"
	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/internal/repository"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

// Environment variables the bridge process reads inside the sandbox.
const (
	EnvProjectID    = "PROJECT_ID"
	EnvSignalingURL = "SIGNALING_SERVER_URL"
	EnvSTUNServers  = "STUN_SERVERS"
)

// teardownGrace bounds a stop beyond the container's own stop timeout.
const teardownGrace = 30 * time.Second

// Manager owns the project -> sandbox mapping. At most one sandbox runs per
// project; starting a project that already runs tears the old one down first.
type Manager struct {
	cfg         config.SandboxConfig
	stunServers []string
	runtime     Runtime
	store       *repository.SessionStore
	locks       *keyLock
	log         *slog.Logger
}

func NewManager(cfg config.SandboxConfig, stunServers []string, runtime Runtime, store *repository.SessionStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:         cfg,
		stunServers: stunServers,
		runtime:     runtime,
		store:       store,
		locks:       newKeyLock(),
		log:         log,
	}
}

// Start stages files for (userID, projectID), launches a sandbox on them and
// returns its id. Nothing is recorded when any step fails.
func (m *Manager) Start(ctx context.Context, userID, projectID string, files []domain.File) (string, error) {
	const op = "sandbox.manager.start"
	log := m.log.With(
		slog.String("op", op),
		slog.String("project_id", projectID),
		slog.String("user_id", userID),
	)

	unlock := m.locks.Lock(projectID)
	defer unlock()

	if _, ok := m.store.Sandbox(projectID); ok {
		log.Info("replacing running sandbox")
		if err := m.stopLocked(ctx, projectID); err != nil {
			log.Warn("previous sandbox did not stop cleanly", sl.Err(err))
		}
	}

	m.store.SetState(projectID, userID, domain.SessionStateProvisioning)

	sandbox, err := m.launch(ctx, userID, projectID, files)
	if err != nil {
		m.store.SetState(projectID, "", domain.SessionStateNone)
		log.Error("failed to start sandbox", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	m.store.PutSandbox(projectID, userID, sandbox)
	log.Info("sandbox started",
		slog.String("container_id", sandbox.ID),
		slog.String("staging_dir", sandbox.StagingDir),
	)

	return sandbox.ID, nil
}

func (m *Manager) launch(ctx context.Context, userID, projectID string, files []domain.File) (domain.Sandbox, error) {
	dir, err := stagingDir(m.cfg.StagingRoot, userID, projectID)
	if err != nil {
		return domain.Sandbox{}, err
	}

	if err := stage(dir, files); err != nil {
		m.removeStaging(dir)
		return domain.Sandbox{}, err
	}

	name := m.containerName(projectID)
	spec := RunSpec{
		Name:  name,
		Image: m.cfg.Image,
		Env: map[string]string{
			EnvProjectID:    projectID,
			EnvSignalingURL: m.cfg.SignalingURL,
			EnvSTUNServers:  strings.Join(m.stunServers, ","),
		},
		Binds:      []Bind{{HostPath: dir, ContainerPath: m.cfg.MountPoint}},
		Privileged: m.cfg.Privileged,
		ExtraHosts: m.cfg.ExtraHosts,
	}

	id, err := m.runtime.Run(ctx, spec)
	if err != nil {
		m.removeStaging(dir)
		return domain.Sandbox{}, err
	}

	return domain.Sandbox{
		ID:         id,
		Name:       name,
		StagingDir: dir,
		StartedAt:  time.Now().UTC(),
	}, nil
}

func (m *Manager) removeStaging(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		m.log.Warn("failed to clean staging dir", slog.String("dir", dir), sl.Err(err))
	}
}

// Stop tears down the project's sandbox. It is a no-op when none is
// recorded; the record is dropped even when teardown fails.
func (m *Manager) Stop(ctx context.Context, projectID string) error {
	unlock := m.locks.Lock(projectID)
	defer unlock()

	return m.stopLocked(ctx, projectID)
}

func (m *Manager) stopLocked(ctx context.Context, projectID string) error {
	const op = "sandbox.manager.stop"
	log := m.log.With(
		slog.String("op", op),
		slog.String("project_id", projectID),
	)

	sandbox, ok := m.store.Sandbox(projectID)
	if !ok {
		return nil
	}

	m.store.SetState(projectID, "", domain.SessionStateStopping)
	defer m.store.RemoveSandbox(projectID)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.StopTimeout+teardownGrace)
	defer cancel()

	var errs []error
	if err := m.runtime.Stop(ctx, sandbox.ID, m.cfg.StopTimeout); err != nil && !isGone(err) {
		errs = append(errs, err)
	}
	if err := m.runtime.Remove(ctx, sandbox.ID); err != nil && !isGone(err) {
		errs = append(errs, err)
	}
	if sandbox.StagingDir != "" {
		if err := os.RemoveAll(sandbox.StagingDir); err != nil {
			errs = append(errs, fmt.Errorf("removing staging dir: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		log.Error("failed to stop sandbox", slog.String("container_id", sandbox.ID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("sandbox stopped and removed", slog.String("container_id", sandbox.ID))
	return nil
}

// StopAll stops every recorded sandbox, continuing past failures.
func (m *Manager) StopAll(ctx context.Context) error {
	var errs []error
	for _, projectID := range m.store.SandboxProjects() {
		if err := m.Stop(ctx, projectID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Manager) containerName(projectID string) string {
	var b strings.Builder
	b.WriteString(m.cfg.NamePrefix)
	for _, r := range projectID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}
