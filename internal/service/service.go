package service

import (
	"context"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

type SessionInteractor interface {
	StartSession(ctx context.Context, userID, projectID string) (string, error)
	StopSession(ctx context.Context, userID, projectID string) error
	GetSession(ctx context.Context, userID, projectID string) (*domain.SessionSnapshot, error)
}

type RelayInteractor interface {
	Connect(t domain.Transport)
	HandleMessage(ctx context.Context, t domain.Transport, raw []byte) error
	Disconnect(t domain.Transport)
}

// SandboxManager provisions and tears down one sandbox per project.
type SandboxManager interface {
	Start(ctx context.Context, userID, projectID string, files []domain.File) (string, error)
	Stop(ctx context.Context, projectID string) error
}

type SessionLookup interface {
	Get(projectID string) (domain.SessionSnapshot, bool)
}

type PeerRegistry interface {
	BindPeer(projectID string, role domain.Role, t domain.Transport) domain.Transport
	Counterpart(projectID string, sender domain.Transport) (domain.Transport, bool)
	UnbindTransport(t domain.Transport) []string
}
