package domain

import (
	"time"
)

type SessionState string

const (
	SessionStateNone         SessionState = "none"
	SessionStateProvisioning SessionState = "provisioning"
	SessionStateRunning      SessionState = "running"
	SessionStateStopping     SessionState = "stopping"
	SessionStateStopped      SessionState = "stopped"
)

// Sandbox is the handle of one running sandboxed runtime.
type Sandbox struct {
	ID         string
	Name       string
	StagingDir string
	StartedAt  time.Time
}

// Session is the live state of one project: its sandbox (if any) and the
// transports currently bound to the browser and bridge roles.
type Session struct {
	ProjectID string
	UserID    string
	State     SessionState
	Sandbox   *Sandbox
	Peers     PeerSlots
	UpdatedAt time.Time
}

func NewSession(projectID string) *Session {
	return &Session{
		ProjectID: projectID,
		State:     SessionStateNone,
		Peers:     make(PeerSlots, 2),
		UpdatedAt: time.Now().UTC(),
	}
}

// Idle reports whether the session holds no resources and can be forgotten.
func (s *Session) Idle() bool {
	return s.Sandbox == nil && len(s.Peers) == 0 &&
		(s.State == SessionStateNone || s.State == SessionStateStopped)
}

// SessionSnapshot is a copy of a Session safe to hand out of the store.
type SessionSnapshot struct {
	ProjectID string
	UserID    string
	State     SessionState
	SandboxID string
	StartedAt time.Time
	Peers     []Role
}

func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ProjectID: s.ProjectID,
		UserID:    s.UserID,
		State:     s.State,
	}
	if s.Sandbox != nil {
		snap.SandboxID = s.Sandbox.ID
		snap.StartedAt = s.Sandbox.StartedAt
	}
	for _, role := range []Role{RoleBrowser, RoleBridge} {
		if _, ok := s.Peers[role]; ok {
			snap.Peers = append(snap.Peers, role)
		}
	}
	return snap
}
