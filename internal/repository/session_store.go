package repository

import (
	"sort"
	"sync"
	"time"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

// SessionStore is the process-local registry of live sessions keyed by
// project id. The relay owns the peer slots, the lifecycle manager owns the
// sandbox handle; both go through the store's single mutex.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

// getOrCreate must be called with mu held.
func (s *SessionStore) getOrCreate(projectID string) *domain.Session {
	session, ok := s.sessions[projectID]
	if !ok {
		session = domain.NewSession(projectID)
		s.sessions[projectID] = session
	}
	return session
}

// pruneLocked forgets a session that no longer holds anything.
func (s *SessionStore) pruneLocked(session *domain.Session) {
	if session.Idle() {
		delete(s.sessions, session.ProjectID)
	}
}

// BindPeer binds t to role in the project's session, creating the session
// if needed. A transport already bound to that role is replaced and returned.
func (s *SessionStore) BindPeer(projectID string, role domain.Role, t domain.Transport) domain.Transport {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(projectID)
	previous := session.Peers[role]
	session.Peers[role] = t
	session.UpdatedAt = time.Now().UTC()

	if previous == t {
		return nil
	}
	return previous
}

// Counterpart returns the transport bound to the role opposite to sender.
// ok is false when the session is unknown, sender is not bound in it, or
// the other role is empty.
func (s *SessionStore) Counterpart(projectID string, sender domain.Transport) (domain.Transport, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[projectID]
	if !ok {
		return nil, false
	}

	role, ok := session.Peers.RoleOf(sender)
	if !ok {
		return nil, false
	}

	recipient, ok := session.Peers[role.Other()]
	return recipient, ok
}

// UnbindTransport clears every slot that references t and returns the
// affected project ids.
func (s *SessionStore) UnbindTransport(t domain.Transport) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var affected []string
	for projectID, session := range s.sessions {
		cleared := false
		for role, bound := range session.Peers {
			if bound == t {
				delete(session.Peers, role)
				cleared = true
			}
		}
		if cleared {
			session.UpdatedAt = time.Now().UTC()
			affected = append(affected, projectID)
			s.pruneLocked(session)
		}
	}

	sort.Strings(affected)
	return affected
}

func (s *SessionStore) Get(projectID string) (domain.SessionSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[projectID]
	if !ok {
		return domain.SessionSnapshot{}, false
	}
	return session.Snapshot(), true
}

func (s *SessionStore) Sandbox(projectID string) (domain.Sandbox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[projectID]
	if !ok || session.Sandbox == nil {
		return domain.Sandbox{}, false
	}
	return *session.Sandbox, true
}

// SetState moves the project's session to state, creating it if needed.
func (s *SessionStore) SetState(projectID, userID string, state domain.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(projectID)
	if userID != "" {
		session.UserID = userID
	}
	session.State = state
	session.UpdatedAt = time.Now().UTC()
	s.pruneLocked(session)
}

// PutSandbox records a running sandbox for the project.
func (s *SessionStore) PutSandbox(projectID, userID string, sandbox domain.Sandbox) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.getOrCreate(projectID)
	session.UserID = userID
	session.Sandbox = &sandbox
	session.State = domain.SessionStateRunning
	session.UpdatedAt = time.Now().UTC()
}

// RemoveSandbox drops the sandbox record and marks the session stopped.
func (s *SessionStore) RemoveSandbox(projectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[projectID]
	if !ok {
		return
	}
	session.Sandbox = nil
	session.State = domain.SessionStateStopped
	session.UpdatedAt = time.Now().UTC()
	s.pruneLocked(session)
}

// SandboxProjects lists projects that currently have a sandbox recorded.
func (s *SessionStore) SandboxProjects() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := make([]string, 0, len(s.sessions))
	for projectID, session := range s.sessions {
		if session.Sandbox != nil {
			projects = append(projects, projectID)
		}
	}
	sort.Strings(projects)
	return projects
}
