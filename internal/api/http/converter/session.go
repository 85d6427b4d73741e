package converter

import (
	"time"

	"github.com/immxrtalbeast/rnplay/internal/domain"
)

type SessionResponse struct {
	ProjectID string              `json:"project_id"`
	State     domain.SessionState `json:"state"`
	SandboxID string              `json:"sandbox_id,omitempty"`
	Peers     []domain.Role       `json:"peers"`
	StartedAt *time.Time          `json:"started_at,omitempty"`
}

func SessionToApi(s *domain.SessionSnapshot) *SessionResponse {
	peers := make([]domain.Role, 0, len(s.Peers))
	peers = append(peers, s.Peers...)

	resp := &SessionResponse{
		ProjectID: s.ProjectID,
		State:     s.State,
		SandboxID: s.SandboxID,
		Peers:     peers,
	}
	if !s.StartedAt.IsZero() {
		startedAt := s.StartedAt
		resp.StartedAt = &startedAt
	}
	return resp
}
