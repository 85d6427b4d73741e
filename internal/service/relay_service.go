package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/immxrtalbeast/rnplay/internal/domain"
	"github.com/immxrtalbeast/rnplay/lib/logger/sl"
)

// RelayService pairs the browser and bridge of each project and forwards
// negotiation messages between them without looking inside.
type RelayService struct {
	peers PeerRegistry
	log   *slog.Logger
}

func NewRelayService(peers PeerRegistry, log *slog.Logger) *RelayService {
	if log == nil {
		log = slog.Default()
	}
	return &RelayService{peers: peers, log: log}
}

func (s *RelayService) Connect(t domain.Transport) {
	s.log.Info("transport connected", slog.String("transport_id", t.ID()))
}

// HandleMessage processes one raw message from t. Only the addressing
// fields are read; everything else is forwarded as received. Parse failures
// are returned for logging; the caller keeps the connection open.
func (s *RelayService) HandleMessage(ctx context.Context, t domain.Transport, raw []byte) error {
	const op = "service.relay.message"
	log := s.log.With(
		slog.String("op", op),
		slog.String("transport_id", t.ID()),
	)

	route, err := domain.ParseRoute(raw)
	if err != nil {
		log.Warn("malformed signal", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(
		slog.String("type", string(route.Type)),
		slog.String("project_id", route.ProjectID),
	)

	if route.Type == domain.SignalTypeJoin {
		s.join(log, t, domain.Join{Role: route.Role, ProjectID: route.ProjectID})
		return nil
	}

	recipient, ok := s.peers.Counterpart(route.ProjectID, t)
	if !ok || recipient == t {
		log.Debug("no counterpart, dropping")
		return nil
	}
	if !recipient.Ready() {
		log.Debug("counterpart not ready, dropping", slog.String("recipient_id", recipient.ID()))
		return nil
	}

	if err := recipient.Send(raw); err != nil {
		log.Warn("failed to forward signal", slog.String("recipient_id", recipient.ID()), sl.Err(err))
		return nil
	}

	log.Debug("signal forwarded", slog.String("recipient_id", recipient.ID()))
	return nil
}

func (s *RelayService) join(log *slog.Logger, t domain.Transport, join domain.Join) {
	previous := s.peers.BindPeer(join.ProjectID, join.Role, t)
	if previous != nil {
		log.Info("replaced stale peer",
			slog.String("role", string(join.Role)),
			slog.String("previous_id", previous.ID()),
		)
	}
	log.Info("peer joined", slog.String("role", string(join.Role)))

	ack, err := domain.EncodeSignal(domain.Joined{Role: join.Role, ProjectID: join.ProjectID})
	if err != nil {
		log.Error("failed to encode join ack", sl.Err(err))
		return
	}
	if err := t.Send(ack); err != nil {
		log.Debug("failed to send join ack", sl.Err(err))
	}
}

// Disconnect clears every slot still bound to t.
func (s *RelayService) Disconnect(t domain.Transport) {
	projects := s.peers.UnbindTransport(t)
	s.log.Info("transport disconnected",
		slog.String("transport_id", t.ID()),
		slog.Any("projects", projects),
	)
}
