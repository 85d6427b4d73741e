package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pion/webrtc/v3"
)

var (
	ErrInvalidSignal     = errors.New("invalid signal message")
	ErrUnknownSignalType = errors.New("unknown signal type")
)

type SignalType string

const (
	SignalTypeJoin      SignalType = "join"
	SignalTypeJoined    SignalType = "joined"
	SignalTypeOffer     SignalType = "offer"
	SignalTypeAnswer    SignalType = "answer"
	SignalTypeCandidate SignalType = "candidate"
)

// Signal is one negotiation message exchanged through the relay.
// The concrete variants are Join, Joined, Offer, Answer and Candidate.
type Signal interface {
	SignalType() SignalType
	Session() string
}

type Join struct {
	Role      Role
	ProjectID string
}

// Joined acknowledges a join to the joining transport. It is never routed.
type Joined struct {
	Role      Role
	ProjectID string
}

type Offer struct {
	SDP       string
	ProjectID string
}

type Answer struct {
	SDP       string
	ProjectID string
}

type Candidate struct {
	Candidate webrtc.ICECandidateInit
	ProjectID string
}

func (m Join) SignalType() SignalType      { return SignalTypeJoin }
func (m Joined) SignalType() SignalType    { return SignalTypeJoined }
func (m Offer) SignalType() SignalType     { return SignalTypeOffer }
func (m Answer) SignalType() SignalType    { return SignalTypeAnswer }
func (m Candidate) SignalType() SignalType { return SignalTypeCandidate }

func (m Join) Session() string      { return m.ProjectID }
func (m Joined) Session() string    { return m.ProjectID }
func (m Offer) Session() string     { return m.ProjectID }
func (m Answer) Session() string    { return m.ProjectID }
func (m Candidate) Session() string { return m.ProjectID }

// signalEnvelope is the JSON shape of every negotiation message on the wire.
type signalEnvelope struct {
	Type      SignalType               `json:"type"`
	Role      Role                     `json:"role,omitempty"`
	ProjectID string                   `json:"projectId"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}

// ParseSignal decodes raw into its variant. Unknown types yield
// ErrUnknownSignalType, structurally incomplete messages ErrInvalidSignal.
func ParseSignal(raw []byte) (Signal, error) {
	var env signalEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
	}

	if env.ProjectID == "" {
		return nil, fmt.Errorf("%w: projectId is required", ErrInvalidSignal)
	}

	switch env.Type {
	case SignalTypeJoin:
		if !env.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidSignal, env.Role)
		}
		return Join{Role: env.Role, ProjectID: env.ProjectID}, nil
	case SignalTypeJoined:
		return Joined{Role: env.Role, ProjectID: env.ProjectID}, nil
	case SignalTypeOffer:
		return Offer{SDP: env.SDP, ProjectID: env.ProjectID}, nil
	case SignalTypeAnswer:
		return Answer{SDP: env.SDP, ProjectID: env.ProjectID}, nil
	case SignalTypeCandidate:
		if env.Candidate == nil {
			return nil, fmt.Errorf("%w: candidate is required", ErrInvalidSignal)
		}
		return Candidate{Candidate: *env.Candidate, ProjectID: env.ProjectID}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSignalType, env.Type)
	}
}

// EncodeSignal renders a variant in its wire form.
func EncodeSignal(s Signal) ([]byte, error) {
	env := signalEnvelope{
		Type:      s.SignalType(),
		ProjectID: s.Session(),
	}

	switch m := s.(type) {
	case Join:
		env.Role = m.Role
	case Joined:
		env.Role = m.Role
	case Offer:
		env.SDP = m.SDP
	case Answer:
		env.SDP = m.SDP
	case Candidate:
		c := m.Candidate
		env.Candidate = &c
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownSignalType, s)
	}

	return json.Marshal(env)
}

// Route holds the addressing fields of a negotiation message. Payload
// fields such as sdp and candidate are never decoded.
type Route struct {
	Type      SignalType
	Role      Role
	ProjectID string
}

type routeEnvelope struct {
	Type      SignalType      `json:"type"`
	Role      json.RawMessage `json:"role"`
	ProjectID string          `json:"projectId"`
}

// ParseRoute reads only type, projectId and, for joins, role. Unknown types
// yield ErrUnknownSignalType; a missing projectId or an invalid join role
// ErrInvalidSignal.
func ParseRoute(raw []byte) (Route, error) {
	var env routeEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Route{}, fmt.Errorf("%w: %v", ErrInvalidSignal, err)
	}

	if env.ProjectID == "" {
		return Route{}, fmt.Errorf("%w: projectId is required", ErrInvalidSignal)
	}

	route := Route{Type: env.Type, ProjectID: env.ProjectID}

	switch env.Type {
	case SignalTypeJoin:
		if err := json.Unmarshal(env.Role, &route.Role); err != nil || !route.Role.Valid() {
			return Route{}, fmt.Errorf("%w: unknown role %s", ErrInvalidSignal, env.Role)
		}
	case SignalTypeOffer, SignalTypeAnswer, SignalTypeCandidate:
	default:
		return Route{}, fmt.Errorf("%w: %q", ErrUnknownSignalType, env.Type)
	}

	return route, nil
}
