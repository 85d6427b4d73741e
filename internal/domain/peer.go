package domain

type Role string

const (
	RoleBrowser Role = "browser"
	RoleBridge  Role = "bridge"
)

func (r Role) Valid() bool {
	return r == RoleBrowser || r == RoleBridge
}

// Other returns the counterpart role.
func (r Role) Other() Role {
	if r == RoleBrowser {
		return RoleBridge
	}
	return RoleBrowser
}

// Transport is a live message-oriented connection to one peer. The relay
// routes through it but never owns the underlying socket.
type Transport interface {
	ID() string
	// Send queues raw for delivery. It must not block on the network.
	Send(raw []byte) error
	// Ready reports whether the transport is open and accepting messages.
	Ready() bool
}

// PeerSlots binds each role of a session to at most one transport.
type PeerSlots map[Role]Transport

// RoleOf returns the role t is bound to, if any. Identity comparison.
func (p PeerSlots) RoleOf(t Transport) (Role, bool) {
	for role, bound := range p {
		if bound == t {
			return role, true
		}
	}
	return "", false
}
