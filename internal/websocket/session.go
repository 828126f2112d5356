package websocket

import (
	"github.com/PI304/PinTalk-API/internal/entity"
)

// UserType separates the two sides of a room: the registered host and the
// anonymous guest.
type UserType int

const (
	GuestUser UserType = iota
	HostUser
)

func (t UserType) String() string {
	if t == HostUser {
		return "host"
	}
	return "guest"
}

// Audience is the server-enforced recipient tag for a broadcast. Clients
// never filter their own traffic.
type Audience int

const (
	ToAll Audience = iota
	ToHost
	ToGuest
)

// Session is resolved once during the handshake and never mutated after.
// Every handler receives it read-only through the client.
type Session struct {
	UserType  UserType
	Host      *entity.Host
	Room      *entity.Chatroom // nil on status sockets
	GroupKey  string
	RequestID string
}

func (s *Session) IsHost() bool {
	return s.UserType == HostUser
}

// wants reports whether a member with this session should receive a frame
// tagged for the given audience.
func (s *Session) wants(aud Audience) bool {
	switch aud {
	case ToHost:
		return s.UserType == HostUser
	case ToGuest:
		return s.UserType == GuestUser
	default:
		return true
	}
}
