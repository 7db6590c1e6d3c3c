package domain

import (
	"fmt"
	"strings"
)

type ConnectionState uint8

const (
	Disconnected ConnectionState = iota
	Connecting
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return fmt.Sprintf("illegal-connection-state-%d", s)
	}
}

// ConnectionReason is carried by connection-state-changed events.
type ConnectionReason uint8

const (
	ReasonClientRequested ConnectionReason = iota
	ReasonServerRequested
	ReasonConnectionLost
)

func (r ConnectionReason) String() string {
	switch r {
	case ReasonClientRequested:
		return "client_requested"
	case ReasonServerRequested:
		return "server_requested"
	case ReasonConnectionLost:
		return "connection_lost"
	default:
		return fmt.Sprintf("illegal-connection-reason-%d", r)
	}
}

// AutopilotMode controls how remote media is wired into the local mix.
type AutopilotMode uint8

const (
	AutopilotOff AutopilotMode = iota
	AutopilotRoom
	AutopilotMedia
)

func (m *AutopilotMode) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "off", "", "none":
		*m = AutopilotOff
	case "room":
		*m = AutopilotRoom
	case "media":
		*m = AutopilotMedia
	default:
		return fmt.Errorf("illegal-autopilot-mode: %s", plain)
	}
	return nil
}

func (m AutopilotMode) String() string {
	switch m {
	case AutopilotOff:
		return "off"
	case AutopilotRoom:
		return "room"
	case AutopilotMedia:
		return "media"
	default:
		return fmt.Sprintf("illegal-autopilot-mode-%d", m)
	}
}

func (m AutopilotMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *AutopilotMode) UnmarshalText(text []byte) error { return m.Set(string(text)) }

// UserDataTarget selects which user data blob an update applies to.
type UserDataTarget uint8

const (
	TargetPeer UserDataTarget = iota
	TargetRoom
)

func (t *UserDataTarget) Set(plain string) error {
	switch strings.TrimSpace(strings.ToLower(plain)) {
	case "peer", "":
		*t = TargetPeer
	case "room":
		*t = TargetRoom
	default:
		return fmt.Errorf("illegal-user-data-target: %s", plain)
	}
	return nil
}

func (t UserDataTarget) String() string {
	if t == TargetRoom {
		return "room"
	}
	return "peer"
}

func (t UserDataTarget) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *UserDataTarget) UnmarshalText(text []byte) error { return t.Set(string(text)) }
