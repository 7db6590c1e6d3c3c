package transport

import "github.com/dkeye/voiceroom/internal/domain"

// Event is one of the ten event kinds a Room delivers.
type Event interface {
	event()
}

type ConnectionStateChanged struct {
	State  domain.ConnectionState
	Reason domain.ConnectionReason
}

type RoomUserDataChanged struct {
	Data []byte
}

type Joined struct {
	RoomID     domain.RoomID
	CustomerID domain.CustomerID
	OwnPeerID  domain.PeerID
	OwnUserID  domain.UserID
	RoomData   []byte
}

type PeerJoined struct {
	PeerID   domain.PeerID
	UserID   domain.UserID
	UserData []byte
}

type PeerUserDataChanged struct {
	PeerID domain.PeerID
	Data   []byte
}

type PeerLeft struct {
	PeerID domain.PeerID
}

type MediaAdded struct {
	PeerID domain.PeerID
	Handle domain.MediaHandle
}

type MediaActiveStateChanged struct {
	PeerID domain.PeerID
	Handle domain.MediaHandle
	Active bool
}

type MediaRemoved struct {
	PeerID domain.PeerID
	Handle domain.MediaHandle
}

type MessageReceived struct {
	PeerID domain.PeerID
	Data   []byte
}

func (ConnectionStateChanged) event()  {}
func (RoomUserDataChanged) event()     {}
func (Joined) event()                  {}
func (PeerJoined) event()              {}
func (PeerUserDataChanged) event()     {}
func (PeerLeft) event()                {}
func (MediaAdded) event()              {}
func (MediaActiveStateChanged) event() {}
func (MediaRemoved) event()            {}
func (MessageReceived) event()         {}
