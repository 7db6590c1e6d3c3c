package core

import "github.com/dkeye/voiceroom/internal/domain"

// Notification is the closed set of observable session changes.
type Notification interface {
	notification()
}

type ConnectionStateChanged struct {
	State  domain.ConnectionState
	Reason domain.ConnectionReason
}

type RoomJoined struct {
	RoomID  domain.RoomID
	OwnPeer *Peer
}

type RoomUserDataChanged struct {
	Data []byte
}

type PeerJoined struct {
	Peer *Peer
}

type PeerUserDataChanged struct {
	Peer *Peer
}

type PeerLeft struct {
	Peer *Peer
}

type MediaAdded struct {
	Peer  *Peer
	Media *MediaStream
}

type MediaActiveStateChanged struct {
	Peer   *Peer
	Media  *MediaStream
	Active bool
}

type MediaRemoved struct {
	Peer  *Peer
	Media *MediaStream
}

type MessageReceived struct {
	SenderID domain.PeerID
	Data     []byte
}

func (ConnectionStateChanged) notification()  {}
func (RoomJoined) notification()              {}
func (RoomUserDataChanged) notification()     {}
func (PeerJoined) notification()              {}
func (PeerUserDataChanged) notification()     {}
func (PeerLeft) notification()                {}
func (MediaAdded) notification()              {}
func (MediaActiveStateChanged) notification() {}
func (MediaRemoved) notification()            {}
func (MessageReceived) notification()         {}

// Delegate observes a session. The session never closes or otherwise owns
// its delegate; detach it with SetDelegate(nil) before dropping it.
// Notify runs with no session lock held and may call any session method,
// Leave and Close included. Notifications caused from inside Notify are
// delivered after it returns.
type Delegate interface {
	Notify(s *RoomSession, n Notification)
}

type DelegateFunc func(s *RoomSession, n Notification)

func (f DelegateFunc) Notify(s *RoomSession, n Notification) { f(s, n) }
