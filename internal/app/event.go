package app

import (
	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
)

// Event is the wire form of a session notification.
type Event struct {
	Type    string             `json:"type"`
	Session SessionID          `json:"session,omitempty"`
	State   string             `json:"state,omitempty"`
	Reason  string             `json:"reason,omitempty"`
	RoomID  domain.RoomID      `json:"room_id,omitempty"`
	PeerID  domain.PeerID      `json:"peer_id,omitempty"`
	UserID  domain.UserID      `json:"user_id,omitempty"`
	Media   domain.MediaHandle `json:"media,omitempty"`
	Remote  bool               `json:"remote,omitempty"`
	Active  *bool              `json:"active,omitempty"`
	Data    []byte             `json:"data,omitempty"`
}

const (
	EventConnectionState = "connection_state"
	EventRoomJoined      = "room_joined"
	EventRoomUserData    = "room_user_data"
	EventPeerJoined      = "peer_joined"
	EventPeerUserData    = "peer_user_data"
	EventPeerLeft        = "peer_left"
	EventMediaAdded      = "media_added"
	EventMediaActive     = "media_active"
	EventMediaRemoved    = "media_removed"
	EventMessage         = "message"
)

func peerEvent(typ string, p *core.Peer) Event {
	ev := Event{Type: typ}
	if p != nil {
		ev.PeerID = p.ID()
		ev.UserID = p.UserID()
		ev.Data = p.UserData()
	}
	return ev
}

func mediaEvent(typ string, p *core.Peer, m *core.MediaStream) Event {
	ev := Event{Type: typ}
	if p != nil {
		ev.PeerID = p.ID()
	}
	if m != nil {
		ev.Media = m.Handle()
		ev.Remote = m.IsRemote()
	}
	return ev
}

// EventOf converts n. It reads the peers and streams n refers to, so it
// must run while the notification is delivered.
func EventOf(n core.Notification) Event {
	switch n := n.(type) {
	case core.ConnectionStateChanged:
		return Event{Type: EventConnectionState, State: n.State.String(), Reason: n.Reason.String()}
	case core.RoomJoined:
		ev := peerEvent(EventRoomJoined, n.OwnPeer)
		ev.RoomID = n.RoomID
		return ev
	case core.RoomUserDataChanged:
		return Event{Type: EventRoomUserData, Data: n.Data}
	case core.PeerJoined:
		return peerEvent(EventPeerJoined, n.Peer)
	case core.PeerUserDataChanged:
		return peerEvent(EventPeerUserData, n.Peer)
	case core.PeerLeft:
		ev := peerEvent(EventPeerLeft, n.Peer)
		ev.Data = nil
		return ev
	case core.MediaAdded:
		return mediaEvent(EventMediaAdded, n.Peer, n.Media)
	case core.MediaActiveStateChanged:
		ev := mediaEvent(EventMediaActive, n.Peer, n.Media)
		active := n.Active
		ev.Active = &active
		return ev
	case core.MediaRemoved:
		return mediaEvent(EventMediaRemoved, n.Peer, n.Media)
	case core.MessageReceived:
		return Event{Type: EventMessage, PeerID: n.SenderID, Data: n.Data}
	default:
		return Event{Type: "unknown"}
	}
}
