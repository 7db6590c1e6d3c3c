package core

import (
	"bytes"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/transport"
)

// pump delivers the events of one transport room until it is closed.
func (s *RoomSession) pump(room transport.Room) {
	events := room.Events()
	if events == nil {
		return
	}
	for ev := range events {
		s.dispatch(room, ev)
	}
	s.logger.Debug().Msg("event stream closed")
}

// dispatch applies ev and queues its notifications while holding
// dispatchMu, then delivers them with no session lock held, so a delegate
// may call Leave or Close.
func (s *RoomSession) dispatch(room transport.Room, ev transport.Event) {
	s.dispatchMu.Lock()
	if s.currentRoom() != room {
		s.dispatchMu.Unlock()
		s.logger.Debug().Str("event", eventName(ev)).Msg("dropping event of a replaced room")
		return
	}
	s.enqueue(s.apply(ev)...)
	s.dispatchMu.Unlock()
	s.flush()
}

// HandleEvent applies ev as if the current transport room had delivered it.
func (s *RoomSession) HandleEvent(ev transport.Event) {
	s.dispatch(s.currentRoom(), ev)
}

// apply mutates the session for ev and returns the notifications to fire,
// in order. Events referring to unknown peers or medias are ignored.
func (s *RoomSession) apply(ev transport.Event) []Notification {
	switch e := ev.(type) {
	case transport.ConnectionStateChanged:
		return s.onConnectionStateChanged(e)
	case transport.RoomUserDataChanged:
		s.mu.Lock()
		s.userData = bytes.Clone(e.Data)
		s.mu.Unlock()
		return []Notification{RoomUserDataChanged{Data: bytes.Clone(e.Data)}}
	case transport.Joined:
		return s.onJoined(e)
	case transport.PeerJoined:
		return s.onPeerJoined(e)
	case transport.PeerUserDataChanged:
		p, ok := s.Peer(e.PeerID)
		if !ok {
			return nil
		}
		p.setUserData(e.Data)
		return []Notification{PeerUserDataChanged{Peer: p}}
	case transport.PeerLeft:
		return s.onPeerLeft(e)
	case transport.MediaAdded:
		return s.onMediaAdded(e)
	case transport.MediaActiveStateChanged:
		p, ok := s.Peer(e.PeerID)
		if !ok {
			return nil
		}
		m, ok := p.Media(e.Handle)
		if !ok {
			return nil
		}
		m.setActive(e.Active)
		return []Notification{MediaActiveStateChanged{Peer: p, Media: m, Active: e.Active}}
	case transport.MediaRemoved:
		return s.onMediaRemoved(e)
	case transport.MessageReceived:
		return []Notification{MessageReceived{SenderID: e.PeerID, Data: bytes.Clone(e.Data)}}
	default:
		s.logger.Warn().Str("event", eventName(ev)).Msg("unknown event")
		return nil
	}
}

func (s *RoomSession) onConnectionStateChanged(e transport.ConnectionStateChanged) []Notification {
	s.mu.Lock()
	prev := s.state
	if e.State == domain.Disconnected {
		s.resetLocked()
	} else {
		s.state = e.State
	}
	s.mu.Unlock()

	switch {
	case e.State == domain.Connected && prev != domain.Connected:
		s.attachRoom()
	case e.State == domain.Disconnected:
		s.detachRoom()
	}
	s.logger.Info().
		Str("from", prev.String()).
		Str("to", e.State.String()).
		Str("reason", e.Reason.String()).
		Msg("connection state changed")
	out := []Notification{ConnectionStateChanged{State: e.State, Reason: e.Reason}}

	if e.State == domain.Connected {
		s.mu.Lock()
		held := s.joined
		s.joined = nil
		s.mu.Unlock()
		if held != nil {
			out = append(out, s.onJoined(*held)...)
		}
	}
	return out
}

// onJoined inserts the own peer. A Joined that arrives before Connected is
// held until the connection is up, so the own peer is only ever listed
// while connected.
func (s *RoomSession) onJoined(e transport.Joined) []Notification {
	s.mu.Lock()
	if s.state != domain.Connected {
		s.joined = &e
		s.mu.Unlock()
		s.logger.Debug().Uint64("own_peer_id", uint64(e.OwnPeerID)).Msg("joined before connected, holding")
		return nil
	}
	if e.RoomID != "" {
		s.roomID = e.RoomID
	}
	s.customerID = e.CustomerID
	s.userData = bytes.Clone(e.RoomData)
	s.ownPeer.setIdentity(e.OwnPeerID, e.OwnUserID)
	s.peers[e.OwnPeerID] = s.ownPeer
	roomID := s.roomID
	s.mu.Unlock()

	s.logger.Info().Str("room", string(roomID)).Uint64("own_peer_id", uint64(e.OwnPeerID)).Msg("joined")
	return []Notification{
		PeerJoined{Peer: s.ownPeer},
		RoomJoined{RoomID: roomID, OwnPeer: s.ownPeer},
	}
}

func (s *RoomSession) onPeerJoined(e transport.PeerJoined) []Notification {
	s.mu.Lock()
	if _, ok := s.peers[e.PeerID]; ok {
		s.mu.Unlock()
		return nil
	}
	p := newPeer(e.PeerID, e.UserID, e.UserData)
	s.peers[e.PeerID] = p
	s.mu.Unlock()
	return []Notification{PeerJoined{Peer: p}}
}

func (s *RoomSession) onPeerLeft(e transport.PeerLeft) []Notification {
	s.mu.Lock()
	p, ok := s.peers[e.PeerID]
	if !ok || p == s.ownPeer {
		s.mu.Unlock()
		return nil
	}
	delete(s.peers, e.PeerID)
	orphans := p.takeMedias()
	for _, m := range orphans {
		delete(s.medias, m.handle)
	}
	s.publishRemoteLocked()
	s.mu.Unlock()

	for _, m := range orphans {
		m.invalidate()
	}
	return []Notification{PeerLeft{Peer: p}}
}

func (s *RoomSession) onMediaAdded(e transport.MediaAdded) []Notification {
	s.mu.Lock()
	p, ok := s.peers[e.PeerID]
	if !ok || p == s.ownPeer || !e.Handle.Valid() {
		s.mu.Unlock()
		return nil
	}
	if _, exists := s.medias[e.Handle]; exists {
		s.mu.Unlock()
		return nil
	}
	m := newMediaStream(e.Handle, domain.MediaTypeAudio, true, p, s.room)
	s.medias[e.Handle] = m
	p.addMedia(m)
	s.publishRemoteLocked()
	s.mu.Unlock()

	if s.autopilot == domain.AutopilotMedia && s.graph != nil {
		if err := m.Connect(s.graph); err != nil {
			s.logger.Warn().Err(err).Uint32("handle", uint32(e.Handle)).Msg("autopilot connect failed")
		}
	}
	return []Notification{MediaAdded{Peer: p, Media: m}}
}

func (s *RoomSession) onMediaRemoved(e transport.MediaRemoved) []Notification {
	s.mu.Lock()
	p, ok := s.peers[e.PeerID]
	if !ok {
		s.mu.Unlock()
		return nil
	}
	m, ok := p.Media(e.Handle)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	p.removeMedia(e.Handle)
	delete(s.medias, e.Handle)
	s.publishRemoteLocked()
	s.mu.Unlock()

	m.invalidate()
	return []Notification{MediaRemoved{Peer: p, Media: m}}
}

func eventName(ev transport.Event) string {
	switch ev.(type) {
	case transport.ConnectionStateChanged:
		return "connection_state_changed"
	case transport.RoomUserDataChanged:
		return "room_user_data_changed"
	case transport.Joined:
		return "joined"
	case transport.PeerJoined:
		return "peer_joined"
	case transport.PeerUserDataChanged:
		return "peer_user_data_changed"
	case transport.PeerLeft:
		return "peer_left"
	case transport.MediaAdded:
		return "media_added"
	case transport.MediaActiveStateChanged:
		return "media_active_state_changed"
	case transport.MediaRemoved:
		return "media_removed"
	case transport.MessageReceived:
		return "message_received"
	default:
		return "unknown"
	}
}
