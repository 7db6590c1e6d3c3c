package http

import (
	"cmp"
	"slices"
	"time"

	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/transport"
)

type MediaView struct {
	Handle    domain.MediaHandle `json:"handle"`
	Remote    bool               `json:"remote"`
	Active    bool               `json:"active"`
	Connected bool               `json:"connected"`
}

type PeerView struct {
	ID       domain.PeerID `json:"id"`
	UserID   domain.UserID `json:"user_id"`
	UserData []byte        `json:"user_data,omitempty"`
	Medias   []MediaView   `json:"medias"`
}

type SessionView struct {
	ID         app.SessionID        `json:"id"`
	Created    time.Time            `json:"created"`
	Gateway    string               `json:"gateway"`
	Autopilot  domain.AutopilotMode `json:"autopilot"`
	State      string               `json:"state"`
	RoomID     domain.RoomID        `json:"room_id,omitempty"`
	CustomerID domain.CustomerID    `json:"customer_id,omitempty"`
	UserData   []byte               `json:"user_data,omitempty"`
	APM        domain.APMConfig     `json:"apm"`
	OwnPeer    PeerView             `json:"own_peer"`
	Peers      []PeerView           `json:"peers"`
}

type StatsView struct {
	Handle domain.MediaHandle   `json:"handle"`
	Stats  transport.MediaStats `json:"stats"`
}

func mediaView(m *core.MediaStream) MediaView {
	return MediaView{
		Handle:    m.Handle(),
		Remote:    m.IsRemote(),
		Active:    m.Active(),
		Connected: m.Connected(),
	}
}

func peerView(p *core.Peer) PeerView {
	v := PeerView{
		ID:       p.ID(),
		UserID:   p.UserID(),
		UserData: p.UserData(),
		Medias:   []MediaView{},
	}
	for _, m := range p.Medias() {
		v.Medias = append(v.Medias, mediaView(m))
	}
	slices.SortFunc(v.Medias, func(a, b MediaView) int { return cmp.Compare(a.Handle, b.Handle) })
	return v
}

func sessionView(e *app.Entry) SessionView {
	s := e.Session
	v := SessionView{
		ID:         e.ID,
		Created:    e.Created,
		Gateway:    s.Gateway(),
		Autopilot:  s.Autopilot(),
		State:      s.State().String(),
		RoomID:     s.RoomID(),
		CustomerID: s.CustomerID(),
		UserData:   s.UserData(),
		APM:        s.AudioConfig(),
		OwnPeer:    peerView(s.OwnPeer()),
		Peers:      []PeerView{},
	}
	for _, p := range s.Peers() {
		v.Peers = append(v.Peers, peerView(p))
	}
	slices.SortFunc(v.Peers, func(a, b PeerView) int { return cmp.Compare(a.ID, b.ID) })
	return v
}
