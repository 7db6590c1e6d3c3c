package gateway

import (
	"github.com/goccy/go-json"

	"github.com/dkeye/voiceroom/internal/domain"
)

// Message types sent by the client.
const (
	msgJoin             = "join"
	msgUpdatePeerData   = "update_peer"
	msgUpdateRoomData   = "update_room"
	msgUpdatePosition   = "update_position"
	msgSetPositionScale = "set_position_scale"
	msgSendMessage      = "send_message"
	msgAddMedia         = "add_media"
	msgRemoveMedia      = "remove_media"
	msgOffer            = "offer"
	msgLeave            = "leave"
)

// Message types sent by the gateway.
const (
	msgResponse     = "response"
	msgJoined       = "joined"
	msgRoomUserData = "room_user_data"
	msgPeerJoined   = "peer_joined"
	msgPeerUserData = "peer_user_data"
	msgPeerLeft     = "peer_left"
	msgMediaAdded   = "media_added"
	msgMediaRemoved = "media_removed"
	msgMediaActive  = "media_active"
	msgMessage      = "message"
	msgAnswer       = "answer"
	msgClosed       = "closed"
)

// msgCandidate travels both ways.
const msgCandidate = "candidate"

// envelope frames every message on the signalling socket.
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Status  uint32          `json:"status,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type position struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type joinPayload struct {
	Token         string        `json:"token"`
	RoomID        domain.RoomID `json:"room_id"`
	UserData      []byte        `json:"user_data,omitempty"`
	RoomData      []byte        `json:"room_data,omitempty"`
	Position      *position     `json:"position,omitempty"`
	PositionScale float32       `json:"position_scale,omitempty"`
}

type userDataPayload struct {
	PeerID domain.PeerID `json:"peer_id,omitempty"`
	Data   []byte        `json:"data"`
}

type scalePayload struct {
	Scale float32 `json:"scale"`
}

type messagePayload struct {
	PeerID  domain.PeerID   `json:"peer_id,omitempty"`
	Targets []domain.PeerID `json:"targets,omitempty"`
	Data    []byte          `json:"data"`
}

type mediaPayload struct {
	PeerID     domain.PeerID `json:"peer_id,omitempty"`
	MediaID    uint32        `json:"media_id"`
	SampleRate uint32        `json:"sample_rate,omitempty"`
	Channels   uint8         `json:"channels,omitempty"`
	Active     bool          `json:"active,omitempty"`
}

type joinedPayload struct {
	RoomID     domain.RoomID     `json:"room_id"`
	CustomerID domain.CustomerID `json:"customer_id"`
	OwnPeerID  domain.PeerID     `json:"own_peer_id"`
	OwnUserID  domain.UserID     `json:"own_user_id"`
	RoomData   []byte            `json:"room_data,omitempty"`
}

type peerPayload struct {
	PeerID   domain.PeerID `json:"peer_id"`
	UserID   domain.UserID `json:"user_id,omitempty"`
	UserData []byte        `json:"user_data,omitempty"`
}

type sdpPayload struct {
	SDP string `json:"sdp"`
}

type candidatePayload struct {
	Candidate     string `json:"candidate"`
	SDPMid        string `json:"sdpMid,omitempty"`
	SDPMLineIndex uint16 `json:"sdpMLineIndex,omitempty"`
}

type closedPayload struct {
	Reason string `json:"reason,omitempty"`
}

func encode(typ, id string, payload any) ([]byte, error) {
	env := envelope{Type: typ, ID: id}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}
