package core

import (
	"encoding/base64"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/transport"
	"github.com/dkeye/voiceroom/internal/transport/transportmock"
)

func testToken(uid, rid string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"EdDSA"}`)) + "." +
		enc.EncodeToString([]byte(`{"uid":"`+uid+`","rid":"`+rid+`"}`)) + ".c2ln"
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(_ *RoomSession, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) all() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = nil
}

type fakeGraph struct {
	mu           sync.Mutex
	attached     []MixSource
	detached     int
	connected    []*MediaStream
	disconnected []*MediaStream
}

func (g *fakeGraph) AttachRoom(src MixSource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.attached = append(g.attached, src)
}

func (g *fakeGraph) DetachRoom(MixSource) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detached++
}

func (g *fakeGraph) ConnectMedia(m *MediaStream) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.connected = append(g.connected, m)
	return nil
}

func (g *fakeGraph) DisconnectMedia(m *MediaStream) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.disconnected = append(g.disconnected, m)
}

type harness struct {
	t       *testing.T
	ctrl    *gomock.Controller
	mu      sync.Mutex
	rooms   []*transportmock.MockRoom
	events  []chan transport.Event
	session *RoomSession
	notes   *recorder
	graph   *fakeGraph
}

func newHarness(t *testing.T, autopilot domain.AutopilotMode) *harness {
	t.Helper()
	h := &harness{t: t, ctrl: gomock.NewController(t), notes: &recorder{}, graph: &fakeGraph{}}

	factory := transportmock.NewMockFactory(h.ctrl)
	factory.EXPECT().NewRoom(gomock.Any()).DoAndReturn(func(domain.APMConfig) (transport.Room, error) {
		return h.newRoom(), nil
	}).AnyTimes()

	s, err := NewRoomSession(factory, Options{
		Autopilot: autopilot,
		Graph:     h.graph,
		Delegate:  h.notes,
	})
	require.NoError(t, err)
	h.session = s
	t.Cleanup(func() { _ = s.Close() })
	return h
}

func (h *harness) newRoom() *transportmock.MockRoom {
	room := transportmock.NewMockRoom(h.ctrl)
	ch := make(chan transport.Event, 16)
	var recv <-chan transport.Event = ch
	var once sync.Once
	room.EXPECT().Events().Return(recv).AnyTimes()
	room.EXPECT().Close().DoAndReturn(func() error {
		once.Do(func() { close(ch) })
		return nil
	}).AnyTimes()

	h.mu.Lock()
	h.rooms = append(h.rooms, room)
	h.events = append(h.events, ch)
	h.mu.Unlock()
	return room
}

// room is the transport room currently used by the session.
func (h *harness) room() *transportmock.MockRoom {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.rooms[len(h.rooms)-1]
}

func (h *harness) join(ownID domain.PeerID) {
	h.t.Helper()
	h.room().EXPECT().Join(gomock.Any(), gomock.Any()).Return(nil)
	_, err := h.session.Join(h.t.Context(), testToken("alice", "room42"))
	require.NoError(h.t, err)
	h.session.HandleEvent(transport.ConnectionStateChanged{State: domain.Connecting})
	h.session.HandleEvent(transport.ConnectionStateChanged{State: domain.Connected})
	h.session.HandleEvent(transport.Joined{RoomID: "room42", OwnPeerID: ownID, OwnUserID: "alice"})
}

func (h *harness) addLocalMedia(handle domain.MediaHandle) *MediaStream {
	h.t.Helper()
	room := h.room()
	room.EXPECT().CreateAudioStream(gomock.Any()).Return(handle)
	room.EXPECT().AddMedia(handle).Return(nil)
	m, err := h.session.AddMedia(transport.DefaultAudioStreamConfig())
	require.NoError(h.t, err)
	return m
}
