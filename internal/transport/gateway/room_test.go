package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

type fakeGateway struct {
	srv   *httptest.Server
	conns chan *websocket.Conn
	paths chan string
}

func newFakeGateway(t *testing.T) *fakeGateway {
	t.Helper()
	g := &fakeGateway{
		conns: make(chan *websocket.Conn, 1),
		paths: make(chan string, 1),
	}
	upgrader := websocket.Upgrader{}
	g.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		g.paths <- r.URL.Path
		g.conns <- conn
	}))
	t.Cleanup(g.srv.Close)
	return g
}

func (g *fakeGateway) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-g.conns:
		t.Cleanup(func() { _ = conn.Close() })
		assert.Equal(t, signallingPath, <-g.paths)
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection")
		return nil
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, env envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func writeMessage(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	data, err := encode(typ, "", payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func nextEvent(t *testing.T, r *Room) transport.Event {
	t.Helper()
	select {
	case ev, ok := <-r.Events():
		require.True(t, ok, "events closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
		return nil
	}
}

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	r := NewRoom(Config{DisableMedia: true, RequestTimeout: 2 * time.Second}, domain.DefaultAPMConfig())
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// joinRoom runs a join against g that the gateway accepts, and consumes
// the Connecting event.
func joinRoom(t *testing.T, g *fakeGateway, r *Room) *websocket.Conn {
	t.Helper()
	errc := make(chan error, 1)
	go func() {
		errc <- r.Join(context.Background(), transport.JoinRequest{
			Gateway: g.srv.URL,
			Token:   "token",
			RoomID:  "room42",
		})
	}()
	conn := g.accept(t)
	env := readEnvelope(t, conn)
	require.Equal(t, msgJoin, env.Type)
	require.NotEmpty(t, env.ID)
	writeEnvelope(t, conn, envelope{Type: msgResponse, ID: env.ID})
	require.NoError(t, <-errc)

	assert.Equal(t, transport.ConnectionStateChanged{
		State:  domain.Connecting,
		Reason: domain.ReasonClientRequested,
	}, nextEvent(t, r))
	return conn
}

func TestSignallingURL(t *testing.T) {
	cases := map[string]string{
		"http://localhost:8080":        "ws://localhost:8080/v1/room",
		"https://gateway.example.com/": "wss://gateway.example.com/v1/room",
		"wss://gateway.example.com/x":  "wss://gateway.example.com/x",
	}
	for in, want := range cases {
		got, err := signallingURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, in := range []string{"ftp://gateway", "gateway", "://"} {
		_, err := signallingURL(in)
		assert.ErrorIs(t, err, result.ErrInvalidGateway, in)
	}
}

func TestRoom_JoinFlow(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)
	require.NoError(t, r.UpdateUserData(domain.TargetPeer, []byte("alice")))
	require.NoError(t, r.UpdatePosition(1, 2))

	errc := make(chan error, 1)
	go func() {
		errc <- r.Join(context.Background(), transport.JoinRequest{
			Gateway: g.srv.URL,
			Token:   "token",
			RoomID:  "room42",
		})
	}()
	conn := g.accept(t)

	env := readEnvelope(t, conn)
	require.Equal(t, msgJoin, env.Type)
	var jp joinPayload
	require.NoError(t, json.Unmarshal(env.Payload, &jp))
	assert.Equal(t, "token", jp.Token)
	assert.Equal(t, domain.RoomID("room42"), jp.RoomID)
	assert.Equal(t, []byte("alice"), jp.UserData)
	require.NotNil(t, jp.Position)
	assert.Equal(t, position{X: 1, Y: 2}, *jp.Position)

	writeEnvelope(t, conn, envelope{Type: msgResponse, ID: env.ID})
	require.NoError(t, <-errc)

	writeMessage(t, conn, msgJoined, joinedPayload{RoomID: "room42", CustomerID: "acme", OwnPeerID: 1, OwnUserID: "u1"})
	writeMessage(t, conn, msgPeerJoined, peerPayload{PeerID: 9, UserID: "u9", UserData: []byte("bob")})
	writeMessage(t, conn, msgMediaAdded, mediaPayload{PeerID: 9, MediaID: 3, SampleRate: 48000})
	writeMessage(t, conn, msgMediaActive, mediaPayload{PeerID: 9, MediaID: 3, Active: true})
	writeMessage(t, conn, msgMessage, messagePayload{PeerID: 9, Data: []byte("hi")})

	assert.Equal(t, transport.ConnectionStateChanged{State: domain.Connecting}, nextEvent(t, r))
	assert.Equal(t, transport.ConnectionStateChanged{State: domain.Connected}, nextEvent(t, r))
	assert.Equal(t, transport.Joined{RoomID: "room42", CustomerID: "acme", OwnPeerID: 1, OwnUserID: "u1"}, nextEvent(t, r))
	assert.Equal(t, transport.PeerJoined{PeerID: 9, UserID: "u9", UserData: []byte("bob")}, nextEvent(t, r))

	added, ok := nextEvent(t, r).(transport.MediaAdded)
	require.True(t, ok)
	assert.Equal(t, domain.PeerID(9), added.PeerID)
	assert.True(t, added.Handle.Valid())
	assert.Equal(t, transport.MediaActiveStateChanged{PeerID: 9, Handle: added.Handle, Active: true}, nextEvent(t, r))
	assert.Equal(t, transport.MessageReceived{PeerID: 9, Data: []byte("hi")}, nextEvent(t, r))

	peer, err := r.MediaPeerID(added.Handle)
	require.NoError(t, err)
	assert.Equal(t, domain.PeerID(9), peer)

	require.NoError(t, r.SendMessage([]byte("yo"), []domain.PeerID{9}))
	env = readEnvelope(t, conn)
	assert.Equal(t, msgSendMessage, env.Type)
	var mp messagePayload
	require.NoError(t, json.Unmarshal(env.Payload, &mp))
	assert.Equal(t, []domain.PeerID{9}, mp.Targets)
	assert.Equal(t, []byte("yo"), mp.Data)

	writeMessage(t, conn, msgPeerLeft, peerPayload{PeerID: 9})
	assert.Equal(t, transport.PeerLeft{PeerID: 9}, nextEvent(t, r))
	_, err = r.MediaPeerID(added.Handle)
	assert.ErrorIs(t, err, result.ErrInvalidMediaHandle)
}

func TestRoom_JoinRejected(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)

	errc := make(chan error, 1)
	go func() {
		errc <- r.Join(context.Background(), transport.JoinRequest{Gateway: g.srv.URL, Token: "bad", RoomID: "room42"})
	}()
	conn := g.accept(t)
	env := readEnvelope(t, conn)
	writeEnvelope(t, conn, envelope{
		Type:    msgResponse,
		ID:      env.ID,
		Status:  result.CodeInvalidToken,
		Message: "token expired",
	})

	err := <-errc
	assert.ErrorIs(t, err, result.ErrInvalidToken)
	assert.ErrorIs(t, err, result.ErrTransport)

	assert.Equal(t, transport.ConnectionStateChanged{State: domain.Connecting}, nextEvent(t, r))
	assert.Equal(t, transport.ConnectionStateChanged{
		State:  domain.Disconnected,
		Reason: domain.ReasonConnectionLost,
	}, nextEvent(t, r))
}

func TestRoom_JoinErrors(t *testing.T) {
	r := newTestRoom(t)
	err := r.Join(context.Background(), transport.JoinRequest{Gateway: "ftp://gateway", Token: "t", RoomID: "r"})
	assert.ErrorIs(t, err, result.ErrInvalidGateway)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	err = r.Join(context.Background(), transport.JoinRequest{Gateway: srv.URL, Token: "t", RoomID: "r"})
	assert.ErrorIs(t, err, result.ErrTransport)

	require.NoError(t, r.Close())
	err = r.Join(context.Background(), transport.JoinRequest{Gateway: "http://localhost", Token: "t", RoomID: "r"})
	assert.ErrorIs(t, err, result.ErrInvalidState)
}

func TestRoom_ClosedByGateway(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)
	conn := joinRoom(t, g, r)

	writeMessage(t, conn, msgJoined, joinedPayload{RoomID: "room42", OwnPeerID: 1})
	nextEvent(t, r)
	nextEvent(t, r)
	writeMessage(t, conn, msgClosed, closedPayload{Reason: "kicked"})

	assert.Equal(t, transport.ConnectionStateChanged{
		State:  domain.Disconnected,
		Reason: domain.ReasonServerRequested,
	}, nextEvent(t, r))
	assert.ErrorIs(t, r.SendMessage([]byte("x"), nil), result.ErrInvalidState)
}

func TestRoom_ConnectionLost(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)
	conn := joinRoom(t, g, r)

	require.NoError(t, conn.Close())
	assert.Equal(t, transport.ConnectionStateChanged{
		State:  domain.Disconnected,
		Reason: domain.ReasonConnectionLost,
	}, nextEvent(t, r))
}

func TestRoom_CloseEndsEvents(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)
	joinRoom(t, g, r)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-r.Events():
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRoom_PublishOnJoin(t *testing.T) {
	g := newFakeGateway(t)
	r := newTestRoom(t)

	h := r.CreateAudioStream(transport.DefaultAudioStreamConfig())
	require.True(t, h.Valid())
	require.NoError(t, r.AddMedia(h))
	assert.ErrorIs(t, r.AddMedia(h), result.ErrDuplicateMediaStream)

	conn := joinRoom(t, g, r)
	writeMessage(t, conn, msgJoined, joinedPayload{RoomID: "room42", OwnPeerID: 1})

	env := readEnvelope(t, conn)
	require.Equal(t, msgAddMedia, env.Type)
	var mp mediaPayload
	require.NoError(t, json.Unmarshal(env.Payload, &mp))
	assert.Equal(t, uint32(h), mp.MediaID)
	assert.Equal(t, uint8(1), mp.Channels)

	require.NoError(t, r.DestroyMedia(h))
	env = readEnvelope(t, conn)
	assert.Equal(t, msgRemoveMedia, env.Type)
}

func TestRoom_BeforeJoin(t *testing.T) {
	r := newTestRoom(t)

	assert.ErrorIs(t, r.SendMessage([]byte("x"), nil), result.ErrInvalidState)
	assert.Error(t, r.SetPositionScale(0))
	assert.NoError(t, r.SetPositionScale(2))
	assert.NoError(t, r.UpdateUserData(domain.TargetRoom, []byte("topic")))
	assert.NoError(t, r.ConfigureAPM(domain.DefaultAPMConfig()))

	assert.Zero(t, r.CreateAudioStream(transport.AudioStreamConfig{SampleRate: 48000, ChannelCount: 2}))
	assert.Zero(t, r.CreateAudioStream(transport.AudioStreamConfig{ChannelCount: 1}))

	_, err := r.MediaStats(42)
	assert.ErrorIs(t, err, result.ErrInvalidMediaHandle)
	assert.ErrorIs(t, r.DestroyMedia(42), result.ErrInvalidMediaHandle)
}
