package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/config"
	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/token"
	"github.com/dkeye/voiceroom/internal/transport"
	"github.com/dkeye/voiceroom/internal/transport/transportmock"
)

type fixture struct {
	t       *testing.T
	ctrl    *gomock.Controller
	mu      sync.Mutex
	rooms   []*transportmock.MockRoom
	reg     *app.Registry
	router  *gin.Engine
	cookies map[string]*http.Cookie
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{t: t, ctrl: gomock.NewController(t), cookies: make(map[string]*http.Cookie)}

	factory := transportmock.NewMockFactory(f.ctrl)
	factory.EXPECT().NewRoom(gomock.Any()).DoAndReturn(func(domain.APMConfig) (transport.Room, error) {
		return f.newRoom(), nil
	}).AnyTimes()

	f.reg = app.NewRegistry(factory, core.Options{Gateway: "http://localhost:7000", Autopilot: domain.AutopilotOff})
	t.Cleanup(func() { _ = f.reg.CloseAll() })

	cfg := &config.Config{Mode: "test", Secret: "test-secret", PingPeriod: time.Second}
	f.router = SetupRouter(context.Background(), cfg, Deps{Registry: f.reg})
	return f
}

func (f *fixture) newRoom() *transportmock.MockRoom {
	room := transportmock.NewMockRoom(f.ctrl)
	ch := make(chan transport.Event)
	var recv <-chan transport.Event = ch
	var once sync.Once
	room.EXPECT().Events().Return(recv).AnyTimes()
	room.EXPECT().Close().DoAndReturn(func() error {
		once.Do(func() { close(ch) })
		return nil
	}).AnyTimes()

	f.mu.Lock()
	f.rooms = append(f.rooms, room)
	f.mu.Unlock()
	return room
}

func (f *fixture) room() *transportmock.MockRoom {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[len(f.rooms)-1]
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		f.cookies[c.Name] = c
	}
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) create() string {
	f.t.Helper()
	w := f.do(http.MethodPost, "/api/sessions", nil)
	require.Equal(f.t, http.StatusCreated, w.Code, w.Body.String())
	return string(decode[SessionView](f.t, w).ID)
}

func validToken(t *testing.T) string {
	t.Helper()
	key, err := token.NewAccessKey()
	require.NoError(t, err)
	raw, err := key.Generate("room42", "alice", token.Options{})
	require.NoError(t, err)
	return raw
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0}`, w.Body.String())
}

func TestRouter_SessionLifecycle(t *testing.T) {
	f := newFixture(t)
	id := f.create()

	w := f.do(http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[SessionView](t, w)
	assert.Equal(t, "disconnected", view.State)
	assert.Equal(t, "http://localhost:7000", view.Gateway)
	assert.Equal(t, domain.AutopilotOff, view.Autopilot)
	assert.Empty(t, view.Peers)

	w = f.do(http.MethodGet, "/api/sessions/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, app.SessionID(id), decode[SessionView](t, w).ID)

	w = f.do(http.MethodGet, "/api/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []SessionView `json:"sessions"`
	}](t, w)
	require.Len(t, list.Sessions, 1)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/sessions/"+id, nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, "/api/sessions/current", nil).Code)
}

func TestRouter_CreateWithOptions(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/sessions", gin.H{"gateway": "wss://gw.example.com", "autopilot": "media"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	view := decode[SessionView](t, w)
	assert.Equal(t, "wss://gw.example.com", view.Gateway)
	assert.Equal(t, domain.AutopilotMedia, view.Autopilot)

	w = f.do(http.MethodPost, "/api/sessions", gin.H{"gateway": "ftp://nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/sessions", gin.H{"autopilot": "sideways"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Join(t *testing.T) {
	f := newFixture(t)
	id := f.create()

	w := f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": "garbage"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.room().EXPECT().Join(gomock.Any(), gomock.Any()).Return(result.Transportf("gateway unreachable"))
	w = f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": validToken(t)})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	f.room().EXPECT().Join(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, req transport.JoinRequest) error {
		assert.Equal(t, domain.RoomID("room42"), req.RoomID)
		return nil
	})
	w = f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": validToken(t)})
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, JoinResponse{RoomID: "room42", UserID: "alice"}, decode[JoinResponse](t, w))

	// a join is already pending
	w = f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": validToken(t)})
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPost, "/api/sessions/"+id+"/leave", nil).Code)
}

func TestRouter_JoinRateLimited(t *testing.T) {
	f := newFixture(t)
	id := f.create()

	for range joinLimit {
		w := f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": "garbage"})
		require.Equal(t, http.StatusBadRequest, w.Code)
	}
	w := f.do(http.MethodPost, "/api/sessions/"+id+"/join", gin.H{"token": "garbage"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRouter_Updates(t *testing.T) {
	f := newFixture(t)
	id := f.create()
	room := f.room()
	base := "/api/sessions/" + id

	room.EXPECT().UpdateUserData(domain.TargetRoom, []byte("topic")).Return(nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPut, base+"/user-data", gin.H{"target": "room", "data": "topic"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, base+"/user-data", gin.H{"target": "nobody"}).Code)

	room.EXPECT().UpdatePosition(float32(1.5), float32(-2)).Return(nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPut, base+"/position", gin.H{"x": 1.5, "y": -2}).Code)

	room.EXPECT().SetPositionScale(float32(4)).Return(nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodPut, base+"/position-scale", gin.H{"scale": 4}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPut, base+"/position-scale", gin.H{"scale": 0}).Code)

	room.EXPECT().SendMessage([]byte("hello"), []domain.PeerID{3}).Return(nil)
	assert.Equal(t, http.StatusAccepted, f.do(http.MethodPost, base+"/messages", gin.H{"data": "hello", "targets": []int{3}}).Code)

	room.EXPECT().ConfigureAPM(gomock.Any()).DoAndReturn(func(cfg domain.APMConfig) error {
		assert.True(t, cfg.VolumeGate)
		assert.Equal(t, domain.NoiseSuppressionHigh, cfg.NoiseSuppressionLevel)
		return nil
	})
	w := f.do(http.MethodPut, base+"/apm", gin.H{"volume_gate": true, "noise_suppression_level": "high"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	apm := decode[domain.APMConfig](t, w)
	assert.True(t, apm.VolumeGate)
	assert.True(t, apm.EchoCanceller)
}

func TestRouter_Media(t *testing.T) {
	f := newFixture(t)
	id := f.create()
	room := f.room()
	base := "/api/sessions/" + id

	room.EXPECT().CreateAudioStream(transport.DefaultAudioStreamConfig()).Return(domain.MediaHandle(5))
	room.EXPECT().AddMedia(domain.MediaHandle(5)).Return(nil)
	w := f.do(http.MethodPost, base+"/media", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, MediaView{Handle: 5}, decode[MediaView](t, w))

	w = f.do(http.MethodPost, base+"/media", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	room.EXPECT().MediaStats(domain.MediaHandle(5)).Return(transport.MediaStats{PacketsTotal: 9}, nil)
	w = f.do(http.MethodGet, base+"/media/5/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(9), decode[StatsView](t, w).Stats.PacketsTotal)

	assert.Equal(t, http.StatusServiceUnavailable, f.do(http.MethodPost, base+"/media/5/connect", nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodPost, base+"/media/5/disconnect", nil).Code)

	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, base+"/media/x", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodDelete, base+"/media/77", nil).Code)

	room.EXPECT().MediaPeerID(domain.MediaHandle(5)).Return(domain.PeerID(0), nil)
	room.EXPECT().DestroyMedia(domain.MediaHandle(5)).Return(nil)
	assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, base+"/media/5", nil).Code)
}

func TestRouter_UnknownSession(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/api/sessions/nope", "/api/sessions/nope/media/1/stats"} {
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodGet, path, nil).Code, path)
	}
	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/sessions/nope/leave", nil).Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Minute + time.Second)
	assert.True(t, rl.Allow("a"))
}
