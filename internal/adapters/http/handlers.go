package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/adapters/signal"
	"github.com/dkeye/voiceroom/internal/app"
	"github.com/dkeye/voiceroom/internal/codec"
	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

const entryKey = "entry"

var errNoGraph = errors.New("no audio graph configured")

type handlers struct {
	reg    *app.Registry
	graph  core.Graph
	stream *signal.EventStream
	ctx    context.Context
}

type CreateSessionRequest struct {
	Gateway   string                `json:"gateway"`
	Autopilot *domain.AutopilotMode `json:"autopilot"`
	APM       *domain.APMConfig     `json:"apm"`
}

type JoinRequest struct {
	Token string `json:"token" binding:"required"`
}

type JoinResponse struct {
	RoomID domain.RoomID `json:"room_id"`
	UserID domain.UserID `json:"user_id"`
}

// UserDataRequest carries the data as text; it is sent as its UTF-8 bytes.
type UserDataRequest struct {
	Target domain.UserDataTarget `json:"target"`
	Data   string                `json:"data"`
}

type PositionRequest struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

type ScaleRequest struct {
	Scale float32 `json:"scale" binding:"required"`
}

type MessageRequest struct {
	Data    string          `json:"data"`
	Targets []domain.PeerID `json:"targets"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.reg.Len()})
}

func (h *handlers) listSessions(c *gin.Context) {
	entries := h.reg.List()
	out := make([]SessionView, 0, len(entries))
	for _, e := range entries {
		out = append(out, sessionView(e))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

func (h *handlers) createSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	e, err := h.reg.Create(app.CreateOptions{
		Gateway:   req.Gateway,
		Autopilot: req.Autopilot,
		APM:       req.APM,
	})
	if err != nil {
		fail(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set(lastSessionKey, string(e.ID))
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("save cookie session")
	}
	c.JSON(http.StatusCreated, sessionView(e))
}

// currentSession returns the last session this client created.
func (h *handlers) currentSession(c *gin.Context) {
	id, _ := sessions.Default(c).Get(lastSessionKey).(string)
	e, ok := h.reg.Get(app.SessionID(id))
	if !ok {
		fail(c, app.ErrSessionNotFound)
		return
	}
	c.JSON(http.StatusOK, sessionView(e))
}

func (h *handlers) loadSession(c *gin.Context) {
	e, ok := h.reg.Get(app.SessionID(c.Param("id")))
	if !ok {
		fail(c, app.ErrSessionNotFound)
		return
	}
	c.Set(entryKey, e)
	c.Next()
}

func entry(c *gin.Context) *app.Entry {
	return c.MustGet(entryKey).(*app.Entry)
}

func (h *handlers) getSession(c *gin.Context) {
	c.JSON(http.StatusOK, sessionView(entry(c)))
}

func (h *handlers) deleteSession(c *gin.Context) {
	if err := h.reg.Remove(entry(c).ID); err != nil && !errors.Is(err, result.ErrTransport) {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id, err := entry(c).Session.Join(c.Request.Context(), req.Token)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, JoinResponse{RoomID: id.RoomID, UserID: id.UserID})
}

func (h *handlers) leave(c *gin.Context) {
	if err := entry(c).Session.Leave(); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) updateUserData(c *gin.Context) {
	var req UserDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := entry(c).Session.UpdateUserData(codec.FromString(req.Data), req.Target); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) updatePosition(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := entry(c).Session.UpdatePosition(req.X, req.Y); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) setPositionScale(c *gin.Context) {
	var req ScaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := entry(c).Session.SetPositionScale(req.Scale); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) updateAPM(c *gin.Context) {
	cfg := entry(c).Session.AudioConfig()
	if err := c.ShouldBindJSON(&cfg); err != nil {
		badRequest(c, err)
		return
	}
	if err := entry(c).Session.UpdateAudioConfig(cfg); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *handlers) sendMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := entry(c).Session.SendMessage(codec.FromString(req.Data), req.Targets); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

func (h *handlers) addMedia(c *gin.Context) {
	cfg := transport.DefaultAudioStreamConfig()
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&cfg); err != nil {
			badRequest(c, err)
			return
		}
	}
	m, err := entry(c).Session.AddMedia(cfg)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, mediaView(m))
}

func mediaOf(c *gin.Context) (*core.MediaStream, bool) {
	n, err := strconv.ParseUint(c.Param("handle"), 10, 32)
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	m, ok := entry(c).Session.Media(domain.MediaHandle(n))
	if !ok {
		fail(c, result.ErrInvalidMediaHandle)
		return nil, false
	}
	return m, true
}

func (h *handlers) removeMedia(c *gin.Context) {
	m, ok := mediaOf(c)
	if !ok {
		return
	}
	if err := entry(c).Session.RemoveMedia(m); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) mediaStats(c *gin.Context) {
	m, ok := mediaOf(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, StatsView{Handle: m.Handle(), Stats: m.Stats()})
}

func (h *handlers) connectMedia(c *gin.Context) {
	m, ok := mediaOf(c)
	if !ok {
		return
	}
	if h.graph == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": errNoGraph.Error()})
		return
	}
	if err := m.Connect(h.graph); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mediaView(m))
}

func (h *handlers) disconnectMedia(c *gin.Context) {
	m, ok := mediaOf(c)
	if !ok {
		return
	}
	m.Disconnect()
	c.JSON(http.StatusOK, mediaView(m))
}

func (h *handlers) events(c *gin.Context) {
	h.stream.Serve(h.ctx, c, entry(c))
}
