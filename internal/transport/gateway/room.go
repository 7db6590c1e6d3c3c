// Package gateway is the network transport: a websocket signalling
// connection to the room gateway and a WebRTC peer connection whose data
// channels carry RTP packetized audio.
package gateway

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

const (
	DefaultPingPeriod     = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	defaultEventBuffer    = 64
	defaultSendBuffer     = 32
	writeWait             = 5 * time.Second
	signallingPath        = "/v1/room"
)

var ErrBackpressure = errors.New("backpressure")

type Config struct {
	// WebRTC defaults to DefaultWebRTCConfig.
	WebRTC *webrtc.Configuration
	// Dialer defaults to websocket.DefaultDialer.
	Dialer         *websocket.Dialer
	PingPeriod     time.Duration
	RequestTimeout time.Duration
	// DisableMedia keeps the room signalling only; no peer connection is made.
	DisableMedia bool
	EventBuffer  int
}

func (c Config) withDefaults() Config {
	if c.WebRTC == nil {
		cfg := DefaultWebRTCConfig()
		c.WebRTC = &cfg
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.PingPeriod <= 0 {
		c.PingPeriod = DefaultPingPeriod
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.EventBuffer <= 0 {
		c.EventBuffer = defaultEventBuffer
	}
	return c
}

// Factory creates gateway rooms sharing one Config.
type Factory struct {
	cfg Config
}

func NewFactory(cfg Config) *Factory {
	return &Factory{cfg: cfg.withDefaults()}
}

func (f *Factory) NewRoom(apm domain.APMConfig) (transport.Room, error) {
	return NewRoom(f.cfg, apm), nil
}

var _ transport.Factory = (*Factory)(nil)

// Room is a single-use connection to one room on the gateway.
type Room struct {
	cfg    Config
	logger zerolog.Logger

	events       chan transport.Event
	done         chan struct{}
	closeOnce    sync.Once
	emitMu       sync.RWMutex
	eventsClosed bool

	mu         sync.RWMutex
	conn       *websocket.Conn
	send       chan []byte
	joined     bool
	connected  bool
	link       mediaLink
	apm        domain.APMConfig
	peerData   []byte
	roomData   []byte
	pos        *position
	scale      float32

	pendingMu sync.Mutex
	pending   map[string]chan envelope

	media *mediaTable

	workers conc.WaitGroup
}

var _ transport.Room = (*Room)(nil)

func NewRoom(cfg Config, apm domain.APMConfig) *Room {
	cfg = cfg.withDefaults()
	return &Room{
		cfg:     cfg,
		logger:  log.With().Str("module", "transport.gateway").Logger(),
		events:  make(chan transport.Event, cfg.EventBuffer),
		done:    make(chan struct{}),
		apm:     apm,
		pending: make(map[string]chan envelope),
		media:   newMediaTable(),
	}
}

func (r *Room) Events() <-chan transport.Event { return r.events }

// signallingURL maps the gateway URL to its websocket endpoint.
func signallingURL(gateway string) (string, error) {
	u, err := url.Parse(gateway)
	if err != nil {
		return "", errors.Join(result.ErrInvalidGateway, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", result.ErrInvalidGateway
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = signallingPath
	}
	return u.String(), nil
}

// Join dials the gateway and sends the join request. It returns once the
// gateway accepted the request; the room itself is reported by events.
func (r *Room) Join(ctx context.Context, req transport.JoinRequest) error {
	endpoint, err := signallingURL(req.Gateway)
	if err != nil {
		return result.FromCode(result.CodeInvalidGateway, err.Error())
	}

	r.mu.Lock()
	if r.connected {
		r.mu.Unlock()
		return result.FromCode(result.CodeUnexpectedState, "join already requested")
	}
	select {
	case <-r.done:
		r.mu.Unlock()
		return result.FromCode(result.CodeUnexpectedState, "room closed")
	default:
	}
	r.mu.Unlock()

	r.logger.Info().Str("endpoint", endpoint).Str("room", string(req.RoomID)).Msg("dialing gateway")
	conn, _, err := r.cfg.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return result.Transport(err)
	}

	r.mu.Lock()
	r.conn = conn
	r.send = make(chan []byte, defaultSendBuffer)
	r.connected = true
	payload := joinPayload{
		Token:         req.Token,
		RoomID:        req.RoomID,
		UserData:      bytes.Clone(r.peerData),
		RoomData:      bytes.Clone(r.roomData),
		Position:      r.pos,
		PositionScale: r.scale,
	}
	send := r.send
	r.mu.Unlock()

	r.emit(transport.ConnectionStateChanged{State: domain.Connecting, Reason: domain.ReasonClientRequested})
	r.workers.Go(func() { r.readPump(conn) })
	r.workers.Go(func() { r.writePump(conn, send) })

	if err := r.request(ctx, msgJoin, payload); err != nil {
		r.logger.Error().Err(err).Msg("join rejected")
		r.disconnect(domain.ReasonConnectionLost)
		return err
	}
	return nil
}

// Close ends the connection. No events are delivered afterwards and the
// event channel is closed.
func (r *Room) Close() error {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		conn := r.conn
		link := r.link
		r.link = nil
		r.joined = false
		r.connected = false
		r.mu.Unlock()

		if conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, msgLeave)
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
		}
		close(r.done)
		if conn != nil {
			_ = conn.Close()
		}
		if link != nil {
			_ = link.close()
		}
		r.workers.Wait()
		r.failPending()

		r.emitMu.Lock()
		r.eventsClosed = true
		close(r.events)
		r.emitMu.Unlock()
		r.logger.Debug().Msg("room closed")
	})
	return nil
}

// disconnect tears the connection down after a failure or a server request
// and reports it once.
func (r *Room) disconnect(reason domain.ConnectionReason) {
	r.mu.Lock()
	if !r.connected {
		r.mu.Unlock()
		return
	}
	r.connected = false
	r.joined = false
	conn := r.conn
	link := r.link
	r.link = nil
	r.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
	if link != nil {
		_ = link.close()
	}
	r.media.dropRemotes()
	r.failPending()
	r.logger.Info().Str("reason", reason.String()).Msg("disconnected")
	r.emit(transport.ConnectionStateChanged{State: domain.Disconnected, Reason: reason})
}

func (r *Room) emit(ev transport.Event) {
	r.emitMu.RLock()
	defer r.emitMu.RUnlock()
	if r.eventsClosed {
		return
	}
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Room) closing() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

func (r *Room) writePump(conn *websocket.Conn, send <-chan []byte) {
	ticker := time.NewTicker(r.cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				r.logger.Warn().Err(err).Msg("writePump ping")
				return
			}
		case data := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				r.logger.Error().Err(err).Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				r.logger.Error().Err(err).Msg("writePump write error")
				return
			}
		}
	}
}

func (r *Room) readPump(conn *websocket.Conn) {
	defer func() {
		if !r.closing() {
			r.disconnect(domain.ReasonConnectionLost)
		}
	}()
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(2 * r.cfg.PingPeriod))
	})
	for {
		if err := conn.SetReadDeadline(time.Now().Add(2 * r.cfg.PingPeriod)); err != nil {
			return
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !r.closing() {
				r.logger.Error().Err(err).Msg("readPump read error")
			}
			return
		}
		if stop := r.handle(data); stop {
			return
		}
	}
}

// trySend queues data for the write pump without blocking.
func (r *Room) trySend(data []byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.connected {
		return result.FromCode(result.CodeUnexpectedState, "not connected")
	}
	select {
	case r.send <- data:
		return nil
	default:
		return result.Transport(ErrBackpressure)
	}
}

// notify sends a message that has no response.
func (r *Room) notify(typ string, payload any) error {
	data, err := encode(typ, "", payload)
	if err != nil {
		return result.FromCode(result.CodeInvalidArgument, err.Error())
	}
	return r.trySend(data)
}

// request sends a message and waits for the gateway's response.
func (r *Room) request(ctx context.Context, typ string, payload any) error {
	id := uuid.NewString()
	data, err := encode(typ, id, payload)
	if err != nil {
		return result.FromCode(result.CodeInvalidArgument, err.Error())
	}
	ch := make(chan envelope, 1)
	r.pendingMu.Lock()
	r.pending[id] = ch
	r.pendingMu.Unlock()
	defer func() {
		r.pendingMu.Lock()
		delete(r.pending, id)
		r.pendingMu.Unlock()
	}()

	if err := r.trySend(data); err != nil {
		return err
	}

	timer := time.NewTimer(r.cfg.RequestTimeout)
	defer timer.Stop()
	select {
	case env, ok := <-ch:
		if !ok {
			return result.FromCode(result.CodeUnexpectedState, "connection closed")
		}
		if result.IsError(env.Status) {
			return result.FromCode(env.Status, env.Message)
		}
		return nil
	case <-ctx.Done():
		return result.FromCode(result.CodeTimeout, ctx.Err().Error())
	case <-timer.C:
		return result.FromCode(result.CodeTimeout, typ+" request timed out")
	case <-r.done:
		return result.FromCode(result.CodeUnexpectedState, "room closed")
	}
}

func (r *Room) failPending() {
	r.pendingMu.Lock()
	defer r.pendingMu.Unlock()
	for id, ch := range r.pending {
		close(ch)
		delete(r.pending, id)
	}
}

// handle applies one message from the gateway. It returns true when the
// gateway closed the room.
func (r *Room) handle(data []byte) bool {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		r.logger.Error().Err(err).Msg("bad json")
		return false
	}

	switch env.Type {
	case msgResponse:
		r.pendingMu.Lock()
		ch, ok := r.pending[env.ID]
		delete(r.pending, env.ID)
		r.pendingMu.Unlock()
		if ok {
			ch <- env
		}
	case msgJoined:
		var p joinedPayload
		if r.decode(env, &p) {
			r.onJoined(p)
		}
	case msgRoomUserData:
		var p userDataPayload
		if r.decode(env, &p) {
			r.emit(transport.RoomUserDataChanged{Data: p.Data})
		}
	case msgPeerJoined:
		var p peerPayload
		if r.decode(env, &p) {
			r.emit(transport.PeerJoined{PeerID: p.PeerID, UserID: p.UserID, UserData: p.UserData})
		}
	case msgPeerUserData:
		var p userDataPayload
		if r.decode(env, &p) {
			r.emit(transport.PeerUserDataChanged{PeerID: p.PeerID, Data: p.Data})
		}
	case msgPeerLeft:
		var p peerPayload
		if r.decode(env, &p) {
			r.media.dropPeer(p.PeerID)
			r.emit(transport.PeerLeft{PeerID: p.PeerID})
		}
	case msgMediaAdded:
		var p mediaPayload
		if r.decode(env, &p) {
			h := r.media.addRemote(p.PeerID, p.MediaID, p.SampleRate)
			r.emit(transport.MediaAdded{PeerID: p.PeerID, Handle: h})
		}
	case msgMediaRemoved:
		var p mediaPayload
		if r.decode(env, &p) {
			if h, ok := r.media.removeRemote(p.PeerID, p.MediaID); ok {
				r.emit(transport.MediaRemoved{PeerID: p.PeerID, Handle: h})
			}
		}
	case msgMediaActive:
		var p mediaPayload
		if r.decode(env, &p) {
			if h, ok := r.media.remoteHandle(p.PeerID, p.MediaID); ok {
				r.emit(transport.MediaActiveStateChanged{PeerID: p.PeerID, Handle: h, Active: p.Active})
			}
		}
	case msgMessage:
		var p messagePayload
		if r.decode(env, &p) {
			r.emit(transport.MessageReceived{PeerID: p.PeerID, Data: p.Data})
		}
	case msgAnswer:
		var p sdpPayload
		if r.decode(env, &p) {
			if link := r.currentLink(); link != nil {
				if err := link.answer(p.SDP); err != nil {
					r.logger.Error().Err(err).Msg("apply answer")
				}
			}
		}
	case msgCandidate:
		var p candidatePayload
		if r.decode(env, &p) {
			if link := r.currentLink(); link != nil {
				if err := link.addCandidate(p); err != nil {
					r.logger.Error().Err(err).Msg("add ice candidate")
				}
			}
		}
	case msgClosed:
		var p closedPayload
		_ = r.decode(env, &p)
		r.logger.Info().Str("reason", p.Reason).Msg("room closed by gateway")
		r.disconnect(domain.ReasonServerRequested)
		return true
	default:
		r.logger.Warn().Str("type", env.Type).Msg("unknown message")
	}
	return false
}

func (r *Room) decode(env envelope, v any) bool {
	if len(env.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		r.logger.Error().Err(err).Str("type", env.Type).Msg("bad payload")
		return false
	}
	return true
}

func (r *Room) onJoined(p joinedPayload) {
	r.mu.Lock()
	r.joined = true
	r.mu.Unlock()

	r.logger.Info().Str("room", string(p.RoomID)).Uint64("own_peer_id", uint64(p.OwnPeerID)).Msg("joined")
	// Connected goes first; sessions list their own peer only once connected.
	r.emit(transport.ConnectionStateChanged{State: domain.Connected, Reason: domain.ReasonClientRequested})
	r.emit(transport.Joined{
		RoomID:     p.RoomID,
		CustomerID: p.CustomerID,
		OwnPeerID:  p.OwnPeerID,
		OwnUserID:  p.OwnUserID,
		RoomData:   p.RoomData,
	})

	if !r.cfg.DisableMedia {
		r.workers.Go(r.startMedia)
	}
	for _, h := range r.media.published() {
		r.publish(h)
	}
}

// startMedia creates the peer connection and sends the offer.
func (r *Room) startMedia() {
	link, err := newRTCLink(*r.cfg.WebRTC, r.logger, r.media.deliver, func() {
		r.logger.Warn().Msg("media link failed")
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("webrtc new pc")
		return
	}

	r.mu.Lock()
	if !r.joined || r.closing() {
		r.mu.Unlock()
		_ = link.close()
		return
	}
	r.link = link
	r.mu.Unlock()

	for _, h := range r.media.published() {
		if err := link.open(h); err != nil {
			r.logger.Error().Err(err).Uint32("handle", uint32(h)).Msg("open media channel")
		}
	}
	sdp, err := link.offer(r.done)
	if err != nil {
		r.logger.Error().Err(err).Msg("webrtc create offer")
		return
	}
	if err := r.notify(msgOffer, sdpPayload{SDP: sdp}); err != nil {
		r.logger.Error().Err(err).Msg("send offer")
	}
}

func (r *Room) currentLink() mediaLink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.link
}

func (r *Room) isJoined() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.joined
}

// UpdateUserData keeps data as the initial value for the join request until
// the room is joined.
func (r *Room) UpdateUserData(target domain.UserDataTarget, data []byte) error {
	r.mu.Lock()
	typ := msgUpdatePeerData
	if target == domain.TargetRoom {
		typ = msgUpdateRoomData
		r.roomData = bytes.Clone(data)
	} else {
		r.peerData = bytes.Clone(data)
	}
	joined := r.joined
	r.mu.Unlock()
	if !joined {
		return nil
	}
	return r.notify(typ, userDataPayload{Data: data})
}

func (r *Room) UpdatePosition(x, y float32) error {
	r.mu.Lock()
	r.pos = &position{X: x, Y: y}
	joined := r.joined
	r.mu.Unlock()
	if !joined {
		return nil
	}
	return r.notify(msgUpdatePosition, position{X: x, Y: y})
}

func (r *Room) SetPositionScale(scale float32) error {
	if scale <= 0 {
		return result.FromCode(result.CodeInvalidArgument, "position scale must be positive")
	}
	r.mu.Lock()
	r.scale = scale
	joined := r.joined
	r.mu.Unlock()
	if !joined {
		return nil
	}
	return r.notify(msgSetPositionScale, scalePayload{Scale: scale})
}

func (r *Room) SendMessage(data []byte, targets []domain.PeerID) error {
	if !r.isJoined() {
		return result.FromCode(result.CodeUnexpectedState, "not joined")
	}
	return r.notify(msgSendMessage, messagePayload{Targets: targets, Data: data})
}

func (r *Room) ConfigureAPM(cfg domain.APMConfig) error {
	r.mu.Lock()
	r.apm = cfg
	r.mu.Unlock()
	r.media.configure(cfg)
	return nil
}

func (r *Room) CreateAudioStream(cfg transport.AudioStreamConfig) domain.MediaHandle {
	if cfg.SampleRate == 0 || cfg.ChannelCount != 1 {
		return 0
	}
	r.mu.RLock()
	apm := r.apm
	r.mu.RUnlock()
	return r.media.addLocal(cfg, apm)
}

// AddMedia publishes a local stream, right away when joined or as soon as
// the room is.
func (r *Room) AddMedia(h domain.MediaHandle) error {
	if err := r.media.markPublished(h); err != nil {
		return err
	}
	if r.isJoined() {
		r.publish(h)
	}
	return nil
}

func (r *Room) publish(h domain.MediaHandle) {
	cfg, ok := r.media.localConfig(h)
	if !ok {
		return
	}
	if err := r.notify(msgAddMedia, mediaPayload{
		MediaID:    uint32(h),
		SampleRate: cfg.SampleRate,
		Channels:   cfg.ChannelCount,
	}); err != nil {
		r.logger.Error().Err(err).Uint32("handle", uint32(h)).Msg("publish media")
		return
	}
	if link := r.currentLink(); link != nil {
		if err := link.open(h); err != nil {
			r.logger.Error().Err(err).Uint32("handle", uint32(h)).Msg("open media channel")
		}
	}
}

func (r *Room) PushAudio(h domain.MediaHandle, samples []float32) error {
	return r.media.push(h, samples, r.currentLink())
}

func (r *Room) ReadAudio(h domain.MediaHandle, out []float32) (int, error) {
	return r.media.read(h, out)
}

func (r *Room) MixAudio(hs []domain.MediaHandle, out []float32) (int, error) {
	return r.media.mix(hs, out)
}

func (r *Room) MediaPeerID(h domain.MediaHandle) (domain.PeerID, error) {
	return r.media.peerID(h)
}

func (r *Room) MediaStats(h domain.MediaHandle) (transport.MediaStats, error) {
	return r.media.stats(h)
}

func (r *Room) DestroyMedia(h domain.MediaHandle) error {
	local, published, err := r.media.remove(h)
	if err != nil {
		return err
	}
	if !local {
		return nil
	}
	if link := r.currentLink(); link != nil {
		link.closeChannel(h)
	}
	if published && r.isJoined() {
		return r.notify(msgRemoveMedia, mediaPayload{MediaID: uint32(h)})
	}
	return nil
}
