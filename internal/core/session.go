package core

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/token"
	"github.com/dkeye/voiceroom/internal/transport"
)

const DefaultGateway = "https://gateway.voiceroom.io"

type Options struct {
	// Gateway defaults to DefaultGateway.
	Gateway   string
	Autopilot domain.AutopilotMode
	// APM defaults to domain.DefaultAPMConfig.
	APM      *domain.APMConfig
	Graph    Graph
	Delegate Delegate
}

// Identity is what a join request provisionally knows about the caller
// before the gateway confirms it.
type Identity struct {
	RoomID domain.RoomID
	UserID domain.UserID
}

type roomRef struct {
	room transport.Room
}

type delegateRef struct {
	d Delegate
}

// RoomSession owns one room connection. Events from the transport are
// applied one at a time; API calls run on the caller's goroutine and only
// take the table lock.
type RoomSession struct {
	factory   transport.Factory
	gateway   string
	autopilot domain.AutopilotMode
	graph     Graph
	logger    zerolog.Logger

	delegate atomic.Pointer[delegateRef]
	apm      atomic.Pointer[domain.APMConfig]
	current  atomic.Pointer[roomRef]
	remote   atomic.Pointer[[]domain.MediaHandle]
	closed   atomic.Bool
	attached atomic.Bool

	// dispatchMu serializes event handling and room replacement.
	dispatchMu sync.Mutex

	// notifyMu guards the notification queue. Notifications are queued in
	// event order and delivered without holding dispatchMu.
	notifyMu   sync.Mutex
	queue      []Notification
	delivering bool

	mu         sync.RWMutex
	room       transport.Room
	state      domain.ConnectionState
	joining    bool
	joined     *transport.Joined
	roomID     domain.RoomID
	customerID domain.CustomerID
	userData   []byte
	ownPeer    *Peer
	peers      map[domain.PeerID]*Peer
	medias     map[domain.MediaHandle]*MediaStream

	pumps conc.WaitGroup
}

// ValidateGateway reports ErrInvalidGateway unless raw is an absolute
// http(s) or ws(s) URL.
func ValidateGateway(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Join(result.ErrInvalidGateway, err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return result.ErrInvalidGateway
	}
	if u.Host == "" {
		return result.ErrInvalidGateway
	}
	return nil
}

func NewRoomSession(factory transport.Factory, opts Options) (*RoomSession, error) {
	gateway := opts.Gateway
	if gateway == "" {
		gateway = DefaultGateway
	}
	if err := ValidateGateway(gateway); err != nil {
		return nil, err
	}
	apm := domain.DefaultAPMConfig()
	if opts.APM != nil {
		apm = *opts.APM
	}

	s := &RoomSession{
		factory:   factory,
		gateway:   gateway,
		autopilot: opts.Autopilot,
		graph:     opts.Graph,
		ownPeer:   newPeer(0, "", nil),
		peers:     make(map[domain.PeerID]*Peer),
		medias:    make(map[domain.MediaHandle]*MediaStream),
	}
	s.logger = log.With().Str("module", "core.session").Str("gateway", gateway).Logger()
	s.apm.Store(&apm)
	s.remote.Store(&[]domain.MediaHandle{})
	if opts.Delegate != nil {
		s.SetDelegate(opts.Delegate)
	}

	room, err := factory.NewRoom(apm)
	if err != nil {
		return nil, result.Transport(err)
	}
	s.installRoom(room)
	return s, nil
}

// installRoom makes room current and starts delivering its events. Events of
// any previous room are dropped from here on.
func (s *RoomSession) installRoom(room transport.Room) {
	s.mu.Lock()
	s.room = room
	s.mu.Unlock()
	s.current.Store(&roomRef{room: room})
	s.pumps.Go(func() { s.pump(room) })
}

func (s *RoomSession) currentRoom() transport.Room {
	if ref := s.current.Load(); ref != nil {
		return ref.room
	}
	return nil
}

func (s *RoomSession) SetDelegate(d Delegate) {
	if d == nil {
		s.delegate.Store(nil)
		return
	}
	s.delegate.Store(&delegateRef{d: d})
}

func (s *RoomSession) Gateway() string                     { return s.gateway }
func (s *RoomSession) Autopilot() domain.AutopilotMode     { return s.autopilot }
func (s *RoomSession) AudioConfig() domain.APMConfig       { return *s.apm.Load() }
func (s *RoomSession) MixIO() transport.MediaIO            { return s.currentRoom() }
func (s *RoomSession) RemoteHandles() []domain.MediaHandle { return *s.remote.Load() }

func (s *RoomSession) State() domain.ConnectionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *RoomSession) RoomID() domain.RoomID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

func (s *RoomSession) CustomerID() domain.CustomerID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.customerID
}

func (s *RoomSession) UserData() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return bytes.Clone(s.userData)
}

// OwnPeer is the same object for the whole lifetime of the session.
func (s *RoomSession) OwnPeer() *Peer { return s.ownPeer }

func (s *RoomSession) OwnPeerID() domain.PeerID { return s.ownPeer.ID() }

func (s *RoomSession) Peer(id domain.PeerID) (*Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[id]
	return p, ok
}

func (s *RoomSession) Peers() map[domain.PeerID]*Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.PeerID]*Peer, len(s.peers))
	for id, p := range s.peers {
		out[id] = p
	}
	return out
}

func (s *RoomSession) Media(h domain.MediaHandle) (*MediaStream, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.medias[h]
	return m, ok
}

func (s *RoomSession) Medias() map[domain.MediaHandle]*MediaStream {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.MediaHandle]*MediaStream, len(s.medias))
	for h, m := range s.medias {
		out[h] = m
	}
	return out
}

// Join requests a connection with raw. Success means the request was
// accepted, not that the room was joined; that is reported by events.
// Until the transport reports a connection state, further calls fail with
// ErrInvalidState.
func (s *RoomSession) Join(ctx context.Context, raw string) (Identity, error) {
	tok, err := token.Parse(raw)
	if err != nil {
		return Identity{}, err
	}

	s.mu.Lock()
	if s.state != domain.Disconnected || s.joining {
		s.mu.Unlock()
		return Identity{}, result.ErrInvalidState
	}
	room := s.room
	s.joining = true
	s.roomID = tok.RoomID()
	s.ownPeer.setIdentity(0, tok.UserID())
	s.mu.Unlock()

	s.logger.Info().Str("room", string(tok.RoomID())).Str("user", string(tok.UserID())).Msg("join requested")
	err = room.Join(ctx, transport.JoinRequest{
		Gateway: s.gateway,
		Token:   raw,
		RoomID:  tok.RoomID(),
	})
	if err != nil {
		s.mu.Lock()
		if s.room == room && s.joining && s.state == domain.Disconnected {
			s.joining = false
			s.roomID = ""
			s.ownPeer.setIdentity(0, "")
		}
		s.mu.Unlock()
		s.logger.Error().Err(err).Str("room", string(tok.RoomID())).Msg("join rejected")
		return Identity{}, result.Transport(err)
	}
	return Identity{RoomID: tok.RoomID(), UserID: tok.UserID()}, nil
}

// Leave drops the transport room and replaces it with a fresh one so the
// session can join again.
func (s *RoomSession) Leave() error {
	defer s.flush()
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	old := s.currentRoom()
	closeErr := old.Close()

	s.mu.Lock()
	prev := s.state
	s.resetLocked()
	s.mu.Unlock()
	s.detachRoom()

	s.logger.Info().Str("prev_state", prev.String()).Msg("left room")
	if prev != domain.Disconnected {
		s.enqueue(ConnectionStateChanged{State: domain.Disconnected, Reason: domain.ReasonClientRequested})
	}

	room, err := s.factory.NewRoom(s.AudioConfig())
	if err != nil {
		s.logger.Error().Err(err).Msg("leave: cannot create transport room")
		return result.Transport(err)
	}
	s.installRoom(room)
	if closeErr != nil {
		return result.Transport(closeErr)
	}
	return nil
}

// Close leaves the room and waits for event delivery to stop. Called from a
// delegate it returns without waiting. The session cannot be used
// afterwards.
func (s *RoomSession) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.dispatchMu.Lock()
	err := s.currentRoom().Close()
	s.mu.Lock()
	s.resetLocked()
	s.mu.Unlock()
	s.detachRoom()
	s.dispatchMu.Unlock()

	if s.isDelivering() {
		s.logger.Debug().Msg("close called during delivery, not waiting for event pumps")
		return result.Transport(err)
	}
	s.pumps.Wait()
	return result.Transport(err)
}

// UpdateUserData sends data to the gateway. Peer data is applied locally
// right away; room data only once connected, before that the transport
// keeps it as the initial room data. Notifications fire only while
// connected.
func (s *RoomSession) UpdateUserData(data []byte, target domain.UserDataTarget) error {
	if err := s.currentRoom().UpdateUserData(target, data); err != nil {
		return result.Transport(err)
	}

	s.mu.Lock()
	connected := s.state == domain.Connected
	switch target {
	case domain.TargetPeer:
		s.ownPeer.setUserData(data)
	case domain.TargetRoom:
		if connected {
			s.userData = bytes.Clone(data)
		}
	}
	s.mu.Unlock()

	if !connected {
		return nil
	}
	switch target {
	case domain.TargetPeer:
		s.notify(PeerUserDataChanged{Peer: s.ownPeer})
	case domain.TargetRoom:
		s.notify(RoomUserDataChanged{Data: bytes.Clone(data)})
	}
	return nil
}

func (s *RoomSession) UpdatePosition(x, y float32) error {
	return result.Transport(s.currentRoom().UpdatePosition(x, y))
}

func (s *RoomSession) SetPositionScale(scale float32) error {
	return result.Transport(s.currentRoom().SetPositionScale(scale))
}

// SendMessage broadcasts when targets is empty. The sender only receives
// its own message when its id is listed in targets.
func (s *RoomSession) SendMessage(data []byte, targets []domain.PeerID) error {
	return result.Transport(s.currentRoom().SendMessage(data, targets))
}

// UpdateAudioConfig replaces the APM configuration as a whole.
func (s *RoomSession) UpdateAudioConfig(cfg domain.APMConfig) error {
	if err := s.currentRoom().ConfigureAPM(cfg); err != nil {
		return result.Transport(err)
	}
	s.apm.Store(&cfg)
	return nil
}

// AddMedia creates and publishes the local audio stream. Only one local
// audio stream may exist at a time.
func (s *RoomSession) AddMedia(cfg transport.AudioStreamConfig) (*MediaStream, error) {
	s.mu.Lock()
	if s.ownPeer.hasLocalAudio() {
		s.mu.Unlock()
		return nil, result.ErrDuplicateMediaStream
	}
	room := s.room
	h := room.CreateAudioStream(cfg)
	if !h.Valid() {
		s.mu.Unlock()
		return nil, result.ErrInvalidMediaHandle
	}
	if err := room.AddMedia(h); err != nil {
		s.mu.Unlock()
		if derr := room.DestroyMedia(h); derr != nil {
			s.logger.Warn().Err(derr).Uint32("handle", uint32(h)).Msg("release rejected media")
		}
		return nil, result.Transport(err)
	}
	m := newMediaStream(h, domain.MediaTypeAudio, false, s.ownPeer, room)
	s.medias[h] = m
	s.ownPeer.addMedia(m)
	s.mu.Unlock()

	s.logger.Info().Uint32("handle", uint32(h)).Msg("local media added")
	if s.autopilot != domain.AutopilotOff && s.graph != nil {
		if err := m.Connect(s.graph); err != nil {
			s.logger.Warn().Err(err).Uint32("handle", uint32(h)).Msg("autopilot connect failed")
		}
	}
	return m, nil
}

// RemoveMedia unpublishes a local stream. Remote streams are owned by their
// peer and cannot be removed.
func (s *RoomSession) RemoveMedia(m *MediaStream) error {
	peerID, err := m.PeerID()
	if err != nil {
		return err
	}
	if peerID != 0 || m.remote {
		return result.ErrNotOwner
	}

	s.mu.Lock()
	if cur, ok := s.medias[m.handle]; !ok || cur != m {
		s.mu.Unlock()
		return result.ErrInvalidMediaHandle
	}
	delete(s.medias, m.handle)
	s.ownPeer.removeMedia(m.handle)
	s.mu.Unlock()

	s.logger.Info().Uint32("handle", uint32(m.handle)).Msg("local media removed")
	return m.Destroy()
}

func (s *RoomSession) RemoveMediaByHandle(h domain.MediaHandle) error {
	m, ok := s.Media(h)
	if !ok {
		return result.ErrInvalidMediaHandle
	}
	return s.RemoveMedia(m)
}

// resetLocked clears everything a connection established. s.mu must be held.
func (s *RoomSession) resetLocked() {
	for _, p := range s.peers {
		if p == s.ownPeer {
			continue
		}
		for _, m := range p.takeMedias() {
			m.invalidate()
		}
	}
	for _, m := range s.ownPeer.takeMedias() {
		m.invalidate()
	}
	clear(s.peers)
	clear(s.medias)
	s.ownPeer.reset()
	s.state = domain.Disconnected
	s.joining = false
	s.joined = nil
	s.roomID = ""
	s.customerID = ""
	s.userData = nil
	s.publishRemoteLocked()
}

// publishRemoteLocked refreshes the snapshot read by the mixer. s.mu must be held.
func (s *RoomSession) publishRemoteLocked() {
	handles := make([]domain.MediaHandle, 0, len(s.medias))
	for h, m := range s.medias {
		if m.remote {
			handles = append(handles, h)
		}
	}
	s.remote.Store(&handles)
}

func (s *RoomSession) attachRoom() {
	if s.autopilot != domain.AutopilotRoom || s.graph == nil {
		return
	}
	if s.attached.CompareAndSwap(false, true) {
		s.graph.AttachRoom(s)
	}
}

func (s *RoomSession) detachRoom() {
	if s.graph == nil {
		return
	}
	if s.attached.CompareAndSwap(true, false) {
		s.graph.DetachRoom(s)
	}
}

// notify queues ns and delivers the queue unless another call is already
// delivering it.
func (s *RoomSession) notify(ns ...Notification) {
	s.enqueue(ns...)
	s.flush()
}

func (s *RoomSession) enqueue(ns ...Notification) {
	if len(ns) == 0 {
		return
	}
	s.notifyMu.Lock()
	s.queue = append(s.queue, ns...)
	s.notifyMu.Unlock()
}

// flush delivers queued notifications in order. A delegate that triggers
// more notifications from Notify gets them after its current call returns.
func (s *RoomSession) flush() {
	s.notifyMu.Lock()
	if s.delivering {
		s.notifyMu.Unlock()
		return
	}
	s.delivering = true
	for len(s.queue) > 0 {
		n := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.notifyMu.Unlock()
		if ref := s.delegate.Load(); ref != nil {
			ref.d.Notify(s, n)
		}
		s.notifyMu.Lock()
	}
	s.queue = nil
	s.delivering = false
	s.notifyMu.Unlock()
}

func (s *RoomSession) isDelivering() bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	return s.delivering
}
