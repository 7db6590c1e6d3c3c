package core

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

// MediaStream is one audio channel. Local streams push captured samples to
// the transport; remote streams are pulled for playback. Type and direction
// never change after construction.
type MediaStream struct {
	handle domain.MediaHandle
	typ    domain.MediaType
	remote bool
	owner  *Peer
	io     transport.MediaIO

	active    atomic.Bool
	destroyed atomic.Bool

	mu    sync.Mutex
	graph Graph
}

func newMediaStream(h domain.MediaHandle, typ domain.MediaType, remote bool, owner *Peer, io transport.MediaIO) *MediaStream {
	return &MediaStream{handle: h, typ: typ, remote: remote, owner: owner, io: io}
}

func (m *MediaStream) Handle() domain.MediaHandle { return m.handle }
func (m *MediaStream) Type() domain.MediaType     { return m.typ }
func (m *MediaStream) IsRemote() bool             { return m.remote }

// IO is the transport the stream's samples flow through.
func (m *MediaStream) IO() transport.MediaIO { return m.io }

// Active reports whether the owning peer is currently talking on this stream.
func (m *MediaStream) Active() bool { return m.active.Load() }

func (m *MediaStream) setActive(v bool) { m.active.Store(v) }

// OwnerID is the id of the peer table entry holding the stream.
func (m *MediaStream) OwnerID() domain.PeerID {
	if m.owner == nil {
		return 0
	}
	return m.owner.ID()
}

// PeerID asks the transport which peer produces the stream; 0 means local.
func (m *MediaStream) PeerID() (domain.PeerID, error) {
	if m.destroyed.Load() {
		return 0, result.Transportf("media %s: stale handle", m.handle)
	}
	id, err := m.io.MediaPeerID(m.handle)
	if err != nil {
		return 0, result.Transport(err)
	}
	return id, nil
}

// Push sends captured samples. Only valid on local streams.
func (m *MediaStream) Push(samples []float32) error {
	if m.remote {
		return result.ErrInvalidState
	}
	if m.destroyed.Load() {
		return result.ErrInvalidMediaHandle
	}
	return result.Transport(m.io.PushAudio(m.handle, samples))
}

// Pull fills out with received samples and returns how many were written.
// Only valid on remote streams.
func (m *MediaStream) Pull(out []float32) (int, error) {
	if !m.remote {
		return 0, result.ErrInvalidState
	}
	if m.destroyed.Load() {
		return 0, result.ErrInvalidMediaHandle
	}
	n, err := m.io.ReadAudio(m.handle, out)
	if err != nil {
		return n, result.Transport(err)
	}
	return n, nil
}

// Stats never fails; a zero value is returned when the query does.
func (m *MediaStream) Stats() transport.MediaStats {
	if m.destroyed.Load() {
		return transport.MediaStats{}
	}
	st, err := m.io.MediaStats(m.handle)
	if err != nil {
		log.Debug().Err(err).Str("module", "core.media").Uint32("handle", uint32(m.handle)).Msg("stats unavailable")
		return transport.MediaStats{}
	}
	return st
}

// Connect wires the stream into g. A stream is in at most one graph.
func (m *MediaStream) Connect(g Graph) error {
	if m.destroyed.Load() {
		return result.ErrInvalidMediaHandle
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.graph == g {
		return nil
	}
	if m.graph != nil {
		m.graph.DisconnectMedia(m)
	}
	if err := g.ConnectMedia(m); err != nil {
		m.graph = nil
		return err
	}
	m.graph = g
	return nil
}

func (m *MediaStream) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.graph != nil {
		m.graph.DisconnectMedia(m)
		m.graph = nil
	}
}

// Connected reports whether the stream is individually wired into a graph.
func (m *MediaStream) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.graph != nil
}

// Destroy detaches the stream and releases its transport resources. Calling
// it more than once is a no-op.
func (m *MediaStream) Destroy() error {
	if !m.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	m.Disconnect()
	return result.Transport(m.io.DestroyMedia(m.handle))
}

// invalidate marks the stream dead without touching the transport, for
// streams whose transport object is already gone.
func (m *MediaStream) invalidate() {
	if m.destroyed.CompareAndSwap(false, true) {
		m.Disconnect()
	}
}
