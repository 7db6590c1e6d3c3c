package audio

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/voiceroom/internal/core"
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

const (
	DefaultMaxFrames  = 4096
	DefaultMaxHandles = 256
)

var (
	// ErrRenderFailed is returned by Render when every mix call failed.
	ErrRenderFailed = errors.New("audio render failed")
	// ErrBufferTooLarge is returned when a callback asks for more frames
	// than the engine preallocated.
	ErrBufferTooLarge = errors.New("audio buffer exceeds preallocated size")
)

// graphState is immutable once published; writers copy it.
type graphState struct {
	rooms   []core.MixSource
	medias  []*core.MediaStream
	capture *core.MediaStream
}

type EngineOptions struct {
	// MaxFrames is the largest buffer a device callback may pass.
	MaxFrames int
	// MaxHandles bounds the handles passed to one MixAudio call. Larger
	// sets are mixed in several calls.
	MaxHandles int
}

// Engine is the render/capture graph. Render and Capture take no locks and
// only read the published graph snapshot; a stream removed during a mix is
// skipped on the next tick.
type Engine struct {
	device Device

	mu      sync.Mutex
	running bool

	graph atomic.Pointer[graphState]

	scratch []float32
	handles []domain.MediaHandle

	captureDrops atomic.Uint64
}

var _ core.Graph = (*Engine)(nil)

func NewEngine(device Device, opts EngineOptions) *Engine {
	frames := opts.MaxFrames
	if frames <= 0 {
		frames = DefaultMaxFrames
	}
	handles := opts.MaxHandles
	if handles <= 0 {
		handles = DefaultMaxHandles
	}
	e := &Engine{
		device:  device,
		scratch: make([]float32, frames),
		handles: make([]domain.MediaHandle, 0, handles),
	}
	e.graph.Store(&graphState{})
	return e
}

// Start is a no-op when the engine already runs.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.startLocked()
}

func (e *Engine) startLocked() error {
	if e.running {
		return nil
	}
	if err := e.device.Start(e.Render, e.Capture); err != nil {
		return err
	}
	e.running = true
	log.Info().Str("module", "audio.engine").Msg("engine started")
	return nil
}

// Stop is a no-op when the engine is not running.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopLocked()
}

func (e *Engine) stopLocked() error {
	if !e.running {
		return nil
	}
	e.running = false
	if err := e.device.Stop(); err != nil {
		return err
	}
	log.Info().Str("module", "audio.engine").Msg("engine stopped")
	return nil
}

func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// OnRouteChange restarts a running engine after the platform switched
// devices. A failed restart leaves audio down and is only logged.
func (e *Engine) OnRouteChange() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	if err := e.stopLocked(); err != nil {
		log.Warn().Err(err).Str("module", "audio.engine").Msg("route change: stop failed")
	}
	if err := e.startLocked(); err != nil {
		log.Warn().Err(err).Str("module", "audio.engine").Msg("route change: restart failed, audio stays down")
	}
}

// CaptureDrops counts captured buffers the outbound stream refused.
func (e *Engine) CaptureDrops() uint64 { return e.captureDrops.Load() }

// update publishes a modified copy of the graph.
func (e *Engine) update(fn func(g *graphState) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cur := e.graph.Load()
	next := &graphState{
		rooms:   slices.Clone(cur.rooms),
		medias:  slices.Clone(cur.medias),
		capture: cur.capture,
	}
	if err := fn(next); err != nil {
		return err
	}
	e.graph.Store(next)
	return nil
}

func (e *Engine) AttachRoom(src core.MixSource) {
	_ = e.update(func(g *graphState) error {
		if !slices.Contains(g.rooms, src) {
			g.rooms = append(g.rooms, src)
		}
		return nil
	})
	log.Debug().Str("module", "audio.engine").Msg("room attached")
}

func (e *Engine) DetachRoom(src core.MixSource) {
	_ = e.update(func(g *graphState) error {
		g.rooms = slices.DeleteFunc(g.rooms, func(r core.MixSource) bool { return r == src })
		return nil
	})
	log.Debug().Str("module", "audio.engine").Msg("room detached")
}

// ConnectMedia routes a remote stream to playback, or makes a local stream
// the capture target. Only one capture target may exist.
func (e *Engine) ConnectMedia(m *core.MediaStream) error {
	return e.update(func(g *graphState) error {
		if !m.IsRemote() {
			if g.capture != nil && g.capture != m {
				return result.ErrDuplicateMediaStream
			}
			g.capture = m
			return nil
		}
		if !slices.Contains(g.medias, m) {
			g.medias = append(g.medias, m)
		}
		return nil
	})
}

func (e *Engine) DisconnectMedia(m *core.MediaStream) {
	_ = e.update(func(g *graphState) error {
		if g.capture == m {
			g.capture = nil
		}
		g.medias = slices.DeleteFunc(g.medias, func(x *core.MediaStream) bool { return x == m })
		return nil
	})
}

// Render mixes every attached room and connected remote stream into out.
// Each transport is mixed with a single call covering all its handles, or
// one call per MaxHandles handles for larger sets.
func (e *Engine) Render(out []float32) (int, error) {
	clear(out)
	if len(out) > len(e.scratch) {
		return 0, ErrBufferTooLarge
	}
	g := e.graph.Load()
	scratch := e.scratch[:len(out)]

	filled, calls, failures := 0, 0, 0
	mix := func(io transport.MediaIO, hs []domain.MediaHandle) {
		if io == nil || len(hs) == 0 {
			return
		}
		calls++
		n, err := io.MixAudio(hs, scratch)
		if err != nil {
			failures++
			return
		}
		n = min(n, len(out))
		for i := range n {
			out[i] += scratch[i]
		}
		filled = max(filled, n)
	}

	// batch mixes the handles of one transport, cap(e.handles) at a time,
	// so the handle buffer never grows.
	hs := e.handles[:0]
	batch := func(io transport.MediaIO, h domain.MediaHandle) {
		if len(hs) == cap(hs) {
			mix(io, hs)
			hs = hs[:0]
		}
		hs = append(hs, h)
	}
	flush := func(io transport.MediaIO) {
		mix(io, hs)
		hs = hs[:0]
	}

	for _, src := range g.rooms {
		io := src.MixIO()
		for _, h := range src.RemoteHandles() {
			if !connectedOn(g.medias, io, h) {
				batch(io, h)
			}
		}
		for _, m := range g.medias {
			if m.IO() == io {
				batch(io, m.Handle())
			}
		}
		flush(io)
	}

	for i, m := range g.medias {
		io := m.IO()
		if attachedIO(g.rooms, io) || groupedBefore(g.medias[:i], io) {
			continue
		}
		for _, other := range g.medias[i:] {
			if other.IO() == io {
				batch(io, other.Handle())
			}
		}
		flush(io)
	}

	for i := range filled {
		out[i] = max(-1, min(1, out[i]))
	}
	if calls > 0 && failures == calls {
		return 0, ErrRenderFailed
	}
	return filled, nil
}

// Capture pushes recorded samples into the connected local stream.
func (e *Engine) Capture(in []float32) {
	m := e.graph.Load().capture
	if m == nil {
		return
	}
	if err := m.Push(in); err != nil {
		e.captureDrops.Add(1)
	}
}

// Close stops the engine and empties the graph.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	err := e.stopLocked()
	e.graph.Store(&graphState{})
	return err
}

func connectedOn(medias []*core.MediaStream, io transport.MediaIO, h domain.MediaHandle) bool {
	for _, m := range medias {
		if m.Handle() == h && m.IO() == io {
			return true
		}
	}
	return false
}

func attachedIO(rooms []core.MixSource, io transport.MediaIO) bool {
	for _, r := range rooms {
		if r.MixIO() == io {
			return true
		}
	}
	return false
}

func groupedBefore(medias []*core.MediaStream, io transport.MediaIO) bool {
	for _, m := range medias {
		if m.IO() == io {
			return true
		}
	}
	return false
}
