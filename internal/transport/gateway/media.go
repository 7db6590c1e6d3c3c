package gateway

import (
	"slices"
	"sync"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

// remoteBufferSeconds is how much received audio a remote stream holds
// before the oldest samples are overwritten.
const remoteBufferSeconds = 1

const defaultRemoteSampleRate = 48000

type localStream struct {
	cfg       transport.AudioStreamConfig
	published bool

	mu   sync.Mutex
	pack packetizer
	proc *processor

	stats seqTracker
}

type remoteStream struct {
	peer    domain.PeerID
	mediaID uint32
	ring    *sampleRing
	stats   seqTracker
}

type remoteKey struct {
	peer    domain.PeerID
	mediaID uint32
}

// mediaTable holds the streams of one room, keyed by client-side handle.
// Remote streams are also indexed by the gateway's (peer, media) pair.
type mediaTable struct {
	mu      sync.RWMutex
	next    domain.MediaHandle
	locals  map[domain.MediaHandle]*localStream
	remotes map[domain.MediaHandle]*remoteStream
	byKey   map[remoteKey]domain.MediaHandle

	mixMu  sync.Mutex
	mixBuf []float32
}

func newMediaTable() *mediaTable {
	return &mediaTable{
		locals:  make(map[domain.MediaHandle]*localStream),
		remotes: make(map[domain.MediaHandle]*remoteStream),
		byKey:   make(map[remoteKey]domain.MediaHandle),
	}
}

func invalidHandle(h domain.MediaHandle) error {
	return result.FromCode(result.CodeInvalidHandle, "unknown media handle "+h.String())
}

// allocLocked returns the next unused handle. t.mu must be held.
func (t *mediaTable) allocLocked() domain.MediaHandle {
	for {
		t.next++
		if !t.next.Valid() {
			continue
		}
		_, local := t.locals[t.next]
		_, remote := t.remotes[t.next]
		if !local && !remote {
			return t.next
		}
	}
}

func (t *mediaTable) addLocal(cfg transport.AudioStreamConfig, apm domain.APMConfig) domain.MediaHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := t.allocLocked()
	t.locals[h] = &localStream{
		cfg:  cfg,
		pack: packetizer{ssrc: uint32(h)},
		proc: newProcessor(apm),
	}
	return h
}

func (t *mediaTable) markPublished(h domain.MediaHandle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.locals[h]
	if !ok {
		return invalidHandle(h)
	}
	if s.published {
		return result.FromCode(result.CodeDuplicateMedia, "media already published")
	}
	s.published = true
	return nil
}

func (t *mediaTable) localConfig(h domain.MediaHandle) (transport.AudioStreamConfig, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.locals[h]
	if !ok {
		return transport.AudioStreamConfig{}, false
	}
	return s.cfg, true
}

// published lists local streams that should exist on the gateway.
func (t *mediaTable) published() []domain.MediaHandle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]domain.MediaHandle, 0, len(t.locals))
	for h, s := range t.locals {
		if s.published {
			out = append(out, h)
		}
	}
	slices.Sort(out)
	return out
}

func (t *mediaTable) configure(apm domain.APMConfig) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, s := range t.locals {
		s.mu.Lock()
		s.proc = newProcessor(apm)
		s.mu.Unlock()
	}
}

// addRemote registers a stream announced by the gateway and returns its
// handle. Announcing the same stream twice returns the same handle.
func (t *mediaTable) addRemote(peer domain.PeerID, mediaID uint32, sampleRate uint32) domain.MediaHandle {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := remoteKey{peer: peer, mediaID: mediaID}
	if h, ok := t.byKey[key]; ok {
		return h
	}
	if sampleRate == 0 {
		sampleRate = defaultRemoteSampleRate
	}
	h := t.allocLocked()
	t.remotes[h] = &remoteStream{
		peer:    peer,
		mediaID: mediaID,
		ring:    newSampleRing(int(sampleRate) * remoteBufferSeconds),
	}
	t.byKey[key] = h
	return h
}

func (t *mediaTable) remoteHandle(peer domain.PeerID, mediaID uint32) (domain.MediaHandle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byKey[remoteKey{peer: peer, mediaID: mediaID}]
	return h, ok
}

func (t *mediaTable) removeRemote(peer domain.PeerID, mediaID uint32) (domain.MediaHandle, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := remoteKey{peer: peer, mediaID: mediaID}
	h, ok := t.byKey[key]
	if !ok {
		return 0, false
	}
	delete(t.byKey, key)
	delete(t.remotes, h)
	return h, true
}

func (t *mediaTable) dropPeer(peer domain.PeerID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, h := range t.byKey {
		if key.peer == peer {
			delete(t.byKey, key)
			delete(t.remotes, h)
		}
	}
}

func (t *mediaTable) dropRemotes() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.byKey)
	clear(t.remotes)
}

// remove forgets h and reports whether it was a local stream and whether
// that stream had been published.
func (t *mediaTable) remove(h domain.MediaHandle) (local, published bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.locals[h]; ok {
		delete(t.locals, h)
		return true, s.published, nil
	}
	if s, ok := t.remotes[h]; ok {
		delete(t.remotes, h)
		delete(t.byKey, remoteKey{peer: s.peer, mediaID: s.mediaID})
		return false, false, nil
	}
	return false, false, invalidHandle(h)
}

func (t *mediaTable) local(h domain.MediaHandle) *localStream {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locals[h]
}

func (t *mediaTable) remote(h domain.MediaHandle) *remoteStream {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.remotes[h]
}

// push packetizes samples and hands them to link. Samples of unpublished
// streams, or while the link is down, are counted as dropped.
func (t *mediaTable) push(h domain.MediaHandle, samples []float32, link mediaLink) error {
	t.mu.RLock()
	s := t.locals[h]
	published := s != nil && s.published
	t.mu.RUnlock()
	if s == nil {
		return invalidHandle(h)
	}
	if len(samples) == 0 {
		return nil
	}
	s.mu.Lock()
	buf := slices.Clone(samples)
	if !s.proc.process(buf) {
		s.mu.Unlock()
		return nil
	}
	data, err := s.pack.packet(buf)
	s.mu.Unlock()
	if err != nil {
		s.stats.sent(false)
		return result.Transport(err)
	}
	s.stats.sent(published && link != nil && link.send(h, data))
	return nil
}

// deliver decodes one packet received on a remote media channel.
func (t *mediaTable) deliver(peer domain.PeerID, mediaID uint32, data []byte) {
	h, ok := t.remoteHandle(peer, mediaID)
	if !ok {
		return
	}
	s := t.remote(h)
	if s == nil {
		return
	}
	header, samples, err := depacketize(data)
	if err != nil {
		s.stats.invalid()
		return
	}
	if !s.stats.observe(header) {
		return
	}
	if s.ring.write(samples) > 0 {
		s.stats.dropped(1)
	}
}

func (t *mediaTable) read(h domain.MediaHandle, out []float32) (int, error) {
	s := t.remote(h)
	if s == nil {
		return 0, invalidHandle(h)
	}
	return s.ring.read(out), nil
}

// mix sums every known handle into out. Unknown handles are skipped; it
// fails only when none of them is known.
func (t *mediaTable) mix(hs []domain.MediaHandle, out []float32) (int, error) {
	clear(out)
	if len(hs) == 0 {
		return 0, nil
	}
	t.mixMu.Lock()
	defer t.mixMu.Unlock()
	if cap(t.mixBuf) < len(out) {
		t.mixBuf = make([]float32, len(out))
	}
	buf := t.mixBuf[:len(out)]

	found, filled := 0, 0
	for _, h := range hs {
		s := t.remote(h)
		if s == nil {
			continue
		}
		found++
		n := s.ring.read(buf)
		for i := range n {
			out[i] += buf[i]
		}
		filled = max(filled, n)
	}
	if found == 0 {
		return 0, invalidHandle(hs[0])
	}
	for i := range filled {
		out[i] = max(-1, min(1, out[i]))
	}
	return filled, nil
}

func (t *mediaTable) peerID(h domain.MediaHandle) (domain.PeerID, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if _, ok := t.locals[h]; ok {
		return 0, nil
	}
	if s, ok := t.remotes[h]; ok {
		return s.peer, nil
	}
	return 0, invalidHandle(h)
}

func (t *mediaTable) stats(h domain.MediaHandle) (transport.MediaStats, error) {
	if s := t.local(h); s != nil {
		return s.stats.snapshot(), nil
	}
	if s := t.remote(h); s != nil {
		return s.stats.snapshot(), nil
	}
	return transport.MediaStats{}, invalidHandle(h)
}
