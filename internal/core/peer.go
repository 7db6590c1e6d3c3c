package core

import (
	"bytes"
	"sync"

	"github.com/dkeye/voiceroom/internal/domain"
)

// Peer is one participant of a room and the media it publishes.
type Peer struct {
	mu       sync.RWMutex
	id       domain.PeerID
	userID   domain.UserID
	userData []byte
	medias   map[domain.MediaHandle]*MediaStream
}

func newPeer(id domain.PeerID, userID domain.UserID, userData []byte) *Peer {
	return &Peer{
		id:       id,
		userID:   userID,
		userData: bytes.Clone(userData),
		medias:   make(map[domain.MediaHandle]*MediaStream),
	}
}

func (p *Peer) ID() domain.PeerID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.id
}

func (p *Peer) UserID() domain.UserID {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.userID
}

// UserData returns a copy of the peer's user data.
func (p *Peer) UserData() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return bytes.Clone(p.userData)
}

func (p *Peer) Media(h domain.MediaHandle) (*MediaStream, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.medias[h]
	return m, ok
}

func (p *Peer) Medias() []*MediaStream {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]*MediaStream, 0, len(p.medias))
	for _, m := range p.medias {
		out = append(out, m)
	}
	return out
}

func (p *Peer) setIdentity(id domain.PeerID, userID domain.UserID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = id
	if userID != "" {
		p.userID = userID
	}
}

func (p *Peer) setUserData(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userData = bytes.Clone(data)
}

func (p *Peer) addMedia(m *MediaStream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.medias[m.handle] = m
}

func (p *Peer) removeMedia(h domain.MediaHandle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.medias, h)
}

// hasLocalAudio reports whether the peer already publishes a local audio stream.
func (p *Peer) hasLocalAudio() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, m := range p.medias {
		if !m.remote && m.typ == domain.MediaTypeAudio {
			return true
		}
	}
	return false
}

// takeMedias empties the media table and returns what was in it.
func (p *Peer) takeMedias() []*MediaStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*MediaStream, 0, len(p.medias))
	for h, m := range p.medias {
		out = append(out, m)
		delete(p.medias, h)
	}
	return out
}

func (p *Peer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.id = 0
	p.userID = ""
	p.userData = nil
	clear(p.medias)
}
