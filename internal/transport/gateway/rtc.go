package gateway

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/dkeye/voiceroom/internal/domain"
)

// negotiationLabel is the data channel that makes the first offer carry an
// SCTP section, so media channels can be opened later without renegotiation.
const negotiationLabel = "_negotiation"

var errLinkClosed = errors.New("media link closed")

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

// mediaLink carries media packets to and from the gateway.
type mediaLink interface {
	offer(done <-chan struct{}) (string, error)
	answer(sdp string) error
	addCandidate(c candidatePayload) error
	open(h domain.MediaHandle) error
	send(h domain.MediaHandle, data []byte) bool
	closeChannel(h domain.MediaHandle)
	close() error
}

// rtcLink is a mediaLink over WebRTC data channels: one unordered,
// unreliable channel per local stream, and one per remote stream opened by
// the gateway.
type rtcLink struct {
	pc     *webrtc.PeerConnection
	logger zerolog.Logger

	mu       sync.RWMutex
	channels map[domain.MediaHandle]*webrtc.DataChannel
}

func newRTCLink(
	cfg webrtc.Configuration,
	logger zerolog.Logger,
	deliver func(peer domain.PeerID, mediaID uint32, data []byte),
	lost func(),
) (*rtcLink, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	l := &rtcLink{
		pc:       pc,
		logger:   logger,
		channels: make(map[domain.MediaHandle]*webrtc.DataChannel),
	}

	pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		logger.Info().Str("peer_connection_state", s.String()).Msg("peer state")
		if s == webrtc.PeerConnectionStateFailed {
			lost()
		}
	})

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		peer, mediaID, ok := parseRemoteLabel(dc.Label())
		if !ok {
			logger.Debug().Str("label", dc.Label()).Msg("ignoring data channel")
			return
		}
		logger.Debug().Str("label", dc.Label()).Msg("remote media channel")
		dc.OnMessage(func(msg webrtc.DataChannelMessage) {
			deliver(peer, mediaID, msg.Data)
		})
	})

	if _, err := pc.CreateDataChannel(negotiationLabel, nil); err != nil {
		_ = pc.Close()
		return nil, err
	}
	return l, nil
}

// offer creates a complete offer; candidates are gathered before it is
// returned.
func (l *rtcLink) offer(done <-chan struct{}) (string, error) {
	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		return "", err
	}
	gatherComplete := webrtc.GatheringCompletePromise(l.pc)
	if err := l.pc.SetLocalDescription(offer); err != nil {
		return "", err
	}
	select {
	case <-gatherComplete:
	case <-done:
		return "", errLinkClosed
	}
	return l.pc.LocalDescription().SDP, nil
}

func (l *rtcLink) answer(sdp string) error {
	return l.pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeAnswer,
		SDP:  sdp,
	})
}

func (l *rtcLink) addCandidate(c candidatePayload) error {
	cand := webrtc.ICECandidateInit{Candidate: c.Candidate}
	if c.SDPMid != "" {
		cand.SDPMid = &c.SDPMid
	}
	cand.SDPMLineIndex = &c.SDPMLineIndex
	return l.pc.AddICECandidate(cand)
}

func (l *rtcLink) open(h domain.MediaHandle) error {
	ordered := false
	retransmits := uint16(0)
	dc, err := l.pc.CreateDataChannel(localLabel(h), &webrtc.DataChannelInit{
		Ordered:        &ordered,
		MaxRetransmits: &retransmits,
	})
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.channels[h] = dc
	l.mu.Unlock()
	return nil
}

// send never blocks; it reports false when the channel is not open yet.
func (l *rtcLink) send(h domain.MediaHandle, data []byte) bool {
	l.mu.RLock()
	dc := l.channels[h]
	l.mu.RUnlock()
	if dc == nil || dc.ReadyState() != webrtc.DataChannelStateOpen {
		return false
	}
	return dc.Send(data) == nil
}

func (l *rtcLink) closeChannel(h domain.MediaHandle) {
	l.mu.Lock()
	dc := l.channels[h]
	delete(l.channels, h)
	l.mu.Unlock()
	if dc != nil {
		_ = dc.Close()
	}
}

func (l *rtcLink) close() error {
	l.mu.Lock()
	clear(l.channels)
	l.mu.Unlock()
	if err := l.pc.Close(); err != nil {
		l.logger.Error().Err(err).Msg("close error")
		return err
	}
	l.logger.Info().Msg("peer connection closed")
	return nil
}

func localLabel(h domain.MediaHandle) string { return "media:" + h.String() }

// parseRemoteLabel reads a "media:<peer>:<media>" channel label.
func parseRemoteLabel(label string) (domain.PeerID, uint32, bool) {
	rest, ok := strings.CutPrefix(label, "media:")
	if !ok {
		return 0, 0, false
	}
	peerPart, mediaPart, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, false
	}
	peer, err := strconv.ParseUint(peerPart, 10, 64)
	if err != nil {
		return 0, 0, false
	}
	media, err := strconv.ParseUint(mediaPart, 10, 32)
	if err != nil {
		return 0, 0, false
	}
	return domain.PeerID(peer), uint32(media), true
}

func remoteLabel(peer domain.PeerID, mediaID uint32) string {
	return fmt.Sprintf("media:%d:%d", peer, mediaID)
}
