package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/result"
	"github.com/dkeye/voiceroom/internal/transport"
)

func TestMediaStream_Direction(t *testing.T) {
	h := newHarness(t, domain.AutopilotOff)
	h.join(7)
	local := h.addLocalMedia(5)
	h.session.HandleEvent(transport.PeerJoined{PeerID: 9})
	h.session.HandleEvent(transport.MediaAdded{PeerID: 9, Handle: 100})
	remote, ok := h.session.Media(100)
	require.True(t, ok)

	buf := make([]float32, 4)
	_, err := local.Pull(buf)
	assert.ErrorIs(t, err, result.ErrInvalidState)
	assert.ErrorIs(t, remote.Push(buf), result.ErrInvalidState)

	room := h.room()
	room.EXPECT().PushAudio(domain.MediaHandle(5), buf).Return(nil)
	room.EXPECT().ReadAudio(domain.MediaHandle(100), buf).Return(3, nil)

	require.NoError(t, local.Push(buf))
	n, err := remote.Pull(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMediaStream_Stats(t *testing.T) {
	h := newHarness(t, domain.AutopilotOff)
	m := h.addLocalMedia(5)
	room := h.room()

	want := transport.MediaStats{PacketsTotal: 10, PacketsLost: 1}
	room.EXPECT().MediaStats(domain.MediaHandle(5)).Return(want, nil)
	assert.Equal(t, want, m.Stats())

	room.EXPECT().MediaStats(domain.MediaHandle(5)).Return(transport.MediaStats{}, errors.New("gone"))
	assert.Equal(t, transport.MediaStats{}, m.Stats())
}

func TestMediaStream_DestroyOnce(t *testing.T) {
	h := newHarness(t, domain.AutopilotOff)
	m := h.addLocalMedia(5)
	h.room().EXPECT().DestroyMedia(domain.MediaHandle(5)).Return(nil).Times(1)

	require.NoError(t, m.Destroy())
	require.NoError(t, m.Destroy())
	assert.ErrorIs(t, m.Push(nil), result.ErrInvalidMediaHandle)
	assert.ErrorIs(t, m.Connect(h.graph), result.ErrInvalidMediaHandle)
	assert.Equal(t, transport.MediaStats{}, m.Stats())
}

func TestMediaStream_ConnectMovesGraph(t *testing.T) {
	h := newHarness(t, domain.AutopilotOff)
	m := h.addLocalMedia(5)
	other := &fakeGraph{}

	require.NoError(t, m.Connect(h.graph))
	require.NoError(t, m.Connect(h.graph))
	assert.Len(t, h.graph.connected, 1)

	require.NoError(t, m.Connect(other))
	assert.Equal(t, []*MediaStream{m}, h.graph.disconnected)
	assert.Equal(t, []*MediaStream{m}, other.connected)
	assert.True(t, m.Connected())

	m.Disconnect()
	assert.False(t, m.Connected())
	assert.Equal(t, []*MediaStream{m}, other.disconnected)
}

func TestMediaStream_PeerIDTransportError(t *testing.T) {
	h := newHarness(t, domain.AutopilotOff)
	m := h.addLocalMedia(5)
	h.room().EXPECT().MediaPeerID(domain.MediaHandle(5)).Return(domain.PeerID(0), errors.New("stale"))

	assert.ErrorIs(t, h.session.RemoveMedia(m), result.ErrTransport)
	_, ok := h.session.Media(5)
	assert.True(t, ok)
}
