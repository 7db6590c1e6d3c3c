package core

import (
	"github.com/dkeye/voiceroom/internal/domain"
	"github.com/dkeye/voiceroom/internal/transport"
)

// MixSource is a room whose remote streams are mixed as a single node.
type MixSource interface {
	// MixIO is the transport that owns the remote handles.
	MixIO() transport.MediaIO
	// RemoteHandles is an immutable snapshot; callers must not modify it.
	RemoteHandles() []domain.MediaHandle
}

// Graph is the local render/capture graph. Implementations must be safe for
// concurrent use; sessions call it from their dispatch goroutine and from
// API callers.
type Graph interface {
	AttachRoom(src MixSource)
	DetachRoom(src MixSource)
	// ConnectMedia routes a remote stream to playback or a local stream to
	// capture.
	ConnectMedia(m *MediaStream) error
	DisconnectMedia(m *MediaStream)
}
