// Package transport is the contract between room sessions and the network
// layer that carries signalling and media.
package transport

//go:generate mockgen -source=transport.go -destination=transportmock/transport.go -package=transportmock

import (
	"context"

	"github.com/dkeye/voiceroom/internal/domain"
)

// JoinRequest is sent once per connection attempt.
type JoinRequest struct {
	Gateway string
	Token   string
	RoomID  domain.RoomID
}

type AudioStreamConfig struct {
	SampleRate   uint32 `json:"sample_rate"`
	ChannelCount uint8  `json:"channel_count"`
}

func DefaultAudioStreamConfig() AudioStreamConfig {
	return AudioStreamConfig{SampleRate: 48000, ChannelCount: 1}
}

// MediaStats is best-effort telemetry about one media stream.
type MediaStats struct {
	PacketsTotal           uint64 `json:"packets_total"`
	PacketsProcessed       uint64 `json:"packets_processed"`
	PacketsArrivedTooEarly uint64 `json:"packets_arrived_too_early"`
	PacketsArrivedTooLate  uint64 `json:"packets_arrived_too_late"`
	PacketsDropped         uint64 `json:"packets_dropped"`
	PacketsInvalid         uint64 `json:"packets_invalid"`
	PacketsRepeated        uint64 `json:"packets_repeated"`
	PacketsLost            uint64 `json:"packets_lost"`
}

// MediaIO moves samples in and out of media streams owned by a Room.
// Samples are mono float32 in [-1, 1].
type MediaIO interface {
	// PushAudio hands captured samples to a local stream. It must not block.
	PushAudio(h domain.MediaHandle, samples []float32) error
	// ReadAudio fills out from a remote stream and returns the sample count.
	ReadAudio(h domain.MediaHandle, out []float32) (int, error)
	// MixAudio mixes all handles into out in a single pass.
	MixAudio(hs []domain.MediaHandle, out []float32) (int, error)
	// MediaPeerID returns 0 for local streams.
	MediaPeerID(h domain.MediaHandle) (domain.PeerID, error)
	MediaStats(h domain.MediaHandle) (MediaStats, error)
	// DestroyMedia unpublishes a local stream or releases a remote one.
	DestroyMedia(h domain.MediaHandle) error
}

// Room is one transport-level room object. It is single use: after Close a
// new one is requested from the Factory.
type Room interface {
	MediaIO

	Join(ctx context.Context, req JoinRequest) error
	// Events delivers events one at a time and is closed by Close.
	Events() <-chan Event
	Close() error

	UpdatePosition(x, y float32) error
	SetPositionScale(scale float32) error
	// UpdateUserData stores data as initial user data when called before Join.
	UpdateUserData(target domain.UserDataTarget, data []byte) error
	// SendMessage broadcasts to the room when targets is empty.
	SendMessage(data []byte, targets []domain.PeerID) error
	ConfigureAPM(cfg domain.APMConfig) error

	// CreateAudioStream returns 0 when the stream cannot be created.
	CreateAudioStream(cfg AudioStreamConfig) domain.MediaHandle
	AddMedia(h domain.MediaHandle) error
}

type Factory interface {
	NewRoom(apm domain.APMConfig) (Room, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(apm domain.APMConfig) (Room, error)

func (f FactoryFunc) NewRoom(apm domain.APMConfig) (Room, error) { return f(apm) }
