// Package domain holds the identifiers, states and configuration values
// shared by every layer.
package domain

import "strconv"

type (
	RoomID     string
	UserID     string
	CustomerID string
)

// PeerID identifies a participant inside a room. Zero means unassigned.
type PeerID uint64

func (p PeerID) String() string { return strconv.FormatUint(uint64(p), 10) }

// MediaHandle identifies a media stream at the transport. Zero is invalid.
type MediaHandle uint32

func (h MediaHandle) String() string { return strconv.FormatUint(uint64(h), 10) }

func (h MediaHandle) Valid() bool { return h != 0 }

type MediaType uint8

const (
	MediaTypeAudio MediaType = iota
)

func (t MediaType) String() string {
	switch t {
	case MediaTypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}
