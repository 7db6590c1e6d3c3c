// Package audio drives the local render/capture graph from a platform
// audio clock.
package audio

// RenderFunc fills out with playback samples and returns how many it wrote.
type RenderFunc func(out []float32) (int, error)

// CaptureFunc receives samples recorded by the input device.
type CaptureFunc func(in []float32)

// Device is the platform audio I/O. It calls render and capture
// periodically from its own real-time context until stopped.
type Device interface {
	Start(render RenderFunc, capture CaptureFunc) error
	Stop() error
}
