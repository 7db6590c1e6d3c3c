package audio

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// ClockDevice is a headless Device: a ticker stands in for the sound card
// clock. Rendered audio goes to Sink, captured audio comes from Source.
type ClockDevice struct {
	SampleRate int
	Frames     int
	// Sink receives each rendered buffer; it may be nil.
	Sink func(samples []float32)
	// Source fills a capture buffer and returns the sample count; it may be nil.
	Source func(buf []float32) int

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     conc.WaitGroup
}

var errClockConfig = errors.New("clock device: sample rate and frames must be positive")

func NewClockDevice(sampleRate, frames int) *ClockDevice {
	return &ClockDevice{SampleRate: sampleRate, Frames: frames}
}

// Period is the time covered by one buffer.
func (d *ClockDevice) Period() time.Duration {
	return time.Duration(d.Frames) * time.Second / time.Duration(d.SampleRate)
}

func (d *ClockDevice) Start(render RenderFunc, capture CaptureFunc) error {
	if d.SampleRate <= 0 || d.Frames <= 0 {
		return errClockConfig
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.wg.Go(func() { d.loop(ctx, render, capture) })
	return nil
}

func (d *ClockDevice) Stop() error {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	d.wg.Wait()
	return nil
}

func (d *ClockDevice) loop(ctx context.Context, render RenderFunc, capture CaptureFunc) {
	out := make([]float32, d.Frames)
	in := make([]float32, d.Frames)
	ticker := time.NewTicker(d.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "audio.clock").Msg("clock stopped")
			return
		case <-ticker.C:
		}
		if d.Source != nil && capture != nil {
			if n := d.Source(in); n > 0 {
				capture(in[:min(n, len(in))])
			}
		}
		if render == nil {
			continue
		}
		n, err := render(out)
		if err != nil {
			clear(out)
			n = len(out)
		}
		if d.Sink != nil {
			d.Sink(out[:n])
		}
	}
}
