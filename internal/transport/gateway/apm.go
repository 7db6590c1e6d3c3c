package gateway

import (
	"math"

	"github.com/dkeye/voiceroom/internal/domain"
)

const preAmplifierGain = 2

// processor applies the parts of the APM configuration that act on
// outgoing samples: the pre-amplifier and the volume gate.
type processor struct {
	cfg   domain.APMConfig
	gated bool
}

func newProcessor(cfg domain.APMConfig) *processor {
	return &processor{cfg: cfg, gated: cfg.VolumeGate}
}

// process modifies samples in place and reports whether they should be sent.
func (p *processor) process(samples []float32) bool {
	if p.cfg.PreAmplifier {
		for i, s := range samples {
			samples[i] = max(-1, min(1, s*preAmplifierGain))
		}
	}
	if !p.cfg.VolumeGate {
		return true
	}
	db := loudness(samples)
	switch {
	case p.gated && db >= p.cfg.VolumeGateAttackLoudness:
		p.gated = false
	case !p.gated && db < p.cfg.VolumeGateReleaseLoudness:
		p.gated = true
	}
	return !p.gated
}

// loudness is the RMS level of samples in dBFS.
func loudness(samples []float32) float32 {
	if len(samples) == 0 {
		return -math.MaxFloat32
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms == 0 {
		return -math.MaxFloat32
	}
	return float32(20 * math.Log10(rms))
}
