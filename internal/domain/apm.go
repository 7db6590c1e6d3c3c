package domain

import (
	"fmt"
	"strings"
)

type NoiseSuppressionLevel uint8

const (
	NoiseSuppressionNone NoiseSuppressionLevel = iota
	NoiseSuppressionLow
	NoiseSuppressionModerate
	NoiseSuppressionHigh
	NoiseSuppressionVeryHigh
)

var noiseSuppressionNames = [...]string{"none", "low", "moderate", "high", "very_high"}

func (l NoiseSuppressionLevel) String() string {
	if int(l) < len(noiseSuppressionNames) {
		return noiseSuppressionNames[l]
	}
	return fmt.Sprintf("illegal-noise-suppression-level-%d", l)
}

func (l *NoiseSuppressionLevel) Set(plain string) error {
	v := strings.TrimSpace(strings.ToLower(plain))
	for i, name := range noiseSuppressionNames {
		if v == name {
			*l = NoiseSuppressionLevel(i)
			return nil
		}
	}
	return fmt.Errorf("illegal-noise-suppression-level: %s", plain)
}

func (l NoiseSuppressionLevel) MarshalText() ([]byte, error) {
	if int(l) >= len(noiseSuppressionNames) {
		return nil, fmt.Errorf("illegal noise suppression level: %d", l)
	}
	return []byte(l.String()), nil
}

func (l *NoiseSuppressionLevel) UnmarshalText(text []byte) error { return l.Set(string(text)) }

// APMConfig is the audio processing module configuration.
// It is a value type and is always replaced as a whole.
type APMConfig struct {
	VoiceActivityDetection                   bool                  `json:"voice_activity_detection" mapstructure:"voice_activity_detection"`
	VoiceActivityDetectionAttackProbability  float32               `json:"voice_activity_detection_attack_probability" mapstructure:"voice_activity_detection_attack_probability"`
	VoiceActivityDetectionReleaseProbability float32               `json:"voice_activity_detection_release_probability" mapstructure:"voice_activity_detection_release_probability"`
	VolumeGate                               bool                  `json:"volume_gate" mapstructure:"volume_gate"`
	VolumeGateAttackLoudness                 float32               `json:"volume_gate_attack_loudness" mapstructure:"volume_gate_attack_loudness"`
	VolumeGateReleaseLoudness                float32               `json:"volume_gate_release_loudness" mapstructure:"volume_gate_release_loudness"`
	EchoCanceller                            bool                  `json:"echo_canceller" mapstructure:"echo_canceller"`
	HighPassFilter                           bool                  `json:"high_pass_filter" mapstructure:"high_pass_filter"`
	PreAmplifier                             bool                  `json:"pre_amplifier" mapstructure:"pre_amplifier"`
	NoiseSuppressionLevel                    NoiseSuppressionLevel `json:"noise_suppression_level" mapstructure:"noise_suppression_level"`
	TransientSuppressor                      bool                  `json:"transient_suppressor" mapstructure:"transient_suppressor"`
	GainController                           bool                  `json:"gain_controller" mapstructure:"gain_controller"`
}

// DefaultAPMConfig mirrors the settings a fresh room starts with.
func DefaultAPMConfig() APMConfig {
	return APMConfig{
		VoiceActivityDetection:                   true,
		VoiceActivityDetectionAttackProbability:  0.9,
		VoiceActivityDetectionReleaseProbability: 0.8,
		VolumeGate:                               false,
		VolumeGateAttackLoudness:                 -30,
		VolumeGateReleaseLoudness:                -40,
		EchoCanceller:                            true,
		HighPassFilter:                           false,
		PreAmplifier:                             false,
		NoiseSuppressionLevel:                    NoiseSuppressionModerate,
		TransientSuppressor:                      false,
		GainController:                           true,
	}
}
