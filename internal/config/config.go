package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/dkeye/voiceroom/internal/domain"
)

type Audio struct {
	SampleRate int              `mapstructure:"sample_rate"`
	BufferSize int              `mapstructure:"buffer_size"`
	APM        domain.APMConfig `mapstructure:"apm"`
}

type Config struct {
	Mode       string               `mapstructure:"mode"`
	Port       int                  `mapstructure:"port"`
	LogLevel   string               `mapstructure:"log_level"`
	GatewayURL string               `mapstructure:"gateway_url"`
	Autopilot  domain.AutopilotMode `mapstructure:"autopilot"`
	Audio      Audio                `mapstructure:"audio"`
	PingPeriod time.Duration        `mapstructure:"ping_period"`
	Secret     string               `mapstructure:"secret"`
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port out of range: %d", c.Port))
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive: %d", c.Audio.SampleRate))
	}
	if c.Audio.BufferSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_size must be positive: %d", c.Audio.BufferSize))
	}
	if c.Secret == "" {
		errs = append(errs, errors.New("secret is required"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	apm := domain.DefaultAPMConfig()

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("gateway_url", "https://gateway.voiceroom.io")
	v.SetDefault("autopilot", "room")
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.buffer_size", 480)
	v.SetDefault("ping_period", "30s")

	v.SetDefault("audio.apm.voice_activity_detection", apm.VoiceActivityDetection)
	v.SetDefault("audio.apm.voice_activity_detection_attack_probability", apm.VoiceActivityDetectionAttackProbability)
	v.SetDefault("audio.apm.voice_activity_detection_release_probability", apm.VoiceActivityDetectionReleaseProbability)
	v.SetDefault("audio.apm.volume_gate", apm.VolumeGate)
	v.SetDefault("audio.apm.volume_gate_attack_loudness", apm.VolumeGateAttackLoudness)
	v.SetDefault("audio.apm.volume_gate_release_loudness", apm.VolumeGateReleaseLoudness)
	v.SetDefault("audio.apm.echo_canceller", apm.EchoCanceller)
	v.SetDefault("audio.apm.high_pass_filter", apm.HighPassFilter)
	v.SetDefault("audio.apm.pre_amplifier", apm.PreAmplifier)
	v.SetDefault("audio.apm.noise_suppression_level", apm.NoiseSuppressionLevel.String())
	v.SetDefault("audio.apm.transient_suppressor", apm.TransientSuppressor)
	v.SetDefault("audio.apm.gain_controller", apm.GainController)
}

// Load reads config/config.<CONFIG_ENV>.yaml, then applies VOICE_*
// environment overrides (VOICE_AUDIO_SAMPLE_RATE for audio.sample_rate).
func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile is Load with an explicit file. A missing file is not an error.
func LoadFile(fileName string) (*Config, error) {
	logger := log.With().Str("module", "config").Logger()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("VOICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", fileName, err)
		}
		logger.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		logger.Info().Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.Info().Str("mode", cfg.Mode).Int("port", cfg.Port).Str("autopilot", cfg.Autopilot.String()).Msg("config ready")
	return &cfg, nil
}
