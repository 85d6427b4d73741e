package config

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// BridgeConfig is read from the environment the lifecycle manager injects
// into the sandbox.
type BridgeConfig struct {
	Env          string   `env:"ENV" env-default:"prod"`
	ProjectID    string   `env:"PROJECT_ID" env-required:"true"`
	SignalingURL string   `env:"SIGNALING_SERVER_URL" env-default:"ws://host.docker.internal:8080/ws"`
	STUNServers  []string `env:"STUN_SERVERS" env-separator:"," env-default:"stun:stun.l.google.com:19302"`

	ADBBinary     string        `env:"ADB_BINARY" env-default:"adb"`
	SwipeDuration time.Duration `env:"SWIPE_DURATION" env-default:"150ms"`

	CaptureEnabled bool   `env:"CAPTURE_ENABLED" env-default:"true"`
	FFmpegBinary   string `env:"FFMPEG_BINARY" env-default:"ffmpeg"`
	CaptureInput   string `env:"CAPTURE_INPUT" env-default:"tcp://127.0.0.1:5555"`
	RTPAddress     string `env:"RTP_ADDRESS" env-default:"127.0.0.1:5004"`
}

func LoadBridge() (*BridgeConfig, error) {
	var cfg BridgeConfig

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
