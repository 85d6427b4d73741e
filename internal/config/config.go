package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "config/local.yaml"

type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Signaling SignalingConfig `yaml:"signaling"`
	WebRTC    WebRTCConfig    `yaml:"webrtc"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:""`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"20s"`
}

type SignalingConfig struct {
	Path            string `yaml:"path" env:"SIGNALING_PATH" env-default:"/ws"`
	ReadBufferSize  int    `yaml:"read_buffer_size" env-default:"1024"`
	WriteBufferSize int    `yaml:"write_buffer_size" env-default:"1024"`
	SendQueueSize   int    `yaml:"send_queue_size" env-default:"16"`

	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
	PingInterval time.Duration `yaml:"ping_interval" env-default:"30s"`
	PongTimeout  time.Duration `yaml:"pong_timeout" env-default:"60s"`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers" env:"STUN_SERVERS" env-separator:","`
}

type SandboxConfig struct {
	Image        string        `yaml:"image" env:"SANDBOX_IMAGE" env-default:"react-native-emulator:latest"`
	StagingRoot  string        `yaml:"staging_root" env:"SANDBOX_STAGING_ROOT" env-default:"./user_data"`
	MountPoint   string        `yaml:"mount_point" env-default:"/app/src"`
	SignalingURL string        `yaml:"signaling_url" env:"SANDBOX_SIGNALING_URL" env-default:"ws://host.docker.internal:8080/ws"`
	Privileged   bool          `yaml:"privileged" env-default:"true"`
	StopTimeout  time.Duration `yaml:"stop_timeout" env-default:"10s"`
	DockerBinary string        `yaml:"docker_binary" env:"DOCKER_BINARY" env-default:"docker"`
	NamePrefix   string        `yaml:"name_prefix" env-default:"rnplay-"`
	ExtraHosts   []string      `yaml:"extra_hosts" env-separator:","`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:""`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET" env-default:""`
}

// ResolvePath picks the config file path: explicit flag value, then
// CONFIG_PATH, then the local default.
func ResolvePath(flagValue string) string {
	res := flagValue

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &pathError{path: configPath}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	return &cfg, nil
}

type pathError struct {
	path string
}

func (e *pathError) Error() string {
	return "config file does not exist: " + e.path
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
	if len(c.Sandbox.ExtraHosts) == 0 {
		c.Sandbox.ExtraHosts = []string{"host.docker.internal:host-gateway"}
	}
	if c.Signaling.SendQueueSize <= 0 {
		c.Signaling.SendQueueSize = 16
	}
}
