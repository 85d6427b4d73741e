package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadPathAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
env: "dev"
sandbox:
  image: "custom:1"
`)

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "/ws", cfg.Signaling.Path)
	assert.Equal(t, 16, cfg.Signaling.SendQueueSize)
	assert.Equal(t, 30*time.Second, cfg.Signaling.PingInterval)
	assert.Equal(t, 60*time.Second, cfg.Signaling.PongTimeout)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.WebRTC.STUNServers)
	assert.Equal(t, "custom:1", cfg.Sandbox.Image)
	assert.Equal(t, "/app/src", cfg.Sandbox.MountPoint)
	assert.Equal(t, 10*time.Second, cfg.Sandbox.StopTimeout)
	assert.Equal(t, []string{"host.docker.internal:host-gateway"}, cfg.Sandbox.ExtraHosts)
}

func TestLoadPathKeepsFileValues(t *testing.T) {
	path := writeConfig(t, `
http:
  address: "127.0.0.1:9000"
webrtc:
  stun_servers:
    - "stun:example.org:3478"
sandbox:
  stop_timeout: 3s
  staging_root: "/var/lib/rnplay"
`)

	cfg, err := LoadPath(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Address)
	assert.Equal(t, []string{"stun:example.org:3478"}, cfg.WebRTC.STUNServers)
	assert.Equal(t, 3*time.Second, cfg.Sandbox.StopTimeout)
	assert.Equal(t, "/var/lib/rnplay", cfg.Sandbox.StagingRoot)
}

func TestLoadPathMissingFile(t *testing.T) {
	_, err := LoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}

func TestMustLoadPathPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() {
		MustLoadPath(filepath.Join(t.TempDir(), "nope.yaml"))
	})
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, defaultConfigPath, ResolvePath(""))

	t.Setenv("CONFIG_PATH", "/etc/rnplay.yaml")
	assert.Equal(t, "/etc/rnplay.yaml", ResolvePath(""))
	assert.Equal(t, "flag.yaml", ResolvePath("flag.yaml"))
}

func TestLoadBridge(t *testing.T) {
	t.Setenv("PROJECT_ID", "p1")
	t.Setenv("SIGNALING_SERVER_URL", "ws://relay:8080/ws")
	t.Setenv("SWIPE_DURATION", "300ms")

	cfg, err := LoadBridge()
	require.NoError(t, err)

	assert.Equal(t, "p1", cfg.ProjectID)
	assert.Equal(t, "ws://relay:8080/ws", cfg.SignalingURL)
	assert.Equal(t, 300*time.Millisecond, cfg.SwipeDuration)
	assert.Equal(t, "adb", cfg.ADBBinary)
	assert.Equal(t, "127.0.0.1:5004", cfg.RTPAddress)
	assert.True(t, cfg.CaptureEnabled)
}

func TestLoadBridgeRequiresProjectID(t *testing.T) {
	t.Setenv("PROJECT_ID", "")
	os.Unsetenv("PROJECT_ID")

	_, err := LoadBridge()
	assert.Error(t, err)
}
