package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFromTOML(t *testing.T, content string) (*Config, error) {
	t.Helper()

	tempDir := t.TempDir()
	configFile := filepath.Join(tempDir, "wrtpod.toml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	viper.Reset()
	viper.SetConfigFile(configFile)
	require.NoError(t, viper.ReadInConfig())

	return Load()
}

func TestConfig_Load_ValidConfig(t *testing.T) {
	cfg, err := loadFromTOML(t, `
[server]
port = 9090
listen = "127.0.0.1"

[podman]
socket_path = "/run/user/1000/podman/podman.sock"

[network]
default_bridge = "podman1"
default_subnet = "10.200.0.0/24"
default_gateway = "10.200.0.1"
`)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Listen)
	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddr())
	assert.Equal(t, "/run/user/1000/podman/podman.sock", cfg.Podman.SocketPath)
	assert.Equal(t, "podman1", cfg.Network.DefaultBridge)
	assert.Equal(t, "10.200.0.0/24", cfg.Network.DefaultSubnet)
	assert.Equal(t, "10.200.0.1", cfg.Network.DefaultGateway)
}

func TestConfig_Load_Defaults(t *testing.T) {
	cfg, err := loadFromTOML(t, "")
	require.NoError(t, err)

	assert.Equal(t, 8686, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Listen)
	assert.Equal(t, "", cfg.Podman.SocketPath)
	assert.Equal(t, "podman0", cfg.Network.DefaultBridge)
	assert.Equal(t, "10.129.0.0/24", cfg.Network.DefaultSubnet)
	assert.Equal(t, "10.129.0.1", cfg.Network.DefaultGateway)
}

func TestConfig_Load_InvalidPort(t *testing.T) {
	_, err := loadFromTOML(t, `
[server]
port = 70000
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestConfig_Load_InvalidSubnet(t *testing.T) {
	_, err := loadFromTOML(t, `
[network]
default_subnet = "10.200.0.0"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_subnet")
}

func TestConfig_Load_InvalidGateway(t *testing.T) {
	_, err := loadFromTOML(t, `
[network]
default_gateway = "not-an-ip"
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_gateway")
}
