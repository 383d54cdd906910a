// Package config loads the wrtpod.toml configuration through viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/wrtpod/wrtpod/pkg/netutil"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Podman  PodmanConfig  `mapstructure:"podman"`
	Network NetworkConfig `mapstructure:"network"`
}

type ServerConfig struct {
	Port   int    `mapstructure:"port"`
	Listen string `mapstructure:"listen"`
}

type PodmanConfig struct {
	SocketPath string `mapstructure:"socket_path"`
}

// NetworkConfig carries the defaults offered when integrating a Podman
// network with the router configuration.
type NetworkConfig struct {
	DefaultBridge  string `mapstructure:"default_bridge"`
	DefaultSubnet  string `mapstructure:"default_subnet"`
	DefaultGateway string `mapstructure:"default_gateway"`
}

func Load() (*Config, error) {
	var cfg Config

	viper.SetDefault("server.port", 8686)
	viper.SetDefault("server.listen", "0.0.0.0")
	viper.SetDefault("podman.socket_path", "")
	viper.SetDefault("network.default_bridge", "podman0")
	viper.SetDefault("network.default_subnet", "10.129.0.0/24")
	viper.SetDefault("network.default_gateway", "10.129.0.1")

	if err := viper.UnmarshalKey("server", &cfg.Server); err != nil {
		return nil, fmt.Errorf("unable to decode server config: %v", err)
	}
	if err := viper.UnmarshalKey("podman", &cfg.Podman); err != nil {
		return nil, fmt.Errorf("unable to decode podman config: %v", err)
	}
	if err := viper.UnmarshalKey("network", &cfg.Network); err != nil {
		return nil, fmt.Errorf("unable to decode network config: %v", err)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("server.port must be between 1 and 65535")
	}
	if cfg.Network.DefaultSubnet != "" && !netutil.IsValidCIDR(cfg.Network.DefaultSubnet) {
		return nil, fmt.Errorf("network.default_subnet must be an IPv4 CIDR (e.g. '10.129.0.0/24')")
	}
	if cfg.Network.DefaultGateway != "" && !netutil.IsValidIPv4(cfg.Network.DefaultGateway) {
		return nil, fmt.Errorf("network.default_gateway must be an IPv4 address")
	}

	return &cfg, nil
}

// ListenAddr returns the host:port the HTTP API binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Listen, c.Server.Port)
}
