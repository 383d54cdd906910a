// Package cmd wires the wrtpod command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wrtpod/wrtpod/pkg/logger"
)

var (
	cfgFile string

	// Build metadata injected through main.
	buildVersion = "dev"
	buildCommit  = "none"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "wrtpod",
	Short: "wrtpod - Podman auto-update and OpenWrt network integration",
	Long: `wrtpod keeps Podman containers up to date and reconciles their
networks with the OpenWrt router configuration (UCI).`,
}

// Execute runs the CLI with the build metadata from the linker.
func Execute(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	logger.GetLogger().ConfigureFromEnv()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./wrtpod.toml)")
	rootCmd.PersistentFlags().String("socket", "", "podman socket path (overrides config)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("wrtpod")
		viper.SetConfigType("toml")

		viper.AddConfigPath(".")
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(userConfigDir + "/wrtpod")
		}
		viper.AddConfigPath("/etc/wrtpod")
		viper.AddConfigPath("/usr/local/etc/wrtpod")
	}

	viper.SetEnvPrefix("WRTPOD")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logger.Debug("using config file", "file", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
	// No config file is fine; defaults cover everything.
}

// socketPath resolves the podman socket from flag or config.
func socketPath(cmd *cobra.Command) string {
	if socket, _ := cmd.Flags().GetString("socket"); socket != "" {
		return socket
	}
	return viper.GetString("podman.socket_path")
}
