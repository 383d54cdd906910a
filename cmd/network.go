package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wrtpod/wrtpod/internal/adapters/out/uci"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/usecase/network"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage OpenWrt integration of Podman networks",
}

var networkIntegrateCmd = &cobra.Command{
	Use:   "integrate <network>",
	Short: "Create the bridge, interface and firewall zone for a network",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworkIntegrate,
}

var networkRemoveCmd = &cobra.Command{
	Use:   "remove <network>",
	Short: "Remove a network's OpenWrt integration",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworkRemove,
}

var networkStatusCmd = &cobra.Command{
	Use:   "status <network>",
	Short: "Show which integration components are present",
	Args:  cobra.ExactArgs(1),
	Run:   runNetworkStatus,
}

func init() {
	networkIntegrateCmd.Flags().String("bridge", "", "bridge device name (default from config)")
	networkIntegrateCmd.Flags().String("subnet", "", "IPv4 subnet in CIDR form (default from config)")
	networkIntegrateCmd.Flags().String("gateway", "", "IPv4 gateway address (default from config)")
	networkIntegrateCmd.Flags().String("ipv6-subnet", "", "optional IPv6 subnet")
	networkIntegrateCmd.Flags().String("ipv6-gateway", "", "optional IPv6 gateway")

	networkRemoveCmd.Flags().String("bridge", "", "bridge device name (default from config)")

	networkCmd.AddCommand(networkIntegrateCmd)
	networkCmd.AddCommand(networkRemoveCmd)
	networkCmd.AddCommand(networkStatusCmd)
	rootCmd.AddCommand(networkCmd)
}

func newReconciler() *network.Reconciler {
	return network.NewReconciler(uci.NewStore(), nil)
}

func flagOrConfig(cmd *cobra.Command, flag, configKey string) string {
	if value, _ := cmd.Flags().GetString(flag); value != "" {
		return value
	}
	return viper.GetString(configKey)
}

func runNetworkIntegrate(cmd *cobra.Command, args []string) {
	networkName := args[0]
	reconciler := newReconciler()

	ipv6Subnet, _ := cmd.Flags().GetString("ipv6-subnet")
	ipv6Gateway, _ := cmd.Flags().GetString("ipv6-gateway")
	opts := domain.IntegrationOptions{
		BridgeName:  flagOrConfig(cmd, "bridge", "network.default_bridge"),
		Subnet:      flagOrConfig(cmd, "subnet", "network.default_subnet"),
		Gateway:     flagOrConfig(cmd, "gateway", "network.default_gateway"),
		IPv6Subnet:  ipv6Subnet,
		IPv6Gateway: ipv6Gateway,
	}

	validation := reconciler.ValidateIntegration(cmd.Context(), networkName, opts)
	if !validation.Valid {
		fmt.Fprintln(os.Stderr, "integration rejected:")
		for _, msg := range validation.Errors {
			fmt.Fprintf(os.Stderr, "  - %s\n", msg)
		}
		os.Exit(1)
	}

	if err := reconciler.CreateIntegration(cmd.Context(), networkName, opts); err != nil {
		logger.Fatal("integration failed", "network", networkName, "error", err)
	}
	fmt.Printf("network %s integrated (bridge %s, subnet %s)\n", networkName, opts.BridgeName, opts.Subnet)
}

func runNetworkRemove(cmd *cobra.Command, args []string) {
	networkName := args[0]
	reconciler := newReconciler()

	bridge := flagOrConfig(cmd, "bridge", "network.default_bridge")
	if err := reconciler.RemoveIntegration(cmd.Context(), networkName, bridge); err != nil {
		logger.Fatal("removal failed", "network", networkName, "error", err)
	}
	fmt.Printf("network %s integration removed\n", networkName)
}

func runNetworkStatus(cmd *cobra.Command, args []string) {
	networkName := args[0]
	reconciler := newReconciler()

	state := reconciler.IsIntegrationComplete(cmd.Context(), networkName)
	if state.Complete {
		integration := reconciler.GetIntegration(cmd.Context(), networkName)
		fmt.Printf("network %s: integration complete\n", networkName)
		if integration != nil {
			fmt.Printf("  bridge:  %s\n", integration.BridgeName)
			fmt.Printf("  gateway: %s/%s\n", integration.Gateway, integration.Netmask)
		}
		return
	}

	fmt.Printf("network %s: incomplete (missing: %s)\n", networkName, strings.Join(state.Missing, ", "))
	os.Exit(1)
}
