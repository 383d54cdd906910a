// Package network keeps OpenWrt's persisted network/firewall
// configuration synchronized with Podman-created networks: one bridge
// device and one static interface per network, plus membership in the
// single firewall zone shared by all Podman networks.
package network

import (
	"context"
	"fmt"
	"sync"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/internal/events"
	"github.com/wrtpod/wrtpod/pkg/logger"
	"github.com/wrtpod/wrtpod/pkg/netutil"
)

const (
	// zoneName is the single firewall zone shared by every Podman
	// network. It is created lazily on first integration and deleted
	// when the last member network is removed.
	zoneName = "podman"

	// dnsRuleName allows DNS from the shared zone. Its lifecycle is
	// tied to the zone's, not to any single network.
	dnsRuleName = "Allow-Podman-DNS"

	// applyRollbackTimeout is the confirmation window handed to
	// rollback-capable config appliers.
	applyRollbackTimeout = 90
)

// Reconciler reconciles UCI state with Podman network intent. The
// mutex serializes the load → mutate → save → apply pipeline within
// this process; cross-process isolation is not provided.
type Reconciler struct {
	uci out.UCIStore
	bus events.Publisher
	mu  sync.Mutex
	log *logger.Logger
}

// NewReconciler creates a reconciler. bus may be nil.
func NewReconciler(uci out.UCIStore, bus events.Publisher) *Reconciler {
	return &Reconciler{
		uci: uci,
		bus: bus,
		log: logger.GetLogger(),
	}
}

// CreateIntegration creates the bridge device, static interface and
// shared zone membership for a Podman network. Every resource is
// independently create-or-skip, so a second call with the same
// arguments changes nothing.
func (r *Reconciler) CreateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.uci.Load(ctx, out.UCINetwork); err != nil {
		return fmt.Errorf("failed to load network config: %w", err)
	}
	if err := r.uci.Load(ctx, out.UCIFirewall); err != nil {
		return fmt.Errorf("failed to load firewall config: %w", err)
	}

	if err := r.ensureBridgeDevice(ctx, opts); err != nil {
		return err
	}
	if err := r.ensureInterface(ctx, networkName, opts); err != nil {
		return err
	}
	if err := r.ensureZoneMembership(ctx, networkName); err != nil {
		return err
	}

	if err := r.persist(ctx); err != nil {
		return err
	}

	r.log.Info("network integration created", "network", networkName, "bridge", opts.BridgeName)
	r.publish(events.Event{Type: events.NetworkIntegrated, Network: networkName})
	return nil
}

// RemoveIntegration reverses CreateIntegration, itself idempotently.
// The shared zone and its DNS rule are deleted only when the last
// member network leaves; the bridge device is deleted only when no
// other interface still references it.
func (r *Reconciler) RemoveIntegration(ctx context.Context, networkName, bridgeName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.uci.Load(ctx, out.UCINetwork); err != nil {
		return fmt.Errorf("failed to load network config: %w", err)
	}
	if err := r.uci.Load(ctx, out.UCIFirewall); err != nil {
		return fmt.Errorf("failed to load firewall config: %w", err)
	}

	if err := r.removeZoneMembership(ctx, networkName); err != nil {
		return err
	}

	iface, err := r.uci.Section(ctx, out.UCINetwork, networkName)
	if err != nil {
		return fmt.Errorf("failed to read interface %s: %w", networkName, err)
	}
	if iface != nil && iface.Type == "interface" {
		if err := r.uci.DeleteSection(ctx, out.UCINetwork, networkName); err != nil {
			return fmt.Errorf("failed to delete interface %s: %w", networkName, err)
		}
	}

	if bridgeName != "" {
		if err := r.removeBridgeDevice(ctx, networkName, bridgeName); err != nil {
			return err
		}
	}

	if err := r.persist(ctx); err != nil {
		return err
	}

	r.log.Info("network integration removed", "network", networkName, "bridge", bridgeName)
	r.publish(events.Event{Type: events.NetworkRemoved, Network: networkName})
	return nil
}

func (r *Reconciler) ensureBridgeDevice(ctx context.Context, opts domain.IntegrationOptions) error {
	existing, err := r.findDevice(ctx, opts.BridgeName)
	if err != nil {
		return err
	}
	if existing != nil {
		r.log.Debug("bridge device already present", "bridge", opts.BridgeName)
		return nil
	}

	section, err := r.uci.CreateSection(ctx, out.UCINetwork, "device", "")
	if err != nil {
		return fmt.Errorf("failed to create bridge device %s: %w", opts.BridgeName, err)
	}

	options := map[string]string{
		"name": opts.BridgeName,
		"type": "bridge",
		// Podman attaches veth pairs at container start; the bridge
		// must exist without ports.
		"bridge_empty": "1",
	}
	if opts.IPv6Subnet != "" {
		options["ipv6"] = "1"
		options["ip6assign"] = "64"
	} else {
		options["ipv6"] = "0"
	}
	for option, value := range options {
		if err := r.uci.Set(ctx, out.UCINetwork, section, option, out.UCIValue{value}); err != nil {
			return fmt.Errorf("failed to configure bridge device %s: %w", opts.BridgeName, err)
		}
	}
	return nil
}

func (r *Reconciler) ensureInterface(ctx context.Context, networkName string, opts domain.IntegrationOptions) error {
	existing, err := r.uci.Section(ctx, out.UCINetwork, networkName)
	if err != nil {
		return fmt.Errorf("failed to read interface %s: %w", networkName, err)
	}
	if existing != nil {
		r.log.Debug("interface already present", "interface", networkName)
		return nil
	}

	prefix, err := netutil.CIDRPrefix(opts.Subnet)
	if err != nil {
		return fmt.Errorf("failed to parse subnet for %s: %w", networkName, err)
	}
	netmask, err := netutil.PrefixToNetmask(prefix)
	if err != nil {
		return fmt.Errorf("failed to derive netmask for %s: %w", networkName, err)
	}

	if _, err := r.uci.CreateSection(ctx, out.UCINetwork, "interface", networkName); err != nil {
		return fmt.Errorf("failed to create interface %s: %w", networkName, err)
	}

	options := map[string]string{
		"proto":   "static",
		"device":  opts.BridgeName,
		"ipaddr":  opts.Gateway,
		"netmask": netmask,
	}
	if opts.IPv6Gateway != "" {
		options["ip6addr"] = opts.IPv6Gateway + "/64"
	}
	for option, value := range options {
		if err := r.uci.Set(ctx, out.UCINetwork, networkName, option, out.UCIValue{value}); err != nil {
			return fmt.Errorf("failed to configure interface %s: %w", networkName, err)
		}
	}
	return nil
}

func (r *Reconciler) removeBridgeDevice(ctx context.Context, networkName, bridgeName string) error {
	device, err := r.findDevice(ctx, bridgeName)
	if err != nil {
		return err
	}
	if device == nil {
		return nil
	}

	inUse, err := r.bridgeInUse(ctx, bridgeName, networkName)
	if err != nil {
		return err
	}
	if inUse {
		r.log.Debug("bridge device kept, still referenced", "bridge", bridgeName)
		return nil
	}

	if err := r.uci.DeleteSection(ctx, out.UCINetwork, device.Name); err != nil {
		return fmt.Errorf("failed to delete bridge device %s: %w", bridgeName, err)
	}
	return nil
}

// findDevice scans device sections for one whose name option matches
// bridgeName. Devices are matched by option, not section name, since
// UCI device sections are typically anonymous.
func (r *Reconciler) findDevice(ctx context.Context, bridgeName string) (*out.UCISection, error) {
	devices, err := r.uci.Sections(ctx, out.UCINetwork, "device")
	if err != nil {
		return nil, fmt.Errorf("failed to list device sections: %w", err)
	}
	for i := range devices {
		if devices[i].Options["name"].String() == bridgeName {
			return &devices[i], nil
		}
	}
	return nil, nil
}

// bridgeInUse reports whether any interface other than exclude still
// references bridgeName as its device.
func (r *Reconciler) bridgeInUse(ctx context.Context, bridgeName, exclude string) (bool, error) {
	interfaces, err := r.uci.Sections(ctx, out.UCINetwork, "interface")
	if err != nil {
		return false, fmt.Errorf("failed to list interface sections: %w", err)
	}
	for _, iface := range interfaces {
		if iface.Name == exclude {
			continue
		}
		if iface.Options["device"].String() == bridgeName {
			return true, nil
		}
	}
	return false, nil
}

func (r *Reconciler) persist(ctx context.Context) error {
	for _, config := range []string{out.UCINetwork, out.UCIFirewall} {
		if err := r.uci.Save(ctx, config); err != nil {
			return fmt.Errorf("failed to save %s config: %w", config, err)
		}
	}
	for _, config := range []string{out.UCINetwork, out.UCIFirewall} {
		if err := r.uci.Apply(ctx, config, applyRollbackTimeout); err != nil {
			return fmt.Errorf("failed to apply %s config: %w", config, err)
		}
	}
	if err := r.uci.FlushCache(ctx); err != nil {
		return fmt.Errorf("failed to flush config cache: %w", err)
	}
	return nil
}

func (r *Reconciler) publish(event events.Event) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(event); err != nil {
		r.log.Debug("event dropped", "type", string(event.Type), "error", err)
	}
}
