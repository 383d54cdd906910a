package network

import (
	"context"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/internal/domain"
)

// HasIntegration reports whether an interface section named
// networkName exists. Best effort: any load failure reads as false.
func (r *Reconciler) HasIntegration(ctx context.Context, networkName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.uci.Load(ctx, out.UCINetwork); err != nil {
		return false
	}
	iface, err := r.uci.Section(ctx, out.UCINetwork, networkName)
	if err != nil {
		return false
	}
	return iface != nil && iface.Type == "interface"
}

// IsIntegrationComplete checks each integration component and reports
// exactly which ones are missing. Without the interface the remaining
// checks are meaningless, so the result short-circuits to just
// "interface". Unexpected failures collapse to "unknown".
func (r *Reconciler) IsIntegrationComplete(ctx context.Context, networkName string) domain.IntegrationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	unknown := domain.IntegrationState{Complete: false, Missing: []string{domain.MissingUnknown}}

	if err := r.uci.Load(ctx, out.UCINetwork); err != nil {
		return unknown
	}
	if err := r.uci.Load(ctx, out.UCIFirewall); err != nil {
		return unknown
	}

	iface, err := r.uci.Section(ctx, out.UCINetwork, networkName)
	if err != nil {
		return unknown
	}
	if iface == nil || iface.Type != "interface" {
		return domain.IntegrationState{Complete: false, Missing: []string{domain.MissingInterface}}
	}

	missing := []string{}

	bridgeName := iface.Options["device"].String()
	device, err := r.findDevice(ctx, bridgeName)
	if err != nil {
		return unknown
	}
	if bridgeName == "" || device == nil {
		missing = append(missing, domain.MissingDevice)
	}

	zone, err := r.loadZone(ctx)
	if err != nil {
		return unknown
	}
	switch {
	case zone == nil:
		missing = append(missing, domain.MissingZone)
	case !zone.hasMember(networkName):
		missing = append(missing, domain.MissingZoneMembership)
	}

	return domain.IntegrationState{Complete: len(missing) == 0, Missing: missing}
}

// GetIntegration returns the persisted interface fields, or nil when
// the integration is absent or unreadable. Best effort, never errors.
func (r *Reconciler) GetIntegration(ctx context.Context, networkName string) *domain.NetworkIntegration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.uci.Load(ctx, out.UCINetwork); err != nil {
		return nil
	}
	iface, err := r.uci.Section(ctx, out.UCINetwork, networkName)
	if err != nil || iface == nil || iface.Type != "interface" {
		return nil
	}

	return &domain.NetworkIntegration{
		NetworkName: networkName,
		BridgeName:  iface.Options["device"].String(),
		Gateway:     iface.Options["ipaddr"].String(),
		Netmask:     iface.Options["netmask"].String(),
		Proto:       iface.Options["proto"].String(),
	}
}
