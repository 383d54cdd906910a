package network

import (
	"context"
	"fmt"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
	"github.com/wrtpod/wrtpod/internal/domain"
	"github.com/wrtpod/wrtpod/pkg/netutil"
)

// ValidateIntegration is the pre-flight check before CreateIntegration:
// required fields, IPv4 syntax, and naming conflicts with existing
// configuration. All failure modes are accumulated as error strings;
// this never returns a Go error. Conflict checks are best effort and
// are skipped when the network config cannot be read.
func (r *Reconciler) ValidateIntegration(ctx context.Context, networkName string, opts domain.IntegrationOptions) domain.ValidationResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	errs := []string{}

	if networkName == "" {
		errs = append(errs, "network name is required")
	}
	if opts.BridgeName == "" {
		errs = append(errs, "bridge name is required")
	}

	switch {
	case opts.Subnet == "":
		errs = append(errs, "subnet is required")
	case !netutil.IsValidCIDR(opts.Subnet):
		errs = append(errs, fmt.Sprintf("subnet %q is not a valid IPv4 CIDR", opts.Subnet))
	}

	switch {
	case opts.Gateway == "":
		errs = append(errs, "gateway is required")
	case !netutil.IsValidIPv4(opts.Gateway):
		errs = append(errs, fmt.Sprintf("gateway %q is not a valid IPv4 address", opts.Gateway))
	}

	if networkName != "" && opts.BridgeName != "" {
		if err := r.uci.Load(ctx, out.UCINetwork); err == nil {
			errs = append(errs, r.conflictErrors(ctx, networkName, opts.BridgeName)...)
		}
	}

	return domain.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func (r *Reconciler) conflictErrors(ctx context.Context, networkName, bridgeName string) []string {
	errs := []string{}

	if existing, err := r.uci.Section(ctx, out.UCINetwork, networkName); err == nil && existing != nil {
		if existing.Type != "interface" || existing.Options["proto"].String() != "static" {
			errs = append(errs, fmt.Sprintf("a non-static section named %q already exists in the network config", networkName))
		}
	}

	if interfaces, err := r.uci.Sections(ctx, out.UCINetwork, "interface"); err == nil {
		for _, iface := range interfaces {
			if iface.Name != networkName && iface.Options["device"].String() == bridgeName {
				errs = append(errs, fmt.Sprintf("bridge %q is already claimed by interface %q", bridgeName, iface.Name))
			}
		}
	}

	return errs
}
