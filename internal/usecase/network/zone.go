package network

import (
	"context"
	"fmt"

	"github.com/wrtpod/wrtpod/internal/boundaries/out"
)

// zoneRecord is the in-memory view of the shared firewall zone: its
// section id and the normalized membership set. All mutations go
// through loadZone/saveZoneMembers so the scalar-or-list shape of the
// persisted network option never reaches the reconciliation logic.
type zoneRecord struct {
	Section string
	Members []string
}

func (z *zoneRecord) hasMember(networkName string) bool {
	for _, member := range z.Members {
		if member == networkName {
			return true
		}
	}
	return false
}

// loadZone finds the shared zone by its name option across all zone
// sections. Returns nil when the zone has not been created yet.
func (r *Reconciler) loadZone(ctx context.Context) (*zoneRecord, error) {
	zones, err := r.uci.Sections(ctx, out.UCIFirewall, "zone")
	if err != nil {
		return nil, fmt.Errorf("failed to list firewall zones: %w", err)
	}
	for _, zone := range zones {
		if zone.Options["name"].String() != zoneName {
			continue
		}
		return &zoneRecord{
			Section: zone.Name,
			Members: zone.Options["network"].List(),
		}, nil
	}
	return nil, nil
}

func (r *Reconciler) saveZoneMembers(ctx context.Context, zone *zoneRecord) error {
	if err := r.uci.Set(ctx, out.UCIFirewall, zone.Section, "network", out.UCIValue(zone.Members)); err != nil {
		return fmt.Errorf("failed to update zone membership: %w", err)
	}
	return nil
}

// ensureZoneMembership adds networkName to the shared zone, creating
// the zone and its DNS rule on first use.
func (r *Reconciler) ensureZoneMembership(ctx context.Context, networkName string) error {
	zone, err := r.loadZone(ctx)
	if err != nil {
		return err
	}

	if zone == nil {
		return r.createZone(ctx, networkName)
	}

	if zone.hasMember(networkName) {
		r.log.Debug("network already member of shared zone", "network", networkName)
		return nil
	}
	zone.Members = append(zone.Members, networkName)
	return r.saveZoneMembers(ctx, zone)
}

// removeZoneMembership removes networkName from the shared zone,
// deleting the zone and its DNS rule when the membership set becomes
// empty.
func (r *Reconciler) removeZoneMembership(ctx context.Context, networkName string) error {
	zone, err := r.loadZone(ctx)
	if err != nil {
		return err
	}
	if zone == nil {
		return nil
	}

	members := make([]string, 0, len(zone.Members))
	for _, member := range zone.Members {
		if member != networkName {
			members = append(members, member)
		}
	}
	if len(members) == len(zone.Members) {
		return nil
	}

	if len(members) == 0 {
		return r.deleteZone(ctx, zone)
	}

	zone.Members = members
	return r.saveZoneMembers(ctx, zone)
}

func (r *Reconciler) createZone(ctx context.Context, firstMember string) error {
	section, err := r.uci.CreateSection(ctx, out.UCIFirewall, "zone", "")
	if err != nil {
		return fmt.Errorf("failed to create shared zone: %w", err)
	}

	options := map[string]out.UCIValue{
		"name":    {zoneName},
		"input":   {"DROP"},
		"output":  {"ACCEPT"},
		"forward": {"REJECT"},
		"network": {firstMember},
	}
	for option, value := range options {
		if err := r.uci.Set(ctx, out.UCIFirewall, section, option, value); err != nil {
			return fmt.Errorf("failed to configure shared zone: %w", err)
		}
	}

	// The DNS allow rule is created exactly once, alongside the zone.
	rule, err := r.uci.CreateSection(ctx, out.UCIFirewall, "rule", "")
	if err != nil {
		return fmt.Errorf("failed to create DNS rule: %w", err)
	}
	ruleOptions := map[string]string{
		"name":      dnsRuleName,
		"src":       zoneName,
		"dest_port": "53",
		"target":    "ACCEPT",
	}
	for option, value := range ruleOptions {
		if err := r.uci.Set(ctx, out.UCIFirewall, rule, option, out.UCIValue{value}); err != nil {
			return fmt.Errorf("failed to configure DNS rule: %w", err)
		}
	}

	r.log.Debug("shared zone created", "zone", zoneName, "first_member", firstMember)
	return nil
}

func (r *Reconciler) deleteZone(ctx context.Context, zone *zoneRecord) error {
	if err := r.uci.DeleteSection(ctx, out.UCIFirewall, zone.Section); err != nil {
		return fmt.Errorf("failed to delete shared zone: %w", err)
	}

	rule, err := r.findDNSRule(ctx)
	if err != nil {
		return err
	}
	if rule != "" {
		if err := r.uci.DeleteSection(ctx, out.UCIFirewall, rule); err != nil {
			return fmt.Errorf("failed to delete DNS rule: %w", err)
		}
	}

	r.log.Debug("shared zone deleted", "zone", zoneName)
	return nil
}

func (r *Reconciler) findDNSRule(ctx context.Context) (string, error) {
	rules, err := r.uci.Sections(ctx, out.UCIFirewall, "rule")
	if err != nil {
		return "", fmt.Errorf("failed to list firewall rules: %w", err)
	}
	for _, rule := range rules {
		if rule.Options["name"].String() == dnsRuleName {
			return rule.Name, nil
		}
	}
	return "", nil
}
