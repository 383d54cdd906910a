package domain

// Components that can be reported missing by an integration check.
const (
	MissingDevice         = "device"
	MissingInterface      = "interface"
	MissingZone           = "zone"
	MissingZoneMembership = "zone_membership"
	MissingUnknown        = "unknown"
)

// NetworkIntegration is the persisted OpenWrt-side state for one
// Podman network.
type NetworkIntegration struct {
	NetworkName string `json:"networkName"`
	BridgeName  string `json:"bridgeName"`
	Gateway     string `json:"gateway"`
	Netmask     string `json:"netmask"`
	Proto       string `json:"proto"`
}

// IntegrationOptions describes the network to integrate. IPv6 fields
// are optional.
type IntegrationOptions struct {
	BridgeName  string `json:"bridgeName"`
	Subnet      string `json:"subnet"`
	Gateway     string `json:"gateway"`
	IPv6Subnet  string `json:"ipv6subnet,omitempty"`
	IPv6Gateway string `json:"ipv6gateway,omitempty"`
}

// IntegrationState reports which integration components are present.
type IntegrationState struct {
	Complete bool     `json:"complete"`
	Missing  []string `json:"missing,omitempty"`
}

// ValidationResult accumulates pre-flight validation failures as
// strings; validation never surfaces Go errors.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}
