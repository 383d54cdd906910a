// Package netutil provides IPv4 helpers for translating between the
// CIDR notation Podman reports and the dotted netmask form UCI expects.
package netutil

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	ipv4Pattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})$`)
	cidrPattern = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})/(\d{1,2})$`)
)

// IsValidIPv4 reports whether s is a syntactically valid dotted-quad
// IPv4 address.
func IsValidIPv4(s string) bool {
	m := ipv4Pattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	for _, octet := range m[1:] {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

// IsValidCIDR reports whether s is a syntactically valid IPv4 CIDR
// (address/prefix).
func IsValidCIDR(s string) bool {
	m := cidrPattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	prefix, err := strconv.Atoi(m[5])
	if err != nil || prefix > 32 {
		return false
	}
	return IsValidIPv4(strings.SplitN(s, "/", 2)[0])
}

// CIDRPrefix extracts the prefix length from an IPv4 CIDR string.
func CIDRPrefix(cidr string) (int, error) {
	if !IsValidCIDR(cidr) {
		return 0, fmt.Errorf("invalid CIDR %q", cidr)
	}
	prefix, err := strconv.Atoi(strings.SplitN(cidr, "/", 2)[1])
	if err != nil {
		return 0, fmt.Errorf("invalid CIDR %q: %w", cidr, err)
	}
	return prefix, nil
}

// PrefixToNetmask converts a prefix length to a dotted-quad netmask,
// e.g. 24 -> 255.255.255.0.
func PrefixToNetmask(prefix int) (string, error) {
	if prefix < 0 || prefix > 32 {
		return "", fmt.Errorf("invalid prefix length %d", prefix)
	}
	mask := net.CIDRMask(prefix, 32)
	return net.IP(mask).String(), nil
}
