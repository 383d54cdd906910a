package netutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidIPv4(t *testing.T) {
	valid := []string{"10.129.0.1", "0.0.0.0", "255.255.255.255", "192.168.1.1"}
	for _, s := range valid {
		assert.True(t, IsValidIPv4(s), s)
	}

	invalid := []string{"", "256.1.1.1", "10.0.0", "10.0.0.0.0", "fd00::1", "10.0.0.1/24", "a.b.c.d"}
	for _, s := range invalid {
		assert.False(t, IsValidIPv4(s), s)
	}
}

func TestIsValidCIDR(t *testing.T) {
	valid := []string{"10.129.0.0/24", "0.0.0.0/0", "192.168.0.0/16", "10.0.0.0/32"}
	for _, s := range valid {
		assert.True(t, IsValidCIDR(s), s)
	}

	invalid := []string{"", "10.129.0.0", "10.129.0.0/33", "300.0.0.0/24", "fd00::/64", "10.0.0.0/"}
	for _, s := range invalid {
		assert.False(t, IsValidCIDR(s), s)
	}
}

func TestCIDRPrefix(t *testing.T) {
	prefix, err := CIDRPrefix("10.129.0.0/24")
	require.NoError(t, err)
	assert.Equal(t, 24, prefix)

	_, err = CIDRPrefix("10.129.0.0")
	assert.Error(t, err)
}

func TestPrefixToNetmask(t *testing.T) {
	tests := []struct {
		prefix  int
		netmask string
	}{
		{0, "0.0.0.0"},
		{8, "255.0.0.0"},
		{16, "255.255.0.0"},
		{24, "255.255.255.0"},
		{25, "255.255.255.128"},
		{32, "255.255.255.255"},
	}
	for _, tt := range tests {
		netmask, err := PrefixToNetmask(tt.prefix)
		require.NoError(t, err)
		assert.Equal(t, tt.netmask, netmask)
	}

	_, err := PrefixToNetmask(33)
	assert.Error(t, err)
	_, err = PrefixToNetmask(-1)
	assert.Error(t, err)
}
