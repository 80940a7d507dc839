// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package host_test

import (
	"errors"
	"net"
	"testing"

	"github.com/MedicalEnvironment/cpu-monitoring-upgraded/pkg/host"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipNet(cidr string) net.Addr {
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func staticLister(ifaces ...host.Interface) host.InterfaceLister {
	return func() ([]host.Interface, error) {
		return ifaces, nil
	}
}

func TestFirstIPv4Interface(t *testing.T) {
	tests := []struct {
		name     string
		lister   host.InterfaceLister
		wantName string
		wantOK   bool
	}{
		{
			name:   "no interfaces",
			lister: staticLister(),
		},
		{
			name: "only ipv6 and unaddressed interfaces",
			lister: staticLister(
				host.Interface{Name: "eth0", Addrs: []net.Addr{ipNet("fe80::1/64")}},
				host.Interface{Name: "eth1"},
			),
		},
		{
			name: "first ipv4 in enumeration order",
			lister: staticLister(
				host.Interface{Name: "wg0", Addrs: []net.Addr{ipNet("fd00::2/64")}},
				host.Interface{Name: "eth0", Addrs: []net.Addr{ipNet("fe80::1/64"), ipNet("10.0.0.5/24")}},
				host.Interface{Name: "eth1", Addrs: []net.Addr{ipNet("192.168.1.2/24")}},
			),
			wantName: "eth0",
			wantOK:   true,
		},
		{
			name: "loopback is eligible when listed first",
			lister: staticLister(
				host.Interface{Name: "lo", Addrs: []net.Addr{ipNet("127.0.0.1/8")}},
				host.Interface{Name: "eth0", Addrs: []net.Addr{ipNet("10.0.0.5/24")}},
			),
			wantName: "lo",
			wantOK:   true,
		},
		{
			name: "ip addr without mask",
			lister: staticLister(
				host.Interface{Name: "tun0", Addrs: []net.Addr{&net.IPAddr{IP: net.ParseIP("100.64.0.1")}}},
			),
			wantName: "tun0",
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok, err := host.FirstIPv4Interface(tt.lister)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestFirstIPv4Interface_ListError(t *testing.T) {
	listErr := errors.New("netlink unavailable")
	name, ok, err := host.FirstIPv4Interface(func() ([]host.Interface, error) {
		return nil, listErr
	})

	assert.ErrorIs(t, err, listErr)
	assert.False(t, ok)
	assert.Empty(t, name)
}

func TestSystemInterfaces(t *testing.T) {
	ifaces, err := host.SystemInterfaces()
	require.NoError(t, err)
	for _, iface := range ifaces {
		assert.NotEmpty(t, iface.Name)
	}
}
