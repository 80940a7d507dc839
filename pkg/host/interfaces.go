// Copyright Antimetal, Inc. All rights reserved.
//
// Use of this source code is governed by a source available license that can be found in the
// LICENSE file or at:
// https://polyformproject.org/wp-content/uploads/2020/06/PolyForm-Shield-1.0.0.txt

package host

import (
	"fmt"
	"net"
)

// Interface is a network interface and the addresses bound to it.
type Interface struct {
	Name  string
	Addrs []net.Addr
}

// InterfaceLister enumerates network interfaces in kernel order.
type InterfaceLister func() ([]Interface, error)

// SystemInterfaces lists the interfaces of the local system.
// Interfaces whose addresses cannot be read are returned without addresses.
func SystemInterfaces() ([]Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("could not list interfaces: %w", err)
	}

	result := make([]Interface, 0, len(ifaces))
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			addrs = nil
		}
		result = append(result, Interface{Name: iface.Name, Addrs: addrs})
	}
	return result, nil
}

// FirstIPv4Interface returns the name of the first interface bound to an IPv4 address.
// ok is false when no interface has one; err is only set when enumeration itself failed.
func FirstIPv4Interface(list InterfaceLister) (name string, ok bool, err error) {
	if list == nil {
		list = SystemInterfaces
	}

	ifaces, err := list()
	if err != nil {
		return "", false, err
	}

	for _, iface := range ifaces {
		for _, addr := range iface.Addrs {
			if isIPv4(addr) {
				return iface.Name, true, nil
			}
		}
	}
	return "", false, nil
}

func isIPv4(addr net.Addr) bool {
	var ip net.IP
	switch v := addr.(type) {
	case *net.IPNet:
		ip = v.IP
	case *net.IPAddr:
		ip = v.IP
	}
	return ip != nil && ip.To4() != nil
}
