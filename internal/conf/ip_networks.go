package conf

import (
	"encoding/json"
	"fmt"
	"net"
	"strings"

	"github.com/mediactl/mediactl/internal/conf/jsonwrapper"
)

// IPNetwork is an IP network, written as an address or in CIDR notation.
type IPNetwork net.IPNet

// MarshalJSON implements json.Marshaler.
func (n IPNetwork) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *IPNetwork) UnmarshalJSON(b []byte) error {
	var t string
	if err := jsonwrapper.Unmarshal(b, &t); err != nil {
		return err
	}

	if _, ipnet, err := net.ParseCIDR(t); err == nil {
		if ipv4 := ipnet.IP.To4(); ipv4 != nil {
			*n = IPNetwork{IP: ipv4, Mask: ipnet.Mask[len(ipnet.Mask)-4:]}
		} else {
			*n = IPNetwork(*ipnet)
		}
		return nil
	}

	ip := net.ParseIP(t)
	if ip == nil {
		return fmt.Errorf("unable to parse IP/CIDR '%s'", t)
	}

	if ipv4 := ip.To4(); ipv4 != nil {
		*n = IPNetwork{IP: ipv4, Mask: net.CIDRMask(32, 32)}
	} else {
		*n = IPNetwork{IP: ip, Mask: net.CIDRMask(128, 128)}
	}
	return nil
}

func (n IPNetwork) String() string {
	ipnet := net.IPNet(n)
	return ipnet.String()
}

// Contains checks whether the IP is part of the network.
func (n IPNetwork) Contains(ip net.IP) bool {
	ipnet := net.IPNet(n)
	return ipnet.Contains(ip)
}

// IPNetworks is a list of IP networks.
type IPNetworks []IPNetwork

// UnmarshalEnv implements env.Unmarshaler.
func (d *IPNetworks) UnmarshalEnv(_ string, v string) error {
	byts, _ := json.Marshal(strings.Split(v, ","))
	return jsonwrapper.Unmarshal(byts, d)
}

// ToTrustedProxies converts the networks into the format accepted by gin.
func (d IPNetworks) ToTrustedProxies() []string {
	ret := make([]string, len(d))
	for i, entry := range d {
		ret[i] = entry.String()
	}
	return ret
}

// Contains checks whether the IP is part of one of the networks.
// An empty list contains every IP.
func (d IPNetworks) Contains(ip net.IP) bool {
	if len(d) == 0 {
		return true
	}
	for _, network := range d {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
