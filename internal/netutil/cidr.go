package netutil

import (
	"fmt"
	"net"
	"strings"

	"github.com/maxvaer/proxycheck/internal/candidate"
)

// DefaultPorts are used when a CIDR is given without --ports.
var DefaultPorts = []string{"3128", "8080"}

// ExpandCandidates takes a CIDR range (or a single IP) and a comma-separated
// port list and returns one raw pair per host and port.
func ExpandCandidates(cidr string, portsStr string) ([]candidate.RawPair, error) {
	ip, ipnet, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		// Maybe it's a single IP, not a CIDR.
		ip = net.ParseIP(strings.TrimSpace(cidr))
		if ip == nil {
			return nil, fmt.Errorf("invalid CIDR or IP: %q", cidr)
		}
		mask := net.CIDRMask(32, 32)
		if ip.To4() == nil {
			mask = net.CIDRMask(128, 128)
		} else {
			ip = ip.To4()
		}
		ipnet = &net.IPNet{IP: ip, Mask: mask}
	}

	ones, bits := ipnet.Mask.Size()
	if bits-ones > 16 {
		return nil, fmt.Errorf("range %s too large (max /%d)", cidr, bits-16)
	}

	ports := ParsePorts(portsStr)
	if len(ports) == 0 {
		ports = DefaultPorts
	}

	var pairs []candidate.RawPair
	for ip := ip.Mask(ipnet.Mask); ipnet.Contains(ip); inc(ip) {
		// Skip network and broadcast addresses for /30 and larger.
		if bits-ones > 1 {
			if ip.Equal(ipnet.IP) {
				continue // network address
			}
			if ip.Equal(broadcastAddr(ipnet)) {
				continue // broadcast address
			}
		}
		host := ip.String()
		for _, port := range ports {
			pairs = append(pairs, candidate.RawPair{Address: host, Port: port})
		}
	}

	return pairs, nil
}

// ParsePorts splits a comma-separated port list, dropping empty entries.
// Values are not validated here; the normalizer rejects bad ports.
func ParsePorts(s string) []string {
	if s == "" {
		return nil
	}
	var ports []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			ports = append(ports, p)
		}
	}
	return ports
}

func inc(ip net.IP) {
	for j := len(ip) - 1; j >= 0; j-- {
		ip[j]++
		if ip[j] > 0 {
			break
		}
	}
}

func broadcastAddr(n *net.IPNet) net.IP {
	ip := make(net.IP, len(n.IP))
	for i := range ip {
		ip[i] = n.IP[i] | ^n.Mask[i]
	}
	return ip
}
