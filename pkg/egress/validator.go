package egress

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/gobwas/glob"
)

// portRange is an inclusive [lo, hi] range of allowed target ports.
type portRange struct {
	lo, hi int
}

func (r portRange) contains(port int) bool {
	return port >= r.lo && port <= r.hi
}

// Validator decides whether a (host, resolved IPs, port) splice target is
// permitted, per spec.md §4.5 and §6. An empty list in any dimension means
// "allow nothing in that dimension" — the three lists default to deny-all.
type Validator struct {
	hostGlobs  []glob.Glob
	ipNets     []*net.IPNet
	portRanges []portRange
}

// NewValidator compiles the configured allow-lists. Each element of
// hostNames is a glob pattern (e.g. "*.broker.internal"), each element of
// ipAddresses is a CIDR (e.g. "10.0.0.0/8", or a bare IP treated as a /32
// or /128), and each element of targetPorts is either a single port
// ("6650") or an inclusive range ("6650-6659").
func NewValidator(hostNames, ipAddresses, targetPorts []string) (*Validator, error) {
	v := &Validator{}

	for _, pattern := range hostNames {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("egress: invalid hostname pattern %q: %w", pattern, err)
		}
		v.hostGlobs = append(v.hostGlobs, g)
	}

	for _, cidr := range ipAddresses {
		ipNet, err := parseCIDROrIP(cidr)
		if err != nil {
			return nil, fmt.Errorf("egress: invalid IP allow-list entry %q: %w", cidr, err)
		}
		v.ipNets = append(v.ipNets, ipNet)
	}

	for _, spec := range targetPorts {
		r, err := parsePortRange(spec)
		if err != nil {
			return nil, fmt.Errorf("egress: invalid port allow-list entry %q: %w", spec, err)
		}
		v.portRanges = append(v.portRanges, r)
	}

	return v, nil
}

// AllowHost reports whether host matches any configured hostname glob.
func (v *Validator) AllowHost(host string) bool {
	for _, g := range v.hostGlobs {
		if g.Match(host) {
			return true
		}
	}
	return false
}

// AllowIP reports whether ip falls within any configured CIDR.
func (v *Validator) AllowIP(ip net.IP) bool {
	for _, n := range v.ipNets {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

// AllowPort reports whether port falls within any configured port range.
func (v *Validator) AllowPort(port int) bool {
	for _, r := range v.portRanges {
		if r.contains(port) {
			return true
		}
	}
	return false
}

// Validate checks a full splice target: the literal host against the
// hostname allow-list, every resolved address against the IP allow-list,
// and the port against the port allow-list — all three must pass (spec.md
// §4.5: "must satisfy all three policies"). It returns a descriptive error
// naming the failing dimension, or nil if the target is permitted.
func (v *Validator) Validate(host string, resolvedIPs []net.IP, port int) error {
	if !v.AllowHost(host) {
		return fmt.Errorf("egress: host %q is not in the allowed hostnames list", host)
	}
	if !v.AllowPort(port) {
		return fmt.Errorf("egress: port %d is not in the allowed target ports list", port)
	}
	if len(resolvedIPs) == 0 {
		return fmt.Errorf("egress: no resolved addresses for host %q", host)
	}
	for _, ip := range resolvedIPs {
		if !v.AllowIP(ip) {
			return fmt.Errorf("egress: resolved address %s for host %q is not in the allowed IP addresses list", ip, host)
		}
	}
	return nil
}

func parseCIDROrIP(s string) (*net.IPNet, error) {
	if strings.Contains(s, "/") {
		_, ipNet, err := net.ParseCIDR(s)
		return ipNet, err
	}
	ip := net.ParseIP(s)
	if ip == nil {
		return nil, fmt.Errorf("not a valid IP address or CIDR")
	}
	bits := 32
	if ip.To4() == nil {
		bits = 128
	}
	return &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, nil
}

func parsePortRange(s string) (portRange, error) {
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		loN, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return portRange{}, err
		}
		hiN, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return portRange{}, err
		}
		if loN > hiN {
			return portRange{}, fmt.Errorf("range start %d is after end %d", loN, hiN)
		}
		return portRange{lo: loN, hi: hiN}, nil
	}

	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return portRange{}, err
	}
	return portRange{lo: port, hi: port}, nil
}
