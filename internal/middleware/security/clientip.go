package security

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPResolver finds the caller's address. Forwarding headers are believed
// only when they were added by a trusted proxy.
type IPResolver struct {
	trusted []netip.Prefix
}

var privateNetworks = []string{
	"127.0.0.0/8",
	"::1/128",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"fc00::/7",
}

// NewIPResolver trusts loopback and private networks as proxies.
func NewIPResolver() *IPResolver {
	r := &IPResolver{}
	for _, cidr := range privateNetworks {
		r.trusted = append(r.trusted, netip.MustParsePrefix(cidr))
	}
	return r
}

// AddTrustedProxy trusts one more proxy network, given in CIDR form.
func (d *IPResolver) AddTrustedProxy(cidr string) error {
	p, err := netip.ParsePrefix(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	d.trusted = append(d.trusted, p.Masked())
	return nil
}

func (d *IPResolver) isTrusted(a netip.Addr) bool {
	a = a.Unmap()
	for _, p := range d.trusted {
		if p.Contains(a) {
			return true
		}
	}
	return false
}

// ClientIP returns the peer address unless the peer is a trusted proxy. In
// that case X-Forwarded-For is walked from the right and the first hop not
// itself a trusted proxy wins, falling back to X-Real-IP.
func (d *IPResolver) ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer, err := netip.ParseAddr(host)
	if err != nil || !d.isTrusted(peer) {
		return host
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !d.isTrusted(hop) {
				return hop.String()
			}
		}
	}
	if xri, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return xri.String()
	}
	return host
}
