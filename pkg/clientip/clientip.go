// Package clientip derives a client address from a request for logging and rate limiting.
package clientip

import (
	"net/http"
	"net/netip"
	"strings"
)

// RealClientIP returns the peer address from RemoteAddr without port or zone, with
// IPv4-mapped IPv6 addresses unmapped. Proxy headers are ignored.
func RealClientIP(r *http.Request) string {
	addr, ok := parse(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return addr.String()
}

// RateKey buckets clients for rate limiting: IPv4 addresses individually, IPv6 addresses
// by their /64 prefix.
func RateKey(r *http.Request) string {
	addr, ok := parse(r.RemoteAddr)
	if !ok {
		return strings.TrimSpace(r.RemoteAddr)
	}
	if addr.Is6() {
		if p, err := addr.Prefix(64); err == nil {
			return p.String()
		}
	}
	return addr.String()
}

func parse(remote string) (netip.Addr, bool) {
	remote = strings.TrimSpace(remote)
	if ap, err := netip.ParseAddrPort(remote); err == nil {
		return ap.Addr().WithZone("").Unmap(), true
	}
	if a, err := netip.ParseAddr(remote); err == nil {
		return a.WithZone("").Unmap(), true
	}
	return netip.Addr{}, false
}
