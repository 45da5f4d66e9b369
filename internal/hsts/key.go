// Package hsts implements a persistent HTTP Strict Transport Security
// known-hosts cache with RFC 6797 matching semantics. The cache is backed
// by a line-oriented text file that several processes may share; writers
// reconcile concurrent changes optimistically on save.
package hsts

import (
	"net"
	"strings"
)

// anyPort is the explicit-port sentinel: the policy applies to every port,
// including the default secure port.
const anyPort = 0

const (
	defaultInsecurePort = 80
	defaultSecurePort   = 443
)

// hostKey identifies one known HSTS host. The host is always stored
// lower-cased; explicitPort is anyPort unless the policy is scoped to a
// single non-default port.
type hostKey struct {
	host         string
	explicitPort int
}

// newHostKey normalizes a host/port pair into a lookup key. An HTTPS
// origin on the default secure port collapses to the any-port sentinel.
func newHostKey(host string, port int, secure bool) hostKey {
	if secure && port == defaultSecurePort {
		port = anyPort
	}
	return hostKey{host: strings.ToLower(host), explicitPort: port}
}

// isIPLiteral reports whether host parses as an IPv4 or IPv6 address.
// RFC 6797 forbids IP literals from ever being HSTS hosts.
func isIPLiteral(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}
