package hsts

import "strings"

// matchType classifies the relationship between a queried host and a
// stored policy host.
type matchType int

const (
	noMatch matchType = iota
	superdomainMatch
	congruentMatch
)

// classify compares a queried host against a stored policy host.
// Congruent means case-insensitive equality; superdomain means the query
// is a strict subdomain of the stored host, with a full label boundary.
// Matching is not symmetric: the stored host being a subdomain of the
// query is no match, and a bare shared suffix ("oo.com" against
// "foo.com") is no match either.
func classify(queryHost, storedHost string) matchType {
	q := strings.ToLower(queryHost)
	s := strings.ToLower(storedHost)
	if q == s {
		return congruentMatch
	}
	if len(q) > len(s)+1 && strings.HasSuffix(q, "."+s) {
		return superdomainMatch
	}
	return noMatch
}

// findEntry locates the policy covering host/port. The host is first
// tried as an exact key; on a miss the left-most label is peeled off and
// the remainder retried, yielding a superdomain match on the first hit.
// The walk stops before a remainder without an interior dot, so a bare
// top-level apex is never consulted. Callers must hold the store lock.
func (s *Store) findEntry(host string, port int) (*policyEntry, hostKey, matchType) {
	cand := strings.ToLower(host)
	match := congruentMatch
	for {
		if e, key, ok := s.lookup(cand, port); ok {
			return e, key, match
		}
		dot := strings.IndexByte(cand, '.')
		if dot <= 0 || !strings.Contains(cand[dot+1:], ".") {
			return nil, hostKey{}, noMatch
		}
		cand = cand[dot+1:]
		match = superdomainMatch
	}
}

// lookup fetches a port-compatible entry stored under exactly this host.
// A policy stored with the any-port sentinel covers every queried port;
// otherwise the ports must agree exactly.
func (s *Store) lookup(host string, port int) (*policyEntry, hostKey, bool) {
	ports := s.hosts[host]
	if e, ok := ports[anyPort]; ok {
		return e, hostKey{host: host, explicitPort: anyPort}, true
	}
	if port != anyPort {
		if e, ok := ports[port]; ok {
			return e, hostKey{host: host, explicitPort: port}, true
		}
	}
	return nil, hostKey{}, false
}
