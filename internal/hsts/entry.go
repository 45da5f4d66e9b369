package hsts

// policyEntry is one known-host record: when the policy was received, its
// time-to-live in seconds, and whether it extends to subdomains.
type policyEntry struct {
	created           int64
	maxAge            int64
	includeSubdomains bool
}

// expired reports whether the entry's TTL has elapsed at the given time.
func (e *policyEntry) expired(now int64) bool {
	return now >= e.created+e.maxAge
}

// newPolicyEntry validates and builds an entry. Non-positive timestamps
// and TTLs are rejected, as is any created+maxAge sum that would wrap
// around, so a corrupted or hostile max-age can never yield an immortal
// policy.
func newPolicyEntry(created, maxAge int64, includeSubdomains bool) (*policyEntry, bool) {
	if created <= 0 || maxAge <= 0 {
		return nil, false
	}
	if created+maxAge < created {
		return nil, false
	}
	return &policyEntry{
		created:           created,
		maxAge:            maxAge,
		includeSubdomains: includeSubdomains,
	}, true
}
