// Package policy decides which hosts are exempt from strict-transport
// enforcement.
package policy

import (
	"strings"

	"github.com/gobwas/glob"
)

// Exclusions evaluates host exclusion rules: hosts matching any pattern
// are never upgraded to HTTPS and no policy is ever learned for them.
type Exclusions struct {
	patterns []glob.Glob
}

// New compiles host glob patterns into an exclusion list.
func New(hosts []string) (*Exclusions, error) {
	patterns := make([]glob.Glob, 0, len(hosts))
	for _, h := range hosts {
		// Case-insensitive matching per DNS spec
		g, err := glob.Compile(strings.ToLower(h))
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, g)
	}
	return &Exclusions{patterns: patterns}, nil
}

// Excluded returns true if the host is exempt from enforcement.
func (e *Exclusions) Excluded(host string) bool {
	// Strip port if present
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	host = strings.ToLower(host)

	for _, pattern := range e.patterns {
		if pattern.Match(host) {
			return true
		}
	}
	return false
}
