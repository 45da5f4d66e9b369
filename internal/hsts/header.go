package hsts

import "strings"

// ParseHeader extracts max-age and includeSubDomains from a
// Strict-Transport-Security header value, e.g.
//
//	max-age=31536000; includeSubDomains
//
// Directive names are case-insensitive and unknown directives are
// ignored. The quoted-string form of directive values is not supported.
// ok is false when no parseable max-age directive is present; a max-age
// of zero is valid and signals deletion to StoreEntry.
func ParseHeader(value string) (maxAge int64, includeSubdomains bool, ok bool) {
	for _, directive := range strings.Split(value, ";") {
		directive = strings.TrimSpace(directive)
		if directive == "" {
			continue
		}
		name, val, hasVal := strings.Cut(directive, "=")
		name = strings.TrimSpace(name)
		switch {
		case strings.EqualFold(name, "max-age"):
			if !hasVal {
				return 0, false, false
			}
			n, err := parseDecimal(strings.TrimSpace(val))
			if err != nil {
				return 0, false, false
			}
			maxAge = n
			ok = true
		case strings.EqualFold(name, "includeSubDomains"):
			includeSubdomains = true
		}
	}
	if !ok {
		return 0, false, false
	}
	return maxAge, includeSubdomains, true
}
