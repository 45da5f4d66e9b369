package hsts

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// The on-disk format is UTF-8 text, one record per line, tab-separated:
//
//	hostname[:port] <TAB> include-subdomains <TAB> created <TAB> max-age
//
// The port suffix is omitted when the policy covers any port. Lines
// starting with '#' are comments; the two below are always emitted as an
// informational header on save.
const dumpHeader = "# HSTS Known Hosts database.\n" +
	"# <hostname>[:<port>]\t<incl. subdomains>\t<created>\t<max-age>\n"

// record is the parsed form of one known-hosts line.
type record struct {
	key   hostKey
	entry policyEntry
}

// parseState names the tokenizer states for one known-hosts line.
type parseState int

const (
	stateHost parseState = iota
	statePort
	stateFlag
	stateCreated
	stateMaxAge
	stateDone
)

// parseLine tokenizes one record line. Every field must be present and
// well formed; otherwise the whole line is rejected and no partial record
// survives. Records claiming a zero creation time or zero max-age are
// rejected as corrupt.
func parseLine(line string) (record, error) {
	var (
		state   = stateHost
		start   int
		host    string
		port    int
		flag    byte
		created int64
		maxAge  int64
	)
	fail := func(what string) (record, error) {
		return record{}, fmt.Errorf("known-hosts line %q: %s", line, what)
	}

	// A virtual newline terminates the scan so the last field closes
	// through the same transitions as the others.
	for i := 0; i <= len(line); i++ {
		c := byte('\n')
		if i < len(line) {
			c = line[i]
		}

		switch state {
		case stateHost:
			switch c {
			case ':':
				host = line[start:i]
				start = i + 1
				state = statePort
			case '\t':
				host = line[start:i]
				port = anyPort
				start = i + 1
				state = stateFlag
			case '\n':
				return fail("truncated after hostname")
			}
		case statePort:
			switch c {
			case '\t':
				n, err := parseDecimal(line[start:i])
				if err != nil || n < 1 || n > 65535 {
					return fail("malformed port")
				}
				port = int(n)
				start = i + 1
				state = stateFlag
			case '\n':
				return fail("truncated after port")
			}
		case stateFlag:
			switch c {
			case '\t':
				f := line[start:i]
				if f != "0" && f != "1" {
					return fail("malformed include-subdomains flag")
				}
				flag = f[0]
				start = i + 1
				state = stateCreated
			case '\n':
				return fail("truncated after flag")
			}
		case stateCreated:
			switch c {
			case '\t':
				n, err := parseDecimal(line[start:i])
				if err != nil {
					return fail("malformed creation time")
				}
				created = n
				start = i + 1
				state = stateMaxAge
			case '\n':
				return fail("truncated after creation time")
			}
		case stateMaxAge:
			switch c {
			case '\t':
				return fail("trailing field")
			case '\n':
				n, err := parseDecimal(line[start:i])
				if err != nil {
					return fail("malformed max-age")
				}
				maxAge = n
				state = stateDone
			}
		}
	}

	if state != stateDone {
		return fail("truncated line")
	}
	if host == "" {
		return fail("empty hostname")
	}
	if created == 0 || maxAge == 0 {
		return fail("zero creation time or max-age")
	}
	entry, ok := newPolicyEntry(created, maxAge, flag == '1')
	if !ok {
		return fail("max-age wraps around")
	}
	return record{
		key:   hostKey{host: strings.ToLower(host), explicitPort: port},
		entry: *entry,
	}, nil
}

// parseDecimal converts an unsigned decimal field. Signs, spaces, and any
// other non-digit byte are rejected so a mangled field never half-parses.
func parseDecimal(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-decimal byte %q", c)
		}
		d := int64(c - '0')
		if n > (math.MaxInt64-d)/10 {
			return 0, fmt.Errorf("number out of range")
		}
		n = n*10 + d
	}
	return n, nil
}

// formatLine renders one record in the on-disk format.
func formatLine(rec record) string {
	host := rec.key.host
	if rec.key.explicitPort != anyPort {
		host += ":" + strconv.Itoa(rec.key.explicitPort)
	}
	flag := "0"
	if rec.entry.includeSubdomains {
		flag = "1"
	}
	return fmt.Sprintf("%s\t%s\t%d\t%d\n", host, flag, rec.entry.created, rec.entry.maxAge)
}

// load reads every valid record from r into the store, skipping comments
// and lines that fail to parse. No inter-entry merge logic applies; a
// duplicate key simply replaces the earlier record.
func (s *Store) load(r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			continue
		}
		s.put(rec.key, rec.entry)
	}
}

// dump writes the whole store in the on-disk format, sorted by host for
// stable output. Callers must hold the store lock.
func (s *Store) dump(w io.Writer) error {
	if _, err := io.WriteString(w, dumpHeader); err != nil {
		return err
	}
	for _, rec := range s.records() {
		if _, err := io.WriteString(w, formatLine(rec)); err != nil {
			return err
		}
	}
	return nil
}

// records snapshots every stored policy, sorted by host then port.
func (s *Store) records() []record {
	var recs []record
	for host, ports := range s.hosts {
		for port, e := range ports {
			recs = append(recs, record{
				key:   hostKey{host: host, explicitPort: port},
				entry: *e,
			})
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].key.host != recs[j].key.host {
			return recs[i].key.host < recs[j].key.host
		}
		return recs[i].key.explicitPort < recs[j].key.explicitPort
	})
	return recs
}
