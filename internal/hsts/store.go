package hsts

import (
	"bufio"
	"bytes"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is an in-memory HSTS known-hosts cache backed by a shared text
// file. All operations are safe for concurrent use within one process;
// cross-process consistency relies on the optimistic merge in Save.
//
// No operation fails loudly: ineligible hosts, malformed records, and
// unreadable or unwritable files all degrade to "policy not applied" or
// "policy not persisted".
type Store struct {
	mu        sync.Mutex
	hosts     map[string]map[int]*policyEntry
	lastMtime time.Time
	changed   bool
}

// Open loads the known-hosts database at path. A missing or unreadable
// file yields an empty store; that is not an error condition. The file's
// modification time is remembered so Save can detect concurrent writers.
func Open(path string) *Store {
	s := &Store{hosts: make(map[string]map[int]*policyEntry)}
	f, err := os.Open(path)
	if err != nil {
		return s
	}
	defer f.Close()
	s.load(f)
	if fi, err := f.Stat(); err == nil {
		s.lastMtime = fi.ModTime()
	}
	return s
}

// StoreEntry records, updates, or deletes the HSTS policy for host. It
// returns true only when a brand-new record was inserted. Non-HTTPS
// schemes and IP-literal hosts are silently ignored per RFC 6797, as are
// negative max-ages. A zero max-age deletes a congruent entry.
func (s *Store) StoreEntry(scheme, host string, port int, maxAge int64, includeSubdomains bool) bool {
	if !strings.EqualFold(scheme, "https") || host == "" || isIPLiteral(host) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hosts == nil {
		return false
	}

	key := newHostKey(host, port, true)
	entry, found, match := s.findEntry(key.host, key.explicitPort)
	if entry != nil && match == congruentMatch {
		if maxAge == 0 {
			s.remove(found)
			s.changed = true
		} else if maxAge > 0 {
			// RFC 6797: max-age is a TTL relative to the reception of
			// the STS header, so a changed value refreshes created too.
			created := entry.created
			if entry.maxAge != maxAge {
				created = time.Now().Unix()
			}
			if e, ok := newPolicyEntry(created, maxAge, includeSubdomains); ok {
				*entry = *e
				s.changed = true
			}
		}
		return false
	}

	// No covering entry, or only a superdomain policy: subdomains carry
	// their own independent policies.
	if maxAge <= 0 {
		return false
	}
	e, ok := newPolicyEntry(time.Now().Unix(), maxAge, includeSubdomains)
	if !ok {
		return false
	}
	s.put(key, *e)
	s.changed = true
	return true
}

// Match reports whether u is covered by a live HSTS policy, upgrading it
// to HTTPS in place when it is: the scheme is forced to https and an
// explicit default insecure port drops away, implying the default secure
// port. Expired entries found along the way are removed. URLs already on
// HTTPS, on other schemes, or naming IP literals are left alone.
func (s *Store) Match(u *url.URL) bool {
	if !strings.EqualFold(u.Scheme, "http") {
		return false
	}
	host := u.Hostname()
	if host == "" || isIPLiteral(host) {
		return false
	}
	port := defaultInsecurePort
	if ps := u.Port(); ps != "" {
		n, err := strconv.Atoi(ps)
		if err != nil {
			return false
		}
		port = n
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hosts == nil {
		return false
	}

	entry, key, match := s.findEntry(host, port)
	if entry == nil {
		return false
	}
	if entry.expired(time.Now().Unix()) {
		s.remove(key)
		s.changed = true
		return false
	}
	if match == superdomainMatch && !entry.includeSubdomains {
		return false
	}

	u.Scheme = "https"
	if port == defaultInsecurePort {
		u.Host = host
	}
	return true
}

// Save persists the store to path, best-effort. When the backing file has
// been modified since it was last read, another process wrote it in the
// meantime; its records are merged in first so neither writer's entries
// are dropped. An empty store writes nothing and leaves the file alone.
func (s *Store) Save(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.hosts) == 0 {
		return
	}

	if fi, err := os.Stat(path); err == nil && fi.ModTime().After(s.lastMtime) {
		if f, err := os.Open(path); err == nil {
			s.merge(f)
			f.Close()
		}
	}

	var buf bytes.Buffer
	if err := s.dump(&buf); err != nil {
		return
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return
	}
	if fi, err := os.Stat(path); err == nil {
		s.lastMtime = fi.ModTime()
	}
	s.changed = false
}

// merge folds the records in r into the store. Hosts only present on disk
// are adopted; for records congruent to an in-memory key, the on-disk
// version wins only when its created timestamp is strictly newer. This is
// optimistic last-writer-wins per key: it shrinks, but does not close,
// the window for lost updates between unsynchronized processes.
func (s *Store) merge(r io.Reader) {
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
		if cur, ok := s.hosts[rec.key.host][rec.key.explicitPort]; ok {
			if rec.entry.created > cur.created {
				*cur = rec.entry
			}
			continue
		}
		s.put(rec.key, rec.entry)
	}
}

// Close releases every entry and the mapping itself. It does not persist;
// call Save first when durability is wanted.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hosts = nil
	s.changed = false
}

// Changed reports whether the store has diverged from what Open loaded,
// so callers can skip a pointless Save.
func (s *Store) Changed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}

// KnownHost is a read-only view of one stored policy, for listings.
type KnownHost struct {
	Host              string
	Port              int // 0 when the policy covers any port
	Created           int64
	MaxAge            int64
	IncludeSubdomains bool
}

// KnownHosts returns a snapshot of every stored policy, sorted by host.
func (s *Store) KnownHosts() []KnownHost {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records()
	out := make([]KnownHost, 0, len(recs))
	for _, r := range recs {
		out = append(out, KnownHost{
			Host:              r.key.host,
			Port:              r.key.explicitPort,
			Created:           r.entry.created,
			MaxAge:            r.entry.maxAge,
			IncludeSubdomains: r.entry.includeSubdomains,
		})
	}
	return out
}

// put inserts or replaces the entry stored under key.
func (s *Store) put(key hostKey, e policyEntry) {
	ports := s.hosts[key.host]
	if ports == nil {
		ports = make(map[int]*policyEntry)
		s.hosts[key.host] = ports
	}
	ports[key.explicitPort] = &e
}

// remove drops the entry stored under key.
func (s *Store) remove(key hostKey) {
	ports := s.hosts[key.host]
	delete(ports, key.explicitPort)
	if len(ports) == 0 {
		delete(s.hosts, key.host)
	}
}
