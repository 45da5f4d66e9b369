package hsts

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "known_hosts"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		stored string
		want   matchType
	}{
		{"equal", "foo.com", "foo.com", congruentMatch},
		{"equal case-insensitive", "FOO.com", "foo.COM", congruentMatch},
		{"subdomain", "www.foo.com", "foo.com", superdomainMatch},
		{"deep subdomain", "b.www.foo.com", "www.foo.com", superdomainMatch},
		{"reverse direction", "foo.com", "www.foo.com", noMatch},
		{"partial label suffix", "foo.com", "oo.com", noMatch},
		{"suffix without label boundary", "barfoo.com", "foo.com", noMatch},
		{"empty left label", ".foo.com", "foo.com", noMatch},
		{"unrelated", "bar.org", "foo.com", noMatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.query, tt.stored))
		})
	}
}

func TestFindEntryScenarios(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.StoreEntry("https", "www.foo.com", 443, 1234, true))

	t.Run("congruent at default secure port", func(t *testing.T) {
		e, _, match := s.findEntry("www.foo.com", 443)
		require.NotNil(t, e)
		assert.Equal(t, congruentMatch, match)
		assert.EqualValues(t, 1234, e.maxAge)
		assert.True(t, e.includeSubdomains)
	})

	t.Run("congruent on any port", func(t *testing.T) {
		e, _, match := s.findEntry("www.foo.com", 8443)
		require.NotNil(t, e)
		assert.Equal(t, congruentMatch, match)
	})

	t.Run("case-insensitive query", func(t *testing.T) {
		e, _, match := s.findEntry("WWW.FOO.COM", 443)
		require.NotNil(t, e)
		assert.Equal(t, congruentMatch, match)
	})

	t.Run("subdomain peels to stored host", func(t *testing.T) {
		e, _, match := s.findEntry("b.www.foo.com", 443)
		require.NotNil(t, e)
		assert.Equal(t, superdomainMatch, match)
	})

	t.Run("shared suffix is no match", func(t *testing.T) {
		e, _, match := s.findEntry("ww.foo.com", 443)
		assert.Nil(t, e)
		assert.Equal(t, noMatch, match)
	})

	t.Run("parent domain is no match", func(t *testing.T) {
		e, _, match := s.findEntry("foo.com", 443)
		assert.Nil(t, e)
		assert.Equal(t, noMatch, match)
	})
}

func TestFindEntryNeverConsultsApex(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.StoreEntry("https", "com", 443, 1000, true))

	// The peeling walk stops before a dotless remainder, so a stored
	// top-level apex can never cover a whole TLD.
	e, _, match := s.findEntry("example.com", 443)
	assert.Nil(t, e)
	assert.Equal(t, noMatch, match)

	// The apex entry itself is still reachable congruently.
	e, _, match = s.findEntry("com", 443)
	require.NotNil(t, e)
	assert.Equal(t, congruentMatch, match)
}

func TestFindEntryPortScoping(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.StoreEntry("https", "api.example.com", 8443, 600, false))

	t.Run("same port", func(t *testing.T) {
		e, _, match := s.findEntry("api.example.com", 8443)
		require.NotNil(t, e)
		assert.Equal(t, congruentMatch, match)
	})

	t.Run("different port", func(t *testing.T) {
		e, _, _ := s.findEntry("api.example.com", 9000)
		assert.Nil(t, e)
	})
}
