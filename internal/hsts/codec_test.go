package hsts

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	t.Run("explicit port", func(t *testing.T) {
		rec, err := parseLine("test.example.com:8080\t0\t1434224817\t789789789")
		require.NoError(t, err)
		assert.Equal(t, "test.example.com", rec.key.host)
		assert.Equal(t, 8080, rec.key.explicitPort)
		assert.EqualValues(t, 1434224817, rec.entry.created)
		assert.EqualValues(t, 789789789, rec.entry.maxAge)
		assert.False(t, rec.entry.includeSubdomains)
	})

	t.Run("any port", func(t *testing.T) {
		rec, err := parseLine("foo.example.com\t1\t1434224817\t123123123")
		require.NoError(t, err)
		assert.Equal(t, "foo.example.com", rec.key.host)
		assert.Equal(t, anyPort, rec.key.explicitPort)
		assert.True(t, rec.entry.includeSubdomains)
	})

	t.Run("host case-folded", func(t *testing.T) {
		rec, err := parseLine("FOO.Example.COM\t0\t10\t10")
		require.NoError(t, err)
		assert.Equal(t, "foo.example.com", rec.key.host)
	})
}

func TestParseLineRejectsMalformed(t *testing.T) {
	lines := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"host only", "foo.example.com"},
		{"missing max-age", "foo.example.com\t0\t1434224817"},
		{"malformed port", "foo.example.com:80a\t0\t1\t1"},
		{"port out of range", "foo.example.com:70000\t0\t1\t1"},
		{"empty port", "foo.example.com:\t0\t1\t1"},
		{"zero port", "foo.example.com:0\t0\t1\t1"},
		{"bad flag", "foo.example.com\t2\t1\t1"},
		{"long flag", "foo.example.com\t01\t1\t1"},
		{"non-numeric created", "foo.example.com\t0\tabc\t1"},
		{"signed created", "foo.example.com\t0\t-1\t1"},
		{"zero created", "foo.example.com\t0\t0\t1"},
		{"zero max-age", "foo.example.com\t0\t1\t0"},
		{"trailing field", "foo.example.com\t0\t1\t1\textra"},
		{"empty host", ":8080\t0\t1\t1"},
		{"wrap-around ttl", fmt.Sprintf("foo.example.com\t0\t2\t%d", int64(math.MaxInt64-1))},
	}
	for _, tt := range lines {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseLine(tt.line)
			assert.Error(t, err)
		})
	}
}

func TestLoadSkipsCommentsAndBadLines(t *testing.T) {
	s := newTestStore(t)
	input := "# HSTS Known Hosts database.\n" +
		"# <hostname>[:<port>]\t<incl. subdomains>\t<created>\t<max-age>\n" +
		"good.example.com\t1\t1434224817\t123\n" +
		"broken line without tabs\n" +
		"also.example.com\tbad\t1\t1\n" +
		"\n" +
		"last.example.com:8080\t0\t1434224817\t456\n"

	s.load(strings.NewReader(input))

	hosts := s.KnownHosts()
	require.Len(t, hosts, 2)
	assert.Equal(t, "good.example.com", hosts[0].Host)
	assert.Equal(t, "last.example.com", hosts[1].Host)
	assert.Equal(t, 8080, hosts[1].Port)
}

func TestDumpRoundTrip(t *testing.T) {
	s := newTestStore(t)
	require.True(t, s.StoreEntry("https", "foo.example.com", 443, 123123123, true))
	require.True(t, s.StoreEntry("https", "bar.example.com", 443, 456456456, false))
	require.True(t, s.StoreEntry("https", "test.example.com", 8080, 789789789, false))

	var first bytes.Buffer
	require.NoError(t, s.dump(&first))

	reloaded := newTestStore(t)
	reloaded.load(strings.NewReader(first.String()))
	var second bytes.Buffer
	require.NoError(t, reloaded.dump(&second))

	assert.Equal(t, first.String(), second.String())
	assert.True(t, strings.HasPrefix(first.String(), "# HSTS Known Hosts database.\n"))
	assert.Contains(t, first.String(), "test.example.com:8080\t0\t")
}
