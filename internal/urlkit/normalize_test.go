package urlkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain", raw: "http://example.com", want: "http://example.com"},
		{name: "uppercase scheme and host", raw: "HTTP://Example.COM", want: "http://example.com"},
		{name: "path discarded", raw: "http://example.com/some/path", want: "http://example.com"},
		{name: "query and fragment discarded", raw: "https://example.com/a?q=1#frag", want: "https://example.com"},
		{name: "default http port stripped", raw: "HTTP://Example.com:80/path?q=1", want: "http://example.com"},
		{name: "default https port stripped", raw: "https://example.com:443/", want: "https://example.com"},
		{name: "explicit port kept", raw: "http://example.com:8080/path", want: "http://example.com:8080"},
		{name: "https keeps non-default port", raw: "https://example.com:80", want: "https://example.com:80"},
		{name: "surrounding whitespace", raw: "  https://example.com  ", want: "https://example.com"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeSameIdentity(t *testing.T) {
	t.Parallel()

	a, err := Normalize("HTTP://Example.com:80/path?q=1")
	require.NoError(t, err)
	b, err := Normalize("http://example.com/other")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "http://example.com", a)
}

func TestNormalizeInvalid(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "relative", raw: "example.com/path"},
		{name: "ftp scheme", raw: "ftp://x"},
		{name: "mailto scheme", raw: "mailto:user@example.com"},
		{name: "scheme only", raw: "http://"},
		{name: "garbage", raw: "ht tp://bad host"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Normalize(tc.raw)
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}
