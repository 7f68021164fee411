package fetch

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSuccess(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><title>ok</title></html>"))
	}))
	defer srv.Close()

	client := New(Config{Timeout: 5 * time.Second})
	resp, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "<title>ok</title>")
	assert.Greater(t, resp.Duration, time.Duration(0))
}

func TestFetchErrorStatusIsStillAResponse(t *testing.T) {
	t.Parallel()

	codes := []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusForbidden}
	for _, code := range codes {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(code)
			_, _ = w.Write([]byte("error page"))
		}))

		client := New(Config{Timeout: 5 * time.Second})
		resp, err := client.Fetch(context.Background(), srv.URL)
		require.NoError(t, err, "status %d must not be a fetch failure", code)
		assert.Equal(t, code, resp.StatusCode)
		srv.Close()
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	t.Parallel()

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := New(Config{UserAgent: "pagecheck-test/1.0", Timeout: 5 * time.Second})
	_, err := client.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "pagecheck-test/1.0", gotUA)
}

func TestFetchConnectionRefused(t *testing.T) {
	t.Parallel()

	// Claim a port, then close it so nothing is listening.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := lis.Addr().String()
	require.NoError(t, lis.Close())

	client := New(Config{Timeout: 2 * time.Second})
	_, err = client.Fetch(context.Background(), "http://"+addr)
	var unreachable *Unreachable
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, ReasonConnRefused, unreachable.Reason)
}

func TestFetchTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	client := New(Config{Timeout: 100 * time.Millisecond})
	_, err := client.Fetch(context.Background(), srv.URL)
	var unreachable *Unreachable
	require.ErrorAs(t, err, &unreachable)
	assert.Equal(t, ReasonTimeout, unreachable.Reason)
}

func TestFetchContextCancellation(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	client := New(Config{Timeout: 10 * time.Second})
	_, err := client.Fetch(ctx, srv.URL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var unreachable *Unreachable
	assert.False(t, errors.As(err, &unreachable),
		"cancellation must not be classified as unreachable")
}

func TestClassifyReasons(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want Reason
	}{
		{
			name: "dns",
			err:  &net.DNSError{Err: "no such host", Name: "nope.invalid", IsNotFound: true},
			want: ReasonDNS,
		},
		{
			name: "refused",
			err:  &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED},
			want: ReasonConnRefused,
		},
		{name: "deadline", err: context.DeadlineExceeded, want: ReasonTimeout},
		{name: "tls record header", err: tls.RecordHeaderError{Msg: "bad record"}, want: ReasonTLS},
		{name: "other", err: errors.New("wire cut"), want: ReasonOther},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := classify(tc.err)
			assert.Equal(t, tc.want, got.Reason)
		})
	}
}
