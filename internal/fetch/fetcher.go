// Package fetch performs the outbound HTTP GET of a check using gocolly.
package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
)

// Config controls fetch behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Response is an HTTP response received from the target, regardless of status
// class. A 404 or 500 is still a response, not a fetch failure.
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

// Reason classifies why a target could not be reached.
type Reason string

// Unreachable reasons.
const (
	ReasonTimeout     Reason = "timeout"
	ReasonDNS         Reason = "dns"
	ReasonConnRefused Reason = "connection_refused"
	ReasonTLS         Reason = "tls"
	ReasonOther       Reason = "unreachable"
)

// Unreachable reports that the GET produced no HTTP response at all.
type Unreachable struct {
	Reason Reason
	Err    error
}

func (e *Unreachable) Error() string {
	return fmt.Sprintf("target unreachable (%s): %v", e.Reason, e.Err)
}

func (e *Unreachable) Unwrap() error { return e.Err }

// Client fetches pages with a shared base collector.
type Client struct {
	cfg  Config
	base *colly.Collector
}

// New builds a Client. The collector parses error-status responses so a 4xx
// or 5xx reaches the response hook instead of surfacing as an error, and
// allows revisits because the same URL is checked repeatedly over time.
func New(cfg Config) *Client {
	opts := []colly.CollectorOption{
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	}
	if cfg.MaxBodyBytes > 0 {
		opts = append(opts, colly.MaxBodySize(cfg.MaxBodyBytes))
	}
	c := colly.NewCollector(opts...)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &Client{cfg: cfg, base: c}
}

// Fetch performs exactly one GET against url. It returns the response for any
// HTTP status, an *Unreachable error when no response was received, or the
// context error if ctx fired first.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	collector := c.base.Clone()
	timeout := c.cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	collector.SetRequestTimeout(timeout)

	var (
		resp     *Response
		fetchErr error
	)
	start := time.Now()
	collector.OnResponse(func(r *colly.Response) {
		resp = &Response{
			StatusCode: r.StatusCode,
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		// Abandon the in-flight request; the caller records nothing.
		return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err == nil && fetchErr == nil {
			if resp == nil {
				return nil, &Unreachable{Reason: ReasonOther, Err: errors.New("no response received")}
			}
			return resp, nil
		}
		if err == nil {
			err = fetchErr
		}
		return nil, classify(err)
	}
}

// classify maps a transport error onto an Unreachable reason.
func classify(err error) *Unreachable {
	var (
		dnsErr     *net.DNSError
		certErr    *tls.CertificateVerificationError
		recordErr  tls.RecordHeaderError
		unknownErr x509.UnknownAuthorityError
		hostErr    x509.HostnameError
	)
	switch {
	case errors.As(err, &dnsErr):
		return &Unreachable{Reason: ReasonDNS, Err: err}
	case errors.As(err, &certErr), errors.As(err, &recordErr),
		errors.As(err, &unknownErr), errors.As(err, &hostErr):
		return &Unreachable{Reason: ReasonTLS, Err: err}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &Unreachable{Reason: ReasonConnRefused, Err: err}
	case isTimeout(err):
		return &Unreachable{Reason: ReasonTimeout, Err: err}
	default:
		return &Unreachable{Reason: ReasonOther, Err: err}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
