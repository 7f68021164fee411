// Package analyzer implements the check pipeline: URL registration,
// fetch-and-extract check recording, and the latest-status projection.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/probelab/pagecheck/internal/fetch"
	"github.com/probelab/pagecheck/internal/htmlmeta"
	"github.com/probelab/pagecheck/internal/metrics"
	"github.com/probelab/pagecheck/internal/store"
	"github.com/probelab/pagecheck/internal/urlkit"
)

// Fetcher performs the single outbound GET of a check.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// URLStatus pairs a URL with its most recent check, if any.
type URLStatus struct {
	URL         store.URL    `json:"url"`
	LatestCheck *store.Check `json:"latest_check"`
}

// Service exposes the operations the HTTP layer consumes.
type Service struct {
	store   store.Store
	fetcher Fetcher
	logger  *zap.Logger
}

// New constructs a Service.
func New(st store.Store, fetcher Fetcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, fetcher: fetcher, logger: logger}
}

// RegisterURL normalizes raw and registers it, returning the existing record
// when the address is already known. The created flag reports first sight.
// Invalid input fails with urlkit.ErrInvalidURL; nothing is persisted.
func (s *Service) RegisterURL(ctx context.Context, raw string) (store.URL, bool, error) {
	address, err := urlkit.Normalize(raw)
	if err != nil {
		return store.URL{}, false, err
	}
	u, created, err := s.store.GetOrCreateURL(ctx, address)
	if err != nil {
		return store.URL{}, false, fmt.Errorf("register url: %w", err)
	}
	if created {
		metrics.ObserveURLRegistered()
		s.logger.Info("url registered", zap.Int64("url_id", u.ID), zap.String("address", u.Address))
	}
	return u, created, nil
}

// RunCheck fetches the URL's page once and appends exactly one Check.
// An unreachable target is a valid outcome: the check is recorded with no
// status code and no metadata, and the classified reason is logged and
// counted but not stored. Only context cancellation and store failures
// surface as errors.
func (s *Service) RunCheck(ctx context.Context, urlID int64) (store.Check, error) {
	u, err := s.store.GetURL(ctx, urlID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Check{}, err
		}
		return store.Check{}, fmt.Errorf("load url: %w", err)
	}

	check := store.Check{URLID: u.ID}
	var duration time.Duration

	resp, err := s.fetcher.Fetch(ctx, u.Address)
	switch {
	case err == nil:
		code := resp.StatusCode
		check.StatusCode = &code
		meta := htmlmeta.Extract(resp.Body)
		check.Title = meta.Title
		check.H1 = meta.H1
		check.Description = meta.Description
		duration = resp.Duration
	default:
		var unreachable *fetch.Unreachable
		if !errors.As(err, &unreachable) {
			// Cancellation or another non-transport failure: record nothing.
			return store.Check{}, fmt.Errorf("fetch %s: %w", u.Address, err)
		}
		metrics.ObserveUnreachable(string(unreachable.Reason))
		s.logger.Warn("target unreachable",
			zap.Int64("url_id", u.ID),
			zap.String("address", u.Address),
			zap.String("reason", string(unreachable.Reason)),
			zap.Error(unreachable.Err),
		)
	}

	saved, err := s.store.InsertCheck(ctx, check)
	if err != nil {
		return store.Check{}, fmt.Errorf("record check: %w", err)
	}
	metrics.ObserveCheck(saved.StatusCode != nil, duration)
	return saved, nil
}

// ListURLsWithLatest returns every registered URL joined with its most
// recent check, in ascending URL id order.
func (s *Service) ListURLsWithLatest(ctx context.Context) ([]URLStatus, error) {
	urls, err := s.store.ListURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list urls: %w", err)
	}
	latest, err := s.store.LatestChecks(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest checks: %w", err)
	}

	statuses := make([]URLStatus, 0, len(urls))
	for _, u := range urls {
		status := URLStatus{URL: u}
		if c, ok := latest[u.ID]; ok {
			check := c
			status.LatestCheck = &check
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// URLWithHistory returns the URL and its full check history, newest first.
func (s *Service) URLWithHistory(ctx context.Context, urlID int64) (store.URL, []store.Check, error) {
	u, err := s.store.GetURL(ctx, urlID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.URL{}, nil, err
		}
		return store.URL{}, nil, fmt.Errorf("load url: %w", err)
	}
	history, err := s.store.ListChecks(ctx, urlID)
	if err != nil {
		return store.URL{}, nil, fmt.Errorf("load check history: %w", err)
	}
	return u, history, nil
}
