// Package store defines the persistence model for registered URLs and their
// check history. Implementations live in the postgres and memory subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a referenced URL does not exist.
var ErrNotFound = errors.New("not found")

// URL is a registered page identity. The address is the normalized
// scheme://host[:port] form and is unique across the registry.
type URL struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Check is one immutable record of a single fetch attempt against a URL.
// StatusCode is nil when the fetch never produced an HTTP response. Empty
// metadata strings mean the field was absent from the page.
type Check struct {
	ID          int64     `json:"id"`
	URLID       int64     `json:"-"`
	StatusCode  *int      `json:"status_code"`
	Title       string    `json:"title,omitempty"`
	H1          string    `json:"h1,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the persistence boundary for the registry and the check log.
//
// GetOrCreateURL must be idempotent under concurrent calls for the same
// address: the uniqueness constraint on address is authoritative, and a
// rejected insert resolves to the existing row. InsertCheck is append-only;
// rows are never updated or deleted.
type Store interface {
	// GetOrCreateURL returns the URL registered under address, creating it
	// on first sight. The created flag reports whether a new row was made.
	GetOrCreateURL(ctx context.Context, address string) (URL, bool, error)
	// GetURL returns the URL with the given id, or ErrNotFound.
	GetURL(ctx context.Context, id int64) (URL, error)
	// ListURLs returns every registered URL in ascending id order.
	ListURLs(ctx context.Context) ([]URL, error)

	// InsertCheck appends a check to its URL's history and returns the
	// stored record with id and created_at assigned.
	InsertCheck(ctx context.Context, check Check) (Check, error)
	// ListChecks returns the full history for a URL, newest first
	// (created_at descending, ties broken by descending id).
	ListChecks(ctx context.Context, urlID int64) ([]Check, error)
	// LatestChecks returns the most recent check per URL id. URLs with no
	// checks have no entry in the map.
	LatestChecks(ctx context.Context) (map[int64]Check, error)

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
	Close()
}
