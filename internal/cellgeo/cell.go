// Package cellgeo caches geolocations resolved for mobile network cells.
//
// Resolving a cell through a location service is slow and billed, so
// resolved locations are kept in a Store keyed by CellID. DynamoStore backs
// the deployed service, DuckDBStore local runs, and Cached adds an in-process
// layer in front of either.
package cellgeo

import (
	"context"
	"fmt"
	"time"
)

// DefaultTTL is how long a resolved cell location is kept.
const DefaultTTL = 30 * 24 * time.Hour

// Cell identifies a mobile network cell.
type Cell struct {
	Area   int `json:"area"`
	MCCMNC int `json:"mccmnc"`
	Cell   int `json:"cell"`
}

// Location is the resolved position of a cell.
type Location struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy"`
}

// Entry pairs a cell with its location.
type Entry struct {
	Cell     Cell
	Location Location
}

// CellID returns the cache key of c, "<mccmnc>-<area>-<cell>".
func CellID(c Cell) string {
	return fmt.Sprintf("%d-%d-%d", c.MCCMNC, c.Area, c.Cell)
}

// Store keeps resolved cell locations. Get reports false for unknown or
// expired cells. Deleting an unknown cell is not an error.
type Store interface {
	Get(ctx context.Context, cell Cell) (Location, bool, error)
	Put(ctx context.Context, cell Cell, loc Location) error
	Delete(ctx context.Context, cell Cell) error
}

// StoredLocation is a stored entry as listed from a store.
type StoredLocation struct {
	CellID    string    `json:"cellId"`
	Location  Location  `json:"location"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type options struct {
	now func() time.Time
	ttl time.Duration
}

// Option configures a store.
type Option func(*options)

// WithClock sets the clock used to compute expiry.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTTL sets how long stored locations stay valid.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
