// Package testutil provides helpers shared by package tests.
package testutil

import (
	"context"
	"testing"
	"time"
)

// NewTestContext returns a context that is canceled after 30 seconds or when
// the test ends.
func NewTestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Clock is a settable clock for code that takes a func() time.Time.
type Clock struct {
	t time.Time
}

// NewClock returns a Clock set to t.
func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time { return c.t }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) { c.t = c.t.Add(d) }
