// Package trading provides the trading discipline and performance engine:
// session lifecycle, trade ledger, kill-zone classification, rule gating and
// derived statistics.
package trading

import "time"

// Clock supplies the current instant and the trader's timezone. Every
// evaluation in this package takes time through a Clock (or an explicit
// now) so behavior stays deterministic under test.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// WallClock is the production clock, pinned to the trader's configured
// timezone.
type WallClock struct {
	loc *time.Location
}

// NewWallClock creates a clock for the given IANA timezone name.
func NewWallClock(timezone string) (*WallClock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &WallClock{loc: loc}, nil
}

// Now returns the current instant in the trader's timezone.
func (c *WallClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// Location returns the trader's timezone.
func (c *WallClock) Location() *time.Location {
	return c.loc
}

// FixedClock is a Clock frozen at a single instant, for tests.
type FixedClock struct {
	T time.Time
}

// Now returns the frozen instant.
func (c *FixedClock) Now() time.Time {
	return c.T
}

// Location returns the frozen instant's location.
func (c *FixedClock) Location() *time.Location {
	return c.T.Location()
}
