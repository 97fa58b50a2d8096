package history

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSpan names a historical data chart range.
type TimeSpan string

const (
	LastHour  TimeSpan = "lastHour"
	LastDay   TimeSpan = "lastDay"
	LastWeek  TimeSpan = "lastWeek"
	LastMonth TimeSpan = "lastMonth"
)

// ErrUnknownTimeSpan is matched by every *UnknownTimeSpanError.
var ErrUnknownTimeSpan = errors.New("unknown time span")

// UnknownTimeSpanError is returned when a label is not one of the known time spans.
type UnknownTimeSpanError struct {
	Label string
}

func (e *UnknownTimeSpanError) Error() string {
	return fmt.Sprintf("%s is not a valid time span", e.Label)
}

func (e *UnknownTimeSpanError) Is(target error) bool {
	return target == ErrUnknownTimeSpan
}

// TimeSpanEntry is the bin width and lookback of a time span.
// Durations use the Timestream interval notation, e.g. "5minutes".
type TimeSpanEntry struct {
	Bin      string
	Duration string
	Expires  string
}

// ExpiresAfter returns how long a query result for this span stays fresh.
func (e TimeSpanEntry) ExpiresAfter() time.Duration {
	d, err := parseInterval(e.Expires)
	if err != nil {
		return 0
	}
	return d
}

// The table is a switch so it cannot be extended at runtime.
func (s TimeSpan) entry() (TimeSpanEntry, bool) {
	switch s {
	case LastHour:
		return TimeSpanEntry{Bin: "1minute", Duration: "1hour", Expires: "1minute"}, true
	case LastDay:
		return TimeSpanEntry{Bin: "5minutes", Duration: "24hours", Expires: "5minutes"}, true
	case LastWeek:
		return TimeSpanEntry{Bin: "1hour", Duration: "7days", Expires: "5minutes"}, true
	case LastMonth:
		return TimeSpanEntry{Bin: "1hour", Duration: "30days", Expires: "15minutes"}, true
	default:
		return TimeSpanEntry{}, false
	}
}

// TimeSpans returns all known time spans, shortest first.
func TimeSpans() []TimeSpan {
	return []TimeSpan{LastHour, LastDay, LastWeek, LastMonth}
}

// Resolve looks up the entry for a time span label.
func Resolve(label string) (TimeSpanEntry, error) {
	e, ok := TimeSpan(label).entry()
	if !ok {
		return TimeSpanEntry{}, &UnknownTimeSpanError{Label: label}
	}
	return e, nil
}

// singular strips the plural "s" Timestream does not accept in interval literals.
func singular(interval string) string {
	return strings.TrimSuffix(interval, "s")
}

var intervalUnits = map[string]time.Duration{
	"second": time.Second,
	"minute": time.Minute,
	"hour":   time.Hour,
	"day":    24 * time.Hour,
}

// parseInterval parses "<n><unit>[s]" into a duration.
func parseInterval(interval string) (time.Duration, error) {
	s := singular(interval)
	i := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if i <= 0 {
		return 0, fmt.Errorf("invalid interval %q", interval)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", interval, err)
	}
	unit, ok := intervalUnits[s[i:]]
	if !ok {
		return 0, fmt.Errorf("invalid interval unit in %q", interval)
	}
	return time.Duration(n) * unit, nil
}
