package history

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hello-nrfcloud/backend-sub002/internal/timestream"
)

// ErrNoAttributes is returned for a location query without attributes.
var ErrNoAttributes = errors.New("request does not have any attribute")

// Table identifies the Timestream table holding historical device data.
// Its text form is "<database>|<table>".
type Table struct {
	Database string
	Name     string
}

func (t Table) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Database + "|" + t.Name
}

// IsZero reports whether no table is configured.
func (t Table) IsZero() bool {
	return t.Database == "" && t.Name == ""
}

// MarshalText implements encoding.TextMarshaler.
func (t Table) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText parses "<database>|<table>". Empty text clears t.
func (t *Table) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*t = Table{}
		return nil
	}
	db, name, ok := strings.Cut(string(text), "|")
	if !ok || db == "" || name == "" {
		return fmt.Errorf("table %q is not in the form <database>|<table>", text)
	}
	*t = Table{Database: db, Name: name}
	return nil
}

// SensorQuery selects binned aggregates of device measures.
type SensorQuery struct {
	Span       TimeSpan
	Attributes Attributes
	Table      Table
	DeviceID   string
	Context    string
	Now        time.Time
}

// Statement builds the Timestream statement for the query.
func (q SensorQuery) Statement() (string, error) {
	window, err := BuildWindow(string(q.Span), q.Now)
	if err != nil {
		return "", err
	}
	bin, err := BinExpression(string(q.Span))
	if err != nil {
		return "", err
	}

	return timestream.NewQueryBuilder(q.Table.Database, q.Table.Name).
		Select("deviceId", bin+" as time").
		Select(AggregateList(q.Attributes)...).
		Eq("deviceId", q.DeviceID).
		Eq(`"@context"`, q.Context).
		Between("time", window.Start, window.End).
		In("measure_name", q.Attributes.SourceNames()...).
		GroupBy("deviceId", bin).
		OrderBy("-" + bin).
		Build()
}

// LocationQuery selects the raw location measures of a device.
type LocationQuery struct {
	Span       TimeSpan
	Attributes Attributes
	Table      Table
	DeviceID   string
	Context    string
	Now        time.Time
}

// Statement builds the Timestream statement for the query.
func (q LocationQuery) Statement() (string, error) {
	window, err := BuildWindow(string(q.Span), q.Now)
	if err != nil {
		return "", err
	}
	names := q.Attributes.SourceNames()
	if len(names) == 0 {
		return "", ErrNoAttributes
	}

	return timestream.NewQueryBuilder(q.Table.Database, q.Table.Name).
		Select("deviceId", "measure_name", "measure_value::double", "time").
		Eq("deviceId", q.DeviceID).
		Eq(`"@context"`, q.Context).
		In("measure_name", names...).
		Between("time", window.Start, window.End).
		OrderBy("-time").
		Build()
}
