package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/xxh3"

	"github.com/hello-nrfcloud/backend-sub002/internal/cache"
	"github.com/hello-nrfcloud/backend-sub002/internal/constants"
)

// LocationMessage is the request message selecting raw location history.
const LocationMessage = "location"

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("request is invalid")

// Request is a historical data request as sent by the web application.
type Request struct {
	ID         string     `json:"@id"`
	Message    string     `json:"message"`
	Type       TimeSpan   `json:"type"`
	Attributes Attributes `json:"attributes"`
}

// Series is the data of one requested sensor attribute. Its rows carry the
// value under the attribute's source measure name next to "ts".
type Series struct {
	Name string
	Rows []Row
}

// Response answers a Request. Its JSON form carries the data under
// "attributes": an object of series for sensor messages, a list of rows for
// location.
type Response struct {
	Context string
	ID      string
	Message string
	Type    TimeSpan
	// Series holds one entry per requested attribute in request order. Only
	// set for sensor messages.
	Series []Series
	// Rows holds one row per time keyed by attribute name. Only set for
	// location messages.
	Rows []Row
}

type responseJSON struct {
	Context    string          `json:"@context"`
	ID         string          `json:"@id,omitempty"`
	Type       TimeSpan        `json:"type"`
	Message    string          `json:"message"`
	Attributes json.RawMessage `json:"attributes"`
}

// MarshalJSON implements json.Marshaler.
func (r Response) MarshalJSON() ([]byte, error) {
	var (
		attrs []byte
		err   error
	)
	if r.Series != nil {
		attrs, err = marshalSeries(r.Series)
	} else {
		rows := r.Rows
		if rows == nil {
			rows = []Row{}
		}
		attrs, err = json.Marshal(rows)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(responseJSON{
		Context:    r.Context,
		ID:         r.ID,
		Type:       r.Type,
		Message:    r.Message,
		Attributes: attrs,
	})
}

func marshalSeries(series []Series) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range series {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		rows := s.Rows
		if rows == nil {
			rows = []Row{}
		}
		val, err := json.Marshal(rows)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Querier runs a Timestream statement.
type Querier interface {
	Query(ctx context.Context, statement string) ([]Row, error)
}

// ContextFor returns the JSON-LD context under which transformed messages of
// a device model are stored.
func ContextFor(model, message string) string {
	return fmt.Sprintf("%s/%s/%s", constants.ContextBase,
		url.PathEscape(model), url.PathEscape(message))
}

// Repository answers historical data requests.
type Repository struct {
	querier Querier
	table   Table
	results *cache.Cache[uint64, []Row]
	now     func() time.Time
	logger  zerolog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithClock sets the clock used for query windows and result expiry.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		r.now = now
	}
}

// NewRepository creates a Repository reading from table.
func NewRepository(q Querier, table Table, logger zerolog.Logger, opts ...RepositoryOption) *Repository {
	r := &Repository{
		querier: q,
		table:   table,
		now:     time.Now,
		logger:  logger.With().Str("component", "history").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.results = cache.New[uint64, []Row](cache.WithClock(r.now))
	return r
}

// Validate checks that req can be turned into a query.
func Validate(req Request) error {
	if _, err := Resolve(string(req.Type)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(req.Attributes) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrNoAttributes)
	}
	for _, a := range req.Attributes {
		if a.Attribute != nil && a.Attribute.sourceColumn() == "" {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRequest, a.Name, ErrNoSource)
		}
		switch attr := a.Attribute.(type) {
		case Aggregate:
			if req.Message == LocationMessage {
				return fmt.Errorf("%w: location attribute %s must not be aggregated", ErrInvalidRequest, a.Name)
			}
			if !validAggregate(attr.Func) {
				return fmt.Errorf("%w: unsupported aggregate %q for %s", ErrInvalidRequest, attr.Func, a.Name)
			}
		case Raw:
			if req.Message != LocationMessage {
				return fmt.Errorf("%w: attribute %s needs an aggregate", ErrInvalidRequest, a.Name)
			}
		default:
			return fmt.Errorf("%w: attribute %s is empty", ErrInvalidRequest, a.Name)
		}
	}
	return nil
}

func validAggregate(fn AggregateFunc) bool {
	switch fn {
	case Avg, Min, Max, Sum, Count:
		return true
	}
	return false
}

// Get returns the historical data of deviceID for req.
func (r *Repository) Get(ctx context.Context, deviceID, model string, req Request) (Response, error) {
	if err := Validate(req); err != nil {
		return Response{}, err
	}

	ctxURL := ContextFor(model, req.Message)
	key, err := cacheKey(deviceID, ctxURL, req)
	if err != nil {
		return Response{}, err
	}

	rows, ok := r.results.Get(key)
	if ok {
		r.logger.Debug().Str("device_id", deviceID).Str("type", string(req.Type)).Msg("serving cached result")
	} else {
		rows, err = r.query(ctx, deviceID, ctxURL, req)
		if err != nil {
			return Response{}, err
		}
		entry, _ := Resolve(string(req.Type))
		r.results.Set(key, rows, entry.ExpiresAfter())
	}

	resp := Response{
		Context: constants.HistoricalDataResponseContext,
		ID:      req.ID,
		Message: req.Message,
		Type:    req.Type,
	}
	if req.Message == LocationMessage {
		mappings := make([]KeyMapping, 0, len(req.Attributes))
		for _, a := range req.Attributes {
			mappings = append(mappings, KeyMapping{From: a.Attribute.sourceColumn(), To: a.Name})
		}
		resp.Rows = Transform(rows, mappings)
		return resp, nil
	}

	resp.Series = make([]Series, 0, len(req.Attributes))
	for _, a := range req.Attributes {
		resp.Series = append(resp.Series, Series{
			Name: a.Name,
			Rows: Transform(rows, []KeyMapping{{From: a.Name, To: a.Attribute.sourceColumn()}}),
		})
	}
	return resp, nil
}

// query returns the raw rows for req. Location rows are normalized.
func (r *Repository) query(ctx context.Context, deviceID, ctxURL string, req Request) ([]Row, error) {
	var (
		statement string
		err       error
	)

	if req.Message == LocationMessage {
		statement, err = LocationQuery{
			Span:       req.Type,
			Attributes: req.Attributes,
			Table:      r.table,
			DeviceID:   deviceID,
			Context:    ctxURL,
			Now:        r.now(),
		}.Statement()
	} else {
		statement, err = SensorQuery{
			Span:       req.Type,
			Attributes: req.Attributes,
			Table:      r.table,
			DeviceID:   deviceID,
			Context:    ctxURL,
			Now:        r.now(),
		}.Statement()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	r.logger.Debug().Str("device_id", deviceID).Str("query", statement).Msg("querying historical data")

	rows, err := r.querier.Query(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to query historical data for %s: %w", deviceID, err)
	}
	if req.Message == LocationMessage {
		rows = Normalize(rows)
	}
	return rows, nil
}

// cacheKey identifies a request independent of the time it was made.
func cacheKey(deviceID, ctxURL string, req Request) (uint64, error) {
	attrs, err := json.Marshal(req.Attributes)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	h := xxh3.New()
	for _, part := range []string{deviceID, ctxURL, string(req.Type), string(attrs)} {
		_, _ = h.WriteString(part)
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64(), nil
}
