package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoSource is returned for an attribute that names no source measure.
var ErrNoSource = errors.New("attribute does not name a source measure")

// Attribute describes one requested output column. It is either an
// Aggregate or a Raw measure.
type Attribute interface {
	sourceColumn() string
	isAttribute()
}

// AggregateFunc is a Timestream aggregate function name.
type AggregateFunc string

const (
	Avg   AggregateFunc = "avg"
	Min   AggregateFunc = "min"
	Max   AggregateFunc = "max"
	Sum   AggregateFunc = "sum"
	Count AggregateFunc = "count"
)

// Aggregate applies Func to the measure values of Source within each time bin.
type Aggregate struct {
	Func   AggregateFunc
	Source string
}

// Raw selects the measure named Source without aggregation.
type Raw struct {
	Source string
}

func (a Aggregate) sourceColumn() string { return a.Source }
func (Aggregate) isAttribute()           {}
func (r Raw) sourceColumn() string       { return r.Source }
func (Raw) isAttribute()                 {}

// NamedAttribute binds an attribute to its output column name.
type NamedAttribute struct {
	Name      string
	Attribute Attribute
}

// Source returns the measure a reads, or "" when it has no attribute.
func (a NamedAttribute) Source() string {
	if a.Attribute == nil {
		return ""
	}
	return a.Attribute.sourceColumn()
}

// Attributes is an ordered attribute mapping.
type Attributes []NamedAttribute

// AggregateList returns the select-list aggregates of attrs in order.
func AggregateList(attrs Attributes) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		agg, ok := a.Attribute.(Aggregate)
		if !ok {
			continue
		}
		out = append(out, fmt.Sprintf(`%s(measure_value::double) as "%s"`, agg.Func, a.Name))
	}
	return out
}

// MeasureNames returns the source column names of the raw attributes in order.
// Note these are source names, not the output names.
func MeasureNames(attrs Attributes) []string {
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if raw, ok := a.Attribute.(Raw); ok {
			out = append(out, raw.Source)
		}
	}
	return out
}

// SourceNames returns the distinct source columns of all attributes in
// first-seen order.
func (attrs Attributes) SourceNames() []string {
	seen := make(map[string]bool, len(attrs))
	out := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a.Attribute == nil {
			continue
		}
		src := a.Attribute.sourceColumn()
		if seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

type attributeJSON struct {
	Attribute string         `json:"attribute"`
	Aggregate *AggregateFunc `json:"aggregate,omitempty"`
}

// UnmarshalJSON decodes a JSON object keeping the key order of the document.
func (attrs *Attributes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("attributes: expected object, got %v", tok)
	}

	out := Attributes{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("attributes: expected key, got %v", tok)
		}
		var v attributeJSON
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("attributes: %s: %w", name, err)
		}
		if v.Attribute == "" {
			return fmt.Errorf("attributes: %s: %w", name, ErrNoSource)
		}
		var attr Attribute = Raw{Source: v.Attribute}
		if v.Aggregate != nil {
			attr = Aggregate{Func: *v.Aggregate, Source: v.Attribute}
		}
		out = append(out, NamedAttribute{Name: name, Attribute: attr})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*attrs = out
	return nil
}

// MarshalJSON encodes the attributes as a JSON object in order.
func (attrs Attributes) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		var v attributeJSON
		switch attr := a.Attribute.(type) {
		case Aggregate:
			fn := attr.Func
			v = attributeJSON{Attribute: attr.Source, Aggregate: &fn}
		case Raw:
			v = attributeJSON{Attribute: attr.Source}
		default:
			return nil, fmt.Errorf("attributes: %s has no attribute", a.Name)
		}
		val, err := json.Marshal(v)
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
