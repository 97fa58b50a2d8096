package history

import (
	"fmt"
	"maps"

	"github.com/hello-nrfcloud/backend-sub002/internal/timestream"
)

const (
	measureNameKey  = "measure_name"
	measureValueKey = "measure_value::double"
)

// Row is one result row, keyed by column name.
type Row = timestream.Row

// Normalize pivots narrow measure rows into wide rows: a row carrying both
// measure_name and measure_value::double gets an extra column named after the
// measure holding its value.
//
// Input rows are never modified. Pivoted rows are copies; other rows are
// returned as they are.
func Normalize(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = normalizeRow(row)
	}
	return out
}

func normalizeRow(row Row) Row {
	name, ok := row[measureNameKey]
	if !ok {
		return row
	}
	value, ok := row[measureValueKey]
	if !ok {
		return row
	}
	key, ok := name.(string)
	if !ok {
		key = fmt.Sprint(name)
	}
	pivoted := maps.Clone(row)
	pivoted[key] = value
	return pivoted
}
