package timestream

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/timestreamquery/types"
	"github.com/cockroachdb/apd/v3"
)

// Row is one result row, keyed by column name.
type Row map[string]any

// TimestampLayout is how Timestream renders TIMESTAMP scalars.
const TimestampLayout = "2006-01-02 15:04:05.999999999"

// ParseRows converts raw Timestream rows into Rows using the column metadata.
func ParseRows(columns []types.ColumnInfo, rows []types.Row) ([]Row, error) {
	out := make([]Row, 0, len(rows))
	for i, r := range rows {
		if len(r.Data) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values for %d columns", i, len(r.Data), len(columns))
		}
		row := make(Row, len(columns))
		for j, col := range columns {
			v, err := parseDatum(col, r.Data[j])
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, aws.ToString(col.Name), err)
			}
			row[aws.ToString(col.Name)] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func parseDatum(col types.ColumnInfo, d types.Datum) (any, error) {
	if aws.ToBool(d.NullValue) || d.ScalarValue == nil {
		return nil, nil
	}
	s := *d.ScalarValue

	var scalar types.ScalarType
	if col.Type != nil {
		scalar = col.Type.ScalarType
	}

	switch scalar {
	case types.ScalarTypeDouble:
		dec, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid double %q: %w", s, err)
		}
		return dec.Float64()
	case types.ScalarTypeBigint, types.ScalarTypeInteger:
		return strconv.ParseInt(s, 10, 64)
	case types.ScalarTypeBoolean:
		return strconv.ParseBool(s)
	case types.ScalarTypeTimestamp:
		t, err := time.ParseInLocation(TimestampLayout, s, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		return t, nil
	default:
		return s, nil
	}
}
