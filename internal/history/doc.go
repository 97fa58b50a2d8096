// Package history builds Timestream queries for historical device data and
// shapes their results.
//
// A request names a time span and a set of attributes. Each attribute is
// either an Aggregate over a measure, binned by the span's bin width, or a
// Raw measure:
//
//	stmt, err := history.SensorQuery{
//	    Span: history.LastDay,
//	    Attributes: history.Attributes{
//	        {Name: "avgMA", Attribute: history.Aggregate{Func: history.Avg, Source: "mA"}},
//	    },
//	    Table:    history.Table{Database: "db", Name: "history"},
//	    DeviceID: deviceID,
//	    Context:  history.ContextFor(model, "gain"),
//	    Now:      now,
//	}.Statement()
//
// The fragment builders (BinExpression, BuildWindow, AggregateList,
// MeasureNames) only produce SQL text and never execute queries. The clock is
// always passed in.
//
// Raw location rows come back narrow (measure_name, measure_value::double);
// Normalize pivots them into columns named after the measure.
package history
