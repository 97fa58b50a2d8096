package timestream

import (
	"errors"
	"fmt"
	"strings"
)

// Builder constructs Timestream SELECT statements with a fluent API.
// Timestream has no bind parameters, so values are inlined as quoted literals.
type Builder struct {
	database string
	table    string
	columns  []string
	where    []string
	groupBy  []string
	orderBy  []orderClause
}

// orderClause represents an ORDER BY clause.
type orderClause struct {
	expr string
	desc bool
}

// NewQueryBuilder creates a builder selecting from "database"."table".
func NewQueryBuilder(database, table string) *Builder {
	return &Builder{database: database, table: table}
}

// Select appends select-list expressions.
//
//	Select("deviceId", "bin(time, 1hour) as time", `avg(measure_value::double) as "avgMA"`)
func (b *Builder) Select(exprs ...string) *Builder {
	b.columns = append(b.columns, exprs...)
	return b
}

// Where adds a raw condition. Multiple conditions are combined with AND.
func (b *Builder) Where(expr string) *Builder {
	b.where = append(b.where, expr)
	return b
}

// Eq adds column = 'value'.
func (b *Builder) Eq(column, value string) *Builder {
	return b.Where(fmt.Sprintf("%s = %s", column, QuoteLiteral(value)))
}

// In adds column in ('a','b'). An empty value list adds nothing.
func (b *Builder) In(column string, values ...string) *Builder {
	if len(values) == 0 {
		return b
	}
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = QuoteLiteral(v)
	}
	return b.Where(fmt.Sprintf("%s in (%s)", column, strings.Join(quoted, ",")))
}

// Between adds column BETWEEN start AND end. Bounds are SQL expressions.
func (b *Builder) Between(column, start, end string) *Builder {
	return b.Where(fmt.Sprintf("%s BETWEEN %s AND %s", column, start, end))
}

// GroupBy adds GROUP BY expressions.
func (b *Builder) GroupBy(exprs ...string) *Builder {
	b.groupBy = append(b.groupBy, exprs...)
	return b
}

// OrderBy adds ORDER BY expressions. A "-" prefix sorts descending.
//
//	OrderBy("-time")
func (b *Builder) OrderBy(exprs ...string) *Builder {
	for _, e := range exprs {
		desc := strings.HasPrefix(e, "-")
		b.orderBy = append(b.orderBy, orderClause{expr: strings.TrimPrefix(e, "-"), desc: desc})
	}
	return b
}

// Build returns the statement as a single line.
func (b *Builder) Build() (string, error) {
	if b.database == "" || b.table == "" {
		return "", errors.New("database and table name are required")
	}

	parts := make([]string, 0, 6)

	if len(b.columns) == 0 {
		parts = append(parts, "SELECT *")
	} else {
		parts = append(parts, "SELECT "+strings.Join(b.columns, ", "))
	}

	parts = append(parts, "FROM "+QuoteIdentifier(b.database)+"."+QuoteIdentifier(b.table))

	for i, w := range b.where {
		if i == 0 {
			parts = append(parts, "WHERE "+w)
		} else {
			parts = append(parts, "AND "+w)
		}
	}

	if len(b.groupBy) > 0 {
		parts = append(parts, "GROUP BY "+strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		order := make([]string, len(b.orderBy))
		for i, o := range b.orderBy {
			order[i] = o.expr
			if o.desc {
				order[i] += " DESC"
			}
		}
		parts = append(parts, "ORDER BY "+strings.Join(order, ", "))
	}

	return strings.Join(parts, " "), nil
}
