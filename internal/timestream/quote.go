package timestream

import "strings"

// QuoteLiteral returns s as a single-quoted SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteIdentifier returns s as a double-quoted SQL identifier.
func QuoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// Oneline collapses a statement onto a single line for logging.
func Oneline(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
