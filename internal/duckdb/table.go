package duckdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hello-nrfcloud/backend-sub002/internal/retry"
)

// ErrNoPrimaryKey is returned by key lookups on a table without pk column.
var ErrNoPrimaryKey = errors.New("no primary key defined for table")

// Execer is an interface that matches both *sql.DB and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Table is a generic wrapper around a table whose rows map to T.
type Table[T any] struct {
	db        Execer
	tableName string
	columns   []string
	pkColumns []string
	fieldMap  map[string]int // column name to field index
	types     map[string]string
	logger    zerolog.Logger
}

// conflictRetry retries writes that lose a DuckDB optimistic concurrency race.
var conflictRetry = retry.Config{
	MaxRetries:     10,
	InitialBackoff: 10 * time.Millisecond,
	MaxBackoff:     500 * time.Millisecond,
	Jitter:         0.1,
}

// NewTable creates a Table for T, which must be a struct with `duckdb` tags.
// A tag option "pk" marks primary key columns.
func NewTable[T any](db Execer, tableName string) *Table[T] {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Struct {
		panic("Table generic type T must be a struct")
	}

	table := &Table[T]{
		db:        db,
		tableName: tableName,
		fieldMap:  make(map[string]int),
		types:     make(map[string]string),
		logger:    zerolog.Nop(),
	}
	for i := range t.NumField() {
		field := t.Field(i)
		tag := field.Tag.Get("duckdb")
		if tag == "" || tag == "-" {
			continue
		}

		parts := strings.Split(tag, ",")
		col := strings.TrimSpace(parts[0])
		table.columns = append(table.columns, col)
		table.fieldMap[col] = i
		table.types[col] = sqlType(field.Type)
		for _, p := range parts[1:] {
			if strings.TrimSpace(p) == "pk" {
				table.pkColumns = append(table.pkColumns, col)
			}
		}
	}
	return table
}

// WithLogger logs every statement at debug level.
func (t *Table[T]) WithLogger(logger zerolog.Logger) *Table[T] {
	t.logger = logger
	return t
}

func sqlType(t reflect.Type) string {
	if t == reflect.TypeFor[time.Time]() {
		return "TIMESTAMP"
	}
	switch t.Kind() {
	case reflect.Bool:
		return "BOOLEAN"
	case reflect.Int, reflect.Int64:
		return "BIGINT"
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return "INTEGER"
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "UBIGINT"
	case reflect.Float32, reflect.Float64:
		return "DOUBLE"
	default:
		return "VARCHAR"
	}
}

// CreateStatement returns the CREATE TABLE IF NOT EXISTS statement for T.
func (t *Table[T]) CreateStatement() string {
	defs := make([]string, 0, len(t.columns)+1)
	for _, col := range t.columns {
		defs = append(defs, col+" "+t.types[col])
	}
	if len(t.pkColumns) > 0 {
		defs = append(defs, "PRIMARY KEY ("+strings.Join(t.pkColumns, ", ")+")")
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", t.tableName, strings.Join(defs, ", "))
}

// EnsureSchema creates the table if it does not exist yet.
func (t *Table[T]) EnsureSchema(ctx context.Context) error {
	if _, err := t.db.ExecContext(ctx, t.CreateStatement()); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.tableName, err)
	}
	return nil
}

// Upsert inserts item, or updates every non-key column when a row with the
// same primary key exists.
func (t *Table[T]) Upsert(ctx context.Context, item *T) error {
	placeholders := make([]string, len(t.columns))
	updates := make([]string, 0, len(t.columns))
	for i, col := range t.columns {
		placeholders[i] = "?"
		if !slices.Contains(t.pkColumns, col) {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}

	// #nosec G201 - table and column names come from struct tags
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		t.tableName,
		strings.Join(t.columns, ", "),
		strings.Join(placeholders, ", "),
	)
	if len(t.pkColumns) > 0 {
		action := "DO NOTHING"
		if len(updates) > 0 {
			action = "DO UPDATE SET " + strings.Join(updates, ", ")
		}
		query += fmt.Sprintf(" ON CONFLICT (%s) %s", strings.Join(t.pkColumns, ", "), action)
	}

	values := t.values(item)
	t.logger.Debug().Str("query", InterpolateQuery(query, values)).Msg("upsert")

	return retry.Do(ctx, conflictRetry, func() error {
		_, err := t.db.ExecContext(ctx, query, values...)
		return err
	}, isTransactionConflict)
}

// Get returns the row whose first primary key column equals id. A missing
// row yields sql.ErrNoRows.
func (t *Table[T]) Get(ctx context.Context, id any) (*T, error) {
	if len(t.pkColumns) == 0 {
		return nil, ErrNoPrimaryKey
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		strings.Join(t.columns, ", "), t.tableName, t.pkColumns[0])

	var item T
	if err := t.db.QueryRowContext(ctx, query, id).Scan(t.dest(&item)...); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes the row whose first primary key column equals id.
func (t *Table[T]) Delete(ctx context.Context, id any) error {
	if len(t.pkColumns) == 0 {
		return ErrNoPrimaryKey
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", t.tableName, t.pkColumns[0])
	_, err := t.db.ExecContext(ctx, query, id)
	return err
}

// List returns every row, ordered by the primary key when there is one.
func (t *Table[T]) List(ctx context.Context) ([]*T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(t.columns, ", "), t.tableName)
	if len(t.pkColumns) > 0 {
		query += " ORDER BY " + strings.Join(t.pkColumns, ", ")
	}

	rows, err := t.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*T
	for rows.Next() {
		var item T
		if err := rows.Scan(t.dest(&item)...); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}

func (t *Table[T]) values(item *T) []any {
	val := reflect.ValueOf(item).Elem()
	values := make([]any, len(t.columns))
	for i, col := range t.columns {
		values[i] = val.Field(t.fieldMap[col]).Interface()
	}
	return values
}

func (t *Table[T]) dest(item *T) []any {
	val := reflect.ValueOf(item).Elem()
	dest := make([]any, len(t.columns))
	for i, col := range t.columns {
		dest[i] = val.Field(t.fieldMap[col]).Addr().Interface()
	}
	return dest
}

func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Conflict on update") ||
		strings.Contains(msg, "TransactionContext Error") ||
		strings.Contains(msg, "serialization")
}
