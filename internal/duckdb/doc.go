// Package duckdb provides a small generic table helper on top of DuckDB for
// local, file-backed storage.
//
// Rows are plain structs tagged with `duckdb`:
//
//	type cellLocation struct {
//	    CellID   string  `duckdb:"cell_id,pk"`
//	    Lat      float64 `duckdb:"lat"`
//	    Lng      float64 `duckdb:"lng"`
//	}
//
//	table := duckdb.NewTable[cellLocation](db, "cell_locations")
//	if err := table.EnsureSchema(ctx); err != nil { ... }
//	err := table.Upsert(ctx, &cellLocation{...})
//
// Column types for EnsureSchema are derived from the Go field types.
package duckdb
