package cellgeo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hello-nrfcloud/backend-sub002/internal/duckdb"
)

// TableName is the DuckDB table used by DuckDBStore.
const TableName = "cell_locations"

type cellLocation struct {
	CellID    string    `duckdb:"cell_id,pk"`
	Lat       float64   `duckdb:"lat"`
	Lng       float64   `duckdb:"lng"`
	Accuracy  float64   `duckdb:"accuracy"`
	ExpiresAt time.Time `duckdb:"expires_at"`
}

// DuckDBStore keeps cell locations in a local DuckDB table.
type DuckDBStore struct {
	table *duckdb.Table[cellLocation]
	opts  options
}

// NewDuckDBStore creates the cell_locations table if needed and returns a
// store on it.
func NewDuckDBStore(ctx context.Context, db duckdb.Execer, opts ...Option) (*DuckDBStore, error) {
	table := duckdb.NewTable[cellLocation](db, TableName)
	if err := table.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return &DuckDBStore{table: table, opts: newOptions(opts)}, nil
}

// Get returns the stored location of cell unless it has expired.
func (s *DuckDBStore) Get(ctx context.Context, cell Cell) (Location, bool, error) {
	row, err := s.table.Get(ctx, CellID(cell))
	if errors.Is(err, sql.ErrNoRows) {
		return Location{}, false, nil
	}
	if err != nil {
		return Location{}, false, fmt.Errorf("failed to get cell %s: %w", CellID(cell), err)
	}
	if !s.opts.now().Before(row.ExpiresAt) {
		return Location{}, false, nil
	}
	return Location{Lat: row.Lat, Lng: row.Lng, Accuracy: row.Accuracy}, true, nil
}

// Put stores the location of cell, replacing an earlier one.
func (s *DuckDBStore) Put(ctx context.Context, cell Cell, loc Location) error {
	err := s.table.Upsert(ctx, &cellLocation{
		CellID:    CellID(cell),
		Lat:       loc.Lat,
		Lng:       loc.Lng,
		Accuracy:  loc.Accuracy,
		ExpiresAt: s.opts.now().Add(s.opts.ttl).UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to store cell %s: %w", CellID(cell), err)
	}
	return nil
}

// Delete removes the stored location of cell.
func (s *DuckDBStore) Delete(ctx context.Context, cell Cell) error {
	if err := s.table.Delete(ctx, CellID(cell)); err != nil {
		return fmt.Errorf("failed to delete cell %s: %w", CellID(cell), err)
	}
	return nil
}

// List returns every stored location ordered by cell ID, expired ones
// included.
func (s *DuckDBStore) List(ctx context.Context) ([]StoredLocation, error) {
	rows, err := s.table.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list cells: %w", err)
	}
	out := make([]StoredLocation, len(rows))
	for i, row := range rows {
		out[i] = StoredLocation{
			CellID:    row.CellID,
			Location:  Location{Lat: row.Lat, Lng: row.Lng, Accuracy: row.Accuracy},
			ExpiresAt: row.ExpiresAt.UTC(),
		}
	}
	return out, nil
}
