package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hello-nrfcloud/backend-sub002/internal/cellgeo"
	"github.com/hello-nrfcloud/backend-sub002/internal/cli/helpers"
	"github.com/hello-nrfcloud/backend-sub002/internal/config"
	"github.com/hello-nrfcloud/backend-sub002/internal/duckdb"
	"github.com/hello-nrfcloud/backend-sub002/internal/errors"
	"github.com/hello-nrfcloud/backend-sub002/internal/safe"
)

type cellFlags struct {
	cell cellgeo.Cell
}

func (f *cellFlags) add(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.cell.MCCMNC, "mccmnc", 0, "Mobile country and network code")
	cmd.Flags().IntVar(&f.cell.Area, "area", 0, "Tracking area code")
	cmd.Flags().IntVar(&f.cell.Cell, "cell", 0, "Cell ID")
	for _, name := range []string{"mccmnc", "area", "cell"} {
		_ = cmd.MarkFlagRequired(name)
	}
}

// errListUnsupported is returned by list on the DynamoDB store.
var errListUnsupported = fmt.Errorf("listing cells needs the local store (unset cell_geo.table)")

// openedStore is a cell store and the function releasing it.
type openedStore struct {
	cellgeo.Store
	putMany func(ctx context.Context, entries []cellgeo.Entry) error
	list    func(ctx context.Context) ([]cellgeo.StoredLocation, error)
	close   func()
}

// openCellStore uses the DynamoDB table when one is configured and the
// local DuckDB file otherwise.
func openCellStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*openedStore, error) {
	if cfg.CellGeo.Table != "" {
		awsCfg, err := helpers.LoadAWSConfig(ctx, cfg.AWS)
		if err != nil {
			return nil, err
		}
		store := cellgeo.NewDynamoStore(dynamodb.NewFromConfig(awsCfg), cfg.CellGeo.Table, cfg.Retry, logger,
			cellgeo.WithTTL(cfg.CellGeo.TTL))
		return &openedStore{
			Store:   cellgeo.NewCached(store, cfg.CellGeo.TTL),
			putMany: store.PutMany,
			list: func(context.Context) ([]cellgeo.StoredLocation, error) {
				return nil, errListUnsupported
			},
			close: func() {},
		}, nil
	}

	if cfg.CellGeo.LocalDB == "" {
		return nil, fmt.Errorf("no cell geolocation store configured")
	}
	//nolint:gosec // G301: directory needs standard permissions for traversal.
	if err := os.MkdirAll(filepath.Dir(cfg.CellGeo.LocalDB), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := duckdb.OpenDB(cfg.CellGeo.LocalDB)
	if err != nil {
		return nil, err
	}
	store, err := cellgeo.NewDuckDBStore(ctx, db, cellgeo.WithTTL(cfg.CellGeo.TTL))
	if err != nil {
		errors.DeferClose(logger, db, "failed to close cell database")
		return nil, err
	}
	logger.Debug().Str("path", cfg.CellGeo.LocalDB).Msg("using local cell store")
	return &openedStore{
		Store: cellgeo.NewCached(store, cfg.CellGeo.TTL),
		putMany: func(ctx context.Context, entries []cellgeo.Entry) error {
			for _, e := range entries {
				if err := store.Put(ctx, e.Cell, e.Location); err != nil {
					return err
				}
			}
			return nil
		},
		list:  store.List,
		close: func() { errors.DeferClose(logger, db, "failed to close cell database") },
	}, nil
}

func newCellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cell",
		Short: "Manage the cell geolocation cache",
		Long: `Read and write resolved cell locations.

When cell_geo.table (CACHE_TABLE_NAME) is set the DynamoDB table is used,
otherwise a local DuckDB file.`,
	}
	cmd.AddCommand(newCellIDCmd())
	cmd.AddCommand(newCellGetCmd())
	cmd.AddCommand(newCellPutCmd())
	cmd.AddCommand(newCellDeleteCmd())
	cmd.AddCommand(newCellListCmd())
	cmd.AddCommand(newCellImportCmd())
	return cmd
}

func newCellIDCmd() *cobra.Command {
	var flags cellFlags
	cmd := &cobra.Command{
		Use:   "id",
		Short: "Print the cache key of a cell",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), cellgeo.CellID(flags.cell))
		},
	}
	flags.add(cmd)
	return cmd
}

func newCellGetCmd() *cobra.Command {
	var (
		flags  cellFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Look up the cached location of a cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := helpers.Logger(cfg, "cell")
			store, err := openCellStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			loc, ok, err := store.Get(cmd.Context(), flags.cell)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("cell %s is not cached", cellgeo.CellID(flags.cell))
			}
			return helpers.Print(cmd, format, locationTable(flags.cell, loc))
		},
	}
	flags.add(cmd)
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable)
	return cmd
}

func newCellPutCmd() *cobra.Command {
	var (
		flags              cellFlags
		lat, lng, accuracy string
	)
	cmd := &cobra.Command{
		Use:   "put",
		Short: "Store the location of a cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			coord, err := parseCoordinate(lat + "," + lng)
			if err != nil {
				return err
			}
			acc, err := parseNumber("accuracy", accuracy, 0, 1e7)
			if err != nil {
				return err
			}

			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := helpers.Logger(cfg, "cell")
			store, err := openCellStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			loc := cellgeo.Location{Lat: coord.Lat, Lng: coord.Lng, Accuracy: acc}
			if err := store.Put(cmd.Context(), flags.cell, loc); err != nil {
				return err
			}
			logger.Info().Str("cell_id", cellgeo.CellID(flags.cell)).Msg("cell stored")
			return nil
		},
	}
	flags.add(cmd)
	cmd.Flags().StringVar(&lat, "lat", "", "Latitude")
	cmd.Flags().StringVar(&lng, "lng", "", "Longitude")
	cmd.Flags().StringVar(&accuracy, "accuracy", "", "Accuracy in meters")
	for _, name := range []string{"lat", "lng", "accuracy"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newCellDeleteCmd() *cobra.Command {
	var flags cellFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the cached location of a cell",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := helpers.Logger(cfg, "cell")
			store, err := openCellStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			if err := store.Delete(cmd.Context(), flags.cell); err != nil {
				return err
			}
			logger.Info().Str("cell_id", cellgeo.CellID(flags.cell)).Msg("cell deleted")
			return nil
		},
	}
	flags.add(cmd)
	return cmd
}

func newCellListCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the cells in the local store",
		Long: `List every cell in the local DuckDB store, expired ones included.
Not available for the DynamoDB table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := helpers.Logger(cfg, "cell")
			store, err := openCellStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			cells, err := store.list(cmd.Context())
			if err != nil {
				return err
			}
			return helpers.Print(cmd, format, storedTable(cells))
		},
	}
	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable)
	return cmd
}

const maxImportSize = 64 << 20

type importEntry struct {
	cellgeo.Cell
	cellgeo.Location
}

func newCellImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Store many cell locations from a JSON array",
		Long: `Read a JSON array of {"mccmnc","area","cell","lat","lng","accuracy"}
objects and store them. DynamoDB writes are batched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readImport(cmd, args[0])
			if err != nil {
				return err
			}

			cfg, err := helpers.LoadConfig(cmd)
			if err != nil {
				return err
			}
			logger := helpers.Logger(cfg, "cell")
			store, err := openCellStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.close()

			if err := store.putMany(cmd.Context(), entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d cells\n", len(entries))
			return nil
		},
	}
}

func readImport(cmd *cobra.Command, name string) ([]cellgeo.Entry, error) {
	var r io.Reader = cmd.InOrStdin()
	if name != "-" {
		data, err := safe.ReadFile(name, &safe.ReadOptions{MaxSize: maxImportSize})
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	var raw []importEntry
	if err := json.NewDecoder(io.LimitReader(r, maxImportSize)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	entries := make([]cellgeo.Entry, len(raw))
	for i, e := range raw {
		entries[i] = cellgeo.Entry{Cell: e.Cell, Location: e.Location}
	}
	return entries, nil
}

func locationTable(cell cellgeo.Cell, loc cellgeo.Location) helpers.Table {
	return helpers.Table{
		Headers: []string{"CELL", "LAT", "LNG", "ACCURACY"},
		Rows: [][]string{{
			cellgeo.CellID(cell),
			strconv.FormatFloat(loc.Lat, 'f', -1, 64),
			strconv.FormatFloat(loc.Lng, 'f', -1, 64),
			strconv.FormatFloat(loc.Accuracy, 'f', -1, 64),
		}},
		Source: struct {
			CellID string `json:"cellId"`
			cellgeo.Location
		}{cellgeo.CellID(cell), loc},
	}
}

func storedTable(cells []cellgeo.StoredLocation) helpers.Table {
	rows := make([][]string, len(cells))
	for i, c := range cells {
		rows[i] = []string{
			c.CellID,
			strconv.FormatFloat(c.Location.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Location.Lng, 'f', -1, 64),
			strconv.FormatFloat(c.Location.Accuracy, 'f', -1, 64),
			c.ExpiresAt.Format(time.RFC3339),
		}
	}
	if cells == nil {
		cells = []cellgeo.StoredLocation{}
	}
	return helpers.Table{
		Headers: []string{"CELL", "LAT", "LNG", "ACCURACY", "EXPIRES"},
		Rows:    rows,
		Source:  cells,
	}
}
