// Package constants defines shared configuration constants.
package constants

const (
	// DefaultDir holds the CLI configuration and local databases below the
	// user's home directory.
	DefaultDir = ".hello-nrfcloud"

	ConfigFile = "config.yaml"

	// CellGeoDatabaseFile is the DuckDB file of the local cell location cache.
	CellGeoDatabaseFile = "cellgeo.duckdb"

	// ContextBase prefixes the JSON-LD context of transformed device messages.
	ContextBase = "https://github.com/hello-nrfcloud/proto/transformed"

	// HistoricalDataResponseContext is the JSON-LD context of historical
	// data responses.
	HistoricalDataResponseContext = "https://github.com/hello-nrfcloud/proto/historical-data-response"
)
