package config

import (
	"os"
	"path/filepath"

	"github.com/hello-nrfcloud/backend-sub002/internal/cellgeo"
	"github.com/hello-nrfcloud/backend-sub002/internal/constants"
	"github.com/hello-nrfcloud/backend-sub002/internal/logging"
	"github.com/hello-nrfcloud/backend-sub002/internal/timestream"
)

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		CellGeo: CellGeoConfig{
			LocalDB: defaultLocalDB(),
			TTL:     cellgeo.DefaultTTL,
		},
		Logging: logging.DefaultConfig(),
		Retry:   timestream.DefaultRetryConfig(),
	}
}

func defaultLocalDB() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, constants.DefaultDir, constants.CellGeoDatabaseFile)
}
