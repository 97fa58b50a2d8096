// Package config loads the settings shared by the CLI and the Lambda
// handlers.
//
// Settings come from a YAML file and are then overridden by environment
// variables named in `env` struct tags. The Lambda handlers are configured
// through the environment only.
package config

import (
	"time"

	"github.com/hello-nrfcloud/backend-sub002/internal/history"
	"github.com/hello-nrfcloud/backend-sub002/internal/logging"
	"github.com/hello-nrfcloud/backend-sub002/internal/retry"
)

// Config is the root configuration.
type Config struct {
	HistoricalData HistoricalDataConfig `yaml:"historical_data"`
	CellGeo        CellGeoConfig        `yaml:"cell_geo"`
	AWS            AWSConfig            `yaml:"aws"`
	Logging        logging.Config       `yaml:"logging"`
	Retry          retry.Config         `yaml:"retry"`
}

// HistoricalDataConfig locates the Timestream table holding device history.
type HistoricalDataConfig struct {
	// Table is written "<database>|<table>".
	Table history.Table `yaml:"table" env:"HISTORICAL_DATA_TABLE_INFO"`
	// EventBus receives the responses published by the Lambda handler.
	EventBus string `yaml:"event_bus,omitempty" env:"EVENTBUS_NAME"`
}

// CellGeoConfig configures the cell geolocation cache.
type CellGeoConfig struct {
	// Table is the DynamoDB table. When empty the local DuckDB store is used.
	Table string `yaml:"table,omitempty" env:"CACHE_TABLE_NAME"`
	// LocalDB is the DuckDB file used when no DynamoDB table is set.
	LocalDB string        `yaml:"local_db,omitempty" env:"CELL_GEO_LOCAL_DB"`
	TTL     time.Duration `yaml:"ttl" env:"CELL_GEO_TTL"`
}

// AWSConfig selects the AWS account and region.
type AWSConfig struct {
	Region  string `yaml:"region,omitempty" env:"AWS_REGION"`
	Profile string `yaml:"profile,omitempty" env:"AWS_PROFILE"`
}
