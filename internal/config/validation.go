package config

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrNoHistoricalTable is returned when a command needs the Timestream
// table but none is configured.
var ErrNoHistoricalTable = errors.New("historical data table is not configured (set HISTORICAL_DATA_TABLE_INFO=<database>|<table>)")

// ErrNoEventBus is returned when responses must be published but no event
// bus is configured.
var ErrNoEventBus = errors.New("event bus is not configured (set EVENTBUS_NAME)")

// Validate checks cfg for malformed values. Unset optional sections are
// accepted.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Logging.Level); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	if cfg.Retry.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("retry.max_retries must be at least 1, got %d", cfg.Retry.MaxRetries))
	}
	if cfg.Retry.InitialBackoff <= 0 {
		errs = append(errs, fmt.Errorf("retry.initial_backoff must be positive, got %s", cfg.Retry.InitialBackoff))
	}
	if cfg.Retry.Jitter < 0 || cfg.Retry.Jitter > 1 {
		errs = append(errs, fmt.Errorf("retry.jitter must be within [0, 1], got %g", cfg.Retry.Jitter))
	}
	if cfg.CellGeo.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cell_geo.ttl must be positive, got %s", cfg.CellGeo.TTL))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

// RequireHistoricalTable returns ErrNoHistoricalTable unless the Timestream
// table is set.
func (c *Config) RequireHistoricalTable() error {
	if c.HistoricalData.Table.IsZero() {
		return ErrNoHistoricalTable
	}
	return nil
}

// RequireEventBus returns ErrNoEventBus unless the event bus is set.
func (c *Config) RequireEventBus() error {
	if c.HistoricalData.EventBus == "" {
		return ErrNoEventBus
	}
	return nil
}
