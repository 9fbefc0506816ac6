package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ConfigurationError lists every problem found for a command mode. It is
// returned before any data is processed.
type ConfigurationError struct {
	Mode     string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: invalid for %s: %s", e.Mode, strings.Join(e.Problems, "; "))
}

// Validate checks the settings a command mode depends on. Modes: extract,
// clean, load, run, report, serve.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "extract":
		problems = c.validateMarketAux()
	case "clean":
		problems = c.validateCleaning()
	case "load", "report":
		problems = c.validateWarehouse()
	case "run":
		problems = append(c.validateCleaning(), c.validateWarehouse()...)
	case "serve":
		problems = c.validateWarehouse()
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be between 1 and 65535")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return &ConfigurationError{Mode: mode, Problems: problems}
	}
	return nil
}

func (c *Config) validateMarketAux() []string {
	var p []string
	if c.MarketAux.APIKey == "" {
		p = append(p, "marketaux.api_key is required")
	}
	if c.MarketAux.BaseURL == "" {
		p = append(p, "marketaux.base_url is required")
	}
	if c.MarketAux.RequestsPerSecond <= 0 {
		p = append(p, "marketaux.requests_per_second must be > 0")
	}
	if c.MarketAux.PageSize <= 0 {
		p = append(p, "marketaux.page_size must be > 0")
	}
	return p
}

func (c *Config) validateCleaning() []string {
	var p []string
	if c.Cleaning.Input == "" {
		p = append(p, "cleaning.input is required")
	}
	if c.Cleaning.Output == "" {
		p = append(p, "cleaning.output is required")
	}
	return p
}

func (c *Config) validateWarehouse() []string {
	var p []string
	switch c.Warehouse.Driver {
	case "postgres":
		if c.Warehouse.DatabaseURL == "" {
			p = append(p, "warehouse.database_url is required")
		}
	case "sqlite":
		if c.Warehouse.SQLitePath == "" {
			p = append(p, "warehouse.sqlite_path is required")
		}
	default:
		p = append(p, fmt.Sprintf("warehouse.driver must be postgres or sqlite, got %q", c.Warehouse.Driver))
	}
	if c.Warehouse.Table == "" {
		p = append(p, "warehouse.table is required")
	}
	return p
}
