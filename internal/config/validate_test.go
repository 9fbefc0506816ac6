package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.MarketAux.APIKey = "mx-key"
	cfg.MarketAux.BaseURL = "https://api.marketaux.com/v1"
	cfg.MarketAux.RequestsPerSecond = 2
	cfg.MarketAux.PageSize = 50
	cfg.Cleaning.Input = "in.csv"
	cfg.Cleaning.Output = "out.csv"
	cfg.Warehouse.Driver = "postgres"
	cfg.Warehouse.DatabaseURL = "postgres://localhost/warehouse"
	cfg.Warehouse.Table = "etl.tech_companies"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate_AllModesValid(t *testing.T) {
	cfg := validDefaults()
	for _, mode := range []string{"extract", "clean", "load", "run", "report", "serve"} {
		assert.NoError(t, cfg.Validate(mode), mode)
	}
}

func TestValidateExtract_MissingKey(t *testing.T) {
	cfg := validDefaults()
	cfg.MarketAux.APIKey = ""
	cfg.MarketAux.RequestsPerSecond = 0

	err := cfg.Validate("extract")
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "extract", cerr.Mode)
	assert.Equal(t, []string{
		"marketaux.api_key is required",
		"marketaux.requests_per_second must be > 0",
	}, cerr.Problems)
}

func TestValidateLoad_PostgresNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Warehouse.DatabaseURL = ""

	err := cfg.Validate("load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse.database_url is required")
}

func TestValidateLoad_SQLiteNeedsPath(t *testing.T) {
	cfg := validDefaults()
	cfg.Warehouse.Driver = "sqlite"
	cfg.Warehouse.DatabaseURL = ""

	err := cfg.Validate("load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "warehouse.sqlite_path is required")

	cfg.Warehouse.SQLitePath = "w.db"
	assert.NoError(t, cfg.Validate("load"))
}

func TestValidateLoad_UnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Warehouse.Driver = "snowflake"

	err := cfg.Validate("load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `warehouse.driver must be postgres or sqlite, got "snowflake"`)
}

func TestValidateRun_CollectsEveryProblem(t *testing.T) {
	cfg := validDefaults()
	cfg.Cleaning.Input = ""
	cfg.Warehouse.DatabaseURL = ""

	err := cfg.Validate("run")
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Len(t, cerr.Problems, 2)
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be between 1 and 65535")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}
