//go:build !integration

package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/techco-etl/internal/config"
	"github.com/sells-group/techco-etl/internal/model"
)

func TestNewRunID(t *testing.T) {
	now := time.Date(2026, 7, 4, 9, 5, 3, 0, time.UTC)
	assert.Equal(t, "ETL_20260704_090503", newRunID(now))
}

func TestValidate_NilConfig(t *testing.T) {
	err := validate(nil, "clean")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config not loaded")
}

func TestValidate_ReturnsConfigurationError(t *testing.T) {
	err := validate(&config.Config{Warehouse: config.WarehouseConfig{Driver: "sqlite", Table: "t"}}, "load")
	var cerr *config.ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "load", cerr.Mode)
	assert.Contains(t, cerr.Problems, "warehouse.sqlite_path is required")
}

func TestBatchRunID(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "ETL_20260102_030405", batchRunID(nil, now))
	assert.Equal(t, "ETL_X", batchRunID([]model.CleanedRecord{{ETLRunID: "ETL_X"}}, now))
	assert.Equal(t, "ETL_20260102_030405", batchRunID([]model.CleanedRecord{{}}, now))
}

func TestWarehouseTarget(t *testing.T) {
	assert.Equal(t, "sqlite etl.tech_companies", warehouseTarget(config.WarehouseConfig{Driver: "sqlite"}))
	assert.Equal(t, "postgres public.companies", warehouseTarget(config.WarehouseConfig{Driver: "postgres", Table: "public.companies"}))
}

func TestOpenWarehouse_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wh.db")
	wh, err := openWarehouse(context.Background(), config.WarehouseConfig{Driver: "sqlite", SQLitePath: path})
	require.NoError(t, err)
	defer wh.Close() //nolint:errcheck

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)

	idx, err := wh.HashIndex(context.Background())
	require.NoError(t, err)
	assert.Empty(t, idx)
}

func TestOpenWarehouse_UnknownDriver(t *testing.T) {
	wh, err := openWarehouse(context.Background(), config.WarehouseConfig{Driver: "mysql"})
	assert.Nil(t, wh)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}

func TestNewNormalizer_ReferenceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ref.yaml")
	require.NoError(t, os.WriteFile(path, []byte("exchanges:\n  ZZ: Test Exchange\n"), 0o644))

	norm, err := newNormalizer(config.CleaningConfig{ReferenceFile: path})
	require.NoError(t, err)
	n, _ := norm.Normalize(model.RawRecord{Symbol: "ABC.ZZ", Name: "Abc", Industry: "Technology", Country: "US"})
	assert.Equal(t, "Test Exchange", n.ExchangeName)
}

func TestNewNormalizer_MissingReferenceFile(t *testing.T) {
	_, err := newNormalizer(config.CleaningConfig{ReferenceFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}
