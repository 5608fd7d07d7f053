package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerport/internal/closing"
	"github.com/cleared-dev/ledgerport/internal/model"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Smith & Jones")
	cfg.Fiscal.Years = []int{2015, 2016, 2017}
	cfg.Closing.Years = []int{2017}
	cfg.Closing.Residual = string(closing.ResidualFirst)

	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Entity, got.Entity)
	assert.Equal(t, cfg.Currency, got.Currency)
	assert.Equal(t, cfg.Source, got.Source)
	assert.Equal(t, cfg.Fiscal, got.Fiscal)
	assert.Equal(t, cfg.Closing, got.Closing)
	assert.Equal(t, cfg.Store, got.Store)
	assert.Equal(t, cfg.Log, got.Log)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Partnership")

	assert.Equal(t, "My Partnership", cfg.Entity)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "legacy", cfg.Source.Dir)
	assert.Equal(t, "01-01", cfg.Fiscal.YearStart)
	assert.True(t, cfg.Closing.Enabled)
	assert.Equal(t, "Income Summary", cfg.Closing.SummaryAccount)
	assert.Equal(t, int32(2), cfg.Closing.Precision)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.NoError(t, cfg.Validate())
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestYAMLFormat(t *testing.T) {
	cfg := Default("Test Partners")
	path := filepath.Join(t.TempDir(), FileName)
	err := Save(path, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "entity: Test Partners")
	assert.Contains(t, contents, "year_start: 01-01")
	assert.Contains(t, contents, "summary_account: Income Summary")
	assert.Contains(t, contents, "residual: last")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing entity", func(c *Config) { c.Entity = "" }, "entity is required"},
		{"long delimiter", func(c *Config) { c.Source.Delimiter = "||" }, "single character"},
		{"bad year start", func(c *Config) { c.Fiscal.YearStart = "13-40" }, "fiscal year start"},
		{"bad residual", func(c *Config) { c.Closing.Residual = "random" }, "residual policy"},
		{"bad driver", func(c *Config) { c.Store.Driver = "oracle" }, "store.driver"},
		{"missing dsn", func(c *Config) { c.Store.DSN = "" }, "store.dsn"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default("Test")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ce model.ConfigurationError
			assert.True(t, errors.As(err, &ce))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFormatAndCalendar(t *testing.T) {
	cfg := Default("Test")
	cfg.Source.Delimiter = "|"
	cfg.Source.DateFormat = "01/02/2006"
	cfg.Fiscal.YearStart = "07-01"

	f := cfg.Format()
	assert.Equal(t, '|', f.Comma)
	assert.Equal(t, "01/02/2006", f.DateLayout)

	cal, err := cfg.Calendar()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2016, 7, 1, 0, 0, 0, 0, time.UTC), cal.Start(2016))
	assert.Equal(t, time.Date(2017, 6, 30, 0, 0, 0, 0, time.UTC), cal.End(2016))

	opts := cfg.ClosingOptions()
	assert.Equal(t, closing.ResidualLast, opts.Policy)
	assert.Equal(t, "Income Summary", opts.SummaryAccount)
}
