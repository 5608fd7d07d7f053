package config

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/ledgerport/internal/closing"
	"github.com/cleared-dev/ledgerport/internal/model"
	"github.com/cleared-dev/ledgerport/internal/records"
)

// FileName is the default config file name.
const FileName = "ledgerport.yaml"

// Config represents the top-level ledgerport.yaml configuration.
type Config struct {
	Entity   string        `yaml:"entity"`
	Currency string        `yaml:"currency"`
	Source   SourceConfig  `yaml:"source"`
	Fiscal   FiscalConfig  `yaml:"fiscal"`
	Closing  ClosingConfig `yaml:"closing"`
	Store    StoreConfig   `yaml:"store"`
	Log      LogConfig     `yaml:"log"`
}

// SourceConfig locates and describes the legacy record files.
type SourceConfig struct {
	Dir        string `yaml:"dir"`
	Delimiter  string `yaml:"delimiter"`
	DateFormat string `yaml:"date_format"` // Go reference layout
}

// FiscalConfig defines the fiscal year boundaries and which years to load.
type FiscalConfig struct {
	YearStart string `yaml:"year_start"` // "MM-DD" format, e.g. "01-01"
	Years     []int  `yaml:"years,omitempty"`
}

// ClosingConfig controls year-end distribution.
type ClosingConfig struct {
	Enabled            bool   `yaml:"enabled"`
	Years              []int  `yaml:"years,omitempty"` // empty: final year only
	SummaryAccount     string `yaml:"summary_account"`
	Precision          int32  `yaml:"precision"`
	Residual           string `yaml:"residual"`
	CloseDistributions bool   `yaml:"close_distributions"`
}

// StoreConfig selects the persistence sink.
type StoreConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres or none
	DSN    string `yaml:"dsn"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Mode string `yaml:"mode"` // debug or production
}

// Load reads a ledgerport.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(entity string) *Config {
	return &Config{
		Entity:   entity,
		Currency: "USD",
		Source: SourceConfig{
			Dir:        "legacy",
			Delimiter:  ",",
			DateFormat: "2006-01-02",
		},
		Fiscal: FiscalConfig{
			YearStart: "01-01",
		},
		Closing: ClosingConfig{
			Enabled:            true,
			SummaryAccount:     "Income Summary",
			Precision:          2,
			Residual:           string(closing.ResidualLast),
			CloseDistributions: true,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "ledger.db",
		},
		Log: LogConfig{
			Mode: "production",
		},
	}
}

// Validate checks the config for values the build cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Entity == "" {
		errs = append(errs, errors.New("entity is required"))
	}
	if c.Source.Dir == "" {
		errs = append(errs, errors.New("source.dir is required"))
	}
	if utf8.RuneCountInString(c.Source.Delimiter) != 1 {
		errs = append(errs, fmt.Errorf("source.delimiter %q must be a single character", c.Source.Delimiter))
	}
	if _, err := c.Calendar(); err != nil {
		errs = append(errs, err)
	}
	if _, err := closing.ParseResidualPolicy(c.Closing.Residual); err != nil {
		errs = append(errs, err)
	}
	if c.Closing.Enabled && c.Closing.SummaryAccount == "" {
		errs = append(errs, errors.New("closing.summary_account is required when closing is enabled"))
	}
	if c.Closing.Precision < 0 {
		errs = append(errs, fmt.Errorf("closing.precision %d must not be negative", c.Closing.Precision))
	}
	switch c.Store.Driver {
	case "none", "":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Errorf("store.dsn is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if len(errs) > 0 {
		return model.ConfigurationError{Reason: errors.Join(errs...).Error()}
	}
	return nil
}

// Format returns the record file format.
func (c *Config) Format() records.Format {
	f := records.DefaultFormat
	if r, _ := utf8.DecodeRuneInString(c.Source.Delimiter); r != utf8.RuneError {
		f.Comma = r
	}
	if c.Source.DateFormat != "" {
		f.DateLayout = c.Source.DateFormat
	}
	return f
}

// Calendar returns the fiscal calendar.
func (c *Config) Calendar() (model.Calendar, error) {
	if c.Fiscal.YearStart == "" {
		return model.CalendarYear, nil
	}
	return model.ParseCalendar(c.Fiscal.YearStart)
}

// ClosingOptions returns the distributor options.
func (c *Config) ClosingOptions() closing.Options {
	policy, _ := closing.ParseResidualPolicy(c.Closing.Residual)
	return closing.Options{
		SummaryAccount: c.Closing.SummaryAccount,
		Precision:      c.Closing.Precision,
		Policy:         policy,
	}
}
