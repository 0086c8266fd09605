// Package config builds the immutable run configuration: built-in defaults,
// an optional TOML file, then .env and LINKAGE_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/censo-link/internal/match"
	"github.com/censo-link/internal/table"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

type PathsConfig struct {
	InputDir     string `toml:"input_dir"`
	Intermediate string `toml:"intermediate"`
	Output       string `toml:"output"`
	Communities  string `toml:"communities"`
}

// TableConfig binds one input file and its field roles.
type TableConfig struct {
	File           string `toml:"file"`
	Tag            string `toml:"tag"`
	Prefix         string `toml:"prefix"`
	IDField        string `toml:"id_field"`
	NameField      string `toml:"name_field"`
	DateField      string `toml:"date_field"`
	CommunityField string `toml:"community_field"`
	DayFirst       bool   `toml:"day_first"`
}

type TablesConfig struct {
	Censo  TableConfig `toml:"censo"`
	Partos TableConfig `toml:"partos"`
	Refs   TableConfig `toml:"refs"`
}

type MatchConfig struct {
	NameThreshold    int `toml:"name_threshold"`
	WindowMinDays    int `toml:"window_min_days"`
	WindowMaxDays    int `toml:"window_max_days"`
	DefaultDeltaDays int `toml:"default_delta_days"`
}

// ReferralConfig controls how referral identifiers are computed.
type ReferralConfig struct {
	SequenceField string `toml:"sequence_field"`
	SeedYear      int    `toml:"seed_year"`
}

// ValidationConfig names the manually curated births identifier column of
// the registry.
type ValidationConfig struct {
	ManualField  string `toml:"manual_field"`
	ManualPrefix string `toml:"manual_prefix"`
}

type CommunityConfig struct {
	ExpandAddresses bool `toml:"expand_addresses"`
}

type AuditConfig struct {
	DSN string `toml:"dsn"`
}

type Config struct {
	Paths      PathsConfig      `toml:"paths"`
	Tables     TablesConfig     `toml:"tables"`
	Match      MatchConfig      `toml:"match"`
	Referrals  ReferralConfig   `toml:"referrals"`
	Validation ValidationConfig `toml:"validation"`
	Community  CommunityConfig  `toml:"community"`
	Audit      AuditConfig      `toml:"audit"`
}

// Default returns the bindings of the registry, births and referral exports.
func Default() *Config {
	params := match.DefaultParams()
	return &Config{
		Paths: PathsConfig{
			InputDir:     "input",
			Intermediate: "intermediates/censo-parto.csv",
			Output:       "output/censo-parto-refs.csv",
			Communities:  "input/communities.txt",
		},
		Tables: TablesConfig{
			Censo: TableConfig{
				File:      "censo.csv",
				Tag:       "censo",
				Prefix:    "CENSO-",
				IDField:   "CSALMATID",
				NameField: "Prgnc_Paciente",
				DateField: "Prgnc_Fecha_de_ultima_menstruacion",
				DayFirst:  true,
			},
			Partos: TableConfig{
				File:           "partos-clean.csv",
				Tag:            "partos",
				Prefix:         "PARTOS-",
				IDField:        "CAMATID",
				NameField:      "NOMBRE ",
				DateField:      "FECHA Y HORA DE NACIMIENTO",
				CommunityField: "DIRECCION",
				DayFirst:       true,
			},
			Refs: TableConfig{
				File:           "refs-clean.csv",
				Tag:            "refs",
				Prefix:         "REFS-",
				IDField:        "ID",
				NameField:      "NOMBRE",
				DateField:      "FECHA",
				CommunityField: "LUGAR DE PROCEDENCIA",
				DayFirst:       false,
			},
		},
		Match: MatchConfig{
			NameThreshold:    params.NameThreshold,
			WindowMinDays:    params.WindowMinDays,
			WindowMaxDays:    params.WindowMaxDays,
			DefaultDeltaDays: params.DefaultDeltaDays,
		},
		Referrals: ReferralConfig{
			SequenceField: "No.",
			SeedYear:      2016,
		},
		Validation: ValidationConfig{
			ManualField:  "CAMATID",
			ManualPrefix: "CAMAT-",
		},
	}
}

// Load returns the defaults overlaid with the TOML file at path (skipped when
// path is empty) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	if err := LoadEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Paths.InputDir = GetEnv("LINKAGE_INPUT_DIR", c.Paths.InputDir)
	c.Paths.Output = GetEnv("LINKAGE_OUTPUT", c.Paths.Output)
	c.Paths.Intermediate = GetEnv("LINKAGE_INTERMEDIATE", c.Paths.Intermediate)
	c.Paths.Communities = GetEnv("LINKAGE_COMMUNITIES", c.Paths.Communities)
	c.Match.NameThreshold = GetEnvInt("LINKAGE_NAME_THRESHOLD", c.Match.NameThreshold)
	c.Match.DefaultDeltaDays = GetEnvInt("LINKAGE_DEFAULT_DELTA_DAYS", c.Match.DefaultDeltaDays)
	c.Community.ExpandAddresses = GetEnvBool("LINKAGE_EXPAND_ADDRESSES", c.Community.ExpandAddresses)
	c.Audit.DSN = GetEnv("LINKAGE_AUDIT_DSN", c.Audit.DSN)
}

// Validate rejects configurations no run could succeed with.
func (c *Config) Validate() error {
	var errs []error

	tables := map[string]TableConfig{
		"censo":  c.Tables.Censo,
		"partos": c.Tables.Partos,
		"refs":   c.Tables.Refs,
	}
	tags := make(map[string]string)
	for key, t := range tables {
		for field, v := range map[string]string{
			"file":       t.File,
			"tag":        t.Tag,
			"id_field":   t.IDField,
			"name_field": t.NameField,
			"date_field": t.DateField,
		} {
			if v == "" {
				errs = append(errs, fmt.Errorf("tables.%s.%s is empty", key, field))
			}
		}
		if other, dup := tags[t.Tag]; dup && t.Tag != "" {
			errs = append(errs, fmt.Errorf("tables.%s and tables.%s share tag %q", key, other, t.Tag))
		}
		tags[t.Tag] = key
	}

	if c.Match.NameThreshold < 0 || c.Match.NameThreshold > 100 {
		errs = append(errs, fmt.Errorf("match.name_threshold %d outside [0,100]", c.Match.NameThreshold))
	}
	if c.Match.WindowMinDays >= c.Match.WindowMaxDays {
		errs = append(errs, fmt.Errorf("match window (%d,%d) is empty", c.Match.WindowMinDays, c.Match.WindowMaxDays))
	}
	if c.Referrals.SequenceField == "" {
		errs = append(errs, errors.New("referrals.sequence_field is empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Params returns the matching thresholds.
func (c *Config) Params() match.Params {
	return match.Params{
		NameThreshold:    c.Match.NameThreshold,
		WindowMinDays:    c.Match.WindowMinDays,
		WindowMaxDays:    c.Match.WindowMaxDays,
		DefaultDeltaDays: c.Match.DefaultDeltaDays,
	}
}

func (t TableConfig) schema() *table.Schema {
	return &table.Schema{
		Table:          t.Tag,
		Prefix:         t.Prefix,
		IDField:        t.IDField,
		NameField:      t.NameField,
		DateField:      t.DateField,
		CommunityField: t.CommunityField,
		DayFirst:       t.DayFirst,
	}
}

// CensoSchema returns the registry schema.
func (c *Config) CensoSchema() *table.Schema { return c.Tables.Censo.schema() }

// PartosSchema returns the births schema.
func (c *Config) PartosSchema() *table.Schema { return c.Tables.Partos.schema() }

// RefsSchema returns the referral schema; its identifier is computed.
func (c *Config) RefsSchema() *table.Schema {
	s := c.Tables.Refs.schema()
	s.ComputedID = true
	return s
}

// InputPath joins the input directory and a table's file name.
func (c *Config) InputPath(t TableConfig) string {
	return filepath.Join(c.Paths.InputDir, t.File)
}
