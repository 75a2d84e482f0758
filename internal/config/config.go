package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// Config is one client engagement: input/output locations, client-specific
// value remaps and database settings. It is read from a YAML run file and
// CLAIMTOOL_* environment variables.
type Config struct {
	Env          string `mapstructure:"env"`
	LogLevel     string `mapstructure:"log_level"`
	DatabaseURL  string `mapstructure:"database_url"`
	DBMaxConns   int32  `mapstructure:"db_max_conns"`
	BatchSize    int    `mapstructure:"batch_size"`
	FacilityName string `mapstructure:"facility_name"`

	Split       SplitConfig   `mapstructure:"split"`
	Convert5200 ConvertConfig `mapstructure:"convert5200"`
	Append      AppendConfig  `mapstructure:"append"`
	DQR         DQRConfig     `mapstructure:"dqr"`
	HAI         HAIConfig     `mapstructure:"hai"`
}

// SplitConfig locates the discharge, long DX and long PX files.
type SplitConfig struct {
	Disch           string `mapstructure:"disch"`
	DX              string `mapstructure:"dx"`
	PX              string `mapstructure:"px"`
	Out             string `mapstructure:"out"`
	StrictSequences bool   `mapstructure:"strict_sequences"`
}

// ConvertConfig drives the 5200 → 4800 conversion. Map keys are
// lower-cased by the config loader, so lookups against them must be
// case-insensitive.
type ConvertConfig struct {
	In           string            `mapstructure:"in"`
	Out          string            `mapstructure:"out"`
	Encoding     string            `mapstructure:"encoding"`
	ProvnumRemap map[string]string `mapstructure:"provnum_remap"`
	SexDecode    map[string]string `mapstructure:"sex_decode"`
	Layout       map[string]string `mapstructure:"layout"` // source position → 4800 column; empty uses the built-in 5200 layout
}

// AppendConfig lists 4800 files to combine, oldest first.
type AppendConfig struct {
	Files []string `mapstructure:"files"`
	Out   string   `mapstructure:"out"`
}

// RefFiles names the pipe-delimited reference files under DQRConfig.RefDir.
type RefFiles struct {
	AdmSrc  string `mapstructure:"admsrc"`
	AdmType string `mapstructure:"admtype"`
	Status  string `mapstructure:"status"`
	Payer   string `mapstructure:"payer"`
	Race    string `mapstructure:"race"`
}

// DQRConfig drives the data-quality-review load.
type DQRConfig struct {
	In         string   `mapstructure:"in"`
	Phy        string   `mapstructure:"phy"`
	RefDir     string   `mapstructure:"ref_dir"`
	Refs       RefFiles `mapstructure:"refs"`
	ParquetDir string   `mapstructure:"parquet_dir"`
	XLSX       string   `mapstructure:"xlsx"`
	Load       bool     `mapstructure:"load"`
}

// HAIConfig drives the facility HAI workbooks.
type HAIConfig struct {
	In           string            `mapstructure:"in"`
	Sheet        string            `mapstructure:"sheet"`
	Hospitals    string            `mapstructure:"hospitals"`
	Benchmarks   string            `mapstructure:"benchmarks"`
	Descriptions string            `mapstructure:"descriptions"`
	OutDir       string            `mapstructure:"out_dir"`
	Suffix       string            `mapstructure:"suffix"`
	RollingYears map[string]string `mapstructure:"rolling_years"` // "2023 q1" → "Year 1"
	MinMetrics   int               `mapstructure:"min_metrics"`

	// Clinical metrics workbook for the dashboard tables; optional.
	Metrics       string          `mapstructure:"metrics"`
	FacSheet      string          `mapstructure:"fac_sheet"`
	FacqtrSheet   string          `mapstructure:"facqtr_sheet"`
	Comparison    string          `mapstructure:"comparison"`
	TopBenchmarks string          `mapstructure:"top_benchmarks"`
	Current       CurrentQuarters `mapstructure:"current"`
}

// CurrentQuarters picks the quarter shown for each group of the current
// quarter table. An empty Main uses the latest quarter in the data; an
// empty SAF or MSPB leaves that group out.
type CurrentQuarters struct {
	Main string `mapstructure:"main"`
	SAF  string `mapstructure:"saf"`
	MSPB string `mapstructure:"mspb"`
}

// Load reads the run file at path (optional) and applies environment
// overrides such as CLAIMTOOL_DATABASE_URL or CLAIMTOOL_DQR_IN.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAIMTOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("db_max_conns", 4)
	v.SetDefault("batch_size", 10000)
	v.SetDefault("convert5200.encoding", "windows-1252")
	v.SetDefault("convert5200.sex_decode", map[string]string{
		"female":  "F",
		"male":    "M",
		"unknown": "U",
	})
	v.SetDefault("hai.sheet", "Sheet1")
	v.SetDefault("hai.suffix", " HAI Report")
	v.SetDefault("hai.min_metrics", 7)
	v.SetDefault("hai.fac_sheet", "fac")
	v.SetDefault("hai.facqtr_sheet", "facqtr")
	v.SetDefault("hai.comparison", "Top Decile")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"env", "log_level", "database_url", "db_max_conns", "batch_size", "facility_name",
		"split.disch", "split.dx", "split.px", "split.out",
		"convert5200.in", "convert5200.out", "convert5200.encoding",
		"append.out",
		"dqr.in", "dqr.phy", "dqr.ref_dir", "dqr.parquet_dir", "dqr.xlsx", "dqr.load",
		"hai.in", "hai.hospitals", "hai.benchmarks", "hai.descriptions", "hai.out_dir",
		"hai.metrics", "hai.top_benchmarks",
	} {
		v.BindEnv(key)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings shared by every tool.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	}
	if c.DBMaxConns <= 0 {
		return fmt.Errorf("db_max_conns must be positive, got %d", c.DBMaxConns)
	}
	if c.HAI.MinMetrics < 0 {
		return fmt.Errorf("hai.min_metrics must not be negative")
	}
	return nil
}

// IsDev reports whether console logging is wanted.
func (c *Config) IsDev() bool { return c.Env == "development" }

// required returns an error naming every empty field.
func required(section string, fields map[string]string) error {
	var errs []error
	for _, name := range sortedKeys(fields) {
		if fields[name] == "" {
			errs = append(errs, fmt.Errorf("%s.%s is required", section, name))
		}
	}
	return errors.Join(errs...)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks the split job inputs.
func (s SplitConfig) Validate() error {
	return required("split", map[string]string{"disch": s.Disch, "dx": s.DX, "px": s.PX, "out": s.Out})
}

// Validate checks the 5200 job inputs.
func (c ConvertConfig) Validate() error {
	return required("convert5200", map[string]string{"in": c.In, "out": c.Out})
}

// Validate checks the append job inputs.
func (a AppendConfig) Validate() error {
	if len(a.Files) < 2 {
		return fmt.Errorf("append.files needs at least two files, got %d", len(a.Files))
	}
	return required("append", map[string]string{"out": a.Out})
}

// Validate checks the DQR job inputs. A database URL is needed only when
// loading.
func (d DQRConfig) Validate(databaseURL string) error {
	if err := required("dqr", map[string]string{"in": d.In}); err != nil {
		return err
	}
	if d.Load && databaseURL == "" {
		return fmt.Errorf("database_url is required when dqr.load is set")
	}
	if !d.Load && d.ParquetDir == "" && d.XLSX == "" {
		return fmt.Errorf("dqr: nothing to do; set load, parquet_dir or xlsx")
	}
	return nil
}

// Validate checks the HAI job inputs.
func (h HAIConfig) Validate() error {
	if err := required("hai", map[string]string{"in": h.In, "out_dir": h.OutDir}); err != nil {
		return err
	}
	if h.Metrics == "" {
		return nil
	}
	return required("hai", map[string]string{
		"fac_sheet":    h.FacSheet,
		"facqtr_sheet": h.FacqtrSheet,
		"comparison":   h.Comparison,
	})
}
