package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config is the complete application configuration. Environment variables
// (prefix DW) take precedence over the YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Sources   SourcesConfig   `yaml:"sources" envconfig:"SOURCES"`
	Warehouse WarehouseConfig `yaml:"warehouse" envconfig:"WAREHOUSE"`
	Quality   QualityConfig   `yaml:"quality" envconfig:"QUALITY"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RunTimeout      time.Duration `yaml:"run_timeout" envconfig:"RUN_TIMEOUT" default:"30m"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration for the HTTP surface.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/pipeline.log"`
}

// SourcesConfig locates the raw extracts produced by the upstream CRM and
// ERP extraction jobs. Each entity is read from <dir>/<entity>.<format>.
type SourcesConfig struct {
	Dir    string `yaml:"dir" envconfig:"DIR" default:"data/sources" validate:"required"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"csv" validate:"oneof=csv xlsx"`
	// VocabFile optionally overrides the compiled-in normalizer
	// vocabularies with a YAML rule set.
	VocabFile string `yaml:"vocab_file" envconfig:"VOCAB_FILE"`
}

// WarehouseConfig locates the dimensional target store. Committed runs
// live under <dir>/current; staging and superseded generations live in
// sibling directories.
type WarehouseConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" default:"data/warehouse" validate:"required"`
}

// QualityConfig parameterizes the quality rule engine: the plausible
// window for dates, upper bounds for numeric fields, and the severities
// of the rules the deploying organization may tune.
type QualityConfig struct {
	DateMin             string  `yaml:"date_min" envconfig:"DATE_MIN" default:"1990-01-01"`
	DateMax             string  `yaml:"date_max" envconfig:"DATE_MAX" default:"2050-12-31"`
	MaxQuantity         int     `yaml:"max_quantity" envconfig:"MAX_QUANTITY" default:"10000" validate:"min=1"`
	MaxUnitPrice        float64 `yaml:"max_unit_price" envconfig:"MAX_UNIT_PRICE" default:"1000000" validate:"gt=0"`
	ReferentialSeverity string  `yaml:"referential_severity" envconfig:"REFERENTIAL_SEVERITY" default:"advisory" validate:"oneof=blocking advisory"`
	OrphanSeverity      string  `yaml:"orphan_severity" envconfig:"ORPHAN_SEVERITY" default:"advisory" validate:"oneof=blocking advisory"`
}

// DateWindow parses the configured plausible date window.
func (q QualityConfig) DateWindow() (time.Time, time.Time, error) {
	min, err := time.Parse("2006-01-02", q.DateMin)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date_min: %w", err)
	}
	max, err := time.Parse("2006-01-02", q.DateMax)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse date_max: %w", err)
	}
	if max.Before(min) {
		return time.Time{}, time.Time{}, fmt.Errorf("date_max %s before date_min %s", q.DateMax, q.DateMin)
	}
	return min, max, nil
}

// SourcePath returns the file the named entity is read from.
func (s SourcesConfig) SourcePath(entity string) string {
	return filepath.Join(s.Dir, fmt.Sprintf("%s.%s", entity, s.Format))
}

// Load loads configuration from environment variables and an optional
// config file. File values fill fields the environment left at zero.
func Load(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("DW", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile == "" {
		configFile = defaultConfigPath()
	}
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks the configuration against its struct tags and the
// cross-field constraints the tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return err
	}
	if _, _, err := c.Quality.DateWindow(); err != nil {
		return err
	}
	return nil
}

func defaultConfigPath() string {
	if p := os.Getenv("DW_CONFIG"); p != "" {
		return p
	}
	return "dwcli.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// merge fills env-config zero values from the file config. Environment
// settings win for fields present in both.
func merge(file, env Config) Config {
	if env.Server.Port == 0 {
		env.Server.Port = file.Server.Port
	}
	if env.Server.ReadTimeout == 0 {
		env.Server.ReadTimeout = file.Server.ReadTimeout
	}
	if env.Server.WriteTimeout == 0 {
		env.Server.WriteTimeout = file.Server.WriteTimeout
	}
	if env.Server.RunTimeout == 0 {
		env.Server.RunTimeout = file.Server.RunTimeout
	}
	if env.Logging.Level == "" {
		env.Logging.Level = file.Logging.Level
	}
	if env.Logging.Output == "" {
		env.Logging.Output = file.Logging.Output
	}
	if env.Logging.FilePath == "" {
		env.Logging.FilePath = file.Logging.FilePath
	}
	if env.Sources.Dir == "" {
		env.Sources.Dir = file.Sources.Dir
	}
	if env.Sources.Format == "" {
		env.Sources.Format = file.Sources.Format
	}
	if env.Sources.VocabFile == "" {
		env.Sources.VocabFile = file.Sources.VocabFile
	}
	if env.Warehouse.Dir == "" {
		env.Warehouse.Dir = file.Warehouse.Dir
	}
	if env.Quality.DateMin == "" {
		env.Quality.DateMin = file.Quality.DateMin
	}
	if env.Quality.DateMax == "" {
		env.Quality.DateMax = file.Quality.DateMax
	}
	if env.Quality.MaxQuantity == 0 {
		env.Quality.MaxQuantity = file.Quality.MaxQuantity
	}
	if env.Quality.MaxUnitPrice == 0 {
		env.Quality.MaxUnitPrice = file.Quality.MaxUnitPrice
	}
	if env.Quality.ReferentialSeverity == "" {
		env.Quality.ReferentialSeverity = file.Quality.ReferentialSeverity
	}
	if env.Quality.OrphanSeverity == "" {
		env.Quality.OrphanSeverity = file.Quality.OrphanSeverity
	}
	return env
}
