package config

import (
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	Match   MatchConfig   `yaml:"match" mapstructure:"match"`
	Sources SourcesConfig `yaml:"sources" mapstructure:"sources"`
	Export  ExportConfig  `yaml:"export" mapstructure:"export"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string      `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	Schema      string      `yaml:"schema" mapstructure:"schema"`
	MaxConns    int32       `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32       `yaml:"min_conns" mapstructure:"min_conns"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RetryConfig configures connection retries for the postgres store.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// MatchConfig configures identity matching.
type MatchConfig struct {
	ExactThreshold float64 `yaml:"exact_threshold" mapstructure:"exact_threshold"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`
	Strategy       string  `yaml:"strategy" mapstructure:"strategy"`
	Workers        int     `yaml:"workers" mapstructure:"workers"`
}

// SourcesConfig names default input files and how scraped links are read.
type SourcesConfig struct {
	GEDCOMPath     string `yaml:"gedcom_path" mapstructure:"gedcom_path"`
	ExtractionPath string `yaml:"extraction_path" mapstructure:"extraction_path"`
	RelationPolicy string `yaml:"relation_policy" mapstructure:"relation_policy"`
}

// ExportConfig configures report output.
type ExportConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ServerConfig configures the read-only HTTP API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`

	// RateLimit is requests per second across all clients; 0 disables limiting.
	RateLimit        float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst        int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	ReportCacheTTLMs int     `yaml:"report_cache_ttl_ms" mapstructure:"report_cache_ttl_ms"`
}

var (
	validDrivers    = map[string]bool{"sqlite": true, "postgres": true, "none": true}
	validStrategies = map[string]bool{"greedy": true, "best_first": true}
	validPolicies   = map[string]bool{"owner_is_parent": true, "owner_is_child": true, "untyped": true}
	validFormats    = map[string]bool{"": true, "json": true, "yaml": true, "yml": true, "xlsx": true}
	schemaRe        = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)
)

// Validate checks the configuration for the given command mode
// ("reconcile", "runs" or "serve"). All problems are reported at once.
func (c *Config) Validate(mode string) error {
	var errs []string

	if !validDrivers[c.Store.Driver] {
		errs = append(errs, "store.driver must be one of sqlite, postgres, none")
	}
	if c.Store.Driver == "postgres" && c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required for the postgres driver")
	}
	if c.Store.Schema != "" && !schemaRe.MatchString(c.Store.Schema) {
		errs = append(errs, "store.schema must be a lower-case identifier")
	}

	switch mode {
	case "reconcile":
		if c.Match.ExactThreshold != 1.0 {
			errs = append(errs, "match.exact_threshold must be 1.0")
		}
		if c.Match.FuzzyThreshold < 0 || c.Match.FuzzyThreshold > 1 {
			errs = append(errs, "match.fuzzy_threshold must be between 0 and 1")
		}
		if !validStrategies[c.Match.Strategy] {
			errs = append(errs, "match.strategy must be greedy or best_first")
		}
		if c.Match.Workers < 1 || c.Match.Workers > 64 {
			errs = append(errs, "match.workers must be between 1 and 64")
		}
		if !validPolicies[c.Sources.RelationPolicy] {
			errs = append(errs, "sources.relation_policy must be owner_is_parent, owner_is_child or untyped")
		}
		if c.Sources.GEDCOMPath == "" {
			errs = append(errs, "sources.gedcom_path is required")
		}
		if c.Sources.ExtractionPath == "" {
			errs = append(errs, "sources.extraction_path is required")
		}
		if !validFormats[strings.ToLower(c.Export.Format)] {
			errs = append(errs, "export.format must be json, yaml or xlsx")
		}
	case "runs":
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver none has no runs to read")
		}
	case "serve":
		if c.Store.Driver == "none" {
			errs = append(errs, "store.driver none has no runs to serve")
		}
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		if c.Server.RateLimit < 0 {
			errs = append(errs, "server.rate_limit must not be negative")
		}
		if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
			errs = append(errs, "server.rate_burst must be >= 1 when rate_limit is set")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from config.yaml, a local .env file and
// KINSHIP_* environment variables, in increasing precedence.
func Load() (*Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("KINSHIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.schema", "")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("store.retry.max_attempts", 5)
	v.SetDefault("store.retry.initial_backoff_ms", 250)
	v.SetDefault("store.retry.max_backoff_ms", 10000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("match.exact_threshold", 1.0)
	v.SetDefault("match.fuzzy_threshold", 0.70)
	v.SetDefault("match.strategy", "greedy")
	v.SetDefault("match.workers", 1)
	v.SetDefault("sources.gedcom_path", "")
	v.SetDefault("sources.extraction_path", "")
	v.SetDefault("sources.relation_policy", "owner_is_parent")
	v.SetDefault("export.path", "reconciliation_report.json")
	v.SetDefault("export.format", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("server.report_cache_ttl_ms", 300000)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
