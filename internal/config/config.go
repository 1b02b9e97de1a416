// Package config loads facility-match settings from config.yaml and the
// environment, and builds the global zap logger.
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/facility-match/internal/match"
)

// Config holds the full application configuration.
type Config struct {
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Accounts   AccountsConfig   `yaml:"accounts" mapstructure:"accounts"`
	Salesforce SalesforceConfig `yaml:"salesforce" mapstructure:"salesforce"`
	Match      MatchConfig      `yaml:"match" mapstructure:"match"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// WarehouseConfig configures the analytics warehouse holding the facility
// registry and the CRM account mirror.
type WarehouseConfig struct {
	Driver        string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL   string `yaml:"database_url" mapstructure:"database_url"`
	FacilityTable string `yaml:"facility_table" mapstructure:"facility_table"`
	AccountTable  string `yaml:"account_table" mapstructure:"account_table"`
	MaxConns      int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns      int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AccountsConfig selects where CRM accounts are read from.
type AccountsConfig struct {
	Source     string `yaml:"source" mapstructure:"source"`
	NameFilter string `yaml:"name_filter" mapstructure:"name_filter"`
}

// SalesforceConfig holds Salesforce JWT auth settings and the Lightning host
// used for account links.
type SalesforceConfig struct {
	ClientID     string  `yaml:"client_id" mapstructure:"client_id"`
	Username     string  `yaml:"username" mapstructure:"username"`
	KeyPath      string  `yaml:"key_path" mapstructure:"key_path"`
	LoginURL     string  `yaml:"login_url" mapstructure:"login_url"`
	InstanceHost string  `yaml:"instance_host" mapstructure:"instance_host"`
	RateLimit    float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// MatchConfig configures ranking.
type MatchConfig struct {
	Ordering string `yaml:"ordering" mapstructure:"ordering"`
	Workers  int    `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig configures how long a computed match snapshot is served.
type CacheConfig struct {
	TTLSecs int `yaml:"ttl_secs" mapstructure:"ttl_secs"`
}

// TTL returns the snapshot time-to-live.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSecs) * time.Second
}

// RetryConfig configures retries of warehouse and CRM fetches.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMS int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// ServerConfig configures the dashboard API server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FACILITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("warehouse.driver", "postgres")
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("warehouse.facility_table", "google_sheets.local_state_correctional")
	v.SetDefault("warehouse.account_table", "salesforce.account")
	v.SetDefault("warehouse.max_conns", 10)
	v.SetDefault("warehouse.min_conns", 2)
	v.SetDefault("accounts.source", "warehouse")
	v.SetDefault("accounts.name_filter", "Sheriff")
	v.SetDefault("salesforce.client_id", "")
	v.SetDefault("salesforce.username", "")
	v.SetDefault("salesforce.key_path", "")
	v.SetDefault("salesforce.login_url", "https://login.salesforce.com")
	v.SetDefault("salesforce.instance_host", "skydio.lightning.force.com")
	v.SetDefault("salesforce.rate_limit", 5.0)
	v.SetDefault("match.ordering", "lexical")
	v.SetDefault("match.workers", 1)
	v.SetDefault("cache.ttl_secs", 3600)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Validate checks enumerated settings and that the credentials required by
// the selected sources are present.
func (c *Config) Validate() error {
	var problems []string

	switch c.Warehouse.Driver {
	case "postgres":
		if c.Warehouse.DatabaseURL == "" {
			problems = append(problems, "warehouse.database_url is required for the postgres driver (FACILITY_WAREHOUSE_DATABASE_URL)")
		}
	case "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("warehouse.driver %q is not one of postgres, sqlite", c.Warehouse.Driver))
	}

	for _, t := range []struct{ key, name string }{
		{"warehouse.facility_table", c.Warehouse.FacilityTable},
		{"warehouse.account_table", c.Warehouse.AccountTable},
	} {
		if !tableName.MatchString(t.name) {
			problems = append(problems, fmt.Sprintf("%s %q is not a [schema.]table name", t.key, t.name))
		}
	}

	switch c.Accounts.Source {
	case "warehouse":
	case "salesforce":
		if c.Salesforce.ClientID == "" {
			problems = append(problems, "salesforce.client_id is required when accounts.source is salesforce (FACILITY_SALESFORCE_CLIENT_ID)")
		}
		if c.Salesforce.KeyPath == "" {
			problems = append(problems, "salesforce.key_path is required when accounts.source is salesforce")
		}
	default:
		problems = append(problems, fmt.Sprintf("accounts.source %q is not one of warehouse, salesforce", c.Accounts.Source))
	}

	if !match.Ordering(c.Match.Ordering).Valid() {
		problems = append(problems, fmt.Sprintf("match.ordering %q is not one of %s, %s", c.Match.Ordering, match.OrderLexical, match.OrderScore))
	}
	if c.Cache.TTLSecs < 0 {
		problems = append(problems, "cache.ttl_secs must not be negative")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
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
