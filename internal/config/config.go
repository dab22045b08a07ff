// Package config loads the application configuration from config.yaml
// and LEADS_-prefixed environment variables, and owns logger setup.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	AmoCRM    AmoCRMConfig    `yaml:"amocrm" mapstructure:"amocrm"`
	Clients   ClientsConfig   `yaml:"clients" mapstructure:"clients"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Export    ExportConfig    `yaml:"export" mapstructure:"export"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AmoCRMConfig holds amoCRM OAuth2 credentials and client tuning.
type AmoCRMConfig struct {
	AccountDomain string  `yaml:"account_domain" mapstructure:"account_domain"`
	ClientID      string  `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret  string  `yaml:"client_secret" mapstructure:"client_secret"`
	RedirectURI   string  `yaml:"redirect_uri" mapstructure:"redirect_uri"`
	TokenFile     string  `yaml:"token_file" mapstructure:"token_file"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries    int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	PageLimit     int     `yaml:"page_limit" mapstructure:"page_limit"`
}

// ClientsConfig is the static client registry plus the default slug used
// when a command is run without --client.
type ClientsConfig struct {
	Map         map[string]int64 `yaml:"map" mapstructure:"map"`
	DefaultSlug string           `yaml:"default_slug" mapstructure:"default_slug"`
}

// NormalizeConfig tunes the record normalizer's business rules.
type NormalizeConfig struct {
	SiteMarker string `yaml:"site_marker" mapstructure:"site_marker"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
}

// ExportConfig configures where raw exports and flat CSVs land.
type ExportConfig struct {
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
}

// WarehouseConfig configures the analytics database backend.
type WarehouseConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"`
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	Database string `yaml:"database" mapstructure:"database"`
}

// RunLogConfig configures the local sqlite run journal.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("amocrm.token_file", "secrets/amocrm_tokens.json")
	v.SetDefault("amocrm.timeout_secs", 30)
	v.SetDefault("amocrm.max_retries", 3)
	v.SetDefault("amocrm.rate_limit", 6)
	v.SetDefault("amocrm.page_limit", 250)
	v.SetDefault("clients.map", map[string]int64{"artroyal_detailing": 1})
	v.SetDefault("clients.default_slug", "artroyal_detailing")
	v.SetDefault("normalize.site_marker", "artroyal-detailing.ru")
	v.SetDefault("normalize.workers", 4)
	v.SetDefault("export.data_dir", "data")
	v.SetDefault("warehouse.driver", "clickhouse")
	v.SetDefault("warehouse.database", "default_db")
	v.SetDefault("runlog.path", "data/etl_runs.db")

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
