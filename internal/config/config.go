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
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	EDGAR     EDGARConfig     `yaml:"edgar" mapstructure:"edgar"`
	Polygon   PolygonConfig   `yaml:"polygon" mapstructure:"polygon"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Fuzzy     FuzzyConfig     `yaml:"fuzzy" mapstructure:"fuzzy"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// DataConfig locates on-disk datasets.
type DataConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	RefdataDir string `yaml:"refdata_dir" mapstructure:"refdata_dir"`
}

// EDGARConfig configures bulk dataset downloads.
type EDGARConfig struct {
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxStaleDays int    `yaml:"max_stale_days" mapstructure:"max_stale_days"`
}

// PolygonConfig configures the market data client.
type PolygonConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NormalizeConfig configures batch normalization.
type NormalizeConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// FuzzyConfig bounds industry label matching.
type FuzzyConfig struct {
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"`
	Margin    float64 `yaml:"margin" mapstructure:"margin"`
}

// ServerConfig configures the HTTP query server.
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
	v.SetEnvPrefix("FUNDAMENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "fundament.db")
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.refdata_dir", "refdata")
	v.SetDefault("edgar.user_agent", "fundament/1.0 (data@fundament.io)")
	v.SetDefault("edgar.max_stale_days", 30)
	v.SetDefault("polygon.base_url", "https://api.polygon.io")
	v.SetDefault("normalize.concurrency", 4)
	v.SetDefault("fuzzy.threshold", 0.85)
	v.SetDefault("fuzzy.margin", 0.03)
	v.SetDefault("server.port", 8080)
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
