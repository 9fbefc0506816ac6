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
	MarketAux  MarketAuxConfig  `yaml:"marketaux" mapstructure:"marketaux"`
	Cleaning   CleaningConfig   `yaml:"cleaning" mapstructure:"cleaning"`
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// MarketAuxConfig holds MarketAux API settings for the extract stage.
type MarketAuxConfig struct {
	APIKey            string  `yaml:"api_key" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	PageSize          int     `yaml:"page_size" mapstructure:"page_size"`
	NewsSample        int     `yaml:"news_sample" mapstructure:"news_sample"`
	NewsBatch         int     `yaml:"news_batch" mapstructure:"news_batch"`
	NewsDays          int     `yaml:"news_days" mapstructure:"news_days"`
	OutputDir         string  `yaml:"output_dir" mapstructure:"output_dir"`
}

// CleaningConfig configures the clean stage.
type CleaningConfig struct {
	Input         string `yaml:"input" mapstructure:"input"`
	Output        string `yaml:"output" mapstructure:"output"`
	XLSXOutput    string `yaml:"xlsx_output" mapstructure:"xlsx_output"`
	LegacyCZRemap bool   `yaml:"legacy_cz_remap" mapstructure:"legacy_cz_remap"`
	ReferenceFile string `yaml:"reference_file" mapstructure:"reference_file"`
}

// WarehouseConfig configures the load target.
type WarehouseConfig struct {
	Driver       string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL  string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath   string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	Table        string `yaml:"table" mapstructure:"table"`
	AuditTable   string `yaml:"audit_table" mapstructure:"audit_table"`
	MetricsTable string `yaml:"metrics_table" mapstructure:"metrics_table"`
	MaxConns     int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ServerConfig configures the status API.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures load alerts. Alerts are only sent when
// WebhookURL is set.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	QualityThreshold     float64 `yaml:"quality_threshold" mapstructure:"quality_threshold"`
	LookbackRuns         int     `yaml:"lookback_runs" mapstructure:"lookback_runs"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
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
	v.SetEnvPrefix("TECHCO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Keys without a real default are registered empty so
	// AutomaticEnv can populate them during Unmarshal.
	v.SetDefault("marketaux.api_key", "")
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("cleaning.xlsx_output", "")
	v.SetDefault("cleaning.reference_file", "")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("marketaux.base_url", "https://api.marketaux.com/v1")
	v.SetDefault("marketaux.requests_per_second", 2.0)
	v.SetDefault("marketaux.timeout_secs", 30)
	v.SetDefault("marketaux.page_size", 50)
	v.SetDefault("marketaux.news_sample", 20)
	v.SetDefault("marketaux.news_batch", 5)
	v.SetDefault("marketaux.news_days", 7)
	v.SetDefault("marketaux.output_dir", ".")
	v.SetDefault("cleaning.input", "marketaux_tech_companies_list.csv")
	v.SetDefault("cleaning.output", "cleaned_tech_companies.csv")
	v.SetDefault("cleaning.legacy_cz_remap", false)
	v.SetDefault("warehouse.driver", "postgres")
	v.SetDefault("warehouse.sqlite_path", "techco.db")
	v.SetDefault("warehouse.table", "etl.tech_companies")
	v.SetDefault("warehouse.audit_table", "etl.etl_audit")
	v.SetDefault("warehouse.metrics_table", "etl.data_quality_metrics")
	v.SetDefault("warehouse.max_conns", 4)
	v.SetDefault("monitoring.failure_rate_threshold", 0.25)
	v.SetDefault("monitoring.quality_threshold", 0.7)
	v.SetDefault("monitoring.lookback_runs", 20)
	v.SetDefault("monitoring.check_interval_secs", 300)

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
