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
	HTTP   HTTPConfig   `yaml:"http" mapstructure:"http"`
	BSE    BSEConfig    `yaml:"bse" mapstructure:"bse"`
	NSE    NSEConfig    `yaml:"nse" mapstructure:"nse"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// HTTPConfig configures the shared portal HTTP client.
type HTTPConfig struct {
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs    int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	DocTimeoutSecs int     `yaml:"doc_timeout_secs" mapstructure:"doc_timeout_secs"`
	MinDocBytes    int     `yaml:"min_doc_bytes" mapstructure:"min_doc_bytes"`
	RatePerHost    float64 `yaml:"rate_per_host" mapstructure:"rate_per_host"`
}

// BSEConfig holds the BSE portal endpoints.
type BSEConfig struct {
	APIBase       string   `yaml:"api_base" mapstructure:"api_base"`
	SiteBase      string   `yaml:"site_base" mapstructure:"site_base"`
	MasterCSVURL  string   `yaml:"master_csv_url" mapstructure:"master_csv_url"`
	MasterJSONURL string   `yaml:"master_json_url" mapstructure:"master_json_url"`
	MasterPageURL string   `yaml:"master_page_url" mapstructure:"master_page_url"`
	WarmupURLs    []string `yaml:"warmup_urls" mapstructure:"warmup_urls"`
}

// NSEConfig holds the NSE portal endpoints.
type NSEConfig struct {
	Base string `yaml:"base" mapstructure:"base"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	CompanyDelaySecs int `yaml:"company_delay_secs" mapstructure:"company_delay_secs"`
}

// ServerConfig configures the HTTP API server.
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
	v.SetEnvPrefix("REPORTCLI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("http.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36")
	v.SetDefault("http.timeout_secs", 30)
	v.SetDefault("http.doc_timeout_secs", 60)
	v.SetDefault("http.min_doc_bytes", 1000)
	v.SetDefault("http.rate_per_host", 3)
	v.SetDefault("bse.api_base", "https://api.bseindia.com/BseIndiaAPI/api")
	v.SetDefault("bse.site_base", "https://www.bseindia.com")
	v.SetDefault("bse.master_csv_url", "https://www.bseindia.com/downloads/BseIndiaAPI/ListofScrips.csv")
	v.SetDefault("bse.master_json_url", "https://api.bseindia.com/BseIndiaAPI/api/ListofScripData/w?segment=equity&status=Active")
	v.SetDefault("bse.master_page_url", "https://www.bseindia.com/corporates/List_Scrips.aspx")
	v.SetDefault("bse.warmup_urls", []string{
		"https://www.bseindia.com",
		"https://www.bseindia.com/markets/equity/EQReports/MarketWatch.aspx",
	})
	v.SetDefault("nse.base", "https://www.nseindia.com")
	v.SetDefault("batch.company_delay_secs", 0)
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
