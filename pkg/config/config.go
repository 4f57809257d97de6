// Package config loads the library configuration from config.yaml, the
// environment and an optional .env file. All keys can be set through
// BULKFIN_-prefixed environment variables, e.g. BULKFIN_DATA_API_KEY.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bulkfin/bulkfin-go/pkg/align"
)

type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Data     DataConfig     `mapstructure:"data"`
	Hub      HubConfig      `mapstructure:"hub"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Database DatabaseConfig `mapstructure:"database"`
}

// DataConfig configures the bulk download client.
type DataConfig struct {
	APIKey                 string `mapstructure:"api_key"`
	BaseURL                string `mapstructure:"base_url"`
	DataDir                string `mapstructure:"data_dir"`
	RefreshDays            int    `mapstructure:"refresh_days"`
	RefreshDaysSharePrices int    `mapstructure:"refresh_days_shareprices"`
}

// HubConfig configures the default hub: which market to load, an optional
// ticker filter, the publication lag applied to report dates and the fill
// method used when stretching fundamentals onto price dates.
type HubConfig struct {
	Market     string   `mapstructure:"market"`
	Tickers    []string `mapstructure:"tickers"`
	OffsetDays int      `mapstructure:"offset_days"`
	FillMethod string   `mapstructure:"fill_method"`
}

type CacheConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Dir     string      `mapstructure:"dir"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig enables the Redis-backed panel cache when Addr is set.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// Default returns the configuration used when no file and no environment
// variables are present. The free API key only unlocks the free datasets.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Data: DataConfig{
			APIKey:                 "free",
			BaseURL:                "https://simfin.com/api/bulk",
			DataDir:                "~/bulkfin_data",
			RefreshDays:            30,
			RefreshDaysSharePrices: 30,
		},
		Hub: HubConfig{
			Market:     "us",
			FillMethod: "ffill",
		},
		Cache: CacheConfig{
			Redis: RedisConfig{
				Prefix: "bulkfin:",
				TTL:    24 * time.Hour,
			},
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DBName:  "bulkfin",
			SSLMode: "disable",
		},
	}
}

// Load reads the configuration. When path is non-empty it names the config
// file to read; otherwise config.yaml is searched in ./configs and the
// working directory. A missing config file is fine, defaults and environment
// variables still apply. A .env file in the working directory is loaded
// first when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	// Start from a clean viper so repeated loads do not inherit state.
	viper.Reset()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
	}

	setDefaults()

	viper.SetEnvPrefix("BULKFIN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Short alias for the most commonly set variable.
	if err := viper.BindEnv("data.api_key", "BULKFIN_API_KEY", "BULKFIN_DATA_API_KEY"); err != nil {
		return nil, fmt.Errorf("bind api key environment variable: %w", err)
	}

	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	dir, err := expandHome(config.Data.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	config.Data.DataDir = dir

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults() {
	d := Default()

	viper.SetDefault("log_level", d.LogLevel)

	viper.SetDefault("data.api_key", d.Data.APIKey)
	viper.SetDefault("data.base_url", d.Data.BaseURL)
	viper.SetDefault("data.data_dir", d.Data.DataDir)
	viper.SetDefault("data.refresh_days", d.Data.RefreshDays)
	viper.SetDefault("data.refresh_days_shareprices", d.Data.RefreshDaysSharePrices)

	viper.SetDefault("hub.market", d.Hub.Market)
	viper.SetDefault("hub.tickers", []string{})
	viper.SetDefault("hub.offset_days", d.Hub.OffsetDays)
	viper.SetDefault("hub.fill_method", d.Hub.FillMethod)

	viper.SetDefault("cache.enabled", d.Cache.Enabled)
	viper.SetDefault("cache.dir", d.Cache.Dir)
	viper.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	viper.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	viper.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	viper.SetDefault("cache.redis.prefix", d.Cache.Redis.Prefix)
	viper.SetDefault("cache.redis.ttl", "24h")

	viper.SetDefault("database.host", d.Database.Host)
	viper.SetDefault("database.port", d.Database.Port)
	viper.SetDefault("database.user", d.Database.User)
	viper.SetDefault("database.password", d.Database.Password)
	viper.SetDefault("database.dbname", d.Database.DBName)
	viper.SetDefault("database.sslmode", d.Database.SSLMode)
}

// Validate checks the fields the library depends on. Called by Load; call
// it yourself when building a Config by hand.
func (c *Config) Validate() error {
	if c.Data.RefreshDays < 0 {
		return fmt.Errorf("data.refresh_days must not be negative, got %d", c.Data.RefreshDays)
	}
	if c.Data.RefreshDaysSharePrices < 0 {
		return fmt.Errorf("data.refresh_days_shareprices must not be negative, got %d", c.Data.RefreshDaysSharePrices)
	}
	if c.Hub.Market == "" {
		return fmt.Errorf("hub.market must not be empty")
	}
	if c.Hub.OffsetDays < 0 {
		return fmt.Errorf("hub.offset_days must not be negative, got %d", c.Hub.OffsetDays)
	}
	if _, err := align.ParseMethod(c.Hub.FillMethod); err != nil {
		return fmt.Errorf("hub.fill_method: %w", err)
	}
	if c.Cache.Redis.TTL < 0 {
		return fmt.Errorf("cache.redis.ttl must not be negative, got %s", c.Cache.Redis.TTL)
	}
	return nil
}

// DownloadDir is where bulk CSV files are stored, a subdirectory of the
// data dir.
func (c DataConfig) DownloadDir() string {
	return filepath.Join(c.DataDir, "download")
}

// CacheDir resolves the directory for the disk panel cache. Defaults to the
// cache subdirectory of the data dir.
func (c *Config) CacheDir() string {
	if c.Cache.Dir != "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Data.DataDir, "cache")
}

// ConnString renders the pgx connection string.
func (c DatabaseConfig) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

func expandHome(dir string) (string, error) {
	if dir != "~" && !strings.HasPrefix(dir, "~/") {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(dir, "~")), nil
}
