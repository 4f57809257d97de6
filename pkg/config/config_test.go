package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_WithDefaults(t *testing.T) {
	// Clear any existing environment variables that might interfere.
	os.Clearenv()
	home := t.TempDir()
	t.Setenv("HOME", home)

	config, err := Load("")
	require.NoError(t, err)
	require.NotNil(t, config)

	assert.Equal(t, "info", config.LogLevel)
	assert.Equal(t, "free", config.Data.APIKey)
	assert.Equal(t, "https://simfin.com/api/bulk", config.Data.BaseURL)
	assert.Equal(t, filepath.Join(home, "bulkfin_data"), config.Data.DataDir)
	assert.Equal(t, 30, config.Data.RefreshDays)
	assert.Equal(t, 30, config.Data.RefreshDaysSharePrices)
	assert.Equal(t, "us", config.Hub.Market)
	assert.Empty(t, config.Hub.Tickers)
	assert.Equal(t, 0, config.Hub.OffsetDays)
	assert.Equal(t, "ffill", config.Hub.FillMethod)
	assert.False(t, config.Cache.Enabled)
	assert.Equal(t, "bulkfin:", config.Cache.Redis.Prefix)
	assert.Equal(t, 24*time.Hour, config.Cache.Redis.TTL)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "postgres", config.Database.User)
	assert.Equal(t, "bulkfin", config.Database.DBName)
	assert.Equal(t, "disable", config.Database.SSLMode)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Setenv("BULKFIN_LOG_LEVEL", "debug")
	t.Setenv("BULKFIN_API_KEY", "secret-key")
	t.Setenv("BULKFIN_DATA_DATA_DIR", t.TempDir())
	t.Setenv("BULKFIN_DATA_REFRESH_DAYS", "7")
	t.Setenv("BULKFIN_HUB_MARKET", "de")
	t.Setenv("BULKFIN_HUB_TICKERS", "AAPL,MSFT")
	t.Setenv("BULKFIN_HUB_OFFSET_DAYS", "60")
	t.Setenv("BULKFIN_HUB_FILL_METHOD", "linear")
	t.Setenv("BULKFIN_CACHE_ENABLED", "true")
	t.Setenv("BULKFIN_CACHE_REDIS_ADDR", "redis.example.com:6379")
	t.Setenv("BULKFIN_CACHE_REDIS_TTL", "1h")
	t.Setenv("BULKFIN_DATABASE_PORT", "5433")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", config.LogLevel)
	assert.Equal(t, "secret-key", config.Data.APIKey)
	assert.Equal(t, 7, config.Data.RefreshDays)
	assert.Equal(t, "de", config.Hub.Market)
	assert.Equal(t, []string{"AAPL", "MSFT"}, config.Hub.Tickers)
	assert.Equal(t, 60, config.Hub.OffsetDays)
	assert.Equal(t, "linear", config.Hub.FillMethod)
	assert.True(t, config.Cache.Enabled)
	assert.Equal(t, "redis.example.com:6379", config.Cache.Redis.Addr)
	assert.Equal(t, time.Hour, config.Cache.Redis.TTL)
	assert.Equal(t, 5433, config.Database.Port)
}

func TestLoad_FromFile(t *testing.T) {
	os.Clearenv()
	t.Setenv("HOME", t.TempDir())

	dir := t.TempDir()
	path := filepath.Join(dir, "bulkfin.yaml")
	yaml := []byte(`
log_level: warn
data:
  api_key: from-file
  data_dir: ` + dir + `
  refresh_days: 1
hub:
  market: us
  tickers: [AAPL]
`)
	require.NoError(t, os.WriteFile(path, yaml, 0o644))

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "warn", config.LogLevel)
	assert.Equal(t, "from-file", config.Data.APIKey)
	assert.Equal(t, dir, config.Data.DataDir)
	assert.Equal(t, 1, config.Data.RefreshDays)
	assert.Equal(t, []string{"AAPL"}, config.Hub.Tickers)
	// Keys absent from the file keep their defaults.
	assert.Equal(t, 30, config.Data.RefreshDaysSharePrices)
	assert.Equal(t, "ffill", config.Hub.FillMethod)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	bad := Default()
	bad.Data.RefreshDays = -1
	assert.ErrorContains(t, bad.Validate(), "refresh_days")

	bad = Default()
	bad.Hub.Market = ""
	assert.ErrorContains(t, bad.Validate(), "market")

	bad = Default()
	bad.Hub.FillMethod = "cubic"
	assert.ErrorContains(t, bad.Validate(), "fill method")

	bad = Default()
	bad.Hub.OffsetDays = -3
	assert.ErrorContains(t, bad.Validate(), "offset_days")
}

func TestDataConfig_DownloadDir(t *testing.T) {
	c := DataConfig{DataDir: "/tmp/bulkfin"}
	assert.Equal(t, filepath.Join("/tmp/bulkfin", "download"), c.DownloadDir())
}

func TestConfig_CacheDir(t *testing.T) {
	cfg := Default()
	cfg.Data.DataDir = "/data"
	assert.Equal(t, filepath.Join("/data", "cache"), cfg.CacheDir())

	cfg.Cache.Dir = "/elsewhere"
	assert.Equal(t, "/elsewhere", cfg.CacheDir())
}

func TestDatabaseConfig_ConnString(t *testing.T) {
	c := DatabaseConfig{
		Host: "db.example.com", Port: 5432,
		User: "bulkfin", Password: "pw", DBName: "prices", SSLMode: "require",
	}
	assert.Equal(t,
		"postgres://bulkfin:pw@db.example.com:5432/prices?sslmode=require",
		c.ConnString())
}
