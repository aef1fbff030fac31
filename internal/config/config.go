package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/pam-pakkiri/coinpree/internal/common"
)

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	HTTPAddr string `yaml:"http_addr"`
}

// ExchangeConfig describes one exchange source.
type ExchangeConfig struct {
	BaseURL          string   `yaml:"base_url"`
	MinQuoteVolume   float64  `yaml:"min_quote_volume"`
	MaxSymbols       int      `yaml:"max_symbols"`
	BatchSize        int      `yaml:"batch_size"`
	BatchDelayMs     int      `yaml:"batch_delay_ms"`
	RequestTimeoutMs int      `yaml:"request_timeout_ms"`
	Products         []string `yaml:"products"`
}

type CacheConfig struct {
	Dir            string `yaml:"dir"`
	UniverseTTLSec int    `yaml:"universe_ttl_sec"`
	SignalsTTLSec  int    `yaml:"signals_ttl_sec"`
	ReversalTTLSec int    `yaml:"reversal_ttl_sec"`
	Persist        bool   `yaml:"persist"`
}

type RefreshConfig struct {
	Enabled    bool     `yaml:"enabled"`
	Schedule   string   `yaml:"schedule"`
	Exchanges  []string `yaml:"exchanges"`
	Timeframes []string `yaml:"timeframes"`
}

type CoinGeckoConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Pages   int    `yaml:"pages"`
}

type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Exchanges map[string]ExchangeConfig `yaml:"exchanges"`
	Cache     CacheConfig               `yaml:"cache"`
	Refresh   RefreshConfig             `yaml:"refresh"`
	CoinGecko CoinGeckoConfig           `yaml:"coingecko"`
	LogLevel  string                    `yaml:"log_level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: common.DefaultGRPCPort, HTTPAddr: common.DefaultHTTPAddr},
		Exchanges: map[string]ExchangeConfig{},
		Cache:     CacheConfig{Dir: common.DefaultCacheDir, Persist: true},
		Refresh:   RefreshConfig{Schedule: common.DefaultRefreshSpec},
		LogLevel:  "info",
	}
}

// LoadConfig reads the YAML file at path and then applies overrides from the env file
// at envPath (missing env file is not an error) and the process environment.
func LoadConfig(path, envPath string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(config); err != nil {
		return nil, err
	}
	if config.Exchanges == nil {
		config.Exchanges = map[string]ExchangeConfig{}
	}

	if err := loadEnv(envPath); err != nil {
		return nil, err
	}
	config.applyEnv()
	return config, nil
}

func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnvOrDefault("COINPREE_LOG_LEVEL", c.LogLevel)
	c.Server.HTTPAddr = getEnvOrDefault("COINPREE_HTTP_ADDR", c.Server.HTTPAddr)
	c.Cache.Dir = getEnvOrDefault("COINPREE_CACHE_DIR", c.Cache.Dir)
	c.CoinGecko.APIKey = getEnvOrDefault("COINGECKO_API_KEY", c.CoinGecko.APIKey)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) GetExchangeConfig(exchange string) (ExchangeConfig, bool) {
	ec, ok := c.Exchanges[exchange]
	return ec, ok
}

func (c *Config) GetHTTPAddr() string {
	if c.Server.HTTPAddr == "" {
		return common.DefaultHTTPAddr
	}
	return c.Server.HTTPAddr
}

func (c *Config) GetGRPCPort() int {
	if c.Server.Port <= 0 {
		return common.DefaultGRPCPort
	}
	return c.Server.Port
}

func (c *Config) GetCacheDir() string {
	if c.Cache.Dir == "" {
		return common.DefaultCacheDir
	}
	return c.Cache.Dir
}

func (c *Config) GetUniverseTTL() time.Duration {
	return secondsOr(c.Cache.UniverseTTLSec, common.DefaultUniverseTTL)
}

func (c *Config) GetSignalsTTL() time.Duration {
	return secondsOr(c.Cache.SignalsTTLSec, common.DefaultSignalsTTL)
}

func (c *Config) GetReversalTTL() time.Duration {
	return secondsOr(c.Cache.ReversalTTLSec, common.DefaultReversalTTL)
}

func (c *Config) GetRefreshSchedule() string {
	if c.Refresh.Schedule == "" {
		return common.DefaultRefreshSpec
	}
	return c.Refresh.Schedule
}

func (e ExchangeConfig) GetBatchSize() int {
	if e.BatchSize <= 0 {
		return common.DefaultBatchSize
	}
	return e.BatchSize
}

func (e ExchangeConfig) GetBatchDelay() time.Duration {
	if e.BatchDelayMs < 0 {
		return 0
	}
	if e.BatchDelayMs == 0 {
		return common.DefaultBatchDelay
	}
	return time.Duration(e.BatchDelayMs) * time.Millisecond
}

func (e ExchangeConfig) GetRequestTimeout() time.Duration {
	if e.RequestTimeoutMs <= 0 {
		return common.DefaultRequestTimeout
	}
	return time.Duration(e.RequestTimeoutMs) * time.Millisecond
}

// GetMaxSymbols returns the universe cap, 0 meaning unlimited.
func (e ExchangeConfig) GetMaxSymbols() int {
	if e.MaxSymbols < 0 {
		return 0
	}
	return e.MaxSymbols
}

func secondsOr(sec int, def time.Duration) time.Duration {
	if sec <= 0 {
		return def
	}
	return time.Duration(sec) * time.Second
}
