package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	// Empty PostgresURL disables cross-run dedupe persistence; empty
	// RedisAddr selects the in-memory response cache.
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	EnrichEndpoint       string `mapstructure:"ENRICH_ENDPOINT"`
	EnrichModel          string `mapstructure:"ENRICH_MODEL"`
	EnrichAPIKey         string `mapstructure:"ENRICH_API_KEY"`
	EnrichTimeoutSeconds int    `mapstructure:"ENRICH_TIMEOUT_SECONDS"`
	EnrichWorkers        int    `mapstructure:"ENRICH_WORKERS"`
	EnrichMaxInputChars  int    `mapstructure:"ENRICH_MAX_INPUT_CHARS"`
	RetryBackoffSeconds  int    `mapstructure:"RETRY_BACKOFF_SECONDS"`

	DailyBudgetUSD      float64 `mapstructure:"DAILY_BUDGET_USD"`
	BudgetAlertFraction float64 `mapstructure:"BUDGET_ALERT_FRACTION"`
	CostPerCallUSD      float64 `mapstructure:"COST_PER_CALL_USD"`
	CostPerKiloCharsUSD float64 `mapstructure:"COST_PER_KILO_CHARS_USD"`

	PriorityMode        string  `mapstructure:"PRIORITY_MODE"`
	SimhashThreshold    int     `mapstructure:"SIMHASH_THRESHOLD"`
	SemanticThreshold   float64 `mapstructure:"SEMANTIC_THRESHOLD"`
	CacheTTLHours       int     `mapstructure:"CACHE_TTL_HOURS"`
	CacheMaxEntries     int     `mapstructure:"CACHE_MAX_ENTRIES"`
	MinContentChars     int     `mapstructure:"MIN_CONTENT_CHARS"`
	FreshnessWindowDays int     `mapstructure:"FRESHNESS_WINDOW_DAYS"`

	SourcePriorityFile string `mapstructure:"SOURCE_PRIORITY_FILE"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// The .env file is optional; production configures purely through the
	// environment.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ENRICH_TIMEOUT_SECONDS", 30)
	viper.SetDefault("ENRICH_WORKERS", 4)
	viper.SetDefault("ENRICH_MAX_INPUT_CHARS", 4000)
	viper.SetDefault("RETRY_BACKOFF_SECONDS", 2)
	viper.SetDefault("DAILY_BUDGET_USD", 10.0)
	viper.SetDefault("BUDGET_ALERT_FRACTION", 0.8)
	viper.SetDefault("COST_PER_CALL_USD", 0.10)
	viper.SetDefault("COST_PER_KILO_CHARS_USD", 0.0)
	viper.SetDefault("PRIORITY_MODE", "balanced")
	viper.SetDefault("SIMHASH_THRESHOLD", 3)
	viper.SetDefault("SEMANTIC_THRESHOLD", 0.85)
	viper.SetDefault("CACHE_TTL_HOURS", 24)
	viper.SetDefault("CACHE_MAX_ENTRIES", 4096)
	viper.SetDefault("MIN_CONTENT_CHARS", 200)
	viper.SetDefault("FRESHNESS_WINDOW_DAYS", 7)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
