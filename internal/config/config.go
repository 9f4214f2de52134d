package config

import (
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	PostgresURL        string `mapstructure:"POSTGRES_URL"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	ServerPort         string `mapstructure:"SERVER_PORT"`
	OpenAIAPIKey       string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel        string `mapstructure:"OPENAI_MODEL"`
	TeamID             string `mapstructure:"TEAM_ID"`
	CrawlWorkers       int    `mapstructure:"CRAWL_WORKERS"`
	MaxAttempts        int    `mapstructure:"MAX_ATTEMPTS"`
	FetchTimeout       int    `mapstructure:"FETCH_TIMEOUT"`   // seconds, HTTP strategies
	BrowserTimeout     int    `mapstructure:"BROWSER_TIMEOUT"` // seconds, chromedp strategies
	MinContentLength   int    `mapstructure:"MIN_CONTENT_LENGTH"`
	DeduplicationDays  int    `mapstructure:"DEDUPLICATION_DAYS"`
	SitemapMaxDepth    int    `mapstructure:"SITEMAP_MAX_DEPTH"`
	DisableStrategyLLM bool   `mapstructure:"DISABLE_STRATEGY_LLM"`
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present
	// This allows configuration purely through environment variables in production
	_ = viper.ReadInConfig()

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("TEAM_ID", "aline123")
	viper.SetDefault("CRAWL_WORKERS", 4)
	viper.SetDefault("MAX_ATTEMPTS", 3)
	viper.SetDefault("FETCH_TIMEOUT", 15)   // in seconds
	viper.SetDefault("BROWSER_TIMEOUT", 60) // in seconds
	viper.SetDefault("MIN_CONTENT_LENGTH", 100)
	viper.SetDefault("DEDUPLICATION_DAYS", 2)
	viper.SetDefault("SITEMAP_MAX_DEPTH", 8)
	viper.SetDefault("DISABLE_STRATEGY_LLM", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
