package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	GoldAPI  GoldAPI  `mapstructure:"goldapi"`
	Pricing  Pricing  `mapstructure:"pricing"`
	Logger   Logger   `mapstructure:"logger"`
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
}

// GoldAPI holds the configuration for the gold price feed.
type GoldAPI struct {
	BaseURL        string  `mapstructure:"base_url"`
	ApiKey         string  `mapstructure:"apiKey"`
	Metal          string  `mapstructure:"metal"`
	Currency       string  `mapstructure:"currency"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Pricing holds the configuration for reference-price derivation.
type Pricing struct {
	// BuySpread is the per-ounce amount a bank shaves off the market
	// price when buying gold back from the holder.
	BuySpread float64 `mapstructure:"buy_spread"`
}

// Server holds the configuration for the web server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("goldapi.base_url", "https://www.goldapi.io/api")
	viper.SetDefault("goldapi.metal", "XAU")
	viper.SetDefault("goldapi.currency", "AED")
	viper.SetDefault("goldapi.rate_limit", 1) // requests per second
	viper.SetDefault("goldapi.rate_limit_burst", 1)
	viper.SetDefault("pricing.buy_spread", 150) // per troy ounce
	viper.SetDefault("database.dsn", "gold-tracker.db")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
