package config

import (
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/chandanbounteous/goldscanner/pkg/logger"
)

const devEnv = "dev"

// Config holds application configuration sourced from environment variables.
type Config struct {
	AdminEmail    string
	AdminPassword string
	SessionSecret string
	DBPath        string
	Port          string
	AppEnv        string
	LogLevel      string
	Currency      string
	ReceiptLocale string

	// OpeningGoldRate seeds today's rate when none is stored yet; 0 skips it.
	OpeningGoldRate float64

	// PricingWorkers bounds how many basket articles are priced at once.
	PricingWorkers int

	Cache CacheConfig
}

// CacheConfig configures the Redis gold-rate cache.
type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	GoldRateTTLSeconds int
}

// IsDev reports whether the app runs in local development, where the
// schema is migrated on startup.
func (c Config) IsDev() bool {
	return c.AppEnv == devEnv
}

// Load reads .env (if present) and the environment and returns a populated Config.
func Load() Config {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv paths. Variables already present
// in the environment win over the files.
func LoadFiles(paths ...string) Config {
	// Best-effort: production should use real env injection.
	_ = godotenv.Load(paths...)
	return fromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_PATH", "./dev.db")
	v.SetDefault("APP_ENV", devEnv)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("CURRENCY", "NPR")
	v.SetDefault("RECEIPT_LOCALE", "en")
	v.SetDefault("OPENING_GOLD_RATE", 0)
	v.SetDefault("PRICING_WORKERS", 4)
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("GOLD_RATE_TTL_SECONDS", 300)
	v.AutomaticEnv()
	return v
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		AdminEmail:      v.GetString("ADMIN_EMAIL"),
		AdminPassword:   v.GetString("ADMIN_PASSWORD"),
		SessionSecret:   v.GetString("SESSION_SECRET"),
		DBPath:          v.GetString("DB_PATH"),
		Port:            v.GetString("PORT"),
		AppEnv:          v.GetString("APP_ENV"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Currency:        v.GetString("CURRENCY"),
		ReceiptLocale:   v.GetString("RECEIPT_LOCALE"),
		OpeningGoldRate: v.GetFloat64("OPENING_GOLD_RATE"),
		PricingWorkers:  v.GetInt("PRICING_WORKERS"),
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			GoldRateTTLSeconds: v.GetInt("GOLD_RATE_TTL_SECONDS"),
		},
	}

	if cfg.PricingWorkers < 1 {
		cfg.PricingWorkers = 1
	}

	if cfg.AdminEmail == "" {
		logger.Log.Warn().Msg("ADMIN_EMAIL is not set")
	}
	if cfg.AdminPassword == "" {
		logger.Log.Warn().Msg("ADMIN_PASSWORD is not set")
	}
	if cfg.SessionSecret == "" {
		logger.Log.Warn().Msg("SESSION_SECRET is not set")
	}

	return cfg
}
