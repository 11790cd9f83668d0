package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Auth     AuthConfig
	Feed     FeedConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// StorageConfig configures the blob store holding feed artifacts.
type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	UseSSL       bool
	PublicDomain string
}

// AuthConfig holds the shared API secret. The service is private and
// only reachable by the dashboard, so a single shared key suffices.
type AuthConfig struct {
	APIKey string
}

// FeedConfig tunes generation runs.
type FeedConfig struct {
	RunTimeout        time.Duration
	RateLimitPerMin   int
	RateLimitDisabled bool
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("STORAGE_ENDPOINT", "localhost:9000")
	viper.SetDefault("STORAGE_BUCKET", "feeds")
	viper.SetDefault("STORAGE_USE_SSL", false)
	viper.SetDefault("FEED_RUN_TIMEOUT_SECONDS", 300)
	viper.SetDefault("FEED_RATE_LIMIT_PER_MIN", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Storage: StorageConfig{
			Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
			AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
			Bucket:       viper.GetString("STORAGE_BUCKET"),
			UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
			PublicDomain: viper.GetString("STORAGE_PUBLIC_DOMAIN"),
		},
		Auth: AuthConfig{
			APIKey: viper.GetString("API_KEY"),
		},
		Feed: FeedConfig{
			RunTimeout:        time.Duration(viper.GetInt("FEED_RUN_TIMEOUT_SECONDS")) * time.Second,
			RateLimitPerMin:   viper.GetInt("FEED_RATE_LIMIT_PER_MIN"),
			RateLimitDisabled: viper.GetBool("FEED_RATE_LIMIT_DISABLED"),
		},
	}
}
