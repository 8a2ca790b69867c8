package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the CRM API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	CORSAllowOrigins  string
	MetaVerifyToken   string
	MetaAppSecret     string
	DashboardCacheTTL time.Duration
	ImportMaxSizeMB   int
	EventSubjectBase  string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CRM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Academy CRM API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("import.max_size_mb", 10)
	v.SetDefault("events.subject_base", "crm.leads")

	ttlString := v.GetString("dashboard.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		CORSAllowOrigins:  v.GetString("cors.allow_origins"),
		MetaVerifyToken:   v.GetString("meta.verify_token"),
		MetaAppSecret:     v.GetString("meta.app_secret"),
		DashboardCacheTTL: ttl,
		ImportMaxSizeMB:   v.GetInt("import.max_size_mb"),
		EventSubjectBase:  v.GetString("events.subject_base"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ImportMaxSizeMB <= 0 {
		cfg.ImportMaxSizeMB = 10
	}

	return cfg, nil
}
