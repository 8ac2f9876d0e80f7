package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName             string
	AppEnv              string
	AppPort             string
	DatabaseURL         string
	RedisURL            string
	NATSURL             string
	JWTSecret           string
	APIKey              string
	UploadDir           string
	MaxUploadSizeMB     int
	MaxFilesPerActivity int
	AnalyticsCacheTTL   time.Duration
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// DemoMode reports whether the service runs against the embedded seeded
// database instead of a configured Postgres instance.
func (c Config) DemoMode() bool {
	return c.DatabaseURL == ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("EDUTRACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "EduTrack API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("upload.dir", "uploads/activities")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.max_files", 5)
	v.SetDefault("analytics.cache_ttl", "5m")
	v.SetDefault("cloudinary.folder", "edutrack/avatars")
	v.SetDefault("jwt.secret", "")

	ttlString := v.GetString("analytics.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	cfg := Config{
		AppName:             v.GetString("app.name"),
		AppEnv:              v.GetString("app.env"),
		AppPort:             v.GetString("app.port"),
		DatabaseURL:         v.GetString("database.url"),
		RedisURL:            v.GetString("redis.url"),
		NATSURL:             v.GetString("nats.url"),
		JWTSecret:           v.GetString("jwt.secret"),
		APIKey:              v.GetString("api.key"),
		UploadDir:           v.GetString("upload.dir"),
		MaxUploadSizeMB:     v.GetInt("upload.max_size_mb"),
		MaxFilesPerActivity: v.GetInt("upload.max_files"),
		AnalyticsCacheTTL:   ttl,
		CloudinaryCloudName: v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:    v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret: v.GetString("cloudinary.api_secret"),
		CloudinaryFolder:    v.GetString("cloudinary.folder"),
	}

	if cfg.JWTSecret == "" {
		if cfg.AppEnv == "production" {
			return Config{}, fmt.Errorf("jwt secret must be provided in production")
		}
		cfg.JWTSecret = "edutrack-dev-secret"
	}

	if cfg.MaxUploadSizeMB <= 0 {
		cfg.MaxUploadSizeMB = 10
	}

	if cfg.MaxFilesPerActivity <= 0 {
		cfg.MaxFilesPerActivity = 5
	}

	return cfg, nil
}
