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
	AppName string
	AppEnv  string
	AppPort string

	DatabaseURL string
	RedisURL    string
	NATSURL     string
	NATSSubject string

	JWTSecret   string
	TokenTTL    time.Duration
	RBACTTL     time.Duration
	ModuleCap   int
	ReviewRole  string
	LoginLimit  int
	LoginWindow time.Duration

	StorageDriver          string
	StorageLocalPath       string
	MinioEndpoint          string
	MinioAccessKey         string
	MinioSecretKey         string
	MinioBucket            string
	MinioUseSSL            bool
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	UploadMaxSizeMB        int
	UploadMaxFiles         int

	ListDefaultLimit int
	ListMaxLimit     int

	LogLevel string
	LogFile  string
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
	v.SetEnvPrefix("APPEALS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Campus Appeals API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("nats.subject", "appeals")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("rbac.cache_ttl", "10m")
	v.SetDefault("rbac.module_cap", 3)
	v.SetDefault("review.default_role", "faculty")
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_path", "storage")
	v.SetDefault("cloudinary.folder", "appeals")
	v.SetDefault("upload.max_size_mb", 10)
	v.SetDefault("upload.max_files", 5)
	v.SetDefault("list.default_limit", 50)
	v.SetDefault("list.max_limit", 200)
	v.SetDefault("log.level", "info")

	tokenTTL, err := parseDuration(v.GetString("jwt.ttl"), 24*time.Hour)
	if err != nil {
		return Config{}, fmt.Errorf("invalid jwt ttl: %w", err)
	}
	rbacTTL, err := parseDuration(v.GetString("rbac.cache_ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rbac cache ttl: %w", err)
	}
	loginWindow, err := parseDuration(v.GetString("login.rate_window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		NATSSubject:            v.GetString("nats.subject"),
		JWTSecret:              v.GetString("jwt.secret"),
		TokenTTL:               tokenTTL,
		RBACTTL:                rbacTTL,
		ModuleCap:              v.GetInt("rbac.module_cap"),
		ReviewRole:             strings.ToLower(strings.TrimSpace(v.GetString("review.default_role"))),
		LoginLimit:             v.GetInt("login.rate_limit"),
		LoginWindow:            loginWindow,
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		StorageLocalPath:       v.GetString("storage.local_path"),
		MinioEndpoint:          v.GetString("minio.endpoint"),
		MinioAccessKey:         v.GetString("minio.access_key"),
		MinioSecretKey:         v.GetString("minio.secret_key"),
		MinioBucket:            v.GetString("minio.bucket"),
		MinioUseSSL:            v.GetBool("minio.use_ssl"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		UploadMaxSizeMB:        v.GetInt("upload.max_size_mb"),
		UploadMaxFiles:         v.GetInt("upload.max_files"),
		ListDefaultLimit:       v.GetInt("list.default_limit"),
		ListMaxLimit:           v.GetInt("list.max_limit"),
		LogLevel:               strings.ToLower(v.GetString("log.level")),
		LogFile:                v.GetString("log.file"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.ModuleCap <= 0 {
		cfg.ModuleCap = 3
	}
	if cfg.UploadMaxSizeMB <= 0 {
		cfg.UploadMaxSizeMB = 10
	}
	if cfg.UploadMaxFiles <= 0 {
		cfg.UploadMaxFiles = 5
	}
	if cfg.ListMaxLimit <= 0 {
		cfg.ListMaxLimit = 200
	}
	if cfg.ListDefaultLimit <= 0 || cfg.ListDefaultLimit > cfg.ListMaxLimit {
		cfg.ListDefaultLimit = 50
	}
	if cfg.ReviewRole == "" {
		cfg.ReviewRole = "faculty"
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}
