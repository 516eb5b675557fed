package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "TOURNEY"

const (
	UploadBackendCloudinary = "cloudinary"
	UploadBackendR2         = "r2"
)

// Config хранит все конфигурационные параметры клиента.
type Config struct {
	APIBaseURL     string
	CollectionPath string
	HTTPTimeout    time.Duration

	ListenAddr     string
	AllowedOrigins []string

	Upload  UploadConfig
	Session SessionConfig

	DarkMode  bool
	LogLevel  string
	LogFormat string
}

type UploadConfig struct {
	Backend string

	CloudinaryCloudName    string
	CloudinaryUploadPreset string

	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicBaseURL   string
}

// SessionConfig описывает источник bearer-токена. Token wins over JWTSecret;
// with neither set the client runs anonymously.
type SessionConfig struct {
	Token     string
	JWTSecret string
	UserID    string
	TokenTTL  time.Duration
}

// Load загружает конфигурацию из переменных окружения (префикс TOURNEY_)
// и, если есть, из config.yaml. .env подгружается для локальной разработки.
func Load() (*Config, error) {
	// Ошибку не считаем фатальной: .env нужен только локально.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("COLLECTION_PATH", "/api/tournaments")
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("LISTEN_ADDR", ":8090")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("UPLOAD_BACKEND", UploadBackendCloudinary)
	v.SetDefault("CLOUDINARY_UPLOAD_PRESET", "tourney")
	v.SetDefault("SESSION_TOKEN_TTL", "1h")
	v.SetDefault("DARK_MODE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func fromViper(v *viper.Viper) (*Config, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(v.GetString("API_BASE_URL")), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%s_API_BASE_URL environment variable is not set", envPrefix)
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid %s_API_BASE_URL: %w", envPrefix, err)
	}

	collection := strings.TrimSpace(v.GetString("COLLECTION_PATH"))
	if !strings.HasPrefix(collection, "/") {
		collection = "/" + collection
	}

	timeout, err := time.ParseDuration(v.GetString("HTTP_TIMEOUT"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s_HTTP_TIMEOUT: %w", envPrefix, err)
	}
	ttl, err := time.ParseDuration(v.GetString("SESSION_TOKEN_TTL"))
	if err != nil {
		return nil, fmt.Errorf("invalid %s_SESSION_TOKEN_TTL: %w", envPrefix, err)
	}

	cfg := &Config{
		APIBaseURL:     baseURL,
		CollectionPath: strings.TrimRight(collection, "/"),
		HTTPTimeout:    timeout,
		ListenAddr:     strings.TrimSpace(v.GetString("LISTEN_ADDR")),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		Upload: UploadConfig{
			Backend:                strings.ToLower(strings.TrimSpace(v.GetString("UPLOAD_BACKEND"))),
			CloudinaryCloudName:    strings.TrimSpace(v.GetString("CLOUDINARY_CLOUD_NAME")),
			CloudinaryUploadPreset: strings.TrimSpace(v.GetString("CLOUDINARY_UPLOAD_PRESET")),
			R2AccountID:            strings.TrimSpace(v.GetString("R2_ACCOUNT_ID")),
			R2AccessKeyID:          strings.TrimSpace(v.GetString("R2_ACCESS_KEY_ID")),
			R2SecretAccessKey:      strings.TrimSpace(v.GetString("R2_SECRET_ACCESS_KEY")),
			R2BucketName:           strings.TrimSpace(v.GetString("R2_BUCKET_NAME")),
			R2PublicBaseURL:        strings.TrimSpace(v.GetString("R2_PUBLIC_BASE_URL")),
		},
		Session: SessionConfig{
			Token:     strings.TrimSpace(v.GetString("SESSION_TOKEN")),
			JWTSecret: v.GetString("SESSION_JWT_SECRET"),
			UserID:    strings.TrimSpace(v.GetString("SESSION_USER_ID")),
			TokenTTL:  ttl,
		},
		DarkMode:  v.GetBool("DARK_MODE"),
		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),
	}

	switch cfg.Upload.Backend {
	case UploadBackendCloudinary:
		if cfg.Upload.CloudinaryCloudName == "" {
			return nil, fmt.Errorf("%s_CLOUDINARY_CLOUD_NAME must be set for the cloudinary upload backend", envPrefix)
		}
	case UploadBackendR2:
		// поля R2 проверяет сам storage.NewCloudflareR2Uploader
	default:
		return nil, fmt.Errorf("unknown %s_UPLOAD_BACKEND %q", envPrefix, cfg.Upload.Backend)
	}

	if cfg.Session.JWTSecret != "" && cfg.Session.Token == "" && cfg.Session.UserID == "" {
		return nil, fmt.Errorf("%s_SESSION_USER_ID is required when %s_SESSION_JWT_SECRET is set", envPrefix, envPrefix)
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
