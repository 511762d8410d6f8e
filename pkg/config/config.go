package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis       RedisConfig
	Log         LogConfig
	CORS        CORSConfig
	TenantStore TenantStoreConfig
	Auth        AuthConfig
	Helpdesk    HelpdeskConfig
	Forward     ForwardConfig
	Audit       AuditConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type LogConfig struct {
	Level  string
	Format string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// TenantStoreConfig selects and parameterizes the tenant configuration backend.
type TenantStoreConfig struct {
	Driver    string // "file" or "redis"
	Dir       string // file driver: directory of per-brand YAML files
	KeyPrefix string // redis driver: key namespace
}

// AuthConfig tunes the inbound authentication protocol.
type AuthConfig struct {
	ReplayWindow time.Duration
}

// HelpdeskConfig bounds outbound helpdesk API calls.
type HelpdeskConfig struct {
	RequestTimeout     time.Duration
	AttachmentDomains  []string
	MaxAttachments     int
	MaxAttachmentBytes int64
}

// ForwardConfig bounds the forwarding pipeline itself.
type ForwardConfig struct {
	MaxBodyBytes    int64
	UploadTimeout   time.Duration
	ArchiveTokenTTL time.Duration
}

// AuditConfig controls retention and querying of audit records.
type AuditConfig struct {
	KeyPrefix string
	TTL       time.Duration
	QueryMax  int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.TenantStore = TenantStoreConfig{
		Driver:    v.GetString("TENANT_STORE_DRIVER"),
		Dir:       v.GetString("TENANT_STORE_DIR"),
		KeyPrefix: v.GetString("TENANT_STORE_KEY_PREFIX"),
	}

	cfg.Auth = AuthConfig{
		ReplayWindow: parseDuration(v.GetString("AUTH_REPLAY_WINDOW"), 5*time.Minute),
	}

	cfg.Helpdesk = HelpdeskConfig{
		RequestTimeout:     parseDuration(v.GetString("HELPDESK_REQUEST_TIMEOUT"), 15*time.Second),
		AttachmentDomains:  splitAndTrim(v.GetString("HELPDESK_ATTACHMENT_DOMAINS")),
		MaxAttachments:     v.GetInt("HELPDESK_MAX_ATTACHMENTS"),
		MaxAttachmentBytes: v.GetInt64("HELPDESK_MAX_ATTACHMENT_BYTES"),
	}

	cfg.Forward = ForwardConfig{
		MaxBodyBytes:    v.GetInt64("FORWARD_MAX_BODY_BYTES"),
		UploadTimeout:   parseDuration(v.GetString("FORWARD_UPLOAD_TIMEOUT"), 60*time.Second),
		ArchiveTokenTTL: parseDuration(v.GetString("FORWARD_ARCHIVE_TOKEN_TTL"), 30*time.Minute),
	}

	cfg.Audit = AuditConfig{
		KeyPrefix: v.GetString("AUDIT_KEY_PREFIX"),
		TTL:       parseDuration(v.GetString("AUDIT_TTL"), 90*24*time.Hour),
		QueryMax:  v.GetInt("AUDIT_QUERY_MAX"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ALLOWED_ORIGINS", "")

	v.SetDefault("TENANT_STORE_DRIVER", "file")
	v.SetDefault("TENANT_STORE_DIR", "./tenants")
	v.SetDefault("TENANT_STORE_KEY_PREFIX", "tenant:")

	v.SetDefault("AUTH_REPLAY_WINDOW", "5m")

	v.SetDefault("HELPDESK_REQUEST_TIMEOUT", "15s")
	v.SetDefault("HELPDESK_ATTACHMENT_DOMAINS", "zendesk.com,zdusercontent.com")
	v.SetDefault("HELPDESK_MAX_ATTACHMENTS", 10)
	v.SetDefault("HELPDESK_MAX_ATTACHMENT_BYTES", 50*1024*1024)

	v.SetDefault("FORWARD_MAX_BODY_BYTES", 1024*1024)
	v.SetDefault("FORWARD_UPLOAD_TIMEOUT", "60s")
	v.SetDefault("FORWARD_ARCHIVE_TOKEN_TTL", "30m")

	v.SetDefault("AUDIT_KEY_PREFIX", "audit:")
	v.SetDefault("AUDIT_TTL", "2160h")
	v.SetDefault("AUDIT_QUERY_MAX", 100)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
