// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	State    StateConfig
	Feed     FeedConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Report   ReportConfig
	LogLevel string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int
}

type DatabaseConfig struct {
	Driver   string
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

// StateConfig selects where the last ingested report is persisted.
type StateConfig struct {
	Backend string
	Key     string
}

type FeedConfig struct {
	URL            string
	TimeoutSeconds int
	RefreshOnLoad  bool
}

// StorageConfig points at an S3-compatible bucket holding source files.
type StorageConfig struct {
	Enabled        bool
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	Region         string
	UseSSL         bool
	Prefix         string
	ArchiveUploads bool
}

type DriveConfig struct {
	CredentialsJSON string
}

type ReportConfig struct {
	RetailBranchPrefixes    []string
	StockiestBranchPrefixes []string
	TopN                    int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		v := viper.New()
		setDefaults(v)
		v.AutomaticEnv()

		instance = newConfig(v)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("DB_DRIVER", "pgx")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "salesreport")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("STATE_BACKEND", "memory")
	v.SetDefault("STATE_KEY", "salesData")

	v.SetDefault("FEED_URL", "")
	v.SetDefault("FEED_TIMEOUT_SECONDS", 30)
	v.SetDefault("FEED_REFRESH_ON_LOAD", true)

	v.SetDefault("STORAGE_ENABLED", false)
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "sales-reports")
	v.SetDefault("STORAGE_REGION", "us-east-1")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "uploads/")
	v.SetDefault("STORAGE_ARCHIVE_UPLOADS", false)

	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")

	v.SetDefault("REPORT_RETAIL_BRANCH_PREFIXES", "PNH01,KCM01")
	v.SetDefault("REPORT_STOCKIEST_BRANCH_PREFIXES", "KS")
	v.SetDefault("REPORT_TOP_N", 10)
}

func newConfig(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt("SERVER_MAX_UPLOAD_MB"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("DB_DRIVER"),
			URL:      v.GetString("DATABASE_URL"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Cache: CacheConfig{
			RedisURL:      v.GetString("REDIS_URL"),
			RedisHost:     v.GetString("REDIS_HOST"),
			RedisPort:     v.GetString("REDIS_PORT"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		State: StateConfig{
			Backend: strings.ToLower(v.GetString("STATE_BACKEND")),
			Key:     v.GetString("STATE_KEY"),
		},
		Feed: FeedConfig{
			URL:            v.GetString("FEED_URL"),
			TimeoutSeconds: v.GetInt("FEED_TIMEOUT_SECONDS"),
			RefreshOnLoad:  v.GetBool("FEED_REFRESH_ON_LOAD"),
		},
		Storage: StorageConfig{
			Enabled:        v.GetBool("STORAGE_ENABLED"),
			Endpoint:       v.GetString("STORAGE_ENDPOINT"),
			AccessKey:      v.GetString("STORAGE_ACCESS_KEY"),
			SecretKey:      v.GetString("STORAGE_SECRET_KEY"),
			Bucket:         v.GetString("STORAGE_BUCKET"),
			Region:         v.GetString("STORAGE_REGION"),
			UseSSL:         v.GetBool("STORAGE_USE_SSL"),
			Prefix:         v.GetString("STORAGE_PREFIX"),
			ArchiveUploads: v.GetBool("STORAGE_ARCHIVE_UPLOADS"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
		},
		Report: ReportConfig{
			RetailBranchPrefixes:    splitList(v.GetString("REPORT_RETAIL_BRANCH_PREFIXES")),
			StockiestBranchPrefixes: splitList(v.GetString("REPORT_STOCKIEST_BRANCH_PREFIXES")),
			TopN:                    v.GetInt("REPORT_TOP_N"),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
}

// DSN builds a postgres connection string, preferring DATABASE_URL.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
