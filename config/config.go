package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverS3     = "s3"
	StorageDriverMinio  = "minio"
	StorageDriverMemory = "memory"
)

// MaxUploadAttempts bounds UPLOAD_MAX_ATTEMPTS; with exponential backoff
// anything above it waits far longer than any request deadline.
const MaxUploadAttempts = 10

type Config struct {
	AppPort       string
	AppMode       string
	LogMode       string
	SessionSecret string
	CORSOrigins   []string

	Database DatabaseConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Upload   UploadConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type StorageConfig struct {
	Driver     string
	Region     string
	Bucket     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	PublicBase string
	UseSSL     bool
	ACL        string
}

// RedisConfig is optional. An empty Host disables upload rate limiting.
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	UploadLimit  int
	UploadWindow time.Duration
}

type UploadConfig struct {
	MaxBytes               int64
	CompressionThreshold   int
	MinSavingsRatio        float64
	MaxAttempts            int
	BackoffUnit            time.Duration
	AttemptTimeout         time.Duration
	Timeout                time.Duration
	DeclareContentEncoding bool
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		AppPort:       getEnv("APP_PORT", "8080"),
		AppMode:       getEnv("APP_MODE", "debug"),
		LogMode:       getEnv("LOG_MODE", "development"),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		CORSOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Name:     getEnv("DB_NAME", "resume_intake"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverS3)),
			Region:     getEnv("STORAGE_REGION", "us-east-1"),
			Bucket:     getEnv("STORAGE_BUCKET", "resumes"),
			AccessKey:  getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey:  getEnv("STORAGE_SECRET_KEY", ""),
			Endpoint:   getEnv("STORAGE_ENDPOINT", ""),
			PublicBase: strings.TrimRight(getEnv("STORAGE_PUBLIC_BASE", ""), "/"),
			UseSSL:     getEnvAsBool("STORAGE_USE_SSL", true),
			ACL:        getEnv("STORAGE_ACL", ""),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", ""),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			UploadLimit:  getEnvAsInt("UPLOAD_RATE_LIMIT", 10),
			UploadWindow: getEnvAsDuration("UPLOAD_RATE_WINDOW", time.Minute),
		},
		Upload: UploadConfig{
			MaxBytes:               int64(getEnvAsInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
			CompressionThreshold:   getEnvAsInt("UPLOAD_COMPRESSION_THRESHOLD", 1024*1024),
			MinSavingsRatio:        getEnvAsFloat("UPLOAD_MIN_SAVINGS_RATIO", 0.9),
			MaxAttempts:            getEnvAsInt("UPLOAD_MAX_ATTEMPTS", 3),
			BackoffUnit:            getEnvAsDuration("UPLOAD_BACKOFF_UNIT", time.Second),
			AttemptTimeout:         getEnvAsDuration("UPLOAD_ATTEMPT_TIMEOUT", 15*time.Second),
			Timeout:                getEnvAsDuration("UPLOAD_TIMEOUT", 60*time.Second),
			DeclareContentEncoding: getEnvAsBool("UPLOAD_DECLARE_CONTENT_ENCODING", false),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the process cannot serve with. Store
// credentials are checked here so a misconfigured deployment dies at startup
// instead of on the first upload.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Driver {
	case StorageDriverS3, StorageDriverMinio:
		if c.Storage.Bucket == "" {
			errs = append(errs, errors.New("STORAGE_BUCKET must be set"))
		}
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			errs = append(errs, errors.New("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY must be set"))
		}
		if c.Storage.Driver == StorageDriverMinio && c.Storage.Endpoint == "" {
			errs = append(errs, errors.New("STORAGE_ENDPOINT must be set for the minio driver"))
		}
	case StorageDriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver))
	}

	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("DB_HOST and DB_NAME must be set"))
	}
	if c.Upload.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.Upload.MaxAttempts < 1 || c.Upload.MaxAttempts > MaxUploadAttempts {
		errs = append(errs, fmt.Errorf("UPLOAD_MAX_ATTEMPTS must be between 1 and %d", MaxUploadAttempts))
	}
	if c.Upload.MinSavingsRatio <= 0 || c.Upload.MinSavingsRatio > 1 {
		errs = append(errs, errors.New("UPLOAD_MIN_SAVINGS_RATIO must be in (0, 1]"))
	}

	return errors.Join(errs...)
}

// DSN builds the postgres connection string for gorm.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
