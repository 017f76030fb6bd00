package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Server configurations
	Server ServerConfig

	// Database configurations
	Database DatabaseConfig

	// Redis configurations (task queue backend)
	RedisURL      string
	RedisUsername string
	RedisPassword string

	// Object store configurations
	ObjectStore ObjectStoreConfig

	// Upstream (ServiceTitan) configurations
	Upstream UpstreamConfig

	// Worker configurations
	Worker WorkerConfig

	// Application configurations
	AppEnv   string
	LogLevel string
}

// ServerConfig holds server-related configurations
type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DatabaseConfig holds Postgres connection configurations
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// ObjectStoreConfig holds S3 bucket and signing configurations
type ObjectStoreConfig struct {
	Bucket       string
	Region       string
	SignedURLTTL int // hours
}

// UpstreamConfig holds credentials for the ServiceTitan forms API
type UpstreamConfig struct {
	BaseURL      string
	AuthURL      string
	AppKey       string
	ClientID     string
	ClientSecret string
	TenantIDs    map[string]string // tenant name -> upstream tenant id
	PageSize     int
	Timeout      int // seconds
}

// WorkerConfig holds processing pipeline configurations
type WorkerConfig struct {
	MaxWorkers       int     // fan-out pool cap per job
	FailureThreshold float64 // fraction of failed attachments that marks the job errored
	QueueKey         string  // Redis list the enqueuer pushes to
	TargetURL        string  // ingress URL the dispatcher delivers to
	Timezone         string  // location for status timestamps
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	viper.SetDefault("SERVER_IDLE_TIMEOUT", 60)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "attachments")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("OBJECT_STORE_BUCKET", "prestigious-doc-check-attachments")
	viper.SetDefault("OBJECT_STORE_REGION", "ap-southeast-2")
	viper.SetDefault("SIGNED_URL_TTL_HOURS", 168)
	viper.SetDefault("ST_BASE_URL", "https://api.servicetitan.io")
	viper.SetDefault("ST_AUTH_URL", "https://auth.servicetitan.io/connect/token")
	viper.SetDefault("ST_PAGE_SIZE", 50)
	viper.SetDefault("ST_TIMEOUT", 30)
	viper.SetDefault("WORKER_MAX_WORKERS", 8)
	viper.SetDefault("WORKER_FAILURE_THRESHOLD", 1.0)
	viper.SetDefault("TASK_QUEUE_KEY", "attachment_tasks")
	viper.SetDefault("TASK_TARGET_URL", "http://localhost:8080/tasks/process-job")
	viper.SetDefault("STATUS_TIMEZONE", "Australia/Sydney")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("APP_ENV", "development")

	return &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			ReadTimeout:  viper.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetInt("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetInt("SERVER_IDLE_TIMEOUT"),
		},

		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},

		RedisURL:      viper.GetString("REDIS_URL"),
		RedisUsername: viper.GetString("REDIS_USERNAME"),
		RedisPassword: viper.GetString("REDIS_PASSWORD"),

		ObjectStore: ObjectStoreConfig{
			Bucket:       viper.GetString("OBJECT_STORE_BUCKET"),
			Region:       viper.GetString("OBJECT_STORE_REGION"),
			SignedURLTTL: viper.GetInt("SIGNED_URL_TTL_HOURS"),
		},

		Upstream: UpstreamConfig{
			BaseURL:      viper.GetString("ST_BASE_URL"),
			AuthURL:      viper.GetString("ST_AUTH_URL"),
			AppKey:       viper.GetString("ST_APP_KEY"),
			ClientID:     viper.GetString("ST_CLIENT_ID"),
			ClientSecret: viper.GetString("ST_CLIENT_SECRET"),
			TenantIDs:    viper.GetStringMapString("ST_TENANT_IDS"),
			PageSize:     viper.GetInt("ST_PAGE_SIZE"),
			Timeout:      viper.GetInt("ST_TIMEOUT"),
		},

		Worker: WorkerConfig{
			MaxWorkers:       viper.GetInt("WORKER_MAX_WORKERS"),
			FailureThreshold: viper.GetFloat64("WORKER_FAILURE_THRESHOLD"),
			QueueKey:         viper.GetString("TASK_QUEUE_KEY"),
			TargetURL:        viper.GetString("TASK_TARGET_URL"),
			Timezone:         viper.GetString("STATUS_TIMEZONE"),
		},

		AppEnv:   viper.GetString("APP_ENV"),
		LogLevel: viper.GetString("LOG_LEVEL"),
	}
}
