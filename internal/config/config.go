package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	Google   GoogleConfig   `json:"google"`
	Archive  ArchiveConfig  `json:"archive"`
	Worker   WorkerConfig   `json:"worker"`
}

type ServerConfig struct {
	Port         string   `json:"port"`
	Environment  string   `json:"environment"`
	BaseURL      string   `json:"base_url"`
	AllowOrigins []string `json:"allow_origins"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     string `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type GoogleConfig struct {
	CredentialsPath string `json:"credentials_path"`
	// ClientRootFolderID is the Drive folder holding one subfolder per
	// client, named "{year}-{full name}".
	ClientRootFolderID string `json:"client_root_folder_id"`
}

type ArchiveConfig struct {
	// BucketName enables PDF archive copies of generated documents when set.
	BucketName string `json:"bucket_name"`
	ProjectID  string `json:"project_id"`
}

type WorkerConfig struct {
	// Concurrency is the asynq worker pool size.
	Concurrency int `json:"concurrency"`
	// GenerateConcurrency bounds parallel document generations inside one job.
	GenerateConcurrency int `json:"generate_concurrency"`
	// GenerateTimeout is the per-document generation deadline.
	GenerateTimeout time.Duration `json:"generate_timeout"`
	// MaxRetries caps rate-limit retries before a job turns FAILURE.
	MaxRetries int `json:"max_retries"`
	// RetryBase is the base of the exponential backoff between retries.
	RetryBase time.Duration `json:"retry_base"`
}

func (d *DatabaseConfig) DSN() string {
	// Cloud SQL Unix socket support
	if len(d.Host) > 0 && d.Host[0] == '/' {
		return fmt.Sprintf("%s:%s@unix(%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.DBName)
	}
	// Standard TCP connection
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User, d.Password, d.Host, d.Port, d.DBName)
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Failed to load .env file: %v, using system environment variables\n", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			BaseURL:      getEnv("BASE_URL", ""),
			AllowOrigins: parseAllowOrigins(),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "3306"),
			User:     getEnv("DB_USER", "root"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "petidocs"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt("REDIS_DB", 0),
		},
		Google: GoogleConfig{
			CredentialsPath:    getEnv("GOOGLE_CREDENTIALS_PATH", ""),
			ClientRootFolderID: getEnv("CLIENT_ROOT_FOLDER_ID", ""),
		},
		Archive: ArchiveConfig{
			BucketName: getEnv("ARCHIVE_BUCKET_NAME", ""),
			ProjectID:  getEnv("GOOGLE_CLOUD_PROJECT", ""),
		},
		Worker: WorkerConfig{
			Concurrency:         parseInt("WORKER_CONCURRENCY", 10),
			GenerateConcurrency: parseInt("GENERATE_CONCURRENCY", 5),
			GenerateTimeout:     parseDuration("GENERATE_TIMEOUT", 60*time.Second),
			MaxRetries:          parseInt("GENERATE_MAX_RETRIES", 5),
			RetryBase:           parseDuration("GENERATE_RETRY_BASE", 2*time.Second),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseAllowOrigins() []string {
	if origins := os.Getenv("ALLOW_ORIGINS"); origins != "" {
		var allowOrigins []string
		for _, origin := range strings.Split(origins, ",") {
			if trimmed := strings.TrimSpace(origin); trimmed != "" {
				allowOrigins = append(allowOrigins, trimmed)
			}
		}
		return allowOrigins
	}

	// Default origins if none specified
	return []string{
		"http://localhost:3000",
		"http://localhost:3001",
	}
}
