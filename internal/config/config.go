package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Server   ServerConfig
	Relay    RelayConfig
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string //nolint:gosec // G117: DB connection config
	DBName   string
	SSLMode  string
	MaxConns int
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// StorageConfig holds object storage settings for finished recordings.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string //nolint:gosec // G117: storage credential config
	Bucket    string
	UseSSL    bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// RelayConfig holds the capture-and-relay engine settings.
type RelayConfig struct {
	// WorkDir is where named pipes and in-progress transcripts live.
	WorkDir string
	// FlushBytes is the batch size threshold; a read that crosses it
	// flushes immediately.
	FlushBytes int
	// FlushInterval is the time threshold; a timer armed on the first
	// byte after a flush fires after this interval.
	FlushInterval time.Duration
	// CaptureLines is how many scrollback lines a snapshot captures.
	CaptureLines int
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// sensitive values (DB password, storage credentials) must be set explicitly.
func Load() (*Config, error) {
	dbPort, err := getEnvInt("PANECAST_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	dbMaxConns, err := getEnvInt("PANECAST_DB_MAX_CONNS", 25)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("PANECAST_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	storageSSL, err := getEnvBool("PANECAST_STORAGE_SSL", false)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("PANECAST_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("PANECAST_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	flushBytes, err := getEnvInt("PANECAST_FLUSH_BYTES", 4096)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	flushInterval, err := getEnvDuration("PANECAST_FLUSH_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	captureLines, err := getEnvInt("PANECAST_CAPTURE_LINES", 2000)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("PANECAST_CORS_ORIGINS", []string{"http://localhost:5173"})

	cfg := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("PANECAST_DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("PANECAST_DB_USER", "panecast"),
			Password: getEnv("PANECAST_DB_PASSWORD", ""),
			DBName:   getEnv("PANECAST_DB_NAME", "panecast_dev"),
			SSLMode:  getEnv("PANECAST_DB_SSLMODE", "disable"),
			MaxConns: dbMaxConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("PANECAST_REDIS_ADDR", "localhost:6379"),
			Password: getEnv("PANECAST_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("PANECAST_STORAGE_ENDPOINT", "localhost:9000"),
			AccessKey: getEnv("PANECAST_STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("PANECAST_STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("PANECAST_STORAGE_BUCKET", "panecast-recordings"),
			UseSSL:    storageSSL,
		},
		Server: ServerConfig{
			Addr:         getEnv("PANECAST_SERVER_ADDR", ":8080"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Relay: RelayConfig{
			WorkDir:       getEnv("PANECAST_WORK_DIR", "/tmp/panecast"),
			FlushBytes:    flushBytes,
			FlushInterval: flushInterval,
			CaptureLines:  captureLines,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	if c.Storage.Bucket == "" {
		return errors.New("PANECAST_STORAGE_BUCKET is required")
	}
	if c.Relay.WorkDir == "" {
		return errors.New("PANECAST_WORK_DIR is required")
	}

	if c.Database.SSLMode == "disable" {
		log.Warn().Msg("PANECAST_DB_SSLMODE=disable is insecure for production; set to 'require' or 'verify-full'")
	}

	// Bounds checks.
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("PANECAST_DB_PORT must be 1-65535, got %d", c.Database.Port)
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("PANECAST_DB_MAX_CONNS must be >= 1, got %d", c.Database.MaxConns)
	}
	if c.Relay.FlushBytes < 1 {
		return fmt.Errorf("PANECAST_FLUSH_BYTES must be >= 1, got %d", c.Relay.FlushBytes)
	}
	if c.Relay.FlushInterval <= 0 {
		return fmt.Errorf("PANECAST_FLUSH_INTERVAL must be positive, got %s", c.Relay.FlushInterval)
	}
	if c.Relay.CaptureLines < 1 {
		return fmt.Errorf("PANECAST_CAPTURE_LINES must be >= 1, got %d", c.Relay.CaptureLines)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("PANECAST_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("PANECAST_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}

	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s=%q as bool: %w", key, v, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
