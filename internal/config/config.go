package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Redis     RedisConfig     `json:"redis"`
	LLM       LLMConfig       `json:"llm"`
	Log       LogConfig       `json:"log"`
	RateLimit RateLimitConfig `json:"rate_limit"`
}

type ServerConfig struct {
	Host               string        `json:"host"`
	Port               string        `json:"port"`
	ReadTimeout        time.Duration `json:"read_timeout"`
	WriteTimeout       time.Duration `json:"write_timeout"`
	IdleTimeout        time.Duration `json:"idle_timeout"`
	ShutdownTimeout    time.Duration `json:"shutdown_timeout"`
	Environment        string        `json:"environment"`
	CORSAllowedOrigins []string      `json:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Driver          string        `json:"driver"`
	Host            string        `json:"host"`
	Port            string        `json:"port"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	Name            string        `json:"name"`
	SSLMode         string        `json:"ssl_mode"`
	SQLitePath      string        `json:"sqlite_path"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	LogLevel        string        `json:"log_level"`
}

type RedisConfig struct {
	Enabled      bool          `json:"enabled"`
	Host         string        `json:"host"`
	Port         string        `json:"port"`
	Password     string        `json:"password"`
	DB           int           `json:"db"`
	PoolSize     int           `json:"pool_size"`
	MinIdleConns int           `json:"min_idle_conns"`
	MaxRetries   int           `json:"max_retries"`
	DialTimeout  time.Duration `json:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type LLMConfig struct {
	BaseURL             string        `json:"base_url"`
	APIKey              string        `json:"-"`
	TextModel           string        `json:"text_model"`
	ImageModel          string        `json:"image_model"`
	ImageSize           string        `json:"image_size"`
	ImageResponseFormat string        `json:"image_response_format"`
	Temperature         float64       `json:"temperature"`
	Timeout             time.Duration `json:"timeout"`
	PlaceholderImageURL string        `json:"placeholder_image_url"`
	BreakerMaxFailures  int           `json:"breaker_max_failures"`
	BreakerTimeout      time.Duration `json:"breaker_timeout"`
}

type LogConfig struct {
	Level      string `json:"level"`
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
}

type RateLimitConfig struct {
	Enabled         bool          `json:"enabled"`
	RequestsPerMin  int           `json:"requests_per_minute"`
	BurstSize       int           `json:"burst_size"`
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

const DefaultPlaceholderImageURL = "https://placehold.co/600x400.png"

// env reads process environment first and falls back to an optional .env file
// in the working directory.
var env = newEnv()

func newEnv() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	return v
}

// LoadConfig builds the configuration from the environment, honouring a .env file when present.
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(".")
}

func LoadConfigFrom(path string) (*Config, error) {
	env = newEnv()
	env.AddConfigPath(path)
	env.SetConfigName(".env")
	env.SetConfigType("env")
	if err := env.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host:               getEnv("HOST", "localhost"),
			Port:               getEnv("PORT", "8080"),
			ReadTimeout:        getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			WriteTimeout:       getEnvAsDuration("WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:        getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
			Environment:        getEnv("ENVIRONMENT", "development"),
			CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getEnv("DB_DRIVER", "postgres")),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "project_planner"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:      getEnv("DB_SQLITE_PATH", "planner.db"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			MaxRetries:   getEnvAsInt("REDIS_MAX_RETRIES", 3),
			DialTimeout:  getEnvAsDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getEnvAsDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getEnvAsDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:             getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:              getEnv("LLM_API_KEY", ""),
			TextModel:           getEnv("LLM_TEXT_MODEL", "gpt-4o-mini"),
			ImageModel:          getEnv("LLM_IMAGE_MODEL", "dall-e-3"),
			ImageSize:           getEnv("LLM_IMAGE_SIZE", "1024x1024"),
			ImageResponseFormat: getEnv("LLM_IMAGE_RESPONSE_FORMAT", "url"),
			Temperature:         getEnvAsFloat("LLM_TEMPERATURE", 0.4),
			Timeout:             getEnvAsDuration("LLM_TIMEOUT", 90*time.Second),
			PlaceholderImageURL: getEnv("PLACEHOLDER_IMAGE_URL", DefaultPlaceholderImageURL),
			BreakerMaxFailures:  getEnvAsInt("LLM_BREAKER_MAX_FAILURES", 5),
			BreakerTimeout:      getEnvAsDuration("LLM_BREAKER_TIMEOUT", time.Minute),
		},
		Log: LogConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			File:       getEnv("LOG_FILE", ""),
			MaxSizeMB:  getEnvAsInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 30),
			MaxAgeDays: getEnvAsInt("LOG_MAX_AGE_DAYS", 90),
		},
		RateLimit: RateLimitConfig{
			Enabled:         getEnvAsBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMin:  getEnvAsInt("RATE_LIMIT_RPM", 20),
			BurstSize:       getEnvAsInt("RATE_LIMIT_BURST", 5),
			CleanupInterval: getEnvAsDuration("RATE_LIMIT_CLEANUP", 10*time.Minute),
		},
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", config.Database.Driver)
	}

	if config.Database.Password == "" && config.Database.Driver == "postgres" && config.IsProduction() {
		return nil, fmt.Errorf("database password is required in production")
	}

	if config.LLM.APIKey == "" && config.IsProduction() {
		return nil, fmt.Errorf("LLM API key must be set in production")
	}

	return config, nil
}

func (c *Config) GetDatabaseDSN() string {
	if c.Database.Driver == "sqlite" {
		return c.Database.SQLitePath
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := env.GetString(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := env.GetString(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := env.GetString(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := env.GetString(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := env.GetString(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := env.GetString(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
