package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig   `json:"server" yaml:"server"`
	Redis    RedisConfig    `json:"redis" yaml:"redis"`
	DIAN     DIANConfig     `json:"dian" yaml:"dian"`
	Browser  BrowserConfig  `json:"browser" yaml:"browser"`
	Log      LogConfig      `json:"log" yaml:"log"`
	Security SecurityConfig `json:"security" yaml:"security"`
	NATS     NATSConfig     `json:"nats" yaml:"nats"`
	Cache    CacheConfig    `json:"cache" yaml:"cache"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port         int    `json:"port" yaml:"port"`
	Environment  string `json:"environment" yaml:"environment"`
	ReadTimeout  int    `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout int    `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout" yaml:"idle_timeout"`
	MaxBatchSize int    `json:"max_batch_size" yaml:"max_batch_size"`
}

// RedisConfig holds Redis configuration. An empty Host disables Redis.
type RedisConfig struct {
	Host         string        `json:"host" yaml:"host"`
	Port         int           `json:"port" yaml:"port"`
	Password     string        `json:"password" yaml:"password"`
	DB           int           `json:"db" yaml:"db"`
	PoolSize     int           `json:"pool_size" yaml:"pool_size"`
	DialTimeout  time.Duration `json:"dial_timeout" yaml:"dial_timeout"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`
}

// DIANConfig holds the portal location, its selectors and the search timeouts
type DIANConfig struct {
	SearchURL      string          `json:"search_url" yaml:"search_url"`
	Mode           string          `json:"mode" yaml:"mode"`
	MinTokenLength int             `json:"min_token_length" yaml:"min_token_length"`
	Nudge          bool            `json:"nudge" yaml:"nudge"`
	Selectors      SelectorsConfig `json:"selectors" yaml:"selectors"`
	Timeouts       TimeoutConfig   `json:"timeouts" yaml:"timeouts"`
}

// SelectorsConfig holds the CSS selectors of the search page
type SelectorsConfig struct {
	DocumentKey  string `json:"document_key" yaml:"document_key"`
	SubmitButton string `json:"submit_button" yaml:"submit_button"`
	TokenField   string `json:"token_field" yaml:"token_field"`
	Widget       string `json:"widget" yaml:"widget"`
}

// BrowserConfig holds browser automation configuration
type BrowserConfig struct {
	Driver         string `json:"driver" yaml:"driver"`
	Headless       bool   `json:"headless" yaml:"headless"`
	ExecPath       string `json:"exec_path" yaml:"exec_path"`
	UserAgent      string `json:"user_agent" yaml:"user_agent"`
	ViewportWidth  int    `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight int    `json:"viewport_height" yaml:"viewport_height"`
	MaxSessions    int    `json:"max_sessions" yaml:"max_sessions"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`
	CORS      CORSConfig      `json:"cors" yaml:"cors"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" yaml:"requests_per_minute"`
	BurstSize         int           `json:"burst_size" yaml:"burst_size"`
	CleanupInterval   time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers" yaml:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials" yaml:"allow_credentials"`
}

// NATSConfig holds the request/reply responder configuration. An empty URL disables it.
type NATSConfig struct {
	URL     string `json:"url" yaml:"url"`
	Subject string `json:"subject" yaml:"subject"`
	Queue   string `json:"queue" yaml:"queue"`
}

// CacheConfig holds outcome cache configuration. A zero TTL disables caching.
type CacheConfig struct {
	TTL       time.Duration `json:"ttl" yaml:"ttl"`
	KeyPrefix string        `json:"key_prefix" yaml:"key_prefix"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			Environment:  "development",
			ReadTimeout:  30,
			WriteTimeout: 150,
			IdleTimeout:  60,
			MaxBatchSize: 10,
		},
		Redis: RedisConfig{
			Port:         6379,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		DIAN: DIANConfig{
			SearchURL:      "https://catalogo-vpfe.dian.gov.co/User/SearchDocument",
			Mode:           "headless",
			MinTokenLength: 50,
			Nudge:          true,
			Selectors: SelectorsConfig{
				DocumentKey:  "#DocumentKey",
				SubmitButton: "button.search-document",
				TokenField:   `input[name="cf-turnstile-response"]`,
				Widget:       ".cf-turnstile",
			},
			Timeouts: *DefaultTimeoutConfig(),
		},
		Browser: BrowserConfig{
			Driver:         "chromedp",
			Headless:       true,
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			MaxSessions:    3,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 30,
				BurstSize:         5,
				CleanupInterval:   60 * time.Second,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: false,
			},
		},
		NATS: NATSConfig{
			Subject: "dian.search",
			Queue:   "dian-api",
		},
		Cache: CacheConfig{
			KeyPrefix: "dian:outcome:",
		},
	}
}

// Load builds the configuration from the defaults, the optional YAML file named
// by CONFIG_FILE and finally the environment
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("PORT", c.Server.Port)
	c.Server.Environment = getEnv("ENVIRONMENT", c.Server.Environment)
	c.Server.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.IdleTimeout = getEnvAsInt("IDLE_TIMEOUT", c.Server.IdleTimeout)
	c.Server.MaxBatchSize = getEnvAsInt("MAX_BATCH_SIZE", c.Server.MaxBatchSize)

	c.Redis.Host = getEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = getEnvAsInt("REDIS_PORT", c.Redis.Port)
	c.Redis.Password = getEnv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvAsInt("REDIS_DB", c.Redis.DB)
	c.Redis.PoolSize = getEnvAsInt("REDIS_POOL_SIZE", c.Redis.PoolSize)
	c.Redis.DialTimeout = getEnvAsDuration("REDIS_DIAL_TIMEOUT", c.Redis.DialTimeout)
	c.Redis.ReadTimeout = getEnvAsDuration("REDIS_READ_TIMEOUT", c.Redis.ReadTimeout)
	c.Redis.WriteTimeout = getEnvAsDuration("REDIS_WRITE_TIMEOUT", c.Redis.WriteTimeout)

	c.DIAN.SearchURL = getEnv("DIAN_SEARCH_URL", c.DIAN.SearchURL)
	c.DIAN.Mode = getEnv("DIAN_MODE", c.DIAN.Mode)
	c.DIAN.MinTokenLength = getEnvAsInt("DIAN_MIN_TOKEN_LENGTH", c.DIAN.MinTokenLength)
	c.DIAN.Nudge = getEnvAsBool("DIAN_NUDGE", c.DIAN.Nudge)
	c.DIAN.Timeouts.applyEnv()

	c.Browser.Driver = getEnv("BROWSER_DRIVER", c.Browser.Driver)
	c.Browser.Headless = getEnvAsBool("BROWSER_HEADLESS", c.Browser.Headless)
	c.Browser.ExecPath = getEnv("BROWSER_EXEC_PATH", c.Browser.ExecPath)
	c.Browser.UserAgent = getEnv("BROWSER_USER_AGENT", c.Browser.UserAgent)
	c.Browser.ViewportWidth = getEnvAsInt("BROWSER_VIEWPORT_WIDTH", c.Browser.ViewportWidth)
	c.Browser.ViewportHeight = getEnvAsInt("BROWSER_VIEWPORT_HEIGHT", c.Browser.ViewportHeight)
	c.Browser.MaxSessions = getEnvAsInt("BROWSER_MAX_SESSIONS", c.Browser.MaxSessions)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Security.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", c.Security.RateLimit.RequestsPerMinute)
	c.Security.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", c.Security.RateLimit.BurstSize)
	c.Security.RateLimit.CleanupInterval = getEnvAsDuration("RATE_LIMIT_CLEANUP", c.Security.RateLimit.CleanupInterval)
	c.Security.CORS.AllowedOrigins = getEnvAsSlice("CORS_ALLOWED_ORIGINS", c.Security.CORS.AllowedOrigins)

	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.Subject = getEnv("NATS_SUBJECT", c.NATS.Subject)
	c.NATS.Queue = getEnv("NATS_QUEUE", c.NATS.Queue)

	c.Cache.TTL = getEnvAsDuration("CACHE_TTL", c.Cache.TTL)
	c.Cache.KeyPrefix = getEnv("CACHE_KEY_PREFIX", c.Cache.KeyPrefix)
}

// Validate checks the values that have no sensible fallback
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Server.Port)
	}
	if c.Browser.MaxSessions < 1 {
		return fmt.Errorf("BROWSER_MAX_SESSIONS must be at least 1, got %d", c.Browser.MaxSessions)
	}
	switch strings.ToLower(c.Browser.Driver) {
	case "chromedp", "chrome", "playwright":
	default:
		return fmt.Errorf("unknown BROWSER_DRIVER %q", c.Browser.Driver)
	}
	switch strings.ToLower(c.DIAN.Mode) {
	case "headless", "visible":
	default:
		return fmt.Errorf("unknown DIAN_MODE %q", c.DIAN.Mode)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("CACHE_TTL must not be negative")
	}
	return nil
}

// RedisAddr returns host:port, or "" when Redis is not configured
func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("25s") or a plain number of seconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
