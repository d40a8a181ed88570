// Package config provides centralized configuration management for the lookup service.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server    ServerConfig
	Sheet     SheetConfig
	Lookup    LookupConfig
	SearchLog SearchLogConfig
	Rate      RateLimitConfig
	Security  SecurityConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 30s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"30s"`
}

// SheetConfig describes where the published spreadsheet export lives.
type SheetConfig struct {
	// URL is the published CSV export URL (required)
	URL string `env:"SHEET_URL" envAlt:"SHEET_CSV_URL" required:"true"`

	// URLBase64 marks URL as base64-encoded (default: false)
	URLBase64 bool `env:"SHEET_URL_BASE64" default:"false"`

	// FetchTimeout bounds a single export download (default: 10s)
	FetchTimeout time.Duration `env:"SHEET_FETCH_TIMEOUT" default:"10s"`

	// MaxBytes caps the export body size (default: 10MB)
	MaxBytes int64 `env:"SHEET_MAX_BYTES" default:"10485760"`
}

// LookupConfig holds header matching and display settings.
type LookupConfig struct {
	// KeyHeaders are substrings that identify the key column (default: its_id,itsid)
	KeyHeaders []string `env:"LOOKUP_KEY_HEADERS" default:"its_id,itsid"`

	// RemarkHeaders are substrings that identify the status column (default: remarks)
	RemarkHeaders []string `env:"LOOKUP_REMARK_HEADERS" default:"remarks"`

	// NameHeaders are substrings that identify the name column (default: name)
	NameHeaders []string `env:"LOOKUP_NAME_HEADERS" default:"name"`

	// DisplayResetSeconds is how long a result stays on screen (default: 10)
	DisplayResetSeconds int `env:"DISPLAY_RESET_SECONDS" default:"10"`
}

// SearchLogConfig holds remote search logging and local fallback settings.
type SearchLogConfig struct {
	// Endpoint receives one POST per search; empty disables remote delivery
	Endpoint string `env:"SEARCHLOG_ENDPOINT"`

	// Timeout bounds each delivery attempt (default: 5s)
	Timeout time.Duration `env:"SEARCHLOG_TIMEOUT" default:"5s"`

	// DatabaseURL selects the PostgreSQL fallback store; empty keeps entries in memory
	DatabaseURL string `env:"SEARCHLOG_DATABASE_URL" envAlt:"DATABASE_URL"`

	// MemoryLimit is the number of entries the in-memory store keeps (default: 100)
	MemoryLimit int `env:"SEARCHLOG_MEMORY_LIMIT" default:"100"`

	// FlushInterval is how often pending entries are re-sent (default: 5m)
	FlushInterval time.Duration `env:"SEARCHLOG_FLUSH_INTERVAL" default:"5m"`

	// FlushBatch is the number of pending entries re-sent per run (default: 50)
	FlushBatch int `env:"SEARCHLOG_FLUSH_BATCH" default:"50"`

	// RetentionDays is how long stored entries are kept (default: 30)
	RetentionDays int `env:"SEARCHLOG_RETENTION_DAYS" default:"30"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the rate limit per IP (default: 60)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"60"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey guards the search history endpoint (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted X-API-Key values
	APIKeys []string `env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// DisplayReset returns the result display duration.
func (c *LookupConfig) DisplayReset() time.Duration {
	return time.Duration(c.DisplayResetSeconds) * time.Second
}

// Retention returns the search log retention window.
func (c *SearchLogConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}
