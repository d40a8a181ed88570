package config

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Load reads configuration from environment variables.
// It applies defaults for unset values, decodes an obfuscated sheet URL and
// validates the result.
func Load() (*Config, error) {
	return load(true)
}

// LoadLocal is Load for runs that read the sheet from a local file.
// SHEET_URL may be unset; when set it is still validated.
func LoadLocal() (*Config, error) {
	return load(false)
}

func load(requireSheet bool) (*Config, error) {
	cfg := &Config{}

	optional := map[string]bool{}
	if !requireSheet {
		optional["SHEET_URL"] = true
	}

	if err := loadStruct(reflect.ValueOf(cfg).Elem(), optional); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}

	if cfg.Sheet.URLBase64 && cfg.Sheet.URL != "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(cfg.Sheet.URL))
		if err != nil {
			return nil, fmt.Errorf("config load: SHEET_URL is not valid base64: %w", err)
		}
		cfg.Sheet.URL = string(decoded)
		cfg.Sheet.URLBase64 = false
	}

	if err := cfg.validate(requireSheet || cfg.Sheet.URL != ""); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// loadStruct recursively populates struct fields from environment variables.
// Variables named in optional skip their required check.
func loadStruct(v reflect.Value, optional map[string]bool) error {
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldVal := v.Field(i)

		if !fieldVal.CanSet() {
			continue
		}

		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			if err := loadStruct(fieldVal, optional); err != nil {
				return err
			}
			continue
		}

		envName := field.Tag.Get("env")
		envAlt := field.Tag.Get("envAlt")
		defaultVal := field.Tag.Get("default")
		required := field.Tag.Get("required") == "true" && !optional[envName]

		if envName == "" {
			continue
		}

		// Try primary env var, then alternate
		value := os.Getenv(envName)
		if value == "" && envAlt != "" {
			value = os.Getenv(envAlt)
		}

		if value == "" {
			if required {
				return fmt.Errorf("required environment variable %s is not set", envName)
			}
			value = defaultVal
		}

		if value == "" {
			continue
		}

		if err := setField(fieldVal, value); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", envName, value, err)
		}
	}

	return nil
}

// setField sets a reflect.Value from a string based on its type.
func setField(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)

	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("invalid duration: %w", err)
			}
			field.Set(reflect.ValueOf(d))
		} else {
			i, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer: %w", err)
			}
			field.SetInt(i)
		}

	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean: %w", err)
		}
		field.SetBool(b)

	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %s", field.Type().Elem().Kind())
		}
		parts := strings.Split(value, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				result = append(result, p)
			}
		}
		field.Set(reflect.ValueOf(result))

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// Validate checks that the configuration is valid.
// Returns an error describing all validation failures.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(checkSheetURL bool) error {
	var errs []string

	// Sheet validation
	if checkSheetURL && !isHTTPURL(c.Sheet.URL) {
		errs = append(errs, "SHEET_URL must be an absolute http(s) URL")
	}
	if c.Sheet.FetchTimeout <= 0 {
		errs = append(errs, "SHEET_FETCH_TIMEOUT must be positive")
	}
	if c.Sheet.MaxBytes <= 0 {
		errs = append(errs, "SHEET_MAX_BYTES must be positive")
	}

	// Lookup validation
	if len(c.Lookup.KeyHeaders) == 0 {
		errs = append(errs, "LOOKUP_KEY_HEADERS must name at least one header")
	}
	if c.Lookup.DisplayResetSeconds < 0 {
		errs = append(errs, "DISPLAY_RESET_SECONDS must be non-negative")
	}

	// Search log validation
	if c.SearchLog.Endpoint != "" {
		if u, err := url.Parse(c.SearchLog.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, "SEARCHLOG_ENDPOINT must be an absolute URL")
		}
	}
	if c.SearchLog.Timeout <= 0 {
		errs = append(errs, "SEARCHLOG_TIMEOUT must be positive")
	}
	if c.SearchLog.MemoryLimit <= 0 {
		errs = append(errs, "SEARCHLOG_MEMORY_LIMIT must be positive")
	}
	if c.SearchLog.FlushInterval <= 0 {
		errs = append(errs, "SEARCHLOG_FLUSH_INTERVAL must be positive")
	}
	if c.SearchLog.FlushBatch <= 0 {
		errs = append(errs, "SEARCHLOG_FLUSH_BATCH must be positive")
	}
	if c.SearchLog.RetentionDays <= 0 {
		errs = append(errs, "SEARCHLOG_RETENTION_DAYS must be positive")
	}

	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT (%d) must be 1-65535", c.Server.Port))
	}
	if c.Server.ReadTimeout < 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be non-negative")
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, "SERVER_REQUEST_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, "SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	// Rate limit validation
	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		errs = append(errs, "RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}

	// Security validation
	if c.Security.RequireAPIKey && len(c.Security.APIKeys) == 0 {
		errs = append(errs, "REQUIRE_API_KEY is true but API_KEYS is empty; configure at least one API key or disable auth")
	}

	// Logging validation
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errs = append(errs, fmt.Sprintf("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// String returns a safe string representation of the config for logging.
// The sheet URL, database URL and API keys are masked.
func (c *Config) String() string {
	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Server: {Host: %q, Port: %d}, ", c.Server.Host, c.Server.Port))
	b.WriteString(fmt.Sprintf("Sheet: {URL: [MASKED], FetchTimeout: %s}, ", c.Sheet.FetchTimeout))
	b.WriteString(fmt.Sprintf("SearchLog: {Endpoint: %t, Database: %t, FlushInterval: %s}, ",
		c.SearchLog.Endpoint != "", c.SearchLog.DatabaseURL != "", c.SearchLog.FlushInterval))
	b.WriteString(fmt.Sprintf("Rate: {Enabled: %v, RequestsPerMinute: %d}, ",
		c.Rate.Enabled, c.Rate.RequestsPerMinute))
	b.WriteString(fmt.Sprintf("Security: {RequireAPIKey: %v, APIKeys: %d}, ",
		c.Security.RequireAPIKey, len(c.Security.APIKeys)))
	b.WriteString(fmt.Sprintf("Logging: {Level: %q, Format: %q}",
		c.Logging.Level, c.Logging.Format))
	b.WriteString("}")
	return b.String()
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
