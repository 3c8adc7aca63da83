package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
	BackendPostgres = "postgres"

	AuthOAuth    = "oauth"
	AuthDisabled = "disabled"
)

const minSessionSecretLen = 32

type Config struct {
	// HTTP Server
	Port       string
	StaticPath string
	AppBaseURL string
	CORSOrigin string

	// Storage
	DataBackend string
	DBPath      string
	DatabaseURL string

	// Logging
	LogLevel  string
	LogFormat string

	// Auth
	AuthMode          string
	OAuthIssuer       string
	OAuthClientID     string
	OAuthClientSecret string
	OAuthRedirectURL  string
	SessionSecret     string
	SessionTTL        time.Duration
	CookieSecure      bool
}

// Load reads the configuration from the environment.
func Load() *Config {
	baseURL := strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/")

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		StaticPath: getEnv("STATIC_PATH", "./web/dist"),
		AppBaseURL: baseURL,
		CORSOrigin: getEnv("CORS_ORIGIN", ""),

		DataBackend: getEnv("DATA_BACKEND", BackendSQLite),
		DBPath:      getEnv("DB_PATH", "./data/debtbook.db"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		AuthMode:          getEnv("AUTH_MODE", AuthOAuth),
		OAuthIssuer:       getEnv("OAUTH_ISSUER", ""),
		OAuthClientID:     getEnv("OAUTH_CLIENT_ID", ""),
		OAuthClientSecret: getEnv("OAUTH_CLIENT_SECRET", ""),
		OAuthRedirectURL:  getEnv("OAUTH_REDIRECT_URL", baseURL+"/authorization-code/callback"),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:      getEnvBool("COOKIE_SECURE", strings.HasPrefix(baseURL, "https://")),
	}

	return cfg
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{BackendSQLite, BackendMemory, BackendPostgres}
	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}
	if c.DataBackend == BackendSQLite && c.DBPath == "" {
		errors = append(errors, "DB_PATH cannot be empty when using sqlite backend")
	}
	if c.DataBackend == BackendPostgres {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
			errors = append(errors, "invalid DATABASE_URL: must be a postgres:// URL")
		}
	}

	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if err := checkURL(c.AppBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid APP_BASE_URL: %v", err))
	}

	switch c.AuthMode {
	case AuthDisabled:
	case AuthOAuth:
		if err := checkURL(c.OAuthIssuer); err != nil {
			errors = append(errors, fmt.Sprintf("invalid OAUTH_ISSUER: %v", err))
		}
		if c.OAuthClientID == "" {
			errors = append(errors, "OAUTH_CLIENT_ID is required when AUTH_MODE=oauth")
		}
		if c.OAuthClientSecret == "" {
			errors = append(errors, "OAUTH_CLIENT_SECRET is required when AUTH_MODE=oauth")
		}
		if err := checkURL(c.OAuthRedirectURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid OAUTH_REDIRECT_URL: %v", err))
		}
		if len(c.SessionSecret) < minSessionSecretLen {
			errors = append(errors, fmt.Sprintf("SESSION_SECRET must be at least %d characters when AUTH_MODE=oauth", minSessionSecretLen))
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid auth mode '%s': must be %s or %s", c.AuthMode, AuthOAuth, AuthDisabled))
	}

	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func checkURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("'%s' must be an http or https URL", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("'%s' has no host", raw)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
