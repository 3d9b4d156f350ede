package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the console
type Config struct {
	AppMode  string
	Port     string
	Database DatabaseConfig
	Backend  BackendConfig
	Cookie   CookieConfig
	Session  SessionConfig
	Authz    AuthzConfig
	Signal   SignalConfig

	// EnvFile is false when no .env file was found
	EnvFile bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver   string // mysql or postgres
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// BackendConfig points at the e-invoice backend REST API
type BackendConfig struct {
	BaseURL       string
	Timeout       time.Duration
	LogoutTimeout time.Duration
}

// CookieConfig holds browser cookie configuration
type CookieConfig struct {
	Secure        bool
	SameSite      string
	Domain        string
	EncryptionKey string
}

// SessionConfig holds the server-side token store settings
type SessionConfig struct {
	SealKey   string
	MaxAge    time.Duration
	SweepSpec string
}

// AuthzConfig holds screen policy file paths; empty means embedded default
type AuthzConfig struct {
	ModelPath  string
	PolicyPath string
}

// SignalConfig holds the shared secret of the force-logout webhook
type SignalConfig struct {
	Secret string
}

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// .env is optional in production
	envFile := godotenv.Load() == nil

	// Get APP_MODE (default to "dev") - trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	cfg := &Config{
		AppMode:  appMode,
		Port:     getEnv("PORT", "3000"),
		Database: loadDatabaseConfig(appMode),
		Backend:  loadBackendConfig(appMode),
		Cookie:   loadCookieConfig(appMode),
		Session:  loadSessionConfig(appMode),
		Authz: AuthzConfig{
			ModelPath:  getEnv("AUTHZ_MODEL_PATH", ""),
			PolicyPath: getEnv("AUTHZ_POLICY_PATH", ""),
		},
		Signal:  SignalConfig{Secret: getEnv(prefixFor(appMode)+"SIGNAL_SECRET", "")},
		EnvFile: envFile,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func prefixFor(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := prefixFor(mode)
	driver := strings.ToLower(getEnv(prefix+"DB_DRIVER", "mysql"))

	defaultPort := "3306"
	if driver == "postgres" {
		defaultPort = "5432"
	}

	return DatabaseConfig{
		Driver:   driver,
		Host:     getEnv(prefix+"DB_HOST", "localhost"),
		Port:     getEnv(prefix+"DB_PORT", defaultPort),
		User:     getEnv(prefix+"DB_USER", "root"),
		Password: getEnv(prefix+"DB_PASS", ""),
		DBName:   getEnv(prefix+"DB_NAME", "einvoice_console"),
		SSLMode:  getEnv(prefix+"DB_SSLMODE", "disable"),
	}
}

// loadBackendConfig loads backend API config based on mode
func loadBackendConfig(mode string) BackendConfig {
	prefix := prefixFor(mode)

	return BackendConfig{
		BaseURL:       strings.TrimRight(getEnv(prefix+"BACKEND_URL", "http://localhost:8080/api"), "/"),
		Timeout:       getSeconds("BACKEND_TIMEOUT_SECONDS", 15),
		LogoutTimeout: getSeconds("BACKEND_LOGOUT_TIMEOUT_SECONDS", 5),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := prefixFor(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:        secure,
		SameSite:      getEnv("COOKIE_SAMESITE", "lax"),
		Domain:        getEnv("COOKIE_DOMAIN", ""),
		EncryptionKey: getEnv(prefix+"COOKIE_ENCRYPTION_KEY", ""),
	}
}

// loadSessionConfig loads token store config based on mode
func loadSessionConfig(mode string) SessionConfig {
	prefix := prefixFor(mode)

	maxAgeMins, err := strconv.Atoi(getEnv("SESSION_MAX_AGE_MINUTES", "480"))
	if err != nil || maxAgeMins <= 0 {
		maxAgeMins = 480
	}

	return SessionConfig{
		SealKey:   getEnv(prefix+"SESSION_SEAL_KEY", "default_seal_key"),
		MaxAge:    time.Duration(maxAgeMins) * time.Minute,
		SweepSpec: getEnv("SESSION_SWEEP_CRON", "@every 15m"),
	}
}

func (c *Config) validate() error {
	if c.Database.Driver != "mysql" && c.Database.Driver != "postgres" {
		return fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'postgres')", c.Database.Driver)
	}
	if c.Backend.BaseURL == "" {
		return errors.New("BACKEND_URL is required")
	}
	if c.IsProd() {
		if c.Cookie.EncryptionKey == "" {
			return errors.New("PROD_COOKIE_ENCRYPTION_KEY is required in prod mode")
		}
		if c.Signal.Secret == "" {
			return errors.New("PROD_SIGNAL_SECRET is required in prod mode")
		}
		if c.Session.SealKey == "default_seal_key" {
			return errors.New("PROD_SESSION_SEAL_KEY is required in prod mode")
		}
	}
	return nil
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getSeconds(key string, defaultSeconds int) time.Duration {
	n, err := strconv.Atoi(getEnv(key, strconv.Itoa(defaultSeconds)))
	if err != nil || n <= 0 {
		n = defaultSeconds
	}
	return time.Duration(n) * time.Second
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "http://localhost:5173"
		}
		return "https://einvoice.example.vn"
	}
	return origins
}
