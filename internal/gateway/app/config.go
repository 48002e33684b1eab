package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	BackendURL string `yaml:"backend_url"` // Required: platform backend base URL
	JWTSecret  string `yaml:"jwt_secret"`  // Required: HS256 secret shared with the backend

	ProtectedPaths    []string      `yaml:"protected_paths"`     // Page prefixes behind the gate (default: /dashboard, /profile)
	LoginPath         string        `yaml:"login_path"`          // Where rejected page requests go (default: /login)
	AccessCookieName  string        `yaml:"access_cookie_name"`  // (default: access)
	RefreshCookieName string        `yaml:"refresh_cookie_name"` // (default: refresh)
	AccessCookieTTL   time.Duration `yaml:"access_cookie_ttl"`   // Max-Age of issued access cookies (default: 5m)
	RefreshCookieTTL  time.Duration `yaml:"refresh_cookie_ttl"`  // Max-Age of issued refresh cookies (default: 24h)
	CookieDomain      string        `yaml:"cookie_domain"`       // Optional
	CookieSecure      bool          `yaml:"-"`                   // Secure flag on cookies (default: false in dev, true otherwise)
	RenewalTimeout    time.Duration `yaml:"renewal_timeout"`     // Bound on one edge renewal (default: 10s)
	BackendTimeout    time.Duration `yaml:"backend_timeout"`     // Per backend call (default: 15s)
	StaticDir         string        `yaml:"static_dir"`          // Page assets (default: ./web)

	Env                 string        `yaml:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        `yaml:"log_level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        `yaml:"log_format"`            // Log format (json, text) (default: json)
	Port                int           `yaml:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)
}

// DefaultConfig is the configuration with nothing set.
func DefaultConfig() Config {
	return Config{
		ProtectedPaths:      []string{"/dashboard", "/profile"},
		LoginPath:           "/login",
		AccessCookieName:    "access",
		RefreshCookieName:   "refresh",
		AccessCookieTTL:     5 * time.Minute,
		RefreshCookieTTL:    24 * time.Hour,
		RenewalTimeout:      10 * time.Second,
		BackendTimeout:      15 * time.Second,
		StaticDir:           "./web",
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// path (if any), then environment variables. Env always wins.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	var secure *bool
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}

		var extra struct {
			CookieSecure *bool `yaml:"cookie_secure"`
		}
		if err := yaml.Unmarshal(data, &extra); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
		secure = extra.CookieSecure
	}

	// DJANGO_API_URL is the name older deployments use
	cfg.BackendURL = getEnvOrDefault("DJANGO_API_URL", cfg.BackendURL)
	cfg.BackendURL = getEnvOrDefault("BACKEND_URL", cfg.BackendURL)
	cfg.JWTSecret = getEnvOrDefault("JWT_SECRET", cfg.JWTSecret)

	if v := os.Getenv("PROTECTED_PATHS"); v != "" {
		cfg.ProtectedPaths = splitList(v)
	}
	cfg.LoginPath = getEnvOrDefault("LOGIN_PATH", cfg.LoginPath)
	cfg.AccessCookieName = getEnvOrDefault("ACCESS_COOKIE_NAME", cfg.AccessCookieName)
	cfg.RefreshCookieName = getEnvOrDefault("REFRESH_COOKIE_NAME", cfg.RefreshCookieName)
	cfg.AccessCookieTTL = getEnvDurationOrDefault("ACCESS_COOKIE_TTL", cfg.AccessCookieTTL)
	cfg.RefreshCookieTTL = getEnvDurationOrDefault("REFRESH_COOKIE_TTL", cfg.RefreshCookieTTL)
	cfg.CookieDomain = getEnvOrDefault("COOKIE_DOMAIN", cfg.CookieDomain)
	cfg.RenewalTimeout = getEnvDurationOrDefault("RENEWAL_TIMEOUT", cfg.RenewalTimeout)
	cfg.BackendTimeout = getEnvDurationOrDefault("BACKEND_TIMEOUT", cfg.BackendTimeout)
	cfg.StaticDir = getEnvOrDefault("STATIC_DIR", cfg.StaticDir)

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)

	// Secure cookies everywhere except local development, unless told otherwise
	cfg.CookieSecure = cfg.Env != "dev"
	if secure != nil {
		cfg.CookieSecure = *secure
	}
	cfg.CookieSecure = getEnvBoolOrDefault("COOKIE_SECURE", cfg.CookieSecure)

	return cfg, nil
}

// Validate rejects settings the gateway can't start with. A missing backend
// URL or secret is not an error: the gateway starts and fails closed.
func (c Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		errs = append(errs, fmt.Errorf("login_path %q must start with /", c.LoginPath))
	}
	if c.RenewalTimeout <= 0 {
		errs = append(errs, errors.New("renewal_timeout must be positive"))
	}
	if c.ShutdownGracePeriod <= 0 {
		errs = append(errs, errors.New("shutdown_grace_period must be positive"))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
