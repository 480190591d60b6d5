package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

// DBConfig holds database configuration
type DBConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	LogLevel        logger.LogLevel
}

// GetDSN returns the connection string for the configured driver
func (c *DBConfig) GetDSN() string {
	if c.Driver == DriverSQLite {
		return c.DBName
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// ServerConfig holds server configuration
type ServerConfig struct {
	Port   string
	Env    string
	AppURL string
}

// IsProduction reports whether the service runs in production mode
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SigningKey      string
	ExpirationHours int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// SessionConfig holds browser session cookie configuration
type SessionConfig struct {
	CookieName   string
	SecureCookie bool
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	LoginRate  float64
	LoginBurst int
}

// Features toggles the optional behaviour of the companies plugin
type Features struct {
	SwitchCurrentCompany     bool
	UpdateProfileInformation bool
	UpdatePasswords          bool
	SetPasswords             bool
	ManageBrowserSessions    bool
	AccountDeletion          bool
	ProfilePhotos            bool
	API                      bool
	Companies                bool
	Invitations              bool
}

// SocialiteConfig lists the enabled social login providers and their features
type SocialiteConfig struct {
	Providers []string
	Features  []string
}

// Known socialite providers and features
var (
	KnownProviders         = []string{"bitbucket", "facebook", "github", "gitlab", "google", "linkedin", "linkedin-openid", "slack", "twitter", "twitter-oauth-2"}
	KnownSocialiteFeatures = []string{"remember-session", "provider-avatars", "generate-missing-emails", "create-account-on-first-login", "login-on-registration"}
)

// Config holds all configuration
type Config struct {
	ServiceName string
	DB          DBConfig
	Server      ServerConfig
	JWT         JWTConfig
	Log         LogConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Features    Features
	Socialite   SocialiteConfig
	Roles       RoleDefinitions
}

// Load loads configuration from the environment, reading .env first when present
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Not returning error as .env file is optional
		fmt.Printf("Warning: .env file not found, using environment variables\n")
	}

	config := &Config{
		ServiceName: serviceName,
		DB: DBConfig{
			Driver:          getEnv("DB_DRIVER", DriverPostgres),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "password"),
			DBName:          getEnv("DB_NAME", "company_panel"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 100),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 1*time.Hour),
			LogLevel:        getEnvAsLogLevel("DB_LOG_LEVEL", logger.Warn),
		},
		Server: ServerConfig{
			Port:   getEnv("SERVER_PORT", "8080"),
			Env:    getEnv("APP_ENV", "development"),
			AppURL: strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/"),
		},
		JWT: JWTConfig{
			SigningKey:      getEnv("JWT_SIGNING_KEY", ""),
			ExpirationHours: getEnvAsInt("JWT_EXPIRATION_HOURS", 24),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Session: SessionConfig{
			CookieName:   getEnv("SESSION_COOKIE", "company_panel_session"),
			SecureCookie: getEnvAsBool("SESSION_SECURE_COOKIE", false),
		},
		RateLimit: RateLimitConfig{
			LoginRate:  getEnvAsFloat("LOGIN_RATE_LIMIT", 1),
			LoginBurst: getEnvAsInt("LOGIN_RATE_BURST", 5),
		},
		Features: Features{
			SwitchCurrentCompany:     getEnvAsBool("FEATURE_SWITCH_CURRENT_COMPANY", true),
			UpdateProfileInformation: getEnvAsBool("FEATURE_UPDATE_PROFILE", true),
			UpdatePasswords:          getEnvAsBool("FEATURE_UPDATE_PASSWORDS", true),
			SetPasswords:             getEnvAsBool("FEATURE_SET_PASSWORDS", true),
			ManageBrowserSessions:    getEnvAsBool("FEATURE_BROWSER_SESSIONS", true),
			AccountDeletion:          getEnvAsBool("FEATURE_ACCOUNT_DELETION", true),
			ProfilePhotos:            getEnvAsBool("FEATURE_PROFILE_PHOTOS", true),
			API:                      getEnvAsBool("FEATURE_API", true),
			Companies:                getEnvAsBool("FEATURE_COMPANIES", true),
			Invitations:              getEnvAsBool("FEATURE_INVITATIONS", true),
		},
		Socialite: SocialiteConfig{
			Providers: getEnvAsList("SOCIALITE_PROVIDERS", []string{"github"}),
			Features:  getEnvAsList("SOCIALITE_FEATURES", []string{"remember-session", "provider-avatars"}),
		},
		Roles: DefaultRoleDefinitions(),
	}

	if path := getEnv("ROLES_FILE", ""); path != "" {
		roles, err := LoadRoleDefinitions(path)
		if err != nil {
			return nil, err
		}
		config.Roles = roles
	}

	// Development fallback so a fresh checkout boots without extra setup
	if config.JWT.SigningKey == "" && !config.Server.IsProduction() {
		config.JWT.SigningKey = "development-signing-key"
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for values the service cannot start with
func (c *Config) Validate() error {
	var errs []error

	if c.JWT.SigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if c.JWT.ExpirationHours <= 0 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRATION_HOURS must be positive, got %d", c.JWT.ExpirationHours))
	}
	if c.DB.Driver != DriverPostgres && c.DB.Driver != DriverSQLite {
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}
	if c.Session.CookieName == "" {
		errs = append(errs, errors.New("SESSION_COOKIE must not be empty"))
	}
	for _, p := range c.Socialite.Providers {
		if !contains(KnownProviders, p) {
			errs = append(errs, fmt.Errorf("unknown socialite provider %q", p))
		}
	}
	for _, f := range c.Socialite.Features {
		if !contains(KnownSocialiteFeatures, f) {
			errs = append(errs, fmt.Errorf("unknown socialite feature %q", f))
		}
	}
	if err := c.Roles.Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogConfig returns the configuration as a zap logger-friendly format
func (c *Config) LogConfig() []zap.Field {
	return []zap.Field{
		zap.String("service", c.ServiceName),
		zap.String("environment", c.Server.Env),
		zap.String("db_driver", c.DB.Driver),
		zap.String("db_host", c.DB.Host),
		zap.String("db_port", c.DB.Port),
		zap.String("db_user", c.DB.User),
		zap.String("db_name", c.DB.DBName),
		zap.String("server_port", c.Server.Port),
		zap.Strings("socialite_providers", c.Socialite.Providers),
		zap.Int("roles", len(c.Roles.Roles)),
	}
}

// Helper function to get environment variables with defaults
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as integers
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get comma separated environment variables
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Helper function to get environment variables as durations
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// Helper function to get environment variables as log levels
func getEnvAsLogLevel(key string, defaultValue logger.LogLevel) logger.LogLevel {
	valueStr := getEnv(key, "")
	switch valueStr {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return defaultValue
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
