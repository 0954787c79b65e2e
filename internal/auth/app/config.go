package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/schmeconomics/schmeconomics/internal/auth/service"
	"github.com/schmeconomics/schmeconomics/pkg/jwtx"
)

// ConfigFileEnv names the optional YAML file layered between the defaults
// and the environment.
const ConfigFileEnv = "SCHMECONOMICS_CONFIG_FILE"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Tokens       TokenConfig        `yaml:"tokens"`
	Secrets      SecretConfig       `yaml:"secrets"`
	Refresh      RefreshConfig      `yaml:"refresh"`
	Housekeeping HousekeepingConfig `yaml:"housekeeping"`
	Log          LogConfig          `yaml:"log"`
	Bootstrap    BootstrapConfig    `yaml:"bootstrap"`
}

type ServerConfig struct {
	Port                int           `yaml:"port"`
	Env                 string        `yaml:"env"` // dev, staging, prod
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"`

	// TrustProxyHeaders takes the client IP from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that sets them.
	TrustProxyHeaders bool `yaml:"trust_proxy_headers"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	File   string `yaml:"file"`   // sqlite only
	URL    string `yaml:"url"`    // postgres only
}

type TokenConfig struct {
	Algorithm string        `yaml:"algorithm"`
	Issuer    string        `yaml:"issuer"`
	Audience  string        `yaml:"audience"`
	Lifetime  time.Duration `yaml:"lifetime"`
}

type SecretConfig struct {
	Lifetime      time.Duration `yaml:"lifetime"`
	Size          int           `yaml:"size"` // bytes
	MasterKey     string        `yaml:"master_key"`
	MasterKeyPath string        `yaml:"master_key_path"`
	PepperFile    string        `yaml:"pepper_file"`
}

type RefreshConfig struct {
	Lifetime          time.Duration `yaml:"lifetime"`
	TokenLength       int           `yaml:"token_length"`
	FamilyTokenLength int           `yaml:"family_token_length"`
	IPAddressMaxCount int           `yaml:"ip_address_max_count"`
}

type HousekeepingConfig struct {
	Schedule        string        `yaml:"schedule"`
	FamilyRetention time.Duration `yaml:"family_retention"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BootstrapConfig names the admin created when the user table is empty. An
// empty password is generated and logged once.
type BootstrapConfig struct {
	AdminName     string `yaml:"admin_name"`
	AdminPassword string `yaml:"admin_password"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:                8080,
			Env:                 "dev",
			ShutdownGracePeriod: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver: DriverSQLite,
			File:   "auth.db",
		},
		Tokens: TokenConfig{
			Algorithm: string(jwtx.HS256),
			Issuer:    "schmeconomics",
			Audience:  "schmeconomics",
			Lifetime:  jwtx.DefaultAccessTokenLifetime,
		},
		Secrets: SecretConfig{
			Lifetime:   jwtx.DefaultSecretLifetime,
			Size:       jwtx.DefaultSecretSize,
			PepperFile: "pepper",
		},
		Refresh: RefreshConfig{
			Lifetime:          service.DefaultRefreshTokenLifetime,
			TokenLength:       service.DefaultRefreshTokenLength,
			FamilyTokenLength: service.DefaultRefreshTokenLength,
			IPAddressMaxCount: service.DefaultIPAddressMaxCount,
		},
		Housekeeping: HousekeepingConfig{
			Schedule:        service.DefaultHousekeepingSchedule,
			FamilyRetention: service.DefaultFamilyRetention,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Bootstrap: BootstrapConfig{
			AdminName: "admin",
		},
	}
}

// LoadConfig layers the defaults, the YAML file named by
// SCHMECONOMICS_CONFIG_FILE and the environment, then validates the result.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
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
	c.Server.Port = getEnvIntOrDefault("PORT", c.Server.Port)
	c.Server.Env = getEnvOrDefault("ENV", c.Server.Env)
	c.Server.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", c.Server.ShutdownGracePeriod)
	c.Server.TrustProxyHeaders = getEnvBoolOrDefault("TRUST_PROXY_HEADERS", c.Server.TrustProxyHeaders)

	c.Database.Driver = getEnvOrDefault("DATABASE_DRIVER", c.Database.Driver)
	c.Database.File = getEnvOrDefault("DATABASE_FILE", c.Database.File)
	c.Database.URL = getEnvOrDefault("DATABASE_URL", c.Database.URL)

	c.Tokens.Algorithm = getEnvOrDefault("AUTH_TOKEN_ALGORITHM", c.Tokens.Algorithm)
	c.Tokens.Issuer = getEnvOrDefault("AUTH_ISSUER", c.Tokens.Issuer)
	c.Tokens.Audience = getEnvOrDefault("AUTH_AUDIENCE", c.Tokens.Audience)
	c.Tokens.Lifetime = getEnvDurationOrDefault("AUTH_TOKEN_LIFETIME", c.Tokens.Lifetime)

	c.Secrets.Lifetime = getEnvDurationOrDefault("AUTH_SECRET_LIFETIME", c.Secrets.Lifetime)
	c.Secrets.Size = getEnvIntOrDefault("AUTH_SECRET_SIZE", c.Secrets.Size)
	c.Secrets.MasterKey = getEnvOrDefault("AUTH_MASTER_KEY", c.Secrets.MasterKey)
	c.Secrets.MasterKeyPath = getEnvOrDefault("AUTH_MASTER_KEY_PATH", c.Secrets.MasterKeyPath)
	c.Secrets.PepperFile = getEnvOrDefault("AUTH_PEPPER_FILE", c.Secrets.PepperFile)

	c.Refresh.Lifetime = getEnvDurationOrDefault("AUTH_REFRESH_LIFETIME", c.Refresh.Lifetime)
	c.Refresh.TokenLength = getEnvIntOrDefault("AUTH_REFRESH_TOKEN_LENGTH", c.Refresh.TokenLength)
	c.Refresh.FamilyTokenLength = getEnvIntOrDefault("AUTH_FAMILY_TOKEN_LENGTH", c.Refresh.FamilyTokenLength)
	c.Refresh.IPAddressMaxCount = getEnvIntOrDefault("AUTH_IP_ADDRESS_MAX_COUNT", c.Refresh.IPAddressMaxCount)

	c.Housekeeping.Schedule = getEnvOrDefault("HOUSEKEEPING_SCHEDULE", c.Housekeeping.Schedule)
	c.Housekeeping.FamilyRetention = getEnvDurationOrDefault("REFRESH_FAMILY_RETENTION", c.Housekeeping.FamilyRetention)

	c.Log.Level = getEnvOrDefault("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnvOrDefault("LOG_FORMAT", c.Log.Format)

	c.Bootstrap.AdminName = getEnvOrDefault("BOOTSTRAP_ADMIN_NAME", c.Bootstrap.AdminName)
	c.Bootstrap.AdminPassword = getEnvOrDefault("BOOTSTRAP_ADMIN_PASSWORD", c.Bootstrap.AdminPassword)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port %d out of range", c.Server.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.File == "" {
			add("database.file is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.URL == "" {
			add("database.url is required for postgres")
		}
	default:
		add("unknown database.driver %q", c.Database.Driver)
	}

	if _, err := jwtx.ParseHashAlgorithm(c.Tokens.Algorithm); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.Tokens.Issuer) == "" {
		add("tokens.issuer is required")
	}
	if strings.TrimSpace(c.Tokens.Audience) == "" {
		add("tokens.audience is required")
	}
	if c.Tokens.Lifetime <= 0 {
		add("tokens.lifetime must be positive")
	}

	if c.Secrets.Lifetime <= 0 {
		add("secrets.lifetime must be positive")
	}
	if c.Secrets.Size < jwtx.MinSecretSize {
		add("secrets.size must be at least %d bytes", jwtx.MinSecretSize)
	}

	if c.Refresh.Lifetime <= 0 {
		add("refresh.lifetime must be positive")
	}
	if err := c.RefreshTokenConfig().Validate(); err != nil {
		errs = append(errs, err)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		add("unknown log.format %q", c.Log.Format)
	}

	return errors.Join(errs...)
}

// RefreshTokenConfig converts the refresh section for the refresh service.
func (c Config) RefreshTokenConfig() service.RefreshTokenConfig {
	return service.RefreshTokenConfig{
		Lifetime:           c.Refresh.Lifetime,
		RefreshTokenLength: c.Refresh.TokenLength,
		FamilyTokenLength:  c.Refresh.FamilyTokenLength,
		IPAddressMaxCount:  c.Refresh.IPAddressMaxCount,
	}
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

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
