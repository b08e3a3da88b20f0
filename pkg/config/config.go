package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pkg/errors"
)

const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvTest        = "test"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	IdentityLocal  = "local"
	IdentityRemote = "remote"

	defaultJWTSecret = "development-secret-change-me"
)

type Config struct {
	Env            string `env:"APP_ENV" env-default:"development" yaml:"env" json:"env"`
	Port           string `env:"PORT" env-default:"8080" yaml:"port" json:"port"`
	ServiceName    string `env:"SERVICE_NAME" env-default:"todo-api" yaml:"service_name" json:"service_name"`
	ServiceVersion string `env:"SERVICE_VERSION" env-default:"1.0.0" yaml:"service_version" json:"service_version"`

	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Identity  IdentityConfig  `yaml:"identity" json:"identity"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry"`
}

type DatabaseConfig struct {
	Driver         string        `env:"DB_DRIVER" env-default:"sqlite" yaml:"driver" json:"driver"`
	URL            string        `env:"DATABASE_URL" yaml:"url" json:"url"`
	Path           string        `env:"DATABASE_PATH" env-default:"todos.db" yaml:"path" json:"path"`
	MaxConns       int32         `env:"DB_MAX_CONNS" env-default:"10" yaml:"max_conns" json:"max_conns"`
	MinConns       int32         `env:"DB_MIN_CONNS" env-default:"2" yaml:"min_conns" json:"min_conns"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" env-default:"5s" yaml:"connect_timeout" json:"connect_timeout"`
	AcquireTimeout time.Duration `env:"DB_ACQUIRE_TIMEOUT" env-default:"2s" yaml:"acquire_timeout" json:"acquire_timeout"`
	MigrationsPath string        `env:"MIGRATIONS_PATH" yaml:"migrations_path" json:"migrations_path"`
}

type IdentityConfig struct {
	Provider    string        `env:"IDENTITY_PROVIDER" env-default:"local" yaml:"provider" json:"provider"`
	URL         string        `env:"IDENTITY_URL" yaml:"url" json:"url"`
	APIKey      string        `env:"IDENTITY_API_KEY" yaml:"api_key" json:"api_key"`
	Timeout     time.Duration `env:"IDENTITY_TIMEOUT" env-default:"10s" yaml:"timeout" json:"timeout"`
	JWTSecret   string        `env:"JWT_SECRET" env-default:"development-secret-change-me" yaml:"jwt_secret" json:"jwt_secret"`
	JWTIssuer   string        `env:"JWT_ISSUER" env-default:"todo-api" yaml:"jwt_issuer" json:"jwt_issuer"`
	JWTAudience string        `env:"JWT_AUDIENCE" env-default:"todo-api" yaml:"jwt_audience" json:"jwt_audience"`
	JWTTTL      time.Duration `env:"JWT_TTL" env-default:"1h" yaml:"jwt_ttl" json:"jwt_ttl"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `env:"CORS_ORIGINS" env-default:"http://localhost:3000" env-separator:"," yaml:"cors_origins" json:"cors_origins"`
	EnforceHTTPS    bool          `env:"ENFORCE_HTTPS" env-default:"false" yaml:"enforce_https" json:"enforce_https"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// Empty trusts no proxy: X-Forwarded-For and X-Real-IP are ignored.
	TrustedProxies []string `env:"TRUSTED_PROXIES" env-separator:"," yaml:"trusted_proxies" json:"trusted_proxies"`
}

type RateLimitConfig struct {
	Enabled    bool     `env:"RATE_LIMIT_ENABLED" env-default:"true" yaml:"enabled" json:"enabled"`
	TrustedIPs []string `env:"RATE_LIMIT_TRUSTED_IPS" env-separator:"," yaml:"trusted_ips" json:"trusted_ips"`
	RedisURL   string   `env:"REDIS_URL" yaml:"redis_url" json:"redis_url"`
}

type TelemetryConfig struct {
	Enabled      bool   `env:"TELEMETRY_ENABLED" env-default:"false" yaml:"enabled" json:"enabled"`
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317" yaml:"otlp_endpoint" json:"otlp_endpoint"`
	LokiURL      string `env:"LOKI_URL" yaml:"loki_url" json:"loki_url"`
}

// Load reads the environment, or the file named by CONFIG_PATH with the
// environment overriding it, and validates the result.
func Load() (*Config, error) {
	var cfg Config
	var err error

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}

	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Database.MaxConns < 5 || c.Database.MaxConns > 20 {
		return fmt.Errorf("DB_MAX_CONNS must be between 5 and 20, got %d", c.Database.MaxConns)
	}

	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS, got %d", c.Database.MinConns)
	}

	switch c.Identity.Provider {
	case IdentityLocal:
	case IdentityRemote:
		if c.Identity.URL == "" {
			return errors.New("IDENTITY_URL is required for the remote identity provider")
		}
	default:
		return fmt.Errorf("unsupported IDENTITY_PROVIDER %q", c.Identity.Provider)
	}

	if c.Identity.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	if c.IsProduction() && (c.Identity.JWTSecret == defaultJWTSecret || len(c.Identity.JWTSecret) < 32) {
		return errors.New("JWT_SECRET must be set to at least 32 characters in production")
	}

	if c.Identity.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}

	for _, proxy := range c.HTTP.TrustedProxies {
		if net.ParseIP(proxy) != nil {
			continue
		}

		if _, _, err := net.ParseCIDR(proxy); err != nil {
			return fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy)
		}
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// MigrationsPath defaults to the driver's directory under db/migrations.
func (c *Config) MigrationsPath() string {
	if c.Database.MigrationsPath != "" {
		return c.Database.MigrationsPath
	}

	return "db/migrations/" + c.Database.Driver
}
