package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	RegisterTestingT(s.T())

	s.T().Setenv("CONFIG_PATH", "")
	s.T().Setenv("APP_ENV", "test")
	s.T().Setenv("DB_DRIVER", "sqlite")
	s.T().Setenv("DB_MAX_CONNS", "10")
	s.T().Setenv("DB_MIN_CONNS", "2")
	s.T().Setenv("IDENTITY_PROVIDER", "local")
	s.T().Setenv("JWT_SECRET", "test-secret")
}

func (s *ConfigTestSuite) TestLoad_Defaults() {
	cfg, err := Load()

	Expect(err).ToNot(HaveOccurred())
	Expect(cfg.Env).To(Equal(EnvTest))
	Expect(cfg.Database.Driver).To(Equal(DriverSQLite))
	Expect(cfg.Database.AcquireTimeout).To(Equal(2 * time.Second))
	Expect(cfg.Identity.JWTTTL).To(Equal(time.Hour))
	Expect(cfg.MigrationsPath()).To(Equal("db/migrations/sqlite"))
	Expect(cfg.IsProduction()).To(BeFalse())
}

func (s *ConfigTestSuite) TestLoad_ListsAndOverrides() {
	s.T().Setenv("CORS_ORIGINS", "https://app.example.com,https://admin.example.com")
	s.T().Setenv("RATE_LIMIT_TRUSTED_IPS", "10.0.0.1")
	s.T().Setenv("TRUSTED_PROXIES", "10.1.0.0/16,10.2.0.4")
	s.T().Setenv("MIGRATIONS_PATH", "/srv/migrations")

	cfg, err := Load()

	Expect(err).ToNot(HaveOccurred())
	Expect(cfg.HTTP.CORSOrigins).To(Equal([]string{"https://app.example.com", "https://admin.example.com"}))
	Expect(cfg.RateLimit.TrustedIPs).To(Equal([]string{"10.0.0.1"}))
	Expect(cfg.HTTP.TrustedProxies).To(Equal([]string{"10.1.0.0/16", "10.2.0.4"}))
	Expect(cfg.MigrationsPath()).To(Equal("/srv/migrations"))
}

func (s *ConfigTestSuite) TestLoad_FromFile() {
	path := filepath.Join(s.T().TempDir(), "config.yml")
	Expect(os.WriteFile(path, []byte("telemetry:\n  loki_url: http://loki:3100\n"), 0o600)).To(Succeed())

	s.T().Setenv("CONFIG_PATH", path)

	cfg, err := Load()

	Expect(err).ToNot(HaveOccurred())
	Expect(cfg.Telemetry.LokiURL).To(Equal("http://loki:3100"))
}

func (s *ConfigTestSuite) TestValidate() {
	valid := func() Config {
		return Config{
			Env: EnvDevelopment,
			Database: DatabaseConfig{
				Driver:   DriverPostgres,
				URL:      "postgres://localhost/todos",
				MaxConns: 10,
				MinConns: 2,
			},
			Identity: IdentityConfig{Provider: IdentityLocal, JWTSecret: "secret", JWTTTL: time.Hour},
		}
	}

	cfg := valid()
	Expect(cfg.Validate()).To(Succeed())

	cfg = valid()
	cfg.Database.URL = ""
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("DATABASE_URL")))

	cfg = valid()
	cfg.Database.Driver = "mysql"
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("DB_DRIVER")))

	cfg = valid()
	cfg.Database.MaxConns = 50
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("DB_MAX_CONNS")))

	cfg = valid()
	cfg.Database.MinConns = 11
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("DB_MIN_CONNS")))

	cfg = valid()
	cfg.Identity.Provider = IdentityRemote
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("IDENTITY_URL")))

	cfg = valid()
	cfg.HTTP.TrustedProxies = []string{"10.0.0.0/8", "load-balancer"}
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("TRUSTED_PROXIES")))

	cfg = valid()
	cfg.Env = EnvProduction
	Expect(cfg.Validate()).To(MatchError(ContainSubstring("32 characters")))

	cfg.Identity.JWTSecret = "0123456789abcdef0123456789abcdef"
	Expect(cfg.Validate()).To(Succeed())
}
