package http

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"todoapi/internal/adapter/database/postgres"
	pgrepository "todoapi/internal/adapter/database/postgres/repository"
	"todoapi/internal/adapter/database/sqlite"
	sqliterepository "todoapi/internal/adapter/database/sqlite/repository"
	"todoapi/internal/adapter/http/handler"
	"todoapi/internal/adapter/identity"
	"todoapi/internal/core/port"
	"todoapi/internal/core/service"
	"todoapi/pkg/config"
)

// Store is the persistence backend selected by DB_DRIVER.
type Store struct {
	Todos port.TodoRepository
	Users port.UserRepository
	Ping  func(ctx context.Context) error
	Close func()
}

func OpenStore(ctx context.Context, cfg *config.Config, probe port.Telemetry) (*Store, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(ctx, postgres.Options{
			URL:            cfg.Database.URL,
			MaxConns:       cfg.Database.MaxConns,
			MinConns:       cfg.Database.MinConns,
			ConnectTimeout: cfg.Database.ConnectTimeout,
			AcquireTimeout: cfg.Database.AcquireTimeout,
			MigrationsPath: cfg.MigrationsPath(),
		})

		if err != nil {
			return nil, err
		}

		return &Store{
			Todos: pgrepository.NewTodoRepository(db, probe),
			Users: pgrepository.NewUserRepository(db, probe),
			Ping:  db.Ping,
			Close: db.Close,
		}, nil

	case config.DriverSQLite:
		db, err := sqlite.NewDB(sqlite.Options{
			Path:           cfg.Database.Path,
			MigrationsPath: cfg.MigrationsPath(),
			MaxOpenConns:   int(cfg.Database.MaxConns),
			LogQueries:     !cfg.IsProduction(),
		})

		if err != nil {
			return nil, err
		}

		return &Store{
			Todos: sqliterepository.NewTodoRepository(db, probe),
			Users: sqliterepository.NewUserRepository(db, probe),
			Ping:  db.PingContext,
			Close: func() { db.Close() },
		}, nil
	}

	return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}

// NewIdentity returns the verifier for bearer tokens and the provider that
// owns accounts.
func NewIdentity(cfg *config.Config) (port.IdentityVerifier, port.IdentityProvider) {
	tokenConfig := identity.TokenConfig{
		Secret:   cfg.Identity.JWTSecret,
		Issuer:   cfg.Identity.JWTIssuer,
		Audience: cfg.Identity.JWTAudience,
		TTL:      cfg.Identity.JWTTTL,
	}

	verifier := identity.NewTokenVerifier(tokenConfig)

	if cfg.Identity.Provider == config.IdentityRemote {
		return verifier, identity.NewRemoteProvider(cfg.Identity.URL, cfg.Identity.APIKey, cfg.Identity.Timeout)
	}

	return verifier, identity.NewLocalProvider(identity.NewTokenSigner(tokenConfig), bcrypt.DefaultCost)
}

type Container struct {
	TodoService port.TodoService
	UserService port.UserService
	AuthService port.AuthService

	TodoHandler   *handler.TodoHandler
	AuthHandler   *handler.AuthHandler
	HealthHandler *handler.HealthHandler
}

func NewContainer(store *Store, verifier port.IdentityVerifier, provider port.IdentityProvider, probe port.Telemetry, logger *config.LokiLogger, version string) *Container {
	todoSvc := service.NewTodoService(store.Todos, probe)
	userSvc := service.NewUserService(store.Users, probe)
	authSvc := service.NewAuthService(userSvc, verifier, provider, logger.Zap(), probe)

	return &Container{
		TodoService: todoSvc,
		UserService: userSvc,
		AuthService: authSvc,

		TodoHandler:   handler.NewTodoHandler(todoSvc, logger),
		AuthHandler:   handler.NewAuthHandler(authSvc, logger),
		HealthHandler: handler.NewHealthHandler(store.Ping, version),
	}
}
