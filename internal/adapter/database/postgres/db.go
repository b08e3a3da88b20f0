package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

type DB struct {
	*pgxpool.Pool
	QueryBuilder   *squirrel.StatementBuilderType
	acquireTimeout time.Duration
}

type Options struct {
	URL            string
	MaxConns       int32
	MinConns       int32
	ConnectTimeout time.Duration
	AcquireTimeout time.Duration
	MigrationsPath string
}

func NewDB(ctx context.Context, opts Options) (*DB, error) {
	if opts.URL == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	if opts.MigrationsPath != "" {
		if err := RunMigrations(opts.URL, opts.MigrationsPath); err != nil {
			return nil, err
		}
	}

	config, err := pgxpool.ParseConfig(opts.URL)

	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if opts.MaxConns > 0 {
		config.MaxConns = opts.MaxConns
	}

	if opts.MinConns > 0 {
		config.MinConns = opts.MinConns
	}

	if opts.ConnectTimeout > 0 {
		config.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	config.MaxConnIdleTime = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)

	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	acquireTimeout := opts.AcquireTimeout
	if acquireTimeout <= 0 {
		acquireTimeout = 2 * time.Second
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	return &DB{
		Pool:           pool,
		QueryBuilder:   &psql,
		acquireTimeout: acquireTimeout,
	}, nil
}

// Conn takes a connection from the pool, giving up after the acquire timeout
// so an exhausted pool fails fast. Callers must Release it.
func (db *DB) Conn(ctx context.Context) (*pgxpool.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	return db.Pool.Acquire(acquireCtx)
}

// RunMigrations applies pending migrations over a database/sql connection
// opened through the pgx stdlib driver.
func RunMigrations(url, migrationsPath string) error {
	m, closeDB, err := newMigrate(url, migrationsPath)

	if err != nil {
		return err
	}

	defer closeDB()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// RollbackMigrations reverts the given number of migrations.
func RollbackMigrations(url, migrationsPath string, steps int) error {
	m, closeDB, err := newMigrate(url, migrationsPath)

	if err != nil {
		return err
	}

	defer closeDB()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}

	return nil
}

// migrationDB opens a traced database/sql handle over pgx for golang-migrate,
// logging every applied statement.
func migrationDB(url string) (*sql.DB, error) {
	tracedDB, err := otelsql.Open("pgx", url,
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName("todoapi"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, err
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Str("component", "migrate").Logger()
	sqlDB := sqldblogger.OpenDriver(url, tracedDB.Driver(), zerologadapter.New(logger),
		sqldblogger.WithSQLQueryAsMessage(true),
		sqldblogger.WithExecerLevel(sqldblogger.LevelInfo),
		sqldblogger.WithMinimumLevel(sqldblogger.LevelInfo),
	)
	tracedDB.Close()

	return sqlDB, nil
}

func newMigrate(url, migrationsPath string) (*migrate.Migrate, func(), error) {
	sqlDB, err := migrationDB(url)

	if err != nil {
		return nil, nil, err
	}

	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{})

	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)

	if err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("create migration instance: %w", err)
	}

	return m, func() { sqlDB.Close() }, nil
}
