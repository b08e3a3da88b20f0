package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"go.opentelemetry.io/otel"
)

type DB struct {
	*sql.DB
	QueryBuilder *squirrel.StatementBuilderType
}

type Options struct {
	Path           string
	MigrationsPath string
	MaxOpenConns   int
	LogQueries     bool
}

// NewDB opens the database file, applies pending migrations and returns a
// traced connection pool.
func NewDB(opts Options) (*DB, error) {
	if opts.Path == "" {
		opts.Path = "todoapi.db"
	}

	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}

	dsn := opts.Path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"

	if opts.MigrationsPath != "" {
		migrationDB, err := sql.Open("sqlite3", dsn)

		if err != nil {
			return nil, err
		}

		err = RunMigrations(migrationDB, opts.MigrationsPath)
		migrationDB.Close()

		if err != nil {
			return nil, err
		}
	}

	tracedDB, err := otelsql.Open("sqlite3", dsn,
		otelsql.WithDBSystem("sqlite"),
		otelsql.WithDBName("todoapi"),
		otelsql.WithTracerProvider(otel.GetTracerProvider()),
	)

	if err != nil {
		return nil, err
	}

	sqlDB := tracedDB

	if opts.LogQueries {
		logger := zerolog.New(os.Stdout).With().Timestamp().Str("component", "sqlite").Logger()
		sqlDB = sqldblogger.OpenDriver(dsn, tracedDB.Driver(), zerologadapter.New(logger),
			sqldblogger.WithSQLQueryAsMessage(true),
		)
		tracedDB.Close()
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return Wrap(sqlDB), nil
}

// Wrap attaches the sqlite query builder to an already opened connection.
func Wrap(db *sql.DB) *DB {
	queryBuilder := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

	return &DB{
		DB:           db,
		QueryBuilder: &queryBuilder,
	}
}

func RunMigrations(db *sql.DB, migrationsPath string) error {
	m, err := newMigrate(db, migrationsPath)

	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// RollbackMigrations reverts the last steps migrations.
func RollbackMigrations(path, migrationsPath string, steps int) error {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")

	if err != nil {
		return err
	}

	defer db.Close()

	m, err := newMigrate(db, migrationsPath)

	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback migrations: %w", err)
	}

	return nil
}

func newMigrate(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})

	if err != nil {
		return nil, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "sqlite3", driver)

	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}

	return m, nil
}
