package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
	"socialgraph/config"
)

var (
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	ErrNotFound          = errors.New("record not found")
	ErrInvalidColumn     = errors.New("invalid filter column")
	ErrEmptyFilter       = errors.New("filter must not be empty")
)

// DB wraps a connection pool together with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	driver string
	logger *zap.Logger
}

var sqlDrivers = map[string]string{
	"mysql":    "mysql",
	"postgres": "pgx",
	"sqlite":   "sqlite",
}

func Open(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	driverName, ok := sqlDrivers[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	sqlDB, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", cfg.Driver, err)
	}

	if cfg.Driver == "sqlite" {
		// in-memory databases are per connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	db := &DB{DB: sqlDB, driver: cfg.Driver, logger: logger.Named("database")}
	db.logger.Info("Database connected successfully", zap.String("driver", cfg.Driver))
	return db, nil
}

func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into the positional form the driver expects.
func (db *DB) Rebind(query string) string {
	if db.driver != "postgres" {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.QueryContext(ctx, db.Rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.QueryRowContext(ctx, db.Rebind(query), args...)
}

// CreateTables creates the schema. The statements are portable across the supported drivers.
func (db *DB) CreateTables(ctx context.Context) error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id          VARCHAR(36) PRIMARY KEY,
			username    VARCHAR(64) NOT NULL,
			password    VARCHAR(255) NOT NULL,
			created_at  BIGINT NOT NULL,
			updated_at  BIGINT NOT NULL,
			UNIQUE (username)
		)`,
		`CREATE TABLE IF NOT EXISTS device_tokens (
			id          VARCHAR(36) PRIMARY KEY,
			user_id     VARCHAR(36) NOT NULL,
			platform    VARCHAR(16) NOT NULL,
			token       VARCHAR(255) NOT NULL,
			created_at  BIGINT NOT NULL,
			UNIQUE (user_id, platform)
		)`,
		`CREATE TABLE IF NOT EXISTS friendships (
			id          VARCHAR(36) PRIMARY KEY,
			owner_id    VARCHAR(36) NOT NULL,
			target_id   VARCHAR(36) NOT NULL,
			target_name VARCHAR(64) NOT NULL,
			nickname    VARCHAR(64),
			favorite    SMALLINT NOT NULL DEFAULT 0,
			created_at  BIGINT NOT NULL,
			UNIQUE (owner_id, target_id)
		)`,
		`CREATE TABLE IF NOT EXISTS blacklist (
			id          VARCHAR(36) PRIMARY KEY,
			owner_id    VARCHAR(36) NOT NULL,
			target_id   VARCHAR(36) NOT NULL,
			target_name VARCHAR(64) NOT NULL,
			reason      VARCHAR(255),
			created_at  BIGINT NOT NULL,
			UNIQUE (owner_id, target_id)
		)`,
	}

	for _, table := range tables {
		if _, err := db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.logger.Info("Database tables created successfully")
	return nil
}
