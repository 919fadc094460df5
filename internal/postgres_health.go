package internal

import (
	"context"
	"fmt"
	"time"

	dynform "github.com/MaansiBisht/dynamic-form-app"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ValidatePostgresConfig performs basic sanity checks on Postgres-related settings.
func ValidatePostgresConfig(cfg dynform.DatabaseConfig) error {
	if cfg.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("database.port must be a valid TCP port")
	}
	if cfg.MaxConnections <= 0 {
		return fmt.Errorf("database.maxConnections must be greater than 0")
	}
	if cfg.Table == "" {
		return fmt.Errorf("database.table is required")
	}
	return nil
}

// PostgresHealthCheck connects with dsn, pings and runs a trivial query.
// A zero timeout means 5s.
func PostgresHealthCheck(ctx context.Context, dsn string, timeout time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("empty dsn")
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := pool.Exec(ctx, "SELECT 1"); err != nil {
		return fmt.Errorf("postgres simple query failed: %w", err)
	}

	return nil
}

// NewPostgresPool opens a pool sized from cfg and verifies it with a ping.
func NewPostgresPool(ctx context.Context, cfg dynform.DatabaseConfig) (*pgxpool.Pool, error) {
	if err := ValidatePostgresConfig(cfg); err != nil {
		return nil, err
	}
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime
	poolConfig.ConnConfig.ConnectTimeout = cfg.Timeout

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}
