package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/MaansiBisht/dynamic-form-app/internal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

func runInitDB(args []string, out io.Writer) error {
	flags := newFlagSet("init-db", out)
	var db dbFlags
	db.register(flags)
	printOnly := flags.Bool("print", false, "print the DDL instead of executing it")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	cfg, err := db.resolve()
	if err != nil {
		return err
	}
	if cfg.Table == "" {
		return fmt.Errorf("database.table is required")
	}

	if *printOnly {
		for _, stmt := range internal.SubmissionTableDDL(cfg.Table) {
			fmt.Fprintf(out, "%s;\n", stmt)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := internal.NewPostgresPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := withTx(ctx, conn, func(tx pgx.Tx) error {
		for _, stmt := range internal.SubmissionTableDDL(cfg.Table) {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("exec %q: %w", firstLine(stmt), err)
			}
		}
		return nil
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created submissions table: %s\n", cfg.Table)
	return nil
}

func runCheckDB(args []string, out io.Writer) error {
	flags := newFlagSet("check-db", out)
	var db dbFlags
	db.register(flags)
	timeout := flags.Duration("timeout", time.Duration(getenvDefaultInt("DB_CHECK_TIMEOUT_SECONDS", 5))*time.Second, "connection timeout")
	if ok, err := parseFlags(flags, args); !ok {
		return err
	}

	cfg, err := db.resolve()
	if err != nil {
		return err
	}
	if err := internal.PostgresHealthCheck(context.Background(), cfg.ConnString(), *timeout); err != nil {
		return err
	}
	fmt.Fprintf(out, "Database %s@%s:%d is reachable\n", cfg.Database, cfg.Host, cfg.Port)
	return nil
}

func withTx(ctx context.Context, conn *pgxpool.Conn, fn func(pgx.Tx) error) error {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w; rollback failed: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func firstLine(stmt string) string {
	for i, r := range stmt {
		if r == '\n' {
			return stmt[:i]
		}
	}
	return stmt
}
