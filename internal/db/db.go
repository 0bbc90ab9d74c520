package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	_ "modernc.org/sqlite"

	"github.com/v7mdd/MoodleMate/internal/config"
)

// Open connects to the configured database and wraps it in bun.
func Open(cfg *config.DatabaseConfig) (*bun.DB, error) {
	var db *bun.DB
	switch cfg.Driver {
	case "sqlite":
		sqldb, err := connectSQLite(cfg.DSN)
		if err != nil {
			return nil, err
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case "postgres":
		sqldb, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	case "pgdriver":
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}

	if cfg.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return db, nil
}

func connectSQLite(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return sqldb, nil
}

// InitDB creates the sessions and messages tables if they do not exist.
func InitDB(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().Model((*Session)(nil)).IfNotExists().Exec(ctx); err != nil {
		return fmt.Errorf("failed to create sessions table: %w", err)
	}
	_, err := db.NewCreateTable().
		Model((*Message)(nil)).
		IfNotExists().
		ForeignKey(`("session_id") REFERENCES "sessions" ("id") ON DELETE CASCADE`).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create messages table: %w", err)
	}
	_, err = db.NewCreateIndex().
		Model((*Message)(nil)).
		Index("messages_session_id_idx").
		IfNotExists().
		Column("session_id").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}
	return nil
}
