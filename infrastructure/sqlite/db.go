package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps split read/write Bun connections for the station journal.
type DB struct {
	WriteSQL *sql.DB
	ReadSQL  *sql.DB
	W        *bun.DB
	R        *bun.DB
}

func dsn(path string, params ...string) string {
	base := []string{"_foreign_keys=on", "_busy_timeout=5000"}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(append(base, params...), "&"))
}

// OpenDB opens one serialized writer and a pooled query-only reader on the same file.
func OpenDB(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	wsql, err := sql.Open("sqlite3", dsn(path, "_txlock=immediate"))
	if err != nil {
		return nil, fmt.Errorf("open write db: %w", err)
	}
	wsql.SetMaxOpenConns(1)
	wsql.SetConnMaxLifetime(15 * time.Minute)

	rsql, err := openReader(path)
	if err != nil {
		wsql.Close()
		return nil, err
	}

	return &DB{
		WriteSQL: wsql,
		ReadSQL:  rsql,
		W:        bun.NewDB(wsql, sqlitedialect.New()),
		R:        bun.NewDB(rsql, sqlitedialect.New()),
	}, nil
}

func openReader(path string) (*sql.DB, error) {
	rsql, err := sql.Open("sqlite3", dsn(path, "mode=ro", "_query_only=1"))
	if err != nil {
		return nil, fmt.Errorf("open read db: %w", err)
	}
	// A fresh station has no file yet; read-only mode cannot create it.
	if err := rsql.Ping(); err != nil && strings.Contains(err.Error(), "unable to open database file") {
		rsql.Close()
		rsql, err = sql.Open("sqlite3", dsn(path, "_query_only=1"))
		if err != nil {
			return nil, fmt.Errorf("open fallback read db: %w", err)
		}
	}
	rsql.SetMaxOpenConns(8)
	rsql.SetConnMaxIdleTime(5 * time.Minute)
	rsql.SetConnMaxLifetime(15 * time.Minute)

	if _, err := rsql.Exec("PRAGMA query_only = ON"); err != nil {
		rsql.Close()
		return nil, fmt.Errorf("enable read query_only: %w", err)
	}
	return rsql, nil
}

// Ping checks both handles.
func (db *DB) Ping(ctx context.Context) error {
	if db == nil || db.WriteSQL == nil || db.ReadSQL == nil {
		return fmt.Errorf("db is not initialized")
	}
	if err := db.WriteSQL.PingContext(ctx); err != nil {
		return fmt.Errorf("ping write db: %w", err)
	}
	if err := db.ReadSQL.PingContext(ctx); err != nil {
		return fmt.Errorf("ping read db: %w", err)
	}
	return nil
}

// Close closes read and write handles.
func (db *DB) Close() error {
	if db == nil {
		return nil
	}
	var errs []error
	if db.W != nil {
		errs = append(errs, db.W.Close())
	}
	if db.R != nil {
		errs = append(errs, db.R.Close())
	}
	return errors.Join(errs...)
}
