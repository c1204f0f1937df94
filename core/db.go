package core

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pgx connection pool with conservative defaults.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	// Reasonable defaults for small services; callers can override if needed.
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}

	// Validate connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// EnsureSchema creates the tables if they do not exist. Array-valued
// sub-records (experience, education, likes, comments) live in jsonb columns
// so each aggregate mutates as a single row.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar        TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id       TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	company       TEXT NOT NULL DEFAULT '',
	website       TEXT NOT NULL DEFAULT '',
	location      TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	skills        TEXT[] NOT NULL DEFAULT '{}',
	bio           TEXT NOT NULL DEFAULT '',
	githubusername TEXT NOT NULL DEFAULT '',
	experience    JSONB NOT NULL DEFAULT '[]',
	education     JSONB NOT NULL DEFAULT '[]',
	social        JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	text       TEXT NOT NULL,
	name       TEXT NOT NULL DEFAULT '',
	avatar     TEXT NOT NULL DEFAULT '',
	likes      JSONB NOT NULL DEFAULT '[]',
	comments   JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS posts_created_at_idx ON posts (created_at DESC);
`
	_, err := db.Exec(ctx, ddl)
	return err
}
