package backend

import (
	"context"
	"net/url"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/MrSnakeDoc/weddingday/internal/logger"
)

// PostgresOptions describes the pool and its connect policy.
type PostgresOptions struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
	Retry        RetryOptions
}

// NewPostgres opens a pool and blocks until the database answers.
func NewPostgres(ctx context.Context, opts PostgresOptions, log logger.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", opts.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)

	if err := waitUntilReachable(ctx, "postgres", hostOf(opts.DSN), db.PingContext, opts.Retry, log); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// hostOf keeps credentials out of logs.
func hostOf(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return "postgres"
	}
	return u.Host
}
