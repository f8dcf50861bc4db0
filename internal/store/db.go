package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Querier is the request-scoped handle repositories run their statements on.
// *sqlx.DB, *sqlx.Tx and *sqlx.Conn all satisfy it.
type Querier interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// DB wraps sqlx.DB for Postgres using pgx.
type DB struct {
	Client *sqlx.DB
}

// PoolOptions bounds the connection pool.
type PoolOptions struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(ctx context.Context, connString string, opts PoolOptions) (*DB, error) {
	db, err := sqlx.Open("pgx", connString)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if opts.MaxOpen <= 0 {
		opts.MaxOpen = 10
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = 5
	}
	if opts.MaxLifetime <= 0 {
		opts.MaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpen)
	db.SetMaxIdleConns(opts.MaxIdle)
	db.SetConnMaxLifetime(opts.MaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return &DB{Client: db}, errors.Wrap(err, "ping postgres")
	}
	return &DB{Client: db}, nil
}

// Conn checks out a dedicated connection. The caller must Close it.
func (d *DB) Conn(ctx context.Context) (*sqlx.Conn, error) {
	conn, err := d.Client.Connx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "acquire connection")
	}
	return conn, nil
}

// Healthy pings the database.
func (d *DB) Healthy(ctx context.Context) bool {
	if d == nil || d.Client == nil {
		return false
	}
	return d.Client.PingContext(ctx) == nil
}

// SQL exposes the underlying *sql.DB for tools that need it, such as goose.
func (d *DB) SQL() *sql.DB {
	return d.Client.DB
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
