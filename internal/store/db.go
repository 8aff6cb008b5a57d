package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps the Postgres pool. All repositories take the bare *sql.DB via
// Client so they stay testable against fakes.
type DB struct {
	Client *sql.DB
}

// NewDB opens a Postgres pool through the pgx stdlib driver and verifies
// connectivity. A ping failure still returns the usable DB handle so callers
// can choose to start degraded and let the pool recover.
func NewDB(ctx context.Context, dsn string) (*DB, error) {
	client, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	client.SetMaxOpenConns(10)
	client.SetMaxIdleConns(5)
	client.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return &DB{Client: client}, client.PingContext(pingCtx)
}

// Close releases the pool.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
