package store

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "modernc.org/sqlite"
)

// DB is the sqlite handle behind the notified-set backend.
type DB struct {
	Pool *sql.DB
	path string
}

func Open(path string) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return OpenContext(ctx, path)
}

// OpenContext opens path and applies pending migrations.
func OpenContext(ctx context.Context, path string) (*DB, error) {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	dsn := "file:" + path + "?" + q.Encode()

	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer; the watcher never needs more
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxIdleTime(time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := Migrate(pool); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return &DB{Pool: pool, path: path}, nil
}

func (d *DB) Path() string { return d.path }

// SchemaVersion reports PRAGMA user_version.
func (d *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := d.Pool.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
	return v, err
}

func (d *DB) Close() error {
	if d == nil || d.Pool == nil {
		return nil
	}
	return d.Pool.Close()
}
