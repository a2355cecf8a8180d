package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// Open returns the single shared store connection for driver and dsn.
// The pool is capped at one connection: callers must drain result sets before
// issuing the next statement and must not query outside an open transaction.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(ctx, dsn)
	case DriverPgx, DriverPostgres:
		return openPostgres(ctx, driver, dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := sqliteDir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return connect(ctx, DriverSQLite, SQLiteDSN(path), retryPolicy{})
}

// SQLiteDSN appends the pragmas every connection needs to path.
func SQLiteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func sqliteDir(path string) string {
	if path == "" || strings.Contains(path, ":memory:") {
		return ""
	}
	path = strings.TrimPrefix(path, "file:")
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return ""
	}
	return dir
}

// openPostgres keeps pinging until the server answers or the wait runs out,
// so a container that is still starting does not fail the command.
func openPostgres(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	return connect(ctx, driver, dsn, retryPolicy{
		maxWait:        30 * time.Second,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     5 * time.Second,
	})
}

// retryPolicy bounds how long connect waits for the first successful ping.
// A zero maxWait pings exactly once.
type retryPolicy struct {
	maxWait        time.Duration
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

func (p retryPolicy) next(backoff time.Duration) time.Duration {
	backoff *= 2
	if backoff > p.maxBackoff {
		return p.maxBackoff
	}
	return backoff
}

const pingTimeout = 5 * time.Second

// connect opens driver/dsn as the single shared connection and pings it
// according to policy.
func connect(ctx context.Context, driver, dsn string, policy retryPolicy) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := ping(ctx, db, policy); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", driver, err)
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB, policy retryPolicy) error {
	deadline := time.Now().Add(policy.maxWait)
	backoff := policy.initialBackoff

	for {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return nil
		}
		if policy.maxWait <= 0 || time.Now().Add(backoff).After(deadline) {
			return err
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-timer.C:
		}
		backoff = policy.next(backoff)
	}
}
