package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	applog "budget/internal/log"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour and driver.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect accepts "sqlite" or "postgres" (also "postgresql", "pgx").
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// rebind rewrites ? placeholders into $n for Postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Config describes how to reach the database.
type Config struct {
	Dialect     Dialect
	SQLitePath  string
	DatabaseURL string
}

// SQLiteDSN builds a modernc DSN with a busy timeout, foreign keys on and
// write-locking transactions.
func SQLiteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

func (c Config) dsn() (string, error) {
	switch c.Dialect {
	case DialectPostgres:
		if c.DatabaseURL == "" {
			return "", errors.New("DATABASE_URL is required for postgres")
		}
		return c.DatabaseURL, nil
	default:
		if c.SQLitePath == "" {
			return "", errors.New("SQLITE_DB_PATH is required for sqlite")
		}
		return SQLiteDSN(c.SQLitePath), nil
	}
}

// Timestamps are stored as fixed-width UTC text so they compare
// lexicographically in both dialects.
const tsLayout = "2006-01-02T15:04:05Z"

func formatTS(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(tsLayout)
}

func parseTS(s string) (time.Time, error) {
	t, err := time.Parse(tsLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isUniqueViolation reports a unique constraint failure from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlitelib.SQLITE_CONSTRAINT_UNIQUE {
			return true
		}
		return code&0xff == sqlitelib.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

// Repository is the ledger, account and snapshot store.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *applog.Logger
}

// Open connects, pings and migrates the database.
func Open(ctx context.Context, cfg Config, logger *applog.Logger) (*Repository, error) {
	if logger == nil {
		logger = applog.Discard()
	}
	if cfg.Dialect == "" {
		cfg.Dialect = DialectSQLite
	}
	dsn, err := cfg.dsn()
	if err != nil {
		return nil, err
	}

	if cfg.Dialect != DialectPostgres {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Dialect, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(cfg.Dialect, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{
		db:      db,
		dialect: cfg.Dialect,
		logger:  logger.WithComponent(applog.ComponentStorage),
	}, nil
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) q(query string) string {
	return r.dialect.rebind(query)
}
