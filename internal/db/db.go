package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"registro/internal/log"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Connection lifecycle states. CONNECTING failure lands in FAILED and the
// error is surfaced to the bootstrapper, which must abort startup.
const (
	stateUninitialized int32 = iota
	stateConnecting
	stateReady
	stateFailed
	stateClosed
)

// ErrNotReady signals a query issued outside the READY state.
var ErrNotReady = errors.New("database is not ready")

// Config selects and parameterizes the backend.
type Config struct {
	Backend     Backend
	PostgresURL string
	SQLitePath  string
}

// DB owns the single connection (sqlite) or pooled connection set (postgres)
// for the process lifetime and executes backend-agnostic parameterized SQL.
type DB struct {
	backend Backend
	sql     *sql.DB
	logger  *log.Logger
	state   atomic.Int32
}

// Result reports the outcome of a write statement. LastInsertID is populated
// only for inserts; RowsAffected of zero signals target-not-found to callers.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// Connect establishes the backend connection, verifies reachability, and
// initializes the schema. The returned DB is READY; any failure is fatal to
// startup.
func Connect(ctx context.Context, cfg Config, logger *log.Logger) (*DB, error) {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	d := &DB{
		backend: cfg.Backend,
		logger:  logger.WithComponent("db"),
	}
	d.state.Store(stateConnecting)

	var (
		sqldb *sql.DB
		err   error
	)
	switch cfg.Backend {
	case SQLite:
		sqldb, err = openSQLite(cfg.SQLitePath)
	case Postgres:
		sqldb, err = openPostgres(cfg.PostgresURL)
	default:
		err = fmt.Errorf("unsupported backend: %q", cfg.Backend)
	}
	if err != nil {
		d.state.Store(stateFailed)
		return nil, err
	}
	d.sql = sqldb

	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		d.state.Store(stateFailed)
		return nil, fmt.Errorf("ping %s backend: %w", cfg.Backend, err)
	}

	if err := d.ensureSchema(ctx); err != nil {
		sqldb.Close()
		d.state.Store(stateFailed)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	d.state.Store(stateReady)
	d.logger.Info("Database ready", "backend", cfg.Backend.String())
	return d, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite database path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One shared handle: the file store has no concurrent-writer support and
	// a per-connection page cache.
	sqldb.SetMaxOpenConns(1)
	return sqldb, nil
}

func openPostgres(url string) (*sql.DB, error) {
	if url == "" {
		return nil, errors.New("postgres connection string is empty")
	}

	sqldb, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}

	sqldb.SetMaxOpenConns(25)
	sqldb.SetMaxIdleConns(5)
	sqldb.SetConnMaxLifetime(5 * time.Minute)
	return sqldb, nil
}

// Backend returns the active backend.
func (d *DB) Backend() Backend {
	return d.backend
}

// Close releases the connection or pool. Callers close at most once, on
// shutdown; a second call may error.
func (d *DB) Close() error {
	d.state.Store(stateClosed)
	d.logger.Info("Database connection closed", "backend", d.backend.String())
	return d.sql.Close()
}

// Execute runs an insert, update, or delete written with universal `?`
// placeholders. Backend errors propagate wrapped but unclassified; there is
// no retry.
func (d *DB) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if d.state.Load() != stateReady {
		return Result{}, ErrNotReady
	}

	native := d.backend.rewritePlaceholders(query)

	// pgx does not implement LastInsertId; recover the generated id through
	// a returning clause instead.
	if d.backend == Postgres && isInsert(query) {
		var id int64
		if err := d.sql.QueryRowContext(ctx, native+" RETURNING id", args...).Scan(&id); err != nil {
			return Result{}, fmt.Errorf("query failed: %w", err)
		}
		return Result{LastInsertID: id, RowsAffected: 1}, nil
	}

	res, err := d.sql.ExecContext(ctx, native, args...)
	if err != nil {
		return Result{}, fmt.Errorf("query failed: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return Result{}, fmt.Errorf("query failed: %w", err)
	}

	result := Result{RowsAffected: affected}
	if isInsert(query) {
		if id, err := res.LastInsertId(); err == nil {
			result.LastInsertID = id
		}
	}
	return result, nil
}

// FetchOne returns the first matching row, or nil when no row matches.
func (d *DB) FetchOne(ctx context.Context, query string, args ...any) (Row, error) {
	rows, err := d.FetchMany(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// FetchMany returns every matching row in query-defined order.
func (d *DB) FetchMany(ctx context.Context, query string, args ...any) ([]Row, error) {
	if d.state.Load() != stateReady {
		return nil, ErrNotReady
	}

	rows, err := d.sql.QueryContext(ctx, d.backend.rewritePlaceholders(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	return out, nil
}

func isInsert(query string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(query)), "INSERT")
}
