// Package storage is the sole source of truth for simulation state: a
// local SQLite file opened in WAL mode, four repositories (world, agents,
// objects, conversations), a checkpoint-and-copy snapshot manager, and an
// append-only JSON-lines audit log. Shaped on tarsy's pkg/database client
// (embedded golang-migrate migrations, a Client wrapper around the raw
// connection) with the Postgres driver swapped for mattn/go-sqlite3,
// since this database's own operating model — WAL journaling, a single
// embedded file, checkpoint-then-copy snapshots — is SQLite's native
// model rather than a networked server's.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	sqlite3m "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"github.com/codeready-toolchain/hearth/internal/apperr"
)

//go:embed migrations
var migrationsFS embed.FS

// Client wraps the raw SQLite connection and exposes the transaction
// scope every repository writes through.
type Client struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// inTx is never set or read: nested Transaction calls are detected
	// through the transaction carried on ctx instead (see Transaction).
	inTx bool
}

// NewClient opens (and if necessary creates) the SQLite database at path,
// enables WAL journaling and foreign keys, and applies every pending
// migration.
func NewClient(ctx context.Context, path string, logger *slog.Logger) (*Client, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: one writer; repositories serialize through Client.

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	if err := runMigrations(db, path); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Client{db: db, path: path, logger: logger}, nil
}

// DB returns the underlying connection for read-only queries issued
// directly by repositories.
func (c *Client) DB() *sql.DB { return c.db }

// Path is the on-disk location of the database file (used by the
// snapshot manager).
func (c *Client) Path() string { return c.path }

// Close releases the underlying connection.
func (c *Client) Close() error { return c.db.Close() }

// Querier is satisfied by both *sql.DB and *sql.Tx, letting repository
// methods run unchanged whether or not they're inside a transaction()
// scope.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txKey struct{}

// querierFrom returns the transaction on ctx if Transaction is active,
// otherwise the Client's plain connection.
func (c *Client) querierFrom(ctx context.Context) Querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return c.db
}

// Transaction runs fn within a single ACID transaction: commits on a nil
// return, rolls back otherwise. Calling Transaction again from within fn
// (detected via ctx already carrying a transaction) is a programmer error
// and fails fast with apperr.ErrTransaction rather than silently
// flattening — the storage design requires flat transactions only.
func (c *Client) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, nested := ctx.Value(txKey{}).(*sql.Tx); nested {
		return apperr.Transactionf("nested transaction")
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Transactionf("begin transaction: %w", err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			c.logger.Error("rollback failed", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperr.Transactionf("commit transaction: %w", err)
	}
	return nil
}

func runMigrations(db *sql.DB, dbName string) error {
	driver, err := sqlite3m.WithInstance(db, &sqlite3m.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite3 migrate driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}
	defer sourceDriver.Close()

	m, err := migrate.NewWithInstance("iofs", sourceDriver, dbName, driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
