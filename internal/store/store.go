// Package store provides the durable key/value store for hyperlocal.
//
// DB is a SQLite database holding opaque JSON records grouped into logical
// stores. Adapter sits in front of it and owns the single shared connection.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SchemaVersion is written to PRAGMA user_version on first open. A handle
// that sees a different value mid-session treats it as a version change and
// closes itself.
const SchemaVersion = 1

// DefaultStore is the logical store the Adapter uses for every record.
const DefaultStore = "records"

var (
	// ErrClosing is returned by a transaction on a handle that is closed or
	// in the middle of closing.
	ErrClosing = errors.New("store: connection is closing")

	// ErrVersionChange means another writer changed the schema version.
	ErrVersionChange = fmt.Errorf("%w: schema version changed", ErrClosing)
)

// DB is one open handle on the database file. NOT shared directly: callers
// reach it through an Adapter.
// Thread-safety: all methods are safe for concurrent use.
type DB struct {
	db        *sql.DB
	path      string
	done      chan struct{}
	closeOnce sync.Once
}

// Open opens (creating if needed) the database at dbPath.
// ":memory:" gives a private in-memory database; uri names of the form
// "file:name?mode=memory&cache=shared" can be reopened within the process.
func Open(ctx context.Context, dbPath string) (*DB, error) {
	connStr := dbPath
	inMemory := dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory")
	if dbPath == ":memory:" {
		connStr = "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !inMemory {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	d := &DB{db: db, path: dbPath, done: make(chan struct{})}
	if err := d.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return d, nil
}

func (d *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		store TEXT NOT NULL,
		key TEXT NOT NULL,
		value BLOB NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (store, key)
	);
	`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	var version int
	if err := d.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}
	switch {
	case version == 0:
		if _, err := d.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	case version != SchemaVersion:
		return fmt.Errorf("database has schema version %d, want %d", version, SchemaVersion)
	}
	return nil
}

// Get reads one record inside its own transaction. A missing key is
// (nil, false, nil).
func (d *DB) Get(ctx context.Context, store, key string) ([]byte, bool, error) {
	var value []byte
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			"SELECT value FROM records WHERE store = ? AND key = ?", store, key).Scan(&value)
		if errors.Is(err, sql.ErrNoRows) {
			value = nil
			return nil
		}
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return value, value != nil, nil
}

// Put writes one record inside its own transaction, replacing any previous value.
func (d *DB) Put(ctx context.Context, store, key string, value []byte) error {
	return d.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO records (store, key, value, updated_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(store, key) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, store, key, value, time.Now().UTC())
		return err
	})
}

// Keys lists the keys of one logical store in key order.
func (d *DB) Keys(ctx context.Context, store string) ([]string, error) {
	var keys []string
	err := d.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, "SELECT key FROM records WHERE store = ? ORDER BY key", store)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var k string
			if err := rows.Scan(&k); err != nil {
				return err
			}
			keys = append(keys, k)
		}
		return rows.Err()
	})
	return keys, err
}

// inTx runs fn in a transaction after checking the schema version.
// Errors caused by a closed handle are reported as ErrClosing.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if d.closed() {
		return ErrClosing
	}
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return d.classify(err)
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return d.classify(err)
	}
	if version != SchemaVersion {
		tx.Rollback()
		d.Close()
		return ErrVersionChange
	}

	if err := fn(tx); err != nil {
		return d.classify(err)
	}
	return d.classify(tx.Commit())
}

func (d *DB) classify(err error) error {
	if err == nil {
		return nil
	}
	if d.closed() || IsClosing(err) {
		return fmt.Errorf("%w: %v", ErrClosing, err)
	}
	return err
}

func (d *DB) closed() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Done is closed once the handle is closed, by Close or by a version change.
func (d *DB) Done() <-chan struct{} {
	return d.done
}

// Close closes the handle. Safe to call more than once.
func (d *DB) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		err = d.db.Close()
	})
	return err
}

// IsClosing reports whether err means the handle went away underneath the
// caller, as opposed to a failure of the operation itself.
func IsClosing(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrClosing) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, sql.ErrTxDone) {
		return true
	}
	// database/sql does not export its "database is closed" error.
	return strings.Contains(err.Error(), "database is closed")
}
