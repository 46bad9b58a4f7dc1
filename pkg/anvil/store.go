// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: Apache-2.0

package anvil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store is Argos's embedded execution store. One writer at a time is
// allowed across the whole process. Reads do not run concurrently: each
// read takes the same process-wide mutex a writer holds for its whole
// transaction, and the pool is limited to one open connection.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	closed bool

	writersQueued atomic.Int64
}

// DefaultPath returns the default anvil database path for a project rooted
// at root: root/.anvil/history.db.
func DefaultPath(root string) string {
	return filepath.Join(root, ".anvil", "history.db")
}

// Open opens (creating if necessary) the anvil database at path and
// ensures its schema is current. logger may be nil, in which case
// slog.Default() is used.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	anvilMetrics.init()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, newError(KindCorruption, "open", fmt.Errorf("create data dir: %w", err))
	}

	logger.Info("anvil.store.open.start", "path", path)

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, newError(KindCorruption, "open", err)
	}
	// SQLite allows only one writer; the process-wide mutex below is the
	// real serialization point, but capping the pool avoids handing out a
	// second *sql.Conn that would otherwise just block inside the driver.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}

	if err := s.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("anvil.store.open.done", "path", path)
	return s, nil
}

// Close releases the underlying database handle. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("anvil.store.close", "path", s.path)
	return s.db.Close()
}

// WritersQueued reports how many goroutines are currently waiting to
// acquire the write lock. Exposed for health-check reporting (spec §4.8.1
// GET /healthz).
func (s *Store) WritersQueued() int64 {
	return s.writersQueued.Load()
}

// SchemaVersion reports the anvil schema generation this Store was opened
// against. Exposed for health-check reporting (spec §4.8.1 GET /healthz).
func (s *Store) SchemaVersion() int {
	return schemaVersion
}

func (s *Store) ensureSchema(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT version FROM anvil_schema_version WHERE id = 1`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows), isNoSuchTable(err):
		return s.createSchema(ctx)
	case err != nil:
		return newError(KindCorruption, "ensure_schema", err)
	}

	if version > schemaVersion {
		return newError(KindCorruption, "ensure_schema",
			fmt.Errorf("database schema version %d is newer than this binary supports (%d)", version, schemaVersion))
	}
	for v := version; v < schemaVersion; v++ {
		stmt, ok := migrations[v]
		if !ok {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return newError(KindCorruption, "migrate", fmt.Errorf("migration from v%d: %w", v, err))
		}
	}
	if version != schemaVersion {
		if _, err := s.db.ExecContext(ctx, `UPDATE anvil_schema_version SET version = ? WHERE id = 1`, schemaVersion); err != nil {
			return newError(KindCorruption, "migrate", err)
		}
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(KindBusy, "create_schema", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return newError(KindCorruption, "create_schema", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO anvil_schema_version (id, version) VALUES (1, ?)`, schemaVersion); err != nil {
		return newError(KindCorruption, "create_schema", err)
	}
	if err := tx.Commit(); err != nil {
		return newError(KindCorruption, "create_schema", err)
	}
	return nil
}

func isNoSuchTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}

// withWrite serializes fn against every other writer in the process and
// runs it inside a single transaction. fn's error, if any, is surfaced
// unwrapped if it is already an *Error, else wrapped as KindConstraint
// (the common case: a UNIQUE or FOREIGN KEY violation from SQLite).
func (s *Store) withWrite(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	s.writersQueued.Add(1)
	anvilMetrics.writersQueued.Set(float64(s.writersQueued.Load()))
	start := time.Now()

	s.mu.Lock()
	s.writersQueued.Add(-1)
	anvilMetrics.writersQueued.Set(float64(s.writersQueued.Load()))
	defer s.mu.Unlock()

	if s.closed {
		return newError(KindCorruption, op, fmt.Errorf("store is closed"))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		anvilMetrics.writeErrors.Inc()
		return newError(KindBusy, op, err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		anvilMetrics.writeErrors.Inc()
		var ae *Error
		if errors.As(err, &ae) {
			return ae
		}
		return newError(KindConstraint, op, err)
	}

	if err := tx.Commit(); err != nil {
		anvilMetrics.writeErrors.Inc()
		return newError(KindBusy, op, err)
	}

	anvilMetrics.writesTotal.Inc()
	anvilMetrics.writeDuration.Observe(time.Since(start).Seconds())
	return nil
}

// withRead runs fn against the shared *sql.DB. It takes the process-wide
// mutex, so a read waits for any writer's transaction to finish, and fn
// itself is serialized with other reads by the single-connection pool.
func (s *Store) withRead(ctx context.Context, op string, fn func(db *sql.DB) error) error {
	start := time.Now()
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return newError(KindCorruption, op, fmt.Errorf("store is closed"))
	}

	if err := fn(s.db); err != nil {
		var ae *Error
		if errors.As(err, &ae) {
			return ae
		}
		return newError(KindNotFound, op, err)
	}
	anvilMetrics.readsTotal.Inc()
	anvilMetrics.readDuration.Observe(time.Since(start).Seconds())
	return nil
}
