// Package sqlite implements the Storage Engine (spec.md §4.2) on top of
// an embedded modernc.org/sqlite database: one data table per
// (meta_context, project, namespace) triple, plus system tables tracking
// namespace TTL policy.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prontodb/prontodb/internal/dblock"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/storage"
	"github.com/prontodb/prontodb/internal/ttlpolicy"
	_ "modernc.org/sqlite"
)

// ddlLockTimeout bounds how long ensureNamespace waits on another OS
// process's dblock hold before giving up; DDL for a single table is fast,
// so this only needs to cover the brief window another process spends
// creating the same namespace.
const ddlLockTimeout = 5 * time.Second
const ddlLockRetryInterval = 25 * time.Millisecond

// SQLiteStorage implements storage.Engine using SQLite.
type SQLiteStorage struct {
	db     *sql.DB
	dbPath string
	closed atomic.Bool

	// tableMu serializes the check-then-create-table path so two
	// concurrent first-writes to the same namespace don't race on DDL.
	tableMu sync.Mutex
}

var _ storage.Engine = (*SQLiteStorage)(nil)

// busyTimeoutMillis is the SQLite busy_timeout: how long a writer waits on
// a lock held by another connection before giving up. Spec.md §5 requires
// at least 5 seconds; beads used 30s for its heavier write patterns, but
// ProntoDB's single-row writes are quick, so we keep closer to the floor
// while leaving headroom.
const busyTimeoutMillis = 10000

// New opens (creating if necessary) the ProntoDB database file at path.
func New(path string) (*SQLiteStorage, error) {
	dbPath := path
	if path == ":memory:" {
		dbPath = "file::memory:?cache=shared"
	}

	if !strings.Contains(dbPath, ":memory:") {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// _pragma=journal_mode(WAL) gives durable, concurrent-reader semantics;
	// busy_timeout makes writers retry transparently before surfacing a
	// lock error, per spec.md §5.
	connStr := dbPath
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	connStr += fmt.Sprintf("%s_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_time_format=sqlite", sep, busyTimeoutMillis)

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		if path == ":memory:" {
			absPath = path
		} else {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
	}

	return &SQLiteStorage{db: db, dbPath: absPath}, nil
}

// Path returns the underlying database file path.
func (s *SQLiteStorage) Path() string { return s.dbPath }

// Close releases the underlying connection. Safe to call more than once.
func (s *SQLiteStorage) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		return s.db.Close()
	}
	return nil
}

// tableName derives an injection-safe physical table name for a logical
// (scope, project, namespace) triple. Deterministic: the same triple always
// maps to the same table, which is what lets namespace lookups be a cheap
// indexed read on the namespaces system table.
func tableName(scope meta.Scope, project, namespace string) string {
	h := sha256.Sum256([]byte(scope.Context + "\x00" + project + "\x00" + namespace))
	return "kv_" + hex.EncodeToString(h[:])[:24]
}

// namespaceRow is the namespaces system-table row for one (scope,project,namespace).
type namespaceRow struct {
	tableName  string
	ttlSeconds *int
}

// lookupNamespace returns the system-table row for ns, or ok=false if it
// has never been created.
func (s *SQLiteStorage) lookupNamespace(ctx context.Context, ns storage.NamespaceRef) (namespaceRow, bool, error) {
	var row namespaceRow
	err := s.db.QueryRowContext(ctx, `
		SELECT table_name, ttl_default_seconds FROM namespaces
		WHERE meta_context = ? AND project = ? AND namespace = ?
	`, ns.Scope.Context, ns.Project, ns.Namespace).Scan(&row.tableName, &row.ttlSeconds)
	if err == sql.ErrNoRows {
		return namespaceRow{}, false, nil
	}
	if err != nil {
		return namespaceRow{}, false, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return row, true, nil
}

// acquireDDLLock takes the cross-process advisory lock on this database
// file, retrying while another process holds it (it is expected to be
// mid-CREATE TABLE, not stuck) until ddlLockTimeout or ctx expires. A
// ":memory:" database has no other OS process to race with, so it skips
// the file lock entirely rather than creating a nonsensical lock file.
func (s *SQLiteStorage) acquireDDLLock(ctx context.Context) (*dblock.Lock, error) {
	if strings.Contains(s.dbPath, ":memory:") {
		return nil, nil
	}

	deadline := time.Now().Add(ddlLockTimeout)
	for {
		lock, err := dblock.Acquire(s.dbPath)
		if err == nil {
			return lock, nil
		}
		if !errors.Is(err, dblock.ErrLocked) {
			return nil, err
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(ddlLockRetryInterval):
		}
	}
}

// ensureNamespace returns the system-table row for ns, creating it as a
// plain namespace if it doesn't exist yet (spec.md §4.2 "writing to a
// namespace that does not yet exist implicitly creates a non-TTL
// namespace").
func (s *SQLiteStorage) ensureNamespace(ctx context.Context, ns storage.NamespaceRef) (namespaceRow, error) {
	if row, ok, err := s.lookupNamespace(ctx, ns); err != nil {
		return namespaceRow{}, err
	} else if ok {
		return row, nil
	}

	s.tableMu.Lock()
	defer s.tableMu.Unlock()

	// Re-check under the lock: another writer may have created it while
	// we were waiting.
	if row, ok, err := s.lookupNamespace(ctx, ns); err != nil {
		return namespaceRow{}, err
	} else if ok {
		return row, nil
	}

	// tableMu only serializes goroutines inside this process; the dblock
	// advisory lock on the database file serializes the same race across
	// concurrent OS processes racing to create the same namespace.
	lock, err := s.acquireDDLLock(ctx)
	if err != nil {
		return namespaceRow{}, &perr.Storage{DBPath: s.dbPath, Err: fmt.Errorf("acquiring namespace creation lock: %w", err)}
	}
	defer func() { _ = lock.Release() }()

	// Re-check once more: another process may have created it while we
	// were waiting on the cross-process lock.
	if row, ok, err := s.lookupNamespace(ctx, ns); err != nil {
		return namespaceRow{}, err
	} else if ok {
		return row, nil
	}

	table := tableName(ns.Scope, ns.Project, ns.Namespace)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, dataTableDDL(table)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO namespaces (meta_context, project, namespace, table_name, ttl_default_seconds)
			VALUES (?, ?, ?, ?, NULL)
		`, ns.Scope.Context, ns.Project, ns.Namespace, table)
		return err
	})
	if err != nil && !isUniqueConstraintError(err) {
		return namespaceRow{}, &perr.Storage{DBPath: s.dbPath, Err: err}
	}

	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return namespaceRow{}, err
	}
	if !ok {
		return namespaceRow{}, &perr.Storage{DBPath: s.dbPath, Err: fmt.Errorf("namespace vanished after creation")}
	}
	return row, nil
}

// CreateTTLNamespace implements storage.Engine.
func (s *SQLiteStorage) CreateTTLNamespace(ctx context.Context, ns storage.NamespaceRef, defaultTTLSeconds int) error {
	if err := ttlpolicy.ValidateSeconds(defaultTTLSeconds); err != nil {
		return err
	}

	checkExisting := func() (namespaceRow, bool, error) { return s.lookupNamespace(ctx, ns) }

	existing, ok, err := checkExisting()
	if err != nil {
		return err
	}
	if ok {
		return ttlNamespaceAlreadyExists(ns, existing, defaultTTLSeconds)
	}

	s.tableMu.Lock()
	defer s.tableMu.Unlock()

	if existing, ok, err = checkExisting(); err != nil {
		return err
	} else if ok {
		return ttlNamespaceAlreadyExists(ns, existing, defaultTTLSeconds)
	}

	lock, err := s.acquireDDLLock(ctx)
	if err != nil {
		return &perr.Storage{DBPath: s.dbPath, Err: fmt.Errorf("acquiring namespace creation lock: %w", err)}
	}
	defer func() { _ = lock.Release() }()

	if existing, ok, err = checkExisting(); err != nil {
		return err
	} else if ok {
		return ttlNamespaceAlreadyExists(ns, existing, defaultTTLSeconds)
	}

	table := tableName(ns.Scope, ns.Project, ns.Namespace)
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, dataTableDDL(table)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO namespaces (meta_context, project, namespace, table_name, ttl_default_seconds)
			VALUES (?, ?, ?, ?, ?)
		`, ns.Scope.Context, ns.Project, ns.Namespace, table, defaultTTLSeconds)
		return err
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return &perr.TtlNotAllowed{Reason: fmt.Sprintf("namespace %s.%s was just created concurrently", ns.Project, ns.Namespace)}
		}
		return &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return nil
}

// ttlNamespaceAlreadyExists reports whether an already-created namespace
// row is compatible with a CreateTTLNamespace request for defaultTTLSeconds.
func ttlNamespaceAlreadyExists(ns storage.NamespaceRef, existing namespaceRow, defaultTTLSeconds int) error {
	if existing.ttlSeconds == nil {
		return &perr.TtlNotAllowed{Reason: fmt.Sprintf("namespace %s.%s already exists as a plain namespace", ns.Project, ns.Namespace)}
	}
	if *existing.ttlSeconds != defaultTTLSeconds {
		return &perr.TtlNotAllowed{Reason: fmt.Sprintf("namespace %s.%s already exists with ttl_default_seconds=%d", ns.Project, ns.Namespace, *existing.ttlSeconds)}
	}
	return nil
}

// NamespacePolicy implements storage.Engine.
func (s *SQLiteStorage) NamespacePolicy(ctx context.Context, ns storage.NamespaceRef) (*int, bool, error) {
	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return row.ttlSeconds, true, nil
}

// Set implements storage.Engine.
func (s *SQLiteStorage) Set(ctx context.Context, ns storage.NamespaceRef, key storage.Key, value []byte, opts storage.WriteOptions) error {
	row, err := s.ensureNamespace(ctx, ns)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	expiresAt, err := ttlpolicy.ResolveExpiry(now, ttlpolicy.Policy{DefaultSeconds: row.ttlSeconds}, opts.ExplicitTTLSeconds)
	if err != nil {
		return err
	}

	q := fmt.Sprintf(`
		INSERT INTO %s (key, context, value, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key, context) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at
	`, quoteIdent(row.tableName))

	_, err = s.db.ExecContext(ctx, q, key.Key, key.Context, value, now, now, expiresAt)
	if err != nil {
		return &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return nil
}

// Get implements storage.Engine.
func (s *SQLiteStorage) Get(ctx context.Context, ns storage.NamespaceRef, key storage.Key) (storage.Record, bool, error) {
	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return storage.Record{}, false, err
	}
	if !ok {
		return storage.Record{}, false, nil
	}

	q := fmt.Sprintf(`
		SELECT value, created_at, updated_at, expires_at FROM %s
		WHERE key = ? AND context = ?
	`, quoteIdent(row.tableName))

	var rec storage.Record
	var expiresAt sql.NullTime
	var value []byte
	err = s.db.QueryRowContext(ctx, q, key.Key, key.Context).Scan(&value, &rec.CreatedAt, &rec.UpdatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return storage.Record{}, false, nil
	}
	if err != nil {
		return storage.Record{}, false, &perr.Storage{DBPath: s.dbPath, Err: err}
	}

	rec.Key = key
	rec.Value = value
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}

	if ttlpolicy.Expired(rec.ExpiresAt, time.Now().UTC()) {
		// Lazy expiry: reclaim on read, treat as MISS.
		_, _ = s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ? AND context = ?`, quoteIdent(row.tableName)), key.Key, key.Context)
		return storage.Record{}, false, nil
	}

	return rec, true, nil
}

// Delete implements storage.Engine.
func (s *SQLiteStorage) Delete(ctx context.Context, ns storage.NamespaceRef, key storage.Key) (bool, error) {
	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	q := fmt.Sprintf(`DELETE FROM %s WHERE key = ? AND context = ?`, quoteIdent(row.tableName))
	res, err := s.db.ExecContext(ctx, q, key.Key, key.Context)
	if err != nil {
		return false, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return n > 0, nil
}

// ListKeys implements storage.Engine.
func (s *SQLiteStorage) ListKeys(ctx context.Context, ns storage.NamespaceRef, keyPrefix string) ([]storage.Key, error) {
	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	now := time.Now().UTC()
	q := fmt.Sprintf(`
		SELECT key, context FROM %s
		WHERE key LIKE ? ESCAPE '\' AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key ASC, context ASC
	`, quoteIdent(row.tableName))

	rows, err := s.db.QueryContext(ctx, q, likePrefix(keyPrefix), now)
	if err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	defer rows.Close()

	var out []storage.Key
	for rows.Next() {
		var k storage.Key
		if err := rows.Scan(&k.Key, &k.Context); err != nil {
			return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
		}
		out = append(out, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return out, nil
}

// ScanPairs implements storage.Engine.
func (s *SQLiteStorage) ScanPairs(ctx context.Context, ns storage.NamespaceRef, keyPrefix string) ([]storage.Pair, error) {
	row, ok, err := s.lookupNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	now := time.Now().UTC()
	q := fmt.Sprintf(`
		SELECT key, context, value FROM %s
		WHERE key LIKE ? ESCAPE '\' AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key ASC, context ASC
	`, quoteIdent(row.tableName))

	rows, err := s.db.QueryContext(ctx, q, likePrefix(keyPrefix), now)
	if err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	defer rows.Close()

	var out []storage.Pair
	for rows.Next() {
		var p storage.Pair
		if err := rows.Scan(&p.Key.Key, &p.Key.Context, &p.Value); err != nil {
			return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	return out, nil
}

// ListProjects implements storage.Engine.
func (s *SQLiteStorage) ListProjects(ctx context.Context, scope meta.Scope) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT project FROM namespaces WHERE meta_context = ? ORDER BY project ASC
	`, scope.Context)
	if err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, rows.Err()
}

// ListNamespaces implements storage.Engine.
func (s *SQLiteStorage) ListNamespaces(ctx context.Context, scope meta.Scope, project string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT namespace FROM namespaces WHERE meta_context = ? AND project = ? ORDER BY namespace ASC
	`, scope.Context, project)
	if err != nil {
		return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, &perr.Storage{DBPath: s.dbPath, Err: err}
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, rows.Err()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// likePrefix turns a plain prefix into a LIKE pattern, escaping LIKE's own
// wildcard characters so a key literally containing "%" or "_" doesn't
// behave like a wildcard.
func likePrefix(prefix string) string {
	if prefix == "" {
		return "%"
	}
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}
