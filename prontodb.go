// Package prontodb provides a minimal public API for extending ProntoDB
// with custom orchestration.
//
// Most extensions should go through the prontodb CLI or drive
// internal/engine directly from within this module. This package exports
// only the essential types and functions needed for Go-based callers that
// want to open a ProntoDB database file programmatically.
package prontodb

import (
	"os"

	"github.com/prontodb/prontodb/internal/address"
	"github.com/prontodb/prontodb/internal/engine"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/pathresolver"
	"github.com/prontodb/prontodb/internal/storage"
	"github.com/prontodb/prontodb/internal/storage/sqlite"
)

// Address represents a normalized (project, namespace, key, context) tuple.
type Address = address.Address

// Scope selects the meta context a storage operation is isolated under.
type Scope = meta.Scope

// Record is a persisted value plus its lifecycle timestamps.
type Record = storage.Record

// Engine is the orchestrated operation surface: address parsing, meta
// isolation, TTL enforcement, and storage, wired together.
type Engine = engine.Engine

// Storage is the lower-level storage backend interface, exposed for
// callers that need direct table-scoped access rather than address-parsed
// operations.
type Storage = storage.Engine

// Open opens (creating if absent) the SQLite-backed database at dbPath and
// wraps it in an Engine using delimiter as the address delimiter (the
// package default "." is used if delimiter is empty).
func Open(dbPath, delimiter string) (*Engine, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, err
	}
	return engine.New(store, delimiter), nil
}

// NewSQLiteStorage opens a ProntoDB SQLite database for lower-level
// programmatic access, bypassing the address/meta/TTL orchestration layer.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return sqlite.New(dbPath)
}

// FindDatabasePath discovers the default ProntoDB database path using the
// standard resolution order:
//  1. PRONTO_DB environment variable (explicit override)
//  2. The default database under the resolved data root
//     ({data_root}/default/default.db, where data_root is PRONTO_DATA_HOME,
//     else $XDG_DATA_HOME/prontodb, else ~/.local/share/prontodb)
func FindDatabasePath() string {
	if explicit := os.Getenv(pathresolver.EnvDBPath); explicit != "" {
		return explicit
	}
	r := pathresolver.New()
	return r.Layout(pathresolver.DefaultDatabaseName).DBFile
}
