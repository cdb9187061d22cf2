// Package storage defines the interface for ProntoDB's storage backend
// (spec.md §4.2) and the value types it exchanges with callers.
package storage

import (
	"context"
	"time"

	"github.com/prontodb/prontodb/internal/meta"
)

// Key identifies a record within one (scope, project, namespace) table:
// the (key, context) pair.
type Key struct {
	Key     string
	Context string
}

// Record is a persisted value plus its lifecycle timestamps.
type Record struct {
	Key       Key
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt *time.Time
}

// Pair is a (key,context) paired with its value, returned by ScanPairs.
type Pair struct {
	Key   Key
	Value []byte
}

// NamespaceRef identifies one (scope, project, namespace) grouping.
type NamespaceRef struct {
	Scope     meta.Scope
	Project   string
	Namespace string
}

// WriteOptions controls a Set call.
type WriteOptions struct {
	// ExplicitTTLSeconds, if non-nil, requests a specific TTL for this
	// write rather than the namespace default.
	ExplicitTTLSeconds *int
}

// Engine is the Storage Engine interface (spec.md §4.2). All operations are
// scoped by a NamespaceRef's meta.Scope, so callers above this layer never
// need to know how the scope is encoded physically.
type Engine interface {
	// Set writes or updates a record. Creates the namespace implicitly
	// (as plain) if it doesn't exist yet.
	Set(ctx context.Context, ns NamespaceRef, key Key, value []byte, opts WriteOptions) error

	// Get returns the live record, or ok=false on MISS (absent or expired).
	// Expired records encountered here are reclaimed (lazily deleted).
	Get(ctx context.Context, ns NamespaceRef, key Key) (Record, bool, error)

	// Delete removes a record. existed=false is not an error.
	Delete(ctx context.Context, ns NamespaceRef, key Key) (existed bool, err error)

	// ListKeys returns (key,context) pairs sorted lexicographically,
	// optionally filtered by a key prefix.
	ListKeys(ctx context.Context, ns NamespaceRef, keyPrefix string) ([]Key, error)

	// ScanPairs returns (key,context)->value pairs sorted lexicographically
	// by (key,context), optionally filtered by a key prefix.
	ScanPairs(ctx context.Context, ns NamespaceRef, keyPrefix string) ([]Pair, error)

	// ListProjects returns deduplicated, sorted project names visible
	// under the given scope.
	ListProjects(ctx context.Context, scope meta.Scope) ([]string, error)

	// ListNamespaces returns deduplicated, sorted namespace names for a
	// project under the given scope.
	ListNamespaces(ctx context.Context, scope meta.Scope, project string) ([]string, error)

	// CreateTTLNamespace creates (or validates) a namespace with the given
	// default TTL. Errors if a namespace of the same name already exists
	// with a conflicting policy (plain vs TTL, or a different default).
	CreateTTLNamespace(ctx context.Context, ns NamespaceRef, defaultTTLSeconds int) error

	// NamespacePolicy returns the TTL policy for a namespace. ok=false if
	// the namespace has never been created (implicitly or explicitly).
	NamespacePolicy(ctx context.Context, ns NamespaceRef) (ttlSeconds *int, ok bool, err error)

	// Path returns the underlying database file path (for diagnostics).
	Path() string

	// Close releases the underlying connection.
	Close() error
}
