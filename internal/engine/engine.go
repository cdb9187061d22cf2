// Package engine wires the Address Parser, Meta Transformer, TTL
// Controller, and Storage Engine together into the operations a caller
// actually invokes: set, get, delete, keys, scan, projects, namespaces,
// create-ttl-ns, and the pipe-cache recovery copy. The Context Resolver
// runs one layer above this package, since it decides which database file
// (and therefore which *Engine) an invocation talks to in the first place.
package engine

import (
	"context"
	"time"

	"github.com/prontodb/prontodb/internal/address"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/pipecache"
	"github.com/prontodb/prontodb/internal/storage"
)

// Engine orchestrates one open storage backend for the duration of a
// single invocation.
type Engine struct {
	store     storage.Engine
	delimiter string
}

// New wraps an already-open storage.Engine. delimiter is the effective
// address delimiter for this invocation (PRONTO_DELIMITER or the default).
func New(store storage.Engine, delimiter string) *Engine {
	return &Engine{store: store, delimiter: delimiter}
}

// Close releases the underlying storage connection.
func (e *Engine) Close() error {
	return e.store.Close()
}

func (e *Engine) ns(scope meta.Scope, a address.Address) storage.NamespaceRef {
	return storage.NamespaceRef{Scope: scope, Project: a.Project, Namespace: a.Namespace}
}

func (e *Engine) parse(addrText string) (address.Address, error) {
	a, err := address.Parse(addrText, e.delimiter)
	if err != nil {
		return address.Address{}, err
	}
	if err := a.Validate(e.delimiter); err != nil {
		return address.Address{}, err
	}
	return a, nil
}

// Set writes value at addrText within scope. explicitTTLSeconds is nil
// unless the caller passed an explicit --ttl override.
func (e *Engine) Set(ctx context.Context, scope meta.Scope, addrText string, value []byte, explicitTTLSeconds *int) error {
	a, err := e.parse(addrText)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, e.ns(scope, a), storage.Key{Key: a.Key, Context: a.Context}, value, storage.WriteOptions{ExplicitTTLSeconds: explicitTTLSeconds})
}

// Get reads the value at addrText within scope. Per the read-fallback
// policy (spec.md §4.6), a miss under a scoped meta context is retried
// exactly once against the unscoped namespace before being reported as a
// MISS.
func (e *Engine) Get(ctx context.Context, scope meta.Scope, addrText string) ([]byte, error) {
	a, err := e.parse(addrText)
	if err != nil {
		return nil, err
	}

	key := storage.Key{Key: a.Key, Context: a.Context}
	rec, ok, err := e.store.Get(ctx, e.ns(scope, a), key)
	if err != nil {
		return nil, err
	}
	if ok {
		return rec.Value, nil
	}

	if scope.IsScoped() {
		rec, ok, err = e.store.Get(ctx, e.ns(scope.Unscoped(), a), key)
		if err != nil {
			return nil, err
		}
		if ok {
			return rec.Value, nil
		}
	}

	return nil, &perr.Miss{What: addrText}
}

// Delete removes the record at addrText within scope. Deletes never fall
// through to the unscoped namespace.
func (e *Engine) Delete(ctx context.Context, scope meta.Scope, addrText string) (bool, error) {
	a, err := e.parse(addrText)
	if err != nil {
		return false, err
	}
	return e.store.Delete(ctx, e.ns(scope, a), storage.Key{Key: a.Key, Context: a.Context})
}

// ListKeys lists (key, context) pairs under project.namespace, optionally
// filtered by keyPrefix.
func (e *Engine) ListKeys(ctx context.Context, scope meta.Scope, project, namespace, keyPrefix string) ([]storage.Key, error) {
	return e.store.ListKeys(ctx, storage.NamespaceRef{Scope: scope, Project: project, Namespace: namespace}, keyPrefix)
}

// ScanPairs lists (key, context) -> value pairs under project.namespace,
// optionally filtered by keyPrefix.
func (e *Engine) ScanPairs(ctx context.Context, scope meta.Scope, project, namespace, keyPrefix string) ([]storage.Pair, error) {
	return e.store.ScanPairs(ctx, storage.NamespaceRef{Scope: scope, Project: project, Namespace: namespace}, keyPrefix)
}

// ListProjects lists distinct project names visible under scope.
func (e *Engine) ListProjects(ctx context.Context, scope meta.Scope) ([]string, error) {
	return e.store.ListProjects(ctx, scope)
}

// ListNamespaces lists distinct namespace names for project under scope.
func (e *Engine) ListNamespaces(ctx context.Context, scope meta.Scope, project string) ([]string, error) {
	return e.store.ListNamespaces(ctx, scope, project)
}

// CreateTTLNamespace creates project.namespace within scope as a TTL
// namespace with the given default TTL in seconds.
func (e *Engine) CreateTTLNamespace(ctx context.Context, scope meta.Scope, project, namespace string, ttlSeconds int) error {
	return e.store.CreateTTLNamespace(ctx, storage.NamespaceRef{Scope: scope, Project: project, Namespace: namespace}, ttlSeconds)
}

// HandlePipeCacheFallback persists payload under a deterministic recovery
// key inside the reserved pipe-cache namespace, used when Set fails with
// InvalidAddress and stdin carried piped content (spec.md §4.7). Returns
// the full recovery key text to surface to the caller.
func (e *Engine) HandlePipeCacheFallback(ctx context.Context, scope meta.Scope, payload []byte, originalAddressText string, now time.Time) (string, error) {
	return pipecache.Store(ctx, e.store, scope, payload, originalAddressText, now)
}

// Copy implements the pipe-cache recovery operation (spec.md §4.7): read
// sourceAddrText, write it to destAddrText, and — if the source sits under
// the reserved pipe-cache namespace — delete the source after a successful
// write.
func (e *Engine) Copy(ctx context.Context, scope meta.Scope, sourceAddrText, destAddrText string) error {
	srcAddr, err := e.parse(sourceAddrText)
	if err != nil {
		return err
	}

	srcKey := storage.Key{Key: srcAddr.Key, Context: srcAddr.Context}
	rec, ok, err := e.store.Get(ctx, e.ns(scope, srcAddr), srcKey)
	if err != nil {
		return err
	}
	if !ok {
		return &perr.Miss{What: sourceAddrText}
	}

	if err := e.Set(ctx, scope, destAddrText, rec.Value, nil); err != nil {
		return err
	}

	if pipecache.IsReserved(srcAddr) {
		if _, err := e.store.Delete(ctx, e.ns(scope, srcAddr), srcKey); err != nil {
			return err
		}
	}
	return nil
}
