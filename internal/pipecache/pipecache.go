// Package pipecache implements the Pipe-Cache Fallback (spec.md §4.7):
// when a write is attempted with a malformed address and standard input
// carries piped content, the payload is persisted under a deterministic,
// TTL-bounded recovery key instead of being lost.
package pipecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	"github.com/prontodb/prontodb/internal/address"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/storage"
	"github.com/prontodb/prontodb/internal/ttlpolicy"
)

// ReservedProject and ReservedNamespace together name the reserved
// pipe-cache namespace: every recovery key lives under "pipe.cache.*".
const (
	ReservedProject   = "pipe"
	ReservedNamespace = "cache"
)

var nonWord = regexp.MustCompile(`\W`)

// Namespace returns the NamespaceRef for the reserved pipe-cache namespace,
// scoped (or not) the same way the triggering write was scoped.
func Namespace(scope meta.Scope) storage.NamespaceRef {
	return storage.NamespaceRef{Scope: scope, Project: ReservedProject, Namespace: ReservedNamespace}
}

// IsReserved reports whether an address falls under the reserved pipe-cache
// namespace, used by the copy/recovery operation to decide whether to
// delete the source after a successful copy (spec.md §4.7).
func IsReserved(a address.Address) bool {
	return a.Project == ReservedProject && a.Namespace == ReservedNamespace
}

// ShouldTrigger implements the trigger predicate from spec.md §4.7: the
// address parser failed, AND stdin is not a terminal, AND stdin is
// non-empty. stdinLen is measured after fully draining stdin into a buffer.
func ShouldTrigger(parseFailed bool, stdinIsTTY bool, stdinLen int) bool {
	return parseFailed && !stdinIsTTY && stdinLen > 0
}

// RecoveryKey computes the deterministic recovery key for a rescued
// payload: "pipe.cache.{unix_seconds}_{hash8}_{sanitized_original_address}".
func RecoveryKey(now time.Time, payload []byte, originalAddressText string) string {
	sum := sha256.Sum256(payload)
	hash8 := hex.EncodeToString(sum[:])[:8]
	sanitized := nonWord.ReplaceAllString(originalAddressText, "_")
	return fmt.Sprintf("pipe.cache.%d_%s_%s", now.Unix(), hash8, sanitized)
}

// Store persists payload under its deterministic recovery key inside the
// reserved TTL namespace (creating the namespace if absent), and returns
// the full recovery key text. scope is the meta scope the triggering write
// was resolved under; the pipe-cache rescue stays within that same scope.
func Store(ctx context.Context, engine storage.Engine, scope meta.Scope, payload []byte, originalAddressText string, now time.Time) (string, error) {
	ns := Namespace(scope)

	if ttlSeconds, ok, err := engine.NamespacePolicy(ctx, ns); err != nil {
		return "", err
	} else if !ok || ttlSeconds == nil {
		if err := engine.CreateTTLNamespace(ctx, ns, ttlpolicy.PipeCacheTTLSeconds); err != nil {
			return "", err
		}
	}

	recoveryText := RecoveryKey(now, payload, originalAddressText)
	a, err := address.Parse(recoveryText, "")
	if err != nil {
		return "", fmt.Errorf("internal error: generated recovery key %q does not parse: %w", recoveryText, err)
	}

	if err := engine.Set(ctx, ns, storage.Key{Key: a.Key, Context: a.Context}, payload, storage.WriteOptions{}); err != nil {
		return "", err
	}
	return recoveryText, nil
}
