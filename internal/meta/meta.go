// Package meta implements the bidirectional, transparent mapping between a
// user-visible 3-layer address and a stored namespace scoped by an optional
// meta-context prefix (spec.md §4.6). The address itself is never mutated;
// the meta context rides alongside it as a separate storage-selection key,
// which is injective and trivially reversible (stripping is simply "don't
// pass it back").
package meta

// Scope is the storage-direction key: which meta context (possibly none)
// selects the underlying namespace table. An empty Context means identity
// (no meta layer).
type Scope struct {
	Context string
}

// None is the zero-value scope: no meta context.
var None = Scope{}

// IsScoped reports whether this scope carries a meta context.
func (s Scope) IsScoped() bool { return s.Context != "" }

// Unscoped returns the equivalent scope with no meta context, used for the
// read-fallback policy (spec.md §4.6: "re-issue the read with no meta
// prefix exactly once").
func (s Scope) Unscoped() Scope { return None }
