// Package ttlpolicy implements the TTL Controller: namespace-level TTL
// policy and the rule predicate for write-time enforcement (spec.md §4.3).
// Lazy expiry itself is realized by the Storage Engine at read time, which
// consults Expired here.
package ttlpolicy

import (
	"time"

	"github.com/prontodb/prontodb/internal/perr"
)

// Policy describes one namespace's TTL configuration. A nil DefaultSeconds
// means "plain namespace": records never expire.
type Policy struct {
	DefaultSeconds *int
}

// IsTTL reports whether the namespace carries a TTL policy.
func (p Policy) IsTTL() bool { return p.DefaultSeconds != nil }

// ValidateSeconds checks the numeric semantics: TTL seconds must be a
// positive integer.
func ValidateSeconds(seconds int) error {
	if seconds <= 0 {
		return &perr.TtlNotAllowed{Reason: "ttl seconds must be a positive integer"}
	}
	return nil
}

// ResolveExpiry computes expires_at for a write, given the namespace policy
// and an optional explicit per-write TTL override (nil means "use the
// namespace default"). Returns (nil, nil) for a plain-namespace write with
// no explicit TTL. Returns an error if an explicit TTL is given against a
// plain namespace, or if the TTL that applies (the explicit one when given,
// otherwise the namespace default) is non-positive.
func ResolveExpiry(now time.Time, policy Policy, explicitSeconds *int) (*time.Time, error) {
	if explicitSeconds != nil {
		if err := ValidateSeconds(*explicitSeconds); err != nil {
			return nil, err
		}
		if !policy.IsTTL() {
			return nil, &perr.TtlNotAllowed{Reason: "explicit ttl given for a plain namespace"}
		}
		exp := now.Add(time.Duration(*explicitSeconds) * time.Second)
		return &exp, nil
	}

	if !policy.IsTTL() {
		return nil, nil
	}

	if err := ValidateSeconds(*policy.DefaultSeconds); err != nil {
		return nil, err
	}
	exp := now.Add(time.Duration(*policy.DefaultSeconds) * time.Second)
	return &exp, nil
}

// Expired reports whether a record with the given expires_at (nil meaning
// "never expires") is expired as of now. Lazy-expiry semantics: a record
// expiring exactly at now is treated as expired (spec.md §4.3: "<= now").
func Expired(expiresAt *time.Time, now time.Time) bool {
	if expiresAt == nil {
		return false
	}
	return !expiresAt.After(now)
}

// PipeCacheTTLSeconds is the fixed default TTL for the reserved pipe-cache
// namespace (spec.md §4.7): 15 minutes.
const PipeCacheTTLSeconds = 900
