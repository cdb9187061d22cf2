// Package validate enforces ProntoDB's username and address-identifier
// constraints (spec.md §4.8).
package validate

import (
	"fmt"

	"github.com/prontodb/prontodb/internal/perr"
)

const (
	maxUsernameLen = 32
	// Delimiter is overridable per invocation; AddressComponent rejects
	// whatever delimiter the caller is currently using.
	ContextMarker = "__"
)

var reservedUsernames = map[string]bool{
	"default":  true,
	"prontodb": true,
	"pdb":      true,
	"main":     true,
	"rust":     true,
	"user":     true,
	"name":     true,
}

// Username checks the username rules: non-empty, <=32 chars, starts with a
// letter, [A-Za-z0-9_] only, not reserved.
func Username(name string) error {
	if name == "" {
		return &perr.InvalidIdentifier{Field: "username", Reason: "must not be empty"}
	}
	if len(name) > maxUsernameLen {
		return &perr.InvalidIdentifier{Field: "username", Reason: fmt.Sprintf("must be %d characters or fewer", maxUsernameLen)}
	}
	if !isLetter(rune(name[0])) {
		return &perr.InvalidIdentifier{Field: "username", Reason: "must start with a letter"}
	}
	for _, r := range name {
		if !isUsernameChar(r) {
			return &perr.InvalidIdentifier{Field: "username", Reason: fmt.Sprintf("contains invalid character %q", r)}
		}
	}
	if reservedUsernames[name] {
		return &perr.InvalidIdentifier{Field: "username", Reason: fmt.Sprintf("%q is a reserved word", name)}
	}
	return nil
}

// AddressComponent checks the project/namespace/key identifier rules:
// non-empty, no delimiter, no context marker.
func AddressComponent(field, value, delimiter string) error {
	if value == "" {
		return &perr.InvalidIdentifier{Field: field, Reason: "must not be empty"}
	}
	if delimiter != "" && contains(value, delimiter) {
		return &perr.InvalidIdentifier{Field: field, Reason: fmt.Sprintf("must not contain delimiter %q", delimiter)}
	}
	if contains(value, ContextMarker) {
		return &perr.InvalidIdentifier{Field: field, Reason: fmt.Sprintf("must not contain context marker %q", ContextMarker)}
	}
	return nil
}

// CursorName checks cursor-name rules. Cursor names share the identifier
// constraints (non-empty, no delimiter/context marker) but are not subject
// to the username reserved-word list.
func CursorName(name, delimiter string) error {
	return AddressComponent("cursor name", name, delimiter)
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isUsernameChar(r rune) bool {
	return isLetter(r) || (r >= '0' && r <= '9') || r == '_'
}

func contains(s, substr string) bool {
	if substr == "" {
		return false
	}
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
