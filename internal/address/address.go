// Package address parses ProntoDB's textual and flag-based addresses into
// a normalized (project, namespace, key, context) tuple (spec.md §4.1).
package address

import (
	"strings"

	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/validate"
)

// DefaultDelimiter is used when no override is supplied.
const DefaultDelimiter = "."

// DefaultSegment is substituted for the project/namespace segments when the
// abbreviated dotted forms are used.
const DefaultSegment = "default"

// Address is the normalized 4-tuple. Components are opaque strings; case is
// preserved.
type Address struct {
	Project   string
	Namespace string
	Key       string
	Context   string // empty means absent
}

// Parse converts address text into a normalized Address using delimiter
// (or DefaultDelimiter if empty). delimiter must be exactly one character.
func Parse(text, delimiter string) (Address, error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if len(delimiter) != 1 {
		return Address{}, &perr.InvalidAddress{Reason: "delimiter must be a single character"}
	}

	segments := strings.Split(text, delimiter)
	var project, namespace, keySeg string

	switch len(segments) {
	case 1:
		project, namespace, keySeg = DefaultSegment, DefaultSegment, segments[0]
	case 2:
		project, namespace, keySeg = DefaultSegment, segments[0], segments[1]
	case 3:
		project, namespace, keySeg = segments[0], segments[1], segments[2]
	default:
		return Address{}, &perr.InvalidAddress{Reason: "address must have 1 to 3 " + delimiter + "-delimited segments"}
	}

	if project == "" || namespace == "" || keySeg == "" {
		return Address{}, &perr.InvalidAddress{Reason: "address segments must not be empty"}
	}

	key, ctx := splitContext(keySeg)

	if strings.Contains(key, delimiter) {
		return Address{}, &perr.InvalidAddress{Reason: "key segment must not contain the delimiter after context split"}
	}
	if key == "" {
		return Address{}, &perr.InvalidAddress{Reason: "key must not be empty"}
	}

	return Address{Project: project, Namespace: namespace, Key: key, Context: ctx}, nil
}

// FromComponents builds an Address from explicit flag-supplied components,
// applying the abbreviated-form defaults when project/namespace are empty.
func FromComponents(project, namespace, key, context string) (Address, error) {
	if project == "" {
		project = DefaultSegment
	}
	if namespace == "" {
		namespace = DefaultSegment
	}
	if key == "" {
		return Address{}, &perr.InvalidAddress{Reason: "key must not be empty"}
	}
	return Address{Project: project, Namespace: namespace, Key: key, Context: context}, nil
}

// splitContext splits a key segment on the first "__" occurrence. The left
// side is the key, the right side (if present) is the context.
func splitContext(keySeg string) (key, context string) {
	idx := strings.Index(keySeg, validate.ContextMarker)
	if idx < 0 {
		return keySeg, ""
	}
	return keySeg[:idx], keySeg[idx+len(validate.ContextMarker):]
}

// Validate checks the parsed Address's components against the identifier
// rules (spec.md §4.8), given the delimiter in effect.
func (a Address) Validate(delimiter string) error {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if err := validate.AddressComponent("project", a.Project, delimiter); err != nil {
		return err
	}
	if err := validate.AddressComponent("namespace", a.Namespace, delimiter); err != nil {
		return err
	}
	if err := validate.AddressComponent("key", a.Key, delimiter); err != nil {
		return err
	}
	return nil
}

// String renders the canonical textual form: project.namespace.key[__context],
// using delimiter (or DefaultDelimiter). This is the canonical serializer
// used by the round-trip property in spec.md §8.
func (a Address) String(delimiter string) string {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	keySeg := a.Key
	if a.Context != "" {
		keySeg = a.Key + validate.ContextMarker + a.Context
	}
	return a.Project + delimiter + a.Namespace + delimiter + keySeg
}
