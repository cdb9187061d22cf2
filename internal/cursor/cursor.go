// Package cursor implements the Cursor Store (spec.md §4.4): persistent
// per-user sessions binding a logical cursor name to a database path and
// optional meta context. A Store reads and writes the cursors directory it
// is constructed with; the CLI and internal/resolve root every Store at the
// default database's cursors directory, so a cursor file does not sit
// beside, or move with, the database it names.
//
// Each cursor is one file named "{name}.{owner}.cursor" so listing
// operations can filter by owner without reading file content, the same
// way beads derives daemon lock/pid filenames from structured identity
// rather than parsing contents. Files are replaced atomically via
// write-to-temp-then-rename, the idiom used throughout cmd/bd for JSONL
// and snapshot writes.
package cursor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/validate"
)

// Record is one cursor's persisted state (spec.md §3, §4.4).
type Record struct {
	CursorID         string     `json:"cursor_id"`
	Name             string     `json:"-"` // derived from filename, not persisted twice
	OwnerUser        string     `json:"owner_user"`
	DatabasePath     string     `json:"database_path"`
	DefaultProject   string     `json:"default_project,omitempty"`
	DefaultNamespace string     `json:"default_namespace,omitempty"`
	MetaContext      string     `json:"meta_context,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Store operates on cursor files under one database's cursors directory.
type Store struct {
	dir string
}

// New returns a Store rooted at a database's cursors directory
// (pathresolver.Layout.CursorsDir).
func New(cursorsDir string) *Store {
	return &Store{dir: cursorsDir}
}

// SetOptions carries the optional fields of a cursor write.
type SetOptions struct {
	DefaultProject   string
	DefaultNamespace string
	MetaContext      string
}

// Set creates or replaces the named cursor owned by owner. Last writer
// wins per (name, owner), matching spec.md §5's "cursor files ... last
// writer wins per cursor name" (scoped additionally by owner here, since
// ProntoDB isolates cursors per-user).
func (s *Store) Set(name, owner, databasePath string, opts SetOptions) error {
	if err := validateFilenameComponent("cursor name", name); err != nil {
		return err
	}
	if err := validateFilenameComponent("owner", owner); err != nil {
		return err
	}
	if databasePath == "" {
		return &perr.InvalidIdentifier{Field: "database_path", Reason: "must not be empty"}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &perr.PermissionDenied{Path: s.dir, Err: err}
	}

	rec := Record{
		CursorID:         uuid.NewString(),
		OwnerUser:        owner,
		DatabasePath:     databasePath,
		DefaultProject:   opts.DefaultProject,
		DefaultNamespace: opts.DefaultNamespace,
		MetaContext:      opts.MetaContext,
		CreatedAt:        time.Now().UTC(),
	}

	// Preserve created_at across overwrites of an existing cursor.
	if existing, ok, err := s.Get(name, owner); err == nil && ok {
		rec.CreatedAt = existing.CreatedAt
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cursor record: %w", err)
	}

	path := s.path(name, owner)
	tempPath := fmt.Sprintf("%s.%d.tmp", path, os.Getpid())
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return &perr.PermissionDenied{Path: path, Err: err}
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return &perr.PermissionDenied{Path: path, Err: err}
	}
	return nil
}

// Get returns the named cursor owned by owner, or ok=false on MISS.
// Isolation rule: a cursor owned by another user is never returned, since
// the filename itself is scoped to owner.
func (s *Store) Get(name, owner string) (Record, bool, error) {
	path := s.path(name, owner)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, &perr.PermissionDenied{Path: path, Err: err}
	}

	rec, err := parseRecord(data)
	if err != nil {
		return Record{}, false, fmt.Errorf("corrupt cursor file %s: %w", path, err)
	}
	rec.Name = name
	rec.OwnerUser = owner
	return rec, true, nil
}

// List returns every cursor owned by owner, sorted by name. databaseFilter,
// if non-empty, restricts results to cursors whose DatabasePath matches.
func (s *Store) List(owner, databaseFilter string) ([]Record, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &perr.PermissionDenied{Path: s.dir, Err: err}
	}

	suffix := "." + owner + ".cursor"
	var out []Record
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), suffix)

		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue // unreadable cursor files are tolerated as MISS, per spec.md §5
		}
		rec, err := parseRecord(data)
		if err != nil {
			continue
		}
		rec.Name = name
		rec.OwnerUser = owner

		if databaseFilter != "" && rec.DatabasePath != databaseFilter {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Delete removes the named cursor owned by owner. existed=false is not an
// error.
func (s *Store) Delete(name, owner string) (bool, error) {
	path := s.path(name, owner)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &perr.PermissionDenied{Path: path, Err: err}
	}
	return true, nil
}

func (s *Store) path(name, owner string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.cursor", name, owner))
}

// parseRecord reads either the structured JSON form or a legacy single-line
// form (just a bare database path), per spec.md §4.4/§6.
func parseRecord(data []byte) (Record, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, err
		}
		return rec, nil
	}

	// Legacy single-line record: just the database path, no meta/defaults.
	scanner := bufio.NewScanner(strings.NewReader(trimmed))
	if !scanner.Scan() {
		return Record{}, fmt.Errorf("empty cursor file")
	}
	return Record{DatabasePath: strings.TrimSpace(scanner.Text())}, nil
}

// validateFilenameComponent rejects characters that would be unsafe or
// ambiguous in the "{name}.{owner}.cursor" filename convention, independent
// of whatever address delimiter is configured for this invocation.
func validateFilenameComponent(field, value string) error {
	if err := validate.AddressComponent(field, value, "."); err != nil {
		return err
	}
	if strings.ContainsAny(value, "/\\") {
		return &perr.InvalidIdentifier{Field: field, Reason: "must not contain a path separator"}
	}
	return nil
}
