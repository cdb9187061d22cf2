// Package resolve implements the Context Resolver (spec.md §4.5): it
// layers explicit per-command overrides, named-cursor lookups, and the
// user's default cursor into one effective execution context per
// operation.
package resolve

import (
	"github.com/prontodb/prontodb/internal/cursor"
	"github.com/prontodb/prontodb/internal/pathresolver"
	"github.com/prontodb/prontodb/internal/perr"
)

// DefaultCursorName is the conventional name of a user's default cursor,
// the way git treats "origin" as the default remote. Spec.md §4.5 leaves
// "the user's default cursor" undefined beyond "if one exists"; ProntoDB
// resolves it as the cursor literally named "default" for that user. See
// DESIGN.md for this decision.
const DefaultCursorName = "default"

// Request carries every per-invocation override the CLI boundary collected.
type Request struct {
	// ExplicitDatabasePath is set by an explicit --database flag. Highest
	// precedence; bypasses all cursor/meta resolution.
	ExplicitDatabasePath string

	// ExplicitCursorName is set by an explicit --cursor flag.
	ExplicitCursorName string

	// ExplicitMetaOverride is set by an explicit --meta flag. Only takes
	// effect when ExplicitCursorName is also set (spec.md §4.5 rule 2);
	// it replaces the cursor's embedded meta for this invocation only and
	// is never persisted back to the cursor record.
	ExplicitMetaOverride string
	HasMetaOverride       bool

	User string

	// DefaultDatabasePath is the resolver's own fallback (PRONTO_DB env,
	// or the data-root default database layout) used when no cursor
	// applies at all (spec.md §4.5 rule 5).
	DefaultDatabasePath string

	// CursorsDirForPath locates the cursors directory for a given
	// database path, so the resolver can open the right Cursor Store for
	// #3/#4 without hard-coding pathresolver's layout rules here.
	CursorsDirForPath func(databasePath string) string

	// LocalCursorEnabled mirrors the opt-in PRONTO_LOCAL_CURSOR flag
	// (spec.md §5): when true, a working-directory-local cursor file
	// with the requested name takes precedence over the matching user
	// cursor of the same name. Default OFF.
	LocalCursorEnabled bool

	// LocalCursorsDir is the working-directory-local cursors directory
	// (pathresolver.LocalCursorsDir), consulted only when
	// LocalCursorEnabled is set. Empty means no local .prontodb
	// directory was found, which resolve treats as "no local cursor."
	LocalCursorsDir string
}

// lookupCursor resolves the named cursor for req.User, preferring the
// working-directory-local cursor store over the normal one when
// LocalCursorEnabled is set (spec.md §5: "local beats user when the flag
// is set; otherwise ignored" — see DESIGN.md). --database still bypasses
// this entirely (case 1 in Resolve), so local-cursor precedence never
// overrides an explicit database path.
func lookupCursor(req Request, name, normalCursorsDir string) (cursor.Record, bool, error) {
	if req.LocalCursorEnabled && req.LocalCursorsDir != "" {
		local := cursor.New(req.LocalCursorsDir)
		if rec, ok, err := local.Get(name, req.User); err != nil {
			return cursor.Record{}, false, err
		} else if ok {
			return rec, true, nil
		}
	}
	return cursor.New(normalCursorsDir).Get(name, req.User)
}

// Context is the effective execution context for one operation (spec.md §4.5).
type Context struct {
	DatabasePath     string
	MetaContext      string // empty means no meta
	DefaultProject   string
	DefaultNamespace string
	User             string
}

// Resolve computes the effective Context for req, per the fixed precedence
// in spec.md §4.5.
func Resolve(req Request) (Context, error) {
	// 1. Explicit per-command database path bypasses all cursor/meta
	// resolution entirely.
	if req.ExplicitDatabasePath != "" {
		return Context{DatabasePath: req.ExplicitDatabasePath, User: req.User}, nil
	}

	cursorsDir := req.CursorsDirForPath
	if cursorsDir == nil {
		cursorsDir = func(dbPath string) string { return pathresolver.LayoutForPath(dbPath).CursorsDir }
	}

	// 2/3. Explicit per-command cursor name, optionally with a meta
	// override that applies only for this invocation.
	if req.ExplicitCursorName != "" {
		dbPath := req.DefaultDatabasePath
		rec, ok, err := lookupCursor(req, req.ExplicitCursorName, cursorsDir(dbPath))
		if err != nil {
			return Context{}, err
		}
		if !ok {
			return Context{}, &perr.CursorNotFound{Name: req.ExplicitCursorName, User: req.User}
		}

		metaCtx := rec.MetaContext
		if req.HasMetaOverride {
			metaCtx = req.ExplicitMetaOverride
		}
		return Context{
			DatabasePath:     rec.DatabasePath,
			MetaContext:      metaCtx,
			DefaultProject:   rec.DefaultProject,
			DefaultNamespace: rec.DefaultNamespace,
			User:             req.User,
		}, nil
	}

	// 4. User's default cursor, if one exists.
	dbPath := req.DefaultDatabasePath
	if rec, ok, err := lookupCursor(req, DefaultCursorName, cursorsDir(dbPath)); err != nil {
		return Context{}, err
	} else if ok {
		return Context{
			DatabasePath:     rec.DatabasePath,
			MetaContext:      rec.MetaContext,
			DefaultProject:   rec.DefaultProject,
			DefaultNamespace: rec.DefaultNamespace,
			User:             req.User,
		}, nil
	}

	// 5. Global/default database path, no meta.
	return Context{DatabasePath: req.DefaultDatabasePath, User: req.User}, nil
}
