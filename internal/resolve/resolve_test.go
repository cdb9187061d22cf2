package resolve

import (
	"path/filepath"
	"testing"

	"github.com/prontodb/prontodb/internal/cursor"
	"github.com/stretchr/testify/require"
)

func fixedCursorsDir(dir string) func(string) string {
	return func(string) string { return dir }
}

func TestExplicitDatabasePathBypassesEverything(t *testing.T) {
	ctx, err := Resolve(Request{
		ExplicitDatabasePath: "/explicit/path.db",
		User:                 "alice",
		DefaultDatabasePath:  "/default/db.db",
	})
	require.NoError(t, err)
	require.Equal(t, "/explicit/path.db", ctx.DatabasePath)
	require.Empty(t, ctx.MetaContext)
}

func TestNamedCursorResolution(t *testing.T) {
	dir := t.TempDir()
	store := cursor.New(dir)
	require.NoError(t, store.Set("work", "alice", "/data/work.db", cursor.SetOptions{MetaContext: "org_a"}))

	ctx, err := Resolve(Request{
		ExplicitCursorName:  "work",
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(dir),
	})
	require.NoError(t, err)
	require.Equal(t, "/data/work.db", ctx.DatabasePath)
	require.Equal(t, "org_a", ctx.MetaContext)
}

func TestExplicitMetaOverridesCursorMeta(t *testing.T) {
	dir := t.TempDir()
	store := cursor.New(dir)
	require.NoError(t, store.Set("work", "alice", "/data/work.db", cursor.SetOptions{MetaContext: "org_a"}))

	ctx, err := Resolve(Request{
		ExplicitCursorName:   "work",
		ExplicitMetaOverride: "org_b",
		HasMetaOverride:      true,
		User:                 "alice",
		DefaultDatabasePath:  "/default/db.db",
		CursorsDirForPath:    fixedCursorsDir(dir),
	})
	require.NoError(t, err)
	require.Equal(t, "org_b", ctx.MetaContext)
}

func TestNamedCursorNotFound(t *testing.T) {
	dir := t.TempDir()
	_, err := Resolve(Request{
		ExplicitCursorName:  "missing",
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(dir),
	})
	require.Error(t, err)
}

func TestUserDefaultCursor(t *testing.T) {
	dir := t.TempDir()
	store := cursor.New(dir)
	require.NoError(t, store.Set(DefaultCursorName, "alice", "/data/defaultcursor.db", cursor.SetOptions{MetaContext: "org_c"}))

	ctx, err := Resolve(Request{
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(dir),
	})
	require.NoError(t, err)
	require.Equal(t, "/data/defaultcursor.db", ctx.DatabasePath)
	require.Equal(t, "org_c", ctx.MetaContext)
}

func TestFallsBackToGlobalDefault(t *testing.T) {
	dir := t.TempDir()
	ctx, err := Resolve(Request{
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(dir),
	})
	require.NoError(t, err)
	require.Equal(t, "/default/db.db", ctx.DatabasePath)
	require.Empty(t, ctx.MetaContext)
}

func TestCursorsDirDerivedFromPathresolverByDefault(t *testing.T) {
	req := Request{User: "alice", DefaultDatabasePath: filepath.Join(t.TempDir(), "db", "db.db")}
	_, err := Resolve(req)
	require.NoError(t, err) // no cursors exist yet; should fall through to global default without erroring
}

func TestLocalCursorWinsOverUserCursorWhenEnabled(t *testing.T) {
	userDir, localDir := t.TempDir(), t.TempDir()
	require.NoError(t, cursor.New(userDir).Set("work", "alice", "/data/user-work.db", cursor.SetOptions{MetaContext: "org_a"}))
	require.NoError(t, cursor.New(localDir).Set("work", "alice", "/data/local-work.db", cursor.SetOptions{MetaContext: "org_b"}))

	ctx, err := Resolve(Request{
		ExplicitCursorName:  "work",
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(userDir),
		LocalCursorEnabled:  true,
		LocalCursorsDir:     localDir,
	})
	require.NoError(t, err)
	require.Equal(t, "/data/local-work.db", ctx.DatabasePath)
	require.Equal(t, "org_b", ctx.MetaContext)
}

func TestLocalCursorIgnoredWhenFlagOff(t *testing.T) {
	userDir, localDir := t.TempDir(), t.TempDir()
	require.NoError(t, cursor.New(userDir).Set("work", "alice", "/data/user-work.db", cursor.SetOptions{MetaContext: "org_a"}))
	require.NoError(t, cursor.New(localDir).Set("work", "alice", "/data/local-work.db", cursor.SetOptions{MetaContext: "org_b"}))

	ctx, err := Resolve(Request{
		ExplicitCursorName:  "work",
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(userDir),
		LocalCursorEnabled:  false,
		LocalCursorsDir:     localDir,
	})
	require.NoError(t, err)
	require.Equal(t, "/data/user-work.db", ctx.DatabasePath)
}

func TestLocalCursorFallsBackToUserCursorWhenNameMissingLocally(t *testing.T) {
	userDir, localDir := t.TempDir(), t.TempDir()
	require.NoError(t, cursor.New(userDir).Set("work", "alice", "/data/user-work.db", cursor.SetOptions{MetaContext: "org_a"}))

	ctx, err := Resolve(Request{
		ExplicitCursorName:  "work",
		User:                "alice",
		DefaultDatabasePath: "/default/db.db",
		CursorsDirForPath:   fixedCursorsDir(userDir),
		LocalCursorEnabled:  true,
		LocalCursorsDir:     localDir,
	})
	require.NoError(t, err)
	require.Equal(t, "/data/user-work.db", ctx.DatabasePath)
}

func TestExplicitDatabasePathBypassesLocalCursorToo(t *testing.T) {
	localDir := t.TempDir()
	require.NoError(t, cursor.New(localDir).Set(DefaultCursorName, "alice", "/data/local.db", cursor.SetOptions{}))

	ctx, err := Resolve(Request{
		ExplicitDatabasePath: "/explicit/path.db",
		User:                 "alice",
		DefaultDatabasePath:  "/default/db.db",
		LocalCursorEnabled:   true,
		LocalCursorsDir:      localDir,
	})
	require.NoError(t, err)
	require.Equal(t, "/explicit/path.db", ctx.DatabasePath)
}
