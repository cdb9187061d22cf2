package cursor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("work", "alice", "/data/db1.db", SetOptions{MetaContext: "org_a"}))

	rec, ok, err := s.Get("work", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/data/db1.db", rec.DatabasePath)
	require.Equal(t, "org_a", rec.MetaContext)
	require.Equal(t, "alice", rec.OwnerUser)
}

func TestGetMissForAbsentCursor(t *testing.T) {
	s := New(t.TempDir())
	_, ok, err := s.Get("nope", "alice")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUserIsolation(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	require.NoError(t, s.Set("dev", "alice", "/data/dbA.db", SetOptions{}))
	require.NoError(t, s.Set("dev", "bob", "/data/dbB.db", SetOptions{}))

	alice, err := s.List("alice", "")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	require.Equal(t, "/data/dbA.db", alice[0].DatabasePath)

	bob, ok, err := s.Get("dev", "bob")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/data/dbB.db", bob.DatabasePath)
}

func TestDeleteIdempotent(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("work", "alice", "/data/db1.db", SetOptions{}))

	existed, err := s.Delete("work", "alice")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = s.Delete("work", "alice")
	require.NoError(t, err)
	require.False(t, existed)
}

func TestCreatedAtPreservedAcrossOverwrite(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("work", "alice", "/data/db1.db", SetOptions{}))
	first, _, err := s.Get("work", "alice")
	require.NoError(t, err)

	require.NoError(t, s.Set("work", "alice", "/data/db2.db", SetOptions{}))
	second, _, err := s.Get("work", "alice")
	require.NoError(t, err)

	require.Equal(t, "/data/db2.db", second.DatabasePath)
	require.True(t, first.CreatedAt.Equal(second.CreatedAt))
}

func TestLegacySingleLineFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.alice.cursor")
	require.NoError(t, os.WriteFile(path, []byte("/data/legacy.db\n"), 0o644))

	s := New(dir)
	rec, ok, err := s.Get("legacy", "alice")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/data/legacy.db", rec.DatabasePath)
	require.Equal(t, "", rec.MetaContext)
}

func TestListFiltersByDatabase(t *testing.T) {
	s := New(t.TempDir())
	require.NoError(t, s.Set("a", "alice", "/data/db1.db", SetOptions{}))
	require.NoError(t, s.Set("b", "alice", "/data/db2.db", SetOptions{}))

	filtered, err := s.List("alice", "/data/db1.db")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "a", filtered[0].Name)
}
