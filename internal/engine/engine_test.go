package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/perr"
	"github.com/prontodb/prontodb/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, ".")
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.key1", []byte("hello"), nil))

	val, err := e.Get(ctx, meta.None, "proj.ns.key1")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), val)
}

func TestGetMissReturnsTypedError(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	_, err := e.Get(ctx, meta.None, "proj.ns.absent")
	require.Error(t, err)
	var miss *perr.Miss
	require.ErrorAs(t, err, &miss)
	require.Equal(t, perr.ExitMiss, perr.ExitCodeFor(err))
}

func TestMetaIsolation(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.Scope{Context: "org_a"}, "proj.ns.key1", []byte("a-value"), nil))

	_, err := e.Get(ctx, meta.Scope{Context: "org_b"}, "proj.ns.key1")
	require.Error(t, err)

	val, err := e.Get(ctx, meta.Scope{Context: "org_a"}, "proj.ns.key1")
	require.NoError(t, err)
	require.Equal(t, []byte("a-value"), val)
}

func TestReadFallbackToUnscoped(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.shared", []byte("legacy"), nil))

	val, err := e.Get(ctx, meta.Scope{Context: "org_a"}, "proj.ns.shared")
	require.NoError(t, err)
	require.Equal(t, []byte("legacy"), val)
}

func TestWriteNeverFallsThrough(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.Scope{Context: "org_a"}, "proj.ns.key1", []byte("scoped"), nil))

	_, err := e.Get(ctx, meta.None, "proj.ns.key1")
	require.Error(t, err, "an unscoped read must not see a scoped write")
}

func TestDeleteIsScopedStrictly(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.shared", []byte("legacy"), nil))

	existed, err := e.Delete(ctx, meta.Scope{Context: "org_a"}, "proj.ns.shared")
	require.NoError(t, err)
	require.False(t, existed, "delete must not fall through to the unscoped namespace")

	val, err := e.Get(ctx, meta.None, "proj.ns.shared")
	require.NoError(t, err)
	require.Equal(t, []byte("legacy"), val)
}

func TestExplicitTTLRejectedOnPlainNamespace(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.key1", []byte("v"), nil))

	seconds := 60
	err := e.Set(ctx, meta.None, "proj.ns.key2", []byte("v"), &seconds)
	require.Error(t, err)
	var ttlErr *perr.TtlNotAllowed
	require.ErrorAs(t, err, &ttlErr)
}

func TestCreateTTLNamespaceThenWriteWithDefault(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.CreateTTLNamespace(ctx, meta.None, "proj", "sessions", 1))
	require.NoError(t, e.Set(ctx, meta.None, "proj.sessions.key1", []byte("v"), nil))

	val, err := e.Get(ctx, meta.None, "proj.sessions.key1")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)

	time.Sleep(1200 * time.Millisecond)
	_, err = e.Get(ctx, meta.None, "proj.sessions.key1")
	require.Error(t, err)
}

func TestListKeysAndScanPairs(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.alpha", []byte("1"), nil))
	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.beta", []byte("2"), nil))

	keys, err := e.ListKeys(ctx, meta.None, "proj", "ns", "")
	require.NoError(t, err)
	require.Len(t, keys, 2)

	pairs, err := e.ScanPairs(ctx, meta.None, "proj", "ns", "al")
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	require.Equal(t, []byte("1"), pairs[0].Value)
}

func TestListProjectsAndNamespaces(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns1.key1", []byte("v"), nil))
	require.NoError(t, e.Set(ctx, meta.None, "proj.ns2.key1", []byte("v"), nil))

	projects, err := e.ListProjects(ctx, meta.None)
	require.NoError(t, err)
	require.Equal(t, []string{"proj"}, projects)

	namespaces, err := e.ListNamespaces(ctx, meta.None, "proj")
	require.NoError(t, err)
	require.Equal(t, []string{"ns1", "ns2"}, namespaces)
}

func TestPipeCacheFallbackAndCopyDeletesSource(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	now := time.Unix(1700000000, 0)
	recoveryKey, err := e.HandlePipeCacheFallback(ctx, meta.None, []byte("rescued"), "bad..address", now)
	require.NoError(t, err)
	require.Contains(t, recoveryKey, "pipe.cache.")

	require.NoError(t, e.Copy(ctx, meta.None, recoveryKey, "proj.ns.recovered"))

	val, err := e.Get(ctx, meta.None, "proj.ns.recovered")
	require.NoError(t, err)
	require.Equal(t, []byte("rescued"), val)

	_, err = e.Get(ctx, meta.None, recoveryKey)
	require.Error(t, err, "copy from the reserved pipe-cache namespace must delete the source")
}

func TestCopyFromNonReservedNamespaceKeepsSource(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	require.NoError(t, e.Set(ctx, meta.None, "proj.ns.key1", []byte("v"), nil))
	require.NoError(t, e.Copy(ctx, meta.None, "proj.ns.key1", "proj.ns.key2"))

	val, err := e.Get(ctx, meta.None, "proj.ns.key1")
	require.NoError(t, err)
	require.Equal(t, []byte("v"), val)
}
