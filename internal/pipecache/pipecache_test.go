package pipecache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prontodb/prontodb/internal/address"
	"github.com/prontodb/prontodb/internal/meta"
	"github.com/prontodb/prontodb/internal/storage"
	"github.com/prontodb/prontodb/internal/storage/sqlite"
	"github.com/stretchr/testify/require"
)

func TestShouldTrigger(t *testing.T) {
	require.True(t, ShouldTrigger(true, false, 5))
	require.False(t, ShouldTrigger(false, false, 5), "only triggers on parse failure")
	require.False(t, ShouldTrigger(true, true, 5), "not when stdin is a tty")
	require.False(t, ShouldTrigger(true, false, 0), "not when stdin is empty")
}

func TestRecoveryKeyFormat(t *testing.T) {
	now := time.Unix(1700000000, 0)
	key := RecoveryKey(now, []byte("hello"), "bad..address")
	require.Regexp(t, `^pipe\.cache\.1700000000_[0-9a-f]{8}_bad__address$`, key)
}

func TestRecoveryKeyIdempotence(t *testing.T) {
	now := time.Unix(1700000000, 0)
	k1 := RecoveryKey(now, []byte("hello"), "bad.addr")
	k2 := RecoveryKey(now, []byte("hello"), "bad.addr")
	require.Equal(t, k1, k2)

	k3 := RecoveryKey(now, []byte("different"), "bad.addr")
	require.NotEqual(t, k1, k3)
}

func TestStoreAndRecall(t *testing.T) {
	ctx := context.Background()
	eng, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer eng.Close()

	now := time.Unix(1700000000, 0)
	keyText, err := Store(ctx, eng, meta.None, []byte("hello"), "bad..address", now)
	require.NoError(t, err)
	require.Contains(t, keyText, "pipe.cache.")

	a, err := address.Parse(keyText, "")
	require.NoError(t, err)
	require.True(t, IsReserved(a))

	rec, ok, err := eng.Get(ctx, Namespace(meta.None), storage.Key{Key: a.Key, Context: a.Context})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("hello"), rec.Value)
}
