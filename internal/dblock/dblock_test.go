//go:build unix

package dblock

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcquireAndRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	l, err := Acquire(dbPath)
	require.NoError(t, err)
	require.NoError(t, l.Release())
}

func TestSecondAcquireFailsWhileHeld(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	l1, err := Acquire(dbPath)
	require.NoError(t, err)
	defer l1.Release()

	_, err = Acquire(dbPath)
	require.ErrorIs(t, err, ErrLocked)
}

func TestReacquireAfterRelease(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	l1, err := Acquire(dbPath)
	require.NoError(t, err)
	require.NoError(t, l1.Release())

	l2, err := Acquire(dbPath)
	require.NoError(t, err)
	require.NoError(t, l2.Release())
}
