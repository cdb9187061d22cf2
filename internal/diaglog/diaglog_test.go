package diaglog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	l := Open(path)
	l.Printf("hello %s", "world")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello world")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Printf("should not panic")
	require.NoError(t, l.Close())
}

func TestEnvTunedRotationDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")
	l := Open(path)
	require.Equal(t, 10, l.out.MaxSize)
	require.Equal(t, 3, l.out.MaxBackups)
	require.Equal(t, 7, l.out.MaxAge)
	require.True(t, l.out.Compress)
}
