// Package dblock provides a cross-process advisory lock on a database
// file, used to serialize the implicit namespace/table creation that the
// storage engine performs the first time a (project, namespace) pair is
// written. SQLite's own busy_timeout absorbs ordinary write contention,
// but DDL statements (CREATE TABLE) issued by two concurrent agent
// processes racing to create the same namespace benefit from an
// OS-level lock taken before either one opens a transaction.
package dblock

import (
	"errors"
	"fmt"
	"os"
)

// ErrLocked is returned by Acquire when another process already holds
// the lock.
var ErrLocked = errors.New("database lock already held by another process")

// Lock represents a held advisory lock on a database file's companion
// ".lock" file.
type Lock struct {
	f    *os.File
	path string
}

// Acquire takes a non-blocking exclusive lock on dbPath's companion lock
// file, creating it if necessary. Callers must call Release when done.
func Acquire(dbPath string) (*Lock, error) {
	lockPath := dbPath + ".lock"
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("dblock: open %s: %w", lockPath, err)
	}

	if err := flockExclusive(f); err != nil {
		_ = f.Close()
		if errors.Is(err, ErrLocked) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("dblock: lock %s: %w", lockPath, err)
	}

	return &Lock{f: f, path: lockPath}, nil
}

// Release unlocks and closes the lock file. It does not remove it, so a
// subsequent Acquire against the same path reuses it.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	return l.f.Close()
}
