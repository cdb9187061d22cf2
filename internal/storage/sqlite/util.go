package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// withTx executes fn within a database transaction, rolling back on error
// and committing otherwise. Used by every multi-statement operation in this
// package (CreateTTLNamespace, Set's implicit-namespace-creation path).
func (s *SQLiteStorage) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// isUniqueConstraintError checks if an error is a UNIQUE constraint
// violation, used to detect a racing concurrent namespace-creation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
