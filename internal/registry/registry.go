// Package registry persists the set of tracked root paths in a local SQLite
// database. The registry is the sole owner of tracked path lifetime: paths
// enter through Add, leave through Remove or Prune, and otherwise persist
// across process runs.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/sbstp/track/internal/utils"
)

var (
	// ErrStorageUnavailable indicates the registry store could not be located,
	// opened, or migrated.
	ErrStorageUnavailable = errors.New("registry storage unavailable")
	// ErrDuplicatePath indicates an Add for a path that is already tracked.
	// It is recoverable: the caller reports a notice and continues.
	ErrDuplicatePath = errors.New("path already tracked")
)

// Options configures where the registry database lives. An empty DatabasePath
// selects the per-user default location; tests substitute a temporary path.
type Options struct {
	DatabasePath string
}

// Registry is a SQLite-backed ordered set of tracked absolute paths.
type Registry struct {
	db *sql.DB
}

// DefaultDatabasePath derives the registry location from the per-user
// configuration directory.
func DefaultDatabasePath() (string, error) {
	configDirectory, configError := os.UserConfigDir()
	if configError != nil {
		return "", fmt.Errorf("%w: determine user configuration directory: %v", ErrStorageUnavailable, configError)
	}
	return filepath.Join(configDirectory, utils.GlobalConfigDirectoryName, utils.DatabaseFileName), nil
}

// Open opens the registry database, creating it and its parent directory if
// absent, and ensures the schema is current.
func Open(ctx context.Context, options Options) (*Registry, error) {
	databasePath := options.DatabasePath
	if databasePath == "" {
		derivedPath, deriveError := DefaultDatabasePath()
		if deriveError != nil {
			return nil, deriveError
		}
		databasePath = derivedPath
	}

	if makeDirError := os.MkdirAll(filepath.Dir(databasePath), 0o755); makeDirError != nil {
		return nil, fmt.Errorf("%w: create directory for %s: %v", ErrStorageUnavailable, databasePath, makeDirError)
	}

	databaseHandle, openError := sql.Open("sqlite", databasePath)
	if openError != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrStorageUnavailable, databasePath, openError)
	}
	// SQLite supports a single writer; one connection avoids locking surprises.
	databaseHandle.SetMaxOpenConns(1)

	if migrateError := runMigrations(ctx, databaseHandle); migrateError != nil {
		_ = databaseHandle.Close()
		return nil, fmt.Errorf("%w: migrate %s: %v", ErrStorageUnavailable, databasePath, migrateError)
	}

	return &Registry{db: databaseHandle}, nil
}

// Close closes the underlying database connection.
func (registry *Registry) Close() error {
	return registry.db.Close()
}

// Add inserts a tracked path, relying solely on the uniqueness constraint to
// detect duplicates. A duplicate insert returns ErrDuplicatePath; the stored
// set is unchanged either way.
func (registry *Registry) Add(ctx context.Context, path string) error {
	transaction, beginError := registry.db.BeginTx(ctx, nil)
	if beginError != nil {
		return fmt.Errorf("begin transaction: %w", beginError)
	}
	defer rollback(transaction)

	if _, execError := transaction.ExecContext(ctx,
		`INSERT INTO paths (path) VALUES (?)`, []byte(path),
	); execError != nil {
		if isUniqueViolation(execError) {
			return fmt.Errorf("%w: %s", ErrDuplicatePath, path)
		}
		return fmt.Errorf("insert tracked path %s: %w", path, execError)
	}

	if commitError := transaction.Commit(); commitError != nil {
		return fmt.Errorf("commit tracked path %s: %w", path, commitError)
	}
	return nil
}

// List returns every tracked path sorted lexicographically ascending. An
// empty registry yields an empty slice.
func (registry *Registry) List(ctx context.Context) ([]string, error) {
	rows, queryError := registry.db.QueryContext(ctx,
		`SELECT path FROM paths ORDER BY path ASC`,
	)
	if queryError != nil {
		return nil, fmt.Errorf("query tracked paths: %w", queryError)
	}
	defer func() { _ = rows.Close() }()

	var trackedPaths []string
	for rows.Next() {
		var pathBytes []byte
		if scanError := rows.Scan(&pathBytes); scanError != nil {
			return nil, fmt.Errorf("scan tracked path: %w", scanError)
		}
		trackedPaths = append(trackedPaths, string(pathBytes))
	}
	if rowsError := rows.Err(); rowsError != nil {
		return nil, fmt.Errorf("iterate tracked paths: %w", rowsError)
	}
	return trackedPaths, nil
}

// Remove deletes the entry for path. Removing an absent entry is a silent no-op.
func (registry *Registry) Remove(ctx context.Context, path string) error {
	transaction, beginError := registry.db.BeginTx(ctx, nil)
	if beginError != nil {
		return fmt.Errorf("begin transaction: %w", beginError)
	}
	defer rollback(transaction)

	if _, execError := transaction.ExecContext(ctx,
		`DELETE FROM paths WHERE path = ?`, []byte(path),
	); execError != nil {
		return fmt.Errorf("delete tracked path %s: %w", path, execError)
	}

	if commitError := transaction.Commit(); commitError != nil {
		return fmt.Errorf("commit removal of %s: %w", path, commitError)
	}
	return nil
}

// Prune removes every tracked path that no longer exists on disk and returns
// the removed paths in listing order. A path whose existence check fails for
// permission reasons counts as gone. Running Prune twice with no filesystem
// change between calls removes nothing on the second call.
func (registry *Registry) Prune(ctx context.Context) ([]string, error) {
	trackedPaths, listError := registry.List(ctx)
	if listError != nil {
		return nil, listError
	}

	var prunedPaths []string
	for _, trackedPath := range trackedPaths {
		if _, statError := os.Lstat(trackedPath); statError == nil {
			continue
		}
		if removeError := registry.Remove(ctx, trackedPath); removeError != nil {
			return prunedPaths, removeError
		}
		prunedPaths = append(prunedPaths, trackedPath)
	}
	return prunedPaths, nil
}

// isUniqueViolation checks for a SQLite UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// rollback rolls back tx, ignoring errors (tx may already be committed).
func rollback(tx *sql.Tx) { _ = tx.Rollback() }
