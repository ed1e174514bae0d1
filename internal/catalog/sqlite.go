package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tmx-go/internal/catalog/migrations"
	"tmx-go/internal/tmx"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteCatalog implements the Catalog interface using SQLite.
type SQLiteCatalog struct {
	db   *sql.DB
	path string
}

// NewSQLiteCatalog opens (creating and migrating if necessary) the catalog
// at path. path can be a file path or ":memory:".
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating catalog: %w", err)
	}

	return &SQLiteCatalog{db: db, path: path}, nil
}

// OpenConnection opens and configures a SQLite connection with the
// appropriate PRAGMAs. Exported for tools and tests that need a raw
// connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	// SQLite ships with foreign keys off for backward compatibility.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// CheckMigrations verifies the catalog schema is current.
func (c *SQLiteCatalog) CheckMigrations() error {
	return migrations.CheckStatus(c.db)
}

// Identity cache operations

func (c *SQLiteCatalog) LookupIdentity(bucket, tag string) (string, bool, error) {
	var key string
	err := c.db.QueryRow(
		`SELECT object_key FROM identity_cache WHERE bucket = ? AND tag = ?`,
		bucket, tag,
	).Scan(&key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("looking up identity: %w", err)
	}
	return key, true, nil
}

func (c *SQLiteCatalog) SaveIdentity(bucket, tag, key string) error {
	_, err := c.db.Exec(
		`INSERT INTO identity_cache (bucket, tag, object_key, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (bucket, tag) DO UPDATE SET object_key = excluded.object_key, updated_at = excluded.updated_at`,
		bucket, tag, key, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving identity: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) ForgetKey(bucket, key string) error {
	_, err := c.db.Exec(
		`DELETE FROM identity_cache WHERE bucket = ? AND object_key = ?`,
		bucket, key,
	)
	if err != nil {
		return fmt.Errorf("forgetting key: %w", err)
	}
	return nil
}

// Operation history

func (c *SQLiteCatalog) RecordOperation(name, parameters string) (int64, error) {
	res, err := c.db.Exec(
		`INSERT INTO operations (name, parameters, status, started_at) VALUES (?, ?, 'success', ?)`,
		name, parameters, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("recording operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading operation id: %w", err)
	}
	return id, nil
}

func (c *SQLiteCatalog) FinishOperation(id int64, status string) error {
	_, err := c.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (c *SQLiteCatalog) RecentOperations(limit int) ([]*tmx.Operation, error) {
	rows, err := c.db.Query(
		`SELECT id, name, parameters, status, started_at, finished_at
		 FROM operations ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*tmx.Operation
	for rows.Next() {
		var op tmx.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Name, &op.Parameters, &op.Status, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			t := finished.Time
			op.FinishedAt = &t
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operations: %w", err)
	}
	return ops, nil
}

// Close closes the catalog connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
