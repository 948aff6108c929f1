package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteStorage keeps objects in a local SQLite database
type SQLiteStorage struct {
	conn *sql.DB
}

// Ensure SQLiteStorage implements StorageInterface
var _ StorageInterface = (*SQLiteStorage)(nil)

// NewSQLiteStorage opens the database at path and creates the objects table
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer
	conn.SetMaxOpenConns(1)

	s := &SQLiteStorage{conn: conn}
	if err := s.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	logrus.Infof("Using SQLite storage at %s", path)
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS objects (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Store inserts or replaces the object stored under name
func (s *SQLiteStorage) Store(ctx context.Context, name string, data []byte) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO objects (name, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}
	return nil
}

// Retrieve returns the object stored under name
func (s *SQLiteStorage) Retrieve(ctx context.Context, name string) ([]byte, error) {
	var data []byte
	err := s.conn.QueryRowContext(ctx, `SELECT data FROM objects WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", name, err)
	}
	return data, nil
}

// List returns object names starting with prefix in lexical order
func (s *SQLiteStorage) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT name FROM objects WHERE substr(name, 1, ?) = ? ORDER BY name`,
		utf8.RuneCountInString(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan object name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Delete removes the object stored under name
func (s *SQLiteStorage) Delete(ctx context.Context, name string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM objects WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
