package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS entries (
	board  TEXT NOT NULL,
	member TEXT NOT NULL,
	score  REAL NOT NULL,
	PRIMARY KEY (board, member)
);`

// SQLiteStore keeps boards in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at path and creates the schema if needed.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path not specified")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite allows a single writer
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema in %s: %w", path, err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, board string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member, score FROM entries WHERE board = ? ORDER BY member`, board)
	if err != nil {
		return nil, fmt.Errorf("failed to load board %q: %w", board, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Member, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan board %q: %w", board, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read board %q: %w", board, err)
	}
	return entries, nil
}

// Save replaces the board's rows in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, board string, entries []Entry) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save of board %q: %w", board, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM entries WHERE board = ?`, board); err != nil {
		return fmt.Errorf("failed to clear board %q: %w", board, err)
	}
	if len(entries) > 0 {
		stmt, perr := tx.PrepareContext(ctx, `INSERT INTO entries (board, member, score) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return fmt.Errorf("failed to prepare insert for board %q: %w", board, err)
		}
		defer stmt.Close()
		for _, e := range entries {
			if _, err = stmt.ExecContext(ctx, board, e.Member, e.Score); err != nil {
				return fmt.Errorf("failed to insert %q into board %q: %w", e.Member, board, err)
			}
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit board %q: %w", board, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, board string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE board = ?`, board); err != nil {
		return fmt.Errorf("failed to delete board %q: %w", board, err)
	}
	return nil
}

func (s *SQLiteStore) Boards(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT board FROM entries ORDER BY board`)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan board name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
