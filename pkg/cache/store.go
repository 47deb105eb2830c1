package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the latest snapshot per query so a restart does not
// start from an empty cache.
type Store interface {
	Load(ctx context.Context, query string) (Entry, bool, error)
	Save(ctx context.Context, e Entry) error
	Close() error
}

// SQLiteStore keeps snapshots in a single sqlite table.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			query TEXT NOT NULL PRIMARY KEY,
			data TEXT NOT NULL,
			written_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, query string) (Entry, bool, error) {
	var data string
	var writtenAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT data, written_at FROM snapshots WHERE query = ?`,
		query,
	).Scan(&data, &writtenAt)
	if err == sql.ErrNoRows {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}

	e := Entry{Query: query, WrittenAt: time.Unix(0, writtenAt)}
	if err := json.Unmarshal([]byte(data), &e.Data); err != nil {
		return Entry{}, false, fmt.Errorf("snapshot %q: %w", query, err)
	}
	return e, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("snapshot %q: %w", e.Query, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (query, data, written_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(query)
		 DO UPDATE SET data = excluded.data, written_at = excluded.written_at
		 WHERE excluded.written_at >= snapshots.written_at`,
		e.Query, string(data), e.WrittenAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
