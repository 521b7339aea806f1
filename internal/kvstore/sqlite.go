package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SQLiteStore persists keys and values in a single kv_entries table.
// Writes go through the single-connection write pool so SQLite never sees
// two concurrent writers; reads use the larger read pool.
type SQLiteStore struct {
	writeDB *sql.DB
	readDB  *sql.DB
}

// NewSQLiteStore creates a Store over an already-migrated SQLite pool pair.
// Pass the same handle twice when a read/write split is not needed.
func NewSQLiteStore(writeDB, readDB *sql.DB) *SQLiteStore {
	return &SQLiteStore{writeDB: writeDB, readDB: readDB}
}

// Get returns the value for key.
func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v []byte
	err := s.readDB.QueryRowContext(ctx,
		`SELECT v FROM kv_entries WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("kv get %q: %w", key, err)
	}
	return v, true, nil
}

// Put upserts the value for key.
func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.writeDB.ExecContext(ctx,
		`INSERT INTO kv_entries (k, v) VALUES (?, ?)
		 ON CONFLICT (k) DO UPDATE SET v = excluded.v`, key, value)
	if err != nil {
		return fmt.Errorf("kv put %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Absent keys are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	if _, err := s.writeDB.ExecContext(ctx,
		`DELETE FROM kv_entries WHERE k = ?`, key); err != nil {
		return fmt.Errorf("kv delete %q: %w", key, err)
	}
	return nil
}

// ListKeys returns all keys with the given prefix in ascending order.
// The prefix match is a half-open range scan on the primary key, so it
// uses the index instead of a LIKE full scan.
func (s *SQLiteStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if upper, bounded := prefixUpperBound(prefix); bounded {
		rows, err = s.readDB.QueryContext(ctx,
			`SELECT k FROM kv_entries WHERE k >= ? AND k < ? ORDER BY k`, prefix, upper)
	} else {
		rows, err = s.readDB.QueryContext(ctx,
			`SELECT k FROM kv_entries WHERE k >= ? ORDER BY k`, prefix)
	}
	if err != nil {
		return nil, fmt.Errorf("kv list %q: %w", prefix, err)
	}
	defer rows.Close() //nolint:errcheck

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("kv list %q: %w", prefix, err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// prefixUpperBound returns the smallest string greater than every string
// with the given prefix. The second return is false when no such bound
// exists (empty prefix or a prefix of all 0xFF bytes).
func prefixUpperBound(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xFF {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}
