package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jask/cortracker/internal/database"
)

// KVRepo stores whole documents under string keys.
type KVRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewKVRepo returns a repo over a migrated database.
func NewKVRepo(db *sql.DB) *KVRepo {
	return &KVRepo{db: db, now: database.Now}
}

// Get returns the value for key. A missing key is reported with ok=false and
// no error.
func (r *KVRepo) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, err := r.Entry(ctx, key)
	if err != nil || e == nil {
		return nil, false, err
	}
	return e.Value, true, nil
}

// Entry returns the full row for key, or nil when absent.
func (r *KVRepo) Entry(ctx context.Context, key string) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM kv_entries WHERE key = ?`, key)
	var e Entry
	var value string
	if err := row.Scan(&e.Key, &value, &e.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	e.Value = []byte(value)
	return &e, nil
}

// Put stores value under key, replacing any previous entry.
func (r *KVRepo) Put(ctx context.Context, key string, value []byte) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO kv_entries(key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at;
		`, key, string(value), r.now())
		return err
	})
}

// Delete removes key. Deleting a missing key is not an error.
func (r *KVRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key)
	return err
}
