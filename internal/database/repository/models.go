package repository

import "time"

// Entry is one keyed document in kv_entries.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}
