// Package persist stores the record collection as one JSON document under a
// single key.
package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/logger"
)

// DefaultKey is the storage key of the record collection.
const DefaultKey = "cor-tracker-rows-v1"

// Backend is a keyed document store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Records loads and saves the collection through a Backend.
type Records struct {
	Backend Backend
	Key     string
	// Seed builds the collection used when nothing usable is stored.
	Seed func(now time.Time) []cor.Record
	Log  *logger.Logger
}

func (p *Records) key() string {
	if p.Key == "" {
		return DefaultKey
	}
	return p.Key
}

func (p *Records) log() *logger.Logger {
	if p.Log == nil {
		return logger.Nop()
	}
	return p.Log
}

func (p *Records) seed(now time.Time) []cor.Record {
	if p.Seed == nil {
		return []cor.Record{}
	}
	return p.Seed(now)
}

// Load returns the stored collection. A missing, unreadable or malformed
// document yields the seed collection instead of an error.
func (p *Records) Load(ctx context.Context, now time.Time) []cor.Record {
	data, ok, err := p.Backend.Get(ctx, p.key())
	switch {
	case err != nil:
		p.log().Warn("read persisted records failed, using seed", "key", p.key(), "error", err)
		return p.seed(now)
	case !ok:
		p.log().Debug("no persisted records, using seed", "key", p.key())
		return p.seed(now)
	}
	records, err := Unmarshal(data)
	if err != nil {
		p.log().Debug("persisted records unreadable, using seed", "key", p.key(), "error", err)
		return p.seed(now)
	}
	return records
}

// Save stores records, replacing whatever was there.
func (p *Records) Save(ctx context.Context, records []cor.Record) error {
	data, err := Marshal(records)
	if err != nil {
		return err
	}
	if err := p.Backend.Put(ctx, p.key(), data); err != nil {
		return fmt.Errorf("put %s: %w", p.key(), err)
	}
	return nil
}

// Clear removes the stored collection.
func (p *Records) Clear(ctx context.Context) error {
	if err := p.Backend.Delete(ctx, p.key()); err != nil {
		return fmt.Errorf("delete %s: %w", p.key(), err)
	}
	return nil
}

// Marshal encodes records as a JSON array.
func Marshal(records []cor.Record) ([]byte, error) {
	if records == nil {
		records = []cor.Record{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal records: %w", err)
	}
	return data, nil
}

// Unmarshal decodes a JSON array of records. Entries with a blank or repeated
// id are given a fresh one so every loaded record stays addressable.
func Unmarshal(data []byte) ([]cor.Record, error) {
	var records []cor.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal records: %w", err)
	}
	if records == nil {
		return nil, fmt.Errorf("unmarshal records: not an array")
	}
	cor.AssignUniqueIDs(records, nil)
	for i := range records {
		if records[i].Tags == nil {
			records[i].Tags = []string{}
		}
		records[i].Amount = cor.ClampAmount(records[i].Amount)
	}
	return records, nil
}
