package view

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jask/cortracker/internal/cor"
)

// Memo caches projections keyed on a collection version, the filter and sort
// configuration and the current minute. Callers must bump the version
// whenever the records change.
type Memo struct {
	cache *cache.Cache
}

// NewMemo returns a memo whose entries expire after ttl.
func NewMemo(ttl time.Duration) *Memo {
	return &Memo{cache: cache.New(ttl, 2*ttl)}
}

// Project is view.Project with caching. now is truncated to the minute.
func (m *Memo) Project(version uint64, records []cor.Record, f Filters, s Sort, now time.Time) []cor.Record {
	now = now.Truncate(time.Minute)
	key := fmt.Sprintf("p|%d|%s|%s|%d", version, fingerprint(f), s, now.Unix())
	if v, ok := m.cache.Get(key); ok {
		return slices.Clone(v.([]cor.Record))
	}
	out := Project(records, f, s, now)
	m.cache.SetDefault(key, slices.Clone(out))
	return out
}

// Summarize is view.Summarize with caching.
func (m *Memo) Summarize(version uint64, records []cor.Record, now time.Time) Metrics {
	now = now.Truncate(time.Minute)
	key := fmt.Sprintf("s|%d|%d", version, now.Unix())
	if v, ok := m.cache.Get(key); ok {
		return v.(Metrics)
	}
	out := Summarize(records, now)
	m.cache.SetDefault(key, out)
	return out
}

// Len is the number of live entries.
func (m *Memo) Len() int { return m.cache.ItemCount() }

func fingerprint(f Filters) string {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Sprintf("%v", f)
	}
	return string(b)
}
