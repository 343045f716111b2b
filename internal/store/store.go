// Package store owns the authoritative COR collection and the view
// configuration. All changes go through Store methods and every change
// publishes a new immutable Snapshot.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/logger"
	"github.com/jask/cortracker/internal/view"
)

// View is the display mode.
type View string

const (
	ViewTable  View = "table"
	ViewKanban View = "kanban"
)

// Op names a record mutation, for listeners and metrics.
type Op string

const (
	OpInit     Op = "init"
	OpAdd      Op = "add"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
	OpReplace  Op = "replace"
	OpImport   Op = "import"
	OpAdvance  Op = "advance"
	OpPriority Op = "priority"
	OpAmount   Op = "amount"
	OpConfig   Op = "config"
)

// Snapshot is a consistent, read-only copy of the store state.
type Snapshot struct {
	Version uint64
	Records []cor.Record
	Filters view.Filters
	Sort    view.Sort
	View    View
}

// Project applies the snapshot's filters and sort.
func (s Snapshot) Project(now time.Time) []cor.Record {
	return view.Project(s.Records, s.Filters, s.Sort, now)
}

// Find returns the record with id.
func (s Snapshot) Find(id string) (cor.Record, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return cor.Record{}, false
}

// Persister saves the record collection after each record mutation.
type Persister interface {
	Save(ctx context.Context, records []cor.Record) error
}

// Listener observes every published snapshot. Listeners run in version order
// and must not call back into the Store.
type Listener func(op Op, snap Snapshot)

// Store is safe for concurrent use; writes are serialised.
type Store struct {
	mu sync.RWMutex
	// publishMu orders persistence and notification by version. It is
	// acquired while mu is held and released after the listeners return.
	publishMu sync.Mutex

	version   uint64
	records   []cor.Record
	filters   view.Filters
	sort      view.Sort
	view      View
	listeners []Listener
	persister Persister
	log       *logger.Logger
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithPersister saves records after each record mutation.
func WithPersister(p Persister) Option { return func(s *Store) { s.persister = p } }

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *logger.Logger) Option { return func(s *Store) { s.log = l } }

// WithClock overrides time.Now for Create.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// New returns a store holding a copy of records, default sort and table view.
func New(records []cor.Record, opts ...Option) *Store {
	s := &Store{
		records: uniqueAll(records, nil),
		sort:    view.DefaultSort,
		view:    ViewTable,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers l for future snapshots.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Snapshot returns the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Version: s.version,
		Records: cloneAll(s.records),
		Filters: s.filters.Clone(),
		Sort:    s.sort,
		View:    s.view,
	}
}

// Add prepends r to the collection and returns the stored copy. A blank id or
// one already in the store is replaced with a fresh one.
func (s *Store) Add(r cor.Record) cor.Record {
	var added cor.Record
	s.mutate(OpAdd, func() bool {
		added = uniqueAll([]cor.Record{r}, s.takenLocked())[0]
		s.records = append([]cor.Record{added}, s.records...)
		return true
	})
	return added.Clone()
}

// Create builds a record from d with defaults and adds it.
func (s *Store) Create(d cor.Draft) cor.Record {
	return s.Add(cor.New(d, s.now()))
}

// Update merges p into the record with id. Unknown ids are a no-op.
func (s *Store) Update(id string, p cor.Patch) bool {
	return s.mutate(OpUpdate, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.records[i] = s.records[i].Apply(p)
		return true
	})
}

// Delete removes the record with id. Unknown ids are a no-op.
func (s *Store) Delete(id string) bool {
	return s.mutate(OpDelete, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.records = append(s.records[:i:i], s.records[i+1:]...)
		return true
	})
}

// ReplaceAll discards the collection in favour of records. Repeated ids are
// reassigned.
func (s *Store) ReplaceAll(records []cor.Record) {
	s.mutate(OpReplace, func() bool {
		s.records = uniqueAll(records, nil)
		return true
	})
}

// Import puts records ahead of the existing collection. Imported records whose
// id is already present are reassigned.
func (s *Store) Import(records []cor.Record) {
	s.mutate(OpImport, func() bool {
		merged := make([]cor.Record, 0, len(records)+len(s.records))
		merged = append(merged, uniqueAll(records, s.takenLocked())...)
		s.records = append(merged, s.records...)
		return true
	})
}

// AdvanceStatus moves the record one step along the status progression.
func (s *Store) AdvanceStatus(id string) bool {
	return s.mutate(OpAdvance, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.records[i].Status = s.records[i].Status.Next()
		return true
	})
}

// CyclePriority moves the record to the next priority.
func (s *Store) CyclePriority(id string) bool {
	return s.mutate(OpPriority, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.records[i].Priority = s.records[i].Priority.Next()
		return true
	})
}

// AdjustAmount adds delta to the record's amount, clamping at zero.
func (s *Store) AdjustAmount(id string, delta float64) bool {
	return s.mutate(OpAmount, func() bool {
		i := s.indexLocked(id)
		if i < 0 {
			return false
		}
		s.records[i].Amount = cor.AdjustAmount(s.records[i].Amount, delta)
		return true
	})
}

// mutate runs fn under the write lock. When fn reports a change the version
// is bumped, the collection persisted and listeners notified.
func (s *Store) mutate(op Op, fn func() bool) bool {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return false
	}
	s.version++
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	persister := s.persister
	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	if persister != nil {
		if err := persister.Save(context.Background(), snap.Records); err != nil {
			s.log.Warn("persist records failed", "op", string(op), "version", snap.Version, "error", err)
		}
	}
	for _, l := range listeners {
		l(op, snap)
	}
	return true
}

// configure is mutate without persistence.
func (s *Store) configure(fn func()) {
	s.mu.Lock()
	fn()
	s.version++
	snap := s.snapshotLocked()
	listeners := append([]Listener(nil), s.listeners...)
	s.publishMu.Lock()
	s.mu.Unlock()
	defer s.publishMu.Unlock()

	for _, l := range listeners {
		l(OpConfig, snap)
	}
}

// SetFilters merges p into the current filters.
func (s *Store) SetFilters(p view.FilterPatch) {
	s.configure(func() { s.filters = s.filters.Apply(p) })
}

// ResetFilters clears every filter.
func (s *Store) ResetFilters() {
	s.configure(func() { s.filters = view.Filters{} })
}

// SortBy selects key. Choosing the current key flips the direction; a new
// key starts ascending.
func (s *Store) SortBy(key view.SortKey) {
	s.configure(func() {
		if s.sort.Key == key {
			s.sort.Dir = s.sort.Dir.Flip()
			return
		}
		s.sort = view.Sort{Key: key, Dir: view.Asc}
	})
}

// SetSort replaces the sort configuration.
func (s *Store) SetSort(sort view.Sort) {
	s.configure(func() { s.sort = sort })
}

// ToggleView switches between table and kanban.
func (s *Store) ToggleView() {
	s.configure(func() {
		if s.view == ViewKanban {
			s.view = ViewTable
		} else {
			s.view = ViewKanban
		}
	})
}

// SetView selects the display mode.
func (s *Store) SetView(v View) {
	s.configure(func() { s.view = v })
}

func (s *Store) indexLocked(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) takenLocked() map[string]struct{} {
	taken := make(map[string]struct{}, len(s.records))
	for _, r := range s.records {
		taken[r.ID] = struct{}{}
	}
	return taken
}

// uniqueAll clones records and fixes up blank or repeated ids.
func uniqueAll(records []cor.Record, taken map[string]struct{}) []cor.Record {
	out := cloneAll(records)
	cor.AssignUniqueIDs(out, taken)
	return out
}

func cloneAll(records []cor.Record) []cor.Record {
	out := make([]cor.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
