package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/view"
)

// Listeners run synchronously; nothing may outlive a mutation.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePersister struct {
	mu    sync.Mutex
	saves [][]cor.Record
	err   error
}

func (f *fakePersister) Save(_ context.Context, records []cor.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, records)
	return f.err
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(id, number string) cor.Record {
	return cor.Record{ID: id, CORNumber: number, Title: number, CreatedAt: testNow}
}

func ids(records []cor.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "COR-1")})
	snap := s.Snapshot()
	require.Equal(t, uint64(0), snap.Version)
	require.Equal(t, view.DefaultSort, snap.Sort)
	require.Equal(t, ViewTable, snap.View)
	require.False(t, snap.Filters.Active())
	require.Equal(t, []string{"a"}, ids(snap.Records))
}

func TestAddPrepends(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	s := New([]cor.Record{rec("a", "COR-1")}, WithPersister(p))
	s.Add(rec("b", "COR-2"))

	snap := s.Snapshot()
	require.Equal(t, []string{"b", "a"}, ids(snap.Records))
	require.Equal(t, uint64(1), snap.Version)
	require.Equal(t, 1, p.count())
}

func TestCreateFillsDefaults(t *testing.T) {
	t.Parallel()

	s := New(nil, WithClock(func() time.Time { return testNow }))
	r := s.Create(cor.Draft{Title: "Extra footing"})
	require.NotEmpty(t, r.ID)
	require.Regexp(t, `^COR-\d{3}$`, r.CORNumber)
	require.Equal(t, cor.StatusDraft, r.Status)
	require.Equal(t, cor.PriorityMedium, r.Priority)
	require.Equal(t, testNow, r.CreatedAt)

	got, ok := s.Snapshot().Find(r.ID)
	require.True(t, ok)
	require.Equal(t, "Extra footing", got.Title)
}

func TestUpdateMergesAndKeepsIdentity(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	s := New([]cor.Record{rec("a", "COR-1")}, WithPersister(p))
	ok := s.Update("a", cor.Patch{Title: cor.Ptr("Revised"), Amount: cor.Ptr(250.0)})
	require.True(t, ok)

	got, _ := s.Snapshot().Find("a")
	require.Equal(t, "Revised", got.Title)
	require.Equal(t, "COR-1", got.CORNumber)
	require.Equal(t, 250.0, got.Amount)
	require.Equal(t, testNow, got.CreatedAt)
	require.Equal(t, 1, p.count())
}

func TestUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	s := New([]cor.Record{rec("a", "COR-1")}, WithPersister(p))
	notified := 0
	s.Subscribe(func(Op, Snapshot) { notified++ })

	require.False(t, s.Update("zzz", cor.Patch{Title: cor.Ptr("x")}))
	require.False(t, s.Delete("zzz"))
	require.False(t, s.AdvanceStatus("zzz"))
	require.False(t, s.CyclePriority("zzz"))
	require.False(t, s.AdjustAmount("zzz", 100))

	require.Equal(t, uint64(0), s.Snapshot().Version)
	require.Zero(t, p.count())
	require.Zero(t, notified)
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "1"), rec("b", "2"), rec("c", "3")})
	before := s.Snapshot()
	require.True(t, s.Delete("b"))
	require.Equal(t, []string{"a", "c"}, ids(s.Snapshot().Records))
	require.Equal(t, []string{"a", "b", "c"}, ids(before.Records))
}

func TestImportPutsNewRecordsFirst(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "1"), rec("b", "2")})
	s.Import([]cor.Record{rec("x", "9"), rec("y", "8")})
	require.Equal(t, []string{"x", "y", "a", "b"}, ids(s.Snapshot().Records))

	s.Import(nil)
	require.Len(t, s.Snapshot().Records, 4)
}

func TestReplaceAll(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	s := New([]cor.Record{rec("a", "1"), rec("b", "2")}, WithPersister(p))
	s.ReplaceAll([]cor.Record{rec("z", "26")})
	require.Equal(t, []string{"z"}, ids(s.Snapshot().Records))

	s.ReplaceAll(nil)
	require.Empty(t, s.Snapshot().Records)
	require.Equal(t, 2, p.count())
}

func TestAdvanceStatusStopsAtVoid(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "1")})
	var seen []cor.Status
	for range 8 {
		require.True(t, s.AdvanceStatus("a"))
		got, _ := s.Snapshot().Find("a")
		seen = append(seen, got.Status)
	}
	require.Equal(t, []cor.Status{
		cor.StatusSubmitted,
		cor.StatusPendingReview,
		cor.StatusPendingRFI,
		cor.StatusApproved,
		cor.StatusRejected,
		cor.StatusVoid,
		cor.StatusVoid,
		cor.StatusVoid,
	}, seen)
}

func TestCyclePriority(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "1")})
	var seen []cor.Priority
	for range 3 {
		s.CyclePriority("a")
		got, _ := s.Snapshot().Find("a")
		seen = append(seen, got.Priority)
	}
	require.Equal(t, []cor.Priority{cor.PriorityHigh, cor.PriorityLow, cor.PriorityMedium}, seen)
}

func TestAdjustAmountClampsAtZero(t *testing.T) {
	t.Parallel()

	r := rec("a", "1")
	r.Amount = 150
	s := New([]cor.Record{r})

	s.AdjustAmount("a", 100)
	got, _ := s.Snapshot().Find("a")
	require.Equal(t, 250.0, got.Amount)

	s.AdjustAmount("a", -1000)
	got, _ = s.Snapshot().Find("a")
	require.Equal(t, 0.0, got.Amount)
}

func TestSortByTogglesDirection(t *testing.T) {
	t.Parallel()

	s := New(nil)
	s.SortBy(view.SortAmount)
	require.Equal(t, view.Sort{Key: view.SortAmount, Dir: view.Asc}, s.Snapshot().Sort)
	s.SortBy(view.SortAmount)
	require.Equal(t, view.Sort{Key: view.SortAmount, Dir: view.Desc}, s.Snapshot().Sort)
	s.SortBy(view.SortTitle)
	require.Equal(t, view.Sort{Key: view.SortTitle, Dir: view.Asc}, s.Snapshot().Sort)

	// createdAt is the default key, so choosing it flips desc to asc.
	s.SetSort(view.DefaultSort)
	s.SortBy(view.SortCreatedAt)
	require.Equal(t, view.Asc, s.Snapshot().Sort.Dir)
}

func TestConfigChangesDoNotPersist(t *testing.T) {
	t.Parallel()

	p := &fakePersister{}
	s := New(nil, WithPersister(p))
	var ops []Op
	s.Subscribe(func(op Op, _ Snapshot) { ops = append(ops, op) })

	s.ToggleView()
	require.Equal(t, ViewKanban, s.Snapshot().View)
	s.ToggleView()
	require.Equal(t, ViewTable, s.Snapshot().View)
	s.SetView(ViewKanban)
	s.SortBy(view.SortTrade)
	s.SetFilters(view.FilterPatch{Query: cor.Ptr("pump")})
	require.Equal(t, "pump", s.Snapshot().Filters.Query)
	s.ResetFilters()
	require.False(t, s.Snapshot().Filters.Active())

	require.Zero(t, p.count())
	require.Len(t, ops, 6)
	for _, op := range ops {
		require.Equal(t, OpConfig, op)
	}
	require.Equal(t, uint64(6), s.Snapshot().Version)
}

func TestSetFiltersMerges(t *testing.T) {
	t.Parallel()

	s := New(nil)
	s.SetFilters(view.FilterPatch{Trades: &[]string{"Electrical"}, MinAmount: cor.Ptr(100.0)})
	s.SetFilters(view.FilterPatch{Query: cor.Ptr("panel")})
	f := s.Snapshot().Filters
	require.Equal(t, []string{"Electrical"}, f.Trades)
	require.Equal(t, "panel", f.Query)
	require.NotNil(t, f.MinAmount)

	s.SetFilters(view.FilterPatch{ClearMinAmount: true})
	require.Nil(t, s.Snapshot().Filters.MinAmount)
	require.Equal(t, []string{"Electrical"}, s.Snapshot().Filters.Trades)
}

func TestListenersSeeMutationSnapshot(t *testing.T) {
	t.Parallel()

	s := New(nil)
	var got []Snapshot
	var ops []Op
	s.Subscribe(func(op Op, snap Snapshot) {
		ops = append(ops, op)
		got = append(got, snap)
	})
	s.Add(rec("a", "1"))
	s.AdvanceStatus("a")

	require.Equal(t, []Op{OpAdd, OpAdvance}, ops)
	require.Len(t, got[0].Records, 1)
	require.Equal(t, cor.StatusDraft, got[0].Records[0].Status)
	require.Equal(t, cor.StatusSubmitted, got[1].Records[0].Status)
	require.Equal(t, uint64(2), got[1].Version)
}

func TestSnapshotIsolation(t *testing.T) {
	t.Parallel()

	r := rec("a", "1")
	r.Tags = []string{"owner"}
	input := []cor.Record{r}
	s := New(input)
	input[0].Title = "mutated"
	input[0].Tags[0] = "mutated"

	snap := s.Snapshot()
	require.Equal(t, "1", snap.Records[0].Title)
	require.Equal(t, []string{"owner"}, snap.Records[0].Tags)

	snap.Records[0].Tags[0] = "changed"
	require.Equal(t, []string{"owner"}, s.Snapshot().Records[0].Tags)
}

func TestPersistFailureDoesNotBlockMutation(t *testing.T) {
	t.Parallel()

	p := &fakePersister{err: errors.New("disk full")}
	s := New(nil, WithPersister(p))
	s.Add(rec("a", "1"))
	require.Len(t, s.Snapshot().Records, 1)
	require.Equal(t, 1, p.count())
}

func TestSnapshotProject(t *testing.T) {
	t.Parallel()

	a, b := rec("a", "COR-1"), rec("b", "COR-2")
	a.Amount, b.Amount = 10, 20
	s := New([]cor.Record{a, b})
	s.SortBy(view.SortAmount)
	s.SortBy(view.SortAmount)
	require.Equal(t, []string{"b", "a"}, ids(s.Snapshot().Project(testNow)))

	s.SetFilters(view.FilterPatch{MaxAmount: cor.Ptr(15.0)})
	require.Equal(t, []string{"a"}, ids(s.Snapshot().Project(testNow)))
}

func TestConcurrentMutations(t *testing.T) {
	t.Parallel()

	s := New(nil, WithPersister(&fakePersister{}))
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Add(rec(string(rune('a'+i)), "n"))
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	require.Len(t, s.Snapshot().Records, 20)
	require.Equal(t, uint64(20), s.Snapshot().Version)
}

func TestAddReassignsDuplicateIDs(t *testing.T) {
	t.Parallel()

	s := New([]cor.Record{rec("a", "COR-1"), rec("a", "COR-2")})
	first := s.Snapshot().Records
	require.NotEqual(t, first[0].ID, first[1].ID)

	added := s.Add(rec("a", "COR-3"))
	require.NotEqual(t, "a", added.ID)
	got, ok := s.Snapshot().Find(added.ID)
	require.True(t, ok)
	require.Equal(t, "COR-3", got.CORNumber)

	s.Import([]cor.Record{rec("a", "COR-4"), rec("new", "COR-5")})
	seen := map[string]bool{}
	for _, r := range s.Snapshot().Records {
		require.False(t, seen[r.ID], "repeated id %s", r.ID)
		seen[r.ID] = true
	}
	require.True(t, seen["new"])
	require.Len(t, seen, 5)
}

// gatedPersister blocks its first Save until release is closed.
type gatedPersister struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	last    []cor.Record
}

func (g *gatedPersister) Save(_ context.Context, records []cor.Record) error {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()
	if first {
		close(g.entered)
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.last = records
	return nil
}

func TestPersistenceFollowsVersionOrder(t *testing.T) {
	t.Parallel()

	g := &gatedPersister{entered: make(chan struct{}), release: make(chan struct{})}
	s := New([]cor.Record{rec("a", "COR-1")}, WithPersister(g))
	var versions []uint64
	var vmu sync.Mutex
	s.Subscribe(func(_ Op, snap Snapshot) {
		vmu.Lock()
		defer vmu.Unlock()
		versions = append(versions, snap.Version)
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.AdjustAmount("a", 100)
	}()
	<-g.entered
	go func() {
		defer wg.Done()
		s.AdjustAmount("a", 100)
	}()
	time.Sleep(20 * time.Millisecond)
	close(g.release)
	wg.Wait()

	require.Equal(t, 200.0, s.Snapshot().Records[0].Amount)
	g.mu.Lock()
	defer g.mu.Unlock()
	require.Equal(t, 200.0, g.last[0].Amount)
	require.Equal(t, []uint64{1, 2}, versions)
}
