package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jask/cortracker/internal/cor"
	"github.com/jask/cortracker/internal/csvcodec"
	"github.com/jask/cortracker/internal/store"
	"github.com/jask/cortracker/internal/view"
)

func statusNames() []string {
	return lo.Map(cor.Statuses(), func(s cor.Status, _ int) string { return s.String() })
}

func priorityNames() []string {
	return lo.Map(cor.Priorities(), func(p cor.Priority, _ int) string { return p.String() })
}

func sortKeyNames() []string {
	return lo.Map(view.SortKeys(), func(k view.SortKey, _ int) string { return string(k) })
}

func agingNames() []string {
	return lo.Map(view.AgingBuckets(), func(a view.Aging, _ int) string { return a.String() })
}

func parseStatus(s string) (cor.Status, error) {
	st, ok := cor.ParseStatus(s)
	if !ok {
		return cor.StatusDraft, unknownName("status", s, statusNames())
	}
	return st, nil
}

func parseStatuses(in []string) ([]cor.Status, error) {
	out := make([]cor.Status, 0, len(in))
	for _, s := range in {
		st, err := parseStatus(s)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return lo.Uniq(out), nil
}

func parsePriority(s string) (cor.Priority, error) {
	p, ok := cor.ParsePriority(s)
	if !ok {
		return cor.PriorityMedium, unknownName("priority", s, priorityNames())
	}
	return p, nil
}

func parseSortKey(s string) (view.SortKey, error) {
	k, ok := view.ParseSortKey(s)
	if !ok {
		return "", unknownName("sort key", s, sortKeyNames())
	}
	return k, nil
}

func parseAging(s string) (view.Aging, error) {
	a, ok := view.ParseAging(s)
	if !ok {
		return view.AgingAny, unknownName("aging bucket", s, agingNames())
	}
	return a, nil
}

// parseDate accepts RFC 3339 or YYYY-MM-DD. Blank means absent.
func parseDate(flag, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t := csvcodec.ParseTime(s)
	if t == nil {
		return nil, fmt.Errorf("--%s: %q is not a date (want YYYY-MM-DD)", flag, s)
	}
	return t, nil
}

// resolve finds a record by id, then by case-insensitive COR number.
func resolve(snap store.Snapshot, ref string) (cor.Record, error) {
	ref = strings.TrimSpace(ref)
	if r, ok := snap.Find(ref); ok {
		return r, nil
	}
	matches := lo.Filter(snap.Records, func(r cor.Record, _ int) bool {
		return strings.EqualFold(r.CORNumber, ref)
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		numbers := lo.Map(snap.Records, func(r cor.Record, _ int) string { return r.CORNumber })
		if s := suggest(ref, numbers); s != "" {
			return cor.Record{}, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownRecord, ref, s)
		}
		return cor.Record{}, fmt.Errorf("%w %q", ErrUnknownRecord, ref)
	}
	ids := lo.Map(matches, func(r cor.Record, _ int) string { return r.ID })
	return cor.Record{}, fmt.Errorf("%q matches %d records, use an id: %s", ref, len(matches), strings.Join(ids, ", "))
}
