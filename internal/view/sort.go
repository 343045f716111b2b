package view

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jask/cortracker/internal/cor"
)

// SortKey names a record field, or the derived aging key.
type SortKey string

const (
	SortID            SortKey = "id"
	SortCORNumber     SortKey = "corNumber"
	SortTitle         SortKey = "title"
	SortSubcontractor SortKey = "subcontractor"
	SortTrade         SortKey = "trade"
	SortSubmittedAt   SortKey = "submittedAt"
	SortDueAt         SortKey = "dueAt"
	SortStatus        SortKey = "status"
	SortPriority      SortKey = "priority"
	SortAmount        SortKey = "amount"
	SortOwnerRef      SortKey = "ownerRef"
	SortRFI           SortKey = "rfi"
	SortTags          SortKey = "tags"
	SortNotes         SortKey = "notes"
	SortAttachments   SortKey = "attachments"
	SortCreatedAt     SortKey = "createdAt"
	SortAgingDays     SortKey = "agingDays"
)

var sortKeys = []SortKey{
	SortCORNumber, SortTitle, SortSubcontractor, SortTrade, SortSubmittedAt, SortDueAt,
	SortStatus, SortPriority, SortAmount, SortOwnerRef, SortRFI, SortTags, SortNotes,
	SortAttachments, SortCreatedAt, SortAgingDays, SortID,
}

// SortKeys lists every sortable key.
func SortKeys() []SortKey { return slices.Clone(sortKeys) }

// ParseSortKey matches a key name case-insensitively.
func ParseSortKey(s string) (SortKey, bool) {
	s = strings.TrimSpace(s)
	for _, k := range sortKeys {
		if strings.EqualFold(string(k), s) {
			return k, true
		}
	}
	return "", false
}

// Direction is ascending or descending.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Desc {
		return Asc
	}
	return Desc
}

// Sort is the ordering configuration.
type Sort struct {
	Key SortKey
	Dir Direction
}

// DefaultSort shows the newest records first.
var DefaultSort = Sort{Key: SortCreatedAt, Dir: Desc}

func (s Sort) String() string { return fmt.Sprintf("%s %s", s.Key, s.Dir) }

// sortValue is a record's value for one key; null values sort last.
type sortValue struct {
	null bool
	num  float64
	text string
	time time.Time
	kind byte
}

const (
	kindNum byte = iota
	kindText
	kindTime
)

func numValue(v float64) sortValue { return sortValue{num: v, kind: kindNum} }
func textValue(s string) sortValue { return sortValue{text: s, kind: kindText} }
func optionalText(s string) sortValue { return sortValue{text: s, kind: kindText, null: s == ""} }
func timeValue(t time.Time) sortValue { return sortValue{time: t, kind: kindTime} }
func optionalTime(t *time.Time) sortValue {
	if t == nil {
		return sortValue{null: true, kind: kindTime}
	}
	return timeValue(*t)
}

func valueOf(r cor.Record, key SortKey, now time.Time) sortValue {
	switch key {
	case SortID:
		return textValue(r.ID)
	case SortCORNumber:
		return textValue(r.CORNumber)
	case SortTitle:
		return textValue(r.Title)
	case SortSubcontractor:
		return textValue(r.Subcontractor)
	case SortTrade:
		return textValue(r.Trade)
	case SortSubmittedAt:
		return optionalTime(r.SubmittedAt)
	case SortDueAt:
		return optionalTime(r.DueAt)
	// Status and priority order by workflow rank (Draft..Void, Low..High),
	// not alphabetically by label.
	case SortStatus:
		return numValue(float64(r.Status.Rank()))
	case SortPriority:
		return numValue(float64(r.Priority.Rank()))
	case SortAmount:
		return numValue(r.Amount)
	case SortOwnerRef:
		return optionalText(r.OwnerRef)
	case SortRFI:
		return optionalText(r.RFI)
	case SortTags:
		return textValue(strings.Join(r.Tags, ","))
	case SortNotes:
		return optionalText(r.Notes)
	case SortAttachments:
		if r.Attachments == nil {
			return sortValue{null: true}
		}
		return numValue(float64(*r.Attachments))
	case SortAgingDays:
		return numValue(float64(r.AgeDays(now)))
	default:
		return timeValue(r.CreatedAt)
	}
}

func (a sortValue) compare(b sortValue) int {
	switch a.kind {
	case kindText:
		return strings.Compare(a.text, b.text)
	case kindTime:
		return a.time.Compare(b.time)
	default:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
}

// SortRecords orders records in place, stably. Records with no value for the
// key go last in either direction.
func SortRecords(records []cor.Record, s Sort, now time.Time) {
	type keyed struct {
		rec cor.Record
		val sortValue
	}
	items := make([]keyed, len(records))
	for i, r := range records {
		items[i] = keyed{rec: r, val: valueOf(r, s.Key, now)}
	}
	slices.SortStableFunc(items, func(a, b keyed) int {
		switch {
		case a.val.null && b.val.null:
			return 0
		case a.val.null:
			return 1
		case b.val.null:
			return -1
		}
		c := a.val.compare(b.val)
		if s.Dir == Desc {
			c = -c
		}
		return c
	})
	for i := range items {
		records[i] = items[i].rec
	}
}

// Project filters then sorts a copy of records. The input is not modified.
func Project(records []cor.Record, f Filters, s Sort, now time.Time) []cor.Record {
	out := Filter(records, f, now)
	SortRecords(out, s, now)
	return out
}
