// Package csvcodec converts COR records to and from the tracker's CSV
// interchange format.
//
// Every field is quoted on encode and embedded quotes are doubled. Notes lose
// their newlines. Decoding is by header name, tolerates missing columns and
// never fails on malformed lines.
package csvcodec

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jask/cortracker/internal/cor"
)

// Column names in export order.
const (
	ColCORNumber     = "corNumber"
	ColTitle         = "title"
	ColSubcontractor = "subcontractor"
	ColTrade         = "trade"
	ColSubmittedAt   = "submittedAt"
	ColDueAt         = "dueAt"
	ColStatus        = "status"
	ColPriority      = "priority"
	ColAmount        = "amount"
	ColOwnerRef      = "ownerRef"
	ColRFI           = "rfi"
	ColTags          = "tags"
	ColNotes         = "notes"
)

// Header is the fixed export column order.
var Header = []string{
	ColCORNumber, ColTitle, ColSubcontractor, ColTrade, ColSubmittedAt, ColDueAt,
	ColStatus, ColPriority, ColAmount, ColOwnerRef, ColRFI, ColTags, ColNotes,
}

// HeaderLine is the literal first line of every export.
var HeaderLine = strings.Join(Header, ",")

// TagSeparator joins tags inside the tags column.
const TagSeparator = "|"

// TimeLayout is the UTC ISO-8601 form used for timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Encode renders records as a CSV document with no trailing newline.
func Encode(records []cor.Record) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, HeaderLine)
	for _, r := range records {
		lines = append(lines, encodeRecord(r))
	}
	return strings.Join(lines, "\n")
}

// Write encodes records to w.
func Write(w io.Writer, records []cor.Record) error {
	_, err := io.WriteString(w, Encode(records))
	return err
}

func encodeRecord(r cor.Record) string {
	fields := []string{
		r.CORNumber,
		r.Title,
		r.Subcontractor,
		r.Trade,
		formatTime(r.SubmittedAt),
		formatTime(r.DueAt),
		r.Status.String(),
		r.Priority.String(),
		FormatAmount(r.Amount),
		r.OwnerRef,
		r.RFI,
		strings.Join(r.Tags, TagSeparator),
		strings.ReplaceAll(r.Notes, "\n", " "),
	}
	for i, f := range fields {
		fields[i] = quote(f)
	}
	return strings.Join(fields, ",")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// FormatAmount writes the shortest decimal that round-trips the value.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseAmount coerces text to a non-negative amount; anything unusable is 0.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return cor.ClampAmount(v)
}

// ParseTime accepts RFC 3339 timestamps of any precision or a bare date.
// Anything else is treated as absent.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
