package csvcodec

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jask/cortracker/internal/cor"
)

// ParseLine splits one CSV line. Outside quotes a comma ends a field; inside
// quotes "" is a literal quote and commas are literal; a lone quote toggles
// the quoted state and is dropped.
func ParseLine(line string) []string {
	var (
		out      []string
		cur      strings.Builder
		inQuotes bool
	)
	for i := 0; i < len(line); i++ {
		ch := line[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(line) && line[i+1] == '"' {
				cur.WriteByte('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			out = append(out, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	return append(out, cur.String())
}

// Decode parses a CSV document into fresh records. Each record gets a new id
// and createdAt = now; identities in the source are never trusted. A document
// with no data lines yields an empty, non-nil slice.
func Decode(text string, now time.Time) []cor.Record {
	lines := splitLines(text)
	out := make([]cor.Record, 0, len(lines))
	if len(lines) == 0 {
		return out
	}
	headers := parseHeader(lines[0])
	for _, line := range lines[1:] {
		cols := ParseLine(line)
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(cols) {
				row[h] = cols[i]
			} else {
				row[h] = ""
			}
		}
		out = append(out, decodeRow(row, now))
	}
	return out
}

// DecodeReader reads the whole of r and decodes it. Only read failures are
// reported as errors.
func DecodeReader(r io.Reader, now time.Time) ([]cor.Record, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return Decode(string(b), now), nil
}

func decodeRow(row map[string]string, now time.Time) cor.Record {
	status, ok := cor.ParseStatus(row[ColStatus])
	if !ok {
		status = cor.StatusDraft
	}
	priority, ok := cor.ParsePriority(row[ColPriority])
	if !ok {
		priority = cor.PriorityMedium
	}
	zero := 0
	return cor.Record{
		ID:            cor.NewID(),
		CORNumber:     row[ColCORNumber],
		Title:         row[ColTitle],
		Subcontractor: row[ColSubcontractor],
		Trade:         row[ColTrade],
		SubmittedAt:   ParseTime(row[ColSubmittedAt]),
		DueAt:         ParseTime(row[ColDueAt]),
		Status:        status,
		Priority:      priority,
		Amount:        ParseAmount(row[ColAmount]),
		OwnerRef:      row[ColOwnerRef],
		RFI:           row[ColRFI],
		Tags:          splitTags(row[ColTags]),
		Notes:         row[ColNotes],
		Attachments:   &zero,
		CreatedAt:     now.UTC(),
	}
}

// parseHeader splits naively on commas; header names never contain commas.
func parseHeader(line string) []string {
	parts := strings.Split(strings.TrimPrefix(line, "\ufeff"), ",")
	for i, p := range parts {
		parts[i] = trimQuotes(strings.TrimSpace(p))
	}
	return parts
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSuffix(l, "\r")
		if l == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}

func splitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, TagSeparator) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// trimQuotes removes one leading and one trailing quote, if present.
func trimQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
