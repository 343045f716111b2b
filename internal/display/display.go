// Package display formats record values for the terminal.
package display

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing stands in for absent values.
const Missing = "-"

var printer = message.NewPrinter(language.English)

// Currency renders v as whole units with thousands grouping, e.g. $134,000.
func Currency(symbol string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	n := int64(math.Round(v))
	if n < 0 {
		return "-" + symbol + printer.Sprintf("%d", -n)
	}
	return symbol + printer.Sprintf("%d", n)
}

// Count renders n with thousands grouping.
func Count(n int) string { return printer.Sprintf("%d", n) }

// Date renders t in loc with layout, or Missing when t is nil.
func Date(t *time.Time, layout string, loc *time.Location) string {
	if t == nil {
		return Missing
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(layout)
}

// Location resolves a timezone name, falling back to the local zone.
func Location(name string) *time.Location {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// Text returns s, or Missing when blank.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return Missing
	}
	return s
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// Tags joins tags for a single cell.
func Tags(tags []string) string {
	if len(tags) == 0 {
		return Missing
	}
	return strings.Join(tags, ", ")
}
