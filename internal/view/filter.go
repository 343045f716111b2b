// Package view derives the displayed COR sequence and summary metrics from a
// record collection. Everything here is a pure function of its inputs.
package view

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/jask/cortracker/internal/cor"
)

// Aging selects records older than a threshold.
type Aging uint8

const (
	AgingAny Aging = iota
	AgingOver30
	AgingOver60
	AgingOver90
)

var agingLabels = map[Aging]string{
	AgingAny:    "any",
	AgingOver30: ">30",
	AgingOver60: ">60",
	AgingOver90: ">90",
}

// AgingBuckets lists the selectable buckets in order.
func AgingBuckets() []Aging { return []Aging{AgingAny, AgingOver30, AgingOver60, AgingOver90} }

// ParseAging accepts "any", ">30", "30" and so on.
func ParseAging(s string) (Aging, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return AgingAny, true
	}
	for a, label := range agingLabels {
		if s == label || ">"+s == label {
			return a, true
		}
	}
	return AgingAny, false
}

func (a Aging) String() string {
	if l, ok := agingLabels[a]; ok {
		return l
	}
	return fmt.Sprintf("Aging(%d)", uint8(a))
}

// Threshold is the day count a record must strictly exceed.
func (a Aging) Threshold() (int, bool) {
	switch a {
	case AgingOver30:
		return 30, true
	case AgingOver60:
		return 60, true
	case AgingOver90:
		return 90, true
	}
	return 0, false
}

// Next cycles through the buckets.
func (a Aging) Next() Aging {
	buckets := AgingBuckets()
	for i, b := range buckets {
		if b == a {
			return buckets[(i+1)%len(buckets)]
		}
	}
	return AgingAny
}

// Filters is the view configuration. Empty sets and nil bounds match all.
type Filters struct {
	Query          string       `json:"q"`
	Statuses       []cor.Status `json:"status"`
	Trades         []string     `json:"trades"`
	Subcontractors []string     `json:"subs"`
	Tags           []string     `json:"tags"`
	MinAmount      *float64     `json:"minAmt,omitempty"`
	MaxAmount      *float64     `json:"maxAmt,omitempty"`
	Aging          Aging        `json:"aging"`
}

// Active reports whether any filter narrows the view.
func (f Filters) Active() bool {
	return strings.TrimSpace(f.Query) != "" || len(f.Statuses) > 0 || len(f.Trades) > 0 ||
		len(f.Subcontractors) > 0 || len(f.Tags) > 0 || f.MinAmount != nil || f.MaxAmount != nil ||
		f.Aging != AgingAny
}

// Clone returns a deep copy of f.
func (f Filters) Clone() Filters {
	c := f
	c.Statuses = append([]cor.Status(nil), f.Statuses...)
	c.Trades = append([]string(nil), f.Trades...)
	c.Subcontractors = append([]string(nil), f.Subcontractors...)
	c.Tags = append([]string(nil), f.Tags...)
	if f.MinAmount != nil {
		c.MinAmount = lo.ToPtr(*f.MinAmount)
	}
	if f.MaxAmount != nil {
		c.MaxAmount = lo.ToPtr(*f.MaxAmount)
	}
	return c
}

// Match reports whether r passes every configured filter.
func (f Filters) Match(r cor.Record, now time.Time) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(searchText(r)), q) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !lo.Contains(f.Statuses, r.Status) {
		return false
	}
	if len(f.Trades) > 0 && !lo.Contains(f.Trades, r.Trade) {
		return false
	}
	if len(f.Subcontractors) > 0 && !lo.Contains(f.Subcontractors, r.Subcontractor) {
		return false
	}
	if len(f.Tags) > 0 && !lo.ContainsBy(r.Tags, func(t string) bool { return lo.Contains(f.Tags, t) }) {
		return false
	}
	if f.MinAmount != nil && r.Amount < *f.MinAmount {
		return false
	}
	if f.MaxAmount != nil && r.Amount > *f.MaxAmount {
		return false
	}
	if days, ok := f.Aging.Threshold(); ok && r.AgeDays(now) <= days {
		return false
	}
	return true
}

// Filter returns the records passing f, in input order.
func Filter(records []cor.Record, f Filters, now time.Time) []cor.Record {
	return lo.Filter(records, func(r cor.Record, _ int) bool { return f.Match(r, now) })
}

func searchText(r cor.Record) string {
	parts := []string{r.CORNumber, r.Title, r.Subcontractor, r.Trade, r.OwnerRef, r.RFI, strings.Join(r.Tags, " ")}
	return strings.Join(parts, " ")
}

// ParseBound reads an optional amount limit. Blank or non-numeric text leaves
// the bound unset.
func ParseBound(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

// FilterPatch changes part of a Filters value. Nil fields are kept.
type FilterPatch struct {
	Query          *string
	Statuses       *[]cor.Status
	Trades         *[]string
	Subcontractors *[]string
	Tags           *[]string
	MinAmount      *float64
	MaxAmount      *float64
	ClearMinAmount bool
	ClearMaxAmount bool
	Aging          *Aging
}

// Apply merges p into a copy of f.
func (f Filters) Apply(p FilterPatch) Filters {
	out := f.Clone()
	if p.Query != nil {
		out.Query = *p.Query
	}
	if p.Statuses != nil {
		out.Statuses = append([]cor.Status(nil), (*p.Statuses)...)
	}
	if p.Trades != nil {
		out.Trades = append([]string(nil), (*p.Trades)...)
	}
	if p.Subcontractors != nil {
		out.Subcontractors = append([]string(nil), (*p.Subcontractors)...)
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.ClearMinAmount {
		out.MinAmount = nil
	} else if p.MinAmount != nil {
		out.MinAmount = lo.ToPtr(*p.MinAmount)
	}
	if p.ClearMaxAmount {
		out.MaxAmount = nil
	} else if p.MaxAmount != nil {
		out.MaxAmount = lo.ToPtr(*p.MaxAmount)
	}
	if p.Aging != nil {
		out.Aging = *p.Aging
	}
	return out
}
