package view

import (
	"slices"

	"github.com/samber/lo"

	"github.com/jask/cortracker/internal/cor"
)

// Facets are the distinct values offered as filter options.
type Facets struct {
	Trades         []string
	Subcontractors []string
	Tags           []string
}

// FacetsOf collects sorted, de-duplicated option lists from records.
func FacetsOf(records []cor.Record) Facets {
	var tags []string
	for _, r := range records {
		tags = append(tags, r.Tags...)
	}
	return Facets{
		Trades:         sortedUniq(lo.Map(records, func(r cor.Record, _ int) string { return r.Trade })),
		Subcontractors: sortedUniq(lo.Map(records, func(r cor.Record, _ int) string { return r.Subcontractor })),
		Tags:           sortedUniq(tags),
	}
}

func sortedUniq(in []string) []string {
	out := lo.Uniq(in)
	slices.Sort(out)
	return out
}

// Column is one kanban lane.
type Column struct {
	Status  cor.Status
	Records []cor.Record
}

// Board groups records by status, one column per status in progression order.
// Order within a column follows the input.
func Board(records []cor.Record) []Column {
	statuses := cor.Statuses()
	cols := make([]Column, len(statuses))
	idx := make(map[cor.Status]int, len(statuses))
	for i, s := range statuses {
		cols[i] = Column{Status: s, Records: []cor.Record{}}
		idx[s] = i
	}
	for _, r := range records {
		if i, ok := idx[r.Status]; ok {
			cols[i].Records = append(cols[i].Records, r)
		}
	}
	return cols
}
