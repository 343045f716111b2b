package view

import (
	"time"

	"github.com/jask/cortracker/internal/cor"
)

// Metrics summarises the records that are still open, i.e. not Approved,
// Rejected or Void. The Over* counts overlap.
type Metrics struct {
	Total        int
	OpenCount    int
	PendingValue float64
	Over30       int
	Over60       int
	Over90       int
}

// Summarize computes Metrics over the full record collection.
func Summarize(records []cor.Record, now time.Time) Metrics {
	m := Metrics{Total: len(records)}
	for _, r := range records {
		if r.Status.Terminal() {
			continue
		}
		m.OpenCount++
		m.PendingValue += r.Amount
		age := r.AgeDays(now)
		if age > 30 {
			m.Over30++
		}
		if age > 60 {
			m.Over60++
		}
		if age > 90 {
			m.Over90++
		}
	}
	return m
}

// Closed is the number of records in a terminal status.
func (m Metrics) Closed() int { return m.Total - m.OpenCount }
