// Package testdata generates sample COR collections for tests and demos.
package testdata

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jask/cortracker/internal/cor"
)

type options struct {
	awkward bool
}

// Option tweaks generated records.
type Option func(*options)

// WithAwkwardText mixes commas, quotes, pipes and padding into the text fields
// (pipes never appear inside tags, where they are the separator).
func WithAwkwardText() Option {
	return func(o *options) { o.awkward = true }
}

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var (
	titles = []string{
		"Add blocking at restroom accessories",
		"Lighting control at corridor",
		"Seal coat church parking",
		"Grind & overlay church lot",
		"Additional FRP at classrooms",
		"Relocate fire alarm pull station",
		"Owner-requested door hardware change",
	}
	subs   = []string{"Certified Carpentry", "Access Electric", "CM Paving", "Letner Coatings", "Apex Fire"}
	trades = []string{"Carpentry", "Electrical", "Paving", "Finishes", "Fire Protection"}
	tags   = []string{"Phase 1", "Phase 2", "Restrooms", "Lighting", "Controls", "Alt", "Pricing"}
	spice  = []string{`, inc`, ` "rev B"`, ` | alt`, `  `, `""`, `,`}
)

// Records generates n records with createdAt and submittedAt up to 120 days
// before now.
func Records(r *rand.Rand, n int, now time.Time, opts ...Option) []cor.Record {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	statuses := cor.Statuses()
	priorities := cor.Priorities()

	out := make([]cor.Record, 0, n)
	for i := 0; i < n; i++ {
		d := cor.Draft{
			CORNumber:     fmt.Sprintf("COR-%03d", i+1),
			Title:         pick(r, titles),
			Subcontractor: pick(r, subs),
			Trade:         pick(r, trades),
			Status:        statuses[r.IntN(len(statuses))],
			Priority:      priorities[r.IntN(len(priorities))],
			Amount:        float64(r.IntN(20000000)) / 100,
		}
		if r.IntN(5) > 0 {
			sub := now.Add(-time.Duration(r.Int64N(int64(120 * 24 * time.Hour))))
			d.SubmittedAt = &sub
			due := sub.AddDate(0, 0, 7+r.IntN(21))
			d.DueAt = &due
		}
		if r.IntN(2) == 0 {
			d.OwnerRef = fmt.Sprintf("PCO-%d", r.IntN(90)+10)
		}
		if r.IntN(2) == 0 {
			d.RFI = fmt.Sprintf("RFI-%d", r.IntN(90)+10)
		}
		for j := r.IntN(3); j > 0; j-- {
			d.Tags = append(d.Tags, pick(r, tags))
		}
		if r.IntN(3) == 0 {
			d.Notes = "Scope clarified.\nAwaiting owner decision."
		}
		if o.awkward {
			d.CORNumber += pickSpice(r)
			d.Title += pickSpice(r)
			d.Subcontractor += pickSpice(r)
			d.Trade = ` ` + d.Trade + pickSpice(r)
			d.OwnerRef += pickSpice(r)
			d.RFI += pickSpice(r)
			d.Tags = append(d.Tags, `has, comma`, `"quoted"`)
		}
		rec := cor.New(d, now.Add(-time.Duration(r.Int64N(int64(120*24*time.Hour)))))
		out = append(out, rec)
	}
	return out
}

func pick(r *rand.Rand, from []string) string { return from[r.IntN(len(from))] }

func pickSpice(r *rand.Rand) string {
	if r.IntN(4) == 0 {
		return ""
	}
	return spice[r.IntN(len(spice))]
}
