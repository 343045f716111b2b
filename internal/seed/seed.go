// Package seed provides the built-in demo collection used when nothing has
// been persisted yet.
package seed

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jask/cortracker/internal/cor"
)

//go:embed seed.yaml
var seedYAML []byte

type entry struct {
	CORNumber        string   `yaml:"corNumber"`
	Title            string   `yaml:"title"`
	Subcontractor    string   `yaml:"subcontractor"`
	Trade            string   `yaml:"trade"`
	SubmittedDaysAgo *int     `yaml:"submittedDaysAgo"`
	DueDaysAhead     *int     `yaml:"dueDaysAhead"`
	Status           string   `yaml:"status"`
	Priority         string   `yaml:"priority"`
	Amount           float64  `yaml:"amount"`
	OwnerRef         string   `yaml:"ownerRef"`
	RFI              string   `yaml:"rfi"`
	Tags             []string `yaml:"tags"`
	Notes            string   `yaml:"notes"`
	Attachments      *int     `yaml:"attachments"`
	CreatedDaysAgo   int      `yaml:"createdDaysAgo"`
}

// Records returns the seed collection with dates anchored at now and fresh ids.
func Records(now time.Time) []cor.Record {
	out, err := Parse(seedYAML, now)
	if err != nil {
		panic(fmt.Sprintf("seed: embedded data: %v", err))
	}
	return out
}

// Parse decodes a YAML list of seed entries.
func Parse(data []byte, now time.Time) ([]cor.Record, error) {
	var entries []entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	now = now.UTC()
	out := make([]cor.Record, 0, len(entries))
	for i, e := range entries {
		status, ok := cor.ParseStatus(e.Status)
		if !ok && e.Status != "" {
			return nil, fmt.Errorf("parse seed: entry %d: unknown status %q", i, e.Status)
		}
		priority, ok := cor.ParsePriority(e.Priority)
		if !ok && e.Priority != "" {
			return nil, fmt.Errorf("parse seed: entry %d: unknown priority %q", i, e.Priority)
		}
		out = append(out, cor.Record{
			ID:            cor.NewID(),
			CORNumber:     e.CORNumber,
			Title:         e.Title,
			Subcontractor: e.Subcontractor,
			Trade:         e.Trade,
			SubmittedAt:   daysFrom(now, e.SubmittedDaysAgo, -1),
			DueAt:         daysFrom(now, e.DueDaysAhead, 1),
			Status:        status,
			Priority:      priority,
			Amount:        cor.ClampAmount(e.Amount),
			OwnerRef:      e.OwnerRef,
			RFI:           e.RFI,
			Tags:          append([]string{}, e.Tags...),
			Notes:         e.Notes,
			Attachments:   e.Attachments,
			CreatedAt:     now.AddDate(0, 0, -e.CreatedDaysAgo),
		})
	}
	return out, nil
}

func daysFrom(now time.Time, days *int, sign int) *time.Time {
	if days == nil {
		return nil
	}
	t := now.AddDate(0, 0, sign * *days)
	return &t
}
