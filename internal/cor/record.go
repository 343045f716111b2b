package cor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is a single Change Order Request.
//
// Empty OwnerRef, RFI and Notes mean the value is absent. ID and CreatedAt are
// assigned once by New and never changed by Apply.
type Record struct {
	ID            string     `json:"id"`
	CORNumber     string     `json:"corNumber"`
	Title         string     `json:"title"`
	Subcontractor string     `json:"subcontractor"`
	Trade         string     `json:"trade"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	DueAt         *time.Time `json:"dueAt,omitempty"`
	Status        Status     `json:"status"`
	Priority      Priority   `json:"priority"`
	Amount        float64    `json:"amount"`
	OwnerRef      string     `json:"ownerRef,omitempty"`
	RFI           string     `json:"rfi,omitempty"`
	Tags          []string   `json:"tags"`
	Notes         string     `json:"notes,omitempty"`
	Attachments   *int       `json:"attachments,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// MarshalJSON always emits tags as an array.
func (r Record) MarshalJSON() ([]byte, error) {
	type plain Record
	p := plain(r)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return json.Marshal(p)
}

// Draft carries the user-supplied fields of a record being created. Zero
// Status and Priority are Draft and Medium.
type Draft struct {
	CORNumber     string
	Title         string
	Subcontractor string
	Trade         string
	SubmittedAt   *time.Time
	DueAt         *time.Time
	Status        Status
	Priority      Priority
	Amount        float64
	OwnerRef      string
	RFI           string
	Tags          []string
	Notes         string
	Attachments   *int
}

// New builds a record with a fresh id and createdAt set to now. A blank COR
// number is replaced with a generated COR-NNN.
func New(d Draft, now time.Time) Record {
	number := strings.TrimSpace(d.CORNumber)
	if number == "" {
		number = fmt.Sprintf("COR-%d", rand.IntN(900)+100)
	}
	status, priority := d.Status, d.Priority
	if !status.Valid() {
		status = StatusDraft
	}
	if !priority.Valid() {
		priority = PriorityMedium
	}
	return Record{
		ID:            NewID(),
		CORNumber:     number,
		Title:         d.Title,
		Subcontractor: d.Subcontractor,
		Trade:         d.Trade,
		SubmittedAt:   cloneTime(d.SubmittedAt),
		DueAt:         cloneTime(d.DueAt),
		Status:        status,
		Priority:      priority,
		Amount:        ClampAmount(d.Amount),
		OwnerRef:      d.OwnerRef,
		RFI:           d.RFI,
		Tags:          cloneTags(d.Tags),
		Notes:         d.Notes,
		Attachments:   cloneInt(d.Attachments),
		CreatedAt:     now.UTC(),
	}
}

// NewID returns an opaque unique record id.
func NewID() string { return uuid.NewString() }

// AssignUniqueIDs gives a fresh id to every record whose id is blank, repeats
// an earlier record's id, or is one of taken. Records are updated in place;
// the count of reassigned ids is returned.
func AssignUniqueIDs(records []Record, taken map[string]struct{}) int {
	seen := make(map[string]struct{}, len(taken)+len(records))
	for id := range taken {
		seen[id] = struct{}{}
	}
	n := 0
	for i := range records {
		if _, dup := seen[records[i].ID]; dup || records[i].ID == "" {
			records[i].ID = NewID()
			n++
		}
		seen[records[i].ID] = struct{}{}
	}
	return n
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	c := r
	c.SubmittedAt = cloneTime(r.SubmittedAt)
	c.DueAt = cloneTime(r.DueAt)
	c.Attachments = cloneInt(r.Attachments)
	c.Tags = cloneTags(r.Tags)
	return c
}

// AgeDays is the number of whole days since submission, 0 when unsubmitted.
func (r Record) AgeDays(now time.Time) int {
	return AgeDays(r.SubmittedAt, now)
}

// AgeDays floors the elapsed time between submitted and now to whole days.
func AgeDays(submitted *time.Time, now time.Time) int {
	if submitted == nil {
		return 0
	}
	return int(math.Floor(now.Sub(*submitted).Hours() / 24))
}

// ClampAmount keeps monetary values non-negative and finite.
func ClampAmount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// AdjustAmount adds delta to amount without going below zero.
func AdjustAmount(amount, delta float64) float64 {
	return ClampAmount(amount + delta)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}
