package cor

import (
	"fmt"
	"strings"
)

// Status is the approval state of a COR. The zero value is StatusDraft.
type Status uint8

const (
	StatusDraft Status = iota
	StatusSubmitted
	StatusPendingReview
	StatusPendingRFI
	StatusApproved
	StatusRejected
	StatusVoid
)

// statusOrder is the fixed progression; a status's index is its rank.
var statusOrder = [...]Status{
	StatusDraft,
	StatusSubmitted,
	StatusPendingReview,
	StatusPendingRFI,
	StatusApproved,
	StatusRejected,
	StatusVoid,
}

var statusNames = map[Status]string{
	StatusDraft:         "Draft",
	StatusSubmitted:     "Submitted",
	StatusPendingReview: "Pending Review",
	StatusPendingRFI:    "Pending RFI",
	StatusApproved:      "Approved",
	StatusRejected:      "Rejected",
	StatusVoid:          "Void",
}

// Statuses returns every status in progression order.
func Statuses() []Status {
	out := make([]Status, len(statusOrder))
	copy(out, statusOrder[:])
	return out
}

// ParseStatus matches a display name, ignoring case and surrounding space.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range statusOrder {
		if strings.EqualFold(statusNames[st], s) {
			return st, true
		}
	}
	return StatusDraft, false
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// Rank is the position of s in the progression.
func (s Status) Rank() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return 0
}

// Next advances one step. Void is terminal and advancing it is a no-op.
func (s Status) Next() Status {
	r := s.Rank()
	if r+1 >= len(statusOrder) {
		return statusOrder[len(statusOrder)-1]
	}
	return statusOrder[r+1]
}

// Terminal reports whether s is excluded from open accounting.
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusVoid:
		return true
	}
	return false
}

func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	st, ok := ParseStatus(string(b))
	if !ok {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = st
	return nil
}
