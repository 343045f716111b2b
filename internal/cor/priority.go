package cor

import (
	"fmt"
	"strings"
)

// Priority is a COR's urgency. The zero value is PriorityMedium, the default
// for new and imported records.
type Priority uint8

const (
	PriorityMedium Priority = iota
	PriorityLow
	PriorityHigh
)

// priorityOrder is the cycle Low -> Medium -> High -> Low.
var priorityOrder = [...]Priority{PriorityLow, PriorityMedium, PriorityHigh}

var priorityNames = map[Priority]string{
	PriorityLow:    "Low",
	PriorityMedium: "Medium",
	PriorityHigh:   "High",
}

// Priorities returns every priority in ascending order.
func Priorities() []Priority {
	out := make([]Priority, len(priorityOrder))
	copy(out, priorityOrder[:])
	return out
}

// ParsePriority matches a display name, ignoring case and surrounding space.
func ParsePriority(s string) (Priority, bool) {
	s = strings.TrimSpace(s)
	for _, p := range priorityOrder {
		if strings.EqualFold(priorityNames[p], s) {
			return p, true
		}
	}
	return PriorityMedium, false
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Priority(%d)", uint8(p))
}

// Valid reports whether p is one of the defined priorities.
func (p Priority) Valid() bool {
	_, ok := priorityNames[p]
	return ok
}

// Rank orders priorities Low < Medium < High.
func (p Priority) Rank() int {
	for i, q := range priorityOrder {
		if q == p {
			return i
		}
	}
	return 1
}

// Next cycles the priority; there is no terminal value.
func (p Priority) Next() Priority {
	return priorityOrder[(p.Rank()+1)%len(priorityOrder)]
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", uint8(p))
	}
	return []byte(priorityNames[p]), nil
}

func (p *Priority) UnmarshalText(b []byte) error {
	q, ok := ParsePriority(string(b))
	if !ok {
		return fmt.Errorf("unknown priority %q", string(b))
	}
	*p = q
	return nil
}
