package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrUnknownRecord is returned when a reference matches no record.
var ErrUnknownRecord = errors.New("unknown record")

// suggest returns the candidate closest to input, or "" when nothing is
// close enough to be a plausible typo.
func suggest(input string, candidates []string) string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" {
		return ""
	}
	limit := max(2, len(in)/3)
	best, bestDist := "", limit+1
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(in, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func unknownName(kind, input string, candidates []string) error {
	if s := suggest(input, candidates); s != "" {
		return fmt.Errorf("unknown %s %q (did you mean %q?)", kind, input, s)
	}
	return fmt.Errorf("unknown %s %q (want one of: %s)", kind, input, strings.Join(candidates, ", "))
}
