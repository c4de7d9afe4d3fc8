package rewriting

import (
	"fmt"
	"strings"
)

// ClaimError means a rewrite introduced skills or figures that neither the
// original bullet nor the approved additions contain. The rewrite is discarded.
type ClaimError struct {
	Skills  []string
	Numbers []string
}

func (e *ClaimError) Error() string {
	var parts []string
	if len(e.Skills) > 0 {
		parts = append(parts, "unapproved skills: "+strings.Join(e.Skills, ", "))
	}
	if len(e.Numbers) > 0 {
		parts = append(parts, "invented figures: "+strings.Join(e.Numbers, ", "))
	}
	return fmt.Sprintf("rewrite rejected: %s", strings.Join(parts, "; "))
}
