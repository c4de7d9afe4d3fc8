package rewriting

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-guard/internal/types"
)

// lengthTolerancePercent is how far a rewrite may drift from the original length
const lengthTolerancePercent = 0.2

// Common strong action verbs for resume bullets (heuristic check)
var strongVerbs = map[string]bool{
	"achieved": true, "architected": true, "automated": true, "built": true,
	"created": true, "delivered": true, "designed": true, "developed": true,
	"engineered": true, "implemented": true, "improved": true, "increased": true,
	"launched": true, "led": true, "modeled": true, "optimized": true,
	"owned": true, "reduced": true, "scaled": true, "shipped": true,
}

var digitRe = regexp.MustCompile(`\d`)

// ValidateStyle reports advisory style signals for a rewrite.
func ValidateStyle(rewritten, original string) types.StyleChecks {
	return types.StyleChecks{
		StrongVerb:   checkStrongVerb(strings.ToLower(strings.TrimSpace(rewritten))),
		Quantified:   digitRe.MatchString(rewritten) || strings.Contains(rewritten, "%"),
		TargetLength: checkTargetLength(len(rewritten), len(original)),
	}
}

func checkStrongVerb(textLower string) bool {
	words := strings.Fields(textLower)
	if len(words) == 0 {
		return false
	}
	first := strings.TrimRight(words[0], ".,!?;:")
	if strongVerbs[first] {
		return true
	}
	// past-tense verbs are the usual bullet opener
	return strings.HasSuffix(first, "ed") && len(first) > 3
}

func checkTargetLength(rewrittenLength, originalLength int) bool {
	if originalLength == 0 {
		return rewrittenLength > 0
	}
	tolerance := float64(originalLength) * lengthTolerancePercent
	minLength := float64(originalLength) - tolerance
	maxLength := float64(originalLength) + tolerance
	return float64(rewrittenLength) >= minLength && float64(rewrittenLength) <= maxLength*1.5
}
