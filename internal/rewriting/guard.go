package rewriting

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-guard/internal/skills"
)

var numberRe = regexp.MustCompile(`\b\d+(?:[.,]\d+)*%?`)

// CheckClaims compares a rewrite with its original. Every dictionary skill
// in the rewrite must appear in the original or in allowed, and every figure
// must already appear in the original. It returns nil when the rewrite is clean.
func CheckClaims(original, rewritten string, allowed []string) *ClaimError {
	var unapproved []string
	for _, skill := range skills.FindInText(rewritten) {
		if skills.MatchesAny(skill, original) || approved(skill, allowed) {
			continue
		}
		unapproved = append(unapproved, skill)
	}

	known := make(map[string]bool)
	for _, n := range numberRe.FindAllString(original, -1) {
		known[normalizeNumber(n)] = true
	}
	var invented []string
	for _, n := range numberRe.FindAllString(rewritten, -1) {
		if !known[normalizeNumber(n)] {
			invented = append(invented, n)
		}
	}

	if len(unapproved) == 0 && len(invented) == 0 {
		return nil
	}
	return &ClaimError{Skills: unapproved, Numbers: invented}
}

func approved(skill string, allowed []string) bool {
	for _, a := range allowed {
		if skills.Key(a) == skills.Key(skill) || skills.MatchesAny(a, skill) {
			return true
		}
	}
	return false
}

func normalizeNumber(n string) string {
	return strings.ReplaceAll(n, ",", "")
}
