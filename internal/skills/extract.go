package skills

import (
	"strings"

	"github.com/jonathan/resume-guard/internal/types"
)

var (
	requiredHeaders  = []string{"required", "requirements", "must have", "must-have", "qualifications"}
	preferredHeaders = []string{"preferred", "nice to have", "nice-to-have", "bonus"}
	dutiesHeaders    = []string{"responsibilities", "responsibility"}
)

// FindInText returns the dictionary skills mentioned in text, directly or by
// synonym, in dictionary order without duplicates.
func FindInText(text string) []string {
	var found []string
	for _, skill := range dictionary {
		if MatchesAny(skill, text) {
			found = append(found, skill)
		}
	}
	return Dedupe(found)
}

// ExtractFromJD splits the skills mentioned in a job description into
// required and preferred groups using section headers. Lines before any
// header and responsibilities count as required. Preferred never repeats a
// required skill. When no line yields a skill the whole text is scanned.
// topN > 0 truncates the result with TruncateSkills.
func ExtractFromJD(jdText string, topN int) types.SkillList {
	var required, preferred []string
	current := &required

	for _, raw := range strings.Split(jdText, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		// preferred is checked first so "Preferred Qualifications" is not read as required
		switch {
		case opensSection(lower, preferredHeaders):
			current = &preferred
		case opensSection(lower, requiredHeaders), opensSection(lower, dutiesHeaders):
			current = &required
		}
		*current = append(*current, FindInText(line)...)
	}

	required = Dedupe(required)
	preferred = Without(Dedupe(preferred), required)

	if len(required) == 0 && len(preferred) == 0 {
		required = FindInText(jdText)
	}
	if topN > 0 {
		required, preferred = TruncateSkills(required, preferred, topN)
	}
	return types.SkillList{Required: required, Preferred: preferred}
}

// TruncateSkills keeps at most limit skills: required first, preferred fills
// whatever room is left.
func TruncateSkills(required, preferred []string, limit int) ([]string, []string) {
	if len(required) >= limit {
		return required[:limit], []string{}
	}
	remaining := limit - len(required)
	if len(preferred) > remaining {
		preferred = preferred[:remaining]
	}
	return required, preferred
}

// Dedupe removes case-insensitive duplicates, keeping first occurrences.
func Dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		key := Key(v)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Without returns values minus any skill present in exclude (case-insensitive).
func Without(values, exclude []string) []string {
	skip := make(map[string]bool, len(exclude))
	for _, v := range exclude {
		skip[Key(v)] = true
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !skip[Key(v)] {
			out = append(out, v)
		}
	}
	return out
}

// opensSection reports whether a line starts with one of the header words,
// ignoring markdown and bullet markers.
func opensSection(lower string, headers []string) bool {
	trimmed := strings.TrimLeft(lower, "#*-•> \t")
	for _, h := range headers {
		if strings.HasPrefix(trimmed, h) {
			return true
		}
	}
	return false
}
