package skills

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsToken reports whether token occurs in text, case-insensitively, with
// no word character directly before or after it. "SQL" matches "SQL," and
// "(SQL)" but not "MySQL" or "SQLAlchemy".
func ContainsToken(text, token string) bool {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for start := 0; start < len(lower); {
		idx := strings.Index(lower[start:], token)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(token)
		if !wordBefore(lower, idx) && !wordAfter(lower, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(lower[idx:])
		start = idx + size
	}
	return false
}

// MatchesDirect reports whether the skill name itself appears in text.
func MatchesDirect(skill, text string) bool {
	return ContainsToken(text, skill)
}

// MatchesSynonym reports whether a related term of the skill appears in text.
func MatchesSynonym(skill, text string) bool {
	for _, variant := range Synonyms(skill) {
		if ContainsToken(text, variant) {
			return true
		}
	}
	return false
}

// MatchesAny reports a direct or synonym match.
func MatchesAny(skill, text string) bool {
	return MatchesDirect(skill, text) || MatchesSynonym(skill, text)
}

// MentionsRelated reports whether text uses a synonym of the skill or one of
// its category hint fragments, e.g. "orchestration" for Airflow.
func MentionsRelated(skill, text string) bool {
	if MatchesSynonym(skill, text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, hint := range CategoryHints(skill) {
		if strings.Contains(lower, hint) {
			return true
		}
	}
	return false
}

func wordBefore(s string, idx int) bool {
	if idx == 0 {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(s[:idx])
	return isWordRune(r)
}

func wordAfter(s string, end int) bool {
	if end >= len(s) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(s[end:])
	return isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
