package parsing

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"

	"github.com/jonathan/resume-guard/internal/types"
)

var headingMap = map[string]string{
	"PROFESSIONAL SUMMARY":    types.SectionSummary,
	"SUMMARY":                 types.SectionSummary,
	"TECHNICAL SKILLS":        types.SectionTechnicalSkills,
	"CORE SKILLS":             types.SectionTechnicalSkills,
	"SKILLS":                  types.SectionTechnicalSkills,
	"PROFESSIONAL EXPERIENCE": types.SectionExperience,
	"EXPERIENCE HIGHLIGHTS":   types.SectionExperience,
	"EXPERIENCE":              types.SectionExperience,
	"WORK EXPERIENCE":         types.SectionExperience,
	"EDUCATION":               types.SectionEducation,
}

const monthPattern = `(?:Jan|January|Feb|February|Mar|March|Apr|April|May|Jun|June|Jul|July|Aug|August|Sep|Sept|September|Oct|October|Nov|November|Dec|December)`

var (
	bulletRe    = regexp.MustCompile(`^\s*(?:[-•*]|\d+\.)\s+`)
	dateRangeRe = regexp.MustCompile(`(?i)\b(` + monthPattern + `\s+\d{4})\s*[–—-]\s*(Present|Current|` + monthPattern + `\s+\d{4})\b`)
	yearRangeRe = regexp.MustCompile(`(?i)\b(?:19|20)\d{2}\s*[–—-]\s*(?:(?:19|20)\d{2}|Present|Current)\b`)
	yearRe      = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// ParseResumeText turns a plain-text resume into a structured document.
// Lines before the first known heading form the header (name, location,
// contact). Role IDs are derived from company, title and dates so the same
// role gets the same ID on re-import.
func ParseResumeText(text string) *types.ResumeDocument {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		if line := cleanLine(raw); line != "" {
			lines = append(lines, line)
		}
	}

	var header []string
	sections := make(map[string][]string)
	current := ""
	for _, line := range lines {
		if section, ok := detectHeading(line); ok {
			current = section
			continue
		}
		if current == "" {
			header = append(header, line)
			continue
		}
		sections[current] = append(sections[current], line)
	}

	doc := &types.ResumeDocument{}
	if len(header) > 0 {
		doc.Header.Name = header[0]
	}
	if len(header) > 1 {
		doc.Header.LocationLine = header[1]
	}
	if len(header) > 2 {
		doc.Header.ContactLine = strings.Join(header[2:], " | ")
	}

	doc.Sections.ProfessionalSummary = strings.TrimSpace(strings.Join(sections[types.SectionSummary], "\n"))
	doc.Sections.TechnicalSkills = []string{}
	for _, line := range sections[types.SectionTechnicalSkills] {
		if s := StripBullet(line); s != "" {
			doc.Sections.TechnicalSkills = append(doc.Sections.TechnicalSkills, s)
		}
	}
	doc.Sections.Experience = parseRoles(sections[types.SectionExperience])
	doc.Sections.Education = sections[types.SectionEducation]
	return doc
}

// RenderText renders a document back into the plain-text layout ParseResumeText reads.
func RenderText(doc *types.ResumeDocument) string {
	var lines []string
	for _, l := range []string{doc.Header.Name, doc.Header.LocationLine, doc.Header.ContactLine} {
		if l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > 0 {
		lines = append(lines, "")
	}

	if s := strings.TrimSpace(doc.Sections.ProfessionalSummary); s != "" {
		lines = append(lines, "PROFESSIONAL SUMMARY", s, "")
	}
	if len(doc.Sections.TechnicalSkills) > 0 {
		lines = append(lines, "TECHNICAL SKILLS")
		lines = append(lines, doc.Sections.TechnicalSkills...)
		lines = append(lines, "")
	}
	if len(doc.Sections.Experience) > 0 {
		lines = append(lines, "PROFESSIONAL EXPERIENCE")
		for _, role := range doc.Sections.Experience {
			lines = append(lines, roleHeader(role))
			for _, b := range role.Bullets {
				lines = append(lines, "- "+b)
			}
			lines = append(lines, "")
		}
	}
	if len(doc.Sections.Education) > 0 {
		lines = append(lines, "EDUCATION")
		lines = append(lines, doc.Sections.Education...)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// CleanBullet strips list markers and collapses whitespace.
func CleanBullet(text string) string {
	text = strings.NewReplacer("\t", " ", "\r", " ", "\n", " ").Replace(text)
	text = bulletRe.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// StripBullet removes a leading list marker.
func StripBullet(line string) string {
	return strings.TrimSpace(bulletRe.ReplaceAllString(line, ""))
}

// RoleID derives a stable role identifier from the role header fields.
func RoleID(company, title, dates string) string {
	token := strings.TrimSpace(strings.ToLower(company + "|" + title + "|" + dates))
	sum := sha1.Sum([]byte(token))
	return hex.EncodeToString(sum[:])[:10]
}

func parseRoles(lines []string) []types.Role {
	roles := []types.Role{}
	var current *types.Role
	var orphans []string

	for _, line := range lines {
		if !bulletRe.MatchString(line) && isRoleHeader(line) {
			if current != nil {
				roles = append(roles, *current)
			}
			current = parseRoleHeader(line)
			continue
		}
		bullet := StripBullet(line)
		if current == nil {
			orphans = append(orphans, bullet)
			continue
		}
		current.Bullets = append(current.Bullets, bullet)
	}
	if current != nil {
		roles = append(roles, *current)
	}

	if len(roles) == 0 && len(orphans) > 0 {
		roles = append(roles, types.Role{
			RoleID:  RoleID("Unknown", "Unknown Role", ""),
			Company: "Unknown",
			Title:   "Unknown Role",
			Bullets: orphans,
		})
	}
	return roles
}

func isRoleHeader(line string) bool {
	if dateRangeRe.MatchString(line) {
		return true
	}
	return yearRe.MatchString(line) && (strings.Contains(line, " | ") || strings.Contains(line, " - "))
}

func parseRoleHeader(line string) *types.Role {
	base := line
	dates := ""
	loc := dateRangeRe.FindStringIndex(line)
	if loc == nil {
		loc = yearRangeRe.FindStringIndex(line)
	}
	if loc != nil {
		dates = strings.NewReplacer("–", "-", "—", "-").Replace(line[loc[0]:loc[1]])
		base = strings.Trim(strings.TrimSpace(line[:loc[0]]+line[loc[1]:]), " -|,")
	}

	var company, title, location string
	if before, after, found := strings.Cut(base, " - "); found {
		company = strings.TrimSpace(before)
		parts := splitPipes(after)
		if len(parts) > 0 {
			title = parts[0]
		}
		if len(parts) > 1 {
			location = parts[1]
		}
	} else {
		parts := splitPipes(base)
		if len(parts) > 0 {
			company = parts[0]
		}
		if len(parts) > 1 {
			title = parts[1]
		}
		if len(parts) > 2 {
			location = parts[2]
		}
	}
	if company == "" {
		company = "Unknown"
	}

	return &types.Role{
		RoleID:   RoleID(company, title, dates),
		Company:  company,
		Title:    title,
		Location: location,
		Dates:    dates,
		Bullets:  []string{},
	}
}

func roleHeader(role types.Role) string {
	header := role.Company
	if role.Title != "" {
		header += " - " + role.Title
	}
	var tail []string
	if role.Location != "" {
		tail = append(tail, role.Location)
	}
	if role.Dates != "" {
		tail = append(tail, role.Dates)
	}
	if len(tail) > 0 {
		header += " | " + strings.Join(tail, " | ")
	}
	return header
}

func splitPipes(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, "|") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func detectHeading(line string) (string, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(strings.TrimRight(line, ":")))
	section, ok := headingMap[normalized]
	return section, ok
}

func cleanLine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.NewReplacer("**", "", "__", "").Replace(line)
	line = strings.TrimSpace(strings.TrimLeft(line, "#"))
	return line
}
