// Package types provides type definitions for structured data used throughout the resume-guard system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"
)

// Section names used by evidence pointers and patch operations
const (
	SectionSummary         = "summary"
	SectionTechnicalSkills = "technical_skills"
	SectionExperience      = "experience"
	SectionEducation       = "education"
	SectionOverride        = "override"
	SectionRetrieval       = "retrieval"
)

// ResumeDocument is one immutable version of a structured resume.
type ResumeDocument struct {
	ResumeID  string         `json:"resume_id"`
	Version   int            `json:"version"`
	Header    ResumeHeader   `json:"header"`
	Sections  ResumeSections `json:"sections"`
	JDText    string         `json:"jd_text,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ResumeHeader holds the candidate identity lines
type ResumeHeader struct {
	Name         string `json:"name,omitempty"`
	LocationLine string `json:"location_line,omitempty"`
	ContactLine  string `json:"contact_line,omitempty"`
}

// ResumeSections holds the ordered resume sections.
// Experience[0] is the most recent role.
type ResumeSections struct {
	ProfessionalSummary string   `json:"professional_summary"`
	TechnicalSkills     []string `json:"technical_skills"`
	Experience          []Role   `json:"experience"`
	Education           []string `json:"education,omitempty"`
}

// Role is a single position in the experience section.
// RoleID is stable across versions of the same logical role.
type Role struct {
	RoleID   string   `json:"role_id"`
	Company  string   `json:"company"`
	Title    string   `json:"title,omitempty"`
	Location string   `json:"location,omitempty"`
	Dates    string   `json:"dates,omitempty"`
	Bullets  []string `json:"bullets"`
}

// VersionInfo summarizes one stored version of a resume
type VersionInfo struct {
	ResumeID  string    `json:"resume_id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// Clone returns a deep copy of the document so callers can mutate it freely.
func (d *ResumeDocument) Clone() *ResumeDocument {
	if d == nil {
		return nil
	}
	out := *d
	out.Sections.TechnicalSkills = cloneStrings(d.Sections.TechnicalSkills)
	out.Sections.Education = cloneStrings(d.Sections.Education)
	if d.Sections.Experience != nil {
		out.Sections.Experience = make([]Role, len(d.Sections.Experience))
		for i, role := range d.Sections.Experience {
			role.Bullets = cloneStrings(role.Bullets)
			out.Sections.Experience[i] = role
		}
	}
	return &out
}

// RoleIndex returns the position of a role in the experience list, or -1.
func (d *ResumeDocument) RoleIndex(roleID string) int {
	for i := range d.Sections.Experience {
		if d.Sections.Experience[i].RoleID == roleID {
			return i
		}
	}
	return -1
}

// FindRole returns the role with the given ID, or nil.
func (d *ResumeDocument) FindRole(roleID string) *Role {
	if idx := d.RoleIndex(roleID); idx >= 0 {
		return &d.Sections.Experience[idx]
	}
	return nil
}

// RoleIDs returns the role IDs in experience order.
func (d *ResumeDocument) RoleIDs() []string {
	ids := make([]string, 0, len(d.Sections.Experience))
	for _, role := range d.Sections.Experience {
		ids = append(ids, role.RoleID)
	}
	return ids
}

// SummaryLines returns the non-empty lines of the professional summary.
func (d *ResumeDocument) SummaryLines() []string {
	var lines []string
	for _, line := range strings.Split(d.Sections.ProfessionalSummary, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// DuplicateSkill reports the first technical-skills entry that repeats an
// earlier one (case-insensitive), or "" when the list is duplicate-free.
func (d *ResumeDocument) DuplicateSkill() string {
	seen := make(map[string]bool, len(d.Sections.TechnicalSkills))
	for _, line := range d.Sections.TechnicalSkills {
		key := strings.ToLower(strings.TrimSpace(line))
		if seen[key] {
			return line
		}
		seen[key] = true
	}
	return ""
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
