//nolint:revive // types is a standard Go package name pattern
package types

// CoverageStatus describes how well a skill is supported
type CoverageStatus string

// Coverage statuses
const (
	StatusDirect  CoverageStatus = "direct"
	StatusPartial CoverageStatus = "partial"
	StatusMissing CoverageStatus = "missing"
)

// EvidenceOrigin identifies where an evidence snippet came from
type EvidenceOrigin string

// Evidence origins
const (
	OriginResume    EvidenceOrigin = "resume"
	OriginOverride  EvidenceOrigin = "override"
	OriginRetrieval EvidenceOrigin = "retrieval"
)

// Evidence is a pointer into resume, override, or retrieved content plus the
// verbatim snippet found there.
type Evidence struct {
	Origin      EvidenceOrigin `json:"origin"`
	Section     string         `json:"section"`
	RoleID      string         `json:"role_id,omitempty"`
	BulletIndex *int           `json:"bullet_index,omitempty"`
	Snippet     string         `json:"snippet"`
	Source      string         `json:"source,omitempty"` // override ID or retrieval source file
}

// SkillCoverage is the scorer's verdict for a single skill
type SkillCoverage struct {
	Skill            string         `json:"skill"`
	Status           CoverageStatus `json:"status"`
	Evidence         []Evidence     `json:"evidence"`
	DirectFromResume bool           `json:"direct_from_resume"`
}

// HasEvidence reports whether any evidence backs the skill
func (c *SkillCoverage) HasEvidence() bool {
	return len(c.Evidence) > 0
}

// EvidenceFrom returns the evidence items of a given origin, in order.
func (c *SkillCoverage) EvidenceFrom(origin EvidenceOrigin) []Evidence {
	var out []Evidence
	for _, ev := range c.Evidence {
		if ev.Origin == origin {
			out = append(out, ev)
		}
	}
	return out
}

// ScoreReport is the output of the coverage scorer
type ScoreReport struct {
	ATSScore         float64         `json:"ats_score"`
	Required         []SkillCoverage `json:"required"`
	Preferred        []SkillCoverage `json:"preferred"`
	MissingRequired  []string        `json:"missing_required"`
	MissingPreferred []string        `json:"missing_preferred"`
}

// SkillList is an already-extracted set of JD skills
type SkillList struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
}

// SupportLevel is the retrieval service's own judgement of a snippet
type SupportLevel string

// Support levels reported by the evidence store
const (
	SupportDirect   SupportLevel = "direct"
	SupportAdjacent SupportLevel = "adjacent"
	SupportNone     SupportLevel = "none"
)

// Snippet is a ranked text fragment returned by the evidence store
type Snippet struct {
	Score        float64      `json:"score"`
	SourceFile   string       `json:"source_file"`
	Text         string       `json:"text"`
	SupportLevel SupportLevel `json:"support_level"`
}
