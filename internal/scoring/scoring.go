// Package scoring computes per-skill coverage of a job description by a
// resume document, its overrides and retrieved evidence, and the aggregate
// ATS score. Everything here is a pure function of its input.
package scoring

import (
	"math"
	"strings"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

// Score weights. A group carries full weight when the other group is empty.
const (
	RequiredWeight  = 0.7
	PreferredWeight = 0.3

	directCredit  = 1.0
	partialCredit = 0.5
)

// Input is everything the scorer looks at.
type Input struct {
	JDText string
	// Skills is the already-extracted skill list. Nil, or a list with no
	// skills, falls back to lexical extraction from JDText.
	Skills    *types.SkillList
	Document  *types.ResumeDocument
	Overrides []types.EffectiveOverride
	// Snippets holds evidence store results keyed by skill name.
	Snippets map[string][]types.Snippet
	// StrictMatching disables synonym matching against resume text and gives
	// partial coverage no score credit.
	StrictMatching bool
	TopN           int
}

// Score builds the coverage report.
func Score(in Input) *types.ScoreReport {
	list := SkillsFor(in.JDText, in.Skills, in.TopN)

	report := &types.ScoreReport{
		Required:         make([]types.SkillCoverage, 0, len(list.Required)),
		Preferred:        make([]types.SkillCoverage, 0, len(list.Preferred)),
		MissingRequired:  []string{},
		MissingPreferred: []string{},
	}
	for _, skill := range list.Required {
		cov := Coverage(skill, in)
		report.Required = append(report.Required, cov)
		if cov.Status == types.StatusMissing {
			report.MissingRequired = append(report.MissingRequired, cov.Skill)
		}
	}
	for _, skill := range list.Preferred {
		cov := Coverage(skill, in)
		report.Preferred = append(report.Preferred, cov)
		if cov.Status == types.StatusMissing {
			report.MissingPreferred = append(report.MissingPreferred, cov.Skill)
		}
	}

	report.ATSScore = Aggregate(report.Required, report.Preferred, in.StrictMatching)
	return report
}

// SkillsFor resolves the skill list to score: the given list when it names
// any skill, otherwise lexical extraction. Preferred never repeats a required
// skill and topN > 0 truncates required first.
func SkillsFor(jdText string, given *types.SkillList, topN int) types.SkillList {
	if given == nil || len(given.Required)+len(given.Preferred) == 0 {
		return skills.ExtractFromJD(jdText, topN)
	}
	required := skills.Dedupe(trimAll(given.Required))
	preferred := skills.Without(skills.Dedupe(trimAll(given.Preferred)), required)
	if topN > 0 {
		required, preferred = skills.TruncateSkills(required, preferred, topN)
	}
	return types.SkillList{Required: required, Preferred: preferred}
}

// Coverage classifies one skill. Evidence is listed resume first, then
// overrides, then retrieval.
func Coverage(skill string, in Input) types.SkillCoverage {
	cov := types.SkillCoverage{Skill: skill, Status: types.StatusMissing, Evidence: []types.Evidence{}}

	direct := resumeEvidence(in.Document, func(text string) bool {
		return skills.MatchesDirect(skill, text)
	})
	if len(direct) > 0 {
		cov.Status = types.StatusDirect
		cov.Evidence = append(cov.Evidence, direct...)
	} else if !in.StrictMatching {
		related := resumeEvidence(in.Document, func(text string) bool {
			return skills.MatchesSynonym(skill, text)
		})
		if len(related) > 0 {
			cov.Status = types.StatusPartial
			cov.Evidence = append(cov.Evidence, related...)
		}
	}
	cov.DirectFromResume = len(cov.Evidence) > 0

	for _, o := range in.Overrides {
		if skills.Key(o.Skill) != skills.Key(skill) {
			continue
		}
		for _, proof := range o.ProofBullets {
			cov.Evidence = append(cov.Evidence, types.Evidence{
				Origin:  types.OriginOverride,
				Section: types.SectionOverride,
				RoleID:  o.RoleID,
				Snippet: proof,
				Source:  o.OverrideID,
			})
		}
		if o.Level.AtLeast(types.LevelWorkedWith) && cov.Status == types.StatusMissing {
			cov.Status = types.StatusPartial
		}
	}

	match := skills.MatchesAny
	if in.StrictMatching {
		match = skills.MatchesDirect
	}
	for _, s := range snippetsFor(in.Snippets, skill) {
		if !evidence.Supports(s) || !match(skill, s.Text) {
			continue
		}
		cov.Evidence = append(cov.Evidence, types.Evidence{
			Origin:  types.OriginRetrieval,
			Section: types.SectionRetrieval,
			Snippet: strings.TrimSpace(s.Text),
			Source:  s.SourceFile,
		})
		if cov.Status == types.StatusMissing {
			cov.Status = types.StatusPartial
		}
	}
	return cov
}

// Aggregate turns coverage into a 0-100 score.
func Aggregate(required, preferred []types.SkillCoverage, strict bool) float64 {
	var score float64
	switch {
	case len(required) > 0 && len(preferred) > 0:
		score = RequiredWeight*groupRatio(required, strict) + PreferredWeight*groupRatio(preferred, strict)
	case len(required) > 0:
		score = groupRatio(required, strict)
	case len(preferred) > 0:
		score = groupRatio(preferred, strict)
	}
	score = math.Round(score*100*100) / 100
	return math.Max(0, math.Min(100, score))
}

func groupRatio(group []types.SkillCoverage, strict bool) float64 {
	var total float64
	for _, c := range group {
		switch c.Status {
		case types.StatusDirect:
			total += directCredit
		case types.StatusPartial:
			if !strict {
				total += partialCredit
			}
		}
	}
	return total / float64(len(group))
}

// resumeEvidence collects every summary line, technical-skills line and
// experience bullet accepted by match.
func resumeEvidence(doc *types.ResumeDocument, match func(string) bool) []types.Evidence {
	if doc == nil {
		return nil
	}
	var out []types.Evidence
	for _, line := range doc.SummaryLines() {
		if match(line) {
			out = append(out, types.Evidence{Origin: types.OriginResume, Section: types.SectionSummary, Snippet: line})
		}
	}
	for i, line := range doc.Sections.TechnicalSkills {
		if match(line) {
			out = append(out, types.Evidence{
				Origin:      types.OriginResume,
				Section:     types.SectionTechnicalSkills,
				BulletIndex: types.IntPtr(i),
				Snippet:     line,
			})
		}
	}
	for _, role := range doc.Sections.Experience {
		for i, bullet := range role.Bullets {
			if match(bullet) {
				out = append(out, types.Evidence{
					Origin:      types.OriginResume,
					Section:     types.SectionExperience,
					RoleID:      role.RoleID,
					BulletIndex: types.IntPtr(i),
					Snippet:     bullet,
				})
			}
		}
	}
	return out
}

func snippetsFor(bySkill map[string][]types.Snippet, skill string) []types.Snippet {
	if s, ok := bySkill[skill]; ok {
		return s
	}
	key := skills.Key(skill)
	for name, s := range bySkill {
		if skills.Key(name) == key {
			return s
		}
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
