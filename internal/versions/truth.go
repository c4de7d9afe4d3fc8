package versions

import (
	"strings"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/patches"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

// truthCheck re-verifies submitted patches against the current version, the
// override ledger and the evidence store. Callers may submit patches they
// edited or built themselves, so nothing a suggestion carried is trusted as
// is: every piece of evidence must resolve to its source and one of them must
// yield the new text.
type truthCheck struct {
	mode    types.TruthMode
	current *types.ResumeDocument
	// next is the document as left by the earlier operations of the batch.
	next   *types.ResumeDocument
	ledger []types.Override
	// retrieved holds the evidence store's answers keyed by skills.Key; nil
	// means no store is configured.
	retrieved map[string][]types.Snippet
}

func (t *truthCheck) check(i int, op types.PatchOperation) *ValidationError {
	if strings.TrimSpace(op.Skill) == "" {
		return invalid(i, "%s patch must name its skill", t.mode)
	}
	if op.FromOverride {
		return t.checkOverride(i, op)
	}

	if t.mode == types.TruthStrict && len(evidenceFrom(op.Evidence, types.OriginResume)) == 0 {
		return invalid(i, "strict mode needs resume evidence or a hands_on override for %q", op.Skill)
	}
	for j, ev := range op.Evidence {
		if msg := t.resolve(op.Skill, ev); msg != "" {
			return invalid(i, "evidence %d: %s", j, msg)
		}
	}
	for _, ev := range op.Evidence {
		if t.mode == types.TruthStrict && ev.Origin != types.OriginResume {
			continue
		}
		if t.yields(op, ev) {
			return nil
		}
	}
	return invalid(i, "new_bullet is not built from the evidence for %q", op.Skill)
}

func (t *truthCheck) checkOverride(i int, op types.PatchOperation) *ValidationError {
	matched := false
	for _, e := range overrides.ForSkill(overrides.Effective(t.ledger), op.Skill) {
		if op.Section == types.SectionExperience && e.RoleID != op.RoleID {
			continue
		}
		if t.mode == types.TruthStrict && e.Level != types.LevelHandsOn {
			continue
		}
		if t.current.FindRole(e.RoleID) == nil {
			continue
		}
		matched = true
		if op.Section == types.SectionTechnicalSkills {
			if t.skillsLine(op) {
				return nil
			}
			continue
		}
		for _, proof := range e.ProofBullets {
			if sameText(proof, op.NewBullet) {
				return nil
			}
		}
	}
	switch {
	case matched:
		return invalid(i, "new_bullet is not a proof bullet of the %q override", op.Skill)
	case t.mode == types.TruthStrict:
		return invalid(i, "no hands_on override for %q targets role %s", op.Skill, op.RoleID)
	default:
		return invalid(i, "no override for %q targets role %s", op.Skill, op.RoleID)
	}
}

// resolve returns why ev cannot be traced to its source, or "".
func (t *truthCheck) resolve(skill string, ev types.Evidence) string {
	switch ev.Origin {
	case types.OriginResume:
		switch ev.Section {
		case types.SectionExperience:
			role := t.current.FindRole(ev.RoleID)
			if role == nil {
				return "role_id not found: " + ev.RoleID
			}
			return matchAt(role.Bullets, ev)
		case types.SectionTechnicalSkills:
			return matchAt(t.current.Sections.TechnicalSkills, ev)
		case types.SectionSummary:
			for _, line := range t.current.SummaryLines() {
				if sameText(line, ev.Snippet) {
					return ""
				}
			}
			return "snippet is not in the professional summary"
		default:
			return "unknown resume section " + ev.Section
		}

	case types.OriginOverride:
		rec := t.record(ev.Source)
		if rec == nil {
			return "override not found: " + ev.Source
		}
		for _, proof := range rec.ProofBullets {
			if sameText(proof, ev.Snippet) {
				return ""
			}
		}
		return "snippet is not a proof bullet of override " + ev.Source

	case types.OriginRetrieval:
		if strings.TrimSpace(ev.Snippet) == "" || strings.TrimSpace(ev.Source) == "" {
			return "retrieval evidence needs a snippet and a source"
		}
		if t.retrieved == nil {
			return "retrieval evidence cannot be verified without an evidence store"
		}
		for _, s := range t.retrieved[skills.Key(skill)] {
			if s.SourceFile == ev.Source && sameText(s.Text, ev.Snippet) && evidence.Supports(s) {
				return ""
			}
		}
		return "evidence store did not return the snippet from " + ev.Source

	default:
		return "unknown evidence origin " + string(ev.Origin)
	}
}

// yields reports whether op's new text is what ev supports: the evidence
// bullet with the skill named, a proof bullet or retrieved snippet as is, or
// a technical-skills line with the skill added. The evidence itself must
// name the skill.
func (t *truthCheck) yields(op types.PatchOperation, ev types.Evidence) bool {
	switch ev.Origin {
	case types.OriginOverride:
		rec := t.record(ev.Source)
		if rec == nil || skills.Key(rec.Skill) != skills.Key(op.Skill) {
			return false
		}
		if op.Section == types.SectionTechnicalSkills {
			return t.skillsLine(op)
		}
		return targets(rec, op.RoleID) && sameText(op.NewBullet, ev.Snippet)

	case types.OriginRetrieval:
		if !skills.MatchesAny(op.Skill, ev.Snippet) {
			return false
		}
		if op.Section == types.SectionTechnicalSkills {
			return t.skillsLine(op)
		}
		return sameText(op.NewBullet, ev.Snippet)

	case types.OriginResume:
		if !skills.MatchesAny(op.Skill, ev.Snippet) {
			return false
		}
		if op.Section == types.SectionTechnicalSkills {
			return t.skillsLine(op)
		}
		if ev.Section != types.SectionExperience || op.Action != types.ActionReplace || ev.RoleID != op.RoleID {
			return false
		}
		role := t.next.FindRole(op.RoleID)
		if role == nil || *op.BulletIndex < 0 || *op.BulletIndex >= len(role.Bullets) {
			return false
		}
		return sameText(role.Bullets[*op.BulletIndex], ev.Snippet) &&
			sameText(op.NewBullet, patches.WithSkill(parsing.CleanBullet(ev.Snippet), op.Skill))
	}
	return false
}

// skillsLine reports whether op adds exactly its skill to the technical
// skills: the target line with the skill appended, or a new "Label: skill"
// line.
func (t *truthCheck) skillsLine(op types.PatchOperation) bool {
	if op.Section != types.SectionTechnicalSkills {
		return false
	}
	lines := t.next.Sections.TechnicalSkills
	switch op.Action {
	case types.ActionReplace:
		i := *op.BulletIndex
		if i < 0 || i >= len(lines) {
			return false
		}
		want, ok := patches.AddToLine(lines[i], op.Skill)
		return ok && sameText(op.NewBullet, want)
	case types.ActionInsert:
		label, rest, ok := strings.Cut(op.NewBullet, ":")
		return ok && strings.TrimSpace(label) != "" && sameText(rest, op.Skill)
	}
	return false
}

func (t *truthCheck) record(id string) *types.Override {
	for i := range t.ledger {
		if t.ledger[i].ID == id {
			return &t.ledger[i]
		}
	}
	return nil
}

func targets(rec *types.Override, roleID string) bool {
	for _, id := range rec.TargetRoles {
		if id == roleID {
			return true
		}
	}
	return false
}

func matchAt(lines []string, ev types.Evidence) string {
	if ev.BulletIndex == nil || *ev.BulletIndex < 0 || *ev.BulletIndex >= len(lines) {
		return "bullet_index out of range"
	}
	if !sameText(lines[*ev.BulletIndex], ev.Snippet) {
		return "snippet does not match the resume"
	}
	return ""
}

func sameText(a, b string) bool {
	return strings.EqualFold(parsing.CleanBullet(a), parsing.CleanBullet(b))
}

func evidenceFrom(evs []types.Evidence, origin types.EvidenceOrigin) []types.Evidence {
	var out []types.Evidence
	for _, ev := range evs {
		if ev.Origin == origin {
			out = append(out, ev)
		}
	}
	return out
}
