package patches

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/policy"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

// ReasonNoPatch blocks an allowed skill when none of its evidence can be
// turned into an edit, e.g. every proof bullet is already in the role.
const ReasonNoPatch = "no edit could be built from the available evidence"

const maxSuggestedRoles = 3

// Input is one scoring pass to turn into suggestions.
type Input struct {
	Document  *types.ResumeDocument
	Report    *types.ScoreReport
	Overrides []types.EffectiveOverride
	Mode      types.TruthMode
}

// Result holds the two disjoint outputs of Generate.
type Result struct {
	Patches []types.PatchOperation
	Blocked []types.BlockedSuggestion
}

// Generate decides every non-direct skill of the report, required first then
// preferred, and returns exactly one patch or one blocked suggestion for each.
// Patches are sorted with SortPatches; blocked items keep report order.
func Generate(in Input) Result {
	g := &generator{
		doc:            in.Document,
		mode:           in.Mode,
		claimedLines:   make(map[int]bool),
		claimedBullets: make(map[string]bool),
	}
	res := Result{Patches: []types.PatchOperation{}, Blocked: []types.BlockedSuggestion{}}
	if in.Report == nil || in.Document == nil {
		return res
	}

	all := make([]types.SkillCoverage, 0, len(in.Report.Required)+len(in.Report.Preferred))
	all = append(all, in.Report.Required...)
	all = append(all, in.Report.Preferred...)

	for _, cov := range all {
		if cov.Status == types.StatusDirect {
			continue
		}
		facts := policy.Facts{
			Overrides: overrides.ForSkill(in.Overrides, cov.Skill),
			RoleIDs:   in.Document.RoleIDs(),
		}
		d := policy.Decide(cov, in.Mode, facts)
		if d.Allowed() {
			if op, ok := g.patchFor(cov, facts); ok {
				res.Patches = append(res.Patches, op)
				continue
			}
			d = policy.Decision{Verdict: policy.Block, Reason: ReasonNoPatch, Recommendation: recommendation(facts)}
		}
		res.Blocked = append(res.Blocked, g.blocked(cov, d, facts))
	}

	SortPatches(in.Document, res.Patches)
	return res
}

// SortPatches orders a batch by section (technical skills first), role order,
// position and skill name.
func SortPatches(doc *types.ResumeDocument, ops []types.PatchOperation) {
	sectionRank := func(s string) int {
		if s == types.SectionTechnicalSkills {
			return 0
		}
		return 1
	}
	sort.SliceStable(ops, func(i, j int) bool {
		a, b := ops[i], ops[j]
		if sectionRank(a.Section) != sectionRank(b.Section) {
			return sectionRank(a.Section) < sectionRank(b.Section)
		}
		if ra, rb := doc.RoleIndex(a.RoleID), doc.RoleIndex(b.RoleID); ra != rb {
			return ra < rb
		}
		if a.Position() != b.Position() {
			return a.Position() < b.Position()
		}
		return skills.Key(a.Skill) < skills.Key(b.Skill)
	})
}

type generator struct {
	doc  *types.ResumeDocument
	mode types.TruthMode
	// targets already replaced in this pass, so two skills never rewrite the same line
	claimedLines   map[int]bool
	claimedBullets map[string]bool
}

func (g *generator) patchFor(cov types.SkillCoverage, facts policy.Facts) (types.PatchOperation, bool) {
	if g.mode != types.TruthOff && g.mode != types.TruthBalanced {
		return g.fromOverride(cov, facts.Overrides, policy.HandsOnTargets(cov.Skill, facts))
	}
	if op, ok := g.fromOverride(cov, facts.Overrides, g.targetsInDoc(facts.Overrides)); ok {
		return op, true
	}
	if op, ok := g.fromResume(cov); ok {
		return op, true
	}
	if op, ok := g.fromRetrieval(cov); ok {
		return op, true
	}
	if g.mode == types.TruthOff {
		return g.unverified(cov)
	}
	return types.PatchOperation{}, false
}

// fromOverride inserts the first proof bullet not already in the most recent
// targeted role.
func (g *generator) fromOverride(cov types.SkillCoverage, effective []types.EffectiveOverride, roleIDs []string) (types.PatchOperation, bool) {
	for _, roleID := range roleIDs {
		role := g.doc.FindRole(roleID)
		if role == nil {
			continue
		}
		for _, o := range effective {
			if o.RoleID != roleID {
				continue
			}
			for _, proof := range o.ProofBullets {
				if hasBullet(role.Bullets, proof) {
					continue
				}
				op := types.PatchOperation{
					Section:    types.SectionExperience,
					Action:     types.ActionInsert,
					RoleID:     roleID,
					AfterIndex: types.IntPtr(len(role.Bullets) - 1),
					NewBullet:  proof,
					Skill:      cov.Skill,
					Reason:     fmt.Sprintf("%s override for %s", o.Level, cov.Skill),
					Evidence: []types.Evidence{{
						Origin:  types.OriginOverride,
						Section: types.SectionOverride,
						RoleID:  roleID,
						Snippet: proof,
						Source:  o.OverrideID,
					}},
					Provenance:   types.ProvenanceOverride,
					FromOverride: true,
				}
				if built, err := NewPatch(op, g.mode); err == nil {
					return built, true
				}
			}
		}
	}
	return types.PatchOperation{}, false
}

func (g *generator) fromResume(cov types.SkillCoverage) (types.PatchOperation, bool) {
	for _, ev := range cov.EvidenceFrom(types.OriginResume) {
		switch ev.Section {
		case types.SectionExperience:
			if ev.BulletIndex == nil {
				continue
			}
			key := fmt.Sprintf("%s|%d", ev.RoleID, *ev.BulletIndex)
			if g.claimedBullets[key] {
				continue
			}
			op := types.PatchOperation{
				Section:     types.SectionExperience,
				Action:      types.ActionReplace,
				RoleID:      ev.RoleID,
				BulletIndex: types.IntPtr(*ev.BulletIndex),
				NewBullet:   WithSkill(ev.Snippet, cov.Skill),
				Skill:       cov.Skill,
				Reason:      fmt.Sprintf("resume already describes %s with related wording", cov.Skill),
				Evidence:    []types.Evidence{ev},
			}
			if built, err := NewPatch(op, g.mode); err == nil {
				g.claimedBullets[key] = true
				return built, true
			}

		case types.SectionTechnicalSkills, types.SectionSummary:
			op, ok := g.skillsLine(cov.Skill, ev)
			if !ok {
				continue
			}
			op.Reason = fmt.Sprintf("resume %s mentions %s", strings.ReplaceAll(ev.Section, "_", " "), cov.Skill)
			op.Evidence = []types.Evidence{ev}
			if built, err := NewPatch(op, g.mode); err == nil {
				g.claim(built)
				return built, true
			}
		}
	}
	return types.PatchOperation{}, false
}

// skillsLine prefers adding the skill to the technical-skills line the
// evidence points at.
func (g *generator) skillsLine(skill string, ev types.Evidence) (types.PatchOperation, bool) {
	if ev.Section == types.SectionTechnicalSkills && ev.BulletIndex != nil && !g.claimedLines[*ev.BulletIndex] {
		i := *ev.BulletIndex
		if i >= 0 && i < len(g.doc.Sections.TechnicalSkills) {
			if updated, ok := AddToLine(g.doc.Sections.TechnicalSkills[i], skill); ok {
				return types.PatchOperation{
					Section:     types.SectionTechnicalSkills,
					Action:      types.ActionReplace,
					BulletIndex: types.IntPtr(i),
					NewBullet:   updated,
					Skill:       skill,
				}, true
			}
		}
	}
	return SkillsPatch(g.doc, skill, g.claimedLines)
}

func (g *generator) fromRetrieval(cov types.SkillCoverage) (types.PatchOperation, bool) {
	for _, ev := range cov.EvidenceFrom(types.OriginRetrieval) {
		reason := fmt.Sprintf("retrieved evidence from %s", ev.Source)
		if len(g.doc.Sections.Experience) == 0 {
			op, ok := SkillsPatch(g.doc, cov.Skill, g.claimedLines)
			if !ok {
				continue
			}
			op.Reason, op.Evidence = reason, []types.Evidence{ev}
			if built, err := NewPatch(op, g.mode); err == nil {
				g.claim(built)
				return built, true
			}
			continue
		}

		role := g.doc.Sections.Experience[0]
		text := parsing.CleanBullet(ev.Snippet)
		if hasBullet(role.Bullets, text) {
			continue
		}
		op := types.PatchOperation{
			Section:    types.SectionExperience,
			Action:     types.ActionInsert,
			RoleID:     role.RoleID,
			AfterIndex: types.IntPtr(len(role.Bullets) - 1),
			NewBullet:  text,
			Skill:      cov.Skill,
			Reason:     reason,
			Evidence:   []types.Evidence{ev},
		}
		if built, err := NewPatch(op, g.mode); err == nil {
			return built, true
		}
	}
	return types.PatchOperation{}, false
}

// unverified is only reachable with truth mode off.
func (g *generator) unverified(cov types.SkillCoverage) (types.PatchOperation, bool) {
	var op types.PatchOperation
	if len(g.doc.Sections.Experience) > 0 {
		role := g.doc.Sections.Experience[0]
		op = types.PatchOperation{
			Section:    types.SectionExperience,
			Action:     types.ActionInsert,
			RoleID:     role.RoleID,
			AfterIndex: types.IntPtr(len(role.Bullets) - 1),
			NewBullet:  fmt.Sprintf("Applied %s to deliver team projects", cov.Skill),
			Skill:      cov.Skill,
		}
	} else {
		var ok bool
		if op, ok = SkillsPatch(g.doc, cov.Skill, g.claimedLines); !ok {
			return types.PatchOperation{}, false
		}
	}
	op.Reason = "truth mode off: claim is not backed by evidence"
	op.Provenance = types.ProvenanceUnverified
	built, err := NewPatch(op, g.mode)
	if err != nil {
		return types.PatchOperation{}, false
	}
	g.claim(built)
	return built, true
}

func (g *generator) claim(op types.PatchOperation) {
	if op.Section == types.SectionTechnicalSkills && op.Action == types.ActionReplace {
		g.claimedLines[*op.BulletIndex] = true
	}
}

// targetsInDoc lists the roles targeted by any override, in document order.
func (g *generator) targetsInDoc(effective []types.EffectiveOverride) []string {
	targeted := make(map[string]bool, len(effective))
	for _, o := range effective {
		targeted[o.RoleID] = true
	}
	var out []string
	for _, id := range g.doc.RoleIDs() {
		if targeted[id] {
			out = append(out, id)
		}
	}
	return out
}

func (g *generator) blocked(cov types.SkillCoverage, d policy.Decision, facts policy.Facts) types.BlockedSuggestion {
	roles := g.candidateRoles(cov.Skill, facts.Overrides)

	level := types.LevelWorkedWith
	switch {
	case d.Recommendation == types.RecommendDowngradeToExposure:
		level = types.LevelExposure
	case g.mode != types.TruthBalanced:
		level = types.LevelHandsOn
	}
	example := types.OverridePayload{
		Skill:        cov.Skill,
		Level:        level,
		TargetRoles:  []string{},
		ProofBullets: []string{overrides.ProofTemplate(cov.Skill, level)},
	}
	if len(roles) > 0 {
		example.TargetRoles = []string{roles[0]}
	}

	return types.BlockedSuggestion{
		Skill:             cov.Skill,
		Reason:            d.Reason,
		RecommendedAction: d.Recommendation,
		SuggestedRoleIDs:  roles,
		ExampleOverride:   example,
	}
}

// candidateRoles ranks where an override would most plausibly apply: roles
// already targeted by an override, then roles using related terminology,
// then the most recent role.
func (g *generator) candidateRoles(skill string, effective []types.EffectiveOverride) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(id string) {
		if id != "" && !seen[id] && len(out) < maxSuggestedRoles {
			seen[id] = true
			out = append(out, id)
		}
	}
	for _, id := range g.targetsInDoc(effective) {
		add(id)
	}
	for _, role := range g.doc.Sections.Experience {
		for _, b := range role.Bullets {
			if skills.MentionsRelated(skill, b) {
				add(role.RoleID)
				break
			}
		}
	}
	if len(g.doc.Sections.Experience) > 0 {
		add(g.doc.Sections.Experience[0].RoleID)
	}
	return out
}

func recommendation(facts policy.Facts) types.RecommendedAction {
	if len(facts.Overrides) > 0 {
		return types.RecommendDowngradeToExposure
	}
	return types.RecommendAddOverride
}

func hasBullet(bullets []string, text string) bool {
	want := strings.ToLower(parsing.CleanBullet(text))
	for _, b := range bullets {
		if strings.ToLower(parsing.CleanBullet(b)) == want {
			return true
		}
	}
	return false
}

// WithSkill names the skill at the end of a bullet that only implies it.
func WithSkill(bullet, skill string) string {
	return fmt.Sprintf("%s (%s)", strings.TrimRight(strings.TrimSpace(bullet), ". "), strings.TrimSpace(skill))
}
