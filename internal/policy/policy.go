// Package policy is the truth policy: a pure decision table that allows or
// blocks a suggestion for one skill.
package policy

import (
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

// Verdict is the outcome of a decision.
type Verdict string

// Verdicts
const (
	Allow Verdict = "allow"
	Block Verdict = "block"
)

// Block reasons.
const (
	ReasonStrict   = "strict mode needs direct resume evidence or a hands_on override for a role in this resume"
	ReasonBalanced = "no evidence in the resume, overrides or retrieved documents"
)

// Decision is a tagged result. Basis is set when Verdict is Allow; Reason and
// Recommendation are set when it is Block.
type Decision struct {
	Verdict        Verdict                 `json:"verdict"`
	Basis          types.Provenance        `json:"basis,omitempty"`
	Reason         string                  `json:"reason,omitempty"`
	Recommendation types.RecommendedAction `json:"recommended_action,omitempty"`
}

// Allowed reports whether the decision allows a patch.
func (d Decision) Allowed() bool { return d.Verdict == Allow }

// Facts are the inputs besides coverage: the effective overrides for the
// skill and the role IDs of the document being patched.
type Facts struct {
	Overrides []types.EffectiveOverride
	RoleIDs   []string
}

// Decide applies the truth mode to one skill's coverage. An unknown mode is
// treated as strict.
func Decide(cov types.SkillCoverage, mode types.TruthMode, facts Facts) Decision {
	switch mode {
	case types.TruthOff:
		return allow(basisOf(cov, types.ProvenanceUnverified))

	case types.TruthBalanced:
		if cov.Status == types.StatusDirect {
			return allow(types.ProvenanceResume)
		}
		if cov.HasEvidence() {
			return allow(basisOf(cov, types.ProvenanceUnverified))
		}
		return block(ReasonBalanced, cov.Skill, facts)

	default:
		if cov.Status == types.StatusDirect {
			return allow(types.ProvenanceResume)
		}
		if len(HandsOnTargets(cov.Skill, facts)) > 0 {
			return allow(types.ProvenanceOverride)
		}
		return block(ReasonStrict, cov.Skill, facts)
	}
}

// HandsOnTargets returns the role IDs, in document order, that a hands_on
// override for the skill targets.
func HandsOnTargets(skill string, facts Facts) []string {
	targeted := make(map[string]bool)
	for _, o := range facts.Overrides {
		if skills.Key(o.Skill) == skills.Key(skill) && o.Level == types.LevelHandsOn {
			targeted[o.RoleID] = true
		}
	}
	var out []string
	for _, id := range facts.RoleIDs {
		if targeted[id] {
			out = append(out, id)
		}
	}
	return out
}

func allow(basis types.Provenance) Decision {
	return Decision{Verdict: Allow, Basis: basis}
}

func block(reason, skill string, facts Facts) Decision {
	rec := types.RecommendAddOverride
	for _, o := range facts.Overrides {
		if skills.Key(o.Skill) == skills.Key(skill) {
			rec = types.RecommendDowngradeToExposure
			break
		}
	}
	return Decision{Verdict: Block, Reason: reason, Recommendation: rec}
}

// basisOf picks the strongest evidence origin: resume, then override, then retrieval.
func basisOf(cov types.SkillCoverage, fallback types.Provenance) types.Provenance {
	switch {
	case len(cov.EvidenceFrom(types.OriginResume)) > 0:
		return types.ProvenanceResume
	case len(cov.EvidenceFrom(types.OriginOverride)) > 0:
		return types.ProvenanceOverride
	case len(cov.EvidenceFrom(types.OriginRetrieval)) > 0:
		return types.ProvenanceRetrieval
	default:
		return fallback
	}
}
