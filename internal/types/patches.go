//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// PatchAction is the kind of edit a PatchOperation performs
type PatchAction string

// Patch actions
const (
	ActionReplace PatchAction = "replace"
	ActionInsert  PatchAction = "insert"
)

// Provenance records where the text of a patch came from
type Provenance string

// Provenance values
const (
	ProvenanceResume     Provenance = "resume"
	ProvenanceOverride   Provenance = "override"
	ProvenanceRetrieval  Provenance = "retrieval"
	ProvenanceUnverified Provenance = "unverified"
)

// RecommendedAction is the remediation offered for a blocked skill
type RecommendedAction string

// Recommended actions
const (
	RecommendAddOverride         RecommendedAction = "add_override"
	RecommendDowngradeToExposure RecommendedAction = "downgrade_to_exposure"
)

// Bullet length bounds for patch text
const (
	MinBulletLength = 5
	MaxBulletLength = 600
)

// PatchOperation is a single, evidence-backed edit to a resume document.
type PatchOperation struct {
	Section      string      `json:"section" validate:"required,oneof=experience technical_skills"`
	Action       PatchAction `json:"action" validate:"required,oneof=replace insert"`
	RoleID       string      `json:"role_id,omitempty"`
	BulletIndex  *int        `json:"bullet_index,omitempty"`
	AfterIndex   *int        `json:"after_index,omitempty"`
	NewBullet    string      `json:"new_bullet" validate:"required,min=5,max=600"`
	Skill        string      `json:"skill,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	Evidence     []Evidence  `json:"evidence,omitempty"`
	Provenance   Provenance  `json:"provenance,omitempty"`
	FromOverride bool        `json:"from_override,omitempty"`
}

// CheckShape verifies the fields required by the operation's section and
// action are present. It does not look at any document.
func (p *PatchOperation) CheckShape() error {
	bullet := strings.TrimSpace(p.NewBullet)
	if len(bullet) < MinBulletLength || len(bullet) > MaxBulletLength {
		return fmt.Errorf("new_bullet must be %d-%d characters", MinBulletLength, MaxBulletLength)
	}
	switch p.Section {
	case SectionExperience, SectionTechnicalSkills:
	default:
		return fmt.Errorf("unsupported section %q", p.Section)
	}
	switch p.Action {
	case ActionReplace:
		if p.BulletIndex == nil {
			return fmt.Errorf("replace on %s requires bullet_index", p.Section)
		}
	case ActionInsert:
		if p.AfterIndex == nil {
			return fmt.Errorf("insert on %s requires after_index", p.Section)
		}
	default:
		return fmt.Errorf("unsupported action %q", p.Action)
	}
	if p.Section == SectionExperience && p.RoleID == "" {
		return fmt.Errorf("%s on experience requires role_id", p.Action)
	}
	return nil
}

// Position returns the index the operation targets, used for ordering.
func (p *PatchOperation) Position() int {
	switch {
	case p.BulletIndex != nil:
		return *p.BulletIndex
	case p.AfterIndex != nil:
		return *p.AfterIndex + 1
	default:
		return 0
	}
}

// OverridePayload is a ready-to-submit override shown with a blocked suggestion
type OverridePayload struct {
	Skill        string           `json:"skill"`
	Level        ProficiencyLevel `json:"level"`
	TargetRoles  []string         `json:"target_roles"`
	ProofBullets []string         `json:"proof_bullets"`
}

// BlockedSuggestion explains why a skill could not be patched and how to unblock it
type BlockedSuggestion struct {
	Skill             string            `json:"skill"`
	Reason            string            `json:"reason"`
	RecommendedAction RecommendedAction `json:"recommended_action"`
	SuggestedRoleIDs  []string          `json:"suggested_role_ids"`
	ExampleOverride   OverridePayload   `json:"example_override"`
}

// TruthMode selects how strictly patches must be backed by evidence
type TruthMode string

// Truth modes
const (
	TruthOff      TruthMode = "off"
	TruthStrict   TruthMode = "strict"
	TruthBalanced TruthMode = "balanced"
)

// ParseTruthMode validates a truth mode string. Empty selects off.
func ParseTruthMode(s string) (TruthMode, error) {
	switch mode := TruthMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return TruthOff, nil
	case TruthOff, TruthStrict, TruthBalanced:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown truth mode %q", s)
	}
}

// Gated reports whether the mode requires evidence for every patch.
func (m TruthMode) Gated() bool {
	return m == TruthStrict || m == TruthBalanced
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
