//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"time"
)

// ProficiencyLevel is the ordered scale used by overrides
type ProficiencyLevel string

// Proficiency levels, lowest first
const (
	LevelExposure   ProficiencyLevel = "exposure"
	LevelWorkedWith ProficiencyLevel = "worked_with"
	LevelHandsOn    ProficiencyLevel = "hands_on"
)

// Rank orders levels: exposure < worked_with < hands_on. Unknown levels rank 0.
func (l ProficiencyLevel) Rank() int {
	switch l {
	case LevelExposure:
		return 1
	case LevelWorkedWith:
		return 2
	case LevelHandsOn:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether l is at or above other on the scale.
func (l ProficiencyLevel) AtLeast(other ProficiencyLevel) bool {
	return l.Rank() > 0 && l.Rank() >= other.Rank()
}

// ParseProficiencyLevel validates a level string
func ParseProficiencyLevel(s string) (ProficiencyLevel, error) {
	level := ProficiencyLevel(s)
	if level.Rank() == 0 {
		return "", fmt.Errorf("unknown proficiency level %q", s)
	}
	return level, nil
}

// Override is a user-asserted skill claim. Records are append-only.
type Override struct {
	ID           string           `json:"id,omitempty"`
	ResumeID     string           `json:"resume_id,omitempty"`
	Skill        string           `json:"skill" validate:"required,min=2"`
	Level        ProficiencyLevel `json:"level" validate:"required,oneof=exposure worked_with hands_on"`
	TargetRoles  []string         `json:"target_roles" validate:"required,min=1,dive,required"`
	ProofBullets []string         `json:"proof_bullets" validate:"required,min=1,max=3,dive,required,max=300"`
	Seq          int64            `json:"seq,omitempty"`
	CreatedAt    time.Time        `json:"created_at,omitempty"`
}

// EffectiveOverride is the winning override for one skill+role combination
type EffectiveOverride struct {
	OverrideID   string           `json:"override_id"`
	Skill        string           `json:"skill"`
	RoleID       string           `json:"role_id"`
	Level        ProficiencyLevel `json:"level"`
	ProofBullets []string         `json:"proof_bullets"`
	Seq          int64            `json:"seq"`
}

// BlockedItem is a user's choice to turn a blocked suggestion into an override
type BlockedItem struct {
	Skill       string           `json:"skill" validate:"required,min=2"`
	Level       ProficiencyLevel `json:"level" validate:"required,oneof=exposure worked_with hands_on"`
	RoleID      string           `json:"role_id" validate:"required"`
	ProofBullet string           `json:"proof_bullet,omitempty" validate:"max=300"`
}

// Validate checks field constraints only; role existence is checked by the ledger.
func (o *Override) Validate() error {
	return validate.Struct(o)
}

// Validate checks field constraints of a blocked item.
func (b *BlockedItem) Validate() error {
	return validate.Struct(b)
}
