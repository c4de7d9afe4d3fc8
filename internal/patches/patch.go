// Package patches builds and applies resume patch operations. Generate turns
// scorer output and truth policy decisions into suggestions or blocked items;
// ApplyOp applies one operation to a document in place.
package patches

import (
	"fmt"

	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/types"
)

// NewPatch normalizes an operation and checks it can exist under mode: its
// shape must be valid and, when the mode is gated, it must carry evidence
// or come from an override. Provenance defaults from the evidence.
func NewPatch(op types.PatchOperation, mode types.TruthMode) (types.PatchOperation, error) {
	op.NewBullet = parsing.CleanBullet(op.NewBullet)
	if err := op.CheckShape(); err != nil {
		return op, &OpError{Message: err.Error()}
	}
	if mode.Gated() && len(op.Evidence) == 0 && !op.FromOverride {
		return op, fmt.Errorf("%s patch for %q: %w", mode, op.Skill, ErrNoEvidence)
	}
	if op.Provenance == "" {
		op.Provenance = provenanceOf(op)
	}
	return op, nil
}

func provenanceOf(op types.PatchOperation) types.Provenance {
	if op.FromOverride {
		return types.ProvenanceOverride
	}
	if len(op.Evidence) == 0 {
		return types.ProvenanceUnverified
	}
	switch op.Evidence[0].Origin {
	case types.OriginResume:
		return types.ProvenanceResume
	case types.OriginOverride:
		return types.ProvenanceOverride
	default:
		return types.ProvenanceRetrieval
	}
}
