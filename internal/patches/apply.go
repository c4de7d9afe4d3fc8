package patches

import (
	"fmt"

	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/types"
)

// ApplyOp applies one operation to doc in place. Indices are checked against
// the document as it is now, so a batch applied op by op sees the shifts made
// by earlier inserts.
func ApplyOp(doc *types.ResumeDocument, op types.PatchOperation) error {
	if err := op.CheckShape(); err != nil {
		return &OpError{Message: err.Error()}
	}
	text := parsing.CleanBullet(op.NewBullet)

	switch op.Section {
	case types.SectionTechnicalSkills:
		lines, err := applyToList(doc.Sections.TechnicalSkills, op, text, "technical_skills")
		if err != nil {
			return err
		}
		doc.Sections.TechnicalSkills = lines
	case types.SectionExperience:
		idx := doc.RoleIndex(op.RoleID)
		if idx < 0 {
			return &OpError{Message: fmt.Sprintf("role_id not found: %s", op.RoleID)}
		}
		role := &doc.Sections.Experience[idx]
		bullets, err := applyToList(role.Bullets, op, text, "role "+op.RoleID)
		if err != nil {
			return err
		}
		role.Bullets = bullets
	}
	return nil
}

func applyToList(list []string, op types.PatchOperation, text, where string) ([]string, error) {
	switch op.Action {
	case types.ActionReplace:
		i := *op.BulletIndex
		if i < 0 || i >= len(list) {
			return nil, &OpError{Message: fmt.Sprintf("bullet_index %d out of range for %s (%d items)", i, where, len(list))}
		}
		list[i] = text
		return list, nil
	default:
		after := *op.AfterIndex
		if after < -1 || after >= len(list) {
			return nil, &OpError{Message: fmt.Sprintf("after_index %d out of range for %s (%d items)", after, where, len(list))}
		}
		out := make([]string, 0, len(list)+1)
		out = append(out, list[:after+1]...)
		out = append(out, text)
		out = append(out, list[after+1:]...)
		return out, nil
	}
}
