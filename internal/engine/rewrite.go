package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/logger"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/rewriting"
	"github.com/jonathan/resume-guard/internal/types"
)

// RewriteBullet asks the rewrite service for a new wording of one bullet.
// The result is returned for review and never applied. A rewrite hint must
// name an override skill, and only that skill may be added by the rewrite.
func (e *Engine) RewriteBullet(ctx context.Context, req types.RewriteBulletRequest) (*types.RewriteBulletResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	if e.opts.Rewriter == nil {
		return nil, &UnavailableError{Feature: "bullet rewriting"}
	}

	doc, err := e.versions.Get(ctx, req.ResumeID, 0)
	if err != nil {
		return nil, err
	}
	role, err := selectRole(doc, req.RoleSelector)
	if err != nil {
		return nil, err
	}
	if req.BulletIndex >= len(role.Bullets) {
		return nil, &UnprocessableError{Message: fmt.Sprintf("bullet_index %d out of range for role %s", req.BulletIndex, role.RoleID)}
	}

	var allowed []string
	hint := strings.TrimSpace(req.RewriteHint)
	skill := strings.TrimSpace(req.OverrideSkill)
	if hint != "" && skill == "" {
		return nil, &UnprocessableError{Message: "override_skill is required when rewrite_hint is provided"}
	}
	if skill != "" {
		effective, err := e.ledger.Effective(ctx, req.ResumeID)
		if err != nil {
			return nil, err
		}
		if len(effective) == 0 {
			return nil, &UnprocessableError{Message: "no overrides recorded for resume " + req.ResumeID}
		}
		matches := overrides.ForSkill(effective, skill)
		if len(matches) == 0 {
			return nil, &UnprocessableError{Message: fmt.Sprintf("override_skill %q not found in overrides", skill)}
		}
		allowed = []string{matches[0].Skill}
	}

	jdText := req.JDText
	if jdText == "" {
		jdText = doc.JDText
	}
	temperature := defaultRewriteTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	result, err := e.opts.Rewriter.Rewrite(ctx, rewriting.Input{
		Role:          *role,
		BulletIndex:   req.BulletIndex,
		JDText:        jdText,
		Hint:          hint,
		AllowedSkills: allowed,
		Temperature:   float32(temperature),
	})
	if err != nil {
		e.logger.Warn("bullet rewrite failed",
			append(logger.ResumeFields(doc.ResumeID, doc.Version),
				zap.String("role_id", role.RoleID),
				zap.String("bullet", logger.TruncateForLog(role.Bullets[req.BulletIndex], 80)),
				zap.Error(err))...)
		return nil, err
	}
	e.logger.Debug("bullet rewritten",
		zap.String("role_id", role.RoleID),
		zap.String("rewritten", logger.TruncateForLog(result.Rewritten, 80)))

	style := result.Style
	return &types.RewriteBulletResponse{
		ResumeID:        doc.ResumeID,
		RoleID:          role.RoleID,
		BulletIndex:     req.BulletIndex,
		OriginalBullet:  result.Original,
		RewrittenBullet: result.Rewritten,
		StyleChecks:     &style,
	}, nil
}

// selectRole resolves a selector by role id, or by company and optional
// dates, case-insensitively.
func selectRole(doc *types.ResumeDocument, sel types.RoleSelector) (*types.Role, error) {
	if sel.RoleID != "" {
		role := doc.FindRole(sel.RoleID)
		if role == nil {
			return nil, &RoleNotFoundError{ResumeID: doc.ResumeID, Selector: "role_id " + sel.RoleID}
		}
		return role, nil
	}

	company := strings.ToLower(strings.TrimSpace(sel.Company))
	dates := strings.ToLower(strings.TrimSpace(sel.Dates))
	var matched []int
	for i, role := range doc.Sections.Experience {
		if strings.ToLower(strings.TrimSpace(role.Company)) != company {
			continue
		}
		if dates != "" && strings.ToLower(strings.TrimSpace(role.Dates)) != dates {
			continue
		}
		matched = append(matched, i)
	}
	switch len(matched) {
	case 0:
		return nil, &RoleNotFoundError{ResumeID: doc.ResumeID, Selector: fmt.Sprintf("company %q dates %q", sel.Company, sel.Dates)}
	case 1:
		return &doc.Sections.Experience[matched[0]], nil
	default:
		ids := make([]string, len(matched))
		for i, idx := range matched {
			ids[i] = doc.Sections.Experience[idx].RoleID
		}
		return nil, &AmbiguousRoleError{RoleIDs: ids}
	}
}
