package engine

import (
	"context"
	"sort"
	"strings"

	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/patches"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/versions"
)

// CreateResume stores a structured document or parsed resume text as version 1.
func (e *Engine) CreateResume(ctx context.Context, req types.CreateResumeRequest) (*types.ResumeDocument, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	doc := req.Document
	if doc == nil {
		doc = parsing.ParseResumeText(req.ResumeText)
	}
	doc = doc.Clone()
	if req.JDText != "" {
		doc.JDText = req.JDText
	}
	return e.versions.Create(ctx, doc)
}

// GetResume returns a version of a resume; version 0 means the latest.
func (e *Engine) GetResume(ctx context.Context, resumeID string, version int) (*types.ResumeDocument, error) {
	return e.versions.Get(ctx, resumeID, version)
}

// ResumeHistory lists every version of a resume, oldest first.
func (e *Engine) ResumeHistory(ctx context.Context, resumeID string) ([]types.VersionInfo, error) {
	return e.versions.History(ctx, resumeID)
}

// ResumeText renders a version of a resume as plain text.
func (e *Engine) ResumeText(ctx context.Context, resumeID string, version int) (string, error) {
	doc, err := e.versions.Get(ctx, resumeID, version)
	if err != nil {
		return "", err
	}
	return parsing.RenderText(doc), nil
}

// Apply commits a batch of patches as the next version.
func (e *Engine) Apply(ctx context.Context, req types.ApplyRequest) (*types.ApplyResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	mode, err := e.truthMode(req.TruthMode)
	if err != nil {
		return nil, err
	}

	doc, applied, err := e.versions.Apply(ctx, versions.ApplyParams{
		ResumeID:        req.ResumeID,
		ExpectedVersion: req.ExpectedVersion,
		Patches:         req.Patches,
		Mode:            mode,
	})
	if err != nil {
		return nil, err
	}
	return &types.ApplyResponse{
		ResumeID:        doc.ResumeID,
		Version:         doc.Version,
		UpdatedSections: updatedSections(applied),
		AppliedPatches:  applied,
	}, nil
}

// IncludeSkills records the chosen blocked skills as overrides, rebuilds the
// suggestions and applies the patches for those skills in one call. When no
// patch can be built the overrides stay recorded and no version is written.
func (e *Engine) IncludeSkills(ctx context.Context, req types.IncludeSkillsRequest) (*types.IncludeSkillsResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	mode, err := e.truthMode(req.TruthMode)
	if err != nil {
		return nil, err
	}

	current, err := e.versions.Get(ctx, req.ResumeID, 0)
	if err != nil {
		return nil, err
	}
	if req.ExpectedVersion != nil && *req.ExpectedVersion != current.Version {
		return nil, &versions.VersionConflictError{ResumeID: req.ResumeID, Expected: *req.ExpectedVersion, Actual: current.Version}
	}

	recorded, err := e.ledger.FromBlocked(ctx, req.ResumeID, req.Items)
	if err != nil {
		return nil, err
	}

	a, err := e.analyze(ctx, req.ResumeID, req.JDText, types.BoolOr(req.StrictMode, true), true, e.opts.TopNSkills)
	if err != nil {
		return nil, err
	}
	result := patches.Generate(patches.Input{
		Document:  a.doc,
		Report:    a.report,
		Overrides: a.effective,
		Mode:      mode,
	})

	wanted := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		wanted[skills.Key(item.Skill)] = true
	}
	var ops []types.PatchOperation
	for _, op := range result.Patches {
		if wanted[skills.Key(op.Skill)] {
			ops = append(ops, op)
		}
	}
	var blocked []types.BlockedSuggestion
	for _, b := range result.Blocked {
		if wanted[skills.Key(b.Skill)] {
			blocked = append(blocked, b)
		}
	}

	resp := &types.IncludeSkillsResponse{
		ResumeID:       req.ResumeID,
		Version:        a.doc.Version,
		Overrides:      recorded,
		AppliedPatches: nonNilPatches(ops),
		Blocked:        nonNilBlocked(blocked),
	}
	if len(ops) == 0 {
		return resp, nil
	}

	expected := a.doc.Version
	doc, applied, err := e.versions.Apply(ctx, versions.ApplyParams{
		ResumeID:        req.ResumeID,
		ExpectedVersion: &expected,
		Patches:         ops,
		Mode:            mode,
	})
	if err != nil {
		return nil, err
	}
	resp.Version = doc.Version
	resp.AppliedPatches = applied
	return resp, nil
}

// AddOverrides appends records to the resume's ledger.
func (e *Engine) AddOverrides(ctx context.Context, resumeID string, req types.OverridesRequest) (*types.OverridesResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	stored, err := e.ledger.Append(ctx, resumeID, req.Skills)
	if err != nil {
		return nil, err
	}
	return &types.OverridesResponse{ResumeID: resumeID, Overrides: stored}, nil
}

// OverridesFromBlocked converts chosen blocked suggestions into override records.
func (e *Engine) OverridesFromBlocked(ctx context.Context, resumeID string, req types.OverridesFromBlockedRequest) (*types.OverridesResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	stored, err := e.ledger.FromBlocked(ctx, resumeID, req.Items)
	if err != nil {
		return nil, err
	}
	return &types.OverridesResponse{ResumeID: resumeID, Overrides: stored}, nil
}

// ListOverrides returns every ledger record of a resume in append order.
func (e *Engine) ListOverrides(ctx context.Context, resumeID string) (*types.OverridesResponse, error) {
	if _, err := e.versions.Get(ctx, resumeID, 0); err != nil {
		return nil, err
	}
	records, err := e.ledger.List(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []types.Override{}
	}
	return &types.OverridesResponse{ResumeID: resumeID, Overrides: records}, nil
}

// updatedSections names the sections touched by ops, sorted.
func updatedSections(ops []types.PatchOperation) []string {
	seen := make(map[string]bool)
	var out []string
	for _, op := range ops {
		section := strings.TrimSpace(op.Section)
		if section != "" && !seen[section] {
			seen[section] = true
			out = append(out, section)
		}
	}
	sort.Strings(out)
	return out
}
