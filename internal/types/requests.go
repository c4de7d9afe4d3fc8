//nolint:revive // types is a standard Go package name pattern
package types

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// DefaultTopNSkills caps how many JD skills are scored when the caller does not say.
const DefaultTopNSkills = 25

// DefaultBlockedTopN caps how many blocked suggestions a blocked plan returns.
const DefaultBlockedTopN = 10

var validate = validator.New()

// ScoreRequest asks for a coverage report of a resume against a JD.
// Exactly one JD source and one resume source must be given.
type ScoreRequest struct {
	JDText     string          `json:"jd_text,omitempty" validate:"omitempty,min=20"`
	JDURL      string          `json:"jd_url,omitempty" validate:"omitempty,url"`
	ResumeID   string          `json:"resume_id,omitempty"`
	ResumeText string          `json:"resume_text,omitempty"`
	Document   *ResumeDocument `json:"document,omitempty"`
	Overrides  []Override      `json:"overrides,omitempty" validate:"dive"`
	Skills     *SkillList      `json:"skills,omitempty"`
	TopNSkills int             `json:"top_n_skills,omitempty" validate:"gte=0,lte=200"`
	StrictMode *bool           `json:"strict_mode,omitempty"`
}

// Validate validates the ScoreRequest using the validator.
func (r *ScoreRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.JDText == "" && r.JDURL == "" {
		return errors.New("jd_text or jd_url is required")
	}
	if r.ResumeID == "" && r.ResumeText == "" && r.Document == nil {
		return errors.New("resume_id, resume_text or document is required")
	}
	return nil
}

// SuggestRequest asks for patch suggestions for a stored resume.
type SuggestRequest struct {
	ResumeID       string `json:"-"`
	JDText         string `json:"jd_text" validate:"required,min=20"`
	StrictMode     *bool  `json:"strict_mode,omitempty"`
	ApplyOverrides *bool  `json:"apply_overrides,omitempty"`
	TruthMode      string `json:"truth_mode,omitempty" validate:"omitempty,oneof=off strict balanced"`
	TopNSkills     int    `json:"top_n_skills,omitempty" validate:"gte=0,lte=200"`
}

// Validate validates the SuggestRequest using the validator.
func (r *SuggestRequest) Validate() error {
	return validate.Struct(r)
}

// SuggestResponse carries allowed patches and blocked suggestions for one pass.
type SuggestResponse struct {
	ResumeID         string              `json:"resume_id"`
	Version          int                 `json:"version"`
	TruthMode        TruthMode           `json:"truth_mode"`
	Score            *ScoreReport        `json:"score"`
	SuggestedPatches []PatchOperation    `json:"suggested_patches"`
	Blocked          []BlockedSuggestion `json:"blocked"`
}

// BlockedPlanRequest asks for the blocked suggestions only.
type BlockedPlanRequest struct {
	ResumeID   string `json:"-"`
	JDText     string `json:"jd_text" validate:"required,min=20"`
	TruthMode  string `json:"truth_mode,omitempty" validate:"omitempty,oneof=off strict balanced"`
	TopN       int    `json:"top_n,omitempty" validate:"gte=0,lte=100"`
	StrictMode *bool  `json:"strict_mode,omitempty"`
}

// Validate validates the BlockedPlanRequest using the validator.
func (r *BlockedPlanRequest) Validate() error {
	return validate.Struct(r)
}

// BlockedPlanResponse lists the blocked suggestions for a resume and JD.
type BlockedPlanResponse struct {
	ResumeID string              `json:"resume_id"`
	Version  int                 `json:"version"`
	Blocked  []BlockedSuggestion `json:"blocked"`
}

// ApplyRequest asks the version manager to commit a batch of patches.
type ApplyRequest struct {
	ResumeID        string           `json:"-"`
	Patches         []PatchOperation `json:"patches" validate:"required,min=1,dive"`
	TruthMode       string           `json:"truth_mode,omitempty" validate:"omitempty,oneof=off strict balanced"`
	ExpectedVersion *int             `json:"expected_version,omitempty" validate:"omitempty,gte=1"`
}

// Validate validates the ApplyRequest using the validator.
func (r *ApplyRequest) Validate() error {
	return validate.Struct(r)
}

// ApplyResponse reports the version produced by an apply.
type ApplyResponse struct {
	ResumeID        string           `json:"resume_id"`
	Version         int              `json:"version"`
	UpdatedSections []string         `json:"updated_sections"`
	AppliedPatches  []PatchOperation `json:"applied_patches"`
}

// OverridesRequest appends override records to a resume's ledger.
type OverridesRequest struct {
	Skills []Override `json:"skills" validate:"required,min=1,dive"`
}

// Validate validates the OverridesRequest using the validator.
func (r *OverridesRequest) Validate() error {
	return validate.Struct(r)
}

// OverridesResponse lists the records stored for a resume.
type OverridesResponse struct {
	ResumeID  string     `json:"resume_id"`
	Overrides []Override `json:"overrides"`
}

// OverridesFromBlockedRequest turns blocked suggestions into overrides.
type OverridesFromBlockedRequest struct {
	Items []BlockedItem `json:"items" validate:"required,min=1,dive"`
}

// Validate validates the OverridesFromBlockedRequest using the validator.
func (r *OverridesFromBlockedRequest) Validate() error {
	return validate.Struct(r)
}

// IncludeSkillsRequest records overrides and applies the resulting patches in one call.
type IncludeSkillsRequest struct {
	ResumeID        string        `json:"-"`
	Items           []BlockedItem `json:"items" validate:"required,min=1,dive"`
	JDText          string        `json:"jd_text" validate:"required,min=20"`
	TruthMode       string        `json:"truth_mode,omitempty" validate:"omitempty,oneof=off strict balanced"`
	StrictMode      *bool         `json:"strict_mode,omitempty"`
	ExpectedVersion *int          `json:"expected_version,omitempty" validate:"omitempty,gte=1"`
}

// Validate validates the IncludeSkillsRequest using the validator.
func (r *IncludeSkillsRequest) Validate() error {
	return validate.Struct(r)
}

// IncludeSkillsResponse reports the overrides recorded and the version they produced.
// Version is unchanged when no patch could be built for the included skills.
type IncludeSkillsResponse struct {
	ResumeID       string              `json:"resume_id"`
	Version        int                 `json:"version"`
	Overrides      []Override          `json:"overrides"`
	AppliedPatches []PatchOperation    `json:"applied_patches"`
	Blocked        []BlockedSuggestion `json:"blocked"`
}

// CreateResumeRequest imports a resume as version 1.
type CreateResumeRequest struct {
	Document   *ResumeDocument `json:"document,omitempty"`
	ResumeText string          `json:"resume_text,omitempty"`
	JDText     string          `json:"jd_text,omitempty"`
}

// Validate validates the CreateResumeRequest.
func (r *CreateResumeRequest) Validate() error {
	if r.Document == nil && r.ResumeText == "" {
		return errors.New("document or resume_text is required")
	}
	if r.Document != nil && r.ResumeText != "" {
		return errors.New("document and resume_text are mutually exclusive")
	}
	return nil
}

// RoleSelector picks a role by ID or by company and dates.
type RoleSelector struct {
	RoleID  string `json:"role_id,omitempty"`
	Company string `json:"company,omitempty"`
	Dates   string `json:"dates,omitempty"`
}

// RewriteBulletRequest asks the rewrite service for a single bullet rewrite.
type RewriteBulletRequest struct {
	ResumeID      string       `json:"-"`
	RoleSelector  RoleSelector `json:"role_selector"`
	BulletIndex   int          `json:"bullet_index" validate:"gte=0"`
	JDText        string       `json:"jd_text,omitempty"`
	RewriteHint   string       `json:"rewrite_hint,omitempty" validate:"max=500"`
	OverrideSkill string       `json:"override_skill,omitempty"`
	Temperature   *float64     `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
}

// Validate validates the RewriteBulletRequest using the validator.
func (r *RewriteBulletRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return err
	}
	if r.RoleSelector.RoleID == "" && r.RoleSelector.Company == "" {
		return errors.New("role_selector needs role_id or company")
	}
	return nil
}

// RewriteBulletResponse returns a rewrite for review. It is never applied.
type RewriteBulletResponse struct {
	ResumeID        string       `json:"resume_id"`
	RoleID          string       `json:"role_id"`
	BulletIndex     int          `json:"bullet_index"`
	OriginalBullet  string       `json:"original_bullet"`
	RewrittenBullet string       `json:"rewritten_bullet"`
	StyleChecks     *StyleChecks `json:"style_checks,omitempty"`
}

// BoolOr returns *b, or def when b is nil.
func BoolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// StyleChecks are advisory quality signals for a rewritten bullet.
type StyleChecks struct {
	StrongVerb   bool `json:"strong_verb"`
	Quantified   bool `json:"quantified"`
	TargetLength bool `json:"target_length"`
}
