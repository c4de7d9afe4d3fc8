// Package parsing turns raw inputs into structured data: resume text into
// documents, uploaded files into text, and job descriptions into skill lists.
package parsing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonathan/resume-guard/internal/llm"
	"github.com/jonathan/resume-guard/internal/prompts"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

// SkillExtractor derives required and preferred skills from a job description.
type SkillExtractor interface {
	Extract(ctx context.Context, jdText string, topN int) (types.SkillList, error)
}

// LexiconExtractor matches the built-in skill dictionary against JD sections.
type LexiconExtractor struct{}

// Extract implements SkillExtractor.
func (LexiconExtractor) Extract(_ context.Context, jdText string, topN int) (types.SkillList, error) {
	return skills.ExtractFromJD(jdText, topN), nil
}

// LLMExtractor asks a language model for the skill lists. It does not fall
// back to the lexicon on failure: callers get an *upstream.Error.
type LLMExtractor struct {
	Client   llm.Client
	Timeout  time.Duration
	Attempts int
}

// NewLLMExtractor returns an extractor with one retry and the client's default timeout.
func NewLLMExtractor(client llm.Client) *LLMExtractor {
	return &LLMExtractor{Client: client, Timeout: llm.DefaultTimeout, Attempts: 2}
}

type jdSkillsResponse struct {
	Required  []string `json:"required"`
	Preferred []string `json:"preferred"`
}

// Extract implements SkillExtractor.
func (e *LLMExtractor) Extract(ctx context.Context, jdText string, topN int) (types.SkillList, error) {
	req := llm.Request{
		Prompt:      llm.SkillListPrompt(prompts.MustGet("parsing.json", "extract-jd-skills"), jdText),
		Tier:        llm.TierFast,
		Temperature: 0,
		JSON:        true,
	}

	policy := upstream.Policy{Service: "jd-parser", Timeout: e.Timeout, Attempts: e.Attempts}
	return upstream.Call(ctx, policy, func(ctx context.Context) (types.SkillList, error) {
		text, err := e.Client.Generate(ctx, req)
		if err != nil {
			return types.SkillList{}, err
		}
		list, err := parseSkillsResponse(text)
		if err != nil {
			return types.SkillList{}, upstream.Permanent(err)
		}
		if topN > 0 {
			list.Required, list.Preferred = skills.TruncateSkills(list.Required, list.Preferred, topN)
		}
		return list, nil
	})
}

func parseSkillsResponse(text string) (types.SkillList, error) {
	var resp jdSkillsResponse
	if err := json.Unmarshal([]byte(llm.CleanJSONBlock(text)), &resp); err != nil {
		return types.SkillList{}, &ParseError{Message: "failed to parse skills JSON", Cause: err}
	}
	required := skills.NormalizeAll(resp.Required)
	preferred := skills.Without(skills.NormalizeAll(resp.Preferred), required)
	if len(required) == 0 && len(preferred) == 0 {
		return types.SkillList{}, &ParseError{Message: "model returned no skills"}
	}
	return types.SkillList{Required: required, Preferred: preferred}, nil
}
