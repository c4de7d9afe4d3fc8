// Package rewriting produces single-bullet rewrites for review. A rewrite is
// never applied here; callers submit it as a patch if they accept it.
package rewriting

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jonathan/resume-guard/internal/llm"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/prompts"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

// Bounds for an accepted rewrite; anything outside keeps the original.
const (
	minRewriteLength = 10
	maxRewriteLength = 300
	maxOutputTokens  = 160
)

// Input is one bullet to rewrite with its surrounding context.
type Input struct {
	Role        types.Role
	BulletIndex int
	JDText      string
	Hint        string
	// AllowedSkills are override-backed skills the rewrite may mention.
	AllowedSkills []string
	Temperature   float32
}

// Result is a reviewed rewrite.
type Result struct {
	Original  string
	Rewritten string
	Style     types.StyleChecks
}

// Rewriter calls the rewrite model and guards its output.
type Rewriter struct {
	Client  llm.Client
	Timeout time.Duration
}

// NewRewriter returns a Rewriter with the client's default timeout.
func NewRewriter(client llm.Client) *Rewriter {
	return &Rewriter{Client: client, Timeout: llm.DefaultTimeout}
}

// Rewrite asks the model for a rewrite of in.Role.Bullets[in.BulletIndex].
// An unusable response falls back to the original bullet. A response that
// adds unapproved skills or figures returns *ClaimError.
func (r *Rewriter) Rewrite(ctx context.Context, in Input) (*Result, error) {
	original := in.Role.Bullets[in.BulletIndex]
	req := llm.Request{
		System:          prompts.MustGet("rewriting.json", "bullet-rewrite-system"),
		Prompt:          buildRewritingPrompt(in),
		Tier:            llm.TierQuality,
		Temperature:     in.Temperature,
		MaxOutputTokens: maxOutputTokens,
	}

	policy := upstream.Policy{Service: "rewrite", Timeout: r.Timeout, Attempts: 1}
	text, err := upstream.Call(ctx, policy, func(ctx context.Context) (string, error) {
		return r.Client.Generate(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	rewritten := parseBulletResponse(text)
	if len(rewritten) < minRewriteLength || len(rewritten) > maxRewriteLength {
		rewritten = original
	}
	if claimErr := CheckClaims(original, rewritten, in.AllowedSkills); claimErr != nil {
		return nil, claimErr
	}
	return &Result{
		Original:  original,
		Rewritten: rewritten,
		Style:     ValidateStyle(rewritten, original),
	}, nil
}

// buildRewritingPrompt fills the user prompt with role context and neighbors
func buildRewritingPrompt(in Input) string {
	role := in.Role
	var neighbors []string
	if in.BulletIndex > 0 {
		neighbors = append(neighbors, role.Bullets[in.BulletIndex-1])
	}
	if in.BulletIndex+1 < len(role.Bullets) {
		neighbors = append(neighbors, role.Bullets[in.BulletIndex+1])
	}

	template := prompts.MustGet("rewriting.json", "bullet-rewrite-user")
	return prompts.Format(template, map[string]string{
		"JDText":           in.JDText,
		"Company":          role.Company,
		"Title":            role.Title,
		"Location":         role.Location,
		"Dates":            role.Dates,
		"Neighbors":        strings.Join(neighbors, "\n"),
		"AllowedAdditions": strings.Join(in.AllowedSkills, ", "),
		"Hint":             in.Hint,
		"Original":         role.Bullets[in.BulletIndex],
	})
}

// parseBulletResponse strips code fences, a JSON wrapper and bullet markers
func parseBulletResponse(responseText string) string {
	text := strings.TrimSpace(responseText)

	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		if len(lines) > 0 && strings.HasPrefix(lines[0], "```") {
			lines = lines[1:]
		}
		if len(lines) > 0 && strings.HasPrefix(lines[len(lines)-1], "```") {
			lines = lines[:len(lines)-1]
		}
		text = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	var jsonResp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &jsonResp); err == nil && jsonResp.Text != "" {
		text = jsonResp.Text
	}
	return strings.TrimSpace(strings.Trim(parsing.CleanBullet(text), `"`))
}
