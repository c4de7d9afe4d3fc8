package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/patches"
	"github.com/jonathan/resume-guard/internal/scoring"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

// analysis is one scoring pass over a resume version.
type analysis struct {
	doc       *types.ResumeDocument
	effective []types.EffectiveOverride
	report    *types.ScoreReport
}

type scoreParams struct {
	jdText    string
	skills    *types.SkillList
	doc       *types.ResumeDocument
	effective []types.EffectiveOverride
	strict    bool
	topN      int
}

// Score builds a coverage report. The resume comes from a stored id, raw
// text or a structured document; the JD from text or a URL.
func (e *Engine) Score(ctx context.Context, req types.ScoreRequest) (*types.ScoreReport, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	jdText, err := e.jdText(ctx, req.JDText, req.JDURL)
	if err != nil {
		return nil, err
	}

	var (
		doc       *types.ResumeDocument
		effective []types.EffectiveOverride
	)
	switch {
	case req.Document != nil:
		doc = req.Document
	case req.ResumeText != "":
		doc = parsing.ParseResumeText(req.ResumeText)
	default:
		if doc, err = e.versions.Get(ctx, req.ResumeID, 0); err != nil {
			return nil, err
		}
		if req.Overrides == nil {
			if effective, err = e.ledger.Effective(ctx, req.ResumeID); err != nil {
				return nil, err
			}
		}
	}
	if req.Overrides != nil {
		effective = adHocOverrides(req.Overrides)
	}

	return e.score(ctx, scoreParams{
		jdText:    jdText,
		skills:    req.Skills,
		doc:       doc,
		effective: effective,
		strict:    types.BoolOr(req.StrictMode, true),
		topN:      e.topN(req.TopNSkills),
	})
}

// Suggest scores the latest version of a resume and turns every non-direct
// skill into either a patch or a blocked suggestion.
func (e *Engine) Suggest(ctx context.Context, req types.SuggestRequest) (*types.SuggestResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	mode, err := e.truthMode(req.TruthMode)
	if err != nil {
		return nil, err
	}

	a, err := e.analyze(ctx, req.ResumeID, req.JDText, types.BoolOr(req.StrictMode, true),
		types.BoolOr(req.ApplyOverrides, true), e.topN(req.TopNSkills))
	if err != nil {
		return nil, err
	}

	result := patches.Generate(patches.Input{
		Document:  a.doc,
		Report:    a.report,
		Overrides: a.effective,
		Mode:      mode,
	})
	e.logger.Debug("suggestions built",
		zap.String("resume_id", req.ResumeID),
		zap.String("truth_mode", string(mode)),
		zap.Int("patches", len(result.Patches)),
		zap.Int("blocked", len(result.Blocked)))

	return &types.SuggestResponse{
		ResumeID:         req.ResumeID,
		Version:          a.doc.Version,
		TruthMode:        mode,
		Score:            a.report,
		SuggestedPatches: nonNilPatches(result.Patches),
		Blocked:          nonNilBlocked(result.Blocked),
	}, nil
}

// BlockedPlan returns only the blocked suggestions of a suggestion pass, at
// most TopN of them. It never writes anything, so repeated calls against an
// unchanged resume and ledger return the same plan.
func (e *Engine) BlockedPlan(ctx context.Context, req types.BlockedPlanRequest) (*types.BlockedPlanResponse, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}
	mode, err := e.truthMode(req.TruthMode)
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

	topN := req.TopN
	if topN <= 0 {
		topN = types.DefaultBlockedTopN
	}
	blocked := result.Blocked
	if len(blocked) > topN {
		blocked = blocked[:topN]
	}
	return &types.BlockedPlanResponse{
		ResumeID: req.ResumeID,
		Version:  a.doc.Version,
		Blocked:  nonNilBlocked(blocked),
	}, nil
}

// analyze loads the latest version and, when withOverrides is set, the
// effective ledger, then scores the JD against them.
func (e *Engine) analyze(ctx context.Context, resumeID, jdText string, strict, withOverrides bool, topN int) (*analysis, error) {
	doc, err := e.versions.Get(ctx, resumeID, 0)
	if err != nil {
		return nil, err
	}
	var effective []types.EffectiveOverride
	if withOverrides {
		if effective, err = e.ledger.Effective(ctx, resumeID); err != nil {
			return nil, err
		}
	}

	report, err := e.score(ctx, scoreParams{
		jdText:    jdText,
		doc:       doc,
		effective: effective,
		strict:    strict,
		topN:      topN,
	})
	if err != nil {
		return nil, err
	}
	return &analysis{doc: doc, effective: effective, report: report}, nil
}

func (e *Engine) score(ctx context.Context, p scoreParams) (*types.ScoreReport, error) {
	list := p.skills
	if list == nil || len(list.Required)+len(list.Preferred) == 0 {
		extracted, err := e.opts.Extractor.Extract(ctx, p.jdText, p.topN)
		if err != nil {
			return nil, fmt.Errorf("failed to extract JD skills: %w", err)
		}
		list = &extracted
	}
	list = &types.SkillList{Required: skills.NormalizeAll(list.Required), Preferred: skills.NormalizeAll(list.Preferred)}

	snippets, err := evidence.Lookup(ctx, e.opts.Evidence, lookupSkills(p.doc, *list), e.opts.Lookup)
	if err != nil {
		return nil, err
	}

	return scoring.Score(scoring.Input{
		JDText:         p.jdText,
		Skills:         list,
		Document:       p.doc,
		Overrides:      p.effective,
		Snippets:       snippets,
		StrictMatching: p.strict,
		TopN:           p.topN,
	}), nil
}

// jdText returns text as given, or fetches url.
func (e *Engine) jdText(ctx context.Context, text, url string) (string, error) {
	if text != "" {
		return text, nil
	}
	if e.opts.Fetcher == nil {
		return "", &UnavailableError{Feature: "jd_url fetching"}
	}
	policy := upstream.Policy{Service: "jd_fetch", Timeout: e.opts.FetchTimeout, Attempts: 2}
	return upstream.Call(ctx, policy, func(ctx context.Context) (string, error) {
		return e.opts.Fetcher.Fetch(ctx, url)
	})
}

// lookupSkills lists the skills worth asking the evidence store about: those
// not already named verbatim somewhere in the resume.
func lookupSkills(doc *types.ResumeDocument, list types.SkillList) []string {
	text := parsing.RenderText(doc)
	var out []string
	for _, skill := range append(append([]string{}, list.Required...), list.Preferred...) {
		if !skills.MatchesDirect(skill, text) {
			out = append(out, skill)
		}
	}
	return out
}

// adHocOverrides builds an effective view from records that were never
// stored; later records win as if appended in order.
func adHocOverrides(records []types.Override) []types.EffectiveOverride {
	seq := make([]types.Override, len(records))
	for i, rec := range records {
		rec.Seq = int64(i + 1)
		seq[i] = rec
	}
	return overrides.Effective(seq)
}

func nonNilPatches(ops []types.PatchOperation) []types.PatchOperation {
	if ops == nil {
		return []types.PatchOperation{}
	}
	return ops
}

func nonNilBlocked(items []types.BlockedSuggestion) []types.BlockedSuggestion {
	if items == nil {
		return []types.BlockedSuggestion{}
	}
	return items
}
