// Package engine exposes the resume operations: scoring, patch suggestion,
// blocked plans, applying patches, the override ledger and bullet rewrites.
// It owns no state of its own; versions and overrides live in the stores
// behind the version manager and the ledger.
package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/rewriting"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/versions"
)

// DefaultFetchTimeout bounds one attempt at fetching a job description URL.
const DefaultFetchTimeout = 45 * time.Second

// defaultRewriteTemperature is used when a rewrite request names none.
const defaultRewriteTemperature = 0.2

// JDFetcher turns a job posting URL into plain text.
type JDFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// BulletRewriter rewrites a single bullet for review.
type BulletRewriter interface {
	Rewrite(ctx context.Context, in rewriting.Input) (*rewriting.Result, error)
}

// Options wires the optional collaborators. Zero values fall back to the
// lexical skill extractor, no evidence store and truth mode off.
type Options struct {
	Extractor    parsing.SkillExtractor
	Evidence     evidence.Source
	Lookup       evidence.LookupOptions
	Fetcher      JDFetcher
	FetchTimeout time.Duration
	Rewriter     BulletRewriter
	// TruthMode is used when a request leaves truth_mode empty.
	TruthMode  types.TruthMode
	TopNSkills int
	Logger     *zap.Logger
}

// Engine runs the resume operations.
type Engine struct {
	versions *versions.Manager
	ledger   *overrides.Ledger
	opts     Options
	logger   *zap.Logger
}

// New creates an engine over the version manager and override ledger.
func New(vm *versions.Manager, ledger *overrides.Ledger, opts Options) *Engine {
	if opts.Extractor == nil {
		opts.Extractor = parsing.LexiconExtractor{}
	}
	if opts.Lookup == (evidence.LookupOptions{}) {
		opts.Lookup = evidence.DefaultLookupOptions()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.TopNSkills <= 0 {
		opts.TopNSkills = types.DefaultTopNSkills
	}
	if opts.TruthMode == "" {
		opts.TruthMode = types.TruthOff
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{versions: vm, ledger: ledger, opts: opts, logger: log}
}

// truthMode resolves a request's truth mode against the configured default.
func (e *Engine) truthMode(s string) (types.TruthMode, error) {
	if s == "" {
		return e.opts.TruthMode, nil
	}
	mode, err := types.ParseTruthMode(s)
	if err != nil {
		return "", &InputError{Message: "bad truth_mode", Cause: err}
	}
	return mode, nil
}

func (e *Engine) topN(n int) int {
	if n > 0 {
		return n
	}
	return e.opts.TopNSkills
}

func validateRequest(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return &InputError{Message: "validation failed", Cause: err}
	}
	return nil
}
