// Package evidence queries the external evidence store for snippets that
// support a skill claim. Snippets only ever raise a skill to partial coverage.
package evidence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

// Source answers free-text queries with ranked snippets.
type Source interface {
	Query(ctx context.Context, query string, topK int) ([]types.Snippet, error)
}

// LookupOptions bounds a batch of per-skill lookups.
type LookupOptions struct {
	TopK        int
	Timeout     time.Duration
	Attempts    int
	Concurrency int
}

// DefaultLookupOptions returns the lookup settings used when none are configured.
func DefaultLookupOptions() LookupOptions {
	return LookupOptions{TopK: 3, Timeout: 5 * time.Second, Attempts: 2, Concurrency: 4}
}

// Lookup queries src once per skill, concurrently, and returns the snippets
// keyed by skill. A nil source yields an empty map. Any failed query fails the
// whole lookup with an *upstream.Error so callers never score on partial data.
func Lookup(ctx context.Context, src Source, skillNames []string, opts LookupOptions) (map[string][]types.Snippet, error) {
	results := make(map[string][]types.Snippet, len(skillNames))
	if src == nil || len(skillNames) == 0 {
		return results, nil
	}
	if opts.TopK <= 0 {
		opts.TopK = DefaultLookupOptions().TopK
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultLookupOptions().Concurrency
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)

	policy := upstream.Policy{Service: "evidence", Timeout: opts.Timeout, Attempts: opts.Attempts}
	for _, skill := range skillNames {
		g.Go(func() error {
			snippets, err := upstream.Call(gCtx, policy, func(ctx context.Context) ([]types.Snippet, error) {
				return src.Query(ctx, skill, opts.TopK)
			})
			if err != nil {
				return fmt.Errorf("evidence lookup for %q: %w", skill, err)
			}
			mu.Lock()
			results[skill] = snippets
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Supports reports whether the service judged the snippet usable as evidence.
func Supports(s types.Snippet) bool {
	return s.SupportLevel == types.SupportDirect || s.SupportLevel == types.SupportAdjacent
}
