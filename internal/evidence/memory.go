package evidence

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

// MemoryIndex is an in-process Source over plain-text documents. Documents are
// split into sentence-sized passages and matched lexically against the query.
type MemoryIndex struct {
	mu       sync.RWMutex
	passages map[string][]string // source file -> passages
}

// NewMemoryIndex creates an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{passages: make(map[string][]string)}
}

// Add indexes (or re-indexes) a document under its source name.
func (m *MemoryIndex) Add(source, text string) {
	passages := splitPassages(text)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passages[source] = passages
}

// Remove drops a document from the index.
func (m *MemoryIndex) Remove(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.passages, source)
}

// Len returns the number of indexed documents.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.passages)
}

// Query implements Source. A passage naming the query is a direct match
// (score 1); one using a synonym or category term is adjacent (score 0.5).
func (m *MemoryIndex) Query(ctx context.Context, query string, topK int) ([]types.Snippet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type scored struct {
		snippet types.Snippet
		order   int
	}

	m.mu.RLock()
	var results []scored
	for source, passages := range m.passages {
		for i, p := range passages {
			switch {
			case skills.MatchesDirect(query, p):
				results = append(results, scored{types.Snippet{Score: 1, SourceFile: source, Text: p, SupportLevel: types.SupportDirect}, i})
			case skills.MentionsRelated(query, p):
				results = append(results, scored{types.Snippet{Score: 0.5, SourceFile: source, Text: p, SupportLevel: types.SupportAdjacent}, i})
			}
		}
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.snippet.Score != b.snippet.Score {
			return a.snippet.Score > b.snippet.Score
		}
		if a.snippet.SourceFile != b.snippet.SourceFile {
			return a.snippet.SourceFile < b.snippet.SourceFile
		}
		return a.order < b.order
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	out := make([]types.Snippet, len(results))
	for i, r := range results {
		out[i] = r.snippet
	}
	return out, nil
}

// splitPassages breaks text into non-empty lines, further split on sentence ends.
func splitPassages(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		if line == "" {
			continue
		}
		for _, sentence := range splitSentences(line) {
			if s := strings.TrimSpace(sentence); len(s) >= 5 {
				out = append(out, s)
			}
		}
	}
	return out
}

func splitSentences(line string) []string {
	var out []string
	start := 0
	for i := 0; i < len(line); i++ {
		if (line[i] == '.' || line[i] == '!' || line[i] == '?') && (i+1 == len(line) || line[i+1] == ' ') {
			out = append(out, line[start:i+1])
			start = i + 1
		}
	}
	if start < len(line) {
		out = append(out, line[start:])
	}
	return out
}
