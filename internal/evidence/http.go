package evidence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

// HTTPSource queries a retrieval service over HTTP:
// POST {base}/query {"query": ..., "top_k": N} -> [{score, source_file, text, support_level}]
type HTTPSource struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSource creates a client for the retrieval service at baseURL.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSource{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// Query implements Source.
func (s *HTTPSource) Query(ctx context.Context, query string, topK int) ([]types.Snippet, error) {
	body, err := json.Marshal(queryRequest{Query: query, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/query", bytes.NewReader(body))
	if err != nil {
		return nil, upstream.Permanent(fmt.Errorf("failed to build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("retrieval service returned %d: %s", resp.StatusCode, truncate(string(raw), 200))
		if resp.StatusCode < 500 {
			return nil, upstream.Permanent(err)
		}
		return nil, err
	}

	return decodeSnippets(raw)
}

// decodeSnippets accepts either a bare array or an object with a "results"
// array, and tolerates numbers sent as strings.
func decodeSnippets(raw []byte) ([]types.Snippet, error) {
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, upstream.Permanent(fmt.Errorf("invalid JSON from retrieval service: %w", err))
	}
	if obj, ok := payload.(map[string]any); ok {
		payload = obj["results"]
	}
	if payload == nil {
		return []types.Snippet{}, nil
	}

	var snippets []types.Snippet
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &snippets,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(payload); err != nil {
		return nil, upstream.Permanent(fmt.Errorf("unexpected retrieval response shape: %w", err))
	}

	out := snippets[:0]
	for _, sn := range snippets {
		sn.Text = strings.TrimSpace(sn.Text)
		if sn.Text == "" {
			continue
		}
		if sn.SupportLevel == "" {
			sn.SupportLevel = types.SupportNone
		}
		out = append(out, sn)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
