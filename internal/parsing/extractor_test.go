package parsing

import (
	"context"
	"errors"
	"testing"

	"github.com/jonathan/resume-guard/internal/llm"
	"github.com/jonathan/resume-guard/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	responses []string
	errs      []error
	calls     int
	last      llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return "", errors.New("no more responses")
}

func TestLexiconExtractor(t *testing.T) {
	got, err := LexiconExtractor{}.Extract(context.Background(), "Requirements: SQL and Fivetran", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "Fivetran"}, got.Required)
}

func TestLLMExtractor(t *testing.T) {
	t.Run("normalizes and dedupes", func(t *testing.T) {
		client := &fakeLLM{responses: []string{"```json\n{\"required\": [\"sql\", \"golang\", \"SQL\"], \"preferred\": [\"k8s\", \"Go\"]}\n```"}}
		e := NewLLMExtractor(client)

		got, err := e.Extract(context.Background(), "We need SQL and Go engineers.", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"SQL", "Go"}, got.Required)
		assert.Equal(t, []string{"Kubernetes"}, got.Preferred)
		assert.True(t, client.last.JSON)
		assert.Contains(t, client.last.Prompt, "We need SQL and Go engineers.")
	})

	t.Run("top n", func(t *testing.T) {
		client := &fakeLLM{responses: []string{`{"required": ["SQL", "Python"], "preferred": ["Looker"]}`}}
		got, err := NewLLMExtractor(client).Extract(context.Background(), "jd", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"SQL", "Python"}, got.Required)
		assert.Empty(t, got.Preferred)
	})

	t.Run("transient error is retried", func(t *testing.T) {
		client := &fakeLLM{
			errs:      []error{errors.New("503")},
			responses: []string{"", `{"required": ["SQL"], "preferred": []}`},
		}
		got, err := NewLLMExtractor(client).Extract(context.Background(), "jd", 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"SQL"}, got.Required)
		assert.Equal(t, 2, client.calls)
	})

	t.Run("bad json is an upstream error without retry", func(t *testing.T) {
		client := &fakeLLM{responses: []string{"not json", `{"required": ["SQL"]}`}}
		_, err := NewLLMExtractor(client).Extract(context.Background(), "jd", 0)

		var upErr *upstream.Error
		require.ErrorAs(t, err, &upErr)
		assert.Equal(t, "jd-parser", upErr.Service)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
		assert.Equal(t, 1, client.calls)
	})

	t.Run("empty result", func(t *testing.T) {
		client := &fakeLLM{responses: []string{`{"required": [], "preferred": []}`}}
		_, err := NewLLMExtractor(client).Extract(context.Background(), "jd", 0)
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr)
	})
}
