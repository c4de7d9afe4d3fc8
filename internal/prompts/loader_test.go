package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		key     string
		wantErr string
	}{
		{name: "rewrite system", file: "rewriting.json", key: "bullet-rewrite-system"},
		{name: "jd skills", file: "parsing.json", key: "extract-jd-skills"},
		{name: "unknown file", file: "nonexistent.json", key: "x", wantErr: "unknown prompt file"},
		{name: "unknown key", file: "parsing.json", key: "nonexistent-key", wantErr: "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Get(tt.file, tt.key)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, got)
		})
	}
}

func TestMustGet(t *testing.T) {
	assert.Panics(t, func() { MustGet("nonexistent.json", "some-key") })
	assert.Contains(t, MustGet("rewriting.json", "bullet-rewrite-system"), "ALLOWED ADDITIONS")
}

func TestFormat(t *testing.T) {
	template := "Company: {{.Company}}\nHint: {{.Hint}}\nOther: {{.Other}}"
	result := Format(template, map[string]string{"Company": "Acme", "Hint": " "})

	assert.Equal(t, "Company: Acme\nHint: None\nOther: {{.Other}}", result)
}

func TestUserTemplateHasAllPlaceholders(t *testing.T) {
	tmpl := MustGet("rewriting.json", "bullet-rewrite-user")
	for _, key := range []string{"JDText", "Company", "Title", "Location", "Dates", "Neighbors", "AllowedAdditions", "Hint", "Original"} {
		assert.Contains(t, tmpl, "{{."+key+"}}")
	}
}
