package rewriting

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-guard/internal/llm"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

type fakeLLM struct {
	response string
	err      error
	last     llm.Request
}

func (f *fakeLLM) Generate(_ context.Context, req llm.Request) (string, error) {
	f.last = req
	return f.response, f.err
}

func testRole() types.Role {
	return types.Role{
		RoleID:  "r1",
		Company: "Acme",
		Title:   "Analytics Engineer",
		Dates:   "2021 - 2023",
		Bullets: []string{
			"Owned the finance data mart",
			"Built SQL models for 12 finance dashboards",
			"Ran weekly data quality reviews",
		},
	}
}

func TestRewriter_Rewrite(t *testing.T) {
	tests := []struct {
		name     string
		response string
		allowed  []string
		want     string
		claimErr bool
	}{
		{
			name:     "clean rewrite",
			response: "Designed SQL models powering 12 finance dashboards",
			want:     "Designed SQL models powering 12 finance dashboards",
		},
		{
			name:     "strips markers and quotes",
			response: "- \"Designed SQL models powering 12 finance dashboards\"",
			want:     "Designed SQL models powering 12 finance dashboards",
		},
		{
			name:     "json wrapper",
			response: "```json\n{\"text\": \"Designed SQL models powering 12 finance dashboards\"}\n```",
			want:     "Designed SQL models powering 12 finance dashboards",
		},
		{
			name:     "too short keeps original",
			response: "SQL",
			want:     "Built SQL models for 12 finance dashboards",
		},
		{
			name:     "unapproved skill",
			response: "Built SQL and Snowflake models for 12 finance dashboards",
			claimErr: true,
		},
		{
			name:     "approved override skill",
			response: "Built SQL and Snowflake models for 12 finance dashboards",
			allowed:  []string{"Snowflake"},
			want:     "Built SQL and Snowflake models for 12 finance dashboards",
		},
		{
			name:     "invented metric",
			response: "Built SQL models for 12 dashboards, cutting close time by 40%",
			claimErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeLLM{response: tt.response}
			r := NewRewriter(client)
			res, err := r.Rewrite(context.Background(), Input{
				Role:          testRole(),
				BulletIndex:   1,
				JDText:        "Analytics engineer with SQL",
				AllowedSkills: tt.allowed,
			})
			if tt.claimErr {
				var claim *ClaimError
				require.ErrorAs(t, err, &claim)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Built SQL models for 12 finance dashboards", res.Original)
			assert.Equal(t, tt.want, res.Rewritten)
			assert.Equal(t, llm.TierQuality, client.last.Tier)
			assert.NotEmpty(t, client.last.System)
		})
	}
}

func TestRewriter_UpstreamFailure(t *testing.T) {
	r := NewRewriter(&fakeLLM{err: errors.New("quota exceeded")})
	_, err := r.Rewrite(context.Background(), Input{Role: testRole(), BulletIndex: 0})
	var upErr *upstream.Error
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "rewrite", upErr.Service)
}

func TestBuildRewritingPrompt(t *testing.T) {
	prompt := buildRewritingPrompt(Input{
		Role:          testRole(),
		BulletIndex:   0,
		JDText:        "Looking for dbt experience",
		Hint:          "mention the migration",
		AllowedSkills: []string{"DBT"},
	})

	assert.Contains(t, prompt, "Looking for dbt experience")
	assert.Contains(t, prompt, "Company: Acme")
	assert.Contains(t, prompt, "Built SQL models for 12 finance dashboards")
	assert.NotContains(t, prompt, "Ran weekly data quality reviews", "only direct neighbors are included")
	assert.Contains(t, prompt, "ALLOWED ADDITIONS (validated overrides only):\nDBT")
	assert.Contains(t, prompt, "mention the migration")
	assert.Contains(t, prompt, "ORIGINAL BULLET:\nOwned the finance data mart")
}

func TestCheckClaims(t *testing.T) {
	assert.Nil(t, CheckClaims("Ran Apache Airflow DAGs", "Orchestrated Airflow DAGs nightly", nil))
	assert.Nil(t, CheckClaims("Cut costs by 1,200 dollars", "Reduced spend by 1200 dollars", nil))

	err := CheckClaims("Built dashboards", "Built Tableau dashboards on Snowflake", []string{"tableau"})
	require.NotNil(t, err)
	assert.Equal(t, []string{"Snowflake"}, err.Skills)
	assert.Contains(t, err.Error(), "unapproved skills: Snowflake")

	err = CheckClaims("Built dashboards", "Built 30 dashboards", nil)
	require.NotNil(t, err)
	assert.Equal(t, []string{"30"}, err.Numbers)
}

func TestValidateStyle(t *testing.T) {
	got := ValidateStyle("Automated 5 weekly reports", "Made weekly reports by hand")
	assert.True(t, got.StrongVerb)
	assert.True(t, got.Quantified)
	assert.True(t, got.TargetLength)

	got = ValidateStyle("responsible for reports", "")
	assert.False(t, got.StrongVerb)
	assert.False(t, got.Quantified)
	assert.True(t, got.TargetLength)
}
