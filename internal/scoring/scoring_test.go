package scoring

import (
	"testing"

	"github.com/jonathan/resume-guard/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDoc() *types.ResumeDocument {
	return &types.ResumeDocument{
		ResumeID: "res-1",
		Version:  1,
		Sections: types.ResumeSections{
			ProfessionalSummary: "Analytics engineer.",
			TechnicalSkills:     []string{"Languages: SQL, Python", "Data Integration: Stitch"},
			Experience: []types.Role{
				{RoleID: "r1", Company: "Acme", Bullets: []string{"Modeled marts with data build tool", "Ran nightly loads"}},
				{RoleID: "r2", Company: "Beta", Bullets: []string{"Wrote MySQL reports"}},
			},
		},
	}
}

func TestScore_SQLFivetranScenario(t *testing.T) {
	report := Score(Input{
		JDText:   "Requirements: SQL and Fivetran experience for our data team.",
		Skills:   &types.SkillList{Required: []string{"SQL", "Fivetran"}},
		Document: testDoc(),
	})

	require.Len(t, report.Required, 2)
	sql := report.Required[0]
	assert.Equal(t, types.StatusDirect, sql.Status)
	assert.True(t, sql.DirectFromResume)
	require.NotEmpty(t, sql.Evidence)
	assert.Equal(t, types.OriginResume, sql.Evidence[0].Origin)
	assert.Equal(t, types.SectionTechnicalSkills, sql.Evidence[0].Section)
	assert.Equal(t, 0, *sql.Evidence[0].BulletIndex)

	fivetran := report.Required[1]
	assert.Equal(t, types.StatusMissing, fivetran.Status)
	assert.Empty(t, fivetran.Evidence)
	assert.False(t, fivetran.DirectFromResume)

	assert.Equal(t, []string{"Fivetran"}, report.MissingRequired)
	assert.Empty(t, report.MissingPreferred)
	assert.Equal(t, 50.0, report.ATSScore)
}

func TestCoverage(t *testing.T) {
	doc := testDoc()
	tests := []struct {
		name       string
		skill      string
		in         Input
		wantStatus types.CoverageStatus
		wantOrigin []types.EvidenceOrigin
	}{
		{
			name:       "token boundary keeps MySQL from matching SQL",
			skill:      "SQL",
			in:         Input{Document: &types.ResumeDocument{Sections: types.ResumeSections{Experience: []types.Role{{RoleID: "r", Bullets: []string{"Wrote MySQL reports"}}}}}},
			wantStatus: types.StatusMissing,
			wantOrigin: nil,
		},
		{
			name:       "synonym in bullet is partial",
			skill:      "DBT",
			in:         Input{Document: doc},
			wantStatus: types.StatusPartial,
			wantOrigin: []types.EvidenceOrigin{types.OriginResume},
		},
		{
			name:       "strict matching ignores synonyms",
			skill:      "DBT",
			in:         Input{Document: doc, StrictMatching: true},
			wantStatus: types.StatusMissing,
			wantOrigin: nil,
		},
		{
			name:  "worked_with override is partial",
			skill: "Fivetran",
			in: Input{Document: doc, Overrides: []types.EffectiveOverride{
				{OverrideID: "o1", Skill: "fivetran", RoleID: "r1", Level: types.LevelWorkedWith, ProofBullets: []string{"Configured Fivetran syncs"}},
			}},
			wantStatus: types.StatusPartial,
			wantOrigin: []types.EvidenceOrigin{types.OriginOverride},
		},
		{
			name:  "exposure override is evidence but stays missing",
			skill: "Fivetran",
			in: Input{Document: doc, Overrides: []types.EffectiveOverride{
				{OverrideID: "o1", Skill: "Fivetran", RoleID: "r1", Level: types.LevelExposure, ProofBullets: []string{"Shadowed Fivetran setup"}},
			}},
			wantStatus: types.StatusMissing,
			wantOrigin: []types.EvidenceOrigin{types.OriginOverride},
		},
		{
			name:  "supported snippet is partial",
			skill: "Kafka",
			in: Input{Document: doc, Snippets: map[string][]types.Snippet{
				"kafka": {{SourceFile: "notes.md", Text: "Consumed Kafka topics for CDC", SupportLevel: types.SupportDirect}},
			}},
			wantStatus: types.StatusPartial,
			wantOrigin: []types.EvidenceOrigin{types.OriginRetrieval},
		},
		{
			name:  "unsupported or unrelated snippets are ignored",
			skill: "Kafka",
			in: Input{Document: doc, Snippets: map[string][]types.Snippet{
				"Kafka": {
					{SourceFile: "a.md", Text: "Consumed Kafka topics", SupportLevel: types.SupportNone},
					{SourceFile: "b.md", Text: "Built dashboards", SupportLevel: types.SupportDirect},
				},
			}},
			wantStatus: types.StatusMissing,
			wantOrigin: nil,
		},
		{
			name:  "direct keeps override evidence after resume evidence",
			skill: "Python",
			in: Input{Document: doc, Overrides: []types.EffectiveOverride{
				{OverrideID: "o2", Skill: "Python", RoleID: "r2", Level: types.LevelHandsOn, ProofBullets: []string{"Wrote Python ETL"}},
			}},
			wantStatus: types.StatusDirect,
			wantOrigin: []types.EvidenceOrigin{types.OriginResume, types.OriginOverride},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov := Coverage(tt.skill, tt.in)
			assert.Equal(t, tt.wantStatus, cov.Status)
			var origins []types.EvidenceOrigin
			for _, ev := range cov.Evidence {
				origins = append(origins, ev.Origin)
			}
			assert.Equal(t, tt.wantOrigin, origins)
			if cov.Status == types.StatusDirect {
				assert.NotEmpty(t, cov.EvidenceFrom(types.OriginResume))
			}
		})
	}
}

func TestScore_Monotonic(t *testing.T) {
	skills := &types.SkillList{Required: []string{"SQL", "Fivetran", "Airflow"}, Preferred: []string{"Looker"}}
	base := Input{JDText: "Need SQL, Fivetran, Airflow; Looker a plus", Skills: skills, Document: testDoc()}
	before := Score(base).ATSScore

	t.Run("adding direct resume evidence increases the score", func(t *testing.T) {
		doc := testDoc()
		doc.Sections.Experience[0].Bullets = append(doc.Sections.Experience[0].Bullets, "Managed Fivetran connectors")
		in := base
		in.Document = doc
		assert.Greater(t, Score(in).ATSScore, before)
	})

	t.Run("upgrading partial to direct increases the score", func(t *testing.T) {
		partial := base
		partial.Overrides = []types.EffectiveOverride{{Skill: "Airflow", RoleID: "r1", Level: types.LevelHandsOn, ProofBullets: []string{"Ran DAGs"}}}
		partialScore := Score(partial).ATSScore
		assert.Greater(t, partialScore, before)

		doc := testDoc()
		doc.Sections.TechnicalSkills = append(doc.Sections.TechnicalSkills, "Orchestration: Airflow")
		partial.Document = doc
		assert.Greater(t, Score(partial).ATSScore, partialScore)
	})

	t.Run("removing evidence never increases the score", func(t *testing.T) {
		doc := testDoc()
		doc.Sections.TechnicalSkills = nil
		in := base
		in.Document = doc
		assert.LessOrEqual(t, Score(in).ATSScore, before)
	})
}

func TestAggregate(t *testing.T) {
	direct := types.SkillCoverage{Status: types.StatusDirect}
	partial := types.SkillCoverage{Status: types.StatusPartial}
	missing := types.SkillCoverage{Status: types.StatusMissing}

	assert.Equal(t, 0.0, Aggregate(nil, nil, false))
	assert.Equal(t, 100.0, Aggregate([]types.SkillCoverage{direct}, nil, false))
	assert.Equal(t, 70.0, Aggregate([]types.SkillCoverage{direct}, []types.SkillCoverage{missing}, false))
	assert.Equal(t, 30.0, Aggregate([]types.SkillCoverage{missing}, []types.SkillCoverage{direct}, false))
	assert.Equal(t, 50.0, Aggregate([]types.SkillCoverage{partial}, nil, false))
	assert.Equal(t, 0.0, Aggregate([]types.SkillCoverage{partial}, nil, true))
	assert.Equal(t, 33.33, Aggregate([]types.SkillCoverage{direct, missing, missing}, nil, false))
}

func TestSkillsFor(t *testing.T) {
	got := SkillsFor("ignored", &types.SkillList{Required: []string{"SQL", " sql", "Python"}, Preferred: []string{"python", "Looker", ""}}, 0)
	assert.Equal(t, []string{"SQL", "Python"}, got.Required)
	assert.Equal(t, []string{"Looker"}, got.Preferred)

	got = SkillsFor("Requirements: SQL, Fivetran", &types.SkillList{}, 0)
	assert.Equal(t, []string{"SQL", "Fivetran"}, got.Required)

	got = SkillsFor("Requirements: SQL, Fivetran", nil, 1)
	assert.Equal(t, []string{"SQL"}, got.Required)
}
