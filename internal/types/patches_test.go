//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchOperation_CheckShape(t *testing.T) {
	tests := []struct {
		name    string
		op      PatchOperation
		wantErr string
	}{
		{
			name: "valid experience replace",
			op: PatchOperation{
				Section: SectionExperience, Action: ActionReplace, RoleID: "r1",
				BulletIndex: IntPtr(0), NewBullet: "Built SQL pipelines",
			},
		},
		{
			name: "valid technical skills insert",
			op: PatchOperation{
				Section: SectionTechnicalSkills, Action: ActionInsert,
				AfterIndex: IntPtr(-1), NewBullet: "Other Skills: Kafka",
			},
		},
		{
			name: "replace without bullet index",
			op: PatchOperation{
				Section: SectionExperience, Action: ActionReplace, RoleID: "r1",
				NewBullet: "Built SQL pipelines",
			},
			wantErr: "requires bullet_index",
		},
		{
			name: "insert without after index",
			op: PatchOperation{
				Section: SectionExperience, Action: ActionInsert, RoleID: "r1",
				NewBullet: "Built SQL pipelines",
			},
			wantErr: "requires after_index",
		},
		{
			name: "experience without role",
			op: PatchOperation{
				Section: SectionExperience, Action: ActionInsert,
				AfterIndex: IntPtr(0), NewBullet: "Built SQL pipelines",
			},
			wantErr: "requires role_id",
		},
		{
			name: "bullet too short",
			op: PatchOperation{
				Section: SectionTechnicalSkills, Action: ActionReplace,
				BulletIndex: IntPtr(0), NewBullet: "SQL",
			},
			wantErr: "new_bullet must be",
		},
		{
			name: "unknown section",
			op: PatchOperation{
				Section: SectionSummary, Action: ActionReplace,
				BulletIndex: IntPtr(0), NewBullet: "Data engineer",
			},
			wantErr: "unsupported section",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.CheckShape()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPatchOperation_Position(t *testing.T) {
	assert.Equal(t, 2, (&PatchOperation{BulletIndex: IntPtr(2)}).Position())
	assert.Equal(t, 0, (&PatchOperation{AfterIndex: IntPtr(-1)}).Position())
	assert.Equal(t, 4, (&PatchOperation{AfterIndex: IntPtr(3)}).Position())
}

func TestParseTruthMode(t *testing.T) {
	mode, err := ParseTruthMode("")
	require.NoError(t, err)
	assert.Equal(t, TruthOff, mode)

	mode, err = ParseTruthMode(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, TruthStrict, mode)
	assert.True(t, mode.Gated())
	assert.False(t, TruthOff.Gated())

	_, err = ParseTruthMode("lenient")
	assert.Error(t, err)
}

func TestProficiencyLevel_Order(t *testing.T) {
	assert.Less(t, LevelExposure.Rank(), LevelWorkedWith.Rank())
	assert.Less(t, LevelWorkedWith.Rank(), LevelHandsOn.Rank())
	assert.True(t, LevelHandsOn.AtLeast(LevelWorkedWith))
	assert.False(t, LevelExposure.AtLeast(LevelWorkedWith))
	assert.False(t, ProficiencyLevel("expert").AtLeast(LevelExposure))

	_, err := ParseProficiencyLevel("expert")
	assert.Error(t, err)
}

func TestResumeDocument_Clone(t *testing.T) {
	doc := &ResumeDocument{
		ResumeID: "res-1",
		Version:  1,
		Sections: ResumeSections{
			TechnicalSkills: []string{"Languages: SQL, Python"},
			Experience: []Role{
				{RoleID: "r1", Company: "Acme", Bullets: []string{"Built dashboards"}},
			},
		},
	}

	clone := doc.Clone()
	clone.Sections.TechnicalSkills[0] = "changed"
	clone.Sections.Experience[0].Bullets[0] = "changed"
	clone.Sections.Experience = append(clone.Sections.Experience, Role{RoleID: "r2"})

	assert.Equal(t, "Languages: SQL, Python", doc.Sections.TechnicalSkills[0])
	assert.Equal(t, "Built dashboards", doc.Sections.Experience[0].Bullets[0])
	assert.Len(t, doc.Sections.Experience, 1)
	assert.Nil(t, (*ResumeDocument)(nil).Clone())
}

func TestResumeDocument_Lookups(t *testing.T) {
	doc := &ResumeDocument{Sections: ResumeSections{
		ProfessionalSummary: "Data engineer.\n\nLikes SQL.",
		TechnicalSkills:     []string{"SQL", "Python", "sql "},
		Experience:          []Role{{RoleID: "a"}, {RoleID: "b"}},
	}}

	assert.Equal(t, []string{"a", "b"}, doc.RoleIDs())
	assert.Equal(t, 1, doc.RoleIndex("b"))
	assert.Equal(t, -1, doc.RoleIndex("c"))
	assert.Nil(t, doc.FindRole("c"))
	require.NotNil(t, doc.FindRole("a"))
	assert.Len(t, doc.SummaryLines(), 2)
	assert.Equal(t, "sql ", doc.DuplicateSkill())
}

func TestRequestValidation(t *testing.T) {
	jd := "We need a data engineer with SQL and Fivetran."

	t.Run("score request needs a resume source", func(t *testing.T) {
		req := ScoreRequest{JDText: jd}
		assert.Error(t, req.Validate())
		req.ResumeText = "Jane Doe"
		assert.NoError(t, req.Validate())
	})

	t.Run("score request needs a jd source", func(t *testing.T) {
		req := ScoreRequest{ResumeID: "res-1"}
		assert.Error(t, req.Validate())
		req.JDURL = "https://example.com/jobs/1"
		assert.NoError(t, req.Validate())
	})

	t.Run("suggest rejects unknown truth mode", func(t *testing.T) {
		req := SuggestRequest{JDText: jd, TruthMode: "lenient"}
		assert.Error(t, req.Validate())
		req.TruthMode = "balanced"
		assert.NoError(t, req.Validate())
	})

	t.Run("apply requires patches", func(t *testing.T) {
		req := ApplyRequest{}
		assert.Error(t, req.Validate())
	})

	t.Run("override bounds", func(t *testing.T) {
		req := OverridesRequest{Skills: []Override{{
			Skill: "Fivetran", Level: LevelHandsOn, TargetRoles: []string{"r1"},
			ProofBullets: []string{"a", "b", "c", "d"},
		}}}
		assert.Error(t, req.Validate())
		req.Skills[0].ProofBullets = []string{"Built Fivetran connectors"}
		assert.NoError(t, req.Validate())
	})

	t.Run("blocked item level", func(t *testing.T) {
		req := OverridesFromBlockedRequest{Items: []BlockedItem{{Skill: "Kafka", Level: "expert", RoleID: "r1"}}}
		assert.Error(t, req.Validate())
	})

	t.Run("create resume sources are exclusive", func(t *testing.T) {
		req := CreateResumeRequest{Document: &ResumeDocument{}, ResumeText: "x"}
		assert.Error(t, req.Validate())
	})
}
