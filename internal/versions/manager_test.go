package versions

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/overrides"
	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
	"github.com/jonathan/resume-guard/internal/upstream"
)

func sampleDoc() *types.ResumeDocument {
	return &types.ResumeDocument{
		ResumeID: "res-1",
		Header:   types.ResumeHeader{Name: "Jordan Lee"},
		Sections: types.ResumeSections{
			ProfessionalSummary: "Analytics engineer focused on SQL and dbt",
			TechnicalSkills:     []string{"Languages: SQL, Python", "BI: Tableau"},
			Experience: []types.Role{
				{RoleID: "r1", Company: "Acme", Title: "Analytics Engineer", Bullets: []string{
					"Built SQL models for finance reporting",
					"Automated weekly KPI decks",
				}},
				{RoleID: "r2", Company: "Beta", Title: "Data Analyst", Bullets: []string{
					"Wrote ad hoc reports",
				}},
			},
		},
	}
}

func setupManager(t *testing.T, opts ...Option) (*Manager, *overrides.Ledger) {
	t.Helper()
	mem := store.NewMemory()
	ledger := overrides.NewLedger(mem, mem)
	m := NewManager(mem, ledger, opts...)
	_, err := m.Create(context.Background(), sampleDoc())
	require.NoError(t, err)
	return m, ledger
}

func insertOp(roleID string, after int, text string) types.PatchOperation {
	return types.PatchOperation{
		Section:    types.SectionExperience,
		Action:     types.ActionInsert,
		RoleID:     roleID,
		AfterIndex: types.IntPtr(after),
		NewBullet:  text,
	}
}

func TestManager_Create(t *testing.T) {
	ctx := context.Background()
	m := NewManager(store.NewMemory(), nil)

	doc := sampleDoc()
	doc.ResumeID = ""
	doc.Sections.Experience[1].RoleID = ""
	created, err := m.Create(ctx, doc)
	require.NoError(t, err)

	assert.NotEmpty(t, created.ResumeID)
	assert.Equal(t, 1, created.Version)
	assert.NotEmpty(t, created.Sections.Experience[1].RoleID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Empty(t, doc.ResumeID, "input is not mutated")

	t.Run("rejects duplicate resume", func(t *testing.T) {
		dup := sampleDoc()
		dup.ResumeID = created.ResumeID
		_, err := m.Create(ctx, dup)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("rejects duplicate skills", func(t *testing.T) {
		bad := sampleDoc()
		bad.ResumeID = ""
		bad.Sections.TechnicalSkills = []string{"SQL", "sql "}
		_, err := m.Create(ctx, bad)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("rejects role without company", func(t *testing.T) {
		bad := sampleDoc()
		bad.ResumeID = ""
		bad.Sections.Experience[0].Company = " "
		_, err := m.Create(ctx, bad)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestManager_GetAndHistory(t *testing.T) {
	ctx := context.Background()
	m, _ := setupManager(t)

	_, _, err := m.Apply(ctx, ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", 0, "Presented findings to leadership")},
		Mode:     types.TruthOff,
	})
	require.NoError(t, err)

	latest, err := m.Get(ctx, "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)

	first, err := m.Get(ctx, "res-1", 1)
	require.NoError(t, err)
	assert.Len(t, first.Sections.Experience[1].Bullets, 1)

	history, err := m.History(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Version)
	assert.Equal(t, 2, history[1].Version)

	_, err = m.Get(ctx, "res-1", 7)
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)

	_, err = m.Get(ctx, "missing", 0)
	assert.ErrorAs(t, err, &nf)

	_, err = m.History(ctx, "missing")
	assert.ErrorAs(t, err, &nf)
}

func TestManager_ApplyIsAtomic(t *testing.T) {
	ctx := context.Background()
	m, _ := setupManager(t)

	_, _, err := m.Apply(ctx, ApplyParams{
		ResumeID: "res-1",
		Patches: []types.PatchOperation{
			insertOp("r1", 1, "Partnered with finance on forecasting"),
			{
				Section:     types.SectionExperience,
				Action:      types.ActionReplace,
				RoleID:      "r2",
				BulletIndex: types.IntPtr(5),
				NewBullet:   "Rewrote the reporting layer",
			},
		},
		Mode: types.TruthOff,
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.Index)

	latest, err := m.Get(ctx, "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
	assert.Len(t, latest.Sections.Experience[0].Bullets, 2)
}

func TestManager_ApplySequentialIndices(t *testing.T) {
	ctx := context.Background()
	m, _ := setupManager(t)

	doc, _, err := m.Apply(ctx, ApplyParams{
		ResumeID: "res-1",
		Patches: []types.PatchOperation{
			insertOp("r1", -1, "Led the migration to dbt"),
			{
				Section:     types.SectionExperience,
				Action:      types.ActionReplace,
				RoleID:      "r1",
				BulletIndex: types.IntPtr(2),
				NewBullet:   "Automated weekly KPI decks in Tableau",
			},
			insertOp("r1", 2, "Cut dashboard latency by caching extracts"),
		},
		Mode: types.TruthOff,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, []string{
		"Led the migration to dbt",
		"Built SQL models for finance reporting",
		"Automated weekly KPI decks in Tableau",
		"Cut dashboard latency by caching extracts",
	}, doc.Sections.Experience[0].Bullets)
}

func TestManager_ApplyVersionsAreGapless(t *testing.T) {
	ctx := context.Background()
	m, _ := setupManager(t)

	for i := 0; i < 3; i++ {
		doc, _, err := m.Apply(ctx, ApplyParams{
			ResumeID: "res-1",
			Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
			Mode:     types.TruthOff,
		})
		require.NoError(t, err)
		assert.Equal(t, 2+i, doc.Version)
	}
}

func TestManager_ApplyExpectedVersion(t *testing.T) {
	ctx := context.Background()
	m, _ := setupManager(t)
	op := insertOp("r2", -1, "Documented the metrics layer")

	_, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", ExpectedVersion: types.IntPtr(1), Patches: []types.PatchOperation{op}})
	require.NoError(t, err)

	_, _, err = m.Apply(ctx, ApplyParams{ResumeID: "res-1", ExpectedVersion: types.IntPtr(1), Patches: []types.PatchOperation{op}})
	var conflict *VersionConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.Expected)
	assert.Equal(t, 2, conflict.Actual)

	latest, err := m.Get(ctx, "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
}

func TestManager_ApplyUnknownResume(t *testing.T) {
	m, _ := setupManager(t)
	_, _, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "nope",
		Patches:  []types.PatchOperation{insertOp("r1", -1, "Led the migration to dbt")},
	})
	var nf *NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestManager_ApplyRejectsDuplicateSkills(t *testing.T) {
	m, _ := setupManager(t)
	_, _, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "res-1",
		Patches: []types.PatchOperation{{
			Section:    types.SectionTechnicalSkills,
			Action:     types.ActionInsert,
			AfterIndex: types.IntPtr(1),
			NewBullet:  "BI: Tableau",
		}},
	})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestManager_ApplyTruthChecks(t *testing.T) {
	ctx := context.Background()

	resumeEvidence := types.Evidence{
		Origin:      types.OriginResume,
		Section:     types.SectionExperience,
		RoleID:      "r1",
		BulletIndex: types.IntPtr(0),
		Snippet:     "Built SQL models for finance reporting",
	}
	summaryEvidence := types.Evidence{
		Origin:  types.OriginResume,
		Section: types.SectionSummary,
		Snippet: "Analytics engineer focused on SQL and dbt",
	}
	withEvidence := func(ev ...types.Evidence) types.PatchOperation {
		op := types.PatchOperation{
			Section:     types.SectionExperience,
			Action:      types.ActionReplace,
			RoleID:      "r1",
			BulletIndex: types.IntPtr(0),
			NewBullet:   "Built SQL models for finance reporting (SQL)",
			Skill:       "SQL",
			Evidence:    ev,
		}
		return op
	}
	skillsLine := func(action types.PatchAction, index int, text, skill string, ev ...types.Evidence) types.PatchOperation {
		op := types.PatchOperation{
			Section:   types.SectionTechnicalSkills,
			Action:    action,
			NewBullet: text,
			Skill:     skill,
			Evidence:  ev,
		}
		if action == types.ActionReplace {
			op.BulletIndex = types.IntPtr(index)
		} else {
			op.AfterIndex = types.IntPtr(index)
		}
		return op
	}

	tests := []struct {
		name    string
		mode    types.TruthMode
		op      types.PatchOperation
		wantErr bool
	}{
		{name: "strict resume evidence", mode: types.TruthStrict, op: withEvidence(resumeEvidence)},
		{name: "strict no evidence", mode: types.TruthStrict, op: withEvidence(), wantErr: true},
		{name: "off no evidence", mode: types.TruthOff, op: withEvidence()},
		{
			name: "strict retrieval only",
			mode: types.TruthStrict,
			op: withEvidence(types.Evidence{
				Origin: types.OriginRetrieval, Section: types.SectionRetrieval,
				Snippet: "Ran SQL tuning workshops", Source: "notes.md",
			}),
			wantErr: true,
		},
		{
			name: "balanced retrieval without evidence store",
			mode: types.TruthBalanced,
			op: withEvidence(types.Evidence{
				Origin: types.OriginRetrieval, Section: types.SectionRetrieval,
				Snippet: "Ran SQL tuning workshops", Source: "notes.md",
			}),
			wantErr: true,
		},
		{
			name: "snippet not in resume",
			mode: types.TruthBalanced,
			op: withEvidence(types.Evidence{
				Origin: types.OriginResume, Section: types.SectionExperience,
				RoleID: "r1", BulletIndex: types.IntPtr(0), Snippet: "Ran Spark clusters",
			}),
			wantErr: true,
		},
		{
			name: "evidence index out of range",
			mode: types.TruthBalanced,
			op: withEvidence(types.Evidence{
				Origin: types.OriginResume, Section: types.SectionExperience,
				RoleID: "r1", BulletIndex: types.IntPtr(9), Snippet: "Built SQL models for finance reporting",
			}),
			wantErr: true,
		},
		{
			name: "unknown override source",
			mode: types.TruthBalanced,
			op: withEvidence(types.Evidence{
				Origin: types.OriginOverride, Section: types.SectionOverride,
				Snippet: "Built Fivetran connectors", Source: "missing-id",
			}),
			wantErr: true,
		},
		{
			name: "summary evidence extends a skills line",
			mode: types.TruthStrict,
			op:   skillsLine(types.ActionReplace, 1, "BI: Tableau, dbt", "dbt", summaryEvidence),
		},
		{
			name: "summary evidence adds an other skills line",
			mode: types.TruthBalanced,
			op:   skillsLine(types.ActionInsert, 1, "Other Skills: dbt", "dbt", summaryEvidence),
		},
		{
			name:    "skills line names another skill",
			mode:    types.TruthBalanced,
			op:      skillsLine(types.ActionReplace, 1, "BI: Tableau, Kubernetes", "dbt", summaryEvidence),
			wantErr: true,
		},
		{
			name: "invented bullet beside a real one",
			mode: types.TruthStrict,
			op: types.PatchOperation{
				Section:    types.SectionExperience,
				Action:     types.ActionInsert,
				RoleID:     "r1",
				AfterIndex: types.IntPtr(1),
				NewBullet:  "Architected Fivetran and Kubernetes pipelines serving 40M users",
				Skill:      "Fivetran",
				Evidence: []types.Evidence{{
					Origin: types.OriginResume, Section: types.SectionExperience,
					RoleID: "r1", BulletIndex: types.IntPtr(1), Snippet: "Automated weekly KPI decks",
				}},
			},
			wantErr: true,
		},
		{
			name: "replacement embellishes its evidence",
			mode: types.TruthBalanced,
			op: func() types.PatchOperation {
				op := withEvidence(resumeEvidence)
				op.NewBullet = "Built SQL models for finance reporting across 40 countries"
				return op
			}(),
			wantErr: true,
		},
		{
			name: "evidence does not name the skill",
			mode: types.TruthStrict,
			op: types.PatchOperation{
				Section:     types.SectionExperience,
				Action:      types.ActionReplace,
				RoleID:      "r1",
				BulletIndex: types.IntPtr(1),
				NewBullet:   "Automated weekly KPI decks (Kafka)",
				Skill:       "Kafka",
				Evidence: []types.Evidence{{
					Origin: types.OriginResume, Section: types.SectionExperience,
					RoleID: "r1", BulletIndex: types.IntPtr(1), Snippet: "Automated weekly KPI decks",
				}},
			},
			wantErr: true,
		},
		{
			name: "replacement targets another bullet",
			mode: types.TruthStrict,
			op: func() types.PatchOperation {
				op := withEvidence(resumeEvidence)
				op.BulletIndex = types.IntPtr(1)
				return op
			}(),
			wantErr: true,
		},
		{
			name: "gated patch without skill",
			mode: types.TruthBalanced,
			op: func() types.PatchOperation {
				op := withEvidence(resumeEvidence)
				op.Skill = ""
				return op
			}(),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := setupManager(t)
			doc, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{tt.op}, Mode: tt.mode})
			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				assert.Equal(t, 0, vErr.Index)

				latest, err := m.Get(ctx, "res-1", 0)
				require.NoError(t, err)
				assert.Equal(t, 1, latest.Version)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 2, doc.Version)
		})
	}
}

func TestManager_ApplyFromOverride(t *testing.T) {
	ctx := context.Background()
	op := insertOp("r1", 1, "Built Fivetran connectors for Salesforce")
	op.Skill = "Fivetran"
	op.FromOverride = true

	t.Run("no ledger record", func(t *testing.T) {
		m, _ := setupManager(t)
		_, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{op}, Mode: types.TruthBalanced})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("strict needs hands_on", func(t *testing.T) {
		m, ledger := setupManager(t)
		_, err := ledger.Append(ctx, "res-1", []types.Override{{
			Skill: "Fivetran", Level: types.LevelWorkedWith,
			TargetRoles: []string{"r1"}, ProofBullets: []string{"Built Fivetran connectors for Salesforce"},
		}})
		require.NoError(t, err)

		_, _, err = m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{op}, Mode: types.TruthStrict})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)

		doc, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{op}, Mode: types.TruthBalanced})
		require.NoError(t, err)
		assert.Equal(t, 2, doc.Version)
		assert.Equal(t, "Built Fivetran connectors for Salesforce", doc.Sections.Experience[0].Bullets[2])
	})

	t.Run("hands_on override on another role", func(t *testing.T) {
		m, ledger := setupManager(t)
		_, err := ledger.Append(ctx, "res-1", []types.Override{{
			Skill: "Fivetran", Level: types.LevelHandsOn,
			TargetRoles: []string{"r2"}, ProofBullets: []string{"Built Fivetran connectors for Salesforce"},
		}})
		require.NoError(t, err)

		_, _, err = m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{op}, Mode: types.TruthStrict})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("text outside the proof bullets", func(t *testing.T) {
		m, ledger := setupManager(t)
		_, err := ledger.Append(ctx, "res-1", []types.Override{{
			Skill: "Fivetran", Level: types.LevelHandsOn,
			TargetRoles: []string{"r1"}, ProofBullets: []string{"Built Fivetran connectors for Salesforce"},
		}})
		require.NoError(t, err)

		invented := op
		invented.NewBullet = "Led a 12-person Kubernetes platform team at Google"
		for _, mode := range []types.TruthMode{types.TruthStrict, types.TruthBalanced} {
			_, _, err = m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{invented}, Mode: mode})
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr, mode)
			assert.Contains(t, vErr.Message, "proof bullet")
		}

		latest, err := m.Get(ctx, "res-1", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, latest.Version)
	})
}

func TestManager_ApplyOverrideEvidence(t *testing.T) {
	ctx := context.Background()
	m, ledger := setupManager(t)
	stored, err := ledger.Append(ctx, "res-1", []types.Override{{
		Skill: "Fivetran", Level: types.LevelWorkedWith,
		TargetRoles: []string{"r1"}, ProofBullets: []string{"Built Fivetran connectors for Salesforce"},
	}})
	require.NoError(t, err)
	require.Len(t, stored, 1)

	withText := func(roleID, text string) types.PatchOperation {
		op := insertOp(roleID, 0, text)
		op.Skill = "Fivetran"
		op.Evidence = []types.Evidence{{
			Origin:  types.OriginOverride,
			Section: types.SectionOverride,
			RoleID:  "r1",
			Snippet: "Built Fivetran connectors for Salesforce",
			Source:  stored[0].ID,
		}}
		return op
	}

	for name, op := range map[string]types.PatchOperation{
		"different text":    withText("r1", "Ran Fivetran for every team at the company"),
		"role not targeted": withText("r2", "Built Fivetran connectors for Salesforce"),
	} {
		_, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{op}, Mode: types.TruthBalanced})
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr, name)
	}

	doc, _, err := m.Apply(ctx, ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{withText("r1", "Built Fivetran connectors for Salesforce")},
		Mode:     types.TruthBalanced,
	})
	require.NoError(t, err)
	assert.Equal(t, "Built Fivetran connectors for Salesforce", doc.Sections.Experience[0].Bullets[1])
}

type stubSource struct {
	mu       sync.Mutex
	snippets map[string][]types.Snippet
	err      error
	queries  []string
}

func (s *stubSource) Query(_ context.Context, query string, _ int) ([]types.Snippet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, query)
	if s.err != nil {
		return nil, s.err
	}
	return s.snippets[query], nil
}

func TestManager_ApplyRetrievalEvidence(t *testing.T) {
	ctx := context.Background()
	lookup := evidence.LookupOptions{TopK: 3, Timeout: time.Second, Attempts: 1}
	snowflake := func(snippet, source string) types.PatchOperation {
		op := insertOp("r1", 1, "Led Snowflake cost program saving $2M")
		op.Skill = "Snowflake"
		op.Evidence = []types.Evidence{{
			Origin:  types.OriginRetrieval,
			Section: types.SectionRetrieval,
			Snippet: snippet,
			Source:  source,
		}}
		return op
	}
	store := func() *stubSource {
		return &stubSource{snippets: map[string][]types.Snippet{
			"Snowflake": {
				{Score: 0.9, SourceFile: "notes/cost.md", Text: "Led Snowflake cost program saving $2M", SupportLevel: types.SupportDirect},
				{Score: 0.4, SourceFile: "notes/misc.md", Text: "Read about Snowflake pricing", SupportLevel: types.SupportNone},
			},
		}}
	}

	tests := []struct {
		name    string
		src     *stubSource
		op      types.PatchOperation
		wantErr bool
	}{
		{name: "invented evidence without a store", op: snowflake("made up", "nowhere.txt"), wantErr: true},
		{name: "invented evidence", src: store(), op: snowflake("made up", "nowhere.txt"), wantErr: true},
		{name: "wrong source file", src: store(), op: snowflake("Led Snowflake cost program saving $2M", "notes/other.md"), wantErr: true},
		{name: "unsupported snippet", src: store(), op: func() types.PatchOperation {
			op := snowflake("Read about Snowflake pricing", "notes/misc.md")
			op.NewBullet = "Read about Snowflake pricing"
			return op
		}(), wantErr: true},
		{name: "returned by the store", src: store(), op: snowflake("Led Snowflake cost program saving $2M", "notes/cost.md")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.src != nil {
				opts = append(opts, WithEvidence(tt.src, lookup))
			}
			m, _ := setupManager(t, opts...)

			doc, _, err := m.Apply(ctx, ApplyParams{ResumeID: "res-1", Patches: []types.PatchOperation{tt.op}, Mode: types.TruthBalanced})
			if tt.src != nil {
				assert.Equal(t, []string{"Snowflake"}, tt.src.queries)
			}
			if tt.wantErr {
				var vErr *ValidationError
				require.ErrorAs(t, err, &vErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Led Snowflake cost program saving $2M", doc.Sections.Experience[0].Bullets[2])
		})
	}

	t.Run("store failure writes nothing", func(t *testing.T) {
		m, _ := setupManager(t, WithEvidence(&stubSource{err: errors.New("connection refused")}, lookup))
		_, _, err := m.Apply(ctx, ApplyParams{
			ResumeID: "res-1",
			Patches:  []types.PatchOperation{snowflake("Led Snowflake cost program saving $2M", "notes/cost.md")},
			Mode:     types.TruthBalanced,
		})
		var ue *upstream.Error
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "evidence", ue.Service)

		latest, err := m.Get(ctx, "res-1", 0)
		require.NoError(t, err)
		assert.Equal(t, 1, latest.Version)
	})

	t.Run("ungated batch skips the store", func(t *testing.T) {
		src := store()
		m, _ := setupManager(t, WithEvidence(src, lookup))
		_, _, err := m.Apply(ctx, ApplyParams{
			ResumeID: "res-1",
			Patches:  []types.PatchOperation{snowflake("made up", "nowhere.txt")},
			Mode:     types.TruthOff,
		})
		require.NoError(t, err)
		assert.Empty(t, src.queries)
	})
}

type hookFunc func(ctx context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) error

func (f hookFunc) AfterCommit(ctx context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) error {
	return f(ctx, doc, applied)
}

func TestManager_HookFailureDoesNotFailCommit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var seen []int
	failing := hookFunc(func(_ context.Context, doc *types.ResumeDocument, _ []types.PatchOperation) error {
		return errors.New("broker down")
	})
	recording := hookFunc(func(_ context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) error {
		seen = append(seen, doc.Version, len(applied))
		return nil
	})
	m, _ := setupManager(t, WithLogger(zap.New(core)), WithHooks(failing, recording))

	doc, _, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.Equal(t, []int{2, 1}, seen)

	entries := logs.FilterMessage("post-commit hook failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "res-1", entries[0].ContextMap()["resume_id"])
}

func TestManager_HookDoesNotHoldTheResume(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	blocking := hookFunc(func(ctx context.Context, doc *types.ResumeDocument, _ []types.PatchOperation) error {
		if doc.Version != 2 {
			return nil
		}
		close(entered)
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	m, _ := setupManager(t, WithHook(blocking, time.Minute))
	params := ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
	}

	first := make(chan error, 1)
	go func() {
		_, _, err := m.Apply(context.Background(), params)
		first <- err
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("hook never ran")
	}

	second := make(chan error, 1)
	go func() {
		doc, _, err := m.Apply(context.Background(), params)
		if err == nil && doc.Version != 3 {
			err = fmt.Errorf("second apply committed version %d", doc.Version)
		}
		second <- err
	}()
	select {
	case err := <-second:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("second apply waited for the first commit's hook")
	}

	close(release)
	require.NoError(t, <-first)
}

func TestManager_HookTimeout(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	var hookErr error
	stalled := hookFunc(func(ctx context.Context, _ *types.ResumeDocument, _ []types.PatchOperation) error {
		<-ctx.Done()
		hookErr = ctx.Err()
		return hookErr
	})
	m, _ := setupManager(t, WithLogger(zap.New(core)), WithHook(stalled, 20*time.Millisecond))

	doc, _, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Version)
	assert.ErrorIs(t, hookErr, context.DeadlineExceeded)
	assert.Len(t, logs.FilterMessage("post-commit hook failed").All(), 1)
}

func TestManager_ApplyReturnsAppliedPatches(t *testing.T) {
	m, _ := setupManager(t)
	_, applied, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", -1, "  - Documented   the metrics layer ")},
	})
	require.NoError(t, err)
	require.Len(t, applied, 1)
	assert.Equal(t, "Documented the metrics layer", applied[0].NewBullet)
	assert.Equal(t, types.ProvenanceUnverified, applied[0].Provenance)
}

func TestManager_ApplySharesOtherSkillsLine(t *testing.T) {
	other := func(skill string) types.PatchOperation {
		return types.PatchOperation{
			Section:    types.SectionTechnicalSkills,
			Action:     types.ActionInsert,
			AfterIndex: types.IntPtr(1),
			NewBullet:  "Other Skills: " + skill,
			Skill:      skill,
		}
	}
	m, _ := setupManager(t)

	doc, applied, err := m.Apply(context.Background(), ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{other("Rust"), other("Haskell")},
		Mode:     types.TruthOff,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Languages: SQL, Python", "BI: Tableau", "Other Skills: Rust, Haskell"}, doc.Sections.TechnicalSkills)
	require.Len(t, applied, 2)
	assert.Equal(t, types.ActionInsert, applied[0].Action)
	assert.Equal(t, types.ActionReplace, applied[1].Action)
	assert.Equal(t, 2, *applied[1].BulletIndex)
}

func TestManager_ApplyCancelledBeforeStart(t *testing.T) {
	m, _ := setupManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := m.Apply(ctx, ApplyParams{
		ResumeID: "res-1",
		Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
	})
	assert.ErrorIs(t, err, context.Canceled)

	latest, err := m.Get(context.Background(), "res-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, latest.Version)
}

func TestManager_ConcurrentAppliesAreSerialized(t *testing.T) {
	m, _ := setupManager(t)
	const writers = 8

	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := m.Apply(context.Background(), ApplyParams{
				ResumeID: "res-1",
				Patches:  []types.PatchOperation{insertOp("r2", -1, "Documented the metrics layer")},
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	history, err := m.History(context.Background(), "res-1")
	require.NoError(t, err)
	require.Len(t, history, writers+1)
	for i, info := range history {
		assert.Equal(t, i+1, info.Version)
	}
	latest, err := m.Get(context.Background(), "res-1", 0)
	require.NoError(t, err)
	assert.Len(t, latest.Sections.Experience[1].Bullets, writers+1)
}
