package localdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
)

// createTestDB opens a fresh database in a temp directory
func createTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "guard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func doc(version int, bullet string) *types.ResumeDocument {
	return &types.ResumeDocument{
		ResumeID:  "res-1",
		Version:   version,
		CreatedAt: time.Now().UTC(),
		Sections: types.ResumeSections{
			Experience: []types.Role{{RoleID: "r1", Company: "Acme", Bullets: []string{bullet}}},
		},
	}
}

func TestVersions(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	none, err := db.LatestVersion(ctx, "res-1")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, db.InsertVersion(ctx, doc(1, "Built SQL models")))
	assert.ErrorIs(t, db.InsertVersion(ctx, doc(1, "again")), store.ErrVersionConflict)
	assert.ErrorIs(t, db.InsertVersion(ctx, doc(3, "skipped")), store.ErrVersionConflict)
	require.NoError(t, db.InsertVersion(ctx, doc(2, "Built dbt models")))

	latest, err := db.LatestVersion(ctx, "res-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, []string{"Built dbt models"}, latest.Sections.Experience[0].Bullets)

	first, err := db.GetVersion(ctx, "res-1", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Built SQL models"}, first.Sections.Experience[0].Bullets)

	missing, err := db.GetVersion(ctx, "res-1", 5)
	require.NoError(t, err)
	assert.Nil(t, missing)

	infos, err := db.ListVersions(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, 1, infos[0].Version)
	assert.Equal(t, 2, infos[1].Version)
}

func TestOverrides(t *testing.T) {
	db := createTestDB(t)
	ctx := context.Background()

	stored, err := db.AppendOverrides(ctx, "res-1", []types.Override{
		{ID: "o1", Skill: "Fivetran", Level: types.LevelHandsOn, TargetRoles: []string{"r1"}, ProofBullets: []string{"Built connectors"}, CreatedAt: time.Now()},
		{ID: "o2", Skill: "Kafka", Level: types.LevelExposure, TargetRoles: []string{"r1", "r2"}, ProofBullets: []string{"Read topics"}, CreatedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, int64(1), stored[0].Seq)
	assert.Equal(t, int64(2), stored[1].Seq)

	_, err = db.AppendOverrides(ctx, "res-2", []types.Override{
		{ID: "o3", Skill: "Spark", Level: types.LevelWorkedWith, TargetRoles: []string{"x"}, ProofBullets: []string{"Tuned jobs"}, CreatedAt: time.Now()},
	})
	require.NoError(t, err)

	listed, err := db.ListOverrides(ctx, "res-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "o1", listed[0].ID)
	assert.Equal(t, types.LevelExposure, listed[1].Level)
	assert.Equal(t, []string{"r1", "r2"}, listed[1].TargetRoles)
	assert.Equal(t, "res-1", listed[1].ResumeID)

	t.Run("duplicate id rolls back the batch", func(t *testing.T) {
		_, err := db.AppendOverrides(ctx, "res-1", []types.Override{
			{ID: "o4", Skill: "Airflow", Level: types.LevelHandsOn, TargetRoles: []string{"r1"}, ProofBullets: []string{"Ran DAGs"}, CreatedAt: time.Now()},
			{ID: "o1", Skill: "dbt", Level: types.LevelHandsOn, TargetRoles: []string{"r1"}, ProofBullets: []string{"Built models"}, CreatedAt: time.Now()},
		})
		require.Error(t, err)

		listed, err := db.ListOverrides(ctx, "res-1")
		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})
}
