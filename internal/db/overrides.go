package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-guard/internal/types"
)

// AppendOverrides inserts the records in one transaction and returns them
// with the sequence numbers the database assigned.
func (db *DB) AppendOverrides(ctx context.Context, resumeID string, overrides []types.Override) ([]types.Override, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	out := make([]types.Override, 0, len(overrides))
	for _, o := range overrides {
		roles, err := json.Marshal(o.TargetRoles)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal target roles: %w", err)
		}
		proofs, err := json.Marshal(o.ProofBullets)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proof bullets: %w", err)
		}
		o.ResumeID = resumeID
		err = tx.QueryRow(ctx,
			`INSERT INTO skill_overrides (id, resume_id, skill, level, target_roles, proof_bullets, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING seq`,
			o.ID, resumeID, o.Skill, string(o.Level), roles, proofs, o.CreatedAt,
		).Scan(&o.Seq)
		if err != nil {
			return nil, fmt.Errorf("failed to insert override %s: %w", o.Skill, err)
		}
		out = append(out, o)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit overrides: %w", err)
	}
	return out, nil
}

// ListOverrides returns every record for the resume in sequence order.
func (db *DB) ListOverrides(ctx context.Context, resumeID string) ([]types.Override, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT seq, id, resume_id, skill, level, target_roles, proof_bullets, created_at
		 FROM skill_overrides WHERE resume_id = $1 ORDER BY seq`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var out []types.Override
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanOverride(row pgx.Row) (types.Override, error) {
	var (
		o      types.Override
		level  string
		roles  []byte
		proofs []byte
	)
	if err := row.Scan(&o.Seq, &o.ID, &o.ResumeID, &o.Skill, &level, &roles, &proofs, &o.CreatedAt); err != nil {
		return o, fmt.Errorf("failed to scan override: %w", err)
	}
	o.Level = types.ProficiencyLevel(level)
	if err := json.Unmarshal(roles, &o.TargetRoles); err != nil {
		return o, fmt.Errorf("failed to unmarshal target roles: %w", err)
	}
	if err := json.Unmarshal(proofs, &o.ProofBullets); err != nil {
		return o, fmt.Errorf("failed to unmarshal proof bullets: %w", err)
	}
	return o, nil
}
