package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
)

// InsertVersion stores doc as doc.Version. Version 1 creates the resume;
// any other version must be exactly one past the latest stored version.
func (db *DB) InsertVersion(ctx context.Context, doc *types.ResumeDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal resume %s: %w", doc.ResumeID, err)
	}

	// The WHERE clause turns a skipped version into zero inserted rows;
	// the primary key catches two writers racing for the same version.
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO resume_versions (resume_id, version, document, created_at)
		 SELECT $1, $2, $3, $4
		 WHERE $2 = COALESCE((SELECT MAX(version) FROM resume_versions WHERE resume_id = $1), 0) + 1`,
		doc.ResumeID, doc.Version, payload, doc.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrVersionConflict
		}
		return fmt.Errorf("failed to insert version %d of %s: %w", doc.Version, doc.ResumeID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrVersionConflict
	}
	return nil
}

// LatestVersion returns the newest version of a resume, or nil when unknown.
func (db *DB) LatestVersion(ctx context.Context, resumeID string) (*types.ResumeDocument, error) {
	return db.scanDocument(db.pool.QueryRow(ctx,
		`SELECT document FROM resume_versions
		 WHERE resume_id = $1 ORDER BY version DESC LIMIT 1`,
		resumeID,
	))
}

// GetVersion returns one version of a resume, or nil when unknown.
func (db *DB) GetVersion(ctx context.Context, resumeID string, version int) (*types.ResumeDocument, error) {
	return db.scanDocument(db.pool.QueryRow(ctx,
		`SELECT document FROM resume_versions WHERE resume_id = $1 AND version = $2`,
		resumeID, version,
	))
}

// ListVersions returns version metadata, oldest first.
func (db *DB) ListVersions(ctx context.Context, resumeID string) ([]types.VersionInfo, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT resume_id, version, created_at FROM resume_versions
		 WHERE resume_id = $1 ORDER BY version`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var infos []types.VersionInfo
	for rows.Next() {
		var info types.VersionInfo
		if err := rows.Scan(&info.ResumeID, &info.Version, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

func (db *DB) scanDocument(row pgx.Row) (*types.ResumeDocument, error) {
	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume version: %w", err)
	}
	var doc types.ResumeDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume version: %w", err)
	}
	return &doc, nil
}
