// Package localdb is a single-file SQLite store for resume versions and the
// override ledger, used by the CLI and by servers run without PostgreSQL.
package localdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS resume_versions (
	resume_id  TEXT     NOT NULL,
	version    INTEGER  NOT NULL,
	document   TEXT     NOT NULL,
	created_at DATETIME NOT NULL,
	PRIMARY KEY (resume_id, version)
);

CREATE TABLE IF NOT EXISTS skill_overrides (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT     NOT NULL UNIQUE,
	resume_id     TEXT     NOT NULL,
	skill         TEXT     NOT NULL,
	level         TEXT     NOT NULL,
	target_roles  TEXT     NOT NULL,
	proof_bullets TEXT     NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_skill_overrides_resume ON skill_overrides (resume_id, seq);
`

// DB is a SQLite-backed store.Store.
type DB struct {
	sql *sql.DB
}

var _ store.Store = (*DB)(nil)

// Open opens (creating if needed) the database file at path and runs the schema.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer keeps version inserts from racing inside the process
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &DB{sql: conn}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.sql.Close()
}

// InsertVersion stores doc as doc.Version, which must be one past the latest.
func (db *DB) InsertVersion(ctx context.Context, doc *types.ResumeDocument) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal resume %s: %w", doc.ResumeID, err)
	}

	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var latest int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM resume_versions WHERE resume_id = ?`,
		doc.ResumeID,
	).Scan(&latest)
	if err != nil {
		return fmt.Errorf("failed to read latest version: %w", err)
	}
	if doc.Version != latest+1 {
		return store.ErrVersionConflict
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO resume_versions (resume_id, version, document, created_at) VALUES (?, ?, ?, ?)`,
		doc.ResumeID, doc.Version, string(payload), doc.CreatedAt.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return store.ErrVersionConflict
		}
		return fmt.Errorf("failed to insert version %d of %s: %w", doc.Version, doc.ResumeID, err)
	}
	return tx.Commit()
}

// LatestVersion returns the newest version, or nil when the resume is unknown.
func (db *DB) LatestVersion(ctx context.Context, resumeID string) (*types.ResumeDocument, error) {
	return scanDocument(db.sql.QueryRowContext(ctx,
		`SELECT document FROM resume_versions WHERE resume_id = ? ORDER BY version DESC LIMIT 1`,
		resumeID,
	))
}

// GetVersion returns one version, or nil when unknown.
func (db *DB) GetVersion(ctx context.Context, resumeID string, version int) (*types.ResumeDocument, error) {
	return scanDocument(db.sql.QueryRowContext(ctx,
		`SELECT document FROM resume_versions WHERE resume_id = ? AND version = ?`,
		resumeID, version,
	))
}

// ListVersions returns version metadata, oldest first.
func (db *DB) ListVersions(ctx context.Context, resumeID string) ([]types.VersionInfo, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT resume_id, version, created_at FROM resume_versions WHERE resume_id = ? ORDER BY version`,
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

// AppendOverrides inserts the records in one transaction, assigning Seq.
func (db *DB) AppendOverrides(ctx context.Context, resumeID string, overrides []types.Override) ([]types.Override, error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

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
		res, err := tx.ExecContext(ctx,
			`INSERT INTO skill_overrides (id, resume_id, skill, level, target_roles, proof_bullets, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			o.ID, resumeID, o.Skill, string(o.Level), string(roles), string(proofs), o.CreatedAt.UTC(),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert override %s: %w", o.Skill, err)
		}
		if o.Seq, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read override seq: %w", err)
		}
		o.ResumeID = resumeID
		out = append(out, o)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit overrides: %w", err)
	}
	return out, nil
}

// ListOverrides returns every record for the resume in Seq order.
func (db *DB) ListOverrides(ctx context.Context, resumeID string) ([]types.Override, error) {
	rows, err := db.sql.QueryContext(ctx,
		`SELECT seq, id, resume_id, skill, level, target_roles, proof_bullets, created_at
		 FROM skill_overrides WHERE resume_id = ? ORDER BY seq`,
		resumeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	defer rows.Close()

	var out []types.Override
	for rows.Next() {
		var (
			o             types.Override
			level         string
			roles, proofs string
			createdAt     time.Time
		)
		if err := rows.Scan(&o.Seq, &o.ID, &o.ResumeID, &o.Skill, &level, &roles, &proofs, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan override: %w", err)
		}
		o.Level = types.ProficiencyLevel(level)
		o.CreatedAt = createdAt
		if err := json.Unmarshal([]byte(roles), &o.TargetRoles); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target roles: %w", err)
		}
		if err := json.Unmarshal([]byte(proofs), &o.ProofBullets); err != nil {
			return nil, fmt.Errorf("failed to unmarshal proof bullets: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func scanDocument(row *sql.Row) (*types.ResumeDocument, error) {
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume version: %w", err)
	}
	var doc types.ResumeDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume version: %w", err)
	}
	return &doc, nil
}
