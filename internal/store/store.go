// Package store defines the persistence contracts for resume versions and
// override records, and an in-memory implementation.
package store

import (
	"context"
	"errors"

	"github.com/jonathan/resume-guard/internal/types"
)

// ErrVersionConflict is returned by InsertVersion when the version being
// written is not exactly one past the latest stored version.
var ErrVersionConflict = errors.New("version conflict")

// VersionStore holds append-only resume versions. Lookups of unknown
// resumes or versions return nil, nil.
type VersionStore interface {
	// InsertVersion stores doc as doc.Version. Version 1 creates the resume.
	InsertVersion(ctx context.Context, doc *types.ResumeDocument) error
	LatestVersion(ctx context.Context, resumeID string) (*types.ResumeDocument, error)
	GetVersion(ctx context.Context, resumeID string, version int) (*types.ResumeDocument, error)
	ListVersions(ctx context.Context, resumeID string) ([]types.VersionInfo, error)
}

// OverrideStore holds append-only override records.
type OverrideStore interface {
	// AppendOverrides stores the records and returns them with Seq assigned.
	AppendOverrides(ctx context.Context, resumeID string, overrides []types.Override) ([]types.Override, error)
	// ListOverrides returns every record for the resume in Seq order.
	ListOverrides(ctx context.Context, resumeID string) ([]types.Override, error)
}

// Store is the full persistence surface used by the engine.
type Store interface {
	VersionStore
	OverrideStore
	Close() error
}
