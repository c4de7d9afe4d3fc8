package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/resume-guard/internal/types"
)

// Memory is a process-local Store.
type Memory struct {
	mu        sync.RWMutex
	versions  map[string][]*types.ResumeDocument
	overrides map[string][]types.Override
	seq       int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		versions:  make(map[string][]*types.ResumeDocument),
		overrides: make(map[string][]types.Override),
	}
}

// InsertVersion implements VersionStore.
func (m *Memory) InsertVersion(_ context.Context, doc *types.ResumeDocument) error {
	if doc == nil || doc.ResumeID == "" {
		return fmt.Errorf("resume id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.versions[doc.ResumeID]
	if doc.Version != len(history)+1 {
		return ErrVersionConflict
	}
	m.versions[doc.ResumeID] = append(history, doc.Clone())
	return nil
}

// LatestVersion implements VersionStore.
func (m *Memory) LatestVersion(_ context.Context, resumeID string) (*types.ResumeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.versions[resumeID]
	if len(history) == 0 {
		return nil, nil
	}
	return history[len(history)-1].Clone(), nil
}

// GetVersion implements VersionStore.
func (m *Memory) GetVersion(_ context.Context, resumeID string, version int) (*types.ResumeDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.versions[resumeID]
	if version < 1 || version > len(history) {
		return nil, nil
	}
	return history[version-1].Clone(), nil
}

// ListVersions implements VersionStore.
func (m *Memory) ListVersions(_ context.Context, resumeID string) ([]types.VersionInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.versions[resumeID]
	out := make([]types.VersionInfo, 0, len(history))
	for _, doc := range history {
		out = append(out, types.VersionInfo{ResumeID: doc.ResumeID, Version: doc.Version, CreatedAt: doc.CreatedAt})
	}
	return out, nil
}

// AppendOverrides implements OverrideStore.
func (m *Memory) AppendOverrides(_ context.Context, resumeID string, overrides []types.Override) ([]types.Override, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Override, 0, len(overrides))
	for _, o := range overrides {
		m.seq++
		o.Seq = m.seq
		o.ResumeID = resumeID
		o.TargetRoles = append([]string(nil), o.TargetRoles...)
		o.ProofBullets = append([]string(nil), o.ProofBullets...)
		out = append(out, o)
	}
	m.overrides[resumeID] = append(m.overrides[resumeID], out...)
	return out, nil
}

// ListOverrides implements OverrideStore.
func (m *Memory) ListOverrides(_ context.Context, resumeID string) ([]types.Override, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := m.overrides[resumeID]
	out := make([]types.Override, len(records))
	copy(out, records)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
