// Package versions is the authoritative, append-only store of resume
// versions. It is the only writer of document state: new versions come from
// Create (version 1) and from atomic patch batches applied by Apply.
package versions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/resume-guard/internal/evidence"
	"github.com/jonathan/resume-guard/internal/logger"
	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/patches"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
)

// OverrideReader lists a resume's override ledger.
type OverrideReader interface {
	List(ctx context.Context, resumeID string) ([]types.Override, error)
}

// CommitHook runs after a version is durable and the resume is unlocked.
// Hook errors are logged and never undo or fail the commit.
type CommitHook interface {
	AfterCommit(ctx context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) error
}

// DefaultHookTimeout bounds a hook registered without its own timeout.
const DefaultHookTimeout = 10 * time.Second

type boundHook struct {
	hook    CommitHook
	timeout time.Duration
}

// ApplyParams is one patch batch.
type ApplyParams struct {
	ResumeID        string
	ExpectedVersion *int
	Patches         []types.PatchOperation
	Mode            types.TruthMode
}

// Manager serializes writes per resume and commits with a compare-and-swap
// on the version number.
type Manager struct {
	store     store.VersionStore
	overrides OverrideReader
	evidence  evidence.Source
	lookup    evidence.LookupOptions
	hooks     []boundHook
	locks     *keyedMutex
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHooks registers post-commit hooks, run in order, each bounded by
// DefaultHookTimeout.
func WithHooks(hooks ...CommitHook) Option {
	return func(m *Manager) {
		for _, h := range hooks {
			m.hooks = append(m.hooks, boundHook{hook: h, timeout: DefaultHookTimeout})
		}
	}
}

// WithHook registers a post-commit hook whose context expires after timeout.
func WithHook(h CommitHook, timeout time.Duration) Option {
	return func(m *Manager) {
		if timeout <= 0 {
			timeout = DefaultHookTimeout
		}
		m.hooks = append(m.hooks, boundHook{hook: h, timeout: timeout})
	}
}

// WithEvidence sets the store that retrieval evidence is re-checked against.
// Without one, gated batches carrying retrieval evidence are rejected.
func WithEvidence(src evidence.Source, opts evidence.LookupOptions) Option {
	return func(m *Manager) {
		m.evidence = src
		m.lookup = opts
	}
}

// WithLogger sets the logger used for hook failures and commits.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = logger.WithFields(l) }
}

// NewManager creates a Manager. overrides backs the check of patches that
// claim to come from an override.
func NewManager(versions store.VersionStore, overrides OverrideReader, opts ...Option) *Manager {
	m := &Manager{
		store:     versions,
		overrides: overrides,
		locks:     newKeyedMutex(),
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create stores doc as version 1 of a new resume. An empty ResumeID gets a
// UUID; roles without an ID get one derived from company, title and dates.
func (m *Manager) Create(ctx context.Context, doc *types.ResumeDocument) (*types.ResumeDocument, error) {
	if doc == nil {
		return nil, invalid(-1, "document is required")
	}
	next := doc.Clone()
	if next.ResumeID == "" {
		next.ResumeID = uuid.NewString()
	}
	next.Version = 1
	next.CreatedAt = m.now().UTC()
	if next.Sections.TechnicalSkills == nil {
		next.Sections.TechnicalSkills = []string{}
	}
	if next.Sections.Experience == nil {
		next.Sections.Experience = []types.Role{}
	}

	seen := make(map[string]bool)
	for i := range next.Sections.Experience {
		role := &next.Sections.Experience[i]
		if strings.TrimSpace(role.Company) == "" {
			return nil, invalid(-1, "role %d has no company", i)
		}
		if role.RoleID == "" {
			role.RoleID = parsing.RoleID(role.Company, role.Title, role.Dates)
		}
		if seen[role.RoleID] {
			return nil, invalid(-1, "duplicate role_id %s", role.RoleID)
		}
		seen[role.RoleID] = true
		if role.Bullets == nil {
			role.Bullets = []string{}
		}
	}
	if dup := next.DuplicateSkill(); dup != "" {
		return nil, invalid(-1, "duplicate technical skills entry %q", dup)
	}

	if err := m.store.InsertVersion(ctx, next); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, invalid(-1, "resume %s already exists", next.ResumeID)
		}
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	m.logger.Info("resume created", logger.ResumeFields(next.ResumeID, next.Version)...)
	return next, nil
}

// Get returns a version of a resume; version 0 means the latest.
func (m *Manager) Get(ctx context.Context, resumeID string, version int) (*types.ResumeDocument, error) {
	var (
		doc *types.ResumeDocument
		err error
	)
	if version <= 0 {
		doc, err = m.store.LatestVersion(ctx, resumeID)
	} else {
		doc, err = m.store.GetVersion(ctx, resumeID, version)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", resumeID, err)
	}
	if doc == nil {
		return nil, &NotFoundError{ResumeID: resumeID, Version: version}
	}
	return doc, nil
}

// LatestVersion returns the latest version or nil when the resume does not exist.
func (m *Manager) LatestVersion(ctx context.Context, resumeID string) (*types.ResumeDocument, error) {
	return m.store.LatestVersion(ctx, resumeID)
}

// History lists every version of a resume, oldest first.
func (m *Manager) History(ctx context.Context, resumeID string) ([]types.VersionInfo, error) {
	infos, err := m.store.ListVersions(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions of %s: %w", resumeID, err)
	}
	if len(infos) == 0 {
		return nil, &NotFoundError{ResumeID: resumeID}
	}
	return infos, nil
}

// Apply validates the batch against the current version and commits it as
// the next version, or fails leaving the current version untouched. It
// returns the new version and the operations as applied.
// Operations apply in order and each one's indices are checked against the
// document as left by the previous operation. Once validation starts the
// call is no longer cancellable. Post-commit hooks run after the resume is
// unlocked.
func (m *Manager) Apply(ctx context.Context, p ApplyParams) (*types.ResumeDocument, []types.PatchOperation, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(p.Patches) == 0 {
		return nil, nil, invalid(-1, "at least one patch is required")
	}

	retrieved, err := m.retrieve(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	ctx = context.WithoutCancel(ctx)
	next, applied, err := m.commit(ctx, p, retrieved)
	if err != nil {
		return nil, nil, err
	}
	m.runHooks(ctx, next, applied)
	return next, applied, nil
}

func (m *Manager) commit(ctx context.Context, p ApplyParams, retrieved map[string][]types.Snippet) (*types.ResumeDocument, []types.PatchOperation, error) {
	unlock := m.locks.Lock(p.ResumeID)
	defer unlock()

	current, err := m.store.LatestVersion(ctx, p.ResumeID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load resume %s: %w", p.ResumeID, err)
	}
	if current == nil {
		return nil, nil, &NotFoundError{ResumeID: p.ResumeID}
	}
	if p.ExpectedVersion != nil && *p.ExpectedVersion != current.Version {
		return nil, nil, &VersionConflictError{ResumeID: p.ResumeID, Expected: *p.ExpectedVersion, Actual: current.Version}
	}

	var ledger []types.Override
	if p.Mode.Gated() && needsLedger(p.Patches) {
		if ledger, err = m.overrides.List(ctx, p.ResumeID); err != nil {
			return nil, nil, fmt.Errorf("failed to load overrides: %w", err)
		}
	}

	next := current.Clone()
	truth := &truthCheck{mode: p.Mode, current: current, next: next, ledger: ledger, retrieved: retrieved}
	applied := make([]types.PatchOperation, 0, len(p.Patches))
	for i, op := range p.Patches {
		built, err := patches.NewPatch(op, p.Mode)
		if err != nil {
			return nil, nil, &ValidationError{Message: "patch rejected", Index: i, Cause: err}
		}
		if p.Mode.Gated() {
			if vErr := truth.check(i, built); vErr != nil {
				return nil, nil, vErr
			}
		}
		built = patches.FoldIntoLabel(next.Sections.TechnicalSkills, built)
		if err := patches.ApplyOp(next, built); err != nil {
			return nil, nil, &ValidationError{Message: "patch does not fit the document", Index: i, Cause: err}
		}
		applied = append(applied, built)
	}
	if dup := next.DuplicateSkill(); dup != "" {
		return nil, nil, invalid(-1, "technical skills would contain duplicate entry %q", dup)
	}

	next.Version = current.Version + 1
	next.CreatedAt = m.now().UTC()
	if err := m.store.InsertVersion(ctx, next); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, nil, &VersionConflictError{ResumeID: p.ResumeID, Expected: current.Version}
		}
		return nil, nil, fmt.Errorf("failed to commit version %d: %w", next.Version, err)
	}
	m.logger.Info("version committed",
		append(logger.ResumeFields(next.ResumeID, next.Version), zap.Int("patches", len(applied)))...)
	return next, applied, nil
}

// retrieve re-queries the evidence store for every skill whose patch carries
// retrieval evidence in a gated batch. It runs before the resume is locked.
// The result is nil when no store is configured.
func (m *Manager) retrieve(ctx context.Context, p ApplyParams) (map[string][]types.Snippet, error) {
	if m.evidence == nil {
		return nil, nil
	}
	out := make(map[string][]types.Snippet)
	if !p.Mode.Gated() {
		return out, nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, op := range p.Patches {
		key := skills.Key(op.Skill)
		if key == "" || seen[key] || len(evidenceFrom(op.Evidence, types.OriginRetrieval)) == 0 {
			continue
		}
		seen[key] = true
		names = append(names, op.Skill)
	}
	found, err := evidence.Lookup(ctx, m.evidence, names, m.lookup)
	if err != nil {
		return nil, err
	}
	for name, snippets := range found {
		out[skills.Key(name)] = snippets
	}
	return out, nil
}

func (m *Manager) runHooks(ctx context.Context, doc *types.ResumeDocument, applied []types.PatchOperation) {
	fields := logger.ResumeFields(doc.ResumeID, doc.Version)
	for _, h := range m.hooks {
		hookCtx, cancel := context.WithTimeout(ctx, h.timeout)
		err := h.hook.AfterCommit(hookCtx, doc.Clone(), applied)
		cancel()
		if err != nil {
			m.logger.Warn("post-commit hook failed", append(fields, zap.Error(err))...)
		}
	}
}

func needsLedger(ops []types.PatchOperation) bool {
	for _, op := range ops {
		if op.FromOverride {
			return true
		}
		for _, ev := range op.Evidence {
			if ev.Origin == types.OriginOverride {
				return true
			}
		}
	}
	return false
}
