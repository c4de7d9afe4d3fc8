// Package overrides is the append-only ledger of user-asserted skill claims.
// Records are never edited; a newer record for the same skill and role
// supersedes older ones in the effective view.
package overrides

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-guard/internal/parsing"
	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/store"
	"github.com/jonathan/resume-guard/internal/types"
)

// DocumentSource resolves the latest version of a resume.
type DocumentSource interface {
	LatestVersion(ctx context.Context, resumeID string) (*types.ResumeDocument, error)
}

// Ledger appends and reads override records.
type Ledger struct {
	store store.OverrideStore
	docs  DocumentSource
	now   func() time.Time
}

// NewLedger creates a ledger backed by the given stores.
func NewLedger(overrides store.OverrideStore, docs DocumentSource) *Ledger {
	return &Ledger{store: overrides, docs: docs, now: time.Now}
}

// Append validates and stores the records. Either all records are stored or none.
func (l *Ledger) Append(ctx context.Context, resumeID string, records []types.Override) ([]types.Override, error) {
	if len(records) == 0 {
		return nil, &ValidationError{Message: "at least one override is required"}
	}
	doc, err := l.docs.LatestVersion(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume %s: %w", resumeID, err)
	}
	if doc == nil {
		return nil, &ResumeNotFoundError{ResumeID: resumeID}
	}

	now := l.now().UTC()
	prepared := make([]types.Override, 0, len(records))
	for i, rec := range records {
		o, err := prepare(rec, doc)
		if err != nil {
			err.Index = i
			return nil, err
		}
		o.ID = uuid.NewString()
		o.ResumeID = resumeID
		o.CreatedAt = now
		prepared = append(prepared, o)
	}

	stored, err := l.store.AppendOverrides(ctx, resumeID, prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to append overrides: %w", err)
	}
	return stored, nil
}

// List returns every record for the resume in ledger order.
func (l *Ledger) List(ctx context.Context, resumeID string) ([]types.Override, error) {
	records, err := l.store.ListOverrides(ctx, resumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return records, nil
}

// Effective returns the effective view of the resume's ledger.
func (l *Ledger) Effective(ctx context.Context, resumeID string) ([]types.EffectiveOverride, error) {
	records, err := l.List(ctx, resumeID)
	if err != nil {
		return nil, err
	}
	return Effective(records), nil
}

// FromBlocked converts chosen blocked suggestions into override records and
// appends them. An item without a usable proof bullet gets a level template.
func (l *Ledger) FromBlocked(ctx context.Context, resumeID string, items []types.BlockedItem) ([]types.Override, error) {
	records, err := RecordsFromBlocked(items)
	if err != nil {
		return nil, err
	}
	return l.Append(ctx, resumeID, records)
}

// RecordsFromBlocked builds override records from blocked items without storing them.
func RecordsFromBlocked(items []types.BlockedItem) ([]types.Override, error) {
	records := make([]types.Override, 0, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return nil, &ValidationError{Message: "invalid blocked item", Index: i, Cause: err}
		}
		proof := parsing.CleanBullet(item.ProofBullet)
		if len(proof) < types.MinBulletLength {
			proof = ProofTemplate(item.Skill, item.Level)
		}
		records = append(records, types.Override{
			Skill:        strings.TrimSpace(item.Skill),
			Level:        item.Level,
			TargetRoles:  []string{item.RoleID},
			ProofBullets: []string{proof},
		})
	}
	return records, nil
}

// ProofTemplate is the proof bullet used when the user supplies none.
func ProofTemplate(skill string, level types.ProficiencyLevel) string {
	skill = strings.TrimSpace(skill)
	switch level {
	case types.LevelHandsOn:
		return fmt.Sprintf("Built and maintained production workflows using %s", skill)
	case types.LevelWorkedWith:
		return fmt.Sprintf("Worked with %s alongside the team to deliver data projects", skill)
	default:
		return fmt.Sprintf("Gained exposure to %s through cross-team collaboration", skill)
	}
}

// Effective reduces records to the winning record per skill and role: the
// highest Seq wins. The result is ordered by Seq, then target role order.
func Effective(records []types.Override) []types.EffectiveOverride {
	type slot struct {
		eff  types.EffectiveOverride
		role int
	}
	winners := make(map[string]slot)
	for _, rec := range records {
		for i, roleID := range rec.TargetRoles {
			key := skills.Key(rec.Skill) + "|" + roleID
			if cur, ok := winners[key]; ok && cur.eff.Seq > rec.Seq {
				continue
			}
			winners[key] = slot{
				eff: types.EffectiveOverride{
					OverrideID:   rec.ID,
					Skill:        rec.Skill,
					RoleID:       roleID,
					Level:        rec.Level,
					ProofBullets: append([]string(nil), rec.ProofBullets...),
					Seq:          rec.Seq,
				},
				role: i,
			}
		}
	}

	slots := make([]slot, 0, len(winners))
	for _, s := range winners {
		slots = append(slots, s)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].eff.Seq != slots[j].eff.Seq {
			return slots[i].eff.Seq < slots[j].eff.Seq
		}
		return slots[i].role < slots[j].role
	})

	out := make([]types.EffectiveOverride, len(slots))
	for i, s := range slots {
		out[i] = s.eff
	}
	return out
}

// ForSkill filters an effective view to one skill (case-insensitive).
func ForSkill(effective []types.EffectiveOverride, skill string) []types.EffectiveOverride {
	key := skills.Key(skill)
	var out []types.EffectiveOverride
	for _, e := range effective {
		if skills.Key(e.Skill) == key {
			out = append(out, e)
		}
	}
	return out
}

func prepare(rec types.Override, doc *types.ResumeDocument) (types.Override, *ValidationError) {
	rec.Skill = strings.TrimSpace(rec.Skill)
	proofs := make([]string, 0, len(rec.ProofBullets))
	for _, p := range rec.ProofBullets {
		proofs = append(proofs, parsing.CleanBullet(p))
	}
	rec.ProofBullets = proofs

	if err := rec.Validate(); err != nil {
		return rec, &ValidationError{Message: "invalid override", Cause: err}
	}
	for _, p := range rec.ProofBullets {
		if len(p) < types.MinBulletLength {
			return rec, &ValidationError{Message: fmt.Sprintf("proof bullet %q is too short", p)}
		}
	}
	for _, roleID := range rec.TargetRoles {
		if doc.FindRole(roleID) == nil {
			return rec, &ValidationError{Message: fmt.Sprintf("role_id not found: %s", roleID)}
		}
	}
	rec.TargetRoles = dedupeRoles(rec.TargetRoles)
	return rec, nil
}

func dedupeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
