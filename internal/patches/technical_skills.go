package patches

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jonathan/resume-guard/internal/skills"
	"github.com/jonathan/resume-guard/internal/types"
)

const otherSkillsLabel = "Other Skills"

var itemSplitRe = regexp.MustCompile(`[;,]`)

// SkillsPatch builds the technical-skills edit that adds skill: a replace of
// the best matching "Category: a, b" line, or an insert of an "Other Skills"
// line when no category fits. Lines listed in claimed are not replaced. It
// returns false when the skill is already listed.
func SkillsPatch(doc *types.ResumeDocument, skill string, claimed map[int]bool) (types.PatchOperation, bool) {
	skill = strings.TrimSpace(skill)
	lines := doc.Sections.TechnicalSkills
	for _, line := range lines {
		if skills.MatchesDirect(skill, line) {
			return types.PatchOperation{}, false
		}
	}

	idx := PickCategoryLine(lines, skill)
	if idx < 0 {
		idx = findLabel(lines, otherSkillsLabel)
	}
	if idx >= 0 && !claimed[idx] {
		if updated, ok := AddToLine(lines[idx], skill); ok {
			return types.PatchOperation{
				Section:     types.SectionTechnicalSkills,
				Action:      types.ActionReplace,
				BulletIndex: types.IntPtr(idx),
				NewBullet:   updated,
				Skill:       skill,
			}, true
		}
	}
	return types.PatchOperation{
		Section:    types.SectionTechnicalSkills,
		Action:     types.ActionInsert,
		AfterIndex: types.IntPtr(len(lines) - 1),
		NewBullet:  fmt.Sprintf("%s: %s", otherSkillsLabel, skill),
		Skill:      skill,
	}, true
}

// PickCategoryLine returns the index of the "Label: items" line whose label
// matches one of the skill's category hints, or whose label contains the
// skill itself. It returns -1 when nothing fits.
func PickCategoryLine(lines []string, skill string) int {
	type category struct {
		idx   int
		label string
	}
	var categories []category
	for i, line := range lines {
		label, _, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if label = strings.ToLower(strings.TrimSpace(label)); label != "" {
			categories = append(categories, category{idx: i, label: label})
		}
	}

	for _, hint := range skills.CategoryHints(skill) {
		for _, c := range categories {
			if strings.Contains(c.label, hint) {
				return c.idx
			}
		}
	}
	key := skills.Key(skill)
	for _, c := range categories {
		if key != "" && strings.Contains(c.label, key) {
			return c.idx
		}
	}
	return -1
}

// AddToLine appends skill to a "Label: a, b" line. It returns false for lines
// without a label or that already list the skill.
func AddToLine(line, skill string) (string, bool) {
	label, rest, ok := strings.Cut(line, ":")
	if !ok {
		return "", false
	}
	var items []string
	for _, item := range itemSplitRe.Split(rest, -1) {
		if item = strings.TrimSpace(item); item != "" {
			if skills.ContainsToken(item, skill) {
				return "", false
			}
			items = append(items, item)
		}
	}
	items = append(items, strings.TrimSpace(skill))
	return fmt.Sprintf("%s: %s", strings.TrimSpace(label), strings.Join(items, ", ")), true
}

func findLabel(lines []string, want string) int {
	for i, line := range lines {
		label, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(label), want) {
			return i
		}
	}
	return -1
}

// FoldIntoLabel turns the insert of a "Label: items" technical-skills line
// into a replace of the line already carrying that label, so repeated
// fallback inserts share one "Other Skills" line. Any other operation, or an
// insert that would add no new item, is returned unchanged.
func FoldIntoLabel(lines []string, op types.PatchOperation) types.PatchOperation {
	if op.Section != types.SectionTechnicalSkills || op.Action != types.ActionInsert {
		return op
	}
	label, rest, ok := strings.Cut(op.NewBullet, ":")
	if !ok {
		return op
	}
	idx := findLabel(lines, strings.TrimSpace(label))
	if idx < 0 {
		return op
	}
	merged := lines[idx]
	for _, item := range itemSplitRe.Split(rest, -1) {
		if item = strings.TrimSpace(item); item == "" {
			continue
		}
		if updated, ok := AddToLine(merged, item); ok {
			merged = updated
		}
	}
	if merged == lines[idx] {
		return op
	}
	op.Action = types.ActionReplace
	op.AfterIndex = nil
	op.BulletIndex = types.IntPtr(idx)
	op.NewBullet = merged
	return op
}
