// Package observability renders engine results for the terminal.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jonathan/resume-guard/internal/types"
)

const (
	// boxWidth is the outer width of a report box
	boxWidth = 72
	// maxItemsToShow caps list sections inside a box
	maxItemsToShow = 10
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1).
			Width(boxWidth)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyles = map[types.CoverageStatus]lipgloss.Style{
		types.StatusDirect:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		types.StatusPartial: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		types.StatusMissing: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
)

// Printer writes styled reports to out.
type Printer struct {
	out io.Writer
}

func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

//nolint:errcheck // terminal output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	fmt.Fprintln(p.out, boxStyle.Render(titleStyle.Render(title)+"\n\n"+strings.TrimRight(content, "\n")))
}

// PrintScore outputs the ATS score and per-skill coverage.
func (p *Printer) PrintScore(report *types.ScoreReport) {
	if report == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %.1f\n", labelStyle.Render("ATS score:"), report.ATSScore))

	writeCoverage(&sb, "Required", report.Required)
	writeCoverage(&sb, "Preferred", report.Preferred)

	if len(report.MissingRequired) > 0 {
		sb.WriteString(fmt.Sprintf("\n%s %s\n", labelStyle.Render("Missing required:"), strings.Join(report.MissingRequired, ", ")))
	}
	if len(report.MissingPreferred) > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Missing preferred:"), strings.Join(report.MissingPreferred, ", ")))
	}

	p.printBox("SKILL COVERAGE", sb.String())
}

func writeCoverage(sb *strings.Builder, heading string, skills []types.SkillCoverage) {
	if len(skills) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("\n%s (%d)\n", labelStyle.Render(heading), len(skills)))
	for _, c := range skills {
		style, ok := statusStyles[c.Status]
		if !ok {
			style = mutedStyle
		}
		line := fmt.Sprintf("  %-8s %s", style.Render(string(c.Status)), c.Skill)
		if n := len(c.Evidence); n > 0 {
			line += mutedStyle.Render(fmt.Sprintf("  (%d evidence, %s)", n, c.Evidence[0].Origin))
		}
		sb.WriteString(line + "\n")
	}
}

// PrintSuggestions outputs allowed patches followed by blocked skills.
func (p *Printer) PrintSuggestions(resp *types.SuggestResponse) {
	if resp == nil {
		return
	}
	if resp.Score != nil {
		p.PrintScore(resp.Score)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Resume %s v%d, truth mode %s\n\n", resp.ResumeID, resp.Version, resp.TruthMode))
	if len(resp.SuggestedPatches) == 0 {
		sb.WriteString(mutedStyle.Render("No patches suggested.") + "\n")
	}
	writePatches(&sb, resp.SuggestedPatches)
	p.printBox("SUGGESTED PATCHES", sb.String())

	p.PrintBlocked(resp.Blocked)
}

func writePatches(sb *strings.Builder, patches []types.PatchOperation) {
	count := min(len(patches), maxItemsToShow)
	for i := 0; i < count; i++ {
		op := patches[i]
		target := op.Section
		if op.RoleID != "" {
			target += "/" + op.RoleID
		}
		sb.WriteString(fmt.Sprintf("%d. %s %s [%s]\n", i+1, op.Action, target, op.Skill))
		sb.WriteString(fmt.Sprintf("   %s\n", op.NewBullet))
		if op.Provenance != "" {
			sb.WriteString(mutedStyle.Render(fmt.Sprintf("   provenance: %s", op.Provenance)) + "\n")
		}
	}
	if len(patches) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more patches\n", len(patches)-maxItemsToShow))
	}
}

// PrintBlocked outputs blocked skills with their remediation.
func (p *Printer) PrintBlocked(blocked []types.BlockedSuggestion) {
	if len(blocked) == 0 {
		return
	}

	var sb strings.Builder
	count := min(len(blocked), maxItemsToShow)
	for i := 0; i < count; i++ {
		b := blocked[i]
		sb.WriteString(fmt.Sprintf("• %s: %s\n", labelStyle.Render(b.Skill), b.Reason))
		sb.WriteString(fmt.Sprintf("  action: %s", b.RecommendedAction))
		if len(b.SuggestedRoleIDs) > 0 {
			sb.WriteString(fmt.Sprintf(", roles: %s", strings.Join(b.SuggestedRoleIDs, ", ")))
		}
		sb.WriteString("\n")
	}
	if len(blocked) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more blocked skills\n", len(blocked)-maxItemsToShow))
	}
	p.printBox("BLOCKED SKILLS", sb.String())
}

// PrintApply outputs the version an apply produced.
func (p *Printer) PrintApply(resp *types.ApplyResponse) {
	if resp == nil {
		return
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s v%d\n", labelStyle.Render("Committed:"), resp.ResumeID, resp.Version))
	if len(resp.UpdatedSections) > 0 {
		sb.WriteString(fmt.Sprintf("%s %s\n\n", labelStyle.Render("Sections:"), strings.Join(resp.UpdatedSections, ", ")))
	}
	writePatches(&sb, resp.AppliedPatches)
	p.printBox("APPLIED PATCHES", sb.String())
}

// PrintHistory lists the versions of a resume, oldest first.
func (p *Printer) PrintHistory(resumeID string, history []types.VersionInfo) {
	var sb strings.Builder
	if len(history) == 0 {
		sb.WriteString(mutedStyle.Render("No versions.") + "\n")
	}
	for _, v := range history {
		sb.WriteString(fmt.Sprintf("v%-4d %s\n", v.Version, v.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	p.printBox("HISTORY "+resumeID, sb.String())
}

// PrintRewrite shows a bullet rewrite next to the original with style checks.
func (p *Printer) PrintRewrite(resp *types.RewriteBulletResponse) {
	if resp == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("Before:"), resp.OriginalBullet))
	sb.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render("After: "), resp.RewrittenBullet))

	if resp.StyleChecks != nil {
		var checks []string
		if resp.StyleChecks.StrongVerb {
			checks = append(checks, "✓verb")
		}
		if resp.StyleChecks.Quantified {
			checks = append(checks, "✓metrics")
		}
		if resp.StyleChecks.TargetLength {
			checks = append(checks, "✓length")
		}
		if len(checks) > 0 {
			sb.WriteString(fmt.Sprintf("\n[%s]\n", strings.Join(checks, " ")))
		}
	}

	p.printBox(fmt.Sprintf("REWRITE %s #%d", resp.RoleID, resp.BulletIndex), sb.String())
}
