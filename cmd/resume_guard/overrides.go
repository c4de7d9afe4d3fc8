package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-guard/internal/engine"
	"github.com/jonathan/resume-guard/internal/observability"
	"github.com/jonathan/resume-guard/internal/types"
)

func (c *cli) overrideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Manage skill overrides",
	}
	cmd.AddCommand(c.overrideAddCmd(), c.overrideListCmd())
	return cmd
}

func (c *cli) overrideAddCmd() *cobra.Command {
	var (
		resumeID string
		rec      types.Override
		level    string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a skill override for one or more roles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := types.ParseProficiencyLevel(level)
			if err != nil {
				return err
			}
			rec.Level = parsed

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.AddOverrides(cmd.Context(), resumeID, types.OverridesRequest{Skills: []types.Override{rec}})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(*observability.Printer) {
				for _, o := range resp.Overrides {
					fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (%s) for %s as #%d\n",
						o.Skill, o.Level, strings.Join(o.TargetRoles, ", "), o.Seq)
				}
			})
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVar(&rec.Skill, "skill", "", "Skill name (required)")
	cmd.Flags().StringVar(&level, "level", string(types.LevelWorkedWith), "exposure, worked_with or hands_on")
	cmd.Flags().StringSliceVar(&rec.TargetRoles, "role-id", nil, "Role the skill was used in (repeatable, required)")
	cmd.Flags().StringArrayVar(&rec.ProofBullets, "proof", nil, "Proof bullet (repeatable, 1-3, required)")
	mustRequire(cmd, "resume-id", "skill", "role-id", "proof")
	return cmd
}

func (c *cli) overrideListCmd() *cobra.Command {
	var resumeID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded overrides",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.ListOverrides(cmd.Context(), resumeID)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(*observability.Printer) {
				for _, o := range resp.Overrides {
					fmt.Fprintf(cmd.OutOrStdout(), "#%d %s (%s) roles=%s\n",
						o.Seq, o.Skill, o.Level, strings.Join(o.TargetRoles, ","))
				}
			})
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	mustRequire(cmd, "resume-id")
	return cmd
}

// Resolve menu entries
const (
	choiceAdd       = "Add override"
	choiceDowngrade = "Add as exposure only"
	choiceSkip      = "Skip"
	choiceDone      = "Done"
)

var levelChoices = []string{string(types.LevelHandsOn), string(types.LevelWorkedWith), string(types.LevelExposure)}

// chooser asks the user questions. promptChooser is the terminal version.
type chooser interface {
	Select(label string, items []string) (string, error)
	Prompt(label string, validate func(string) error) (string, error)
}

type promptChooser struct{}

func (promptChooser) Select(label string, items []string) (string, error) {
	p := promptui.Select{Label: label, Items: items}
	_, choice, err := p.Run()
	return choice, err
}

func (promptChooser) Prompt(label string, validate func(string) error) (string, error) {
	p := promptui.Prompt{Label: label, Validate: validate}
	return p.Run()
}

func (c *cli) resolveCmd() *cobra.Command {
	var (
		resumeID, jdFile, truthMode string
		topN                        int
	)
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Walk through blocked skills and include the ones you can back up",
		Long: "Lists the blocked skills for a job description and asks, for each, whether to record an override. " +
			"Accepted skills are recorded and their patches applied in one commit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jdText, err := readJD(jdFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			return resolve(cmd.Context(), a.engine, promptChooser{}, cmd.OutOrStdout(), resolveParams{
				resumeID:  resumeID,
				jdText:    jdText,
				truthMode: truthMode,
				topN:      topN,
			})
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file, or - for stdin (required)")
	cmd.Flags().StringVar(&truthMode, "truth-mode", string(types.TruthStrict), "off, strict or balanced")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Maximum blocked skills to walk through")
	mustRequire(cmd, "resume-id", "jd")
	return cmd
}

type resolveParams struct {
	resumeID  string
	jdText    string
	truthMode string
	topN      int
}

// resolve asks about each blocked skill and includes the accepted ones.
func resolve(ctx context.Context, eng *engine.Engine, ask chooser, out io.Writer, params resolveParams) error {
	plan, err := eng.BlockedPlan(ctx, types.BlockedPlanRequest{
		ResumeID:  params.resumeID,
		JDText:    params.jdText,
		TruthMode: params.truthMode,
		TopN:      params.topN,
	})
	if err != nil {
		return err
	}
	if len(plan.Blocked) == 0 {
		_, err := fmt.Fprintln(out, "Nothing is blocked.")
		return err
	}

	doc, err := eng.GetResume(ctx, params.resumeID, 0)
	if err != nil {
		return err
	}

	var items []types.BlockedItem
	for _, b := range plan.Blocked {
		fmt.Fprintf(out, "%s: %s\n", b.Skill, b.Reason)
		choice, err := ask.Select(fmt.Sprintf("Include %s?", b.Skill), []string{choiceAdd, choiceDowngrade, choiceSkip, choiceDone})
		if err != nil {
			return promptError(err)
		}
		if choice == choiceDone {
			break
		}
		if choice == choiceSkip {
			continue
		}

		item, err := askItem(ask, doc, b, choice == choiceDowngrade)
		if err != nil {
			return promptError(err)
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "No skills included.")
		return err
	}

	resp, err := eng.IncludeSkills(ctx, types.IncludeSkillsRequest{
		ResumeID:        params.resumeID,
		Items:           items,
		JDText:          params.jdText,
		TruthMode:       params.truthMode,
		ExpectedVersion: &plan.Version,
	})
	if err != nil {
		return err
	}
	if resp.Version == plan.Version {
		_, err = fmt.Fprintf(out, "Recorded %d override(s); no patch could be built, %s stays at v%d\n",
			len(resp.Overrides), resp.ResumeID, resp.Version)
		return err
	}
	_, err = fmt.Fprintf(out, "Recorded %d override(s) and committed %s v%d with %d patch(es)\n",
		len(resp.Overrides), resp.ResumeID, resp.Version, len(resp.AppliedPatches))
	return err
}

func askItem(ask chooser, doc *types.ResumeDocument, b types.BlockedSuggestion, exposure bool) (types.BlockedItem, error) {
	item := types.BlockedItem{Skill: b.Skill, Level: types.LevelExposure}

	roleIDs := b.SuggestedRoleIDs
	if len(roleIDs) == 0 {
		for _, r := range doc.Sections.Experience {
			roleIDs = append(roleIDs, r.RoleID)
		}
	}
	labels := make([]string, len(roleIDs))
	for i, id := range roleIDs {
		labels[i] = id
		if role := doc.FindRole(id); role != nil {
			labels[i] = fmt.Sprintf("%s %s (%s)", id, role.Company, role.Dates)
		}
	}
	role, err := ask.Select("Which role?", labels)
	if err != nil {
		return item, err
	}
	item.RoleID = strings.Fields(role)[0]

	if !exposure {
		level, err := ask.Select("How well do you know it?", levelChoices)
		if err != nil {
			return item, err
		}
		item.Level = types.ProficiencyLevel(level)
	}

	proof, err := ask.Prompt("Proof bullet (optional)", func(s string) error {
		if len(s) > 300 {
			return errors.New("proof bullet must be at most 300 characters")
		}
		return nil
	})
	if err != nil {
		return item, err
	}
	item.ProofBullet = strings.TrimSpace(proof)
	return item, nil
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return errors.New("resolve cancelled")
	}
	return fmt.Errorf("prompt failed: %w", err)
}
