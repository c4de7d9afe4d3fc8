package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-guard/internal/observability"
	"github.com/jonathan/resume-guard/internal/schemas"
	"github.com/jonathan/resume-guard/internal/types"
)

func (c *cli) importCmd() *cobra.Command {
	var jdFile string
	cmd := &cobra.Command{
		Use:   "import <resume-file>",
		Short: "Store a resume as version 1",
		Long:  "Imports a structured JSON document, or parses a .txt, .md, .pdf or .docx resume into sections.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, text, err := readResume(args[0])
			if err != nil {
				return err
			}
			jdText, err := readJD(jdFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			created, err := a.engine.CreateResume(cmd.Context(), types.CreateResumeRequest{
				Document:   doc,
				ResumeText: text,
				JDText:     jdText,
			})
			if err != nil {
				return err
			}
			if c.format == formatJSON {
				return c.render(cmd.OutOrStdout(), created, nil)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s v%d (%d roles)\n",
				created.ResumeID, created.Version, len(created.Sections.Experience))
			return err
		},
	}
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description to store with the resume")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	var (
		resumeID string
		version  int
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print a resume version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if c.format == formatJSON {
				doc, err := a.engine.GetResume(cmd.Context(), resumeID, version)
				if err != nil {
					return err
				}
				return c.render(cmd.OutOrStdout(), doc, nil)
			}
			text, err := a.engine.ResumeText(cmd.Context(), resumeID, version)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().IntVar(&version, "version", 0, "Version to show (default latest)")
	mustRequire(cmd, "resume-id")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	var resumeID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the versions of a resume",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			history, err := a.engine.ResumeHistory(cmd.Context(), resumeID)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), history, func(p *observability.Printer) { p.PrintHistory(resumeID, history) })
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	mustRequire(cmd, "resume-id")
	return cmd
}

func (c *cli) applyCmd() *cobra.Command {
	var (
		resumeID, patchesFile, truthMode string
		expected                         int
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Commit a patch batch as a new version",
		Long:  "Applies a patch batch file (the suggested_patches of a suggest run wrapped in {\"patches\": [...]}) atomically.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var req types.ApplyRequest
			if err := readJSONFile(patchesFile, schemas.PatchBatch, &req); err != nil {
				return err
			}
			req.ResumeID = resumeID
			if truthMode != "" {
				req.TruthMode = truthMode
			}
			if expected > 0 {
				req.ExpectedVersion = &expected
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.Apply(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(p *observability.Printer) { p.PrintApply(resp) })
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVarP(&patchesFile, "patches", "p", "", "Patch batch JSON file (required)")
	cmd.Flags().StringVar(&truthMode, "truth-mode", "", "off, strict or balanced (overrides the file)")
	cmd.Flags().IntVar(&expected, "expected-version", 0, "Fail unless this is the current version")
	mustRequire(cmd, "resume-id", "patches")
	return cmd
}

func (c *cli) includeCmd() *cobra.Command {
	var (
		resumeID, jdFile, roleID, level, proof, truthMode string
		skillNames                                        []string
	)
	cmd := &cobra.Command{
		Use:   "include",
		Short: "Record overrides for blocked skills and apply the patches they unlock",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jdText, err := readJD(jdFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			parsedLevel, err := types.ParseProficiencyLevel(level)
			if err != nil {
				return err
			}
			items := make([]types.BlockedItem, 0, len(skillNames))
			for _, s := range skillNames {
				items = append(items, types.BlockedItem{
					Skill:       s,
					Level:       parsedLevel,
					RoleID:      roleID,
					ProofBullet: proof,
				})
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.IncludeSkills(cmd.Context(), types.IncludeSkillsRequest{
				ResumeID:  resumeID,
				Items:     items,
				JDText:    jdText,
				TruthMode: truthMode,
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(p *observability.Printer) {
				p.PrintApply(&types.ApplyResponse{ResumeID: resp.ResumeID, Version: resp.Version, AppliedPatches: resp.AppliedPatches})
				p.PrintBlocked(resp.Blocked)
			})
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file, or - for stdin (required)")
	cmd.Flags().StringSliceVar(&skillNames, "skill", nil, "Skill to include (repeatable)")
	cmd.Flags().StringVar(&roleID, "role-id", "", "Role the skills were used in (required)")
	cmd.Flags().StringVar(&level, "level", string(types.LevelWorkedWith), "exposure, worked_with or hands_on")
	cmd.Flags().StringVar(&proof, "proof", "", "Proof bullet for the role")
	cmd.Flags().StringVar(&truthMode, "truth-mode", "", "off, strict or balanced")
	mustRequire(cmd, "resume-id", "jd", "skill", "role-id")
	return cmd
}
