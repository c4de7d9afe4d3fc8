package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-guard/internal/observability"
	"github.com/jonathan/resume-guard/internal/types"
)

func (c *cli) scoreCmd() *cobra.Command {
	var (
		jdFile, jdURL      string
		resumeFile, resume string
		topN               int
		strict             bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a resume against a job description",
		Long:  "Extracts the job description's skills and reports how each is covered by the resume, its overrides and retrieved evidence.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := types.ScoreRequest{
				JDURL:      jdURL,
				ResumeID:   resume,
				TopNSkills: topN,
				StrictMode: optionalBool(cmd.Flags().Changed("strict"), strict),
			}
			var err error
			if req.JDText, err = readJD(jdFile, cmd.InOrStdin()); err != nil {
				return err
			}
			if resumeFile != "" {
				if req.Document, req.ResumeText, err = readResume(resumeFile); err != nil {
					return err
				}
			}

			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.engine.Score(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), report, func(p *observability.Printer) { p.PrintScore(report) })
		},
	}
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file, or - for stdin")
	cmd.Flags().StringVar(&jdURL, "jd-url", "", "Job description URL")
	cmd.Flags().StringVarP(&resumeFile, "resume", "r", "", "Resume file (.json, .txt, .md, .pdf, .docx)")
	cmd.Flags().StringVar(&resume, "resume-id", "", "Stored resume ID")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Maximum JD skills to score")
	cmd.Flags().BoolVar(&strict, "strict", true, "Require exact skill matches")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-url")
	cmd.MarkFlagsMutuallyExclusive("resume", "resume-id")
	return cmd
}

func (c *cli) suggestCmd() *cobra.Command {
	var (
		resumeID, jdFile, truthMode string
		topN                        int
		strict, noOverrides         bool
	)
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest evidence-backed patches for a stored resume",
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

			resp, err := a.engine.Suggest(cmd.Context(), types.SuggestRequest{
				ResumeID:       resumeID,
				JDText:         jdText,
				TruthMode:      truthMode,
				TopNSkills:     topN,
				StrictMode:     optionalBool(cmd.Flags().Changed("strict"), strict),
				ApplyOverrides: optionalBool(noOverrides, false),
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(p *observability.Printer) { p.PrintSuggestions(resp) })
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file, or - for stdin (required)")
	cmd.Flags().StringVar(&truthMode, "truth-mode", "", "off, strict or balanced")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Maximum JD skills to score")
	cmd.Flags().BoolVar(&strict, "strict", true, "Require exact skill matches")
	cmd.Flags().BoolVar(&noOverrides, "no-overrides", false, "Ignore recorded overrides")
	mustRequire(cmd, "resume-id", "jd")
	return cmd
}

func (c *cli) blockedPlanCmd() *cobra.Command {
	var (
		resumeID, jdFile, truthMode string
		topN                        int
	)
	cmd := &cobra.Command{
		Use:   "blocked-plan",
		Short: "List JD skills the resume cannot claim yet, with remediation",
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

			resp, err := a.engine.BlockedPlan(cmd.Context(), types.BlockedPlanRequest{
				ResumeID:  resumeID,
				JDText:    jdText,
				TruthMode: truthMode,
				TopN:      topN,
			})
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(p *observability.Printer) { p.PrintBlocked(resp.Blocked) })
		},
	}
	cmd.Flags().StringVar(&resumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file, or - for stdin (required)")
	cmd.Flags().StringVar(&truthMode, "truth-mode", "", "off, strict or balanced")
	cmd.Flags().IntVar(&topN, "top-n", 0, "Maximum blocked skills to list (default 10)")
	mustRequire(cmd, "resume-id", "jd")
	return cmd
}

func (c *cli) rewriteCmd() *cobra.Command {
	var (
		req         types.RewriteBulletRequest
		jdFile      string
		temperature float64
	)
	cmd := &cobra.Command{
		Use:   "rewrite",
		Short: "Propose a rewrite of one bullet (never applied)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.JDText, err = readJD(jdFile, cmd.InOrStdin()); err != nil {
				return err
			}
			if cmd.Flags().Changed("temperature") {
				req.Temperature = &temperature
			}
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.engine.RewriteBullet(cmd.Context(), req)
			if err != nil {
				return err
			}
			return c.render(cmd.OutOrStdout(), resp, func(p *observability.Printer) { p.PrintRewrite(resp) })
		},
	}
	cmd.Flags().StringVar(&req.ResumeID, "resume-id", "", "Stored resume ID (required)")
	cmd.Flags().StringVar(&req.RoleSelector.RoleID, "role-id", "", "Role ID")
	cmd.Flags().StringVar(&req.RoleSelector.Company, "company", "", "Role company (when no role ID)")
	cmd.Flags().StringVar(&req.RoleSelector.Dates, "dates", "", "Role dates, to disambiguate a company")
	cmd.Flags().IntVar(&req.BulletIndex, "bullet", 0, "Bullet index within the role")
	cmd.Flags().StringVarP(&jdFile, "jd", "j", "", "Job description file (defaults to the one stored with the resume)")
	cmd.Flags().StringVar(&req.RewriteHint, "hint", "", "Rewrite hint; needs --override-skill")
	cmd.Flags().StringVar(&req.OverrideSkill, "override-skill", "", "Overridden skill the rewrite may add")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.2, "Sampling temperature (0-1)")
	cmd.MarkFlagsMutuallyExclusive("role-id", "company")
	mustRequire(cmd, "resume-id")
	return cmd
}

func mustRequire(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("failed to mark %s flag as required: %v", name, err))
		}
	}
}
