// Package main provides the resume_guard CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonathan/resume-guard/internal/config"
)

// Output formats
const (
	formatText = "text"
	formatJSON = "json"
)

// cli carries the state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	format  string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.NewViper()}

	root := &cobra.Command{
		Use:   "resume_guard",
		Short: "Evidence-gated resume patch engine",
		Long: "resume_guard scores resumes against job descriptions and suggests edits that are " +
			"backed by the resume itself, recorded skill overrides or retrieved evidence.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "Config file (YAML, JSON or TOML)")
	flags.StringVar(&c.format, "format", formatText, "Output format: text or json")
	flags.Bool("json-logs", false, "Log as JSON")
	flags.BoolP("debug", "d", false, "Debug logging")
	flags.String("store", "", "Store driver: memory, postgres or sqlite")
	flags.String("sqlite-path", "", "SQLite database file")

	bindings := map[string]string{
		"log.json":          "json-logs",
		"log.debug":         "debug",
		"store.driver":      "store",
		"store.sqlite_path": "sqlite-path",
	}
	for key, flag := range bindings {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", flag, err))
		}
	}

	root.AddCommand(
		c.serveCmd(),
		c.scoreCmd(),
		c.suggestCmd(),
		c.blockedPlanCmd(),
		c.applyCmd(),
		c.includeCmd(),
		c.rewriteCmd(),
		c.importCmd(),
		c.showCmd(),
		c.historyCmd(),
		c.overrideCmd(),
		c.resolveCmd(),
	)
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
