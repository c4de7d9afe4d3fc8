package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-guard/internal/config"
	"github.com/jonathan/resume-guard/internal/server"
	"github.com/jonathan/resume-guard/internal/server/ratelimit"
)

func (c *cli) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  "Start an HTTP server that exposes the scoring, suggestion, apply and override endpoints.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(server.Config{
				Port:      a.cfg.Port,
				RateLimit: rateLimitConfig(a.cfg.RateLimit),
				Logger:    a.logger,
			}, a.engine)
			return srv.Start(cmd.Context())
		},
	}
	cmd.Flags().Int("port", 0, "Port to listen on (default 8080)")
	if err := c.v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
		panic(fmt.Sprintf("failed to bind port flag: %v", err))
	}
	return cmd
}

// rateLimitConfig applies the configured limits on top of the per-route defaults.
func rateLimitConfig(cfg config.RateLimitConfig) *ratelimit.Config {
	rl := ratelimit.DefaultConfig()
	rl.Enabled = cfg.Enabled
	if cfg.DefaultLimit > 0 {
		rl.DefaultLimit = cfg.DefaultLimit
	}
	if cfg.DefaultWindow > 0 {
		rl.DefaultWindow = cfg.DefaultWindow
	}
	rl.Whitelist = ratelimit.IPSet(cfg.Whitelist)
	rl.Blacklist = ratelimit.IPSet(cfg.Blacklist)
	return rl
}
