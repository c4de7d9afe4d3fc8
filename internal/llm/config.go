// Package llm is the language-model client behind bullet rewrites and JD
// skill extraction. Callers pick a tier; the config maps tiers to models.
package llm

import "time"

// ModelTier names the capability a call needs.
type ModelTier string

const (
	// TierFast serves structured extraction.
	TierFast ModelTier = "fast"
	// TierQuality serves rewrites a person will read.
	TierQuality ModelTier = "quality"
)

// DefaultTimeout bounds one model call.
const DefaultTimeout = 30 * time.Second

// Config maps tiers to Gemini model names.
type Config struct {
	Models  map[ModelTier]string
	Timeout time.Duration
}

// DefaultConfig returns the Gemini models used in production.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierFast:    "gemini-2.5-flash-lite",
			TierQuality: "gemini-2.5-flash",
		},
		Timeout: DefaultTimeout,
	}
}

// Model returns the model for tier. An unmapped tier falls back to the
// quality model, then the fast one.
func (c *Config) Model(tier ModelTier) string {
	for _, t := range []ModelTier{tier, TierQuality, TierFast} {
		if m := c.Models[t]; m != "" {
			return m
		}
	}
	return ""
}
