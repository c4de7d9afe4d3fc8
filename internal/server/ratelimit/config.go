package ratelimit

import (
	"strings"
	"time"
)

// EndpointConfig limits one route. Pattern segments may be "*" to match any
// single path segment; a pattern ending in "/" matches by prefix.
type EndpointConfig struct {
	Pattern string
	Method  string
	Limit   int // requests per window
	Window  time.Duration
	Burst   int // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// DefaultConfig is the limiter setup used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		Whitelist:       map[string]bool{},
		Blacklist:       map[string]bool{},
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Routes that call the
// rewrite model or fetch pages are the strictest.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// upstream model calls
		{Pattern: "/resumes/*/rewrite-bullet", Method: "POST", Limit: 30, Window: time.Hour, Burst: 5},

		// scoring may fetch a JD page and query the evidence store
		{Pattern: "/ats-score", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Pattern: "/resumes/*/suggest-patches", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Pattern: "/resumes/*/blocked-plan", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},

		// writes
		{Pattern: "/resumes", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Pattern: "/resumes/", Method: "POST", Limit: 100, Window: time.Minute, Burst: 10},

		// reads fall through to the default limit; /health is unlimited
	}
}

// ParseIPList parses a comma-separated list of IP addresses into a set.
func ParseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}

// IPSet builds a set from a list of addresses.
func IPSet(ips []string) map[string]bool {
	return ParseIPList(strings.Join(ips, ","))
}
