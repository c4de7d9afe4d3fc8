package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectPlatform(t *testing.T) {
	tests := []struct {
		url      string
		expected Platform
	}{
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", PlatformGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", PlatformGreenhouse},
		{"https://jobs.lever.co/company/job-id", PlatformLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", PlatformWorkday},
		{"https://jobs.ashbyhq.com/acme/123", PlatformAshby},
		{"https://example.com/careers/123", PlatformUnknown},
		{"://bad", PlatformUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectPlatform(tt.url))
		})
	}
}

func TestSelectors(t *testing.T) {
	gh := ContentSelectors(PlatformGreenhouse)
	assert.Equal(t, ".job__description.body", gh[0])
	assert.Contains(t, gh, ".job-description", "generic selectors follow platform ones")

	assert.Equal(t, genericContent, ContentSelectors(PlatformUnknown))

	noise := NoiseSelectors(PlatformLever)
	assert.Contains(t, noise, "form")
	assert.Contains(t, noise, ".posting-apply")
	assert.NotContains(t, NoiseSelectors(PlatformUnknown), ".posting-apply")
}
