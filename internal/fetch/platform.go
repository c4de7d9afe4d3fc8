package fetch

import (
	"net/url"
	"strings"
)

// Platform is a known applicant tracking system.
type Platform string

// Known platforms
const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = []struct {
	fragment string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
}

var platformContent = map[Platform][]string{
	PlatformGreenhouse: {".job__description.body", ".job__description", ".job-description__content", ".job-post-container"},
	PlatformLever:      {".posting-page", ".posting-description", ".section-wrapper.page-full-width"},
	PlatformWorkday:    {"[data-automation-id='jobDescription']"},
	PlatformAshby:      {"[class*='descriptionText']"},
}

// genericContent is tried after the platform selectors.
var genericContent = []string{
	".job-description",
	"#job-description",
	".job-details",
	".posting-content",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
}

// pageNoise is removed from every page before extraction.
var pageNoise = []string{
	"nav", "header", "footer", "script", "style", "noscript",
	".sidebar", ".cookie-banner", ".cookie-consent", ".gdpr-notice",
	"form", ".application-form", ".apply-button-container",
	".eeo-statement", ".voluntary-disclosure", ".social-share",
}

var platformNoise = map[Platform][]string{
	PlatformGreenhouse: {".application--wrapper", ".voluntary-self-id", "#usa_self_id_section"},
	PlatformLever:      {".apply-section", ".posting-apply"},
	PlatformWorkday:    {"[data-automation-id='applyButton']"},
}

// DetectPlatform identifies the job board from a posting URL.
func DetectPlatform(raw string) Platform {
	u, err := url.Parse(raw)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Host)
	for _, h := range platformHosts {
		if strings.Contains(host, h.fragment) {
			return h.platform
		}
	}
	return PlatformUnknown
}

// ContentSelectors lists description containers for p, most specific first.
func ContentSelectors(p Platform) []string {
	out := make([]string, 0, len(platformContent[p])+len(genericContent))
	out = append(out, platformContent[p]...)
	return append(out, genericContent...)
}

// NoiseSelectors lists elements stripped before extraction on p.
func NoiseSelectors(p Platform) []string {
	out := make([]string, 0, len(pageNoise)+len(platformNoise[p]))
	out = append(out, pageNoise...)
	return append(out, platformNoise[p]...)
}
