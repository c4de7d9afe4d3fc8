// Package fetch turns job posting URLs into plain text for skill extraction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// UserAgent is sent with every page request.
const UserAgent = "Mozilla/5.0 (compatible; ResumeGuard/1.0)"

// maxPageBytes caps how much of a posting is read.
const maxPageBytes = 5 << 20

// Error reports a posting that could not be turned into text. Status is the
// HTTP status when the server answered.
type Error struct {
	URL     string
	Status  int
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("jd fetch %s: %s", e.URL, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// checkURL accepts absolute http(s) URLs only.
func checkURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return &Error{URL: raw, Message: "invalid URL", Cause: err}
	}
	return nil
}

// getPage downloads a posting. A non-200 answer is an *Error with Status set.
func getPage(ctx context.Context, client *http.Client, raw string) (string, error) {
	if err := checkURL(raw); err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return "", &Error{URL: raw, Message: "building request", Cause: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", &Error{URL: raw, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxPageBytes))
		return "", &Error{URL: raw, Status: resp.StatusCode, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", &Error{URL: raw, Message: "reading body", Cause: err}
	}
	return string(body), nil
}

// PostingText reduces a posting page to its description text, one block per
// line. Chrome and application forms are dropped, the platform's content
// selectors are tried before the generic ones, and the body is the fallback.
func PostingText(html string, p Platform) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find(strings.Join(NoiseSelectors(p), ", ")).Remove()

	content := doc.Find("body")
	for _, sel := range ContentSelectors(p) {
		if found := doc.Find(sel); found.Length() > 0 {
			content = found.First()
			break
		}
	}

	// keep headings like "Requirements" on their own line
	content.Find("br").ReplaceWithHtml("\n")
	content.Find("p, li, h1, h2, h3, h4, div, section").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return collapseLines(content.Text()), nil
}

func collapseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
