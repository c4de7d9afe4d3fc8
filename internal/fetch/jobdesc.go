package fetch

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults for NewJobDescriptionFetcher.
const (
	DefaultTimeout  = 20 * time.Second
	DefaultCacheTTL = 24 * time.Hour
)

// JobDescriptionFetcher turns a posting URL into plain text. Results are
// cached in memory per URL.
type JobDescriptionFetcher struct {
	Client   *http.Client
	Timeout  time.Duration
	CacheTTL time.Duration
	// Render is the fallback for client-rendered pages; nil disables it.
	Render Renderer
	Logger *zap.Logger

	mu    sync.Mutex
	cache map[string]cachedPosting
	now   func() time.Time
}

type cachedPosting struct {
	text    string
	fetched time.Time
}

// NewJobDescriptionFetcher returns a fetcher with default timeouts. The
// headless Chrome fallback is enabled when useBrowser is set.
func NewJobDescriptionFetcher(useBrowser bool, logger *zap.Logger) *JobDescriptionFetcher {
	f := &JobDescriptionFetcher{
		Client:   &http.Client{Timeout: DefaultTimeout},
		Timeout:  DefaultTimeout,
		CacheTTL: DefaultCacheTTL,
		Logger:   logger,
	}
	if useBrowser {
		f.Render = RenderWithChrome
	}
	return f
}

// Fetch returns the job description text at url.
func (f *JobDescriptionFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if text, ok := f.lookup(url); ok {
		return text, nil
	}

	platform := DetectPlatform(url)
	html, err := getPage(ctx, f.client(), url)
	if err != nil {
		return "", err
	}
	text, err := PostingText(html, platform)
	if err != nil {
		return "", &Error{URL: url, Message: "extracting text", Cause: err}
	}

	if looksClientRendered(text) && f.Render != nil {
		f.log().Debug("rendering posting in browser",
			zap.String("url", url), zap.String("platform", string(platform)), zap.Int("chars", len(text)))
		if html, err = f.Render(ctx, url, f.timeout()); err != nil {
			return "", &Error{URL: url, Message: "browser render failed", Cause: err}
		}
		if text, err = PostingText(html, platform); err != nil {
			return "", &Error{URL: url, Message: "extracting rendered text", Cause: err}
		}
	}
	if text == "" {
		return "", &Error{URL: url, Message: "page has no text"}
	}

	f.remember(url, text)
	return text, nil
}

func (f *JobDescriptionFetcher) lookup(url string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.cache[url]
	if !ok {
		return "", false
	}
	ttl := f.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if f.clock().Sub(entry.fetched) > ttl {
		delete(f.cache, url)
		return "", false
	}
	return entry.text, true
}

func (f *JobDescriptionFetcher) remember(url, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cache == nil {
		f.cache = make(map[string]cachedPosting)
	}
	f.cache[url] = cachedPosting{text: text, fetched: f.clock()}
}

func (f *JobDescriptionFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: f.timeout()}
}

func (f *JobDescriptionFetcher) timeout() time.Duration {
	if f.Timeout > 0 {
		return f.Timeout
	}
	return DefaultTimeout
}

func (f *JobDescriptionFetcher) clock() time.Time {
	if f.now != nil {
		return f.now()
	}
	return time.Now()
}

func (f *JobDescriptionFetcher) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
