package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// minPostingChars is the shortest plain-HTTP extraction accepted before a
// page is treated as client-rendered.
const minPostingChars = 300

// renderSettle gives client-side scripts time to fill the posting in.
const renderSettle = 2 * time.Second

func looksClientRendered(text string) bool {
	return len(strings.TrimSpace(text)) < minPostingChars
}

// Renderer loads a page in a browser and returns the resulting HTML.
type Renderer func(ctx context.Context, url string, timeout time.Duration) (string, error)

// RenderWithChrome is a Renderer backed by headless Chrome through chromedp.
// Chrome or Chromium must be installed on the host.
func RenderWithChrome(ctx context.Context, url string, timeout time.Duration) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	tabCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(renderSettle),
		chromedp.OuterHTML("html", &html),
	); err != nil {
		return "", fmt.Errorf("chrome render: %w", err)
	}
	return html, nil
}
