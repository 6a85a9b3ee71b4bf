package harvest

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/chromedp"
)

// Headless renders the page in a headless Chrome before extraction, for profiles
// whose comments are injected by JavaScript.
type Headless struct {
	extractor  *Extractor
	userAgent  string
	chromePath string
}

// NewHeadless builds a headless harvester; an empty chromePath lets chromedp find
// the browser on PATH.
func NewHeadless(extractor *Extractor, userAgent, chromePath string) *Headless {
	return &Headless{extractor: extractor, userAgent: userAgent, chromePath: chromePath}
}

func (h *Headless) Harvest(ctx context.Context, url string) (Page, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if h.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(h.userAgent))
	}
	if h.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(h.chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, fmt.Errorf("failed to render %s: %w", url, err)
	}

	return h.extractor.Extract(strings.NewReader(html))
}
