package harvest

import (
	"context"
	"fmt"
	"net/http"
)

// Static fetches the raw HTML over HTTP and parses it without running scripts.
type Static struct {
	client    *http.Client
	extractor *Extractor
	userAgent string
}

// NewStatic builds a static harvester; a nil client selects http.DefaultClient.
// Deadlines come from the caller's context.
func NewStatic(extractor *Extractor, userAgent string, client *http.Client) *Static {
	if client == nil {
		client = http.DefaultClient
	}
	return &Static{client: client, extractor: extractor, userAgent: userAgent}
}

func (s *Static) Harvest(ctx context.Context, url string) (Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Page{}, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Page{}, fmt.Errorf("%w: %s returned %s", ErrUnexpectedStatus, url, resp.Status)
	}

	return s.extractor.Extract(resp.Body)
}
