package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/zhouzirui/profscope/backend/internal/config"
)

// ErrUnexpectedStatus is returned when a page fetch answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status fetching page")

// Page is what a harvester extracts from a professor profile.
type Page struct {
	// Name is the professor display name; empty when the page has none.
	Name     string
	Comments []string
	BodyText string
}

// Harvester fetches a profile page and extracts its contents. Static and headless
// strategies share this contract.
type Harvester interface {
	Harvest(ctx context.Context, url string) (Page, error)
}

// New selects the strategy named in cfg.
func New(cfg config.HarvestConfig) (Harvester, error) {
	extractor := NewExtractor(cfg.NameSelector, cfg.CommentSelector)

	switch cfg.Strategy {
	case config.HarvesterStatic, "":
		return NewStatic(extractor, cfg.UserAgent, nil), nil
	case config.HarvesterHeadless:
		return NewHeadless(extractor, cfg.UserAgent, cfg.ChromePath), nil
	default:
		return nil, fmt.Errorf("unknown harvester strategy: %s", cfg.Strategy)
	}
}
