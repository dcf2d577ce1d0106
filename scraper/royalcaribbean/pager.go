package royalcaribbean

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cruise-scraper/metrics"
	"cruise-scraper/models"
	"cruise-scraper/utils"
)

// PagerConfig bounds pagination.
type PagerConfig struct {
	MaxCruises        int // 0 = unlimited
	MaxLoadIterations int
	LoadMoreSettle    time.Duration
	PollInterval      time.Duration
}

// Pager drives the "load more" control on the search page and reads the
// resulting cruise cards.
type Pager struct {
	page    Page
	cfg     PagerConfig
	logger  *utils.Logger
	metrics *metrics.RunMetrics
}

func NewPager(page Page, cfg PagerConfig, logger *utils.Logger, m *metrics.RunMetrics) *Pager {
	if cfg.MaxLoadIterations <= 0 {
		cfg.MaxLoadIterations = 100
	}
	return &Pager{page: page, cfg: cfg, logger: logger, metrics: m}
}

// Paginate clicks "load more" until the control disappears, the cruise cap
// is reached, or the iteration ceiling is hit. A failed click ends
// pagination; only context cancellation is returned as an error.
func (p *Pager) Paginate(ctx context.Context) (int, error) {
	clicks := 0
	for clicks < p.cfg.MaxLoadIterations {
		if err := ctx.Err(); err != nil {
			return clicks, err
		}

		count := 0
		if doc, err := p.page.Snapshot(ctx); err == nil {
			count = countCards(doc)
		} else {
			p.logger.Warn("[pager] Snapshot failed before click %d: %v", clicks+1, err)
		}
		p.logger.Info("[pager] Batch %d: %d cruises on page", clicks+1, count)

		if p.cfg.MaxCruises > 0 && count >= p.cfg.MaxCruises {
			p.logger.Info("[pager] Reached max cruises limit (%d)", p.cfg.MaxCruises)
			return clicks, nil
		}

		found, err := p.page.ClickIfVisible(ctx, selLoadMore)
		if err != nil {
			if ctx.Err() != nil {
				return clicks, ctx.Err()
			}
			p.logger.Info("[pager] Load more click failed, treating as complete: %v", err)
			return clicks, nil
		}
		if !found {
			p.logger.Info("[pager] No more cruises to load")
			return clicks, nil
		}

		clicks++
		p.metrics.PaginationClick()

		grew, err := utils.WaitUntil(ctx, p.cfg.PollInterval, p.cfg.LoadMoreSettle, func(ctx context.Context) (bool, error) {
			doc, err := p.page.Snapshot(ctx)
			if err != nil {
				return false, err
			}
			return countCards(doc) > count, nil
		})
		if err != nil {
			return clicks, err
		}
		if !grew {
			p.logger.Debug("[pager] No new cards within %v of click %d", p.cfg.LoadMoreSettle, clicks)
		}
	}

	p.logger.Warn("[pager] Reached maximum load iterations (%d)", p.cfg.MaxLoadIterations)
	return clicks, nil
}

// Extract reads every card on the page, keeps the first occurrence of each
// id and truncates to the cruise cap.
func (p *Pager) Extract(ctx context.Context, scrapedAt string) ([]*models.Cruise, error) {
	doc, err := p.page.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("pager: snapshot: %w", err)
	}
	return p.extractFrom(doc, scrapedAt), nil
}

func (p *Pager) extractFrom(doc *goquery.Document, scrapedAt string) []*models.Cruise {
	cards := parseCards(doc, scrapedAt)
	cruises := MergeListings(cards)

	if dropped := len(cards) - len(cruises); dropped > 0 {
		p.logger.Debug("[pager] Dropped %d duplicate or id-less cards", dropped)
	}
	if p.cfg.MaxCruises > 0 && len(cruises) > p.cfg.MaxCruises {
		cruises = cruises[:p.cfg.MaxCruises]
	}

	p.logger.Info("[pager] Extracted %d cruises", len(cruises))
	return cruises
}

// MergeListings concatenates batches keeping the first cruise seen for each
// id. Cruises without an id are dropped.
func MergeListings(batches ...[]*models.Cruise) []*models.Cruise {
	seen := utils.NewIDSet()
	var merged []*models.Cruise
	for _, batch := range batches {
		for _, c := range batch {
			if c == nil || !seen.Add(c.ID) {
				continue
			}
			merged = append(merged, c)
		}
	}
	return merged
}
