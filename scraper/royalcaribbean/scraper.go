package royalcaribbean

import (
	"context"
	"fmt"
	"time"

	"cruise-scraper/config"
	"cruise-scraper/metrics"
	"cruise-scraper/models"
	"cruise-scraper/services"
	"cruise-scraper/utils"
)

// Scraper runs one full extraction against the cruise search page.
type Scraper struct {
	cfg     *config.Config
	page    Page
	logger  *utils.Logger
	metrics *metrics.RunMetrics
	now     func() time.Time
}

// New creates a Scraper that drives page.
func New(cfg *config.Config, page Page, logger *utils.Logger, m *metrics.RunMetrics) *Scraper {
	return &Scraper{cfg: cfg, page: page, logger: logger, metrics: m, now: time.Now}
}

// Scrape loads the search page, paginates, and extracts every listing's
// sailings. Navigation and listing-wait failures abort the run with an empty
// result; faults inside one listing only affect that listing.
func (s *Scraper) Scrape(ctx context.Context) (*models.ExtractionResult, error) {
	started := s.now()
	result := &models.ExtractionResult{
		SourceURL: s.cfg.CruisesURL,
		StartedAt: started,
		Cruises:   []*models.Cruise{},
	}

	s.logger.Info("[scraper] Starting Royal Caribbean scrape")
	s.logger.Info("[scraper] URL: %s", s.cfg.CruisesURL)
	if s.cfg.MaxCruises > 0 {
		s.logger.Info("[scraper] Max cruises: %d, max sailings: %d", s.cfg.MaxCruises, s.cfg.MaxSailings)
	}

	navCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.cfg.NavTimeout > 0 {
		navCtx, cancel = context.WithTimeout(ctx, s.cfg.NavTimeout)
	}
	err := s.page.Navigate(navCtx, s.cfg.CruisesURL)
	cancel()
	if err != nil {
		s.logger.Error("[scraper] Navigation failed: %v", err)
		return result, fmt.Errorf("%w: %v", ErrNavigation, err)
	}

	if err := s.page.WaitVisible(ctx, selCruiseCard, s.cfg.ListingWaitTimeout); err != nil {
		s.logger.Error("[scraper] Cruise cards never appeared: %v", err)
		return result, fmt.Errorf("%w: %v", ErrListingsNotFound, err)
	}
	if err := s.page.Sleep(ctx, s.cfg.SettleDelay); err != nil {
		return result, err
	}
	s.dismissConsent(ctx)

	pager := NewPager(s.page, PagerConfig{
		MaxCruises:        s.cfg.MaxCruises,
		MaxLoadIterations: s.cfg.MaxLoadIterations,
		LoadMoreSettle:    s.cfg.LoadMoreSettle,
		PollInterval:      s.cfg.PollInterval,
	}, s.logger, s.metrics)

	clicks, err := pager.Paginate(ctx)
	if err != nil {
		return result, fmt.Errorf("scraper: paginate: %w", err)
	}
	s.logger.Info("[scraper] Pagination finished after %d load-more clicks", clicks)

	cruises, err := pager.Extract(ctx, started.UTC().Format(time.RFC3339))
	if err != nil {
		return result, fmt.Errorf("scraper: %w", err)
	}
	s.metrics.ListingsFound(len(cruises))

	var suite SuiteFetcher
	if s.cfg.BaseURL != "" {
		suite = NewSuiteLookup(s.page, s.cfg.BaseURL, s.cfg.SuiteTimeout, s.logger)
	}
	detail := NewDetailExtractor(s.page, services.NewSailingDateResolver(s.now).WithLogger(s.logger), suite, DetailConfig{
		MaxSailings:  s.cfg.MaxSailings,
		OpenSettle:   s.cfg.SettleDelay + s.cfg.LoadMoreSettle,
		TabSettle:    s.cfg.TabSettle,
		CloseSettle:  s.cfg.TabSettle,
		PollInterval: s.cfg.PollInterval,
	}, s.logger, s.metrics)

	for i, c := range cruises {
		s.logger.Info("[scraper] Processing cruise %d/%d: %s", i+1, len(cruises), c.Name)
		detail.Extract(ctx, c)
	}

	result.Cruises = cruises
	summary := result.Summary()
	s.logger.Info("[scraper] Extracted %d cruises (%d complete, %d partial, %d failed), %d sailings",
		len(cruises), summary.Complete, summary.Partial, summary.Failed, summary.Sailings)
	return result, nil
}

func (s *Scraper) dismissConsent(ctx context.Context) {
	d, ok := s.page.(ConsentDismisser)
	if !ok {
		return
	}
	action, err := d.DismissConsent(ctx)
	switch {
	case err != nil:
		s.logger.Warn("[scraper] Cookie consent handling failed: %v", err)
	case action == "":
		s.logger.Info("[scraper] No cookie banner found")
	default:
		s.logger.Info("[scraper] Cookie banner %s", action)
	}
}
