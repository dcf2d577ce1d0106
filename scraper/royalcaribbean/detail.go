package royalcaribbean

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cruise-scraper/metrics"
	"cruise-scraper/models"
	"cruise-scraper/services"
	"cruise-scraper/utils"
)

// DetailConfig bounds the work done per listing.
type DetailConfig struct {
	MaxSailings  int           // date tabs visited per listing; 0 = unlimited
	OpenSettle   time.Duration // wait for date tabs after opening the surface
	TabSettle    time.Duration // wait for room cards after activating a tab
	CloseSettle  time.Duration
	PollInterval time.Duration
}

// DetailExtractor opens each listing's detail surface and records one
// sailing per date tab. Faults are contained to the listing being
// processed and reported through its Status.
type DetailExtractor struct {
	page     Page
	resolver *services.SailingDateResolver
	suite    SuiteFetcher
	cfg      DetailConfig
	logger   *utils.Logger
	metrics  *metrics.RunMetrics
}

// NewDetailExtractor wires an extractor for one run. resolver must be fresh
// for the run; suite may be nil to disable sub-tier lookups.
func NewDetailExtractor(page Page, resolver *services.SailingDateResolver, suite SuiteFetcher, cfg DetailConfig, logger *utils.Logger, m *metrics.RunMetrics) *DetailExtractor {
	return &DetailExtractor{
		page:     page,
		resolver: resolver,
		suite:    suite,
		cfg:      cfg,
		logger:   logger,
		metrics:  m,
	}
}

// Extract attaches sailings to c in place. It never returns an error: the
// outcome is recorded in c.Status and c.Error.
func (e *DetailExtractor) Extract(ctx context.Context, c *models.Cruise) {
	c.Sailings = []models.Sailing{}
	c.Status = models.StatusComplete
	c.Error = ""

	if c.ViewDatesButtonID == "" {
		e.metrics.ListingExtracted(c.Status, 0)
		return
	}

	opened := false
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("[detail] Panic while processing %s: %v", c.ID, r)
			markFault(c, fmt.Errorf("panic: %v", r))
		}
		if opened {
			if err := e.closeSurface(ctx); err != nil {
				e.logger.Warn("[detail] %s: %v", c.ID, err)
				markIsolated(c, err)
			}
		}
		e.metrics.ListingExtracted(c.Status, len(c.Sailings))
	}()

	if err := ctx.Err(); err != nil {
		markFault(c, err)
		return
	}

	if err := e.page.Click(ctx, viewDatesSelector(c.ViewDatesButtonID)); err != nil {
		e.logger.Warn("[detail] Failed to open %s: %v", c.ID, err)
		markFault(c, fmt.Errorf("%w: %v", ErrDetailOpen, err))
		return
	}
	opened = true

	selector, tabs, err := e.waitForTabs(ctx)
	if err != nil {
		e.logger.Warn("[detail] Failed to read date tabs for %s: %v", c.ID, err)
		markFault(c, err)
		return
	}
	if e.cfg.MaxSailings > 0 && len(tabs) > e.cfg.MaxSailings {
		tabs = tabs[:e.cfg.MaxSailings]
	}
	e.logger.Debug("[detail] %s: %d date tabs", c.ID, len(tabs))

	for _, tab := range tabs {
		if err := ctx.Err(); err != nil {
			markFault(c, err)
			return
		}
		if err := e.extractTab(ctx, c, selector, tab); err != nil {
			e.logger.Warn("[detail] %s tab %d (%s): %v", c.ID, tab.Index, tab.DateText, err)
			markIsolated(c, err)
		}
	}

	e.logger.Info("[detail] %s: %d sailings (%s)", c.ID, len(c.Sailings), c.Status)
}

// waitForTabs polls until date tabs render or OpenSettle elapses. A surface
// that never shows tabs yields no tabs, not an error.
func (e *DetailExtractor) waitForTabs(ctx context.Context) (string, []dateTab, error) {
	var (
		selector string
		tabs     []dateTab
		snapErr  error
	)
	_, err := utils.WaitUntil(ctx, e.cfg.PollInterval, e.cfg.OpenSettle, func(ctx context.Context) (bool, error) {
		doc, err := e.page.Snapshot(ctx)
		if err != nil {
			snapErr = err
			return false, err
		}
		snapErr = nil
		selector, tabs = parseDateTabs(doc)
		return len(tabs) > 0, nil
	})
	if err != nil {
		return "", nil, err
	}
	if snapErr != nil {
		return "", nil, fmt.Errorf("detail: snapshot: %w", snapErr)
	}
	return selector, tabs, nil
}

func (e *DetailExtractor) extractTab(ctx context.Context, c *models.Cruise, selector string, tab dateTab) error {
	if err := e.page.ClickNth(ctx, selector, tab.Index); err != nil {
		return fmt.Errorf("activate tab: %w", err)
	}

	var doc *goquery.Document
	settled, err := utils.WaitUntil(ctx, e.cfg.PollInterval, e.cfg.TabSettle, func(ctx context.Context) (bool, error) {
		d, err := e.page.Snapshot(ctx)
		if err != nil {
			return false, err
		}
		doc = d
		return roomCardsPresent(d) && tabActive(d, selector, tab.Index), nil
	})
	if err != nil {
		return err
	}
	if !settled || doc == nil {
		// The page may still show the previous tab; nothing on it belongs to this one.
		return fmt.Errorf("tab %d did not settle within %v", tab.Index, e.cfg.TabSettle)
	}

	label := activeMonthLabel(doc)
	if label == "" {
		label = tab.DateText
	}
	iso, display, ok := e.resolver.Resolve(label)

	sailing := models.Sailing{
		DateRange: display,
		BasePrice: tab.BasePrice,
		Prices:    parseRoomPrices(doc),
	}
	if ok {
		sailing.SailingID = c.ID + "_" + iso
		sailing.Date = &iso
	} else {
		sailing.SailingID = fmt.Sprintf("%s_tab%d", c.ID, tab.Index)
		e.logger.Debug("[detail] %s: unresolved date label %q", c.ID, label)
	}

	if c.HasSailing(sailing.SailingID) {
		e.logger.Debug("[detail] %s: duplicate sailing %s skipped", c.ID, sailing.SailingID)
		return nil
	}

	suiteErr := e.lookupSuites(ctx, c, &sailing, ok)
	c.Sailings = append(c.Sailings, sailing)
	return suiteErr
}

// lookupSuites merges suite sub-tiers into s when the sailing shows a suite
// price and its date is known.
func (e *DetailExtractor) lookupSuites(ctx context.Context, c *models.Cruise, s *models.Sailing, dated bool) error {
	if e.suite == nil {
		return nil
	}
	v, found := s.Price("suite")
	if text, isText := v.(string); !found || (isText && text == "") {
		return nil
	}
	if !dated {
		e.logger.Debug("[suite] %s: skipped, sailing date unresolved", s.SailingID)
		e.metrics.SuiteLookup(metrics.SuiteSkipped)
		return nil
	}

	tiers, err := e.suite.Lookup(ctx, c, *s.Date)
	if err != nil {
		e.metrics.SuiteLookup(metrics.SuiteFailed)
		return fmt.Errorf("suite lookup: %w", err)
	}
	if len(tiers) == 0 {
		e.metrics.SuiteLookup(metrics.SuiteEmpty)
		return nil
	}

	e.metrics.SuiteLookup(metrics.SuiteFound)
	mergeSuiteTiers(s, tiers)
	e.logger.Debug("[suite] %s: merged %d sub-tiers", s.SailingID, len(tiers))
	return nil
}

// closeSurface uses the close button when visible and falls back to Escape.
func (e *DetailExtractor) closeSurface(ctx context.Context) error {
	found, err := e.page.ClickIfVisible(ctx, selDetailClose)
	if err != nil || !found {
		if escErr := e.page.PressEscape(ctx); escErr != nil {
			return fmt.Errorf("close detail: %w", errors.Join(err, escErr))
		}
	}
	if err := e.page.Sleep(ctx, e.cfg.CloseSettle); err != nil {
		return fmt.Errorf("close detail: %w", err)
	}
	return nil
}

// markFault records a listing-level fault: failed when nothing was
// collected yet, partial otherwise.
func markFault(c *models.Cruise, err error) {
	if len(c.Sailings) == 0 {
		c.Status = models.StatusFailed
	} else {
		c.Status = models.StatusPartial
	}
	appendError(c, err)
}

// markIsolated records a fault that was contained to one tab or to the
// close step. A failed listing stays failed.
func markIsolated(c *models.Cruise, err error) {
	if c.Status != models.StatusFailed {
		c.Status = models.StatusPartial
	}
	appendError(c, err)
}

func appendError(c *models.Cruise, err error) {
	if c.Error == "" {
		c.Error = err.Error()
		return
	}
	c.Error += "; " + err.Error()
}
