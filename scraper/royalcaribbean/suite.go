package royalcaribbean

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"cruise-scraper/models"
	"cruise-scraper/utils"
)

// SuiteFetcher reads the suite sub-tier prices of one sailing.
type SuiteFetcher interface {
	Lookup(ctx context.Context, cruise *models.Cruise, isoDate string) ([]models.RoomPrice, error)
}

// SuiteLookup opens the room-selection page of a sailing in its own tab and
// reads the named suite sub-tiers. The tab is closed on every return path.
type SuiteLookup struct {
	page    Page
	baseURL string
	timeout time.Duration
	logger  *utils.Logger
}

func NewSuiteLookup(page Page, baseURL string, timeout time.Duration, logger *utils.Logger) *SuiteLookup {
	return &SuiteLookup{
		page:    page,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}
}

func (s *SuiteLookup) Lookup(ctx context.Context, cruise *models.Cruise, isoDate string) ([]models.RoomPrice, error) {
	target, err := roomSelectionURL(s.baseURL, cruise, isoDate)
	if err != nil {
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	tab, err := s.page.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("suite: open tab: %w", err)
	}
	defer func() {
		if cerr := tab.Close(); cerr != nil {
			s.logger.Warn("[suite] Closing tab for %s failed: %v", cruise.ID, cerr)
		}
	}()

	s.logger.Debug("[suite] %s %s → %s", cruise.ID, isoDate, target)
	if err := tab.Navigate(ctx, target); err != nil {
		return nil, fmt.Errorf("suite: navigate: %w", err)
	}
	if err := tab.WaitVisible(ctx, selSuitePanel, s.timeout); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSuitePanel, err)
	}

	doc, err := tab.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("suite: snapshot: %w", err)
	}
	return parseSuiteSubTiers(doc), nil
}

// roomSelectionURL builds the room-selection address for one sailing with
// the suite class preselected. Query parameters already present on the
// product link are carried over.
func roomSelectionURL(baseURL string, cruise *models.Cruise, isoDate string) (string, error) {
	u, err := url.Parse(baseURL + "/booking/room-selection")
	if err != nil {
		return "", fmt.Errorf("suite: base url: %w", err)
	}

	q := url.Values{}
	if cruise.ProductLink != "" {
		if link, err := url.Parse(cruise.ProductLink); err == nil {
			for k, v := range link.Query() {
				q[k] = v
			}
		}
	}
	if cruise.PackageCode != "" {
		q.Set("packageCode", cruise.PackageCode)
	}
	if cruise.ShipCode != "" {
		q.Set("shipCode", cruise.ShipCode)
	}
	if q.Get("packageCode") == "" {
		return "", errors.New("suite: listing has no package code")
	}
	q.Set("groupId", cruise.ID)
	q.Set("sailDate", isoDate)
	q.Set("roomTypeCode", suiteRoomClass)

	u.RawQuery = q.Encode()
	return u.String(), nil
}

// mergeSuiteTiers renames the generic suite price to suite_guarantee and
// adds each sub-tier. Sub-tiers named like either generic key get a
// "_subtier" suffix so they cannot replace it. Nothing changes when tiers is
// empty.
func mergeSuiteTiers(s *models.Sailing, tiers []models.RoomPrice) {
	if len(tiers) == 0 {
		return
	}
	s.RenamePrice("suite", "suite_guarantee")
	for _, t := range tiers {
		key := t.Key
		if key == "suite" || key == "suite_guarantee" {
			key += "_subtier"
		}
		s.SetPrice(key, t.Value)
	}
}
