package royalcaribbean

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"cruise-scraper/utils"
)

// fakeCard is one cruise card on the fake search page.
type fakeCard struct {
	ID    string
	Name  string
	Ship  string
	Tabs  []fakeTab
	Ports []string
}

// fakeTab is one date tab on a fake detail surface.
type fakeTab struct {
	Text   string // tab text, e.g. "Aug 22 - Aug 29 from £899"
	Label  string // active-month label shown while the tab is selected
	Prices map[string]string
}

// fakeSite is a scripted, in-memory stand-in for the cruise search page.
type fakeSite struct {
	mu sync.Mutex

	cards       []fakeCard
	visible     int
	step        int
	endless     bool
	loadMoreErr error

	navErr error

	open        string
	activeTab   int
	closeButton bool
	escapeErr   error

	failOpen  map[string]error
	failTab   map[string]int // cruise id → tab index whose click fails
	stuckTabs bool           // tab clicks succeed but the selection never moves
	panicOpen string

	suiteHTML    string
	suiteNavErr  error
	newTabErr    error
	tabs         []*fakeSuiteTab
	clicks       int
	escapes      int
	suiteVisited []string
}

func newFakeSite(cards ...fakeCard) *fakeSite {
	return &fakeSite{
		cards:       cards,
		visible:     len(cards),
		step:        1,
		closeButton: true,
		failOpen:    map[string]error{},
		failTab:     map[string]int{},
	}
}

func (s *fakeSite) render() string {
	var b strings.Builder
	b.WriteString("<html><body><main>")
	for i := 0; i < s.visible && i < len(s.cards); i++ {
		c := s.cards[i]
		fmt.Fprintf(&b, `<div data-testid="cruise-card-container-%d" data-group-id="%s" data-ship-code="IC" data-destination-code="CARIB" data-package-code="PKG%s" data-product-view-link="/gbr/en/itinerary/%s?country=IRL">`, i, c.ID, c.ID, c.ID)
		fmt.Fprintf(&b, `<h3 data-testid="cruise-name-label">%s</h3>`, c.Name)
		fmt.Fprintf(&b, `<span data-testid="cruise-ship-label">%s</span>`, c.Ship)
		b.WriteString(`<span data-testid="cruise-duration-label">7 Nights</span>`)
		b.WriteString(`<div data-testid="cruise-roundtrip-label"><span>Roundtrip from:</span> <span>Miami, Florida</span></div>`)
		b.WriteString(`<ul data-testid="cruise-ports-label">`)
		for _, p := range c.Ports {
			fmt.Fprintf(&b, "<li>%s</li>", p)
		}
		b.WriteString(`</ul>`)
		if len(c.Tabs) > 0 {
			fmt.Fprintf(&b, `<button data-testid="cruise-view-dates-button-%s">View dates</button>`, c.ID)
		}
		b.WriteString(`</div>`)
	}
	if s.endless || s.visible < len(s.cards) {
		b.WriteString(`<button data-testid="load-more-button">Load more</button>`)
	}
	b.WriteString("</main>")

	if card, ok := s.openCard(); ok {
		b.WriteString(`<div role="dialog">`)
		if s.closeButton {
			b.WriteString(`<button id="cruise-detail-close-button">Close</button>`)
		}
		b.WriteString(`<div role="tablist">`)
		for i, t := range card.Tabs {
			fmt.Fprintf(&b, `<div role="tab" aria-selected="%t">%s</div>`, i == s.activeTab, t.Text)
		}
		b.WriteString(`</div>`)
		if s.activeTab >= 0 && s.activeTab < len(card.Tabs) {
			t := card.Tabs[s.activeTab]
			fmt.Fprintf(&b, `<div class="RefinedCruiseCarouselActiveMonthLabel-sc-1">%s</div>`, t.Label)
			for _, rc := range roomClasses {
				price, ok := t.Prices[rc.Key]
				if !ok {
					continue
				}
				fmt.Fprintf(&b, `<div data-testid="room-view-card-container-%s"><span class="Price-currency">%s</span><span class="Price-amount">%s</span></div>`,
					rc.Code, price[:len("£")], price[len("£"):])
			}
		}
		b.WriteString(`</div>`)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func (s *fakeSite) openCard() (fakeCard, bool) {
	if s.open == "" {
		return fakeCard{}, false
	}
	for _, c := range s.cards {
		if c.ID == s.open {
			return c, true
		}
	}
	return fakeCard{}, false
}

func (s *fakeSite) Navigate(_ context.Context, _ string) error {
	return s.navErr
}

func (s *fakeSite) Snapshot(_ context.Context) (*goquery.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return goquery.NewDocumentFromReader(strings.NewReader(s.render()))
}

func (s *fakeSite) Click(_ context.Context, selector string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clicks++
	for _, c := range s.cards {
		if selector != viewDatesSelector("cruise-view-dates-button-"+c.ID) {
			continue
		}
		if c.ID == s.panicOpen {
			panic("renderer crashed")
		}
		if err := s.failOpen[c.ID]; err != nil {
			return err
		}
		s.open = c.ID
		s.activeTab = 0
		return nil
	}
	return fmt.Errorf("no element matches %s", selector)
}

func (s *fakeSite) ClickNth(_ context.Context, selector string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selector != selDateTab || s.open == "" {
		return fmt.Errorf("no element matches %s", selector)
	}
	if i, ok := s.failTab[s.open]; ok && i == index {
		return errors.New("tab detached")
	}
	if s.stuckTabs {
		return nil
	}
	s.activeTab = index
	return nil
}

func (s *fakeSite) ClickIfVisible(_ context.Context, selector string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch selector {
	case selLoadMore:
		if s.loadMoreErr != nil {
			return false, s.loadMoreErr
		}
		if s.endless {
			return true, nil
		}
		if s.visible >= len(s.cards) {
			return false, nil
		}
		s.visible += s.step
		if s.visible > len(s.cards) {
			s.visible = len(s.cards)
		}
		return true, nil
	case selDetailClose:
		if s.open == "" || !s.closeButton {
			return false, nil
		}
		s.open = ""
		return true, nil
	}
	return false, nil
}

func (s *fakeSite) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if selector == selCruiseCard && s.visible == 0 {
		return context.DeadlineExceeded
	}
	return nil
}

func (s *fakeSite) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (s *fakeSite) PressEscape(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.escapes++
	if s.escapeErr != nil {
		return s.escapeErr
	}
	s.open = ""
	return nil
}

func (s *fakeSite) NewTab(_ context.Context) (Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newTabErr != nil {
		return nil, s.newTabErr
	}
	t := &fakeSuiteTab{site: s}
	s.tabs = append(s.tabs, t)
	return t, nil
}

func (s *fakeSite) openTabs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.tabs {
		if !t.closed {
			n++
		}
	}
	return n
}

// fakeSuiteTab serves the site's suite page.
type fakeSuiteTab struct {
	site   *fakeSite
	url    string
	closed bool
}

func (t *fakeSuiteTab) Navigate(_ context.Context, url string) error {
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	t.url = url
	t.site.suiteVisited = append(t.site.suiteVisited, url)
	return t.site.suiteNavErr
}

func (t *fakeSuiteTab) Snapshot(_ context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(t.site.suiteHTML))
}

func (t *fakeSuiteTab) WaitVisible(_ context.Context, selector string, _ time.Duration) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(t.site.suiteHTML))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return context.DeadlineExceeded
	}
	return nil
}

func (t *fakeSuiteTab) Close() error {
	t.site.mu.Lock()
	defer t.site.mu.Unlock()
	t.closed = true
	return nil
}

const suitePage = `<html><body><div data-testid="stateroom-subtype-list">
<div data-testid="stateroom-subtype-card-1"><span data-testid="subtype-name">Grand Suite - 2 Bedroom</span><span data-testid="subtype-price">£5,120 per person</span></div>
<div data-testid="stateroom-subtype-card-2"><span data-testid="subtype-name">Owner's Suite &amp; Balcony</span><span data-testid="subtype-price">£7,400</span></div>
<div data-testid="stateroom-subtype-card-3"><span data-testid="subtype-name"></span><span data-testid="subtype-price">£1</span></div>
</div></body></html>`

func twoTabCard(id string) fakeCard {
	return fakeCard{
		ID:    id,
		Name:  "7 Night Western Caribbean " + id,
		Ship:  "Icon of the Seas",
		Ports: []string{"Nassau", "Cozumel"},
		Tabs: []fakeTab{
			{
				Text:   "Aug 22 - Aug 29 from £899",
				Label:  "Saturday 22 Aug - Saturday 29 Aug 2026",
				Prices: map[string]string{"interior": "£899", "balcony": "£1,450", "suite": "£2,100"},
			},
			{
				Text:   "Aug 29 - Sep 5 from £949",
				Label:  "Saturday 29 Aug - Saturday 5 Sep",
				Prices: map[string]string{"interior": "£949", "ocean_view": "£1,099"},
			},
		},
	}
}

func testLogger() *utils.Logger {
	return utils.NewNopLogger()
}
