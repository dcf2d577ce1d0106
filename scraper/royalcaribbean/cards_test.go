package royalcaribbean

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func TestParseCards(t *testing.T) {
	site := newFakeSite(twoTabCard("IC07"), fakeCard{ID: "UT04", Name: "4 Night Bahamas"})
	cruises := parseCards(mustDoc(t, site.render()), "2026-10-15T09:00:00Z")

	if len(cruises) != 2 {
		t.Fatalf("cruises: got %d, want 2", len(cruises))
	}
	c := cruises[0]
	if c.ID != "IC07" || c.Name != "7 Night Western Caribbean IC07" || c.ShipName != "Icon of the Seas" {
		t.Errorf("identity: got %+v", c)
	}
	if c.Nights == nil || *c.Nights != 7 {
		t.Errorf("nights: got %v", c.Nights)
	}
	if c.DeparturePort != "Miami, Florida" {
		t.Errorf("departure: got %q", c.DeparturePort)
	}
	if diff := cmp.Diff([]string{"Nassau", "Cozumel"}, c.VisitingPorts); diff != "" {
		t.Errorf("ports (-want +got):\n%s", diff)
	}
	if c.PackageCode != "PKGIC07" || c.ShipCode != "IC" || c.DestinationCode != "CARIB" {
		t.Errorf("codes: got %s %s %s", c.PackageCode, c.ShipCode, c.DestinationCode)
	}
	if c.ViewDatesButtonID != "cruise-view-dates-button-IC07" {
		t.Errorf("view dates id: got %q", c.ViewDatesButtonID)
	}
	if c.ScrapedAt != "2026-10-15T09:00:00Z" {
		t.Errorf("scraped at: got %q", c.ScrapedAt)
	}

	if cruises[1].ViewDatesButtonID != "" || len(cruises[1].VisitingPorts) != 0 {
		t.Errorf("second card: got %+v", cruises[1])
	}
}

func TestCountCardsIgnoresRepeats(t *testing.T) {
	html := `<div data-testid="cruise-card-container-0" data-group-id="A"></div>
<div data-testid="cruise-card-container-1" data-group-id="A"></div>
<div data-testid="cruise-card-container-2" data-group-id="B"></div>`
	if got := countCards(mustDoc(t, html)); got != 2 {
		t.Errorf("countCards: got %d, want 2", got)
	}
}

func TestParseDateTabs(t *testing.T) {
	doc := mustDoc(t, `<div role="tablist">
<div role="tab">Aug 22 - Aug 29 from £899</div>
<div role="tab">More dates</div>
<div role="tab">Sep 5 - Sep 12</div>
</div>`)

	selector, tabs := parseDateTabs(doc)
	if selector != selDateTab {
		t.Errorf("selector: got %q", selector)
	}
	want := []dateTab{
		{Index: 0, DateText: "Aug 22 - Aug 29", BasePrice: "£899"},
		{Index: 2, DateText: "Sep 5 - Sep 12"},
	}
	if diff := cmp.Diff(want, tabs); diff != "" {
		t.Errorf("tabs (-want +got):\n%s", diff)
	}
}

func TestParseDateTabsLooseFallback(t *testing.T) {
	doc := mustDoc(t, `<ul><li>Overview</li><li>Oct 3 - Oct 10 from $1,099</li></ul>`)

	selector, tabs := parseDateTabs(doc)
	if selector != selDateTabLoose {
		t.Errorf("selector: got %q", selector)
	}
	if len(tabs) != 1 || tabs[0].Index != 1 || tabs[0].BasePrice != "$1,099" {
		t.Errorf("tabs: got %+v", tabs)
	}
}

func TestTabActive(t *testing.T) {
	doc := mustDoc(t, `<div role="tab" aria-selected="false">a</div><div role="tab" aria-selected="true">b</div>`)
	if tabActive(doc, selDateTab, 0) {
		t.Error("tab 0 should be inactive")
	}
	if !tabActive(doc, selDateTab, 1) {
		t.Error("tab 1 should be active")
	}
	if tabActive(doc, selDateTab, 5) {
		t.Error("missing tab should be inactive")
	}
}

func TestContainerPrice(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"split parts", `<div id="c"><span class="Price-currency">£</span><span class="Price-amount">1,450</span></div>`, "£1,450"},
		{"nested wrapper", `<div id="c"><div class="PriceWrapper"><span class="price-symbol">€</span><span class="price-value">899</span></div></div>`, "€899"},
		{"text fallback", `<div id="c"><p>From $ 2,100 per person</p></div>`, "$2,100"},
		{"no price", `<div id="c"><p>Sold out</p></div>`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.html)
			if got := containerPrice(doc.Find("#c")); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRoomPricesRecordOrder(t *testing.T) {
	doc := mustDoc(t, `
<div data-testid="room-view-card-container-DELUXE"><span class="Price-currency">£</span><span class="Price-amount">2,100</span></div>
<div data-testid="room-view-card-container-INTERIOR"><span class="Price-currency">£</span><span class="Price-amount">899</span></div>
<div data-testid="room-view-card-container-OUTSIDE"><p>Unavailable</p></div>`)

	got := parseRoomPrices(doc)
	if len(got) != 2 || got[0].Key != "interior" || got[1].Key != "suite" || got[1].Value != "£2,100" {
		t.Errorf("prices: got %+v", got)
	}
}

func TestParseSuiteSubTiersDropsUnreadable(t *testing.T) {
	doc := mustDoc(t, `<div data-testid="stateroom-subtype-list">
<div data-testid="stateroom-subtype-card-1"><span data-testid="subtype-name">Royal Loft Suite</span><span data-testid="subtype-price">Sold out</span></div>
<div data-testid="stateroom-subtype-card-2"><span data-testid="subtype-name">Crown Loft Suite</span><span data-testid="subtype-price">$3,210.50 avg per person</span></div>
</div>`)

	got := parseSuiteSubTiers(doc)
	if len(got) != 1 || got[0].Key != "crown_loft_suite" || got[0].Value != 3210.5 {
		t.Errorf("tiers: got %+v", got)
	}
}
