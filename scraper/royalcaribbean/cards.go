package royalcaribbean

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"cruise-scraper/models"
	"cruise-scraper/services"
	"cruise-scraper/utils"
)

var (
	nightsRegexp     = regexp.MustCompile(`(?i)(\d+)\s*Night`)
	tabDateRegexp    = regexp.MustCompile(`([A-Z][a-z]{2}\s+\d+\s*-\s*[A-Z][a-z]{2}\s+\d+)`)
	basePriceRegexp  = regexp.MustCompile(`[€£$]\s*[\d,]+`)
	amountRegexp     = regexp.MustCompile(`[€£$]\s*[\d,]+(?:\.\d+)?`)
	currencyRegexp   = regexp.MustCompile(`^[€£$]`)
	digitsRegexp     = regexp.MustCompile(`^\d+`)
	priceSplitRegexp = regexp.MustCompile(`([€£$])\s*([\d,]+)`)
	nonAlnumRegexp   = regexp.MustCompile(`[^a-z0-9]+`)
)

// textOf returns the element text with whitespace runs collapsed.
func textOf(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

// parseCards reads every cruise card in document order. Cards may repeat;
// deduplication is the caller's job.
func parseCards(doc *goquery.Document, scrapedAt string) []*models.Cruise {
	var cruises []*models.Cruise

	doc.Find(selCruiseCard).Each(func(_ int, card *goquery.Selection) {
		id := strings.TrimSpace(card.AttrOr("data-group-id", ""))
		if id == "" {
			id = strings.TrimSpace(card.AttrOr("id", ""))
		}

		c := &models.Cruise{
			ScrapedAt:       scrapedAt,
			ID:              id,
			ShipCode:        card.AttrOr("data-ship-code", ""),
			DestinationCode: card.AttrOr("data-destination-code", ""),
			PackageCode:     card.AttrOr("data-package-code", ""),
			ProductLink:     card.AttrOr("data-product-view-link", ""),
			Name:            textOf(card.Find(selCardName).First()),
			ShipName:        textOf(card.Find(selCardShip).First()),
			NightsText:      textOf(card.Find(selCardDuration).First()),
			DeparturePort:   textOf(card.Find(selCardDeparture).First()),
			VisitingPorts:   []string{},
			Sailings:        []models.Sailing{},
			Status:          models.StatusComplete,
		}
		c.ViewDatesButtonID = card.Find(selCardViewDates).First().AttrOr("data-testid", "")

		if m := nightsRegexp.FindStringSubmatch(c.NightsText); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				c.Nights = &n
			}
		}

		card.Find(selCardPorts).Each(func(_ int, li *goquery.Selection) {
			c.VisitingPorts = append(c.VisitingPorts, textOf(li))
		})

		cruises = append(cruises, c)
	})

	return cruises
}

// countCards returns the number of distinct card ids in the document.
func countCards(doc *goquery.Document) int {
	ids := utils.NewIDSet()
	doc.Find(selCruiseCard).Each(func(_ int, card *goquery.Selection) {
		id := card.AttrOr("data-group-id", "")
		if id == "" {
			id = card.AttrOr("id", "")
		}
		ids.Add(id)
	})
	return ids.Size()
}

// dateTab is one date affordance on the detail surface. Index is the
// element's position among all matches of the selector it was found with.
type dateTab struct {
	Index     int
	DateText  string
	BasePrice string
}

// parseDateTabs returns the selector the tabs were found with and the tabs
// whose text carries a date range.
func parseDateTabs(doc *goquery.Document) (string, []dateTab) {
	selector := selDateTab
	matches := doc.Find(selDateTab)
	if matches.Length() == 0 {
		selector = selDateTabLoose
		matches = doc.Find(selDateTabLoose)
	}

	var tabs []dateTab
	matches.Each(func(i int, el *goquery.Selection) {
		text := textOf(el)
		m := tabDateRegexp.FindString(text)
		if m == "" {
			return
		}
		tabs = append(tabs, dateTab{
			Index:     i,
			DateText:  m,
			BasePrice: basePriceRegexp.FindString(text),
		})
	})
	return selector, tabs
}

// tabActive reports whether the index-th tab is marked selected. Tabs
// without an aria-selected attribute are assumed active.
func tabActive(doc *goquery.Document, selector string, index int) bool {
	el := doc.Find(selector).Eq(index)
	if el.Length() == 0 {
		return false
	}
	selected, ok := el.Attr("aria-selected")
	return !ok || selected == "true"
}

func activeMonthLabel(doc *goquery.Document) string {
	return textOf(doc.Find(selActiveMonth).First())
}

func roomCardsPresent(doc *goquery.Document) bool {
	return doc.Find(selRoomContainers).Length() > 0
}

// parseRoomPrices reads the display price of each main room tier that has a
// container on the page.
func parseRoomPrices(doc *goquery.Document) []models.RoomPrice {
	var prices []models.RoomPrice
	for _, rc := range roomClasses {
		container := doc.Find(roomContainerSelector(rc.Code)).First()
		if container.Length() == 0 {
			continue
		}
		if price := containerPrice(container); price != "" {
			prices = append(prices, models.RoomPrice{Key: rc.Key, Value: price})
		}
	}
	return prices
}

// containerPrice combines the currency and amount parts of a room card,
// falling back to the first currency amount anywhere in its text.
func containerPrice(container *goquery.Selection) string {
	var currency, amount string
	container.Find(selPricePart).Each(func(_ int, el *goquery.Selection) {
		if el.Find(selPricePart).Length() > 0 {
			return
		}
		text := textOf(el)
		switch {
		case currencyRegexp.MatchString(text):
			currency = text
		case digitsRegexp.MatchString(text):
			amount = text
		}
	})

	if amount == "" {
		m := priceSplitRegexp.FindStringSubmatch(textOf(container))
		if m == nil {
			return ""
		}
		currency, amount = m[1], m[2]
	}
	return currency + amount
}

// parseSuiteSubTiers reads the named suite sub-tiers and their prices from
// the room-selection page. Tiers without a name or a readable price are
// dropped.
func parseSuiteSubTiers(doc *goquery.Document) []models.RoomPrice {
	var tiers []models.RoomPrice
	doc.Find(selSuiteCard).Each(func(_ int, card *goquery.Selection) {
		key := normalizeSubTierKey(textOf(card.Find(selSuiteCardName).First()))
		if key == "" {
			return
		}
		raw := textOf(card.Find(selSuiteCardPrice).First())
		if m := amountRegexp.FindString(raw); m != "" {
			raw = m
		}
		text, ok := services.ParsePriceText(raw)
		if !ok {
			return
		}
		price, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return
		}
		tiers = append(tiers, models.RoomPrice{Key: key, Value: price})
	})
	return tiers
}

// normalizeSubTierKey turns a display name like "Grand Suite - 2 Bedroom"
// into "grand_suite_2_bedroom".
func normalizeSubTierKey(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "&", " and ")
	key = nonAlnumRegexp.ReplaceAllString(key, "_")
	return strings.Trim(key, "_")
}
