package royalcaribbean

import "fmt"

const (
	selCruiseCard     = `[data-testid*="cruise-card-container"]`
	selLoadMore       = `button[data-testid="load-more-button"]`
	selCardName       = `[data-testid*="cruise-name-label"]`
	selCardShip       = `[data-testid*="cruise-ship-label"]`
	selCardDuration   = `[data-testid*="cruise-duration-label"]`
	selCardDeparture  = `[data-testid*="cruise-roundtrip-label"] span:nth-child(2)`
	selCardPorts      = `[data-testid*="cruise-ports-label"] li`
	selCardViewDates  = `[data-testid*="cruise-view-dates-button"]`
	selDateTab        = `[role="tab"]`
	selDateTabLoose   = `li, div[class*="Tab"], div[class*="tab"]`
	selActiveMonth    = `[class*="ActiveMonthLabel"]`
	selPricePart      = `[class*="Price"], [class*="price"]`
	selDetailClose    = `#cruise-detail-close-button`
	selRoomContainers = `[data-testid^="room-view-card-container-"]`

	selSuitePanel     = `[data-testid="stateroom-subtype-list"]`
	selSuiteCard      = `[data-testid*="stateroom-subtype-card"]`
	selSuiteCardName  = `[data-testid*="subtype-name"]`
	selSuiteCardPrice = `[data-testid*="subtype-price"]`
)

// roomClasses maps price keys to the room class codes the site uses in its
// container test ids, in the order tiers are recorded.
var roomClasses = []struct {
	Key  string
	Code string
}{
	{"interior", "INTERIOR"},
	{"ocean_view", "OUTSIDE"},
	{"balcony", "BALCONY"},
	{"suite", "DELUXE"},
}

const suiteRoomClass = "DELUXE"

func roomContainerSelector(code string) string {
	return fmt.Sprintf(`[data-testid="room-view-card-container-%s"]`, code)
}

func viewDatesSelector(testID string) string {
	return fmt.Sprintf(`[data-testid="%s"]`, testID)
}
