package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cruise-scraper/utils"
)

const displayLayout = "Mon 2 Jan 2006"

var (
	// sailingRangeRegexp matches "<weekday>, <day> <month> [year] - <weekday>, <day> <month> [year]".
	sailingRangeRegexp = regexp.MustCompile(
		`(?i)([a-z]+)\.?,?\s+(\d{1,2})\s+([a-z]+)\.?(?:\s+(\d{4}))?\s*-\s*([a-z]+)\.?,?\s+(\d{1,2})\s+([a-z]+)\.?(?:\s+(\d{4}))?`)

	spaceReplacer = strings.NewReplacer(
		"\u00a0", " ", "\u2009", " ", "\u202f", " ", "\u2007", " ",
		"\u2013", "-", "\u2014", "-", "\u2212", "-",
	)

	months = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March,
		"apr": time.April, "may": time.May, "jun": time.June,
		"jul": time.July, "aug": time.August, "sep": time.September,
		"oct": time.October, "nov": time.November, "dec": time.December,
	}

	weekdays = map[string]bool{
		"mon": true, "tue": true, "wed": true, "thu": true, "fri": true, "sat": true, "sun": true,
	}
)

// SailingDateResolver turns date-range labels into ISO start dates. It carries
// the last resolved year across calls, so one instance must serve exactly one
// run: labels later in a run often omit the year shown on an earlier one.
type SailingDateResolver struct {
	now         func() time.Time
	carriedYear int
	logger      *utils.Logger
	mismatches  int
}

// NewSailingDateResolver returns a resolver with no carried year. now
// supplies the current-year fallback; nil means time.Now.
func NewSailingDateResolver(now func() time.Time) *SailingDateResolver {
	if now == nil {
		now = time.Now
	}
	return &SailingDateResolver{now: now}
}

// WithLogger makes the resolver report labels whose weekday disagrees with
// the date it resolved.
func (r *SailingDateResolver) WithLogger(logger *utils.Logger) *SailingDateResolver {
	r.logger = logger
	return r
}

// WeekdayMismatches counts resolved labels whose printed weekday did not
// match the resolved start or end date.
func (r *SailingDateResolver) WeekdayMismatches() int {
	return r.mismatches
}

// CarriedYear returns the year the next yearless label would inherit, or 0.
func (r *SailingDateResolver) CarriedYear() int {
	return r.carriedYear
}

// Resolve parses text and returns the ISO start date and a canonical display
// string. When text does not look like a date range, ok is false and display
// is text unchanged.
func (r *SailingDateResolver) Resolve(text string) (iso string, display string, ok bool) {
	normalized := strings.Join(strings.Fields(spaceReplacer.Replace(text)), " ")

	m := sailingRangeRegexp.FindStringSubmatch(normalized)
	if m == nil {
		return "", text, false
	}

	startDay, startMonth, ok1 := dayMonth(m[1], m[2], m[3])
	endDay, endMonth, ok2 := dayMonth(m[5], m[6], m[7])
	if !ok1 || !ok2 {
		return "", text, false
	}
	startYear, _ := strconv.Atoi(m[4])
	endYear, _ := strconv.Atoi(m[8])

	crossesYear := endMonth < startMonth || (endMonth == startMonth && endDay < startDay)

	var year int
	switch {
	case startYear > 0:
		year = startYear
	case endYear > 0:
		year = endYear
		if crossesYear {
			year--
		}
	case r.carriedYear > 0:
		year = r.carriedYear
	default:
		year = r.now().Year()
	}

	start, valid := calendarDate(year, startMonth, startDay)
	if !valid {
		return "", text, false
	}

	if endYear == 0 {
		endYear = year
		if crossesYear {
			endYear++
		}
	}
	end, valid := calendarDate(endYear, endMonth, endDay)
	if !valid {
		return "", text, false
	}

	r.carriedYear = year
	startOff := r.weekdayOff(text, m[1], start)
	if endOff := r.weekdayOff(text, m[5], end); startOff || endOff {
		r.mismatches++
	}
	return start.Format("2006-01-02"), start.Format(displayLayout) + " - " + end.Format(displayLayout), true
}

// weekdayOff only reports: the year stays with the label's year rules even
// when the weekday points at another year.
func (r *SailingDateResolver) weekdayOff(label, weekday string, date time.Time) bool {
	if prefix3(weekday) == prefix3(date.Weekday().String()) {
		return false
	}
	if r.logger != nil {
		r.logger.Debug("[dates] %q says %s but %s is a %s",
			label, weekday, date.Format("2006-01-02"), date.Weekday())
	}
	return true
}

func dayMonth(weekday, day, month string) (int, time.Month, bool) {
	if !weekdays[prefix3(weekday)] {
		return 0, 0, false
	}
	mon, ok := months[prefix3(month)]
	if !ok {
		return 0, 0, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return 0, 0, false
	}
	return d, mon, true
}

func prefix3(s string) string {
	s = strings.ToLower(s)
	if len(s) > 3 {
		return s[:3]
	}
	return s
}

// calendarDate rejects dates time.Date would silently normalise (31 Feb).
func calendarDate(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return t, t.Month() == month && t.Day() == day
}
