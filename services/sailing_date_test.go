package services

import (
	"testing"
	"time"

	"cruise-scraper/utils"
)

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.October, 15, 12, 0, 0, 0, time.UTC) }
}

func TestResolveExplicitEndYear(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2025))

	iso, display, ok := r.Resolve("Saturday 22 Aug - Saturday 29 Aug 2026")
	if !ok {
		t.Fatal("expected a match")
	}
	if iso != "2026-08-22" {
		t.Errorf("iso: got %q, want 2026-08-22", iso)
	}
	if display != "Sat 22 Aug 2026 - Sat 29 Aug 2026" {
		t.Errorf("display: got %q", display)
	}

	iso, _, ok = r.Resolve("Saturday 29 Aug - Saturday 5 Sep")
	if !ok || iso != "2026-08-29" {
		t.Errorf("yearless label should inherit 2026: got %q ok=%v", iso, ok)
	}
}

func TestResolveYearBoundary(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2030))

	iso, display, ok := r.Resolve("Tue 29 Dec - Fri 1 Jan 2027")
	if !ok {
		t.Fatal("expected a match")
	}
	if iso != "2026-12-29" {
		t.Errorf("iso: got %q, want 2026-12-29", iso)
	}
	if display != "Tue 29 Dec 2026 - Fri 1 Jan 2027" {
		t.Errorf("display: got %q", display)
	}
	if r.CarriedYear() != 2026 {
		t.Errorf("carried year: got %d, want 2026", r.CarriedYear())
	}
}

func TestResolvePriority(t *testing.T) {
	tests := []struct {
		name    string
		carried string // label resolved first to seed the carried year, or ""
		text    string
		wantISO string
	}{
		{"explicit start year wins", "Mon 5 Jan - Mon 12 Jan 2031", "Sun 3 May 2027 - Sun 10 May 2028", "2027-05-03"},
		{"end year beats carried state", "Mon 5 Jan - Mon 12 Jan 2031", "Sun 3 May - Sun 10 May 2027", "2027-05-03"},
		{"carried state beats clock", "Mon 5 Jan - Mon 12 Jan 2026", "Fri 3 Apr - Fri 10 Apr", "2026-04-03"},
		{"clock when nothing else", "", "Fri 3 Apr - Fri 10 Apr", "2025-04-03"},
		{"comma after weekday", "", "Friday, 3 April 2026 - Friday, 10 April 2026", "2026-04-03"},
		{"en dash and nbsp", "", "Sat 22\u00a0Aug \u2013 Sat 29 Aug 2026", "2026-08-22"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSailingDateResolver(fixedClock(2025))
			if tt.carried != "" {
				if _, _, ok := r.Resolve(tt.carried); !ok {
					t.Fatalf("seed label %q did not resolve", tt.carried)
				}
			}
			iso, _, ok := r.Resolve(tt.text)
			if !ok {
				t.Fatalf("Resolve(%q) did not match", tt.text)
			}
			if iso != tt.wantISO {
				t.Errorf("Resolve(%q) = %q, want %q", tt.text, iso, tt.wantISO)
			}
		})
	}
}

func TestResolveCarriesYearFromEveryBranch(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2025))

	if _, _, ok := r.Resolve("Thu 1 Oct - Thu 8 Oct"); !ok {
		t.Fatal("expected a match")
	}
	if r.CarriedYear() != 2025 {
		t.Errorf("clock fallback should be carried: got %d", r.CarriedYear())
	}
}

func TestResolveSoftFail(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2025))

	for _, text := range []string{
		"",
		"Select a date",
		"Aug 22 - Aug 29",
		"Saturday 22 Foo - Saturday 29 Bar 2026",
		"Mon 31 Feb - Tue 1 Mar 2026",
	} {
		iso, display, ok := r.Resolve(text)
		if ok || iso != "" {
			t.Errorf("Resolve(%q): got iso=%q ok=%v, want no match", text, iso, ok)
		}
		if display != text {
			t.Errorf("Resolve(%q): display should be the original text, got %q", text, display)
		}
	}
	if r.CarriedYear() != 0 {
		t.Errorf("failed parses must not set the carried year, got %d", r.CarriedYear())
	}
}

func TestResolverInstancesDoNotShareYear(t *testing.T) {
	first := NewSailingDateResolver(fixedClock(2025))
	first.Resolve("Sat 22 Aug - Sat 29 Aug 2029")

	second := NewSailingDateResolver(fixedClock(2025))
	iso, _, _ := second.Resolve("Fri 3 Apr - Fri 10 Apr")
	if iso != "2025-04-03" {
		t.Errorf("fresh resolver leaked a carried year: got %q", iso)
	}
}

func TestResolveCountsWeekdayMismatches(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2030)).WithLogger(utils.NewNopLogger())

	if _, _, ok := r.Resolve("Tue 29 Dec - Fri 1 Jan 2027"); !ok {
		t.Fatal("expected a match")
	}
	if r.WeekdayMismatches() != 0 {
		t.Fatalf("29 Dec 2026 is a Tuesday: got %d mismatches", r.WeekdayMismatches())
	}

	// The carried year is kept even though 1 Jan 2026 is a Thursday.
	iso, _, ok := r.Resolve("Fri 1 Jan - Fri 8 Jan")
	if !ok || iso != "2026-01-01" {
		t.Fatalf("got %q ok=%v, want 2026-01-01", iso, ok)
	}
	if r.WeekdayMismatches() != 1 {
		t.Errorf("mismatches: got %d, want 1", r.WeekdayMismatches())
	}
}

func TestResolveWithoutLoggerStillCounts(t *testing.T) {
	r := NewSailingDateResolver(fixedClock(2025))
	if _, _, ok := r.Resolve("Mon 22 Aug - Mon 29 Aug 2026"); !ok {
		t.Fatal("expected a match")
	}
	if r.WeekdayMismatches() != 1 {
		t.Errorf("22 Aug 2026 is a Saturday: got %d mismatches", r.WeekdayMismatches())
	}
}
