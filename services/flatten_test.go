package services

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cruise-scraper/models"
)

const cleanedFixture = `{
  "timestamp": "2026-10-15T09:00:00Z",
  "source_url": "https://example.test/cruises",
  "total_found": 2,
  "total_processed": 2,
  "cruises": [
    {
      "id": "IC07WCR",
      "name": "7 Night Western Caribbean",
      "nights": 7,
      "ship": {"name": "Icon of the Seas", "code": "IC"},
      "sailings": [
        {"sailing_id": "IC07WCR_2026-01-10", "timestamp": "2026-01-10", "date_range": "Sat 10 Jan 2026 - Sat 17 Jan 2026", "base_price": "£899",
         "interior": "450", "ocean_view": "", "balcony": "sold out", "suite": 1200}
      ],
      "route": {"departure": "Miami, Florida", "destination_code": "CARIB", "ports": []},
      "metadata": {"package_code": "IC07W", "link": "/itinerary/x", "scraped_at": "2026-10-15T08:59:00Z"}
    },
    {
      "id": "UT04BH",
      "name": "4 Night Bahamas",
      "nights": null,
      "ship": {"name": "Utopia of the Seas", "code": "UT"},
      "sailings": [
        {"sailing_id": "UT04BH_tab0", "timestamp": null, "date_range": "soon", "base_price": null,
         "balcony": "£1,234.50", "suite_guarantee": "£2,000", "grand_suite_2_bedroom": 5120}
      ],
      "route": {"departure": "Orlando", "destination_code": "BAHAM", "ports": ["Nassau"]},
      "metadata": {"package_code": "UT04", "link": "", "scraped_at": ""}
    }
  ]
}`

func loadFixture(t *testing.T) *models.CleanedRecord {
	t.Helper()
	var rec models.CleanedRecord
	if err := json.Unmarshal([]byte(cleanedFixture), &rec); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	return &rec
}

func TestFlattenEmitsOnlyNumericFields(t *testing.T) {
	rows := Flatten(loadFixture(t))

	var first []models.PricingRow
	for _, r := range rows {
		if r.CruiseID == "IC07WCR" {
			first = append(first, r)
		}
	}

	base := models.PricingRow{
		ScrapeTimestamp: "2026-10-15T09:00:00Z",
		SourceURL:       "https://example.test/cruises",
		CruiseID:        "IC07WCR",
		CruiseName:      "7 Night Western Caribbean",
		Nights:          "7",
		ShipName:        "Icon of the Seas",
		ShipCode:        "IC",
		Departure:       "Miami, Florida",
		DestinationCode: "CARIB",
		SailingID:       "IC07WCR_2026-01-10",
		SailingDate:     "2026-01-10",
	}
	interior, suite := base, base
	interior.RoomType, interior.Price = "Interior", "450"
	suite.RoomType, suite.Price = "Suite", "1200"

	if diff := cmp.Diff([]models.PricingRow{interior, suite}, first); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenOrderAndLabels(t *testing.T) {
	rows := Flatten(loadFixture(t))

	var got []string
	for _, r := range rows {
		got = append(got, r.CruiseID+"|"+r.RoomType+"|"+r.Price+"|"+r.Nights+"|"+r.SailingDate)
	}
	want := []string{
		"IC07WCR|Interior|450|7|2026-01-10",
		"IC07WCR|Suite|1200|7|2026-01-10",
		"UT04BH|Balcony|1234.5||",
		"UT04BH|Suite Guarantee|2000||",
		"UT04BH|Grand Suite 2 Bedroom|5120||",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("row order mismatch (-want +got):\n%s", diff)
	}
}

func TestFlattenEmptyRecord(t *testing.T) {
	if rows := Flatten(&models.CleanedRecord{}); len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestRoomTypeLabel(t *testing.T) {
	tests := map[string]string{
		"interior":         "Interior",
		"ocean_view":       "Ocean View",
		"suite_guarantee":  "Suite Guarantee",
		"royal_loft_SUITE": "Royal Loft Suite",
		"owner's_suite":    "Owner'S Suite",
		"2-bedroom_suite":  "2-Bedroom Suite",
	}
	for in, want := range tests {
		if got := RoomTypeLabel(in); got != want {
			t.Errorf("RoomTypeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNumericPrice(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{"450", "450", true},
		{"£1,234", "1234", true},
		{"€ 99.90", "99.9", true},
		{"$2,000.00", "2000", true},
		{json.Number("1200"), "1200", true},
		{1500.5, "1500.5", true},
		{7, "7", true},
		{"", "", false},
		{"Sold out", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"0x1p3", "", false},
		{"1e3", "", false},
		{"-5", "", false},
		{"+5", "", false},
		{"12.", "", false},
		{"£ 1 234", "1234", true},
		{nil, "", false},
		{true, "", false},
	}
	for _, tt := range tests {
		got, ok := NumericPrice(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NumericPrice(%#v) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
