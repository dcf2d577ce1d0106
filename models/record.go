package models

import "time"

// ExtractionResult is the ordered output of one scrape run.
type ExtractionResult struct {
	SourceURL string
	StartedAt time.Time
	Cruises   []*Cruise
}

// ExtractionSummary counts cruises per extraction status.
type ExtractionSummary struct {
	Complete int `json:"complete"`
	Partial  int `json:"partial"`
	Failed   int `json:"failed"`
	Sailings int `json:"sailings"`
}

// Summary tallies the result's cruises by status.
func (r *ExtractionResult) Summary() ExtractionSummary {
	var s ExtractionSummary
	for _, c := range r.Cruises {
		switch c.Status {
		case StatusPartial:
			s.Partial++
		case StatusFailed:
			s.Failed++
		default:
			s.Complete++
		}
		s.Sailings += len(c.Sailings)
	}
	return s
}

// RawRecord wraps the result for the raw snapshot.
func (r *ExtractionResult) RawRecord(at time.Time) *RawRecord {
	cruises := r.Cruises
	if cruises == nil {
		cruises = []*Cruise{}
	}
	return &RawRecord{
		Timestamp: at.Format(time.RFC3339),
		URL:       r.SourceURL,
		Count:     len(cruises),
		Summary:   r.Summary(),
		Cruises:   cruises,
	}
}

// RawRecord is the unprocessed snapshot persisted under data/raw.
type RawRecord struct {
	Timestamp string            `json:"timestamp"`
	URL       string            `json:"url"`
	Count     int               `json:"count"`
	Summary   ExtractionSummary `json:"summary"`
	Cruises   []*Cruise         `json:"cruises"`
}

// CleanedRecord is the normalised snapshot persisted under data/processed and
// consumed by the flatten step.
type CleanedRecord struct {
	Timestamp      string          `json:"timestamp"`
	SourceURL      string          `json:"source_url"`
	TotalFound     int             `json:"total_found"`
	TotalProcessed int             `json:"total_processed"`
	Cruises        []CleanedCruise `json:"cruises"`
}

type CleanedCruise struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Nights   *int           `json:"nights"`
	Ship     ShipInfo       `json:"ship"`
	Sailings []Sailing      `json:"sailings"`
	Route    RouteInfo      `json:"route"`
	Metadata CruiseMetadata `json:"metadata"`
}

type ShipInfo struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type RouteInfo struct {
	Departure       string   `json:"departure"`
	DestinationCode string   `json:"destination_code"`
	Ports           []string `json:"ports"`
}

type CruiseMetadata struct {
	PackageCode string           `json:"package_code"`
	Link        string           `json:"link"`
	ScrapedAt   string           `json:"scraped_at"`
	Status      ExtractionStatus `json:"status,omitempty"`
}

// PricingColumns is the fixed column order of the tabular export.
var PricingColumns = []string{
	"scrape_timestamp",
	"source_url",
	"cruise_id",
	"cruise_name",
	"nights",
	"ship_name",
	"ship_code",
	"departure",
	"destination_code",
	"sailing_id",
	"sailing_date",
	"room_type",
	"price",
}

// PricingRow is one (cruise, sailing, room type) price.
type PricingRow struct {
	ScrapeTimestamp string
	SourceURL       string
	CruiseID        string
	CruiseName      string
	Nights          string
	ShipName        string
	ShipCode        string
	Departure       string
	DestinationCode string
	SailingID       string
	SailingDate     string
	RoomType        string
	Price           string
}

// Record returns the row's fields in PricingColumns order.
func (r PricingRow) Record() []string {
	return []string{
		r.ScrapeTimestamp,
		r.SourceURL,
		r.CruiseID,
		r.CruiseName,
		r.Nights,
		r.ShipName,
		r.ShipCode,
		r.Departure,
		r.DestinationCode,
		r.SailingID,
		r.SailingDate,
		r.RoomType,
		r.Price,
	}
}

// PricingRowFromRecord is the inverse of Record.
func PricingRowFromRecord(rec []string) PricingRow {
	field := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	return PricingRow{
		ScrapeTimestamp: field(0),
		SourceURL:       field(1),
		CruiseID:        field(2),
		CruiseName:      field(3),
		Nights:          field(4),
		ShipName:        field(5),
		ShipCode:        field(6),
		Departure:       field(7),
		DestinationCode: field(8),
		SailingID:       field(9),
		SailingDate:     field(10),
		RoomType:        field(11),
		Price:           field(12),
	}
}

// RoomTypeStats summarises the prices seen for one room type.
type RoomTypeStats struct {
	RoomType string
	Count    int
	Min      float64
	Average  float64
	Max      float64
}

// PriceInsightReport holds the computed analytics over exported pricing rows.
type PriceInsightReport struct {
	TotalRows          int
	DistinctCruises    int
	DistinctSailings   int
	RoomTypes          []RoomTypeStats
	Cheapest           *PricingRow
	CheapestPrice      float64
	RowsByDestination  map[string]int
	SkippedUnparseable int
}
