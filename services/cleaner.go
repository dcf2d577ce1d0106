package services

import (
	"strings"
	"time"
	"unicode"

	"cruise-scraper/models"
	"cruise-scraper/utils"
)

// Cleaner transforms the raw extraction result into the normalised record
// that the flatten step consumes.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean keeps every cruise that has a name or a ship name, including those
// whose detail extraction failed (they carry no sailings).
func (c *Cleaner) Clean(result *models.ExtractionResult, cleanedAt time.Time) *models.CleanedRecord {
	record := &models.CleanedRecord{
		Timestamp:  cleanedAt.Format(time.RFC3339),
		SourceURL:  result.SourceURL,
		TotalFound: len(result.Cruises),
		Cruises:    make([]models.CleanedCruise, 0, len(result.Cruises)),
	}

	for _, raw := range result.Cruises {
		name := normaliseText(raw.Name)
		shipName := normaliseText(raw.ShipName)
		if name == "" && shipName == "" {
			c.logger.Warn("[cleaner] Dropping cruise %q with neither name nor ship", raw.ID)
			continue
		}

		ports := make([]string, 0, len(raw.VisitingPorts))
		for _, p := range raw.VisitingPorts {
			if p = normaliseText(p); p != "" {
				ports = append(ports, p)
			}
		}

		sailings := raw.Sailings
		if sailings == nil {
			sailings = []models.Sailing{}
		}

		record.Cruises = append(record.Cruises, models.CleanedCruise{
			ID:     strings.TrimSpace(raw.ID),
			Name:   name,
			Nights: raw.Nights,
			Ship: models.ShipInfo{
				Name: shipName,
				Code: strings.TrimSpace(raw.ShipCode),
			},
			Sailings: sailings,
			Route: models.RouteInfo{
				Departure:       normaliseText(raw.DeparturePort),
				DestinationCode: strings.TrimSpace(raw.DestinationCode),
				Ports:           ports,
			},
			Metadata: models.CruiseMetadata{
				PackageCode: strings.TrimSpace(raw.PackageCode),
				Link:        strings.TrimSpace(raw.ProductLink),
				ScrapedAt:   raw.ScrapedAt,
				Status:      raw.Status,
			},
		})
	}

	record.TotalProcessed = len(record.Cruises)
	c.logger.Info("[cleaner] Cleaned %d → %d cruises (dropped %d)",
		record.TotalFound, record.TotalProcessed, record.TotalFound-record.TotalProcessed)
	return record
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}
