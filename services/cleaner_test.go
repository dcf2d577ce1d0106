package services

import (
	"testing"
	"time"

	"cruise-scraper/models"
	"cruise-scraper/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func intPtr(n int) *int { return &n }

func TestCleanerKeepsFailedCruises(t *testing.T) {
	c := NewCleaner(newTestLogger())
	result := &models.ExtractionResult{
		SourceURL: "https://example.test/cruises",
		Cruises: []*models.Cruise{
			{ID: "A", Name: "7 Night Western Caribbean", ShipName: "Icon of the Seas", Status: models.StatusComplete,
				Sailings: []models.Sailing{{SailingID: "A_2026-01-10"}}},
			{ID: "B", Name: "Failed One", Status: models.StatusFailed, Error: "detail open: timeout"},
			{ID: "C", Status: models.StatusComplete},
		},
	}

	rec := c.Clean(result, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if rec.TotalFound != 3 || rec.TotalProcessed != 2 {
		t.Fatalf("totals: got found=%d processed=%d, want 3/2", rec.TotalFound, rec.TotalProcessed)
	}
	if rec.Cruises[1].ID != "B" || rec.Cruises[1].Sailings == nil {
		t.Errorf("failed cruise should be kept with an empty sailings list: %+v", rec.Cruises[1])
	}
	if rec.Cruises[1].Metadata.Status != models.StatusFailed {
		t.Errorf("status not carried: %q", rec.Cruises[1].Metadata.Status)
	}
	if rec.Timestamp != "2026-01-02T03:04:05Z" {
		t.Errorf("timestamp: got %q", rec.Timestamp)
	}
}

func TestCleanerNormalisesText(t *testing.T) {
	c := NewCleaner(newTestLogger())
	result := &models.ExtractionResult{Cruises: []*models.Cruise{{
		ID:            " X ",
		Name:          "  4 Night\n Bahamas ",
		ShipName:      "Utopia  of the Seas",
		Nights:        intPtr(4),
		DeparturePort: " Orlando (Port Canaveral), Florida ",
		VisitingPorts: []string{" Nassau ", "", "Perfect Day at CocoCay"},
	}}}

	rec := c.Clean(result, time.Now())
	got := rec.Cruises[0]
	if got.ID != "X" || got.Name != "4 Night Bahamas" || got.Ship.Name != "Utopia of the Seas" {
		t.Errorf("text not normalised: %+v", got)
	}
	if got.Route.Departure != "Orlando (Port Canaveral), Florida" {
		t.Errorf("departure: got %q", got.Route.Departure)
	}
	if len(got.Route.Ports) != 2 || got.Route.Ports[0] != "Nassau" {
		t.Errorf("ports: got %v", got.Route.Ports)
	}
	if got.Nights == nil || *got.Nights != 4 {
		t.Errorf("nights: got %v", got.Nights)
	}
}
