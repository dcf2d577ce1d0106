package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"cruise-scraper/models"
	"cruise-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate computes price analytics over exported pricing rows. Rows whose
// price column does not parse are counted in SkippedUnparseable and excluded
// from the price statistics.
func (s *InsightService) Generate(rows []models.PricingRow) *models.PriceInsightReport {
	report := &models.PriceInsightReport{
		RowsByDestination: make(map[string]int),
	}

	if len(rows) == 0 {
		return report
	}

	report.TotalRows = len(rows)

	cruises := make(map[string]struct{})
	sailings := make(map[string]struct{})
	byRoom := make(map[string]*roomAccumulator)
	var roomOrder []string

	for i := range rows {
		r := rows[i]
		cruises[r.CruiseID] = struct{}{}
		sailings[r.SailingID] = struct{}{}
		if r.DestinationCode != "" {
			report.RowsByDestination[r.DestinationCode]++
		}

		price, err := strconv.ParseFloat(r.Price, 64)
		if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
			report.SkippedUnparseable++
			continue
		}

		acc, ok := byRoom[r.RoomType]
		if !ok {
			acc = &roomAccumulator{min: price, max: price}
			byRoom[r.RoomType] = acc
			roomOrder = append(roomOrder, r.RoomType)
		}
		acc.add(price)

		if report.Cheapest == nil || price < report.CheapestPrice {
			row := r
			report.Cheapest = &row
			report.CheapestPrice = price
		}
	}

	report.DistinctCruises = len(cruises)
	report.DistinctSailings = len(sailings)

	for _, room := range roomOrder {
		acc := byRoom[room]
		report.RoomTypes = append(report.RoomTypes, models.RoomTypeStats{
			RoomType: room,
			Count:    acc.count,
			Min:      round2(acc.min),
			Average:  round2(acc.total / float64(acc.count)),
			Max:      round2(acc.max),
		})
	}
	sort.SliceStable(report.RoomTypes, func(i, j int) bool {
		return report.RoomTypes[i].Average < report.RoomTypes[j].Average
	})

	if report.SkippedUnparseable > 0 {
		s.logger.Warn("[insights] Skipped %d rows with unparseable prices", report.SkippedUnparseable)
	}

	return report
}

type roomAccumulator struct {
	count    int
	total    float64
	min, max float64
}

func (a *roomAccumulator) add(price float64) {
	a.count++
	a.total += price
	if price < a.min {
		a.min = price
	}
	if price > a.max {
		a.max = price
	}
}

// Print renders the report as a set of tables on w.
func (s *InsightService) Print(w io.Writer, r *models.PriceInsightReport) {
	overview := newTable(w, "Cruise Pricing Overview")
	overview.AppendRows([]table.Row{
		{"Pricing rows", r.TotalRows},
		{"Distinct cruises", r.DistinctCruises},
		{"Distinct sailings", r.DistinctSailings},
	})
	if r.SkippedUnparseable > 0 {
		overview.AppendRow(table.Row{"Unparseable prices", r.SkippedUnparseable})
	}
	overview.Render()

	rooms := newTable(w, "Prices by Room Type")
	rooms.AppendHeader(table.Row{"Room type", "Rows", "Min", "Average", "Max"})
	if len(r.RoomTypes) == 0 {
		rooms.AppendRow(table.Row{"No price data available", "", "", "", ""})
	}
	for _, rt := range r.RoomTypes {
		rooms.AppendRow(table.Row{rt.RoomType, rt.Count, money(rt.Min), money(rt.Average), money(rt.Max)})
	}
	rooms.Render()

	if r.Cheapest != nil {
		cheapest := newTable(w, "Cheapest Sailing")
		cheapest.AppendRows([]table.Row{
			{"Cruise", truncate(r.Cheapest.CruiseName, 50)},
			{"Ship", r.Cheapest.ShipName},
			{"Sailing", r.Cheapest.SailingID},
			{"Room type", r.Cheapest.RoomType},
			{"Price", money(r.CheapestPrice)},
		})
		cheapest.Render()
	}

	if len(r.RowsByDestination) > 0 {
		type destCount struct {
			code  string
			count int
		}
		var dests []destCount
		for code, n := range r.RowsByDestination {
			dests = append(dests, destCount{code, n})
		}
		sort.Slice(dests, func(i, j int) bool {
			if dests[i].count != dests[j].count {
				return dests[i].count > dests[j].count
			}
			return dests[i].code < dests[j].code
		})

		byDest := newTable(w, "Rows by Destination")
		byDest.AppendHeader(table.Row{"Destination", "Rows"})
		for _, d := range dests {
			byDest.AppendRow(table.Row{d.code, d.count})
		}
		byDest.Render()
	}
}

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(title)
	return t
}

func money(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
