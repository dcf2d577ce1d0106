package services

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"cruise-scraper/models"
)

// nonRoomTypeKeys are sailing fields that never become pricing rows.
var nonRoomTypeKeys = map[string]bool{
	models.KeySailingID: true,
	models.KeyTimestamp: true,
	models.KeyDateRange: true,
	models.KeyBasePrice: true,
}

var (
	currencyStripper = strings.NewReplacer("£", "", "€", "", "$", "", ",", "")
	plainAmount      = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// Flatten emits one row per (cruise, sailing, priced room type), in cruise,
// sailing, then field order. Fields whose value is not numeric or
// numeric-looking produce nothing.
func Flatten(rec *models.CleanedRecord) []models.PricingRow {
	var rows []models.PricingRow

	for _, cruise := range rec.Cruises {
		nights := ""
		if cruise.Nights != nil {
			nights = strconv.Itoa(*cruise.Nights)
		}

		for _, sailing := range cruise.Sailings {
			date := ""
			if sailing.Date != nil {
				date = *sailing.Date
			}

			for _, p := range sailing.Prices {
				if nonRoomTypeKeys[p.Key] {
					continue
				}
				price, ok := NumericPrice(p.Value)
				if !ok {
					continue
				}

				rows = append(rows, models.PricingRow{
					ScrapeTimestamp: rec.Timestamp,
					SourceURL:       rec.SourceURL,
					CruiseID:        cruise.ID,
					CruiseName:      cruise.Name,
					Nights:          nights,
					ShipName:        cruise.Ship.Name,
					ShipCode:        cruise.Ship.Code,
					Departure:       cruise.Route.Departure,
					DestinationCode: cruise.Route.DestinationCode,
					SailingID:       sailing.SailingID,
					SailingDate:     date,
					RoomType:        RoomTypeLabel(p.Key),
					Price:           price,
				})
			}
		}
	}

	return rows
}

// RoomTypeLabel turns a field key into its display label: "ocean_view" →
// "Ocean View".
func RoomTypeLabel(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

// titleWord upper-cases the first letter of each alphabetic run and
// lower-cases the rest, so "2-bedroom" becomes "2-Bedroom".
func titleWord(w string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// NumericPrice reports whether v is a number or a string that reads as one
// once currency symbols, thousands separators and spaces are removed, and
// returns the normalised number text.
func NumericPrice(v any) (string, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return "", false
		}
		return formatPrice(f)
	case float64:
		return formatPrice(t)
	case float32:
		return formatPrice(float64(t))
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case string:
		return ParsePriceText(t)
	default:
		return "", false
	}
}

// ParsePriceText normalises price text such as "£1,234" to "1234". Only
// plain decimal amounts are accepted: no signs, exponents or hex.
func ParsePriceText(s string) (string, bool) {
	cleaned := strings.Join(strings.Fields(currencyStripper.Replace(s)), "")
	if !plainAmount.MatchString(cleaned) {
		return "", false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return "", false
	}
	return formatPrice(f)
}

func formatPrice(f float64) (string, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}
	return strconv.FormatFloat(f, 'f', -1, 64), true
}
