package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ExtractionStatus records how far detail extraction got for one cruise.
type ExtractionStatus string

const (
	StatusComplete ExtractionStatus = "complete"
	StatusPartial  ExtractionStatus = "partial"
	StatusFailed   ExtractionStatus = "failed"
)

// Cruise is one paginated listing card, enriched in place with its sailings
// once the detail surface has been processed.
type Cruise struct {
	ScrapedAt       string   `json:"scraped_at"`
	ID              string   `json:"id"`
	ShipCode        string   `json:"ship_code"`
	DestinationCode string   `json:"destination_code"`
	PackageCode     string   `json:"package_code"`
	ProductLink     string   `json:"product_link"`
	Name            string   `json:"name"`
	ShipName        string   `json:"ship_name"`
	NightsText      string   `json:"nights_text"`
	Nights          *int     `json:"nights,omitempty"`
	DeparturePort   string   `json:"departure_port"`
	VisitingPorts   []string `json:"visiting_ports"`

	// ViewDatesButtonID is the test id of the affordance that opens the
	// detail surface. Empty when the card has none.
	ViewDatesButtonID string `json:"view_dates_button_id,omitempty"`

	Sailings []Sailing        `json:"sailings"`
	Status   ExtractionStatus `json:"status"`
	Error    string           `json:"error,omitempty"`
}

// HasSailing reports whether a sailing with the given id is already attached.
func (c *Cruise) HasSailing(sailingID string) bool {
	for i := range c.Sailings {
		if c.Sailings[i].SailingID == sailingID {
			return true
		}
	}
	return false
}

// RoomPrice is one priced room tier of a sailing. Value is whatever the page
// yielded: display text such as "£1,234" for the main tiers, a number for
// suite sub-tiers.
type RoomPrice struct {
	Key   string
	Value any
}

// Sailing is one dated instance of a cruise with its prices.
//
// The JSON form is a flat object: the four fixed keys followed by one key per
// room tier, in the order the tiers were recorded. The order survives a
// decode/encode round trip.
type Sailing struct {
	SailingID string
	Date      *string // ISO start date, nil when the label could not be resolved
	DateRange string
	BasePrice string
	Prices    []RoomPrice
}

// Fixed, non-price keys of the sailing JSON object.
const (
	KeySailingID = "sailing_id"
	KeyTimestamp = "timestamp"
	KeyDateRange = "date_range"
	KeyBasePrice = "base_price"
)

// Price returns the value stored for key.
func (s *Sailing) Price(key string) (any, bool) {
	for _, p := range s.Prices {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// SetPrice overwrites key in place or appends it.
func (s *Sailing) SetPrice(key string, value any) {
	for i := range s.Prices {
		if s.Prices[i].Key == key {
			s.Prices[i].Value = value
			return
		}
	}
	s.Prices = append(s.Prices, RoomPrice{Key: key, Value: value})
}

// RenamePrice renames from to to, keeping its position.
func (s *Sailing) RenamePrice(from, to string) bool {
	for i := range s.Prices {
		if s.Prices[i].Key == from {
			s.Prices[i].Key = to
			return true
		}
	}
	return false
}

func (s Sailing) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	write := func(key string, value any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		v, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("sailing %s: field %q: %w", s.SailingID, key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
		return nil
	}

	if err := write(KeySailingID, s.SailingID); err != nil {
		return nil, err
	}
	if err := write(KeyTimestamp, s.Date); err != nil {
		return nil, err
	}
	if err := write(KeyDateRange, s.DateRange); err != nil {
		return nil, err
	}
	var base any
	if s.BasePrice != "" {
		base = s.BasePrice
	}
	if err := write(KeyBasePrice, base); err != nil {
		return nil, err
	}
	for _, p := range s.Prices {
		if err := write(p.Key, p.Value); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Sailing) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("sailing: expected object, got %v", tok)
	}

	*s = Sailing{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("sailing: unexpected key token %v", tok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("sailing: field %q: %w", key, err)
		}

		switch key {
		case KeySailingID:
			s.SailingID = scalarText(value)
		case KeyTimestamp:
			if text := scalarText(value); text != "" {
				s.Date = &text
			}
		case KeyDateRange:
			s.DateRange = scalarText(value)
		case KeyBasePrice:
			s.BasePrice = scalarText(value)
		default:
			s.Prices = append(s.Prices, RoomPrice{Key: key, Value: value})
		}
	}

	_, err = dec.Token()
	return err
}

func scalarText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
