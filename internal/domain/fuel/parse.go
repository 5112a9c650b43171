package fuel

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parsed is the typed result of reading one numeric cell.
type Parsed struct {
	Value decimal.Decimal
	Raw   string
	OK    bool
}

// Empty reports whether the cell held no value at all.
func (p Parsed) Empty() bool {
	return !p.OK && p.Raw == ""
}

// Or returns the parsed value, or fallback when parsing failed.
func (p Parsed) Or(fallback decimal.Decimal) decimal.Decimal {
	if p.OK {
		return p.Value
	}
	return fallback
}

// ParseDecimal reads a numeric cell as stored by a spreadsheet or a CSV file.
// Thousands separators (spaces) are dropped and a lone comma is read as the
// decimal separator. It never coerces; callers decide the fallback.
func ParseDecimal(value any) Parsed {
	switch v := value.(type) {
	case nil:
		return Parsed{}
	case decimal.Decimal:
		return Parsed{Value: v, Raw: v.String(), OK: true}
	case float64:
		return Parsed{Value: decimal.NewFromFloat(v), Raw: fmt.Sprint(v), OK: true}
	case float32:
		return Parsed{Value: decimal.NewFromFloat32(v), Raw: fmt.Sprint(v), OK: true}
	case int:
		return Parsed{Value: decimal.NewFromInt(int64(v)), Raw: fmt.Sprint(v), OK: true}
	case int64:
		return Parsed{Value: decimal.NewFromInt(v), Raw: fmt.Sprint(v), OK: true}
	}

	raw := strings.TrimSpace(fmt.Sprint(value))
	if raw == "" {
		return Parsed{}
	}

	normalized := strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(raw)
	if strings.Contains(normalized, ",") && !strings.Contains(normalized, ".") {
		normalized = strings.Replace(normalized, ",", ".", 1)
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Parsed{Raw: raw}
	}
	return Parsed{Value: d, Raw: raw, OK: true}
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// spreadsheetEpoch is day zero of spreadsheet date serial numbers.
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseDate reads a calendar date cell: a string in one of the accepted
// layouts, a time.Time, or a spreadsheet serial number. Time of day is dropped.
func ParseDate(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		y, m, d := v.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case float64:
		if v < 1 {
			return time.Time{}, fmt.Errorf("invalid date serial %v", v)
		}
		return spreadsheetEpoch.AddDate(0, 0, int(v)), nil
	}

	str := strings.TrimSpace(fmt.Sprint(value))
	if value == nil || str == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognised date %q", str)
}
