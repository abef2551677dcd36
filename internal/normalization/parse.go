package normalization

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"currency-crisis-lab/internal/domain"
)

// errEmpty marks an absent value. It is not reported as a parse error.
var errEmpty = errors.New("empty value")

var hundred = decimal.NewFromInt(100)

// gregorianLayouts are the accepted Gregorian date formats, tried in order.
var gregorianLayouts = []string{
	"2006/01/02",
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
}

// ParseNumber parses a locale-formatted number such as "1,234,500".
// Commas and spaces are thousands separators.
func ParseNumber(raw string) (float64, error) {
	s := cleanNumeric(raw)
	if s == "" {
		return 0, errEmpty
	}
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}

// ParsePercent parses a percent string into a fractional ratio.
// "-5.20%" -> -0.052. A single comma with no dot is a decimal separator ("5,20%").
func ParsePercent(raw string) (float64, error) {
	s := cleanNumeric(raw)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return 0, errEmpty
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return d.Div(hundred).InexactFloat64(), nil
}

// cleanNumeric trims whitespace, drops inner spaces and normalizes sign characters.
func cleanNumeric(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u2212", "-")
	s = strings.TrimPrefix(s, "+")
	if s == "-" || strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

// ParseGregorianDate parses a Gregorian date and truncates it to UTC midnight.
func ParseGregorianDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, errEmpty
	}
	for _, layout := range gregorianLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return domain.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// ParseJalaliDate parses a Persian calendar date in YYYY/MM/DD form.
// Only the calendar ranges are validated; no conversion to Gregorian is done.
func ParseJalaliDate(raw string) (*domain.JalaliDate, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errEmpty
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '/' || r == '-' })
	if len(parts) != 3 {
		return nil, fmt.Errorf("unrecognized persian date %q", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("unrecognized persian date %q", s)
		}
		nums[i] = n
	}
	d := &domain.JalaliDate{Year: nums[0], Month: nums[1], Day: nums[2]}
	if d.Month < 1 || d.Month > 12 || d.Day < 1 || d.Day > jalaliMonthDays(d.Month) {
		return nil, fmt.Errorf("persian date out of range %q", s)
	}
	return d, nil
}

// jalaliMonthDays returns the maximum day count of a Persian month.
// Esfand (12) is allowed 30 days to cover leap years.
func jalaliMonthDays(month int) int {
	if month <= 6 {
		return 31
	}
	return 30
}
