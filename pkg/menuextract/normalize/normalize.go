// Package normalize converts raw cell values into typed output fields.
//
// Every function is total: unparsable input yields an empty value or an
// explicit "not ok" result, never a panic or error.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	menuIDPattern     = regexp.MustCompile(`(?i)MENU\s*([A-Z0-9]+)`)
	bareIDPattern     = regexp.MustCompile(`^[A-Z]{1,2}\d{0,2}$`)
	timeWindowPattern = regexp.MustCompile(`(?i)(\d{2}:\d{2})\s*<\s*ETD\s*<\s*(\d{2}:\d{2})`)
	dateRangePattern  = regexp.MustCompile(`(\d{1,2})-(\d{1,2})\s*([A-Za-z]{3})\.?\s*(\d{4})`)
)

var months = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// Fold returns s trimmed, NFC-normalized and case-folded for keyword comparison.
func Fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Canonical returns s trimmed and NFC-normalized, for regexp matching.
func Canonical(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ContainsFold reports whether s contains keyword, ignoring case and
// Unicode composition. An empty keyword never matches.
func ContainsFold(s, keyword string) bool {
	kw := Fold(keyword)
	if kw == "" {
		return false
	}
	return strings.Contains(Fold(s), kw)
}

// Text returns the trimmed text of a cell.
func Text(c models.Cell) string {
	return c.Trimmed()
}

// Ratio renders a numeric ratio cell as a percentage string.
// Text cells pass through unchanged; empty cells yield nil.
func Ratio(c models.Cell) interface{} {
	switch {
	case c.Kind == models.KindNumber:
		if math.IsNaN(c.Number) || math.IsInf(c.Number, 0) {
			return nil
		}
		pct := math.Round(c.Number*100*1e6) / 1e6
		return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
	case c.IsEmpty():
		return nil
	}
	return c.Text
}

// Identifier extracts a menu identifier from free text.
// A "MENU <code>" prefix wins; otherwise a short standalone code is accepted
// only when it is the entire trimmed content. Returns "" when none is found.
func Identifier(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := menuIDPattern.FindStringSubmatch(s); m != nil {
		return strings.ToUpper(strings.TrimSpace(m[1]))
	}
	if bareIDPattern.MatchString(s) {
		return s
	}
	return ""
}

// TimeWindow is an ETD window bounded by two clock strings.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ParseTimeWindow extracts an "HH:MM < ETD < HH:MM" window embedded in s.
func ParseTimeWindow(s string) (TimeWindow, bool) {
	m := timeWindowPattern.FindStringSubmatch(s)
	if m == nil {
		return TimeWindow{}, false
	}
	return TimeWindow{Start: m[1], End: m[2]}, true
}

// DateRange is a pair of calendar dates in YYYY-MM-DD form.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// InvalidDateRange is returned alongside ok=false by ParseDateRange.
var InvalidDateRange = DateRange{}

// ParseDateRange parses a "D-D MON.YYYY" range such as "1-7 APR.2025".
// Dates that do not exist in the calendar (e.g. 31 April) are rejected.
func ParseDateRange(s string) (DateRange, bool) {
	m := dateRangePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return InvalidDateRange, false
	}
	month, ok := months[strings.ToUpper(m[3])]
	if !ok {
		return InvalidDateRange, false
	}
	year, err := strconv.Atoi(m[4])
	if err != nil {
		return InvalidDateRange, false
	}
	start, ok := calendarDate(year, month, m[1])
	if !ok {
		return InvalidDateRange, false
	}
	end, ok := calendarDate(year, month, m[2])
	if !ok {
		return InvalidDateRange, false
	}
	return DateRange{Start: start, End: end}, true
}

// calendarDate formats the date and reports whether it round-trips.
func calendarDate(year int, month time.Month, dayStr string) (string, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// Flag returns present when s contains token (case-insensitive), absent otherwise.
func Flag(s, token, present, absent string) string {
	if ContainsFold(s, token) {
		return present
	}
	return absent
}

// Code cleans a numeric employee code: any decimal part is dropped and the
// result is left-padded with zeros to width. "294.0" becomes "0294".
func Code(s string, width int) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return ""
	}
	if n := width - len(s); n > 0 {
		s = strings.Repeat("0", n) + s
	}
	return s
}

// Match returns the first submatch of pattern in s, the whole match when the
// pattern has no groups, or "" when it does not match.
func Match(pattern *regexp.Regexp, s string) string {
	if pattern == nil {
		return ""
	}
	m := pattern.FindStringSubmatch(s)
	switch len(m) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(m[0])
	}
	return strings.TrimSpace(m[1])
}

// SerialDate converts an Excel serial date cell to YYYY-MM-DD.
// Only plausible serials (1900-03-01 through 2199) are accepted.
func SerialDate(c models.Cell) (string, bool) {
	if c.Kind != models.KindNumber || c.Number < 61 || c.Number > 109574 {
		return "", false
	}
	t, err := excelize.ExcelDateToTime(c.Number, false)
	if err != nil {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// IsNumeric reports whether the cell holds a number or numeric text.
func IsNumeric(c models.Cell) bool {
	switch c.Kind {
	case models.KindNumber:
		return true
	case models.KindString:
		_, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		return err == nil
	}
	return false
}
