package normalize

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name     string
		input    models.Cell
		expected interface{}
	}{
		{name: "fraction", input: models.Number(0.15), expected: "15%"},
		{name: "whole", input: models.Number(1), expected: "100%"},
		{name: "float noise rounded", input: models.Number(0.07), expected: "7%"},
		{name: "text passes through", input: models.Text("N/A"), expected: "N/A"},
		{name: "null", input: models.Null(), expected: nil},
		{name: "blank text", input: models.Text("   "), expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Ratio(tt.input))
		})
	}
}

func TestIdentifier(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"MENU X1", "X1"},
		{"menu a2", "A2"},
		{"MENUB", "B"},
		{"  C3 ", "C3"},
		{"AB12", "AB12"},
		{"Serve with A1 sauce", ""},
		{"ABC", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Identifier(tt.input), "Identifier(%q)", tt.input)
	}
}

func TestParseDateRange(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DateRange
		ok    bool
	}{
		{name: "basic", input: "1-7 APR.2025", want: DateRange{Start: "2025-04-01", End: "2025-04-07"}, ok: true},
		{name: "no dot lower month", input: " 8-14 apr 2025", want: DateRange{Start: "2025-04-08", End: "2025-04-14"}, ok: true},
		{name: "embedded", input: "Cycle valid 29-31 DEC.2024", want: DateRange{Start: "2024-12-29", End: "2024-12-31"}, ok: true},
		{name: "april 31", input: "31-31 APR.2025", want: InvalidDateRange, ok: false},
		{name: "feb 29 non leap", input: "28-29 FEB.2025", want: InvalidDateRange, ok: false},
		{name: "feb 29 leap", input: "28-29 FEB.2024", want: DateRange{Start: "2024-02-28", End: "2024-02-29"}, ok: true},
		{name: "unknown month", input: "1-7 XYZ.2025", want: InvalidDateRange, ok: false},
		{name: "garbage", input: "whenever", want: InvalidDateRange, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDateRange(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeWindow(t *testing.T) {
	w, ok := ParseTimeWindow("Dành cho tàu NEO 08:00<ETD<12:00")
	assert.True(t, ok)
	assert.Equal(t, TimeWindow{Start: "08:00", End: "12:00"}, w)

	w, ok = ParseTimeWindow("05:30 < etd < 09:45")
	assert.True(t, ok)
	assert.Equal(t, "05:30", w.Start)
	assert.Equal(t, "09:45", w.End)

	_, ok = ParseTimeWindow("Dành cho tàu A321")
	assert.False(t, ok)
}

func TestFlag(t *testing.T) {
	assert.Equal(t, "NEO", Flag("Dành cho tàu NEO", "NEO", "NEO", "normal"))
	assert.Equal(t, "normal", Flag("Dành cho tàu A321", "NEO", "NEO", "normal"))
}

func TestCode(t *testing.T) {
	assert.Equal(t, "0294", Code("294.0", 4))
	assert.Equal(t, "12345", Code("12345", 4))
	assert.Equal(t, "0007", Code(" 7 ", 4))
	assert.Equal(t, "", Code("", 4))
}

func TestMatch(t *testing.T) {
	assert.Equal(t, "5", Match(regexp.MustCompile(`(?i)cycle\s*(\d+)`), "STD; CYCLE 5"))
	assert.Equal(t, "CYCLE 5", Match(regexp.MustCompile(`CYCLE \d`), "CYCLE 5"))
	assert.Equal(t, "", Match(regexp.MustCompile(`x(\d)`), "abc"))
	assert.Equal(t, "", Match(nil, "abc"))
}

func TestSerialDate(t *testing.T) {
	got, ok := SerialDate(models.Number(45748))
	assert.True(t, ok)
	assert.Equal(t, "2025-04-01", got)

	_, ok = SerialDate(models.Number(3))
	assert.False(t, ok)
	_, ok = SerialDate(models.Text("45748"))
	assert.False(t, ok)
}

func TestContainsFold(t *testing.T) {
	assert.True(t, ContainsFold("  GHI CHÚ: mang theo", "ghi chú"))
	// Decomposed "ú" (u + combining acute) still matches the composed keyword.
	assert.True(t, ContainsFold("Ghi chu\u0301", "ghi chú"))
	assert.False(t, ContainsFold("anything", ""))
	assert.False(t, ContainsFold("Uplift", "ratio"))
}

func TestIsNumeric(t *testing.T) {
	assert.True(t, IsNumeric(models.Number(1)))
	assert.True(t, IsNumeric(models.Text(" 12 ")))
	assert.False(t, IsNumeric(models.Text("STT")))
	assert.False(t, IsNumeric(models.Null()))
}
