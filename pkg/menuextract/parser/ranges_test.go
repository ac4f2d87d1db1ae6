package parser

import (
	"testing"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		input string
		want  models.MergedRegion
		ok    bool
	}{
		{"A1:D10", models.MergedRegion{StartRow: 0, EndRow: 9, StartCol: 0, EndCol: 3}, true},
		{"$B$2:$C$3", models.MergedRegion{StartRow: 1, EndRow: 2, StartCol: 1, EndCol: 2}, true},
		{"D4:B2", models.MergedRegion{StartRow: 1, EndRow: 3, StartCol: 1, EndCol: 3}, true},
		{"C5", models.MergedRegion{StartRow: 4, EndRow: 4, StartCol: 2, EndCol: 2}, true},
		{"nonsense", models.MergedRegion{}, false},
	}

	for _, tt := range tests {
		got, ok := parseRange(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseRange(%q) = %+v, %v; expected %+v, %v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePrintAreaReference(t *testing.T) {
	sheet, areas := parsePrintAreaReference("'Menu T10'!$A$1:$D$40,'Menu T10'!$F$1:$G$2")
	if sheet != "Menu T10" {
		t.Errorf("Expected sheet 'Menu T10', got %q", sheet)
	}
	if len(areas) != 2 {
		t.Fatalf("Expected 2 areas, got %d", len(areas))
	}
	if areas[0].EndRow != 39 || areas[1].StartCol != 5 {
		t.Errorf("Unexpected areas: %+v", areas)
	}

	if sheet, areas := parsePrintAreaReference("$A$1:$B$2"); sheet != "" || areas != nil {
		t.Errorf("Expected nothing without a sheet name, got %q %+v", sheet, areas)
	}
}
