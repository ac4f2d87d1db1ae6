package parser

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// saveAndOpen round-trips f through a temporary file so that tests read
// what a user's workbook would contain.
func saveAndOpen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(tmpFile); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	f2, err := excelize.OpenFile(tmpFile)
	if err != nil {
		t.Fatalf("Failed to open test file: %v", err)
	}
	t.Cleanup(func() { f2.Close() })
	return f2
}

func TestReadSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "Uplift Ratio")
	f.SetCellValue(sheetName, "B1", "Component Description")
	f.SetCellValue(sheetName, "A2", 0.25)
	f.SetCellValue(sheetName, "B2", "Chicken rice")
	f.SetCellValue(sheetName, "C2", "50")
	f.SetCellValue(sheetName, "D2", 12)
	f.SetCellValue(sheetName, "A4", "CLASS Y")
	f.SetCellValue(sheetName, "C4", true)
	f.MergeCell(sheetName, "A4", "B5")

	sheet, err := ReadSheet(saveAndOpen(t, f), sheetName, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}

	if sheet.Name != sheetName {
		t.Errorf("Expected name %q, got %q", sheetName, sheet.Name)
	}
	g := sheet.Grid
	if g.NumRows() < 4 {
		t.Fatalf("Expected at least 4 rows, got %d", g.NumRows())
	}

	tests := []struct {
		r, c int
		want models.Cell
	}{
		{0, 0, models.Text("Uplift Ratio")},
		{1, 0, models.Number(0.25)},
		{1, 1, models.Text("Chicken rice")},
		{1, 2, models.Text("50")},
		{1, 3, models.Number(12)},
		{2, 0, models.Null()},
		{3, 0, models.Text("CLASS Y")},
		{3, 2, models.Text("TRUE")},
	}
	for _, tt := range tests {
		if got := g.At(tt.r, tt.c); got != tt.want {
			t.Errorf("At(%d, %d) = %#v, expected %#v", tt.r, tt.c, got, tt.want)
		}
	}

	if len(sheet.Merges) != 1 {
		t.Fatalf("Expected 1 merged region, got %d", len(sheet.Merges))
	}
	want := models.MergedRegion{StartRow: 3, EndRow: 4, StartCol: 0, EndCol: 1}
	if sheet.Merges[0] != want {
		t.Errorf("Expected merge %+v, got %+v", want, sheet.Merges[0])
	}
}

func TestReadSheetMissing(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := ReadSheet(f, "NoSuchSheet", ReadOptions{}); err == nil {
		t.Error("Expected error for a missing sheet")
	}
}

func TestReadSheetPrintAreaOnly(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Sheet1"
	f.SetCellValue(sheetName, "A1", "inside")
	f.SetCellValue(sheetName, "C1", "outside")
	f.SetCellValue(sheetName, "A3", "below")
	if err := f.SetDefinedName(&excelize.DefinedName{
		Name:     "_xlnm.Print_Area",
		RefersTo: "Sheet1!$A$1:$B$2",
		Scope:    sheetName,
	}); err != nil {
		t.Fatalf("SetDefinedName failed: %v", err)
	}
	f2 := saveAndOpen(t, f)

	whole, err := ReadSheet(f2, sheetName, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}
	if whole.Grid.At(0, 2) != models.Text("outside") {
		t.Errorf("Expected the whole sheet without PrintAreaOnly, got %#v", whole.Grid.At(0, 2))
	}

	clipped, err := ReadSheet(f2, sheetName, ReadOptions{PrintAreaOnly: true})
	if err != nil {
		t.Fatalf("ReadSheet failed: %v", err)
	}
	if clipped.Grid.At(0, 0) != models.Text("inside") {
		t.Errorf("Expected 'inside', got %#v", clipped.Grid.At(0, 0))
	}
	if !clipped.Grid.At(0, 2).IsNull() || !clipped.Grid.At(2, 0).IsNull() {
		t.Error("Expected cells outside the print area to be blank")
	}
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		typ      excelize.CellType
		expected models.Cell
	}{
		{"123", excelize.CellTypeUnset, models.Number(123)},
		{"123.45", excelize.CellTypeNumber, models.Number(123.45)},
		{"-100", excelize.CellTypeUnset, models.Number(-100)},
		{"123", excelize.CellTypeSharedString, models.Text("123")},
		{"hello", excelize.CellTypeInlineString, models.Text("hello")},
		{"hello", excelize.CellTypeUnset, models.Text("hello")},
		{"0", excelize.CellTypeBool, models.Text("FALSE")},
		{"", excelize.CellTypeSharedString, models.Null()},
	}

	for _, tt := range tests {
		result := parseValue(tt.input, tt.typ)
		if result != tt.expected {
			t.Errorf("parseValue(%q, %v) = %#v, expected %#v", tt.input, tt.typ, result, tt.expected)
		}
	}
}
