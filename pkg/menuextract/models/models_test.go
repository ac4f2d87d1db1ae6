package models

import (
	"encoding/json"
	"testing"
)

func TestCellString(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{Null(), ""},
		{Text(" Beef "), " Beef "},
		{Number(50), "50"},
		{Number(0.15), "0.15"},
	}
	for _, tt := range tests {
		if got := tt.cell.String(); got != tt.want {
			t.Errorf("%#v.String() = %q, expected %q", tt.cell, got, tt.want)
		}
	}
	if !Text("   ").IsEmpty() || Text("   ").IsNull() {
		t.Error("Expected whitespace text to be empty but not null")
	}
	if Number(0).IsEmpty() {
		t.Error("Expected zero to be a value")
	}
}

func TestCellJSON(t *testing.T) {
	cells := []Cell{Text("MENU A1"), Number(12.5), Null()}
	data, err := json.Marshal(cells)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["MENU A1",12.5,null]` {
		t.Errorf("Unexpected JSON: %s", data)
	}

	var back []Cell
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	for i := range cells {
		if back[i] != cells[i] {
			t.Errorf("cell %d = %#v, expected %#v", i, back[i], cells[i])
		}
	}
}

func TestGridAccess(t *testing.T) {
	rows := [][]Cell{{Text("a"), Null()}, {}}
	g := NewGrid(rows)
	rows[0][0] = Text("changed")

	if g.At(0, 0) != Text("a") {
		t.Error("Expected NewGrid to copy its input")
	}
	if !g.At(5, 5).IsNull() || !g.At(-1, 0).IsNull() {
		t.Error("Expected out-of-range access to yield null")
	}
	if g.NumRows() != 2 || g.Width(0) != 2 || g.Width(1) != 0 || g.MaxWidth() != 2 {
		t.Errorf("Unexpected dimensions: rows=%d widths=%d,%d", g.NumRows(), g.Width(0), g.Width(1))
	}
	if !g.RowEmpty(1) || g.RowEmpty(0) {
		t.Error("Unexpected RowEmpty result")
	}

	row := g.Row(0)
	row[0] = Text("mutated")
	if g.At(0, 0) != Text("a") {
		t.Error("Expected Row to return a copy")
	}

	trailing := GridFromValues([][]interface{}{{"a", nil}, {}})
	if !g.Equal(trailing) {
		t.Error("Expected trailing nulls to be insignificant")
	}
}

func TestGridColumns(t *testing.T) {
	g := GridFromValues([][]interface{}{
		{"M/bay", "Flt No", "M/bay", "Flt No"},
		{"A1"},
		{"A2", "VN1", "B2"},
	})

	right := g.Columns(2, 4)
	if right.NumRows() != 3 {
		t.Fatalf("Expected row count to be kept, got %d", right.NumRows())
	}
	if right.At(0, 0) != Text("M/bay") || right.At(2, 0) != Text("B2") {
		t.Error("Expected columns to be relative to the window")
	}
	if right.Width(1) != 0 || right.MaxWidth() != 2 {
		t.Errorf("Unexpected widths: %d, %d", right.Width(1), right.MaxWidth())
	}
	if left := g.Columns(-1, 2); left.At(2, 1) != Text("VN1") || !left.At(2, 2).IsNull() {
		t.Error("Unexpected left window")
	}
}

func TestStringOrNil(t *testing.T) {
	if StringOrNil("") != nil || StringOrNil("x") != "x" {
		t.Error("Unexpected StringOrNil results")
	}
}

func TestWorkbookAggregates(t *testing.T) {
	wb := WorkbookResult{Sheets: []SheetResult{
		{Sheet: "A", Records: []Record{{"n": "1"}}, Diagnostics: []Diagnostic{{Sheet: "A", Code: CodeRowUnmatched, Row: 3, Message: "x"}}},
		{Sheet: "B", Records: []Record{{"n": "2"}, {"n": "3"}}},
	}}
	if n := len(wb.Records()); n != 3 {
		t.Errorf("Expected 3 records, got %d", n)
	}
	diags := wb.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("Expected 1 diagnostic, got %d", len(diags))
	}
	if got := diags[0].String(); got != "A[row_unmatched] row 3: x" {
		t.Errorf("Unexpected diagnostic string %q", got)
	}
}
