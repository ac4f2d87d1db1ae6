package engine

import (
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/normalize"
)

// NotFound is returned by the anchor functions when nothing matches.
const NotFound = -1

// AnyColumn searches every column.
const AnyColumn = layout.AnyColumn

// Role is the part an anchor plays in locating a table.
type Role string

const (
	RoleStart       Role = "start"
	RoleEnd         Role = "end"
	RoleMetadataKey Role = "metadataKey"
)

// Anchor is a grid coordinate found by keyword.
type Anchor struct {
	Row     int
	Col     int
	Keyword string
	Role    Role
}

// Found reports whether the anchor points at a cell.
func (a Anchor) Found() bool { return a.Row != NotFound }

// FindRowAnchor returns the first row whose column col (or any column when
// col is AnyColumn) contains keyword, ignoring case.
func FindRowAnchor(g models.Grid, keyword string, col int) int {
	return FindRowAnchorFrom(g, keyword, col, 0)
}

// FindRowAnchorFrom is FindRowAnchor starting the scan at row from.
func FindRowAnchorFrom(g models.Grid, keyword string, col, from int) int {
	if from < 0 {
		from = 0
	}
	for r := from; r < g.NumRows(); r++ {
		if col == AnyColumn {
			if FindColumnAnchor(g, r, keyword) != NotFound {
				return r
			}
			continue
		}
		if normalize.ContainsFold(g.At(r, col).String(), keyword) {
			return r
		}
	}
	return NotFound
}

// FindColumnAnchor returns the first column of row containing keyword.
func FindColumnAnchor(g models.Grid, row int, keyword string) int {
	for c := 0; c < g.Width(row); c++ {
		if normalize.ContainsFold(g.At(row, c).String(), keyword) {
			return c
		}
	}
	return NotFound
}

// findAnchor locates keyword at or after row from and reports both coordinates.
func findAnchor(g models.Grid, a layout.Anchor, from int, role Role) Anchor {
	col := layout.ColumnOr(a.Column, AnyColumn)
	row := FindRowAnchorFrom(g, a.Keyword, col, from)
	if row == NotFound {
		return Anchor{Row: NotFound, Col: NotFound, Keyword: a.Keyword, Role: role}
	}
	if col == AnyColumn {
		col = FindColumnAnchor(g, row, a.Keyword)
	}
	return Anchor{Row: row, Col: col, Keyword: a.Keyword, Role: role}
}

// Window is a half-open column range [From, To) of a side-by-side table.
type Window struct {
	From, To int
}

// SideBySideWindows splits the columns of a located table at every further
// cell of its header row holding the start keyword. Layouts without
// Table.SideBySide, and anchorless tables, yield one window over the grid.
func SideBySideWindows(g models.Grid, l *layout.Layout, tb TableBounds) []Window {
	head := tb.HeaderRow()
	if !l.Table.SideBySide || head == NotFound {
		return []Window{{From: 0, To: g.MaxWidth()}}
	}
	var out []Window
	from := tb.Start.Col
	for c := from + 1; c < g.Width(head); c++ {
		if normalize.ContainsFold(g.At(head, c).String(), l.Table.Start.Keyword) {
			out = append(out, Window{From: from, To: c})
			from = c
		}
	}
	return append(out, Window{From: from, To: g.MaxWidth()})
}

// EndRule names how a table's end was found.
type EndRule string

const (
	EndByKeyword   EndRule = "keyword"
	EndByNextStart EndRule = "next_start"
	EndByBlankRun  EndRule = "blank_run"
	EndByGrid      EndRule = "end_of_grid"
)

// TableBounds locates one table. Body rows are [BodyStart, End) plus
// [Start.Row+StartOffset, Start.Row) when the layout pulls rows from above.
type TableBounds struct {
	Start     Anchor
	End       Anchor
	BodyStart int
	Rule      EndRule
}

// HeaderRow returns the row holding the table header, or NotFound for
// anchorless layouts.
func (t TableBounds) HeaderRow() int { return t.Start.Row }

// LocateTable finds the next table of layout l starting at row from.
// The end is the first end keyword after the header; failing that the first
// run of blank rows, failing that the end of the grid.
func LocateTable(g models.Grid, l *layout.Layout, from int) (TableBounds, bool) {
	var tb TableBounds
	if l.Table.Start.Keyword == "" {
		if from > 0 {
			return tb, false
		}
		tb.Start = Anchor{Row: NotFound, Col: NotFound, Role: RoleStart}
		tb.BodyStart = 0
	} else {
		tb.Start = findAnchor(g, l.Table.Start, from, RoleStart)
		if !tb.Start.Found() {
			return tb, false
		}
		tb.BodyStart = tb.Start.Row + l.HeaderRows()
	}
	tb.End, tb.Rule = locateEnd(g, l, tb.BodyStart)
	if tb.End.Row < tb.BodyStart {
		tb.End.Row = tb.BodyStart
	}
	return tb, true
}

func locateEnd(g models.Grid, l *layout.Layout, from int) (Anchor, EndRule) {
	best := Anchor{Row: NotFound, Col: NotFound, Role: RoleEnd}
	rule := EndByKeyword
	for _, a := range l.Table.End {
		if found := findAnchor(g, a, from, RoleEnd); found.Found() && (!best.Found() || found.Row < best.Row) {
			best = found
		}
	}
	if l.Table.EndAtNextStart && l.Table.Start.Keyword != "" {
		next := findAnchor(g, l.Table.Start, from, RoleEnd)
		if next.Found() {
			next.Row -= l.Table.Preamble
			if next.Row < from {
				next.Row = from
			}
		}
		if next.Found() && (!best.Found() || next.Row < best.Row) {
			best, rule = next, EndByNextStart
		}
	}
	if best.Found() {
		return best, rule
	}

	if run := l.BlankRun(); run > 0 {
		blanks := 0
		for r := from; r < g.NumRows(); r++ {
			if !g.RowEmpty(r) {
				blanks = 0
				continue
			}
			blanks++
			if blanks >= run {
				return Anchor{Row: r - blanks + 1, Col: NotFound, Role: RoleEnd}, EndByBlankRun
			}
		}
	}
	return Anchor{Row: g.NumRows(), Col: NotFound, Role: RoleEnd}, EndByGrid
}
