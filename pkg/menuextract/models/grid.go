package models

// Grid is an immutable rows × columns view of a sheet.
// Rows may be ragged; any out-of-range access yields a null cell.
type Grid struct {
	rows [][]Cell
}

// NewGrid copies rows into a new Grid.
func NewGrid(rows [][]Cell) Grid {
	cp := make([][]Cell, len(rows))
	for i, row := range rows {
		cp[i] = append([]Cell(nil), row...)
	}
	return Grid{rows: cp}
}

// GridFromValues builds a Grid from loosely typed values.
// Strings become text cells, numeric kinds become numbers and nil stays null.
func GridFromValues(rows [][]interface{}) Grid {
	cells := make([][]Cell, len(rows))
	for i, row := range rows {
		cells[i] = make([]Cell, len(row))
		for j, v := range row {
			cells[i][j] = CellOf(v)
		}
	}
	return Grid{rows: cells}
}

// CellOf converts a Go scalar into a Cell.
func CellOf(v interface{}) Cell {
	switch t := v.(type) {
	case nil:
		return Null()
	case Cell:
		return t
	case string:
		return Text(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	}
	return Null()
}

// NumRows returns the number of rows.
func (g Grid) NumRows() int { return len(g.rows) }

// Width returns the length of row r, or 0 when r is out of range.
func (g Grid) Width(r int) int {
	if r < 0 || r >= len(g.rows) {
		return 0
	}
	return len(g.rows[r])
}

// MaxWidth returns the length of the longest row.
func (g Grid) MaxWidth() int {
	w := 0
	for _, row := range g.rows {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// At returns the cell at (r, c), or a null cell when out of range.
func (g Grid) At(r, c int) Cell {
	if r < 0 || r >= len(g.rows) || c < 0 || c >= len(g.rows[r]) {
		return Null()
	}
	return g.rows[r][c]
}

// Row returns a copy of row r.
func (g Grid) Row(r int) []Cell {
	if r < 0 || r >= len(g.rows) {
		return nil
	}
	return append([]Cell(nil), g.rows[r]...)
}

// Columns returns the sub-grid of columns [from, to) of every row.
// Row indexes are preserved; column indexes become relative to from.
func (g Grid) Columns(from, to int) Grid {
	if from < 0 {
		from = 0
	}
	rows := make([][]Cell, len(g.rows))
	for i, row := range g.rows {
		end := min(to, len(row))
		if end > from {
			rows[i] = append([]Cell(nil), row[from:end]...)
		}
	}
	return Grid{rows: rows}
}

// RowEmpty reports whether every cell of row r is empty.
func (g Grid) RowEmpty(r int) bool {
	if r < 0 || r >= len(g.rows) {
		return true
	}
	for _, c := range g.rows[r] {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Rows returns a deep copy of the grid contents.
func (g Grid) Rows() [][]Cell {
	return NewGrid(g.rows).rows
}

// Equal reports whether two grids hold the same cells.
// Trailing null cells are not significant.
func (g Grid) Equal(other Grid) bool {
	if g.NumRows() != other.NumRows() {
		return false
	}
	for r := range g.rows {
		w := g.Width(r)
		if ow := other.Width(r); ow > w {
			w = ow
		}
		for c := 0; c < w; c++ {
			if g.At(r, c) != other.At(r, c) {
				return false
			}
		}
	}
	return true
}

// MergedRegion is a rectangle of cells sharing one logical value.
// Coordinates are 0-based and inclusive.
type MergedRegion struct {
	// StartRow is the first row of the region.
	StartRow int `json:"start_row"`
	// EndRow is the last row of the region.
	EndRow int `json:"end_row"`
	// StartCol is the first column of the region.
	StartCol int `json:"start_col"`
	// EndCol is the last column of the region.
	EndCol int `json:"end_col"`
}

// Contains reports whether (r, c) lies inside the region.
func (m MergedRegion) Contains(r, c int) bool {
	return r >= m.StartRow && r <= m.EndRow && c >= m.StartCol && c <= m.EndCol
}
