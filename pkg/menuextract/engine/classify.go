package engine

import (
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/normalize"
)

// RowKind tags a classified row.
type RowKind int

const (
	Unmatched RowKind = iota
	GroupHeader
	Checkpoint
	IdentifierOnly
	Data
	Ignorable
)

func (k RowKind) String() string {
	switch k {
	case GroupHeader:
		return "group_header"
	case Checkpoint:
		return "checkpoint"
	case IdentifierOnly:
		return "identifier_only"
	case Data:
		return "data"
	case Ignorable:
		return "ignorable"
	}
	return "unmatched"
}

// ClassifiedRow is one row after classification.
type ClassifiedRow struct {
	// Index is the 0-based grid row.
	Index int
	Kind  RowKind
	Cells []models.Cell
	// Label is the trimmed label cell.
	Label string
	// Context is the context in force after the row; for data rows it is
	// the snapshot their record is built from.
	Context RowContext
	// Unparsed lists the captures that found nothing on a checkpoint row.
	Unparsed []layout.Extractor
}

// Classifier assigns a RowKind to each row of a table body and folds
// header and checkpoint rows into the running context.
type Classifier struct {
	l        *layout.Layout
	relevant []int
}

// NewClassifier returns a classifier for l. extra lists additional columns
// whose emptiness decides whether a row is blank.
func NewClassifier(l *layout.Layout, extra ...int) *Classifier {
	seen := make(map[int]bool)
	var cols []int
	add := func(c int) {
		if c >= 0 && !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	add(l.Columns.Label)
	add(l.Columns.Name)
	add(layout.ColumnOr(l.Columns.Identifier, NotFound))
	add(layout.ColumnOr(l.Columns.Remark, NotFound))
	for _, f := range l.Fields {
		add(layout.ColumnOr(f.Column, NotFound))
	}
	for _, c := range l.Data.Filled {
		add(c)
	}
	for _, c := range l.Data.Numeric {
		add(c)
	}
	for _, c := range extra {
		add(c)
	}
	return &Classifier{l: l, relevant: cols}
}

// Classify is the row reducer: it returns the context after row and the
// classified row. ctx is never modified.
//
// Precedence, first match wins: ignorable, group header, checkpoint,
// identifier only, data. A row matching both the group and checkpoint rules
// is a checkpoint.
func (c *Classifier) Classify(ctx RowContext, index int, row []models.Cell) (RowContext, ClassifiedRow) {
	l := c.l
	out := ClassifiedRow{
		Index: index,
		Cells: row,
		Label: cellAt(row, l.Columns.Label).Trimmed(),
	}
	next := ctx

	switch {
	case c.ignorable(row, out.Label):
		out.Kind = Ignorable

	case c.matches(l.Group, row) && !c.matches(l.Checkpoint, row):
		out.Kind = GroupHeader
		next = next.Without(l.Group.Reset...).With(layout.KeyGroup, out.Label)
		next, _ = applyCaptures(next, row, l.Group.Captures, l.Columns.Label)

	case c.matches(l.Checkpoint, row):
		out.Kind = Checkpoint
		next = next.Without(l.Checkpoint.Reset...)
		next, out.Unparsed = applyCaptures(next, row, l.Checkpoint.Captures, l.Columns.Label)

	default:
		if id := c.identifierOnly(row); id != "" {
			out.Kind = IdentifierOnly
			next = next.Without(l.IdentifierOnly.Reset...).With(layout.KeyIdentifier, id)
			break
		}
		if c.IsData(row) {
			out.Kind = Data
		}
	}

	out.Context = next
	return next, out
}

// ClassifyRows runs Classify over rows, threading the context. When the
// group rule has a counter, a synthetic group header row is inserted before
// each data row that opens a numbered group.
func (c *Classifier) ClassifyRows(ctx RowContext, indexes []int, rows [][]models.Cell) []ClassifiedRow {
	counter := newGroupCounter(c.l.Group)
	out := make([]ClassifiedRow, 0, len(rows))
	for i, row := range rows {
		var cr ClassifiedRow
		ctx, cr = c.Classify(ctx, indexes[i], row)
		if label, ok := counter.next(cr); ok {
			ctx = ctx.Without(c.l.Group.Reset...).With(layout.KeyGroup, label)
			out = append(out, ClassifiedRow{Index: cr.Index, Kind: GroupHeader, Label: label, Context: ctx})
			cr.Context = ctx
		}
		out = append(out, cr)
	}
	return out
}

// groupCounter numbers unnamed groups within one table body.
type groupCounter struct {
	c    *layout.Counter
	n    int
	open bool
}

func newGroupCounter(r *layout.Rule) *groupCounter {
	if r == nil || r.Counter == nil {
		return nil
	}
	return &groupCounter{c: r.Counter, n: r.Counter.First(), open: true}
}

// next returns the label of the group opened by row, if any.
func (g *groupCounter) next(row ClassifiedRow) (string, bool) {
	if g == nil {
		return "", false
	}
	switch row.Kind {
	case GroupHeader:
		g.open = true
	case Data:
		fresh := g.open
		g.open = false
		if !fresh && normalize.Code(cellAt(row.Cells, g.c.Column).Trimmed(), 0) == g.c.Value {
			g.n++
			return layout.Numbered(g.c.Format, g.n), true
		}
	}
	return "", false
}

// IsData reports whether row satisfies the data rule on its own.
func (c *Classifier) IsData(row []models.Cell) bool {
	if cellAt(row, c.l.Columns.Name).IsEmpty() {
		return false
	}
	for _, col := range c.l.Data.Filled {
		if cellAt(row, col).IsEmpty() {
			return false
		}
	}
	for _, col := range c.l.Data.Numeric {
		if !normalize.IsNumeric(cellAt(row, col)) {
			return false
		}
	}
	return true
}

func (c *Classifier) ignorable(row []models.Cell, label string) bool {
	if label != "" {
		canon := normalize.Canonical(label)
		for _, re := range c.l.TrailerPatterns() {
			if re.MatchString(canon) {
				return true
			}
		}
	}
	for _, col := range c.relevant {
		if !cellAt(row, col).IsEmpty() {
			return false
		}
	}
	return true
}

func (c *Classifier) matches(r *layout.Rule, row []models.Cell) bool {
	if r == nil {
		return false
	}
	label := cellAt(row, c.l.Columns.Label)
	if r.RequireEmptyLabel != label.IsEmpty() {
		return false
	}
	if r.RequireEmptyName && !cellAt(row, c.l.Columns.Name).IsEmpty() {
		return false
	}
	for _, col := range r.Empty {
		if !cellAt(row, col).IsEmpty() {
			return false
		}
	}
	for _, col := range r.Filled {
		if cellAt(row, col).IsEmpty() {
			return false
		}
	}
	if r.EmptyFrom != nil {
		for col := *r.EmptyFrom; col < len(row); col++ {
			if !row[col].IsEmpty() {
				return false
			}
		}
	}
	text := label.Trimmed()
	if r.RejectNumeric && isDigits(text) {
		return false
	}
	for _, ign := range r.Ignore {
		if normalize.ContainsFold(text, ign) {
			return false
		}
	}
	if re := r.Regexp(); re != nil && !re.MatchString(normalize.Canonical(text)) {
		return false
	}
	if r.Keyword != "" && !rowContains(row, r.Keyword) {
		return false
	}
	return true
}

func (c *Classifier) identifierOnly(row []models.Cell) string {
	l := c.l
	if l.IdentifierOnly == nil {
		return ""
	}
	if !cellAt(row, l.Columns.Label).IsEmpty() || !cellAt(row, l.Columns.Name).IsEmpty() {
		return ""
	}
	if col := l.IdentifierColumn(); col != AnyColumn {
		return normalize.Identifier(cellAt(row, col).Trimmed())
	}
	for _, cell := range row {
		if id := normalize.Identifier(cell.Trimmed()); id != "" {
			return id
		}
	}
	return ""
}

// applyCaptures runs caps against row. A capture that finds nothing clears
// its keys unless it is marked Keep. Failed time-window and date-range
// captures are reported.
func applyCaptures(ctx RowContext, row []models.Cell, caps []layout.Capture, defCol int) (RowContext, []layout.Extractor) {
	var failed []layout.Extractor
	for i := range caps {
		cp := &caps[i]
		vals, ok := extract(cp, cellAt(row, layout.ColumnOr(cp.Column, defCol)).Trimmed())
		if ok {
			ctx = ctx.Merge(vals)
			continue
		}
		if cp.Keep {
			continue
		}
		ctx = ctx.Without(cp.Keys()...)
		if cp.Extract == layout.ExtractTimeWindow || cp.Extract == layout.ExtractDateRange {
			failed = append(failed, cp.Extract)
		}
	}
	return ctx, failed
}

// extract runs one capture against s.
func extract(cp *layout.Capture, s string) (map[string]string, bool) {
	var v string
	switch cp.Extract {
	case layout.ExtractText:
		v = s
	case layout.ExtractIdentifier:
		v = normalize.Identifier(s)
	case layout.ExtractFlag:
		v = normalize.Flag(s, cp.Token, cp.Present, cp.Absent)
	case layout.ExtractMatch:
		v = normalize.Match(cp.Regexp(), normalize.Canonical(s))
	case layout.ExtractTimeWindow:
		w, ok := normalize.ParseTimeWindow(s)
		if !ok {
			return nil, false
		}
		return map[string]string{layout.KeyStartTime: w.Start, layout.KeyEndTime: w.End}, true
	case layout.ExtractDateRange:
		d, ok := normalize.ParseDateRange(s)
		if !ok {
			return nil, false
		}
		return map[string]string{layout.KeyDateStart: d.Start, layout.KeyDateEnd: d.End}, true
	}
	if v == "" {
		return nil, false
	}
	return map[string]string{cp.Key: v}, true
}

func cellAt(row []models.Cell, col int) models.Cell {
	if col < 0 || col >= len(row) {
		return models.Null()
	}
	return row[col]
}

func rowContains(row []models.Cell, keyword string) bool {
	for _, cell := range row {
		if normalize.ContainsFold(cell.String(), keyword) {
			return true
		}
	}
	return false
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
