package engine

import (
	"fmt"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/normalize"
)

// Column is a resolved output field.
type Column struct {
	Name      string
	Col       int
	Normalize layout.Normalizer
	Width     int
}

// Emitter turns data rows into records.
type Emitter struct {
	l        *layout.Layout
	fields   []Column
	spread   []Column
	attached []attachment
}

type attachment struct {
	key   string
	value string
}

// NewEmitter returns an emitter writing the context keys of l, then fields,
// then spread columns, then attached metadata values.
func NewEmitter(l *layout.Layout, fields, spread []Column) *Emitter {
	return &Emitter{l: l, fields: fields, spread: spread}
}

// Attach adds a value copied into every record.
func (e *Emitter) Attach(key, value string) {
	for i := range e.attached {
		if e.attached[i].key == key {
			e.attached[i].value = value
			return
		}
	}
	e.attached = append(e.attached, attachment{key: key, value: value})
}

// Fields returns the record keys in output order.
func (e *Emitter) Fields() []string {
	keys := make([]string, 0, len(e.l.Context)+len(e.fields)+len(e.spread)+len(e.attached))
	keys = append(keys, e.l.Context...)
	for _, f := range e.fields {
		keys = append(keys, f.Name)
	}
	for _, s := range e.spread {
		keys = append(keys, s.Name)
	}
	for _, a := range e.attached {
		keys = append(keys, a.key)
	}
	return dedupe(keys)
}

// Emit walks segments in order and returns one record per data row,
// alongside the nested view of the same records.
func (e *Emitter) Emit(segments []ClassSegment, table int) ([]models.Record, []models.Group) {
	records := []models.Record{}
	var groups []models.Group
	for _, seg := range segments {
		g := models.Group{Label: seg.Label(), Table: table}
		for _, sub := range seg.Subs {
			sg := models.SubGroup{Label: sub.Label(), Records: []models.Record{}}
			for _, row := range sub.DataRows() {
				rec := e.Record(row)
				records = append(records, rec)
				sg.Records = append(sg.Records, rec)
			}
			g.Subs = append(g.Subs, sg)
		}
		groups = append(groups, g)
	}
	return records, groups
}

// Record builds the record of a data row from its context snapshot.
// Overrides found in the row replace inherited values in this record only.
func (e *Emitter) Record(row ClassifiedRow) models.Record {
	rec := make(models.Record, len(e.l.Context)+len(e.fields)+len(e.spread)+len(e.attached))
	declared := make(map[string]bool, len(e.l.Context))
	for _, k := range e.l.Context {
		declared[k] = true
		rec[k] = models.StringOrNil(row.Context.Get(k))
	}
	for i := range e.l.Overrides {
		cp := &e.l.Overrides[i]
		vals, ok := extract(cp, cellAt(row.Cells, layout.ColumnOr(cp.Column, e.l.Columns.Label)).Trimmed())
		if !ok {
			continue
		}
		for k, v := range vals {
			if declared[k] {
				rec[k] = v
			}
		}
	}
	for _, f := range e.fields {
		rec[f.Name] = fieldValue(f, cellAt(row.Cells, f.Col))
	}
	for _, s := range e.spread {
		rec[s.Name] = models.StringOrNil(cellAt(row.Cells, s.Col).Trimmed())
	}
	for _, a := range e.attached {
		rec[a.key] = models.StringOrNil(a.value)
	}
	return rec
}

func fieldValue(f Column, cell models.Cell) interface{} {
	switch f.Normalize {
	case layout.NormalizeRatio:
		return normalize.Ratio(cell)
	case layout.NormalizeIdentifier:
		return models.StringOrNil(normalize.Identifier(cell.Trimmed()))
	case layout.NormalizeCode:
		return models.StringOrNil(normalize.Code(cell.Trimmed(), f.Width))
	}
	return models.StringOrNil(normalize.Text(cell))
}

// resolveFields maps declared and header-named fields onto columns of the
// header row. Fields whose header cannot be found fall back to their column,
// or to NotFound which always yields nil.
func resolveFields(g models.Grid, l *layout.Layout, headerRow int) []Column {
	var cols []Column
	for _, f := range l.Fields {
		col := layout.ColumnOr(f.Column, NotFound)
		if f.Header != "" && headerRow != NotFound {
			if c := FindColumnAnchor(g, headerRow, f.Header); c != NotFound {
				col = c
			}
		}
		cols = append(cols, Column{Name: f.Name, Col: col, Normalize: f.Normalize, Width: f.Width})
	}
	if !l.HeaderFields || headerRow == NotFound {
		return cols
	}
	names := newNamer()
	for _, c := range cols {
		names.take(c.Name)
	}
	for c := 0; c < g.Width(headerRow); c++ {
		h := g.At(headerRow, c).Trimmed()
		if h == "" {
			continue
		}
		cols = append(cols, Column{Name: names.take(h), Col: c, Normalize: layout.NormalizeText})
	}
	return cols
}

// resolveSpread maps the spread columns of a table to header names.
// bandEnd is the first data row; band rows sit between the header and it.
func resolveSpread(g models.Grid, l *layout.Layout, tb TableBounds, bandEnd int) []Column {
	sp := l.Spread
	head := tb.HeaderRow()
	if sp == nil || head == NotFound {
		return nil
	}

	start := layout.ColumnOr(sp.StartColumn, NotFound)
	for _, kw := range sp.StartKeywords {
		if start != NotFound {
			break
		}
		start = FindColumnAnchor(g, head, kw)
	}
	if start == NotFound {
		return nil
	}

	end := g.MaxWidth()
	if sp.EndKeyword != "" {
		for c := end - 1; c > start; c-- {
			if normalize.ContainsFold(g.At(head, c).String(), sp.EndKeyword) ||
				normalize.ContainsFold(g.At(head+1, c).String(), sp.EndKeyword) {
				end = c
				break
			}
		}
	}

	bandStart := head + l.HeaderRows()
	if bandEnd <= bandStart {
		bandStart, bandEnd = head, head+1
	}

	names := newNamer()
	var cols []Column
	for c := start; c < end; c++ {
		var h string
		hr := NotFound
		if sp.HeaderRow != nil {
			hr = head + *sp.HeaderRow
			h = spreadHeader(g.At(hr, c), sp)
		} else {
			for r := bandStart; r < bandEnd; r++ {
				if v := spreadHeader(g.At(r, c), sp); v != "" {
					h, hr = v, r
				}
			}
		}
		if h == "" {
			if sp.Fallback == "" {
				continue
			}
			h = layout.Numbered(sp.Fallback, c)
		} else {
			h = qualify(h, g.At(hr-1, c), sp)
		}
		cols = append(cols, Column{Name: names.take(sp.Prefix + h), Col: c})
	}
	return cols
}

// qualify prefixes a header listed in sp.Qualify with its parent cell.
func qualify(h string, parent models.Cell, sp *layout.Spread) string {
	listed := false
	for _, q := range sp.Qualify {
		if normalize.Fold(q) == normalize.Fold(h) {
			listed = true
			break
		}
	}
	p := parent.Trimmed()
	if !listed || p == "" {
		return h
	}
	for _, kw := range sp.Parents {
		if normalize.ContainsFold(p, kw) {
			p = kw
			break
		}
	}
	return p + "." + h
}

// spreadHeader returns the header text of cell, or "" when it is empty or
// on the skip list.
func spreadHeader(cell models.Cell, sp *layout.Spread) string {
	h := cell.Trimmed()
	if sp.SerialDates {
		if d, ok := normalize.SerialDate(cell); ok {
			h = d
		}
	}
	for _, skip := range sp.Skip {
		if normalize.ContainsFold(h, skip) {
			return ""
		}
	}
	return h
}

// namer hands out unique names: repeats get _1, _2, ...
type namer struct {
	seen map[string]int
}

func newNamer() *namer { return &namer{seen: make(map[string]int)} }

func (n *namer) take(name string) string {
	count, ok := n.seen[name]
	if !ok {
		n.seen[name] = 0
		return name
	}
	for {
		count++
		candidate := fmt.Sprintf("%s_%d", name, count)
		if _, taken := n.seen[candidate]; !taken {
			n.seen[name] = count
			n.seen[candidate] = 0
			return candidate
		}
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}
