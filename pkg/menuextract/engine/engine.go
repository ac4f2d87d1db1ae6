// Package engine turns a decoded sheet into records.
//
// The pipeline is merge resolution, table location, row classification,
// segmentation and emission. It performs no I/O and holds no state between
// calls; problems are reported as diagnostics on the result, never as errors.
package engine

import (
	"fmt"
	"strings"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// Run extracts sheet with layout l.
func Run(sheet models.Sheet, l *layout.Layout) models.SheetResult {
	return run(sheet.Name, ResolveMerges(sheet.Grid, sheet.Merges), l)
}

// RunAuto runs every layout and keeps the result with the most records.
// Layouts whose start anchor is missing are not candidates; earlier layouts
// win ties.
func RunAuto(sheet models.Sheet, layouts []*layout.Layout) models.SheetResult {
	g := ResolveMerges(sheet.Grid, sheet.Merges)
	var best *models.SheetResult
	for _, l := range layouts {
		res := run(sheet.Name, g, l)
		if res.Tables == 0 {
			continue
		}
		if best == nil || len(res.Records) > len(best.Records) {
			r := res
			best = &r
		}
	}
	if best != nil {
		return *best
	}
	names := make([]string, 0, len(layouts))
	for _, l := range layouts {
		names = append(names, l.Name)
	}
	return models.SheetResult{
		Sheet:   sheet.Name,
		Records: []models.Record{},
		Diagnostics: []models.Diagnostic{{
			Sheet:    sheet.Name,
			Severity: models.SeverityWarn,
			Code:     models.CodeNoLayoutMatched,
			Message:  fmt.Sprintf("no layout found its start anchor (tried %s)", strings.Join(names, ", ")),
		}},
	}
}

// sheetRun accumulates the result of one sheet.
type sheetRun struct {
	l      *layout.Layout
	res    models.SheetResult
	fields []string
	groups map[string]int
}

func (s *sheetRun) diag(table, row int, sev models.Severity, code, format string, args ...interface{}) {
	s.res.Diagnostics = append(s.res.Diagnostics, models.Diagnostic{
		Sheet:    s.res.Sheet,
		Table:    table,
		Row:      row,
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
	})
}

func run(name string, g models.Grid, l *layout.Layout) models.SheetResult {
	s := &sheetRun{
		l: l,
		res: models.SheetResult{
			Sheet:   name,
			Layout:  l.Name,
			Records: []models.Record{},
		},
		groups: make(map[string]int),
	}
	meta := SheetMetadata(g, l)
	if len(meta) > 0 {
		s.res.Metadata = meta
	}

	from := 0
	for {
		tb, ok := LocateTable(g, l, from)
		if !ok {
			break
		}
		if l.Table.SideBySide {
			for _, w := range SideBySideWindows(g, l, tb) {
				s.res.Tables++
				s.table(g.Columns(w.From, w.To), s.res.Tables, tb, meta)
			}
		} else {
			s.res.Tables++
			s.table(g, s.res.Tables, tb, meta)
		}

		if !l.Table.Repeat {
			break
		}
		next := tb.End.Row
		if tb.Rule == EndByKeyword {
			next++
		}
		if next <= tb.Start.Row {
			next = tb.Start.Row + 1
		}
		from = next
	}

	if s.res.Tables == 0 {
		s.diag(0, 0, models.SeverityWarn, models.CodeStartAnchorNotFound,
			"start anchor %q not found", l.Table.Start.Keyword)
		return s.res
	}
	s.res.Fields = s.fields
	return s.res
}

// table extracts one located table from g, which is the sheet grid or one
// side-by-side column window of it.
func (s *sheetRun) table(g models.Grid, n int, tb TableBounds, sheetMeta map[string]string) {
	l := s.l
	head := tb.HeaderRow()

	if tb.Rule != EndByKeyword && tb.Rule != EndByNextStart && len(l.Table.End) > 0 {
		s.diag(n, 0, models.SeverityInfo, models.CodeEndAnchorFallback,
			"no end keyword after row %d, table closed by %s at row %d", head+1, tb.Rule, tb.End.Row)
	}

	tableMeta := TableMetadata(g, l, head)
	ctx := NewRowContext(l.Defaults)
	for i := range l.Metadata {
		m := &l.Metadata[i]
		if m.Seed == "" {
			continue
		}
		src := sheetMeta
		if m.RelativeRow != nil {
			src = tableMeta
		}
		if v := src[m.Key]; v != "" {
			ctx = ctx.With(m.Seed, v)
		}
	}

	fields := resolveFields(g, l, head)
	extra := make([]int, 0, len(fields))
	for _, f := range fields {
		extra = append(extra, f.Col)
	}
	classifier := NewClassifier(l, extra...)

	bodyStart := tb.BodyStart
	if l.Table.HeaderBand {
		for bodyStart < tb.End.Row && !classifier.IsData(g.Row(bodyStart)) {
			bodyStart++
		}
	}
	emitter := NewEmitter(l, fields, resolveSpread(g, l, tb, bodyStart))
	for i := range l.Metadata {
		m := &l.Metadata[i]
		if !m.Attach || m.Key == "" {
			continue
		}
		if m.RelativeRow != nil {
			emitter.Attach(m.Key, tableMeta[m.Key])
		} else {
			emitter.Attach(m.Key, sheetMeta[m.Key])
		}
	}

	var indexes []int
	var rows [][]models.Cell
	if head != NotFound && l.Table.StartOffset < 0 {
		for r := head + l.Table.StartOffset; r < head; r++ {
			if r >= 0 {
				indexes = append(indexes, r)
				rows = append(rows, g.Row(r))
			}
		}
	}
	for r := bodyStart; r < tb.End.Row; r++ {
		indexes = append(indexes, r)
		rows = append(rows, g.Row(r))
	}

	classified := classifier.ClassifyRows(ctx, indexes, rows)
	for _, cr := range classified {
		switch cr.Kind {
		case Unmatched:
			s.diag(n, cr.Index+1, models.SeverityWarn, models.CodeRowUnmatched,
				"row matches no rule (label %q)", cr.Label)
		case Checkpoint:
			for _, x := range cr.Unparsed {
				s.diag(n, cr.Index+1, models.SeverityInfo, models.CodeCheckpointUnparsed,
					"no %s in checkpoint %q", x, cr.Label)
			}
		}
	}

	segments := Segment(classified)
	records, groups := emitter.Emit(segments, n)
	for i := range groups {
		if groups[i].Label == "" {
			groups[i].Label = ctx.Get(layout.KeyGroup)
		}
	}
	s.res.Records = append(s.res.Records, records...)
	s.res.Groups = append(s.res.Groups, groups...)
	s.fields = dedupe(append(s.fields, emitter.Fields()...))

	seenHere := make(map[string]bool)
	for _, grp := range groups {
		label := grp.Label
		if label == "" || seenHere[label] {
			continue
		}
		seenHere[label] = true
		if first, ok := s.groups[label]; ok {
			s.diag(n, 0, models.SeverityInfo, models.CodeDuplicateGroupMerged,
				"group %q already seen in table %d; records kept in source order", label, first)
			continue
		}
		s.groups[label] = n
	}
}
