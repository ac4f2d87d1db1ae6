package engine

import (
	"regexp"
	"strings"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/normalize"
)

// SheetMetadata collects the sheet-scoped metadata of l: every entry without
// a RelativeRow. Missing values are simply absent.
func SheetMetadata(g models.Grid, l *layout.Layout) map[string]string {
	out := make(map[string]string)
	for i := range l.Metadata {
		m := &l.Metadata[i]
		if m.RelativeRow != nil {
			continue
		}
		if m.Extract == layout.MetaKeyValue {
			for k, v := range keyValues(g, m.Rows) {
				out[k] = v
			}
			continue
		}
		rows := g.NumRows()
		if m.Rows > 0 && m.Rows < rows {
			rows = m.Rows
		}
		for r := 0; r < rows; r++ {
			if v, ok := metadataInRow(g, m, r); ok {
				out[m.Key] = v
				break
			}
		}
	}
	return out
}

// TableMetadata collects the metadata anchored relative to the header row.
// An entry with a Span takes the first match in its rows, top to bottom.
func TableMetadata(g models.Grid, l *layout.Layout, headerRow int) map[string]string {
	out := make(map[string]string)
	if headerRow == NotFound {
		return out
	}
	for i := range l.Metadata {
		m := &l.Metadata[i]
		if m.RelativeRow == nil || m.Extract == layout.MetaKeyValue {
			continue
		}
		first := headerRow + *m.RelativeRow
		for r := first; r < first+max(m.Span, 1); r++ {
			if v, ok := metadataInRow(g, m, r); ok {
				out[m.Key] = v
				break
			}
		}
	}
	return out
}

// metadataInRow applies m to the first matching cell of row r.
func metadataInRow(g models.Grid, m *layout.Metadata, r int) (string, bool) {
	if r < 0 || r >= g.NumRows() {
		return "", false
	}
	from, to := 0, g.Width(r)
	if m.Column != nil {
		from, to = *m.Column, *m.Column+1
	}
	for c := from; c < to; c++ {
		a, ok := metadataAnchor(g, m, r, c)
		if !ok {
			continue
		}
		if v := metadataValue(g, m, a); v != "" {
			return v, true
		}
	}
	return "", false
}

// metadataAnchor reports whether cell (r, c) is non-empty and holds the
// keyword of m.
func metadataAnchor(g models.Grid, m *layout.Metadata, r, c int) (Anchor, bool) {
	text := g.At(r, c).Trimmed()
	if text == "" || (m.Keyword != "" && !normalize.ContainsFold(text, m.Keyword)) {
		return Anchor{Row: NotFound, Col: NotFound, Keyword: m.Keyword, Role: RoleMetadataKey}, false
	}
	return Anchor{Row: r, Col: c, Keyword: m.Keyword, Role: RoleMetadataKey}, true
}

func metadataValue(g models.Grid, m *layout.Metadata, a Anchor) string {
	text := g.At(a.Row, a.Col).Trimmed()
	switch m.Extract {
	case layout.MetaAfter:
		if m.Keyword == "" {
			return text
		}
		re, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(normalize.Canonical(m.Keyword)) + `\s*(.*)`)
		if err != nil {
			return ""
		}
		return normalize.Match(re, normalize.Canonical(text))
	case layout.MetaNext:
		off := m.Offset
		if off == 0 {
			off = 1
		}
		return g.At(a.Row, a.Col+off).Trimmed()
	case layout.MetaMatch:
		return normalize.Match(m.Regexp(), normalize.Canonical(text))
	}
	return text
}

// keyValues reads "key: value" lines from the top of the sheet, stopping at
// the first row without a colon.
func keyValues(g models.Grid, limit int) map[string]string {
	out := make(map[string]string)
	for r := 0; r < g.NumRows(); r++ {
		if limit > 0 && r >= limit {
			break
		}
		var b strings.Builder
		colon := false
		for _, cell := range g.Row(r) {
			s := cell.Trimmed()
			if cell.Kind == models.KindString && strings.Contains(s, ":") {
				colon = true
			}
			b.WriteString(s)
		}
		if !colon {
			break
		}
		key, val, _ := strings.Cut(b.String(), ":")
		if key = strings.TrimSpace(key); key != "" {
			out[key] = strings.TrimSpace(val)
		}
	}
	return out
}
