package engine

// SubSegment is the run of rows between two checkpoints of a class segment.
type SubSegment struct {
	// Header is the checkpoint row opening the segment, nil when implicit.
	Header *ClassifiedRow
	Rows   []ClassifiedRow
}

// Label returns the checkpoint label, or "" for an implicit segment.
func (s SubSegment) Label() string {
	if s.Header == nil {
		return ""
	}
	return s.Header.Label
}

// DataRows returns the rows classified as data.
func (s SubSegment) DataRows() []ClassifiedRow {
	var out []ClassifiedRow
	for _, r := range s.Rows {
		if r.Kind == Data {
			out = append(out, r)
		}
	}
	return out
}

// ClassSegment is the run of rows between two group headers.
type ClassSegment struct {
	// Header is the group header row, nil for rows before the first header.
	Header *ClassifiedRow
	Subs   []SubSegment
}

// Label returns the group header label, or "" for an implicit segment.
func (s ClassSegment) Label() string {
	if s.Header == nil {
		return ""
	}
	return s.Header.Label
}

func (s ClassSegment) hasData() bool {
	for _, sub := range s.Subs {
		if sub.hasData() {
			return true
		}
	}
	return false
}

func (s SubSegment) hasData() bool {
	for _, r := range s.Rows {
		if r.Kind == Data {
			return true
		}
	}
	return false
}

// Segment nests classified rows into class segments split at group headers
// and sub-segments split at checkpoints. Row order is preserved. Leading
// implicit segments are dropped when they hold no data rows.
func Segment(rows []ClassifiedRow) []ClassSegment {
	var out []ClassSegment
	cur := ClassSegment{Subs: []SubSegment{{}}}

	flush := func() {
		if len(cur.Subs) > 1 && cur.Subs[0].Header == nil && !cur.Subs[0].hasData() {
			cur.Subs = cur.Subs[1:]
		}
		if cur.Header != nil || cur.hasData() {
			out = append(out, cur)
		}
	}

	for i := range rows {
		row := rows[i]
		switch row.Kind {
		case GroupHeader:
			flush()
			cur = ClassSegment{Header: &row, Subs: []SubSegment{{}}}
		case Checkpoint:
			cur.Subs = append(cur.Subs, SubSegment{Header: &row})
		default:
			last := &cur.Subs[len(cur.Subs)-1]
			last.Rows = append(last.Rows, row)
		}
	}
	flush()
	return out
}
