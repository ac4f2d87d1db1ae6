package models

// Sheet is a decoded worksheet handed to the extraction engine.
type Sheet struct {
	// Name is the sheet name.
	Name string `json:"name"`
	// Grid holds the raw cell values.
	Grid Grid `json:"-"`
	// Merges lists merged rectangles reported by the decoder.
	Merges []MergedRegion `json:"merges,omitempty"`
}

// SubGroup is one sub-segment of a group in nested output.
type SubGroup struct {
	// Label is the raw label of the checkpoint row opening the sub-segment.
	Label string `json:"label,omitempty"`
	// Records are the records emitted from the sub-segment, in row order.
	Records []Record `json:"records"`
}

// Group is one class-level segment in nested output.
type Group struct {
	// Label is the group header label ("" for rows before the first header).
	Label string `json:"label,omitempty"`
	// Table is the 1-based table number the group came from.
	Table int `json:"table"`
	// Subs are the sub-segments of the group.
	Subs []SubGroup `json:"subs"`
}

// SheetResult is the structured extraction result for a single sheet.
type SheetResult struct {
	// Sheet is the sheet name.
	Sheet string `json:"sheet"`
	// Layout is the name of the layout used.
	Layout string `json:"layout,omitempty"`
	// Range is the used cell range of the sheet (e.g. "A1:D40").
	Range string `json:"range,omitempty"`
	// Tables is the number of tables located.
	Tables int `json:"tables"`
	// Fields is the ordered list of record keys.
	Fields []string `json:"fields,omitempty"`
	// Metadata holds sheet-level values found by metadata anchors.
	Metadata map[string]string `json:"metadata,omitempty"`
	// Records are the flattened output records in source order.
	Records []Record `json:"records"`
	// Groups is the hierarchical view of Records.
	Groups []Group `json:"groups,omitempty"`
	// Diagnostics are non-fatal notices raised while extracting.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}
