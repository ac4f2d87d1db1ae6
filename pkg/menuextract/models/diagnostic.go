package models

import "fmt"

// Severity grades a diagnostic.
type Severity string

const (
	// SeverityInfo marks a recovered, expected fallback.
	SeverityInfo Severity = "info"
	// SeverityWarn marks input that could not be fully structured.
	SeverityWarn Severity = "warn"
)

// Diagnostic codes.
const (
	CodeStartAnchorNotFound  = "start_anchor_not_found"
	CodeEndAnchorFallback    = "end_anchor_fallback"
	CodeCheckpointUnparsed   = "checkpoint_unparsed"
	CodeRowUnmatched         = "row_unmatched"
	CodeDuplicateGroupMerged = "duplicate_group_merged"
	CodeSheetDecodeFailed    = "sheet_decode_failed"
	CodeNoLayoutMatched      = "no_layout_matched"
)

// Diagnostic is a non-fatal, sheet-scoped notice.
type Diagnostic struct {
	// Sheet is the sheet name the notice belongs to.
	Sheet string `json:"sheet"`
	// Table is the 1-based table number within the sheet (0 for sheet level).
	Table int `json:"table,omitempty"`
	// Row is the 1-based source row (0 when not row specific).
	Row int `json:"row,omitempty"`
	// Severity grades the notice.
	Severity Severity `json:"severity"`
	// Code is a stable machine-readable identifier.
	Code string `json:"code"`
	// Message is a human-readable explanation.
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Row > 0 {
		return fmt.Sprintf("%s[%s] row %d: %s", d.Sheet, d.Code, d.Row, d.Message)
	}
	return fmt.Sprintf("%s[%s]: %s", d.Sheet, d.Code, d.Message)
}
