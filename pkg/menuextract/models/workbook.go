package models

// WorkbookResult is the workbook-level container of per-sheet results.
type WorkbookResult struct {
	// RunID identifies the extraction run.
	RunID string `json:"run_id"`
	// BookName is the workbook file name (no path).
	BookName string `json:"book_name"`
	// Sheets holds results in workbook sheet order.
	Sheets []SheetResult `json:"sheets"`
}

// Records returns every record of every sheet in order.
func (w *WorkbookResult) Records() []Record {
	var out []Record
	for _, s := range w.Sheets {
		out = append(out, s.Records...)
	}
	return out
}

// Diagnostics returns every diagnostic of every sheet in order.
func (w *WorkbookResult) Diagnostics() []Diagnostic {
	var out []Diagnostic
	for _, s := range w.Sheets {
		out = append(out, s.Diagnostics...)
	}
	return out
}
