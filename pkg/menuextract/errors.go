package menuextract

import (
	"errors"
	"fmt"
)

// ErrFileNotFound indicates the input workbook does not exist.
var ErrFileNotFound = errors.New("workbook not found")

// ErrInvalidFormat indicates the input is not an xlsx workbook.
var ErrInvalidFormat = errors.New("not an xlsx workbook")

// ErrUnknownLayout indicates the requested layout is not registered.
var ErrUnknownLayout = errors.New("unknown layout")

// ErrSheetNotFound indicates a requested sheet is not in the workbook.
var ErrSheetNotFound = errors.New("sheet not found")

// Stage is the step of a run a StageError comes from.
type Stage string

const (
	// StageDecode is reading a sheet's cells, merges and print area.
	StageDecode Stage = "decode"
	// StageLayout is loading and registering layout files.
	StageLayout Stage = "layout"
)

// StageError ties a failure to its stage and subject: the sheet name for
// decode failures, the file or directory for layout failures.
//
// Decode failures never abort a run; they become sheet_decode_failed
// diagnostics. Layout failures are returned before any sheet is read.
type StageError struct {
	Stage   Stage
	Subject string
	Err     error
}

func (e *StageError) Error() string {
	switch e.Stage {
	case StageDecode:
		return fmt.Sprintf("sheet %q could not be decoded: %v", e.Subject, e.Err)
	case StageLayout:
		return fmt.Sprintf("layouts from %s could not be loaded: %v", e.Subject, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Subject, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
