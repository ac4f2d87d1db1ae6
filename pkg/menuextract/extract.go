package menuextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tlamngu/MenuExtractor/internal/logging"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/engine"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/parser"
)

// Extract extracts records from every selected sheet of the workbook at path.
func Extract(ctx context.Context, path string, opts Options) (*models.WorkbookResult, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, err
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, err
	}
	if err := checkFormat(mt, path); err != nil {
		return nil, err
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, path, err)
	}
	defer f.Close()

	return extractFile(ctx, f, filepath.Base(path), opts)
}

// ExtractReader is Extract for a workbook read from r.
func ExtractReader(ctx context.Context, r io.Reader, bookName string, opts Options) (*models.WorkbookResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := checkFormat(mimetype.Detect(data), bookName); err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidFormat, bookName, err)
	}
	defer f.Close()

	return extractFile(ctx, f, bookName, opts)
}

// ExtractSheet runs the configured layout over an already decoded sheet.
func ExtractSheet(sheet models.Sheet, opts Options) (models.SheetResult, error) {
	p, err := opts.resolve()
	if err != nil {
		return models.SheetResult{}, err
	}
	return p.run(sheet), nil
}

// checkFormat rejects content that cannot be an OOXML workbook. Legacy
// binary .xls files get their own message.
func checkFormat(mt *mimetype.MIME, name string) error {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return nil
		}
	}
	if mt.Is("application/vnd.ms-excel") {
		return fmt.Errorf("%w: %s is a legacy .xls workbook; save it as .xlsx", ErrInvalidFormat, name)
	}
	return fmt.Errorf("%w: %s is %s", ErrInvalidFormat, name, mt.String())
}

func (p plan) run(sheet models.Sheet) models.SheetResult {
	var res models.SheetResult
	if p.auto {
		res = engine.RunAuto(sheet, p.layouts)
	} else {
		res = engine.Run(sheet, p.layouts[0])
	}
	res.Range = parser.UsedRange(sheet.Grid)
	return res
}

func extractFile(ctx context.Context, f *excelize.File, bookName string, opts Options) (*models.WorkbookResult, error) {
	p, err := opts.resolve()
	if err != nil {
		return nil, err
	}
	names, err := selectSheets(f.GetSheetList(), opts.Sheets)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := opts.logger().With("book", bookName)
	readOpts := parser.ReadOptions{PrintAreaOnly: opts.PrintAreaOnly}

	results := make([]models.SheetResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency())
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			sheet, err := parser.ReadSheet(f, name, readOpts)
			if err != nil {
				results[i] = decodeFailed(name, err)
			} else {
				results[i] = p.run(sheet)
			}
			logSheet(gctx, logger, results[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.WorkbookResult{
		RunID:    runID,
		BookName: bookName,
		Sheets:   results,
	}, nil
}

// selectSheets returns the workbook sheets named in want, in workbook order.
// An empty want selects every sheet.
func selectSheets(all, want []string) ([]string, error) {
	if len(want) == 0 {
		return all, nil
	}
	var out []string
	for _, w := range want {
		found := false
		for _, name := range all {
			if strings.EqualFold(strings.TrimSpace(w), name) {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, w)
		}
	}
	for _, name := range all {
		for _, w := range want {
			if strings.EqualFold(strings.TrimSpace(w), name) {
				out = append(out, name)
				break
			}
		}
	}
	return out, nil
}

func decodeFailed(name string, err error) models.SheetResult {
	xerr := &StageError{Stage: StageDecode, Subject: name, Err: err}
	return models.SheetResult{
		Sheet:   name,
		Records: []models.Record{},
		Diagnostics: []models.Diagnostic{{
			Sheet:    name,
			Severity: models.SeverityWarn,
			Code:     models.CodeSheetDecodeFailed,
			Message:  xerr.Error(),
		}},
	}
}

func logSheet(ctx context.Context, logger *slog.Logger, res models.SheetResult) {
	logger = logger.With("sheet", res.Sheet)
	for _, d := range res.Diagnostics {
		level := slog.LevelInfo
		if d.Severity == models.SeverityWarn {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, d.Message, "code", d.Code, "table", d.Table, "row", d.Row)
	}
	logger.InfoContext(ctx, "sheet extracted",
		"layout", res.Layout,
		"tables", res.Tables,
		"records", len(res.Records),
		"diagnostics", len(res.Diagnostics))
}
