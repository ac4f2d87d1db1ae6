package menuextract

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

// testWorkbook builds a workbook with a meal menu sheet and a crew roster.
func testWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })

	require.NoError(t, f.SetSheetName("Sheet1", "Menu"))
	menu := map[string]interface{}{
		"A1": "Uplift Ratio", "B1": "Component Description", "C1": "Qty", "D1": "Remark",
		"A2": "CLASS C",
		"A3": "Dành cho tàu NEO 08:00<ETD<12:00", "C3": "MENU A1",
		"A4": 0.5, "B4": "Beef", "C4": 10,
		"A5": "Ghi chú: hot",
	}
	for cell, v := range menu {
		require.NoError(t, f.SetCellValue("Menu", cell, v))
	}

	_, err := f.NewSheet("Roster")
	require.NoError(t, err)
	roster := map[string]interface{}{
		"A1": "TT", "B1": "Mã", "C1": "Họ và Tên", "D1": "T2", "E1": "CÔNG QL",
		"D2": 45748,
		"A3": 1, "B3": 7, "C3": "Le C", "D3": "S",
	}
	for cell, v := range roster {
		require.NoError(t, f.SetCellValue("Roster", cell, v))
	}
	return f
}

func saveWorkbook(t *testing.T, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "menu.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestExtract(t *testing.T) {
	path := saveWorkbook(t, testWorkbook(t))

	res, err := Extract(context.Background(), path, Options{Layout: layout.MealMenu, Sheets: []string{"menu"}})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "menu.xlsx", res.BookName)
	require.Len(t, res.Sheets, 1)

	sheet := res.Sheets[0]
	assert.Equal(t, "Menu", sheet.Sheet)
	assert.Equal(t, layout.MealMenu, sheet.Layout)
	assert.Equal(t, "A1:D5", sheet.Range)
	require.Len(t, sheet.Records, 1)

	rec := sheet.Records[0]
	assert.Equal(t, "CLASS C", rec["group"])
	assert.Equal(t, "NEO", rec["aircraftType"])
	assert.Equal(t, "08:00", rec["startTime"])
	assert.Equal(t, "A1", rec["identifier"])
	assert.Equal(t, "50%", rec["upliftRatio"])
	assert.Equal(t, "Beef", rec["name"])
	assert.Equal(t, "10", rec["qty"])
	assert.Equal(t, "Ghi chú: hot", rec["note"])
	assert.Empty(t, sheet.Diagnostics)
}

func TestExtractAuto(t *testing.T) {
	path := saveWorkbook(t, testWorkbook(t))

	res, err := Extract(context.Background(), path, Options{Layout: layout.Auto, Concurrency: 2})
	require.NoError(t, err)
	require.Len(t, res.Sheets, 2)

	assert.Equal(t, "Menu", res.Sheets[0].Sheet)
	assert.Equal(t, layout.MealMenu, res.Sheets[0].Layout)
	assert.Equal(t, "Roster", res.Sheets[1].Sheet)
	assert.Equal(t, layout.CrewRoster, res.Sheets[1].Layout)

	records := res.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "0007", records[1]["id"])
	assert.Equal(t, "S", records[1]["2025-04-01"])
}

func TestExtractDefaultLayoutReportsMissingAnchor(t *testing.T) {
	path := saveWorkbook(t, testWorkbook(t))

	res, err := Extract(context.Background(), path, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, res.Sheets, 2)

	roster := res.Sheets[1]
	assert.Empty(t, roster.Records)
	require.Len(t, roster.Diagnostics, 1)
	assert.Equal(t, models.CodeStartAnchorNotFound, roster.Diagnostics[0].Code)
	assert.Len(t, res.Diagnostics(), 1)
}

func TestExtractReader(t *testing.T) {
	buf, err := testWorkbook(t).WriteToBuffer()
	require.NoError(t, err)

	res, err := ExtractReader(context.Background(), bytes.NewReader(buf.Bytes()), "upload.xlsx",
		Options{Layout: layout.CrewRoster, Sheets: []string{"Roster"}})
	require.NoError(t, err)
	assert.Equal(t, "upload.xlsx", res.BookName)
	require.Len(t, res.Sheets, 1)
	require.Len(t, res.Sheets[0].Records, 1)
	assert.Equal(t, "Le C", res.Sheets[0].Records[0]["name"])
}

func TestExtractLayoutFile(t *testing.T) {
	path := saveWorkbook(t, testWorkbook(t))
	layoutFile := filepath.Join(t.TempDir(), "items.yaml")
	require.NoError(t, os.WriteFile(layoutFile, []byte(`name: items
table:
  start: {keyword: component description}
columns: {label: 0, name: 1}
data:
  filled: [2]
fields:
  - {name: item, column: 1}
  - {name: qty, column: 2}
`), 0o644))

	res, err := Extract(context.Background(), path, Options{LayoutFile: layoutFile, Sheets: []string{"Menu"}})
	require.NoError(t, err)

	sheet := res.Sheets[0]
	assert.Equal(t, "items", sheet.Layout)
	require.Len(t, sheet.Records, 1)
	assert.Equal(t, models.Record{"item": "Beef", "qty": "10"}, sheet.Records[0])
}

func TestExtractErrors(t *testing.T) {
	dir := t.TempDir()
	path := saveWorkbook(t, testWorkbook(t))
	garbage := filepath.Join(dir, "garbage.xlsx")
	require.NoError(t, os.WriteFile(garbage, []byte("not a workbook"), 0o644))

	tests := []struct {
		name string
		path string
		opts Options
		want error
	}{
		{"missing file", filepath.Join(dir, "absent.xlsx"), DefaultOptions(), ErrFileNotFound},
		{"invalid format", garbage, DefaultOptions(), ErrInvalidFormat},
		{"unknown layout", path, Options{Layout: "no-such-layout"}, ErrUnknownLayout},
		{"unknown sheet", path, Options{Sheets: []string{"Nope"}}, ErrSheetNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract(context.Background(), tt.path, tt.opts)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestExtractCanceled(t *testing.T) {
	path := saveWorkbook(t, testWorkbook(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Extract(ctx, path, DefaultOptions())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractSheet(t *testing.T) {
	sheet := models.Sheet{
		Name: "Inline",
		Grid: models.GridFromValues([][]interface{}{
			{"STT", "Tên", "Số lượng"},
			{1, "Khăn lạnh", 100},
			{"A", "Khăn giấy", 5},
		}),
	}

	res, err := ExtractSheet(sheet, Options{Layout: layout.Auto})
	require.NoError(t, err)
	assert.Equal(t, layout.SupplyList, res.Layout)
	assert.Equal(t, "A1:C3", res.Range)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "100", res.Records[0]["Số lượng"])

	_, err = ExtractSheet(sheet, Options{Layout: "missing"})
	assert.ErrorIs(t, err, ErrUnknownLayout)
}

func TestStageError(t *testing.T) {
	res := decodeFailed("S1", os.ErrPermission)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, models.CodeSheetDecodeFailed, res.Diagnostics[0].Code)
	assert.Equal(t, `sheet "S1" could not be decoded: permission denied`, res.Diagnostics[0].Message)
	assert.NotNil(t, res.Records)

	missing := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := ExtractSheet(models.Sheet{Name: "S1"}, Options{LayoutFile: missing})
	var serr *StageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, StageLayout, serr.Stage)
	assert.Equal(t, missing, serr.Subject)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "could not be loaded")
}

func TestUnknownLayoutSuggestions(t *testing.T) {
	_, err := ExtractSheet(models.Sheet{Name: "S1"}, Options{Layout: "roster"})
	require.ErrorIs(t, err, ErrUnknownLayout)
	assert.Contains(t, err.Error(), "did you mean crew-roster?")

	_, err = ExtractSheet(models.Sheet{Name: "S1"}, Options{Layout: "zzz"})
	require.ErrorIs(t, err, ErrUnknownLayout)
	assert.Contains(t, err.Error(), "known: beverage-manifest, crew-roster")
}

func TestExtractReaderRejectsText(t *testing.T) {
	_, err := ExtractReader(context.Background(), bytes.NewReader([]byte("name,qty\nBeef,10\n")), "menu.csv", DefaultOptions())
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
