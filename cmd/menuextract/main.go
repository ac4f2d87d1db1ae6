// Package main provides the CLI entry point for menuextract.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tlamngu/MenuExtractor/internal/config"
	"github.com/tlamngu/MenuExtractor/internal/logging"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/output"
)

var (
	outputPath    string
	pretty        bool
	format        string
	shape         string
	layoutName    string
	layoutFile    string
	layoutsDir    string
	sheets        []string
	sheetsDir     string
	configPath    string
	logLevel      string
	concurrency   int
	printAreaOnly bool
	bom           bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "menuextract [input.xlsx]",
		Short: "Extract menu, roster and manifest records from Excel files",
		Long: `menuextract locates keyword-anchored tables in spreadsheet sheets,
carries class, aircraft, cycle and time-window context down to each data row
and outputs normalized records as JSON or CSV.`,
		Args:         cobra.ExactArgs(1),
		RunE:         run,
		SilenceUsage: true,
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	flags.BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	flags.StringVar(&format, "format", "json", "Output format: json, csv")
	flags.StringVar(&shape, "shape", "flat", "JSON record shape: flat, nested")
	flags.StringVar(&layoutName, "layout", layout.MealMenu, "Layout name, or auto to pick the best layout per sheet")
	flags.StringVar(&layoutFile, "layout-file", "", "YAML layout file to register (and use when --layout is not set)")
	flags.StringVar(&layoutsDir, "layouts-dir", "", "Directory of YAML layouts to register")
	flags.StringArrayVar(&sheets, "sheet", nil, "Sheet to extract (repeatable; default: all)")
	flags.StringVar(&sheetsDir, "sheets-dir", "", "Directory for per-sheet output files")
	flags.StringVar(&configPath, "config", "", "YAML config file")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.IntVar(&concurrency, "concurrency", menuextract.DefaultConcurrency, "Sheets extracted in parallel")
	flags.BoolVar(&printAreaOnly, "print-area-only", false, "Ignore cells outside each sheet's print area")
	flags.BoolVar(&bom, "bom", false, "Prefix CSV output with a UTF-8 byte order mark")

	rootCmd.AddCommand(newLayoutsCmd())
	return rootCmd
}

func run(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	outShape, err := output.ParseShape(cfg.Output.Shape)
	if err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	opts := menuextract.Options{
		Layout:        cfg.Extract.Layout,
		LayoutFile:    layoutFile,
		LayoutsDir:    cfg.Extract.LayoutsDir,
		Sheets:        sheets,
		Concurrency:   cfg.Extract.Concurrency,
		PrintAreaOnly: cfg.Extract.PrintAreaOnly,
		Logger:        logger,
	}
	if layoutFile != "" && !cmd.Flags().Changed("layout") {
		opts.Layout = ""
	}

	wb, err := menuextract.Extract(context.Background(), inputPath, opts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	logger.Info("extraction finished",
		"run_id", wb.RunID,
		"sheets", len(wb.Sheets),
		"records", len(wb.Records()),
		"diagnostics", len(wb.Diagnostics()))

	data, err := render(wb, cfg.Output, outShape)
	if err != nil {
		return fmt.Errorf("serialization failed: %w", err)
	}

	// Write output
	if outputPath != "" {
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	} else if sheetsDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	// Write per-sheet files
	if sheetsDir != "" {
		if err := writeSheetFiles(wb, sheetsDir, cfg.Output, outShape); err != nil {
			return fmt.Errorf("failed to write sheet files: %w", err)
		}
	}

	return nil
}

// applyFlags lets explicitly set flags override file and environment config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("layout") {
		cfg.Extract.Layout = layoutName
	}
	if flags.Changed("layouts-dir") {
		cfg.Extract.LayoutsDir = layoutsDir
	}
	if flags.Changed("concurrency") {
		cfg.Extract.Concurrency = concurrency
	}
	if flags.Changed("print-area-only") {
		cfg.Extract.PrintAreaOnly = printAreaOnly
	}
	if flags.Changed("format") {
		cfg.Output.Format = format
	}
	if flags.Changed("shape") {
		cfg.Output.Shape = shape
	}
	if flags.Changed("pretty") {
		cfg.Output.Pretty = pretty
	}
	if flags.Changed("bom") {
		cfg.Output.BOM = bom
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func render(wb *models.WorkbookResult, cfg config.OutputConfig, s output.Shape) ([]byte, error) {
	if cfg.Format == "csv" {
		var buf bytes.Buffer
		if err := output.WriteCSV(&buf, wb, cfg.BOM); err != nil {
			return nil, err
		}
		return bytes.TrimRight(buf.Bytes(), "\n"), nil
	}
	return output.ToJSON(wb, s, cfg.Pretty)
}

func writeSheetFiles(wb *models.WorkbookResult, dir string, cfg config.OutputConfig, s output.Shape) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		var (
			data []byte
			err  error
		)
		if cfg.Format == "csv" {
			var buf bytes.Buffer
			err = output.WriteSheetCSV(&buf, sheet, cfg.BOM)
			data = buf.Bytes()
		} else {
			data, err = output.SheetToJSON(sheet, s, cfg.Pretty)
		}
		if err != nil {
			return err
		}

		filename := filepath.Join(dir, sheetFileName(sheet.Sheet)+"."+cfg.Format)
		if err := os.WriteFile(filename, data, 0644); err != nil {
			return err
		}
	}

	return nil
}

var unsafeFileChars = strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")

func sheetFileName(name string) string {
	name = strings.TrimSpace(unsafeFileChars.Replace(name))
	if name == "" {
		return "sheet"
	}
	return name
}

func newLayoutsCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "layouts [name]",
		Short: "List layouts, or print one layout as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := layout.Builtin()
			if dir != "" {
				if _, err := reg.RegisterDir(dir); err != nil {
					return err
				}
			}
			return printLayouts(cmd.OutOrStdout(), reg, args)
		},
	}
	cmd.Flags().StringVar(&dir, "layouts-dir", "", "Directory of YAML layouts to register")
	return cmd
}

func printLayouts(w io.Writer, reg *layout.Registry, args []string) error {
	if len(args) == 1 {
		l, ok := reg.Get(args[0])
		if !ok {
			return fmt.Errorf("%w: %q", menuextract.ErrUnknownLayout, args[0])
		}
		data, err := layout.MarshalYAML(l)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
	for _, name := range reg.Names() {
		l, _ := reg.Get(name)
		fmt.Fprintf(w, "%-20s %s\n", name, l.Description)
		keys := append(append(append([]string{}, l.Context...), l.FieldNames()...), l.AttachedKeys()...)
		if len(keys) > 0 {
			fmt.Fprintf(w, "%-20s keys: %s\n", "", strings.Join(keys, ", "))
		}
	}
	return nil
}
