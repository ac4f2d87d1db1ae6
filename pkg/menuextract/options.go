// Package menuextract extracts normalized records from spreadsheet menus,
// crew rosters, beverage manifests and supply lists.
package menuextract

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/tlamngu/MenuExtractor/internal/logging"
	"github.com/tlamngu/MenuExtractor/pkg/menuextract/layout"
)

// DefaultConcurrency bounds the sheets processed in parallel.
const DefaultConcurrency = 4

// Options configures extraction behavior.
type Options struct {
	// Layout names the layout to apply, or layout.Auto to try every
	// registered layout per sheet. Defaults to the LayoutFile layout when
	// one is given, otherwise meal-menu.
	Layout string
	// LayoutFile is a YAML layout registered before lookup.
	LayoutFile string
	// LayoutsDir is a directory of YAML layouts registered before lookup.
	LayoutsDir string
	// Registry is the base registry. If nil, the built-in layouts are used.
	Registry *layout.Registry
	// Sheets restricts extraction to the named sheets (case-insensitive).
	Sheets []string
	// Concurrency bounds parallel sheets. Zero means DefaultConcurrency.
	Concurrency int
	// PrintAreaOnly ignores cells outside each sheet's print area.
	PrintAreaOnly bool
	// Logger receives per-sheet summaries and diagnostics.
	// If nil, nothing is logged.
	Logger *slog.Logger
}

// DefaultOptions returns default extraction options.
func DefaultOptions() Options {
	return Options{
		Layout:      layout.MealMenu,
		Concurrency: DefaultConcurrency,
	}
}

func (o Options) concurrency() int {
	if o.Concurrency > 0 {
		return o.Concurrency
	}
	return DefaultConcurrency
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logging.Discard()
}

// plan is the resolved set of layouts for a run.
type plan struct {
	layouts []*layout.Layout
	auto    bool
}

// resolve builds the registry and picks the layouts to run.
func (o Options) resolve() (plan, error) {
	reg := o.Registry
	if reg == nil {
		reg = layout.Builtin()
	}
	if o.LayoutsDir != "" {
		if _, err := reg.RegisterDir(o.LayoutsDir); err != nil {
			return plan{}, &StageError{Stage: StageLayout, Subject: o.LayoutsDir, Err: err}
		}
	}
	name := strings.TrimSpace(o.Layout)
	if o.LayoutFile != "" {
		f, err := layout.LoadLayoutFile(o.LayoutFile)
		if err == nil {
			err = reg.Register(f.Layout)
		}
		if err != nil {
			return plan{}, &StageError{Stage: StageLayout, Subject: o.LayoutFile, Err: err}
		}
		if name == "" {
			name = f.Layout.Name
		}
	}
	if name == "" {
		name = layout.MealMenu
	}

	if strings.EqualFold(name, layout.Auto) {
		all := reg.All()
		if len(all) == 0 {
			return plan{}, fmt.Errorf("%w: registry is empty", ErrUnknownLayout)
		}
		return plan{layouts: all, auto: true}, nil
	}
	l, ok := reg.Get(name)
	if !ok {
		return plan{}, unknownLayout(name, reg.Names())
	}
	return plan{layouts: []*layout.Layout{l}}, nil
}

// unknownLayout reports name with the closest registered names, or every
// name when none is close.
func unknownLayout(name string, known []string) error {
	var similar []string
	for _, m := range fuzzy.Find(strings.ToLower(name), known) {
		similar = append(similar, m.Str)
	}
	if len(similar) > 0 {
		return fmt.Errorf("%w: %q (did you mean %s?)", ErrUnknownLayout, name, strings.Join(similar, ", "))
	}
	return fmt.Errorf("%w: %q (known: %s)", ErrUnknownLayout, name, strings.Join(known, ", "))
}
