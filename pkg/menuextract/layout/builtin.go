package layout

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Names of the built-in layouts.
const (
	MealMenu         = "meal-menu"
	MealCycle        = "meal-cycle"
	MealStandalone   = "meal-standalone"
	CrewRoster       = "crew-roster"
	BeverageManifest = "beverage-manifest"
	SupplyList       = "supply-list"
	FlightTimetable  = "flight-timetable"

	// Auto selects the layout yielding the most records.
	Auto = "auto"
)

func mealMenu() *Layout {
	return &Layout{
		Name:        MealMenu,
		Description: "Meal menu with class headers, ETD condition rows and menu ids",
		Table: Table{
			Start: Anchor{Keyword: "uplift ratio", Column: Col(0)},
			End:   []Anchor{{Keyword: "ghi chú", Column: Col(0)}},
		},
		Columns: Columns{Label: 0, Name: 1, Identifier: Col(2), Remark: Col(3)},
		Context: []string{KeyGroup, KeyAircraftType, KeyStartTime, KeyEndTime, KeyIdentifier},
		Fields: []Field{
			{Name: "upliftRatio", Column: Col(0), Normalize: NormalizeRatio},
			{Name: "name", Column: Col(1)},
			{Name: "qty", Column: Col(2)},
			{Name: "remark", Column: Col(3)},
		},
		Group: &Rule{
			Pattern:          `\b(CLASS|CREW|CAPTAIN|COPILOT)\b`,
			RequireEmptyName: true,
			Reset:            []string{KeyAircraftType, KeyStartTime, KeyEndTime},
			Captures: []Capture{
				{Key: KeyIdentifier, Column: Col(2), Extract: ExtractIdentifier, Keep: true},
			},
		},
		Checkpoint: &Rule{
			Pattern: `(dành cho tàu|<\s*etd\s*<)`,
			Captures: []Capture{
				{Key: KeyAircraftType, Extract: ExtractFlag, Token: "NEO", Present: "NEO", Absent: "normal"},
				{Extract: ExtractTimeWindow},
				{Key: KeyIdentifier, Column: Col(2), Extract: ExtractIdentifier, Keep: true},
			},
		},
		IdentifierOnly: &IdentifierRule{
			Reset: []string{KeyAircraftType, KeyStartTime, KeyEndTime},
		},
		Trailers: []string{`^loaded by`},
		Overrides: []Capture{
			{Column: Col(3), Extract: ExtractTimeWindow},
			{Key: KeyIdentifier, Column: Col(3), Extract: ExtractIdentifier},
		},
		Metadata: []Metadata{
			{Key: "note", Keyword: "ghi chú:", Column: Col(0), Extract: MetaCell, Attach: true},
			{Extract: MetaKeyValue, Rows: 10},
		},
	}
}

func mealCycle() *Layout {
	return &Layout{
		Name:        MealCycle,
		Description: "Meal menu split into CYCLE blocks with date ranges; class and menu above the header",
		Table: Table{
			Start: Anchor{Keyword: "uplift ratio", Column: Col(0)},
			End:   []Anchor{{Keyword: "lưu ý", Column: Col(0)}},
		},
		Columns: Columns{Label: 0, Name: 1, Remark: Col(4)},
		Context: []string{KeyGroup, KeyIdentifier, KeyCycle, KeyDateStart, KeyDateEnd},
		Fields: []Field{
			{Name: "upliftRatio", Column: Col(0), Normalize: NormalizeRatio},
			{Name: "name", Column: Col(1)},
			{Name: "unit", Column: Col(2)},
			{Name: "qty", Column: Col(3)},
			{Name: "remark", Column: Col(4)},
		},
		Checkpoint: &Rule{
			Keyword:           "cycle",
			RequireEmptyLabel: true,
			Captures: []Capture{
				{Key: KeyCycle, Column: Col(1), Extract: ExtractText},
				{Column: Col(4), Extract: ExtractDateRange},
			},
		},
		Metadata: []Metadata{
			{Key: "class", Keyword: "class", RelativeRow: Col(-1), Extract: MetaCell, Seed: KeyGroup},
			{Key: "menu", Keyword: "menu", RelativeRow: Col(-1), Extract: MetaMatch, Pattern: `menu\s*([a-z0-9]+)`, Seed: KeyIdentifier},
		},
		Defaults: map[string]string{KeyCycle: "ALL"},
	}
}

func mealStandalone() *Layout {
	return &Layout{
		Name:        MealStandalone,
		Description: "Meal menu with MENU/CYCLE rows and bare class rows; the menu row may sit above the header",
		Table: Table{
			Start:       Anchor{Keyword: "uplift ratio", Column: Col(0)},
			StartOffset: -1,
			End:         []Anchor{{Keyword: "ghi chú", Column: Col(0)}},
		},
		Columns: Columns{Label: 0, Name: 1},
		Context: []string{KeyGroup, KeyIdentifier, KeyCycle},
		Fields: []Field{
			{Name: "upliftRatio", Column: Col(0), Normalize: NormalizeRatio},
			{Name: "name", Column: Col(1)},
			{Name: "qty", Column: Col(2)},
			{Name: "remark", Column: Col(3)},
		},
		Group: &Rule{
			RequireEmptyName: true,
			EmptyFrom:        Col(2),
		},
		Checkpoint: &Rule{
			Pattern:          "menu",
			Keyword:          "cycle",
			RequireEmptyName: true,
			Filled:           []int{2},
			Reset:            []string{KeyGroup},
			Captures: []Capture{
				{Key: KeyIdentifier, Extract: ExtractIdentifier},
				{Key: KeyCycle, Column: Col(3), Extract: ExtractText},
			},
		},
		Data:     DataRule{Filled: []int{0}},
		Defaults: map[string]string{KeyIdentifier: "%STANDALONE"},
	}
}

func crewRoster() *Layout {
	return &Layout{
		Name:        CrewRoster,
		Description: "Crew work plan: one row per employee, one column per day",
		Table: Table{
			Start:      Anchor{Keyword: "họ và tên"},
			HeaderRows: 2,
			BlankRun:   -1,
		},
		Columns: Columns{Label: 0, Name: 2},
		Context: []string{KeyGroup},
		Fields: []Field{
			{Name: "id", Column: Col(1), Normalize: NormalizeCode, Width: 4},
			{Name: "name", Column: Col(2)},
		},
		Group: &Rule{
			RequireEmptyName: true,
			Empty:            []int{1},
			RejectNumeric:    true,
			Ignore:           []string{"anh/em", "giao non-air", "tùy thuộc", "prepared by", "write python code"},
			Counter:          &Counter{Column: 0, Value: "1", Format: "Nhóm %d"},
		},
		Data:     DataRule{Filled: []int{1}},
		Trailers: []string{`^prepared by`, `^write python code`},
		Spread: &Spread{
			HeaderRow:   Col(1),
			StartColumn: Col(3),
			EndKeyword:  "công ql",
			SerialDates: true,
			Fallback:    "Day_%d",
		},
		Metadata: []Metadata{
			{Key: "valid_from", Keyword: "từ :", Rows: 5, Extract: MetaNext},
			{Key: "valid_to", Keyword: "đến :", Rows: 5, Extract: MetaNext},
			{Key: "issued_date", Keyword: "phát hành :", Rows: 5, Extract: MetaNext, Offset: 2},
			{Key: "version", Keyword: "phát hành lần", Rows: 5, Extract: MetaMatch, Pattern: `\d+`},
		},
		Defaults: map[string]string{KeyGroup: "Nhóm 1"},
	}
}

func beverageManifest() *Layout {
	return &Layout{
		Name:        BeverageManifest,
		Description: "Beverage delivery manifest: repeated STT blocks with per-flight columns",
		Table: Table{
			Start:          Anchor{Keyword: "stt", Column: Col(0)},
			End:            []Anchor{{Keyword: "số lượng xe giao đi", Column: Col(0)}},
			EndAtNextStart: true,
			Preamble:       1,
			BlankRun:       -1,
			HeaderBand:     true,
			Repeat:         true,
		},
		Columns: Columns{Label: 0, Name: 1},
		Context: []string{KeyGroup},
		Fields: []Field{
			{Name: "stt", Column: Col(0)},
			{Name: "name", Column: Col(1)},
		},
		Data: DataRule{Numeric: []int{0}},
		Spread: &Spread{
			StartKeywords: []string{"đvt", "thông tin chặng bay"},
			EndKeyword:    "ghi chú",
			Skip:          []string{"tái xuất"},
		},
		Metadata: []Metadata{
			{Key: "classification", RelativeRow: Col(-1), Column: Col(0), Extract: MetaCell, Seed: KeyGroup},
			{Key: "spill_id", Keyword: "phiếu giao nhận đồ uống", Column: Col(0), Extract: MetaCell, Attach: true},
		},
	}
}

func supplyList() *Layout {
	return &Layout{
		Name:         SupplyList,
		Description:  "Flat supply list keyed by the STT header row",
		Table:        Table{Start: Anchor{Keyword: "stt", Column: Col(0)}},
		Columns:      Columns{Label: 0, Name: 1},
		HeaderFields: true,
		Data:         DataRule{Filled: []int{0}},
	}
}

// timetableMeta is searched from ten rows above each table's header row to
// three rows below it.
func timetableMeta(m Metadata) Metadata {
	m.RelativeRow = Col(-10)
	m.Span = 14
	return m
}

func flightTimetable() *Layout {
	return &Layout{
		Name:        FlightTimetable,
		Description: "Flight timetable: day and night tables side by side, one row per M/bay",
		Table: Table{
			Start:      Anchor{Keyword: "m/bay", Column: Col(0)},
			SideBySide: true,
		},
		Columns: Columns{Label: 0, Name: 1},
		Context: []string{KeyGroup},
		Fields: []Field{
			{Name: "bay", Column: Col(0)},
			{Name: "flightNo", Header: "flt no"},
			{Name: "etdEta", Header: "etd/eta"},
		},
		Data: DataRule{Filled: []int{0}},
		Spread: &Spread{
			HeaderRow:   Col(0),
			StartColumn: Col(1),
			Skip:        []string{"m/bay", "flt no", "etd/eta"},
			Qualify:     []string{"FWD", "MID", "AFT", "No"},
			Parents:     []string{"TPO"},
		},
		Metadata: []Metadata{
			{Key: "documentNumber", Keyword: "document number:", Rows: 5, Extract: MetaMatch, Pattern: `document number:\s*(.+)`},
			{Key: "revision", Keyword: "revision:", Rows: 5, Extract: MetaMatch, Pattern: `revision:\s*(.+)`},
			{Key: "attachment", Keyword: "attachment", Rows: 5, Extract: MetaCell},
			timetableMeta(Metadata{Key: "shift", Keyword: "shift:", Extract: MetaMatch, Pattern: `shift:\s*(.+)`, Seed: KeyGroup}),
			timetableMeta(Metadata{Key: "date", Keyword: "date:", Extract: MetaMatch, Pattern: `date:\s*(.+)`, Attach: true}),
			timetableMeta(Metadata{Key: "section", Keyword: "section:", Extract: MetaAfter, Attach: true}),
			timetableMeta(Metadata{Key: "acsSupervisor", Keyword: "acs supervisor:", Extract: MetaAfter, Attach: true}),
			timetableMeta(Metadata{Key: "tpoSupervisor", Keyword: "tpo supervisor", Extract: MetaMatch, Pattern: `tpo supervisor:?\s*(.+)`, Attach: true}),
		},
	}
}

// Registry is an ordered, name-indexed set of layouts.
// Registration order breaks ties during automatic selection.
type Registry struct {
	mu      sync.RWMutex
	order   []string
	layouts map[string]*Layout
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{layouts: make(map[string]*Layout)}
}

// Register validates l and adds it, replacing any layout with the same name.
func (r *Registry) Register(l *Layout) error {
	if l == nil {
		return fmt.Errorf("layout: nil layout")
	}
	if err := l.Validate(); err != nil {
		return err
	}
	key := strings.ToLower(strings.TrimSpace(l.Name))
	if key == Auto {
		return fmt.Errorf("layout: %q is reserved", Auto)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.layouts[key]; !ok {
		r.order = append(r.order, key)
	}
	r.layouts[key] = l
	return nil
}

// Get returns the layout registered under name.
func (r *Registry) Get(name string) (*Layout, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.layouts[strings.ToLower(strings.TrimSpace(name))]
	return l, ok
}

// All returns the layouts in registration order.
func (r *Registry) All() []*Layout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Layout, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.layouts[k])
	}
	return out
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := append([]string(nil), r.order...)
	sort.Strings(names)
	return names
}

// Builtin returns a fresh registry holding the built-in layouts.
func Builtin() *Registry {
	r := NewRegistry()
	for _, build := range []func() *Layout{
		mealMenu, mealCycle, mealStandalone, crewRoster, beverageManifest, supplyList, flightTimetable,
	} {
		if err := r.Register(build()); err != nil {
			panic(err)
		}
	}
	return r
}
