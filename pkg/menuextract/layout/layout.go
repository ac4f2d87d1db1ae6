// Package layout describes sheet layouts for the extraction engine.
//
// A Layout tells the engine where a table starts and ends, which columns play
// which role, how to recognise group, checkpoint and data rows, and which
// fields to emit. Layouts are plain data so new sheet formats can be added as
// YAML files instead of code.
package layout

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Context keys carried by the row classifier.
const (
	KeyGroup        = "group"
	KeyAircraftType = "aircraftType"
	KeyIdentifier   = "identifier"
	KeyStartTime    = "startTime"
	KeyEndTime      = "endTime"
	KeyCycle        = "cycle"
	KeyDateStart    = "dateStart"
	KeyDateEnd      = "dateEnd"
)

// ContextKeys lists every context key in canonical order.
var ContextKeys = []string{
	KeyGroup, KeyAircraftType, KeyIdentifier, KeyStartTime, KeyEndTime,
	KeyCycle, KeyDateStart, KeyDateEnd,
}

// Extractor names a capture strategy.
type Extractor string

const (
	ExtractText       Extractor = "text"
	ExtractIdentifier Extractor = "identifier"
	ExtractFlag       Extractor = "flag"
	ExtractTimeWindow Extractor = "timeWindow"
	ExtractDateRange  Extractor = "dateRange"
	ExtractMatch      Extractor = "match"
)

// Normalizer names a per-field transform.
type Normalizer string

const (
	NormalizeText       Normalizer = "text"
	NormalizeRatio      Normalizer = "ratio"
	NormalizeIdentifier Normalizer = "identifier"
	NormalizeCode       Normalizer = "code"
)

// MetaExtractor names a metadata extraction strategy.
type MetaExtractor string

const (
	MetaCell     MetaExtractor = "cell"
	MetaAfter    MetaExtractor = "after"
	MetaNext     MetaExtractor = "next"
	MetaMatch    MetaExtractor = "match"
	MetaKeyValue MetaExtractor = "keyValue"
)

// AnyColumn is returned by ColumnOr when no column is configured.
const AnyColumn = -1

// Col returns a pointer to n, for building layouts in Go.
func Col(n int) *int { return &n }

// ColumnOr dereferences p, or returns def when p is nil.
func ColumnOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// Anchor is a keyword locating a boundary row.
type Anchor struct {
	Keyword string `yaml:"keyword" json:"keyword" validate:"required"`
	// Column restricts the search to one column; nil searches every column.
	Column *int `yaml:"column,omitempty" json:"column,omitempty" validate:"omitempty,min=0"`
}

// Table bounds the data table inside a sheet.
type Table struct {
	// Start locates the header row. An empty keyword treats the whole grid
	// as the table body.
	Start Anchor `yaml:"start" json:"start" validate:"-"`
	// StartOffset pulls rows above the start anchor into the body (<= 0).
	StartOffset int `yaml:"startOffset,omitempty" json:"startOffset,omitempty" validate:"max=0"`
	// End lists keywords closing the table; the first one found wins.
	End []Anchor `yaml:"end,omitempty" json:"end,omitempty" validate:"dive"`
	// EndAtNextStart closes the table at the next start anchor.
	EndAtNextStart bool `yaml:"endAtNextStart,omitempty" json:"endAtNextStart,omitempty"`
	// Preamble counts title rows above each start anchor. A table closed by
	// the next start anchor ends before the next table's preamble.
	Preamble int `yaml:"preamble,omitempty" json:"preamble,omitempty" validate:"min=0"`
	// BlankRun is how many consecutive empty rows close the table
	// when no end keyword is found. 0 means 2; negative disables the rule.
	BlankRun int `yaml:"blankRun,omitempty" json:"blankRun,omitempty"`
	// HeaderRows counts header rows starting at the anchor. 0 means 1.
	HeaderRows int `yaml:"headerRows,omitempty" json:"headerRows,omitempty" validate:"min=0"`
	// HeaderBand treats every row between the header and the first data row
	// as additional header rows.
	HeaderBand bool `yaml:"headerBand,omitempty" json:"headerBand,omitempty"`
	// Repeat keeps scanning for further tables after the first one.
	Repeat bool `yaml:"repeat,omitempty" json:"repeat,omitempty"`
	// SideBySide splits the table at every further cell of the header row
	// holding the start keyword. Each column window is extracted as its own
	// table with column indexes relative to the window.
	SideBySide bool `yaml:"sideBySide,omitempty" json:"sideBySide,omitempty"`
}

// Columns maps row roles to column indexes.
type Columns struct {
	Label      int  `yaml:"label" json:"label" validate:"min=0"`
	Name       int  `yaml:"name" json:"name" validate:"min=0"`
	Identifier *int `yaml:"identifier,omitempty" json:"identifier,omitempty" validate:"omitempty,min=0"`
	Remark     *int `yaml:"remark,omitempty" json:"remark,omitempty" validate:"omitempty,min=0"`
}

// Field is one per-row output field.
type Field struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	// Column is the source column; Header resolves it from the header row
	// instead and wins when found.
	Column    *int       `yaml:"column,omitempty" json:"column,omitempty" validate:"required_without=Header"`
	Header    string     `yaml:"header,omitempty" json:"header,omitempty"`
	Normalize Normalizer `yaml:"normalize,omitempty" json:"normalize,omitempty" validate:"omitempty,oneof=text ratio identifier code"`
	// Width is the zero-padded width for the code normalizer.
	Width int `yaml:"width,omitempty" json:"width,omitempty" validate:"min=0"`
}

// Capture extracts context values from a cell of a header or checkpoint row.
type Capture struct {
	// Key is the context key written by text, identifier, flag and match
	// captures. Time windows always write startTime/endTime and date ranges
	// dateStart/dateEnd.
	Key     string    `yaml:"key,omitempty" json:"key,omitempty" validate:"omitempty,contextkey"`
	Column  *int      `yaml:"column,omitempty" json:"column,omitempty" validate:"omitempty,min=0"`
	Extract Extractor `yaml:"extract" json:"extract" validate:"required,oneof=text identifier flag timeWindow dateRange match"`
	Pattern string    `yaml:"pattern,omitempty" json:"pattern,omitempty" validate:"required_if=Extract match"`
	Token   string    `yaml:"token,omitempty" json:"token,omitempty" validate:"required_if=Extract flag"`
	Present string    `yaml:"present,omitempty" json:"present,omitempty"`
	Absent  string    `yaml:"absent,omitempty" json:"absent,omitempty"`
	// Keep leaves the previous value in place when nothing is extracted.
	Keep bool `yaml:"keep,omitempty" json:"keep,omitempty"`

	pattern *regexp.Regexp
}

// Regexp returns the compiled match pattern.
func (c *Capture) Regexp() *regexp.Regexp { return c.pattern }

// Keys returns the context keys the capture writes.
func (c *Capture) Keys() []string {
	switch c.Extract {
	case ExtractTimeWindow:
		return []string{KeyStartTime, KeyEndTime}
	case ExtractDateRange:
		return []string{KeyDateStart, KeyDateEnd}
	}
	return []string{c.Key}
}

// Rule recognises a group header or checkpoint row.
//
// The label column must be non-empty unless RequireEmptyLabel is set.
// Pattern is matched against the label cell, Keyword against every cell.
type Rule struct {
	Pattern           string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Keyword           string   `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	RequireEmptyLabel bool     `yaml:"requireEmptyLabel,omitempty" json:"requireEmptyLabel,omitempty"`
	RequireEmptyName  bool     `yaml:"requireEmptyName,omitempty" json:"requireEmptyName,omitempty"`
	Empty             []int    `yaml:"empty,omitempty" json:"empty,omitempty" validate:"dive,min=0"`
	Filled            []int    `yaml:"filled,omitempty" json:"filled,omitempty" validate:"dive,min=0"`
	EmptyFrom         *int     `yaml:"emptyFrom,omitempty" json:"emptyFrom,omitempty" validate:"omitempty,min=0"`
	RejectNumeric     bool     `yaml:"rejectNumeric,omitempty" json:"rejectNumeric,omitempty"`
	Ignore            []string `yaml:"ignore,omitempty" json:"ignore,omitempty"`
	// Captures run when the rule matches. Group rules always set the group
	// key from the label cell before any capture runs.
	Captures []Capture `yaml:"captures,omitempty" json:"captures,omitempty" validate:"dive"`
	// Reset clears context keys before captures run.
	Reset []string `yaml:"reset,omitempty" json:"reset,omitempty" validate:"dive,contextkey"`
	// Counter numbers unnamed groups. Group rules only.
	Counter *Counter `yaml:"counter,omitempty" json:"counter,omitempty"`

	pattern *regexp.Regexp
}

// Counter opens a numbered group at a data row whose Column holds Value
// (decimals dropped), unless it is the first data row since the table start
// or the last group header. Groups are labelled Numbered(Format, n); the
// group in force before the first one is number Start.
type Counter struct {
	Column int    `yaml:"column" json:"column" validate:"min=0"`
	Value  string `yaml:"value" json:"value" validate:"required"`
	Format string `yaml:"format" json:"format" validate:"required"`
	// Start defaults to 1.
	Start int `yaml:"start,omitempty" json:"start,omitempty" validate:"min=0"`
}

// First returns the number of the group in force before any reset.
func (c *Counter) First() int {
	if c.Start <= 0 {
		return 1
	}
	return c.Start
}

// Regexp returns the compiled label pattern, or nil.
func (r *Rule) Regexp() *regexp.Regexp { return r.pattern }

// IdentifierRule recognises rows carrying only a menu identifier.
type IdentifierRule struct {
	// Column overrides Columns.Identifier.
	Column *int     `yaml:"column,omitempty" json:"column,omitempty" validate:"omitempty,min=0"`
	Reset  []string `yaml:"reset,omitempty" json:"reset,omitempty" validate:"dive,contextkey"`
}

// DataRule adds requirements on top of a non-empty name cell.
type DataRule struct {
	Filled  []int `yaml:"filled,omitempty" json:"filled,omitempty" validate:"dive,min=0"`
	Numeric []int `yaml:"numeric,omitempty" json:"numeric,omitempty" validate:"dive,min=0"`
}

// Metadata locates a sheet- or table-level value.
type Metadata struct {
	Key     string `yaml:"key,omitempty" json:"key,omitempty" validate:"required_unless=Extract keyValue"`
	Keyword string `yaml:"keyword,omitempty" json:"keyword,omitempty"`
	Column  *int   `yaml:"column,omitempty" json:"column,omitempty" validate:"omitempty,min=0"`
	// Rows limits the search to the first N rows of the sheet (0: all).
	Rows int `yaml:"rows,omitempty" json:"rows,omitempty" validate:"min=0"`
	// RelativeRow searches a row relative to the table start anchor.
	// Such values are table scoped.
	RelativeRow *int `yaml:"relativeRow,omitempty" json:"relativeRow,omitempty"`
	// Span widens a RelativeRow search to that many rows downwards (0 means 1).
	Span    int           `yaml:"span,omitempty" json:"span,omitempty" validate:"min=0"`
	Extract MetaExtractor `yaml:"extract,omitempty" json:"extract,omitempty" validate:"omitempty,oneof=cell after next match keyValue"`
	// Offset is the column distance for the next extractor (0 means 1).
	Offset  int    `yaml:"offset,omitempty" json:"offset,omitempty" validate:"min=0"`
	Pattern string `yaml:"pattern,omitempty" json:"pattern,omitempty" validate:"required_if=Extract match"`
	// Attach copies the value into every record under Key.
	Attach bool `yaml:"attach,omitempty" json:"attach,omitempty"`
	// Seed initialises the named context key with the value.
	Seed string `yaml:"seed,omitempty" json:"seed,omitempty" validate:"omitempty,contextkey"`

	pattern *regexp.Regexp
}

// Regexp returns the compiled match pattern, or nil.
func (m *Metadata) Regexp() *regexp.Regexp { return m.pattern }

// Spread turns a run of columns into fields named after their headers,
// for pivot-style sheets (rosters, per-flight manifests).
type Spread struct {
	// HeaderRow is the header row relative to the start anchor. When nil the
	// header band (rows between the anchor and the first data row) is used.
	HeaderRow     *int     `yaml:"headerRow,omitempty" json:"headerRow,omitempty" validate:"omitempty,min=0"`
	StartColumn   *int     `yaml:"startColumn,omitempty" json:"startColumn,omitempty" validate:"omitempty,min=0"`
	StartKeywords []string `yaml:"startKeywords,omitempty" json:"startKeywords,omitempty"`
	// EndKeyword closes the spread (exclusive); searched right to left in the
	// anchor row and the row below it. Without it the spread runs to the
	// widest row.
	EndKeyword string   `yaml:"endKeyword,omitempty" json:"endKeyword,omitempty"`
	Skip       []string `yaml:"skip,omitempty" json:"skip,omitempty"`
	// SerialDates renders numeric headers as YYYY-MM-DD dates.
	SerialDates bool `yaml:"serialDates,omitempty" json:"serialDates,omitempty"`
	// Fallback names columns without a header, rendered with Numbered and
	// the 0-based column. Empty drops such columns.
	Fallback string `yaml:"fallback,omitempty" json:"fallback,omitempty"`
	Prefix   string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	// Qualify lists headers (whole cell, any case) that are prefixed with
	// the cell above them and a dot, e.g. "Catering.FWD".
	Qualify []string `yaml:"qualify,omitempty" json:"qualify,omitempty"`
	// Parents shortens a qualifying parent cell containing one of these
	// keywords to the keyword itself.
	Parents []string `yaml:"parents,omitempty" json:"parents,omitempty"`
}

// Numbered renders format with n in place of its first %d or %s verb.
// A format without a verb gets n appended.
func Numbered(format string, n int) string {
	num := strconv.Itoa(n)
	for _, verb := range []string{"%d", "%s"} {
		if strings.Contains(format, verb) {
			return strings.Replace(format, verb, num, 1)
		}
	}
	return format + num
}

// Layout is a complete sheet layout.
type Layout struct {
	Name           string            `yaml:"name" json:"name" validate:"required"`
	Description    string            `yaml:"description,omitempty" json:"description,omitempty"`
	Table          Table             `yaml:"table" json:"table"`
	Columns        Columns           `yaml:"columns" json:"columns"`
	Context        []string          `yaml:"context,omitempty" json:"context,omitempty" validate:"dive,contextkey"`
	Fields         []Field           `yaml:"fields,omitempty" json:"fields,omitempty" validate:"dive"`
	HeaderFields   bool              `yaml:"headerFields,omitempty" json:"headerFields,omitempty"`
	Group          *Rule             `yaml:"group,omitempty" json:"group,omitempty"`
	Checkpoint     *Rule             `yaml:"checkpoint,omitempty" json:"checkpoint,omitempty"`
	IdentifierOnly *IdentifierRule   `yaml:"identifierOnly,omitempty" json:"identifierOnly,omitempty"`
	Data           DataRule          `yaml:"data,omitempty" json:"data,omitempty"`
	Trailers       []string          `yaml:"trailers,omitempty" json:"trailers,omitempty"`
	Overrides      []Capture         `yaml:"overrides,omitempty" json:"overrides,omitempty" validate:"dive"`
	Metadata       []Metadata        `yaml:"metadata,omitempty" json:"metadata,omitempty" validate:"dive"`
	Spread         *Spread           `yaml:"spread,omitempty" json:"spread,omitempty"`
	Defaults       map[string]string `yaml:"defaults,omitempty" json:"defaults,omitempty" validate:"dive,keys,contextkey,endkeys"`

	trailers []*regexp.Regexp
	prepared bool
}

// TrailerPatterns returns the compiled trailer patterns.
func (l *Layout) TrailerPatterns() []*regexp.Regexp { return l.trailers }

// BlankRun returns the effective blank-row run length (0 when disabled).
func (l *Layout) BlankRun() int {
	switch {
	case l.Table.BlankRun < 0:
		return 0
	case l.Table.BlankRun == 0:
		return 2
	}
	return l.Table.BlankRun
}

// HeaderRows returns the effective number of header rows.
func (l *Layout) HeaderRows() int {
	if l.Table.HeaderRows <= 0 {
		return 1
	}
	return l.Table.HeaderRows
}

// IdentifierColumn returns the column scanned for identifier-only rows,
// or AnyColumn when none is configured.
func (l *Layout) IdentifierColumn() int {
	if l.IdentifierOnly != nil && l.IdentifierOnly.Column != nil {
		return *l.IdentifierOnly.Column
	}
	return ColumnOr(l.Columns.Identifier, AnyColumn)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("contextkey", func(fl validator.FieldLevel) bool {
			return IsContextKey(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// IsContextKey reports whether key is one of ContextKeys.
func IsContextKey(key string) bool {
	for _, k := range ContextKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Validate checks struct constraints and compiles every pattern.
// It is safe to call more than once.
func (l *Layout) Validate() error {
	if l.prepared {
		return nil
	}
	if err := getValidator().Struct(l); err != nil {
		return fmt.Errorf("layout %q: %w", l.Name, err)
	}
	if err := l.compile(); err != nil {
		return fmt.Errorf("layout %q: %w", l.Name, err)
	}
	l.prepared = true
	return nil
}

func (l *Layout) compile() error {
	var err error
	for _, r := range []*Rule{l.Group, l.Checkpoint} {
		if r == nil {
			continue
		}
		if r.Pattern != "" {
			if r.pattern, err = compileFold(r.Pattern); err != nil {
				return err
			}
		}
		if err := compileCaptures(r.Captures); err != nil {
			return err
		}
	}
	if err := compileCaptures(l.Overrides); err != nil {
		return err
	}
	for i := range l.Metadata {
		if l.Metadata[i].Pattern == "" {
			continue
		}
		if l.Metadata[i].pattern, err = compileFold(l.Metadata[i].Pattern); err != nil {
			return err
		}
	}
	l.trailers = l.trailers[:0]
	for _, t := range l.Trailers {
		re, err := compileFold(t)
		if err != nil {
			return err
		}
		l.trailers = append(l.trailers, re)
	}
	return nil
}

func compileCaptures(cs []Capture) error {
	for i := range cs {
		switch cs[i].Extract {
		case ExtractTimeWindow, ExtractDateRange:
		default:
			if cs[i].Key == "" {
				return fmt.Errorf("%s capture needs a key", cs[i].Extract)
			}
		}
		if cs[i].Pattern == "" {
			continue
		}
		re, err := compileFold(cs[i].Pattern)
		if err != nil {
			return err
		}
		cs[i].pattern = re
	}
	return nil
}

// compileFold compiles a case-insensitive pattern.
func compileFold(p string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("(?i)" + p)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", p, err)
	}
	return re, nil
}

// FieldNames returns the names of the declared per-row fields.
func (l *Layout) FieldNames() []string {
	names := make([]string, 0, len(l.Fields))
	for _, f := range l.Fields {
		names = append(names, f.Name)
	}
	return names
}

// AttachedKeys returns the metadata keys copied into every record.
func (l *Layout) AttachedKeys() []string {
	var keys []string
	for _, m := range l.Metadata {
		if m.Attach && m.Key != "" {
			keys = append(keys, m.Key)
		}
	}
	return keys
}
