package engine

import (
	"sort"
	"strings"
)

// RowContext holds the values inherited by data rows. It is immutable: every
// update returns a new context and leaves the receiver unchanged, so a
// snapshot taken for a record can never be altered by later rows.
type RowContext struct {
	values map[string]string
}

// NewRowContext returns a context initialised from defaults.
func NewRowContext(defaults map[string]string) RowContext {
	ctx := RowContext{}
	for k, v := range defaults {
		ctx = ctx.With(k, v)
	}
	return ctx
}

// Get returns the value of key, or "" when unset.
func (c RowContext) Get(key string) string {
	return c.values[key]
}

// With returns a copy of c with key set to value. An empty value unsets key.
func (c RowContext) With(key, value string) RowContext {
	value = strings.TrimSpace(value)
	if c.values[key] == value {
		return c
	}
	next := make(map[string]string, len(c.values)+1)
	for k, v := range c.values {
		next[k] = v
	}
	if value == "" {
		delete(next, key)
	} else {
		next[key] = value
	}
	return RowContext{values: next}
}

// Without returns a copy of c with keys unset.
func (c RowContext) Without(keys ...string) RowContext {
	for _, k := range keys {
		c = c.With(k, "")
	}
	return c
}

// Merge returns a copy of c with every pair of values applied.
func (c RowContext) Merge(values map[string]string) RowContext {
	for k, v := range values {
		c = c.With(k, v)
	}
	return c
}

// Snapshot returns a copy of the set values.
func (c RowContext) Snapshot() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Equal reports whether both contexts hold the same values.
func (c RowContext) Equal(o RowContext) bool {
	if len(c.values) != len(o.values) {
		return false
	}
	for k, v := range c.values {
		if o.values[k] != v {
			return false
		}
	}
	return true
}

func (c RowContext) String() string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(c.values[k])
	}
	b.WriteByte('}')
	return b.String()
}
