package models

// Record is one flattened output row: field name to normalized value.
// Values are strings or nil.
type Record map[string]interface{}

// StringOrNil returns s, or nil when s is empty.
func StringOrNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
