package core

import (
	"database/sql/driver"
	"encoding/json"
	"math"
)

// Number is a loosely typed numeric column. Rows coming from the stores or
// from JSON payloads may carry a float, an int, a numeric string with a
// decimal comma, or junk; the raw value is kept and only interpreted when
// aggregated. The zero Number is unset.
type Number struct {
	Raw any
}

// NumberOf wraps a raw value.
func NumberOf(v any) Number {
	return Number{Raw: v}
}

// IsSet reports whether a value is present, parseable or not.
func (n Number) IsSet() bool {
	return n.Raw != nil
}

// Float returns the parsed value.
func (n Number) Float() (float64, bool) {
	return ParseNumericValue(n.Raw)
}

// FloatOr returns the parsed value or def when unparseable.
func (n Number) FloatOr(def float64) float64 {
	if f, ok := n.Float(); ok {
		return f
	}
	return def
}

// Ptr returns a pointer to the parsed value, nil when unparseable.
func (n Number) Ptr() *float64 {
	if f, ok := n.Float(); ok {
		return &f
	}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	switch v := n.Raw.(type) {
	case nil:
		return []byte("null"), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return []byte("null"), nil
		}
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return []byte("null"), nil
		}
	}
	return json.Marshal(n.Raw)
}

func (n *Number) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.Raw = v
	return nil
}

// Scan implements sql.Scanner.
func (n *Number) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Raw = nil
	case []byte:
		n.Raw = string(v)
	default:
		n.Raw = v
	}
	return nil
}

// Value implements driver.Valuer. Unparseable values are stored as NULL,
// numeric columns cannot hold them.
func (n Number) Value() (driver.Value, error) {
	if f, ok := n.Float(); ok {
		return f, nil
	}
	return nil, nil
}
