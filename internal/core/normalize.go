// Package core holds the Portal UNK domain records and the numeric/date
// normalization shared by the write and read paths.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Epsilon nudges values before rounding to absorb binary representation
// error (1.005 must round to 1.01).
const Epsilon = 2.220446049250313e-16

const (
	isoLayout      = "2006-01-02T15:04:05.000Z"
	dateOnlyLayout = "2006-01-02"
)

var dateOnlyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// layouts without zone information are interpreted in the caller's location.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateOnlyLayout,
	"02/01/2006",
	"02/01/2006 15:04",
}

// ParseNumericValue converts heterogeneous numeric input into a float.
//
// Finite numbers pass through. Strings are trimmed and a decimal comma is
// read as a dot. nil, empty strings, non-numeric content, NaN and Inf all
// report false.
//
// Examples:
//
//	ParseNumericValue("10,5") -> 10.5, true
//	ParseNumericValue("")     -> 0, false
//	ParseNumericValue(nil)    -> 0, false
func ParseNumericValue(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case *float64:
		if n == nil {
			return 0, false
		}
		f = *n
	case bool:
		if n {
			f = 1
		}
	case string:
		return parseNumericString(n)
	case []byte:
		return parseNumericString(string(n))
	case json.Number:
		return parseNumericString(n.String())
	case Number:
		return ParseNumericValue(n.Raw)
	case fmt.Stringer:
		return parseNumericString(n.String())
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// RoundCurrencyValue rounds half-up to two decimals. Every monetary value is
// passed through it before storage or display.
func RoundCurrencyValue(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor((x+Epsilon)*100+0.5) / 100
	if r == 0 {
		return 0 // no negative zero
	}
	return r
}

// NormalizeTimestamp converts v into an ISO-8601 UTC string.
//
// time.Time values and epoch milliseconds are converted. Strings that parse
// as dates are converted too; strings that don't are returned unchanged so
// free text survives the round trip. The result is therefore not guaranteed
// to be a valid timestamp.
func NormalizeTimestamp(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.UTC().Format(isoLayout), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return "", false
		}
		return t.UTC().Format(isoLayout), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if parsed, ok := ParseTime(s, time.UTC); ok {
			return parsed.UTC().Format(isoLayout), true
		}
		return t, true
	}
	if ms, ok := ParseNumericValue(v); ok {
		return time.UnixMilli(int64(ms)).UTC().Format(isoLayout), true
	}
	return "", false
}

// NormalizeDateOnly converts v into a YYYY-MM-DD string.
//
// Strings already in that form pass through untouched. Everything else is
// read through UTC calendar fields, never local time, so an instant near
// midnight keeps its UTC day whatever the host timezone.
func NormalizeDateOnly(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case time.Time:
		if t.IsZero() {
			return "", false
		}
		return t.UTC().Format(dateOnlyLayout), true
	case *time.Time:
		if t == nil || t.IsZero() {
			return "", false
		}
		return t.UTC().Format(dateOnlyLayout), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", false
		}
		if dateOnlyPattern.MatchString(s) {
			return s, true
		}
		if parsed, ok := ParseTime(s, time.UTC); ok {
			return parsed.UTC().Format(dateOnlyLayout), true
		}
		return "", false
	}
	if ms, ok := ParseNumericValue(v); ok {
		return time.UnixMilli(int64(ms)).UTC().Format(dateOnlyLayout), true
	}
	return "", false
}

// ParseTime parses the date and timestamp shapes found in event and payment
// rows. Values without a zone are read in loc (UTC when nil).
func ParseTime(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// StartOfDay returns 00:00:00 of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
