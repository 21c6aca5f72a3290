// Package records turns untyped request payloads into typed records.
//
// Payloads are whitelisted against the columns of the target table before
// any field is read, and nothing past this package sees a raw map.
package records

import (
	"fmt"
	"strings"

	"portalunk/internal/core"
)

// Payload is a decoded JSON object as received from a client.
type Payload map[string]any

// ColumnSet is the set of keys a payload may carry for one table.
type ColumnSet map[string]struct{}

func NewColumnSet(cols ...string) ColumnSet {
	s := make(ColumnSet, len(cols))
	for _, c := range cols {
		s[c] = struct{}{}
	}
	return s
}

func (s ColumnSet) Has(col string) bool {
	_, ok := s[col]
	return ok
}

var (
	EventColumns = NewColumnSet(
		"event_name", "title", "name",
		"event_date", "date",
		"fee", "cache_value", "cache",
		"dj_id", "dj_ids", "producer_id", "status",
		"commission_rate", "commission_amount", "expected_attendees",
		"description", "location", "venue", "city", "state", "address",
		"start_time", "end_time",
		"payment_proof", "payment_status",
	)

	PaymentColumns = NewColumnSet(
		"event_id", "amount", "status",
		"paid_at", "due_date",
		"commission_rate", "commission_amount",
		"method", "notes",
	)

	DJColumns = NewColumnSet(
		"name", "artist_name", "email", "phone",
		"genre", "specialty", "city", "base_fee", "avatar_url",
	)
)

// SanitizeRecord copies the keys present in both payload and allowed.
func SanitizeRecord(payload Payload, allowed ColumnSet) Payload {
	out := make(Payload, len(payload))
	for k, v := range payload {
		if allowed.Has(k) {
			out[k] = v
		}
	}
	return out
}

// present reports a key carrying a non-null value. JSON null is treated as
// absent so it never overwrites a stored value.
func (p Payload) present(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// firstString returns the first non-blank string among keys, trimmed.
func (p Payload) firstString(keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// firstNumber returns the first parseable value among keys.
func (p Payload) firstNumber(keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := core.ParseNumericValue(p[k]); ok {
			return v, true
		}
	}
	return 0, false
}

// optString returns the value of key as a string pointer, nil when absent.
func (p Payload) optString(key string) *string {
	if !p.present(key) {
		return nil
	}
	switch v := p[key].(type) {
	case string:
		return core.StringPtr(strings.TrimSpace(v))
	default:
		return core.StringPtr(fmt.Sprint(v))
	}
}

// optNumber parses key into a rounded currency value. Absent keys yield an
// unset Number; present but non-numeric values are a validation error.
func (p Payload) optNumber(key string) (core.Number, error) {
	if !p.present(key) {
		return core.Number{}, nil
	}
	v, ok := core.ParseNumericValue(p[key])
	if !ok {
		return core.Number{}, core.NewValidationError(key, "must be numeric")
	}
	return core.NumberOf(core.RoundCurrencyValue(v)), nil
}

// stringList reads a list of ids sent as a JSON array or a comma separated
// string.
func (p Payload) stringList(key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.Split(v, ",")
	}
	return nil
}

// MergeDJIDs deduplicates ids (trimmed, blanks skipped, first-seen order)
// and puts primary at index 0 when it is non-blank.
func MergeDJIDs(primary string, ids []string) []string {
	primary = strings.TrimSpace(primary)
	seen := make(map[string]struct{}, len(ids)+1)
	out := make([]string, 0, len(ids)+1)

	if primary != "" {
		seen[primary] = struct{}{}
		out = append(out, primary)
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
