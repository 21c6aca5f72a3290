// Package http provides the JSON API server and its handlers.
//
// This file implements utilities for parsing and validating HTTP request
// data: bodies become records.Payload, query windows become bounded ints.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"portalunk/internal/records"
)

// MaxBodyBytes bounds JSON and form bodies.
const MaxBodyBytes = 1 << 20

var (
	ErrEmptyBody     = errors.New("request body is empty")
	ErrBodyNotObject = errors.New("request body must be a JSON object")
	ErrBodyTooLarge  = errors.New("request body too large")
)

// WindowParams holds the dashboard look-ahead and look-back windows.
// Zero means "use the service default".
type WindowParams struct {
	Days   int
	Months int
}

const (
	maxWindowDays   = 365
	maxWindowMonths = 36
)

// ParseWindowParams reads days and months from the query. Values that are
// not integers or fall outside 1..365 days and 1..36 months are ignored.
func ParseWindowParams(query url.Values) WindowParams {
	return WindowParams{
		Days:   boundedInt(query.Get("days"), 1, maxWindowDays),
		Months: boundedInt(query.Get("months"), 1, maxWindowMonths),
	}
}

func boundedInt(raw string, min, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < min || v > max {
		return 0
	}
	return v
}

// RequestBodyParser handles different content types for request body parsing.
// It supports JSON objects and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads at most MaxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if p.err == nil && len(p.body) > MaxBodyBytes {
		p.err = ErrBodyTooLarge
	}
	return p
}

// Parse parses the body as JSON when it is declared or looks like JSON,
// otherwise as form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.err = ErrEmptyBody
		return p.err
	}

	if p.declaresJSON() || trimmed[0] == '{' || trimmed[0] == '[' {
		if trimmed[0] != '{' {
			p.err = ErrBodyNotObject
			return p.err
		}
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("invalid JSON body: %w", err)
			return p.err
		}
		if dec.More() {
			p.err = fmt.Errorf("invalid JSON body: trailing data")
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

func (p *RequestBodyParser) declaresJSON() bool {
	mt, _, err := mime.ParseMediaType(p.contentType)
	return err == nil && (mt == "application/json" || strings.HasSuffix(mt, "+json"))
}

// Payload returns the parsed body as a record payload. JSON numbers become
// float64, form values stay strings and string values are sanitized.
func (p *RequestBodyParser) Payload() records.Payload {
	out := records.Payload{}
	if p.jsonData != nil {
		for k, v := range p.jsonData {
			out[k] = normalizeJSONValue(v)
		}
		return out
	}
	for k, vs := range p.formData {
		switch len(vs) {
		case 0:
		case 1:
			out[k] = sanitizeInput(vs[0])
		default:
			list := make([]any, 0, len(vs))
			for _, v := range vs {
				list = append(list, sanitizeInput(v))
			}
			out[k] = list
		}
	}
	return out
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// DecodePayload reads and parses the request body in one call.
func DecodePayload(r *http.Request) (records.Payload, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p.Payload(), nil
}

func normalizeJSONValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case string:
		return sanitizeInput(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeJSONValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeJSONValue(item)
		}
		return out
	default:
		return val
	}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
