// Package http provides the JSON API over the ledger.
//
// This file implements request body and query parsing. Bodies may be JSON
// objects or form-encoded; JSON numbers are kept as their literal text so
// that money values are never routed through float64.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"conti/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads a request body once and serves string fields from
// it regardless of its encoding.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads up to 1 MiB of the request body.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{contentType: r.Header.Get("Content-Type")}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	}
	return p
}

func (p *RequestBodyParser) looksLikeJSON() bool {
	if strings.Contains(p.contentType, "json") {
		return true
	}
	trimmed := bytes.TrimSpace(p.body)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Parse decodes the body. Failures are reported as a validation error on
// the "body" field.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(p.err, &maxErr) {
			p.err = core.Validation("body", "request body too large")
		} else {
			p.err = core.Validation("body", "request body could not be read")
		}
		return p.err
	}

	if len(bytes.TrimSpace(p.body)) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.looksLikeJSON() {
		dec := json.NewDecoder(bytes.NewReader(p.body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = core.Validation("body", "request body must be a JSON object")
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(string(p.body))
	if err != nil {
		p.err = core.Validation("body", "request body is not valid form data")
		return p.err
	}
	p.formData = form
	return nil
}

// Has reports whether key was present in the body, even if empty.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	_, ok := p.formData[key]
	return ok
}

// Get returns the value of key as text, or "" when absent.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		return sanitizeInput(stringValue(p.jsonData[key]))
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// GetPtr returns the value of key when present, for partial updates.
func (p *RequestBodyParser) GetPtr(key string) *string {
	if !p.Has(key) {
		return nil
	}
	v := p.Get(key)
	return &v
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// queryInt parses an optional non-negative integer query parameter; absent
// means 0, which the ledger reads as its default.
func queryInt(q url.Values, key string) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, core.Validation(key, key+" must be a non-negative integer")
	}
	return n, nil
}
