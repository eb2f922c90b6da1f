package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

var (
	ErrEmptyBody    = errors.New("empty body")
	ErrTrailingJSON = errors.New("trailing data")
)

// ParseStrictJSONBody reads and strictly decodes a JSON HTTP request
// body into dst: 400-shaped failures include malformed JSON syntax, an
// empty body, an oversized body (capped at 1MB), trailing data after
// the first JSON value, unknown fields, and field-type mismatches.
// Required-field presence and cross-field business rules are not
// checked here — callers validate those on the decoded value.
func ParseStrictJSONBody[T any](r *http.Request, dst *T) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return ErrEmptyBody
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return ErrTrailingJSON
	}
	return nil
}
