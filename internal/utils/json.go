// Package utils holds small helpers for handling worker process output.
package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoJSON is returned when output holds no top-level JSON object.
var ErrNoJSON = errors.New("no JSON object found in output")

// DecodeLastJSON decodes the last top-level JSON object in output into a T.
// A top-level object starts with '{' in the first column of a line, so
// banners and warnings a worker prints before its response are skipped and
// the indented inner objects of pretty-printed JSON are never mistaken for
// the response. Anything after the decoded value is ignored.
func DecodeLastJSON[T any](output []byte) (T, error) {
	var result T

	starts := objectStarts(output)
	if len(starts) == 0 {
		return result, ErrNoJSON
	}

	var firstErr error
	for i := len(starts) - 1; i >= 0; i-- {
		var candidate T
		// Decoder parses a single value and ignores trailing text.
		dec := json.NewDecoder(bytes.NewReader(output[starts[i]:]))
		if err := dec.Decode(&candidate); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return candidate, nil
	}
	return result, fmt.Errorf("parse JSON: %w", firstErr)
}

// objectStarts returns the offsets of lines beginning with '{'.
func objectStarts(output []byte) []int {
	var starts []int
	lineStart := 0
	for lineStart < len(output) {
		if output[lineStart] == '{' {
			starts = append(starts, lineStart)
		}
		next := bytes.IndexByte(output[lineStart:], '\n')
		if next < 0 {
			break
		}
		lineStart += next + 1
	}
	return starts
}
