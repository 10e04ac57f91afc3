// Package util provides shared utility functions.
package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// RunIDPrefix starts every run ID (e.g., "run-abcdef12").
	RunIDPrefix = "run-"
	// RunIDLength is the full length of a run ID.
	RunIDLength = 12 // "run-" (4) + 8 hex chars
)

// ErrInvalidRunID is returned by ParseRunID for malformed IDs.
var ErrInvalidRunID = errors.New("invalid run ID")

// NewRunID returns a fresh run ID built from a random UUID.
func NewRunID() string {
	return RunIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:RunIDLength-len(RunIDPrefix)]
}

// ParseRunID validates a user-supplied run ID, accepting the bare hex suffix
// as well as the prefixed form.
func ParseRunID(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, RunIDPrefix) {
		s = RunIDPrefix + s
	}
	if len(s) != RunIDLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, s)
	}
	for _, r := range s[len(RunIDPrefix):] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", fmt.Errorf("%w: %q", ErrInvalidRunID, s)
		}
	}
	return s, nil
}
