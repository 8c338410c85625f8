package ai

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyResponse indicates a provider returned success with no text. It is
// treated like any other per-candidate failure.
var ErrEmptyResponse = errors.New("ai: empty response from model")

// ExhaustedError is the terminal failure after every candidate was attempted.
// It carries the last underlying error for diagnostics; callers should present
// it to end users as a generic failure.
type ExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("ai: all %d model candidates exhausted: %v", e.Attempts, e.LastErr)
}

func (e *ExhaustedError) Unwrap() error {
	return e.LastErr
}

// Classification buckets a provider failure for fallback handling.
type Classification int

const (
	// ClassOther covers provider failures with no special handling.
	ClassOther Classification = iota
	// ClassRateLimit marks provider-side rate limiting.
	ClassRateLimit
)

// rateLimitMarkers are matched case-insensitively against provider error
// messages. String-sniffing is fragile if the provider changes wording, which
// is why this list is the single point of change.
var rateLimitMarkers = []string{"rate limit", "429", "quota", "too many requests"}

// Classify inspects a provider error and reports whether it is a
// rate-limit-class failure.
func Classify(err error) Classification {
	if err == nil {
		return ClassOther
	}
	message := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(message, marker) {
			return ClassRateLimit
		}
	}
	return ClassOther
}
