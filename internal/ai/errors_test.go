package ai

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyRateLimitMarkers(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Classification
	}{
		{"nil", nil, ClassOther},
		{"rate limit phrase", errors.New("Rate Limit reached for model"), ClassRateLimit},
		{"status code", errors.New("groq: status 429: slow down"), ClassRateLimit},
		{"quota", errors.New("monthly QUOTA exceeded"), ClassRateLimit},
		{"too many requests", errors.New("Too Many Requests"), ClassRateLimit},
		{"wrapped", fmt.Errorf("dispatch: %w", errors.New("rate limit")), ClassRateLimit},
		{"timeout", errors.New("context deadline exceeded"), ClassOther},
		{"server error", errors.New("status 500: internal error"), ClassOther},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestExhaustedErrorUnwraps(t *testing.T) {
	cause := errors.New("last failure")
	err := &ExhaustedError{Attempts: 5, LastErr: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to unwrap")
	}
}
