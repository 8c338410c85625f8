// Package ai dispatches chat completions across an ordered list of model
// candidates, advancing past per-candidate failures and failing closed only
// when the list is exhausted.
package ai

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Turn roles.
const (
	// RoleSystem marks the synthetic context turn prepended before dispatch.
	RoleSystem = "system"
	// RoleUser marks caller turns.
	RoleUser = "user"
	// RoleAssistant marks model turns.
	RoleAssistant = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// Candidate is one entry of the ordered fallback chain. Order encodes the
// quality/cost tradeoff; candidates are tried strictly in sequence.
type Candidate struct {
	Model       string `yaml:"model" json:"model"`
	Description string `yaml:"description" json:"description"`
}

// Outcome is a successful completion.
type Outcome struct {
	Text          string `json:"content"`
	Model         string `json:"model_used"`
	FallbackDepth int    `json:"fallback_level"`
}

// Provider is the external completion endpoint.
type Provider interface {
	// Complete performs a synchronous chat completion for one model.
	Complete(ctx context.Context, model string, turns []Turn) (string, error)

	// Stream performs a streaming completion, invoking emit for each text
	// delta. A non-nil error from emit aborts the stream.
	Stream(ctx context.Context, model string, turns []Turn, emit func(delta string) error) error
}

// Dispatcher tries an ordered candidate list against a Provider. It holds no
// mutable state; a single value is safe for concurrent use.
type Dispatcher struct {
	provider   Provider
	candidates []Candidate
}

// NewDispatcher creates a Dispatcher over the given candidate chain.
func NewDispatcher(provider Provider, candidates []Candidate) (*Dispatcher, error) {
	if provider == nil {
		return nil, fmt.Errorf("ai: nil provider")
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("ai: at least one model candidate is required")
	}
	return &Dispatcher{provider: provider, candidates: append([]Candidate(nil), candidates...)}, nil
}

// Candidates returns the configured fallback chain.
func (d *Dispatcher) Candidates() []Candidate {
	return append([]Candidate(nil), d.candidates...)
}

// Complete obtains a completion for the conversation, prepending one system
// turn built from preamble. Candidates are attempted strictly in order; every
// per-candidate failure (rate limit or otherwise) advances to the next one.
func (d *Dispatcher) Complete(ctx context.Context, turns []Turn, preamble string) (Outcome, error) {
	augmented := withPreamble(turns, preamble)

	var lastErr error
	for i, candidate := range d.candidates {
		log.WithFields(log.Fields{
			"model":   candidate.Model,
			"attempt": fmt.Sprintf("%d/%d", i+1, len(d.candidates)),
		}).Debug("ai: attempting completion")

		text, err := d.provider.Complete(ctx, candidate.Model, augmented)
		if err == nil && text == "" {
			err = ErrEmptyResponse
		}
		if err == nil {
			if i > 0 {
				log.WithFields(log.Fields{"model": candidate.Model, "fallback": i}).Info("ai: completion served by fallback model")
			}
			return Outcome{Text: text, Model: candidate.Model, FallbackDepth: i}, nil
		}

		lastErr = err
		if Classify(err) == ClassRateLimit {
			log.WithField("model", candidate.Model).Warn("ai: rate limited, trying next model")
		} else {
			log.WithField("model", candidate.Model).WithError(err).Warn("ai: completion failed, trying next model")
		}
	}

	return Outcome{}, &ExhaustedError{Attempts: len(d.candidates), LastErr: lastErr}
}

// Stream obtains a streaming completion. Fallback only applies while no delta
// has been delivered; once output reaches emit the current candidate is
// terminal, since delivered text is not retracted.
func (d *Dispatcher) Stream(ctx context.Context, turns []Turn, preamble string, emit func(delta string) error) (Outcome, error) {
	augmented := withPreamble(turns, preamble)

	var lastErr error
	for i, candidate := range d.candidates {
		delivered := false
		var full string
		err := d.provider.Stream(ctx, candidate.Model, augmented, func(delta string) error {
			delivered = true
			full += delta
			return emit(delta)
		})
		if err == nil && !delivered {
			err = ErrEmptyResponse
		}
		if err == nil {
			return Outcome{Text: full, Model: candidate.Model, FallbackDepth: i}, nil
		}
		if delivered {
			// Partial output already reached the caller.
			return Outcome{}, err
		}

		lastErr = err
		log.WithField("model", candidate.Model).WithError(err).Warn("ai: stream failed, trying next model")
	}

	return Outcome{}, &ExhaustedError{Attempts: len(d.candidates), LastErr: lastErr}
}

// withPreamble prepends the synthetic system turn.
func withPreamble(turns []Turn, preamble string) []Turn {
	augmented := make([]Turn, 0, len(turns)+1)
	augmented = append(augmented, Turn{Role: RoleSystem, Content: preamble})
	return append(augmented, turns...)
}
