package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// scriptedProvider returns canned results per model name and records the
// order of attempts.
type scriptedProvider struct {
	responses map[string]string
	failures  map[string]error
	attempts  []string
}

func (p *scriptedProvider) Complete(_ context.Context, model string, _ []Turn) (string, error) {
	p.attempts = append(p.attempts, model)
	if err, ok := p.failures[model]; ok {
		return "", err
	}
	return p.responses[model], nil
}

func (p *scriptedProvider) Stream(_ context.Context, model string, _ []Turn, emit func(delta string) error) error {
	p.attempts = append(p.attempts, model)
	if err, ok := p.failures[model]; ok {
		return err
	}
	for _, word := range strings.SplitAfter(p.responses[model], " ") {
		if errEmit := emit(word); errEmit != nil {
			return errEmit
		}
	}
	return nil
}

var testChain = []Candidate{
	{Model: "model-a", Description: "primary"},
	{Model: "model-b", Description: "fallback"},
	{Model: "model-c", Description: "last resort"},
}

func newTestDispatcher(t *testing.T, provider Provider) *Dispatcher {
	t.Helper()
	dispatcher, errNew := NewDispatcher(provider, testChain)
	if errNew != nil {
		t.Fatalf("new dispatcher: %v", errNew)
	}
	return dispatcher
}

func TestCompleteFirstCandidateWins(t *testing.T) {
	provider := &scriptedProvider{responses: map[string]string{"model-a": "hello"}}
	dispatcher := newTestDispatcher(t, provider)

	outcome, errComplete := dispatcher.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx")
	if errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}
	if outcome.Text != "hello" || outcome.Model != "model-a" || outcome.FallbackDepth != 0 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(provider.attempts) != 1 {
		t.Fatalf("expected one attempt, got %v", provider.attempts)
	}
}

func TestCompleteAdvancesOnRateLimit(t *testing.T) {
	provider := &scriptedProvider{
		responses: map[string]string{"model-b": "served"},
		failures:  map[string]error{"model-a": errors.New("status 429: Too Many Requests")},
	}
	dispatcher := newTestDispatcher(t, provider)

	outcome, errComplete := dispatcher.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx")
	if errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}
	if outcome.Model != "model-b" || outcome.FallbackDepth != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
}

func TestCompleteAdvancesOnAnyFailure(t *testing.T) {
	provider := &scriptedProvider{
		responses: map[string]string{"model-c": "served"},
		failures: map[string]error{
			"model-a": errors.New("connection reset by peer"),
			"model-b": errors.New("model decommissioned"),
		},
	}
	dispatcher := newTestDispatcher(t, provider)

	outcome, errComplete := dispatcher.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx")
	if errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}
	if outcome.Model != "model-c" || outcome.FallbackDepth != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if len(provider.attempts) != 3 {
		t.Fatalf("expected three attempts, got %v", provider.attempts)
	}
}

func TestCompleteEmptyResponseAdvances(t *testing.T) {
	provider := &scriptedProvider{
		responses: map[string]string{"model-a": "", "model-b": "served"},
	}
	dispatcher := newTestDispatcher(t, provider)

	outcome, errComplete := dispatcher.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx")
	if errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}
	if outcome.Model != "model-b" {
		t.Fatalf("expected empty response to advance, got %+v", outcome)
	}
}

func TestCompleteExhaustsChain(t *testing.T) {
	lastFailure := errors.New("quota exceeded for today")
	provider := &scriptedProvider{
		failures: map[string]error{
			"model-a": errors.New("boom"),
			"model-b": errors.New("boom"),
			"model-c": lastFailure,
		},
	}
	dispatcher := newTestDispatcher(t, provider)

	_, errComplete := dispatcher.Complete(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx")
	var exhausted *ExhaustedError
	if !errors.As(errComplete, &exhausted) {
		t.Fatalf("expected ExhaustedError, got %v", errComplete)
	}
	if exhausted.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", exhausted.Attempts)
	}
	if !errors.Is(errComplete, lastFailure) {
		t.Fatalf("expected last error wrapped, got %v", errComplete)
	}
	if provider.attempts[0] != "model-a" || provider.attempts[1] != "model-b" || provider.attempts[2] != "model-c" {
		t.Fatalf("expected strict order, got %v", provider.attempts)
	}
}

// recordingProvider captures the turns it receives.
type recordingProvider struct {
	turns []Turn
}

func (p *recordingProvider) Complete(_ context.Context, _ string, turns []Turn) (string, error) {
	p.turns = turns
	return "ok", nil
}

func (p *recordingProvider) Stream(_ context.Context, _ string, turns []Turn, emit func(string) error) error {
	p.turns = turns
	return emit("ok")
}

func TestCompletePrependsSystemTurn(t *testing.T) {
	provider := &recordingProvider{}
	dispatcher := newTestDispatcher(t, provider)

	original := []Turn{{Role: RoleUser, Content: "hi"}}
	if _, errComplete := dispatcher.Complete(context.Background(), original, "site context"); errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}

	if len(provider.turns) != 2 {
		t.Fatalf("expected system turn prepended, got %d turns", len(provider.turns))
	}
	if provider.turns[0].Role != RoleSystem || provider.turns[0].Content != "site context" {
		t.Fatalf("unexpected system turn: %+v", provider.turns[0])
	}
	if len(original) != 1 {
		t.Fatal("caller slice must not be mutated")
	}
}

func TestStreamFallsBackBeforeFirstDelta(t *testing.T) {
	provider := &scriptedProvider{
		responses: map[string]string{"model-b": "two words"},
		failures:  map[string]error{"model-a": errors.New("rate limit reached")},
	}
	dispatcher := newTestDispatcher(t, provider)

	var got []string
	outcome, errStream := dispatcher.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx", func(delta string) error {
		got = append(got, delta)
		return nil
	})
	if errStream != nil {
		t.Fatalf("stream: %v", errStream)
	}
	if outcome.Model != "model-b" || outcome.FallbackDepth != 1 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if outcome.Text != "two words" {
		t.Fatalf("unexpected accumulated text: %q", outcome.Text)
	}
	if len(got) == 0 {
		t.Fatal("expected deltas delivered")
	}
}

// partialProvider emits one delta and then fails.
type partialProvider struct{}

func (partialProvider) Complete(context.Context, string, []Turn) (string, error) {
	return "", errors.New("unused")
}

func (partialProvider) Stream(_ context.Context, _ string, _ []Turn, emit func(string) error) error {
	if errEmit := emit("partial "); errEmit != nil {
		return errEmit
	}
	return errors.New("connection lost")
}

func TestStreamTerminalAfterFirstDelta(t *testing.T) {
	dispatcher := newTestDispatcher(t, partialProvider{})

	deliveries := 0
	_, errStream := dispatcher.Stream(context.Background(), []Turn{{Role: RoleUser, Content: "hi"}}, "ctx", func(string) error {
		deliveries++
		return nil
	})
	if errStream == nil {
		t.Fatal("expected mid-stream failure to surface")
	}
	var exhausted *ExhaustedError
	if errors.As(errStream, &exhausted) {
		t.Fatal("mid-stream failure must not fall back to other candidates")
	}
	if deliveries != 1 {
		t.Fatalf("expected exactly one delivery, got %d", deliveries)
	}
}

func TestNewDispatcherValidation(t *testing.T) {
	if _, errNew := NewDispatcher(nil, testChain); errNew == nil {
		t.Fatal("expected error for nil provider")
	}
	if _, errNew := NewDispatcher(&scriptedProvider{}, nil); errNew == nil {
		t.Fatal("expected error for empty chain")
	}
}
