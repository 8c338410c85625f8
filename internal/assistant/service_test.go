package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
	"github.com/Criztiandev/criztiandev-blogs/internal/content"
	"github.com/Criztiandev/criztiandev-blogs/internal/ratelimit"
)

// stubProvider answers every completion with a fixed text.
type stubProvider struct {
	text  string
	err   error
	calls int
}

func (p *stubProvider) Complete(context.Context, string, []ai.Turn) (string, error) {
	p.calls++
	return p.text, p.err
}

func (p *stubProvider) Stream(_ context.Context, _ string, _ []ai.Turn, emit func(string) error) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	return emit(p.text)
}

func newTestService(t *testing.T, provider ai.Provider, caps ratelimit.Config) *Service {
	t.Helper()

	root := t.TempDir()
	blogDir := filepath.Join(root, "blogs")
	if errMkdir := os.MkdirAll(blogDir, 0o755); errMkdir != nil {
		t.Fatalf("mkdir: %v", errMkdir)
	}
	blog := `---
title: Testing in Go
description: Notes on table tests
---

Table tests keep cases close together.
`
	if errWrite := os.WriteFile(filepath.Join(blogDir, "testing-in-go.md"), []byte(blog), 0o644); errWrite != nil {
		t.Fatalf("write blog: %v", errWrite)
	}

	repo, errRepo := content.NewRepository(root)
	if errRepo != nil {
		t.Fatalf("new repository: %v", errRepo)
	}
	limiter, errLimiter := ratelimit.NewLimiter(ratelimit.NewMemoryStore(), caps)
	if errLimiter != nil {
		t.Fatalf("new limiter: %v", errLimiter)
	}
	dispatcher, errDispatcher := ai.NewDispatcher(provider, []ai.Candidate{{Model: "model-a"}})
	if errDispatcher != nil {
		t.Fatalf("new dispatcher: %v", errDispatcher)
	}
	svc, errSvc := NewService(limiter, dispatcher, repo)
	if errSvc != nil {
		t.Fatalf("new service: %v", errSvc)
	}
	return svc
}

func chatRequest() ChatRequest {
	return ChatRequest{Messages: []ai.Turn{{Role: ai.RoleUser, Content: "hello"}}}
}

func TestChatRecordsUsageAfterSuccess(t *testing.T) {
	svc := newTestService(t, &stubProvider{text: "answer"}, ratelimit.Config{MaxMessagesPerDay: 2, MaxMessagesPerMinute: 10})
	ctx := context.Background()

	resp, errChat := svc.Chat(ctx, "caller-a", chatRequest())
	if errChat != nil {
		t.Fatalf("chat: %v", errChat)
	}
	if resp.Content != "answer" || resp.ModelUsed != "model-a" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Fatal("expected request id")
	}
	if resp.RemainingDaily != 1 {
		t.Fatalf("expected one message left, got %d", resp.RemainingDaily)
	}
}

func TestChatDeniedAtCap(t *testing.T) {
	provider := &stubProvider{text: "answer"}
	svc := newTestService(t, provider, ratelimit.Config{MaxMessagesPerDay: 1, MaxMessagesPerMinute: 10})
	ctx := context.Background()

	if _, errChat := svc.Chat(ctx, "caller-a", chatRequest()); errChat != nil {
		t.Fatalf("first chat: %v", errChat)
	}

	_, errChat := svc.Chat(ctx, "caller-a", chatRequest())
	var quotaErr *QuotaError
	if !errors.As(errChat, &quotaErr) {
		t.Fatalf("expected QuotaError, got %v", errChat)
	}
	if quotaErr.Admission.Reason != ratelimit.ReasonDailyLimit {
		t.Fatalf("unexpected reason %q", quotaErr.Admission.Reason)
	}
	if provider.calls != 1 {
		t.Fatalf("denied request must not reach the provider, calls=%d", provider.calls)
	}
}

func TestChatFailureDoesNotConsumeQuota(t *testing.T) {
	provider := &stubProvider{err: errors.New("status 429")}
	svc := newTestService(t, provider, ratelimit.Config{MaxMessagesPerDay: 1, MaxMessagesPerMinute: 10})
	ctx := context.Background()

	if _, errChat := svc.Chat(ctx, "caller-a", chatRequest()); errChat == nil {
		t.Fatal("expected dispatch failure")
	}

	admission, errCheck := svc.CheckAdmission(ctx, "caller-a")
	if errCheck != nil {
		t.Fatalf("check: %v", errCheck)
	}
	if !admission.Allowed || admission.RemainingDaily != 1 {
		t.Fatalf("failed chat must not consume quota: %+v", admission)
	}
}

func TestChatUsesBlogPreamble(t *testing.T) {
	recorder := &turnRecorder{text: "answer"}
	svc := newTestService(t, recorder, ratelimit.Config{})
	ctx := context.Background()

	req := chatRequest()
	req.BlogSlug = "testing-in-go"
	if _, errChat := svc.Chat(ctx, "caller-a", req); errChat != nil {
		t.Fatalf("chat: %v", errChat)
	}

	if len(recorder.turns) == 0 || recorder.turns[0].Role != ai.RoleSystem {
		t.Fatal("expected system turn prepended")
	}
	preamble := recorder.turns[0].Content
	if !strings.Contains(preamble, "Testing in Go") {
		t.Fatalf("expected blog title in preamble: %s", preamble)
	}
	if !strings.Contains(preamble, "Table tests keep cases close together.") {
		t.Fatalf("expected blog body in preamble: %s", preamble)
	}
}

func TestChatUnknownBlogFails(t *testing.T) {
	svc := newTestService(t, &stubProvider{text: "answer"}, ratelimit.Config{})

	req := chatRequest()
	req.BlogSlug = "nope"
	if _, errChat := svc.Chat(context.Background(), "caller-a", req); errChat == nil {
		t.Fatal("expected error for unknown blog slug")
	}
}

func TestChatStreamDeliversDeltas(t *testing.T) {
	svc := newTestService(t, &stubProvider{text: "streamed"}, ratelimit.Config{})

	var got string
	resp, errStream := svc.ChatStream(context.Background(), "caller-a", chatRequest(), func(delta string) error {
		got += delta
		return nil
	})
	if errStream != nil {
		t.Fatalf("stream: %v", errStream)
	}
	if got != "streamed" || resp.Content != "streamed" {
		t.Fatalf("unexpected stream output %q / %+v", got, resp)
	}
}

// turnRecorder captures the turns handed to the provider.
type turnRecorder struct {
	text  string
	turns []ai.Turn
}

func (p *turnRecorder) Complete(_ context.Context, _ string, turns []ai.Turn) (string, error) {
	p.turns = turns
	return p.text, nil
}

func (p *turnRecorder) Stream(_ context.Context, _ string, turns []ai.Turn, emit func(string) error) error {
	p.turns = turns
	return emit(p.text)
}
