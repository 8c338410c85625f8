package groq

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, errNew := NewClient("test-key", Options{BaseURL: server.URL})
	if errNew != nil {
		t.Fatalf("new client: %v", errNew)
	}
	return client
}

func TestCompleteParsesResponse(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"hello there"}}]}`))
	})

	text, errComplete := client.Complete(context.Background(), "test-model", []ai.Turn{{Role: ai.RoleUser, Content: "hi"}})
	if errComplete != nil {
		t.Fatalf("complete: %v", errComplete)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["model"] != "test-model" {
		t.Fatalf("unexpected model in request: %v", gotBody["model"])
	}
}

func TestCompleteRateLimitError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit reached for model"}}`))
	})

	_, errComplete := client.Complete(context.Background(), "test-model", []ai.Turn{{Role: ai.RoleUser, Content: "hi"}})
	var apiErr *APIError
	if !errors.As(errComplete, &apiErr) {
		t.Fatalf("expected APIError, got %v", errComplete)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status %d", apiErr.StatusCode)
	}
	if ai.Classify(errComplete) != ai.ClassRateLimit {
		t.Fatalf("expected rate-limit classification for %v", errComplete)
	}
}

func TestCompleteServerErrorKeepsBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream broke"))
	})

	_, errComplete := client.Complete(context.Background(), "test-model", []ai.Turn{{Role: ai.RoleUser, Content: "hi"}})
	var apiErr *APIError
	if !errors.As(errComplete, &apiErr) {
		t.Fatalf("expected APIError, got %v", errComplete)
	}
	if apiErr.Message != "upstream broke" {
		t.Fatalf("unexpected message %q", apiErr.Message)
	}
}

func TestStreamEmitsDeltas(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte(
			"data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n" +
				"data: {\"choices\":[{\"delta\":{}}]}\n\n" +
				"data: [DONE]\n\n"))
	})

	var got string
	errStream := client.Stream(context.Background(), "test-model", []ai.Turn{{Role: ai.RoleUser, Content: "hi"}}, func(delta string) error {
		got += delta
		return nil
	})
	if errStream != nil {
		t.Fatalf("stream: %v", errStream)
	}
	if got != "hello" {
		t.Fatalf("unexpected accumulated text %q", got)
	}
}

func TestStreamEmitErrorAborts(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n"))
	})

	wantErr := errors.New("client went away")
	errStream := client.Stream(context.Background(), "test-model", []ai.Turn{{Role: ai.RoleUser, Content: "hi"}}, func(string) error {
		return wantErr
	})
	if !errors.Is(errStream, wantErr) {
		t.Fatalf("expected emit error surfaced, got %v", errStream)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, errNew := NewClient("  ", Options{}); errNew == nil {
		t.Fatal("expected error for empty api key")
	}
}
