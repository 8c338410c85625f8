// Package groq implements the completion provider against the Groq
// OpenAI-compatible chat completions API.
package groq

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the Groq OpenAI-compatible API root.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// Options tune the completion requests.
type Options struct {
	BaseURL             string
	Temperature         float64
	TopP                float64
	MaxCompletionTokens int
	HTTPClient          *http.Client
}

// Client calls the Groq chat completions endpoint.
type Client struct {
	apiKey              string
	baseURL             string
	temperature         float64
	topP                float64
	maxCompletionTokens int
	httpClient          *http.Client
}

var _ ai.Provider = (*Client)(nil)

// NewClient creates a Client. Zero option fields fall back to defaults.
func NewClient(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("groq: empty api key")
	}
	c := &Client{
		apiKey:              apiKey,
		baseURL:             strings.TrimRight(opts.BaseURL, "/"),
		temperature:         opts.Temperature,
		topP:                opts.TopP,
		maxCompletionTokens: opts.MaxCompletionTokens,
		httpClient:          opts.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.temperature == 0 {
		c.temperature = 0.6
	}
	if c.topP == 0 {
		c.topP = 0.95
	}
	if c.maxCompletionTokens == 0 {
		c.maxCompletionTokens = 1024
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 120 * time.Second}
	}
	return c, nil
}

// APIError is a non-2xx response from the API. Its message keeps the status
// code visible so rate-limit classification works on the error text.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("groq: status %d: %s", e.StatusCode, e.Message)
}

// completionRequest is the wire format of a chat completions call.
type completionRequest struct {
	Model               string    `json:"model"`
	Messages            []ai.Turn `json:"messages"`
	Temperature         float64   `json:"temperature"`
	TopP                float64   `json:"top_p"`
	MaxCompletionTokens int       `json:"max_completion_tokens"`
	Stream              bool      `json:"stream,omitempty"`
}

// Complete implements ai.Provider.
func (c *Client) Complete(ctx context.Context, model string, turns []ai.Turn) (string, error) {
	resp, err := c.post(ctx, completionRequest{
		Model:               model,
		Messages:            turns,
		Temperature:         c.temperature,
		TopP:                c.topP,
		MaxCompletionTokens: c.maxCompletionTokens,
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("groq: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", apiError(resp.StatusCode, body)
	}
	return gjson.GetBytes(body, "choices.0.message.content").String(), nil
}

// Stream implements ai.Provider using server-sent events.
func (c *Client) Stream(ctx context.Context, model string, turns []ai.Turn, emit func(delta string) error) error {
	resp, err := c.post(ctx, completionRequest{
		Model:               model,
		Messages:            turns,
		Temperature:         c.temperature,
		TopP:                c.topP,
		MaxCompletionTokens: c.maxCompletionTokens,
		Stream:              true,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		delta := gjson.Get(payload, "choices.0.delta.content").String()
		if delta == "" {
			continue
		}
		if errEmit := emit(delta); errEmit != nil {
			return errEmit
		}
	}
	if errScan := scanner.Err(); errScan != nil {
		return fmt.Errorf("groq: read stream: %w", errScan)
	}
	return nil
}

// post sends a chat completions request.
func (c *Client) post(ctx context.Context, payload completionRequest) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("groq: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("groq: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("groq: request: %w", err)
	}
	return resp, nil
}

// apiError extracts the provider error message from a failed response body.
func apiError(status int, body []byte) error {
	message := gjson.GetBytes(body, "error.message").String()
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: message}
}
