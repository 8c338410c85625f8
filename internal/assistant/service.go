// Package assistant wires quota enforcement and model fallback into the chat
// request flow.
package assistant

import (
	"context"
	"fmt"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
	"github.com/Criztiandev/criztiandev-blogs/internal/content"
	"github.com/Criztiandev/criztiandev-blogs/internal/ratelimit"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// QuotaError is returned when admission is denied. It carries the full
// admission result so callers can surface remaining counts and wait times.
type QuotaError struct {
	Admission ratelimit.Admission
}

func (e *QuotaError) Error() string {
	if e.Admission.Reason == ratelimit.ReasonMinuteLimit {
		return fmt.Sprintf("assistant: too many messages, wait %dms", e.Admission.WaitMS)
	}
	return "assistant: daily message limit reached"
}

// ChatRequest is one chat invocation.
type ChatRequest struct {
	Messages    []ai.Turn `json:"messages" binding:"required,min=1,dive"`
	BlogSlug    string    `json:"blog_slug"`
	BlogTitle   string    `json:"blog_title"`
	BlogContent string    `json:"blog_content"`
}

// ChatResponse is a successful chat result with post-send quota state.
type ChatResponse struct {
	RequestID       string `json:"request_id"`
	Content         string `json:"content"`
	ModelUsed       string `json:"model_used"`
	FallbackLevel   int    `json:"fallback_level"`
	RemainingDaily  int    `json:"remaining_daily"`
	RemainingMinute int    `json:"remaining_minute"`
}

// Service is the chat assistant request flow.
type Service struct {
	limiter    *ratelimit.Limiter
	dispatcher *ai.Dispatcher
	repo       *content.Repository
}

// NewService creates a Service.
func NewService(limiter *ratelimit.Limiter, dispatcher *ai.Dispatcher, repo *content.Repository) (*Service, error) {
	if limiter == nil || dispatcher == nil || repo == nil {
		return nil, fmt.Errorf("assistant: nil dependency")
	}
	return &Service{limiter: limiter, dispatcher: dispatcher, repo: repo}, nil
}

// CheckAdmission exposes the quota query for the limit endpoint.
func (s *Service) CheckAdmission(ctx context.Context, identity string) (ratelimit.Admission, error) {
	return s.limiter.CheckAdmission(ctx, identity)
}

// Chat runs the full flow: admission check, dispatch with fallback, and usage
// recording after a confirmed success.
func (s *Service) Chat(ctx context.Context, identity string, req ChatRequest) (ChatResponse, error) {
	preamble, err := s.preamble(req)
	if err != nil {
		return ChatResponse{}, err
	}

	admission, err := s.limiter.CheckAdmission(ctx, identity)
	if err != nil {
		return ChatResponse{}, err
	}
	if !admission.Allowed {
		return ChatResponse{}, &QuotaError{Admission: admission}
	}

	requestID := uuid.NewString()
	outcome, err := s.dispatcher.Complete(ctx, req.Messages, preamble)
	if err != nil {
		return ChatResponse{}, err
	}

	remaining := s.recordSend(ctx, identity, requestID)
	return ChatResponse{
		RequestID:       requestID,
		Content:         outcome.Text,
		ModelUsed:       outcome.Model,
		FallbackLevel:   outcome.FallbackDepth,
		RemainingDaily:  remaining.RemainingDaily,
		RemainingMinute: remaining.RemainingMinute,
	}, nil
}

// ChatStream is Chat with streamed deltas. Usage is recorded once the stream
// completed successfully.
func (s *Service) ChatStream(ctx context.Context, identity string, req ChatRequest, emit func(delta string) error) (ChatResponse, error) {
	preamble, err := s.preamble(req)
	if err != nil {
		return ChatResponse{}, err
	}

	admission, err := s.limiter.CheckAdmission(ctx, identity)
	if err != nil {
		return ChatResponse{}, err
	}
	if !admission.Allowed {
		return ChatResponse{}, &QuotaError{Admission: admission}
	}

	requestID := uuid.NewString()
	outcome, err := s.dispatcher.Stream(ctx, req.Messages, preamble, emit)
	if err != nil {
		return ChatResponse{}, err
	}

	remaining := s.recordSend(ctx, identity, requestID)
	return ChatResponse{
		RequestID:       requestID,
		Content:         outcome.Text,
		ModelUsed:       outcome.Model,
		FallbackLevel:   outcome.FallbackDepth,
		RemainingDaily:  remaining.RemainingDaily,
		RemainingMinute: remaining.RemainingMinute,
	}, nil
}

// preamble selects the per-blog or portfolio-wide system turn.
func (s *Service) preamble(req ChatRequest) (string, error) {
	if req.BlogContent != "" || req.BlogSlug != "" {
		body := req.BlogContent
		title := req.BlogTitle
		if body == "" {
			doc, err := s.repo.GetBySlug(content.TypeBlog, req.BlogSlug)
			if err != nil {
				return "", err
			}
			body = doc.Markdown
			if title == "" {
				title = doc.Meta.Title
			}
		}
		return BlogPreamble(title, body), nil
	}
	return PortfolioPreamble(s.repo)
}

// recordSend persists the admitted message. Storage failure here is logged
// but never fails the user-visible request; the completion already succeeded.
func (s *Service) recordSend(ctx context.Context, identity, requestID string) ratelimit.Admission {
	remaining, err := s.limiter.RecordSend(ctx, identity)
	if err != nil {
		log.WithError(err).WithField("request_id", requestID).Warn("assistant: failed to record usage")
		return ratelimit.Admission{}
	}
	return remaining
}
