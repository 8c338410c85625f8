package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
	"github.com/Criztiandev/criztiandev-blogs/internal/assistant"
	apihttp "github.com/Criztiandev/criztiandev-blogs/internal/http"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// AIHandler serves the chat assistant endpoints.
type AIHandler struct {
	svc *assistant.Service
}

// NewAIHandler constructs an AIHandler.
func NewAIHandler(svc *assistant.Service) *AIHandler {
	return &AIHandler{svc: svc}
}

// Limit reports the caller's current quota state without consuming it.
func (h *AIHandler) Limit(c *gin.Context) {
	admission, errCheck := h.svc.CheckAdmission(c.Request.Context(), apihttp.CallerIdentity(c))
	if errCheck != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "quota storage unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"allowed":          admission.Allowed,
		"remaining_daily":  admission.RemainingDaily,
		"remaining_minute": admission.RemainingMinute,
		"reason":           admission.Reason,
		"wait_ms":          admission.WaitMS,
	})
}

// Chat runs one buffered chat completion.
func (h *AIHandler) Chat(c *gin.Context) {
	var req assistant.ChatRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, errChat := h.svc.Chat(c.Request.Context(), apihttp.CallerIdentity(c), req)
	if errChat != nil {
		h.writeChatError(c, errChat)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ChatStream runs one chat completion and relays deltas as server-sent events.
// Each delta is a `data:` line carrying a JSON object with a content field;
// the stream ends with a meta event and a [DONE] sentinel.
func (h *AIHandler) ChatStream(c *gin.Context) {
	var req assistant.ChatRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	started := false
	emit := func(delta string) error {
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Writer.WriteHeader(http.StatusOK)
			started = true
		}
		payload, errMarshal := json.Marshal(gin.H{"content": delta})
		if errMarshal != nil {
			return errMarshal
		}
		if _, errWrite := fmt.Fprintf(c.Writer, "data: %s\n\n", payload); errWrite != nil {
			return errWrite
		}
		flusher.Flush()
		return nil
	}

	resp, errChat := h.svc.ChatStream(c.Request.Context(), apihttp.CallerIdentity(c), req, emit)
	if errChat != nil {
		if !started {
			h.writeChatError(c, errChat)
			return
		}
		// Deltas already reached the client; all we can do is close.
		log.WithError(errChat).Warn("chat stream aborted mid-flight")
		return
	}

	meta, errMarshal := json.Marshal(gin.H{
		"request_id":       resp.RequestID,
		"model_used":       resp.ModelUsed,
		"fallback_level":   resp.FallbackLevel,
		"remaining_daily":  resp.RemainingDaily,
		"remaining_minute": resp.RemainingMinute,
	})
	if errMarshal == nil {
		fmt.Fprintf(c.Writer, "event: meta\ndata: %s\n\n", meta)
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}

// writeChatError maps service failures onto HTTP statuses.
func (h *AIHandler) writeChatError(c *gin.Context, err error) {
	var quotaErr *assistant.QuotaError
	if errors.As(err, &quotaErr) {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":            quotaErr.Error(),
			"reason":           quotaErr.Admission.Reason,
			"remaining_daily":  quotaErr.Admission.RemainingDaily,
			"remaining_minute": quotaErr.Admission.RemainingMinute,
			"wait_ms":          quotaErr.Admission.WaitMS,
		})
		return
	}

	var exhausted *ai.ExhaustedError
	if errors.As(err, &exhausted) {
		log.WithError(err).Error("all chat models exhausted")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "all models unavailable, try again later"})
		return
	}

	log.WithError(err).Error("chat request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
}
