package handlers

import (
	"errors"
	"net/http"

	"github.com/Criztiandev/criztiandev-blogs/internal/newsletter"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// NewsletterHandler serves newsletter subscription endpoints.
type NewsletterHandler struct {
	svc *newsletter.Service
}

// NewNewsletterHandler constructs a NewsletterHandler.
func NewNewsletterHandler(svc *newsletter.Service) *NewsletterHandler {
	return &NewsletterHandler{svc: svc}
}

// subscribeRequest carries the address to subscribe or unsubscribe.
type subscribeRequest struct {
	Email string `json:"email" binding:"required"`
}

// Subscribe adds or reactivates a newsletter subscription.
func (h *NewsletterHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	result, errSub := h.svc.Subscribe(c.Request.Context(), req.Email)
	if errSub != nil {
		if errors.Is(errSub, newsletter.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
			return
		}
		log.WithError(errSub).Error("newsletter subscribe failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":            result.Message,
		"already_subscribed": result.AlreadySubscribed,
	})
}

// Unsubscribe deactivates a subscription. Unknown addresses are a no-op.
func (h *NewsletterHandler) Unsubscribe(c *gin.Context) {
	var req subscribeRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	if errUnsub := h.svc.Unsubscribe(c.Request.Context(), req.Email); errUnsub != nil {
		if errors.Is(errUnsub, newsletter.ErrInvalidEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unsubscribe failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}
