package handlers

import (
	"net/http"
	"strconv"

	"github.com/Criztiandev/criztiandev-blogs/internal/newsletter"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SubscriberHandler serves newsletter subscriber management.
type SubscriberHandler struct {
	db  *gorm.DB
	svc *newsletter.Service
}

// NewSubscriberHandler constructs a SubscriberHandler.
func NewSubscriberHandler(db *gorm.DB) *SubscriberHandler {
	return &SubscriberHandler{db: db, svc: newsletter.NewService(db)}
}

// List returns a page of subscribers with the active total.
func (h *SubscriberHandler) List(c *gin.Context) {
	limit, errLimit := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if errLimit != nil || limit <= 0 || limit > 500 {
		limit = 50
	}
	offset, errOffset := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if errOffset != nil || offset < 0 {
		offset = 0
	}

	subscribers, errList := h.svc.List(c.Request.Context(), limit, offset)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query subscribers failed"})
		return
	}

	active, errCount := h.svc.ActiveCount(c.Request.Context())
	if errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count subscribers failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subscribers":  subscribers,
		"active_count": active,
		"limit":        limit,
		"offset":       offset,
	})
}
