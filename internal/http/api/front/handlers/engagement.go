package handlers

import (
	"errors"
	"net/http"

	"github.com/Criztiandev/criztiandev-blogs/internal/engagement"
	"github.com/gin-gonic/gin"
)

// EngagementHandler serves blog like and share counters.
type EngagementHandler struct {
	svc *engagement.Service
}

// NewEngagementHandler constructs an EngagementHandler.
func NewEngagementHandler(svc *engagement.Service) *EngagementHandler {
	return &EngagementHandler{svc: svc}
}

// toggleLikeRequest selects the like direction.
type toggleLikeRequest struct {
	Action string `json:"action" binding:"required,oneof=like unlike"`
}

// recordShareRequest names the platform a blog was shared on.
type recordShareRequest struct {
	Platform string `json:"platform" binding:"required"`
}

// GetLikes returns the like count for one blog.
func (h *EngagementHandler) GetLikes(c *gin.Context) {
	count, errCount := h.svc.LikeCount(c.Request.Context(), c.Param("slug"))
	if errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query likes failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "count": count})
}

// ToggleLike applies a like or unlike and returns the new count.
func (h *EngagementHandler) ToggleLike(c *gin.Context) {
	var req toggleLikeRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be like or unlike"})
		return
	}

	increment := 1
	if req.Action == "unlike" {
		increment = -1
	}

	count, errToggle := h.svc.ToggleLike(c.Request.Context(), c.Param("slug"), increment)
	if errToggle != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update likes failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "count": count})
}

// GetShares returns per-platform share counts for one blog.
func (h *EngagementHandler) GetShares(c *gin.Context) {
	counts, errCounts := h.svc.ShareCounts(c.Request.Context(), c.Param("slug"))
	if errCounts != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query shares failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "counts": counts})
}

// GetShareTotal returns the summed share count across platforms.
func (h *EngagementHandler) GetShareTotal(c *gin.Context) {
	total, errTotal := h.svc.ShareTotal(c.Request.Context(), c.Param("slug"))
	if errTotal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query shares failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "total": total})
}

// RecordShare increments the counter for one platform.
func (h *EngagementHandler) RecordShare(c *gin.Context) {
	var req recordShareRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform is required"})
		return
	}

	count, errShare := h.svc.IncrementShare(c.Request.Context(), c.Param("slug"), req.Platform)
	if errShare != nil {
		if errors.Is(errShare, engagement.ErrUnknownPlatform) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown share platform"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record share failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "platform": req.Platform, "count": count})
}
