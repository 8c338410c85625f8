package handlers

import (
	"net/http"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UsageHandler serves chat usage statistics.
type UsageHandler struct {
	db *gorm.DB
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(db *gorm.DB) *UsageHandler {
	return &UsageHandler{db: db}
}

// dailyUsage is one calendar day of aggregated chat usage.
type dailyUsage struct {
	Date     string `json:"date"`
	Messages int64  `json:"messages"`
	Callers  int64  `json:"callers"`
}

// Stats aggregates chat usage for today and the trailing seven days.
// Dates are UTC calendar dates matching how usage rows are keyed.
func (h *UsageHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()
	today := time.Now().UTC().Format("2006-01-02")
	weekAgo := time.Now().UTC().AddDate(0, 0, -6).Format("2006-01-02")

	var todayMessages int64
	if errSum := h.db.WithContext(ctx).Model(&models.AIUsage{}).
		Where("date = ?", today).
		Select("COALESCE(SUM(count), 0)").
		Scan(&todayMessages).Error; errSum != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query usage failed"})
		return
	}

	var todayCallers int64
	if errCount := h.db.WithContext(ctx).Model(&models.AIUsage{}).
		Where("date = ?", today).
		Count(&todayCallers).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query usage failed"})
		return
	}

	var trend []dailyUsage
	if errTrend := h.db.WithContext(ctx).Model(&models.AIUsage{}).
		Where("date >= ?", weekAgo).
		Select("date", "COALESCE(SUM(count), 0) AS messages", "COUNT(*) AS callers").
		Group("date").
		Order("date ASC").
		Scan(&trend).Error; errTrend != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query usage failed"})
		return
	}
	if trend == nil {
		trend = []dailyUsage{}
	}

	c.JSON(http.StatusOK, gin.H{
		"today": gin.H{
			"date":     today,
			"messages": todayMessages,
			"callers":  todayCallers,
		},
		"last_7_days": trend,
	})
}
