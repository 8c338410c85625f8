// Package handlers implements the public API endpoints.
package handlers

import (
	"net/http"

	"github.com/Criztiandev/criztiandev-blogs/internal/ratelimit"
	"github.com/Criztiandev/criztiandev-blogs/internal/settings"
	"github.com/gin-gonic/gin"
)

// GetPublicConfig returns the site settings a browser client needs up front.
func GetPublicConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"site_name":               settings.SiteName(),
		"max_messages_per_day":    settings.IntValue(settings.AIMaxMessagesPerDayKey, ratelimit.DefaultMaxMessagesPerDay),
		"max_messages_per_minute": settings.IntValue(settings.AIMaxMessagesPerMinuteKey, ratelimit.DefaultMaxMessagesPerMinute),
	})
}
