// Package admin registers the authenticated management routes.
package admin

import (
	"net/http"
	"strings"

	"github.com/Criztiandev/criztiandev-blogs/internal/config"
	"github.com/Criztiandev/criztiandev-blogs/internal/http/api/admin/handlers"
	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/Criztiandev/criztiandev-blogs/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers the admin login route and the JWT-protected
// management routes under /v0/admin.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, adminCfg config.AdminConfig) {
	if r == nil || db == nil {
		return
	}

	admin := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, adminCfg)
	admin.POST("/login", authHandler.Login)

	authed := admin.Group("")
	authed.Use(adminAuthMiddleware(db, adminCfg))

	subscriberHandler := handlers.NewSubscriberHandler(db)
	authed.GET("/subscribers", subscriberHandler.List)

	usageHandler := handlers.NewUsageHandler(db)
	authed.GET("/usage/stats", usageHandler.Stats)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings/:key", settingsHandler.Upsert)
}

// adminAuthMiddleware validates admin JWTs and loads the account into context.
func adminAuthMiddleware(db *gorm.DB, adminCfg config.AdminConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(adminCfg.JWTSecret, token)
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var account models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&account, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !account.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", account.ID)
		c.Next()
	}
}
