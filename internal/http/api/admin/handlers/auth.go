// Package handlers implements the admin management endpoints.
package handlers

import (
	"net/http"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/config"
	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/Criztiandev/criztiandev-blogs/internal/security"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler handles admin authentication.
type AuthHandler struct {
	db       *gorm.DB
	adminCfg config.AdminConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, adminCfg config.AdminConfig) *AuthHandler {
	return &AuthHandler{db: db, adminCfg: adminCfg}
}

// loginRequest carries admin credentials.
type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and issues a JWT.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	var account models.Admin
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("username = ?", req.Username).
		First(&account).Error; errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !account.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
		return
	}
	if !security.CheckPassword(account.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.GenerateAdminToken(h.adminCfg.JWTSecret, account.ID, account.Username, h.adminCfg.TokenExpiry)
	if errToken != nil {
		log.WithError(errToken).Error("sign admin token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	now := time.Now()
	if errUpdate := h.db.WithContext(c.Request.Context()).
		Model(&models.Admin{}).
		Where("id = ?", account.ID).
		Update("last_login_at", now).Error; errUpdate != nil {
		log.WithError(errUpdate).Warn("update last login failed")
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"username":   account.Username,
		"expires_in": int64(h.adminCfg.TokenExpiry.Seconds()),
	})
}
