package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/Criztiandev/criztiandev-blogs/internal/settings"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// maxSettingBody bounds the accepted size of one setting value.
const maxSettingBody = 64 << 10

// SettingsHandler serves runtime site settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// List returns all stored settings.
func (h *SettingsHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("key ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query settings failed"})
		return
	}

	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":   values,
		"updated_at": settings.DBConfigUpdatedAt(),
	})
}

// Upsert stores one setting value. The body is the raw JSON value.
func (h *SettingsHandler) Upsert(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "setting key is required"})
		return
	}

	body, errRead := io.ReadAll(io.LimitReader(c.Request.Body, maxSettingBody))
	if errRead != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "read body failed"})
		return
	}
	if !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be valid JSON"})
		return
	}

	if errUpsert := settings.Upsert(c.Request.Context(), h.db, key, body); errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store setting failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key, "stored": true})
}
