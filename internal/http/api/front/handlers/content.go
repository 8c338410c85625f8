package handlers

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/Criztiandev/criztiandev-blogs/internal/content"
	"github.com/gin-gonic/gin"
)

// defaultPageLimit bounds content list responses when no limit is given.
const defaultPageLimit = 10

// ContentHandler serves markdown-backed content collections.
type ContentHandler struct {
	repo *content.Repository
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(repo *content.Repository) *ContentHandler {
	return &ContentHandler{repo: repo}
}

// List returns paginated metadata for one content type.
func (h *ContentHandler) List(c *gin.Context) {
	contentType, errType := content.ParseType(c.Param("type"))
	if errType != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content type"})
		return
	}

	cursor := intQuery(c, "cursor", 0)
	limit := intQuery(c, "limit", defaultPageLimit)

	items, errList := h.repo.ListByType(contentType)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list content failed"})
		return
	}

	page, next := content.Page(items, cursor, limit)
	c.JSON(http.StatusOK, gin.H{
		"items":       page,
		"next_cursor": next,
		"total":       len(items),
	})
}

// Get returns one rendered document by slug.
func (h *ContentHandler) Get(c *gin.Context) {
	contentType, errType := content.ParseType(c.Param("type"))
	if errType != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content type"})
		return
	}

	doc, errGet := h.repo.GetBySlug(contentType, c.Param("slug"))
	if errGet != nil {
		if errors.Is(errGet, fs.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "content not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load content failed"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// intQuery reads a non-negative integer query parameter.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, errParse := strconv.Atoi(raw)
	if errParse != nil || value < 0 {
		return fallback
	}
	return value
}
