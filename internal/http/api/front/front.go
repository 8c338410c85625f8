// Package front registers the public-facing API routes.
package front

import (
	"github.com/Criztiandev/criztiandev-blogs/internal/assistant"
	"github.com/Criztiandev/criztiandev-blogs/internal/content"
	"github.com/Criztiandev/criztiandev-blogs/internal/engagement"
	apihttp "github.com/Criztiandev/criztiandev-blogs/internal/http"
	"github.com/Criztiandev/criztiandev-blogs/internal/http/api/front/handlers"
	"github.com/Criztiandev/criztiandev-blogs/internal/newsletter"
	"github.com/gin-gonic/gin"
)

// Deps bundles the services the public routes depend on.
type Deps struct {
	Content    *content.Repository
	Assistant  *assistant.Service
	Engagement *engagement.Service
	Newsletter *newsletter.Service
}

// RegisterFrontRoutes registers the public content, chat, engagement and
// newsletter routes under /v0.
func RegisterFrontRoutes(r *gin.Engine, deps Deps) {
	if r == nil {
		return
	}

	front := r.Group("/v0")
	front.Use(apihttp.CallerIdentityMiddleware())

	front.GET("/config", handlers.GetPublicConfig)

	contentHandler := handlers.NewContentHandler(deps.Content)
	front.GET("/content/:type", contentHandler.List)
	front.GET("/content/:type/:slug", contentHandler.Get)

	aiHandler := handlers.NewAIHandler(deps.Assistant)
	front.GET("/ai/limit", aiHandler.Limit)
	front.POST("/ai/chat", aiHandler.Chat)
	front.POST("/ai/chat/stream", aiHandler.ChatStream)

	engagementHandler := handlers.NewEngagementHandler(deps.Engagement)
	front.GET("/blogs/:slug/likes", engagementHandler.GetLikes)
	front.POST("/blogs/:slug/likes", engagementHandler.ToggleLike)
	front.GET("/blogs/:slug/shares", engagementHandler.GetShares)
	front.GET("/blogs/:slug/shares/total", engagementHandler.GetShareTotal)
	front.POST("/blogs/:slug/shares", engagementHandler.RecordShare)

	newsletterHandler := handlers.NewNewsletterHandler(deps.Newsletter)
	front.POST("/newsletter/subscribe", newsletterHandler.Subscribe)
	front.POST("/newsletter/unsubscribe", newsletterHandler.Unsubscribe)
}
