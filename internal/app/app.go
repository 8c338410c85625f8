// Package app boots the portfolio API server from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Criztiandev/criztiandev-blogs/internal/ai"
	"github.com/Criztiandev/criztiandev-blogs/internal/ai/groq"
	"github.com/Criztiandev/criztiandev-blogs/internal/assistant"
	"github.com/Criztiandev/criztiandev-blogs/internal/config"
	"github.com/Criztiandev/criztiandev-blogs/internal/content"
	"github.com/Criztiandev/criztiandev-blogs/internal/db"
	"github.com/Criztiandev/criztiandev-blogs/internal/engagement"
	adminapi "github.com/Criztiandev/criztiandev-blogs/internal/http/api/admin"
	"github.com/Criztiandev/criztiandev-blogs/internal/http/api/front"
	"github.com/Criztiandev/criztiandev-blogs/internal/logging"
	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"github.com/Criztiandev/criztiandev-blogs/internal/newsletter"
	"github.com/Criztiandev/criztiandev-blogs/internal/ratelimit"
	"github.com/Criztiandev/criztiandev-blogs/internal/security"
	"github.com/Criztiandev/criztiandev-blogs/internal/settings"
	"github.com/Criztiandev/criztiandev-blogs/internal/usage"
	"github.com/Criztiandev/criztiandev-blogs/internal/util"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// shutdownGrace bounds how long in-flight requests may finish on shutdown.
const shutdownGrace = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the API server and blocks until ctx is cancelled.
func RunServer(ctx context.Context, configPath string) error {
	cfg, errLoad := config.Load(configPath)
	if errLoad != nil {
		return errLoad
	}
	logging.Setup(cfg.Log.Level, cfg.Log.File)

	conn, errOpen := db.Open(cfg.Database.DSN)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		return errRefresh
	}
	if errSeed := seedAdmin(ctx, conn, cfg.Admin); errSeed != nil {
		return errSeed
	}

	limiter, errLimiter := buildLimiter(cfg, conn)
	if errLimiter != nil {
		return errLimiter
	}

	dispatcher, errDispatcher := buildDispatcher(cfg)
	if errDispatcher != nil {
		return errDispatcher
	}
	log.Infof("groq client ready (key %s, %d models)", util.HideAPIKey(cfg.AI.APIKey), len(cfg.AI.Models))

	usage.NewRetentionCleaner(conn).Start(ctx)

	repo, errRepo := content.NewRepository(cfg.Content.Dir)
	if errRepo != nil {
		return errRepo
	}
	go func() {
		if errWatch := repo.Watch(ctx); errWatch != nil {
			log.WithError(errWatch).Warn("content watcher stopped")
		}
	}()

	assistantSvc, errAssistant := assistant.NewService(limiter, dispatcher, repo)
	if errAssistant != nil {
		return errAssistant
	}

	engine := buildEngine()
	front.RegisterFrontRoutes(engine, front.Deps{
		Content:    repo,
		Assistant:  assistantSvc,
		Engagement: engagement.NewService(conn),
		Newsletter: newsletter.NewService(conn),
	})
	adminapi.RegisterAdminRoutes(engine, conn, cfg.Admin)

	server := &http.Server{Addr: cfg.Server.Addr, Handler: engine}
	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildEngine creates the gin engine with a health probe.
func buildEngine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return engine
}

// buildLimiter selects the usage store and applies quota caps. Caps stored in
// the settings table override the file configuration.
func buildLimiter(cfg *config.AppConfig, conn *gorm.DB) (*ratelimit.Limiter, error) {
	var store ratelimit.UsageStore
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store = ratelimit.NewRedisStore(client)
		log.Infof("quota store: redis at %s", cfg.Redis.Addr)
	} else {
		store = ratelimit.NewGormStore(conn)
		log.Info("quota store: database")
	}

	limits := ratelimit.Config{
		MaxMessagesPerDay:    settings.IntValue(settings.AIMaxMessagesPerDayKey, cfg.AI.Limits.MaxMessagesPerDay),
		MaxMessagesPerMinute: settings.IntValue(settings.AIMaxMessagesPerMinuteKey, cfg.AI.Limits.MaxMessagesPerMinute),
		Window:               time.Duration(cfg.AI.Limits.WindowMS) * time.Millisecond,
	}
	return ratelimit.NewLimiter(store, limits)
}

// buildDispatcher creates the Groq-backed fallback dispatcher from the
// configured model chain.
func buildDispatcher(cfg *config.AppConfig) (*ai.Dispatcher, error) {
	client, errClient := groq.NewClient(cfg.AI.APIKey, groq.Options{
		BaseURL:             cfg.AI.BaseURL,
		Temperature:         cfg.AI.Temperature,
		TopP:                cfg.AI.TopP,
		MaxCompletionTokens: cfg.AI.MaxCompletionTokens,
	})
	if errClient != nil {
		return nil, errClient
	}

	candidates := make([]ai.Candidate, 0, len(cfg.AI.Models))
	for _, m := range cfg.AI.Models {
		candidates = append(candidates, ai.Candidate{Model: m.Model, Description: m.Description})
	}
	return ai.NewDispatcher(client, candidates)
}

// seedAdmin creates the operator account on first boot. An existing account
// is left untouched so password changes survive restarts.
func seedAdmin(ctx context.Context, conn *gorm.DB, adminCfg config.AdminConfig) error {
	if adminCfg.Password == "" {
		log.Warn("admin password not configured, admin routes locked out")
		return nil
	}

	var count int64
	if errCount := conn.WithContext(ctx).Model(&models.Admin{}).
		Where("username = ?", adminCfg.Username).
		Count(&count).Error; errCount != nil {
		return fmt.Errorf("app: count admins: %w", errCount)
	}
	if count > 0 {
		return nil
	}

	hash, errHash := security.HashPassword(adminCfg.Password)
	if errHash != nil {
		return fmt.Errorf("app: hash admin password: %w", errHash)
	}
	account := models.Admin{Username: adminCfg.Username, Password: hash, Active: true}
	if errCreate := conn.WithContext(ctx).Create(&account).Error; errCreate != nil {
		return fmt.Errorf("app: seed admin: %w", errCreate)
	}
	log.Infof("seeded admin account %q", adminCfg.Username)
	return nil
}
