// Package engagement tracks blog likes and per-platform share counts. All
// counter mutations are single atomic upserts so concurrent toggles never
// lose updates.
package engagement

import (
	"context"
	"errors"
	"fmt"

	dbutil "github.com/Criztiandev/criztiandev-blogs/internal/db"
	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SharePlatforms lists the accepted share targets.
var SharePlatforms = []string{"twitter", "linkedin", "facebook", "medium"}

// ErrUnknownPlatform rejects share increments for unrecognized platforms.
var ErrUnknownPlatform = errors.New("engagement: unknown share platform")

// Service provides like and share counters backed by the database.
type Service struct {
	db *gorm.DB
}

// NewService creates a Service over an open connection.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// LikeCount returns the like count for a blog post, zero when unseen.
func (s *Service) LikeCount(ctx context.Context, slug string) (int64, error) {
	var row models.BlogLike
	err := s.db.WithContext(ctx).Where("blog_slug = ?", slug).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("engagement: load likes: %w", err)
	}
	return row.Count, nil
}

// ToggleLike applies a like (+1) or unlike (-1) atomically. The stored count
// never drops below zero.
func (s *Service) ToggleLike(ctx context.Context, slug string, increment int) (int64, error) {
	if increment != 1 && increment != -1 {
		return 0, fmt.Errorf("engagement: increment must be -1 or 1, got %d", increment)
	}

	initial := int64(0)
	if increment > 0 {
		initial = 1
	}
	greatest := dbutil.GreatestFunc(s.db)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "blog_slug"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr(greatest+"(blog_likes.count + ?, 0)", increment),
		}),
	}).Create(&models.BlogLike{BlogSlug: slug, Count: initial}).Error
	if err != nil {
		return 0, fmt.Errorf("engagement: toggle like: %w", err)
	}
	return s.LikeCount(ctx, slug)
}

// ShareCounts returns the per-platform share counts for a blog post. Every
// known platform is present in the result, zero when unseen.
func (s *Service) ShareCounts(ctx context.Context, slug string) (map[string]int64, error) {
	var rows []models.BlogShare
	if err := s.db.WithContext(ctx).Where("blog_slug = ?", slug).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("engagement: load shares: %w", err)
	}

	counts := make(map[string]int64, len(SharePlatforms))
	for _, platform := range SharePlatforms {
		counts[platform] = 0
	}
	for _, row := range rows {
		counts[row.Platform] = row.Count
	}
	return counts, nil
}

// ShareTotal returns the share count summed over all platforms.
func (s *Service) ShareTotal(ctx context.Context, slug string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.BlogShare{}).
		Where("blog_slug = ?", slug).
		Select("COALESCE(SUM(count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("engagement: sum shares: %w", err)
	}
	return total, nil
}

// IncrementShare bumps the share count for one platform atomically and
// returns the new per-platform count.
func (s *Service) IncrementShare(ctx context.Context, slug, platform string) (int64, error) {
	if !validPlatform(platform) {
		return 0, ErrUnknownPlatform
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "blog_slug"}, {Name: "platform"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count": gorm.Expr("blog_shares.count + 1"),
		}),
	}).Create(&models.BlogShare{BlogSlug: slug, Platform: platform, Count: 1}).Error
	if err != nil {
		return 0, fmt.Errorf("engagement: increment share: %w", err)
	}

	var row models.BlogShare
	if errFind := s.db.WithContext(ctx).Where("blog_slug = ? AND platform = ?", slug, platform).First(&row).Error; errFind != nil {
		return 0, fmt.Errorf("engagement: reload share: %w", errFind)
	}
	return row.Count, nil
}

// validPlatform reports whether platform is a known share target.
func validPlatform(platform string) bool {
	for _, known := range SharePlatforms {
		if known == platform {
			return true
		}
	}
	return false
}
