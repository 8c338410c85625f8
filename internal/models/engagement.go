package models

import "time"

// BlogLike stores the aggregate like count for a blog post.
type BlogLike struct {
	BlogSlug string `gorm:"type:text;primaryKey"` // Blog post slug.

	Count int64 `gorm:"not null;default:0"` // Aggregate like count, never negative.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (BlogLike) TableName() string {
	return "blog_likes"
}

// BlogShare stores the share count for a blog post on one platform.
type BlogShare struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	BlogSlug string `gorm:"type:text;not null;uniqueIndex:idx_blog_shares_slug_platform"` // Blog post slug.
	Platform string `gorm:"type:text;not null;uniqueIndex:idx_blog_shares_slug_platform"` // Share platform identifier.

	Count int64 `gorm:"not null;default:0"` // Aggregate share count.

	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}

// TableName overrides the default table name.
func (BlogShare) TableName() string {
	return "blog_shares"
}
