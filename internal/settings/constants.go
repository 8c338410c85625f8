package settings

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the public site name.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback site name.
	DefaultSiteName = "criztiandev.blog"
	// AIMaxMessagesPerDayKey overrides the daily AI chat cap.
	AIMaxMessagesPerDayKey = "AI_MAX_MESSAGES_PER_DAY"
	// AIMaxMessagesPerMinuteKey overrides the sliding-window AI chat cap.
	AIMaxMessagesPerMinuteKey = "AI_MAX_MESSAGES_PER_MINUTE"
)
