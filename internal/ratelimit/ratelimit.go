// Package ratelimit enforces the AI chat quota: a daily cap and a sliding
// one-minute window per anonymous caller identity. Counter mutations are owned
// by the store so concurrent sends never lose increments.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Default quota caps.
const (
	// DefaultMaxMessagesPerDay caps admitted messages per UTC calendar day.
	DefaultMaxMessagesPerDay = 15
	// DefaultMaxMessagesPerMinute caps admitted messages per sliding window.
	DefaultMaxMessagesPerMinute = 3
	// DefaultWindow is the sliding window size.
	DefaultWindow = 60 * time.Second
)

// Rejection reasons reported to callers.
const (
	// ReasonDailyLimit marks a daily-cap rejection, non-retryable until the
	// date rolls over.
	ReasonDailyLimit = "daily_limit_exceeded"
	// ReasonMinuteLimit marks a sliding-window rejection, retryable after
	// WaitMS milliseconds.
	ReasonMinuteLimit = "minute_limit_exceeded"
)

// ErrStorageUnavailable wraps usage store failures.
var ErrStorageUnavailable = errors.New("ratelimit: storage unavailable")

// Record is the persisted usage state for one (identity, date) pair.
type Record struct {
	Date             string  // UTC calendar date (YYYY-MM-DD).
	DailyCount       int64   // Messages admitted on Date.
	RecentTimestamps []int64 // Unix-millisecond send times; expired entries may linger until pruned.
}

// Admission is the outcome of a quota decision.
type Admission struct {
	Allowed         bool   `json:"allowed"`
	RemainingDaily  int    `json:"remaining_daily"`
	RemainingMinute int    `json:"remaining_minute"`
	Reason          string `json:"reason,omitempty"`
	WaitMS          int64  `json:"wait_ms,omitempty"`
}

// UsageStore persists per-identity usage counters. Record must be atomic per
// (identity, date) key: concurrent calls may not lose increments, so
// implementations need a storage-level increment or conditional update rather
// than read-modify-write.
type UsageStore interface {
	// Get loads the record for (identity, date). The second return value is
	// false when no record exists yet; a read never creates one.
	Get(ctx context.Context, identity, date string) (Record, bool, error)

	// Record atomically increments the daily count for (identity, date),
	// prunes timestamps older than now-window and appends now. It returns the
	// post-update record.
	Record(ctx context.Context, identity, date string, now time.Time, window time.Duration) (Record, error)
}

// Clock abstracts wall-clock time so window and rollover arithmetic is
// deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }

// Config carries the quota caps for a Limiter.
type Config struct {
	MaxMessagesPerDay    int
	MaxMessagesPerMinute int
	Window               time.Duration
}

// withDefaults fills zero fields with the default caps.
func (c Config) withDefaults() Config {
	if c.MaxMessagesPerDay <= 0 {
		c.MaxMessagesPerDay = DefaultMaxMessagesPerDay
	}
	if c.MaxMessagesPerMinute <= 0 {
		c.MaxMessagesPerMinute = DefaultMaxMessagesPerMinute
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	return c
}

// Limiter decides message admission for caller identities.
type Limiter struct {
	store UsageStore
	cfg   Config
	clock Clock
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the wall clock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) { l.clock = clock }
}

// NewLimiter creates a Limiter over the given store.
func NewLimiter(store UsageStore, cfg Config, opts ...Option) (*Limiter, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimit: nil usage store")
	}
	l := &Limiter{
		store: store,
		cfg:   cfg.withDefaults(),
		clock: SystemClock(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// CheckAdmission reports whether a new message from identity is admissible.
// It is a pure query: stored state is never mutated.
func (l *Limiter) CheckAdmission(ctx context.Context, identity string) (Admission, error) {
	if identity == "" {
		return Admission{}, fmt.Errorf("ratelimit: empty identity")
	}

	now := l.clock.Now().UTC()
	record, ok, err := l.store.Get(ctx, identity, dateOf(now))
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !ok {
		return Admission{
			Allowed:         true,
			RemainingDaily:  l.cfg.MaxMessagesPerDay,
			RemainingMinute: l.cfg.MaxMessagesPerMinute,
		}, nil
	}
	return l.admit(record, now), nil
}

// RecordSend registers an admitted message for identity and returns the
// post-update remaining counts. It is legal without a prior CheckAdmission;
// live state is recomputed from the store.
func (l *Limiter) RecordSend(ctx context.Context, identity string) (Admission, error) {
	if identity == "" {
		return Admission{}, fmt.Errorf("ratelimit: empty identity")
	}

	now := l.clock.Now().UTC()
	record, err := l.store.Record(ctx, identity, dateOf(now), now, l.cfg.Window)
	if err != nil {
		return Admission{}, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return l.admit(record, now), nil
}

// admit evaluates the caps against a record at instant now.
func (l *Limiter) admit(record Record, now time.Time) Admission {
	if record.DailyCount >= int64(l.cfg.MaxMessagesPerDay) {
		return Admission{Allowed: false, Reason: ReasonDailyLimit}
	}
	remainingDaily := l.cfg.MaxMessagesPerDay - int(record.DailyCount)

	live := liveTimestamps(record.RecentTimestamps, now, l.cfg.Window)
	if len(live) >= l.cfg.MaxMessagesPerMinute {
		oldest := live[0]
		for _, ts := range live[1:] {
			if ts < oldest {
				oldest = ts
			}
		}
		return Admission{
			Allowed:        false,
			RemainingDaily: remainingDaily,
			Reason:         ReasonMinuteLimit,
			WaitMS:         l.cfg.Window.Milliseconds() - (now.UnixMilli() - oldest),
		}
	}

	return Admission{
		Allowed:         true,
		RemainingDaily:  remainingDaily,
		RemainingMinute: l.cfg.MaxMessagesPerMinute - len(live),
	}
}

// dateOf formats an instant as a UTC calendar date key.
func dateOf(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// liveTimestamps filters out entries older than the window.
func liveTimestamps(timestamps []int64, now time.Time, window time.Duration) []int64 {
	nowMS := now.UnixMilli()
	live := make([]int64, 0, len(timestamps))
	for _, ts := range timestamps {
		if nowMS-ts < window.Milliseconds() {
			live = append(live, ts)
		}
	}
	return live
}
