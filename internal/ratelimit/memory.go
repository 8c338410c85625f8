package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process UsageStore. It is intended for tests and for
// running without a datastore; state is lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

var _ UsageStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

// Get implements UsageStore.
func (s *MemoryStore) Get(_ context.Context, identity, date string) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[identity+"\x00"+date]
	if !ok {
		return Record{}, false, nil
	}
	out := *record
	out.RecentTimestamps = append([]int64(nil), record.RecentTimestamps...)
	return out, true, nil
}

// Record implements UsageStore. The store mutex serializes increments.
func (s *MemoryStore) Record(_ context.Context, identity, date string, now time.Time, window time.Duration) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := identity + "\x00" + date
	record, ok := s.records[key]
	if !ok {
		record = &Record{Date: date}
		s.records[key] = record
	}

	record.DailyCount++
	live := liveTimestamps(record.RecentTimestamps, now, window)
	record.RecentTimestamps = append(live, now.UnixMilli())

	out := *record
	out.RecentTimestamps = append([]int64(nil), record.RecentTimestamps...)
	return out, nil
}
