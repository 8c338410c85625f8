package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	dbutil "github.com/Criztiandev/criztiandev-blogs/internal/db"
	"github.com/Criztiandev/criztiandev-blogs/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the database-backed UsageStore. The daily count is incremented
// with a SQL-side expression inside the upsert, so concurrent sends for the
// same identity serialize at the storage layer.
type GormStore struct {
	db *gorm.DB
}

var _ UsageStore = (*GormStore)(nil)

// NewGormStore creates a GormStore over an open connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Get implements UsageStore.
func (s *GormStore) Get(ctx context.Context, identity, date string) (Record, bool, error) {
	var row models.AIUsage
	err := s.db.WithContext(ctx).
		Where("ip_hash = ? AND date = ?", identity, date).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("ratelimit: load usage: %w", err)
	}
	record, errDecode := recordFromRow(row)
	if errDecode != nil {
		return Record{}, false, errDecode
	}
	return record, true, nil
}

// Record implements UsageStore. The row is locked for the duration of the
// transaction on PostgreSQL; SQLite serializes writers on its own.
func (s *GormStore) Record(ctx context.Context, identity, date string, now time.Time, window time.Duration) (Record, error) {
	var out Record
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("ip_hash = ? AND date = ?", identity, date)
		if !dbutil.IsSQLite(tx) {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}

		var row models.AIUsage
		errFind := query.First(&row).Error
		if errFind != nil && !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("ratelimit: load usage: %w", errFind)
		}

		var timestamps []int64
		if len(row.RecentTimestamps) > 0 {
			if errUnmarshal := json.Unmarshal(row.RecentTimestamps, &timestamps); errUnmarshal != nil {
				return fmt.Errorf("ratelimit: decode timestamps: %w", errUnmarshal)
			}
		}
		timestamps = append(liveTimestamps(timestamps, now, window), now.UnixMilli())
		payload, errMarshal := json.Marshal(timestamps)
		if errMarshal != nil {
			return fmt.Errorf("ratelimit: encode timestamps: %w", errMarshal)
		}

		errUpsert := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ip_hash"}, {Name: "date"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":             gorm.Expr("ai_usage.count + 1"),
				"recent_timestamps": datatypes.JSON(payload),
				"updated_at":        now,
			}),
		}).Create(&models.AIUsage{
			IPHash:           identity,
			Date:             date,
			Count:            1,
			RecentTimestamps: datatypes.JSON(payload),
			UpdatedAt:        now,
		}).Error
		if errUpsert != nil {
			return fmt.Errorf("ratelimit: record usage: %w", errUpsert)
		}

		var updated models.AIUsage
		if errReload := tx.Where("ip_hash = ? AND date = ?", identity, date).First(&updated).Error; errReload != nil {
			return fmt.Errorf("ratelimit: reload usage: %w", errReload)
		}
		record, errDecode := recordFromRow(updated)
		if errDecode != nil {
			return errDecode
		}
		out = record
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

// recordFromRow converts a database row into a Record.
func recordFromRow(row models.AIUsage) (Record, error) {
	var timestamps []int64
	if len(row.RecentTimestamps) > 0 {
		if err := json.Unmarshal(row.RecentTimestamps, &timestamps); err != nil {
			return Record{}, fmt.Errorf("ratelimit: decode timestamps: %w", err)
		}
	}
	return Record{
		Date:             row.Date,
		DailyCount:       row.Count,
		RecentTimestamps: timestamps,
	}, nil
}
