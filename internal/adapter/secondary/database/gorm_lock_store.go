package database

import (
	"context"
	"fmt"
	"time"

	"github.com/shopfront/monei-gateway/internal/constant/model/db"
	"github.com/shopfront/monei-gateway/internal/port/output"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLockStore implements the LockStore output port on a Postgres table.
// A lock is a row; insertion with ON CONFLICT DO NOTHING makes acquisition
// atomic across separate web-server workers.
type GormLockStore struct {
	gormDB *gorm.DB
}

// NewGormLockStore creates a new Postgres-backed lock store
func NewGormLockStore(gormDB *gorm.DB) output.LockStore {
	return &GormLockStore{gormDB: gormDB}
}

// Acquire attempts a non-blocking acquisition of the named lock. An expired
// row left behind by a crashed holder is reaped and acquisition retried once.
func (s *GormLockStore) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	acquired, err := s.tryInsert(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if acquired {
		return true, nil
	}

	res := s.gormDB.WithContext(ctx).
		Where("key = ? AND expires_at < ?", key, time.Now()).
		Delete(&db.ProcessingLock{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to reap expired lock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return s.tryInsert(ctx, key, ttl)
}

func (s *GormLockStore) tryInsert(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	now := time.Now()
	lock := db.ProcessingLock{
		Key:        key,
		AcquiredAt: now,
		ExpiresAt:  now.Add(ttl),
	}
	res := s.gormDB.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&lock)
	if res.Error != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// Release frees the named lock. Releasing a free lock is not an error.
func (s *GormLockStore) Release(ctx context.Context, key string) (bool, error) {
	res := s.gormDB.WithContext(ctx).
		Where("key = ?", key).
		Delete(&db.ProcessingLock{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to release lock: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

// IsLocked is a non-mutating probe of the named lock
func (s *GormLockStore) IsLocked(ctx context.Context, key string) (bool, error) {
	var count int64
	err := s.gormDB.WithContext(ctx).
		Model(&db.ProcessingLock{}).
		Where("key = ? AND expires_at >= ?", key, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to probe lock: %w", err)
	}
	return count > 0, nil
}
