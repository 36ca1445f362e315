package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"fuel-dashboard-backend/internal/model"
)

// ErrSessionNotFound is returned when closing a session that does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Store defines the interface for all database operations.
type Store interface {
	RecordSample(ctx context.Context, at time.Time, snap *model.Snapshot) error
	RecentSamples(ctx context.Context, limit int) ([]model.Sample, error)
	OpenSession(ctx context.Context, at time.Time) (*model.Session, error)
	CloseSession(ctx context.Context, id int64, at time.Time, snap *model.Snapshot) error
	RecentSessions(ctx context.Context, limit int) ([]model.Session, error)
	DB() *gorm.DB
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for handlers that need ad-hoc queries.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// RecordSample persists the totals of one polled snapshot.
func (s *gormStore) RecordSample(ctx context.Context, at time.Time, snap *model.Snapshot) error {
	sample := model.Sample{
		ObservedAt:       at,
		TotalLiters:      snap.TotalLiters,
		TotalCost:        snap.TotalCost,
		Balance:          snap.Balance,
		RecipientBalance: snap.RecipientBalance,
		RealTimeLiters:   snap.RealTime.Liters,
		FuelingActive:    snap.FuelingActive,
	}
	if err := s.db.WithContext(ctx).Create(&sample).Error; err != nil {
		return fmt.Errorf("failed to record sample: %w", err)
	}
	return nil
}

// RecentSamples returns the newest samples first.
func (s *gormStore) RecentSamples(ctx context.Context, limit int) ([]model.Sample, error) {
	var samples []model.Sample
	if err := s.db.WithContext(ctx).Order("observed_at DESC").Limit(limit).Find(&samples).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch samples: %w", err)
	}
	return samples, nil
}

// OpenSession starts a new fueling session.
func (s *gormStore) OpenSession(ctx context.Context, at time.Time) (*model.Session, error) {
	session := model.Session{StartedAt: at}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("failed to open session: %w", err)
	}
	return &session, nil
}

// CloseSession stamps the stop time and, when a snapshot is available, the
// final totals of a session.
func (s *gormStore) CloseSession(ctx context.Context, id int64, at time.Time, snap *model.Snapshot) error {
	updates := map[string]any{"stopped_at": at}
	if snap != nil {
		updates["total_liters"] = snap.TotalLiters
		updates["total_cost"] = snap.TotalCost
		updates["balance"] = snap.Balance
		updates["recipient_balance"] = snap.RecipientBalance
		updates["hold_count"] = len(snap.Holds)
		updates["packet_count"] = len(snap.PacketLog)
	}

	result := s.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to close session %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("failed to close session %d: %w", id, ErrSessionNotFound)
	}
	return nil
}

// RecentSessions returns the newest sessions first.
func (s *gormStore) RecentSessions(ctx context.Context, limit int) ([]model.Session, error) {
	var sessions []model.Session
	if err := s.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch sessions: %w", err)
	}
	return sessions, nil
}
