package store

import (
	"context"
	"time"

	"company-panel/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateSession opens a browser session for the user
func (s *Store) CreateSession(ctx context.Context, userID uint, ip, userAgent string, expiresAt time.Time) (*model.Session, error) {
	now := s.now()
	session := &model.Session{
		ID:           uuid.NewString(),
		UserID:       userID,
		IPAddress:    ip,
		UserAgent:    userAgent,
		LastActivity: now,
		ExpiresAt:    expiresAt,
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, wrap("creating session", err)
	}
	return session, nil
}

// LiveSession returns the session if it is neither revoked nor expired
func (s *Store) LiveSession(ctx context.Context, id string) (*model.Session, error) {
	var session model.Session
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, wrap("loading session", err)
	}
	if !session.IsLive(s.now()) {
		return nil, wrap("loading session", ErrNotFound)
	}
	return &session, nil
}

// TouchSession records activity on the session
func (s *Store) TouchSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Model(&model.Session{}).Where("id = ?", id).Update("last_activity", s.now()).Error
	return wrap("touching session", err)
}

// Sessions lists the user's live sessions, most recently active first
func (s *Store) Sessions(ctx context.Context, userID uint) ([]model.Session, error) {
	var sessions []model.Session
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, s.now()).
		Order("last_activity DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, wrap("listing sessions", err)
	}
	return sessions, nil
}

// RevokeSession ends a single session
func (s *Store) RevokeSession(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", s.now()).Error
	return wrap("revoking session", err)
}

// RevokeOtherSessions ends every session of the user except keepID
func (s *Store) RevokeOtherSessions(ctx context.Context, userID uint, keepID string) error {
	return wrap("revoking sessions", revokeSessions(s.db.WithContext(ctx), userID, keepID, s.now()))
}

// revokeSessions ends the user's sessions, sparing keepID when it is set
func revokeSessions(tx *gorm.DB, userID uint, keepID string, now time.Time) error {
	q := tx.Model(&model.Session{}).Where("user_id = ? AND revoked_at IS NULL", userID)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	return q.Update("revoked_at", now).Error
}
