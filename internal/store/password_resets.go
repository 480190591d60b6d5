package store

import (
	"context"
	"crypto/subtle"

	"company-panel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePasswordReset issues a reset token for the account, replacing any earlier one
func (s *Store) CreatePasswordReset(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", wrap("creating password reset", err)
	}
	if count == 0 {
		return "", wrap("creating password reset", ErrNotFound)
	}

	token, err := model.GenerateSecureToken()
	if err != nil {
		return "", err
	}

	reset := model.PasswordResetToken{Email: email, TokenHash: model.HashToken(token), CreatedAt: s.now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_hash", "created_at"}),
	}).Create(&reset).Error
	if err != nil {
		return "", wrap("creating password reset", err)
	}
	return token, nil
}

// ResetPassword consumes the reset token, sets the new password and ends every session
func (s *Store) ResetPassword(ctx context.Context, email, token, password string) error {
	email = normalizeEmail(email)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset model.PasswordResetToken
		if err := tx.Where("email = ?", email).First(&reset).Error; err != nil {
			return err
		}
		if subtle.ConstantTimeCompare([]byte(reset.TokenHash), []byte(model.HashToken(token))) != 1 {
			return ErrNotFound
		}
		if reset.IsExpired(s.now()) {
			return ErrTokenExpired
		}

		var user model.User
		if err := tx.Where("email = ?", email).First(&user).Error; err != nil {
			return err
		}
		if err := user.SetPassword(password); err != nil {
			return err
		}
		if err := tx.Model(&user).Update("password", user.Password).Error; err != nil {
			return err
		}
		if err := tx.Delete(&reset).Error; err != nil {
			return err
		}
		return revokeSessions(tx, user.ID, "", s.now())
	})
	return wrap("resetting password", err)
}
