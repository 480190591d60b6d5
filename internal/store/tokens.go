package store

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"company-panel/internal/model"

	"gorm.io/gorm"
)

// CreateToken issues a personal access token. The returned plain text
// token has the form "<id>|<secret>" and is not recoverable later.
func (s *Store) CreateToken(ctx context.Context, userID uint, name string, abilities []string) (string, *model.PersonalAccessToken, error) {
	secret, err := model.GenerateSecureToken()
	if err != nil {
		return "", nil, err
	}

	token := &model.PersonalAccessToken{
		UserID:    userID,
		Name:      name,
		TokenHash: model.HashToken(secret),
		Abilities: abilities,
	}
	if err := s.db.WithContext(ctx).Create(token).Error; err != nil {
		return "", nil, wrap("creating token", err)
	}

	return fmt.Sprintf("%d|%s", token.ID, secret), token, nil
}

// Tokens lists the user's personal access tokens
func (s *Store) Tokens(ctx context.Context, userID uint) ([]model.PersonalAccessToken, error) {
	var tokens []model.PersonalAccessToken
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&tokens).Error
	if err != nil {
		return nil, wrap("listing tokens", err)
	}
	return tokens, nil
}

// UpdateTokenAbilities replaces the abilities of one of the user's tokens
func (s *Store) UpdateTokenAbilities(ctx context.Context, userID, tokenID uint, abilities []string) (*model.PersonalAccessToken, error) {
	var token model.PersonalAccessToken
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", tokenID, userID).First(&token).Error; err != nil {
			return err
		}
		token.Abilities = abilities
		return tx.Model(&token).Select("abilities").Updates(&token).Error
	})
	if err != nil {
		return nil, wrap("updating token", err)
	}
	return &token, nil
}

// DeleteToken revokes one of the user's tokens
func (s *Store) DeleteToken(ctx context.Context, userID, tokenID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", tokenID, userID).Delete(&model.PersonalAccessToken{})
	if res.Error != nil {
		return wrap("deleting token", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("deleting token", ErrNotFound)
	}
	return nil
}

// FindToken resolves a plain text token and records its use
func (s *Store) FindToken(ctx context.Context, plain string) (*model.PersonalAccessToken, error) {
	idPart, secret, ok := strings.Cut(plain, "|")
	if !ok || secret == "" {
		return nil, wrap("finding token", ErrNotFound)
	}
	id, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil {
		return nil, wrap("finding token", ErrNotFound)
	}

	var token model.PersonalAccessToken
	if err := s.db.WithContext(ctx).First(&token, uint(id)).Error; err != nil {
		return nil, wrap("finding token", err)
	}
	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(model.HashToken(secret))) != 1 {
		return nil, wrap("finding token", ErrNotFound)
	}

	now := s.now()
	if token.IsExpired(now) {
		return nil, wrap("finding token", ErrTokenExpired)
	}

	token.LastUsedAt = &now
	if err := s.db.WithContext(ctx).Model(&token).Update("last_used_at", now).Error; err != nil {
		return nil, wrap("touching token", err)
	}
	return &token, nil
}
