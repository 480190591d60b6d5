package store

import (
	"context"
	"errors"
	"time"

	"company-panel/internal/model"
	"company-panel/prometheus"

	"gorm.io/gorm"
)

// Register creates the user together with their personal company
func (s *Store) Register(ctx context.Context, name, email, password string) (*model.User, error) {
	defer prometheus.TrackDBOperation("register")(time.Now())

	user := &model.User{Name: name, Email: normalizeEmail(email)}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.User{}).Where("email = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}

		if err := tx.Create(user).Error; err != nil {
			return err
		}

		_, err := createTenant(tx, user.ID, model.PersonalTenantName(user.FirstName()), true)
		return err
	})
	if err != nil {
		return nil, wrap("registering user", err)
	}

	return s.UserByID(ctx, user.ID)
}

// Authenticate checks the credentials and returns the user with memberships loaded
func (s *Store) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	user, err := s.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// UserByID loads the user with active and inactive memberships and their tenants
func (s *Store) UserByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Memberships.Tenant").
		First(&user, id).Error
	if err != nil {
		return nil, wrap("loading user", err)
	}
	return &user, nil
}

// UserByEmail loads the user with the given email address
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).
		Preload("Memberships.Tenant").
		Where("email = ?", normalizeEmail(email)).
		First(&user).Error
	if err != nil {
		return nil, wrap("loading user by email", err)
	}
	return &user, nil
}

// ProfileUpdate holds the profile fields a user may change.
// Nil fields are left untouched.
type ProfileUpdate struct {
	Name            *string
	Email           *string
	ProfilePhotoURL *string
}

// UpdateProfile applies the profile changes. Changing the email clears its verification.
func (s *Store) UpdateProfile(ctx context.Context, userID uint, in ProfileUpdate) (*model.User, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if in.Name != nil {
			updates["name"] = *in.Name
		}
		if in.ProfilePhotoURL != nil {
			updates["profile_photo_url"] = *in.ProfilePhotoURL
		}
		if in.Email != nil {
			email := normalizeEmail(*in.Email)
			if email != user.Email {
				var count int64
				if err := tx.Model(&model.User{}).Where("email = ? AND id <> ?", email, userID).Count(&count).Error; err != nil {
					return err
				}
				if count > 0 {
					return ErrConflict
				}
				updates["email"] = email
				updates["email_verified_at"] = nil
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&user).Updates(updates).Error
	})
	if err != nil {
		return nil, wrap("updating profile", err)
	}
	return s.UserByID(ctx, userID)
}

// ClearProfilePhoto removes the uploaded profile photo
func (s *Store) ClearProfilePhoto(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("profile_photo_url", "").Error
	return wrap("clearing profile photo", err)
}

// UpdatePassword replaces the password and revokes every session except keepSessionID
func (s *Store) UpdatePassword(ctx context.Context, userID uint, password, keepSessionID string) error {
	user := model.User{ID: userID}
	if err := user.SetPassword(password); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.User{}).Where("id = ?", userID).Update("password", user.Password)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return revokeSessions(tx, userID, keepSessionID, s.now())
	})
	return wrap("updating password", err)
}

// DeleteAccount removes the user, the companies they own, and everything tied to them
func (s *Store) DeleteAccount(ctx context.Context, userID uint) error {
	defer prometheus.TrackDBOperation("delete_account")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}

		var owned []model.Tenant
		if err := tx.Where("owner_id = ?", userID).Find(&owned).Error; err != nil {
			return err
		}
		for i := range owned {
			if err := deleteTenant(tx, &owned[i]); err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", userID).Delete(&model.Membership{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.PersonalAccessToken{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		if err := tx.Where("email = ?", user.Email).Delete(&model.PasswordResetToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
	return wrap("deleting account", err)
}
