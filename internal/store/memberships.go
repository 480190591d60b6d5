package store

import (
	"context"
	"errors"

	"company-panel/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Members lists the company's memberships with their users
func (s *Store) Members(ctx context.Context, tenantID uint) ([]model.Membership, error) {
	var members []model.Membership
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&members).Error
	if err != nil {
		return nil, wrap("listing members", err)
	}
	return members, nil
}

// AddMember adds an existing user to the company with the given role
func (s *Store) AddMember(ctx context.Context, tenantID uint, email, role string) (*model.Membership, error) {
	var membership *model.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateRoleKey(tx, tenantID, role); err != nil {
			return err
		}

		var user model.User
		if err := tx.Where("email = ?", normalizeEmail(email)).First(&user).Error; err != nil {
			return err
		}

		var err error
		membership, err = addMembership(tx, tenantID, user.ID, role)
		return err
	})
	if err != nil {
		return nil, wrap("adding member", err)
	}
	return membership, nil
}

// UpdateMemberRole changes a member's role. The owner's role is fixed.
func (s *Store) UpdateMemberRole(ctx context.Context, tenantID, userID uint, role string) (*model.Membership, error) {
	var membership model.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("User").Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&membership).Error; err != nil {
			return err
		}
		if membership.Role == model.RoleOwner {
			return ErrOwnerRemoval
		}
		if err := validateRoleKey(tx, tenantID, role); err != nil {
			return err
		}
		membership.Role = role
		return tx.Model(&membership).Update("role", role).Error
	})
	if err != nil {
		return nil, wrap("updating member role", err)
	}
	return &membership, nil
}

// SetMemberActive suspends or restores a membership. An inactive member keeps
// the role but loses access to the company. The owner is always active.
func (s *Store) SetMemberActive(ctx context.Context, tenantID, userID uint, active bool) (*model.Membership, error) {
	var membership model.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Preload("User").Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&membership).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotMember
		}
		if err != nil {
			return err
		}
		if membership.Role == model.RoleOwner {
			return ErrOwnerRemoval
		}

		membership.Active = active
		if err := tx.Model(&membership).Update("active", active).Error; err != nil {
			return err
		}
		if !active && membership.User != nil && membership.User.CurrentTenantID != nil && *membership.User.CurrentTenantID == tenantID {
			return resetCurrentTenant(tx, userID)
		}
		return nil
	})
	if err != nil {
		return nil, wrap("changing member status", err)
	}
	return &membership, nil
}

// RemoveMember removes the user from the company. Users whose current
// company it was are moved to another of their companies.
func (s *Store) RemoveMember(ctx context.Context, tenantID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, tenantID).Error; err != nil {
			return err
		}
		if tenant.IsOwnedBy(userID) {
			return ErrOwnerRemoval
		}

		res := tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).Delete(&model.Membership{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotMember
		}

		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			return err
		}
		if user.CurrentTenantID != nil && *user.CurrentTenantID == tenantID {
			return resetCurrentTenant(tx, userID)
		}
		return nil
	})
	return wrap("removing member", err)
}

func addMembership(tx *gorm.DB, tenantID, userID uint, role string) (*model.Membership, error) {
	var existing model.Membership
	err := tx.Where("tenant_id = ? AND user_id = ?", tenantID, userID).First(&existing).Error
	if err == nil {
		return nil, ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	membership := &model.Membership{UserID: userID, TenantID: tenantID, Role: role, Active: true}
	if err := tx.Omit(clause.Associations).Create(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

// validateRoleKey accepts the name of a global role or a role of the company.
// The owner designation is never assignable.
func validateRoleKey(tx *gorm.DB, tenantID uint, key string) error {
	if key == "" || key == model.RoleOwner {
		return ErrInvalidRole
	}
	var count int64
	err := tx.Model(&model.Role{}).
		Where("name = ? AND (tenant_id IS NULL OR tenant_id = ?)", key, tenantID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrInvalidRole
	}
	return nil
}
