package store

import (
	"context"
	"time"

	"company-panel/internal/model"
	"company-panel/prometheus"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateTenant creates a company owned by the user and switches the user to it
func (s *Store) CreateTenant(ctx context.Context, ownerID uint, name string) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	var tenant *model.Tenant
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		tenant, err = createTenant(tx, ownerID, name, false)
		return err
	})
	if err != nil {
		return nil, wrap("creating company", err)
	}
	return tenant, nil
}

// TenantByID loads a company
func (s *Store) TenantByID(ctx context.Context, id uint) (*model.Tenant, error) {
	var tenant model.Tenant
	if err := s.db.WithContext(ctx).First(&tenant, id).Error; err != nil {
		return nil, wrap("loading company", err)
	}
	return &tenant, nil
}

// RenameTenant changes the company name
func (s *Store) RenameTenant(ctx context.Context, id uint, name string) (*model.Tenant, error) {
	res := s.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", id).Update("name", name)
	if res.Error != nil {
		return nil, wrap("renaming company", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, wrap("renaming company", ErrNotFound)
	}
	return s.TenantByID(ctx, id)
}

// DeleteTenant removes a company with its memberships, invitations and roles.
// Members pointing at it as their current company are moved to another one.
func (s *Store) DeleteTenant(ctx context.Context, id uint) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, id).Error; err != nil {
			return err
		}
		if tenant.PersonalCompany {
			return ErrPersonalTenant
		}
		return deleteTenant(tx, &tenant)
	})
	return wrap("deleting company", err)
}

// SwitchCurrentTenant points the user at one of their companies
func (s *Store) SwitchCurrentTenant(ctx context.Context, userID, tenantID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.Membership{}).
			Where("user_id = ? AND tenant_id = ? AND active = ?", userID, tenantID, true).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrNotMember
		}
		return tx.Model(&model.User{}).Where("id = ?", userID).Update("current_tenant_id", tenantID).Error
	})
	return wrap("switching company", err)
}

func createTenant(tx *gorm.DB, ownerID uint, name string, personal bool) (*model.Tenant, error) {
	tenant := &model.Tenant{OwnerID: ownerID, Name: name, PersonalCompany: personal}
	if err := tx.Create(tenant).Error; err != nil {
		return nil, err
	}

	membership := &model.Membership{UserID: ownerID, TenantID: tenant.ID, Role: model.RoleOwner, Active: true}
	if err := tx.Omit(clause.Associations).Create(membership).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&model.User{}).Where("id = ?", ownerID).Update("current_tenant_id", tenant.ID).Error; err != nil {
		return nil, err
	}
	return tenant, nil
}

func deleteTenant(tx *gorm.DB, tenant *model.Tenant) error {
	var affected []uint
	if err := tx.Model(&model.User{}).Where("current_tenant_id = ?", tenant.ID).Pluck("id", &affected).Error; err != nil {
		return err
	}

	if err := tx.Where("tenant_id = ?", tenant.ID).Delete(&model.Membership{}).Error; err != nil {
		return err
	}
	if err := tx.Where("tenant_id = ?", tenant.ID).Delete(&model.Invitation{}).Error; err != nil {
		return err
	}

	var roles []model.Role
	if err := tx.Where("tenant_id = ?", tenant.ID).Find(&roles).Error; err != nil {
		return err
	}
	if len(roles) > 0 {
		if err := tx.Select("Permissions").Delete(&roles).Error; err != nil {
			return err
		}
	}

	for _, userID := range affected {
		if err := resetCurrentTenant(tx, userID); err != nil {
			return err
		}
	}
	return tx.Delete(tenant).Error
}

// resetCurrentTenant moves the user to their personal company, or any other
// remaining company, or clears the pointer when nothing is left
func resetCurrentTenant(tx *gorm.DB, userID uint) error {
	var next []uint
	err := tx.Model(&model.Membership{}).
		Joins("JOIN tenants ON tenants.id = memberships.tenant_id").
		Where("memberships.user_id = ? AND memberships.active = ?", userID, true).
		Order("tenants.personal_company DESC, tenants.name ASC, tenants.id ASC").
		Limit(1).
		Pluck("memberships.tenant_id", &next).Error
	if err != nil {
		return err
	}

	var current interface{}
	if len(next) > 0 {
		current = next[0]
	}
	return tx.Model(&model.User{}).Where("id = ?", userID).Update("current_tenant_id", current).Error
}
