package store

import (
	"context"

	"company-panel/internal/model"
	"company-panel/pkg/config"

	"gorm.io/gorm"
)

// SeedRoles creates or refreshes the global roles and their permissions.
// Running it again with the same definitions changes nothing.
func (s *Store) SeedRoles(ctx context.Context, defs config.RoleDefinitions) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range defs.Permissions() {
			var perm model.Permission
			err := tx.Where(model.Permission{Name: name}).
				Attrs(model.Permission{GuardName: model.GuardWeb}).
				FirstOrCreate(&perm).Error
			if err != nil {
				return err
			}
		}

		for _, def := range defs.Roles {
			var role model.Role
			err := tx.Where("name = ? AND tenant_id IS NULL", def.Key).
				Attrs(model.Role{Name: def.Key, GuardName: model.GuardWeb}).
				FirstOrCreate(&role).Error
			if err != nil {
				return err
			}

			err = tx.Model(&role).Updates(map[string]interface{}{
				"label":       def.Name,
				"description": def.Description,
			}).Error
			if err != nil {
				return err
			}

			perms, err := findPermissions(tx, def.Permissions)
			if err != nil {
				return err
			}
			if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
				return err
			}
		}
		return nil
	})
	return wrap("seeding roles", err)
}

// Permissions lists every known permission
func (s *Store) Permissions(ctx context.Context) ([]model.Permission, error) {
	var perms []model.Permission
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&perms).Error; err != nil {
		return nil, wrap("listing permissions", err)
	}
	return perms, nil
}

// RolesForTenant returns the global roles and the roles owned by the company
func (s *Store) RolesForTenant(ctx context.Context, tenantID uint) ([]model.Role, error) {
	var roles []model.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions").
		Where("tenant_id IS NULL OR tenant_id = ?", tenantID).
		Order("id ASC").
		Find(&roles).Error
	if err != nil {
		return nil, wrap("listing roles", err)
	}
	return roles, nil
}

// RoleInput holds the editable fields of a company role
type RoleInput struct {
	Name        string
	Label       string
	Description string
	Permissions []string
}

// CreateRole adds a role scoped to the company
func (s *Store) CreateRole(ctx context.Context, tenantID uint, in RoleInput) (*model.Role, error) {
	if in.Name == "" || in.Name == model.RoleOwner {
		return nil, wrap("creating role", ErrInvalidRole)
	}

	tid := tenantID
	role := &model.Role{
		Name:        in.Name,
		Label:       in.Label,
		Description: in.Description,
		TenantID:    &tid,
		GuardName:   model.GuardWeb,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Role{}).Where("name = ? AND tenant_id = ?", in.Name, tenantID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrConflict
		}

		perms, err := findPermissions(tx, in.Permissions)
		if err != nil {
			return err
		}
		if err := tx.Omit("Permissions").Create(role).Error; err != nil {
			return err
		}
		if err := tx.Model(role).Association("Permissions").Replace(perms); err != nil {
			return err
		}
		role.Permissions = perms
		return nil
	})
	if err != nil {
		return nil, wrap("creating role", err)
	}
	return role, nil
}

// UpdateRole changes a company role's label, description and permissions.
// Global roles are not editable from a company.
func (s *Store) UpdateRole(ctx context.Context, tenantID, roleID uint, in RoleInput) (*model.Role, error) {
	var role model.Role
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND tenant_id = ?", roleID, tenantID).First(&role).Error; err != nil {
			return err
		}

		perms, err := findPermissions(tx, in.Permissions)
		if err != nil {
			return err
		}
		err = tx.Model(&role).Updates(map[string]interface{}{
			"label":       in.Label,
			"description": in.Description,
		}).Error
		if err != nil {
			return err
		}
		if err := tx.Model(&role).Association("Permissions").Replace(perms); err != nil {
			return err
		}
		role.Permissions = perms
		return nil
	})
	if err != nil {
		return nil, wrap("updating role", err)
	}
	return &role, nil
}

// DeleteRole removes a company role unless members still depend on it
func (s *Store) DeleteRole(ctx context.Context, tenantID, roleID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var role model.Role
		if err := tx.Where("id = ? AND tenant_id = ?", roleID, tenantID).First(&role).Error; err != nil {
			return err
		}

		var inUse, fallback int64
		if err := tx.Model(&model.Membership{}).Where("tenant_id = ? AND role = ?", tenantID, role.Name).Count(&inUse).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Role{}).Where("name = ? AND tenant_id IS NULL", role.Name).Count(&fallback).Error; err != nil {
			return err
		}
		// members keep working when a global role of the same name takes over
		if inUse > 0 && fallback == 0 {
			return ErrRoleInUse
		}

		return tx.Select("Permissions").Delete(&role).Error
	})
	return wrap("deleting role", err)
}

func findPermissions(tx *gorm.DB, names []string) ([]model.Permission, error) {
	perms := []model.Permission{}
	if len(names) == 0 {
		return perms, nil
	}
	if err := tx.Where("name IN ?", names).Find(&perms).Error; err != nil {
		return nil, err
	}

	found := make(map[string]bool, len(perms))
	for _, p := range perms {
		found[p.Name] = true
	}
	for _, n := range names {
		if !found[n] {
			return nil, ErrUnknownPermission
		}
	}
	return perms, nil
}
