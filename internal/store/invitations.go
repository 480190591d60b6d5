package store

import (
	"context"

	"company-panel/internal/model"

	"gorm.io/gorm"
)

// Invite records an invitation for the email address to join the company.
// The returned plain text token is only stored hashed.
func (s *Store) Invite(ctx context.Context, tenantID uint, email, role string) (*model.Invitation, string, error) {
	token, err := model.GenerateSecureToken()
	if err != nil {
		return nil, "", err
	}

	invitation := &model.Invitation{
		TenantID:  tenantID,
		Email:     normalizeEmail(email),
		Role:      role,
		TokenHash: model.HashToken(token),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := validateRoleKey(tx, tenantID, role); err != nil {
			return err
		}

		var members int64
		err := tx.Model(&model.Membership{}).
			Joins("JOIN users ON users.id = memberships.user_id").
			Where("memberships.tenant_id = ? AND users.email = ?", tenantID, invitation.Email).
			Count(&members).Error
		if err != nil {
			return err
		}
		if members > 0 {
			return ErrConflict
		}

		return tx.Create(invitation).Error
	})
	if err != nil {
		return nil, "", wrap("inviting member", err)
	}
	return invitation, token, nil
}

// Invitations lists the company's pending invitations
func (s *Store) Invitations(ctx context.Context, tenantID uint) ([]model.Invitation, error) {
	var invitations []model.Invitation
	err := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID).Order("id ASC").Find(&invitations).Error
	if err != nil {
		return nil, wrap("listing invitations", err)
	}
	return invitations, nil
}

// CancelInvitation deletes a pending invitation of the company
func (s *Store) CancelInvitation(ctx context.Context, tenantID, invitationID uint) error {
	res := s.db.WithContext(ctx).Where("id = ? AND tenant_id = ?", invitationID, tenantID).Delete(&model.Invitation{})
	if res.Error != nil {
		return wrap("cancelling invitation", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap("cancelling invitation", ErrNotFound)
	}
	return nil
}

// AcceptInvitation joins the user to the inviting company and makes it their current one
func (s *Store) AcceptInvitation(ctx context.Context, user *model.User, token string) (*model.Membership, error) {
	var membership *model.Membership
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var invitation model.Invitation
		if err := tx.Where("token_hash = ?", model.HashToken(token)).First(&invitation).Error; err != nil {
			return err
		}
		if invitation.Email != normalizeEmail(user.Email) {
			return ErrInvitationMismatch
		}

		var err error
		membership, err = addMembership(tx, invitation.TenantID, user.ID, invitation.Role)
		if err != nil {
			return err
		}
		if err := tx.Delete(&invitation).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", user.ID).Update("current_tenant_id", invitation.TenantID).Error
	})
	if err != nil {
		return nil, wrap("accepting invitation", err)
	}
	return membership, nil
}
