package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("already exists")
	ErrOwnerRemoval       = errors.New("the company owner cannot be removed or reassigned")
	ErrPersonalTenant     = errors.New("personal companies cannot be deleted")
	ErrNotMember          = errors.New("user does not belong to the company")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUnknownPermission  = errors.New("unknown permission")
	ErrRoleInUse          = errors.New("role is assigned to members")
	ErrInvitationMismatch = errors.New("invitation was sent to a different email address")
	ErrPasswordNotSet     = errors.New("password is not set")
)

// wrap translates gorm errors into store errors and adds the operation
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrConflict)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
