package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"company-panel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalAccessTokens(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := register(t, s, "Ana", "ana@example.com")
	bob := register(t, s, "Bob", "bob@example.com")

	plain, token, err := s.CreateToken(ctx, ana.ID, "ci", []string{"read"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(plain, "1|"))
	assert.NotContains(t, token.TokenHash, strings.SplitN(plain, "|", 2)[1])

	found, err := s.FindToken(ctx, plain)
	require.NoError(t, err)
	assert.Equal(t, token.ID, found.ID)
	assert.True(t, found.Can("read"))
	assert.NotNil(t, found.LastUsedAt)

	_, err = s.FindToken(ctx, "1|wrong")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.FindToken(ctx, "garbage")
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := s.UpdateTokenAbilities(ctx, ana.ID, token.ID, []string{"read", "update"})
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "update"}, updated.Abilities)

	_, err = s.UpdateTokenAbilities(ctx, bob.ID, token.ID, []string{"delete"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.DeleteToken(ctx, bob.ID, token.ID), ErrNotFound)
	require.NoError(t, s.DeleteToken(ctx, ana.ID, token.ID))
	_, err = s.FindToken(ctx, plain)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindToken_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := register(t, s, "Ana", "ana@example.com")

	plain, token, err := s.CreateToken(ctx, ana.ID, "old", []string{"read"})
	require.NoError(t, err)
	past := time.Now().Add(-time.Minute)
	require.NoError(t, s.DB().Model(&model.PersonalAccessToken{}).Where("id = ?", token.ID).Update("expires_at", past).Error)

	_, err = s.FindToken(ctx, plain)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := register(t, s, "Ana", "ana@example.com")

	first, err := s.CreateSession(ctx, ana.ID, "10.0.0.1", "firefox", time.Now().Add(time.Hour))
	require.NoError(t, err)
	second, err := s.CreateSession(ctx, ana.ID, "10.0.0.2", "chrome", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = s.LiveSession(ctx, first.ID)
	require.NoError(t, err)
	require.NoError(t, s.TouchSession(ctx, first.ID))

	sessions, err := s.Sessions(ctx, ana.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	require.NoError(t, s.RevokeOtherSessions(ctx, ana.ID, first.ID))
	_, err = s.LiveSession(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.RevokeSession(ctx, first.ID))
	_, err = s.LiveSession(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPasswordReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := register(t, s, "Ana", "ana@example.com")
	session, err := s.CreateSession(ctx, ana.ID, "", "", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = s.CreatePasswordReset(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	token, err := s.CreatePasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)

	assert.ErrorIs(t, s.ResetPassword(ctx, "ana@example.com", "wrong", "new-password"), ErrNotFound)
	require.NoError(t, s.ResetPassword(ctx, "ana@example.com", token, "new-password"))

	_, err = s.Authenticate(ctx, "ana@example.com", "new-password")
	require.NoError(t, err)
	_, err = s.LiveSession(ctx, session.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// single use
	assert.ErrorIs(t, s.ResetPassword(ctx, "ana@example.com", token, "again"), ErrNotFound)
}

func TestPasswordReset_Expired(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	register(t, s, "Ana", "ana@example.com")

	token, err := s.CreatePasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	assert.ErrorIs(t, s.ResetPassword(ctx, "ana@example.com", token, "new-password"), ErrTokenExpired)
}

func TestInvitations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ana := register(t, s, "Ana", "ana@example.com")
	bob := register(t, s, "Bob", "bob@example.com")
	tenantID := *ana.CurrentTenantID

	_, _, err := s.Invite(ctx, tenantID, "ana@example.com", "editor")
	assert.ErrorIs(t, err, ErrConflict, "already a member")

	_, _, err = s.Invite(ctx, tenantID, "bob@example.com", model.RoleOwner)
	assert.ErrorIs(t, err, ErrInvalidRole)

	inv, token, err := s.Invite(ctx, tenantID, "Bob@Example.com", "editor")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", inv.Email)
	assert.Equal(t, model.HashToken(token), inv.TokenHash)

	var stored model.Invitation
	require.NoError(t, s.DB().First(&stored, inv.ID).Error)
	assert.NotEqual(t, token, stored.TokenHash, "only the hash is persisted")

	_, err = s.AcceptInvitation(ctx, bob, stored.TokenHash)
	assert.ErrorIs(t, err, ErrNotFound, "the stored hash does not work as a token")

	_, _, err = s.Invite(ctx, tenantID, "bob@example.com", "admin")
	assert.ErrorIs(t, err, ErrConflict, "already invited")

	carol := register(t, s, "Carol", "carol@example.com")
	_, err = s.AcceptInvitation(ctx, carol, token)
	assert.ErrorIs(t, err, ErrInvitationMismatch)

	m, err := s.AcceptInvitation(ctx, bob, token)
	require.NoError(t, err)
	assert.Equal(t, "editor", m.Role)

	bob, err = s.UserByID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, tenantID, *bob.CurrentTenantID)

	_, err = s.AcceptInvitation(ctx, bob, token)
	assert.ErrorIs(t, err, ErrNotFound)

	inv2, _, err := s.Invite(ctx, tenantID, "dave@example.com", "editor")
	require.NoError(t, err)
	require.NoError(t, s.CancelInvitation(ctx, tenantID, inv2.ID))
	assert.ErrorIs(t, s.CancelInvitation(ctx, tenantID, inv2.ID), ErrNotFound)
}
