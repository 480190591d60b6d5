package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SIGNING_KEY", "")

	cfg, err := Load("company-panel")
	require.NoError(t, err)

	assert.Equal(t, "company-panel", cfg.ServiceName)
	assert.Equal(t, DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.NotEmpty(t, cfg.JWT.SigningKey, "development falls back to a signing key")
	assert.True(t, cfg.Features.Invitations)
	assert.True(t, cfg.Features.API)
	assert.Equal(t, []string{"github"}, cfg.Socialite.Providers)
	assert.Equal(t, []string{"read"}, cfg.Roles.DefaultAPITokenPermissions)
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "")

	_, err := Load("company-panel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
}

func TestLoad_FeatureToggleAndLists(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("FEATURE_ACCOUNT_DELETION", "false")
	t.Setenv("SOCIALITE_PROVIDERS", "github, gitlab")

	cfg, err := Load("company-panel")
	require.NoError(t, err)

	assert.False(t, cfg.Features.AccountDeletion)
	assert.Equal(t, []string{"github", "gitlab"}, cfg.Socialite.Providers)
}

func TestValidate_UnknownProvider(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SOCIALITE_PROVIDERS", "myspace")

	_, err := Load("company-panel")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "myspace")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg := &Config{
		DB:      DBConfig{Driver: "oracle"},
		JWT:     JWTConfig{SigningKey: "k", ExpirationHours: 1},
		Session: SessionConfig{CookieName: "s"},
		Roles:   DefaultRoleDefinitions(),
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
}

func TestGetDSN(t *testing.T) {
	pg := DBConfig{Driver: DriverPostgres, Host: "db", Port: "5432", User: "u", Password: "p", DBName: "n", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", pg.GetDSN())

	lite := DBConfig{Driver: DriverSQLite, DBName: "file::memory:"}
	assert.Equal(t, "file::memory:", lite.GetDSN())
}

func TestLoadRoleDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roles.yaml")
	content := `
roles:
  - key: manager
    name: Manager
    description: Managers can read and update.
    permissions: [read, update]
  - key: viewer
    name: Viewer
    permissions: [read]
default_api_token_permissions: [read]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	defs, err := LoadRoleDefinitions(path)
	require.NoError(t, err)
	require.Len(t, defs.Roles, 2)
	assert.Equal(t, "manager", defs.Roles[0].Key)
	assert.Equal(t, []string{"read", "update"}, defs.Permissions())
	assert.NoError(t, defs.Validate())
}

func TestRoleDefinitions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		defs    RoleDefinitions
		wantErr string
	}{
		{"defaults are valid", DefaultRoleDefinitions(), ""},
		{"empty", RoleDefinitions{}, "at least one role"},
		{
			"reserved owner key",
			RoleDefinitions{Roles: []RoleDefinition{{Key: "owner", Permissions: []string{"read"}}}},
			"reserved",
		},
		{
			"duplicate key",
			RoleDefinitions{Roles: []RoleDefinition{{Key: "a"}, {Key: "a"}}},
			"duplicate",
		},
		{
			"unknown token default",
			RoleDefinitions{
				Roles:                      []RoleDefinition{{Key: "a", Permissions: []string{"read"}}},
				DefaultAPITokenPermissions: []string{"delete"},
			},
			"delete",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.defs.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
