package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RoleDefinition describes a company role seeded at startup
type RoleDefinition struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Permissions []string `yaml:"permissions"`
}

// RoleDefinitions is the set of available company roles and API token permissions
type RoleDefinitions struct {
	Roles                      []RoleDefinition `yaml:"roles"`
	DefaultAPITokenPermissions []string         `yaml:"default_api_token_permissions"`
}

// DefaultRoleDefinitions returns the built-in administrator and editor roles
func DefaultRoleDefinitions() RoleDefinitions {
	return RoleDefinitions{
		Roles: []RoleDefinition{
			{
				Key:         "admin",
				Name:        "Administrator",
				Description: "Administrator users can perform any action.",
				Permissions: []string{"create", "read", "update", "delete"},
			},
			{
				Key:         "editor",
				Name:        "Editor",
				Description: "Editor users have the ability to read, create, and update.",
				Permissions: []string{"read", "create", "update"},
			},
		},
		DefaultAPITokenPermissions: []string{"read"},
	}
}

// LoadRoleDefinitions reads role definitions from a YAML file
func LoadRoleDefinitions(path string) (RoleDefinitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RoleDefinitions{}, fmt.Errorf("reading roles file: %w", err)
	}

	var defs RoleDefinitions
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return RoleDefinitions{}, fmt.Errorf("parsing roles file: %w", err)
	}

	return defs, nil
}

// Permissions returns every distinct permission named by the role definitions, in first-seen order
func (d RoleDefinitions) Permissions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Roles {
		for _, p := range r.Permissions {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// Validate checks that role keys are unique and token defaults are known permissions
func (d RoleDefinitions) Validate() error {
	if len(d.Roles) == 0 {
		return errors.New("at least one role must be defined")
	}

	keys := make(map[string]bool)
	for _, r := range d.Roles {
		if r.Key == "" {
			return errors.New("role key must not be empty")
		}
		if r.Key == "owner" {
			return errors.New(`role key "owner" is reserved`)
		}
		if keys[r.Key] {
			return fmt.Errorf("duplicate role key %q", r.Key)
		}
		keys[r.Key] = true
	}

	perms := d.Permissions()
	for _, p := range d.DefaultAPITokenPermissions {
		if !contains(perms, p) {
			return fmt.Errorf("default API token permission %q is not granted by any role", p)
		}
	}

	return nil
}
