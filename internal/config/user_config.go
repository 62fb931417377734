package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// UserDirectory represents the user directory configuration. It is the
// notification pipeline's source of truth for resolving a user id to a
// deliverable email address.
type UserDirectory struct {
	Users []UserDirectoryEntry `yaml:"users"`
}

// UserDirectoryEntry represents a single user entry
type UserDirectoryEntry struct {
	UserID   string `yaml:"user_id"`
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	IsActive bool   `yaml:"is_active"`
}

// LoadUserDirectory loads the user directory from a YAML file
func LoadUserDirectory(filename string) (*UserDirectory, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read user directory file: %w", err)
	}

	var dir UserDirectory
	if err := yaml.Unmarshal(data, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse user directory file: %w", err)
	}

	return &dir, nil
}

// SaveUserDirectory saves the user directory to a YAML file
func SaveUserDirectory(dir *UserDirectory, filename string) error {
	data, err := yaml.Marshal(dir)
	if err != nil {
		return fmt.Errorf("failed to marshal user directory: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write user directory file: %w", err)
	}

	return nil
}

// GetUser finds a directory entry by user id
func (d *UserDirectory) GetUser(userID string) *UserDirectoryEntry {
	for i := range d.Users {
		if d.Users[i].UserID == userID {
			return &d.Users[i]
		}
	}
	return nil
}

// ResolveEmail resolves a user id to the address email should be sent to.
// Inactive users and users without an address resolve to an error.
func (d *UserDirectory) ResolveEmail(userID string) (string, error) {
	entry := d.GetUser(userID)
	if entry == nil {
		return "", fmt.Errorf("user %s not found in directory", userID)
	}
	if !entry.IsActive {
		return "", fmt.Errorf("user %s is inactive", userID)
	}
	if entry.Email == "" {
		return "", fmt.Errorf("user %s has no email address", userID)
	}
	return entry.Email, nil
}
