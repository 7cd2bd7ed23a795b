// internal/auth/profile.go
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage
	KeyringService = "schoolsoft-cli"
	// FallbackDir is the directory for file-based profile storage (when keyring fails)
	FallbackDir = ".schoolsoft/profiles"

	manifestKey = "_manifest"
)

// ErrProfileNotFound is returned by LoadProfile for unknown names
var ErrProfileNotFound = errors.New("profile not found")

// Profile is a saved login: credentials plus the last session cookies so the
// next run can skip the login round trip.
type Profile struct {
	Name      string            `json:"name"`
	School    string            `json:"school"`
	Username  string            `json:"username"`
	Password  string            `json:"password"`
	UserType  int               `json:"usertype"`
	BaseURL   string            `json:"base_url,omitempty"`
	Cookies   map[string]string `json:"cookies,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// This is a fallback for environments where keyring isn't available (Codespaces, CI)
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	// Probe the keyring once; any failure means file storage for this process
	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := err != nil
	fileBasedStorageCache = &result

	if !result {
		_ = keyring.Delete(KeyringService, testKey)
	}

	return result
}

func getProfileDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	return dir, os.MkdirAll(dir, 0700)
}

func getProfilePath(name string) (string, error) {
	dir, err := getProfileDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name+".json"), nil
}

func checkName(name string) error {
	if name == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	if name == manifestKey || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid profile name %q", name)
	}
	return nil
}

// SaveProfile stores a profile in the OS keyring or, as a fallback, a file
// readable only by the current user.
func SaveProfile(p *Profile) error {
	if err := checkName(p.Name); err != nil {
		return err
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	if useFileBasedStorage() {
		path, err := getProfilePath(p.Name)
		if err != nil {
			return fmt.Errorf("failed to get profile path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save profile file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, p.Name, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// LoadProfile reads a profile saved by SaveProfile
func LoadProfile(name string) (*Profile, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	var data string
	if useFileBasedStorage() {
		path, err := getProfilePath(name)
		if err != nil {
			return nil, fmt.Errorf("failed to get profile path: %w", err)
		}
		fileData, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load profile file: %w", err)
		}
		data = string(fileData)
	} else {
		var err error
		data, err = keyring.Get(KeyringService, name)
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	var p Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to deserialize profile: %w", err)
	}
	return &p, nil
}

// DeleteProfile removes a profile. Deleting an unknown profile from the file
// backend is not an error.
func DeleteProfile(name string) error {
	if err := checkName(name); err != nil {
		return err
	}

	if useFileBasedStorage() {
		path, err := getProfilePath(name)
		if err != nil {
			return fmt.Errorf("failed to get profile path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete profile file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, name); err != nil {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}

// ListProfiles returns the names of all stored profiles, sorted
func ListProfiles() ([]string, error) {
	if useFileBasedStorage() {
		dir, err := getProfileDir()
		if err != nil {
			return nil, err
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return []string{}, nil
			}
			return nil, err
		}

		profiles := []string{}
		for _, entry := range entries {
			if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
				profiles = append(profiles, strings.TrimSuffix(entry.Name(), ".json"))
			}
		}
		sort.Strings(profiles)
		return profiles, nil
	}

	// The keyring cannot be enumerated, so names are tracked in a manifest
	manifestData, err := keyring.Get(KeyringService, manifestKey)
	if err != nil {
		return []string{}, nil
	}

	var profiles []string
	if err := json.Unmarshal([]byte(manifestData), &profiles); err != nil {
		return nil, fmt.Errorf("failed to deserialize manifest: %w", err)
	}
	sort.Strings(profiles)
	return profiles, nil
}

func updateManifest(name string, add bool) error {
	profiles, err := ListProfiles()
	if err != nil {
		return err
	}

	kept := []string{}
	for _, p := range profiles {
		if p != name {
			kept = append(kept, p)
		}
	}
	if add {
		kept = append(kept, name)
	}

	data, err := json.Marshal(kept)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, manifestKey, string(data))
}

// SaveProfileWithManifest saves a profile and records it in the manifest
func SaveProfileWithManifest(p *Profile) error {
	if err := SaveProfile(p); err != nil {
		return err
	}

	// File storage lists the directory instead
	if useFileBasedStorage() {
		return nil
	}
	return updateManifest(p.Name, true)
}

// DeleteProfileWithManifest deletes a profile and drops it from the manifest
func DeleteProfileWithManifest(name string) error {
	if err := DeleteProfile(name); err != nil {
		return err
	}

	if useFileBasedStorage() {
		return nil
	}
	return updateManifest(name, false)
}
