package config

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// settingKeys lists the keys accepted by GetValue and SetValue.
var settingKeys = []string{
	"log_level",
	"update_mode",
	"prerelease",
	"update_dependencies",
	"target_profile",
	"profiles_file",
	"project_file",
	"cache_wait_timeout",
	"max_concurrent",
	"hooks.pre-update",
	"hooks.post-update",
}

// SettingKeys returns the settable keys in sorted order.
func SettingKeys() []string {
	keys := append([]string(nil), settingKeys...)
	sort.Strings(keys)
	return keys
}

// SetValue sets a setting by its YAML key. The result is not validated;
// call Validate before saving.
func (c *Config) SetValue(key, value string) error {
	s := &c.Settings
	switch key {
	case "log_level":
		s.LogLevel = value
	case "update_mode":
		s.UpdateMode = value
	case "prerelease":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		s.Prerelease = b
	case "update_dependencies":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %s", key, value)
		}
		s.UpdateDependencies = b
	case "target_profile":
		s.TargetProfile = value
	case "profiles_file":
		s.ProfilesFile = value
	case "project_file":
		s.ProjectFile = value
	case "cache_wait_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %s", key, value)
		}
		s.CacheWaitTimeout = d
	case "max_concurrent":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %s", key, value)
		}
		s.MaxConcurrent = n
	case "hooks.pre-update":
		s.Hooks.PreUpdate = value
	case "hooks.post-update":
		s.Hooks.PostUpdate = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

// GetValue returns a setting by its YAML key.
func (c *Config) GetValue(key string) (string, error) {
	s := c.Settings
	switch key {
	case "log_level":
		return s.LogLevel, nil
	case "update_mode":
		return s.UpdateMode, nil
	case "prerelease":
		return strconv.FormatBool(s.Prerelease), nil
	case "update_dependencies":
		return strconv.FormatBool(s.UpdateDependencies), nil
	case "target_profile":
		return s.TargetProfile, nil
	case "profiles_file":
		return s.ProfilesFile, nil
	case "project_file":
		return s.ProjectFile, nil
	case "cache_wait_timeout":
		return s.CacheWaitTimeout.String(), nil
	case "max_concurrent":
		return strconv.Itoa(s.MaxConcurrent), nil
	case "hooks.pre-update":
		return s.Hooks.PreUpdate, nil
	case "hooks.post-update":
		return s.Hooks.PostUpdate, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap returns every setting as a string keyed by its YAML key.
// This is useful for displaying the configuration.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(settingKeys))
	for _, key := range settingKeys {
		v, _ := c.GetValue(key)
		result[key] = v
	}
	return result
}
