// Package config provides configuration management for nupack.
// It handles loading, validating, and saving the package sources and the
// settings that drive updates. Configuration lives in a YAML file; every
// setting has a default so that a missing file is a valid configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/nupack/pkg/cache"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/hooks"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/repository"
	"github.com/glorpus-work/nupack/pkg/resolver"
)

// Config represents the application configuration.
type Config struct {
	// Package sources, queried in order
	Sources []*SourceConfig `yaml:"sources"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// SourceConfig is a folder of package files.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// UnmarshalYAML enables sources that do not say otherwise.
func (s *SourceConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain SourceConfig
	raw := plain{Enabled: true}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = SourceConfig(raw)
	return nil
}

// HooksConfig names the script files run around each reference update.
type HooksConfig struct {
	PreUpdate  string `yaml:"pre-update,omitempty"`
	PostUpdate string `yaml:"post-update,omitempty"`
}

// Files returns the configured scripts keyed by hook type.
func (h HooksConfig) Files() map[hooks.HookType]string {
	files := make(map[hooks.HookType]string, 2)
	if h.PreUpdate != "" {
		files[hooks.PreUpdate] = h.PreUpdate
	}
	if h.PostUpdate != "" {
		files[hooks.PostUpdate] = h.PostUpdate
	}
	return files
}

// Settings represents general application settings.
type Settings struct {
	// Output settings
	LogLevel string `yaml:"log_level"` // debug, info, warn, error

	// Update policy
	UpdateMode         string `yaml:"update_mode"` // newest, safe, minor
	Prerelease         bool   `yaml:"prerelease"`
	UpdateDependencies bool   `yaml:"update_dependencies"`

	// Platform settings
	TargetProfile string `yaml:"target_profile,omitempty"`
	ProfilesFile  string `yaml:"profiles_file,omitempty"`

	// Project reference store
	ProjectFile string `yaml:"project_file"`

	// Derived data cache and source access
	CacheWaitTimeout time.Duration `yaml:"cache_wait_timeout"`
	MaxConcurrent    int           `yaml:"max_concurrent"`

	Hooks HooksConfig `yaml:"hooks,omitempty"`
}

// Default configuration values.
const (
	// DefaultProjectFile is the reference store used when none is configured.
	DefaultProjectFile = "packages.json"

	// DefaultLogLevel is the level used when none is configured.
	DefaultLogLevel = "info"

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Sources: []*SourceConfig{},
		Settings: Settings{
			LogLevel:           DefaultLogLevel,
			UpdateMode:         resolver.Newest.String(),
			UpdateDependencies: true,
			ProjectFile:        DefaultProjectFile,
			CacheWaitTimeout:   cache.DefaultMaxWait,
			MaxConcurrent:      repository.DefaultMaxConcurrent,
		},
	}
}

// LoadConfig loads configuration from a file. A missing file yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader. Keys missing
// from the document keep their default values.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	return config, nil
}

// SaveConfig writes the configuration to path, replacing any existing file
// atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeDefault)
	if err != nil {
		return errutils.Wrap(errutils.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := validateSources(c.Sources); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateSources(sources []*SourceConfig) error {
	names := make(map[string]bool)
	for i, src := range sources {
		if src == nil || src.Name == "" {
			return errutils.ErrSourceNameEmptyWithIndex(i)
		}
		if src.Path == "" {
			return errutils.ErrSourcePathEmptyWithName(src.Name)
		}
		key := strings.ToLower(src.Name)
		if names[key] {
			return errutils.ErrSourceExistsWithName(src.Name)
		}
		names[key] = true
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.CacheWaitTimeout < 0 {
		return errutils.ErrWaitTimeoutNegative
	}
	if s.MaxConcurrent < 1 {
		return errutils.ErrMaxConcurrentInvalid
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	if _, err := resolver.ParseUpdateMode(s.UpdateMode); err != nil {
		return err
	}
	// Named profiles from a custom table are checked once the table is loaded.
	if s.TargetProfile != "" && s.ProfilesFile == "" {
		if _, err := platform.Parse(s.TargetProfile); err != nil {
			return err
		}
	}
	return nil
}

// applyDefaults fills in values explicitly left empty.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.UpdateMode == "" {
		c.Settings.UpdateMode = defaults.Settings.UpdateMode
	}
	if c.Settings.ProjectFile == "" {
		c.Settings.ProjectFile = defaults.Settings.ProjectFile
	}
	if c.Settings.MaxConcurrent == 0 {
		c.Settings.MaxConcurrent = defaults.Settings.MaxConcurrent
	}
	if c.Sources == nil {
		c.Sources = []*SourceConfig{}
	}
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "nupack", "config.yaml"), nil
}

// AddSource adds a source to the configuration.
// Returns an error if a source with the same name already exists.
func (c *Config) AddSource(name, path string, enabled bool) error {
	if name == "" {
		return errutils.ErrSourceNameEmpty
	}
	if path == "" {
		return errutils.ErrSourcePathEmptyWithName(name)
	}
	if c.GetSource(name) != nil {
		return errutils.ErrSourceExistsWithName(name)
	}

	c.Sources = append(c.Sources, &SourceConfig{
		Name:    name,
		Path:    path,
		Enabled: enabled,
	})
	return nil
}

// RemoveSource removes a source from the configuration.
func (c *Config) RemoveSource(name string) bool {
	for i, src := range c.Sources {
		if strings.EqualFold(src.Name, name) {
			c.Sources = append(c.Sources[:i], c.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// GetSource gets a source configuration by name.
func (c *Config) GetSource(name string) *SourceConfig {
	for _, src := range c.Sources {
		if strings.EqualFold(src.Name, name) {
			return src
		}
	}
	return nil
}

// EnableSource enables or disables a source.
func (c *Config) EnableSource(name string, enabled bool) bool {
	if src := c.GetSource(name); src != nil {
		src.Enabled = enabled
		return true
	}
	return false
}

// EnabledSources returns the enabled sources in configuration order.
func (c *Config) EnabledSources() []*SourceConfig {
	var out []*SourceConfig
	for _, src := range c.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}

// UpdateMode returns the parsed update mode.
func (c *Config) UpdateMode() resolver.UpdateMode {
	mode, err := resolver.ParseUpdateMode(c.Settings.UpdateMode)
	if err != nil {
		return resolver.Newest
	}
	return mode
}

// ProfileTable returns the built-in profile table, merged with the
// configured profiles file when there is one.
func (c *Config) ProfileTable() (*platform.ProfileTable, error) {
	if c.Settings.ProfilesFile == "" {
		return platform.BuiltinTable(), nil
	}
	custom, err := platform.LoadTableFile(c.Settings.ProfilesFile)
	if err != nil {
		return nil, err
	}
	table := platform.NewProfileTable()
	table.Merge(platform.BuiltinTable())
	table.Merge(custom)
	return table, nil
}
