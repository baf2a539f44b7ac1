package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/hooks"
	"github.com/glorpus-work/nupack/pkg/resolver"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.Settings.LogLevel)
	assert.Equal(t, "newest", cfg.Settings.UpdateMode)
	assert.True(t, cfg.Settings.UpdateDependencies)
	assert.Equal(t, 2*time.Minute, cfg.Settings.CacheWaitTimeout)
	assert.Equal(t, 4, cfg.Settings.MaxConcurrent)
	assert.Equal(t, "packages.json", cfg.Settings.ProjectFile)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.yaml")

	configContent := `sources:
  - name: local
    path: /srv/packages
  - name: archive
    path: /srv/old
    enabled: false
settings:
  log_level: debug
  update_mode: safe
  prerelease: true
  update_dependencies: false
  target_profile: net45
  cache_wait_timeout: 30s
  max_concurrent: 8
  hooks:
    pre-update: pre.tengo`

	err := os.WriteFile(configPath, []byte(configContent), fsutil.FileModeDefault)
	require.NoError(t, err)

	cfg, err := LoadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Len(t, cfg.Sources, 2)
	assert.Equal(t, "local", cfg.Sources[0].Name)
	assert.True(t, cfg.Sources[0].Enabled, "sources are enabled unless disabled")
	assert.False(t, cfg.Sources[1].Enabled)
	assert.Len(t, cfg.EnabledSources(), 1)

	assert.Equal(t, "debug", cfg.Settings.LogLevel)
	assert.Equal(t, resolver.Safe, cfg.UpdateMode())
	assert.True(t, cfg.Settings.Prerelease)
	assert.False(t, cfg.Settings.UpdateDependencies)
	assert.Equal(t, "net45", cfg.Settings.TargetProfile)
	assert.Equal(t, 30*time.Second, cfg.Settings.CacheWaitTimeout)
	assert.Equal(t, 8, cfg.Settings.MaxConcurrent)
	assert.Equal(t, "packages.json", cfg.Settings.ProjectFile)
	assert.Equal(t, map[hooks.HookType]string{hooks.PreUpdate: "pre.tengo"}, cfg.Settings.Hooks.Files())
}

func TestLoadConfig_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	_, err := LoadConfig("")
	assert.ErrorIs(t, err, errutils.ErrEmptyConfigPath)
}

func TestLoadConfigFromReader_Errors(t *testing.T) {
	_, err := LoadConfigFromReader(strings.NewReader("sources: [unterminated"))
	assert.ErrorIs(t, err, errutils.ErrConfigParse)

	_, err = LoadConfigFromReader(strings.NewReader("settings:\n  max_concurrent: -1\n"))
	assert.ErrorIs(t, err, errutils.ErrConfigValidation)
	assert.ErrorIs(t, err, errutils.ErrMaxConcurrentInvalid)
}

func TestSaveConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.LogLevel = "debug"
	cfg.Settings.CacheWaitTimeout = 90 * time.Second
	require.NoError(t, cfg.AddSource("local", "/srv/packages", true))

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "nested", "config.yaml")

	require.NoError(t, cfg.SaveConfig(configPath))

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "cache_wait_timeout: 1m30s")

	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err))

	loaded, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:    "unnamed source",
			mutate:  func(c *Config) { c.Sources = []*SourceConfig{{Path: "/x"}} },
			wantErr: errutils.ErrSourceNameEmpty,
		},
		{
			name:    "source without path",
			mutate:  func(c *Config) { c.Sources = []*SourceConfig{{Name: "a"}} },
			wantErr: errutils.ErrSourcePathEmpty,
		},
		{
			name: "duplicate source names differ only in case",
			mutate: func(c *Config) {
				c.Sources = []*SourceConfig{{Name: "Feed", Path: "/a"}, {Name: "feed", Path: "/b"}}
			},
			wantErr: errutils.ErrSourceExists,
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Settings.LogLevel = "trace" },
			wantErr: errutils.ErrInvalidLogLevel,
		},
		{
			name:    "invalid update mode",
			mutate:  func(c *Config) { c.Settings.UpdateMode = "latest" },
			wantErr: errutils.ErrInvalidUpdateMode,
		},
		{
			name:    "negative wait timeout",
			mutate:  func(c *Config) { c.Settings.CacheWaitTimeout = -time.Second },
			wantErr: errutils.ErrWaitTimeoutNegative,
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Settings.MaxConcurrent = 0 },
			wantErr: errutils.ErrMaxConcurrentInvalid,
		},
		{
			name:    "unparseable target profile",
			mutate:  func(c *Config) { c.Settings.TargetProfile = "not a profile!" },
			wantErr: errutils.ErrParse,
		},
		{
			name: "named profile deferred to custom table",
			mutate: func(c *Config) {
				c.Settings.TargetProfile = "MyProfile"
				c.Settings.ProfilesFile = "profiles.yaml"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSourceManagement(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.AddSource("local", "/srv/packages", true))
	assert.Len(t, cfg.Sources, 1)

	err := cfg.AddSource("LOCAL", "/srv/other", true)
	assert.ErrorIs(t, err, errutils.ErrSourceExists)

	assert.ErrorIs(t, cfg.AddSource("", "/x", true), errutils.ErrSourceNameEmpty)
	assert.ErrorIs(t, cfg.AddSource("x", "", true), errutils.ErrSourcePathEmpty)

	src := cfg.GetSource("Local")
	require.NotNil(t, src)
	assert.Equal(t, "/srv/packages", src.Path)

	assert.True(t, cfg.EnableSource("local", false))
	assert.Empty(t, cfg.EnabledSources())
	assert.False(t, cfg.EnableSource("missing", true))

	assert.True(t, cfg.RemoveSource("local"))
	assert.Empty(t, cfg.Sources)
	assert.False(t, cfg.RemoveSource("local"))
}

func TestProfileTable(t *testing.T) {
	cfg := DefaultConfig()
	table, err := cfg.ProfileTable()
	require.NoError(t, err)
	_, ok := table.Lookup("Profile1")
	assert.True(t, ok)

	path := filepath.Join(t.TempDir(), "profiles.yaml")
	custom := "profiles:\n  - name: Custom9\n    frameworks: [\".NETFramework, Version=v4.5\"]\n"
	require.NoError(t, os.WriteFile(path, []byte(custom), fsutil.FileModeDefault))
	cfg.Settings.ProfilesFile = path

	table, err = cfg.ProfileTable()
	require.NoError(t, err)
	_, ok = table.Lookup("Custom9")
	assert.True(t, ok)
	_, ok = table.Lookup("Profile1")
	assert.True(t, ok)

	builtin, err := DefaultConfig().ProfileTable()
	require.NoError(t, err)
	_, ok = builtin.Lookup("Custom9")
	assert.False(t, ok, "custom profiles must not leak into the built-in table")

	cfg.Settings.ProfilesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = cfg.ProfileTable()
	assert.Error(t, err)
}

func TestSetAndGetValue(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key, value string
	}{
		{"log_level", "warn"},
		{"update_mode", "minor"},
		{"prerelease", "true"},
		{"update_dependencies", "false"},
		{"target_profile", "net40"},
		{"project_file", "refs.json"},
		{"cache_wait_timeout", "45s"},
		{"max_concurrent", "2"},
		{"hooks.post-update", "post.tengo"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			require.NoError(t, cfg.SetValue(tt.key, tt.value))
			got, err := cfg.GetValue(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.value, got)
		})
	}
	assert.NoError(t, cfg.Validate())

	assert.Error(t, cfg.SetValue("prerelease", "maybe"))
	assert.Error(t, cfg.SetValue("cache_wait_timeout", "soon"))
	assert.Error(t, cfg.SetValue("max_concurrent", "many"))
	assert.Error(t, cfg.SetValue("nope", "x"))
	_, err := cfg.GetValue("nope")
	assert.Error(t, err)

	m := cfg.ToMap()
	assert.Len(t, m, len(SettingKeys()))
	assert.Equal(t, "minor", m["update_mode"])
}
