package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/cache"
	"github.com/glorpus-work/nupack/pkg/config"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/repository"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	Verbose      *bool
	OutputFormat *string
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputJSON = "json"
	outputYAML = "yaml"
)

// env is what a command needs once the configuration is loaded.
type env struct {
	cfg      *config.Config
	profiles *platform.ProfileTable
	archives *archive.Manager
}

// loadConfig loads the configuration and initializes logging from it.
func loadConfig() (*config.Config, error) {
	if _, err := outputFormat(); err != nil {
		return nil, err
	}

	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Settings.LogLevel
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	format := logger.FormatText
	if f, _ := outputFormat(); f == outputJSON {
		format = logger.FormatJSON
	}
	logger.InitLogger(level, format)

	return cfg, nil
}

// loadEnv loads the configuration and the profile table it names. Commands
// parse profiles through env.profiles; the package-level default table is
// left untouched.
func loadEnv() (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	table, err := cfg.ProfileTable()
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		profiles: table,
		archives: archive.NewManagerWithProfiles(table),
	}, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		// An empty path makes LoadConfig fail with a descriptive error.
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err.Error()})
		return ""
	}
	return defaultPath
}

func outputFormat() (string, error) {
	if OutputFormat == nil || *OutputFormat == "" {
		return outputText, nil
	}
	switch f := strings.ToLower(*OutputFormat); f {
	case outputText, outputJSON, outputYAML:
		return f, nil
	default:
		return "", errutils.ErrInvalidOutputFormatWithDetails(*OutputFormat)
	}
}

// writeStructured encodes v as JSON or YAML when one of those outputs was
// requested. It reports false for text output.
func writeStructured(w io.Writer, v any) (bool, error) {
	format, err := outputFormat()
	if err != nil {
		return false, err
	}
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(config.YAMLIndent)
		defer func() { _ = enc.Close() }()
		return true, enc.Encode(v)
	default:
		return false, nil
	}
}

func (e *env) repoOptions() []repository.Option {
	return []repository.Option{
		repository.WithArchiveManager(e.archives),
		repository.WithMaxConcurrent(e.cfg.Settings.MaxConcurrent),
		repository.WithCacheOptions(cache.WithMaxWait(e.cfg.Settings.CacheWaitTimeout)),
	}
}

// openServer opens the named source, or the first enabled one when name is
// empty.
func (e *env) openServer(name string) (*repository.ServerRepository, error) {
	var src *config.SourceConfig
	if name != "" {
		src = e.cfg.GetSource(name)
		if src == nil {
			return nil, errutils.ErrSourceNotFoundWithName(name)
		}
	} else {
		enabled := e.cfg.EnabledSources()
		if len(enabled) == 0 {
			return nil, errutils.ErrNoSources
		}
		src = enabled[0]
	}

	fs, err := fsutil.NewPhysicalFileSystem(src.Path)
	if err != nil {
		return nil, err
	}
	return repository.NewServerRepository(src.Name, fs, e.repoOptions()...), nil
}

// openAggregate opens the enabled sources, limited to names when given, as
// one repository.
func (e *env) openAggregate(names []string) (*repository.AggregateRepository, error) {
	var selected []*config.SourceConfig
	if len(names) > 0 {
		for _, name := range names {
			src := e.cfg.GetSource(name)
			if src == nil {
				return nil, errutils.ErrSourceNotFoundWithName(name)
			}
			selected = append(selected, src)
		}
	} else {
		selected = e.cfg.EnabledSources()
	}
	if len(selected) == 0 {
		return nil, errutils.ErrNoSources
	}

	sources := make([]repository.SourceRepository, 0, len(selected))
	for _, src := range selected {
		fs, err := fsutil.NewPhysicalFileSystem(src.Path)
		if err != nil {
			return nil, err
		}
		sources = append(sources, repository.NewLocalRepository(src.Name, fs, e.repoOptions()...))
	}
	return repository.NewAggregateRepository(sources, e.repoOptions()...), nil
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
