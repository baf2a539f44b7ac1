package platform

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/nupack/pkg/errutils"
)

//go:embed profiles.yaml
var builtinProfiles []byte

// ProfileTable maps well-known profile names to their target sets.
type ProfileTable struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
}

// NewProfileTable returns an empty table.
func NewProfileTable() *ProfileTable {
	return &ProfileTable{profiles: make(map[string]*Profile)}
}

// Add registers profile under name, replacing any previous entry.
func (t *ProfileTable) Add(name string, profile *Profile) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.profiles[strings.ToLower(name)] = profile.withName(name)
}

// Lookup returns the profile registered under name, ignoring case.
func (t *ProfileTable) Lookup(name string) (*Profile, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.profiles[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names returns the registered names in sorted order.
func (t *ProfileTable) Names() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	names := make([]string, 0, len(t.profiles))
	for _, p := range t.profiles {
		names = append(names, p.name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return names
}

// Len returns the number of registered profiles.
func (t *ProfileTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.profiles)
}

// Parse resolves text to a profile. It tries, in order, a registered name,
// the Profile= component of a full portable name, then the compact form
// (with or without the "portable-" folder prefix).
func (t *ProfileTable) Parse(text string) (*Profile, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil, errutils.NewParseError("platform profile", text, "empty string")
	}
	if p, ok := t.Lookup(s); ok {
		return p, nil
	}
	if name, ok := profileNameFromFullName(s); ok {
		if p, found := t.Lookup(name); found {
			return p, nil
		}
		return nil, errutils.NewParseError("platform profile", text, "unknown profile "+name)
	}
	if len(s) > len(PortableFolderPrefix) && strings.EqualFold(s[:len(PortableFolderPrefix)], PortableFolderPrefix) {
		s = s[len(PortableFolderPrefix):]
	}
	return ParseCompact(s)
}

type tableFile struct {
	Profiles []struct {
		Name       string   `yaml:"name"`
		Frameworks []string `yaml:"frameworks"`
	} `yaml:"profiles"`
}

// LoadTable reads a YAML profile table:
//
//	profiles:
//	  - name: Profile2
//	    frameworks: [".NETCore, Version=v4.5", "Silverlight, Version=v3.0"]
func LoadTable(r io.Reader) (*ProfileTable, error) {
	var doc tableFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, errutils.Wrap(err, "failed to decode profile table")
	}

	table := NewProfileTable()
	for i, entry := range doc.Profiles {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, errutils.NewParseError("profile table", fmt.Sprintf("entry %d", i), "missing name")
		}
		targets := make([]Target, 0, len(entry.Frameworks))
		for _, fw := range entry.Frameworks {
			target, err := ParseFrameworkName(fw)
			if err != nil {
				return nil, errutils.Wrapf(err, "profile %s", entry.Name)
			}
			targets = append(targets, target)
		}
		table.Add(entry.Name, NewProfile(targets...))
	}
	return table, nil
}

// LoadTableFile reads a YAML profile table from path.
func LoadTableFile(path string) (*ProfileTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to open profile table %s", path)
	}
	defer func() { _ = f.Close() }()
	return LoadTable(f)
}

// Merge copies every profile of other into t.
func (t *ProfileTable) Merge(other *ProfileTable) {
	other.mu.RLock()
	snapshot := maps.Clone(other.profiles)
	other.mu.RUnlock()
	for _, p := range snapshot {
		t.Add(p.name, p)
	}
}

var (
	defaultTable     atomic.Pointer[ProfileTable]
	builtinTableOnce sync.Once
	builtinTable     *ProfileTable
)

// BuiltinTable returns the table of well-known portable profiles shipped
// with nupack.
func BuiltinTable() *ProfileTable {
	builtinTableOnce.Do(func() {
		t, err := LoadTable(bytes.NewReader(builtinProfiles))
		if err != nil {
			panic(err)
		}
		builtinTable = t
	})
	return builtinTable
}

// DefaultTable returns the table used by Parse.
func DefaultTable() *ProfileTable {
	if t := defaultTable.Load(); t != nil {
		return t
	}
	return BuiltinTable()
}

// SwapDefaultTable installs t as the default table and returns a function
// that restores the previous one.
func SwapDefaultTable(t *ProfileTable) (restore func()) {
	prev := defaultTable.Swap(t)
	return func() { defaultTable.Store(prev) }
}

// Parse resolves text against the default table.
func Parse(text string) (*Profile, error) {
	return DefaultTable().Parse(text)
}
