// Package project provides a JSON backed store of the package references a
// project has installed.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/version"
)

// FormatVersion is written to every saved store.
const FormatVersion = "1"

// Reference is one installed package and the dependencies it declared when
// it was installed.
type Reference struct {
	ID           string             `json:"id"`
	Version      version.Version    `json:"version"`
	Dependencies []model.Dependency `json:"dependencies,omitempty"`
}

// Identity returns the package identity of the reference.
func (r *Reference) Identity() model.PackageIdentity {
	return model.NewIdentity(r.ID, r.Version)
}

// Store holds the references of a project.
type Store struct {
	FormatVersion string       `json:"format_version"`
	LastUpdate    time.Time    `json:"last_update"`
	References    []*Reference `json:"references"`

	path    string
	rwMutex sync.RWMutex
}

// NewStore returns an empty store that saves to path.
func NewStore(path string) *Store {
	return &Store{
		FormatVersion: FormatVersion,
		LastUpdate:    time.Now(),
		References:    make([]*Reference, 0),
		path:          path,
	}
}

// Load reads the store at path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := NewStore(path)
	file, err := os.Open(filepath.Clean(path))
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open project file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := s.parse(file); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) parse(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read project file: %w", err)
	}
	if err := json.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse project file: %w", err)
	}
	if s.References == nil {
		s.References = make([]*Reference, 0)
	}
	return nil
}

// Path returns the file the store saves to.
func (s *Store) Path() string { return s.path }

// Add inserts ref, replacing an existing reference with the same id.
func (s *Store) Add(ref *Reference) {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	s.LastUpdate = time.Now()
	for i, existing := range s.References {
		if strings.EqualFold(existing.ID, ref.ID) {
			s.References[i] = ref
			return
		}
	}
	s.References = append(s.References, ref)
}

// Find returns a copy of the reference for id.
func (s *Store) Find(id string) (Reference, bool) {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()
	if ref := s.findLocked(id); ref != nil {
		return *ref, true
	}
	return Reference{}, false
}

func (s *Store) findLocked(id string) *Reference {
	for _, ref := range s.References {
		if strings.EqualFold(ref.ID, id) {
			return ref
		}
	}
	return nil
}

// InstalledReferences returns the installed packages as metadata carrying
// their declared dependencies.
func (s *Store) InstalledReferences(_ context.Context) ([]*model.PackageMetadata, error) {
	s.rwMutex.RLock()
	defer s.rwMutex.RUnlock()

	out := make([]*model.PackageMetadata, len(s.References))
	for i, ref := range s.References {
		out[i] = &model.PackageMetadata{
			Identity:     ref.Identity(),
			Dependencies: append([]model.Dependency(nil), ref.Dependencies...),
		}
	}
	return out, nil
}

// ReferenceUpdate asks for the reference ID to move to Candidate, which was
// chosen from Spec.
type ReferenceUpdate struct {
	ID                 string
	Spec               version.Spec
	Candidate          *model.PackageMetadata
	UpdateDependencies bool
	AllowPrerelease    bool
}

// UpdateResult describes an applied reference update.
type UpdateResult struct {
	Previous version.Version
	Current  version.Version
	// MissingDependencies are dependencies of the new version that the
	// project does not reference.
	MissingDependencies []model.Dependency
}

// UpdateReference moves a reference to a new version. The update is refused
// with a *errutils.ConstraintViolationError when another reference depends
// on the package through a spec the new version does not satisfy, or, when
// UpdateDependencies is set, when an installed dependency of the new version
// falls outside the spec it declares.
func (s *Store) UpdateReference(_ context.Context, u ReferenceUpdate) (*UpdateResult, error) {
	s.rwMutex.Lock()
	defer s.rwMutex.Unlock()

	ref := s.findLocked(u.ID)
	if ref == nil {
		return nil, fmt.Errorf("%w: %s", errutils.ErrReferenceNotFound, u.ID)
	}
	if u.Candidate == nil || !strings.EqualFold(u.Candidate.Identity.ID, ref.ID) {
		return nil, fmt.Errorf("%w: candidate does not match reference %s", errutils.ErrConstraintViolation, ref.ID)
	}

	next := u.Candidate.Identity.Version
	if !u.Spec.Satisfies(next) {
		return nil, &errutils.ConstraintViolationError{
			PackageID: ref.ID, Version: next.String(), DependentID: "update policy", Spec: u.Spec.String(),
		}
	}
	if next.IsPrerelease() && !u.AllowPrerelease {
		return nil, fmt.Errorf("%w: %s %s is a prerelease", errutils.ErrConstraintViolation, ref.ID, next)
	}

	for _, other := range s.References {
		if other == ref {
			continue
		}
		for _, dep := range other.Dependencies {
			if strings.EqualFold(dep.ID, ref.ID) && !dep.Spec.Satisfies(next) {
				return nil, &errutils.ConstraintViolationError{
					PackageID: ref.ID, Version: next.String(), DependentID: other.ID, Spec: dep.Spec.String(),
				}
			}
		}
	}

	var missing []model.Dependency
	if u.UpdateDependencies {
		for _, dep := range u.Candidate.Dependencies {
			installed := s.findLocked(dep.ID)
			if installed == nil {
				missing = append(missing, dep)
				continue
			}
			if !dep.Spec.Satisfies(installed.Version) {
				return nil, &errutils.ConstraintViolationError{
					PackageID: installed.ID, Version: installed.Version.String(),
					DependentID: u.Candidate.Identity.String(), Spec: dep.Spec.String(),
				}
			}
		}
	}

	result := &UpdateResult{Previous: ref.Version, Current: next, MissingDependencies: missing}
	ref.Version = next
	ref.Dependencies = append([]model.Dependency(nil), u.Candidate.Dependencies...)
	s.LastUpdate = time.Now()

	logger.Debug("Updated package reference", logger.Fields{
		"package": ref.ID,
		"from":    result.Previous.String(),
		"to":      next.String(),
	})
	return result, nil
}

// Save writes the store to its path atomically.
func (s *Store) Save(_ context.Context) (err error) {
	if s.path == "" {
		return fmt.Errorf("project file path cannot be empty: %w", errutils.ErrInvalidConfigPath)
	}
	cleanPath, err := filepath.Abs(filepath.Clean(s.path))
	if err != nil {
		return fmt.Errorf("failed to resolve project file path %s: %w", s.path, err)
	}

	s.rwMutex.Lock()
	s.FormatVersion = FormatVersion
	data, err := json.MarshalIndent(s, "", "  ")
	s.rwMutex.Unlock()
	if err != nil {
		return fmt.Errorf("failed to marshal project file: %w", err)
	}

	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmpFile, err := os.CreateTemp(dir, "nupack-project-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to write to temporary file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("failed to sync temporary file to disk: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file: %w", err)
	}
	if err := os.Rename(tmpPath, cleanPath); err != nil {
		return fmt.Errorf("failed to rename temporary file to %s: %w", cleanPath, err)
	}
	return nil
}
