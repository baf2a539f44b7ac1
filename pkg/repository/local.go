package repository

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/version"
)

// LocalRepository is a flat folder of package files.
type LocalRepository struct {
	name     string
	fs       fsutil.FileSystem
	archives *archive.Manager

	mu       sync.RWMutex
	metadata map[string]metadataEntry
}

type metadataEntry struct {
	modified time.Time
	meta     *model.PackageMetadata
}

// NewLocalRepository returns a repository over the package files at the root
// of fs.
func NewLocalRepository(name string, fs fsutil.FileSystem, opts ...Option) *LocalRepository {
	o := newOptions(opts)
	return &LocalRepository{
		name:     name,
		fs:       fs,
		archives: o.archives,
		metadata: make(map[string]metadataEntry),
	}
}

// Name returns the source name.
func (r *LocalRepository) Name() string { return r.name }

// FileSystem returns the file system the repository reads from.
func (r *LocalRepository) FileSystem() fsutil.FileSystem { return r.fs }

// EnumeratePackages reads the metadata of every package file. Files that are
// not valid packages are skipped.
func (r *LocalRepository) EnumeratePackages(ctx context.Context) ([]*model.PackageMetadata, error) {
	files, err := r.fs.GetFiles("", "*"+archive.PackageExtension)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to list packages in %s", r.name)
	}

	pkgs := make([]*model.PackageMetadata, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		meta, err := r.ReadMetadata(ctx, file)
		if err != nil {
			logger.Warn("Skipping unreadable package", logger.Fields{
				"source": r.name,
				"path":   file,
				"error":  err.Error(),
			})
			continue
		}
		pkgs = append(pkgs, meta)
	}
	sortByIdentity(pkgs)
	return pkgs, nil
}

// ReadMetadata returns the metadata of the package file at path. Results are
// kept until the file's modification time changes.
func (r *LocalRepository) ReadMetadata(ctx context.Context, path string) (*model.PackageMetadata, error) {
	modified, err := r.fs.GetLastModified(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	r.mu.RLock()
	entry, ok := r.metadata[path]
	r.mu.RUnlock()
	if ok && entry.modified.Equal(modified) {
		return entry.meta, nil
	}

	rc, err := r.fs.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	meta, err := r.archives.ReadMetadata(ctx, data)
	if err != nil {
		return nil, err
	}
	meta.Path = path

	r.mu.Lock()
	r.metadata[path] = metadataEntry{modified: modified, meta: meta}
	r.mu.Unlock()
	return meta, nil
}

func (r *LocalRepository) forget(path string) {
	r.mu.Lock()
	delete(r.metadata, path)
	r.mu.Unlock()
}

// FindPackagesByID returns every version of id, lowest first.
func (r *LocalRepository) FindPackagesByID(ctx context.Context, id string) ([]*model.PackageMetadata, error) {
	all, err := r.EnumeratePackages(ctx)
	if err != nil {
		return nil, err
	}
	var out []*model.PackageMetadata
	for _, meta := range all {
		if strings.EqualFold(meta.Identity.ID, id) {
			out = append(out, meta)
		}
	}
	return out, nil
}

// FindPackage returns the highest version matching q.
func (r *LocalRepository) FindPackage(ctx context.Context, q Query) (*model.PackageMetadata, error) {
	versions, err := r.FindPackagesByID(ctx, q.ID)
	if err != nil {
		return nil, err
	}
	var candidates []*model.PackageMetadata
	for _, meta := range versions {
		if q.Matches(meta) {
			candidates = append(candidates, meta)
		}
	}
	best := Highest(candidates)
	if best == nil {
		return nil, errutils.ErrPackageNotFoundWithID(q.ID, q.Spec.String())
	}
	return best, nil
}

// FindExact returns the package with exactly the given id and version.
func (r *LocalRepository) FindExact(ctx context.Context, id string, v version.Version) (*model.PackageMetadata, error) {
	versions, err := r.FindPackagesByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, meta := range versions {
		if meta.Identity.Version.Equal(v) {
			return meta, nil
		}
	}
	return nil, errutils.ErrPackageNotFoundWithID(id, v.String())
}

// Exists reports whether the package id at version v is present.
func (r *LocalRepository) Exists(ctx context.Context, id string, v version.Version) bool {
	_, err := r.FindExact(ctx, id, v)
	return err == nil
}
