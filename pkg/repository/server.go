package repository

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/nupack/internal/logger"
	"github.com/glorpus-work/nupack/pkg/archive"
	"github.com/glorpus-work/nupack/pkg/cache"
	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

// ServerRepository is a LocalRepository that serves packages together with
// their derived data. Derived data is computed once per package identity and
// dropped when the package is removed.
type ServerRepository struct {
	*LocalRepository
	cache         *cache.DerivedDataCache
	maxConcurrent int
}

// NewServerRepository returns a server repository over the package files at
// the root of fs.
func NewServerRepository(name string, fs fsutil.FileSystem, opts ...Option) *ServerRepository {
	o := newOptions(opts)
	cacheOpts := append([]cache.Option{cache.WithManifestReader(o.archives)}, o.cacheOpts...)
	return &ServerRepository{
		LocalRepository: NewLocalRepository(name, fs, WithArchiveManager(o.archives)),
		cache:           cache.New(fs, cacheOpts...),
		maxConcurrent:   o.maxConcurrent,
	}
}

// Cache returns the derived data cache.
func (r *ServerRepository) Cache() *cache.DerivedDataCache { return r.cache }

// OpenPackage reads the package at path and attaches its derived data.
func (r *ServerRepository) OpenPackage(ctx context.Context, path string) (*model.Package, error) {
	meta, err := r.ReadMetadata(ctx, path)
	if err != nil {
		return nil, err
	}
	return r.attach(ctx, meta)
}

func (r *ServerRepository) attach(ctx context.Context, meta *model.PackageMetadata) (*model.Package, error) {
	derived, err := r.cache.Get(ctx, meta.Identity, meta.Path)
	if err != nil {
		return nil, err
	}
	return &model.Package{PackageMetadata: meta, Derived: derived}, nil
}

// attachAll attaches derived data to pkgs, opening up to maxConcurrent
// packages at a time. The result keeps the input order.
func (r *ServerRepository) attachAll(ctx context.Context, pkgs []*model.PackageMetadata) ([]*model.Package, error) {
	out := make([]*model.Package, len(pkgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrent)
	for i, meta := range pkgs {
		g.Go(func() error {
			pkg, err := r.attach(gctx, meta)
			if err != nil {
				return err
			}
			out[i] = pkg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPackagesWithDerivedData returns every package with its derived data.
func (r *ServerRepository) GetPackagesWithDerivedData(ctx context.Context) ([]*model.Package, error) {
	pkgs, err := r.EnumeratePackages(ctx)
	if err != nil {
		return nil, err
	}
	return r.attachAll(ctx, pkgs)
}

// AddPackage stores the package read from rd under its canonical file name.
// Adding a version that already exists fails with errutils.ErrAlreadyExists.
func (r *ServerRepository) AddPackage(ctx context.Context, rd io.Reader) (*model.PackageMetadata, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read package")
	}
	meta, err := r.archives.ReadMetadata(ctx, data)
	if err != nil {
		return nil, err
	}

	id := meta.Identity
	if r.Exists(ctx, id.ID, id.Version) {
		return nil, fmt.Errorf("%w: %s", errutils.ErrAlreadyExists, id)
	}

	path := archive.PackageFileName(id.ID, id.Version)
	if err := r.fs.AddFile(path, bytes.NewReader(data)); err != nil {
		return nil, errutils.Wrapf(err, "failed to store %s", id)
	}
	r.forget(path)
	r.cache.Evict(id)
	meta.Path = path

	logger.Info("Added package", logger.Fields{"source": r.name, "package": id.String()})
	return meta, nil
}

// RemovePackage deletes the package file of id at version v and evicts its
// derived data.
func (r *ServerRepository) RemovePackage(ctx context.Context, id string, v version.Version) error {
	meta, err := r.FindExact(ctx, id, v)
	if err != nil {
		return err
	}
	if err := r.fs.DeleteFile(meta.Path); err != nil {
		return errutils.Wrapf(err, "failed to remove %s", meta.Identity)
	}
	r.forget(meta.Path)
	r.cache.Evict(meta.Identity)

	logger.Info("Removed package", logger.Fields{"source": r.name, "package": meta.Identity.String()})
	return nil
}

// Search returns the packages whose id, title, description or authors
// contain any of the whitespace separated words of term. An empty term
// matches everything.
func (r *ServerRepository) Search(ctx context.Context, term string, allowPrerelease bool) ([]*model.Package, error) {
	all, err := r.EnumeratePackages(ctx)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(term))

	var hits []*model.PackageMetadata
	for _, meta := range all {
		if meta.Identity.Version.IsPrerelease() && !allowPrerelease {
			continue
		}
		if matchesAny(meta, words) {
			hits = append(hits, meta)
		}
	}
	return r.attachAll(ctx, hits)
}

func matchesAny(meta *model.PackageMetadata, words []string) bool {
	if len(words) == 0 {
		return true
	}
	fields := []string{meta.Identity.ID, meta.Title, meta.Description, strings.Join(meta.Authors, " ")}
	for _, w := range words {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), w) {
				return true
			}
		}
	}
	return false
}

// GetUpdates returns newer versions of the installed packages usable from
// target. Only the highest newer version of each id is returned unless
// includeAllVersions is set.
func (r *ServerRepository) GetUpdates(ctx context.Context, installed []model.PackageIdentity, includePrerelease, includeAllVersions bool, target *platform.Profile) ([]*model.Package, error) {
	var updates []*model.PackageMetadata
	for _, current := range installed {
		versions, err := r.FindPackagesByID(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		q := Query{
			ID:              current.ID,
			Spec:            version.Spec{Min: &current.Version},
			AllowPrerelease: includePrerelease,
			Target:          target,
		}
		var newer []*model.PackageMetadata
		for _, meta := range versions {
			if q.Matches(meta) {
				newer = append(newer, meta)
			}
		}
		if len(newer) == 0 {
			continue
		}
		if includeAllVersions {
			updates = append(updates, newer...)
		} else {
			updates = append(updates, Highest(newer))
		}
	}
	return r.attachAll(ctx, updates)
}
