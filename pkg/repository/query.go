// Package repository provides package sources: a folder of package files,
// the server flavour of it that attaches cached derived data, and an
// aggregate that queries several sources behind circuit breakers.
package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

// SourceRepository is a place packages can be found in.
type SourceRepository interface {
	Name() string
	// FindPackage returns the highest version matching q. It returns an error
	// wrapping errutils.ErrPackageNotFound when nothing matches.
	FindPackage(ctx context.Context, q Query) (*model.PackageMetadata, error)
	EnumeratePackages(ctx context.Context) ([]*model.PackageMetadata, error)
}

// Query selects package versions for an id.
type Query struct {
	ID              string
	Spec            version.Spec
	AllowPrerelease bool
	// Target restricts candidates to packages usable from this profile. Nil
	// accepts every package.
	Target *platform.Profile
}

// Matches reports whether meta is a candidate for q.
func (q Query) Matches(meta *model.PackageMetadata) bool {
	if !strings.EqualFold(meta.Identity.ID, q.ID) {
		return false
	}
	v := meta.Identity.Version
	if v.IsPrerelease() && !q.AllowPrerelease {
		return false
	}
	return q.Spec.Satisfies(v) && meta.IsCompatibleWith(q.Target)
}

// Highest returns the candidate with the highest version, or nil.
func Highest(candidates []*model.PackageMetadata) *model.PackageMetadata {
	if len(candidates) == 0 {
		return nil
	}
	return slices.MaxFunc(candidates, func(a, b *model.PackageMetadata) int {
		return a.Identity.Version.Compare(b.Identity.Version)
	})
}

func sortByIdentity(pkgs []*model.PackageMetadata) {
	slices.SortStableFunc(pkgs, func(a, b *model.PackageMetadata) int {
		if c := strings.Compare(strings.ToLower(a.Identity.ID), strings.ToLower(b.Identity.ID)); c != 0 {
			return c
		}
		return a.Identity.Version.Compare(b.Identity.Version)
	})
}
