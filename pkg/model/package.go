// Package model provides the data structures shared by repositories, the
// update resolver and the derived metadata cache.
package model

import (
	"strings"
	"time"

	packageurl "github.com/package-url/packageurl-go"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

// PackageIdentity names one version of a package. Ids compare without regard
// to case.
type PackageIdentity struct {
	ID      string          `json:"id" yaml:"id"`
	Version version.Version `json:"version" yaml:"version"`
}

// NewIdentity returns the identity of id at v.
func NewIdentity(id string, v version.Version) PackageIdentity {
	return PackageIdentity{ID: id, Version: v}
}

// Key returns a map key that is equal for equal identities.
func (p PackageIdentity) Key() string {
	return strings.ToLower(p.ID) + "|" + p.Version.String()
}

// Equal reports whether both identities name the same package version.
func (p PackageIdentity) Equal(o PackageIdentity) bool {
	return strings.EqualFold(p.ID, o.ID) && p.Version.Equal(o.Version)
}

// String returns "id version".
func (p PackageIdentity) String() string {
	return p.ID + " " + p.Version.String()
}

// PURL returns the package URL, e.g. "pkg:nuget/Newtonsoft.Json@13.0.1".
func (p PackageIdentity) PURL() string {
	return packageurl.NewPackageURL(packageurl.TypeNuget, "", p.ID, p.Version.String(), nil, "").ToString()
}

// IdentityFromPURL parses a nuget package URL.
func IdentityFromPURL(s string) (PackageIdentity, error) {
	purl, err := packageurl.FromString(s)
	if err != nil {
		return PackageIdentity{}, errutils.NewParseError("package url", s, err.Error())
	}
	if purl.Type != packageurl.TypeNuget {
		return PackageIdentity{}, errutils.NewParseError("package url", s, "not a nuget package url")
	}
	v, err := version.Parse(purl.Version)
	if err != nil {
		return PackageIdentity{}, errutils.NewParseError("package url", s, err.Error())
	}
	return PackageIdentity{ID: purl.Name, Version: v}, nil
}

// Dependency is a declared dependency on another package id.
type Dependency struct {
	ID   string       `json:"id" yaml:"id"`
	Spec version.Spec `json:"version" yaml:"version"`
}

// PackageMetadata is what a package manifest declares about itself.
type PackageMetadata struct {
	Identity     PackageIdentity
	Title        string
	Description  string
	Authors      []string
	Dependencies []Dependency
	// SupportedProfiles lists the profiles of the package's lib folders.
	// An empty list means the package is framework neutral.
	SupportedProfiles []*platform.Profile
	// Path is relative to the repository root.
	Path string
}

// DependsOn reports whether the metadata declares a dependency on id.
func (m *PackageMetadata) DependsOn(id string) (Dependency, bool) {
	for _, d := range m.Dependencies {
		if strings.EqualFold(d.ID, id) {
			return d, true
		}
	}
	return Dependency{}, false
}

// IsCompatibleWith reports whether a project targeting target can use the
// package.
func (m *PackageMetadata) IsCompatibleWith(target *platform.Profile) bool {
	if target == nil || len(m.SupportedProfiles) == 0 {
		return true
	}
	for _, p := range m.SupportedProfiles {
		if p.IsCompatibleWith(target) {
			return true
		}
	}
	return false
}

// DerivedPackageData is computed once from a package file's bytes and file
// system attributes.
type DerivedPackageData struct {
	Size          int64     `json:"size"`
	Hash          string    `json:"hash"`
	HashAlgorithm string    `json:"hash_algorithm"`
	LastUpdated   time.Time `json:"last_updated"`
	Published     time.Time `json:"published"`
	// Created is the time stamp of the manifest entry inside the archive,
	// or the zero time when the archive has none.
	Created      time.Time `json:"created"`
	IsPrerelease bool      `json:"is_prerelease"`
	Path         string    `json:"path"`
	FullPath     string    `json:"full_path"`
}

// Package pairs manifest metadata with the derived data of its file.
type Package struct {
	*PackageMetadata
	Derived *DerivedPackageData
}
