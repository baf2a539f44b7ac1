package archive

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/version"
)

// File name conventions for packages.
const (
	PackageExtension  = ".nupkg"
	ManifestExtension = ".nuspec"
	LibFolder         = "lib"
)

// PackageFileName returns the canonical file name of a package archive.
func PackageFileName(id string, v version.Version) string {
	return id + "." + v.String() + PackageExtension
}

// Manifest is the package description stored inside the archive.
type Manifest struct {
	XMLName  xml.Name         `xml:"package"`
	Metadata ManifestMetadata `xml:"metadata"`
}

// ManifestMetadata holds the manifest fields nupack understands.
type ManifestMetadata struct {
	ID           string               `xml:"id"`
	Version      string               `xml:"version"`
	Title        string               `xml:"title,omitempty"`
	Authors      string               `xml:"authors,omitempty"`
	Description  string               `xml:"description,omitempty"`
	Dependencies []ManifestDependency `xml:"dependencies>dependency"`
}

// ManifestDependency is a <dependency id="" version=""/> element.
type ManifestDependency struct {
	ID      string `xml:"id,attr"`
	Version string `xml:"version,attr,omitempty"`
}

// ParseManifest decodes a manifest document.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: failed to decode manifest: %w", errutils.ErrInvalidPackage, err)
	}
	if strings.TrimSpace(m.Metadata.ID) == "" {
		return nil, fmt.Errorf("%w: manifest has no id", errutils.ErrInvalidPackage)
	}
	if strings.TrimSpace(m.Metadata.Version) == "" {
		return nil, fmt.Errorf("%w: manifest of %s has no version", errutils.ErrInvalidPackage, m.Metadata.ID)
	}
	return &m, nil
}

// Write encodes the manifest as an indented XML document.
func (m *Manifest) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return enc.Close()
}

// ToMetadata converts the manifest into package metadata. A dependency
// without a version accepts any version.
func (m *Manifest) ToMetadata() (*model.PackageMetadata, error) {
	v, err := version.Parse(m.Metadata.Version)
	if err != nil {
		return nil, errutils.Wrapf(err, "manifest of %s", m.Metadata.ID)
	}

	meta := &model.PackageMetadata{
		Identity:    model.NewIdentity(strings.TrimSpace(m.Metadata.ID), v),
		Title:       m.Metadata.Title,
		Description: m.Metadata.Description,
	}
	for _, a := range strings.Split(m.Metadata.Authors, ",") {
		if a = strings.TrimSpace(a); a != "" {
			meta.Authors = append(meta.Authors, a)
		}
	}
	for _, d := range m.Metadata.Dependencies {
		dep := model.Dependency{ID: strings.TrimSpace(d.ID)}
		if strings.TrimSpace(d.Version) != "" {
			spec, err := version.ParseSpec(d.Version)
			if err != nil {
				return nil, errutils.Wrapf(err, "dependency %s of %s", d.ID, m.Metadata.ID)
			}
			dep.Spec = spec
		}
		meta.Dependencies = append(meta.Dependencies, dep)
	}
	return meta, nil
}

// NewManifest builds a manifest from metadata.
func NewManifest(meta *model.PackageMetadata) *Manifest {
	m := &Manifest{Metadata: ManifestMetadata{
		ID:          meta.Identity.ID,
		Version:     meta.Identity.Version.String(),
		Title:       meta.Title,
		Authors:     strings.Join(meta.Authors, ", "),
		Description: meta.Description,
	}}
	for _, d := range meta.Dependencies {
		md := ManifestDependency{ID: d.ID}
		if !d.Spec.IsUnbounded() {
			md.Version = d.Spec.String()
		}
		m.Metadata.Dependencies = append(m.Metadata.Dependencies, md)
	}
	return m
}
