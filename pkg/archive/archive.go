// Package archive reads and writes package archives: zip files holding a
// manifest entry (*.nuspec) and the package content, with framework specific
// assemblies under lib/<framework>/.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/mholt/archives"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/fsutil"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
)

// Manager handles package archive inspection and creation.
type Manager struct {
	profiles *platform.ProfileTable
}

// NewManager creates a new Manager that resolves lib folder names against
// the default profile table.
func NewManager() *Manager {
	return &Manager{}
}

// NewManagerWithProfiles creates a Manager using the given profile table.
func NewManagerWithProfiles(table *platform.ProfileTable) *Manager {
	return &Manager{profiles: table}
}

func (am *Manager) table() *platform.ProfileTable {
	if am.profiles != nil {
		return am.profiles
	}
	return platform.DefaultTable()
}

// Contents summarizes a package archive.
type Contents struct {
	Manifest *Manifest
	// ManifestCreated is the time stamp of the manifest entry; zero when the
	// archive has no manifest.
	ManifestCreated time.Time
	// LibFolders are the distinct framework folder names under lib/.
	LibFolders []string
	Files      []string
}

// Inspect walks the archive in data and collects its manifest, the manifest
// entry time stamp and the lib folder names. The first entry ending in
// .nuspec is the manifest.
func (am *Manager) Inspect(ctx context.Context, data []byte) (*Contents, error) {
	contents := &Contents{}
	folders := make(map[string]bool)

	handler := func(_ context.Context, f archives.FileInfo) error {
		if f.IsDir() {
			return nil
		}
		name := strings.TrimPrefix(path.Clean(strings.ReplaceAll(f.NameInArchive, `\`, "/")), "/")
		contents.Files = append(contents.Files, name)

		if contents.Manifest == nil && strings.HasSuffix(strings.ToLower(name), ManifestExtension) {
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("failed to open manifest %s: %w", name, err)
			}
			defer func() { _ = rc.Close() }()
			m, err := ParseManifest(rc)
			if err != nil {
				return err
			}
			contents.Manifest = m
			contents.ManifestCreated = f.ModTime()
			return nil
		}

		parts := strings.Split(name, "/")
		if len(parts) > 2 && strings.EqualFold(parts[0], LibFolder) && !folders[strings.ToLower(parts[1])] {
			folders[strings.ToLower(parts[1])] = true
			contents.LibFolders = append(contents.LibFolders, parts[1])
		}
		return nil
	}

	if err := (archives.Zip{}).Extract(ctx, bytes.NewReader(data), handler); err != nil {
		return nil, fmt.Errorf("%w: failed to read archive: %w", errutils.ErrInvalidPackage, err)
	}
	return contents, nil
}

// ManifestCreated returns the time stamp of the manifest entry and whether
// the archive has one.
func (am *Manager) ManifestCreated(ctx context.Context, data []byte) (time.Time, bool, error) {
	var created time.Time
	found := false
	handler := func(_ context.Context, f archives.FileInfo) error {
		if !found && !f.IsDir() && strings.HasSuffix(strings.ToLower(f.NameInArchive), ManifestExtension) {
			created = f.ModTime()
			found = true
		}
		return nil
	}
	if err := (archives.Zip{}).Extract(ctx, bytes.NewReader(data), handler); err != nil {
		return time.Time{}, false, fmt.Errorf("%w: failed to read archive: %w", errutils.ErrInvalidPackage, err)
	}
	return created, found, nil
}

// ReadMetadata inspects the archive and returns its package metadata with
// the supported profiles resolved from the lib folders.
func (am *Manager) ReadMetadata(ctx context.Context, data []byte) (*model.PackageMetadata, error) {
	contents, err := am.Inspect(ctx, data)
	if err != nil {
		return nil, err
	}
	if contents.Manifest == nil {
		return nil, fmt.Errorf("%w: no %s entry", errutils.ErrInvalidPackage, ManifestExtension)
	}
	meta, err := contents.Manifest.ToMetadata()
	if err != nil {
		return nil, err
	}
	for _, folder := range contents.LibFolders {
		profile, err := am.table().Parse(folder)
		if err != nil {
			// Unknown frameworks still restrict the package; they just never match.
			profile = platform.NewProfile(platform.Target{Identifier: folder})
		}
		meta.SupportedProfiles = append(meta.SupportedProfiles, profile)
	}
	return meta, nil
}

// Create writes a zip archive of sourceDir to archivePath.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), fsutil.DirModeDefault); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	if err := (archives.Zip{}).Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}

// Pack creates a package from sourceDir, which must contain exactly one
// manifest at its root, into outputDir. It returns the archive path.
func (am *Manager) Pack(ctx context.Context, sourceDir, outputDir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(sourceDir, "*"+ManifestExtension))
	if err != nil {
		return "", err
	}
	if len(matches) != 1 {
		return "", fmt.Errorf("%w: expected one %s file in %s, found %d",
			errutils.ErrInvalidPackage, ManifestExtension, sourceDir, len(matches))
	}

	f, err := os.Open(matches[0])
	if err != nil {
		return "", fmt.Errorf("failed to open manifest: %w", err)
	}
	m, err := ParseManifest(f)
	_ = f.Close()
	if err != nil {
		return "", err
	}
	meta, err := m.ToMetadata()
	if err != nil {
		return "", err
	}

	archivePath := filepath.Join(outputDir, PackageFileName(meta.Identity.ID, meta.Identity.Version))
	if err := am.Create(ctx, sourceDir, archivePath); err != nil {
		return "", err
	}
	return archivePath, nil
}

// BuildPackage writes a package for manifest plus the given content files
// (archive path to content) to archivePath.
func (am *Manager) BuildPackage(ctx context.Context, manifest *Manifest, files map[string]string, archivePath string) error {
	staging, err := os.MkdirTemp("", "nupack-build-*")
	if err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() { _ = os.RemoveAll(staging) }()

	var buf bytes.Buffer
	if err := manifest.Write(&buf); err != nil {
		return err
	}
	entries := map[string][]byte{manifest.Metadata.ID + ManifestExtension: buf.Bytes()}
	for name, content := range files {
		entries[name] = []byte(content)
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		target := filepath.Join(staging, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), fsutil.DirModeDefault); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := os.WriteFile(target, entries[name], fsutil.FileModeDefault); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return am.Create(ctx, staging, archivePath)
}
