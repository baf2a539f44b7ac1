package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glorpus-work/nupack/pkg/errutils"
	"github.com/glorpus-work/nupack/pkg/model"
	"github.com/glorpus-work/nupack/pkg/platform"
	"github.com/glorpus-work/nupack/pkg/version"
)

func testManifest() *Manifest {
	return NewManifest(&model.PackageMetadata{
		Identity:    model.NewIdentity("Contoso.Utils", version.MustParse("1.2.0")),
		Description: "Utilities",
		Authors:     []string{"Contoso", "Fabrikam"},
		Dependencies: []model.Dependency{
			{ID: "Contoso.Core", Spec: version.MustParseSpec("[1.0, 2.0)")},
			{ID: "Any.Version"},
		},
	})
}

func TestManifestRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, testManifest().Write(&buf))
	assert.Contains(t, buf.String(), `<dependency id="Contoso.Core" version="[1.0, 2.0)"></dependency>`)

	m, err := ParseManifest(&buf)
	require.NoError(t, err)
	meta, err := m.ToMetadata()
	require.NoError(t, err)

	assert.Equal(t, "Contoso.Utils 1.2", meta.Identity.String())
	assert.Equal(t, []string{"Contoso", "Fabrikam"}, meta.Authors)
	require.Len(t, meta.Dependencies, 2)
	assert.Equal(t, "[1.0, 2.0)", meta.Dependencies[0].Spec.String())
	assert.True(t, meta.Dependencies[1].Spec.IsUnbounded())
}

func TestParseManifestErrors(t *testing.T) {
	tests := map[string]string{
		"not xml":    "{}",
		"no id":      "<package><metadata><version>1.0</version></metadata></package>",
		"no version": "<package><metadata><id>A</id></metadata></package>",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseManifest(strings.NewReader(doc))
			assert.ErrorIs(t, err, errutils.ErrInvalidPackage)
		})
	}

	m, err := ParseManifest(strings.NewReader(`<package xmlns="http://schemas.microsoft.com/packaging/2010/07/nuspec.xsd"><metadata><id>A</id><version>x.y</version></metadata></package>`))
	require.NoError(t, err, "namespaced documents are accepted")
	_, err = m.ToMetadata()
	assert.ErrorIs(t, err, errutils.ErrParse)
}

func TestBuildAndInspectPackage(t *testing.T) {
	ctx := context.Background()
	am := NewManager()
	archivePath := filepath.Join(t.TempDir(), PackageFileName("Contoso.Utils", version.MustParse("1.2.0")))
	assert.Equal(t, "Contoso.Utils.1.2.nupkg", filepath.Base(archivePath))

	err := am.BuildPackage(ctx, testManifest(), map[string]string{
		"lib/net40/Contoso.Utils.dll":                  "dll",
		"lib/portable-net45+sl4+wp71/Contoso.Utils.dll": "dll",
		"lib/netstandard9/Contoso.Utils.dll":            "dll",
		"content/readme.txt":                            "hi",
	}, archivePath)
	require.NoError(t, err)

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	contents, err := am.Inspect(ctx, data)
	require.NoError(t, err)
	require.NotNil(t, contents.Manifest)
	assert.Equal(t, "Contoso.Utils", contents.Manifest.Metadata.ID)
	assert.ElementsMatch(t, []string{"net40", "portable-net45+sl4+wp71", "netstandard9"}, contents.LibFolders)
	assert.Contains(t, contents.Files, "content/readme.txt")
	assert.False(t, contents.ManifestCreated.IsZero())

	meta, err := am.ReadMetadata(ctx, data)
	require.NoError(t, err)
	require.Len(t, meta.SupportedProfiles, 3)

	net45, err := platform.ParseCompact("net45")
	require.NoError(t, err)
	sl5, err := platform.ParseCompact("sl5")
	require.NoError(t, err)
	netcore, err := platform.ParseCompact("netcore45")
	require.NoError(t, err)
	assert.True(t, meta.IsCompatibleWith(net45))
	assert.True(t, meta.IsCompatibleWith(sl5))
	assert.False(t, meta.IsCompatibleWith(netcore))
}

func TestManifestCreatedTimestamp(t *testing.T) {
	ctx := context.Background()
	am := NewManager()

	src := t.TempDir()
	var buf bytes.Buffer
	require.NoError(t, testManifest().Write(&buf))
	manifestPath := filepath.Join(src, "Contoso.Utils.nuspec")
	require.NoError(t, os.WriteFile(manifestPath, buf.Bytes(), 0o644))
	stamp := time.Date(2019, 3, 4, 5, 6, 8, 0, time.UTC)
	require.NoError(t, os.Chtimes(manifestPath, stamp, stamp))

	out := t.TempDir()
	archivePath, err := am.Pack(ctx, src, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "Contoso.Utils.1.2.nupkg"), archivePath)

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	created, found, err := am.ManifestCreated(ctx, data)
	require.NoError(t, err)
	assert.True(t, found)
	assert.WithinDuration(t, stamp, created, 2*time.Second)
}

func TestArchiveWithoutManifest(t *testing.T) {
	ctx := context.Background()
	am := NewManager()

	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "file.txt"), []byte("x"), 0o644))
	archivePath := filepath.Join(t.TempDir(), "plain.zip")
	require.NoError(t, am.Create(ctx, src, archivePath))

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)

	created, found, err := am.ManifestCreated(ctx, data)
	require.NoError(t, err)
	assert.False(t, found)
	assert.True(t, created.IsZero())

	_, err = am.ReadMetadata(ctx, data)
	assert.ErrorIs(t, err, errutils.ErrInvalidPackage)

	_, err = am.Pack(ctx, src, t.TempDir())
	assert.ErrorIs(t, err, errutils.ErrInvalidPackage)
}

func TestInspectRejectsGarbage(t *testing.T) {
	_, err := NewManager().Inspect(context.Background(), []byte("definitely not a zip"))
	assert.ErrorIs(t, err, errutils.ErrInvalidPackage)
}

func TestCustomProfileTable(t *testing.T) {
	table := platform.NewProfileTable()
	profile, err := platform.ParseCompact("net45+wp8")
	require.NoError(t, err)
	table.Add("ProfileX", profile)

	am := NewManagerWithProfiles(table)
	archivePath := filepath.Join(t.TempDir(), "x.nupkg")
	require.NoError(t, am.BuildPackage(context.Background(), testManifest(),
		map[string]string{"lib/ProfileX/x.dll": "dll"}, archivePath))

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	meta, err := am.ReadMetadata(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, meta.SupportedProfiles, 1)
	assert.Equal(t, "ProfileX", meta.SupportedProfiles[0].Name())
}

func TestClientProfileLibFolder(t *testing.T) {
	am := NewManager()
	archivePath := filepath.Join(t.TempDir(), "client.nupkg")
	require.NoError(t, am.BuildPackage(context.Background(), testManifest(),
		map[string]string{"lib/net40-client/x.dll": "dll"}, archivePath))

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	meta, err := am.ReadMetadata(context.Background(), data)
	require.NoError(t, err)
	require.Len(t, meta.SupportedProfiles, 1)
	assert.Equal(t, "net40", meta.SupportedProfiles[0].String())

	net45, err := platform.ParseCompact("net45")
	require.NoError(t, err)
	sl5, err := platform.ParseCompact("sl5")
	require.NoError(t, err)
	assert.True(t, meta.IsCompatibleWith(net45))
	assert.False(t, meta.IsCompatibleWith(sl5))
}
